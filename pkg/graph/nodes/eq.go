package nodes

import (
	"github.com/fernwave/tideline/pkg/dsp/filter"
	"github.com/fernwave/tideline/pkg/graph"
	"github.com/fernwave/tideline/pkg/midi"
)

const (
	eqParamLowGain  uint32 = 0
	eqParamMidGain  uint32 = 1
	eqParamMidFreq  uint32 = 2
	eqParamHighGain uint32 = 3
)

// ThreeBandEQ is a low-shelf / peaking-mid / high-shelf stereo EQ.
type ThreeBandEQ struct {
	graph.BaseNode

	lowGain, midGain, highGain float32
	midFreq                    float32

	low  [2]*filter.Biquad
	mid  [2]*filter.Biquad
	high [2]*filter.Biquad

	scratch [2][]float32
}

// NewThreeBandEQ returns a ThreeBandEQ node with flat gains.
func NewThreeBandEQ(name string) *ThreeBandEQ {
	e := &ThreeBandEQ{midFreq: 1000}
	e.NodeName = name
	e.Cat = graph.CategoryFilter
	e.InPorts = []graph.Port{{Name: "Audio In", Signal: graph.SignalAudio, Index: 0}}
	e.OutPorts = []graph.Port{{Name: "Audio Out", Signal: graph.SignalAudio, Index: 0}}
	e.ParamTable = []graph.Parameter{
		{ID: eqParamLowGain, Name: "Low Gain", Min: -24, Max: 24, Default: 0, Unit: graph.UnitDecibel},
		{ID: eqParamMidGain, Name: "Mid Gain", Min: -24, Max: 24, Default: 0, Unit: graph.UnitDecibel},
		{ID: eqParamMidFreq, Name: "Mid Freq", Min: 200, Max: 8000, Default: 1000, Unit: graph.UnitHertz},
		{ID: eqParamHighGain, Name: "High Gain", Min: -24, Max: 24, Default: 0, Unit: graph.UnitDecibel},
	}
	for ch := 0; ch < 2; ch++ {
		e.low[ch] = filter.NewBiquad(1)
		e.mid[ch] = filter.NewBiquad(1)
		e.high[ch] = filter.NewBiquad(1)
	}
	return e
}

func (e *ThreeBandEQ) SetParameter(id uint32, value float32) {
	switch id {
	case eqParamLowGain:
		e.lowGain = value
	case eqParamMidGain:
		e.midGain = value
	case eqParamMidFreq:
		e.midFreq = value
	case eqParamHighGain:
		e.highGain = value
	}
}

func (e *ThreeBandEQ) GetParameter(id uint32) float32 {
	switch id {
	case eqParamLowGain:
		return e.lowGain
	case eqParamMidGain:
		return e.midGain
	case eqParamMidFreq:
		return e.midFreq
	case eqParamHighGain:
		return e.highGain
	}
	return 0
}

func (e *ThreeBandEQ) Process(inputs [][]float32, outputs [][]float32, midiIn [][]midi.Event, midiOut [][]midi.Event, sampleRate uint32) {
	if len(outputs) == 0 || len(inputs) == 0 {
		return
	}
	out := outputs[0]
	copy(out, inputs[0])
	sr := float64(sampleRate)
	for ch := 0; ch < 2; ch++ {
		e.low[ch].SetLowShelf(sr, 250, 0.707, float64(e.lowGain))
		e.mid[ch].SetPeakingEQ(sr, float64(e.midFreq), 1.0, float64(e.midGain))
		e.high[ch].SetHighShelf(sr, 4000, 0.707, float64(e.highGain))
	}
	frames := len(out) / 2
	for ch := 0; ch < 2; ch++ {
		if len(e.scratch[ch]) < frames {
			e.scratch[ch] = make([]float32, frames)
		}
		chanBuf := e.scratch[ch][:frames]
		for fr := 0; fr < frames; fr++ {
			chanBuf[fr] = out[fr*2+ch]
		}
		e.low[ch].Process(chanBuf, 0)
		e.mid[ch].Process(chanBuf, 0)
		e.high[ch].Process(chanBuf, 0)
		for fr := 0; fr < frames; fr++ {
			out[fr*2+ch] = chanBuf[fr]
		}
	}
}

func (e *ThreeBandEQ) Reset() {
	for ch := 0; ch < 2; ch++ {
		e.low[ch].Reset()
		e.mid[ch].Reset()
		e.high[ch].Reset()
	}
}

func (e *ThreeBandEQ) NodeType() string { return "ThreeBandEQ" }

func (e *ThreeBandEQ) Clone() graph.Node {
	c := NewThreeBandEQ(e.NodeName)
	c.lowGain, c.midGain, c.midFreq, c.highGain = e.lowGain, e.midGain, e.midFreq, e.highGain
	return c
}
