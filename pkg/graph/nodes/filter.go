package nodes

import (
	"github.com/fernwave/tideline/pkg/dsp/filter"
	"github.com/fernwave/tideline/pkg/graph"
	"github.com/fernwave/tideline/pkg/midi"
)

// FilterMode selects which SVF output the Filter node routes to its
// output port.
type FilterMode int

const (
	FilterLowpass FilterMode = iota
	FilterHighpass
	FilterBandpass
	FilterNotch
)

const (
	filterParamMode      uint32 = 0
	filterParamCutoff    uint32 = 1
	filterParamResonance uint32 = 2
)

// Filter is a stereo state-variable filter node with a cutoff CV input.
type Filter struct {
	graph.BaseNode

	mode      FilterMode
	cutoff    float32
	resonance float32

	svf [2]*filter.SVF // one per channel
}

// NewFilter returns a Filter node.
func NewFilter(name string) *Filter {
	f := &Filter{
		cutoff:    1000,
		resonance: 0.707,
	}
	f.NodeName = name
	f.Cat = graph.CategoryFilter
	f.InPorts = []graph.Port{
		{Name: "Audio In", Signal: graph.SignalAudio, Index: 0},
		{Name: "Cutoff CV", Signal: graph.SignalCV, Index: 1},
	}
	f.OutPorts = []graph.Port{{Name: "Audio Out", Signal: graph.SignalAudio, Index: 0}}
	f.ParamTable = []graph.Parameter{
		{ID: filterParamMode, Name: "Mode", Min: 0, Max: 3, Default: 0, Unit: graph.UnitGeneric},
		{ID: filterParamCutoff, Name: "Cutoff", Min: 20, Max: 20000, Default: 1000, Unit: graph.UnitHertz},
		{ID: filterParamResonance, Name: "Resonance", Min: 0.5, Max: 10, Default: 0.707, Unit: graph.UnitGeneric},
	}
	f.svf[0] = filter.NewSVF(1)
	f.svf[1] = filter.NewSVF(1)
	return f
}

func (f *Filter) SetParameter(id uint32, value float32) {
	switch id {
	case filterParamMode:
		f.mode = FilterMode(value)
	case filterParamCutoff:
		f.cutoff = value
	case filterParamResonance:
		f.resonance = value
	}
}

func (f *Filter) GetParameter(id uint32) float32 {
	switch id {
	case filterParamMode:
		return float32(f.mode)
	case filterParamCutoff:
		return f.cutoff
	case filterParamResonance:
		return f.resonance
	}
	return 0
}

func (f *Filter) Process(inputs [][]float32, outputs [][]float32, midiIn [][]midi.Event, midiOut [][]midi.Event, sampleRate uint32) {
	if len(outputs) == 0 || len(inputs) == 0 {
		return
	}
	in := inputs[0]
	out := outputs[0]
	frames := len(out) / 2
	var cutoffCV []float32
	if len(inputs) > 1 {
		cutoffCV = inputs[1]
	}

	sr := float64(sampleRate)
	for ch := 0; ch < 2; ch++ {
		f.svf[ch].SetFrequencyAndQ(sr, float64(f.cutoff), float64(f.resonance))
	}

	for fr := 0; fr < frames; fr++ {
		cv := graphSampleAt(cutoffCV, fr)
		cutoff := float64(f.cutoff)
		if len(cutoffCV) > 0 {
			cutoff = voctToFreq(cv)
		}
		for ch := 0; ch < 2; ch++ {
			f.svf[ch].SetFrequencyAndQ(sr, cutoff, float64(f.resonance))
			outs := f.svf[ch].ProcessSample(in[fr*2+ch], 0)
			switch f.mode {
			case FilterLowpass:
				out[fr*2+ch] = outs.Lowpass
			case FilterHighpass:
				out[fr*2+ch] = outs.Highpass
			case FilterBandpass:
				out[fr*2+ch] = outs.Bandpass
			case FilterNotch:
				out[fr*2+ch] = outs.Notch
			}
		}
	}
}

func (f *Filter) Reset() {
	f.svf[0].Reset()
	f.svf[1].Reset()
}

func (f *Filter) NodeType() string { return "Filter" }

func (f *Filter) Clone() graph.Node {
	c := NewFilter(f.NodeName)
	c.mode = f.mode
	c.cutoff = f.cutoff
	c.resonance = f.resonance
	return c
}
