package nodes

import (
	"github.com/fernwave/tideline/pkg/dsp/delay"
	"github.com/fernwave/tideline/pkg/graph"
	"github.com/fernwave/tideline/pkg/midi"
)

const (
	delayParamTime     uint32 = 0
	delayParamFeedback uint32 = 1
	delayParamMix      uint32 = 2
	delayParamPingPong uint32 = 3

	delayMaxSeconds = 2.0
)

// Delay is a stereo echo insert: each channel runs its own delay line,
// with an optional ping-pong mode that crosses the feedback path between
// channels.
type Delay struct {
	graph.BaseNode

	timeMs     float32
	feedback   float32
	mix        float32
	pingPong   bool
	sampleRate float64

	line [2]*delay.Line
}

// NewDelay returns a Delay node with a 350ms tap and no feedback.
func NewDelay(name string) *Delay {
	d := &Delay{timeMs: 350, feedback: 0.3, mix: 0.35, sampleRate: 48000}
	d.NodeName = name
	d.Cat = graph.CategoryDelay
	d.InPorts = []graph.Port{{Name: "Audio In", Signal: graph.SignalAudio, Index: 0}}
	d.OutPorts = []graph.Port{{Name: "Audio Out", Signal: graph.SignalAudio, Index: 0}}
	d.ParamTable = []graph.Parameter{
		{ID: delayParamTime, Name: "Time", Min: 1, Max: delayMaxSeconds * 1000, Default: 350, Unit: graph.UnitMilliseconds},
		{ID: delayParamFeedback, Name: "Feedback", Min: 0, Max: 0.95, Default: 0.3, Unit: graph.UnitPercent},
		{ID: delayParamMix, Name: "Mix", Min: 0, Max: 1, Default: 0.35, Unit: graph.UnitPercent},
		{ID: delayParamPingPong, Name: "Ping-Pong", Min: 0, Max: 1, Default: 0, Unit: graph.UnitGeneric},
	}
	for ch := range d.line {
		d.line[ch] = delay.New(delayMaxSeconds, d.sampleRate)
	}
	return d
}

func (d *Delay) SetParameter(id uint32, value float32) {
	switch id {
	case delayParamTime:
		d.timeMs = value
	case delayParamFeedback:
		d.feedback = value
	case delayParamMix:
		d.mix = value
	case delayParamPingPong:
		d.pingPong = value >= 0.5
	}
}

func (d *Delay) GetParameter(id uint32) float32 {
	switch id {
	case delayParamTime:
		return d.timeMs
	case delayParamFeedback:
		return d.feedback
	case delayParamMix:
		return d.mix
	case delayParamPingPong:
		if d.pingPong {
			return 1
		}
		return 0
	}
	return 0
}

// Process feeds each channel's dry signal into its own delay line,
// cross-feeding the wet tap into the opposite channel's write when
// ping-pong is enabled.
func (d *Delay) Process(inputs [][]float32, outputs [][]float32, midiIn [][]midi.Event, midiOut [][]midi.Event, sampleRate uint32) {
	if len(outputs) == 0 || len(inputs) == 0 {
		return
	}
	if float64(sampleRate) != d.sampleRate {
		d.sampleRate = float64(sampleRate)
		for ch := range d.line {
			d.line[ch] = delay.New(delayMaxSeconds, d.sampleRate)
		}
	}

	in := inputs[0]
	out := outputs[0]
	frames := len(out) / 2
	delaySamples := float64(d.timeMs) * d.sampleRate / 1000.0
	dryGain := 1 - d.mix

	for fr := 0; fr < frames; fr++ {
		dryL := in[fr*2]
		dryR := in[fr*2+1]

		wetL := d.line[0].Read(delaySamples)
		wetR := d.line[1].Read(delaySamples)

		if d.pingPong {
			d.line[0].Write(dryL + wetR*d.feedback)
			d.line[1].Write(dryR + wetL*d.feedback)
		} else {
			d.line[0].Write(dryL + wetL*d.feedback)
			d.line[1].Write(dryR + wetR*d.feedback)
		}

		out[fr*2] = dryL*dryGain + wetL*d.mix
		out[fr*2+1] = dryR*dryGain + wetR*d.mix
	}
}

func (d *Delay) Reset() {
	for ch := range d.line {
		d.line[ch].Reset()
	}
}

func (d *Delay) NodeType() string { return "Delay" }

func (d *Delay) Clone() graph.Node {
	c := NewDelay(d.NodeName)
	c.timeMs, c.feedback, c.mix, c.pingPong = d.timeMs, d.feedback, d.mix, d.pingPong
	return c
}
