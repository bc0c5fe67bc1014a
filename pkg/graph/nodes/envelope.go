package nodes

import (
	"github.com/fernwave/tideline/pkg/dsp/envelope"
	"github.com/fernwave/tideline/pkg/graph"
	"github.com/fernwave/tideline/pkg/midi"
)

const (
	envParamAttack  uint32 = 0
	envParamDecay   uint32 = 1
	envParamSustain uint32 = 2
	envParamRelease uint32 = 3
)

// Envelope is an ADSR generator node: Gate in, CV out. Wiring its output
// into an oscillator/filter/VCA's CV or parameter input is how amplitude
// and filter envelopes are built in the graph.
type Envelope struct {
	graph.BaseNode

	adsr       *envelope.ADSR
	gateOpen   bool
	attack     float32
	decay      float32
	sustain    float32
	release    float32
	sampleRate float64
}

// NewEnvelope returns an Envelope node with a 10ms/100ms/0.7/300ms ADSR.
func NewEnvelope(name string) *Envelope {
	e := &Envelope{
		attack:     0.01,
		decay:      0.1,
		sustain:    0.7,
		release:    0.3,
		sampleRate: 48000,
	}
	e.NodeName = name
	e.Cat = graph.CategoryUtility
	e.InPorts = []graph.Port{{Name: "Gate", Signal: graph.SignalGate, Index: 0}}
	e.OutPorts = []graph.Port{{Name: "CV Out", Signal: graph.SignalCV, Index: 0}}
	e.ParamTable = []graph.Parameter{
		{ID: envParamAttack, Name: "Attack", Min: 0.001, Max: 5, Default: 0.01, Unit: graph.UnitSeconds},
		{ID: envParamDecay, Name: "Decay", Min: 0.001, Max: 5, Default: 0.1, Unit: graph.UnitSeconds},
		{ID: envParamSustain, Name: "Sustain", Min: 0, Max: 1, Default: 0.7, Unit: graph.UnitPercent},
		{ID: envParamRelease, Name: "Release", Min: 0.001, Max: 10, Default: 0.3, Unit: graph.UnitSeconds},
	}
	e.adsr = envelope.New(e.sampleRate)
	e.adsr.SetADSR(float64(e.attack), float64(e.decay), float64(e.sustain), float64(e.release))
	return e
}

func (e *Envelope) SetParameter(id uint32, value float32) {
	switch id {
	case envParamAttack:
		e.attack = value
	case envParamDecay:
		e.decay = value
	case envParamSustain:
		e.sustain = value
	case envParamRelease:
		e.release = value
	}
	e.adsr.SetADSR(float64(e.attack), float64(e.decay), float64(e.sustain), float64(e.release))
}

func (e *Envelope) GetParameter(id uint32) float32 {
	switch id {
	case envParamAttack:
		return e.attack
	case envParamDecay:
		return e.decay
	case envParamSustain:
		return e.sustain
	case envParamRelease:
		return e.release
	}
	return 0
}

func (e *Envelope) Process(inputs [][]float32, outputs [][]float32, midiIn [][]midi.Event, midiOut [][]midi.Event, sampleRate uint32) {
	if len(outputs) == 0 {
		return
	}
	if float64(sampleRate) != e.sampleRate {
		e.sampleRate = float64(sampleRate)
		e.adsr = envelope.New(e.sampleRate)
		e.adsr.SetADSR(float64(e.attack), float64(e.decay), float64(e.sustain), float64(e.release))
	}
	out := outputs[0]
	frames := len(out) / 2
	var gate []float32
	if len(inputs) > 0 {
		gate = inputs[0]
	}
	for fr := 0; fr < frames; fr++ {
		g := graphSampleAt(gate, fr) > 0.5
		if g && !e.gateOpen {
			e.adsr.Trigger()
		} else if !g && e.gateOpen {
			e.adsr.Release()
		}
		e.gateOpen = g
		v := e.adsr.Next()
		out[fr*2] = v
		out[fr*2+1] = v
	}
}

func (e *Envelope) Reset() {
	e.adsr.Reset()
	e.gateOpen = false
}

func (e *Envelope) NodeType() string { return "Envelope" }

func (e *Envelope) Clone() graph.Node {
	c := NewEnvelope(e.NodeName)
	c.attack, c.decay, c.sustain, c.release = e.attack, e.decay, e.sustain, e.release
	c.adsr.SetADSR(float64(c.attack), float64(c.decay), float64(c.sustain), float64(c.release))
	return c
}
