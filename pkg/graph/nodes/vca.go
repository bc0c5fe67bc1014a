package nodes

import (
	"github.com/fernwave/tideline/pkg/dsp/gain"
	"github.com/fernwave/tideline/pkg/graph"
	"github.com/fernwave/tideline/pkg/midi"
)

const vcaParamGain uint32 = 0

// VCA multiplies an audio signal by a CV input (typically an Envelope's
// output) scaled by a base gain parameter — the standard modular
// "voltage controlled amplifier" building block.
type VCA struct {
	graph.BaseNode
	baseGain float32
}

// NewVCA returns a VCA node with unity base gain.
func NewVCA(name string) *VCA {
	v := &VCA{baseGain: 1.0}
	v.NodeName = name
	v.Cat = graph.CategoryUtility
	v.InPorts = []graph.Port{
		{Name: "Audio In", Signal: graph.SignalAudio, Index: 0},
		{Name: "CV In", Signal: graph.SignalCV, Index: 1},
	}
	v.OutPorts = []graph.Port{{Name: "Audio Out", Signal: graph.SignalAudio, Index: 0}}
	v.ParamTable = []graph.Parameter{
		{ID: vcaParamGain, Name: "Gain", Min: 0, Max: 2, Default: 1, Unit: graph.UnitGeneric},
	}
	return v
}

func (v *VCA) SetParameter(id uint32, value float32) {
	if id == vcaParamGain {
		v.baseGain = value
	}
}

func (v *VCA) GetParameter(id uint32) float32 {
	if id == vcaParamGain {
		return v.baseGain
	}
	return 0
}

func (v *VCA) Process(inputs [][]float32, outputs [][]float32, midiIn [][]midi.Event, midiOut [][]midi.Event, sampleRate uint32) {
	if len(outputs) == 0 || len(inputs) == 0 {
		return
	}
	out := outputs[0]
	in := inputs[0]
	var cv []float32
	if len(inputs) > 1 {
		cv = inputs[1]
	}
	frames := len(out) / 2
	for fr := 0; fr < frames; fr++ {
		g := v.baseGain
		if len(cv) > 0 {
			g *= graphSampleAt(cv, fr)
		}
		out[fr*2] = gain.Apply(in[fr*2], g)
		out[fr*2+1] = gain.Apply(in[fr*2+1], g)
	}
}

func (v *VCA) Reset() {}

func (v *VCA) NodeType() string { return "VCA" }

func (v *VCA) Clone() graph.Node {
	c := NewVCA(v.NodeName)
	c.baseGain = v.baseGain
	return c
}
