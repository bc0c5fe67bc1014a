package nodes

import (
	"github.com/fernwave/tideline/pkg/dsp/mix"
	"github.com/fernwave/tideline/pkg/graph"
	"github.com/fernwave/tideline/pkg/midi"
)

// Mixer sums a fixed number of stereo audio inputs with independent
// per-input gain parameters.
type Mixer struct {
	graph.BaseNode
	gains []float32

	scratchBufs  [][]float32
	scratchGains []float32
}

// NewMixer returns a Mixer node with n input ports, all at unity gain.
func NewMixer(name string, n int) *Mixer {
	m := &Mixer{gains: make([]float32, n), scratchBufs: make([][]float32, 0, n), scratchGains: make([]float32, 0, n)}
	for i := range m.gains {
		m.gains[i] = 1.0
	}
	m.NodeName = name
	m.Cat = graph.CategoryUtility
	m.InPorts = make([]graph.Port, n)
	params := make([]graph.Parameter, n)
	for i := 0; i < n; i++ {
		m.InPorts[i] = graph.Port{Name: "In", Signal: graph.SignalAudio, Index: uint32(i)}
		params[i] = graph.Parameter{ID: uint32(i), Name: "Gain", Min: 0, Max: 2, Default: 1, Unit: graph.UnitGeneric}
	}
	m.ParamTable = params
	m.OutPorts = []graph.Port{{Name: "Audio Out", Signal: graph.SignalAudio, Index: 0}}
	return m
}

func (m *Mixer) SetParameter(id uint32, value float32) {
	if int(id) < len(m.gains) {
		m.gains[id] = value
	}
}

func (m *Mixer) GetParameter(id uint32) float32 {
	if int(id) < len(m.gains) {
		return m.gains[id]
	}
	return 0
}

func (m *Mixer) Process(inputs [][]float32, outputs [][]float32, midiIn [][]midi.Event, midiOut [][]midi.Event, sampleRate uint32) {
	if len(outputs) == 0 {
		return
	}
	out := outputs[0]
	for i := range out {
		out[i] = 0
	}
	weighted := m.scratchBufs[:0]
	gains := m.scratchGains[:0]
	for i, in := range inputs {
		if len(in) == 0 {
			continue
		}
		weighted = append(weighted, in)
		g := float32(1)
		if i < len(m.gains) {
			g = m.gains[i]
		}
		gains = append(gains, g)
	}
	m.scratchBufs, m.scratchGains = weighted, gains
	mix.SumWeighted(weighted, gains, out)
}

func (m *Mixer) Reset() {}

func (m *Mixer) NodeType() string { return "Mixer" }

func (m *Mixer) Clone() graph.Node {
	c := NewMixer(m.NodeName, len(m.gains))
	copy(c.gains, m.gains)
	return c
}
