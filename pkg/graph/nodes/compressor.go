package nodes

import (
	"github.com/fernwave/tideline/pkg/dsp/dynamics"
	"github.com/fernwave/tideline/pkg/graph"
	"github.com/fernwave/tideline/pkg/midi"
)

const (
	compParamThreshold uint32 = 0
	compParamRatio      uint32 = 1
	compParamAttack     uint32 = 2
	compParamRelease    uint32 = 3
	compParamMakeup     uint32 = 4
)

// Compressor wraps dynamics.Compressor, run independently per channel.
type Compressor struct {
	graph.BaseNode
	comp       [2]*dynamics.Compressor
	scratch    graph.StereoScratch
	threshold  float32
	ratio      float32
	attack     float32
	release    float32
	makeup     float32
	sampleRate float64
}

// NewCompressor returns a Compressor node with -18dB threshold, 4:1 ratio.
func NewCompressor(name string) *Compressor {
	c := &Compressor{
		threshold:  -18,
		ratio:      4,
		attack:     0.005,
		release:    0.1,
		makeup:     0,
		sampleRate: 48000,
	}
	c.NodeName = name
	c.Cat = graph.CategoryDynamics
	c.InPorts = []graph.Port{{Name: "Audio In", Signal: graph.SignalAudio, Index: 0}}
	c.OutPorts = []graph.Port{{Name: "Audio Out", Signal: graph.SignalAudio, Index: 0}}
	c.ParamTable = []graph.Parameter{
		{ID: compParamThreshold, Name: "Threshold", Min: -60, Max: 0, Default: -18, Unit: graph.UnitDecibel},
		{ID: compParamRatio, Name: "Ratio", Min: 1, Max: 20, Default: 4, Unit: graph.UnitGeneric},
		{ID: compParamAttack, Name: "Attack", Min: 0.0001, Max: 1, Default: 0.005, Unit: graph.UnitSeconds},
		{ID: compParamRelease, Name: "Release", Min: 0.001, Max: 2, Default: 0.1, Unit: graph.UnitSeconds},
		{ID: compParamMakeup, Name: "Makeup", Min: 0, Max: 24, Default: 0, Unit: graph.UnitDecibel},
	}
	c.comp[0] = dynamics.NewCompressor(c.sampleRate)
	c.comp[1] = dynamics.NewCompressor(c.sampleRate)
	c.applyParams()
	return c
}

func (c *Compressor) applyParams() {
	for _, comp := range c.comp {
		comp.SetThreshold(float64(c.threshold))
		comp.SetRatio(float64(c.ratio))
		comp.SetAttack(float64(c.attack))
		comp.SetRelease(float64(c.release))
		comp.SetMakeupGain(float64(c.makeup))
	}
}

func (c *Compressor) SetParameter(id uint32, value float32) {
	switch id {
	case compParamThreshold:
		c.threshold = value
	case compParamRatio:
		c.ratio = value
	case compParamAttack:
		c.attack = value
	case compParamRelease:
		c.release = value
	case compParamMakeup:
		c.makeup = value
	}
	c.applyParams()
}

func (c *Compressor) GetParameter(id uint32) float32 {
	switch id {
	case compParamThreshold:
		return c.threshold
	case compParamRatio:
		return c.ratio
	case compParamAttack:
		return c.attack
	case compParamRelease:
		return c.release
	case compParamMakeup:
		return c.makeup
	}
	return 0
}

func (c *Compressor) Process(inputs [][]float32, outputs [][]float32, midiIn [][]midi.Event, midiOut [][]midi.Event, sampleRate uint32) {
	if len(outputs) == 0 || len(inputs) == 0 {
		return
	}
	if float64(sampleRate) != c.sampleRate {
		c.sampleRate = float64(sampleRate)
		c.comp[0] = dynamics.NewCompressor(c.sampleRate)
		c.comp[1] = dynamics.NewCompressor(c.sampleRate)
		c.applyParams()
	}
	out := outputs[0]
	frames := len(out) / 2
	c.scratch.Deinterleave(inputs[0], frames)
	c.comp[0].ProcessBuffer(c.scratch.L[:frames], c.scratch.L[:frames])
	c.comp[1].ProcessBuffer(c.scratch.R[:frames], c.scratch.R[:frames])
	c.scratch.Interleave(out, frames)
}

func (c *Compressor) Reset() {
	c.comp[0].Reset()
	c.comp[1].Reset()
}

func (c *Compressor) NodeType() string { return "Compressor" }

func (c *Compressor) Clone() graph.Node {
	n := NewCompressor(c.NodeName)
	n.threshold, n.ratio, n.attack, n.release, n.makeup = c.threshold, c.ratio, c.attack, c.release, c.makeup
	n.applyParams()
	return n
}
