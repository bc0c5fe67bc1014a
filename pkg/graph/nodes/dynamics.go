package nodes

import (
	"github.com/fernwave/tideline/pkg/dsp/dynamics"
	"github.com/fernwave/tideline/pkg/graph"
	"github.com/fernwave/tideline/pkg/midi"
)

const (
	gateParamThreshold uint32 = 0
	gateParamAttack    uint32 = 1
	gateParamHold      uint32 = 2
	gateParamRelease   uint32 = 3
)

// Gate is a noise-gate node: closes below threshold, per channel.
type Gate struct {
	graph.BaseNode
	gate                         [2]*dynamics.Gate
	scratch                      graph.StereoScratch
	threshold, attack, hold, rel float32
	sampleRate                   float64
}

// NewGate returns a Gate node with a -40dB threshold.
func NewGate(name string) *Gate {
	g := &Gate{threshold: -40, attack: 0.001, hold: 0.05, rel: 0.1, sampleRate: 48000}
	g.NodeName = name
	g.Cat = graph.CategoryDynamics
	g.InPorts = []graph.Port{{Name: "Audio In", Signal: graph.SignalAudio, Index: 0}}
	g.OutPorts = []graph.Port{{Name: "Audio Out", Signal: graph.SignalAudio, Index: 0}}
	g.ParamTable = []graph.Parameter{
		{ID: gateParamThreshold, Name: "Threshold", Min: -80, Max: 0, Default: -40, Unit: graph.UnitDecibel},
		{ID: gateParamAttack, Name: "Attack", Min: 0.0001, Max: 0.5, Default: 0.001, Unit: graph.UnitSeconds},
		{ID: gateParamHold, Name: "Hold", Min: 0, Max: 1, Default: 0.05, Unit: graph.UnitSeconds},
		{ID: gateParamRelease, Name: "Release", Min: 0.001, Max: 2, Default: 0.1, Unit: graph.UnitSeconds},
	}
	g.gate[0] = dynamics.NewGate(g.sampleRate)
	g.gate[1] = dynamics.NewGate(g.sampleRate)
	g.applyParams()
	return g
}

func (g *Gate) applyParams() {
	for _, gt := range g.gate {
		gt.SetThreshold(float64(g.threshold))
		gt.SetAttack(float64(g.attack))
		gt.SetHold(float64(g.hold))
		gt.SetRelease(float64(g.rel))
	}
}

func (g *Gate) SetParameter(id uint32, value float32) {
	switch id {
	case gateParamThreshold:
		g.threshold = value
	case gateParamAttack:
		g.attack = value
	case gateParamHold:
		g.hold = value
	case gateParamRelease:
		g.rel = value
	}
	g.applyParams()
}

func (g *Gate) GetParameter(id uint32) float32 {
	switch id {
	case gateParamThreshold:
		return g.threshold
	case gateParamAttack:
		return g.attack
	case gateParamHold:
		return g.hold
	case gateParamRelease:
		return g.rel
	}
	return 0
}

func (g *Gate) Process(inputs [][]float32, outputs [][]float32, midiIn [][]midi.Event, midiOut [][]midi.Event, sampleRate uint32) {
	if len(outputs) == 0 || len(inputs) == 0 {
		return
	}
	out := outputs[0]
	frames := len(out) / 2
	g.scratch.Deinterleave(inputs[0], frames)
	g.gate[0].ProcessBuffer(g.scratch.L[:frames], g.scratch.L[:frames])
	g.gate[1].ProcessBuffer(g.scratch.R[:frames], g.scratch.R[:frames])
	g.scratch.Interleave(out, frames)
}

func (g *Gate) Reset() { g.gate[0].Reset(); g.gate[1].Reset() }

func (g *Gate) NodeType() string { return "Gate" }

func (g *Gate) Clone() graph.Node {
	c := NewGate(g.NodeName)
	c.threshold, c.attack, c.hold, c.rel = g.threshold, g.attack, g.hold, g.rel
	c.applyParams()
	return c
}

const (
	expParamThreshold uint32 = 0
	expParamRatio     uint32 = 1
)

// Expander is a downward-expander node, gentler than Gate's hard cutoff.
type Expander struct {
	graph.BaseNode
	exp              [2]*dynamics.Expander
	scratch          graph.StereoScratch
	threshold, ratio float32
	sampleRate       float64
}

// NewExpander returns an Expander node.
func NewExpander(name string) *Expander {
	e := &Expander{threshold: -30, ratio: 2, sampleRate: 48000}
	e.NodeName = name
	e.Cat = graph.CategoryDynamics
	e.InPorts = []graph.Port{{Name: "Audio In", Signal: graph.SignalAudio, Index: 0}}
	e.OutPorts = []graph.Port{{Name: "Audio Out", Signal: graph.SignalAudio, Index: 0}}
	e.ParamTable = []graph.Parameter{
		{ID: expParamThreshold, Name: "Threshold", Min: -80, Max: 0, Default: -30, Unit: graph.UnitDecibel},
		{ID: expParamRatio, Name: "Ratio", Min: 1, Max: 10, Default: 2, Unit: graph.UnitGeneric},
	}
	e.exp[0] = dynamics.NewExpander(e.sampleRate)
	e.exp[1] = dynamics.NewExpander(e.sampleRate)
	e.applyParams()
	return e
}

func (e *Expander) applyParams() {
	for _, ex := range e.exp {
		ex.SetThreshold(float64(e.threshold))
		ex.SetRatio(float64(e.ratio))
	}
}

func (e *Expander) SetParameter(id uint32, value float32) {
	switch id {
	case expParamThreshold:
		e.threshold = value
	case expParamRatio:
		e.ratio = value
	}
	e.applyParams()
}

func (e *Expander) GetParameter(id uint32) float32 {
	switch id {
	case expParamThreshold:
		return e.threshold
	case expParamRatio:
		return e.ratio
	}
	return 0
}

func (e *Expander) Process(inputs [][]float32, outputs [][]float32, midiIn [][]midi.Event, midiOut [][]midi.Event, sampleRate uint32) {
	if len(outputs) == 0 || len(inputs) == 0 {
		return
	}
	out := outputs[0]
	frames := len(out) / 2
	e.scratch.Deinterleave(inputs[0], frames)
	e.exp[0].ProcessBuffer(e.scratch.L[:frames], e.scratch.L[:frames])
	e.exp[1].ProcessBuffer(e.scratch.R[:frames], e.scratch.R[:frames])
	e.scratch.Interleave(out, frames)
}

func (e *Expander) Reset() { e.exp[0].Reset(); e.exp[1].Reset() }

func (e *Expander) NodeType() string { return "Expander" }

func (e *Expander) Clone() graph.Node {
	c := NewExpander(e.NodeName)
	c.threshold, c.ratio = e.threshold, e.ratio
	c.applyParams()
	return c
}

const limParamThreshold uint32 = 0

// Limiter is a brickwall peak limiter node, typically the last node in a
// mastering-style effect chain.
type Limiter struct {
	graph.BaseNode
	lim        [2]*dynamics.Limiter
	scratch    graph.StereoScratch
	threshold  float32
	sampleRate float64
}

// NewLimiter returns a Limiter node with a -0.3dB ceiling.
func NewLimiter(name string) *Limiter {
	l := &Limiter{threshold: -0.3, sampleRate: 48000}
	l.NodeName = name
	l.Cat = graph.CategoryDynamics
	l.InPorts = []graph.Port{{Name: "Audio In", Signal: graph.SignalAudio, Index: 0}}
	l.OutPorts = []graph.Port{{Name: "Audio Out", Signal: graph.SignalAudio, Index: 0}}
	l.ParamTable = []graph.Parameter{
		{ID: limParamThreshold, Name: "Ceiling", Min: -12, Max: 0, Default: -0.3, Unit: graph.UnitDecibel},
	}
	l.lim[0] = dynamics.NewLimiter(l.sampleRate)
	l.lim[1] = dynamics.NewLimiter(l.sampleRate)
	l.applyParams()
	return l
}

func (l *Limiter) applyParams() {
	for _, lm := range l.lim {
		lm.SetThreshold(float64(l.threshold))
	}
}

func (l *Limiter) SetParameter(id uint32, value float32) {
	if id == limParamThreshold {
		l.threshold = value
		l.applyParams()
	}
}

func (l *Limiter) GetParameter(id uint32) float32 {
	if id == limParamThreshold {
		return l.threshold
	}
	return 0
}

func (l *Limiter) Process(inputs [][]float32, outputs [][]float32, midiIn [][]midi.Event, midiOut [][]midi.Event, sampleRate uint32) {
	if len(outputs) == 0 || len(inputs) == 0 {
		return
	}
	out := outputs[0]
	frames := len(out) / 2
	l.scratch.Deinterleave(inputs[0], frames)
	l.lim[0].ProcessBuffer(l.scratch.L[:frames], l.scratch.L[:frames])
	l.lim[1].ProcessBuffer(l.scratch.R[:frames], l.scratch.R[:frames])
	l.scratch.Interleave(out, frames)
}

func (l *Limiter) Reset() { l.lim[0].Reset(); l.lim[1].Reset() }

func (l *Limiter) NodeType() string { return "Limiter" }

func (l *Limiter) Clone() graph.Node {
	c := NewLimiter(l.NodeName)
	c.threshold = l.threshold
	c.applyParams()
	return c
}
