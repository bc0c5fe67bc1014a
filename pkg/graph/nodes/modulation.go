package nodes

import (
	"github.com/fernwave/tideline/pkg/dsp/modulation"
	"github.com/fernwave/tideline/pkg/graph"
	"github.com/fernwave/tideline/pkg/midi"
)

const (
	chorusParamRate     uint32 = 0
	chorusParamDepth    uint32 = 1
	chorusParamMix      uint32 = 2
	chorusParamFeedback uint32 = 3
)

// Chorus wraps modulation.Chorus, processed as true stereo.
type Chorus struct {
	graph.BaseNode
	c                           *modulation.Chorus
	rate, depth, mix, feedback float32
	sampleRate                 float64
}

// NewChorus returns a Chorus node with a 1.5Hz rate and 50% mix.
func NewChorus(name string) *Chorus {
	c := &Chorus{rate: 1.5, depth: 3, mix: 0.5, feedback: 0, sampleRate: 48000}
	c.NodeName = name
	c.Cat = graph.CategoryModulation
	c.InPorts = []graph.Port{{Name: "Audio In", Signal: graph.SignalAudio, Index: 0}}
	c.OutPorts = []graph.Port{{Name: "Audio Out", Signal: graph.SignalAudio, Index: 0}}
	c.ParamTable = []graph.Parameter{
		{ID: chorusParamRate, Name: "Rate", Min: 0.01, Max: 10, Default: 1.5, Unit: graph.UnitHertz},
		{ID: chorusParamDepth, Name: "Depth", Min: 0, Max: 20, Default: 3, Unit: graph.UnitMilliseconds},
		{ID: chorusParamMix, Name: "Mix", Min: 0, Max: 1, Default: 0.5, Unit: graph.UnitPercent},
		{ID: chorusParamFeedback, Name: "Feedback", Min: 0, Max: 0.95, Default: 0, Unit: graph.UnitPercent},
	}
	c.c = modulation.NewChorus(c.sampleRate)
	c.applyParams()
	return c
}

func (c *Chorus) applyParams() {
	c.c.SetRate(float64(c.rate))
	c.c.SetDepth(float64(c.depth))
	c.c.SetMix(float64(c.mix))
	c.c.SetFeedback(float64(c.feedback))
}

func (c *Chorus) SetParameter(id uint32, value float32) {
	switch id {
	case chorusParamRate:
		c.rate = value
	case chorusParamDepth:
		c.depth = value
	case chorusParamMix:
		c.mix = value
	case chorusParamFeedback:
		c.feedback = value
	}
	c.applyParams()
}

func (c *Chorus) GetParameter(id uint32) float32 {
	switch id {
	case chorusParamRate:
		return c.rate
	case chorusParamDepth:
		return c.depth
	case chorusParamMix:
		return c.mix
	case chorusParamFeedback:
		return c.feedback
	}
	return 0
}

func (c *Chorus) Process(inputs [][]float32, outputs [][]float32, midiIn [][]midi.Event, midiOut [][]midi.Event, sampleRate uint32) {
	if len(outputs) == 0 || len(inputs) == 0 {
		return
	}
	in, out := inputs[0], outputs[0]
	frames := len(out) / 2
	for fr := 0; fr < frames; fr++ {
		l, r := in[fr*2], in[fr*2+1]
		ol, or_ := c.c.ProcessStereo(l, r)
		out[fr*2], out[fr*2+1] = ol, or_
	}
}

func (c *Chorus) Reset() { c.c.Reset() }

func (c *Chorus) NodeType() string { return "Chorus" }

func (c *Chorus) Clone() graph.Node {
	n := NewChorus(c.NodeName)
	n.rate, n.depth, n.mix, n.feedback = c.rate, c.depth, c.mix, c.feedback
	n.applyParams()
	return n
}

const (
	flangerParamRate     uint32 = 0
	flangerParamDepth    uint32 = 1
	flangerParamFeedback uint32 = 2
	flangerParamMix      uint32 = 3
)

// Flanger wraps modulation.Flanger.
type Flanger struct {
	graph.BaseNode
	f                           *modulation.Flanger
	rate, depth, feedback, mix float32
	sampleRate                 float64
}

// NewFlanger returns a Flanger node.
func NewFlanger(name string) *Flanger {
	f := &Flanger{rate: 0.2, depth: 2, feedback: 0.3, mix: 0.5, sampleRate: 48000}
	f.NodeName = name
	f.Cat = graph.CategoryModulation
	f.InPorts = []graph.Port{{Name: "Audio In", Signal: graph.SignalAudio, Index: 0}}
	f.OutPorts = []graph.Port{{Name: "Audio Out", Signal: graph.SignalAudio, Index: 0}}
	f.ParamTable = []graph.Parameter{
		{ID: flangerParamRate, Name: "Rate", Min: 0.01, Max: 5, Default: 0.2, Unit: graph.UnitHertz},
		{ID: flangerParamDepth, Name: "Depth", Min: 0, Max: 10, Default: 2, Unit: graph.UnitMilliseconds},
		{ID: flangerParamFeedback, Name: "Feedback", Min: 0, Max: 0.95, Default: 0.3, Unit: graph.UnitPercent},
		{ID: flangerParamMix, Name: "Mix", Min: 0, Max: 1, Default: 0.5, Unit: graph.UnitPercent},
	}
	f.f = modulation.NewFlanger(f.sampleRate)
	f.applyParams()
	return f
}

func (f *Flanger) applyParams() {
	f.f.SetRate(float64(f.rate))
	f.f.SetDepth(float64(f.depth))
	f.f.SetFeedback(float64(f.feedback))
	f.f.SetMix(float64(f.mix))
}

func (f *Flanger) SetParameter(id uint32, value float32) {
	switch id {
	case flangerParamRate:
		f.rate = value
	case flangerParamDepth:
		f.depth = value
	case flangerParamFeedback:
		f.feedback = value
	case flangerParamMix:
		f.mix = value
	}
	f.applyParams()
}

func (f *Flanger) GetParameter(id uint32) float32 {
	switch id {
	case flangerParamRate:
		return f.rate
	case flangerParamDepth:
		return f.depth
	case flangerParamFeedback:
		return f.feedback
	case flangerParamMix:
		return f.mix
	}
	return 0
}

func (f *Flanger) Process(inputs [][]float32, outputs [][]float32, midiIn [][]midi.Event, midiOut [][]midi.Event, sampleRate uint32) {
	if len(outputs) == 0 || len(inputs) == 0 {
		return
	}
	in, out := inputs[0], outputs[0]
	frames := len(out) / 2
	for fr := 0; fr < frames; fr++ {
		ol, or_ := f.f.ProcessStereo(in[fr*2], in[fr*2+1])
		out[fr*2], out[fr*2+1] = ol, or_
	}
}

func (f *Flanger) Reset() { f.f.Reset() }

func (f *Flanger) NodeType() string { return "Flanger" }

func (f *Flanger) Clone() graph.Node {
	n := NewFlanger(f.NodeName)
	n.rate, n.depth, n.feedback, n.mix = f.rate, f.depth, f.feedback, f.mix
	n.applyParams()
	return n
}

const (
	phaserParamRate     uint32 = 0
	phaserParamDepth    uint32 = 1
	phaserParamFeedback uint32 = 2
	phaserParamMix      uint32 = 3
)

// Phaser wraps modulation.Phaser.
type Phaser struct {
	graph.BaseNode
	p                           *modulation.Phaser
	rate, depth, feedback, mix float32
	sampleRate                 float64
}

// NewPhaser returns a Phaser node.
func NewPhaser(name string) *Phaser {
	p := &Phaser{rate: 0.5, depth: 1, feedback: 0.3, mix: 0.5, sampleRate: 48000}
	p.NodeName = name
	p.Cat = graph.CategoryModulation
	p.InPorts = []graph.Port{{Name: "Audio In", Signal: graph.SignalAudio, Index: 0}}
	p.OutPorts = []graph.Port{{Name: "Audio Out", Signal: graph.SignalAudio, Index: 0}}
	p.ParamTable = []graph.Parameter{
		{ID: phaserParamRate, Name: "Rate", Min: 0.01, Max: 5, Default: 0.5, Unit: graph.UnitHertz},
		{ID: phaserParamDepth, Name: "Depth", Min: 0, Max: 1, Default: 1, Unit: graph.UnitPercent},
		{ID: phaserParamFeedback, Name: "Feedback", Min: 0, Max: 0.95, Default: 0.3, Unit: graph.UnitPercent},
		{ID: phaserParamMix, Name: "Mix", Min: 0, Max: 1, Default: 0.5, Unit: graph.UnitPercent},
	}
	p.p = modulation.NewPhaser(p.sampleRate)
	p.applyParams()
	return p
}

func (p *Phaser) applyParams() {
	p.p.SetRate(float64(p.rate))
	p.p.SetDepth(float64(p.depth))
	p.p.SetFeedback(float64(p.feedback))
	p.p.SetMix(float64(p.mix))
}

func (p *Phaser) SetParameter(id uint32, value float32) {
	switch id {
	case phaserParamRate:
		p.rate = value
	case phaserParamDepth:
		p.depth = value
	case phaserParamFeedback:
		p.feedback = value
	case phaserParamMix:
		p.mix = value
	}
	p.applyParams()
}

func (p *Phaser) GetParameter(id uint32) float32 {
	switch id {
	case phaserParamRate:
		return p.rate
	case phaserParamDepth:
		return p.depth
	case phaserParamFeedback:
		return p.feedback
	case phaserParamMix:
		return p.mix
	}
	return 0
}

func (p *Phaser) Process(inputs [][]float32, outputs [][]float32, midiIn [][]midi.Event, midiOut [][]midi.Event, sampleRate uint32) {
	if len(outputs) == 0 || len(inputs) == 0 {
		return
	}
	in, out := inputs[0], outputs[0]
	frames := len(out) / 2
	for fr := 0; fr < frames; fr++ {
		ol, or_ := p.p.ProcessStereo(in[fr*2], in[fr*2+1])
		out[fr*2], out[fr*2+1] = ol, or_
	}
}

func (p *Phaser) Reset() { p.p.Reset() }

func (p *Phaser) NodeType() string { return "Phaser" }

func (p *Phaser) Clone() graph.Node {
	n := NewPhaser(p.NodeName)
	n.rate, n.depth, n.feedback, n.mix = p.rate, p.depth, p.feedback, p.mix
	n.applyParams()
	return n
}

const (
	tremoloParamRate  uint32 = 0
	tremoloParamDepth uint32 = 1
)

// Tremolo wraps modulation.Tremolo in its stereo mode.
type Tremolo struct {
	graph.BaseNode
	t           *modulation.Tremolo
	rate, depth float32
	sampleRate  float64
}

// NewTremolo returns a Tremolo node.
func NewTremolo(name string) *Tremolo {
	t := &Tremolo{rate: 5, depth: 0.5, sampleRate: 48000}
	t.NodeName = name
	t.Cat = graph.CategoryModulation
	t.InPorts = []graph.Port{{Name: "Audio In", Signal: graph.SignalAudio, Index: 0}}
	t.OutPorts = []graph.Port{{Name: "Audio Out", Signal: graph.SignalAudio, Index: 0}}
	t.ParamTable = []graph.Parameter{
		{ID: tremoloParamRate, Name: "Rate", Min: 0.1, Max: 20, Default: 5, Unit: graph.UnitHertz},
		{ID: tremoloParamDepth, Name: "Depth", Min: 0, Max: 1, Default: 0.5, Unit: graph.UnitPercent},
	}
	t.t = modulation.NewTremolo(t.sampleRate)
	t.t.SetStereo(true)
	t.applyParams()
	return t
}

func (t *Tremolo) applyParams() {
	t.t.SetRate(float64(t.rate))
	t.t.SetDepth(float64(t.depth))
}

func (t *Tremolo) SetParameter(id uint32, value float32) {
	switch id {
	case tremoloParamRate:
		t.rate = value
	case tremoloParamDepth:
		t.depth = value
	}
	t.applyParams()
}

func (t *Tremolo) GetParameter(id uint32) float32 {
	switch id {
	case tremoloParamRate:
		return t.rate
	case tremoloParamDepth:
		return t.depth
	}
	return 0
}

func (t *Tremolo) Process(inputs [][]float32, outputs [][]float32, midiIn [][]midi.Event, midiOut [][]midi.Event, sampleRate uint32) {
	if len(outputs) == 0 || len(inputs) == 0 {
		return
	}
	in, out := inputs[0], outputs[0]
	frames := len(out) / 2
	for fr := 0; fr < frames; fr++ {
		ol, or_ := t.t.ProcessStereo(in[fr*2], in[fr*2+1])
		out[fr*2], out[fr*2+1] = ol, or_
	}
}

func (t *Tremolo) Reset() { t.t.Reset() }

func (t *Tremolo) NodeType() string { return "Tremolo" }

func (t *Tremolo) Clone() graph.Node {
	n := NewTremolo(t.NodeName)
	n.rate, n.depth = t.rate, t.depth
	n.applyParams()
	return n
}

const (
	ringModParamFreq uint32 = 0
	ringModParamMix  uint32 = 1
)

// RingMod wraps modulation.RingModulator, applied independently per
// channel (the underlying primitive is mono).
type RingMod struct {
	graph.BaseNode
	rm        [2]*modulation.RingModulator
	freq, mix float32
	sampleRate float64
}

// NewRingMod returns a RingMod node carrying a 440Hz modulator by
// default.
func NewRingMod(name string) *RingMod {
	n := &RingMod{freq: 440, mix: 1, sampleRate: 48000}
	n.NodeName = name
	n.Cat = graph.CategoryModulation
	n.InPorts = []graph.Port{{Name: "Audio In", Signal: graph.SignalAudio, Index: 0}}
	n.OutPorts = []graph.Port{{Name: "Audio Out", Signal: graph.SignalAudio, Index: 0}}
	n.ParamTable = []graph.Parameter{
		{ID: ringModParamFreq, Name: "Frequency", Min: 1, Max: 5000, Default: 440, Unit: graph.UnitHertz},
		{ID: ringModParamMix, Name: "Mix", Min: 0, Max: 1, Default: 1, Unit: graph.UnitPercent},
	}
	n.rm[0] = modulation.NewRingModulator(n.sampleRate)
	n.rm[1] = modulation.NewRingModulator(n.sampleRate)
	n.applyParams()
	return n
}

func (n *RingMod) applyParams() {
	for _, rm := range n.rm {
		rm.SetFrequency(float64(n.freq))
		rm.SetMix(float64(n.mix))
	}
}

func (n *RingMod) SetParameter(id uint32, value float32) {
	switch id {
	case ringModParamFreq:
		n.freq = value
	case ringModParamMix:
		n.mix = value
	}
	n.applyParams()
}

func (n *RingMod) GetParameter(id uint32) float32 {
	switch id {
	case ringModParamFreq:
		return n.freq
	case ringModParamMix:
		return n.mix
	}
	return 0
}

func (n *RingMod) Process(inputs [][]float32, outputs [][]float32, midiIn [][]midi.Event, midiOut [][]midi.Event, sampleRate uint32) {
	if len(outputs) == 0 || len(inputs) == 0 {
		return
	}
	in, out := inputs[0], outputs[0]
	frames := len(out) / 2
	for fr := 0; fr < frames; fr++ {
		out[fr*2] = n.rm[0].Process(in[fr*2])
		out[fr*2+1] = n.rm[1].Process(in[fr*2+1])
	}
}

func (n *RingMod) Reset() { n.rm[0].Reset(); n.rm[1].Reset() }

func (n *RingMod) NodeType() string { return "RingMod" }

func (n *RingMod) Clone() graph.Node {
	c := NewRingMod(n.NodeName)
	c.freq, c.mix = n.freq, n.mix
	c.applyParams()
	return c
}
