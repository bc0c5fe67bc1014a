package nodes

import (
	"github.com/fernwave/tideline/pkg/dsp/reverb"
	"github.com/fernwave/tideline/pkg/graph"
	"github.com/fernwave/tideline/pkg/midi"
)

const (
	reverbParamRoomSize uint32 = 0
	reverbParamDamping  uint32 = 1
	reverbParamWet      uint32 = 2
	reverbParamDry      uint32 = 3
)

// Schroeder wraps reverb.Schroeder, the classic comb+allpass reverb.
type Schroeder struct {
	graph.BaseNode
	r                             *reverb.Schroeder
	roomSize, damping, wet, dry float32
	sampleRate                   float64
}

// NewSchroeder returns a Schroeder reverb node.
func NewSchroeder(name string) *Schroeder {
	s := &Schroeder{roomSize: 0.5, damping: 0.5, wet: 0.3, dry: 0.7, sampleRate: 48000}
	s.NodeName = name
	s.Cat = graph.CategoryReverb
	s.InPorts = []graph.Port{{Name: "Audio In", Signal: graph.SignalAudio, Index: 0}}
	s.OutPorts = []graph.Port{{Name: "Audio Out", Signal: graph.SignalAudio, Index: 0}}
	s.ParamTable = []graph.Parameter{
		{ID: reverbParamRoomSize, Name: "Room Size", Min: 0, Max: 1, Default: 0.5, Unit: graph.UnitPercent},
		{ID: reverbParamDamping, Name: "Damping", Min: 0, Max: 1, Default: 0.5, Unit: graph.UnitPercent},
		{ID: reverbParamWet, Name: "Wet", Min: 0, Max: 1, Default: 0.3, Unit: graph.UnitPercent},
		{ID: reverbParamDry, Name: "Dry", Min: 0, Max: 1, Default: 0.7, Unit: graph.UnitPercent},
	}
	s.r = reverb.NewSchroeder(s.sampleRate)
	s.applyParams()
	return s
}

func (s *Schroeder) applyParams() {
	s.r.SetRoomSize(float64(s.roomSize))
	s.r.SetDamping(float64(s.damping))
	s.r.SetWetLevel(float64(s.wet))
	s.r.SetDryLevel(float64(s.dry))
}

func (s *Schroeder) SetParameter(id uint32, value float32) {
	switch id {
	case reverbParamRoomSize:
		s.roomSize = value
	case reverbParamDamping:
		s.damping = value
	case reverbParamWet:
		s.wet = value
	case reverbParamDry:
		s.dry = value
	}
	s.applyParams()
}

func (s *Schroeder) GetParameter(id uint32) float32 {
	switch id {
	case reverbParamRoomSize:
		return s.roomSize
	case reverbParamDamping:
		return s.damping
	case reverbParamWet:
		return s.wet
	case reverbParamDry:
		return s.dry
	}
	return 0
}

func (s *Schroeder) Process(inputs [][]float32, outputs [][]float32, midiIn [][]midi.Event, midiOut [][]midi.Event, sampleRate uint32) {
	if len(outputs) == 0 || len(inputs) == 0 {
		return
	}
	in, out := inputs[0], outputs[0]
	frames := len(out) / 2
	for fr := 0; fr < frames; fr++ {
		ol, or_ := s.r.ProcessStereo(in[fr*2], in[fr*2+1])
		out[fr*2], out[fr*2+1] = ol, or_
	}
}

func (s *Schroeder) Reset() { s.r.Reset() }

func (s *Schroeder) NodeType() string { return "Schroeder" }

func (s *Schroeder) Clone() graph.Node {
	n := NewSchroeder(s.NodeName)
	n.roomSize, n.damping, n.wet, n.dry = s.roomSize, s.damping, s.wet, s.dry
	n.applyParams()
	return n
}

// Freeverb wraps reverb.Freeverb.
type Freeverb struct {
	graph.BaseNode
	r                             *reverb.Freeverb
	roomSize, damping, wet, dry float32
	width                         float32
	sampleRate                   float64
}

// NewFreeverb returns a Freeverb node.
func NewFreeverb(name string) *Freeverb {
	f := &Freeverb{roomSize: 0.5, damping: 0.5, wet: 0.3, dry: 0.7, width: 1, sampleRate: 48000}
	f.NodeName = name
	f.Cat = graph.CategoryReverb
	f.InPorts = []graph.Port{{Name: "Audio In", Signal: graph.SignalAudio, Index: 0}}
	f.OutPorts = []graph.Port{{Name: "Audio Out", Signal: graph.SignalAudio, Index: 0}}
	f.ParamTable = []graph.Parameter{
		{ID: reverbParamRoomSize, Name: "Room Size", Min: 0, Max: 1, Default: 0.5, Unit: graph.UnitPercent},
		{ID: reverbParamDamping, Name: "Damping", Min: 0, Max: 1, Default: 0.5, Unit: graph.UnitPercent},
		{ID: reverbParamWet, Name: "Wet", Min: 0, Max: 1, Default: 0.3, Unit: graph.UnitPercent},
		{ID: reverbParamDry, Name: "Dry", Min: 0, Max: 1, Default: 0.7, Unit: graph.UnitPercent},
	}
	f.r = reverb.NewFreeverb(f.sampleRate)
	f.applyParams()
	return f
}

func (f *Freeverb) applyParams() {
	f.r.SetRoomSize(float64(f.roomSize))
	f.r.SetDamping(float64(f.damping))
	f.r.SetWetLevel(float64(f.wet))
	f.r.SetDryLevel(float64(f.dry))
	f.r.SetWidth(float64(f.width))
}

func (f *Freeverb) SetParameter(id uint32, value float32) {
	switch id {
	case reverbParamRoomSize:
		f.roomSize = value
	case reverbParamDamping:
		f.damping = value
	case reverbParamWet:
		f.wet = value
	case reverbParamDry:
		f.dry = value
	}
	f.applyParams()
}

func (f *Freeverb) GetParameter(id uint32) float32 {
	switch id {
	case reverbParamRoomSize:
		return f.roomSize
	case reverbParamDamping:
		return f.damping
	case reverbParamWet:
		return f.wet
	case reverbParamDry:
		return f.dry
	}
	return 0
}

func (f *Freeverb) Process(inputs [][]float32, outputs [][]float32, midiIn [][]midi.Event, midiOut [][]midi.Event, sampleRate uint32) {
	if len(outputs) == 0 || len(inputs) == 0 {
		return
	}
	in, out := inputs[0], outputs[0]
	frames := len(out) / 2
	for fr := 0; fr < frames; fr++ {
		ol, or_ := f.r.ProcessStereo(in[fr*2], in[fr*2+1])
		out[fr*2], out[fr*2+1] = ol, or_
	}
}

func (f *Freeverb) Reset() { f.r.Reset() }

func (f *Freeverb) NodeType() string { return "Freeverb" }

func (f *Freeverb) Clone() graph.Node {
	n := NewFreeverb(f.NodeName)
	n.roomSize, n.damping, n.wet, n.dry, n.width = f.roomSize, f.damping, f.wet, f.dry, f.width
	n.applyParams()
	return n
}

const (
	fdnParamDecay      uint32 = 0
	fdnParamDamping    uint32 = 1
	fdnParamDiffusion  uint32 = 2
	fdnParamWet        uint32 = 3
	fdnParamDry        uint32 = 4
)

// FDNReverb wraps reverb.FDN, the feedback-delay-network algorithm used
// for the larger hall/cathedral presets.
type FDNReverb struct {
	graph.BaseNode
	r                                     *reverb.FDN
	decay, damping, diffusion, wet, dry float32
	sampleRate                           float64
}

// NewFDNReverb returns an 8-delay-line FDN reverb node.
func NewFDNReverb(name string) *FDNReverb {
	f := &FDNReverb{decay: 0.85, damping: 0.5, diffusion: 0.7, wet: 0.3, dry: 0.7, sampleRate: 48000}
	f.NodeName = name
	f.Cat = graph.CategoryReverb
	f.InPorts = []graph.Port{{Name: "Audio In", Signal: graph.SignalAudio, Index: 0}}
	f.OutPorts = []graph.Port{{Name: "Audio Out", Signal: graph.SignalAudio, Index: 0}}
	f.ParamTable = []graph.Parameter{
		{ID: fdnParamDecay, Name: "Decay", Min: 0, Max: 1, Default: 0.85, Unit: graph.UnitPercent},
		{ID: fdnParamDamping, Name: "Damping", Min: 0, Max: 1, Default: 0.5, Unit: graph.UnitPercent},
		{ID: fdnParamDiffusion, Name: "Diffusion", Min: 0, Max: 1, Default: 0.7, Unit: graph.UnitPercent},
		{ID: fdnParamWet, Name: "Wet", Min: 0, Max: 1, Default: 0.3, Unit: graph.UnitPercent},
		{ID: fdnParamDry, Name: "Dry", Min: 0, Max: 1, Default: 0.7, Unit: graph.UnitPercent},
	}
	f.r = reverb.NewFDN(8, f.sampleRate)
	f.applyParams()
	return f
}

func (f *FDNReverb) applyParams() {
	f.r.SetDecay(float64(f.decay))
	f.r.SetDamping(float64(f.damping))
	f.r.SetDiffusion(float64(f.diffusion))
	f.r.SetWetLevel(float64(f.wet))
	f.r.SetDryLevel(float64(f.dry))
}

func (f *FDNReverb) SetParameter(id uint32, value float32) {
	switch id {
	case fdnParamDecay:
		f.decay = value
	case fdnParamDamping:
		f.damping = value
	case fdnParamDiffusion:
		f.diffusion = value
	case fdnParamWet:
		f.wet = value
	case fdnParamDry:
		f.dry = value
	}
	f.applyParams()
}

func (f *FDNReverb) GetParameter(id uint32) float32 {
	switch id {
	case fdnParamDecay:
		return f.decay
	case fdnParamDamping:
		return f.damping
	case fdnParamDiffusion:
		return f.diffusion
	case fdnParamWet:
		return f.wet
	case fdnParamDry:
		return f.dry
	}
	return 0
}

func (f *FDNReverb) Process(inputs [][]float32, outputs [][]float32, midiIn [][]midi.Event, midiOut [][]midi.Event, sampleRate uint32) {
	if len(outputs) == 0 || len(inputs) == 0 {
		return
	}
	in, out := inputs[0], outputs[0]
	frames := len(out) / 2
	for fr := 0; fr < frames; fr++ {
		ol, or_ := f.r.ProcessStereo(in[fr*2], in[fr*2+1])
		out[fr*2], out[fr*2+1] = ol, or_
	}
}

func (f *FDNReverb) Reset() { f.r.Reset() }

func (f *FDNReverb) NodeType() string { return "FDNReverb" }

func (f *FDNReverb) Clone() graph.Node {
	n := NewFDNReverb(f.NodeName)
	n.decay, n.damping, n.diffusion, n.wet, n.dry = f.decay, f.damping, f.diffusion, f.wet, f.dry
	n.applyParams()
	return n
}
