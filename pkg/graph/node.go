// Package graph implements the instrument node graph: a directed acyclic
// graph of DSP nodes connected by typed audio/CV/MIDI edges, scheduled in
// topological order once per block.
package graph

import "github.com/fernwave/tideline/pkg/midi"

// SignalType distinguishes what an edge or port carries. Audio and CV
// edges both carry float32 samples (CV is just audio-rate control data —
// the V/oct convention: 0.0 == A4 == 440Hz, ±1.0 per octave); Gate is a
// CV signal conventionally read as "on" above 0.5. Midi ports carry
// discrete events instead of samples.
type SignalType int

const (
	SignalAudio SignalType = iota
	SignalCV
	SignalGate
	SignalMidi
)

// NodeCategory groups nodes for UI/catalogue purposes; it has no effect
// on scheduling.
type NodeCategory int

const (
	CategoryGenerator NodeCategory = iota
	CategoryFilter
	CategoryDynamics
	CategoryDistortion
	CategoryModulation
	CategoryReverb
	CategoryDelay
	CategoryUtility
	CategoryComposite
)

// Port describes one input or output slot on a node.
type Port struct {
	Name   string
	Signal SignalType
	Index  uint32
}

// ParameterUnit documents how a parameter's float32 value should be
// displayed; it never changes processing behavior.
type ParameterUnit int

const (
	UnitGeneric ParameterUnit = iota
	UnitHertz
	UnitDecibel
	UnitSeconds
	UnitMilliseconds
	UnitSemitones
	UnitPercent
)

// Parameter is one continuous control exposed by a node.
type Parameter struct {
	ID      uint32
	Name    string
	Min     float32
	Max     float32
	Default float32
	Unit    ParameterUnit
}

// Node is the common contract every entry in the node catalogue
// implements. Process must not allocate, block, or perform I/O: it runs
// on the audio thread once per block and must stay realtime-safe.
type Node interface {
	Category() NodeCategory
	Inputs() []Port
	Outputs() []Port
	Parameters() []Parameter
	SetParameter(id uint32, value float32)
	GetParameter(id uint32) float32

	// Process renders one block. inputs[i] holds one buffer per Inputs()
	// entry of matching SignalType (audio/CV buffers are per-channel
	// interleaved stereo unless the port is mono); midiIn/midiOut carry
	// one event slice per MIDI port, offsets relative to block start.
	Process(inputs [][]float32, outputs [][]float32, midiIn [][]midi.Event, midiOut [][]midi.Event, sampleRate uint32)

	// Reset clears internal state (phase, envelope, delay lines) without
	// discarding parameter values, called on transport stop/seek.
	Reset()

	NodeType() string
	Name() string

	// Clone returns a fresh node of the same type and parameter values
	// but independent internal state, used by VoiceAllocator to
	// instantiate per-voice copies of a template graph.
	Clone() Node
}

// BaseNode supplies the bookkeeping (name, ports, parameter table) that
// every concrete node embeds, factoring out the fields each node type
// would otherwise hand-roll so each node's own file holds just its DSP
// and parameter logic.
type BaseNode struct {
	NodeName   string
	Cat        NodeCategory
	InPorts    []Port
	OutPorts   []Port
	ParamTable []Parameter
}

func (b *BaseNode) Category() NodeCategory   { return b.Cat }
func (b *BaseNode) Inputs() []Port           { return b.InPorts }
func (b *BaseNode) Outputs() []Port          { return b.OutPorts }
func (b *BaseNode) Parameters() []Parameter  { return b.ParamTable }
func (b *BaseNode) Name() string             { return b.NodeName }

// sampleAt is a small helper nodes use to read CV at a frame offset
// from a possibly-shorter-than-block buffer, clamping against
// partially-filled CV buffers instead of indexing out of range.
func sampleAt(buf []float32, channels, frame int) float32 {
	if len(buf) == 0 {
		return 0
	}
	n := len(buf) / channels
	if n == 0 {
		return 0
	}
	if frame >= n {
		frame = n - 1
	}
	return buf[frame*channels]
}

// StereoScratch holds a pair of reusable deinterleave buffers so nodes
// wrapping a per-channel DSP primitive (which expects separate L/R
// slices) don't allocate each block converting to/from this package's
// interleaved-stereo wire format.
type StereoScratch struct {
	L, R []float32
}

// Deinterleave splits buf (interleaved stereo, len == frames*2) into s.L
// and s.R, growing them only if frames increased since the last call.
func (s *StereoScratch) Deinterleave(buf []float32, frames int) {
	if len(s.L) < frames {
		s.L = make([]float32, frames)
		s.R = make([]float32, frames)
	}
	for i := 0; i < frames; i++ {
		s.L[i] = buf[i*2]
		s.R[i] = buf[i*2+1]
	}
}

// Interleave writes s.L/s.R (first frames samples of each) back into buf.
func (s *StereoScratch) Interleave(buf []float32, frames int) {
	for i := 0; i < frames; i++ {
		buf[i*2] = s.L[i]
		buf[i*2+1] = s.R[i]
	}
}
