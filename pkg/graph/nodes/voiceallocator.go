package nodes

import (
	"math"

	"github.com/fernwave/tideline/pkg/buffer"
	"github.com/fernwave/tideline/pkg/framework/voice"
	"github.com/fernwave/tideline/pkg/graph"
	"github.com/fernwave/tideline/pkg/midi"
)

const voiceAllocParamCount uint32 = 0

const (
	maxPolyphony          = 16
	defaultPolyphony      = 8
	voiceScratchPoolCount = 64 // per-voice edge-buffer handles; generous headroom over any template graph's edge count
)

// voiceSlot adapts one cloned InstrumentGraph to
// pkg/framework/voice.Allocator's voice.Voice interface, so
// VoiceAllocator reuses its round-robin free-voice search and pluggable
// stealing modes instead of reimplementing note-to-voice bookkeeping.
// MIDI events queued by TriggerNote/ReleaseNote (called from the
// allocator's event-dispatch pass) are delivered on the following
// Process call (the audio thread), mirroring the original's per-voice
// pending_events queue.
type voiceSlot struct {
	g          *graph.InstrumentGraph
	sampleRate uint32
	bufPool    *buffer.Pool

	pending []midi.Event

	note      uint8
	velocity  uint8
	active    bool
	age       int64
	amplitude float64
}

func (v *voiceSlot) IsActive() bool        { return v.active }
func (v *voiceSlot) GetNote() uint8        { return v.note }
func (v *voiceSlot) GetVelocity() uint8    { return v.velocity }
func (v *voiceSlot) GetAmplitude() float64 { return v.amplitude }
func (v *voiceSlot) GetAge() int64         { return v.age }

func (v *voiceSlot) TriggerNote(note uint8, velocity uint8) {
	v.note = note
	v.velocity = velocity
	v.active = true
	v.age = 0
	v.pending = append(v.pending, midi.NoteOnEvent{NoteNumber: note, Velocity: velocity})
}

func (v *voiceSlot) ReleaseNote() {
	v.pending = append(v.pending, midi.NoteOffEvent{NoteNumber: v.note, Velocity: 0})
}

func (v *voiceSlot) Stop() {
	v.active = false
	v.g.Reset()
}

// Process renders one block of this voice's template-graph clone into
// output (stereo interleaved), delivering any events queued since the
// last call, and updates the RMS amplitude stealVoice's StealQuietest
// mode reads.
func (v *voiceSlot) Process(output []float32) {
	frames := len(output) / 2
	events := v.pending
	v.pending = nil
	v.g.Process(frames, v.sampleRate, events, v.bufPool, 0, output)

	var sumSquares float64
	for _, s := range output {
		sumSquares += float64(s) * float64(s)
	}
	if len(output) > 0 {
		v.amplitude = math.Sqrt(sumSquares / float64(len(output)))
	}
	v.age++
}

// VoiceAllocator is a composite node that holds a template InstrumentGraph
// (edited like any other graph via AddNode/AddEdge/SetOutput) and, on
// RebuildVoices, clones it into up to maxPolyphony independent voice
// instances. Incoming MIDI note events are allocated across the active
// voices by an embedded pkg/framework/voice.Allocator; every voice's
// output is rendered and mixed, then normalized by 1/sqrt(active count)
// to keep polyphonic loudness roughly constant.
type VoiceAllocator struct {
	graph.BaseNode

	template *graph.InstrumentGraph
	slots    [maxPolyphony]*voiceSlot
	voices   []voice.Voice // mirrors slots[:voiceCount], handed to the embedded allocator
	alloc    *voice.Allocator

	sampleRate uint32
	voiceCount int

	mix []float32
}

// NewVoiceAllocator returns a VoiceAllocator with an empty template
// graph; build the template via TemplateGraph() and call RebuildVoices
// once it's wired.
func NewVoiceAllocator(name string, sampleRate uint32) *VoiceAllocator {
	va := &VoiceAllocator{
		template:   graph.NewInstrumentGraph(),
		sampleRate: sampleRate,
		voiceCount: defaultPolyphony,
	}
	va.NodeName = name
	va.Cat = graph.CategoryComposite
	va.InPorts = []graph.Port{{Name: "MIDI In", Signal: graph.SignalMidi, Index: 0}}
	va.OutPorts = []graph.Port{{Name: "Mixed Out", Signal: graph.SignalAudio, Index: 0}}
	va.ParamTable = []graph.Parameter{
		{ID: voiceAllocParamCount, Name: "Voices", Min: 1, Max: maxPolyphony, Default: defaultPolyphony, Unit: graph.UnitGeneric},
	}

	for i := range va.slots {
		va.slots[i] = &voiceSlot{
			g:          graph.NewInstrumentGraph(),
			sampleRate: sampleRate,
			bufPool:    buffer.NewPool(voiceScratchPoolCount, 0), // resized in RebuildVoices once block size is known
		}
	}
	va.voices = make([]voice.Voice, 0, maxPolyphony)
	for i := 0; i < va.voiceCount; i++ {
		va.voices = append(va.voices, va.slots[i])
	}
	va.alloc = voice.NewAllocator(va.voices)
	return va
}

// TemplateGraph returns the editable template graph (controller-side
// only; never touched by Process).
func (va *VoiceAllocator) TemplateGraph() *graph.InstrumentGraph { return va.template }

// RebuildVoices clones the current template into every voice slot.
// Controller-side only, called after editing the template graph.
// maxFrames sizes each voice's private scratch-buffer pool.
func (va *VoiceAllocator) RebuildVoices(maxFrames int) {
	for _, slot := range va.slots {
		slot.g = va.template.CloneGraph()
		slot.bufPool = buffer.NewPool(voiceScratchPoolCount, maxFrames*2)
		slot.active = false
		slot.pending = nil
		slot.amplitude = 0
	}
}

// SetStealingMode configures how the embedded allocator picks a voice to
// steal when every active voice is in use.
func (va *VoiceAllocator) SetStealingMode(mode voice.StealingMode) {
	va.alloc.SetStealingMode(mode)
}

func (va *VoiceAllocator) SetParameter(id uint32, value float32) {
	switch id {
	case voiceAllocParamCount:
		n := int(value + 0.5)
		if n < 1 {
			n = 1
		}
		if n > maxPolyphony {
			n = maxPolyphony
		}
		if n != va.voiceCount {
			for i := n; i < va.voiceCount; i++ {
				va.slots[i].Stop()
			}
			va.voiceCount = n
			va.voices = va.voices[:0]
			for i := 0; i < n; i++ {
				va.voices = append(va.voices, va.slots[i])
			}
			va.alloc = voice.NewAllocator(va.voices)
		}
	}
}

// ActiveVoices reports how many of the allocator's voice slots are
// currently sounding, for the QueryVoiceCount controller-side query.
func (va *VoiceAllocator) ActiveVoices() int {
	n := 0
	for i := 0; i < va.voiceCount; i++ {
		if va.slots[i].active {
			n++
		}
	}
	return n
}

func (va *VoiceAllocator) GetParameter(id uint32) float32 {
	switch id {
	case voiceAllocParamCount:
		return float32(va.voiceCount)
	}
	return 0
}

func (va *VoiceAllocator) Process(inputs [][]float32, outputs [][]float32, midiIn [][]midi.Event, midiOut [][]midi.Event, sampleRate uint32) {
	if len(midiIn) > 0 {
		for _, ev := range midiIn[0] {
			va.alloc.ProcessEvent(ev)
		}
	}
	if len(outputs) == 0 {
		return
	}
	out := outputs[0]
	for i := range out {
		out[i] = 0
	}
	if len(va.mix) < len(out) {
		va.mix = make([]float32, len(out))
	}

	activeCount := 0
	for i := 0; i < va.voiceCount; i++ {
		slot := va.slots[i]
		if !slot.active {
			continue
		}
		mixSlice := va.mix[:len(out)]
		slot.Process(mixSlice)
		for j, s := range mixSlice {
			out[j] += s
		}
		activeCount++
	}

	if activeCount > 1 {
		scale := float32(1 / math.Sqrt(float64(activeCount)))
		for i := range out {
			out[i] *= scale
		}
	}
}

func (va *VoiceAllocator) Reset() {
	va.alloc.Reset()
	for _, slot := range va.slots {
		slot.g.Reset()
		slot.active = false
		slot.pending = nil
		slot.amplitude = 0
	}
}

func (va *VoiceAllocator) NodeType() string { return "VoiceAllocator" }

func (va *VoiceAllocator) Clone() graph.Node {
	c := NewVoiceAllocator(va.NodeName, va.sampleRate)
	c.template = va.template.CloneGraph()
	c.voiceCount = va.voiceCount
	return c
}
