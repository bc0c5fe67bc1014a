package pool

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"sort"
	"sync"

	"github.com/fernwave/tideline/pkg/midi"
)

// MidiNote is an immutable (on, off, pitch, velocity, channel) pair stored
// in a MidiClipContent, in frame-offset-from-clip-start terms: the
// content a MidiPool entry is made of, kept as a sorted note list with
// frame-based timing.
type MidiNote struct {
	StartFrame  uint64
	EndFrame    uint64
	Channel     uint8
	NoteNumber  uint8
	Velocity    uint8
}

// MidiClipContent is one immutable, sorted-by-start sequence of notes plus
// its total length in frames (the loop period for a MidiClipInstance).
type MidiClipContent struct {
	LengthFrames uint64
	Notes        []MidiNote
}

func (c MidiClipContent) contentKey() [32]byte {
	h := sha256.New()
	var lenBuf [8]byte
	binary.LittleEndian.PutUint64(lenBuf[:], c.LengthFrames)
	h.Write(lenBuf[:])
	for _, n := range c.Notes {
		var b [19]byte
		binary.LittleEndian.PutUint64(b[0:8], n.StartFrame)
		binary.LittleEndian.PutUint64(b[8:16], n.EndFrame)
		b[16] = n.Channel
		b[17] = n.NoteNumber
		b[18] = n.Velocity
		h.Write(b[:])
	}
	var sum [32]byte
	copy(sum[:], h.Sum(nil))
	return sum
}

// EventsInRange returns every note-on/note-off event that falls in
// [startFrame, endFrame) of the clip's own internal timeline, as realtime
// MIDI events with SampleOffset relative to startFrame. Looping across the
// clip boundary is the caller's job (timeline.MidiClipInstance); this is
// the single-pass-through-content primitive it's built on.
func (c MidiClipContent) EventsInRange(startFrame, endFrame uint64) []midi.Event {
	var out []midi.Event
	for _, n := range c.Notes {
		if n.StartFrame >= startFrame && n.StartFrame < endFrame {
			out = append(out, midi.NoteOnEvent{
				BaseEvent:  midi.BaseEvent{EventChannel: n.Channel, Offset: int32(n.StartFrame - startFrame)},
				NoteNumber: n.NoteNumber,
				Velocity:   n.Velocity,
			})
		}
		if n.EndFrame >= startFrame && n.EndFrame < endFrame {
			out = append(out, midi.NoteOffEvent{
				BaseEvent:  midi.BaseEvent{EventChannel: n.Channel, Offset: int32(n.EndFrame - startFrame)},
				NoteNumber: n.NoteNumber,
			})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SampleOffset() < out[j].SampleOffset() })
	return out
}

// MidiPool is the MIDI counterpart to AudioPool: append-only,
// content-addressed, index 0 reserved.
type MidiPool struct {
	mu      sync.Mutex
	entries []MidiClipContent
	byHash  map[[32]byte]uint32
}

// NewMidiPool returns an empty pool.
func NewMidiPool() *MidiPool {
	return &MidiPool{
		entries: make([]MidiClipContent, 1),
		byHash:  make(map[[32]byte]uint32),
	}
}

// Add inserts content, sorting its notes by start frame first so
// EventsInRange's linear scan sees them in order. Returns the pool index.
func (p *MidiPool) Add(content MidiClipContent) uint32 {
	sort.Slice(content.Notes, func(i, j int) bool {
		return content.Notes[i].StartFrame < content.Notes[j].StartFrame
	})
	key := content.contentKey()
	p.mu.Lock()
	defer p.mu.Unlock()
	if idx, ok := p.byHash[key]; ok {
		return idx
	}
	idx := uint32(len(p.entries))
	p.entries = append(p.entries, content)
	p.byHash[key] = idx
	return idx
}

// Get returns the content at idx, read-only, safe for the audio thread.
func (p *MidiPool) Get(idx uint32) (MidiClipContent, error) {
	if idx == 0 || int(idx) >= len(p.entries) {
		return MidiClipContent{}, fmt.Errorf("pool: midi index %d out of range", idx)
	}
	return p.entries[idx], nil
}

// Len reports how many entries (including the reserved zero slot) exist.
func (p *MidiPool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.entries)
}
