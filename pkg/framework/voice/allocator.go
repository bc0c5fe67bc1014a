// Package voice assigns incoming MIDI notes to a fixed pool of Voice
// instances: poly/mono/legato/unison allocation modes plus a pluggable
// stealing policy for when every voice is already in use.
package voice

import (
	"github.com/fernwave/tideline/pkg/midi"
)

// AllocationMode selects how NoteOn distributes notes across voices.
type AllocationMode int

const (
	ModePoly   AllocationMode = iota // one voice per simultaneously-held note
	ModeMono                         // a single voice, last note wins
	ModeLegato                       // mono, but an overlapping note glides instead of retriggering
	ModeUnison                       // every voice plays the same note
)

// StealingMode picks which voice gives up its note when NoteOn arrives
// with no free voice available.
type StealingMode int

const (
	StealOldest   StealingMode = iota // longest-sounding voice
	StealQuietest                     // lowest GetAmplitude()
	StealHighest                      // highest GetNote()
	StealLowest                       // lowest GetNote()
	StealNone                         // the note is dropped instead
)

// Voice is one polyphonic slot an Allocator can assign a note to. It is
// the allocator's only dependency on the thing actually producing audio,
// so callers can back it with anything from a single-oscillator voice to
// a cloned node-graph instance.
type Voice interface {
	IsActive() bool
	GetNote() uint8
	GetVelocity() uint8
	GetAmplitude() float64 // for StealQuietest
	GetAge() int64         // in samples, for StealOldest
	TriggerNote(note uint8, velocity uint8)
	ReleaseNote()
	Stop()
	Process(output []float32)
}

// Allocator routes NoteOn/NoteOff (or raw MIDI events via ProcessEvent)
// across a fixed slice of voices according to its AllocationMode and
// StealingMode. The zero value is not usable; construct with NewAllocator.
type Allocator struct {
	voices       []Voice
	mode         AllocationMode
	stealingMode StealingMode
	maxVoices    int

	voicesForNote   map[uint8][]int // note -> voice indices currently sounding it
	roundRobinStart int             // last voice index handed out, for findFreeVoice

	sustainPedal bool
	heldNotes    map[uint8]bool // notes sustained past their NoteOff while the pedal is down

	// mono/legato single-voice state
	currentNote  uint8
	previousNote uint8
	glideActive  bool
	glideTime    float64 // seconds; voice implementations consult this, the allocator doesn't act on it

	unisonDetune float64 // cents; likewise consulted by the voice implementation
}

// NewAllocator returns a poly-mode, steal-oldest Allocator over voices.
func NewAllocator(voices []Voice) *Allocator {
	return &Allocator{
		voices:        voices,
		mode:          ModePoly,
		stealingMode:  StealOldest,
		maxVoices:     len(voices),
		voicesForNote: make(map[uint8][]int),
		heldNotes:     make(map[uint8]bool),
	}
}

func (a *Allocator) SetMode(mode AllocationMode) {
	a.mode = mode
	a.Reset()
}

func (a *Allocator) SetStealingMode(mode StealingMode) { a.stealingMode = mode }

// SetMaxVoices clamps the allocator to using only the first max voices,
// to at least 1 and at most len(voices).
func (a *Allocator) SetMaxVoices(max int) {
	if max > len(a.voices) {
		max = len(a.voices)
	}
	if max < 1 {
		max = 1
	}
	a.maxVoices = max
}

func (a *Allocator) SetUnisonDetune(cents float64) { a.unisonDetune = cents }
func (a *Allocator) SetGlideTime(seconds float64)  { a.glideTime = seconds }

// ProcessEvent dispatches a raw MIDI event to NoteOn/NoteOff/sustain
// handling; events of any other type are ignored.
func (a *Allocator) ProcessEvent(event midi.Event) {
	switch e := event.(type) {
	case midi.NoteOnEvent:
		if e.Velocity > 0 {
			a.NoteOn(e.NoteNumber, e.Velocity)
		} else {
			a.NoteOff(e.NoteNumber, 0) // note-on velocity 0 is a note-off by MIDI convention
		}
	case midi.NoteOffEvent:
		a.NoteOff(e.NoteNumber, e.Velocity)
	case midi.ControlChangeEvent:
		if e.Controller == midi.CCSustain {
			a.SetSustainPedal(e.Value >= 64)
		}
	}
}

func (a *Allocator) NoteOn(note uint8, velocity uint8) {
	switch a.mode {
	case ModePoly:
		a.polyNoteOn(note, velocity)
	case ModeMono:
		a.monoNoteOn(note, velocity)
	case ModeLegato:
		a.legatoNoteOn(note, velocity)
	case ModeUnison:
		a.unisonNoteOn(note, velocity)
	}
}

func (a *Allocator) NoteOff(note uint8, velocity uint8) {
	if a.sustainPedal {
		a.heldNotes[note] = true
		return
	}
	switch a.mode {
	case ModePoly:
		a.polyNoteOff(note)
	case ModeMono, ModeLegato:
		a.monoNoteOff(note)
	case ModeUnison:
		a.unisonNoteOff(note)
	}
}

// SetSustainPedal holds (CC64 on) or flushes (CC64 off) pending NoteOffs
// behind the pedal.
func (a *Allocator) SetSustainPedal(on bool) {
	a.sustainPedal = on
	if on {
		return
	}
	for note := range a.heldNotes {
		a.NoteOff(note, 0)
	}
	a.heldNotes = make(map[uint8]bool)
}

// Reset stops every voice and clears all allocation state.
func (a *Allocator) Reset() {
	for _, v := range a.voices {
		v.Stop()
	}
	a.voicesForNote = make(map[uint8][]int)
	a.heldNotes = make(map[uint8]bool)
	a.sustainPedal = false
	a.currentNote = 0
	a.previousNote = 0
	a.glideActive = false
}

// GetActiveVoiceCount reports how many of the first maxVoices voices are
// currently sounding.
func (a *Allocator) GetActiveVoiceCount() int {
	n := 0
	for _, v := range a.voices[:a.maxVoices] {
		if v.IsActive() {
			n++
		}
	}
	return n
}

func (a *Allocator) polyNoteOn(note uint8, velocity uint8) {
	if idxs, already := a.voicesForNote[note]; already && len(idxs) > 0 {
		for _, idx := range idxs {
			a.voices[idx].TriggerNote(note, velocity) // already sounding: retrigger in place
		}
		return
	}

	idx := a.findFreeVoice()
	if idx == -1 {
		idx = a.stealVoice()
		if idx == -1 {
			return // nothing free, nothing worth stealing
		}
	}
	a.voices[idx].TriggerNote(note, velocity)
	a.voicesForNote[note] = []int{idx}
}

func (a *Allocator) polyNoteOff(note uint8) {
	idxs, ok := a.voicesForNote[note]
	if !ok {
		return
	}
	for _, idx := range idxs {
		a.voices[idx].ReleaseNote()
	}
	delete(a.voicesForNote, note)
}

func (a *Allocator) monoNoteOn(note uint8, velocity uint8) {
	if a.maxVoices > 0 && a.voices[0].IsActive() {
		a.voices[0].Stop()
	}
	a.previousNote = a.currentNote
	a.currentNote = note
	a.voices[0].TriggerNote(note, velocity)
	a.voicesForNote = map[uint8][]int{note: {0}}
}

func (a *Allocator) legatoNoteOn(note uint8, velocity uint8) {
	if a.currentNote == 0 {
		a.monoNoteOn(note, velocity) // no note already held: behaves like mono
		return
	}
	a.previousNote = a.currentNote
	a.currentNote = note
	a.glideActive = true
	a.voicesForNote = map[uint8][]int{note: {0}} // voice 0's own pitch glide carries the transition
}

func (a *Allocator) monoNoteOff(note uint8) {
	if note != a.currentNote {
		return
	}
	a.voices[0].ReleaseNote()
	delete(a.voicesForNote, note)
	a.currentNote = 0
	a.glideActive = false
}

func (a *Allocator) unisonNoteOn(note uint8, velocity uint8) {
	idxs := make([]int, a.maxVoices)
	for i := 0; i < a.maxVoices; i++ {
		a.voices[i].TriggerNote(note, velocity)
		idxs[i] = i
	}
	a.voicesForNote[note] = idxs
	a.currentNote = note
}

func (a *Allocator) unisonNoteOff(note uint8) {
	if note != a.currentNote {
		return
	}
	for i := 0; i < a.maxVoices; i++ {
		a.voices[i].ReleaseNote()
	}
	delete(a.voicesForNote, note)
	a.currentNote = 0
}

// findFreeVoice round-robins over the voice slots so repeated allocation
// doesn't keep favoring low indices.
func (a *Allocator) findFreeVoice() int {
	for i := 0; i < a.maxVoices; i++ {
		idx := (a.roundRobinStart + i + 1) % a.maxVoices
		if !a.voices[idx].IsActive() {
			a.roundRobinStart = idx
			return idx
		}
	}
	return -1
}

// stealScore ranks voice i for stealVoice's comparison under the current
// stealingMode; higher always wins, so StealLowest/StealQuietest invert
// their underlying metric.
func (a *Allocator) stealScore(i int) float64 {
	switch a.stealingMode {
	case StealOldest:
		return float64(a.voices[i].GetAge())
	case StealQuietest:
		return -a.voices[i].GetAmplitude()
	case StealHighest:
		return float64(a.voices[i].GetNote())
	case StealLowest:
		return -float64(a.voices[i].GetNote())
	default:
		return 0
	}
}

func (a *Allocator) stealVoice() int {
	if a.stealingMode == StealNone {
		return -1
	}

	best := -1
	var bestScore float64
	for i := 0; i < a.maxVoices; i++ {
		if !a.voices[i].IsActive() {
			continue
		}
		score := a.stealScore(i)
		if best == -1 || score > bestScore {
			best, bestScore = i, score
		}
	}
	if best == -1 {
		return -1
	}

	a.unassignVoice(best)
	a.voices[best].Stop()
	return best
}

// unassignVoice removes idx from whatever note it's currently bound to in
// voicesForNote.
func (a *Allocator) unassignVoice(idx int) {
	note := a.voices[idx].GetNote()
	idxs, ok := a.voicesForNote[note]
	if !ok {
		return
	}
	for i, v := range idxs {
		if v == idx {
			idxs = append(idxs[:i], idxs[i+1:]...)
			break
		}
	}
	if len(idxs) == 0 {
		delete(a.voicesForNote, note)
	} else {
		a.voicesForNote[note] = idxs
	}
}
