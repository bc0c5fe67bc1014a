package engine

import "github.com/fernwave/tideline/pkg/midi"

// injectLiveNote queues ev on trackID's instrument graph for the next
// Process call, bypassing the clip timeline (control.NoteOn/NoteOff —
// used for monitoring a keyboard controller while recording). Unknown
// tracks or audio tracks silently ignore the event — an invalid
// command is a no-op, not a realtime fault.
func (e *Engine) injectLiveNote(trackID uint32, ev midi.Event) {
	t, ok := e.Track(trackID)
	if !ok {
		return
	}
	t.InjectLiveEvent(ev)
}

func noteOnAt(note, velocity uint8) midi.Event {
	return midi.NoteOnEvent{NoteNumber: note, Velocity: velocity}
}

func noteOffAt(note uint8) midi.Event {
	return midi.NoteOffEvent{NoteNumber: note}
}
