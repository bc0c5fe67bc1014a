package timeline

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/fernwave/tideline/pkg/pool"
)

// TestMidiLoopEventsStayWithinExternalAndQueryBounds is the §8 TESTABLE
// PROPERTIES "MIDI loop timestamp bounds" invariant: for any looping (or
// non-looping) MidiClipInstance and any query window, every event
// EventsInRange returns maps to an absolute timeline frame inside both
// the query window and the instance's own [ExternalStart, ExternalEnd).
func TestMidiLoopEventsStayWithinExternalAndQueryBounds(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("every returned event lands inside [ExternalStart, ExternalEnd) and the query window", prop.ForAll(
		func(internalLen, noteStartOffset, externalStart, externalDuration, queryBegin, queryLen int) bool {
			internalEnd := uint64(internalLen) + 1 // avoid a zero-length internal window
			noteStart := uint64(noteStartOffset) % internalEnd
			noteEnd := noteStart + 1
			if noteEnd > internalEnd {
				noteEnd = internalEnd
			}

			content := pool.MidiClipContent{
				LengthFrames: internalEnd,
				Notes: []pool.MidiNote{
					{StartFrame: noteStart, EndFrame: noteEnd, NoteNumber: 60, Velocity: 100},
				},
			}
			inst := MidiClipInstance{
				InternalStart:    0,
				InternalEnd:      internalEnd,
				ExternalStart:    uint64(externalStart),
				ExternalDuration: uint64(externalDuration) + 1, // avoid a zero-length external window
			}

			begin := uint64(queryBegin)
			end := begin + uint64(queryLen) + 1

			events := inst.EventsInRange(content, begin, end)
			for _, ev := range events {
				abs := begin + uint64(ev.SampleOffset())
				if abs < inst.ExternalStart || abs >= inst.ExternalEnd() {
					return false
				}
				if abs < begin || abs >= end {
					return false
				}
			}
			return true
		},
		gen.IntRange(0, 2000),
		gen.IntRange(0, 2000),
		gen.IntRange(0, 2000),
		gen.IntRange(0, 2000),
		gen.IntRange(0, 2000),
		gen.IntRange(0, 2000),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
