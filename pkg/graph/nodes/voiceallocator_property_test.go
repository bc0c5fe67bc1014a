package nodes

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/fernwave/tideline/pkg/midi"
)

// TestVoiceCountNeverExceedsConfiguredPolyphony is the §8 TESTABLE
// PROPERTIES "voice-count invariant": for any sequence of note-on events
// and any configured polyphony, ActiveVoices() never exceeds the
// configured voice count after a block is processed.
func TestVoiceCountNeverExceedsConfiguredPolyphony(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50

	properties := gopter.NewProperties(parameters)

	properties.Property("ActiveVoices() <= configured voice count", prop.ForAll(
		func(polyphony int, notes []uint8) bool {
			va := NewVoiceAllocator("voices", 48000)
			osc := va.TemplateGraph().AddNode(NewOscillator("tone"))
			va.TemplateGraph().SetOutput(osc)
			va.RebuildVoices(256)
			va.SetParameter(voiceAllocParamCount, float32(polyphony))

			var events []midi.Event
			for _, n := range notes {
				events = append(events, midi.NoteOnEvent{NoteNumber: n, Velocity: 100})
			}

			out := make([]float32, 256*2)
			va.Process(nil, [][]float32{out}, [][]midi.Event{events}, nil, 48000)

			return va.ActiveVoices() <= int(va.GetParameter(voiceAllocParamCount))
		},
		gen.IntRange(1, maxPolyphony+4), // deliberately includes out-of-range values to exercise clamping
		gen.SliceOf(gen.UInt8()),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
