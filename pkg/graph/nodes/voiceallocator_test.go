package nodes

import (
	"testing"

	"github.com/fernwave/tideline/pkg/midi"
)

func newTestAllocator(t *testing.T) *VoiceAllocator {
	t.Helper()
	va := NewVoiceAllocator("voices", 48000)
	osc := va.TemplateGraph().AddNode(NewOscillator("tone"))
	va.TemplateGraph().SetOutput(osc)
	va.RebuildVoices(256)
	return va
}

func TestVoiceAllocatorTriggersAVoiceOnNoteOn(t *testing.T) {
	va := newTestAllocator(t)

	out := make([]float32, 256*2)
	midiIn := []midi.Event{midi.NoteOnEvent{NoteNumber: 60, Velocity: 100}}

	va.Process(nil, [][]float32{out}, [][]midi.Event{midiIn}, nil, 48000)

	if va.ActiveVoices() != 1 {
		t.Fatalf("expected 1 active voice, got %d", va.ActiveVoices())
	}

	var nonZero bool
	for _, s := range out {
		if s != 0 {
			nonZero = true
			break
		}
	}
	if !nonZero {
		t.Error("expected non-silent output after a note-on")
	}
}

func TestVoiceAllocatorNoVoicesMeansSilence(t *testing.T) {
	va := newTestAllocator(t)

	out := make([]float32, 256*2)
	va.Process(nil, [][]float32{out}, nil, nil, 48000)

	for i, s := range out {
		if s != 0 {
			t.Fatalf("sample %d: expected silence with no active voices, got %v", i, s)
		}
	}
	if va.ActiveVoices() != 0 {
		t.Errorf("expected 0 active voices, got %d", va.ActiveVoices())
	}
}

func TestVoiceAllocatorSetParameterClampsVoiceCount(t *testing.T) {
	va := newTestAllocator(t)

	va.SetParameter(voiceAllocParamCount, 999)
	if got := va.GetParameter(voiceAllocParamCount); got != maxPolyphony {
		t.Errorf("expected voice count clamped to %d, got %v", maxPolyphony, got)
	}

	va.SetParameter(voiceAllocParamCount, 0)
	if got := va.GetParameter(voiceAllocParamCount); got != 1 {
		t.Errorf("expected voice count clamped to 1, got %v", got)
	}
}

func TestVoiceAllocatorResetDeactivatesAllVoices(t *testing.T) {
	va := newTestAllocator(t)

	out := make([]float32, 256*2)
	midiIn := []midi.Event{midi.NoteOnEvent{NoteNumber: 60, Velocity: 100}}
	va.Process(nil, [][]float32{out}, [][]midi.Event{midiIn}, nil, 48000)

	va.Reset()

	if va.ActiveVoices() != 0 {
		t.Errorf("expected Reset to deactivate all voices, got %d active", va.ActiveVoices())
	}
}

func TestVoiceAllocatorCloneCopiesVoiceCount(t *testing.T) {
	va := newTestAllocator(t)
	va.SetParameter(voiceAllocParamCount, 4)

	clone := va.Clone().(*VoiceAllocator)
	if got := clone.GetParameter(voiceAllocParamCount); got != 4 {
		t.Errorf("expected cloned voice count 4, got %v", got)
	}
}
