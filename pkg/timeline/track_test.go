package timeline

import (
	"testing"

	"github.com/fernwave/tideline/pkg/graph"
	"github.com/fernwave/tideline/pkg/graph/nodes"
	"github.com/fernwave/tideline/pkg/midi"
	"github.com/fernwave/tideline/pkg/pool"
)

func TestTrackActiveSoloMuteRule(t *testing.T) {
	tr := NewAudioTrack(1, "track")

	if !tr.Active(false) {
		t.Error("an unmuted, unsoloed track should be active when nothing is soloed")
	}
	if tr.Active(true) {
		t.Error("an unsoloed track should be inactive when another track is soloed")
	}
	tr.Solo = true
	if !tr.Active(true) {
		t.Error("a soloed track should be active even when something is soloed")
	}
	tr.Mute = true
	if tr.Active(true) {
		t.Error("mute should override solo")
	}
}

func TestAudioTrackRendersClipIntoMix(t *testing.T) {
	tr := NewAudioTrack(1, "track")
	audioPool := pool.NewAudioPool()
	midiPool := pool.NewMidiPool()

	idx := audioPool.Add(pool.AudioSample{
		Channels:   2,
		SampleRate: 48000,
		Frames:     []float32{0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5, 0.5},
	})
	tr.AddAudioClip(AudioClip{ID: 1, PoolIndex: idx, StartFrame: 0, DurationFrame: 4})

	mix := make([]float32, 8)
	tr.Render(mix, audioPool, midiPool, 0, 4, 48000, 2)

	for i, s := range mix {
		if s != 0.5 {
			t.Errorf("sample %d: got %v, want 0.5", i, s)
		}
	}
}

func TestAudioTrackVolumeScalesOutput(t *testing.T) {
	tr := NewAudioTrack(1, "track")
	tr.Volume = 0.5
	audioPool := pool.NewAudioPool()
	midiPool := pool.NewMidiPool()

	idx := audioPool.Add(pool.AudioSample{
		Channels:   1,
		SampleRate: 48000,
		Frames:     []float32{1, 1, 1, 1},
	})
	tr.AddAudioClip(AudioClip{ID: 1, PoolIndex: idx, StartFrame: 0, DurationFrame: 4})

	mix := make([]float32, 4)
	tr.Render(mix, audioPool, midiPool, 0, 4, 48000, 1)

	for i, s := range mix {
		if s != 0.5 {
			t.Errorf("sample %d: got %v, want 0.5 (volume-scaled)", i, s)
		}
	}
}

func TestAudioTrackPanHardLeftSilencesRight(t *testing.T) {
	tr := NewAudioTrack(1, "track")
	tr.Pan = -1
	audioPool := pool.NewAudioPool()
	midiPool := pool.NewMidiPool()

	idx := audioPool.Add(pool.AudioSample{
		Channels:   2,
		SampleRate: 48000,
		Frames:     []float32{0.5, 0.5, 0.5, 0.5},
	})
	tr.AddAudioClip(AudioClip{ID: 1, PoolIndex: idx, StartFrame: 0, DurationFrame: 2})

	mix := make([]float32, 4)
	tr.Render(mix, audioPool, midiPool, 0, 2, 48000, 2)

	for i := 0; i < len(mix); i += 2 {
		if mix[i] == 0 {
			t.Errorf("frame %d: hard-left pan should not silence the left channel", i/2)
		}
		if mix[i+1] != 0 {
			t.Errorf("frame %d: hard-left pan should silence the right channel, got %v", i/2, mix[i+1])
		}
	}
}

func TestAudioTrackCenterPanIsANoOp(t *testing.T) {
	tr := NewAudioTrack(1, "track")
	audioPool := pool.NewAudioPool()
	midiPool := pool.NewMidiPool()

	idx := audioPool.Add(pool.AudioSample{
		Channels:   2,
		SampleRate: 48000,
		Frames:     []float32{0.5, 0.5, 0.5, 0.5},
	})
	tr.AddAudioClip(AudioClip{ID: 1, PoolIndex: idx, StartFrame: 0, DurationFrame: 2})

	mix := make([]float32, 4)
	tr.Render(mix, audioPool, midiPool, 0, 2, 48000, 2)

	for i, s := range mix {
		if s != 0.5 {
			t.Errorf("sample %d: centered pan should leave output unchanged, got %v", i, s)
		}
	}
}

func TestAudioTrackClipOutsideWindowContributesNothing(t *testing.T) {
	tr := NewAudioTrack(1, "track")
	audioPool := pool.NewAudioPool()
	midiPool := pool.NewMidiPool()

	idx := audioPool.Add(pool.AudioSample{Channels: 1, SampleRate: 48000, Frames: []float32{1, 1, 1, 1}})
	tr.AddAudioClip(AudioClip{ID: 1, PoolIndex: idx, StartFrame: 1000, DurationFrame: 4})

	mix := make([]float32, 4)
	tr.Render(mix, audioPool, midiPool, 0, 4, 48000, 1)

	for i, s := range mix {
		if s != 0 {
			t.Errorf("sample %d: expected silence, got %v", i, s)
		}
	}
}

func newInstrumentTrackWithOscillator(t *testing.T) *Track {
	t.Helper()
	g := graph.NewInstrumentGraph()
	osc := g.AddNode(nodes.NewOscillator("tone"))
	g.SetOutput(osc)
	return NewInstrumentTrack(1, "tone", g, 256, 2)
}

func TestInstrumentTrackRendersGraphOutput(t *testing.T) {
	tr := newInstrumentTrackWithOscillator(t)
	audioPool := pool.NewAudioPool()
	midiPool := pool.NewMidiPool()

	mix := make([]float32, 64*2)
	tr.Render(mix, audioPool, midiPool, 0, 64, 48000, 2)

	var nonZero bool
	for _, s := range mix {
		if s != 0 {
			nonZero = true
			break
		}
	}
	if !nonZero {
		t.Error("expected a free-running oscillator to produce non-silent output")
	}
}

func TestInstrumentTrackLiveEventInjection(t *testing.T) {
	tr := newInstrumentTrackWithOscillator(t)
	tr.InjectLiveEvent(midi.NoteOnEvent{NoteNumber: 60, Velocity: 100})

	if len(tr.liveEvents) != 1 {
		t.Fatalf("expected 1 queued live event, got %d", len(tr.liveEvents))
	}

	audioPool := pool.NewAudioPool()
	midiPool := pool.NewMidiPool()
	mix := make([]float32, 64*2)
	tr.Render(mix, audioPool, midiPool, 0, 64, 48000, 2)

	if len(tr.liveEvents) != 0 {
		t.Error("expected Render to drain the live event queue")
	}
}

func TestRemoveClipByID(t *testing.T) {
	tr := NewAudioTrack(1, "track")
	tr.AddAudioClip(AudioClip{ID: 1, StartFrame: 0, DurationFrame: 10})
	tr.AddAudioClip(AudioClip{ID: 2, StartFrame: 10, DurationFrame: 10})

	if !tr.RemoveClip(1) {
		t.Fatal("expected RemoveClip to report success for an existing clip")
	}
	if len(tr.Clips) != 1 || tr.Clips[0].ID != 2 {
		t.Errorf("expected only clip 2 to remain, got %+v", tr.Clips)
	}
	if tr.RemoveClip(99) {
		t.Error("expected RemoveClip to report failure for an unknown clip")
	}
}
