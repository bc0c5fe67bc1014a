package timeline

import (
	"testing"

	"github.com/fernwave/tideline/pkg/pool"
)

func oneNoteContent(start, end uint64) pool.MidiClipContent {
	return pool.MidiClipContent{
		LengthFrames: end,
		Notes: []pool.MidiNote{
			{StartFrame: start, EndFrame: end, NoteNumber: 60, Velocity: 100},
		},
	}
}

func TestAudioClipIntersects(t *testing.T) {
	c := AudioClip{StartFrame: 100, DurationFrame: 50}

	cases := []struct {
		begin, end uint64
		want       bool
	}{
		{0, 100, false},   // ends exactly where clip starts
		{0, 101, true},    // overlaps by one frame
		{149, 200, true},  // overlaps the last frame
		{150, 200, false}, // starts exactly where clip ends
	}
	for _, c2 := range cases {
		if got := c.Intersects(c2.begin, c2.end); got != c2.want {
			t.Errorf("Intersects(%d, %d) = %v, want %v", c2.begin, c2.end, got, c2.want)
		}
	}
}

func TestMidiClipInstanceNonLoopingEventsPlaceOnTimeline(t *testing.T) {
	content := oneNoteContent(0, 10)
	inst := MidiClipInstance{
		InternalStart: 0, InternalEnd: 20,
		ExternalStart: 1000, ExternalDuration: 20,
	}

	events := inst.EventsInRange(content, 0, 2000)
	if len(events) != 2 {
		t.Fatalf("expected 2 events (on+off), got %d", len(events))
	}
	if events[0].SampleOffset() != 1000 {
		t.Errorf("note-on offset = %d, want 1000", events[0].SampleOffset())
	}
	if events[1].SampleOffset() != 1010 {
		t.Errorf("note-off offset = %d, want 1010", events[1].SampleOffset())
	}
}

func TestMidiClipInstanceLoopsAcrossInternalDuration(t *testing.T) {
	content := oneNoteContent(0, 5)
	inst := MidiClipInstance{
		InternalStart: 0, InternalEnd: 10, // internal duration 10
		ExternalStart: 0, ExternalDuration: 25, // 2.5 loops -> 3 loop iterations
	}

	events := inst.EventsInRange(content, 0, 100)

	// Expect note-on/off pairs at loop offsets 0, 10, 20 (three loop
	// starts fit in a 25-frame external duration), truncated to whatever
	// falls before ExternalEnd (25).
	if len(events) == 0 {
		t.Fatal("expected at least one event from a looping instance")
	}
	for _, ev := range events {
		if ev.SampleOffset() >= 25 {
			t.Errorf("event at offset %d should have been truncated by ExternalDuration=25", ev.SampleOffset())
		}
	}
}

func TestMidiClipInstanceTruncatesFinalPartialLoop(t *testing.T) {
	// A note that starts exactly at the internal clip's end boundary of
	// the final (partial) loop should not appear, since the external
	// window cuts the loop off first.
	content := oneNoteContent(8, 9) // starts near the end of a 10-frame loop
	inst := MidiClipInstance{
		InternalStart: 0, InternalEnd: 10,
		ExternalStart: 0, ExternalDuration: 12, // only 1.2 loops fit
	}

	events := inst.EventsInRange(content, 0, 100)
	for _, ev := range events {
		if ev.SampleOffset() >= 12 {
			t.Errorf("event at offset %d should be truncated by ExternalDuration=12", ev.SampleOffset())
		}
	}
}

func TestMidiClipInstanceOutsideQueryWindowIsExcluded(t *testing.T) {
	content := oneNoteContent(0, 5)
	inst := MidiClipInstance{
		InternalStart: 0, InternalEnd: 10,
		ExternalStart: 0, ExternalDuration: 10,
	}

	if events := inst.EventsInRange(content, 1000, 2000); events != nil {
		t.Errorf("expected no events for a query window the instance doesn't overlap, got %v", events)
	}
}

func TestMidiClipInstanceIsLooping(t *testing.T) {
	inst := MidiClipInstance{InternalStart: 0, InternalEnd: 10, ExternalDuration: 10}
	if inst.IsLooping() {
		t.Error("expected a 1:1 duration instance to not be looping")
	}
	inst.ExternalDuration = 11
	if !inst.IsLooping() {
		t.Error("expected ExternalDuration > InternalDuration to be looping")
	}
}
