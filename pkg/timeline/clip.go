// Package timeline implements the track/clip model that sits between the
// content pools and the engine: audio clips and MIDI clip instances placed
// on a track's frame-indexed timeline, and the per-track render step the
// engine calls once per callback.
package timeline

import (
	"github.com/fernwave/tideline/pkg/midi"
	"github.com/fernwave/tideline/pkg/pool"
)

// AudioClip places an audio-pool entry on an audio track's timeline: pool
// index, timeline start, duration, and an offset into the source. Start,
// duration, and offset are all expressed in engine-timeline frames; when
// the pool entry's native sample rate differs from the engine's, render
// resamples on the fly (§4.2) and the invariant `offset + duration ≤
// source_duration` is evaluated against the resampled length.
type AudioClip struct {
	ID            uint32
	PoolIndex     uint32
	StartFrame    uint64
	DurationFrame uint64
	OffsetFrame   uint64
}

// EndFrame is the first timeline frame past this clip's extent.
func (c AudioClip) EndFrame() uint64 { return c.StartFrame + c.DurationFrame }

// Intersects reports whether the clip overlaps the half-open window
// [begin, end).
func (c AudioClip) Intersects(begin, end uint64) bool {
	return c.StartFrame < end && c.EndFrame() > begin
}

// MidiClipInstance places a MidiPool entry on an instrument track's
// timeline with optional seamless looping.
// internal_start/internal_end trim the pool entry's content; external_start
// /external_duration place and stretch it on the timeline.
type MidiClipInstance struct {
	ID               uint32
	PoolIndex        uint32
	InternalStart    uint64
	InternalEnd      uint64
	ExternalStart    uint64
	ExternalDuration uint64
}

// InternalDuration is the length of the trimmed content window.
func (m MidiClipInstance) InternalDuration() uint64 {
	if m.InternalEnd <= m.InternalStart {
		return 0
	}
	return m.InternalEnd - m.InternalStart
}

// ExternalEnd is the first timeline frame past this instance's extent.
func (m MidiClipInstance) ExternalEnd() uint64 { return m.ExternalStart + m.ExternalDuration }

// IsLooping reports whether the instance plays its content more than once
// to fill its external duration.
func (m MidiClipInstance) IsLooping() bool {
	return m.ExternalDuration > m.InternalDuration()
}

func (m MidiClipInstance) overlapsRange(begin, end uint64) bool {
	return m.ExternalStart < end && m.ExternalEnd() > begin
}

// EventsInRange returns the events this instance contributes to the
// timeline window [begin, end), with SampleOffset relative to begin —
// ready to hand straight to InstrumentGraph.Process as midiIn. Each loop
// iteration replays content.EventsInRange(InternalStart, InternalEnd)
// shifted by loop_idx*InternalDuration, and an event survives only if
// its mapped timeline frame falls inside both the query window and
// [ExternalStart, ExternalEnd) — the clause that truncates the final
// partial loop.
func (m MidiClipInstance) EventsInRange(content pool.MidiClipContent, begin, end uint64) []midi.Event {
	if !m.overlapsRange(begin, end) {
		return nil
	}
	internalDuration := m.InternalDuration()
	if internalDuration == 0 {
		return nil
	}

	numLoops := uint64(1)
	if m.ExternalDuration > internalDuration {
		numLoops = (m.ExternalDuration + internalDuration - 1) / internalDuration
	}
	externalEnd := m.ExternalEnd()
	contentEvents := content.EventsInRange(m.InternalStart, m.InternalEnd)

	var out []midi.Event
	for loopIdx := uint64(0); loopIdx < numLoops; loopIdx++ {
		loopOffset := loopIdx * internalDuration
		for _, ev := range contentEvents {
			relative := uint64(ev.SampleOffset())
			timelineFrame := m.ExternalStart + loopOffset + relative
			if timelineFrame >= begin && timelineFrame < end && timelineFrame < externalEnd {
				out = append(out, withOffset(ev, int32(timelineFrame-begin)))
			}
		}
	}
	return out
}

// withOffset returns ev with its SampleOffset replaced by offset. Only the
// note on/off shapes pool.MidiClipContent.EventsInRange produces need
// handling; anything else passes through unchanged.
func withOffset(ev midi.Event, offset int32) midi.Event {
	switch e := ev.(type) {
	case midi.NoteOnEvent:
		e.Offset = offset
		return e
	case midi.NoteOffEvent:
		e.Offset = offset
		return e
	default:
		return ev
	}
}
