package control

import (
	"context"
	"fmt"
	"time"
)

// QueryKind identifies the synchronous question a Query asks the engine.
// Unlike Command/Event, queries get a matched QueryReply the controller can
// wait on, so the controller can read engine-owned state (node parameter
// values, track peak levels) without racing the audio thread.
type QueryKind int

const (
	QueryTrackPeakLevel QueryKind = iota
	QueryNodeParameter
	QueryPlayheadPosition
	QueryVoiceCount

	// QueryAddAudioClip places an audio clip and replies with its
	// engine-assigned ClipID.
	QueryAddAudioClip

	// QueryAddMidiClip places a MIDI clip instance and replies with its
	// engine-assigned ClipID.
	QueryAddMidiClip
)

// Query is pushed on its own query ring; the engine answers it inline
// during the same block's drain phase rather than deferring to the event
// queue, so replies arrive in request order.
type Query struct {
	ID      uint64
	Kind    QueryKind
	TrackID uint32
	NodeID  uint32
	Param   uint32

	// Clip-placement fields, used by QueryAddAudioClip/QueryAddMidiClip
	// only. PoolIndex/StartFrame/DurationFrame/OffsetFrame describe an
	// audio clip; PoolIndex/ExternalStart/ExternalDuration/InternalStart/
	// InternalEnd describe a MIDI clip instance.
	PoolIndex       uint32
	StartFrame      uint64
	DurationFrame   uint64
	OffsetFrame     uint64
	ExternalStart   uint64
	ExternalDuration uint64
	InternalStart   uint64
	InternalEnd     uint64
}

// QueryReply answers a Query by ID. ClipID carries the engine-assigned
// identifier for QueryAddAudioClip/QueryAddMidiClip; Value carries the
// float answer for the peak-level/parameter/position/voice-count queries.
type QueryReply struct {
	ID     uint64
	Value  float32
	ClipID uint32
	Err    string
}

// QueryClient issues queries against the engine's query/reply ring pair
// and waits for the matching reply. It is meant for controller-side use
// only; it is not itself part of the realtime path.
type QueryClient struct {
	queries *Ring[Query]
	replies *Ring[QueryReply]
	nextID  uint64
}

// NewQueryClient wraps a query/reply ring pair constructed alongside the
// engine.
func NewQueryClient(queries *Ring[Query], replies *Ring[QueryReply]) *QueryClient {
	return &QueryClient{queries: queries, replies: replies}
}

// Ask pushes q and polls for its reply until ctx is done. Polling (rather
// than a condition variable) keeps the reply side lock-free and matches
// how the controller already polls the event ring once per UI tick.
func (c *QueryClient) Ask(ctx context.Context, q Query) (QueryReply, error) {
	c.nextID++
	q.ID = c.nextID
	if !c.queries.Push(q) {
		return QueryReply{}, fmt.Errorf("control: query queue full")
	}
	for {
		if rep, ok := c.replies.Pop(); ok {
			if rep.ID == q.ID {
				if rep.Err != "" {
					return rep, fmt.Errorf("control: query failed: %s", rep.Err)
				}
				return rep, nil
			}
			// Stale reply from a query this client gave up on earlier;
			// keep draining until we find ours or run out.
			continue
		}
		select {
		case <-ctx.Done():
			return QueryReply{}, ctx.Err()
		case <-time.After(time.Millisecond):
		}
	}
}
