// Package engine implements the realtime callback owner: a single
// `Process(output)` operation wired against the lock-free queues in
// pkg/control, the content pools in pkg/pool, and the track/clip
// timeline in pkg/timeline. Nothing in this package allocates, blocks,
// or performs I/O once Process is on the call stack. The playhead is
// frame-based rather than seconds-based, matching the rest of
// pkg/control/pkg/pool (see DESIGN.md's Open Question entry on
// frame-vs-seconds timing).
package engine

import (
	"github.com/charmbracelet/log"

	"github.com/fernwave/tideline/internal/logctx"
	"github.com/fernwave/tideline/pkg/config"
	"github.com/fernwave/tideline/pkg/control"
	"github.com/fernwave/tideline/pkg/graph"
	"github.com/fernwave/tideline/pkg/pool"
	"github.com/fernwave/tideline/pkg/timeline"
)

// Engine owns the session's tracks and pools and exposes the single
// realtime operation, Process. Everything else (AudioPool, MidiPool,
// AddTrack) is controller-side setup, called before Play or between
// blocks from the same goroutine that owns the Engine value — only
// Process and the atomic playhead accessor are meant to be called from
// the audio callback thread.
type Engine struct {
	session config.Session
	system  *control.System

	audioPool *pool.AudioPool
	midiPool  *pool.MidiPool

	tracks      []*timeline.Track
	nextTrackID uint32
	nextClipID  uint32

	playing  bool
	playhead atomicFrame

	mix []float32

	framesSinceEvent    int
	eventIntervalFrames int

	log *log.Logger
}

// New constructs an Engine for session, wired to system's command/event/
// query queues. The audio and MIDI pools are owned by the engine but
// populated by the controller via AudioPool()/MidiPool() before any
// AddAudioClip/AddMidiClip command references their contents.
func New(session config.Session, system *control.System) *Engine {
	e := &Engine{
		session:             session,
		system:              system,
		audioPool:           pool.NewAudioPool(),
		midiPool:            pool.NewMidiPool(),
		eventIntervalFrames: int(session.SampleRate) / 10, // ~100ms position-update cadence
		log:                 logctx.New("engine"),
	}
	e.log.Debug("engine constructed", "sample_rate", session.SampleRate, "channels", session.Channels, "max_block_size", session.MaxBlockSize)
	return e
}

// AudioPool returns the engine's audio content pool for controller-side
// imports (decoding happens on the controller thread, never on the
// audio thread).
func (e *Engine) AudioPool() *pool.AudioPool { return e.audioPool }

// MidiPool returns the engine's MIDI content pool.
func (e *Engine) MidiPool() *pool.MidiPool { return e.midiPool }

// AddTrack registers a track (controller-side only) and returns its
// engine-assigned ID.
func (e *Engine) AddTrack(t *timeline.Track) uint32 {
	e.nextTrackID++
	t.ID = e.nextTrackID
	e.tracks = append(e.tracks, t)
	return t.ID
}

// NewInstrumentTrack is a convenience that builds an instrument track
// sized from this engine's session before registering it.
func (e *Engine) NewInstrumentTrack(name string, g *graph.InstrumentGraph) *timeline.Track {
	return timeline.NewInstrumentTrack(0, name, g, e.session.MaxBlockSize, e.session.Channels)
}

// Track returns the track with the given ID, if any.
func (e *Engine) Track(id uint32) (*timeline.Track, bool) {
	for _, t := range e.tracks {
		if t.ID == id {
			return t, true
		}
	}
	return nil, false
}

// PlayheadFrames returns the current playhead position, safe to call
// from any goroutine — the atomic playhead is the sole cross-thread
// mutable state in this package.
func (e *Engine) PlayheadFrames() uint64 { return e.playhead.load() }

// Process is the realtime callback: it fills output (interleaved,
// len()%channels == 0) for one block, draining commands, rendering
// every active track, and publishing the new playhead position. It
// never allocates, blocks, or performs I/O.
func (e *Engine) Process(output []float32) {
	// 1. Drain commands.
	e.system.Commands.Drain(e.applyCommand)
	e.system.Queries.Drain(e.applyQuery)

	// 2. If not playing, zero the output and return.
	if !e.playing {
		for i := range output {
			output[i] = 0
		}
		return
	}

	channels := e.session.Channels
	frames := len(output) / channels

	// 3. Compute playhead and the [begin, end) window this block covers.
	begin := e.playhead.load()
	end := begin + uint64(frames)

	// 4. Determine solo state once.
	anySolo := false
	for _, t := range e.tracks {
		if t.Solo {
			anySolo = true
			break
		}
	}

	// 5. Zero the mix scratch buffer.
	if len(e.mix) < len(output) {
		e.mix = make([]float32, len(output))
	}
	mix := e.mix[:len(output)]
	for i := range mix {
		mix[i] = 0
	}

	// 6. Render each active track.
	for _, t := range e.tracks {
		if t.Active(anySolo) {
			t.Render(mix, e.audioPool, e.midiPool, begin, frames, e.session.SampleRate, channels)
		}
	}

	// 7. Copy the mix buffer into the output.
	copy(output, mix)

	// 8. Advance the playhead; store it atomically for other threads.
	e.playhead.store(end)

	// 9. Post a position event roughly every 100ms.
	e.framesSinceEvent += frames
	if e.framesSinceEvent >= e.eventIntervalFrames {
		e.framesSinceEvent = 0
		e.system.Events.Push(control.PositionUpdate{Frame: end})
	}
}

// applyCommand handles one controller command during the drain phase.
// Unknown track/node/clip IDs are silently ignored — an invalid
// command is a no-op, not a realtime fault.
func (e *Engine) applyCommand(cmd control.Command) {
	switch c := cmd.(type) {
	case control.Play:
		e.playing = true
	case control.Pause:
		e.playing = false
	case control.Stop:
		e.playing = false
		e.playhead.store(0)
	case control.Seek:
		e.playhead.store(c.Frame)
	case control.SetTrackVolume:
		if t, ok := e.Track(c.TrackID); ok {
			t.Volume = c.Volume
		}
	case control.SetTrackPan:
		if t, ok := e.Track(c.TrackID); ok {
			t.Pan = c.Pan
		}
	case control.SetTrackMute:
		if t, ok := e.Track(c.TrackID); ok {
			t.Mute = c.Muted
		}
	case control.SetTrackSolo:
		if t, ok := e.Track(c.TrackID); ok {
			t.Solo = c.Soloed
		}
	case control.SetNodeParameter:
		if t, ok := e.Track(c.TrackID); ok && t.Graph != nil {
			if n, ok := t.Graph.Node(c.NodeID); ok {
				n.SetParameter(c.Parameter, c.Value)
			}
		}
	case control.ConnectNodes:
		if t, ok := e.Track(c.TrackID); ok && t.Graph != nil {
			_ = t.Graph.AddEdge(graph.Edge{From: c.FromNode, To: c.ToNode, FromPort: c.FromPort, ToPort: c.ToPort})
		}
	case control.DisconnectNodes:
		if t, ok := e.Track(c.TrackID); ok && t.Graph != nil {
			t.Graph.RemoveEdge(graph.Edge{From: c.FromNode, To: c.ToNode, FromPort: c.FromPort, ToPort: c.ToPort})
		}
	case control.NoteOn:
		// Live keyboard monitoring bypasses the clip timeline and injects
		// directly; this requires the track's graph to declare an
		// external MIDI target (e.g. a VoiceAllocator), which receives
		// fan-out MIDI the same way a MidiClipInstance's events do.
		e.injectLiveNote(c.TrackID, noteOnAt(c.Note, c.Velocity))
	case control.NoteOff:
		e.injectLiveNote(c.TrackID, noteOffAt(c.Note))
	case control.AddAudioClip:
		if t, ok := e.Track(c.TrackID); ok {
			e.nextClipID++
			t.AddAudioClip(timelineAudioClip(e.nextClipID, c))
		}
	case control.AddMidiClip:
		if t, ok := e.Track(c.TrackID); ok {
			e.nextClipID++
			t.AddMidiClip(timelineMidiClip(e.nextClipID, c))
		}
	case control.RemoveClip:
		if t, ok := e.Track(c.TrackID); ok {
			t.RemoveClip(c.ClipID)
		}
	}
}

// voiceCounter is implemented by nodes.VoiceAllocator; declared locally
// to avoid pkg/engine importing pkg/graph/nodes for one method.
type voiceCounter interface {
	ActiveVoices() int
}

// applyQuery answers a synchronous query during the same block's drain
// phase. A full reply queue drops the answer silently — the engine
// never blocks on it.
func (e *Engine) applyQuery(q control.Query) {
	reply := control.QueryReply{ID: q.ID}
	switch q.Kind {
	case control.QueryPlayheadPosition:
		reply.Value = float32(e.playhead.load())
	case control.QueryNodeParameter:
		t, ok := e.Track(q.TrackID)
		if !ok || t.Graph == nil {
			reply.Err = "unknown track"
			break
		}
		n, ok := t.Graph.Node(q.NodeID)
		if !ok {
			reply.Err = "unknown node"
			break
		}
		reply.Value = n.GetParameter(q.Param)
	case control.QueryVoiceCount:
		t, ok := e.Track(q.TrackID)
		if !ok || t.Graph == nil {
			reply.Err = "unknown track"
			break
		}
		n, ok := t.Graph.Node(q.NodeID)
		if !ok {
			reply.Err = "unknown node"
			break
		}
		if va, ok := n.(voiceCounter); ok {
			reply.Value = float32(va.ActiveVoices())
		}
	case control.QueryTrackPeakLevel:
		reply.Value = 0 // peak metering is a controller-side concern over captured output, not engine state
	case control.QueryAddAudioClip:
		t, ok := e.Track(q.TrackID)
		if !ok {
			reply.Err = "unknown track"
			break
		}
		e.nextClipID++
		t.AddAudioClip(timeline.AudioClip{
			ID:            e.nextClipID,
			PoolIndex:     q.PoolIndex,
			StartFrame:    q.StartFrame,
			DurationFrame: q.DurationFrame,
			OffsetFrame:   q.OffsetFrame,
		})
		reply.ClipID = e.nextClipID
	case control.QueryAddMidiClip:
		t, ok := e.Track(q.TrackID)
		if !ok {
			reply.Err = "unknown track"
			break
		}
		e.nextClipID++
		t.AddMidiClip(timeline.MidiClipInstance{
			ID:               e.nextClipID,
			PoolIndex:        q.PoolIndex,
			InternalStart:    q.InternalStart,
			InternalEnd:      q.InternalEnd,
			ExternalStart:    q.ExternalStart,
			ExternalDuration: q.ExternalDuration,
		})
		reply.ClipID = e.nextClipID
	}
	e.system.QueryReplies.Push(reply)
}

func timelineAudioClip(id uint32, c control.AddAudioClip) timeline.AudioClip {
	return timeline.AudioClip{
		ID:            id,
		PoolIndex:     c.PoolIndex,
		StartFrame:    c.StartFrame,
		DurationFrame: c.DurationFrame,
		OffsetFrame:   c.OffsetFrame,
	}
}

func timelineMidiClip(id uint32, c control.AddMidiClip) timeline.MidiClipInstance {
	return timeline.MidiClipInstance{
		ID:               id,
		PoolIndex:        c.PoolIndex,
		InternalStart:    c.InternalStart,
		InternalEnd:      c.InternalEnd,
		ExternalStart:    c.ExternalStart,
		ExternalDuration: c.ExternalDuration,
	}
}
