package control

// Command is anything the controller can enqueue for the engine to apply
// during the next block's drain phase. Implementations are small value
// types so pushing one never allocates
// on the heap once the Ring's backing array is warm.
type Command interface {
	isCommand()
}

type (
	// Play starts playback from the engine's current playhead.
	Play struct{}

	// Pause stops advancing the playhead without resetting it.
	Pause struct{}

	// Stop stops playback and resets the playhead to 0.
	Stop struct{}

	// Seek moves the playhead to an absolute frame position.
	Seek struct{ Frame uint64 }

	// SetTrackVolume sets a track's linear gain (0.0-1.0+).
	SetTrackVolume struct {
		TrackID uint32
		Volume  float32
	}

	// SetTrackPan sets a track's pan (-1.0 left .. +1.0 right).
	SetTrackPan struct {
		TrackID uint32
		Pan     float32
	}

	// SetTrackMute toggles a track's mute flag.
	SetTrackMute struct {
		TrackID uint32
		Muted   bool
	}

	// SetTrackSolo toggles a track's solo flag.
	SetTrackSolo struct {
		TrackID uint32
		Soloed  bool
	}

	// SetNodeParameter applies a continuous parameter change to a node
	// inside an instrument track's graph.
	SetNodeParameter struct {
		TrackID   uint32
		NodeID    uint32
		Parameter uint32
		Value     float32
	}

	// ConnectNodes adds a directed edge to an instrument track's graph.
	ConnectNodes struct {
		TrackID                         uint32
		FromNode, ToNode                uint32
		FromPort, ToPort                uint32
	}

	// DisconnectNodes removes a directed edge from an instrument track's
	// graph.
	DisconnectNodes struct {
		TrackID                         uint32
		FromNode, ToNode                uint32
		FromPort, ToPort                uint32
	}

	// NoteOn injects a live MIDI note-on into an instrument track's
	// voice allocator, bypassing the clip timeline (used for monitoring
	// a keyboard controller during recording).
	NoteOn struct {
		TrackID  uint32
		Note     uint8
		Velocity uint8
	}

	// NoteOff injects a live MIDI note-off.
	NoteOff struct {
		TrackID uint32
		Note    uint8
	}

	// AddAudioClip places a clip referencing an already-imported pool
	// entry onto an audio track's timeline.
	AddAudioClip struct {
		TrackID       uint32
		PoolIndex     uint32
		StartFrame    uint64
		DurationFrame uint64
		OffsetFrame   uint64
	}

	// AddMidiClip places a MIDI clip instance, with loop semantics, onto
	// an instrument track's timeline.
	AddMidiClip struct {
		TrackID                         uint32
		PoolIndex                       uint32
		ExternalStart, ExternalDuration uint64
		InternalStart, InternalEnd      uint64
	}

	// RemoveClip removes a clip by its timeline-assigned ID.
	RemoveClip struct {
		TrackID uint32
		ClipID  uint32
	}
)

func (Play) isCommand()             {}
func (Pause) isCommand()            {}
func (Stop) isCommand()             {}
func (Seek) isCommand()             {}
func (SetTrackVolume) isCommand()   {}
func (SetTrackPan) isCommand()      {}
func (SetTrackMute) isCommand()     {}
func (SetTrackSolo) isCommand()     {}
func (SetNodeParameter) isCommand() {}
func (ConnectNodes) isCommand()     {}
func (DisconnectNodes) isCommand()  {}
func (NoteOn) isCommand()           {}
func (NoteOff) isCommand()          {}
func (AddAudioClip) isCommand()     {}
func (AddMidiClip) isCommand()      {}
func (RemoveClip) isCommand()       {}
