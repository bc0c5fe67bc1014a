package control

// Event is anything the engine emits for the controller to observe. Events
// are advisory only — the engine never blocks waiting for a controller to
// read one, and a full event ring just drops the new notification.
type Event interface {
	isEvent()
}

type (
	// PositionUpdate is emitted roughly every 100ms of processed audio
	// while playing, so the controller can drive a playhead display without polling
	// the atomic position on every paint tick.
	PositionUpdate struct{ Frame uint64 }

	// ClipFinished names a clip whose last frame was rendered. The engine
	// in this module does not emit it.
	ClipFinished struct {
		TrackID uint32
		ClipID  uint32
	}

	// VoiceStolen describes a VoiceAllocator stealing a voice to satisfy
	// a new note-on. Neither the engine nor the VoiceAllocator node emits
	// it.
	VoiceStolen struct {
		TrackID      uint32
		NodeID       uint32
		StolenNote   uint8
		NewNote      uint8
	}

	// RecordingError carries a non-fatal problem the audio thread
	// absorbed: realtime code never returns an error. The engine in this
	// module does not emit it.
	RecordingError struct{ Message string }

	// Underrun carries how many frames of a requested block went
	// unfilled. The engine in this module does not emit it.
	Underrun struct{ MissingFrames int }
)

func (PositionUpdate) isEvent()  {}
func (ClipFinished) isEvent()    {}
func (VoiceStolen) isEvent()     {}
func (RecordingError) isEvent()  {}
func (Underrun) isEvent()        {}
