package control

import "github.com/fernwave/tideline/pkg/config"

// System bundles every queue the controller and the engine share, sized
// from a config.Session: fixed-capacity lock-free rings, one per
// direction, allocated up front so nothing in the audio path ever grows
// them.
type System struct {
	Commands     *Ring[Command]
	Events       *Ring[Event]
	Queries      *Ring[Query]
	QueryReplies *Ring[QueryReply]
	Capture      *CaptureRing
}

// NewSystem allocates all queues for a session.
func NewSystem(s config.Session) *System {
	return &System{
		Commands:     NewRing[Command](s.CommandCapacity),
		Events:       NewRing[Event](s.EventCapacity),
		Queries:      NewRing[Query](s.QueryCapacity),
		QueryReplies: NewRing[QueryReply](s.QueryCapacity),
		Capture:      NewCaptureRing(s.CaptureRingFrames() * s.Channels),
	}
}

// Client returns a QueryClient bound to this system's query/reply pair.
func (s *System) Client() *QueryClient {
	return NewQueryClient(s.Queries, s.QueryReplies)
}
