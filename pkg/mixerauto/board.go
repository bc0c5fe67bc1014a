package mixerauto

import "github.com/fernwave/tideline/pkg/control"

// Board owns every automation lane for a session and turns lane
// evaluation into engine commands once per controller tick.
type Board struct {
	lanes map[uint32]*Lane
	next  uint32
}

// NewBoard returns an empty board.
func NewBoard() *Board {
	return &Board{lanes: make(map[uint32]*Lane)}
}

// AddLane creates and registers a lane for param, returning it for the
// caller to populate with points.
func (b *Board) AddLane(param ParameterID) *Lane {
	id := b.next
	b.next++
	l := NewLane(id, param)
	b.lanes[id] = l
	return l
}

// RemoveLane drops a lane by ID.
func (b *Board) RemoveLane(id uint32) { delete(b.lanes, id) }

// Lane looks up a lane by ID.
func (b *Board) Lane(id uint32) (*Lane, bool) {
	l, ok := b.lanes[id]
	return l, ok
}

// Tick evaluates every enabled lane at time and pushes the resulting
// track-volume/pan commands onto commands. Lanes driving a
// ParameterKind with no direct command equivalent yet (effect
// parameters, time stretch/offset — reserved for a future metatrack
// and effect-chain model) are evaluated but produce no command.
func (b *Board) Tick(time float64, commands *control.Ring[control.Command]) {
	for _, l := range b.lanes {
		v, ok := l.Evaluate(time)
		if !ok {
			continue
		}
		switch l.Param.Kind {
		case ParamTrackVolume:
			commands.Push(control.SetTrackVolume{TrackID: l.Param.TrackID, Volume: v})
		case ParamTrackPan:
			commands.Push(control.SetTrackPan{TrackID: l.Param.TrackID, Pan: v})
		}
	}
}
