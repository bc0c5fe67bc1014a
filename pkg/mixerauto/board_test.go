package mixerauto

import (
	"testing"

	"github.com/fernwave/tideline/pkg/control"
)

func TestTickPushesVolumeAndPanCommands(t *testing.T) {
	b := NewBoard()
	vol := b.AddLane(ParameterID{Kind: ParamTrackVolume, TrackID: 3})
	vol.AddPoint(Point{Time: 0.0, Value: 0.2})
	vol.AddPoint(Point{Time: 1.0, Value: 0.9})

	pan := b.AddLane(ParameterID{Kind: ParamTrackPan, TrackID: 3})
	pan.AddPoint(Point{Time: 0.0, Value: -0.5})

	commands := control.NewRing[control.Command](8)
	b.Tick(0.5, commands)

	if commands.Len() != 2 {
		t.Fatalf("commands.Len() = %d, want 2", commands.Len())
	}

	var sawVolume, sawPan bool
	for commands.Len() > 0 {
		cmd, _ := commands.Pop()
		switch c := cmd.(type) {
		case control.SetTrackVolume:
			sawVolume = true
			if c.TrackID != 3 || c.Volume != 0.55 {
				t.Errorf("SetTrackVolume = %+v, want TrackID=3 Volume=0.55", c)
			}
		case control.SetTrackPan:
			sawPan = true
			if c.TrackID != 3 || c.Pan != -0.5 {
				t.Errorf("SetTrackPan = %+v, want TrackID=3 Pan=-0.5", c)
			}
		default:
			t.Errorf("unexpected command type %T", c)
		}
	}
	if !sawVolume || !sawPan {
		t.Error("Tick did not push both a volume and a pan command")
	}
}

func TestTickSkipsLaneWithNoCommandEquivalent(t *testing.T) {
	b := NewBoard()
	stretch := b.AddLane(ParameterID{Kind: ParamTimeStretch, TrackID: 1})
	stretch.AddPoint(Point{Time: 0.0, Value: 1.0})

	commands := control.NewRing[control.Command](4)
	b.Tick(0.0, commands)

	if commands.Len() != 0 {
		t.Errorf("commands.Len() = %d, want 0 for a parameter kind with no command mapping", commands.Len())
	}
}

func TestRemoveLaneStopsItFromTicking(t *testing.T) {
	b := NewBoard()
	l := b.AddLane(ParameterID{Kind: ParamTrackVolume, TrackID: 2})
	l.AddPoint(Point{Time: 0.0, Value: 0.7})
	b.RemoveLane(l.ID)

	commands := control.NewRing[control.Command](4)
	b.Tick(0.0, commands)

	if commands.Len() != 0 {
		t.Errorf("commands.Len() = %d, want 0 after removing the only lane", commands.Len())
	}
	if _, ok := b.Lane(l.ID); ok {
		t.Error("Lane() should no longer find a removed lane")
	}
}
