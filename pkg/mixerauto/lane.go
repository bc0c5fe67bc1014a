// Package mixerauto implements controller-side automation lanes for
// mixer-level parameters (track volume/pan, and a couple of parameter
// kinds reserved for future effect/metatrack automation). This is
// distinct from pkg/graph/nodes' per-block AutomationInput node: a lane
// here is evaluated once per controller tick, not once per audio
// callback, and its result is pushed to the engine as an ordinary
// control.Command rather than read directly inside Process.
package mixerauto

import "sort"

// ParameterKind names which class of mixer parameter a lane drives.
type ParameterKind int

const (
	ParamTrackVolume ParameterKind = iota
	ParamTrackPan
	ParamEffectParameter
	ParamTimeStretch
	ParamTimeOffset
)

// ParameterID identifies the specific parameter a lane controls.
// EffectIndex/ParamID are only meaningful for ParamEffectParameter.
type ParameterID struct {
	Kind        ParameterKind
	TrackID     uint32
	EffectIndex int
	ParamID     uint32
}

// CurveType selects the interpolation shape used from one point to the
// next.
type CurveType int

const (
	CurveLinear CurveType = iota
	CurveExponential
	CurveSCurve
	CurveStep
)

// Point is one control point of an automation lane: an absolute
// project time in seconds mapped to a value (normalized 0-1, or the
// parameter's native range, depending on ParameterKind).
type Point struct {
	Time  float64
	Value float32
	Curve CurveType
}

// Lane drives one mixer parameter over time from a sorted list of
// points, evaluated with curve-aware interpolation between neighbors.
type Lane struct {
	ID      uint32
	Param   ParameterID
	Enabled bool

	points []Point
}

// NewLane returns an enabled lane with no points (Evaluate reports
// false until one is added).
func NewLane(id uint32, param ParameterID) *Lane {
	return &Lane{ID: id, Param: param, Enabled: true}
}

// AddPoint inserts or replaces a point, keeping points sorted by time.
func (l *Lane) AddPoint(p Point) {
	i := sort.Search(len(l.points), func(i int) bool { return l.points[i].Time >= p.Time })
	if i < len(l.points) && l.points[i].Time == p.Time {
		l.points[i] = p
		return
	}
	l.points = append(l.points, Point{})
	copy(l.points[i+1:], l.points[i:])
	l.points[i] = p
}

// RemovePointAt removes the point within tolerance of time, reporting
// whether one was found.
func (l *Lane) RemovePointAt(time, tolerance float64) bool {
	for i, p := range l.points {
		d := p.Time - time
		if d < 0 {
			d = -d
		}
		if d < tolerance {
			l.points = append(l.points[:i], l.points[i+1:]...)
			return true
		}
	}
	return false
}

// Clear removes every point.
func (l *Lane) Clear() { l.points = nil }

// Points returns the current sorted point list.
func (l *Lane) Points() []Point { return l.points }

// Evaluate returns the lane's value at time. A disabled or empty lane
// reports false; time before the first point or after the last clamps
// to that point's value.
func (l *Lane) Evaluate(time float64) (float32, bool) {
	n := len(l.points)
	if !l.Enabled || n == 0 {
		return 0, false
	}
	if time <= l.points[0].Time {
		return l.points[0].Value, true
	}
	if time >= l.points[n-1].Time {
		return l.points[n-1].Value, true
	}
	for i := 0; i < n-1; i++ {
		p1, p2 := l.points[i], l.points[i+1]
		if time >= p1.Time && time <= p2.Time {
			return interpolate(p1, p2, time), true
		}
	}
	return 0, false
}

func interpolate(p1, p2 Point, time float64) float32 {
	var t float32
	if p2.Time != p1.Time {
		t = float32((time - p1.Time) / (p2.Time - p1.Time))
	}
	switch p1.Curve {
	case CurveLinear:
		return p1.Value + (p2.Value-p1.Value)*t
	case CurveExponential:
		return p1.Value + (p2.Value-p1.Value)*(t*t)
	case CurveSCurve:
		return p1.Value + (p2.Value-p1.Value)*smoothstep(t)
	default: // CurveStep: hold until the next point
		return p1.Value
	}
}

// smoothstep maps t (clamped to [0,1]) through 3t^2 - 2t^3 for an
// ease-in/ease-out curve.
func smoothstep(t float32) float32 {
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	return t * t * (3 - 2*t)
}
