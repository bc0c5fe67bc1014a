package mixerauto

import "testing"

func volumeLane() *Lane {
	return NewLane(0, ParameterID{Kind: ParamTrackVolume, TrackID: 1})
}

func TestAddPointKeepsLaneSorted(t *testing.T) {
	l := volumeLane()
	l.AddPoint(Point{Time: 2.0, Value: 0.5})
	l.AddPoint(Point{Time: 1.0, Value: 0.3})
	l.AddPoint(Point{Time: 3.0, Value: 0.8})

	pts := l.Points()
	if len(pts) != 3 {
		t.Fatalf("len = %d, want 3", len(pts))
	}
	for i, want := range []float64{1.0, 2.0, 3.0} {
		if pts[i].Time != want {
			t.Errorf("pts[%d].Time = %v, want %v", i, pts[i].Time, want)
		}
	}
}

func TestAddPointReplacesSameTime(t *testing.T) {
	l := volumeLane()
	l.AddPoint(Point{Time: 1.0, Value: 0.3})
	l.AddPoint(Point{Time: 1.0, Value: 0.5})

	pts := l.Points()
	if len(pts) != 1 {
		t.Fatalf("len = %d, want 1", len(pts))
	}
	if pts[0].Value != 0.5 {
		t.Errorf("value = %v, want 0.5", pts[0].Value)
	}
}

func TestEvaluateLinearInterpolation(t *testing.T) {
	l := volumeLane()
	l.AddPoint(Point{Time: 0.0, Value: 0.0, Curve: CurveLinear})
	l.AddPoint(Point{Time: 1.0, Value: 1.0, Curve: CurveLinear})

	cases := []struct {
		time float64
		want float32
	}{
		{0.0, 0.0},
		{0.5, 0.5},
		{1.0, 1.0},
	}
	for _, c := range cases {
		got, ok := l.Evaluate(c.time)
		if !ok {
			t.Fatalf("Evaluate(%v) reported not-ok", c.time)
		}
		if got != c.want {
			t.Errorf("Evaluate(%v) = %v, want %v", c.time, got, c.want)
		}
	}
}

func TestEvaluateStepHoldsUntilNextPoint(t *testing.T) {
	l := volumeLane()
	l.AddPoint(Point{Time: 0.0, Value: 0.5, Curve: CurveStep})
	l.AddPoint(Point{Time: 1.0, Value: 1.0, Curve: CurveStep})

	cases := []struct {
		time float64
		want float32
	}{
		{0.0, 0.5},
		{0.5, 0.5},
		{0.99, 0.5},
		{1.0, 1.0},
	}
	for _, c := range cases {
		got, _ := l.Evaluate(c.time)
		if got != c.want {
			t.Errorf("Evaluate(%v) = %v, want %v", c.time, got, c.want)
		}
	}
}

func TestEvaluateClampsOutsidePointRange(t *testing.T) {
	l := volumeLane()
	l.AddPoint(Point{Time: 1.0, Value: 0.5, Curve: CurveLinear})
	l.AddPoint(Point{Time: 2.0, Value: 1.0, Curve: CurveLinear})

	if got, _ := l.Evaluate(0.0); got != 0.5 {
		t.Errorf("Evaluate(before first) = %v, want 0.5", got)
	}
	if got, _ := l.Evaluate(3.0); got != 1.0 {
		t.Errorf("Evaluate(after last) = %v, want 1.0", got)
	}
}

func TestEvaluateDisabledLaneReportsNotOK(t *testing.T) {
	l := volumeLane()
	l.AddPoint(Point{Time: 0.0, Value: 0.5})
	l.Enabled = false

	if _, ok := l.Evaluate(0.0); ok {
		t.Error("Evaluate on a disabled lane should report not-ok")
	}
}

func TestEvaluateEmptyLaneReportsNotOK(t *testing.T) {
	l := volumeLane()
	if _, ok := l.Evaluate(0.0); ok {
		t.Error("Evaluate on an empty lane should report not-ok")
	}
}

func TestRemovePointAt(t *testing.T) {
	l := volumeLane()
	l.AddPoint(Point{Time: 1.0, Value: 0.5})
	l.AddPoint(Point{Time: 2.0, Value: 0.8})

	if !l.RemovePointAt(1.0, 0.001) {
		t.Fatal("RemovePointAt(1.0) reported not found")
	}
	pts := l.Points()
	if len(pts) != 1 || pts[0].Time != 2.0 {
		t.Errorf("points after removal = %+v, want single point at time 2.0", pts)
	}
}

func TestSmoothstepClampsAndIsMonotonic(t *testing.T) {
	if smoothstep(-1) != 0 {
		t.Error("smoothstep(-1) should clamp to 0")
	}
	if smoothstep(2) != 1 {
		t.Error("smoothstep(2) should clamp to 1")
	}
	prev := smoothstep(0)
	for _, t2 := range []float32{0.1, 0.3, 0.5, 0.7, 0.9, 1.0} {
		cur := smoothstep(t2)
		if cur < prev {
			t.Fatalf("smoothstep not monotonic at %v: %v < %v", t2, cur, prev)
		}
		prev = cur
	}
}
