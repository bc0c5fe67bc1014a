package nodes

import (
	"math"
	"sort"
	"sync/atomic"

	"github.com/fernwave/tideline/pkg/graph"
	"github.com/fernwave/tideline/pkg/midi"
)

// InterpolationType selects how an AutomationInput curve transitions
// from one keyframe to the next.
type InterpolationType int

const (
	InterpolationLinear InterpolationType = iota
	InterpolationBezier
	InterpolationStep
	InterpolationHold
)

// Keyframe is one control point of an automation curve: an absolute
// project time in seconds mapped to a CV output value.
type Keyframe struct {
	Time          float64
	Value         float32
	Interpolation InterpolationType
	EaseOut       [2]float32
	EaseIn        [2]float32
}

// NewKeyframe returns a linear keyframe with the original's default ease
// handles (used only when the keyframe is later switched to Bezier).
func NewKeyframe(time float64, value float32) Keyframe {
	return Keyframe{
		Time:          time,
		Value:         value,
		Interpolation: InterpolationLinear,
		EaseOut:       [2]float32{0.58, 1.0},
		EaseIn:        [2]float32{0.42, 0.0},
	}
}

// AutomationInput has no audio-rate input: it generates a CV curve
// driven by the timeline's current playback position, handed in each
// block by InstrumentGraph.Process via SetPlaybackTime.
type AutomationInput struct {
	graph.BaseNode

	keyframes []Keyframe

	// playbackTime is written by the graph scheduler (not the audio
	// thread that owns this node) once per block; bit-reinterpreted into
	// an atomic uint64 for lock-free cross-thread scalar sharing.
	playbackTime atomic.Uint64
}

// NewAutomationInput returns an AutomationInput node with no keyframes
// (outputs 0 until one is added).
func NewAutomationInput(name string) *AutomationInput {
	a := &AutomationInput{}
	a.NodeName = name
	a.Cat = graph.CategoryUtility
	a.OutPorts = []graph.Port{{Name: "CV Out", Signal: graph.SignalCV, Index: 0}}
	return a
}

// SetPlaybackTime implements graph.PlaybackTimeSetter.
func (a *AutomationInput) SetPlaybackTime(seconds float64) {
	a.playbackTime.Store(math.Float64bits(seconds))
}

// AddKeyframe inserts or replaces a keyframe, keeping keyframes sorted
// by time. Controller-side only.
func (a *AutomationInput) AddKeyframe(kf Keyframe) {
	i := sort.Search(len(a.keyframes), func(i int) bool { return a.keyframes[i].Time >= kf.Time })
	if i < len(a.keyframes) && a.keyframes[i].Time == kf.Time {
		a.keyframes[i] = kf
		return
	}
	a.keyframes = append(a.keyframes, Keyframe{})
	copy(a.keyframes[i+1:], a.keyframes[i:])
	a.keyframes[i] = kf
}

// RemoveKeyframeAt removes the keyframe within tolerance of time,
// reporting whether one was found.
func (a *AutomationInput) RemoveKeyframeAt(time float64, tolerance float64) bool {
	for i, kf := range a.keyframes {
		d := kf.Time - time
		if d < 0 {
			d = -d
		}
		if d < tolerance {
			a.keyframes = append(a.keyframes[:i], a.keyframes[i+1:]...)
			return true
		}
	}
	return false
}

// Keyframes returns the current keyframe list.
func (a *AutomationInput) Keyframes() []Keyframe { return a.keyframes }

func (a *AutomationInput) SetParameter(id uint32, value float32) {}
func (a *AutomationInput) GetParameter(id uint32) float32        { return 0 }

func (a *AutomationInput) evaluateAt(time float64) float32 {
	n := len(a.keyframes)
	if n == 0 {
		return 0
	}
	if time <= a.keyframes[0].Time {
		return a.keyframes[0].Value
	}
	if time >= a.keyframes[n-1].Time {
		return a.keyframes[n-1].Value
	}
	for i := 0; i < n-1; i++ {
		kf1, kf2 := a.keyframes[i], a.keyframes[i+1]
		if time >= kf1.Time && time <= kf2.Time {
			return interpolateKeyframes(kf1, kf2, time)
		}
	}
	return 0
}

func interpolateKeyframes(kf1, kf2 Keyframe, time float64) float32 {
	var t float32
	if kf2.Time != kf1.Time {
		t = float32((time - kf1.Time) / (kf2.Time - kf1.Time))
	}
	switch kf1.Interpolation {
	case InterpolationLinear:
		return kf1.Value + (kf2.Value-kf1.Value)*t
	case InterpolationBezier:
		eased := cubicBezierEase(t, kf1.EaseOut, kf2.EaseIn)
		return kf1.Value + (kf2.Value-kf1.Value)*eased
	default: // Step, Hold
		return kf1.Value
	}
}

// cubicBezierEase is a simplified cubic-bezier ease from (0,0) through
// easeOut/easeIn to (1,1).
func cubicBezierEase(t float32, easeOut, easeIn [2]float32) float32 {
	u := 1 - t
	return 3*u*u*t*easeOut[1] + 3*u*t*t*easeIn[1] + t*t*t
}

func (a *AutomationInput) Process(inputs [][]float32, outputs [][]float32, midiIn [][]midi.Event, midiOut [][]midi.Event, sampleRate uint32) {
	if len(outputs) == 0 {
		return
	}
	out := outputs[0]
	frames := len(out) / 2

	playhead := math.Float64frombits(a.playbackTime.Load())
	sampleDuration := 1.0 / float64(sampleRate)

	for fr := 0; fr < frames; fr++ {
		time := playhead + float64(fr)*sampleDuration
		v := a.evaluateAt(time)
		out[fr*2] = v
		out[fr*2+1] = v
	}
}

func (a *AutomationInput) Reset() {}

func (a *AutomationInput) NodeType() string { return "AutomationInput" }

func (a *AutomationInput) Clone() graph.Node {
	c := NewAutomationInput(a.NodeName)
	c.keyframes = append(c.keyframes, a.keyframes...)
	return c
}
