package nodes

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestAutomationKeyframesStayTimeSorted is the §8 TESTABLE PROPERTIES
// "automation monotonicity" invariant: AddKeyframe keeps the keyframe
// list sorted by Time regardless of insertion order, since evaluateAt's
// binary search over Keyframes() assumes monotonically increasing times.
func TestAutomationKeyframesStayTimeSorted(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("Keyframes() is sorted by Time after any insertion order", prop.ForAll(
		func(times []int) bool {
			a := NewAutomationInput("auto")
			for _, tm := range times {
				a.AddKeyframe(NewKeyframe(float64(tm), 0))
			}

			kfs := a.Keyframes()
			for i := 1; i < len(kfs); i++ {
				if kfs[i].Time < kfs[i-1].Time {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.IntRange(-1000, 1000)),
	))

	properties.Property("evaluateAt is monotonic between two ascending-value keyframes", prop.ForAll(
		func(v1, v2 int, steps int) bool {
			if steps < 2 {
				steps = 2
			}
			if steps > 50 {
				steps = 50
			}
			lo, hi := float32(v1), float32(v2)
			if lo > hi {
				lo, hi = hi, lo
			}

			a := NewAutomationInput("auto")
			a.AddKeyframe(NewKeyframe(0, lo))
			a.AddKeyframe(NewKeyframe(10, hi))

			prev := a.evaluateAt(0)
			for i := 1; i <= steps; i++ {
				time := 10 * float64(i) / float64(steps)
				cur := a.evaluateAt(time)
				if cur < prev {
					return false
				}
				prev = cur
			}
			return true
		},
		gen.IntRange(-1000, 1000),
		gen.IntRange(-1000, 1000),
		gen.IntRange(2, 50),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
