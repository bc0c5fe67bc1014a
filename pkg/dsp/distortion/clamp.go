package distortion

import "math"

// clamp restricts v to [lo, hi], the bound used by every Set* parameter
// method in this package.
func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
