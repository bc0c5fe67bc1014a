package modulation

import "math"

// clamp restricts v to [lo, hi], the bound used by every Set* parameter
// method in this package.
func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// clampFloat32 is clamp for the float32 samples processed in the audio
// path, where converting through float64 for every sample would be
// wasteful.
func clampFloat32(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
