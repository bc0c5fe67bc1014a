package distortion

import "math"

// CurveType selects a Waveshaper's transfer function.
type CurveType int

const (
	CurveHardClip    CurveType = iota // clip at +/-1.0
	CurveSoftClip                     // tanh
	CurveSaturate                     // exponential saturation
	CurveFoldback                     // wave folding
	CurveAsymmetric                   // different curves per half, driven by asymmetry
	CurveSine                         // sine waveshaping
	CurveExponential                  // exponential curve
)

// curves maps each CurveType to the function that implements it; Process
// looks up curveType here instead of switching on it.
var curves = map[CurveType]func(w *Waveshaper, x float64) float64{
	CurveHardClip:    (*Waveshaper).hardClip,
	CurveSoftClip:    (*Waveshaper).softClip,
	CurveSaturate:    (*Waveshaper).saturate,
	CurveFoldback:    (*Waveshaper).foldback,
	CurveAsymmetric:  (*Waveshaper).asymmetric,
	CurveSine:        (*Waveshaper).sineShape,
	CurveExponential: (*Waveshaper).exponential,
}

// Waveshaper applies a nonlinear transfer function to drive+offset the
// input before mixing back with the dry signal.
type Waveshaper struct {
	curveType CurveType
	drive     float64
	mix       float64
	dcOffset  float64
	asymmetry float64 // used only by CurveAsymmetric
}

// NewWaveshaper creates a waveshaper using curveType at unity drive.
func NewWaveshaper(curveType CurveType) *Waveshaper {
	return &Waveshaper{curveType: curveType, drive: 1.0, mix: 1.0}
}

func (w *Waveshaper) SetCurveType(curveType CurveType) { w.curveType = curveType }
func (w *Waveshaper) SetDrive(drive float64)           { w.drive = math.Max(1.0, drive) }
func (w *Waveshaper) SetMix(mix float64)               { w.mix = clamp(mix, 0.0, 1.0) }
func (w *Waveshaper) SetDCOffset(offset float64)       { w.dcOffset = clamp(offset, -1.0, 1.0) }
func (w *Waveshaper) SetAsymmetry(asymmetry float64)   { w.asymmetry = clamp(asymmetry, -1.0, 1.0) }

// Process drives and offsets the input, applies the selected curve,
// removes the offset, and mixes with the dry signal.
func (w *Waveshaper) Process(input float64) float64 {
	driven := input*w.drive + w.dcOffset

	curve, ok := curves[w.curveType]
	shaped := driven
	if ok {
		shaped = curve(w, driven)
	}
	shaped -= w.dcOffset

	return input*(1.0-w.mix) + shaped*w.mix
}

// ProcessBuffer runs a buffer through Process, stopping at the shorter
// of input/output.
func (w *Waveshaper) ProcessBuffer(input, output []float64) {
	n := min(len(input), len(output))
	for i := 0; i < n; i++ {
		output[i] = w.Process(input[i])
	}
}

func (w *Waveshaper) hardClip(x float64) float64 {
	if x > 1.0 {
		return 1.0
	} else if x < -1.0 {
		return -1.0
	}
	return x
}

func (w *Waveshaper) softClip(x float64) float64 { return math.Tanh(x) }

func (w *Waveshaper) saturate(x float64) float64 {
	if x >= 0 {
		return 1.0 - math.Exp(-x)
	}
	return -1.0 + math.Exp(x)
}

// foldback reflects the signal back down whenever it would exceed
// [-1,1], instead of clipping it flat.
func (w *Waveshaper) foldback(x float64) float64 {
	normalized := (x + 1.0) / 2.0
	period := math.Floor(normalized)
	folded := normalized - period
	if int(period)%2 != 0 {
		folded = 1.0 - folded
	}
	return folded*2.0 - 1.0
}

// asymmetric applies softer clipping on the positive half and harder
// clipping on the negative half (or vice versa), skewed by asymmetry.
func (w *Waveshaper) asymmetric(x float64) float64 {
	if x >= 0 {
		return math.Tanh(x * (1.0 + w.asymmetry))
	}
	return math.Tanh(x * (1.0 - w.asymmetry))
}

// sineShape clamps to [-pi/2, pi/2] before taking the sine, avoiding the
// aliasing a full-period sine shaper would introduce.
func (w *Waveshaper) sineShape(x float64) float64 {
	x = clamp(x, -math.Pi/2, math.Pi/2)
	return math.Sin(x)
}

func (w *Waveshaper) exponential(x float64) float64 {
	sign := 1.0
	if x < 0 {
		sign = -1.0
		x = -x
	}
	return sign * (1.0 - math.Exp(-x*2.0))
}

// WaveshaperChain runs a sequence of Waveshapers, each fed the previous
// stage's output.
type WaveshaperChain struct {
	shapers []*Waveshaper
}

func NewWaveshaperChain() *WaveshaperChain {
	return &WaveshaperChain{}
}

func (wc *WaveshaperChain) AddShaper(shaper *Waveshaper) {
	wc.shapers = append(wc.shapers, shaper)
}

func (wc *WaveshaperChain) Process(input float64) float64 {
	output := input
	for _, shaper := range wc.shapers {
		output = shaper.Process(output)
	}
	return output
}

func (wc *WaveshaperChain) ProcessBuffer(input, output []float64) {
	n := min(len(input), len(output))
	for i := 0; i < n; i++ {
		output[i] = wc.Process(input[i])
	}
}
