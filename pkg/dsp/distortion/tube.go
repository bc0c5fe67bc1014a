package distortion

import "math"

// TubeSaturator emulates vacuum tube saturation: a highpass + low-shelf
// pre-emphasis stage, drive/bias with magnetic-style hysteresis, even/odd
// harmonic generation, an asymmetric tanh transfer function, and a
// post lowpass to tame the generated highs.
type TubeSaturator struct {
	drive         float64
	bias          float64
	mix           float64
	warmth        float64
	evenHarmonics float64
	oddHarmonics  float64
	hysteresis    float64

	preHighpass *onePole
	preLowShelf *SimpleLowShelf
	postLowpass *onePole

	prevInput  float64
	prevOutput float64
}

// NewTubeSaturator creates a tube saturator tuned for sampleRate: a
// 20Hz DC-blocking highpass, a 100Hz low shelf for warmth, and a 15kHz
// post lowpass to smooth the generated harmonics.
func NewTubeSaturator(sampleRate float64) *TubeSaturator {
	return &TubeSaturator{
		drive:         1.0,
		mix:           1.0,
		warmth:        0.5,
		evenHarmonics: 0.3,
		oddHarmonics:  0.7,
		hysteresis:    0.1,

		preHighpass: newOnePole(sampleRate, 20.0, highpassCoeffs),
		preLowShelf: NewSimpleLowShelf(sampleRate, 100.0),
		postLowpass: newOnePole(sampleRate, 15000.0, lowpassCoeffs),
	}
}

// SetDrive sets the pre-saturation drive gain (1.0 to 10.0).
func (t *TubeSaturator) SetDrive(drive float64) { t.drive = clamp(drive, 1.0, 10.0) }

func (t *TubeSaturator) SetBias(bias float64) { t.bias = clamp(bias, -1.0, 1.0) }
func (t *TubeSaturator) SetMix(mix float64)   { t.mix = clamp(mix, 0.0, 1.0) }

// SetWarmth drives the low-shelf boost, up to +3dB at warmth=1.
func (t *TubeSaturator) SetWarmth(warmth float64) {
	t.warmth = clamp(warmth, 0.0, 1.0)
	t.preLowShelf.SetGain(1.0 + t.warmth*0.5)
}

// SetHarmonicBalance sets the even-harmonic ratio; odd is its complement.
func (t *TubeSaturator) SetHarmonicBalance(evenRatio float64) {
	t.evenHarmonics = clamp(evenRatio, 0.0, 1.0)
	t.oddHarmonics = 1.0 - t.evenHarmonics
}

func (t *TubeSaturator) SetHysteresis(hysteresis float64) { t.hysteresis = clamp(hysteresis, 0.0, 1.0) }

// Process runs one mono sample through the full tube emulation chain.
func (t *TubeSaturator) Process(input float64) float64 {
	filtered := t.preHighpass.Process(input)
	filtered = t.preLowShelf.Process(filtered)

	biased := filtered*t.drive + t.bias
	biased = t.smoothed(biased, &t.prevInput, 0.5)

	saturated := t.generateHarmonics(biased)
	shaped := t.tubeTransfer(saturated)

	output := t.postLowpass.Process(shaped)
	output = t.smoothed(output, &t.prevOutput, 0.3)

	return input*(1.0-t.mix) + output*t.mix
}

// smoothed blends x toward *state by hysteresis (scaled by weight),
// modeling the lag of magnetic hysteresis; a no-op when hysteresis is 0.
func (t *TubeSaturator) smoothed(x float64, state *float64, weight float64) float64 {
	if t.hysteresis <= 0 {
		*state = x
		return x
	}
	out := *state + (x-*state)*(1.0-t.hysteresis*weight)
	*state = out
	return out
}

// generateHarmonics blends even (2nd/4th, warmth) and odd (3rd/5th,
// edge) harmonic series weighted by the even/odd harmonic balance.
func (t *TubeSaturator) generateHarmonics(x float64) float64 {
	x2 := x * x
	x4 := x2 * x2
	even := x + t.evenHarmonics*(0.3*x2-0.1*x4)

	x3 := x2 * x
	x5 := x3 * x2
	odd := x + t.oddHarmonics*(0.2*x3-0.05*x5)

	return even*t.evenHarmonics + odd*t.oddHarmonics
}

// tubeTransfer applies asymmetric tanh clipping: softer on the positive
// half, harder on the negative half, the lopsided curve real triodes show.
func (t *TubeSaturator) tubeTransfer(x float64) float64 {
	if x >= 0 {
		return math.Tanh(x*0.7) / 0.7
	}
	return math.Tanh(x*0.9) / 0.9
}

// ProcessBuffer runs a buffer through Process, stopping at the shorter
// of input/output.
func (t *TubeSaturator) ProcessBuffer(input, output []float64) {
	n := min(len(input), len(output))
	for i := 0; i < n; i++ {
		output[i] = t.Process(input[i])
	}
}

// onePoleCoeffs derives a first-order filter's direct-form-I
// coefficients for the given cutoff/sampleRate.
type onePoleCoeffs func(sampleRate, cutoff float64) (a0, a1, b1 float64)

// highpassCoeffs and lowpassCoeffs are cookbook first-order designs at a
// fixed Q of 0.707, sharing the same bilinear-transform shape and
// differing only in which frequencies they pass.
func highpassCoeffs(sampleRate, cutoff float64) (a0, a1, b1 float64) {
	omega := 2.0 * math.Pi * cutoff / sampleRate
	alpha := math.Sin(omega) / (2.0 * 0.707)
	cosw := math.Cos(omega)
	norm := 1.0 / (1.0 + alpha)
	return (1.0 + cosw) / 2.0 * norm, -(1.0 + cosw) / 2.0 * norm, (1.0 - alpha) * norm
}

func lowpassCoeffs(sampleRate, cutoff float64) (a0, a1, b1 float64) {
	omega := 2.0 * math.Pi * cutoff / sampleRate
	alpha := math.Sin(omega) / (2.0 * 0.707)
	cosw := math.Cos(omega)
	norm := 1.0 / (1.0 + alpha)
	return (1.0 - cosw) / 2.0 * norm, (1.0 - cosw) / 2.0 * norm, (1.0 - alpha) * norm
}

// onePole is a first-order IIR stage shared by TubeSaturator's pre
// highpass and post lowpass; only the coefficient design differs.
type onePole struct {
	a0, a1, b1 float64
	x1, y1     float64
}

func newOnePole(sampleRate, cutoff float64, design onePoleCoeffs) *onePole {
	p := &onePole{}
	p.a0, p.a1, p.b1 = design(sampleRate, cutoff)
	return p
}

func (p *onePole) Process(input float64) float64 {
	output := p.a0*input + p.a1*p.x1 - p.b1*p.y1
	p.x1 = input
	p.y1 = output
	return output
}

// SimpleLowShelf is a second-order RBJ low-shelf filter, used to add
// warmth before saturation.
type SimpleLowShelf struct {
	cutoff     float64
	gain       float64
	sampleRate float64
	a0, a1, a2 float64
	b1, b2     float64
	x1, x2     float64
	y1, y2     float64
}

// NewSimpleLowShelf creates a low shelf at unity gain.
func NewSimpleLowShelf(sampleRate, cutoff float64) *SimpleLowShelf {
	ls := &SimpleLowShelf{cutoff: cutoff, gain: 1.0, sampleRate: sampleRate}
	ls.updateCoefficients()
	return ls
}

// SetGain sets the shelf gain (linear, not dB).
func (ls *SimpleLowShelf) SetGain(gain float64) {
	ls.gain = gain
	ls.updateCoefficients()
}

func (ls *SimpleLowShelf) updateCoefficients() {
	A := math.Sqrt(ls.gain)
	omega := 2.0 * math.Pi * ls.cutoff / ls.sampleRate
	sinw, cosw := math.Sin(omega), math.Cos(omega)
	alpha := sinw / 2.0 * math.Sqrt((A+1.0/A)*(1.0/0.707-1.0)+2.0)

	norm := 1.0 / ((A + 1.0) + (A-1.0)*cosw + alpha)
	ls.a0 = A * ((A + 1.0) - (A-1.0)*cosw + alpha) * norm
	ls.a1 = 2.0 * A * ((A - 1.0) - (A+1.0)*cosw) * norm
	ls.a2 = A * ((A + 1.0) - (A-1.0)*cosw - alpha) * norm
	ls.b1 = -2.0 * ((A - 1.0) + (A+1.0)*cosw) * norm
	ls.b2 = ((A + 1.0) + (A-1.0)*cosw - alpha) * norm
}

func (ls *SimpleLowShelf) Process(input float64) float64 {
	output := ls.a0*input + ls.a1*ls.x1 + ls.a2*ls.x2 - ls.b1*ls.y1 - ls.b2*ls.y2
	ls.x2, ls.x1 = ls.x1, input
	ls.y2, ls.y1 = ls.y1, output
	return output
}
