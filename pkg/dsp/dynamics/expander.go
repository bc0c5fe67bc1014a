package dynamics

import (
	"math"

	"github.com/fernwave/tideline/pkg/dsp/envelope"
)

// Expander implements a downward expander for reducing low-level signals
type Expander struct {
	sampleRate float64

	threshold float64 // Threshold in dB
	ratio     float64 // Expansion ratio (e.g., 2.0 for 2:1)
	attack    float64 // Attack time in seconds
	release   float64 // Release time in seconds
	knee      float64 // Knee width in dB
	range_    float64 // Maximum expansion range in dB

	detector *envelope.Detector

	currentGain  float64
	attackCoeff  float64
	releaseCoeff float64

	gainReduction float64 // Current gain reduction in dB (negative for expansion)
}

// NewExpander creates a new downward expander
func NewExpander(sampleRate float64) *Expander {
	e := &Expander{
		sampleRate:  sampleRate,
		threshold:   -40.0,
		ratio:       2.0,
		attack:      0.001,
		release:     0.100,
		knee:        2.0,
		range_:      -40.0,
		currentGain: 1.0,
		detector:    envelope.NewDetector(sampleRate, envelope.ModePeak),
	}

	e.detector.SetType(envelope.TypeLogarithmic)
	e.updateTimeConstants()

	return e
}

// SetThreshold sets the expansion threshold in dB
func (e *Expander) SetThreshold(dB float64) { e.threshold = dB }

// SetRatio sets the expansion ratio (1.0 = no expansion)
func (e *Expander) SetRatio(ratio float64) { e.ratio = math.Max(1.0, ratio) }

// SetAttack sets the attack time in seconds
func (e *Expander) SetAttack(seconds float64) {
	e.attack = math.Max(0.0, seconds)
	e.updateTimeConstants()
}

// SetRelease sets the release time in seconds
func (e *Expander) SetRelease(seconds float64) {
	e.release = math.Max(0.0, seconds)
	e.updateTimeConstants()
}

// SetKnee sets the knee width in dB
func (e *Expander) SetKnee(dB float64) { e.knee = math.Max(0.0, dB) }

// SetRange sets the maximum expansion range in dB
func (e *Expander) SetRange(dB float64) { e.range_ = math.Min(0.0, dB) }

// GetGainReduction returns the current gain reduction in dB
func (e *Expander) GetGainReduction() float64 { return e.gainReduction }

// updateTimeConstants updates the attack and release coefficients
func (e *Expander) updateTimeConstants() {
	e.detector.SetAttack(e.attack)
	e.detector.SetRelease(e.release)

	e.attackCoeff = 0.0
	if e.attack > 0 {
		e.attackCoeff = math.Exp(-1.0 / (e.attack * e.sampleRate))
	}

	e.releaseCoeff = 0.0
	if e.release > 0 {
		e.releaseCoeff = math.Exp(-1.0 / (e.release * e.sampleRate))
	}
}

// computeGain calculates the gain reduction in dB for a given input level
// in dB: unity above the knee, a quadratic ramp through it, and the full
// ratio-driven reduction (clamped to range_) below.
func (e *Expander) computeGain(inputDB float64) float64 {
	if inputDB > e.threshold+e.knee/2 {
		return 0.0
	}

	if inputDB < e.threshold-e.knee/2 {
		gain := (inputDB - e.threshold) * (e.ratio - 1.0)
		return math.Max(e.range_, gain)
	}

	if e.knee > 0 {
		kneePos := ((e.threshold + e.knee/2) - inputDB) / e.knee
		fullGain := (inputDB - e.threshold) * (e.ratio - 1.0)
		return kneePos * kneePos * fullGain
	}

	return 0.0
}

// smoothedGain converts level to a target linear gain via computeGain,
// slews currentGain toward it (attack when decreasing, release when
// increasing), updates gainReduction for metering, and returns the
// resulting linear gain.
func (e *Expander) smoothedGain(level float32) float32 {
	inputDB := float64(-96.0)
	if level > 0 {
		inputDB = 20.0 * math.Log10(float64(level))
	}

	targetGain := math.Pow(10.0, e.computeGain(inputDB)/20.0)

	coeff := e.releaseCoeff
	if e.currentGain > targetGain {
		coeff = e.attackCoeff
	}
	if coeff == 0 {
		e.currentGain = targetGain
	} else {
		e.currentGain = targetGain + (e.currentGain-targetGain)*coeff
	}

	if e.currentGain < 1.0 {
		e.gainReduction = 20.0 * math.Log10(e.currentGain)
	} else {
		e.gainReduction = 0.0
	}

	return float32(e.currentGain)
}

// Process processes a single sample
func (e *Expander) Process(input float32) float32 {
	envelope := e.detector.Detect(input)
	return input * e.smoothedGain(envelope)
}

// ProcessBuffer processes a buffer of samples
func (e *Expander) ProcessBuffer(input, output []float32) {
	for i := range input {
		output[i] = e.Process(input[i])
	}
}

// ProcessStereo processes stereo buffers with linked expansion, using the
// louder channel to drive the shared gain.
func (e *Expander) ProcessStereo(inputL, inputR, outputL, outputR []float32) {
	for i := range inputL {
		maxInput := float32(math.Max(math.Abs(float64(inputL[i])), math.Abs(float64(inputR[i]))))
		envelope := e.detector.Detect(maxInput)
		gain := e.smoothedGain(envelope)
		outputL[i] = inputL[i] * gain
		outputR[i] = inputR[i] * gain
	}
}

// Reset resets the expander state
func (e *Expander) Reset() {
	e.detector.Reset()
	e.currentGain = 1.0
	e.gainReduction = 0.0
}
