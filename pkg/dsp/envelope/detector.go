// Package envelope provides envelope generators and detectors for audio synthesis and dynamics processing
package envelope

import (
	"math"
)

// DetectorMode defines the envelope detection mode
type DetectorMode int

const (
	// ModePeak detects the peak level
	ModePeak DetectorMode = iota
	// ModeRMS detects the RMS (Root Mean Square) level
	ModeRMS
	// ModePeakHold detects peak with hold time
	ModePeakHold
)

// DetectorType defines the envelope detector response type
type DetectorType int

const (
	// TypeLinear uses linear envelope detection
	TypeLinear DetectorType = iota
	// TypeLogarithmic uses logarithmic envelope detection (better for audio perception)
	TypeLogarithmic
	// TypeAnalog simulates analog envelope behavior
	TypeAnalog
)

// Detector implements an advanced envelope detector for dynamics processing
type Detector struct {
	sampleRate float64
	mode       DetectorMode
	detType    DetectorType

	// Time constants
	attack  float64 // Attack time in seconds
	release float64 // Release time in seconds
	hold    float64 // Hold time in seconds (for peak hold mode)

	// Coefficients (pre-calculated)
	attackCoef  float64
	releaseCoef float64

	// State
	envelope    float64
	holdCounter int

	// RMS window
	rmsWindow    []float64
	rmsIndex     int
	rmsSum       float64
	rmsWindowLen int
}

// NewDetector creates a new envelope detector
func NewDetector(sampleRate float64, mode DetectorMode) *Detector {
	d := &Detector{
		sampleRate:   sampleRate,
		mode:         mode,
		detType:      TypeLinear,
		attack:       0.001,                   // 1ms default
		release:      0.100,                   // 100ms default
		hold:         0.010,                   // 10ms default
		rmsWindowLen: int(sampleRate * 0.003), // 3ms RMS window
	}

	if mode == ModeRMS {
		d.rmsWindow = make([]float64, d.rmsWindowLen)
	}

	d.updateCoefficients()
	return d
}

// SetMode sets the detection mode
func (d *Detector) SetMode(mode DetectorMode) {
	d.mode = mode

	if mode == ModeRMS && d.rmsWindow == nil {
		d.rmsWindow = make([]float64, d.rmsWindowLen)
		d.rmsIndex = 0
		d.rmsSum = 0
	}
}

// SetType sets the detector response type
func (d *Detector) SetType(detType DetectorType) {
	d.detType = detType
	d.updateCoefficients()
}

// SetAttack sets the attack time in seconds
func (d *Detector) SetAttack(seconds float64) {
	d.attack = math.Max(0.0001, seconds)
	d.updateCoefficients()
}

// SetRelease sets the release time in seconds
func (d *Detector) SetRelease(seconds float64) {
	d.release = math.Max(0.0001, seconds)
	d.updateCoefficients()
}

// SetHold sets the hold time in seconds (for peak hold mode)
func (d *Detector) SetHold(seconds float64) {
	d.hold = math.Max(0.0, seconds)
}

// SetTimeConstants sets attack and release times together
func (d *Detector) SetTimeConstants(attack, release float64) {
	d.attack = math.Max(0.0001, attack)
	d.release = math.Max(0.0001, release)
	d.updateCoefficients()
}

// SetRMSWindow sets the RMS window length in milliseconds
func (d *Detector) SetRMSWindow(ms float64) {
	newLen := max(1, int(d.sampleRate*ms/1000.0))

	if newLen != d.rmsWindowLen {
		d.rmsWindowLen = newLen
		d.rmsWindow = make([]float64, d.rmsWindowLen)
		d.rmsIndex = 0
		d.rmsSum = 0
	}
}

// updateCoefficients recalculates the envelope coefficients. Linear and
// logarithmic share a one-pole form; logarithmic just reaches further in
// the same attack/release time, which reads as snappier to the ear.
// Analog stores the complementary coefficient exp(-1/(t*fs)) instead of
// 1-exp(...), since Detect writes that mode as level + (envelope-level)*coef.
func (d *Detector) updateCoefficients() {
	switch d.detType {
	case TypeLinear:
		d.attackCoef = 1.0 - math.Exp(-1.0/(d.attack*d.sampleRate))
		d.releaseCoef = 1.0 - math.Exp(-1.0/(d.release*d.sampleRate))

	case TypeLogarithmic:
		d.attackCoef = 1.0 - math.Exp(-2.2/(d.attack*d.sampleRate))
		d.releaseCoef = 1.0 - math.Exp(-2.2/(d.release*d.sampleRate))

	case TypeAnalog:
		d.attackCoef = math.Exp(-1.0 / (d.attack * d.sampleRate))
		d.releaseCoef = math.Exp(-1.0 / (d.release * d.sampleRate))
	}
}

// inputLevel derives the rectified input level for the current mode:
// instantaneous absolute value for peak/peak-hold, running RMS otherwise.
func (d *Detector) inputLevel(input float32) float64 {
	if d.mode == ModeRMS {
		squared := float64(input) * float64(input)

		oldValue := d.rmsWindow[d.rmsIndex]
		d.rmsWindow[d.rmsIndex] = squared
		d.rmsSum += squared - oldValue
		d.rmsIndex = (d.rmsIndex + 1) % d.rmsWindowLen

		meanSquare := d.rmsSum / float64(d.rmsWindowLen)
		return math.Sqrt(meanSquare)
	}
	return math.Abs(float64(input))
}

// holdThenRelease decrements an armed peak-hold counter instead of
// releasing; once the counter reaches zero (or outside peak-hold mode) it
// runs release. Shared by every detector type's release branch.
func (d *Detector) holdThenRelease(release func()) {
	if d.mode == ModePeakHold && d.holdCounter > 0 {
		d.holdCounter--
		return
	}
	release()
}

// Detect processes a single sample and returns the envelope value
func (d *Detector) Detect(input float32) float32 {
	level := d.inputLevel(input)
	rising := level > d.envelope

	switch d.detType {
	case TypeLinear, TypeLogarithmic:
		if rising {
			d.envelope += (level - d.envelope) * d.attackCoef
			if d.mode == ModePeak || d.mode == ModePeakHold {
				// Very fast attack times or a sharply higher input jump
				// straight to the peak rather than creeping toward it.
				if d.attackCoef > 0.5 || level > d.envelope*2.0 {
					d.envelope = level
				}
			}
			d.holdCounter = int(d.hold * d.sampleRate)
		} else {
			d.holdThenRelease(func() {
				d.envelope += (level - d.envelope) * d.releaseCoef
			})
		}

	case TypeAnalog:
		if rising {
			d.envelope = level + (d.envelope-level)*d.attackCoef
			d.holdCounter = int(d.hold * d.sampleRate)
		} else {
			d.holdThenRelease(func() {
				d.envelope = level + (d.envelope-level)*d.releaseCoef
			})
		}
	}

	return float32(d.envelope)
}

// Process processes a buffer of samples and fills output with envelope values
func (d *Detector) Process(input, output []float32) {
	for i := range input {
		output[i] = d.Detect(input[i])
	}
}

// ProcessSidechain processes input using sidechain signal for detection
func (d *Detector) ProcessSidechain(input, sidechain, output []float32) {
	for i := range input {
		output[i] = d.Detect(sidechain[i])
	}
}

// GetEnvelope returns the current envelope value
func (d *Detector) GetEnvelope() float32 {
	return float32(d.envelope)
}

// GetEnvelopeDB returns the current envelope value in decibels
func (d *Detector) GetEnvelopeDB() float32 {
	if d.envelope <= 0 {
		return -96.0 // Minimum dB
	}
	return float32(20.0 * math.Log10(d.envelope))
}

// Reset resets the detector state
func (d *Detector) Reset() {
	d.envelope = 0
	d.holdCounter = 0
	if d.rmsWindow != nil {
		for i := range d.rmsWindow {
			d.rmsWindow[i] = 0
		}
		d.rmsSum = 0
		d.rmsIndex = 0
	}
}
