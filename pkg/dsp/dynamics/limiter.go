package dynamics

import (
	"math"

	"github.com/fernwave/tideline/pkg/dsp/envelope"
)

// Limiter implements a brick-wall limiter with optional true peak detection
type Limiter struct {
	sampleRate float64

	threshold float64 // Ceiling threshold in dB
	release   float64 // Release time in seconds
	lookahead float64 // Lookahead time in seconds
	truePeak  bool    // Enable true peak detection

	detector     *envelope.Detector
	peakDetector *envelope.Detector // For true peak detection

	delayBuffer  []float32
	delayIndex   int
	delaySamples int

	lastSample float32 // for 2x-oversample true-peak estimation

	gainReduction float64 // Current gain reduction in dB
}

// NewLimiter creates a new brick-wall limiter
func NewLimiter(sampleRate float64) *Limiter {
	l := &Limiter{
		sampleRate:   sampleRate,
		threshold:    -0.3,
		release:      0.050,
		lookahead:    0.005,
		truePeak:     true,
		detector:     envelope.NewDetector(sampleRate, envelope.ModePeak),
		peakDetector: envelope.NewDetector(sampleRate, envelope.ModePeak),
	}

	l.detector.SetType(envelope.TypeLinear)
	l.detector.SetAttack(0.0001)
	l.detector.SetRelease(l.release)

	l.peakDetector.SetType(envelope.TypeLinear)
	l.peakDetector.SetAttack(0.0)
	l.peakDetector.SetRelease(0.001)

	l.updateLookahead()

	return l
}

// SetThreshold sets the limiter ceiling in dB
func (l *Limiter) SetThreshold(dB float64) { l.threshold = math.Min(0.0, dB) }

// SetRelease sets the release time in seconds
func (l *Limiter) SetRelease(seconds float64) {
	l.release = math.Max(0.001, seconds)
	l.detector.SetRelease(l.release)
}

// SetLookahead sets the lookahead time in seconds (max 10ms)
func (l *Limiter) SetLookahead(seconds float64) {
	l.lookahead = math.Max(0.0, math.Min(0.010, seconds))
	l.updateLookahead()
}

// SetTruePeak enables or disables true peak detection
func (l *Limiter) SetTruePeak(enabled bool) { l.truePeak = enabled }

// updateLookahead resizes the lookahead delay buffer to match lookahead
func (l *Limiter) updateLookahead() {
	newDelaySamples := int(l.lookahead * l.sampleRate)

	if newDelaySamples != l.delaySamples {
		l.delaySamples = newDelaySamples
		if l.delaySamples > 0 {
			l.delayBuffer = make([]float32, l.delaySamples)
			l.delayIndex = 0
		} else {
			l.delayBuffer = nil
		}
	}
}

// GetGainReduction returns the current gain reduction in dB
func (l *Limiter) GetGainReduction() float64 { return l.gainReduction }

// estimateTruePeak estimates the true peak via 2x-oversample linear
// interpolation: the peak among the last sample, current sample, and
// their midpoint.
func (l *Limiter) estimateTruePeak(current float32) float32 {
	midSample := (l.lastSample + current) * 0.5

	peak := float32(math.Max(math.Abs(float64(l.lastSample)), math.Abs(float64(current))))
	peak = float32(math.Max(float64(peak), math.Abs(float64(midSample))))

	l.lastSample = current
	return peak
}

// limitGain runs level through the detector, computes the (infinite
// ratio) gain reduction above threshold, records it for metering, and
// returns the resulting linear gain.
func (l *Limiter) limitGain(level float32) float32 {
	envelope := l.detector.Detect(level)

	inputDB := float64(-96.0)
	if envelope > 0 {
		inputDB = 20.0 * math.Log10(float64(envelope))
	}

	gainReductionDB := 0.0
	if inputDB > l.threshold {
		gainReductionDB = inputDB - l.threshold
	}
	l.gainReduction = gainReductionDB

	return float32(math.Pow(10.0, -gainReductionDB/20.0))
}

// Process processes a single sample
func (l *Limiter) Process(input float32) float32 {
	detectionSignal := input
	if l.truePeak {
		detectionSignal = l.estimateTruePeak(input)
	}

	processSignal := input
	if l.delaySamples > 0 && l.delayBuffer != nil {
		processSignal = l.delayBuffer[l.delayIndex]
		l.delayBuffer[l.delayIndex] = input
		l.delayIndex = (l.delayIndex + 1) % l.delaySamples

		if l.truePeak {
			detectionSignal = float32(math.Max(float64(detectionSignal),
				math.Abs(float64(l.peakDetector.Detect(processSignal)))))
		}
	}

	return processSignal * l.limitGain(detectionSignal)
}

// ProcessBuffer processes a buffer of samples
func (l *Limiter) ProcessBuffer(input, output []float32) {
	for i := range input {
		output[i] = l.Process(input[i])
	}
}

// ProcessStereo processes stereo buffers with linked limiting, using the
// louder channel's peak to drive the shared gain. With true peak enabled,
// only the left channel gets the inter-sample estimate; the right channel
// uses its sample peak.
func (l *Limiter) ProcessStereo(inputL, inputR, outputL, outputR []float32) {
	for i := range inputL {
		peakL := inputL[i]
		peakR := inputR[i]

		if l.truePeak {
			peakL = l.estimateTruePeak(inputL[i])
			peakR = float32(math.Max(math.Abs(float64(inputR[i])), float64(peakR)))
		}

		maxPeak := float32(math.Max(math.Abs(float64(peakL)), math.Abs(float64(peakR))))
		gain := l.limitGain(maxPeak)

		outputL[i] = inputL[i] * gain
		outputR[i] = inputR[i] * gain
	}
}

// Reset resets the limiter state
func (l *Limiter) Reset() {
	l.detector.Reset()
	l.peakDetector.Reset()
	l.gainReduction = 0.0
	l.lastSample = 0.0
	l.delayIndex = 0

	if l.delayBuffer != nil {
		for i := range l.delayBuffer {
			l.delayBuffer[i] = 0
		}
	}
}
