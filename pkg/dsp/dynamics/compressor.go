// Package dynamics provides dynamics processing effects like compressors, limiters, and gates
package dynamics

import (
	"math"

	"github.com/fernwave/tideline/pkg/dsp/envelope"
)

// KneeType defines the compressor knee characteristic
type KneeType int

const (
	// KneeHard provides hard knee compression
	KneeHard KneeType = iota
	// KneeSoft provides soft knee compression
	KneeSoft
)

// Compressor implements a feed-forward compressor with flexible controls
type Compressor struct {
	sampleRate float64

	threshold  float64  // Threshold in dB
	ratio      float64  // Compression ratio (e.g., 4.0 for 4:1)
	attack     float64  // Attack time in seconds
	release    float64  // Release time in seconds
	kneeWidth  float64  // Knee width in dB (0 for hard knee)
	makeupGain float64  // Makeup gain in dB
	kneeType   KneeType // Knee type
	lookahead  float64  // Lookahead time in seconds

	detector *envelope.Detector

	delayBuffer  []float32
	delayIndex   int
	delaySamples int

	lastGainReduction float64 // For metering
}

// NewCompressor creates a new compressor
func NewCompressor(sampleRate float64) *Compressor {
	c := &Compressor{
		sampleRate: sampleRate,
		threshold:  -20.0,
		ratio:      4.0,
		attack:     0.005,
		release:    0.050,
		kneeWidth:  2.0,
		kneeType:   KneeSoft,
		detector:   envelope.NewDetector(sampleRate, envelope.ModePeak),
	}

	c.detector.SetType(envelope.TypeLogarithmic) // More musical response
	c.detector.SetTimeConstants(c.attack, c.release)

	return c
}

// SetThreshold sets the compression threshold in dB
func (c *Compressor) SetThreshold(dB float64) { c.threshold = dB }

// SetRatio sets the compression ratio (1.0 = no compression, inf = limiting)
func (c *Compressor) SetRatio(ratio float64) { c.ratio = math.Max(1.0, ratio) }

// SetAttack sets the attack time in seconds
func (c *Compressor) SetAttack(seconds float64) {
	c.attack = math.Max(0.0001, seconds)
	c.detector.SetAttack(c.attack)
}

// SetRelease sets the release time in seconds
func (c *Compressor) SetRelease(seconds float64) {
	c.release = math.Max(0.001, seconds)
	c.detector.SetRelease(c.release)
}

// SetKnee sets the knee type and width
func (c *Compressor) SetKnee(kneeType KneeType, widthDB float64) {
	c.kneeType = kneeType
	c.kneeWidth = math.Max(0.0, widthDB)
}

// SetMakeupGain sets the makeup gain in dB
func (c *Compressor) SetMakeupGain(dB float64) { c.makeupGain = dB }

// SetLookahead sets the lookahead time in seconds (0 to disable, max 10ms)
func (c *Compressor) SetLookahead(seconds float64) {
	c.lookahead = math.Max(0.0, math.Min(0.010, seconds))
	newDelaySamples := int(c.lookahead * c.sampleRate)

	if newDelaySamples != c.delaySamples {
		c.delaySamples = newDelaySamples
		if c.delaySamples > 0 {
			c.delayBuffer = make([]float32, c.delaySamples)
			c.delayIndex = 0
		} else {
			c.delayBuffer = nil
		}
	}
}

// GetGainReduction returns the current gain reduction in dB (for metering)
func (c *Compressor) GetGainReduction() float64 { return c.lastGainReduction }

// computeGain calculates the gain reduction in dB for a given input level
// in dB: flat below the knee, a quadratic ramp through it, and the full
// ratio-driven reduction above.
func (c *Compressor) computeGain(inputDB float64) float64 {
	if inputDB < c.threshold-c.kneeWidth/2 {
		return 0.0
	}

	if inputDB > c.threshold+c.kneeWidth/2 {
		return (inputDB - c.threshold) * (1.0 - 1.0/c.ratio)
	}

	if c.kneeType == KneeSoft && c.kneeWidth > 0 {
		kneePos := (inputDB - (c.threshold - c.kneeWidth/2)) / c.kneeWidth
		compressionRatio := 1.0 - 1.0/c.ratio
		overshoot := inputDB - c.threshold
		return kneePos * kneePos * overshoot * compressionRatio
	}

	return 0.0
}

// gainFor runs level through the detector's current envelope, computes
// gain reduction plus makeup gain, records it for metering, and returns
// the resulting linear gain.
func (c *Compressor) gainFor(level float32) float32 {
	inputDB := float64(-96.0)
	if level > 0 {
		inputDB = 20.0 * math.Log10(float64(level))
	}

	gainReductionDB := c.computeGain(inputDB)
	c.lastGainReduction = gainReductionDB

	totalGainDB := -gainReductionDB + c.makeupGain
	return float32(math.Pow(10.0, totalGainDB/20.0))
}

// Process processes a single sample
func (c *Compressor) Process(input float32) float32 {
	processSignal := input

	if c.delaySamples > 0 && c.delayBuffer != nil {
		processSignal = c.delayBuffer[c.delayIndex]
		c.delayBuffer[c.delayIndex] = input
		c.delayIndex = (c.delayIndex + 1) % c.delaySamples
	}

	envelope := c.detector.Detect(input)
	return processSignal * c.gainFor(envelope)
}

// ProcessBuffer processes a buffer of samples
func (c *Compressor) ProcessBuffer(input, output []float32) {
	for i := range input {
		output[i] = c.Process(input[i])
	}
}

// ProcessStereo processes stereo buffers with linked compression, using
// the louder channel to drive the shared gain.
func (c *Compressor) ProcessStereo(inputL, inputR, outputL, outputR []float32) {
	for i := range inputL {
		maxInput := float32(math.Max(math.Abs(float64(inputL[i])), math.Abs(float64(inputR[i]))))
		envelope := c.detector.Detect(maxInput)
		gain := c.gainFor(envelope)
		outputL[i] = inputL[i] * gain
		outputR[i] = inputR[i] * gain
	}
}

// ProcessSidechain processes input using a sidechain signal for detection
func (c *Compressor) ProcessSidechain(input, sidechain, output []float32) {
	for i := range input {
		envelope := c.detector.Detect(sidechain[i])
		output[i] = input[i] * c.gainFor(envelope)
	}
}

// Reset resets the compressor state
func (c *Compressor) Reset() {
	c.detector.Reset()
	c.lastGainReduction = 0.0
	c.delayIndex = 0

	if c.delayBuffer != nil {
		for i := range c.delayBuffer {
			c.delayBuffer[i] = 0
		}
	}
}
