package distortion

import "math"

// BitCrusher reduces bit depth and effective sample rate for lo-fi
// digital distortion, with optional anti-aliasing filters and
// triangular dither around the quantization step.
type BitCrusher struct {
	sampleRate      float64
	bitDepth        int
	sampleRateRatio float64
	mix             float64

	antiAlias  bool
	preFilter  *onePole
	postFilter *onePole

	holdCounter float64
	heldSample  float64

	ditherAmount float64
	noiseState   uint32

	dcBlocker *DCBlocker
}

// NewBitCrusher creates a bit crusher at 16 bits and the full sample rate,
// with anti-aliasing on. The output still passes through the 16-bit
// quantizer and the DC blocker, so it is not bit-transparent.
func NewBitCrusher(sampleRate float64) *BitCrusher {
	return &BitCrusher{
		sampleRate:      sampleRate,
		bitDepth:        16,
		sampleRateRatio: 1.0,
		mix:             1.0,
		antiAlias:       true,
		noiseState:      12345,
		preFilter:       newOnePole(sampleRate, sampleRate/2, lowpassCoeffs),
		postFilter:      newOnePole(sampleRate, sampleRate/2, lowpassCoeffs),
		dcBlocker:       NewDCBlocker(),
	}
}

// SetBitDepth sets the target bit depth (1-24 bits).
func (b *BitCrusher) SetBitDepth(bits int) {
	b.bitDepth = min(24, max(1, bits))
}

// SetSampleRateRatio sets the sample rate reduction ratio: 1.0 is no
// reduction, 0.5 halves the effective sample rate, etc. Re-tunes the
// anti-aliasing filters to just below the new Nyquist.
func (b *BitCrusher) SetSampleRateRatio(ratio float64) {
	b.sampleRateRatio = clamp(ratio, 0.01, 1.0)
	if b.antiAlias {
		cutoff := b.sampleRate * b.sampleRateRatio * 0.45
		b.preFilter = newOnePole(b.sampleRate, cutoff, lowpassCoeffs)
		b.postFilter = newOnePole(b.sampleRate, cutoff, lowpassCoeffs)
	}
}

func (b *BitCrusher) SetMix(mix float64)        { b.mix = clamp(mix, 0.0, 1.0) }
func (b *BitCrusher) SetAntiAlias(enable bool)  { b.antiAlias = enable }
func (b *BitCrusher) SetDither(amount float64)  { b.ditherAmount = clamp(amount, 0.0, 1.0) }

// Process crushes one sample: optional pre-filter, sample-and-hold rate
// reduction, bit-depth quantization, optional post-filter, then a DC
// blocker to remove any offset the quantization introduced.
func (b *BitCrusher) Process(input float64) float64 {
	filtered := input
	if b.antiAlias && b.sampleRateRatio < 1.0 {
		filtered = b.preFilter.Process(input)
	}

	decimated := b.decimate(filtered)
	crushed := b.quantize(decimated)

	if b.antiAlias && b.sampleRateRatio < 1.0 {
		crushed = b.postFilter.Process(crushed)
	}
	crushed = b.dcBlocker.Process(crushed)

	return input*(1.0-b.mix) + crushed*b.mix
}

// decimate implements sample-and-hold rate reduction.
func (b *BitCrusher) decimate(input float64) float64 {
	b.holdCounter += b.sampleRateRatio
	if b.holdCounter >= 1.0 {
		b.holdCounter -= 1.0
		b.heldSample = input
	}
	return b.heldSample
}

// quantize reduces bit depth, optionally adding triangular dither before
// rounding to the quantization step.
func (b *BitCrusher) quantize(input float64) float64 {
	halfLevels := math.Pow(2, float64(b.bitDepth)) / 2.0

	dithered := input
	if b.ditherAmount > 0 {
		dithered = input + b.generateDither()*b.ditherAmount/halfLevels
	}

	quantized := math.Round(dithered * halfLevels)
	quantized = math.Max(-halfLevels, math.Min(halfLevels-1, quantized))
	return quantized / halfLevels
}

// generateDither produces triangular probability distribution dither: the
// sum of two independent uniform values from a small LCG.
func (b *BitCrusher) generateDither() float64 {
	b.noiseState = b.noiseState*1664525 + 1013904223
	noise1 := float64(b.noiseState) / float64(0xffffffff)

	b.noiseState = b.noiseState*1664525 + 1013904223
	noise2 := float64(b.noiseState) / float64(0xffffffff)

	return noise1 + noise2 - 1.0
}

// ProcessBuffer crushes a buffer of samples, stopping at the shorter of
// input/output.
func (b *BitCrusher) ProcessBuffer(input, output []float64) {
	n := min(len(input), len(output))
	for i := 0; i < n; i++ {
		output[i] = b.Process(input[i])
	}
}

// DCBlocker is a one-pole highpass that removes DC offset introduced
// downstream by quantization or saturation.
type DCBlocker struct {
	x1, y1 float64
	r      float64
}

// NewDCBlocker creates a DC blocker with the standard 0.995 pole.
func NewDCBlocker() *DCBlocker {
	return &DCBlocker{r: 0.995}
}

func (dc *DCBlocker) Process(input float64) float64 {
	output := input - dc.x1 + dc.r*dc.y1
	dc.x1 = input
	dc.y1 = output
	return output
}

// BitCrusherWithModulation layers bit-depth and sample-rate modulation
// (e.g. from an envelope or LFO) over a BitCrusher's base settings.
type BitCrusherWithModulation struct {
	*BitCrusher

	bitDepthMod   float64
	sampleRateMod float64

	baseBitDepth   float64
	baseSampleRate float64
}

// NewBitCrusherWithModulation creates a modulatable bit crusher tuned for
// sampleRate at 16 bits / full rate.
func NewBitCrusherWithModulation(sampleRate float64) *BitCrusherWithModulation {
	return &BitCrusherWithModulation{
		BitCrusher:     NewBitCrusher(sampleRate),
		baseBitDepth:   16.0,
		baseSampleRate: 1.0,
	}
}

func (bcm *BitCrusherWithModulation) SetBaseBitDepth(bits float64) {
	bcm.baseBitDepth = clamp(bits, 1.0, 24.0)
}

func (bcm *BitCrusherWithModulation) SetBaseSampleRateRatio(ratio float64) {
	bcm.baseSampleRate = clamp(ratio, 0.01, 1.0)
}

// ModulateBitDepth applies modulation (-1 to 1) across a +/-12 bit range
// around the base bit depth.
func (bcm *BitCrusherWithModulation) ModulateBitDepth(modulation float64) {
	bcm.bitDepthMod = clamp(modulation, -1.0, 1.0)
	bcm.SetBitDepth(int(bcm.baseBitDepth + bcm.bitDepthMod*12.0))
}

// ModulateSampleRate applies modulation (-1 to 1) exponentially across a
// 0.25x-4x range around the base sample rate ratio, for a musical sweep.
func (bcm *BitCrusherWithModulation) ModulateSampleRate(modulation float64) {
	bcm.sampleRateMod = clamp(modulation, -1.0, 1.0)
	bcm.SetSampleRateRatio(bcm.baseSampleRate * math.Pow(2.0, bcm.sampleRateMod*2.0))
}
