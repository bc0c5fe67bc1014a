// Package filter holds the engine's per-sample IIR filters: a biquad
// (RBJ cookbook coefficients) and a trapezoidal state-variable filter.
package filter

import "math"

// Biquad is a second-order IIR filter, Direct Form I, with coefficients
// set by one of the cookbook Set* methods below. State is kept per
// channel so a single instance can serve a multi-channel buffer.
type Biquad struct {
	b0, b1, b2 float32 // numerator
	a1, a2     float32 // denominator, normalized so a0 == 1

	x1, x2 []float32 // input history, one slot per channel
	y1, y2 []float32 // output history, one slot per channel
}

// NewBiquad allocates a Biquad with per-channel state for the given
// channel count.
func NewBiquad(channels int) *Biquad {
	return &Biquad{
		x1: make([]float32, channels),
		x2: make([]float32, channels),
		y1: make([]float32, channels),
		y2: make([]float32, channels),
	}
}

// Reset zeroes the history on every channel.
func (b *Biquad) Reset() {
	for i := range b.x1 {
		b.x1[i], b.x2[i] = 0, 0
		b.y1[i], b.y2[i] = 0, 0
	}
}

// SetCoefficients installs raw transfer-function coefficients, normalizing
// by a0 so Process never has to divide.
func (b *Biquad) SetCoefficients(b0, b1, b2, a0, a1, a2 float32) {
	inv := 1.0 / a0
	b.b0, b.b1, b.b2 = b0*inv, b1*inv, b2*inv
	b.a1, b.a2 = a1*inv, a2*inv
}

// Process filters buffer in place using the state held for channel.
func (b *Biquad) Process(buffer []float32, channel int) {
	x1, x2 := b.x1[channel], b.x2[channel]
	y1, y2 := b.y1[channel], b.y2[channel]

	for i, x0 := range buffer {
		y0 := b.b0*x0 + b.b1*x1 + b.b2*x2 - b.a1*y1 - b.a2*y2
		x2, x1 = x1, x0
		y2, y1 = y1, y0
		buffer[i] = y0
	}

	b.x1[channel], b.x2[channel] = x1, x2
	b.y1[channel], b.y2[channel] = y1, y2
}

// ProcessMulti filters each slice in buffers against its matching channel
// state, skipping any channel index beyond what NewBiquad allocated.
func (b *Biquad) ProcessMulti(buffers [][]float32) {
	for ch, buf := range buffers {
		if ch < len(b.x1) {
			b.Process(buf, ch)
		}
	}
}

// cookbookAlpha returns the RBJ audio-EQ-cookbook angular frequency and
// bandwidth term shared by every Set* design below.
func cookbookAlpha(sampleRate, frequency, q float64) (sinOmega, cosOmega, alpha float64) {
	omega := 2.0 * math.Pi * frequency / sampleRate
	sinOmega, cosOmega = math.Sin(omega), math.Cos(omega)
	alpha = sinOmega / (2.0 * q)
	return
}

func (b *Biquad) setCookbook(b0, b1, b2, a0, a1, a2 float64) {
	b.SetCoefficients(float32(b0), float32(b1), float32(b2), float32(a0), float32(a1), float32(a2))
}

// SetLowpass configures a 2nd-order Butterworth-Q lowpass.
func (b *Biquad) SetLowpass(sampleRate, frequency, q float64) {
	_, cosOmega, alpha := cookbookAlpha(sampleRate, frequency, q)
	b.setCookbook(
		(1.0-cosOmega)/2.0, 1.0-cosOmega, (1.0-cosOmega)/2.0,
		1.0+alpha, -2.0*cosOmega, 1.0-alpha,
	)
}

// SetHighpass configures a 2nd-order Butterworth-Q highpass.
func (b *Biquad) SetHighpass(sampleRate, frequency, q float64) {
	_, cosOmega, alpha := cookbookAlpha(sampleRate, frequency, q)
	b.setCookbook(
		(1.0+cosOmega)/2.0, -(1.0 + cosOmega), (1.0+cosOmega)/2.0,
		1.0+alpha, -2.0*cosOmega, 1.0-alpha,
	)
}

// SetBandpass configures the constant-0dB-peak-gain bandpass (0 dB at
// frequency, skirts falling at 6dB/oct each side).
func (b *Biquad) SetBandpass(sampleRate, frequency, q float64) {
	_, cosOmega, alpha := cookbookAlpha(sampleRate, frequency, q)
	b.setCookbook(
		alpha, 0, -alpha,
		1.0+alpha, -2.0*cosOmega, 1.0-alpha,
	)
}

// SetNotch configures a band-reject filter.
func (b *Biquad) SetNotch(sampleRate, frequency, q float64) {
	_, cosOmega, alpha := cookbookAlpha(sampleRate, frequency, q)
	b.setCookbook(
		1.0, -2.0*cosOmega, 1.0,
		1.0+alpha, -2.0*cosOmega, 1.0-alpha,
	)
}

// SetAllpass configures a filter with unity magnitude response and a
// frequency-dependent phase shift, useful for phaser/chorus stages.
func (b *Biquad) SetAllpass(sampleRate, frequency, q float64) {
	_, cosOmega, alpha := cookbookAlpha(sampleRate, frequency, q)
	b.setCookbook(
		1.0-alpha, -2.0*cosOmega, 1.0+alpha,
		1.0+alpha, -2.0*cosOmega, 1.0-alpha,
	)
}

// SetPeakingEQ configures a parametric bell boost/cut of gainDB centered
// on frequency with bandwidth set by q.
func (b *Biquad) SetPeakingEQ(sampleRate, frequency, q, gainDB float64) {
	_, cosOmega, alpha := cookbookAlpha(sampleRate, frequency, q)
	a := math.Pow(10.0, gainDB/40.0)
	b.setCookbook(
		1.0+alpha*a, -2.0*cosOmega, 1.0-alpha*a,
		1.0+alpha/a, -2.0*cosOmega, 1.0-alpha/a,
	)
}

// shelfTerms computes the A/sqrt(A)*alpha terms the two shelf designs
// share; gainDB is the shelf's boost/cut in the pass band.
func shelfTerms(sampleRate, frequency, q, gainDB float64) (cosOmega, a, sqrtAAlpha float64) {
	_, cosOmega, alpha := cookbookAlpha(sampleRate, frequency, q)
	a = math.Pow(10.0, gainDB/40.0)
	sqrtAAlpha = 2.0 * math.Sqrt(a) * alpha
	return
}

// SetLowShelf configures a shelf that boosts/cuts gainDB below frequency
// and leaves content above it untouched.
func (b *Biquad) SetLowShelf(sampleRate, frequency, q, gainDB float64) {
	cosOmega, a, sqrtAAlpha := shelfTerms(sampleRate, frequency, q, gainDB)
	b.setCookbook(
		a*((a+1)-(a-1)*cosOmega+sqrtAAlpha),
		2.0*a*((a-1)-(a+1)*cosOmega),
		a*((a+1)-(a-1)*cosOmega-sqrtAAlpha),
		(a+1)+(a-1)*cosOmega+sqrtAAlpha,
		-2.0*((a-1)+(a+1)*cosOmega),
		(a+1)+(a-1)*cosOmega-sqrtAAlpha,
	)
}

// SetHighShelf configures a shelf that boosts/cuts gainDB above frequency
// and leaves content below it untouched.
func (b *Biquad) SetHighShelf(sampleRate, frequency, q, gainDB float64) {
	cosOmega, a, sqrtAAlpha := shelfTerms(sampleRate, frequency, q, gainDB)
	b.setCookbook(
		a*((a+1)+(a-1)*cosOmega+sqrtAAlpha),
		-2.0*a*((a-1)+(a+1)*cosOmega),
		a*((a+1)+(a-1)*cosOmega-sqrtAAlpha),
		(a+1)-(a-1)*cosOmega+sqrtAAlpha,
		2.0*((a-1)-(a+1)*cosOmega),
		(a+1)-(a-1)*cosOmega-sqrtAAlpha,
	)
}
