package distortion

import (
	"math"
	"math/rand"
)

// TapeSaturation emulates analog tape: pre/de-emphasis shelving around a
// tanh-based saturation stage, a program-dependent compressor, pitch
// flutter from a modulated short delay, and a trace of hiss.
type TapeSaturation struct {
	saturation  float64
	compression float64
	flutter     float64
	warmth      float64
	mix         float64
	output      float64

	sampleRate float64

	preEmphasisState [2]float64 // per-channel state
	deEmphasisState  [2]float64

	flutterPhase float64
	flutterRate  float64

	delayBuffer     []float64
	delayBufferSize int
	delayWritePos   int

	envelope float64

	noiseLevel float64
}

// NewTapeSaturation creates a tape saturation stage tuned for sampleRate,
// with a 10ms flutter delay buffer and a randomized flutter rate around
// 0.3-0.5Hz (so multiple instances don't flutter in lockstep).
func NewTapeSaturation(sampleRate float64) *TapeSaturation {
	bufferSize := int(sampleRate * 0.01)
	return &TapeSaturation{
		saturation:      0.5,
		compression:     0.5,
		warmth:          0.5,
		mix:             1.0,
		output:          1.0,
		sampleRate:      sampleRate,
		delayBuffer:     make([]float64, bufferSize),
		delayBufferSize: bufferSize,
		flutterRate:     0.3 + rand.Float64()*0.2,
		noiseLevel:      0.0001,
	}
}

func (t *TapeSaturation) SetSaturation(saturation float64)   { t.saturation = clamp(saturation, 0.0, 1.0) }
func (t *TapeSaturation) SetCompression(compression float64) { t.compression = clamp(compression, 0.0, 1.0) }
func (t *TapeSaturation) SetFlutter(flutter float64)         { t.flutter = clamp(flutter, 0.0, 1.0) }
func (t *TapeSaturation) SetWarmth(warmth float64)           { t.warmth = clamp(warmth, 0.0, 1.0) }
func (t *TapeSaturation) SetMix(mix float64)                 { t.mix = clamp(mix, 0.0, 1.0) }
func (t *TapeSaturation) SetOutput(output float64)           { t.output = clamp(output, 0.0, 2.0) }

// Process runs one mono sample through the full chain on channel 0.
func (t *TapeSaturation) Process(input float64) float64 {
	return t.processChannel(input, 0)
}

// processChannel runs pre-emphasis, compression, saturation, flutter,
// noise, and de-emphasis in sequence, each channel keeping independent
// filter state.
func (t *TapeSaturation) processChannel(input float64, channel int) float64 {
	emphasized := t.preEmphasis(input, channel)
	compressed := t.tapeCompress(emphasized)
	saturated := t.tapeSaturate(compressed)
	fluttered := t.applyFlutter(saturated)
	withNoise := fluttered + (rand.Float64()*2.0-1.0)*t.noiseLevel*t.saturation
	deEmphasized := t.deEmphasis(withNoise, channel)

	mixed := deEmphasized*t.mix + input*(1.0-t.mix)
	return mixed * t.output
}

func (t *TapeSaturation) ProcessBlock(input, output []float64) {
	for i := range input {
		output[i] = t.Process(input[i])
	}
}

func (t *TapeSaturation) ProcessStereo(inputL, inputR, outputL, outputR []float64) {
	for i := range inputL {
		outputL[i] = t.processChannel(inputL[i], 0)
		outputR[i] = t.processChannel(inputR[i], 1)
	}
}

// tapeSaturate applies tanh soft clipping plus a touch of 3rd-harmonic
// emphasis, the character of tape's soft saturation curve.
func (t *TapeSaturation) tapeSaturate(x float64) float64 {
	driven := x * (1.0 + t.saturation*4.0)
	saturated := math.Tanh(driven * 0.7)
	third := driven - 0.1*driven*driven*driven
	return saturated*0.8 + third*0.2*t.saturation
}

// tapeCompress is a program-dependent compressor: an asymmetric envelope
// follower feeds a 2:1-5:1 ratio gain reduction above a fixed threshold.
func (t *TapeSaturation) tapeCompress(x float64) float64 {
	const attack, release, threshold = 0.01, 0.1, 0.5

	absX := math.Abs(x)
	if absX > t.envelope {
		t.envelope += (absX - t.envelope) * attack
	} else {
		t.envelope += (absX - t.envelope) * release
	}

	if t.envelope <= threshold {
		return x
	}

	ratio := 2.0 + t.compression*3.0
	excess := t.envelope - threshold
	gainReduction := (threshold + excess/ratio) / t.envelope
	return x * gainReduction
}

// applyFlutter reads back a short delay line at a sinusoidally (plus
// light randomness) modulated offset, simulating tape transport wow and
// flutter.
func (t *TapeSaturation) applyFlutter(x float64) float64 {
	if t.flutter < 0.01 {
		return x
	}

	t.delayBuffer[t.delayWritePos] = x
	t.delayWritePos = (t.delayWritePos + 1) % t.delayBufferSize

	t.flutterPhase += 2.0 * math.Pi * t.flutterRate / t.sampleRate
	if t.flutterPhase > 2.0*math.Pi {
		t.flutterPhase -= 2.0 * math.Pi
		if rand.Float64() < 0.1 {
			t.flutterRate = 0.3 + rand.Float64()*0.2
		}
	}

	modDepth := t.flutter * 3.0
	modulation := math.Sin(t.flutterPhase) * modDepth
	modulation += (rand.Float64()*2.0 - 1.0) * modDepth * 0.3

	delaySamples := 5.0 + modulation
	delayInt := int(delaySamples)
	delayFrac := delaySamples - float64(delayInt)

	readPos1 := (t.delayWritePos - delayInt + t.delayBufferSize) % t.delayBufferSize
	readPos2 := (readPos1 - 1 + t.delayBufferSize) % t.delayBufferSize
	return t.delayBuffer[readPos1]*(1.0-delayFrac) + t.delayBuffer[readPos2]*delayFrac
}

// preEmphasis approximates the CCIR pre-emphasis curve: a highpass
// component mixed back in proportional to warmth, boosting highs before
// saturation the way tape recording does.
func (t *TapeSaturation) preEmphasis(x float64, channel int) float64 {
	cutoff := 0.15 + t.warmth*0.1
	highpass := x - t.preEmphasisState[channel]
	t.preEmphasisState[channel] += highpass * cutoff
	return x + highpass*t.warmth*0.3
}

// deEmphasis approximates the matching CCIR de-emphasis lowpass, cutting
// highs back after saturation.
func (t *TapeSaturation) deEmphasis(x float64, channel int) float64 {
	cutoff := 0.8 - t.warmth*0.5
	t.deEmphasisState[channel] += (x - t.deEmphasisState[channel]) * cutoff
	return t.deEmphasisState[channel]
}

// Reset clears all filter, envelope, and flutter-delay state.
func (t *TapeSaturation) Reset() {
	t.preEmphasisState = [2]float64{}
	t.deEmphasisState = [2]float64{}
	t.envelope = 0.0
	t.flutterPhase = 0.0
	t.delayWritePos = 0
	for i := range t.delayBuffer {
		t.delayBuffer[i] = 0.0
	}
}
