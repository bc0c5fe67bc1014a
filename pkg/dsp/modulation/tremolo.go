package modulation

import "math"

// TremoloMode selects how the LFO value maps to gain.
type TremoloMode int

const (
	TremoloModeNormal   TremoloMode = iota // LFO maps linearly to [1-depth, 1]
	TremoloModeHarmonic                    // |LFO| maps to [1-depth, 1], doubling the modulation frequency
)

// Tremolo is an amplitude-modulation effect: a per-channel LFO scales
// the signal's gain, with optional square-wave smoothing and a
// stereo phase offset between channels.
type Tremolo struct {
	sampleRate float64

	rate     float64 // LFO rate in Hz
	depth    float64 // modulation depth (0-1)
	waveform Waveform
	mode     TremoloMode
	stereo   bool
	phase    float64 // stereo phase offset (0-1)

	lfoL *LFO
	lfoR *LFO

	smoothing     bool
	smoothCoeff   float64
	smoothedGainL float64
	smoothedGainR float64
}

// NewTremolo creates a tremolo tuned for sampleRate at 5Hz, 50% depth.
func NewTremolo(sampleRate float64) *Tremolo {
	t := &Tremolo{
		sampleRate:    sampleRate,
		rate:          5.0,
		depth:         0.5,
		waveform:      WaveformSine,
		mode:          TremoloModeNormal,
		smoothedGainL: 1.0,
		smoothedGainR: 1.0,
	}
	t.lfoL = NewLFO(sampleRate)
	t.lfoR = NewLFO(sampleRate)
	t.updateLFOs()
	t.updateSmoothing()
	return t
}

func (t *Tremolo) SetRate(hz float64) {
	t.rate = clamp(hz, 0.01, 20.0)
	t.lfoL.SetFrequency(t.rate)
	t.lfoR.SetFrequency(t.rate)
}

func (t *Tremolo) SetDepth(depth float64) { t.depth = clamp(depth, 0.0, 1.0) }

// SetWaveform sets the LFO waveform, enabling smoothing automatically for
// the square wave (which would otherwise click).
func (t *Tremolo) SetWaveform(waveform Waveform) {
	t.waveform = waveform
	t.lfoL.SetWaveform(waveform)
	t.lfoR.SetWaveform(waveform)
	t.smoothing = waveform == WaveformSquare
	t.updateSmoothing()
}

func (t *Tremolo) SetMode(mode TremoloMode) { t.mode = mode }

func (t *Tremolo) SetStereo(stereo bool) {
	t.stereo = stereo
	t.updateLFOs()
}

func (t *Tremolo) SetStereoPhase(phase float64) {
	t.phase = clamp(phase, 0.0, 1.0)
	t.updateLFOs()
}

func (t *Tremolo) EnableSmoothing(enabled bool) { t.smoothing = enabled }

func (t *Tremolo) updateLFOs() {
	t.lfoL.SetFrequency(t.rate)
	t.lfoL.SetWaveform(t.waveform)
	t.lfoR.SetFrequency(t.rate)
	t.lfoR.SetWaveform(t.waveform)

	if t.stereo {
		t.lfoR.SetPhase(t.phase)
	} else {
		t.lfoR.SetPhase(0.0)
	}
}

// updateSmoothing derives the one-pole smoothing coefficient for a ~5ms
// time constant.
func (t *Tremolo) updateSmoothing() {
	const smoothingTime = 0.005
	t.smoothCoeff = math.Exp(-1.0 / (smoothingTime * t.sampleRate))
}

// gain maps an LFO sample to a gain value for the current mode.
func (t *Tremolo) gain(lfoValue float64) float64 {
	if t.mode == TremoloModeHarmonic {
		return 1.0 - t.depth*math.Abs(lfoValue)
	}
	return 1.0 - t.depth*(1.0-lfoValue)/2.0
}

// smooth applies the one-pole smoothing filter to gain using and
// updating *state, when smoothing is enabled.
func (t *Tremolo) smooth(gain float64, state *float64) float64 {
	if !t.smoothing {
		return gain
	}
	*state = gain + (*state-gain)*t.smoothCoeff
	return *state
}

// Process applies amplitude modulation to one mono sample.
func (t *Tremolo) Process(input float32) float32 {
	gain := t.smooth(t.gain(t.lfoL.Process()), &t.smoothedGainL)
	return input * float32(gain)
}

// ProcessStereo applies amplitude modulation to a stereo pair, using an
// independent LFO for the right channel when stereo mode is enabled.
func (t *Tremolo) ProcessStereo(inputL, inputR float32) (outputL, outputR float32) {
	lfoL := t.lfoL.Process()
	lfoR := lfoL
	if t.stereo {
		lfoR = t.lfoR.Process()
	}

	gainL := t.smooth(t.gain(lfoL), &t.smoothedGainL)
	gainR := t.smooth(t.gain(lfoR), &t.smoothedGainR)

	outputL = inputL * float32(gainL)
	outputR = inputR * float32(gainR)
	return outputL, outputR
}

// ProcessBuffer runs a mono buffer through Process.
func (t *Tremolo) ProcessBuffer(input, output []float32) {
	for i := range input {
		output[i] = t.Process(input[i])
	}
}

// ProcessStereoBuffer runs stereo buffers through ProcessStereo.
func (t *Tremolo) ProcessStereoBuffer(inputL, inputR, outputL, outputR []float32) {
	for i := range inputL {
		outputL[i], outputR[i] = t.ProcessStereo(inputL[i], inputR[i])
	}
}

// GetCurrentGain returns the smoothed left-channel gain, for metering.
func (t *Tremolo) GetCurrentGain() float64 {
	return t.smoothedGainL
}

// Reset rewinds both LFOs and the smoothing state.
func (t *Tremolo) Reset() {
	t.lfoL.Reset()
	t.lfoR.Reset()
	t.smoothedGainL = 1.0
	t.smoothedGainR = 1.0

	if t.stereo {
		t.lfoR.SetPhase(t.phase)
	}
}
