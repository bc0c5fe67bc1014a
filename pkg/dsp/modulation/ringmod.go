package modulation

import "math"

// RingModulator multiplies the input by an internally generated carrier
// oscillator, producing the classic metallic sum/difference frequencies
// of ring modulation. The carrier's own frequency can be wobbled by an
// LFO for a less static timbre.
type RingModulator struct {
	sampleRate float64

	frequency float64 // carrier frequency in Hz
	mix       float64 // wet/dry mix (0-1)
	waveform  Waveform

	phase    float64
	phaseInc float64

	lfoEnabled bool
	lfoRate    float64
	lfoDepth   float64
	lfo        *LFO
}

// NewRingModulator creates a ring modulator tuned for sampleRate with a
// 440Hz sine carrier.
func NewRingModulator(sampleRate float64) *RingModulator {
	rm := &RingModulator{
		sampleRate: sampleRate,
		frequency:  440.0,
		mix:        0.5,
		waveform:   WaveformSine,
		lfoRate:    0.5,
		lfoDepth:   0.1,
	}
	rm.lfo = NewLFO(sampleRate)
	rm.lfo.SetWaveform(WaveformSine)
	rm.lfo.SetFrequency(rm.lfoRate)
	rm.updatePhaseIncrement()
	return rm
}

func (rm *RingModulator) SetFrequency(hz float64) {
	rm.frequency = clamp(hz, 0.1, rm.sampleRate/2)
	rm.updatePhaseIncrement()
}

func (rm *RingModulator) SetMix(mix float64)            { rm.mix = clamp(mix, 0.0, 1.0) }
func (rm *RingModulator) SetWaveform(waveform Waveform) { rm.waveform = waveform }
func (rm *RingModulator) EnableLFO(enabled bool)        { rm.lfoEnabled = enabled }

func (rm *RingModulator) SetLFORate(hz float64) {
	rm.lfoRate = clamp(hz, 0.01, 20.0)
	rm.lfo.SetFrequency(rm.lfoRate)
}

func (rm *RingModulator) SetLFODepth(depth float64) { rm.lfoDepth = clamp(depth, 0.0, 1.0) }

func (rm *RingModulator) updatePhaseIncrement() {
	rm.phaseInc = rm.frequency / rm.sampleRate
}

// carrier advances the carrier phase by one sample (applying LFO
// frequency wobble if enabled) and returns the next waveform value.
func (rm *RingModulator) carrier() float64 {
	if rm.lfoEnabled {
		modFreq := rm.frequency * (1.0 + rm.lfo.Process()*rm.lfoDepth)
		rm.phaseInc = modFreq / rm.sampleRate
	}

	var value float64
	switch rm.waveform {
	case WaveformSine:
		value = math.Sin(2.0 * math.Pi * rm.phase)
	case WaveformTriangle:
		if rm.phase < 0.5 {
			value = 4.0*rm.phase - 1.0
		} else {
			value = 3.0 - 4.0*rm.phase
		}
	case WaveformSquare:
		if rm.phase < 0.5 {
			value = 1.0
		} else {
			value = -1.0
		}
	case WaveformSawtooth:
		value = 2.0*rm.phase - 1.0
	default:
		value = math.Sin(2.0 * math.Pi * rm.phase)
	}

	rm.phase += rm.phaseInc
	if rm.phase >= 1.0 {
		rm.phase -= 1.0
	}
	return value
}

// Process multiplies one mono sample by the carrier and mixes with dry.
func (rm *RingModulator) Process(input float32) float32 {
	modulated := float64(input) * rm.carrier()
	return float32(float64(input)*(1-rm.mix) + modulated*rm.mix)
}

// ProcessStereo applies the same carrier sample to both channels,
// preserving the stereo image through the modulation.
func (rm *RingModulator) ProcessStereo(inputL, inputR float32) (outputL, outputR float32) {
	carrier := rm.carrier()
	outputL = float32(float64(inputL)*(1-rm.mix) + float64(inputL)*carrier*rm.mix)
	outputR = float32(float64(inputR)*(1-rm.mix) + float64(inputR)*carrier*rm.mix)
	return outputL, outputR
}

// ProcessBuffer runs a mono buffer through Process.
func (rm *RingModulator) ProcessBuffer(input, output []float32) {
	for i := range input {
		output[i] = rm.Process(input[i])
	}
}

// ProcessStereoBuffer runs stereo buffers through ProcessStereo.
func (rm *RingModulator) ProcessStereoBuffer(inputL, inputR, outputL, outputR []float32) {
	for i := range inputL {
		outputL[i], outputR[i] = rm.ProcessStereo(inputL[i], inputR[i])
	}
}

// Reset rewinds the carrier phase and LFO.
func (rm *RingModulator) Reset() {
	rm.phase = 0.0
	rm.lfo.Reset()
}
