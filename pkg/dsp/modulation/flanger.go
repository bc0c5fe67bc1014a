package modulation

// Flanger is a single-voice modulated delay with feedback, the classic
// jet-sweep effect. ProcessStereo widens it by inverting the wet signal
// on the right channel.
type Flanger struct {
	sampleRate float64

	rate     float64 // LFO rate in Hz
	depth    float64 // modulation depth in ms
	delay    float64 // center delay in ms
	feedback float64 // -1 to 1, negative inverts phase
	mix      float64 // wet/dry mix (0-1)
	manual   float64 // manual sweep position (0-1), used when manualMode is set

	delayLine       []float32
	delayIndex      int
	maxDelaySamples int

	lfo *LFO

	feedbackSample float32
	manualMode     bool
}

// NewFlanger creates a flanger tuned for sampleRate with a triangle LFO,
// the classic flanger modulation shape.
func NewFlanger(sampleRate float64) *Flanger {
	f := &Flanger{
		sampleRate: sampleRate,
		rate:       0.5,
		depth:      2.0,
		delay:      5.0,
		feedback:   0.5,
		mix:        0.5,
		manual:     0.5,
	}
	f.lfo = NewLFO(sampleRate)
	f.lfo.SetWaveform(WaveformTriangle)
	f.lfo.SetFrequency(f.rate)
	f.updateDelayLine()
	return f
}

func (f *Flanger) SetRate(hz float64) {
	f.rate = clamp(hz, 0.01, 20.0)
	f.lfo.SetFrequency(f.rate)
}

func (f *Flanger) SetDepth(ms float64) { f.depth = clamp(ms, 0.0, 10.0) }

func (f *Flanger) SetDelay(ms float64) {
	f.delay = clamp(ms, 0.1, 10.0)
	f.updateDelayLine()
}

func (f *Flanger) SetFeedback(feedback float64) { f.feedback = clamp(feedback, -0.99, 0.99) }
func (f *Flanger) SetMix(mix float64)            { f.mix = clamp(mix, 0.0, 1.0) }
func (f *Flanger) SetManual(position float64)    { f.manual = clamp(position, 0.0, 1.0) }
func (f *Flanger) SetManualMode(enabled bool)    { f.manualMode = enabled }

// updateDelayLine resizes the delay buffer to cover the center delay plus
// modulation depth, with 20% headroom.
func (f *Flanger) updateDelayLine() {
	maxDelayMs := f.delay + f.depth
	f.maxDelaySamples = int(float64(int(maxDelayMs*f.sampleRate/1000.0)) * 1.2)

	f.delayLine = make([]float32, f.maxDelaySamples)
	f.delayIndex = 0
	f.feedbackSample = 0
}

// sweep returns the current modulation value in [-1,1]: the manual slider
// position in manual mode, otherwise the next LFO sample.
func (f *Flanger) sweep() float64 {
	if f.manualMode {
		return 2.0*f.manual - 1.0
	}
	return f.lfo.Process()
}

// Process runs one mono sample through the modulated delay and feedback
// loop.
func (f *Flanger) Process(input float32) float32 {
	delayInput := clampFloat32(input+f.feedbackSample*float32(f.feedback), -1.0, 1.0)
	f.delayLine[f.delayIndex] = delayInput

	delayMs := f.delay + f.depth*f.sweep()
	delaySamples := clamp(delayMs*f.sampleRate/1000.0, 0.1, float64(f.maxDelaySamples-1))

	readPos := float64(f.delayIndex) - delaySamples
	if readPos < 0 {
		readPos += float64(f.maxDelaySamples)
	}
	readIdx := int(readPos)
	frac := float32(readPos - float64(readIdx))

	idx1 := readIdx % f.maxDelaySamples
	idx2 := (readIdx + 1) % f.maxDelaySamples
	delayedSample := f.delayLine[idx1]*(1-frac) + f.delayLine[idx2]*frac
	f.feedbackSample = delayedSample

	output := input*(1-float32(f.mix)) + delayedSample*float32(f.mix)
	f.delayIndex = (f.delayIndex + 1) % f.maxDelaySamples
	return output
}

// ProcessStereo widens Process's mono output by inverting the wet
// component on the right channel.
func (f *Flanger) ProcessStereo(inputL, inputR float32) (outputL, outputR float32) {
	flangedL := f.Process(inputL)
	wetL := flangedL - inputL*(1-float32(f.mix))

	outputL = flangedL
	outputR = inputR*(1-float32(f.mix)) - wetL
	return outputL, outputR
}

// ProcessBuffer runs a mono buffer through Process.
func (f *Flanger) ProcessBuffer(input, output []float32) {
	for i := range input {
		output[i] = f.Process(input[i])
	}
}

// ProcessStereoBuffer runs stereo buffers through ProcessStereo.
func (f *Flanger) ProcessStereoBuffer(inputL, inputR, outputL, outputR []float32) {
	for i := range inputL {
		outputL[i], outputR[i] = f.ProcessStereo(inputL[i], inputR[i])
	}
}

// Reset clears the delay line, feedback state, and LFO.
func (f *Flanger) Reset() {
	for i := range f.delayLine {
		f.delayLine[i] = 0
	}
	f.delayIndex = 0
	f.feedbackSample = 0
	f.lfo.Reset()
}
