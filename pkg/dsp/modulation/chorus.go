package modulation

import "math"

// Chorus layers up to 4 detuned, LFO-modulated delay voices over the dry
// signal, panned across the stereo field for a thickened, moving sound.
type Chorus struct {
	sampleRate float64

	rate     float64 // LFO rate in Hz
	depth    float64 // modulation depth in ms
	delay    float64 // base delay time in ms
	mix      float64 // wet/dry mix (0-1)
	feedback float64 // feedback amount (0-0.5)
	spread   float64 // stereo pan spread (0-1)
	voices   int

	delayLinesL     [][]float32
	delayLinesR     [][]float32
	delayIndex      int
	maxDelaySamples int

	lfos []*LFO

	feedbackL float32
	feedbackR float32
}

// NewChorus creates a chorus effect tuned for sampleRate with 2 voices.
func NewChorus(sampleRate float64) *Chorus {
	c := &Chorus{
		sampleRate: sampleRate,
		rate:       0.5,
		depth:      2.0,
		delay:      20.0,
		mix:        0.5,
		feedback:   0.0,
		spread:     1.0,
	}
	c.SetVoices(2)
	return c
}

func (c *Chorus) SetRate(hz float64) {
	c.rate = clamp(hz, 0.01, 10.0)
	for _, lfo := range c.lfos {
		lfo.SetFrequency(c.rate)
	}
}

func (c *Chorus) SetDepth(ms float64) { c.depth = clamp(ms, 0.0, 10.0) }

func (c *Chorus) SetDelay(ms float64) {
	c.delay = clamp(ms, 1.0, 50.0)
	c.updateDelayLines()
}

func (c *Chorus) SetMix(mix float64)           { c.mix = clamp(mix, 0.0, 1.0) }
func (c *Chorus) SetFeedback(feedback float64) { c.feedback = clamp(feedback, 0.0, 0.5) }
func (c *Chorus) SetSpread(spread float64)     { c.spread = clamp(spread, 0.0, 1.0) }

// SetVoices sets the voice count (1-4), rebuilding each voice's LFO with
// an evenly spaced starting phase and resizing the delay lines.
func (c *Chorus) SetVoices(voices int) {
	c.voices = min(4, max(1, voices))

	c.lfos = make([]*LFO, c.voices)
	for i := range c.lfos {
		c.lfos[i] = NewLFO(c.sampleRate)
		c.lfos[i].SetFrequency(c.rate)
		c.lfos[i].SetWaveform(WaveformSine)
		c.lfos[i].SetPhase(float64(i) / float64(c.voices))
	}

	c.updateDelayLines()
}

// updateDelayLines resizes the per-voice delay buffers to cover the base
// delay plus modulation depth, with 20% headroom.
func (c *Chorus) updateDelayLines() {
	maxDelayMs := c.delay + c.depth
	c.maxDelaySamples = int(float64(int(maxDelayMs*c.sampleRate/1000.0)) * 1.2)

	c.delayLinesL = make([][]float32, c.voices)
	c.delayLinesR = make([][]float32, c.voices)
	for i := 0; i < c.voices; i++ {
		c.delayLinesL[i] = make([]float32, c.maxDelaySamples)
		c.delayLinesR[i] = make([]float32, c.maxDelaySamples)
	}

	c.delayIndex = 0
	c.feedbackL = 0
	c.feedbackR = 0
}

// Process runs a mono sample through as an identical stereo pair.
func (c *Chorus) Process(input float32) (outputL, outputR float32) {
	return c.ProcessStereo(input, input)
}

// voiceSample reads voice v's delay lines at its LFO-modulated offset,
// returning the linearly interpolated L/R samples.
func (c *Chorus) voiceSample(v int) (sampleL, sampleR float32) {
	modulation := c.lfos[v].Process()
	delayMs := c.delay + c.depth*modulation
	delaySamples := clamp(delayMs*c.sampleRate/1000.0, 1.0, float64(c.maxDelaySamples-1))

	readPos := float64(c.delayIndex) - delaySamples
	if readPos < 0 {
		readPos += float64(c.maxDelaySamples)
	}
	readIdx := int(readPos)
	frac := float32(readPos - float64(readIdx))

	idx1 := readIdx % c.maxDelaySamples
	idx2 := (readIdx + 1) % c.maxDelaySamples
	sampleL = c.delayLinesL[v][idx1]*(1-frac) + c.delayLinesL[v][idx2]*frac
	sampleR = c.delayLinesR[v][idx1]*(1-frac) + c.delayLinesR[v][idx2]*frac
	return sampleL, sampleR
}

// ProcessStereo runs one stereo frame through every voice, panning each
// voice across the stereo field by spread before summing and mixing with
// the dry signal.
func (c *Chorus) ProcessStereo(inputL, inputR float32) (outputL, outputR float32) {
	outputL = inputL * float32(1.0-c.mix)
	outputR = inputR * float32(1.0-c.mix)

	delayInputL := inputL + c.feedbackL*float32(c.feedback)
	delayInputR := inputR + c.feedbackR*float32(c.feedback)
	for v := 0; v < c.voices; v++ {
		c.delayLinesL[v][c.delayIndex] = delayInputL
		c.delayLinesR[v][c.delayIndex] = delayInputR
	}

	var wetL, wetR float32
	for v := 0; v < c.voices; v++ {
		sampleL, sampleR := c.voiceSample(v)

		if c.voices > 1 {
			pan := (float64(v)/float64(c.voices-1) - 0.5) * c.spread
			panL := float32(math.Cos((pan + 0.5) * math.Pi / 2))
			panR := float32(math.Sin((pan + 0.5) * math.Pi / 2))
			wetL += sampleL * panL / float32(c.voices)
			wetR += sampleR * panR / float32(c.voices)
		} else {
			wetL += sampleL
			wetR += sampleR
		}
	}

	c.feedbackL, c.feedbackR = wetL, wetR
	outputL += wetL * float32(c.mix)
	outputR += wetR * float32(c.mix)

	c.delayIndex = (c.delayIndex + 1) % c.maxDelaySamples
	return outputL, outputR
}

// ProcessBuffer runs a mono buffer through Process.
func (c *Chorus) ProcessBuffer(input, outputL, outputR []float32) {
	for i := range input {
		outputL[i], outputR[i] = c.Process(input[i])
	}
}

// ProcessStereoBuffer runs stereo buffers through ProcessStereo.
func (c *Chorus) ProcessStereoBuffer(inputL, inputR, outputL, outputR []float32) {
	for i := range inputL {
		outputL[i], outputR[i] = c.ProcessStereo(inputL[i], inputR[i])
	}
}

// Reset clears every voice's delay line, feedback state, and LFO.
func (c *Chorus) Reset() {
	for v := 0; v < c.voices; v++ {
		for i := range c.delayLinesL[v] {
			c.delayLinesL[v][i] = 0
			c.delayLinesR[v][i] = 0
		}
	}
	for _, lfo := range c.lfos {
		lfo.Reset()
	}
	c.delayIndex = 0
	c.feedbackL = 0
	c.feedbackR = 0
}
