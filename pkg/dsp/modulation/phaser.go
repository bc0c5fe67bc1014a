package modulation

import "math"

// AllPassFilter is a first-order all-pass stage: y[n] = a1*x[n] + x[n-1]
// - a1*y[n-1], re-tuned every sample as the phaser's LFO sweeps.
type AllPassFilter struct {
	a1    float64
	state float32
}

// NewAllPassFilter creates a stage with no frequency set; call
// SetFrequency before processing.
func NewAllPassFilter() *AllPassFilter {
	return &AllPassFilter{}
}

// SetFrequency re-tunes the stage via the bilinear-transform coefficient
// a1 = (1 - tan(pi*fc/fs)) / (1 + tan(pi*fc/fs)).
func (f *AllPassFilter) SetFrequency(freq, sampleRate float64) {
	tanFreq := math.Tan(math.Pi * freq / sampleRate)
	f.a1 = (1.0 - tanFreq) / (1.0 + tanFreq)
}

func (f *AllPassFilter) Process(input float32) float32 {
	output := float32(f.a1)*input + f.state
	f.state = input - float32(f.a1)*output
	return output
}

func (f *AllPassFilter) Reset() { f.state = 0 }

// Phaser sweeps a cascade of all-pass stages with an LFO, producing the
// moving notches of a classic phase-shift effect.
type Phaser struct {
	sampleRate float64

	rate       float64 // LFO rate in Hz
	depth      float64 // modulation depth (0-1)
	centerFreq float64
	feedback   float64 // -1 to 1
	mix        float64 // wet/dry mix (0-1)
	stages     int     // 2, 4, 6, or 8

	filters []*AllPassFilter
	lfo     *LFO

	feedbackSample float32

	minFreq float64
	maxFreq float64
}

// NewPhaser creates a 4-stage phaser tuned for sampleRate, sweeping
// between 750Hz and 1.25kHz (1kHz center, depth 0.5).
func NewPhaser(sampleRate float64) *Phaser {
	p := &Phaser{
		sampleRate: sampleRate,
		rate:       0.5,
		depth:      0.5,
		centerFreq: 1000.0,
		feedback:   0.5,
		mix:        0.5,
		stages:     4,
		minFreq:    200.0,
		maxFreq:    2000.0,
	}
	p.lfo = NewLFO(sampleRate)
	p.lfo.SetWaveform(WaveformSine)
	p.lfo.SetFrequency(p.rate)
	p.updateStages()
	return p
}

func (p *Phaser) SetRate(hz float64) {
	p.rate = clamp(hz, 0.01, 10.0)
	p.lfo.SetFrequency(p.rate)
}

func (p *Phaser) SetDepth(depth float64) { p.depth = clamp(depth, 0.0, 1.0) }

func (p *Phaser) SetCenterFrequency(freq float64) {
	p.centerFreq = clamp(freq, 100.0, 4000.0)
	p.updateFrequencyRange()
}

// SetFrequencyRange sets the min/max sweep bounds directly, re-deriving
// centerFreq as their midpoint.
func (p *Phaser) SetFrequencyRange(minFreq, maxFreq float64) {
	p.minFreq = clamp(minFreq, 20.0, p.sampleRate/4)
	p.maxFreq = clamp(maxFreq, p.minFreq+100, p.sampleRate/2)
	p.centerFreq = (p.minFreq + p.maxFreq) / 2
}

func (p *Phaser) SetFeedback(feedback float64) { p.feedback = clamp(feedback, -0.99, 0.99) }
func (p *Phaser) SetMix(mix float64)           { p.mix = clamp(mix, 0.0, 1.0) }

// SetStages sets the stage count, rounded down to an even number in
// [2,8].
func (p *Phaser) SetStages(stages int) {
	stages = min(8, max(2, stages))
	if stages%2 != 0 {
		stages--
	}
	p.stages = stages
	p.updateStages()
}

func (p *Phaser) updateStages() {
	p.filters = make([]*AllPassFilter, p.stages)
	for i := range p.filters {
		p.filters[i] = NewAllPassFilter()
	}
	p.updateFrequencyRange()
}

// updateFrequencyRange re-derives minFreq/maxFreq from centerFreq and
// depth, the width the LFO sweeps across.
func (p *Phaser) updateFrequencyRange() {
	freqRange := p.centerFreq * p.depth
	p.minFreq = math.Max(20.0, p.centerFreq-freqRange/2)
	p.maxFreq = math.Min(p.sampleRate/4, p.centerFreq+freqRange/2)
}

// sweepFrequency maps the LFO's [-1,1] output to [minFreq,maxFreq]
// logarithmically, for an evenly perceived sweep.
func (p *Phaser) sweepFrequency() float64 {
	normalizedLFO := (p.lfo.Process() + 1.0) / 2.0
	logMin, logMax := math.Log(p.minFreq), math.Log(p.maxFreq)
	return math.Exp(logMin + (logMax-logMin)*normalizedLFO)
}

// Process runs one mono sample through the swept all-pass cascade with
// feedback.
func (p *Phaser) Process(input float32) float32 {
	freq := p.sweepFrequency()
	for _, filter := range p.filters {
		filter.SetFrequency(freq, p.sampleRate)
	}

	wetSignal := clampFloat32(input+p.feedbackSample*float32(p.feedback), -1.0, 1.0)
	for _, filter := range p.filters {
		wetSignal = filter.Process(wetSignal)
	}
	p.feedbackSample = wetSignal

	return input*float32(1-p.mix) + wetSignal*float32(p.mix)
}

// ProcessStereo widens Process's mono output by inverting the wet signal
// on the right channel.
func (p *Phaser) ProcessStereo(inputL, inputR float32) (outputL, outputR float32) {
	outputL = p.Process(inputL)
	wetL := outputL - inputL*float32(1-p.mix)

	dryR := inputR * float32(1-p.mix)
	outputR = dryR - wetL
	return outputL, outputR
}

// ProcessBuffer runs a mono buffer through Process.
func (p *Phaser) ProcessBuffer(input, output []float32) {
	for i := range input {
		output[i] = p.Process(input[i])
	}
}

// ProcessStereoBuffer runs stereo buffers through ProcessStereo.
func (p *Phaser) ProcessStereoBuffer(inputL, inputR, outputL, outputR []float32) {
	for i := range inputL {
		outputL[i], outputR[i] = p.ProcessStereo(inputL[i], inputR[i])
	}
}

// Reset clears every stage, the feedback sample, and the LFO.
func (p *Phaser) Reset() {
	for _, filter := range p.filters {
		filter.Reset()
	}
	p.feedbackSample = 0
	p.lfo.Reset()
}
