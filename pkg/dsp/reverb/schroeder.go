// Package reverb holds the engine's built-in reverb algorithms: a
// classic Schroeder comb+allpass network, Freeverb's stereo-spread
// variant, and a feedback delay network for larger spaces.
package reverb

import "math"

// CombFilter is a feedback comb filter with a one-pole damping stage in
// the feedback path, the building block Schroeder sums four of in
// parallel.
type CombFilter struct {
	buffer   []float32
	pos      int
	feedback float64

	lpState  float32 // one-pole lowpass state in the feedback path
	dampGain float64 // damping mix: 0 = no damping, 1 = full damping
}

// NewCombFilter creates a comb filter with the given delay length in
// samples.
func NewCombFilter(delaySamples int) *CombFilter {
	return &CombFilter{
		buffer:   make([]float32, delaySamples),
		feedback: 0.5,
		dampGain: 0.5,
	}
}

// SetFeedback clamps and sets the feedback amount.
func (c *CombFilter) SetFeedback(feedback float64) {
	c.feedback = clamp01(feedback)
}

// SetDamping sets how much the feedback path is lowpass filtered.
func (c *CombFilter) SetDamping(damping float64) {
	c.dampGain = damping
}

// Process runs one sample through the comb filter, returning the
// delayed, damped, fed-back output.
func (c *CombFilter) Process(input float32) float32 {
	out := c.buffer[c.pos]
	c.lpState = out*float32(1.0-c.dampGain) + c.lpState*float32(c.dampGain)
	c.buffer[c.pos] = input + float32(c.feedback)*c.lpState
	c.pos = (c.pos + 1) % len(c.buffer)
	return out
}

// Reset silences the comb's delay buffer and damping state.
func (c *CombFilter) Reset() {
	for i := range c.buffer {
		c.buffer[i] = 0
	}
	c.pos = 0
	c.lpState = 0
}

// AllPassFilter is the Freeverb-style allpass diffuser (its magnitude
// response is not flat: at feedback 0.5 it ripples between 1 and 5/3),
// used in series after the comb bank to smear discrete echoes into a
// continuous tail.
type AllPassFilter struct {
	buffer   []float32
	pos      int
	feedback float64
}

// NewAllPassFilter creates an allpass filter with the given delay length
// in samples.
func NewAllPassFilter(delaySamples int) *AllPassFilter {
	return &AllPassFilter{
		buffer:   make([]float32, delaySamples),
		feedback: 0.5,
	}
}

// SetFeedback sets the allpass feedback coefficient (typically ~0.5).
func (a *AllPassFilter) SetFeedback(feedback float64) {
	a.feedback = feedback
}

// Process runs one sample through the allpass: y[n] = -x[n] + w[n-D],
// with w[n] = x[n] + feedback*w[n-D].
func (a *AllPassFilter) Process(input float32) float32 {
	delayed := a.buffer[a.pos]
	out := -input + delayed
	a.buffer[a.pos] = input + float32(a.feedback)*delayed
	a.pos = (a.pos + 1) % len(a.buffer)
	return out
}

// Reset silences the allpass's delay buffer.
func (a *AllPassFilter) Reset() {
	for i := range a.buffer {
		a.buffer[i] = 0
	}
	a.pos = 0
}

// Schroeder is the classic 1962 reverb topology: four parallel damped
// comb filters summed and smoothed through two series allpass stages.
type Schroeder struct {
	combs     [4]*CombFilter
	allpasses [2]*AllPassFilter

	roomSize float64
	damping  float64
	wetLevel float64
	dryLevel float64
	width    float64 // stereo width, 0=mono collapse, 1=full width
}

var (
	schroederCombTuningsMs    = [4]float64{29.7, 37.1, 41.1, 43.7}
	schroederAllpassTuningsMs = [2]float64{5.0, 1.7}
)

// NewSchroeder builds a Schroeder reverb tuned for sampleRate.
func NewSchroeder(sampleRate float64) *Schroeder {
	s := &Schroeder{
		roomSize: 0.5,
		damping:  0.5,
		wetLevel: 0.3,
		dryLevel: 0.7,
		width:    1.0,
	}
	for i, ms := range schroederCombTuningsMs {
		s.combs[i] = NewCombFilter(msToSamples(ms, sampleRate))
	}
	for i, ms := range schroederAllpassTuningsMs {
		s.allpasses[i] = NewAllPassFilter(msToSamples(ms, sampleRate))
		s.allpasses[i].SetFeedback(0.5)
	}
	s.pushRoomParams()
	return s
}

func (s *Schroeder) SetRoomSize(size float64) {
	s.roomSize = clamp01(size)
	s.pushRoomParams()
}

func (s *Schroeder) SetDamping(damping float64) {
	s.damping = clamp01(damping)
	s.pushRoomParams()
}

func (s *Schroeder) SetWetLevel(level float64) { s.wetLevel = clamp01(level) }
func (s *Schroeder) SetDryLevel(level float64) { s.dryLevel = clamp01(level) }
func (s *Schroeder) SetWidth(width float64)    { s.width = clamp01(width) }

// pushRoomParams re-derives each comb's feedback from roomSize (bigger
// room, longer decay) and damping, after either parameter changes.
func (s *Schroeder) pushRoomParams() {
	feedback := 0.28 + s.roomSize*0.7
	for _, c := range s.combs {
		c.SetFeedback(feedback)
		c.SetDamping(s.damping)
	}
}

// wetSignal runs mono through the parallel comb bank and series allpass
// chain, the signal path Process and ProcessStereo both funnel through.
func (s *Schroeder) wetSignal(mono float32) float32 {
	var sum float32
	for _, c := range s.combs {
		sum += c.Process(mono)
	}
	sum *= 0.25
	for _, a := range s.allpasses {
		sum = a.Process(sum)
	}
	return sum
}

// Process filters one mono sample.
func (s *Schroeder) Process(input float32) float32 {
	wet := s.wetSignal(input)
	return input*float32(s.dryLevel) + wet*float32(s.wetLevel)
}

// ProcessStereo filters a stereo pair. The comb/allpass network runs on
// the mono sum; width narrows the wet signal back toward mono rather
// than decorrelating L/R, matching the mono-bus nature of this topology.
func (s *Schroeder) ProcessStereo(inputL, inputR float32) (outputL, outputR float32) {
	mono := (inputL + inputR) * 0.5
	wet := s.wetSignal(mono)

	wetL, wetR := wet, wet
	if s.width < 1.0 {
		narrow := float32(1.0 - (1.0-s.width)*0.5)
		wetL *= narrow
		wetR *= narrow
	}

	outputL = inputL*float32(s.dryLevel) + wetL*float32(s.wetLevel)
	outputR = inputR*float32(s.dryLevel) + wetR*float32(s.wetLevel)
	return outputL, outputR
}

// Reset clears every comb and allpass stage.
func (s *Schroeder) Reset() {
	for _, c := range s.combs {
		c.Reset()
	}
	for _, a := range s.allpasses {
		a.Reset()
	}
}

func clamp01(v float64) float64 {
	return math.Max(0.0, math.Min(1.0, v))
}

func msToSamples(ms, sampleRate float64) int {
	return int(ms * sampleRate / 1000.0)
}
