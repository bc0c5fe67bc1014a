package filter

import "math"

// SVF is a zero-delay-feedback state variable filter (Andrew Simper's
// trapezoidal-integrator topology). ProcessSample computes lowpass,
// highpass, bandpass and notch simultaneously from shared state so a
// caller can pick (or blend) outputs after the fact without re-running
// the filter.
type SVF struct {
	g float32 // frequency coefficient, tan(pi*fc/fs) pre-warped
	k float32 // damping coefficient, 1/Q

	ic1eq []float32 // integrator 1 state, per channel
	ic2eq []float32 // integrator 2 state, per channel
}

// SVFOutputs holds the four simultaneous filter responses for one sample.
type SVFOutputs struct {
	Lowpass  float32
	Highpass float32
	Bandpass float32
	Notch    float32
}

// pick selects one of o's four responses by FilterMode-shaped index
// (0=LP, 1=HP, 2=BP, 3=Notch); any other value returns 0.
func (o SVFOutputs) pick(mode int) float32 {
	switch mode {
	case 0:
		return o.Lowpass
	case 1:
		return o.Highpass
	case 2:
		return o.Bandpass
	case 3:
		return o.Notch
	default:
		return 0
	}
}

// NewSVF allocates an SVF with per-channel state for channels channels.
func NewSVF(channels int) *SVF {
	return &SVF{
		ic1eq: make([]float32, channels),
		ic2eq: make([]float32, channels),
	}
}

// Reset zeroes the integrator state on every channel.
func (s *SVF) Reset() {
	for i := range s.ic1eq {
		s.ic1eq[i], s.ic2eq[i] = 0, 0
	}
}

// SetFrequency pre-warps the cutoff for the filter's bilinear transform.
func (s *SVF) SetFrequency(sampleRate, frequency float64) {
	s.g = float32(math.Tan(math.Pi * frequency / sampleRate))
}

// SetQ sets the resonance (Q factor); higher values narrow and peak the
// bandpass/notch responses.
func (s *SVF) SetQ(q float64) {
	s.k = float32(1.0 / q)
}

// SetFrequencyAndQ is SetFrequency and SetQ combined, for the common case
// of retuning both per block.
func (s *SVF) SetFrequencyAndQ(sampleRate, frequency, q float64) {
	s.SetFrequency(sampleRate, frequency)
	s.SetQ(q)
}

// ProcessSample runs one input sample through the filter and returns all
// four simultaneous outputs, updating channel's integrator state.
func (s *SVF) ProcessSample(input float32, channel int) SVFOutputs {
	ic1eq := s.ic1eq[channel]
	ic2eq := s.ic2eq[channel]

	g, k := s.g, s.k
	a1 := 1.0 / (1.0 + g*(g+k))
	a2 := g * a1
	a3 := g * a2

	v3 := input - ic2eq
	v1 := a1*ic1eq + a2*v3
	v2 := ic2eq + a2*ic1eq + a3*v3

	s.ic1eq[channel] = 2.0*v1 - ic1eq
	s.ic2eq[channel] = 2.0*v2 - ic2eq

	return SVFOutputs{
		Lowpass:  v2,
		Bandpass: v1,
		Highpass: input - k*v1 - v2,
		Notch:    input - k*v1,
	}
}

// processMode runs buffer through the filter in place, keeping only the
// response selected by mode (see SVFOutputs.pick).
func (s *SVF) processMode(buffer []float32, channel, mode int) {
	for i, in := range buffer {
		buffer[i] = s.ProcessSample(in, channel).pick(mode)
	}
}

// ProcessLowpass filters buffer in place, keeping only the lowpass output.
func (s *SVF) ProcessLowpass(buffer []float32, channel int) { s.processMode(buffer, channel, 0) }

// ProcessHighpass filters buffer in place, keeping only the highpass output.
func (s *SVF) ProcessHighpass(buffer []float32, channel int) { s.processMode(buffer, channel, 1) }

// ProcessBandpass filters buffer in place, keeping only the bandpass output.
func (s *SVF) ProcessBandpass(buffer []float32, channel int) { s.processMode(buffer, channel, 2) }

// ProcessNotch filters buffer in place, keeping only the notch output.
func (s *SVF) ProcessNotch(buffer []float32, channel int) { s.processMode(buffer, channel, 3) }

// ProcessMixed filters buffer in place with a weighted sum of all four
// responses, for effects that blend filter types rather than switching
// between them outright.
func (s *SVF) ProcessMixed(buffer []float32, channel int, lpMix, hpMix, bpMix, notchMix float32) {
	for i, in := range buffer {
		o := s.ProcessSample(in, channel)
		buffer[i] = o.Lowpass*lpMix + o.Highpass*hpMix + o.Bandpass*bpMix + o.Notch*notchMix
	}
}
