package reverb

import (
	"math"
	"math/bits"
	"math/rand"
)

// FDN is a feedback delay network reverb: numDelays prime-length delay
// lines cross-coupled through a Hadamard (or Householder, for sizes a
// literal Hadamard isn't built for) feedback matrix, giving a denser,
// less metallic tail than the comb+allpass topologies for large spaces.
type FDN struct {
	numDelays int

	delayLines   [][]float32
	delayTimes   []int
	writeAt      []int

	feedbackMatrix [][]float64

	inputGains  []float64
	outputGains []float64

	dampingFilters []*DampingFilter

	decay      float64
	damping    float64
	diffusion  float64
	modulation float64
	wetLevel   float64
	dryLevel   float64

	modLFOs   []float64
	modPhases []float64
	modDepth  float64
	modRate   float64

	sampleRate float64
}

// DampingFilter is a one-pole lowpass used in each FDN delay line's
// feedback path to roll off high frequencies as the tail decays.
type DampingFilter struct {
	state float32
	coeff float64
}

// NewDampingFilter returns a DampingFilter at damping 0.5.
func NewDampingFilter() *DampingFilter {
	return &DampingFilter{coeff: 0.5}
}

// SetDamping sets the damping amount; 0 passes audio unfiltered, 1 is
// maximum high-frequency rolloff.
func (d *DampingFilter) SetDamping(damping float64) {
	d.coeff = clamp01(damping)
}

func (d *DampingFilter) Process(input float32) float32 {
	d.state = input*float32(1.0-d.coeff) + d.state*float32(d.coeff)
	return d.state
}

func (d *DampingFilter) Reset() { d.state = 0 }

// fdnPrimeRatios scales the base delay time by these ratios (relative to
// the first) to spread delay lengths across mutually prime-ish lengths,
// avoiding the periodic artifacts equal-length lines would produce.
var fdnPrimeRatios = []int{23, 29, 31, 37, 41, 43, 47, 53, 59, 61, 67, 71, 73, 79, 83, 89}

// NewFDN builds an FDN reverb with numDelays delay lines tuned for
// sampleRate.
func NewFDN(numDelays int, sampleRate float64) *FDN {
	f := &FDN{
		numDelays:      numDelays,
		delayLines:     make([][]float32, numDelays),
		delayTimes:     make([]int, numDelays),
		writeAt:        make([]int, numDelays),
		inputGains:     make([]float64, numDelays),
		outputGains:    make([]float64, numDelays),
		dampingFilters: make([]*DampingFilter, numDelays),
		modLFOs:        make([]float64, numDelays),
		modPhases:      make([]float64, numDelays),
		decay:          0.5,
		damping:        0.5,
		diffusion:      0.5,
		wetLevel:       0.3,
		dryLevel:       0.7,
		modDepth:       5.0, // samples
		modRate:        0.5, // Hz
		sampleRate:     sampleRate,
	}

	baseDelay := int(sampleRate * 0.01) // 10ms
	for i := 0; i < numDelays; i++ {
		delayTime := baseDelay * fdnPrimeRatios[i%len(fdnPrimeRatios)] / 23
		f.delayTimes[i] = delayTime
		f.delayLines[i] = make([]float32, delayTime+int(f.modDepth)+1)

		f.dampingFilters[i] = NewDampingFilter()
		f.modPhases[i] = float64(i) * 2.0 * math.Pi / float64(numDelays)

		f.inputGains[i] = 1.0 / math.Sqrt(float64(numDelays))
		f.outputGains[i] = 1.0 / math.Sqrt(float64(numDelays))
	}

	f.buildFeedbackMatrix()
	f.updateInternalParameters()
	return f
}

// buildFeedbackMatrix picks a diffusion matrix by size: literal Hadamard
// matrices for 4 and 8 lines (the two presets this engine actually
// uses), a random Householder reflection otherwise.
func (f *FDN) buildFeedbackMatrix() {
	n := f.numDelays
	f.feedbackMatrix = make([][]float64, n)
	for i := range f.feedbackMatrix {
		f.feedbackMatrix[i] = make([]float64, n)
	}

	switch n {
	case 4:
		h := [4][4]float64{
			{1, 1, 1, 1},
			{1, -1, 1, -1},
			{1, 1, -1, -1},
			{1, -1, -1, 1},
		}
		for i := 0; i < 4; i++ {
			for j := 0; j < 4; j++ {
				f.feedbackMatrix[i][j] = h[i][j] * 0.5
			}
		}
	case 8:
		scale := 1.0 / math.Sqrt(8.0)
		for i := 0; i < 8; i++ {
			for j := 0; j < 8; j++ {
				if bits.OnesCount(uint(i&j))%2 == 0 {
					f.feedbackMatrix[i][j] = scale
				} else {
					f.feedbackMatrix[i][j] = -scale
				}
			}
		}
	default:
		f.buildHouseholderMatrix()
	}
}

// buildHouseholderMatrix fills feedbackMatrix with I - 2*v*v^T for a
// random unit vector v, a reflection matrix that's orthogonal (so it
// doesn't add or remove energy) for any size.
func (f *FDN) buildHouseholderMatrix() {
	n := f.numDelays
	v := make([]float64, n)
	sumSq := 0.0
	for i := range v {
		v[i] = rand.Float64() - 0.5
		sumSq += v[i] * v[i]
	}
	norm := math.Sqrt(sumSq)
	for i := range v {
		v[i] /= norm
	}

	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j {
				f.feedbackMatrix[i][j] = 1.0 - 2.0*v[i]*v[j]
			} else {
				f.feedbackMatrix[i][j] = -2.0 * v[i] * v[j]
			}
		}
	}
}

func (f *FDN) SetDecay(decay float64) { f.decay = clamp01(decay); f.updateInternalParameters() }
func (f *FDN) SetDamping(damping float64) {
	f.damping = clamp01(damping)
	f.updateInternalParameters()
}
func (f *FDN) SetDiffusion(diffusion float64) {
	f.diffusion = clamp01(diffusion)
	f.updateInternalParameters()
}
func (f *FDN) SetModulation(modulation float64) { f.modulation = clamp01(modulation) }
func (f *FDN) SetWetLevel(level float64)        { f.wetLevel = clamp01(level) }
func (f *FDN) SetDryLevel(level float64)        { f.dryLevel = clamp01(level) }

// updateInternalParameters pushes damping to every line's DampingFilter;
// decay and diffusion are read directly from the struct each Process
// call instead (they interact with per-line feedback sums there).
func (f *FDN) updateInternalParameters() {
	for _, d := range f.dampingFilters {
		d.SetDamping(f.damping)
	}
}

// readModulated reads delay line i with its LFO-modulated fractional
// offset, advancing that line's LFO phase in the process.
func (f *FDN) readModulated(i int) float32 {
	mod := 0.0
	if f.modulation > 0 {
		f.modLFOs[i] = math.Sin(f.modPhases[i])
		f.modPhases[i] += 2.0 * math.Pi * f.modRate / f.sampleRate
		if f.modPhases[i] > 2.0*math.Pi {
			f.modPhases[i] -= 2.0 * math.Pi
		}
		mod = f.modLFOs[i] * f.modDepth * f.modulation
	}

	n := len(f.delayLines[i])
	pos := float64(f.writeAt[i]-f.delayTimes[i]) - mod
	for pos < 0 {
		pos += float64(n)
	}

	i0 := int(pos)
	frac := float32(pos - float64(i0))
	return f.delayLines[i][i0%n]*(1-frac) + f.delayLines[i][(i0+1)%n]*frac
}

// Process filters one mono sample through the network.
func (f *FDN) Process(input float32) float32 {
	delayOutputs := make([]float32, f.numDelays)
	for i := range delayOutputs {
		delayOutputs[i] = f.readModulated(i)
	}

	decayScale := float32(0.4 + f.decay*0.58) // 0.4..0.98
	feedbackInputs := make([]float32, f.numDelays)
	for i := 0; i < f.numDelays; i++ {
		var sum float32
		for j := 0; j < f.numDelays; j++ {
			if i == j {
				sum += delayOutputs[j] * float32(1.0-f.diffusion) * decayScale // parallel component
			}
			sum += delayOutputs[j] * float32(f.feedbackMatrix[i][j]*f.diffusion) * decayScale // cross-coupled component
		}
		feedbackInputs[i] = sum
	}

	for i := 0; i < f.numDelays; i++ {
		in := input*float32(f.inputGains[i]) + feedbackInputs[i]
		in = f.dampingFilters[i].Process(in)
		f.delayLines[i][f.writeAt[i]] = in
		f.writeAt[i] = (f.writeAt[i] + 1) % len(f.delayLines[i])
	}

	var output float32
	for i := 0; i < f.numDelays; i++ {
		output += delayOutputs[i] * float32(f.outputGains[i])
	}
	return input*float32(f.dryLevel) + output*float32(f.wetLevel)
}

// ProcessStereo runs the mono sum through the network and adds a touch
// of stereo decorrelation from the first two delay lines' last-written
// samples before mixing back with the dry signal.
func (f *FDN) ProcessStereo(inputL, inputR float32) (outputL, outputR float32) {
	mono := (inputL + inputR) * 0.5
	wet := f.Process(mono) - mono*float32(f.dryLevel) // Process's wet part, already scaled by wetLevel
	outputL, outputR = wet, wet

	if f.numDelays >= 2 {
		const spread = 0.3
		outputL += f.lastWritten(0) * spread * float32(f.wetLevel)
		outputR += f.lastWritten(1) * spread * float32(f.wetLevel)
	}

	outputL = inputL*float32(f.dryLevel) + outputL
	outputR = inputR*float32(f.dryLevel) + outputR
	return outputL, outputR
}

// lastWritten returns the most recently written sample on delay line i.
func (f *FDN) lastWritten(i int) float32 {
	n := len(f.delayLines[i])
	idx := (f.writeAt[i] - 1 + n) % n
	return f.delayLines[i][idx]
}

// Reset clears every delay line, damping filter, and LFO phase.
func (f *FDN) Reset() {
	for i := 0; i < f.numDelays; i++ {
		for j := range f.delayLines[i] {
			f.delayLines[i][j] = 0
		}
		f.writeAt[i] = 0
		f.dampingFilters[i].Reset()
		f.modPhases[i] = float64(i) * 2.0 * math.Pi / float64(f.numDelays)
	}
}

// SetPresetSmallRoom configures the FDN for a small room.
func (f *FDN) SetPresetSmallRoom() {
	f.SetDecay(0.2)
	f.SetDamping(0.8)
	f.SetDiffusion(0.7)
	f.SetModulation(0.1)
	f.SetWetLevel(0.25)
	f.SetDryLevel(0.75)
}

// SetPresetMediumHall configures the FDN for a medium hall.
func (f *FDN) SetPresetMediumHall() {
	f.SetDecay(0.5)
	f.SetDamping(0.5)
	f.SetDiffusion(0.85)
	f.SetModulation(0.15)
	f.SetWetLevel(0.35)
	f.SetDryLevel(0.65)
}

// SetPresetLargeHall configures the FDN for a large hall.
func (f *FDN) SetPresetLargeHall() {
	f.SetDecay(0.8)
	f.SetDamping(0.3)
	f.SetDiffusion(0.9)
	f.SetModulation(0.2)
	f.SetWetLevel(0.4)
	f.SetDryLevel(0.6)
}

// SetPresetCathedral configures the FDN for a cathedral.
func (f *FDN) SetPresetCathedral() {
	f.SetDecay(0.95)
	f.SetDamping(0.1)
	f.SetDiffusion(0.95)
	f.SetModulation(0.25)
	f.SetWetLevel(0.5)
	f.SetDryLevel(0.5)
}
