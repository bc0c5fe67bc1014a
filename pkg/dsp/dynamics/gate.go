package dynamics

import (
	"math"

	"github.com/fernwave/tideline/pkg/dsp/envelope"
)

// Gate implements a noise gate with hysteresis and smooth operation
type Gate struct {
	sampleRate float64

	threshold  float64 // Open threshold in dB
	hysteresis float64 // Hysteresis in dB (threshold difference for closing)
	attack     float64 // Attack time in seconds
	hold       float64 // Hold time in seconds
	release    float64 // Release time in seconds
	range_     float64 // Range in dB (max attenuation when closed)

	hpfEnabled   bool
	hpfFrequency float64
	hpfState     float64 // 1-pole HPF state

	detector *envelope.Detector

	state       gateState
	holdCounter int
	holdSamples int
	currentGain float64
	targetGain  float64

	attackCoeff  float64
	releaseCoeff float64

	lastInput     float32
	gateOpen      bool
	gainReduction float64 // For metering
}

// gateState represents the current state of the gate
type gateState int

const (
	gateStateClosed gateState = iota
	gateStateAttack
	gateStateOpen
	gateStateHold
	gateStateRelease
)

// NewGate creates a new noise gate
func NewGate(sampleRate float64) *Gate {
	g := &Gate{
		sampleRate: sampleRate,
		threshold:  -40.0,
		hysteresis: 5.0,
		attack:     0.001,
		hold:       0.010,
		release:    0.100,
		range_:     -80.0,
		state:      gateStateClosed,
		detector:   envelope.NewDetector(sampleRate, envelope.ModePeak),
	}

	g.currentGain = math.Pow(10.0, g.range_/20.0)
	g.targetGain = g.currentGain
	g.gainReduction = g.range_

	g.detector.SetType(envelope.TypeLinear)
	g.detector.SetAttack(0.0001)
	g.detector.SetRelease(0.010)

	g.updateCoefficients()
	g.SetHold(g.hold)

	return g
}

// SetThreshold sets the gate opening threshold in dB
func (g *Gate) SetThreshold(dB float64) { g.threshold = dB }

// SetHysteresis sets the hysteresis in dB
func (g *Gate) SetHysteresis(dB float64) { g.hysteresis = math.Max(0.0, dB) }

// SetAttack sets the attack time in seconds
func (g *Gate) SetAttack(seconds float64) {
	g.attack = math.Max(0.0, seconds)
	g.updateCoefficients()
}

// SetHold sets the hold time in seconds
func (g *Gate) SetHold(seconds float64) {
	g.hold = math.Max(0.0, seconds)
	g.holdSamples = int(g.hold * g.sampleRate)
}

// SetRelease sets the release time in seconds
func (g *Gate) SetRelease(seconds float64) {
	g.release = math.Max(0.0, seconds)
	g.updateCoefficients()
}

// SetRange sets the gate range (max attenuation) in dB
func (g *Gate) SetRange(dB float64) {
	g.range_ = math.Min(0.0, dB)

	if g.state == gateStateClosed {
		g.currentGain = math.Pow(10.0, g.range_/20.0)
		g.targetGain = g.currentGain
		g.gainReduction = g.range_
	}
}

// SetSidechainFilter enables/disables the sidechain high-pass filter
func (g *Gate) SetSidechainFilter(enabled bool, frequency float64) {
	g.hpfEnabled = enabled
	g.hpfFrequency = math.Max(20.0, math.Min(frequency, g.sampleRate/2))
}

// updateCoefficients updates the attack/release one-pole smoothing
// coefficients: coeff = exp(-1 / (time * sampleRate)).
func (g *Gate) updateCoefficients() {
	g.attackCoeff = 0.0
	if g.attack > 0 {
		g.attackCoeff = math.Exp(-1.0 / (g.attack * g.sampleRate))
	}

	g.releaseCoeff = 0.0
	if g.release > 0 {
		g.releaseCoeff = math.Exp(-1.0 / (g.release * g.sampleRate))
	}
}

// applySidechainFilter applies the optional one-pole sidechain high-pass:
// H(z) = ((1+a)/2) * (1 - z^-1) / (1 - a*z^-1), a = exp(-2*pi*fc/fs).
func (g *Gate) applySidechainFilter(input float32) float32 {
	if !g.hpfEnabled {
		return input
	}

	a := math.Exp(-2.0 * math.Pi * g.hpfFrequency / g.sampleRate)
	output := float32((1+a)/2)*(input-g.lastInput) + float32(a)*float32(g.hpfState)

	g.lastInput = input
	g.hpfState = float64(output)

	return output
}

// advance runs the open/close state machine and gain smoothing for one
// sample's detected level (in dB), returning the linear gain to apply.
// Shared by Process and ProcessStereo so the two don't drift.
func (g *Gate) advance(inputDB float64) float32 {
	switch g.state {
	case gateStateClosed:
		if inputDB > g.threshold {
			g.state = gateStateAttack
			g.targetGain = 1.0
		}

	case gateStateAttack:
		if g.currentGain >= 0.99 {
			g.state = gateStateOpen
			g.gateOpen = true
		} else if inputDB < g.threshold-g.hysteresis {
			g.state = gateStateRelease
			g.targetGain = math.Pow(10.0, g.range_/20.0)
		}

	case gateStateOpen:
		if inputDB < g.threshold-g.hysteresis {
			g.state = gateStateHold
			g.holdCounter = g.holdSamples
		}

	case gateStateHold:
		if inputDB > g.threshold-g.hysteresis {
			g.state = gateStateOpen
		} else if g.holdCounter > 0 {
			g.holdCounter--
		} else {
			g.state = gateStateRelease
			g.targetGain = math.Pow(10.0, g.range_/20.0)
			g.gateOpen = false
		}

	case gateStateRelease:
		if inputDB > g.threshold {
			g.state = gateStateAttack
			g.targetGain = 1.0
		} else if g.currentGain <= g.targetGain*1.01 {
			g.state = gateStateClosed
		}
	}

	coeff := g.releaseCoeff
	if g.currentGain < g.targetGain {
		coeff = g.attackCoeff
	}
	if coeff == 0 {
		g.currentGain = g.targetGain
	} else {
		g.currentGain = g.targetGain + (g.currentGain-g.targetGain)*coeff
	}

	if g.state == gateStateAttack && g.currentGain >= 0.99 {
		g.state = gateStateOpen
		g.gateOpen = true
	} else if g.state == gateStateRelease && g.currentGain <= g.targetGain*1.01 {
		g.state = gateStateClosed
	}

	if g.currentGain > 0 {
		g.gainReduction = 20.0 * math.Log10(g.currentGain)
		if g.gainReduction > -0.1 {
			g.gainReduction = 0.0
		}
	} else {
		g.gainReduction = g.range_
	}

	return float32(g.currentGain)
}

// levelDB rectifies, filters through the sidechain HPF, and converts a
// detection sample to dB.
func (g *Gate) levelDB(input float32) float64 {
	detection := g.applySidechainFilter(input)
	level := float64(math.Abs(float64(detection)))
	if level > 0 {
		return 20.0 * math.Log10(level)
	}
	return -96.0
}

// Process processes a single sample
func (g *Gate) Process(input float32) float32 {
	return input * g.advance(g.levelDB(input))
}

// ProcessBuffer processes a buffer of samples
func (g *Gate) ProcessBuffer(input, output []float32) {
	for i := range input {
		output[i] = g.Process(input[i])
	}
}

// ProcessStereo processes stereo buffers with linked gating, using the
// louder channel to drive the shared gain.
func (g *Gate) ProcessStereo(inputL, inputR, outputL, outputR []float32) {
	for i := range inputL {
		maxInput := float32(math.Max(math.Abs(float64(inputL[i])), math.Abs(float64(inputR[i]))))
		gain := g.advance(g.levelDB(maxInput))
		outputL[i] = inputL[i] * gain
		outputR[i] = inputR[i] * gain
	}
}

// GetGainReduction returns the current gain reduction in dB
func (g *Gate) GetGainReduction() float64 { return g.gainReduction }

// IsOpen returns true if the gate is currently open
func (g *Gate) IsOpen() bool { return g.gateOpen }

// GetState returns the current gate state for debugging
func (g *Gate) GetState() string {
	switch g.state {
	case gateStateClosed:
		return "closed"
	case gateStateAttack:
		return "attack"
	case gateStateOpen:
		return "open"
	case gateStateHold:
		return "hold"
	case gateStateRelease:
		return "release"
	default:
		return "unknown"
	}
}

// Reset resets the gate state
func (g *Gate) Reset() {
	g.detector.Reset()
	g.state = gateStateClosed
	g.currentGain = math.Pow(10.0, g.range_/20.0)
	g.targetGain = g.currentGain
	g.holdCounter = 0
	g.gateOpen = false
	g.gainReduction = g.range_
	g.hpfState = 0.0
	g.lastInput = 0.0
}
