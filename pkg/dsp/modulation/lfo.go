// Package modulation holds the engine's time-varying modulation effects:
// a standalone LFO plus the chorus/flanger/phaser/tremolo/ring-mod
// effects built on top of it.
package modulation

import "math"

// Waveform selects the shape an LFO traces through its phase cycle.
type Waveform int

const (
	WaveformSine Waveform = iota
	WaveformTriangle
	WaveformSquare
	WaveformSawtooth
	WaveformRandom // sample-and-hold noise, one new value per cycle
)

// LFO is a low frequency oscillator: Process advances its phase by one
// sample and returns the shaped, depth-scaled, offset output.
type LFO struct {
	sampleRate float64

	frequency float64 // Hz
	phase     float64 // 0-1
	waveform  Waveform
	depth     float64 // 0-1
	offset    float64 // -1 to 1 DC offset

	syncEnabled bool
	syncPhase   float64

	phaseInc float64

	heldRandom  float64 // current sample-and-hold value
	holdElapsed int     // samples since the last hold update
	holdSamples int     // samples per hold period, derived from frequency
}

// NewLFO creates a new LFO
func NewLFO(sampleRate float64) *LFO {
	lfo := &LFO{
		sampleRate: sampleRate,
		frequency:  1.0,
		waveform:   WaveformSine,
		depth:      1.0,
		offset:     0.0,
		phase:      0.0,
	}

	lfo.updatePhaseIncrement()
	return lfo
}

// SetFrequency sets the LFO frequency in Hz, clamped to a musically
// useful sub-audio range.
func (l *LFO) SetFrequency(hz float64) {
	l.frequency = clamp(hz, 0.01, 20.0)
	l.updatePhaseIncrement()
}

// SetWaveform sets the LFO waveform, reseeding the sample-and-hold
// generator if switching to WaveformRandom.
func (l *LFO) SetWaveform(waveform Waveform) {
	l.waveform = waveform
	if waveform == WaveformRandom {
		l.updateHoldPeriod()
		l.heldRandom = 2.0*randFloat() - 1.0
		l.holdElapsed = 0
	}
}

func (l *LFO) SetDepth(depth float64)   { l.depth = clamp(depth, 0.0, 1.0) }
func (l *LFO) SetOffset(offset float64) { l.offset = clamp(offset, -1.0, 1.0) }

// SetPhase sets the current phase, wrapping to [0,1).
func (l *LFO) SetPhase(phase float64) {
	l.phase = phase - math.Floor(phase)
}

// EnableSync arms (or disarms) Sync to jump the phase to resetPhase.
func (l *LFO) EnableSync(enabled bool, resetPhase float64) {
	l.syncEnabled = enabled
	l.syncPhase = clamp(resetPhase, 0.0, 1.0)
}

// Sync jumps the phase to the armed sync point, if EnableSync(true, ...)
// was called; a no-op otherwise.
func (l *LFO) Sync() {
	if l.syncEnabled {
		l.phase = l.syncPhase
	}
}

func (l *LFO) updatePhaseIncrement() {
	l.phaseInc = l.frequency / l.sampleRate
	l.updateHoldPeriod()
}

// updateHoldPeriod derives how many samples WaveformRandom holds each
// value for from the configured frequency — one new value per cycle.
func (l *LFO) updateHoldPeriod() {
	if l.frequency > 0 {
		l.holdSamples = int(l.sampleRate / l.frequency)
	} else {
		l.holdSamples = int(l.sampleRate)
	}
}

// shape returns the raw, unscaled [-1,1] waveform value at the current
// phase.
func (l *LFO) shape() float64 {
	switch l.waveform {
	case WaveformSine:
		return math.Sin(2.0 * math.Pi * l.phase)

	case WaveformTriangle:
		if l.phase < 0.5 {
			return 4.0*l.phase - 1.0
		}
		return 3.0 - 4.0*l.phase

	case WaveformSquare:
		if l.phase < 0.5 {
			return 1.0
		}
		return -1.0

	case WaveformSawtooth:
		return 2.0*l.phase - 1.0

	case WaveformRandom:
		if l.holdElapsed >= l.holdSamples {
			l.holdElapsed = 0
			l.heldRandom = 2.0*randFloat() - 1.0
		}
		l.holdElapsed++
		return l.heldRandom

	default:
		return 0.0
	}
}

// Process advances the oscillator by one sample and returns the shaped,
// depth-scaled, offset output, clamped to [-1,1].
func (l *LFO) Process() float64 {
	output := l.shape()*l.depth + l.offset

	l.phase += l.phaseInc
	if l.phase >= 1.0 {
		l.phase -= 1.0
	}

	return clamp(output, -1.0, 1.0)
}

// ProcessBuffer fills output with consecutive Process samples.
func (l *LFO) ProcessBuffer(output []float64) {
	for i := range output {
		output[i] = l.Process()
	}
}

func (l *LFO) GetPhase() float64 { return l.phase }

// Reset rewinds the phase and sample-and-hold state.
func (l *LFO) Reset() {
	l.phase = 0.0
	l.holdElapsed = 0
	l.heldRandom = 0.0
}

// randState/randFloat is a small linear congruential generator so the
// random waveform doesn't need a *rand.Rand threaded through every LFO.
var randState uint32 = 1

func randFloat() float64 {
	randState = randState*1664525 + 1013904223
	return float64(randState) / float64(1<<32)
}
