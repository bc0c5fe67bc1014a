package nodes

import (
	"math"

	"github.com/fernwave/tideline/pkg/graph"
	"github.com/fernwave/tideline/pkg/midi"
)

const (
	vocoderParamBands   uint32 = 0
	vocoderParamAttack  uint32 = 1
	vocoderParamRelease uint32 = 2
	vocoderParamMix     uint32 = 3
)

const vocoderMaxBands = 32

// vocoderBandpass is a per-sample biquad bandpass with independent state
// for the modulator and carrier signal paths (each in turn split L/R),
// since both signals pass through the same band simultaneously.
type vocoderBandpass struct {
	b0, b1, b2, a1, a2                             float32
	modZ1L, modZ2L, modZ1R, modZ2R float32
	carZ1L, carZ2L, carZ1R, carZ2R float32
}

func (f *vocoderBandpass) setBandpass(frequency, q, sampleRate float32) {
	omega := 2 * math.Pi * float64(frequency) / float64(sampleRate)
	sinOmega := float32(math.Sin(omega))
	cosOmega := float32(math.Cos(omega))
	alpha := sinOmega / (2 * q)

	a0 := 1 + alpha
	f.b0 = alpha / a0
	f.b1 = 0
	f.b2 = -alpha / a0
	f.a1 = -2 * cosOmega / a0
	f.a2 = (1 - alpha) / a0
}

func (f *vocoderBandpass) processModulator(input float32, left bool) float32 {
	z1, z2 := &f.modZ1R, &f.modZ2R
	if left {
		z1, z2 = &f.modZ1L, &f.modZ2L
	}
	out := f.b0*input + f.b1**z1 + f.b2**z2 - f.a1**z1 - f.a2**z2
	*z2 = *z1
	*z1 = out
	return out
}

func (f *vocoderBandpass) processCarrier(input float32, left bool) float32 {
	z1, z2 := &f.carZ1R, &f.carZ2R
	if left {
		z1, z2 = &f.carZ1L, &f.carZ2L
	}
	out := f.b0*input + f.b1**z1 + f.b2**z2 - f.a1**z1 - f.a2**z2
	*z2 = *z1
	*z1 = out
	return out
}

func (f *vocoderBandpass) reset() {
	f.modZ1L, f.modZ2L, f.modZ1R, f.modZ2R = 0, 0, 0, 0
	f.carZ1L, f.carZ2L, f.carZ1R, f.carZ2R = 0, 0, 0, 0
}

type vocoderBand struct {
	filter               vocoderBandpass
	envelopeL, envelopeR float32
}

func (b *vocoderBand) reset() {
	b.filter.reset()
	b.envelopeL, b.envelopeR = 0, 0
}

// Vocoder imposes the spectral envelope of a modulator signal onto a
// carrier signal through a bank of bandpass filters with per-band
// envelope followers, the classic analog vocoder topology.
type Vocoder struct {
	graph.BaseNode

	numBands              int
	attack, release, mix float32
	bands                  [vocoderMaxBands]vocoderBand
	sampleRate             uint32
}

// NewVocoder returns a Vocoder node with 16 bands spanning 200Hz-5kHz.
func NewVocoder(name string) *Vocoder {
	v := &Vocoder{numBands: 16, attack: 0.01, release: 0.05, mix: 1, sampleRate: 48000}
	v.NodeName = name
	v.Cat = graph.CategoryUtility
	v.InPorts = []graph.Port{
		{Name: "Modulator", Signal: graph.SignalAudio, Index: 0},
		{Name: "Carrier", Signal: graph.SignalAudio, Index: 1},
	}
	v.OutPorts = []graph.Port{{Name: "Audio Out", Signal: graph.SignalAudio, Index: 0}}
	v.ParamTable = []graph.Parameter{
		{ID: vocoderParamBands, Name: "Bands", Min: 8, Max: 32, Default: 16, Unit: graph.UnitGeneric},
		{ID: vocoderParamAttack, Name: "Attack", Min: 0.001, Max: 0.1, Default: 0.01, Unit: graph.UnitSeconds},
		{ID: vocoderParamRelease, Name: "Release", Min: 0.001, Max: 1, Default: 0.05, Unit: graph.UnitSeconds},
		{ID: vocoderParamMix, Name: "Mix", Min: 0, Max: 1, Default: 1, Unit: graph.UnitPercent},
	}
	v.setupBands()
	return v
}

// setupBands distributes the active bands logarithmically between
// 200Hz and 5000Hz with a Q of 4.
func (v *Vocoder) setupBands() {
	const minFreq, maxFreq, q float32 = 200, 5000, 4
	for i := 0; i < v.numBands; i++ {
		t := float32(i) / float32(v.numBands-1)
		freq := minFreq * float32(math.Pow(float64(maxFreq/minFreq), float64(t)))
		v.bands[i].filter.setBandpass(freq, q, float32(v.sampleRate))
	}
}

func (v *Vocoder) SetParameter(id uint32, value float32) {
	switch id {
	case vocoderParamBands:
		bands := int(value + 0.5)
		if bands < 8 {
			bands = 8
		}
		if bands > 32 {
			bands = 32
		}
		if bands != v.numBands {
			v.numBands = bands
			v.setupBands()
		}
	case vocoderParamAttack:
		v.attack = clampf(value, 0.001, 0.1)
	case vocoderParamRelease:
		v.release = clampf(value, 0.001, 1)
	case vocoderParamMix:
		v.mix = clampf(value, 0, 1)
	}
}

func (v *Vocoder) GetParameter(id uint32) float32 {
	switch id {
	case vocoderParamBands:
		return float32(v.numBands)
	case vocoderParamAttack:
		return v.attack
	case vocoderParamRelease:
		return v.release
	case vocoderParamMix:
		return v.mix
	}
	return 0
}

func (v *Vocoder) Process(inputs [][]float32, outputs [][]float32, midiIn [][]midi.Event, midiOut [][]midi.Event, sampleRate uint32) {
	if len(inputs) < 2 || len(outputs) == 0 {
		return
	}
	if v.sampleRate != sampleRate {
		v.sampleRate = sampleRate
		v.setupBands()
	}
	modulator, carrier, out := inputs[0], inputs[1], outputs[0]
	frames := min3(len(modulator)/2, len(carrier)/2, len(out)/2)

	sampleDuration := 1 / float32(v.sampleRate)
	attackCoeff := minf(sampleDuration/v.attack, 1)
	releaseCoeff := minf(sampleDuration/v.release, 1)

	for fr := 0; fr < frames; fr++ {
		modL, modR := modulator[fr*2], modulator[fr*2+1]
		carL, carR := carrier[fr*2], carrier[fr*2+1]

		var outL, outR float32
		for i := 0; i < v.numBands; i++ {
			band := &v.bands[i]

			modBandL := band.filter.processModulator(modL, true)
			modBandR := band.filter.processModulator(modR, false)
			carBandL := band.filter.processCarrier(carL, true)
			carBandR := band.filter.processCarrier(carR, false)

			levelL := absf(modBandL)
			levelR := absf(modBandR)

			coeffL := releaseCoeff
			if levelL > band.envelopeL {
				coeffL = attackCoeff
			}
			coeffR := releaseCoeff
			if levelR > band.envelopeR {
				coeffR = attackCoeff
			}

			band.envelopeL += (levelL - band.envelopeL) * coeffL
			band.envelopeR += (levelR - band.envelopeR) * coeffR

			outL += carBandL * band.envelopeL
			outR += carBandR * band.envelopeR
		}

		norm := 1 / float32(math.Sqrt(float64(v.numBands)))
		outL *= norm
		outR *= norm

		out[fr*2] = carL*(1-v.mix) + outL*v.mix
		out[fr*2+1] = carR*(1-v.mix) + outR*v.mix
	}
}

func (v *Vocoder) Reset() {
	for i := range v.bands {
		v.bands[i].reset()
	}
}

func (v *Vocoder) NodeType() string { return "Vocoder" }

func (v *Vocoder) Clone() graph.Node {
	c := NewVocoder(v.NodeName)
	c.numBands, c.attack, c.release, c.mix = v.numBands, v.attack, v.release, v.mix
	c.sampleRate = v.sampleRate
	c.setupBands()
	return c
}

func clampf(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func absf(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

func minf(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
