// Package nodes is the fixed node catalogue: every concrete graph.Node
// the engine ships with, one file per family, each wrapping a pkg/dsp
// primitive behind the graph.Node contract.
package nodes

import (
	"math"

	"github.com/fernwave/tideline/pkg/dsp/oscillator"
	"github.com/fernwave/tideline/pkg/graph"
	"github.com/fernwave/tideline/pkg/midi"
)

// Waveform selects which of the oscillator's generators is used.
type Waveform int

const (
	WaveSine Waveform = iota
	WaveSaw
	WaveBandLimitedSaw
	WaveSquare
	WavePulse
	WaveTriangle
	WaveBLIT
)

const (
	oscParamWaveform   uint32 = 0
	oscParamPulseWidth uint32 = 1
	oscParamDetune     uint32 = 2
)

// Oscillator is a V/oct-controlled tone generator node. Gate input isn't
// used directly — gating happens in VoiceAllocator / envelope nodes
// downstream — but the node tracks note-on/off from its MIDI input so it
// can be driven directly outside a voice allocator too.
type Oscillator struct {
	graph.BaseNode

	wave       Waveform
	pulseWidth float32
	detune     float32

	sine   *oscillator.Oscillator
	blit   *oscillator.BLITOscillator
	bsaw   *oscillator.BandLimitedSaw
	freq   float64
}

// NewOscillator returns an Oscillator node with the given display name.
func NewOscillator(name string) *Oscillator {
	o := &Oscillator{
		pulseWidth: 0.5,
		detune:     0,
		freq:       440,
	}
	o.NodeName = name
	o.Cat = graph.CategoryGenerator
	o.InPorts = []graph.Port{
		{Name: "V/Oct", Signal: graph.SignalCV, Index: 0},
		{Name: "Gate", Signal: graph.SignalCV, Index: 1},
		{Name: "MIDI In", Signal: graph.SignalMidi, Index: 2},
	}
	o.OutPorts = []graph.Port{{Name: "Audio Out", Signal: graph.SignalAudio, Index: 0}}
	o.ParamTable = []graph.Parameter{
		{ID: oscParamWaveform, Name: "Waveform", Min: 0, Max: 6, Default: 0, Unit: graph.UnitGeneric},
		{ID: oscParamPulseWidth, Name: "Pulse Width", Min: 0.01, Max: 0.99, Default: 0.5, Unit: graph.UnitPercent},
		{ID: oscParamDetune, Name: "Detune", Min: -1, Max: 1, Default: 0, Unit: graph.UnitSemitones},
	}
	o.sine = oscillator.New(48000)
	o.blit = oscillator.NewBLIT(48000)
	o.bsaw = oscillator.NewBandLimitedSaw(48000)
	return o
}

func (o *Oscillator) SetParameter(id uint32, value float32) {
	switch id {
	case oscParamWaveform:
		o.wave = Waveform(value)
	case oscParamPulseWidth:
		o.pulseWidth = value
	case oscParamDetune:
		o.detune = value
	}
}

func (o *Oscillator) GetParameter(id uint32) float32 {
	switch id {
	case oscParamWaveform:
		return float32(o.wave)
	case oscParamPulseWidth:
		return o.pulseWidth
	case oscParamDetune:
		return o.detune
	}
	return 0
}

// voctToFreq applies the engine-wide V/oct convention: 0.0 V = A4 = 440Hz,
// one octave per volt.
func voctToFreq(voct float32) float64 {
	return 440.0 * math.Pow(2, float64(voct))
}

func (o *Oscillator) Process(inputs [][]float32, outputs [][]float32, midiIn [][]midi.Event, midiOut [][]midi.Event, sampleRate uint32) {
	if len(outputs) == 0 {
		return
	}
	out := outputs[0]
	frames := len(out) / 2

	var voct []float32
	if len(inputs) > 0 {
		voct = inputs[0]
	}

	for f := 0; f < frames; f++ {
		v := graphSampleAt(voct, f) + o.detune/12.0
		freq := voctToFreq(v)

		var s float32
		switch o.wave {
		case WaveSine:
			o.sine.SetFrequency(freq)
			s = o.sine.Sine()
		case WaveSaw:
			o.sine.SetFrequency(freq)
			s = o.sine.Saw()
		case WaveBandLimitedSaw:
			o.bsaw.SetFrequency(freq)
			s = o.bsaw.Next()
		case WaveSquare:
			o.sine.SetFrequency(freq)
			s = o.sine.Square()
		case WavePulse:
			o.sine.SetFrequency(freq)
			s = o.sine.Pulse(float64(o.pulseWidth))
		case WaveTriangle:
			o.sine.SetFrequency(freq)
			s = o.sine.Triangle()
		case WaveBLIT:
			o.blit.SetFrequency(freq)
			s = o.blit.BLIT()
		}
		out[f*2] = s
		out[f*2+1] = s
	}
}

func (o *Oscillator) Reset() {
	o.sine.Reset()
	o.blit.Reset()
}

func (o *Oscillator) NodeType() string { return "Oscillator" }

func (o *Oscillator) Clone() graph.Node {
	c := NewOscillator(o.NodeName)
	c.wave = o.wave
	c.pulseWidth = o.pulseWidth
	c.detune = o.detune
	return c
}

func graphSampleAt(buf []float32, frame int) float32 {
	if len(buf) == 0 {
		return 0
	}
	n := len(buf) / 2
	if n == 0 {
		return 0
	}
	if frame >= n {
		frame = n - 1
	}
	return buf[frame*2]
}
