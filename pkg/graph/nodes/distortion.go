package nodes

import (
	"github.com/fernwave/tideline/pkg/dsp/distortion"
	"github.com/fernwave/tideline/pkg/graph"
	"github.com/fernwave/tideline/pkg/midi"
)

// DistortionType selects which saturation algorithm a Distortion node
// runs.
type DistortionType int

const (
	DistortionWaveshaper DistortionType = iota
	DistortionTape
	DistortionTube
	DistortionBitcrusher
)

const (
	distParamType  uint32 = 0
	distParamDrive uint32 = 1
	distParamMix   uint32 = 2
)

// Distortion is a selectable-algorithm saturation/crush node, processed
// independently per channel.
type Distortion struct {
	graph.BaseNode

	kind  DistortionType
	drive float32
	mix   float32

	shaper     [2]*distortion.Waveshaper
	tape       [2]*distortion.TapeSaturation
	tube       [2]*distortion.TubeSaturator
	crusher    [2]*distortion.BitCrusher
	sampleRate float64
}

// NewDistortion returns a Distortion node defaulting to the waveshaper
// algorithm.
func NewDistortion(name string) *Distortion {
	d := &Distortion{drive: 1, mix: 1, sampleRate: 48000}
	d.NodeName = name
	d.Cat = graph.CategoryDistortion
	d.InPorts = []graph.Port{{Name: "Audio In", Signal: graph.SignalAudio, Index: 0}}
	d.OutPorts = []graph.Port{{Name: "Audio Out", Signal: graph.SignalAudio, Index: 0}}
	d.ParamTable = []graph.Parameter{
		{ID: distParamType, Name: "Type", Min: 0, Max: 3, Default: 0, Unit: graph.UnitGeneric},
		{ID: distParamDrive, Name: "Drive", Min: 0, Max: 10, Default: 1, Unit: graph.UnitGeneric},
		{ID: distParamMix, Name: "Mix", Min: 0, Max: 1, Default: 1, Unit: graph.UnitPercent},
	}
	for ch := 0; ch < 2; ch++ {
		d.shaper[ch] = distortion.NewWaveshaper(distortion.CurveSoftClip)
		d.tape[ch] = distortion.NewTapeSaturation(d.sampleRate)
		d.tube[ch] = distortion.NewTubeSaturator(d.sampleRate)
		d.crusher[ch] = distortion.NewBitCrusher(d.sampleRate)
	}
	d.applyParams()
	return d
}

func (d *Distortion) applyParams() {
	for ch := 0; ch < 2; ch++ {
		d.shaper[ch].SetDrive(float64(d.drive))
		d.shaper[ch].SetMix(float64(d.mix))
		d.tape[ch].SetSaturation(float64(d.drive) / 10)
		d.tape[ch].SetMix(float64(d.mix))
		d.tube[ch].SetDrive(float64(d.drive))
		d.tube[ch].SetMix(float64(d.mix))
	}
}

func (d *Distortion) SetParameter(id uint32, value float32) {
	switch id {
	case distParamType:
		d.kind = DistortionType(value)
	case distParamDrive:
		d.drive = value
	case distParamMix:
		d.mix = value
	}
	d.applyParams()
}

func (d *Distortion) GetParameter(id uint32) float32 {
	switch id {
	case distParamType:
		return float32(d.kind)
	case distParamDrive:
		return d.drive
	case distParamMix:
		return d.mix
	}
	return 0
}

func (d *Distortion) Process(inputs [][]float32, outputs [][]float32, midiIn [][]midi.Event, midiOut [][]midi.Event, sampleRate uint32) {
	if len(outputs) == 0 || len(inputs) == 0 {
		return
	}
	in := inputs[0]
	out := outputs[0]
	frames := len(out) / 2
	for fr := 0; fr < frames; fr++ {
		for ch := 0; ch < 2; ch++ {
			x := float64(in[fr*2+ch])
			var y float64
			switch d.kind {
			case DistortionWaveshaper:
				y = d.shaper[ch].Process(x)
			case DistortionTape:
				y = d.tape[ch].Process(x)
			case DistortionTube:
				y = d.tube[ch].Process(x)
			case DistortionBitcrusher:
				y = d.crusher[ch].Process(x)
			}
			out[fr*2+ch] = float32(y)
		}
	}
}

func (d *Distortion) Reset() {}

func (d *Distortion) NodeType() string { return "Distortion" }

func (d *Distortion) Clone() graph.Node {
	c := NewDistortion(d.NodeName)
	c.kind, c.drive, c.mix = d.kind, d.drive, d.mix
	c.applyParams()
	return c
}
