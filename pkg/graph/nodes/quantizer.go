package nodes

import (
	"math"

	"github.com/fernwave/tideline/pkg/graph"
	"github.com/fernwave/tideline/pkg/midi"
)

const (
	quantParamScale uint32 = 0
	quantParamRoot  uint32 = 1
)

// scaleIntervals are semitone offsets from the root note for each scale
// selection (0=Chromatic .. 10=Octaves only), mirroring the original's
// get_scale_intervals table.
var scaleIntervals = [][]uint32{
	{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11}, // Chromatic
	{0, 2, 4, 5, 7, 9, 11},                 // Major
	{0, 2, 3, 5, 7, 8, 10},                 // Minor (natural)
	{0, 2, 4, 7, 9},                        // Pentatonic major
	{0, 3, 5, 7, 10},                       // Pentatonic minor
	{0, 2, 3, 5, 7, 9, 10},                 // Dorian
	{0, 1, 3, 5, 7, 8, 10},                 // Phrygian
	{0, 2, 4, 6, 7, 9, 11},                 // Lydian
	{0, 2, 4, 5, 7, 9, 10},                 // Mixolydian
	{0, 2, 4, 6, 8, 10},                    // Whole tone
	{0},                                    // Octaves only
}

// Quantizer snaps a V/oct CV stream to the nearest note in a musical
// scale, emitting a second gate output that pulses whenever the
// quantized note changes.
type Quantizer struct {
	graph.BaseNode

	scale    uint32
	rootNote uint32

	haveLast bool
	lastNote float32
}

// NewQuantizer returns a Quantizer defaulted to chromatic/root C.
func NewQuantizer(name string) *Quantizer {
	q := &Quantizer{}
	q.NodeName = name
	q.Cat = graph.CategoryUtility
	q.InPorts = []graph.Port{{Name: "CV In", Signal: graph.SignalCV, Index: 0}}
	q.OutPorts = []graph.Port{
		{Name: "CV Out", Signal: graph.SignalCV, Index: 0},
		{Name: "Gate Out", Signal: graph.SignalCV, Index: 1},
	}
	q.ParamTable = []graph.Parameter{
		{ID: quantParamScale, Name: "Scale", Min: 0, Max: 10, Default: 0, Unit: graph.UnitGeneric},
		{ID: quantParamRoot, Name: "Root", Min: 0, Max: 11, Default: 0, Unit: graph.UnitGeneric},
	}
	return q
}

func (q *Quantizer) SetParameter(id uint32, value float32) {
	switch id {
	case quantParamScale:
		q.scale = clampu(uint32(value), 0, 10)
	case quantParamRoot:
		q.rootNote = clampu(uint32(value), 0, 11)
	}
}

func (q *Quantizer) GetParameter(id uint32) float32 {
	switch id {
	case quantParamScale:
		return float32(q.scale)
	case quantParamRoot:
		return float32(q.rootNote)
	}
	return 0
}

func clampu(v, lo, hi uint32) uint32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// quantize maps a V/oct CV value (0V == A4 == MIDI 69) to the nearest
// note in the configured scale, returning the result as V/oct again.
func (q *Quantizer) quantize(cv float32) float32 {
	inputNote := clampf(cv*12+69, 0, 127)

	intervals := scaleIntervals[q.scale]

	octave := int32(math.Floor(float64(inputNote) / 12))
	noteInOctave := float32(math.Mod(float64(inputNote), 12))

	relativeToRoot := modf32(noteInOctave-float32(q.rootNote)+12, 12)

	closest := intervals[0]
	minDistance := absf(relativeToRoot - float32(closest))
	for _, interval := range intervals {
		d := absf(relativeToRoot - float32(interval))
		if d < minDistance {
			minDistance = d
			closest = interval
		}
	}

	quantizedInOctave := (q.rootNote + closest) % 12
	quantizedNote := clampf(float32(octave*12)+float32(quantizedInOctave), 0, 127)

	return (quantizedNote - 69) / 12
}

func modf32(v, m float32) float32 {
	r := v - float32(int32(v/m))*m
	if r < 0 {
		r += m
	}
	return r
}

func (q *Quantizer) Process(inputs [][]float32, outputs [][]float32, midiIn [][]midi.Event, midiOut [][]midi.Event, sampleRate uint32) {
	if len(inputs) == 0 || len(outputs) == 0 {
		return
	}
	in := inputs[0]
	cvOut := outputs[0]
	frames := len(cvOut) / 2

	var gateOut []float32
	if len(outputs) > 1 {
		gateOut = outputs[1]
	}

	for fr := 0; fr < frames; fr++ {
		quantized := q.quantize(graphSampleAt(in, fr))
		cvOut[fr*2] = quantized
		cvOut[fr*2+1] = quantized

		if gateOut != nil && fr*2+1 < len(gateOut) {
			var g float32
			if !q.haveLast || absf(quantized-q.lastNote) > 0.001 {
				g = 1
			}
			gateOut[fr*2] = g
			gateOut[fr*2+1] = g
		}

		q.lastNote = quantized
		q.haveLast = true
	}
}

func (q *Quantizer) Reset() {
	q.haveLast = false
	q.lastNote = 0
}

func (q *Quantizer) NodeType() string { return "Quantizer" }

func (q *Quantizer) Clone() graph.Node {
	c := NewQuantizer(q.NodeName)
	c.scale, c.rootNote = q.scale, q.rootNote
	return c
}
