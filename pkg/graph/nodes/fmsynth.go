package nodes

import (
	"math"

	"github.com/fernwave/tideline/pkg/graph"
	"github.com/fernwave/tideline/pkg/midi"
)

// FMAlgorithm selects how the four FM operators modulate each other,
// mirroring a DX7-style algorithm bank.
type FMAlgorithm uint32

const (
	// FMStack chains 1->2->3->4, the most harmonically rich routing.
	FMStack FMAlgorithm = iota
	// FMParallel sums all four operators directly, organ-like.
	FMParallel
	// FMBell pairs 1->2 and 3->4, both summed to output.
	FMBell
	// FMDual pairs 1->2->out and 3->4->out, same shape as Bell but kept
	// distinct for clone/parameter compatibility with the original.
	FMDual
)

const (
	fmParamAlgorithm uint32 = 0
	fmParamOp1Ratio  uint32 = 1
	fmParamOp1Level  uint32 = 2
	fmParamOp2Ratio  uint32 = 3
	fmParamOp2Level  uint32 = 4
	fmParamOp3Ratio  uint32 = 5
	fmParamOp3Level  uint32 = 6
	fmParamOp4Ratio  uint32 = 7
	fmParamOp4Level  uint32 = 8
)

type fmOperator struct {
	phase          float32
	frequencyRatio float32
	level          float32
}

// process renders one sample of phase-modulated output (PM, which sounds
// like FM) and advances the operator's phase.
func (o *fmOperator) process(baseFreq, modulation, sampleRate float32) float32 {
	freq := baseFreq * o.frequencyRatio
	out := float32(math.Sin(float64(o.phase*2*math.Pi+modulation))) * o.level
	o.phase += freq / sampleRate
	if o.phase >= 1 {
		o.phase -= 1
	}
	return out
}

func (o *fmOperator) reset() { o.phase = 0 }

// FMSynth is a 4-operator FM synthesizer voice driven by V/oct and gate
// CV, generating its own audio rather than processing an input signal.
type FMSynth struct {
	graph.BaseNode

	algorithm FMAlgorithm
	operators [4]fmOperator

	currentFrequency float32
	gateActive       bool
	sampleRate       uint32
}

// NewFMSynth returns an FMSynth node set to the Stack algorithm with a
// harmonic default ratio stack (1/2/3/4) and descending levels.
func NewFMSynth(name string) *FMSynth {
	s := &FMSynth{algorithm: FMStack, currentFrequency: 440, sampleRate: 48000}
	s.operators[0] = fmOperator{frequencyRatio: 1, level: 1}
	s.operators[1] = fmOperator{frequencyRatio: 2, level: 0.8}
	s.operators[2] = fmOperator{frequencyRatio: 3, level: 0.6}
	s.operators[3] = fmOperator{frequencyRatio: 4, level: 0.4}

	s.NodeName = name
	s.Cat = graph.CategoryGenerator
	s.InPorts = []graph.Port{
		{Name: "V/Oct", Signal: graph.SignalCV, Index: 0},
		{Name: "Gate", Signal: graph.SignalCV, Index: 1},
	}
	s.OutPorts = []graph.Port{{Name: "Audio Out", Signal: graph.SignalAudio, Index: 0}}
	s.ParamTable = []graph.Parameter{
		{ID: fmParamAlgorithm, Name: "Algorithm", Min: 0, Max: 3, Default: 0, Unit: graph.UnitGeneric},
		{ID: fmParamOp1Ratio, Name: "Op1 Ratio", Min: 0.25, Max: 16, Default: 1, Unit: graph.UnitGeneric},
		{ID: fmParamOp1Level, Name: "Op1 Level", Min: 0, Max: 1, Default: 1, Unit: graph.UnitGeneric},
		{ID: fmParamOp2Ratio, Name: "Op2 Ratio", Min: 0.25, Max: 16, Default: 2, Unit: graph.UnitGeneric},
		{ID: fmParamOp2Level, Name: "Op2 Level", Min: 0, Max: 1, Default: 0.8, Unit: graph.UnitGeneric},
		{ID: fmParamOp3Ratio, Name: "Op3 Ratio", Min: 0.25, Max: 16, Default: 3, Unit: graph.UnitGeneric},
		{ID: fmParamOp3Level, Name: "Op3 Level", Min: 0, Max: 1, Default: 0.6, Unit: graph.UnitGeneric},
		{ID: fmParamOp4Ratio, Name: "Op4 Ratio", Min: 0.25, Max: 16, Default: 4, Unit: graph.UnitGeneric},
		{ID: fmParamOp4Level, Name: "Op4 Level", Min: 0, Max: 1, Default: 0.4, Unit: graph.UnitGeneric},
	}
	return s
}

func (s *FMSynth) SetParameter(id uint32, value float32) {
	switch id {
	case fmParamAlgorithm:
		s.algorithm = FMAlgorithm(clampf(value, 0, 3))
	case fmParamOp1Ratio:
		s.operators[0].frequencyRatio = clampf(value, 0.25, 16)
	case fmParamOp1Level:
		s.operators[0].level = clampf(value, 0, 1)
	case fmParamOp2Ratio:
		s.operators[1].frequencyRatio = clampf(value, 0.25, 16)
	case fmParamOp2Level:
		s.operators[1].level = clampf(value, 0, 1)
	case fmParamOp3Ratio:
		s.operators[2].frequencyRatio = clampf(value, 0.25, 16)
	case fmParamOp3Level:
		s.operators[2].level = clampf(value, 0, 1)
	case fmParamOp4Ratio:
		s.operators[3].frequencyRatio = clampf(value, 0.25, 16)
	case fmParamOp4Level:
		s.operators[3].level = clampf(value, 0, 1)
	}
}

func (s *FMSynth) GetParameter(id uint32) float32 {
	switch id {
	case fmParamAlgorithm:
		return float32(s.algorithm)
	case fmParamOp1Ratio:
		return s.operators[0].frequencyRatio
	case fmParamOp1Level:
		return s.operators[0].level
	case fmParamOp2Ratio:
		return s.operators[1].frequencyRatio
	case fmParamOp2Level:
		return s.operators[1].level
	case fmParamOp3Ratio:
		return s.operators[2].frequencyRatio
	case fmParamOp3Level:
		return s.operators[2].level
	case fmParamOp4Ratio:
		return s.operators[3].frequencyRatio
	case fmParamOp4Level:
		return s.operators[3].level
	}
	return 0
}

// processAlgorithm renders one sample of the currently selected routing.
func (s *FMSynth) processAlgorithm() float32 {
	if !s.gateActive {
		return 0
	}
	baseFreq := s.currentFrequency
	sr := float32(s.sampleRate)

	switch s.algorithm {
	case FMStack:
		op4 := s.operators[3].process(baseFreq, 0, sr)
		op3 := s.operators[2].process(baseFreq, op4*2, sr)
		op2 := s.operators[1].process(baseFreq, op3*2, sr)
		op1 := s.operators[0].process(baseFreq, op2*2, sr)
		return op1
	case FMParallel:
		op1 := s.operators[0].process(baseFreq, 0, sr)
		op2 := s.operators[1].process(baseFreq, 0, sr)
		op3 := s.operators[2].process(baseFreq, 0, sr)
		op4 := s.operators[3].process(baseFreq, 0, sr)
		return (op1 + op2 + op3 + op4) * 0.25
	case FMBell, FMDual:
		op2 := s.operators[1].process(baseFreq, 0, sr)
		op1 := s.operators[0].process(baseFreq, op2*2, sr)
		op4 := s.operators[3].process(baseFreq, 0, sr)
		op3 := s.operators[2].process(baseFreq, op4*2, sr)
		return (op1 + op3) * 0.5
	}
	return 0
}

func (s *FMSynth) Process(inputs [][]float32, outputs [][]float32, midiIn [][]midi.Event, midiOut [][]midi.Event, sampleRate uint32) {
	if len(outputs) == 0 {
		return
	}
	s.sampleRate = sampleRate
	out := outputs[0]
	frames := len(out) / 2

	for fr := 0; fr < frames; fr++ {
		var voct, gate float32
		if len(inputs) > 0 {
			voct = graphSampleAt(inputs[0], fr)
		}
		if len(inputs) > 1 {
			gate = graphSampleAt(inputs[1], fr)
		}
		s.currentFrequency = float32(voctToFreq(voct))
		s.gateActive = gate > 0.5

		sample := s.processAlgorithm() * 0.3
		out[fr*2] = sample
		out[fr*2+1] = sample
	}
}

func (s *FMSynth) Reset() {
	for i := range s.operators {
		s.operators[i].reset()
	}
	s.gateActive = false
}

func (s *FMSynth) NodeType() string { return "FMSynth" }

func (s *FMSynth) Clone() graph.Node {
	c := NewFMSynth(s.NodeName)
	c.algorithm = s.algorithm
	c.operators = s.operators
	for i := range c.operators {
		c.operators[i].phase = 0
	}
	return c
}
