package nodes

import (
	"math"

	"github.com/fernwave/tideline/pkg/graph"
	"github.com/fernwave/tideline/pkg/midi"
	"github.com/fernwave/tideline/pkg/pool"
)

const (
	samplerParamGain      uint32 = 0
	samplerParamLoop      uint32 = 1
	samplerParamPitch     uint32 = 2
	samplerParamSampleIdx uint32 = 3
)

// SimpleSampler plays back one pool.AudioSample, gate-triggered, with
// V/oct pitch tracking plus an additional pitch-shift parameter. The
// sample reference is a plain AudioPool index rather than the
// original's Arc<Mutex<Vec<f32>>>: the pool is already the engine's
// lock-free, content-addressed store, so pointing at it needs no
// additional synchronization.
type SimpleSampler struct {
	graph.BaseNode

	pool        *pool.AudioPool
	sampleIdx   uint32
	gain        float32
	loopEnabled bool
	pitchShift  float32

	playhead  float32
	isPlaying bool
	gatePrev  bool
}

// NewSimpleSampler returns a SimpleSampler node reading from audioPool.
func NewSimpleSampler(name string, audioPool *pool.AudioPool) *SimpleSampler {
	s := &SimpleSampler{pool: audioPool, gain: 1}
	s.NodeName = name
	s.Cat = graph.CategoryGenerator
	s.InPorts = []graph.Port{
		{Name: "V/Oct", Signal: graph.SignalCV, Index: 0},
		{Name: "Gate", Signal: graph.SignalCV, Index: 1},
	}
	s.OutPorts = []graph.Port{{Name: "Audio Out", Signal: graph.SignalAudio, Index: 0}}
	s.ParamTable = []graph.Parameter{
		{ID: samplerParamGain, Name: "Gain", Min: 0, Max: 2, Default: 1, Unit: graph.UnitGeneric},
		{ID: samplerParamLoop, Name: "Loop", Min: 0, Max: 1, Default: 0, Unit: graph.UnitGeneric},
		{ID: samplerParamPitch, Name: "Pitch Shift", Min: -12, Max: 12, Default: 0, Unit: graph.UnitSemitones},
		{ID: samplerParamSampleIdx, Name: "Sample Index", Min: 0, Max: 1 << 20, Default: 0, Unit: graph.UnitGeneric},
	}
	return s
}

func (s *SimpleSampler) SetParameter(id uint32, value float32) {
	switch id {
	case samplerParamGain:
		s.gain = clampf(value, 0, 2)
	case samplerParamLoop:
		s.loopEnabled = value > 0.5
	case samplerParamPitch:
		s.pitchShift = clampf(value, -12, 12)
	case samplerParamSampleIdx:
		s.sampleIdx = uint32(value)
	}
}

func (s *SimpleSampler) GetParameter(id uint32) float32 {
	switch id {
	case samplerParamGain:
		return s.gain
	case samplerParamLoop:
		if s.loopEnabled {
			return 1
		}
		return 0
	case samplerParamPitch:
		return s.pitchShift
	case samplerParamSampleIdx:
		return float32(s.sampleIdx)
	}
	return 0
}

// voctToSpeed converts V/oct CV plus the pitch-shift parameter into a
// playback-speed multiplier (1.0 == original pitch).
func (s *SimpleSampler) voctToSpeed(voct float32) float32 {
	totalSemitones := voct*12 + s.pitchShift
	return float32(math.Pow(2, float64(totalSemitones)/12))
}

// readSample linearly interpolates the first channel of sample at a
// fractional playhead position.
func (s *SimpleSampler) readSample(playhead float32, sample pool.AudioSample) float32 {
	frames := sample.FrameCount()
	if frames == 0 {
		return 0
	}
	index := int(math.Floor(float64(playhead)))
	frac := playhead - float32(index)
	if index >= frames {
		return 0
	}
	ch := sample.Channels
	sample1 := sample.Frames[index*ch]
	var sample2 float32
	if index+1 < frames {
		sample2 = sample.Frames[(index+1)*ch]
	} else if s.loopEnabled {
		sample2 = sample.Frames[0]
	}
	return sample1 + (sample2-sample1)*frac
}

func (s *SimpleSampler) Process(inputs [][]float32, outputs [][]float32, midiIn [][]midi.Event, midiOut [][]midi.Event, sampleRate uint32) {
	if len(outputs) == 0 {
		return
	}
	out := outputs[0]
	sample, err := s.pool.Get(s.sampleIdx)
	if err != nil || sample.FrameCount() == 0 {
		for i := range out {
			out[i] = 0
		}
		return
	}
	frames := len(out) / 2

	for fr := 0; fr < frames; fr++ {
		var voct, gate float32
		if len(inputs) > 0 {
			voct = graphSampleAt(inputs[0], fr)
		}
		if len(inputs) > 1 {
			gate = graphSampleAt(inputs[1], fr)
		}

		gateActive := gate > 0.5
		if gateActive && !s.gatePrev {
			s.playhead = 0
			s.isPlaying = true
		}
		s.gatePrev = gateActive

		var out1 float32
		if s.isPlaying {
			out1 = s.readSample(s.playhead, sample) * s.gain

			speed := s.voctToSpeed(voct)
			speedAdjusted := speed * (float32(sample.SampleRate) / float32(sampleRate))
			s.playhead += speedAdjusted

			if s.playhead >= float32(sample.FrameCount()) {
				if s.loopEnabled {
					s.playhead = float32(math.Mod(float64(s.playhead), float64(sample.FrameCount())))
				} else {
					s.isPlaying = false
					s.playhead = 0
				}
			}
		}
		out[fr*2] = out1
		out[fr*2+1] = out1
	}
}

func (s *SimpleSampler) Reset() {
	s.playhead = 0
	s.isPlaying = false
	s.gatePrev = false
}

func (s *SimpleSampler) NodeType() string { return "SimpleSampler" }

func (s *SimpleSampler) Clone() graph.Node {
	c := NewSimpleSampler(s.NodeName, s.pool)
	c.sampleIdx, c.gain, c.loopEnabled, c.pitchShift = s.sampleIdx, s.gain, s.loopEnabled, s.pitchShift
	return c
}
