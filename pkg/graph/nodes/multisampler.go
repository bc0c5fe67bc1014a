package nodes

import (
	"math"

	"github.com/fernwave/tideline/pkg/graph"
	"github.com/fernwave/tideline/pkg/midi"
	"github.com/fernwave/tideline/pkg/pool"
)

const (
	multiParamGain      uint32 = 0
	multiParamAttack    uint32 = 1
	multiParamRelease   uint32 = 2
	multiParamTranspose uint32 = 3
)

const multiSamplerMaxVoices = 16

// SampleLayer maps a pool.AudioSample onto a key/velocity zone, the
// multi-sample-instrument building block (round-robin/velocity-switch
// patching is built by stacking several layers with overlapping zones).
type SampleLayer struct {
	SampleIdx                uint32
	KeyMin, KeyMax           uint8
	RootKey                  uint8
	VelocityMin, VelocityMax uint8
}

func (l SampleLayer) matches(key, velocity uint8) bool {
	return key >= l.KeyMin && key <= l.KeyMax && velocity >= l.VelocityMin && velocity <= l.VelocityMax
}

type envelopePhase int

const (
	envAttack envelopePhase = iota
	envSustain
	envRelease
)

type multiVoice struct {
	layerIndex    int
	playhead      float32
	note          uint8
	velocity      uint8
	active        bool
	phase         envelopePhase
	envelopeValue float32
}

// MultiSampler is a velocity/key-zoned multi-sample instrument: each
// incoming note picks the first layer whose zone matches and plays it
// back through a per-voice attack/sustain/release envelope.
type MultiSampler struct {
	graph.BaseNode

	pool   *pool.AudioPool
	layers []SampleLayer
	voices [multiSamplerMaxVoices]multiVoice

	gain        float32
	attackTime  float32
	releaseTime float32
	transpose   float32
}

// NewMultiSampler returns an empty MultiSampler node (no layers loaded).
func NewMultiSampler(name string, audioPool *pool.AudioPool) *MultiSampler {
	m := &MultiSampler{pool: audioPool, gain: 1, attackTime: 0.01, releaseTime: 0.1}
	m.NodeName = name
	m.Cat = graph.CategoryGenerator
	m.InPorts = []graph.Port{{Name: "MIDI In", Signal: graph.SignalMidi, Index: 0}}
	m.OutPorts = []graph.Port{{Name: "Audio Out", Signal: graph.SignalAudio, Index: 0}}
	m.ParamTable = []graph.Parameter{
		{ID: multiParamGain, Name: "Gain", Min: 0, Max: 2, Default: 1, Unit: graph.UnitGeneric},
		{ID: multiParamAttack, Name: "Attack", Min: 0.001, Max: 1, Default: 0.01, Unit: graph.UnitSeconds},
		{ID: multiParamRelease, Name: "Release", Min: 0.01, Max: 5, Default: 0.1, Unit: graph.UnitSeconds},
		{ID: multiParamTranspose, Name: "Transpose", Min: -24, Max: 24, Default: 0, Unit: graph.UnitSemitones},
	}
	return m
}

// AddLayer registers a new sample zone. Controller-side only: it grows
// m.layers, which Process only ever reads.
func (m *MultiSampler) AddLayer(layer SampleLayer) {
	m.layers = append(m.layers, layer)
}

func (m *MultiSampler) SetParameter(id uint32, value float32) {
	switch id {
	case multiParamGain:
		m.gain = clampf(value, 0, 2)
	case multiParamAttack:
		m.attackTime = clampf(value, 0.001, 1)
	case multiParamRelease:
		m.releaseTime = clampf(value, 0.01, 5)
	case multiParamTranspose:
		m.transpose = clampf(value, -24, 24)
	}
}

func (m *MultiSampler) GetParameter(id uint32) float32 {
	switch id {
	case multiParamGain:
		return m.gain
	case multiParamAttack:
		return m.attackTime
	case multiParamRelease:
		return m.releaseTime
	case multiParamTranspose:
		return m.transpose
	}
	return 0
}

func (m *MultiSampler) findLayer(note, velocity uint8) int {
	for i, l := range m.layers {
		if l.matches(note, velocity) {
			return i
		}
	}
	return -1
}

func (m *MultiSampler) noteOn(note, velocity uint8) {
	transposed := int16(note) + int16(m.transpose)
	if transposed < 0 {
		transposed = 0
	}
	if transposed > 127 {
		transposed = 127
	}
	layerIndex := m.findLayer(uint8(transposed), velocity)
	if layerIndex < 0 {
		return
	}

	voiceIndex := -1
	for i := range m.voices {
		if !m.voices[i].active {
			voiceIndex = i
			break
		}
	}
	if voiceIndex < 0 {
		voiceIndex = 0
	}

	m.voices[voiceIndex] = multiVoice{layerIndex: layerIndex, note: note, velocity: velocity, active: true, phase: envAttack}
}

func (m *MultiSampler) noteOff(note uint8) {
	for i := range m.voices {
		if m.voices[i].note == note && m.voices[i].active {
			m.voices[i].phase = envRelease
		}
	}
}

func (m *MultiSampler) Process(inputs [][]float32, outputs [][]float32, midiIn [][]midi.Event, midiOut [][]midi.Event, sampleRate uint32) {
	if len(outputs) == 0 {
		return
	}
	out := outputs[0]
	frames := len(out) / 2
	for i := range out {
		out[i] = 0
	}

	if len(midiIn) > 0 {
		for _, ev := range midiIn[0] {
			switch e := ev.(type) {
			case midi.NoteOnEvent:
				m.noteOn(e.NoteNumber, e.Velocity)
			case midi.NoteOffEvent:
				m.noteOff(e.NoteNumber)
			}
		}
	}

	sr := float32(sampleRate)
	for vi := range m.voices {
		v := &m.voices[vi]
		if !v.active || v.layerIndex >= len(m.layers) {
			continue
		}
		layer := m.layers[v.layerIndex]
		sample, err := m.pool.Get(layer.SampleIdx)
		if err != nil {
			v.active = false
			continue
		}
		frameCount := sample.FrameCount()
		if frameCount == 0 {
			v.active = false
			continue
		}

		semitoneDiff := float32(int16(v.note) - int16(layer.RootKey))
		speed := float32(math.Pow(2, float64(semitoneDiff)/12))
		speedAdjusted := speed * (float32(sample.SampleRate) / sr)
		ch := sample.Channels

		for fr := 0; fr < frames; fr++ {
			playhead := v.playhead
			var s float32
			if playhead >= 0 {
				index := int(math.Floor(float64(playhead)))
				if index < frameCount {
					frac := playhead - float32(index)
					s1 := sample.Frames[index*ch]
					var s2 float32
					if index+1 < frameCount {
						s2 = sample.Frames[(index+1)*ch]
					}
					s = s1 + (s2-s1)*frac
				}
			}

			switch v.phase {
			case envAttack:
				attackSamples := m.attackTime * sr
				v.envelopeValue += 1 / attackSamples
				if v.envelopeValue >= 1 {
					v.envelopeValue = 1
					v.phase = envSustain
				}
			case envSustain:
				v.envelopeValue = 1
			case envRelease:
				releaseSamples := m.releaseTime * sr
				v.envelopeValue -= 1 / releaseSamples
				if v.envelopeValue <= 0 {
					v.envelopeValue = 0
					v.active = false
				}
			}
			envelope := clampf(v.envelopeValue, 0, 1)
			velocityScale := float32(v.velocity) / 127

			finalSample := s * envelope * velocityScale * m.gain
			out[fr*2] += finalSample
			out[fr*2+1] += finalSample

			v.playhead += speedAdjusted
			if v.playhead >= float32(frameCount) {
				v.active = false
				break
			}
			if !v.active {
				break
			}
		}
	}
}

func (m *MultiSampler) Reset() {
	for i := range m.voices {
		m.voices[i] = multiVoice{}
	}
}

func (m *MultiSampler) NodeType() string { return "MultiSampler" }

func (m *MultiSampler) Clone() graph.Node {
	c := NewMultiSampler(m.NodeName, m.pool)
	c.layers = append(c.layers, m.layers...)
	c.gain, c.attackTime, c.releaseTime, c.transpose = m.gain, m.attackTime, m.releaseTime, m.transpose
	return c
}
