package nodes

import (
	"sync/atomic"

	"github.com/fernwave/tideline/pkg/graph"
	"github.com/fernwave/tideline/pkg/midi"
)

const (
	scopeParamTimeScale    uint32 = 0
	scopeParamTriggerMode  uint32 = 1
	scopeParamTriggerLevel uint32 = 2
)

const oscilloscopeBufferSize = 96000 // 2 seconds at 48kHz, stereo-interleaved

// ScopeTriggerMode selects how the oscilloscope's external snapshot
// reader should be interpreted by a UI (the node itself always writes
// every incoming sample; the trigger only affects reset/edge bookkeeping
// kept for a future triggered-display mode).
type ScopeTriggerMode int

const (
	TriggerFreeRunning ScopeTriggerMode = iota
	TriggerRisingEdge
	TriggerFallingEdge
)

func scopeTriggerModeFromValue(v float32) ScopeTriggerMode {
	switch int(v + 0.5) {
	case 1:
		return TriggerRisingEdge
	case 2:
		return TriggerFallingEdge
	default:
		return TriggerFreeRunning
	}
}

// Oscilloscope passes audio through unchanged while continuously
// capturing it into a fixed-capacity ring for an external viewer to
// read. The original used an `Arc<Mutex<CircularBuffer>>`; the audio
// thread here instead writes through a plain slice and publishes its
// write cursor with an atomic store, so ReadSamples (called from a
// UI/controller goroutine) never blocks the realtime Process call. A
// reader racing a wraparound write may see a slightly stale or
// momentarily inconsistent tail sample — acceptable for a visual meter,
// and strictly better than ever stalling the audio thread on a lock.
type Oscilloscope struct {
	graph.BaseNode

	timeScale    float32
	triggerMode  ScopeTriggerMode
	triggerLevel float32
	lastSample   float32

	ring     [oscilloscopeBufferSize]float32
	writePos atomic.Uint64
}

// NewOscilloscope returns an Oscilloscope defaulted to a 100ms
// free-running display.
func NewOscilloscope(name string) *Oscilloscope {
	o := &Oscilloscope{timeScale: 100}
	o.NodeName = name
	o.Cat = graph.CategoryUtility
	o.InPorts = []graph.Port{{Name: "Audio In", Signal: graph.SignalAudio, Index: 0}}
	o.OutPorts = []graph.Port{{Name: "Audio Out", Signal: graph.SignalAudio, Index: 0}}
	o.ParamTable = []graph.Parameter{
		{ID: scopeParamTimeScale, Name: "Time Scale", Min: 10, Max: 1000, Default: 100, Unit: graph.UnitMilliseconds},
		{ID: scopeParamTriggerMode, Name: "Trigger", Min: 0, Max: 2, Default: 0, Unit: graph.UnitGeneric},
		{ID: scopeParamTriggerLevel, Name: "Trigger Level", Min: -1, Max: 1, Default: 0, Unit: graph.UnitGeneric},
	}
	return o
}

func (o *Oscilloscope) SetParameter(id uint32, value float32) {
	switch id {
	case scopeParamTimeScale:
		o.timeScale = clampf(value, 10, 1000)
	case scopeParamTriggerMode:
		o.triggerMode = scopeTriggerModeFromValue(value)
	case scopeParamTriggerLevel:
		o.triggerLevel = clampf(value, -1, 1)
	}
}

func (o *Oscilloscope) GetParameter(id uint32) float32 {
	switch id {
	case scopeParamTimeScale:
		return o.timeScale
	case scopeParamTriggerMode:
		return float32(o.triggerMode)
	case scopeParamTriggerLevel:
		return o.triggerLevel
	}
	return 0
}

// isTriggered reports whether the configured trigger condition fires
// for the transition from o.lastSample to current, kept for a future
// triggered capture mode; free-running always fires.
func (o *Oscilloscope) isTriggered(current float32) bool {
	switch o.triggerMode {
	case TriggerRisingEdge:
		return o.lastSample <= o.triggerLevel && current > o.triggerLevel
	case TriggerFallingEdge:
		return o.lastSample >= o.triggerLevel && current < o.triggerLevel
	default:
		return true
	}
}

// ReadSamples returns a best-effort snapshot of the most recent count
// samples, oldest first. Safe to call from any goroutine; never blocks
// the audio thread.
func (o *Oscilloscope) ReadSamples(count int) []float32 {
	if count > oscilloscopeBufferSize {
		count = oscilloscopeBufferSize
	}
	writePos := int(o.writePos.Load() % oscilloscopeBufferSize)

	var start int
	if writePos >= count {
		start = writePos - count
	} else {
		start = oscilloscopeBufferSize - (count - writePos)
	}

	result := make([]float32, count)
	for i := 0; i < count; i++ {
		result[i] = o.ring[(start+i)%oscilloscopeBufferSize]
	}
	return result
}

// ClearBuffer zeroes the ring and resets the write cursor. Controller-
// side only (not called from Process).
func (o *Oscilloscope) ClearBuffer() {
	for i := range o.ring {
		o.ring[i] = 0
	}
	o.writePos.Store(0)
}

func (o *Oscilloscope) Process(inputs [][]float32, outputs [][]float32, midiIn [][]midi.Event, midiOut [][]midi.Event, sampleRate uint32) {
	if len(inputs) == 0 || len(outputs) == 0 {
		return
	}
	in := inputs[0]
	out := outputs[0]
	length := len(in)
	if len(out) < length {
		length = len(out)
	}
	copy(out[:length], in[:length])

	pos := int(o.writePos.Load() % oscilloscopeBufferSize)
	for i := 0; i < length; i++ {
		o.ring[pos] = in[i]
		pos = (pos + 1) % oscilloscopeBufferSize
	}
	o.writePos.Store(o.writePos.Load() + uint64(length))

	if length > 0 {
		o.lastSample = in[0]
		_ = o.isTriggered(o.lastSample)
	}
}

func (o *Oscilloscope) Reset() {
	o.lastSample = 0
	o.ClearBuffer()
}

func (o *Oscilloscope) NodeType() string { return "Oscilloscope" }

func (o *Oscilloscope) Clone() graph.Node {
	c := NewOscilloscope(o.NodeName)
	c.timeScale, c.triggerMode, c.triggerLevel = o.timeScale, o.triggerMode, o.triggerLevel
	return c
}
