package timeline

import (
	"sort"

	"github.com/fernwave/tideline/pkg/buffer"
	"github.com/fernwave/tideline/pkg/dsp/interpolation"
	"github.com/fernwave/tideline/pkg/dsp/pan"
	"github.com/fernwave/tideline/pkg/framework/dsp"
	"github.com/fernwave/tideline/pkg/graph"
	"github.com/fernwave/tideline/pkg/midi"
	"github.com/fernwave/tideline/pkg/pool"
)

// Kind distinguishes the two track variants.
type Kind int

const (
	KindAudio Kind = iota
	KindInstrument
)

// Track is modeled as a single struct switched on Kind rather than an
// interface hierarchy — a tagged variant over a fixed, small set of
// kinds. An audio track uses Clips/Effects; an instrument track uses MidiClips/
// Graph. Volume/Pan/Mute/Solo apply to both.
type Track struct {
	ID     uint32
	Kind   Kind
	Name   string
	Volume float32
	Pan    float32
	Mute   bool
	Solo   bool

	// Audio track fields.
	Clips   []AudioClip
	Effects *dsp.Chain

	// Instrument track fields.
	MidiClips []MidiClipInstance
	Graph     *graph.InstrumentGraph
	// graphBufPool is this track's own edge-buffer pool for Graph.Process;
	// it must never be the same pool instance the engine's per-track
	// pre-mix scratch is drawn from, since Graph.Process calls
	// bufPool.ReleaseAll() on return and would free a still-live pre-mix
	// handle out from under the track.
	graphBufPool *buffer.Pool

	// preMix is this track's own pre-effects/pre-volume scratch buffer,
	// grown (never shrunk) on first use and reused across callbacks —
	// not pool-acquired, since its lifetime is the track's, not one
	// Process call's.
	preMix []float32

	// midiScratch is reused across callbacks (cleared, never reallocated)
	// to collect this track's windowed MIDI events before handing them to
	// Graph.Process without allocating on the audio thread.
	midiScratch []midi.Event

	// liveEvents holds events injected directly by control.NoteOn/NoteOff
	// (live keyboard monitoring, bypassing the clip timeline) and is
	// drained into the next Render call.
	liveEvents []midi.Event

	// panL/panR are this track's scratch channels for de-interleaving a
	// stereo pre-mix around the pan.ProcessStereo call; grown (never
	// shrunk) like preMix.
	panL, panR []float32
}

// InjectLiveEvent queues ev to be delivered on this track's next
// renderInstrument call, ahead of any clip-timeline events for that
// block.
func (t *Track) InjectLiveEvent(ev midi.Event) {
	t.liveEvents = append(t.liveEvents, ev)
}

const trackGraphBufCount = 64 // generous headroom over any single track graph's edge count

// NewAudioTrack returns an empty audio track with unity volume.
func NewAudioTrack(id uint32, name string) *Track {
	return &Track{ID: id, Kind: KindAudio, Name: name, Volume: 1, Effects: dsp.NewChain(name + "-inserts")}
}

// NewInstrumentTrack returns an empty instrument track wrapping g with
// unity volume. maxFrames sizes the track's private graph edge-buffer
// pool.
func NewInstrumentTrack(id uint32, name string, g *graph.InstrumentGraph, maxFrames, channels int) *Track {
	return &Track{
		ID:           id,
		Kind:         KindInstrument,
		Name:         name,
		Volume:       1,
		Graph:        g,
		graphBufPool: buffer.NewPool(trackGraphBufCount, maxFrames*channels),
	}
}

// Active implements the solo/mute rule:
// ¬mute ∧ (¬any_solo ∨ this.solo).
func (t *Track) Active(anySolo bool) bool {
	return !t.Mute && (!anySolo || t.Solo)
}

// AddAudioClip appends an audio clip; the caller (engine command/query
// handling) is responsible for assigning a unique ID.
func (t *Track) AddAudioClip(c AudioClip) {
	t.Clips = append(t.Clips, c)
}

// AddMidiClip appends a MIDI clip instance.
func (t *Track) AddMidiClip(m MidiClipInstance) {
	t.MidiClips = append(t.MidiClips, m)
}

// RemoveClip deletes a clip or MIDI instance by ID, whichever this track's
// kind holds. Reports whether anything was removed.
func (t *Track) RemoveClip(id uint32) bool {
	switch t.Kind {
	case KindAudio:
		for i, c := range t.Clips {
			if c.ID == id {
				t.Clips = append(t.Clips[:i], t.Clips[i+1:]...)
				return true
			}
		}
	case KindInstrument:
		for i, m := range t.MidiClips {
			if m.ID == id {
				t.MidiClips = append(t.MidiClips[:i], t.MidiClips[i+1:]...)
				return true
			}
		}
	}
	return false
}

// Render fills mix (interleaved, len == frames*channels) with this
// track's contribution to the window [beginFrame, beginFrame+frames),
// panned by Pan and scaled by Volume. The caller has already applied the
// solo/mute policy via Active.
func (t *Track) Render(mix []float32, audioPool *pool.AudioPool, midiPool *pool.MidiPool, beginFrame uint64, frames int, sampleRate uint32, channels int) {
	switch t.Kind {
	case KindAudio:
		t.renderAudio(mix, audioPool, beginFrame, frames, sampleRate, channels)
	case KindInstrument:
		t.renderInstrument(mix, midiPool, beginFrame, frames, sampleRate, channels)
	}
}

// scratch returns t.preMix grown (never shrunk) to at least n samples,
// zeroed, ready for this callback's render to accumulate into.
func (t *Track) scratch(n int) []float32 {
	if len(t.preMix) < n {
		t.preMix = make([]float32, n)
	}
	buf := t.preMix[:n]
	for i := range buf {
		buf[i] = 0
	}
	return buf
}

// applyPan adjusts pre's (interleaved, stereo) L/R balance by t.Pan using
// a constant-power law, in place. A no-op for non-stereo output or a
// centered pan.
func (t *Track) applyPan(pre []float32, frames, channels int) {
	if channels != 2 || t.Pan == 0 {
		return
	}
	if len(t.panL) < frames {
		t.panL = make([]float32, frames)
		t.panR = make([]float32, frames)
	}
	l, r := t.panL[:frames], t.panR[:frames]
	for i := 0; i < frames; i++ {
		l[i] = pre[i*2]
		r[i] = pre[i*2+1]
	}
	pan.ProcessStereo(l, r, t.Pan, pan.ConstantPower, l, r)
	for i := 0; i < frames; i++ {
		pre[i*2] = l[i]
		pre[i*2+1] = r[i]
	}
}

func (t *Track) renderAudio(mix []float32, audioPool *pool.AudioPool, beginFrame uint64, frames int, sampleRate uint32, channels int) {
	end := beginFrame + uint64(frames)
	pre := t.scratch(frames * channels)

	for _, clip := range t.Clips {
		if !clip.Intersects(beginFrame, end) {
			continue
		}
		sample, err := audioPool.Get(clip.PoolIndex)
		if err != nil {
			continue // missing pool entry: treated as silence, not a realtime fault
		}
		renderAudioClipInto(pre, clip, sample, beginFrame, frames, sampleRate, channels)
	}

	if t.Effects != nil {
		t.Effects.Process(pre)
	}
	t.applyPan(pre, frames, channels)

	for i, s := range pre {
		if i < len(mix) {
			mix[i] += s * t.Volume
		}
	}
}

func (t *Track) renderInstrument(mix []float32, midiPool *pool.MidiPool, beginFrame uint64, frames int, sampleRate uint32, channels int) {
	if t.Graph == nil {
		return
	}
	end := beginFrame + uint64(frames)

	t.midiScratch = t.midiScratch[:0]
	if len(t.liveEvents) > 0 {
		t.midiScratch = append(t.midiScratch, t.liveEvents...)
		t.liveEvents = t.liveEvents[:0]
	}
	for _, inst := range t.MidiClips {
		content, err := midiPool.Get(inst.PoolIndex)
		if err != nil {
			continue
		}
		t.midiScratch = append(t.midiScratch, inst.EventsInRange(content, beginFrame, end)...)
	}
	sort.SliceStable(t.midiScratch, func(i, j int) bool {
		return t.midiScratch[i].SampleOffset() < t.midiScratch[j].SampleOffset()
	})

	pre := t.scratch(frames * channels)

	playbackTime := float64(beginFrame) / float64(sampleRate)
	t.Graph.Process(frames, sampleRate, t.midiScratch, t.graphBufPool, playbackTime, pre)
	t.applyPan(pre, frames, channels)

	for i, s := range pre {
		if i < len(mix) {
			mix[i] += s * t.Volume
		}
	}
}

// renderAudioClipInto resamples (cubic interpolation) and accumulates
// clip's contribution to [beginFrame, beginFrame+frames) into pre
// (interleaved, len == frames*channels).
func renderAudioClipInto(pre []float32, clip AudioClip, sample pool.AudioSample, beginFrame uint64, frames int, sampleRate uint32, channels int) {
	if sample.Channels == 0 || len(sample.Frames) == 0 {
		return
	}
	ratio := float64(sample.SampleRate) / float64(sampleRate)
	clipEnd := clip.EndFrame()

	for fr := 0; fr < frames; fr++ {
		global := beginFrame + uint64(fr)
		if global < clip.StartFrame || global >= clipEnd {
			continue
		}
		srcPos := float64(clip.OffsetFrame) + float64(global-clip.StartFrame)*ratio
		for ch := 0; ch < channels; ch++ {
			idx := fr*channels + ch
			if idx >= len(pre) {
				continue
			}
			pre[idx] += readChannelInterpolated(sample, ch, srcPos)
		}
	}
}

// readChannelInterpolated reads sample's channel `channel` (wrapped if the
// pool entry has fewer channels than requested, so a mono source feeds both
// stereo outputs) at fractional frame position pos, using 4-point cubic
// interpolation away from the buffer's edges and falling back to linear
// where a full 4-point window isn't available. Cubic matters most on
// pitched/time-stretched clips, where srcPos lands off-integer on every
// frame.
func readChannelInterpolated(sample pool.AudioSample, channel int, pos float64) float32 {
	frameCount := sample.FrameCount()
	if frameCount == 0 {
		return 0
	}
	if pos < 0 {
		pos = 0
	}
	maxPos := float64(frameCount - 1)
	if pos > maxPos {
		pos = maxPos
	}
	i1 := int(pos)
	frac := float32(pos - float64(i1))
	c := channel % sample.Channels
	at := func(i int) float32 {
		if i < 0 {
			i = 0
		} else if i > frameCount-1 {
			i = frameCount - 1
		}
		return sample.Frames[i*sample.Channels+c]
	}
	if i1-1 < 0 || i1+2 > frameCount-1 {
		return interpolation.Linear(at(i1), at(i1+1), frac)
	}
	return interpolation.Cubic(at(i1-1), at(i1), at(i1+1), at(i1+2), frac)
}
