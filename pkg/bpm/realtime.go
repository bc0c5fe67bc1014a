package bpm

// Realtime incrementally estimates BPM from a rolling buffer of recent
// audio, re-analyzing about once a second and smoothing across the last
// few estimates with a median. The rolling buffer is a fixed-capacity
// circular buffer: "pop front, push back" without reallocating.
type Realtime struct {
	sampleRate uint32

	ring       []float32
	ringWrite  int
	ringFilled int

	currentBPM float32

	samplesSinceUpdate int
	updateInterval     int

	history     [8]float32
	historyLen  int
	historyNext int
}

const defaultBPM = 120.0

// NewRealtime returns a Realtime detector with a rolling buffer of
// bufferSeconds of audio at sampleRate, re-analyzed roughly once per
// second.
func NewRealtime(sampleRate uint32, bufferSeconds float32) *Realtime {
	return &Realtime{
		sampleRate:     sampleRate,
		ring:           make([]float32, int(float32(sampleRate)*bufferSeconds)),
		currentBPM:     defaultBPM,
		updateInterval: int(sampleRate),
	}
}

// Process appends audio to the rolling buffer and, at most once per
// update interval, re-estimates the BPM. Always returns the current
// (possibly unchanged) estimate.
func (r *Realtime) Process(audio []float32) float32 {
	for _, s := range audio {
		r.ring[r.ringWrite] = s
		r.ringWrite = (r.ringWrite + 1) % len(r.ring)
		if r.ringFilled < len(r.ring) {
			r.ringFilled++
		}
	}

	r.samplesSinceUpdate += len(audio)
	if r.samplesSinceUpdate < r.updateInterval || r.ringFilled <= int(r.sampleRate) {
		return r.currentBPM
	}
	r.samplesSinceUpdate = 0

	buf := r.orderedBuffer()
	detected, ok := DetectOffline(buf, r.sampleRate)
	if !ok {
		return r.currentBPM
	}

	r.pushHistory(detected)
	r.currentBPM = r.medianHistory()
	return r.currentBPM
}

// orderedBuffer copies the ring into chronological order for analysis.
func (r *Realtime) orderedBuffer() []float32 {
	out := make([]float32, r.ringFilled)
	if r.ringFilled < len(r.ring) {
		copy(out, r.ring[:r.ringFilled])
		return out
	}
	n := copy(out, r.ring[r.ringWrite:])
	copy(out[n:], r.ring[:r.ringWrite])
	return out
}

func (r *Realtime) pushHistory(bpm float32) {
	r.history[r.historyNext] = bpm
	r.historyNext = (r.historyNext + 1) % len(r.history)
	if r.historyLen < len(r.history) {
		r.historyLen++
	}
}

func (r *Realtime) medianHistory() float32 {
	sorted := make([]float32, r.historyLen)
	copy(sorted, r.history[:r.historyLen])
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && sorted[j-1] > sorted[j]; j-- {
			sorted[j-1], sorted[j] = sorted[j], sorted[j-1]
		}
	}
	return sorted[len(sorted)/2]
}

// BPM returns the current smoothed estimate without processing audio.
func (r *Realtime) BPM() float32 { return r.currentBPM }

// Reset clears the rolling buffer and history, returning to the default
// 120 BPM estimate.
func (r *Realtime) Reset() {
	for i := range r.ring {
		r.ring[i] = 0
	}
	r.ringWrite = 0
	r.ringFilled = 0
	r.samplesSinceUpdate = 0
	r.historyLen = 0
	r.historyNext = 0
	r.currentBPM = defaultBPM
}
