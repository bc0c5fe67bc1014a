// Package delay implements a circular delay line with linearly
// interpolated fractional-sample reads, the building block behind the
// echo/delay insert node and any future multi-tap or modulated effect.
package delay

// Line is a fixed-capacity ring buffer of samples. Write advances the
// ring; Read looks delaySamples back from the current write position,
// interpolating between the two nearest samples when delaySamples isn't
// a whole number.
type Line struct {
	ring       []float32
	writeAt    int
	sampleRate float64
}

// New allocates a Line whose ring holds at least maxDelaySeconds of
// audio at sampleRate.
func New(maxDelaySeconds, sampleRate float64) *Line {
	return &Line{
		ring:       make([]float32, int(maxDelaySeconds*sampleRate)+1),
		sampleRate: sampleRate,
	}
}

// Reset silences the ring and rewinds the write position.
func (l *Line) Reset() {
	for i := range l.ring {
		l.ring[i] = 0
	}
	l.writeAt = 0
}

// Write advances the ring by one sample.
func (l *Line) Write(sample float32) {
	l.ring[l.writeAt] = sample
	l.writeAt++
	if l.writeAt >= len(l.ring) {
		l.writeAt = 0
	}
}

// Read returns the sample delaySamples behind the current write
// position, linearly interpolated for a fractional delay.
func (l *Line) Read(delaySamples float64) float32 {
	n := len(l.ring)
	readAt := float64(l.writeAt) - delaySamples
	if readAt < 0 {
		readAt += float64(n)
	}

	i0 := int(readAt)
	frac := float32(readAt - float64(i0))
	s0 := l.ring[i0]
	s1 := l.ring[(i0+1)%n]
	return s0*(1.0-frac) + s1*frac
}

// ReadMs is Read with the delay expressed in milliseconds.
func (l *Line) ReadMs(delayMs float64) float32 {
	return l.Read(l.msToSamples(delayMs))
}

// Tap is an alias for Read, named for the multi-tap case where several
// callers read the same line without writing to it.
func (l *Line) Tap(delaySamples float64) float32 {
	return l.Read(delaySamples)
}

// Process reads the delayed output, writes input into the line, and
// returns the output — the usual write-after-read order for a feedback
// delay built around this line.
func (l *Line) Process(input float32, delaySamples float64) float32 {
	out := l.Read(delaySamples)
	l.Write(input)
	return out
}

// ProcessMs is Process with the delay expressed in milliseconds.
func (l *Line) ProcessMs(input float32, delayMs float64) float32 {
	return l.Process(input, l.msToSamples(delayMs))
}

// ProcessBuffer runs Process over buffer in place at a fixed delay.
func (l *Line) ProcessBuffer(buffer []float32, delaySamples float64) {
	for i, in := range buffer {
		buffer[i] = l.Process(in, delaySamples)
	}
}

// ProcessBufferMix is ProcessBuffer dry/wet blended by mix (0=dry, 1=wet).
func (l *Line) ProcessBufferMix(buffer []float32, delaySamples float64, mix float32) {
	dry := 1.0 - mix
	for i, in := range buffer {
		buffer[i] = in*dry + l.Process(in, delaySamples)*mix
	}
}

func (l *Line) msToSamples(ms float64) float64 {
	return ms * l.sampleRate / 1000.0
}
