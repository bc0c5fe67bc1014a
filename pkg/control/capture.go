package control

// CaptureRing is the device-to-engine input ring: the device callback is
// the producer (writing interleaved input frames as they arrive) and the
// engine's process() is the consumer (reading them for input monitoring
// or future recording). Sized in samples (frames * channels), defaulting
// to ten seconds of audio at the session's sample rate and channel count.
type CaptureRing struct {
	*Ring[float32]
}

// NewCaptureRing allocates a capture ring sized for capacitySamples
// interleaved float32 samples.
func NewCaptureRing(capacitySamples int) *CaptureRing {
	return &CaptureRing{Ring: NewRing[float32](capacitySamples)}
}

// PushBlock writes an interleaved block, dropping trailing samples that
// don't fit rather than blocking the device callback.
func (c *CaptureRing) PushBlock(samples []float32) (written int) {
	for _, s := range samples {
		if !c.Push(s) {
			return written
		}
		written++
	}
	return written
}

// PopBlock reads up to len(dst) interleaved samples, returning how many
// were actually available.
func (c *CaptureRing) PopBlock(dst []float32) (read int) {
	for i := range dst {
		v, ok := c.Pop()
		if !ok {
			return i
		}
		dst[i] = v
		read = i + 1
	}
	return read
}
