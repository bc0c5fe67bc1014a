package ioformat

import (
	"bytes"
	"math"
	"testing"
)

func sineWave(frames int, channels int, freq float64, sampleRate uint32) []float32 {
	out := make([]float32, frames*channels)
	for i := 0; i < frames; i++ {
		v := float32(math.Sin(2 * math.Pi * freq * float64(i) / float64(sampleRate)))
		for ch := 0; ch < channels; ch++ {
			out[i*channels+ch] = v
		}
	}
	return out
}

func TestWAVRoundTrip16Bit(t *testing.T) {
	samples := sineWave(1000, 2, 440, 48000)
	params := WriteWAVParams{SampleRate: 48000, Channels: 2, BitDepth: Bits16}

	var buf bytes.Buffer
	if err := WriteWAV(&buf, params, samples); err != nil {
		t.Fatalf("WriteWAV: %v", err)
	}

	got, err := ReadWAV(&buf)
	if err != nil {
		t.Fatalf("ReadWAV: %v", err)
	}
	if got.SampleRate != params.SampleRate {
		t.Errorf("sample rate = %d, want %d", got.SampleRate, params.SampleRate)
	}
	if got.Channels != params.Channels {
		t.Errorf("channels = %d, want %d", got.Channels, params.Channels)
	}
	if got.BitDepth != params.BitDepth {
		t.Errorf("bit depth = %d, want %d", got.BitDepth, params.BitDepth)
	}
	if len(got.Samples) != len(samples) {
		t.Fatalf("sample count = %d, want %d", len(got.Samples), len(samples))
	}

	const tolerance = 1.0 / 32767.0 * 2
	for i, s := range samples {
		if diff := got.Samples[i] - s; diff > tolerance || diff < -tolerance {
			t.Fatalf("sample %d: got %v, want %v", i, got.Samples[i], s)
		}
	}
}

func TestWAVRoundTrip24Bit(t *testing.T) {
	samples := sineWave(500, 1, 220, 44100)
	params := WriteWAVParams{SampleRate: 44100, Channels: 1, BitDepth: Bits24}

	var buf bytes.Buffer
	if err := WriteWAV(&buf, params, samples); err != nil {
		t.Fatalf("WriteWAV: %v", err)
	}

	got, err := ReadWAV(&buf)
	if err != nil {
		t.Fatalf("ReadWAV: %v", err)
	}

	const tolerance = 1.0 / 8388607.0 * 2
	for i, s := range samples {
		if diff := got.Samples[i] - s; diff > tolerance || diff < -tolerance {
			t.Fatalf("sample %d: got %v, want %v", i, got.Samples[i], s)
		}
	}
}

func TestWriteWAVRejectsBadParams(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteWAV(&buf, WriteWAVParams{Channels: 0, BitDepth: Bits16}, nil); err == nil {
		t.Error("expected an error for zero channels")
	}
	if err := WriteWAV(&buf, WriteWAVParams{Channels: 1, BitDepth: 8}, nil); err == nil {
		t.Error("expected an error for an unsupported bit depth")
	}
}
