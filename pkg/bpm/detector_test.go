package bpm

import "testing"

// synthesizeClickTrack builds a mono click track at bpm with sharp
// decaying transients, mirroring the original's test_120_bpm_detection
// fixture.
func synthesizeClickTrack(sampleRate uint32, bpm float32, beats int) []float32 {
	beatInterval := 60.0 / bpm
	beatSamples := int(float32(sampleRate) * beatInterval)

	audio := make([]float32, beatSamples*beats)
	for beat := 0; beat < beats; beat++ {
		pos := beat * beatSamples
		for i := 0; i < 100 && pos+i < len(audio); i++ {
			audio[pos+i] = (1.0 - float32(i)/100.0) * 0.8
		}
	}
	return audio
}

func TestDetectOffline120BPM(t *testing.T) {
	const sampleRate = 48000
	const bpm = 120.0

	audio := synthesizeClickTrack(sampleRate, bpm, 8)

	detected, ok := DetectOffline(audio, sampleRate)
	if !ok {
		t.Fatal("expected a BPM estimate")
	}

	tolerance := float32(bpm * 0.05)
	if diff := detected - bpm; diff < -tolerance || diff > tolerance {
		t.Errorf("expected ~%v BPM, got %v", bpm, detected)
	}
}

func TestDetectOfflineEmpty(t *testing.T) {
	if _, ok := DetectOffline(nil, 48000); ok {
		t.Error("expected no estimate for empty audio")
	}
}

func TestDetectOfflineTooShort(t *testing.T) {
	audio := make([]float32, 100)
	if _, ok := DetectOffline(audio, 48000); ok {
		t.Error("expected no estimate for a too-short buffer")
	}
}

func TestCorrectOctave(t *testing.T) {
	cases := []struct {
		in   float32
		want float32
	}{
		{150, 150},  // already in range
		{70, 140},   // doubled into range
		{260, 130},  // halved into range
		{35, 140},  // quadrupled into range
		{300, 150}, // halved into range
	}
	for _, c := range cases {
		if got := correctOctave(c.in); got != c.want {
			t.Errorf("correctOctave(%v) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestRealtimeConvergesOnEstimate(t *testing.T) {
	const sampleRate = 48000
	r := NewRealtime(sampleRate, 10)

	// 150 BPM, so a correct estimate differs from the 120 BPM default.
	audio := synthesizeClickTrack(sampleRate, 150, 40)

	const chunk = 512
	var last float32
	for i := 0; i < len(audio); i += chunk {
		end := i + chunk
		if end > len(audio) {
			end = len(audio)
		}
		last = r.Process(audio[i:end])
	}

	if last == defaultBPM {
		t.Error("expected the realtime detector to move off its default estimate")
	}
}

func TestRealtimeReset(t *testing.T) {
	r := NewRealtime(48000, 10)
	r.Process(synthesizeClickTrack(48000, 120, 40))
	r.Reset()

	if got := r.BPM(); got != defaultBPM {
		t.Errorf("expected default BPM after reset, got %v", got)
	}
}
