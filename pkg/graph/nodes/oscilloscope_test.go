package nodes

import "testing"

func TestOscilloscopePassesAudioThrough(t *testing.T) {
	o := NewOscilloscope("scope")

	in := []float32{0.1, 0.2, 0.3, 0.4}
	out := make([]float32, 4)

	o.Process([][]float32{in}, [][]float32{out}, nil, nil, 48000)

	for i := range in {
		if out[i] != in[i] {
			t.Errorf("sample %d: got %v, want %v", i, out[i], in[i])
		}
	}
}

func TestOscilloscopeReadSamplesReturnsRecentHistory(t *testing.T) {
	o := NewOscilloscope("scope")

	in := make([]float32, 10)
	for i := range in {
		in[i] = float32(i)
	}
	out := make([]float32, 10)
	o.Process([][]float32{in}, [][]float32{out}, nil, nil, 48000)

	got := o.ReadSamples(10)
	for i := range in {
		if got[i] != in[i] {
			t.Errorf("sample %d: got %v, want %v", i, got[i], in[i])
		}
	}
}

func TestOscilloscopeReadSamplesWrapsAroundRing(t *testing.T) {
	o := NewOscilloscope("scope")

	// Write more than the ring's capacity so the write cursor wraps.
	block := make([]float32, oscilloscopeBufferSize/2)
	out := make([]float32, len(block))
	for pass := 0; pass < 3; pass++ {
		for i := range block {
			block[i] = float32(pass)
		}
		o.Process([][]float32{block}, [][]float32{out}, nil, nil, 48000)
	}

	got := o.ReadSamples(10)
	for i, v := range got {
		if v != 2 {
			t.Errorf("sample %d: got %v, want 2 (the most recent pass)", i, v)
		}
	}
}

func TestOscilloscopeClearBufferResetsRing(t *testing.T) {
	o := NewOscilloscope("scope")
	in := []float32{1, 1, 1, 1}
	out := make([]float32, 4)
	o.Process([][]float32{in}, [][]float32{out}, nil, nil, 48000)

	o.ClearBuffer()

	got := o.ReadSamples(4)
	for _, v := range got {
		if v != 0 {
			t.Errorf("expected a cleared ring, got %v", v)
		}
	}
}

func TestOscilloscopeTriggerModeFromValue(t *testing.T) {
	cases := []struct {
		in   float32
		want ScopeTriggerMode
	}{
		{0, TriggerFreeRunning},
		{1, TriggerRisingEdge},
		{2, TriggerFallingEdge},
	}
	for _, c := range cases {
		if got := scopeTriggerModeFromValue(c.in); got != c.want {
			t.Errorf("scopeTriggerModeFromValue(%v) = %v, want %v", c.in, got, c.want)
		}
	}
}
