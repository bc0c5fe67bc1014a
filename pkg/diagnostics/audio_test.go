package diagnostics

import "testing"

func TestAnalyzeDetectsClipping(t *testing.T) {
	a := NewAudioAnalyzer()
	buf := []float32{0.5, 1.0, -1.0, 0.5}

	result := a.Analyze(buf, 48000, 2)
	if !result.Clipping {
		t.Error("expected clipping to be detected at |sample| >= 0.99")
	}
	if result.ClippedSamples != 2 {
		t.Errorf("clipped samples = %d, want 2", result.ClippedSamples)
	}
}

func TestAnalyzeDetectsSilence(t *testing.T) {
	a := NewAudioAnalyzer()
	buf := make([]float32, 64)

	result := a.Analyze(buf, 48000, 2)
	if !result.Silent {
		t.Error("expected an all-zero buffer to be flagged silent")
	}
}

func TestAnalyzeDetectsNaN(t *testing.T) {
	a := NewAudioAnalyzer()
	buf := []float32{0.1, float32(nan()), 0.2, 0.1}

	result := a.Analyze(buf, 48000, 2)
	if !result.HasNaN || result.NaNCount != 1 {
		t.Errorf("expected exactly 1 NaN sample, got HasNaN=%v count=%d", result.HasNaN, result.NaNCount)
	}
}

func TestIssuesReportsClippingAndPeak(t *testing.T) {
	a := NewAudioAnalyzer()
	result := a.Analyze([]float32{1.5, -1.5}, 48000, 1)

	issues := a.Issues(result)
	if len(issues) == 0 {
		t.Fatal("expected at least one issue for a buffer that clips and exceeds peak 1.0")
	}
}

func TestAnalyzeStereoReportsCorrelation(t *testing.T) {
	a := NewAudioAnalyzer()
	// in-phase identical L/R: perfect positive correlation.
	buf := make([]float32, 0, 64)
	for i := 0; i < 32; i++ {
		v := float32(i%2) - 0.5
		buf = append(buf, v, v)
	}

	result := a.Analyze(buf, 48000, 2)
	if result.Correlation < 0.9 {
		t.Errorf("Correlation = %v, want close to 1.0 for identical L/R channels", result.Correlation)
	}
	if result.MonoCompatibility < 0.9 {
		t.Errorf("MonoCompatibility = %v, want close to 1.0 for identical L/R channels", result.MonoCompatibility)
	}
}

func TestAnalyzeMonoSkipsCorrelation(t *testing.T) {
	a := NewAudioAnalyzer()
	result := a.Analyze([]float32{0.1, 0.2, 0.3, 0.4}, 48000, 1)

	if result.Correlation != 0 || result.MonoCompatibility != 0 {
		t.Errorf("expected zero-value correlation fields for mono input, got %+v", result)
	}
}

func nan() float64 {
	var zero float64
	return zero / zero
}
