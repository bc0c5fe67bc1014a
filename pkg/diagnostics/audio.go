// Package diagnostics provides sanity checks over a rendered audio
// buffer: peak/RMS/DC measurement, clipping and NaN detection, plus
// integrated loudness and (for stereo) phase-correlation metering via
// pkg/dsp/analysis, meant to run over an offline render's output before
// it's written to a file.
// Issues are returned rather than logged directly so the caller can
// route them through its own logger.
package diagnostics

import (
	"math"

	"github.com/fernwave/tideline/pkg/dsp/analysis"
)

// AudioAnalyzer measures a rendered buffer's basic health. The zero
// value is usable, but NewAudioAnalyzer's thresholds are more forgiving.
type AudioAnalyzer struct {
	ClippingThreshold float32
	DCThreshold       float32
	SilenceThreshold  float32
}

// NewAudioAnalyzer returns an analyzer with conservative default
// thresholds.
func NewAudioAnalyzer() *AudioAnalyzer {
	return &AudioAnalyzer{
		ClippingThreshold: 0.99,
		DCThreshold:       0.01,
		SilenceThreshold:  0.0001,
	}
}

// AnalysisResult summarizes one buffer's measurements.
type AnalysisResult struct {
	Peak           float32
	RMS            float32
	DC             float32
	Clipping       bool
	ClippedSamples int
	Silent         bool
	HasNaN         bool
	NaNCount       int

	// LUFSIntegrated is the ITU-R BS.1770 integrated loudness, in LUFS.
	LUFSIntegrated float64

	// Correlation and MonoCompatibility are only populated for stereo
	// (channels == 2) input; they stay at their zero value otherwise.
	Correlation       float64
	MonoCompatibility float64
}

// Analyze scans buffer (interleaved, channels samples per frame, at
// sampleRate) once for peak/RMS/DC/clipping/silence/NaN, then runs it
// through a pkg/dsp/analysis.LUFSMeter for integrated loudness and,
// when channels == 2, a CorrelationMeter for phase correlation and mono
// compatibility.
func (a *AudioAnalyzer) Analyze(buffer []float32, sampleRate uint32, channels int) AnalysisResult {
	var result AnalysisResult
	if len(buffer) == 0 || channels <= 0 {
		return result
	}

	var sum, sumSquares, dcSum float64
	for _, sample := range buffer {
		if math.IsNaN(float64(sample)) {
			result.HasNaN = true
			result.NaNCount++
			continue
		}

		abs := sample
		if abs < 0 {
			abs = -abs
		}
		if abs > result.Peak {
			result.Peak = abs
		}
		if abs >= a.ClippingThreshold {
			result.Clipping = true
			result.ClippedSamples++
		}

		sum += float64(sample)
		sumSquares += float64(sample) * float64(sample)
		dcSum += float64(abs)
	}

	result.RMS = float32(math.Sqrt(sumSquares / float64(len(buffer))))
	result.DC = float32(sum / float64(len(buffer)))
	result.Silent = result.RMS < a.SilenceThreshold

	result.LUFSIntegrated = integratedLoudness(buffer, sampleRate, channels)
	if channels == 2 {
		result.Correlation, result.MonoCompatibility = stereoCorrelation(buffer, sampleRate)
	}

	return result
}

func integratedLoudness(buffer []float32, sampleRate uint32, channels int) float64 {
	samples := make([]float64, len(buffer))
	for i, s := range buffer {
		samples[i] = float64(s)
	}
	lufs := analysis.NewLUFSMeter(float64(sampleRate), channels)
	lufs.Process(samples)
	return lufs.GetIntegratedLUFS()
}

func stereoCorrelation(buffer []float32, sampleRate uint32) (correlation, monoCompat float64) {
	frames := len(buffer) / 2
	if frames == 0 {
		return 0, 0
	}
	left := make([]float64, frames)
	right := make([]float64, frames)
	for i := 0; i < frames; i++ {
		left[i] = float64(buffer[i*2])
		right[i] = float64(buffer[i*2+1])
	}

	corr := analysis.NewCorrelationMeter(frames, float64(sampleRate))
	corr.SetAveraging(0) // a one-shot analysis pass, not a streaming meter
	corr.Process(left, right)
	return corr.GetCorrelation(), corr.GetMonoCompatibility()
}

// Issues reports human-readable problems found in buffer, or nil if
// none.
func (a *AudioAnalyzer) Issues(result AnalysisResult) []string {
	var issues []string
	if result.HasNaN {
		issues = append(issues, "buffer contains NaN samples")
	}
	if result.Clipping {
		issues = append(issues, "buffer is clipping")
	}
	if math.Abs(float64(result.DC)) > float64(a.DCThreshold) {
		issues = append(issues, "buffer has a DC offset")
	}
	if result.Peak > 1.0 {
		issues = append(issues, "buffer peak exceeds 1.0")
	}
	if result.Correlation < -0.5 {
		issues = append(issues, "buffer has poor mono compatibility (stereo phase correlation below -0.5)")
	}
	return issues
}
