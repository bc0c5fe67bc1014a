// Package analysis provides the level and stereo-field meters
// pkg/diagnostics runs over a rendered buffer before it's written to a
// file:
//
// Level Metering:
//   - Peak meter with hold and decay
//   - RMS (Root Mean Square) meter
//   - LUFS meter (ITU-R BS.1770-4 compliant), integrated loudness
//
// Stereo Field Analysis:
//   - Correlation meter for phase relationships and mono compatibility
//   - Balance meter for L/R power distribution
//   - Stereo width meter using M/S analysis
//
// All meters are designed for real-time operation with minimal
// allocations and thread-safe access.
//
// Example usage:
//
//	// Create a LUFS meter
//	lufs := analysis.NewLUFSMeter(48000, 2)
//	lufs.Process(interleavedSamples)
//
//	integrated := lufs.GetIntegratedLUFS()
//
//	// Create a correlation meter
//	corr := analysis.NewCorrelationMeter(1024, 44100)
//	corr.Process(samplesL, samplesR)
//
//	correlation := corr.GetCorrelation()
//	monoCompat := corr.GetMonoCompatibility()
package analysis
