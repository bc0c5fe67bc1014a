// Package bpm estimates tempo from a mono audio buffer using onset
// detection and autocorrelation, offline and in a streaming wrapper for
// realtime monitoring: a downsample/onset/envelope/autocorrelation
// pipeline operating on Go float32 slices throughout.
package bpm

import "math"

const (
	minBPM = 60.0
	maxBPM = 200.0

	tempoSampleRate = 100.0 // Hz, after downsampling the onset envelope
	onsetDecaySec   = 0.05
	onsetWindowSec  = 0.02
	minOnsetGapSec  = 0.1
	onsetThreshMult = 1.5

	// octaveLow/octaveHigh bound the "preferred" BPM range used to
	// correct octave errors (e.g. detecting half or double tempo).
	octaveLow  = 100.0
	octaveHigh = 200.0
)

// DetectOffline estimates the BPM of a complete mono buffer, or reports
// ok=false if the signal is too short or has no detectable periodicity.
func DetectOffline(audio []float32, sampleRate uint32) (bpm float32, ok bool) {
	if len(audio) == 0 || sampleRate == 0 {
		return 0, false
	}

	const downsampleStep = 4
	downsampled := make([]float32, 0, len(audio)/downsampleStep+1)
	for i := 0; i < len(audio); i += downsampleStep {
		downsampled = append(downsampled, audio[i])
	}
	effectiveRate := sampleRate / downsampleStep
	if effectiveRate == 0 {
		return 0, false
	}

	onsets := detectOnsets(downsampled, effectiveRate)
	if len(onsets) < 4 {
		return 0, false
	}

	envelope := onsetEnvelope(onsets, len(downsampled), effectiveRate)

	downsampleFactor := int(float64(effectiveRate) / tempoSampleRate)
	if downsampleFactor < 1 {
		downsampleFactor = 1
	}
	tempoEnvelope := make([]float32, 0, len(envelope)/downsampleFactor+1)
	for i := 0; i < len(envelope); i += downsampleFactor {
		tempoEnvelope = append(tempoEnvelope, envelope[i])
	}

	return autocorrelateBPM(tempoEnvelope, uint32(tempoSampleRate))
}

// onsetEnvelope builds a sparse envelope: a unit impulse at each onset
// with an exponential decay tail, matching the original's
// calculate_onset_envelope.
func onsetEnvelope(onsets []int, totalLength int, sampleRate uint32) []float32 {
	envelope := make([]float32, totalLength)
	decaySamples := int(float64(sampleRate) * onsetDecaySec)

	for _, onset := range onsets {
		if onset >= totalLength {
			continue
		}
		envelope[onset] = 1.0
		limit := decaySamples
		if totalLength-onset < limit {
			limit = totalLength - onset
		}
		for i := 1; i < limit; i++ {
			decay := float32(math.Exp(-3.0 * float64(i) / float64(decaySamples)))
			if decay > envelope[onset+i] {
				envelope[onset+i] = decay
			}
		}
	}
	return envelope
}

// autocorrelateBPM searches the lag range corresponding to [minBPM,
// maxBPM] for the period maximizing onset-envelope autocorrelation,
// then folds the result into the octaveLow..octaveHigh range to correct
// half/double-tempo octave errors, rounding to the nearest 0.5 BPM.
func autocorrelateBPM(envelope []float32, sampleRate uint32) (float32, bool) {
	minLag := int(60.0 * float64(sampleRate) / maxBPM)
	maxLag := int(60.0 * float64(sampleRate) / minBPM)

	if maxLag >= len(envelope)/2 {
		return 0, false
	}

	bestLag := minLag
	bestCorrelation := float32(0)

	for lag := minLag; lag <= maxLag; lag++ {
		var correlation float32
		count := 0
		for i := 0; i < len(envelope)-lag; i++ {
			correlation += envelope[i] * envelope[i+lag]
			count++
		}
		if count == 0 {
			continue
		}
		correlation /= float32(count)

		bias := float32(1.0 + float64(lag-minLag)/float64(maxLag-minLag)*0.1)
		correlation /= bias

		if correlation > bestCorrelation {
			bestCorrelation = correlation
			bestLag = lag
		}
	}

	rawBPM := 60.0 * float32(sampleRate) / float32(bestLag)
	return float32(math.Round(float64(correctOctave(rawBPM))*2) / 2), true
}

// correctOctave tries bpm*4, bpm*2, bpm and bpm/2 in that order and
// returns the first that falls inside [octaveLow, octaveHigh] (bpm
// unchanged if none does), matching the original's quad/double/half
// fallback chain.
func correctOctave(bpm float32) float32 {
	quad := bpm * 4
	double := bpm * 2
	half := bpm / 2

	switch {
	case quad >= octaveLow && quad <= octaveHigh:
		return quad
	case double >= octaveLow && double <= octaveHigh:
		return double
	case bpm >= octaveLow && bpm <= octaveHigh:
		return bpm
	case half >= octaveLow && half <= octaveHigh:
		return half
	default:
		return bpm
	}
}

// detectOnsets finds transient peaks in audio using windowed energy
// differences, matching the original's detect_onsets: ~20ms windows at
// 50% hop, a threshold of 1.5x the mean positive energy delta, and a
// 100ms minimum gap between accepted peaks.
func detectOnsets(audio []float32, sampleRate uint32) []int {
	windowSize := int(float64(sampleRate) * onsetWindowSec)
	if windowSize < 1 {
		windowSize = 1
	}
	hopSize := windowSize / 2
	if hopSize < 1 {
		hopSize = 1
	}
	if len(audio) < windowSize {
		return nil
	}

	var energies []float32
	for pos := 0; pos+windowSize <= len(audio); pos += hopSize {
		var energy float32
		for _, s := range audio[pos : pos+windowSize] {
			energy += s * s
		}
		energies = append(energies, energy/float32(windowSize))
	}
	if len(energies) < 3 {
		return nil
	}

	strengths := make([]float32, len(energies)-1)
	var sum float32
	for i := 1; i < len(energies); i++ {
		diff := energies[i] - energies[i-1]
		if diff < 0 {
			diff = 0
		}
		strengths[i-1] = diff
		sum += diff
	}
	meanStrength := sum / float32(len(strengths))
	threshold := meanStrength * onsetThreshMult

	minDistance := int(sampleRate) / 10
	var onsets []int
	lastOnset := 0

	for i, strength := range strengths {
		if strength <= threshold {
			continue
		}
		samplePos := (i + 1) * hopSize

		isLocalMax := (i == 0 || strengths[i-1] <= strength) &&
			(i == len(strengths)-1 || strengths[i+1] < strength)

		if isLocalMax && (len(onsets) == 0 || samplePos-lastOnset >= minDistance) {
			onsets = append(onsets, samplePos)
			lastOnset = samplePos
		}
	}
	return onsets
}
