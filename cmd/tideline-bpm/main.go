// Command tideline-bpm estimates the tempo of a WAV file using
// pkg/bpm's offline detector.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/fernwave/tideline/internal/logctx"
	"github.com/fernwave/tideline/pkg/bpm"
	"github.com/fernwave/tideline/pkg/ioformat"
)

func main() {
	help := pflag.BoolP("help", "h", false, "display help text")
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: tideline-bpm <file.wav>\n\n")
		pflag.PrintDefaults()
	}
	pflag.Parse()
	if *help {
		pflag.Usage()
		return
	}

	log := logctx.New("tideline-bpm")

	if len(pflag.Args()) != 1 {
		pflag.Usage()
		os.Exit(2)
	}
	path := pflag.Arg(0)

	f, err := os.Open(path)
	if err != nil {
		log.Fatal("opening file", "err", err)
	}
	defer f.Close()

	wav, err := ioformat.ReadWAV(f)
	if err != nil {
		log.Fatal("reading WAV", "err", err)
	}

	mono := toMono(wav.Samples, wav.Channels)

	detected, ok := bpm.DetectOffline(mono, wav.SampleRate)
	if !ok {
		log.Warn("no detectable tempo", "file", path)
		os.Exit(1)
	}

	fmt.Printf("%.1f BPM\n", detected)
}

// toMono averages channels into a single signal; BPM detection only
// needs onset energy, not stereo imaging.
func toMono(samples []float32, channels int) []float32 {
	if channels <= 1 {
		return samples
	}
	frames := len(samples) / channels
	out := make([]float32, frames)
	for i := 0; i < frames; i++ {
		var sum float32
		for ch := 0; ch < channels; ch++ {
			sum += samples[i*channels+ch]
		}
		out[i] = sum / float32(channels)
	}
	return out
}
