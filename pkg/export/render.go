// Package export renders an Engine's timeline offline into a flat
// interleaved buffer, for writing to a file via pkg/ioformat. It reuses
// a chunked render loop, driving the realtime engine's own Process call
// chunk by chunk instead of maintaining a separate offline renderer.
package export

import (
	"fmt"

	"github.com/fernwave/tideline/pkg/control"
	"github.com/fernwave/tideline/pkg/engine"
)

// chunkFrames matches the original's CHUNK_FRAMES, balancing render
// throughput against peak memory for the accumulation buffer.
const chunkFrames = 4096

// RenderToMemory drives eng's Process call chunk by chunk across
// [startSeconds, endSeconds), returning the rendered interleaved
// samples. The engine is put in the Play state and its playhead seeked
// to startSeconds first; both are commands, applied on the first chunk's
// drain phase like any other controller command.
func RenderToMemory(eng *engine.Engine, system *control.System, startSeconds, endSeconds float64, sampleRate uint32, channels int) ([]float32, error) {
	if endSeconds <= startSeconds {
		return nil, fmt.Errorf("export: end time must be after start time")
	}
	if channels < 1 {
		return nil, fmt.Errorf("export: channels must be positive")
	}

	startFrame := uint64(startSeconds * float64(sampleRate))
	totalFrames := uint64((endSeconds - startSeconds) * float64(sampleRate))
	totalSamples := totalFrames * uint64(channels)

	system.Commands.Push(control.Seek{Frame: startFrame})
	system.Commands.Push(control.Play{})

	out := make([]float32, 0, totalSamples)
	chunk := make([]float32, chunkFrames*channels)

	var rendered uint64
	for rendered < totalFrames {
		framesNeeded := totalFrames - rendered
		thisChunk := chunk
		if framesNeeded < chunkFrames {
			thisChunk = chunk[:framesNeeded*uint64(channels)]
		}

		eng.Process(thisChunk)
		out = append(out, thisChunk...)
		rendered += uint64(len(thisChunk) / channels)
	}

	return out, nil
}
