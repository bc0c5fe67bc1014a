package export

import (
	"testing"

	"github.com/fernwave/tideline/pkg/config"
	"github.com/fernwave/tideline/pkg/control"
	"github.com/fernwave/tideline/pkg/engine"
	"github.com/fernwave/tideline/pkg/graph"
	"github.com/fernwave/tideline/pkg/graph/nodes"
)

func newToneEngine(t *testing.T) (*engine.Engine, *control.System) {
	t.Helper()
	session := config.Default()
	system := control.NewSystem(session)
	eng := engine.New(session, system)

	g := graph.NewInstrumentGraph()
	osc := g.AddNode(nodes.NewOscillator("tone"))
	g.SetOutput(osc)

	track := eng.NewInstrumentTrack("tone", g)
	eng.AddTrack(track)

	return eng, system
}

func TestRenderToMemoryProducesRequestedLength(t *testing.T) {
	eng, system := newToneEngine(t)

	const sampleRate = 48000
	const channels = 2
	samples, err := RenderToMemory(eng, system, 0, 0.1, sampleRate, channels)
	if err != nil {
		t.Fatalf("RenderToMemory: %v", err)
	}

	wantFrames := uint64(0.1 * sampleRate)
	wantSamples := int(wantFrames * channels)
	if len(samples) != wantSamples {
		t.Fatalf("got %d samples, want %d", len(samples), wantSamples)
	}

	var nonZero bool
	for _, s := range samples {
		if s != 0 {
			nonZero = true
			break
		}
	}
	if !nonZero {
		t.Error("expected a non-silent render from a free-running oscillator")
	}
}

func TestRenderToMemoryRejectsBadRange(t *testing.T) {
	eng, system := newToneEngine(t)
	if _, err := RenderToMemory(eng, system, 1, 0.5, 48000, 2); err == nil {
		t.Error("expected an error when end precedes start")
	}
}
