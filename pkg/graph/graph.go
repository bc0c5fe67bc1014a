package graph

import (
	"fmt"

	"github.com/fernwave/tideline/pkg/buffer"
	"github.com/fernwave/tideline/pkg/midi"
)

// Edge is a directed connection from one node's output port to another
// node's input port. Signal kinds must match; the graph rejects a
// mismatched connection at AddEdge time rather than at process time.
type Edge struct {
	From, To         uint32
	FromPort, ToPort uint32
}

type nodeEntry struct {
	id   uint32
	node Node
}

type portRef struct {
	node uint32
	port uint32
}

// scheduledNode is everything Process needs for one node in one block,
// precomputed by schedule() so the audio thread only ever indexes slices
// it already owns instead of scanning the edge list or allocating.
type scheduledNode struct {
	id   uint32
	node Node

	// audioSource[i] names the edge feeding input port i, or {0, ^uint32(0)}
	// if unconnected (in which case the reusable zero buffer is used).
	audioSource []portRef
	// midiSources[i] lists every edge feeding MIDI input port i.
	midiSources [][]portRef
	// external[i] is true when input port i has no incoming edge and
	// should receive the graph's external MIDI input instead of nothing.
	external []bool

	inputBufs  [][]float32
	inputMidi  [][]midi.Event
	outputBufs [][]float32
	outputMidi [][]midi.Event
	acquired   []int
}

const noSource = ^uint32(0)

// InstrumentGraph is the per-InstrumentTrack DAG: a fixed node catalogue
// wired together by edges, scheduled topologically once per block. The
// schedule is cached and only recomputed when the edge set changes.
type InstrumentGraph struct {
	nodes    map[uint32]nodeEntry
	edges    []Edge
	nextID   uint32
	planned  []scheduledNode
	dirty    bool
	outputID uint32 // designated terminal node (graph output)
	zeroBuf  []float32
	outHandles map[uint32][]int // per-node output-port -> buffer handle, reused across blocks
}

// NewInstrumentGraph returns an empty graph.
func NewInstrumentGraph() *InstrumentGraph {
	return &InstrumentGraph{
		nodes: make(map[uint32]nodeEntry),
		dirty: true,
	}
}

// AddNode inserts a node and returns its graph-local ID.
func (g *InstrumentGraph) AddNode(n Node) uint32 {
	id := g.nextID
	g.nextID++
	g.nodes[id] = nodeEntry{id: id, node: n}
	g.dirty = true
	return id
}

// SetOutput designates which node's first audio output is copied to the
// graph's final result buffer.
func (g *InstrumentGraph) SetOutput(nodeID uint32) {
	g.outputID = nodeID
}

// RemoveNode deletes a node and every edge touching it.
func (g *InstrumentGraph) RemoveNode(id uint32) {
	delete(g.nodes, id)
	kept := g.edges[:0]
	for _, e := range g.edges {
		if e.From != id && e.To != id {
			kept = append(kept, e)
		}
	}
	g.edges = kept
	g.dirty = true
}

// Node looks up a node by ID.
func (g *InstrumentGraph) Node(id uint32) (Node, bool) {
	e, ok := g.nodes[id]
	return e.node, ok
}

// AddEdge connects two ports, validating signal-type compatibility and
// that the new edge does not introduce a cycle. The schedule cache is
// invalidated so the next Process rebuilds it.
func (g *InstrumentGraph) AddEdge(e Edge) error {
	from, ok := g.nodes[e.From]
	if !ok {
		return fmt.Errorf("graph: unknown source node %d", e.From)
	}
	to, ok := g.nodes[e.To]
	if !ok {
		return fmt.Errorf("graph: unknown destination node %d", e.To)
	}
	outs := from.node.Outputs()
	if int(e.FromPort) >= len(outs) {
		return fmt.Errorf("graph: node %d has no output port %d", e.From, e.FromPort)
	}
	ins := to.node.Inputs()
	if int(e.ToPort) >= len(ins) {
		return fmt.Errorf("graph: node %d has no input port %d", e.To, e.ToPort)
	}
	if outs[e.FromPort].Signal != ins[e.ToPort].Signal {
		return fmt.Errorf("graph: signal type mismatch connecting %d:%d -> %d:%d",
			e.From, e.FromPort, e.To, e.ToPort)
	}
	g.edges = append(g.edges, e)
	if g.hasCycle() {
		g.edges = g.edges[:len(g.edges)-1]
		return fmt.Errorf("graph: edge %d:%d -> %d:%d would introduce a cycle",
			e.From, e.FromPort, e.To, e.ToPort)
	}
	g.dirty = true
	return nil
}

// RemoveEdge deletes the first matching edge.
func (g *InstrumentGraph) RemoveEdge(e Edge) {
	for i, existing := range g.edges {
		if existing == e {
			g.edges = append(g.edges[:i], g.edges[i+1:]...)
			g.dirty = true
			return
		}
	}
}

func (g *InstrumentGraph) hasCycle() bool {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[uint32]int, len(g.nodes))
	var visit func(id uint32) bool
	visit = func(id uint32) bool {
		color[id] = gray
		for _, e := range g.edges {
			if e.From != id {
				continue
			}
			switch color[e.To] {
			case gray:
				return true
			case white:
				if visit(e.To) {
					return true
				}
			}
		}
		color[id] = black
		return false
	}
	for id := range g.nodes {
		if color[id] == white {
			if visit(id) {
				return true
			}
		}
	}
	return false
}

// schedule rebuilds g.planned via Kahn's algorithm, plus every per-node
// slice Process will reuse across blocks, if the edge set changed since
// the last call.
func (g *InstrumentGraph) schedule() {
	if !g.dirty {
		return
	}
	indegree := make(map[uint32]int, len(g.nodes))
	for id := range g.nodes {
		indegree[id] = 0
	}
	for _, e := range g.edges {
		indegree[e.To]++
	}
	var queue []uint32
	for id, d := range indegree {
		if d == 0 {
			queue = append(queue, id)
		}
	}
	order := make([]uint32, 0, len(g.nodes))
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		order = append(order, id)
		for _, e := range g.edges {
			if e.From != id {
				continue
			}
			indegree[e.To]--
			if indegree[e.To] == 0 {
				queue = append(queue, e.To)
			}
		}
	}

	planned := make([]scheduledNode, 0, len(order))
	for _, id := range order {
		n := g.nodes[id].node
		ins := n.Inputs()
		outs := n.Outputs()

		sn := scheduledNode{
			id:          id,
			node:        n,
			audioSource: make([]portRef, len(ins)),
			midiSources: make([][]portRef, len(ins)),
			external:    make([]bool, len(ins)),
			inputBufs:   make([][]float32, len(ins)),
			inputMidi:   make([][]midi.Event, len(ins)),
			outputBufs:  make([][]float32, len(outs)),
			outputMidi:  make([][]midi.Event, len(outs)),
			acquired:    make([]int, 0, len(outs)),
		}
		for pi := range ins {
			sn.audioSource[pi] = portRef{node: 0, port: noSource}
		}
		for _, e := range g.edges {
			if e.To != id {
				continue
			}
			if int(e.ToPort) >= len(ins) {
				continue
			}
			if ins[e.ToPort].Signal == SignalMidi {
				sn.midiSources[e.ToPort] = append(sn.midiSources[e.ToPort], portRef{node: e.From, port: e.FromPort})
			} else {
				sn.audioSource[e.ToPort] = portRef{node: e.From, port: e.FromPort}
			}
		}
		for pi, p := range ins {
			if p.Signal == SignalMidi && len(sn.midiSources[pi]) == 0 {
				sn.external[pi] = true
			}
		}
		planned = append(planned, sn)
	}
	g.planned = planned

	outHandles := make(map[uint32][]int, len(planned))
	for _, sn := range planned {
		outHandles[sn.id] = make([]int, len(sn.node.Outputs()))
	}
	g.outHandles = outHandles

	g.dirty = false
}

// Reset clears every node's internal state.
func (g *InstrumentGraph) Reset() {
	for _, e := range g.nodes {
		e.node.Reset()
	}
}

// CloneGraph returns an independent copy of the graph: every node is
// deep-copied via its own Clone(), graph-local IDs are preserved so the
// copy's edge list and outputID still line up, and the schedule is
// rebuilt from scratch on first use. Used by VoiceAllocator to
// instantiate one InstrumentGraph per voice from a shared template.
func (g *InstrumentGraph) CloneGraph() *InstrumentGraph {
	c := NewInstrumentGraph()
	c.nextID = g.nextID
	c.outputID = g.outputID
	c.nodes = make(map[uint32]nodeEntry, len(g.nodes))
	for id, e := range g.nodes {
		c.nodes[id] = nodeEntry{id: id, node: e.node.Clone()}
	}
	c.edges = append([]Edge(nil), g.edges...)
	c.dirty = true
	return c
}

// PlaybackTimeSetter is implemented by nodes whose output depends on
// absolute project time (AutomationInput). The graph calls SetPlaybackTime
// once per block, before Process, rather than the node reading shared
// state itself.
type PlaybackTimeSetter interface {
	SetPlaybackTime(seconds float64)
}

// Process runs every node in topological order, routing audio/CV/MIDI
// along edges through bufPool-acquired scratch buffers, and copies the
// output node's first audio output into out (stereo interleaved, len ==
// frames*2). midiIn is fanned into any node with no incoming MIDI edge
// (the graph's external MIDI input, e.g. from a VoiceAllocator's note
// dispatch). playbackTime is the project-time (in seconds) of the first
// frame of this block, handed to any node implementing
// PlaybackTimeSetter. Allocates only the first time a given edge
// topology is scheduled; every subsequent call with the same topology
// reuses the slices built in schedule().
func (g *InstrumentGraph) Process(frames int, sampleRate uint32, midiIn []midi.Event, bufPool *buffer.Pool, playbackTime float64, out []float32) {
	g.schedule()

	if len(g.zeroBuf) < frames*2 {
		g.zeroBuf = make([]float32, frames*2)
	}

	for i := range g.planned {
		sn := &g.planned[i]
		outs := sn.node.Outputs()
		ins := sn.node.Inputs()
		if pts, ok := sn.node.(PlaybackTimeSetter); ok {
			pts.SetPlaybackTime(playbackTime)
		}

		for pi := range ins {
			switch {
			case ins[pi].Signal == SignalMidi:
				events := sn.inputMidi[pi][:0]
				if sn.external[pi] {
					events = append(events, midiIn...)
				}
				for _, src := range sn.midiSources[pi] {
					events = append(events, g.outputEventsOf(src)...)
				}
				sn.inputMidi[pi] = events
			default:
				src := sn.audioSource[pi]
				if src.port == noSource {
					sn.inputBufs[pi] = g.zeroBuf[:frames*2]
					continue
				}
				if handles, ok := g.outHandles[src.node]; ok && int(src.port) < len(handles) {
					sn.inputBufs[pi] = bufPool.Buffer(handles[src.port])
				} else {
					sn.inputBufs[pi] = g.zeroBuf[:frames*2]
				}
			}
		}

		sn.acquired = sn.acquired[:0]
		for pi, p := range outs {
			if p.Signal == SignalMidi {
				sn.outputMidi[pi] = sn.outputMidi[pi][:0]
				continue
			}
			h := bufPool.Acquire()
			sn.acquired = append(sn.acquired, h)
			g.outHandles[sn.id][pi] = h
			sn.outputBufs[pi] = bufPool.Buffer(h)
		}

		sn.node.Process(sn.inputBufs, sn.outputBufs, sn.inputMidi, sn.outputMidi, sampleRate)

		if sn.id == g.outputID && len(sn.outputBufs) > 0 {
			copy(out, sn.outputBufs[0])
		}
	}

	bufPool.ReleaseAll()
}

// outputEventsOf reads a node's MIDI output port directly from the
// planned slice (topological order guarantees it was already processed
// this block, since it is an upstream source of the current node).
func (g *InstrumentGraph) outputEventsOf(ref portRef) []midi.Event {
	for i := range g.planned {
		if g.planned[i].id == ref.node {
			if int(ref.port) < len(g.planned[i].outputMidi) {
				return g.planned[i].outputMidi[ref.port]
			}
		}
	}
	return nil
}
