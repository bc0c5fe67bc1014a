// Package dsp provides the ordered Processor chain an audio track's
// insert effects run through: Track.Effects is one Chain, appended to
// and processed in order once per block.
package dsp

import (
	"fmt"
)

// Processor represents a DSP processor that can be chained.
type Processor interface {
	// Process processes audio in-place
	Process(buffer []float32)

	// Reset resets the processor state
	Reset()
}

// StereoProcessor represents a stereo DSP processor.
type StereoProcessor interface {
	// ProcessStereo processes stereo audio in-place
	ProcessStereo(left, right []float32)

	// Reset resets the processor state
	Reset()
}

// MultiChannelProcessor represents a multi-channel DSP processor.
type MultiChannelProcessor interface {
	// ProcessMultiChannel processes multiple channels
	ProcessMultiChannel(buffers [][]float32)

	// Reset resets the processor state
	Reset()
}

// ProcessorFunc allows using a function as a Processor.
type ProcessorFunc func([]float32)

func (f ProcessorFunc) Process(buffer []float32) { f(buffer) }
func (f ProcessorFunc) Reset()                   {}

// bypassable holds the name/bypass state shared by every chain type
// below; each chain embeds it instead of redeclaring the same two
// fields and SetBypass method.
type bypassable struct {
	name   string
	bypass bool
}

// SetBypass sets the bypass state of the chain.
func (b *bypassable) SetBypass(bypass bool) { b.bypass = bypass }

// Chain represents a chain of DSP processors.
type Chain struct {
	bypassable
	processors []Processor
}

// NewChain creates a new DSP chain.
func NewChain(name string) *Chain {
	return &Chain{bypassable: bypassable{name: name}}
}

// Add adds a processor to the chain.
func (c *Chain) Add(processor Processor) *Chain {
	c.processors = append(c.processors, processor)
	return c
}

// AddFunc adds a processing function to the chain.
func (c *Chain) AddFunc(name string, process func([]float32)) *Chain {
	c.processors = append(c.processors, &namedProcessor{
		name:    name,
		process: ProcessorFunc(process),
	})
	return c
}

// Process processes audio through the chain.
func (c *Chain) Process(buffer []float32) {
	if c.bypass {
		return
	}
	for _, processor := range c.processors {
		processor.Process(buffer)
	}
}

// Reset resets all processors in the chain.
func (c *Chain) Reset() {
	for _, processor := range c.processors {
		processor.Reset()
	}
}

// IsEmpty returns true if the chain has no processors.
func (c *Chain) IsEmpty() bool { return len(c.processors) == 0 }

// Count returns the number of processors in the chain.
func (c *Chain) Count() int { return len(c.processors) }

// namedProcessor wraps a processor with a name for debugging.
type namedProcessor struct {
	name    string
	process Processor
}

func (n *namedProcessor) Process(buffer []float32) { n.process.Process(buffer) }
func (n *namedProcessor) Reset()                   { n.process.Reset() }

// StereoChain represents a chain of stereo DSP processors.
type StereoChain struct {
	bypassable
	processors []StereoProcessor
}

// NewStereoChain creates a new stereo DSP chain.
func NewStereoChain(name string) *StereoChain {
	return &StereoChain{bypassable: bypassable{name: name}}
}

// Add adds a stereo processor to the chain.
func (c *StereoChain) Add(processor StereoProcessor) *StereoChain {
	c.processors = append(c.processors, processor)
	return c
}

// ProcessStereo processes stereo audio through the chain.
func (c *StereoChain) ProcessStereo(left, right []float32) {
	if c.bypass {
		return
	}
	for _, processor := range c.processors {
		processor.ProcessStereo(left, right)
	}
}

// Reset resets all processors in the chain.
func (c *StereoChain) Reset() {
	for _, processor := range c.processors {
		processor.Reset()
	}
}

// ParallelChain processes audio through multiple chains in parallel and mixes the results.
type ParallelChain struct {
	bypassable
	chains []Processor
	gains  []float32
}

// NewParallelChain creates a new parallel chain.
func NewParallelChain(name string) *ParallelChain {
	return &ParallelChain{bypassable: bypassable{name: name}}
}

// Add adds a chain with a gain factor.
func (p *ParallelChain) Add(chain Processor, gain float32) *ParallelChain {
	p.chains = append(p.chains, chain)
	p.gains = append(p.gains, gain)
	return p
}

// Process processes audio through all parallel chains and sums the
// gain-weighted results back into buffer.
func (p *ParallelChain) Process(buffer []float32) {
	if p.bypass || len(p.chains) == 0 {
		return
	}

	tempBuffers := make([][]float32, len(p.chains))
	for i := range tempBuffers {
		tempBuffers[i] = make([]float32, len(buffer))
		copy(tempBuffers[i], buffer)
	}

	for i, chain := range p.chains {
		chain.Process(tempBuffers[i])
	}

	for i := range buffer {
		buffer[i] = 0
		for j, temp := range tempBuffers {
			buffer[i] += temp[i] * p.gains[j]
		}
	}
}

// Reset resets all chains.
func (p *ParallelChain) Reset() {
	for _, chain := range p.chains {
		chain.Reset()
	}
}

// buildErrors accumulates construction errors shared by Builder and
// StereoBuilder, so both report the same "nil processor"/"nil func"
// messages and flush to one combined error at Build time.
type buildErrors struct {
	errors []error
}

func (b *buildErrors) addIfNil(v any, msg string) bool {
	if v == nil {
		b.errors = append(b.errors, fmt.Errorf("%s", msg))
		return true
	}
	return false
}

func (b *buildErrors) err() error {
	if len(b.errors) > 0 {
		return fmt.Errorf("chain build errors: %v", b.errors)
	}
	return nil
}

// Builder provides a fluent API for building DSP chains.
type Builder struct {
	chain *Chain
	buildErrors
}

// NewBuilder creates a new chain builder.
func NewBuilder(name string) *Builder {
	return &Builder{chain: NewChain(name)}
}

// WithProcessor adds a processor to the chain.
func (b *Builder) WithProcessor(processor Processor) *Builder {
	if b.addIfNil(processor, "processor cannot be nil") {
		return b
	}
	b.chain.Add(processor)
	return b
}

// WithFunc adds a processing function to the chain.
func (b *Builder) WithFunc(name string, process func([]float32)) *Builder {
	if process == nil {
		b.errors = append(b.errors, fmt.Errorf("process function cannot be nil"))
		return b
	}
	b.chain.AddFunc(name, process)
	return b
}

// Build builds the chain and returns any accumulated errors.
func (b *Builder) Build() (*Chain, error) {
	if err := b.err(); err != nil {
		return nil, err
	}
	if b.chain.IsEmpty() {
		return nil, fmt.Errorf("chain is empty")
	}
	return b.chain, nil
}

// StereoBuilder provides a fluent API for building stereo DSP chains.
type StereoBuilder struct {
	chain *StereoChain
	buildErrors
}

// NewStereoBuilder creates a new stereo chain builder.
func NewStereoBuilder(name string) *StereoBuilder {
	return &StereoBuilder{chain: NewStereoChain(name)}
}

// WithProcessor adds a stereo processor to the chain.
func (b *StereoBuilder) WithProcessor(processor StereoProcessor) *StereoBuilder {
	if b.addIfNil(processor, "processor cannot be nil") {
		return b
	}
	b.chain.Add(processor)
	return b
}

// Build builds the stereo chain and returns any accumulated errors.
func (b *StereoBuilder) Build() (*StereoChain, error) {
	if err := b.err(); err != nil {
		return nil, fmt.Errorf("stereo %w", err)
	}
	if len(b.chain.processors) == 0 {
		return nil, fmt.Errorf("stereo chain is empty")
	}
	return b.chain, nil
}
