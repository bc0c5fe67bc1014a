// Package config loads the session/device configuration shared by the
// engine test harness and both cmd/ entry points.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Session describes the fixed parameters an Engine is constructed with.
// None of these change after the engine starts; reconfiguring any of
// them means tearing down and rebuilding the engine.
type Session struct {
	SampleRate      uint32 `yaml:"sample_rate"`
	Channels        int    `yaml:"channels"`
	MaxBlockSize    int    `yaml:"max_block_size"`
	CommandCapacity int    `yaml:"command_queue_capacity"`
	EventCapacity   int    `yaml:"event_queue_capacity"`
	QueryCapacity   int    `yaml:"query_queue_capacity"`
	CaptureSeconds  int    `yaml:"capture_ring_seconds"`
}

// Default returns a session sized for comfortable desktop use:
// 256-deep command/event queues, a 16-deep query/reply pair, and a
// ten-second capture ring.
func Default() Session {
	return Session{
		SampleRate:      48000,
		Channels:        2,
		MaxBlockSize:    1024,
		CommandCapacity: 256,
		EventCapacity:   256,
		QueryCapacity:   16,
		CaptureSeconds:  10,
	}
}

// Load reads a YAML session file over Default, so any field the file
// omits keeps its Default value.
func Load(path string) (Session, error) {
	s := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return Session{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Session{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := s.Validate(); err != nil {
		return Session{}, fmt.Errorf("config: %s: %w", path, err)
	}
	return s, nil
}

// Validate rejects configurations the engine cannot run with.
func (s Session) Validate() error {
	if s.SampleRate == 0 {
		return fmt.Errorf("sample_rate must be positive")
	}
	if s.Channels < 1 || s.Channels > 2 {
		return fmt.Errorf("channels must be 1 or 2")
	}
	if s.MaxBlockSize < 1 {
		return fmt.Errorf("max_block_size must be positive")
	}
	if s.CommandCapacity < 1 || s.EventCapacity < 1 || s.QueryCapacity < 1 {
		return fmt.Errorf("queue capacities must be positive")
	}
	return nil
}

// CaptureRingFrames is the capture ring's capacity in sample frames.
func (s Session) CaptureRingFrames() int {
	return s.CaptureSeconds * int(s.SampleRate)
}
