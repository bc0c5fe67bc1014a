package ioformat

import (
	"bytes"
	"testing"
)

// FLAC decoding is out of scope for this package (no decoder is built
// here), so these tests check the container's structural invariants —
// magic, STREAMINFO shape, at least one frame emitted — rather than a
// full round trip.

func TestWriteFLACMagicAndStreamInfo(t *testing.T) {
	samples := sineWave(2000, 2, 440, 48000)
	params := WriteWAVParams{SampleRate: 48000, Channels: 2, BitDepth: Bits16}

	var buf bytes.Buffer
	if err := WriteFLAC(&buf, params, samples); err != nil {
		t.Fatalf("WriteFLAC: %v", err)
	}

	out := buf.Bytes()
	if len(out) < 4+4+34 {
		t.Fatalf("output too short: %d bytes", len(out))
	}
	if string(out[0:4]) != "fLaC" {
		t.Fatalf("missing fLaC magic, got %q", out[0:4])
	}

	blockType := out[4] & 0x7F
	if blockType != 0 {
		t.Fatalf("expected STREAMINFO block type 0, got %d", blockType)
	}
	isLast := out[4]&0x80 != 0
	if !isLast {
		t.Fatalf("expected STREAMINFO to be the last metadata block")
	}

	blockLen := int(out[5])<<16 | int(out[6])<<8 | int(out[7])
	if blockLen != 34 {
		t.Fatalf("expected a 34-byte STREAMINFO block, got %d", blockLen)
	}

	// At least one frame's sync code should appear after the metadata.
	frameStart := out[4+4+34:]
	if len(frameStart) < 2 {
		t.Fatalf("no frame data after STREAMINFO")
	}
	syncBits := uint16(frameStart[0])<<8 | uint16(frameStart[1])
	if syncBits>>2 != 0b11111111111110 {
		t.Fatalf("missing frame sync code, got %014b", syncBits>>2)
	}
}

func TestWriteFLACRejectsBadParams(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteFLAC(&buf, WriteWAVParams{Channels: 0, BitDepth: Bits16}, nil); err == nil {
		t.Error("expected an error for zero channels")
	}
}
