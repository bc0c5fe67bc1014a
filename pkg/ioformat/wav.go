// Package ioformat writes and reads the PCM container formats used for
// persisted render artifacts (WAV, and a verbatim-subframe FLAC).
// Samples cross this package's boundary as interleaved float32 in
// [-1, 1]; on-disk sample formats are fixed 16-bit or 24-bit signed PCM.
package ioformat

import (
	"encoding/binary"
	"fmt"
	"io"
)

// BitDepth selects the on-disk PCM sample width.
type BitDepth int

const (
	Bits16 BitDepth = 16
	Bits24 BitDepth = 24
)

// WriteWAVParams describes the container's format chunk.
type WriteWAVParams struct {
	SampleRate uint32
	Channels   int
	BitDepth   BitDepth
}

// WriteWAV writes samples (interleaved, len()%Channels == 0) as a
// canonical RIFF/WAVE file to w, scaling float samples to the
// requested bit depth the same way the original does:
// 16-bit via *32767, 24-bit via *8388607, both clamped to [-1, 1]
// first.
func WriteWAV(w io.Writer, params WriteWAVParams, samples []float32) error {
	if params.Channels < 1 {
		return fmt.Errorf("ioformat: channels must be positive")
	}
	if params.BitDepth != Bits16 && params.BitDepth != Bits24 {
		return fmt.Errorf("ioformat: unsupported bit depth %d", params.BitDepth)
	}

	bytesPerSample := int(params.BitDepth) / 8
	blockAlign := params.Channels * bytesPerSample
	dataSize := len(samples) * bytesPerSample
	byteRate := params.SampleRate * uint32(blockAlign)

	if err := writeChunkHeader(w, "RIFF", 4+8+16+8+dataSize); err != nil {
		return err
	}
	if _, err := io.WriteString(w, "WAVE"); err != nil {
		return err
	}

	if err := writeChunkHeader(w, "fmt ", 16); err != nil {
		return err
	}
	fmtFields := []any{
		uint16(1), // PCM
		uint16(params.Channels),
		params.SampleRate,
		byteRate,
		uint16(blockAlign),
		uint16(params.BitDepth),
	}
	for _, f := range fmtFields {
		if err := binary.Write(w, binary.LittleEndian, f); err != nil {
			return err
		}
	}

	if err := writeChunkHeader(w, "data", dataSize); err != nil {
		return err
	}
	return writePCMSamples(w, params.BitDepth, samples)
}

func writeChunkHeader(w io.Writer, id string, size int) error {
	if _, err := io.WriteString(w, id); err != nil {
		return err
	}
	return binary.Write(w, binary.LittleEndian, uint32(size))
}

func writePCMSamples(w io.Writer, depth BitDepth, samples []float32) error {
	switch depth {
	case Bits16:
		buf := make([]byte, 2)
		for _, s := range samples {
			v := int16(clamp(s) * 32767.0)
			binary.LittleEndian.PutUint16(buf, uint16(v))
			if _, err := w.Write(buf); err != nil {
				return err
			}
		}
	case Bits24:
		buf := make([]byte, 3)
		for _, s := range samples {
			v := int32(clamp(s) * 8388607.0)
			buf[0] = byte(v)
			buf[1] = byte(v >> 8)
			buf[2] = byte(v >> 16)
			if _, err := w.Write(buf); err != nil {
				return err
			}
		}
	}
	return nil
}

func clamp(s float32) float32 {
	if s > 1 {
		return 1
	}
	if s < -1 {
		return -1
	}
	return s
}

// WAVData is a decoded WAV file's format and sample payload.
type WAVData struct {
	SampleRate uint32
	Channels   int
	BitDepth   BitDepth
	Samples    []float32 // interleaved, in [-1, 1]
}

// ReadWAV parses a canonical RIFF/WAVE PCM file, scanning chunks in
// order and decoding the first "data" chunk found against the "fmt "
// chunk that must precede it.
func ReadWAV(r io.Reader) (WAVData, error) {
	var riffHeader [12]byte
	if _, err := io.ReadFull(r, riffHeader[:]); err != nil {
		return WAVData{}, fmt.Errorf("ioformat: read RIFF header: %w", err)
	}
	if string(riffHeader[0:4]) != "RIFF" || string(riffHeader[8:12]) != "WAVE" {
		return WAVData{}, fmt.Errorf("ioformat: not a RIFF/WAVE file")
	}

	var data WAVData
	var bytesPerSample int

	for {
		var id [4]byte
		var size uint32
		if _, err := io.ReadFull(r, id[:]); err != nil {
			if err == io.EOF {
				break
			}
			return WAVData{}, err
		}
		if err := binary.Read(r, binary.LittleEndian, &size); err != nil {
			return WAVData{}, err
		}

		switch string(id[:]) {
		case "fmt ":
			body := make([]byte, size)
			if _, err := io.ReadFull(r, body); err != nil {
				return WAVData{}, err
			}
			channels := binary.LittleEndian.Uint16(body[2:4])
			sampleRate := binary.LittleEndian.Uint32(body[4:8])
			bits := binary.LittleEndian.Uint16(body[14:16])
			data.Channels = int(channels)
			data.SampleRate = sampleRate
			data.BitDepth = BitDepth(bits)
			bytesPerSample = int(bits) / 8
		case "data":
			if bytesPerSample == 0 {
				return WAVData{}, fmt.Errorf("ioformat: data chunk before fmt chunk")
			}
			body := make([]byte, size)
			if _, err := io.ReadFull(r, body); err != nil {
				return WAVData{}, err
			}
			data.Samples = decodePCMSamples(data.BitDepth, body)
			return data, nil
		default:
			if err := skip(r, int64(size)); err != nil {
				return WAVData{}, err
			}
		}
		if size%2 == 1 { // chunks are word-aligned
			if err := skip(r, 1); err != nil {
				return WAVData{}, err
			}
		}
	}
	return WAVData{}, fmt.Errorf("ioformat: no data chunk found")
}

func skip(r io.Reader, n int64) error {
	_, err := io.CopyN(io.Discard, r, n)
	return err
}

func decodePCMSamples(depth BitDepth, body []byte) []float32 {
	switch depth {
	case Bits16:
		out := make([]float32, len(body)/2)
		for i := range out {
			v := int16(binary.LittleEndian.Uint16(body[i*2 : i*2+2]))
			out[i] = float32(v) / 32768.0
		}
		return out
	case Bits24:
		out := make([]float32, len(body)/3)
		for i := range out {
			b0, b1, b2 := body[i*3], body[i*3+1], body[i*3+2]
			v := int32(b0) | int32(b1)<<8 | int32(b2)<<16
			if v&0x800000 != 0 {
				v |= int32(-1) << 24 // sign-extend
			}
			out[i] = float32(v) / 8388608.0
		}
		return out
	}
	return nil
}
