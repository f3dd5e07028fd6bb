package audio

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"os/exec"
	"strings"
)

// Decoder turns a file into interleaved 48 kHz stereo int16 samples.
type Decoder func(ctx context.Context, path string) ([]int16, error)

// FFmpegDecoder returns a Decoder that shells out to the given ffmpeg binary.
func FFmpegDecoder(bin string) Decoder {
	if bin == "" {
		bin = "ffmpeg"
	}
	return func(ctx context.Context, path string) ([]int16, error) {
		cmd := exec.CommandContext(ctx, bin,
			"-i", path,
			"-f", "s16le",
			"-acodec", "pcm_s16le",
			"-ar", "48000",
			"-ac", "2",
			"-loglevel", "error",
			"pipe:1",
		)
		var stderr bytes.Buffer
		cmd.Stderr = &stderr

		out, err := cmd.Output()
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w: %s", path, err, strings.TrimSpace(stderr.String()))
		}
		return BytesToSamples(out), nil
	}
}

// BytesToSamples reads little-endian int16 samples; a trailing odd byte is dropped.
func BytesToSamples(b []byte) []int16 {
	samples := make([]int16, len(b)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(b[i*2:]))
	}
	return samples
}

// SamplesToBytes converts int16 samples to little-endian bytes.
func SamplesToBytes(samples []int16) []byte {
	buf := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(s))
	}
	return buf
}
