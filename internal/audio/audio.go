// Package audio decodes takes to PCM and plays a preview queue at real-time
// pace for the preview streams.
package audio

import "time"

const (
	SampleRate    = 48000
	Channels      = 2
	FrameDuration = 20 * time.Millisecond
	FrameSize     = 960                  // samples per channel per 20ms frame
	FrameSamples  = FrameSize * Channels // total interleaved samples per frame
	FrameBytes    = FrameSamples * 2     // bytes per frame (int16 = 2 bytes)
)

// TakeInfo identifies a file queued for preview.
type TakeInfo struct {
	ID   string `json:"id"`
	Song string `json:"song"`
	Path string `json:"path"`
	Name string `json:"name"` // file name without extension
}
