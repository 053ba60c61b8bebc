package media

import (
	"errors"
	"fmt"

	"gocv.io/x/gocv"
)

// ErrOpenFailed is returned when a video container cannot be read.
var ErrOpenFailed = errors.New("failed to open media")

// Sampler decodes a video and yields roughly two frames per second of
// source footage. The sequence is lazy, finite, and non-restartable.
type Sampler struct {
	capture  *gocv.VideoCapture
	interval int
	index    int
}

// OpenSampler opens the video at path and computes the sampling interval
// from the container's reported frame rate.
func OpenSampler(path string) (*Sampler, error) {
	capture, err := gocv.OpenVideoCapture(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOpenFailed, err)
	}
	if !capture.IsOpened() {
		capture.Close()
		return nil, fmt.Errorf("%w: %s", ErrOpenFailed, path)
	}

	return &Sampler{
		capture:  capture,
		interval: SampleInterval(capture.Get(gocv.VideoCaptureFPS)),
	}, nil
}

// SampleInterval returns how many decoded frames to advance per yielded
// frame: max(1, fps/2), targeting ~2 sampled frames per second. A zero or
// unreadable frame rate falls back to sampling every decoded frame.
func SampleInterval(fps float64) int {
	interval := int(fps / 2)
	if interval < 1 {
		return 1
	}
	return interval
}

// Next decodes forward to the next sampled frame, storing it in dst and
// returning its ordinal index. Frames off the sampling cadence are decoded
// but discarded. Returns false when the stream is exhausted.
func (s *Sampler) Next(dst *gocv.Mat) (int, bool) {
	for {
		if ok := s.capture.Read(dst); !ok || dst.Empty() {
			return 0, false
		}
		index := s.index
		s.index++
		if index%s.interval == 0 {
			return index, true
		}
	}
}

// Close releases the underlying media handle. Safe to call exactly once on
// every exit path.
func (s *Sampler) Close() error {
	return s.capture.Close()
}
