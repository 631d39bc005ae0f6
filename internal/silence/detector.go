// Package silence detects trailing silence in streaming 16-bit PCM audio.
package silence

import (
	"encoding/binary"
	"fmt"
	"math"
	"time"
)

// Defaults used by continuous dictation.
const (
	DefaultThreshold  = 0.03
	DefaultDuration   = 1500 * time.Millisecond
	DefaultSampleRate = 16000

	bytesPerSample = 2
	fullScale      = 32768.0
)

// Detector accumulates consecutive silent samples and reports when the
// configured silence window has elapsed.
//
// A Detector is owned by one capture loop and is not safe for concurrent use.
type Detector struct {
	threshold float64
	required  int
	silent    int
}

// NewDetector validates parameters and returns a detector with a zero counter.
func NewDetector(threshold float64, duration time.Duration, sampleRate int) (*Detector, error) {
	if threshold < 0 || threshold > 1 {
		return nil, fmt.Errorf("threshold must be between 0 and 1, got %f", threshold)
	}
	if duration < 0 {
		return nil, fmt.Errorf("silence duration must not be negative, got %s", duration)
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %d", sampleRate)
	}

	return &Detector{
		threshold: threshold,
		required:  int(int64(duration) * int64(sampleRate) / int64(time.Second)),
	}, nil
}

// Feed consumes one little-endian int16 mono chunk and reports whether the
// accumulated silence has reached the window. Chunks shorter than one sample
// are ignored.
func (d *Detector) Feed(chunk []byte) bool {
	if len(chunk) < bytesPerSample {
		return false
	}

	if RMS(chunk) < d.threshold {
		d.silent += len(chunk) / bytesPerSample
	} else {
		d.silent = 0
	}
	return d.silent >= d.required
}

// Reset zeroes the silent-sample counter.
func (d *Detector) Reset() {
	d.silent = 0
}

// SilentSamples returns the current run of consecutive silent samples.
func (d *Detector) SilentSamples() int {
	return d.silent
}

// RequiredSamples returns the silent-sample count that triggers a boundary.
func (d *Detector) RequiredSamples() int {
	return d.required
}

// RMS returns the root-mean-square amplitude of chunk normalized to [0, 1].
// A trailing odd byte is ignored.
func RMS(chunk []byte) float64 {
	n := len(chunk) / bytesPerSample
	if n == 0 {
		return 0
	}

	var energy float64
	for i := 0; i < n; i++ {
		sample := float64(int16(binary.LittleEndian.Uint16(chunk[i*bytesPerSample:])))
		energy += sample * sample
	}
	return math.Sqrt(energy/float64(n)) / fullScale
}
