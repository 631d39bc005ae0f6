// Package audio handles device discovery, selection, PCM capture, and WAV
// encoding for dictation audio.
package audio

import "time"

// Capture format shared with transcription and silence detection.
const (
	SampleRate     = 16000
	BytesPerSample = 2
	BytesPerSecond = SampleRate * BytesPerSample

	// ChunkBytes is one 20 ms frame of capture audio.
	ChunkBytes = BytesPerSecond / 50
)

// PCMDuration converts a mono s16 byte count at SampleRate to wall time.
func PCMDuration(bytes int) time.Duration {
	return time.Duration(bytes) * time.Second / BytesPerSecond
}
