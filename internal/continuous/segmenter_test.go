package continuous

import (
	"encoding/binary"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rbright/dictate/internal/config"
	"github.com/rbright/dictate/internal/metrics"
)

// chunkBytes matches the 20ms capture chunk size.
const chunkBytes = 640

func loudChunk() []byte {
	chunk := make([]byte, chunkBytes)
	for i := 0; i < chunkBytes/2; i++ {
		sample := int16(10000)
		if i%2 == 1 {
			sample = -10000
		}
		binary.LittleEndian.PutUint16(chunk[i*2:], uint16(sample))
	}
	return chunk
}

func silentChunk() []byte {
	return make([]byte, chunkBytes)
}

// testContinuousConfig cuts after 100ms of silence (5 chunks) or 1s of audio.
func testContinuousConfig() config.ContinuousConfig {
	return config.ContinuousConfig{
		SilenceThreshold: 0.03,
		SilenceDuration:  0.1,
		MaxChunkDuration: 1,
	}
}

func newTestSegmenter(t *testing.T) *Segmenter {
	t.Helper()
	s, err := NewSegmenter(testContinuousConfig())
	require.NoError(t, err)
	return s
}

func pushAll(t *testing.T, s *Segmenter, chunks ...[]byte) []Segment {
	t.Helper()
	var out []Segment
	for _, chunk := range chunks {
		if seg, ok := s.Push(chunk); ok {
			out = append(out, seg)
		}
	}
	return out
}

func repeat(chunk func() []byte, n int) [][]byte {
	out := make([][]byte, n)
	for i := range out {
		out[i] = chunk()
	}
	return out
}

func TestSegmenterCutsAtSilenceBoundary(t *testing.T) {
	s := newTestSegmenter(t)

	chunks := append(repeat(loudChunk, 10), repeat(silentChunk, 5)...)
	segments := pushAll(t, s, chunks...)

	require.Len(t, segments, 1)
	seg := segments[0]
	require.Equal(t, 0, seg.Index)
	require.Equal(t, metrics.ReasonSilence, seg.Reason)
	require.True(t, seg.Voiced)
	require.True(t, seg.Transcribable())
	require.Len(t, seg.PCM, 15*chunkBytes)
	require.Equal(t, 300*time.Millisecond, seg.Duration)
	require.Zero(t, s.Buffered())
}

func TestSegmenterMarksSilentSegmentUnvoiced(t *testing.T) {
	s := newTestSegmenter(t)

	segments := pushAll(t, s, repeat(silentChunk, 5)...)
	require.Len(t, segments, 1)
	require.False(t, segments[0].Voiced)
	require.False(t, segments[0].Transcribable())
}

func TestSegmenterSpeechResetsSilenceRun(t *testing.T) {
	s := newTestSegmenter(t)

	chunks := append(repeat(silentChunk, 4), loudChunk())
	chunks = append(chunks, repeat(silentChunk, 4)...)
	require.Empty(t, pushAll(t, s, chunks...))

	seg, ok := s.Push(silentChunk())
	require.True(t, ok)
	require.True(t, seg.Voiced)
}

func TestSegmenterForcesCutAtMaxChunkDuration(t *testing.T) {
	s := newTestSegmenter(t)

	segments := pushAll(t, s, repeat(loudChunk, 51)...)
	require.Len(t, segments, 1)
	require.Equal(t, metrics.ReasonMaxLen, segments[0].Reason)
	require.Equal(t, time.Second, segments[0].Duration)
	require.Equal(t, chunkBytes, s.Buffered())
}

func TestSegmenterFlushReturnsTail(t *testing.T) {
	s := newTestSegmenter(t)

	_, ok := s.Flush()
	require.False(t, ok)

	pushAll(t, s, repeat(loudChunk, 3)...)
	seg, ok := s.Flush()
	require.True(t, ok)
	require.Equal(t, metrics.ReasonEnd, seg.Reason)
	require.True(t, seg.Voiced)
	require.Len(t, seg.PCM, 3*chunkBytes)

	_, ok = s.Flush()
	require.False(t, ok)
}

func TestSegmenterNumbersSegments(t *testing.T) {
	s := newTestSegmenter(t)

	chunks := append(repeat(loudChunk, 2), repeat(silentChunk, 5)...)
	chunks = append(chunks, repeat(silentChunk, 5)...)
	segments := pushAll(t, s, chunks...)
	require.Len(t, segments, 2)
	require.Equal(t, 0, segments[0].Index)
	require.Equal(t, 1, segments[1].Index)
	require.True(t, segments[0].Voiced)
	require.False(t, segments[1].Voiced)
}

func TestShortVoicedSegmentIsNotTranscribable(t *testing.T) {
	seg := Segment{PCM: make([]byte, minSegmentBytes-2), Voiced: true}
	require.False(t, seg.Transcribable())
}

func TestSegmenterIgnoresEmptyChunks(t *testing.T) {
	s := newTestSegmenter(t)
	_, ok := s.Push(nil)
	require.False(t, ok)
	require.Zero(t, s.Buffered())
}

func TestNewSegmenterRejectsInvalidThreshold(t *testing.T) {
	cfg := testContinuousConfig()
	cfg.SilenceThreshold = 2
	_, err := NewSegmenter(cfg)
	require.Error(t, err)
}
