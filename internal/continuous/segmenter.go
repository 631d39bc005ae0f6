package continuous

import (
	"time"

	"github.com/rbright/dictate/internal/audio"
	"github.com/rbright/dictate/internal/config"
	"github.com/rbright/dictate/internal/metrics"
	"github.com/rbright/dictate/internal/silence"
)

// minSegmentBytes is the smallest segment worth transcribing.
const minSegmentBytes = 1000

// Segment is one cut of captured PCM.
type Segment struct {
	Index    int
	PCM      []byte
	Reason   string
	Duration time.Duration
	// Voiced is false when no chunk in the segment rose above the silence
	// threshold.
	Voiced bool
}

// Transcribable reports whether the segment should be sent to the transcriber.
func (s Segment) Transcribable() bool {
	return s.Voiced && len(s.PCM) >= minSegmentBytes
}

// Segmenter buffers capture chunks and cuts them into segments at silence
// boundaries or when the buffer reaches the maximum chunk length.
//
// A Segmenter is owned by one capture loop and is not safe for concurrent use.
type Segmenter struct {
	detector *silence.Detector
	maxBytes int

	buf    []byte
	voiced bool
	next   int
}

// NewSegmenter builds a segmenter from continuous-mode settings.
func NewSegmenter(cfg config.ContinuousConfig) (*Segmenter, error) {
	detector, err := silence.NewDetector(cfg.SilenceThreshold, cfg.SilenceWindow(), audio.SampleRate)
	if err != nil {
		return nil, err
	}

	maxBytes := int(int64(cfg.MaxChunk()) * audio.BytesPerSecond / int64(time.Second))
	maxBytes -= maxBytes % audio.BytesPerSample
	return &Segmenter{detector: detector, maxBytes: maxBytes}, nil
}

// Push appends chunk and returns a segment when a cut point is reached.
func (s *Segmenter) Push(chunk []byte) (Segment, bool) {
	if len(chunk) == 0 {
		return Segment{}, false
	}

	s.buf = append(s.buf, chunk...)
	boundary := s.detector.Feed(chunk)
	if len(chunk) >= audio.BytesPerSample && s.detector.SilentSamples() == 0 {
		s.voiced = true
	}

	switch {
	case boundary:
		return s.cut(metrics.ReasonSilence), true
	case s.maxBytes > 0 && len(s.buf) >= s.maxBytes:
		return s.cut(metrics.ReasonMaxLen), true
	default:
		return Segment{}, false
	}
}

// Flush returns whatever is buffered once capture has ended.
func (s *Segmenter) Flush() (Segment, bool) {
	if len(s.buf) == 0 {
		return Segment{}, false
	}
	return s.cut(metrics.ReasonEnd), true
}

// Buffered returns the number of PCM bytes waiting for a cut.
func (s *Segmenter) Buffered() int {
	return len(s.buf)
}

func (s *Segmenter) cut(reason string) Segment {
	seg := Segment{
		Index:    s.next,
		PCM:      s.buf,
		Reason:   reason,
		Duration: audio.PCMDuration(len(s.buf)),
		Voiced:   s.voiced,
	}
	s.next++
	s.buf = nil
	s.voiced = false
	s.detector.Reset()
	return seg
}
