package indicator

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/jfreymuth/pulse"

	"github.com/rbright/dictate/internal/audio"
	"github.com/rbright/dictate/internal/config"
)

type cue int

const (
	cueStart cue = iota + 1
	cueStop
	cueComplete
	cueCancel
)

const (
	cueSampleRate  = audio.SampleRate
	cueVolume      = 0.18
	cueGap         = 22 * time.Millisecond
	cueRamp        = 5 * time.Millisecond
	cuePlayTimeout = 4 * time.Second
)

type tone struct {
	hz       float64
	duration time.Duration
}

// Rising pairs open and complete a session; falling ones cancel it.
var cueTones = map[cue][]tone{
	cueStart:    {{880, 70 * time.Millisecond}, {1175, 70 * time.Millisecond}},
	cueStop:     {{620, 120 * time.Millisecond}},
	cueComplete: {{740, 65 * time.Millisecond}, {988, 90 * time.Millisecond}},
	cueCancel:   {{480, 75 * time.Millisecond}, {360, 90 * time.Millisecond}},
}

// cuePlayer plays one cue at a time in the background. A configured WAV file
// replaces the built-in tone for its cue; unreadable files fall back to the
// tone and are reported once.
type cuePlayer struct {
	enabled bool
	files   map[cue]string
	logger  *slog.Logger

	mu    sync.Mutex
	clips map[cue]audio.Clip
	sink  func(context.Context, audio.Clip) error
}

func newCuePlayer(cfg config.IndicatorConfig, logger *slog.Logger) *cuePlayer {
	return &cuePlayer{
		enabled: cfg.SoundEnable,
		files: map[cue]string{
			cueStart:    cfg.SoundStartFile,
			cueStop:     cfg.SoundStopFile,
			cueComplete: cfg.SoundCompleteFile,
			cueCancel:   cfg.SoundCancelFile,
		},
		logger: logger,
		clips:  map[cue]audio.Clip{},
		sink:   playClip,
	}
}

func (p *cuePlayer) play(kind cue) {
	if !p.enabled {
		return
	}
	go func() {
		p.mu.Lock()
		defer p.mu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), cuePlayTimeout)
		defer cancel()
		if err := p.sink(ctx, p.clip(kind)); err != nil && p.logger != nil {
			p.logger.Debug("indicator audio cue failed", "error", err.Error())
		}
	}()
}

// clip resolves and caches the audio for kind. Callers hold p.mu.
func (p *cuePlayer) clip(kind cue) audio.Clip {
	if c, ok := p.clips[kind]; ok {
		return c
	}

	c := synthesize(cueTones[kind])
	if path := p.files[kind]; path != "" {
		loaded, err := audio.ReadWAVFile(path)
		switch {
		case err != nil:
			if p.logger != nil {
				p.logger.Warn("indicator cue file unusable; using built-in tone", "path", path, "error", err.Error())
			}
		case len(loaded.Samples) > 0:
			c = loaded
		}
	}
	p.clips[kind] = c
	return c
}

func playClip(ctx context.Context, clip audio.Clip) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(clip.Samples) == 0 {
		return nil
	}

	client, err := pulse.NewClient(
		pulse.ClientApplicationName("dictate"),
		pulse.ClientApplicationIconName("audio-input-microphone"),
	)
	if err != nil {
		return fmt.Errorf("connect pulse server: %w", err)
	}
	defer client.Close()

	remaining := clip.Samples
	reader := pulse.Int16Reader(func(buf []int16) (int, error) {
		n := copy(buf, remaining)
		remaining = remaining[n:]
		if len(remaining) == 0 {
			return n, pulse.EndOfData
		}
		return n, nil
	})

	stream, err := client.NewPlayback(
		reader,
		pulse.PlaybackMono,
		pulse.PlaybackSampleRate(clip.SampleRate),
		pulse.PlaybackLatency(0.02),
		pulse.PlaybackMediaName("dictate indicator cue"),
	)
	if err != nil {
		return fmt.Errorf("create pulse playback stream: %w", err)
	}
	defer stream.Close()

	stream.Start()
	stream.Drain()
	if err := stream.Error(); err != nil {
		return fmt.Errorf("play cue stream: %w", err)
	}
	return nil
}

// synthesize renders tones back to back with a short silent gap between them.
func synthesize(tones []tone) audio.Clip {
	gap := make([]int16, samplesFor(cueGap))
	var pcm []int16
	for i, t := range tones {
		if i > 0 {
			pcm = append(pcm, gap...)
		}
		pcm = append(pcm, sine(t)...)
	}
	return audio.Clip{SampleRate: cueSampleRate, Samples: pcm}
}

// sine renders one tone with linear attack and release ramps so it does not click.
func sine(t tone) []int16 {
	n := samplesFor(t.duration)
	if n == 0 || t.hz <= 0 {
		return nil
	}
	ramp := max(min(n/10, samplesFor(cueRamp)), 1)

	out := make([]int16, n)
	for i := range out {
		envelope := min(1, float64(i)/float64(ramp), float64(n-1-i)/float64(ramp))
		phase := 2 * math.Pi * t.hz * float64(i) / cueSampleRate
		out[i] = int16(math.Round(math.Sin(phase) * cueVolume * envelope * math.MaxInt16))
	}
	return out
}

func samplesFor(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(math.Round(d.Seconds() * cueSampleRate))
}
