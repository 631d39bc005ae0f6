package dictation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/rbright/dictate/internal/audio"
)

// Recording is one live capture stream.
type Recording interface {
	Chunks() <-chan []byte
	Stop() error
	RawPCM() []byte
	BytesCaptured() int64
	DeviceName() string
}

// Recorder opens capture streams.
type Recorder interface {
	Record(ctx context.Context, opts audio.CaptureOptions) (Recording, error)
}

// PulseRecorder captures from the configured Pulse source, falling back when
// the preferred device is unavailable.
type PulseRecorder struct {
	Input    string
	Fallback string
	Logger   *slog.Logger
}

// Record selects a device and starts capture.
func (r PulseRecorder) Record(ctx context.Context, opts audio.CaptureOptions) (Recording, error) {
	selection, err := audio.SelectDevice(ctx, r.Input, r.Fallback)
	if err != nil {
		return nil, err
	}
	if selection.Warning != "" && r.Logger != nil {
		r.Logger.Warn(selection.Warning)
	}

	capture, err := audio.StartCapture(ctx, selection.Device, opts)
	if err != nil {
		return nil, err
	}
	return pulseRecording{Capture: capture}, nil
}

type pulseRecording struct {
	*audio.Capture
}

func (p pulseRecording) DeviceName() string {
	return describeDevice(p.Device())
}

// describeDevice formats device metadata for logs and session results.
func describeDevice(device audio.Device) string {
	description := strings.TrimSpace(device.Description)
	id := strings.TrimSpace(device.ID)
	if description == "" {
		return id
	}
	if id == "" {
		return description
	}
	return fmt.Sprintf("%s (%s)", description, id)
}
