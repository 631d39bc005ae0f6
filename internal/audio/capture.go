package audio

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/jfreymuth/pulse"
	pulseproto "github.com/jfreymuth/pulse/proto"
)

const captureQueue = 128

// CaptureOptions tunes one capture stream.
type CaptureOptions struct {
	// RetainPCM keeps every captured byte for RawPCM. Continuous capture
	// leaves it off so memory stays bounded.
	RetainPCM bool
}

// framer re-slices arbitrary PCM writes into ChunkBytes frames.
type framer struct {
	pending []byte
}

func (f *framer) push(b []byte) [][]byte {
	f.pending = append(f.pending, b...)
	var frames [][]byte
	for len(f.pending) >= ChunkBytes {
		frames = append(frames, append([]byte(nil), f.pending[:ChunkBytes]...))
		f.pending = f.pending[ChunkBytes:]
	}
	return frames
}

// rest returns and clears the partial frame.
func (f *framer) rest() []byte {
	out := f.pending
	f.pending = nil
	return out
}

// Capture records 16 kHz mono s16 audio from one Pulse source and delivers
// it on Chunks in ChunkBytes frames. Chunks is closed by Stop, or when the
// context given to StartCapture ends.
type Capture struct {
	device Device
	retain bool

	client *pulse.Client
	stream *pulse.RecordStream

	chunks chan []byte
	done   chan struct{}

	mu      sync.Mutex
	frames  framer
	raw     []byte
	stopped bool

	inflight sync.WaitGroup
	bytes    atomic.Int64
}

func newCapture(device Device, opts CaptureOptions) *Capture {
	return &Capture{
		device: device,
		retain: opts.RetainPCM,
		chunks: make(chan []byte, captureQueue),
		done:   make(chan struct{}),
	}
}

// StartCapture opens a record stream on device and starts delivering chunks.
func StartCapture(ctx context.Context, device Device, opts CaptureOptions) (*Capture, error) {
	client, err := newPulseClient()
	if err != nil {
		return nil, err
	}

	source, err := client.SourceByID(device.ID)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("resolve source %q: %w", device.ID, err)
	}

	c := newCapture(device, opts)
	c.client = client

	stream, err := client.NewRecord(
		pulse.NewWriter(pcmWriter{c}, pulseproto.FormatInt16LE),
		pulse.RecordSource(source),
		pulse.RecordMono,
		pulse.RecordSampleRate(SampleRate),
		pulse.RecordBufferFragmentSize(ChunkBytes),
		pulse.RecordMediaName("dictate capture"),
	)
	if err != nil {
		_ = c.Stop()
		return nil, fmt.Errorf("create pulse record stream: %w", err)
	}
	c.stream = stream
	stream.Start()

	context.AfterFunc(ctx, func() { _ = c.Stop() })
	return c, nil
}

func (c *Capture) Device() Device {
	return c.device
}

func (c *Capture) Chunks() <-chan []byte {
	return c.chunks
}

// BytesCaptured reports total bytes accepted from Pulse.
func (c *Capture) BytesCaptured() int64 {
	return c.bytes.Load()
}

// RawPCM returns a copy of everything captured so far. It is empty unless
// the capture was started with RetainPCM.
func (c *Capture) RawPCM() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]byte(nil), c.raw...)
}

// Stop ends the stream, delivers any partial frame, and closes Chunks. It is
// safe to call more than once.
func (c *Capture) Stop() error {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return nil
	}
	c.stopped = true
	close(c.done)
	c.mu.Unlock()

	if c.stream != nil {
		c.stream.Stop()
		c.stream.Close()
	}
	if c.client != nil {
		c.client.Close()
	}

	c.inflight.Wait()

	c.mu.Lock()
	tail := c.frames.rest()
	c.mu.Unlock()
	if len(tail) > 0 {
		select {
		case c.chunks <- tail:
		default:
		}
	}

	close(c.chunks)
	return nil
}

// write is the Pulse record callback.
func (c *Capture) write(buffer []byte) (int, error) {
	if len(buffer) == 0 {
		return 0, nil
	}

	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return 0, io.EOF
	}
	// Add happens under mu so it cannot race Stop's Wait.
	c.inflight.Add(1)
	defer c.inflight.Done()

	if c.retain {
		c.raw = append(c.raw, buffer...)
	}
	frames := c.frames.push(buffer)
	c.mu.Unlock()

	c.bytes.Add(int64(len(buffer)))

	for _, frame := range frames {
		select {
		case <-c.done:
			return 0, io.EOF
		case c.chunks <- frame:
		}
	}
	return len(buffer), nil
}

// pcmWriter adapts Capture.write to the io.Writer pulse.NewWriter expects.
type pcmWriter struct {
	c *Capture
}

func (w pcmWriter) Write(b []byte) (int, error) {
	return w.c.write(b)
}
