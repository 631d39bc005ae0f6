package audio

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const (
	bitDepth      = 16
	wavFormatPCM  = 1
	monoChannels  = 1
	wavFilePerm   = 0o600
	tempWAVPrefix = "dictate-*.wav"
)

// EncodeWAV writes little-endian mono s16 PCM at SampleRate as a WAV stream.
// A trailing odd byte is dropped.
func EncodeWAV(w io.WriteSeeker, pcm []byte) error {
	samples := make([]int, len(pcm)/BytesPerSample)
	for i := range samples {
		samples[i] = int(int16(binary.LittleEndian.Uint16(pcm[i*BytesPerSample:])))
	}

	enc := wav.NewEncoder(w, SampleRate, bitDepth, monoChannels, wavFormatPCM)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: monoChannels, SampleRate: SampleRate},
		Data:           samples,
		SourceBitDepth: bitDepth,
	}
	if err := enc.Write(buf); err != nil {
		_ = enc.Close()
		return fmt.Errorf("encode wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("finalize wav: %w", err)
	}
	return nil
}

// WriteWAVFile encodes pcm into a new file at path.
func WriteWAVFile(path string, pcm []byte) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, wavFilePerm)
	if err != nil {
		return fmt.Errorf("open wav file %q: %w", path, err)
	}
	if err := EncodeWAV(file, pcm); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}

// WriteTempWAV encodes pcm into a new temporary file and returns its path.
// The caller removes the file.
func WriteTempWAV(dir string, pcm []byte) (string, error) {
	file, err := os.CreateTemp(dir, tempWAVPrefix)
	if err != nil {
		return "", fmt.Errorf("create temp wav: %w", err)
	}
	path := file.Name()
	if err := EncodeWAV(file, pcm); err != nil {
		_ = file.Close()
		_ = os.Remove(path)
		return "", err
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("close temp wav: %w", err)
	}
	return path, nil
}

// Clip is decoded mono 16-bit audio at its native sample rate.
type Clip struct {
	SampleRate int
	Samples    []int16
}

// ReadWAVFile decodes an integer PCM WAV file. Multi-channel audio is
// averaged down to mono and 24/32-bit samples are scaled to 16 bits.
func ReadWAVFile(path string) (Clip, error) {
	file, err := os.Open(path)
	if err != nil {
		return Clip{}, fmt.Errorf("open wav file %q: %w", path, err)
	}
	defer file.Close()

	dec := wav.NewDecoder(file)
	if !dec.IsValidFile() {
		return Clip{}, fmt.Errorf("%q is not a valid wav file", path)
	}
	if dec.WavAudioFormat != wavFormatPCM {
		return Clip{}, fmt.Errorf("%q: unsupported wav format %d", path, dec.WavAudioFormat)
	}
	shift := int(dec.BitDepth) - bitDepth
	if shift < 0 || shift > 16 || shift%8 != 0 {
		return Clip{}, fmt.Errorf("%q: unsupported bit depth %d", path, dec.BitDepth)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return Clip{}, fmt.Errorf("decode wav %q: %w", path, err)
	}
	channels := buf.Format.NumChannels
	if channels < 1 {
		return Clip{}, fmt.Errorf("%q: wav has no channels", path)
	}

	samples := make([]int16, len(buf.Data)/channels)
	for i := range samples {
		sum := 0
		for _, v := range buf.Data[i*channels : (i+1)*channels] {
			sum += v
		}
		samples[i] = int16((sum / channels) >> shift)
	}
	return Clip{SampleRate: buf.Format.SampleRate, Samples: samples}, nil
}
