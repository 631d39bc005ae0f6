package indicator

import (
	"strings"

	"github.com/rbright/dictate/internal/config"
)

type messages struct {
	recording    string
	listening    string
	transcribing string
	processing   string
	errorText    string
}

var defaultMessages = messages{
	recording:    "Recording…",
	listening:    "Listening…",
	transcribing: "Transcribing…",
	processing:   "Processing…",
	errorText:    "Speech recognition error",
}

// newMessages applies non-blank configured texts over the defaults.
// text_processing labels the transcription wait, the longest visible phase.
func newMessages(cfg config.IndicatorConfig) messages {
	m := defaultMessages
	for _, o := range []struct {
		dst *string
		raw string
	}{
		{&m.recording, cfg.TextRecording},
		{&m.listening, cfg.TextListening},
		{&m.transcribing, cfg.TextProcessing},
		{&m.errorText, cfg.TextError},
	} {
		if text := strings.TrimSpace(o.raw); text != "" {
			*o.dst = text
		}
	}
	return m
}
