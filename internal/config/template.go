package config

// Template returns the commented default JSONC config written by `dictate config --init`.
func Template() string {
	return `{
  // OpenAI-compatible whisper server (faster-whisper-server, speaches, whisper.cpp).
  "transcriber": {
    "endpoint": "http://127.0.0.1:8000",
    "path": "/v1/audio/transcriptions",
    "health_path": "/health",
    "model": "base.en",
    "language": "en",
    "timeout_ms": 60000,
    "retries": 2
  },
  "audio": {
    "input": "default",
    "fallback": "default"
  },
  // method: clipboard (copy + paste shortcut) or type (type_cmd reads stdin).
  "typing": {
    "method": "clipboard",
    "type_cmd": "wtype -"
  },
  "paste": {
    "enable": true,
    "shortcut": "CTRL,V"
  },
  "output": {
    "trailing_space": true
  },
  // Empty clipboard_cmd uses the system clipboard.
  "clipboard_cmd": "",
  "paste_cmd": "",
  "pipeline": {
    "auto_capitalize": true,
    "voice_commands": true,
    // {"pattern": "\\bteh\\b", "replacement": "the"}
    "custom_replacements": [],
    "llm": {
      "enabled": false,
      "endpoint": "http://localhost:11434",
      "model": "",
      "prompt": "Clean up this dictated text, fixing grammar while preserving meaning:",
      "timeout_ms": 30000
    }
  },
  "voice_commands": {
    "enabled": true,
    // {"from": "rocket emoji", "to": "🚀"}
    "custom": []
  },
  "continuous": {
    "silence_threshold": 0.03,
    "silence_duration": 1.5,
    "max_chunk_duration": 30,
    "metrics_addr": ""
  },
  "profiles": {
    "enabled": false,
    // {"window_class": "kitty|alacritty", "typing_method": "type", "auto_capitalize": false}
    "rules": []
  },
  "history": {
    "enabled": true,
    // "path": "~/.local/share/dictate/history.jsonl",
    "max_entries": 10000
  },
  "indicator": {
    "enable": true,
    "backend": "hypr",
    "desktop_app_name": "dictate-indicator",
    "sound_enable": true,
    "height": 28,
    "error_timeout_ms": 1600
  },
  "vocab": {
    // "global": ["names"],
    // "sets": {"names": {"boost": 10, "phrases": ["Hyprland"]}},
    "max_phrases": 256
  },
  "debug": {
    "audio_dump": false
  }
}
`
}
