// Package ipc carries newline-delimited JSON commands over the session unix socket.
package ipc

import (
	"bufio"
	"encoding/json"
	"errors"
	"io"
	"os"
	"strings"
	"syscall"
)

// Commands understood by session owners.
const (
	CommandStatus = "status"
	CommandToggle = "toggle"
	CommandStop   = "stop"
	CommandCancel = "cancel"
)

// maxMessageBytes bounds a single request or response line.
const maxMessageBytes = 64 << 10

// KnownCommand reports whether name is a command a session owner serves.
func KnownCommand(name string) bool {
	switch name {
	case CommandStatus, CommandToggle, CommandStop, CommandCancel:
		return true
	default:
		return false
	}
}

type Request struct {
	Command string `json:"command"`
}

// Response is the owner's reply. Mode is set by continuous sessions.
type Response struct {
	OK      bool   `json:"ok"`
	State   string `json:"state,omitempty"`
	Mode    string `json:"mode,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

func failure(op string, err error) Response {
	return Response{OK: false, Error: op + ": " + err.Error()}
}

func writeMessage(w io.Writer, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = w.Write(append(data, '\n'))
	return err
}

// readLine returns one newline-terminated message without the newline.
func readLine(r io.Reader) ([]byte, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 512), maxMessageBytes)
	if scanner.Scan() {
		return scanner.Bytes(), nil
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return nil, io.ErrUnexpectedEOF
}

// Unreachable reports dial failures that mean no owner is listening: the
// socket file is missing or nothing accepts on it.
func Unreachable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, os.ErrNotExist) || errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}
	return strings.Contains(err.Error(), "no such file or directory")
}
