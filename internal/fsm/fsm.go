// Package fsm defines the dictation session lifecycle:
//
//	idle -> recording -> transcribing -> processing -> idle
//
// Cancel returns a recording session to idle. Any state may fail into error,
// which only reset leaves.
package fsm

import "fmt"

type State string

type Event string

const (
	StateIdle         State = "idle"
	StateRecording    State = "recording"
	StateTranscribing State = "transcribing"
	StateProcessing   State = "processing"
	StateError        State = "error"
)

const (
	EventStart       Event = "start"
	EventStop        Event = "stop"
	EventCancel      Event = "cancel"
	EventTranscribed Event = "transcribed"
	EventProcessed   Event = "processed"
	EventFail        Event = "fail"
	EventReset       Event = "reset"
)

type edge struct {
	from State
	on   Event
}

var edges = map[edge]State{
	{StateIdle, EventStart}:               StateRecording,
	{StateRecording, EventStop}:           StateTranscribing,
	{StateRecording, EventCancel}:         StateIdle,
	{StateTranscribing, EventTranscribed}: StateProcessing,
	{StateProcessing, EventProcessed}:     StateIdle,
	{StateError, EventReset}:              StateIdle,
}

var known = map[State]bool{
	StateIdle:         true,
	StateRecording:    true,
	StateTranscribing: true,
	StateProcessing:   true,
	StateError:        true,
}

// Busy reports whether capture has ended and the result is still being
// produced, so stop and cancel no longer apply.
func (s State) Busy() bool {
	return s == StateTranscribing || s == StateProcessing
}

// Transition returns the state reached from current on event. On error the
// returned state is current.
func Transition(current State, event Event) (State, error) {
	if event == EventFail {
		return StateError, nil
	}
	if !known[current] {
		return current, fmt.Errorf("unknown state %q", current)
	}
	if next, ok := edges[edge{current, event}]; ok {
		return next, nil
	}
	return current, fmt.Errorf("invalid transition: %s --(%s)--> ?", current, event)
}
