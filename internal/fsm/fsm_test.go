package fsm

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDictationLifecycle(t *testing.T) {
	state := StateIdle
	for _, step := range []struct {
		event Event
		want  State
	}{
		{EventStart, StateRecording},
		{EventStop, StateTranscribing},
		{EventTranscribed, StateProcessing},
		{EventProcessed, StateIdle},
		{EventStart, StateRecording},
		{EventCancel, StateIdle},
	} {
		next, err := Transition(state, step.event)
		require.NoError(t, err, "%s on %s", state, step.event)
		require.Equal(t, step.want, next)
		state = next
	}
}

func TestFailAndReset(t *testing.T) {
	for state := range known {
		next, err := Transition(state, EventFail)
		require.NoError(t, err)
		require.Equal(t, StateError, next)

		next, err = Transition(next, EventReset)
		require.NoError(t, err)
		require.Equal(t, StateIdle, next)
	}
}

func TestRejectedEventsKeepState(t *testing.T) {
	allowed := map[State][]Event{
		StateIdle:         {EventStart},
		StateRecording:    {EventStop, EventCancel},
		StateTranscribing: {EventTranscribed},
		StateProcessing:   {EventProcessed},
		StateError:        {EventReset},
	}
	events := []Event{EventStart, EventStop, EventCancel, EventTranscribed, EventProcessed, EventReset}

	for state, ok := range allowed {
		for _, event := range events {
			if slices.Contains(ok, event) {
				continue
			}
			next, err := Transition(state, event)
			require.ErrorContains(t, err, "invalid transition", "%s on %s", state, event)
			require.Equal(t, state, next)
		}
	}
}

func TestUnknownState(t *testing.T) {
	next, err := Transition(State("paused"), EventStart)
	require.ErrorContains(t, err, `unknown state "paused"`)
	require.Equal(t, State("paused"), next)
}

func TestBusy(t *testing.T) {
	busy := map[State]bool{StateTranscribing: true, StateProcessing: true}
	for state := range known {
		require.Equal(t, busy[state], state.Busy(), state)
	}
}
