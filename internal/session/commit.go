package session

import "context"

// Committer post-processes and delivers a transcript once stop succeeds.
// It returns the text that reached the focused application.
type Committer interface {
	Commit(context.Context, StopResult) (string, error)
}

// CommitFunc adapts a function to the Committer interface.
type CommitFunc func(context.Context, StopResult) (string, error)

func (f CommitFunc) Commit(ctx context.Context, stop StopResult) (string, error) {
	return f(ctx, stop)
}

// passthrough delivers nothing and reports the raw transcript as final text.
func passthrough(_ context.Context, stop StopResult) (string, error) {
	return stop.Transcript, nil
}
