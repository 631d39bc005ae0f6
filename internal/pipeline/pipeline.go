// Package pipeline runs ordered post-processing steps over transcribed text.
package pipeline

import (
	"context"
	"time"
)

// Context carries text and dictation metadata through one pipeline run.
type Context struct {
	Text        string
	ModelUsed   string
	Duration    time.Duration
	WindowClass string

	original string
}

// Metadata describes where a transcript came from.
type Metadata struct {
	ModelUsed   string
	Duration    time.Duration
	WindowClass string
}

// NewContext seeds a context; text is also recorded as the original.
func NewContext(text string, meta Metadata) Context {
	return Context{
		Text:        text,
		ModelUsed:   meta.ModelUsed,
		Duration:    meta.Duration,
		WindowClass: meta.WindowClass,
		original:    text,
	}
}

// Original returns the text as it first entered the pipeline.
func (c Context) Original() string {
	return c.original
}

// Step is one text transformation. Apply must not fail; a step that cannot
// do its work returns its input unchanged.
type Step interface {
	Name() string
	Apply(ctx context.Context, in Context) Context
}

// Observer receives per-step timing.
type Observer func(step string, elapsed time.Duration)

// Pipeline is a fixed, ordered sequence of steps.
type Pipeline struct {
	steps    []Step
	observer Observer
}

// New returns a pipeline running steps in the given order.
func New(steps ...Step) *Pipeline {
	return &Pipeline{steps: append([]Step(nil), steps...)}
}

// WithObserver returns a copy of p that reports step timings to observer.
func (p *Pipeline) WithObserver(observer Observer) *Pipeline {
	return &Pipeline{steps: p.steps, observer: observer}
}

// Steps returns the step names in execution order.
func (p *Pipeline) Steps() []string {
	names := make([]string, 0, len(p.steps))
	for _, step := range p.steps {
		names = append(names, step.Name())
	}
	return names
}

// Process runs every step in order, feeding each the previous output.
func (p *Pipeline) Process(ctx context.Context, in Context) Context {
	out := in
	for _, step := range p.steps {
		started := time.Now()
		out = step.Apply(ctx, out)
		out.original = in.original
		if p.observer != nil {
			p.observer(step.Name(), time.Since(started))
		}
	}
	return out
}
