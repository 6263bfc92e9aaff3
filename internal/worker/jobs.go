package worker

import "context"

type funcJob struct {
	name string
	fn   func(context.Context) error
}

func (j funcJob) Name() string                  { return j.name }
func (j funcJob) Run(ctx context.Context) error { return j.fn(ctx) }

// NewJob wraps fn as a named Job.
func NewJob(name string, fn func(context.Context) error) Job {
	return funcJob{name: name, fn: fn}
}
