package async

import (
	"context"
	"errors"
	"time"

	"github.com/joseph-ayodele/docgate/internal/pipeline"
	"github.com/joseph-ayodele/docgate/internal/roots"
)

var ErrQueueClosed = errors.New("queue is shutting down")

// Job is one conversion. Done, when set, receives the outcome on the worker
// goroutine.
type Job struct {
	ID          string
	Policy      *roots.Policy
	Request     pipeline.Request
	SubmittedAt time.Time
	Done        func(*pipeline.Result, error)
}

type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Shutdown(ctx context.Context)
}

// Converter is the part of *pipeline.Pipeline the workers need.
type Converter interface {
	Convert(ctx context.Context, policy *roots.Policy, req pipeline.Request) (*pipeline.Result, error)
}
