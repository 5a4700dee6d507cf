package async

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/docgate/internal/common"
	"github.com/joseph-ayodele/docgate/internal/pipeline"
	"github.com/joseph-ayodele/docgate/internal/roots"
)

type fakeConverter struct {
	inFlight, peak atomic.Int32
	delay          time.Duration
}

func (f *fakeConverter) Convert(ctx context.Context, _ *roots.Policy, req pipeline.Request) (*pipeline.Result, error) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}
	time.Sleep(f.delay)
	if req.Path == "bad" {
		return nil, errors.New("boom")
	}
	return &pipeline.Result{RequestID: common.RequestIDFromContext(ctx), Output: req.Path}, nil
}

func TestConversionQueueRunsAllJobs(t *testing.T) {
	conv := &fakeConverter{delay: 5 * time.Millisecond}
	q := NewConversionQueue(conv, nil, WithWorkers(3), WithQueueSize(2))

	var (
		mu      sync.Mutex
		outputs []string
		failed  int
	)
	paths := []string{"a", "b", "bad", "c", "d", "e", "f"}
	for _, p := range paths {
		err := q.Enqueue(context.Background(), Job{
			ID:      "id-" + p,
			Request: pipeline.Request{Path: p, Format: "text"},
			Done: func(res *pipeline.Result, err error) {
				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					failed++
					return
				}
				outputs = append(outputs, res.Output)
				assert.Equal(t, "id-"+res.Output, res.RequestID)
			},
		})
		require.NoError(t, err)
	}
	q.Shutdown(context.Background())

	assert.ElementsMatch(t, []string{"a", "b", "c", "d", "e", "f"}, outputs)
	assert.Equal(t, 1, failed)
	assert.LessOrEqual(t, conv.peak.Load(), int32(3))
}

func TestConversionQueueRejectsAfterShutdown(t *testing.T) {
	q := NewConversionQueue(&fakeConverter{}, nil, WithWorkers(1))
	q.Shutdown(context.Background())
	q.Shutdown(context.Background())

	err := q.Enqueue(context.Background(), Job{Request: pipeline.Request{Path: "a"}})
	assert.ErrorIs(t, err, ErrQueueClosed)
}

func TestConversionQueueEnqueueHonoursContext(t *testing.T) {
	block := make(chan struct{})
	conv := converterFunc(func(context.Context, *roots.Policy, pipeline.Request) (*pipeline.Result, error) {
		<-block
		return &pipeline.Result{}, nil
	})
	q := NewConversionQueue(conv, nil, WithWorkers(1), WithQueueSize(1))
	defer func() {
		close(block)
		q.Shutdown(context.Background())
	}()

	require.NoError(t, q.Enqueue(context.Background(), Job{Request: pipeline.Request{Path: "1"}}))
	// the worker holds job 1, so job 2 fills the buffer
	require.NoError(t, q.Enqueue(context.Background(), Job{Request: pipeline.Request{Path: "2"}}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := q.Enqueue(ctx, Job{Request: pipeline.Request{Path: "3"}})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

type converterFunc func(context.Context, *roots.Policy, pipeline.Request) (*pipeline.Result, error)

func (f converterFunc) Convert(ctx context.Context, p *roots.Policy, r pipeline.Request) (*pipeline.Result, error) {
	return f(ctx, p, r)
}
