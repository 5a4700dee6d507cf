// Package pipeline runs a conversion request through the gate and the
// extraction, parsing and rendering stages.
package pipeline

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"github.com/joseph-ayodele/docgate/constants"
	"github.com/joseph-ayodele/docgate/internal/common"
	"github.com/joseph-ayodele/docgate/internal/entity"
	"github.com/joseph-ayodele/docgate/internal/extract"
	"github.com/joseph-ayodele/docgate/internal/fields"
	"github.com/joseph-ayodele/docgate/internal/locate"
	"github.com/joseph-ayodele/docgate/internal/roots"
)

// Request asks for one conversion. Format is the caller's raw format name;
// an empty Destination keeps the output in memory.
type Request struct {
	Path        string
	Format      string
	Destination string
}

// Result is the outcome of a conversion. The pipeline does not keep it.
type Result struct {
	RequestID string
	Document  *extract.Document
	Fields    []fields.Record
	Format    constants.OutputFormat
	Output    string
	Stage     constants.Stage
	SavedTo   string
}

// Recorder receives every gate decision. Implementations must be safe for
// concurrent use.
type Recorder interface {
	Record(ctx context.Context, e entity.GateEvent) error
}

// Pipeline holds no per-request state; one value serves concurrent requests
// with different policies.
type Pipeline struct {
	registry *extract.Registry
	recorder Recorder
	timeout  time.Duration
	write    func(path string, data []byte) error
	logger   *slog.Logger
}

type Option func(*Pipeline)

// WithRecorder sends gate decisions to r.
func WithRecorder(r Recorder) Option {
	return func(p *Pipeline) { p.recorder = r }
}

// WithTimeout bounds every Convert call. Zero means no limit.
func WithTimeout(d time.Duration) Option {
	return func(p *Pipeline) { p.timeout = d }
}

// WithWriter replaces WriteAtomic as the way outputs reach their destination.
func WithWriter(fn func(path string, data []byte) error) Option {
	return func(p *Pipeline) { p.write = fn }
}

func New(registry *extract.Registry, logger *slog.Logger, opts ...Option) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Pipeline{registry: registry, write: WriteAtomic, logger: logger}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Registry exposes the backend registry for callers that pre-filter inputs.
func (p *Pipeline) Registry() *extract.Registry { return p.registry }

// ListRoots returns the policy's roots in order.
func (p *Pipeline) ListRoots(policy *roots.Policy) []string {
	if policy == nil {
		return nil
	}
	return policy.Roots()
}

// FindDocuments collects the resolved paths of supported files under the
// policy's roots whose names match pattern.
func (p *Pipeline) FindDocuments(ctx context.Context, policy *roots.Policy, pattern string) ([]string, error) {
	if policy == nil {
		return nil, common.ErrNoRoots
	}
	ctx, reqID := common.EnsureRequestID(ctx)
	loc := locate.NewLocator(policy, p.logger)
	out := slices.Collect(loc.Paths(ctx, pattern))
	if err := ctx.Err(); err != nil {
		return out, err
	}
	p.logger.Debug("find completed", "request_id", reqID, "pattern", pattern, "matches", len(out))
	return out, nil
}
