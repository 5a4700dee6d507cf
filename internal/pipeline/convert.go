package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"github.com/joseph-ayodele/docgate/constants"
	"github.com/joseph-ayodele/docgate/internal/common"
	"github.com/joseph-ayodele/docgate/internal/entity"
	"github.com/joseph-ayodele/docgate/internal/fields"
	"github.com/joseph-ayodele/docgate/internal/render"
	"github.com/joseph-ayodele/docgate/internal/roots"
)

// run tracks one request through its stages.
type run struct {
	p      *Pipeline
	policy *roots.Policy
	res    *Result
	logger *slog.Logger
	start  time.Time
}

func (r *run) advance(s constants.Stage, args ...any) {
	r.res.Stage = s
	r.logger.Debug("conversion stage", append([]any{"stage", s}, args...)...)
}

// fail moves the request to a terminal stage and returns err unchanged.
func (r *run) fail(s constants.Stage, err error) error {
	r.res.Stage = s
	r.logger.Warn("conversion stopped", "stage", s, "error", err, "elapsed", time.Since(r.start))
	return err
}

// gate checks resolved against the policy and records the decision.
func (r *run) gate(ctx context.Context, op, resolved string) error {
	err := r.policy.Check(resolved)
	ev := entity.GateEvent{
		RequestID: r.res.RequestID,
		Op:        op,
		Path:      resolved,
		Allowed:   err == nil,
		Roots:     r.policy.Roots(),
		Stage:     string(constants.StageAuthorized),
		CreatedAt: time.Now().UTC(),
	}
	if err != nil {
		ev.Stage = string(constants.StageRejected)
		ev.Error = err.Error()
	}
	r.p.record(ctx, ev)
	return err
}

func (p *Pipeline) record(ctx context.Context, ev entity.GateEvent) {
	if p.recorder == nil {
		return
	}
	if err := p.recorder.Record(context.WithoutCancel(ctx), ev); err != nil {
		p.logger.Error("record gate event", "request_id", ev.RequestID, "path", ev.Path, "error", err)
	}
}

// Convert runs req against policy. Access and format problems are reported
// before the source is read. When saving fails the in-memory Result is
// returned together with the *common.WriteError.
func (p *Pipeline) Convert(ctx context.Context, policy *roots.Policy, req Request) (*Result, error) {
	ctx, reqID := common.EnsureRequestID(ctx)
	if common.OperationFromContext(ctx) == "" {
		ctx = common.WithOperation(ctx, "convert")
	}
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	r := &run{
		p:      p,
		policy: policy,
		res:    &Result{RequestID: reqID, Stage: constants.StageReceived},
		logger: p.logger.With("request_id", reqID, "op", common.OperationFromContext(ctx), "path", req.Path),
		start:  time.Now(),
	}
	r.logger.Debug("conversion received", "format", req.Format, "destination", req.Destination)

	format, ok := constants.ParseOutputFormat(req.Format)
	if !ok {
		return nil, r.fail(constants.StageFailed, &common.UnsupportedFormatError{
			Value:     req.Format,
			What:      "output format",
			Supported: constants.FormatNames(),
		})
	}
	r.res.Format = format
	if policy == nil {
		return nil, r.fail(constants.StageRejected, common.ErrNoRoots)
	}

	resolved, err := roots.Resolve(req.Path)
	if err != nil {
		return nil, r.fail(constants.StageFailed, err)
	}
	r.advance(constants.StageResolved, "resolved", resolved)

	if err := r.gate(ctx, common.OperationFromContext(ctx), resolved); err != nil {
		return nil, r.fail(constants.StageRejected, err)
	}
	backend, err := p.registry.Select(resolved)
	if err != nil {
		return nil, r.fail(constants.StageFailed, err)
	}
	var dest string
	if req.Destination != "" {
		if dest, err = roots.Resolve(req.Destination); err != nil {
			return nil, r.fail(constants.StageFailed, err)
		}
		if err := r.gate(ctx, "save", dest); err != nil {
			return nil, r.fail(constants.StageRejected, err)
		}
		if err := roots.RequireWritable(req.Destination, dest); err != nil {
			return nil, r.fail(constants.StageFailed, err)
		}
	}
	r.advance(constants.StageAuthorized)

	if err := requireRegularFile(req.Path, resolved); err != nil {
		return nil, r.fail(constants.StageFailed, err)
	}

	doc, err := backend.Extract(ctx, resolved)
	if err != nil {
		if cerr := ctx.Err(); cerr != nil && !errors.Is(err, cerr) {
			err = cerr
		}
		return nil, r.fail(constants.StageFailed, err)
	}
	r.res.Document = doc
	r.advance(constants.StageExtracted, "backend", backend.Name(), "method", doc.Method,
		"pages", len(doc.Pages), "confidence", doc.Confidence, "warnings", len(doc.Warnings))

	r.res.Fields = fields.Parse(doc)
	r.advance(constants.StageParsed, "records", len(r.res.Fields))

	out, err := render.Render(doc, r.res.Fields, format)
	if err != nil {
		return nil, r.fail(constants.StageFailed, err)
	}
	r.res.Output = out
	r.advance(constants.StageRendered, "bytes", len(out))

	if dest == "" {
		r.res.Stage = constants.StageCompleted
		r.logger.Info("conversion completed", "format", format, "records", len(r.res.Fields), "elapsed", time.Since(r.start))
		return r.res, nil
	}

	if err := p.write(dest, []byte(out)); err != nil {
		return r.res, r.fail(constants.StageFailed, &common.WriteError{Path: dest, Cause: err})
	}
	r.res.SavedTo = dest
	r.res.Stage = constants.StageSaved
	r.logger.Info("conversion saved", "format", format, "saved_to", dest, "elapsed", time.Since(r.start))
	return r.res, nil
}

func requireRegularFile(input, resolved string) error {
	if err := roots.RequireExisting(input, resolved); err != nil {
		return err
	}
	st, err := os.Stat(resolved)
	if err != nil {
		return &common.InvalidPathError{Input: input, Reason: "cannot stat", Cause: err}
	}
	if !st.Mode().IsRegular() {
		return &common.InvalidPathError{Input: input, Reason: "not a regular file"}
	}
	return nil
}
