package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/joseph-ayodele/docgate/internal/common"
	"github.com/joseph-ayodele/docgate/internal/entity"
)

// GateEventRepository is the audit log of access decisions. It never stores
// document content.
type GateEventRepository interface {
	Record(ctx context.Context, e entity.GateEvent) error
	Recent(ctx context.Context, limit int) ([]entity.GateEvent, error)
	ByRequest(ctx context.Context, requestID string) ([]entity.GateEvent, error)
}

type gateEventRepo struct {
	db  *DB
	log *slog.Logger
}

func NewGateEventRepository(db *DB, log *slog.Logger) GateEventRepository {
	if log == nil {
		log = slog.Default()
	}
	return &gateEventRepo{db: db, log: log}
}

func (r *gateEventRepo) Record(ctx context.Context, e entity.GateEvent) error {
	roots, err := json.Marshal(e.Roots)
	if err != nil {
		return fmt.Errorf("marshal roots: %w", err)
	}
	if e.Roots == nil {
		roots = []byte("[]")
	}
	_, err = r.db.ExecContext(ctx, r.db.Rebind(`INSERT INTO gate_events
		(request_id, op, path, allowed, roots, stage, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
		e.RequestID, e.Op, e.Path, e.Allowed, string(roots), e.Stage, e.Error, e.CreatedAt.UTC())
	if err != nil {
		r.log.Error("gate_event insert failed", "request_id", e.RequestID, "err", err)
		return common.WrapError(fmt.Errorf("%w: %w", common.ErrDatabase, err), "record gate event")
	}
	r.log.Debug("gate_event recorded", "request_id", e.RequestID, "op", e.Op, "allowed", e.Allowed)
	return nil
}

func (r *gateEventRepo) Recent(ctx context.Context, limit int) ([]entity.GateEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	return r.query(ctx, `SELECT id, request_id, op, path, allowed, roots, stage, error, created_at
		FROM gate_events ORDER BY id DESC LIMIT ?`, limit)
}

func (r *gateEventRepo) ByRequest(ctx context.Context, requestID string) ([]entity.GateEvent, error) {
	return r.query(ctx, `SELECT id, request_id, op, path, allowed, roots, stage, error, created_at
		FROM gate_events WHERE request_id = ? ORDER BY id`, requestID)
}

func (r *gateEventRepo) query(ctx context.Context, q string, args ...any) ([]entity.GateEvent, error) {
	rows, err := r.db.QueryContext(ctx, r.db.Rebind(q), args...)
	if err != nil {
		return nil, common.WrapError(fmt.Errorf("%w: %w", common.ErrDatabase, err), "query gate events")
	}
	defer rows.Close()

	var out []entity.GateEvent
	for rows.Next() {
		var (
			e     entity.GateEvent
			roots string
		)
		if err := rows.Scan(&e.ID, &e.RequestID, &e.Op, &e.Path, &e.Allowed, &roots, &e.Stage, &e.Error, &e.CreatedAt); err != nil {
			return nil, common.WrapError(fmt.Errorf("%w: %w", common.ErrDatabase, err), "scan gate event")
		}
		if err := json.Unmarshal([]byte(roots), &e.Roots); err != nil {
			return nil, fmt.Errorf("decode roots of gate event %d: %w", e.ID, err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, common.WrapError(fmt.Errorf("%w: %w", common.ErrDatabase, err), "iterate gate events")
	}
	return out, nil
}
