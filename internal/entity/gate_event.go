package entity

import "time"

// GateEvent is one access decision of the gate: which path a request asked
// for, whether the policy admitted it and how far the request got.
type GateEvent struct {
	ID        int64     `json:"id"`
	RequestID string    `json:"request_id"`
	Op        string    `json:"op"`
	Path      string    `json:"path"`
	Allowed   bool      `json:"allowed"`
	Roots     []string  `json:"roots"`
	Stage     string    `json:"stage"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
