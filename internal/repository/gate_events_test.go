package repository

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/docgate/internal/entity"
)

func openMemory(t *testing.T) *DB {
	t.Helper()
	db, err := Open(context.Background(), Config{DSN: ":memory:"}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close(nil) })
	return db
}

func TestDialectOf(t *testing.T) {
	assert.Equal(t, DialectPostgres, DialectOf("postgres://u:p@localhost:5432/docgate"))
	assert.Equal(t, DialectPostgres, DialectOf("postgresql://localhost/docgate"))
	assert.Equal(t, DialectSQLite, DialectOf("/var/lib/docgate/audit.db"))
	assert.Equal(t, DialectSQLite, DialectOf(":memory:"))
}

func TestRebind(t *testing.T) {
	pg := &DB{Dialect: DialectPostgres}
	assert.Equal(t, "SELECT * FROM t WHERE a = $1 AND b = $2", pg.Rebind("SELECT * FROM t WHERE a = ? AND b = ?"))
	lite := &DB{Dialect: DialectSQLite}
	assert.Equal(t, "SELECT ?", lite.Rebind("SELECT ?"))
}

func TestGateEventsRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewGateEventRepository(openMemory(t), nil)
	at := time.Date(2025, 3, 5, 10, 21, 33, 0, time.UTC)

	events := []entity.GateEvent{
		{RequestID: "r1", Op: "convert", Path: "/tmp/docs/a.txt", Allowed: true, Roots: []string{"/tmp/docs"}, Stage: "authorized", CreatedAt: at},
		{RequestID: "r2", Op: "convert", Path: "/etc/passwd", Allowed: false, Roots: []string{"/tmp/docs"}, Stage: "rejected", Error: "access denied", CreatedAt: at.Add(time.Second)},
		{RequestID: "r2", Op: "save", Path: "/tmp/docs/out.md", Allowed: true, CreatedAt: at.Add(2 * time.Second)},
	}
	for _, e := range events {
		require.NoError(t, repo.Record(ctx, e))
	}

	recent, err := repo.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "save", recent[0].Op)
	assert.Equal(t, []string{}, recent[0].Roots)
	assert.Equal(t, "/etc/passwd", recent[1].Path)
	assert.False(t, recent[1].Allowed)
	assert.Equal(t, "access denied", recent[1].Error)
	assert.Equal(t, []string{"/tmp/docs"}, recent[1].Roots)
	assert.True(t, recent[1].CreatedAt.Equal(at.Add(time.Second)))
	assert.Greater(t, recent[0].ID, recent[1].ID)

	byReq, err := repo.ByRequest(ctx, "r2")
	require.NoError(t, err)
	require.Len(t, byReq, 2)
	assert.Equal(t, "convert", byReq[0].Op)
	assert.Equal(t, "save", byReq[1].Op)
}

func TestHealthCheck(t *testing.T) {
	db := openMemory(t)
	assert.NoError(t, HealthCheck(context.Background(), db, time.Second, slog.New(slog.DiscardHandler)))
}
