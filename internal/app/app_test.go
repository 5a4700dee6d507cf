package app

import (
	"context"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/docgate/internal/async"
	"github.com/joseph-ayodele/docgate/internal/common"
	"github.com/joseph-ayodele/docgate/internal/ocr"
	"github.com/joseph-ayodele/docgate/internal/pipeline"
)

func testConfig(t *testing.T, rootDirs ...string) *common.Config {
	t.Helper()
	v, err := common.NewViper("")
	require.NoError(t, err)
	cfg := common.LoadConfig(v)
	cfg.Roots = rootDirs
	return cfg
}

func noTools() ocr.Runner {
	return ocr.RunnerFunc(func(context.Context, string, ...string) ([]byte, []byte, error) {
		return nil, nil, os.ErrNotExist
	})
}

func TestNewRecordsGateDecisions(t *testing.T) {
	root, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	src := filepath.Join(root, "note.txt")
	require.NoError(t, os.WriteFile(src, []byte("Amount: $5.00\n"), 0o644))

	cfg := testConfig(t, root)
	cfg.Audit.DSN = ":memory:"
	a, err := New(context.Background(), cfg, nil, WithRunner(noTools()))
	require.NoError(t, err)
	defer a.Close()

	assert.Equal(t, []string{root}, a.Policy.Load().Roots())
	require.NotNil(t, a.Audit)

	res, err := a.Pipeline.Convert(context.Background(), a.Policy.Load(), pipeline.Request{Path: src, Format: "text"})
	require.NoError(t, err)
	assert.Contains(t, res.Output, "Amount: $5.00")

	_, err = a.Pipeline.Convert(context.Background(), a.Policy.Load(), pipeline.Request{Path: "/etc/passwd", Format: "text"})
	require.ErrorIs(t, err, common.ErrAccessDenied)

	events, err := a.Audit.Recent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.False(t, events[0].Allowed)
	assert.True(t, events[1].Allowed)
	assert.Equal(t, res.RequestID, events[1].RequestID)
}

func TestNewPassesOCRSettings(t *testing.T) {
	root, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	src := filepath.Join(root, "scan.png")
	f, err := os.Create(src)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, image.NewGray(image.Rect(0, 0, 8, 8))))
	require.NoError(t, f.Close())

	var (
		mu  sync.Mutex
		tsv bool
	)
	runner := ocr.RunnerFunc(func(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
		if name != "tesseract" {
			return nil, nil, os.ErrNotExist
		}
		if slices.Contains(args, "tsv") {
			mu.Lock()
			tsv = true
			mu.Unlock()
			return []byte("level\tconf\ttext\n5\t90\tTOTAL\n"), nil, nil
		}
		return []byte("TOTAL 5.00\n"), nil, nil
	})

	cfg := testConfig(t, root)
	cfg.OCR.TSVConfidence = true
	cfg.OCR.Binarize = true
	a, err := New(context.Background(), cfg, nil, WithRunner(runner))
	require.NoError(t, err)
	defer a.Close()

	res, err := a.Pipeline.Convert(context.Background(), a.Policy.Load(), pipeline.Request{Path: src, Format: "text"})
	require.NoError(t, err)
	assert.Contains(t, res.Output, "TOTAL 5.00")
	mu.Lock()
	defer mu.Unlock()
	assert.True(t, tsv)
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig(t, t.TempDir())
	cfg.Log.Format = "xml"
	_, err := New(context.Background(), cfg, nil)
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestNewWithoutUsableRoots(t *testing.T) {
	cfg := testConfig(t, filepath.Join(t.TempDir(), "missing"))
	_, err := New(context.Background(), cfg, nil)
	assert.ErrorIs(t, err, common.ErrNoRoots)
}

func TestQueueRunsConversions(t *testing.T) {
	root, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	src := filepath.Join(root, "a.txt")
	require.NoError(t, os.WriteFile(src, []byte("hello"), 0o644))

	a, err := New(context.Background(), testConfig(t, root), nil, WithRunner(noTools()))
	require.NoError(t, err)
	defer a.Close()

	q := a.Queue()
	done := make(chan *pipeline.Result, 1)
	require.NoError(t, q.Enqueue(context.Background(), async.Job{
		ID:      "job-1",
		Policy:  a.Policy.Load(),
		Request: pipeline.Request{Path: src, Format: "text"},
		Done: func(res *pipeline.Result, err error) {
			assert.NoError(t, err)
			done <- res
		},
	}))
	q.Shutdown(context.Background())
	res := <-done
	require.NotNil(t, res)
	assert.Contains(t, res.Output, "hello")
}
