package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/docgate/constants"
	"github.com/joseph-ayodele/docgate/internal/roots"
)

func next(t *testing.T, ch <-chan string) string {
	t.Helper()
	select {
	case p, ok := <-ch:
		require.True(t, ok, "channel closed")
		return p
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for watch event")
		return ""
	}
}

func TestWatchEmitsSupportedFiles(t *testing.T) {
	root, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(root, "existing.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "existing.txt.md"), []byte("x"), 0o644))
	policy, err := roots.NewPolicy([]string{root}, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events, _, err := Start(ctx, Config{
		Policy:      policy,
		InitialScan: true,
		Debounce:    20 * time.Millisecond,
		Ignore:      func(p string) bool { return IsOutput(p, constants.FormatMarkdown) },
	})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(root, "existing.txt"), next(t, events))

	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.docx"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, ".hidden.pdf"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "scan.pdf"), []byte("x"), 0o644))
	assert.Equal(t, filepath.Join(root, "scan.pdf"), next(t, events))

	sub := filepath.Join(root, "sub")
	require.NoError(t, os.Mkdir(sub, 0o755))
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(sub, "photo.png"), []byte("x"), 0o644))
	assert.Equal(t, filepath.Join(sub, "photo.png"), next(t, events))

	cancel()
	for range events {
	}
}

func TestWatchSkipsDirectoriesItCannotAdd(t *testing.T) {
	root, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	broken := filepath.Join(root, "broken")
	locked := filepath.Join(root, "locked")
	good := filepath.Join(root, "good")
	for _, d := range []string{broken, locked, good} {
		require.NoError(t, os.Mkdir(d, 0o755))
	}
	require.NoError(t, os.WriteFile(filepath.Join(broken, "skipped.txt"), []byte("x"), 0o644))
	require.NoError(t, os.Chmod(locked, 0o000))
	t.Cleanup(func() { _ = os.Chmod(locked, 0o755) })

	orig := addWatch
	addWatch = func(w *fsnotify.Watcher, dir string) error {
		if dir == broken {
			return errors.New("no space left on device")
		}
		return orig(w, dir)
	}
	t.Cleanup(func() { addWatch = orig })

	policy, err := roots.NewPolicy([]string{root}, nil)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events, _, err := Start(ctx, Config{Policy: policy, InitialScan: true, Debounce: 20 * time.Millisecond})
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(good, "scan.pdf"), []byte("x"), 0o644))
	assert.Equal(t, filepath.Join(good, "scan.pdf"), next(t, events))

	cancel()
	for range events {
	}
}

func TestStartFailsWhenNoRootCanBeWatched(t *testing.T) {
	root, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	orig := addWatch
	addWatch = func(*fsnotify.Watcher, string) error { return errors.New("too many open files") }
	t.Cleanup(func() { addWatch = orig })

	policy, err := roots.NewPolicy([]string{root}, nil)
	require.NoError(t, err)
	_, _, err = Start(context.Background(), Config{Policy: policy})
	assert.ErrorContains(t, err, "too many open files")
}

func TestStartWithoutPolicy(t *testing.T) {
	_, _, err := Start(context.Background(), Config{})
	assert.Error(t, err)
}

func TestOutputPaths(t *testing.T) {
	assert.Equal(t, "/r/a.pdf.md", OutputPath("/r/a.pdf", constants.FormatMarkdown))
	assert.Equal(t, "/r/a.pdf.json", OutputPath("/r/a.pdf", constants.FormatJSON))
	assert.True(t, IsOutput("/r/a.pdf.md", constants.FormatMarkdown))
	assert.True(t, IsOutput("/r/a.png.txt", constants.FormatText))
	assert.False(t, IsOutput("/r/notes.md", constants.FormatMarkdown))
	assert.False(t, IsOutput("/r/a.pdf.md", constants.FormatJSON))
}
