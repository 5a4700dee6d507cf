// Package watch reports supported documents that appear or change under the
// roots of a policy.
package watch

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/joseph-ayodele/docgate/constants"
	"github.com/joseph-ayodele/docgate/internal/roots"
)

// addWatch registers one directory with the watcher.
var addWatch = func(w *fsnotify.Watcher, dir string) error { return w.Add(dir) }

type Config struct {
	Policy      *roots.Policy
	InitialScan bool                   // emit files already present
	Debounce    time.Duration          // coalesce rapid create/write/rename bursts
	Ignore      func(path string) bool // extra filter, e.g. our own outputs
	Logger      *slog.Logger
}

// Start watches every root recursively. Emitted paths are resolved, admitted
// by the policy and carry a supported extension. Both channels close when ctx
// ends.
func Start(ctx context.Context, cfg Config) (<-chan string, <-chan error, error) {
	if cfg.Policy == nil || len(cfg.Policy.Roots()) == 0 {
		return nil, nil, errors.New("no roots provided")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Error("failed to create fsnotify watcher", "error", err)
		return nil, nil, err
	}

	var (
		initial []string
		watched int
		lastErr error
	)
	for _, r := range cfg.Policy.Roots() {
		_ = filepath.WalkDir(r, func(path string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				logger.Warn("skipping unreadable path", "path", path, "error", walkErr)
				if d != nil && d.IsDir() {
					return fs.SkipDir
				}
				return nil
			}
			if d.IsDir() {
				if path != r && hidden(path) {
					return fs.SkipDir
				}
				if err := addWatch(w, path); err != nil {
					logger.Warn("skipping directory the watcher cannot add", "path", path, "error", err)
					lastErr = err
					return fs.SkipDir
				}
				watched++
				return nil
			}
			if cfg.InitialScan {
				initial = append(initial, path)
			}
			return nil
		})
	}
	if watched == 0 {
		_ = w.Close()
		if lastErr == nil {
			lastErr = errors.New("no root directory could be watched")
		}
		logger.Error("failed to watch any root", "roots", cfg.Policy.Roots(), "error", lastErr)
		return nil, nil, lastErr
	}

	evCh := make(chan string, 256)
	errCh := make(chan error, 1)
	s := &session{cfg: cfg, logger: logger, w: w, out: evCh}

	go func() {
		defer close(evCh)
		defer close(errCh)
		defer func() {
			if err := w.Close(); err != nil {
				logger.Warn("closing watcher", "error", err)
			}
		}()

		pending := map[string]struct{}{}
		for _, p := range initial {
			pending[p] = struct{}{}
		}
		if !s.flush(ctx, pending) {
			return
		}

		var (
			timer  *time.Timer
			timerC <-chan time.Time
		)
		defer func() {
			if timer != nil {
				timer.Stop()
			}
		}()

		for {
			select {
			case <-ctx.Done():
				return
			case e, ok := <-w.Events:
				if !ok {
					return
				}
				if e.Has(fsnotify.Create) {
					for _, f := range s.addTree(e.Name) {
						pending[f] = struct{}{}
					}
				}
				if !e.Has(fsnotify.Create) && !e.Has(fsnotify.Write) && !e.Has(fsnotify.Rename) {
					continue
				}
				pending[e.Name] = struct{}{}
				if cfg.Debounce <= 0 {
					if !s.flush(ctx, pending) {
						return
					}
					continue
				}
				if timer == nil {
					timer = time.NewTimer(cfg.Debounce)
				} else {
					timer.Reset(cfg.Debounce)
				}
				timerC = timer.C
			case <-timerC:
				timerC = nil
				if !s.flush(ctx, pending) {
					return
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				logger.Error("watcher error", "error", err)
				select {
				case errCh <- err:
				default:
				}
			}
		}
	}()

	return evCh, errCh, nil
}

type session struct {
	cfg    Config
	logger *slog.Logger
	w      *fsnotify.Watcher
	out    chan<- string
}

// flush emits the admissible pending paths in lexical order and empties the
// set. It reports false when ctx ended first.
func (s *session) flush(ctx context.Context, pending map[string]struct{}) bool {
	paths := make([]string, 0, len(pending))
	for p := range pending {
		paths = append(paths, p)
		delete(pending, p)
	}
	slices.Sort(paths)
	seen := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		resolved, ok := s.admit(p)
		if !ok {
			continue
		}
		if _, dup := seen[resolved]; dup {
			continue
		}
		seen[resolved] = struct{}{}
		select {
		case s.out <- resolved:
		case <-ctx.Done():
			return false
		}
	}
	return true
}

func (s *session) admit(path string) (string, bool) {
	if hidden(path) || constants.KindOfPath(path) == "" {
		return "", false
	}
	if s.cfg.Ignore != nil && s.cfg.Ignore(path) {
		return "", false
	}
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		return "", false
	}
	if !s.cfg.Policy.IsAllowed(resolved) {
		s.logger.Debug("ignoring event outside roots", "path", path, "resolved", resolved)
		return "", false
	}
	st, err := os.Stat(resolved)
	if err != nil || !st.Mode().IsRegular() {
		return "", false
	}
	return resolved, true
}

// addTree starts watching a directory created inside a watched root and
// returns the files that landed in it before the watch was in place.
func (s *session) addTree(path string) []string {
	st, err := os.Lstat(path)
	if err != nil || !st.IsDir() || hidden(path) {
		return nil
	}
	var files []string
	_ = filepath.WalkDir(path, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return nil
		}
		if !d.IsDir() {
			files = append(files, p)
			return nil
		}
		if err := addWatch(s.w, p); err != nil {
			s.logger.Warn("failed to add new directory to watcher", "path", p, "error", err)
			return fs.SkipDir
		}
		return nil
	})
	return files
}

func hidden(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}

// OutputPath is where a conversion of src in format f is saved by the watcher.
func OutputPath(src string, f constants.OutputFormat) string {
	return src + f.FileExt()
}

// IsOutput reports whether path looks like OutputPath of some supported source.
func IsOutput(path string, f constants.OutputFormat) bool {
	ext := filepath.Ext(path)
	if !strings.EqualFold(ext, f.FileExt()) {
		return false
	}
	return constants.KindOfPath(strings.TrimSuffix(path, ext)) != ""
}
