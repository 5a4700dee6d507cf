package locate

import (
	"context"
	"io/fs"
	"iter"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/joseph-ayodele/docgate/constants"
	"github.com/joseph-ayodele/docgate/internal/roots"
)

// Match is one file yielded by Find.
type Match struct {
	Path string `json:"path"` // resolved, inside Root
	Root string `json:"root"`
	Name string `json:"name"`
	Ext  string `json:"extension"` // normalized, without '.'
	Size int64  `json:"size"`
}

// Locator searches the roots of a policy for documents by name.
type Locator struct {
	policy        *roots.Policy
	logger        *slog.Logger
	skipHidden    bool
	supportedOnly bool
}

type Option func(*Locator)

// WithSkipHidden skips dot-files and does not descend into dot-directories.
func WithSkipHidden(skip bool) Option {
	return func(l *Locator) { l.skipHidden = skip }
}

// WithSupportedOnly restricts results to extensions a backend can convert.
func WithSupportedOnly(only bool) Option {
	return func(l *Locator) { l.supportedOnly = only }
}

func NewLocator(policy *roots.Policy, logger *slog.Logger, opts ...Option) *Locator {
	if logger == nil {
		logger = slog.Default()
	}
	l := &Locator{policy: policy, logger: logger, supportedOnly: true}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Find lazily walks every root in order and yields files whose name matches
// pattern. A pattern containing glob syntax (* ? [ {) is matched with
// doublestar, against the root-relative path when it contains a '/' and
// against the base name otherwise; any other pattern is a substring. Matching
// is case-insensitive and an empty pattern matches everything.
//
// Unreadable directories are logged and skipped. Symlinked files are yielded
// under their resolved path only when that path is a regular file inside a
// root; symlinked directories are never descended. Each path is yielded once.
func (l *Locator) Find(ctx context.Context, pattern string) iter.Seq[Match] {
	m := newMatcher(pattern)
	return func(yield func(Match) bool) {
		seen := make(map[string]struct{})
		for _, root := range l.policy.Roots() {
			stopped := false
			err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
				if err := ctx.Err(); err != nil {
					stopped = true
					return filepath.SkipAll
				}
				if walkErr != nil {
					l.logger.Warn("skipping unreadable entry", "path", path, "error", walkErr)
					if d != nil && d.IsDir() && path != root {
						return filepath.SkipDir
					}
					return nil
				}
				if path == root {
					return nil
				}
				if l.skipHidden && strings.HasPrefix(d.Name(), ".") {
					if d.IsDir() {
						return filepath.SkipDir
					}
					return nil
				}
				if d.IsDir() {
					return nil
				}

				rel, _ := filepath.Rel(root, path)
				if !m.match(d.Name(), filepath.ToSlash(rel)) {
					return nil
				}
				match, ok := l.candidate(path, d)
				if !ok {
					return nil
				}
				if _, dup := seen[match.Path]; dup {
					return nil
				}
				seen[match.Path] = struct{}{}
				if !yield(match) {
					stopped = true
					return filepath.SkipAll
				}
				return nil
			})
			if err != nil {
				l.logger.Warn("walk aborted", "root", root, "error", err)
			}
			if stopped {
				return
			}
		}
	}
}

// Paths is Find reduced to the resolved paths.
func (l *Locator) Paths(ctx context.Context, pattern string) iter.Seq[string] {
	return func(yield func(string) bool) {
		for m := range l.Find(ctx, pattern) {
			if !yield(m.Path) {
				return
			}
		}
	}
}

// candidate re-checks the policy on the entry's resolved path.
func (l *Locator) candidate(path string, d fs.DirEntry) (Match, bool) {
	resolved := path
	if d.Type()&fs.ModeSymlink != 0 {
		target, err := filepath.EvalSymlinks(path)
		if err != nil {
			l.logger.Debug("skipping broken symlink", "path", path, "error", err)
			return Match{}, false
		}
		resolved = target
	} else if !d.Type().IsRegular() {
		return Match{}, false
	}

	root := l.policy.RootOf(resolved)
	if root == "" {
		l.logger.Debug("skipping entry outside roots", "path", path, "resolved", resolved)
		return Match{}, false
	}
	st, err := os.Stat(resolved)
	if err != nil || !st.Mode().IsRegular() {
		return Match{}, false
	}
	ext := constants.NormalizeExt(filepath.Ext(resolved))
	if l.supportedOnly && constants.MapExtToKind(ext) == "" {
		return Match{}, false
	}
	return Match{
		Path: resolved,
		Root: root,
		Name: filepath.Base(resolved),
		Ext:  ext,
		Size: st.Size(),
	}, true
}

type matcher struct {
	pattern string
	glob    bool
	onPath  bool
}

func newMatcher(pattern string) matcher {
	p := strings.ToLower(strings.TrimSpace(pattern))
	return matcher{
		pattern: p,
		glob:    strings.ContainsAny(p, "*?[{"),
		onPath:  strings.Contains(p, "/"),
	}
}

func (m matcher) match(name, rel string) bool {
	if m.pattern == "" {
		return true
	}
	name = strings.ToLower(name)
	if !m.glob {
		return strings.Contains(name, m.pattern)
	}
	target := name
	if m.onPath {
		target = strings.ToLower(rel)
	}
	ok, err := doublestar.Match(m.pattern, target)
	return err == nil && ok
}
