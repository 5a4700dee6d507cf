package roots

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/joseph-ayodele/docgate/internal/common"
)

// Policy is an immutable, ordered set of allowed root directories. All methods
// are safe for concurrent use.
type Policy struct {
	roots []string
}

// NewPolicy resolves and validates candidate roots. Entries that do not exist,
// are not directories or cannot be opened are skipped with a warning; duplicates
// (after symlink resolution) collapse onto their first occurrence. An empty
// result is an error.
func NewPolicy(candidates []string, logger *slog.Logger) (*Policy, error) {
	if logger == nil {
		logger = slog.Default()
	}
	seen := make(map[string]struct{}, len(candidates))
	out := make([]string, 0, len(candidates))
	for _, c := range candidates {
		p, err := ResolveExisting(c)
		if err != nil {
			logger.Warn("skipping root", "root", c, "error", err)
			continue
		}
		st, err := os.Stat(p)
		if err != nil || !st.IsDir() {
			logger.Warn("skipping root: not a directory", "root", c, "resolved", p)
			continue
		}
		f, err := os.Open(p)
		if err != nil {
			logger.Warn("skipping root: not readable", "root", c, "error", err)
			continue
		}
		_ = f.Close()
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w (candidates: %s)", common.ErrNoRoots, strings.Join(candidates, ", "))
	}
	logger.Debug("root policy ready", "roots", out)
	return &Policy{roots: out}, nil
}

// Roots returns a copy of the allowed roots in configuration order.
func (p *Policy) Roots() []string {
	out := make([]string, len(p.roots))
	copy(out, p.roots)
	return out
}

// IsAllowed reports whether an already resolved path lies within some root.
// Containment is decided per path component, so /home/bob2 is not inside
// /home/bob.
func (p *Policy) IsAllowed(resolved string) bool {
	return p.RootOf(resolved) != ""
}

// RootOf returns the first root containing resolved, or "".
func (p *Policy) RootOf(resolved string) string {
	if !filepath.IsAbs(resolved) {
		return ""
	}
	resolved = filepath.Clean(resolved)
	for _, r := range p.roots {
		if within(r, resolved) {
			return r
		}
	}
	return ""
}

// Check is IsAllowed returning an *common.AccessDeniedError listing the roots.
func (p *Policy) Check(resolved string) error {
	if p.IsAllowed(resolved) {
		return nil
	}
	return &common.AccessDeniedError{Path: resolved, Roots: p.Roots()}
}

// Authorize resolves input and checks it against the policy. Existence is not
// required and not revealed.
func (p *Policy) Authorize(input string) (string, error) {
	resolved, err := Resolve(input)
	if err != nil {
		return "", err
	}
	if err := p.Check(resolved); err != nil {
		return "", err
	}
	return resolved, nil
}

func within(root, p string) bool {
	if p == root {
		return true
	}
	prefix := root
	if !strings.HasSuffix(prefix, string(filepath.Separator)) {
		prefix += string(filepath.Separator)
	}
	return strings.HasPrefix(p, prefix)
}

// Store holds the active policy for long-running transports. Replacing the
// policy swaps the whole set; in-flight requests keep the one they loaded.
type Store struct {
	cur atomic.Pointer[Policy]
}

func NewStore(p *Policy) *Store {
	s := &Store{}
	s.cur.Store(p)
	return s
}

func (s *Store) Load() *Policy { return s.cur.Load() }

func (s *Store) Replace(p *Policy) { s.cur.Store(p) }
