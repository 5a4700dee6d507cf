package roots

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/docgate/internal/common"
)

// Resolve turns caller input into an absolute, cleaned path with every symlink
// of its existing ancestors followed. The target itself does not need to exist,
// so authorization can be decided before anything about the file is revealed.
// ".." segments are resolved, never rejected.
func Resolve(input string) (string, error) {
	if strings.TrimSpace(input) == "" {
		return "", &common.InvalidPathError{Input: input, Reason: "empty path"}
	}
	if strings.ContainsRune(input, 0) {
		return "", &common.InvalidPathError{Input: input, Reason: "path contains a NUL byte"}
	}

	p, err := expandHome(input)
	if err != nil {
		return "", &common.InvalidPathError{Input: input, Reason: "cannot expand home directory", Cause: err}
	}
	if !filepath.IsAbs(p) {
		wd, err := os.Getwd()
		if err != nil {
			return "", &common.InvalidPathError{Input: input, Reason: "cannot determine working directory", Cause: err}
		}
		p = filepath.Join(wd, p)
	}

	resolved, err := evalExisting(filepath.Clean(p))
	if err != nil {
		return "", &common.InvalidPathError{Input: input, Reason: "cannot resolve symlinks", Cause: err}
	}
	return resolved, nil
}

// ResolveExisting is Resolve for operations that read the target.
func ResolveExisting(input string) (string, error) {
	p, err := Resolve(input)
	if err != nil {
		return "", err
	}
	if err := RequireExisting(input, p); err != nil {
		return "", err
	}
	return p, nil
}

// ResolveDestination is Resolve for write targets: the parent directory must
// exist, the target itself may not.
func ResolveDestination(input string) (string, error) {
	p, err := Resolve(input)
	if err != nil {
		return "", err
	}
	if err := RequireWritable(input, p); err != nil {
		return "", err
	}
	return p, nil
}

// RequireExisting checks an already resolved path for existence.
func RequireExisting(input, resolved string) error {
	if _, err := os.Stat(resolved); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &common.InvalidPathError{Input: input, Reason: "does not exist"}
		}
		return &common.InvalidPathError{Input: input, Reason: "cannot stat", Cause: err}
	}
	return nil
}

// RequireWritable checks that the parent of an already resolved path is a
// directory and that the path is not itself a directory.
func RequireWritable(input, resolved string) error {
	st, err := os.Stat(filepath.Dir(resolved))
	if err != nil {
		return &common.InvalidPathError{Input: input, Reason: "parent directory does not exist", Cause: err}
	}
	if !st.IsDir() {
		return &common.InvalidPathError{Input: input, Reason: "parent is not a directory"}
	}
	if st, err := os.Stat(resolved); err == nil && st.IsDir() {
		return &common.InvalidPathError{Input: input, Reason: "destination is a directory"}
	}
	return nil
}

func expandHome(p string) (string, error) {
	if p != "~" && !strings.HasPrefix(p, "~/") && !strings.HasPrefix(p, "~"+string(filepath.Separator)) {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, p[1:]), nil
}

// evalExisting follows symlinks on the longest existing prefix of p and
// re-appends the missing tail. A dangling symlink is an error: writing through
// it could land anywhere.
func evalExisting(p string) (string, error) {
	resolved, err := filepath.EvalSymlinks(p)
	if err == nil {
		return resolved, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return "", err
	}
	if fi, lerr := os.Lstat(p); lerr == nil && fi.Mode()&fs.ModeSymlink != 0 {
		return "", errors.New("dangling symlink")
	}
	parent := filepath.Dir(p)
	if parent == p {
		return p, nil
	}
	rp, err := evalExisting(parent)
	if err != nil {
		return "", err
	}
	return filepath.Join(rp, filepath.Base(p)), nil
}
