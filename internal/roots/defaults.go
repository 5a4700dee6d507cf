package roots

import (
	"os"
	"path/filepath"
)

// DefaultRoots is the launcher fallback when no roots are configured: the
// user's Downloads, Documents and Desktop folders that exist, plus the system
// temp directory. Falls back to the home directory alone.
func DefaultRoots() []string {
	var out []string
	home, err := os.UserHomeDir()
	if err == nil {
		for _, name := range []string{"Downloads", "Documents", "Desktop"} {
			p := filepath.Join(home, name)
			if isDir(p) {
				out = append(out, p)
			}
		}
	}
	for _, tmp := range []string{"/tmp", "/var/tmp", os.TempDir()} {
		if isDir(tmp) {
			out = append(out, tmp)
			break
		}
	}
	if len(out) == 0 && home != "" {
		out = append(out, home)
	}
	return out
}

func isDir(p string) bool {
	st, err := os.Stat(p)
	return err == nil && st.IsDir()
}
