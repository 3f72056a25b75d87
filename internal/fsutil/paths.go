package fsutil

import (
	"os"
	"path/filepath"
	"strings"
)

// Canonical returns the absolute, symlink-resolved form of path. For paths
// that do not exist yet, the deepest existing ancestor is resolved and the
// remainder appended.
func Canonical(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = filepath.Clean(path)
	}

	rest := ""
	current := abs
	for {
		if resolved, err := filepath.EvalSymlinks(current); err == nil {
			return filepath.Join(resolved, rest)
		}
		parent := filepath.Dir(current)
		if parent == current {
			return abs
		}
		rest = filepath.Join(filepath.Base(current), rest)
		current = parent
	}
}

// Resolve joins a relative input path onto root. Absolute paths pass through.
func Resolve(root, raw string) string {
	if filepath.IsAbs(raw) {
		return raw
	}
	return filepath.Join(root, raw)
}

// Display renders path for reports and diagnostics: root-relative with '/'
// separators when it lives under root, absolute otherwise.
func Display(root, path string) string {
	abs := Canonical(path)
	rel, err := filepath.Rel(Canonical(root), abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return filepath.ToSlash(abs)
	}
	return filepath.ToSlash(rel)
}

// Inspect reports whether root/rel exists and whether it is a regular file.
func Inspect(root, rel string) (exists, regular bool) {
	info, err := os.Stat(filepath.Join(root, filepath.FromSlash(rel)))
	if err != nil {
		return false, false
	}
	return true, info.Mode().IsRegular()
}
