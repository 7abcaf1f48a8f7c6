package utils

import (
	"path/filepath"
	"strings"
)

// CleanPath cleans a relative, slash-separated path and rejects paths that
// escape their parent.
func CleanPath(p string) (string, error) {
	if p == "" {
		return "", NewInvalidError("path must not be empty")
	}

	cleanPath := filepath.ToSlash(filepath.Clean(p))
	if cleanPath == "." || cleanPath == ".." || strings.HasPrefix(cleanPath, "../") {
		return "", NewInvalidError("bad path: %q", p)
	}

	return cleanPath, nil
}

// ConfineDir resolves dir against base and makes sure the result is one of
// roots (themselves relative to base), or is nested within one of them.
// Returns the absolute path.
func ConfineDir(base, dir string, roots ...string) (string, error) {
	absBase, err := filepath.Abs(base)
	if err != nil {
		return "", NewInvalidError(err)
	}

	resolved := dir
	if !filepath.IsAbs(resolved) {
		resolved = filepath.Join(absBase, resolved)
	}
	resolved = filepath.Clean(resolved)

	for _, root := range roots {
		absRoot := filepath.Join(absBase, root)
		rel, err := filepath.Rel(absRoot, resolved)
		if err != nil {
			continue
		}
		if rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))) {
			return resolved, nil
		}
	}

	return "", NewInvalidError("directory %q resolves to %q, which is outside of the allowed roots %v under %q",
		dir, resolved, roots, absBase)
}

// PathHasSegment returns true if any of the slash- or separator-delimited
// segments of p equals segment.
func PathHasSegment(p, segment string) bool {
	for _, s := range strings.Split(filepath.ToSlash(p), "/") {
		if s == segment {
			return true
		}
	}
	return false
}
