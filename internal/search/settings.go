package search

import (
	"path/filepath"
	"strings"
)

// SourceSettings holds the directories to index and the file extensions to
// keep. It is not modified after NewSourceSettings returns.
type SourceSettings struct {
	roots []string
	exts  map[string]struct{}
}

// NewSourceSettings normalizes roots and extensions. Blank entries are
// dropped; extensions are lower-cased with any leading dot removed. An empty
// extension list allows every file.
func NewSourceSettings(roots, exts []string) SourceSettings {
	s := SourceSettings{exts: make(map[string]struct{})}

	for _, root := range roots {
		root = strings.TrimSpace(root)
		if root == "" {
			continue
		}
		s.roots = append(s.roots, filepath.Clean(root))
	}

	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
		if ext == "" {
			continue
		}
		s.exts[ext] = struct{}{}
	}

	return s
}

// Roots returns a copy of the configured directories.
func (s SourceSettings) Roots() []string {
	return append([]string(nil), s.roots...)
}

// Allows reports whether a file at path passes the extension filter.
func (s SourceSettings) Allows(path string) bool {
	if len(s.exts) == 0 {
		return true
	}
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	_, ok := s.exts[ext]
	return ok
}
