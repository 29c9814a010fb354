// Package fs provides file system adapters for walking and versioning files.
package fs

import (
	"io/fs"
	"iter"
	"path/filepath"
)

// Walker provides file walking functionality.
type Walker struct {
	ignores []string
}

// NewWalker creates a new Walker that skips entries matching any of ignores.
func NewWalker(ignores ...string) *Walker {
	return &Walker{ignores: ignores}
}

// WalkFiles yields every regular file below root in lexical order,
// skipping .git, .jj and ignored entries. Yielded paths include root.
func (w *Walker) WalkFiles(root string) iter.Seq[string] {
	return func(yield func(string) bool) {
		_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if path != root {
				if skip, action := w.shouldSkip(d); skip {
					return action
				}
			}
			if d.IsDir() {
				return nil
			}
			if !yield(path) {
				return filepath.SkipAll
			}
			return nil
		})
	}
}

// shouldSkip reports whether d is excluded and, for directories, returns
// filepath.SkipDir so the walk does not descend.
func (w *Walker) shouldSkip(d fs.DirEntry) (bool, error) {
	name := d.Name()

	if d.IsDir() && (name == ".git" || name == ".jj") {
		return true, filepath.SkipDir
	}

	for _, ignore := range w.ignores {
		if matched, _ := filepath.Match(ignore, name); matched {
			if d.IsDir() {
				return true, filepath.SkipDir
			}
			return true, nil
		}
	}
	return false, nil
}
