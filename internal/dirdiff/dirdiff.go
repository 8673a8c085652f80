// Package dirdiff compares two extracted directory trees by content.
//
// Paths are compared by exact, case-sensitive string equality of the
// slash-separated path relative to each tree's root. "modified" means
// content inequality: a size difference short-circuits, equal sizes fall
// through to a full SHA-256 comparison.
package dirdiff

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/dbelovs/syncbox/internal/checksum"
)

// Result holds the relative paths that differ between two trees, each
// slice sorted lexicographically.
type Result struct {
	Added    []string
	Deleted  []string
	Modified []string
}

// Empty reports whether the two trees were content-identical.
func (r *Result) Empty() bool {
	return len(r.Added) == 0 && len(r.Deleted) == 0 && len(r.Modified) == 0
}

// Diff compares the tree under newRoot against the tree under oldRoot.
// Added paths exist only in the new tree, deleted paths only in the old
// one, and modified paths exist in both with differing content. Both
// roots must be readable directories; nesting depth is unbounded.
func Diff(newRoot, oldRoot string) (*Result, error) {
	newFiles, err := collect(newRoot)
	if err != nil {
		return nil, err
	}
	oldFiles, err := collect(oldRoot)
	if err != nil {
		return nil, err
	}

	result := &Result{}
	for rel := range newFiles {
		if _, ok := oldFiles[rel]; !ok {
			result.Added = append(result.Added, rel)
		}
	}
	for rel := range oldFiles {
		if _, ok := newFiles[rel]; !ok {
			result.Deleted = append(result.Deleted, rel)
		}
	}
	for rel, newSize := range newFiles {
		oldSize, ok := oldFiles[rel]
		if !ok {
			continue
		}
		modified, err := contentDiffers(
			filepath.Join(newRoot, filepath.FromSlash(rel)), newSize,
			filepath.Join(oldRoot, filepath.FromSlash(rel)), oldSize,
		)
		if err != nil {
			return nil, err
		}
		if modified {
			result.Modified = append(result.Modified, rel)
		}
	}

	sort.Strings(result.Added)
	sort.Strings(result.Deleted)
	sort.Strings(result.Modified)
	return result, nil
}

// collect walks root and maps each regular file's slash-relative path to
// its size.
func collect(root string) (map[string]int64, error) {
	files := map[string]int64{}
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		files[filepath.ToSlash(rel)] = info.Size()
		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("tree root %s: %w", root, err)
		}
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	return files, nil
}

// contentDiffers applies the size fast path before falling back to full
// digests. Sizes alone never declare two files equal.
func contentDiffers(newPath string, newSize int64, oldPath string, oldSize int64) (bool, error) {
	if newSize != oldSize {
		return true, nil
	}
	newSum, err := checksum.SumFile(newPath)
	if err != nil {
		return false, err
	}
	oldSum, err := checksum.SumFile(oldPath)
	if err != nil {
		return false, err
	}
	return newSum != oldSum, nil
}
