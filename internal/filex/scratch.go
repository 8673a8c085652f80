// Package filex provides filesystem helpers, most importantly a scratch
// directory handle that guarantees removal on every exit path.
package filex

import (
	"fmt"
	"os"
)

// ScratchDir is a temporary directory acquired for the lifetime of one
// operation, typically an archive extraction. Callers must Close it,
// usually with defer, so the tree never survives the operation that
// created it.
type ScratchDir struct {
	path string
}

// NewScratchDir creates a fresh temporary directory under the system temp
// root. The prefix only affects the generated name.
func NewScratchDir(prefix string) (*ScratchDir, error) {
	dir, err := os.MkdirTemp("", prefix)
	if err != nil {
		return nil, fmt.Errorf("mkdir temp: %w", err)
	}
	return &ScratchDir{path: dir}, nil
}

// Path returns the absolute path of the directory.
func (s *ScratchDir) Path() string {
	return s.path
}

// Close removes the directory and everything under it. Calling Close more
// than once is safe.
func (s *ScratchDir) Close() error {
	if s.path == "" {
		return nil
	}
	err := os.RemoveAll(s.path)
	s.path = ""
	return err
}
