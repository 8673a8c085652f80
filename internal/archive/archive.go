// Package archive extracts zip-format bundle streams into directory trees.
//
// A bundle is the transport unit of the sync protocol: clients upload many
// files as one zip stream, and stored blobs that represent bundles are
// themselves zip-encoded.
package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/dbelovs/syncbox/internal/common"
)

// Entry describes one file inside a bundle.
type Entry struct {
	// Path is the slash-separated path relative to the bundle root.
	Path string
	// Size is the uncompressed byte length.
	Size int64
}

// ExtractResult reports what Extract materialized on disk.
type ExtractResult struct {
	// Files lists every extracted file, in archive order.
	Files []Entry
	// TotalBytes is the sum of uncompressed sizes.
	TotalBytes int64
}

// Extract decodes the zip stream r and writes every entry under destDir,
// preserving relative paths and overwriting existing files. An empty
// archive succeeds with an empty result.
//
// The stream is spooled to a temporary file first since the zip format
// needs random access. A stream that is not a valid zip container fails
// with common.ErrArchiveFormat. If writing fails partway, the state of
// destDir is undefined and the caller is responsible for removing it.
func Extract(r io.Reader, destDir string) (*ExtractResult, error) {
	zr, cleanup, err := openStream(r)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	result := &ExtractResult{}
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		rel, err := entryPath(f.Name)
		if err != nil {
			return nil, err
		}
		n, err := writeEntry(f, filepath.Join(destDir, filepath.FromSlash(rel)))
		if err != nil {
			return nil, err
		}
		result.Files = append(result.Files, Entry{Path: rel, Size: n})
		result.TotalBytes += n
	}
	return result, nil
}

// Entries returns the name and size inventory of the bundle without
// extracting anything to disk.
func Entries(r io.Reader) ([]Entry, error) {
	zr, cleanup, err := openStream(r)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	var entries []Entry
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		rel, err := entryPath(f.Name)
		if err != nil {
			return nil, err
		}
		entries = append(entries, Entry{Path: rel, Size: int64(f.UncompressedSize64)})
	}
	return entries, nil
}

// openStream spools r into a temp file and opens it as a zip reader. The
// returned cleanup closes and removes the spool file.
func openStream(r io.Reader) (*zip.Reader, func(), error) {
	spool, err := os.CreateTemp("", "syncbox-bundle-*.zip")
	if err != nil {
		return nil, nil, fmt.Errorf("create spool file: %w", err)
	}
	cleanup := func() {
		spool.Close()
		os.Remove(spool.Name())
	}

	size, err := io.Copy(spool, r)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("spool archive stream: %w", err)
	}

	zr, err := zip.NewReader(spool, size)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("%w: %v", common.ErrArchiveFormat, err)
	}
	return zr, cleanup, nil
}

// entryPath normalizes and validates an archive entry name. Absolute names
// and names escaping the destination via ".." are rejected.
func entryPath(name string) (string, error) {
	rel := path.Clean(strings.ReplaceAll(name, `\`, "/"))
	if rel == "." || path.IsAbs(rel) || rel == ".." || strings.HasPrefix(rel, "../") {
		return "", fmt.Errorf("%w: unsafe entry path %q", common.ErrArchiveFormat, name)
	}
	return rel, nil
}

func writeEntry(f *zip.File, target string) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
		return 0, fmt.Errorf("mkdir for %s: %w", f.Name, err)
	}

	src, err := f.Open()
	if err != nil {
		return 0, fmt.Errorf("%w: open entry %s: %v", common.ErrArchiveFormat, f.Name, err)
	}
	defer src.Close()

	dst, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o640)
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", f.Name, err)
	}

	n, err := io.Copy(dst, src)
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return 0, fmt.Errorf("write %s: %w", f.Name, err)
	}
	return n, nil
}
