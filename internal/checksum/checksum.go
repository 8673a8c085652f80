// Package checksum computes content digests used for change detection.
//
// A digest is the hex-encoded SHA-256 of the full byte stream. Digest
// equality is the sole basis for "file unchanged" decisions; sizes and
// timestamps are at most pre-filters, never the final arbiter.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// Sum reads r to the end and returns the hex-encoded SHA-256 digest of its
// contents. An error means the stream could not be fully consumed.
func Sum(r io.Reader) (string, error) {
	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", fmt.Errorf("read stream: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// SumFile returns the digest of the file at path.
func SumFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	return Sum(f)
}

// SumBytes returns the digest of b. It never fails.
func SumBytes(b []byte) string {
	h := sha256.Sum256(b)
	return hex.EncodeToString(h[:])
}
