// Package blobstore abstracts byte storage keyed by file id.
//
// The sync core treats blob content as opaque: writes for a given id are
// last-writer-wins and there is no optimistic concurrency control on
// content, only on session state.
package blobstore

import (
	"context"
	"io"
)

// Store is a byte-addressable store keyed by file id.
type Store interface {
	// Write stores the stream under id, replacing any previous content.
	// size is the exact byte length of the stream.
	Write(ctx context.Context, id string, r io.Reader, size int64, contentType string) error

	// Read returns the content stream for id. The caller must close it.
	// A missing id yields common.ErrNotFound.
	Read(ctx context.Context, id string) (io.ReadCloser, error)

	// Exists reports whether a blob is stored under id.
	Exists(ctx context.Context, id string) (bool, error)

	// Delete removes the blob for id. Deleting a missing id is not an error.
	Delete(ctx context.Context, id string) error
}
