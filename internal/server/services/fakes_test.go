package services

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dbelovs/syncbox/internal/logging"
	"github.com/dbelovs/syncbox/internal/server/repositories/sessions"
)

// hookedSessionsRepo wraps the in-memory sessions repository and lets a test
// run a hook just before the Complete transition, to simulate a concurrent
// winner of the completion write.
type hookedSessionsRepo struct {
	*sessions.MemoryRepository

	beforeComplete func()
}

func newHookedSessionsRepo() *hookedSessionsRepo {
	return &hookedSessionsRepo{MemoryRepository: sessions.NewMemoryRepository()}
}

func (f *hookedSessionsRepo) Complete(ctx context.Context, ownerID, id string, at time.Time) error {
	if f.beforeComplete != nil {
		hook := f.beforeComplete
		f.beforeComplete = nil
		hook()
	}
	return f.MemoryRepository.Complete(ctx, ownerID, id, at)
}

// forceComplete marks a session completed directly, bypassing the service.
func (f *hookedSessionsRepo) forceComplete(ownerID, id string, at time.Time) {
	_ = f.MemoryRepository.Complete(context.Background(), ownerID, id, at)
}

// -------- helpers --------

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// buildZip assembles an in-memory zip stream from path->content pairs.
func buildZip(t *testing.T, files map[string]string) *bytes.Reader {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return bytes.NewReader(buf.Bytes())
}
