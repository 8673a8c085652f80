package sessions

import (
	"context"
	"time"

	"github.com/dbelovs/syncbox/internal/server/models"
)

// Repository persists SyncSession state. All operations are scoped by
// owner id; the pending/completed transitions are conditional writes so
// that concurrent fulfillments of one session cannot both win.
type Repository interface {
	Insert(ctx context.Context, session *models.SyncSession) error

	// Get returns the session regardless of completion state, or
	// common.ErrNotFound for a missing or foreign-owner id.
	Get(ctx context.Context, ownerID, id string) (*models.SyncSession, error)

	// UpdatePending replaces the pending map of a still-active session.
	// Returns common.ErrConflict if the session is no longer active.
	UpdatePending(ctx context.Context, ownerID, id string, pending map[string]string, at time.Time) error

	// Complete marks a still-active session completed, clearing pending
	// and stamping completed_at. Returns common.ErrConflict if the
	// conditional write matched nothing (already completed or gone).
	Complete(ctx context.Context, ownerID, id string, at time.Time) error
}
