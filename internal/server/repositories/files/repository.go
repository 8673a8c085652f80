package files

import (
	"context"

	"github.com/dbelovs/syncbox/internal/server/models"
)

// Repository persists FileRecord metadata. Every operation is scoped by
// owner id in addition to the record id; an implementation must never
// return or mutate another owner's records.
type Repository interface {
	Insert(ctx context.Context, record *models.FileRecord) error
	InsertMany(ctx context.Context, records []*models.FileRecord) error

	// GetByID returns common.ErrNotFound for a missing or foreign-owner id.
	GetByID(ctx context.Context, ownerID, id string) (*models.FileRecord, error)
	List(ctx context.Context, ownerID string) ([]*models.FileRecord, error)
	Count(ctx context.Context, ownerID string) (int64, error)

	// UpdateFields applies a field-scoped update; nil fields are untouched.
	UpdateFields(ctx context.Context, ownerID, id string, update models.FileUpdate) error

	// BulkUpsert applies independent replace-with-upsert operations in one
	// batch; records deleted between read and write are recreated.
	BulkUpsert(ctx context.Context, records []*models.FileRecord) error

	Delete(ctx context.Context, ownerID, id string) error
}
