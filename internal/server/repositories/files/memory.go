package files

import (
	"context"
	"sync"

	"github.com/dbelovs/syncbox/internal/common"
	"github.com/dbelovs/syncbox/internal/server/models"
)

// MemoryRepository is an in-memory Repository used by tests and local
// development. Semantics match the mongo implementation, including owner
// scoping.
type MemoryRepository struct {
	mu      sync.Mutex
	records map[string]*models.FileRecord
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{records: map[string]*models.FileRecord{}}
}

func cloneRecord(r *models.FileRecord) *models.FileRecord {
	c := *r
	if r.ExtraMetadata != nil {
		c.ExtraMetadata = make(map[string]string, len(r.ExtraMetadata))
		for k, v := range r.ExtraMetadata {
			c.ExtraMetadata[k] = v
		}
	}
	return &c
}

func (m *MemoryRepository) Insert(ctx context.Context, record *models.FileRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[record.ID] = cloneRecord(record)
	return nil
}

func (m *MemoryRepository) InsertMany(ctx context.Context, records []*models.FileRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range records {
		m.records[r.ID] = cloneRecord(r)
	}
	return nil
}

func (m *MemoryRepository) GetByID(ctx context.Context, ownerID, id string) (*models.FileRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[id]
	if !ok || r.OwnerID != ownerID {
		return nil, common.ErrNotFound
	}
	return cloneRecord(r), nil
}

func (m *MemoryRepository) List(ctx context.Context, ownerID string) ([]*models.FileRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.FileRecord
	for _, r := range m.records {
		if r.OwnerID == ownerID {
			out = append(out, cloneRecord(r))
		}
	}
	return out, nil
}

func (m *MemoryRepository) Count(ctx context.Context, ownerID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, r := range m.records {
		if r.OwnerID == ownerID {
			n++
		}
	}
	return n, nil
}

func (m *MemoryRepository) UpdateFields(ctx context.Context, ownerID, id string, update models.FileUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[id]
	if !ok || r.OwnerID != ownerID {
		return common.ErrNotFound
	}
	if update.FileName != nil {
		r.FileName = *update.FileName
	}
	if update.Size != nil {
		r.Size = *update.Size
	}
	if update.Checksum != nil {
		r.Checksum = *update.Checksum
	}
	if update.LastUpdated != nil {
		r.LastUpdated = *update.LastUpdated
	}
	return nil
}

func (m *MemoryRepository) BulkUpsert(ctx context.Context, records []*models.FileRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range records {
		m.records[r.ID] = cloneRecord(r)
	}
	return nil
}

func (m *MemoryRepository) Delete(ctx context.Context, ownerID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[id]
	if !ok || r.OwnerID != ownerID {
		return common.ErrNotFound
	}
	delete(m.records, id)
	return nil
}

// Len reports the total number of stored records across all owners.
func (m *MemoryRepository) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}
