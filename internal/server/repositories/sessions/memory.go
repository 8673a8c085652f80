package sessions

import (
	"context"
	"sync"
	"time"

	"github.com/dbelovs/syncbox/internal/common"
	"github.com/dbelovs/syncbox/internal/server/models"
)

// MemoryRepository is an in-memory Repository used by tests and local
// development. It keeps the conditional-write semantics of the mongo
// implementation: updates against a completed session report a conflict.
type MemoryRepository struct {
	mu       sync.Mutex
	sessions map[string]*models.SyncSession
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{sessions: map[string]*models.SyncSession{}}
}

func cloneSession(s *models.SyncSession) *models.SyncSession {
	c := *s
	c.Pending = make(map[string]string, len(s.Pending))
	for k, v := range s.Pending {
		c.Pending[k] = v
	}
	if s.CompletedAt != nil {
		at := *s.CompletedAt
		c.CompletedAt = &at
	}
	return &c
}

func (m *MemoryRepository) Insert(ctx context.Context, session *models.SyncSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[session.ID] = cloneSession(session)
	return nil
}

func (m *MemoryRepository) Get(ctx context.Context, ownerID, id string) (*models.SyncSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok || s.OwnerID != ownerID {
		return nil, common.ErrNotFound
	}
	return cloneSession(s), nil
}

func (m *MemoryRepository) UpdatePending(ctx context.Context, ownerID, id string, pending map[string]string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok || s.OwnerID != ownerID || s.Completed {
		return common.ErrConflict
	}
	s.Pending = make(map[string]string, len(pending))
	for k, v := range pending {
		s.Pending[k] = v
	}
	s.LastUpdated = at
	return nil
}

func (m *MemoryRepository) Complete(ctx context.Context, ownerID, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok || s.OwnerID != ownerID || s.Completed {
		return common.ErrConflict
	}
	s.Completed = true
	s.Pending = map[string]string{}
	stamp := at
	s.CompletedAt = &stamp
	s.LastUpdated = at
	return nil
}

// Len reports the number of stored sessions across all owners.
func (m *MemoryRepository) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
