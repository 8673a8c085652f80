package models

import "time"

// SyncSession tracks one reconciliation attempt between a client and the
// server. Pending maps file name to file id for every file the client
// still owes; a session is completed exactly when Pending is empty, and
// the Completed flag only ever transitions false to true.
type SyncSession struct {
	ID      string `bson:"_id" json:"id"`
	OwnerID string `bson:"owner_id" json:"ownerId"`

	Pending   map[string]string `bson:"pending" json:"pending"`
	Completed bool              `bson:"completed" json:"completed"`

	CreatedAt   time.Time  `bson:"created_at" json:"createdAt"`
	CompletedAt *time.Time `bson:"completed_at,omitempty" json:"completedAt,omitempty"`
	LastUpdated time.Time  `bson:"last_updated" json:"lastUpdated"`
}
