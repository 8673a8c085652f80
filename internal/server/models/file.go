// Package models defines server-side data models persisted in the
// metadata store.
package models

import (
	"mime"
	"path/filepath"
	"time"
)

// DefaultContentType is the fallback MIME type when nothing better can be
// inferred from the file name.
const DefaultContentType = "application/octet-stream"

// FileRecord describes one stored file. The content itself lives in the
// blob store under the record's ID.
//
// Invariants: Size and Checksum always reflect the blob content most
// recently committed; ID, OwnerID and UploadDate never change after
// creation; LastUpdated is monotonically non-decreasing.
type FileRecord struct {
	ID          string    `bson:"_id" json:"id"`
	OwnerID     string    `bson:"owner_id" json:"ownerId"`
	FileName    string    `bson:"file_name" json:"fileName"`
	ContentType string    `bson:"content_type" json:"contentType"`
	Size        int64     `bson:"size" json:"size"`
	Checksum    string    `bson:"checksum" json:"checksum"`
	UploadDate  time.Time `bson:"upload_date" json:"uploadDate"`
	LastUpdated time.Time `bson:"last_updated" json:"lastUpdated"`

	// ExtraMetadata carries open client annotations. The server stores
	// them verbatim and never interprets them.
	ExtraMetadata map[string]string `bson:"extra_metadata,omitempty" json:"extraMetadata,omitempty"`
}

// FileUpdate is a field-scoped update set for a FileRecord. Nil fields are
// left untouched, so concurrent writers of disjoint fields cannot clobber
// each other.
type FileUpdate struct {
	FileName    *string
	Size        *int64
	Checksum    *string
	LastUpdated *time.Time
}

// InferContentType derives a MIME type from the file name extension,
// falling back to DefaultContentType.
func InferContentType(fileName string) string {
	if ct := mime.TypeByExtension(filepath.Ext(fileName)); ct != "" {
		return ct
	}
	return DefaultContentType
}
