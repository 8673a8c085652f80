// Package services implements the synchronization engine and the file
// workflows built on top of the metadata and blob stores.
package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/dbelovs/syncbox/internal/archive"
	"github.com/dbelovs/syncbox/internal/blobstore"
	"github.com/dbelovs/syncbox/internal/checksum"
	"github.com/dbelovs/syncbox/internal/common"
	"github.com/dbelovs/syncbox/internal/filex"
	"github.com/dbelovs/syncbox/internal/logging"
	"github.com/dbelovs/syncbox/internal/server/models"
	"github.com/dbelovs/syncbox/internal/server/repositories/files"
	"github.com/dbelovs/syncbox/internal/server/repositories/sessions"
)

// ClientFileReport is one file the client claims to hold, as submitted in
// a sync evaluation request. LastUpdated is the client's last known-synced
// server timestamp for the file, not the local file's own mtime.
type ClientFileReport struct {
	FileID      string    `json:"fileId"`
	LastUpdated time.Time `json:"lastUpdated"`
	Checksum    string    `json:"checksum,omitempty"`
}

// FileRef pairs a file id with its display name.
type FileRef struct {
	FileID   string `json:"fileId"`
	FileName string `json:"fileName"`
}

// EvaluateResult reports which files the client must upload. A zero
// SessionID means nothing needs uploading and no session was created.
type EvaluateResult struct {
	SessionID     string    `json:"sessionId,omitempty"`
	FilesToUpload []FileRef `json:"filesToUpload,omitempty"`
}

// FulfillResult reports the outcome of one fulfillment round. Partial
// progress is a normal, non-error outcome: PendingFiles lists exactly what
// the client still owes.
type FulfillResult struct {
	Completed         bool      `json:"completed"`
	SynchronizedFiles []string  `json:"synchronizedFiles"`
	PendingFiles      []FileRef `json:"pendingFiles,omitempty"`
}

// SyncService orchestrates sync-request evaluation, session creation,
// archive-based fulfillment and completion detection.
type SyncService struct {
	files    files.Repository
	sessions sessions.Repository
	blobs    blobstore.Store
	logger   logging.Logger
}

func NewSyncService(fr files.Repository, sr sessions.Repository, blobs blobstore.Store, logger logging.Logger) *SyncService {
	return &SyncService{
		files:    fr,
		sessions: sr,
		blobs:    blobs,
		logger:   logger.With("module", "sync_service"),
	}
}

// Evaluate compares the client's reported state against the authoritative
// records and creates a session for the files that need uploading. When
// every report matches, no session is created and the result is empty.
//
// Duplicate file ids in the report list keep the first occurrence. Ids the
// server does not know are skipped; deletion is a separate concern.
func (s *SyncService) Evaluate(ctx context.Context, ownerID string, reports []ClientFileReport) (*EvaluateResult, error) {
	if ownerID == "" {
		return nil, fmt.Errorf("%w: missing owner id", common.ErrValidation)
	}

	seen := make(map[string]struct{}, len(reports))
	var flagged []*models.FileRecord

	for _, report := range reports {
		if report.FileID == "" {
			return nil, fmt.Errorf("%w: report without file id", common.ErrValidation)
		}
		if _, dup := seen[report.FileID]; dup {
			continue
		}
		seen[report.FileID] = struct{}{}

		record, err := s.files.GetByID(ctx, ownerID, report.FileID)
		if err != nil {
			if errors.Is(err, common.ErrNotFound) {
				continue
			}
			return nil, err
		}

		if needsUpload(record, report) {
			flagged = append(flagged, record)
		}
	}

	if len(flagged) == 0 {
		return &EvaluateResult{}, nil
	}

	now := time.Now().UTC()
	// Two distinct files may share a display name; the later record wins
	// the pending slot. Accepted limitation of name-keyed fulfillment.
	pending := make(map[string]string, len(flagged))
	refs := make([]FileRef, 0, len(flagged))
	for _, record := range flagged {
		pending[record.FileName] = record.ID
		refs = append(refs, FileRef{FileID: record.ID, FileName: record.FileName})
	}

	session := &models.SyncSession{
		ID:          uuid.NewString(),
		OwnerID:     ownerID,
		Pending:     pending,
		Completed:   false,
		CreatedAt:   now,
		LastUpdated: now,
	}
	if err := s.sessions.Insert(ctx, session); err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "sync session created",
		"session_id", session.ID, "owner_id", ownerID, "pending", len(pending))

	return &EvaluateResult{SessionID: session.ID, FilesToUpload: refs}, nil
}

// needsUpload flags a file when the server copy is newer than the client's
// last known-synced timestamp, or when both sides carry a checksum and they
// disagree. A missing checksum on either side never flags by itself.
func needsUpload(record *models.FileRecord, report ClientFileReport) bool {
	if record.LastUpdated.After(report.LastUpdated) {
		return true
	}
	return record.Checksum != "" && report.Checksum != "" && record.Checksum != report.Checksum
}

// Fulfill applies one uploaded archive to an active session. Extracted
// files are matched against the pending map by base name; everything else
// in the archive is ignored. Matched records are upserted in one batch
// before the session's pending/completed state is written.
func (s *SyncService) Fulfill(ctx context.Context, ownerID, sessionID string, archiveStream io.Reader) (*FulfillResult, error) {
	if ownerID == "" || sessionID == "" {
		return nil, fmt.Errorf("%w: missing owner or session id", common.ErrValidation)
	}

	session, err := s.sessions.Get(ctx, ownerID, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Completed {
		// replay of a finished session is rejected, not silently accepted
		return nil, fmt.Errorf("session already completed: %w", common.ErrNotFound)
	}

	scratch, err := filex.NewScratchDir("syncbox-fulfill-")
	if err != nil {
		return nil, err
	}
	defer scratch.Close()

	extracted, err := archive.Extract(archiveStream, scratch.Path())
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	var batch []*models.FileRecord
	var synchronized []string
	matched := map[string]struct{}{}

	for _, entry := range extracted.Files {
		name := path.Base(entry.Path)
		fileID, pendingMatch := session.Pending[name]
		if !pendingMatch {
			continue
		}
		if _, done := matched[name]; done {
			continue
		}

		staged := filepath.Join(scratch.Path(), filepath.FromSlash(entry.Path))
		record, err := s.applyUpload(ctx, ownerID, fileID, name, staged, now)
		if err != nil {
			return nil, err
		}

		batch = append(batch, record)
		matched[name] = struct{}{}
		synchronized = append(synchronized, name)
	}

	if err := s.files.BulkUpsert(ctx, batch); err != nil {
		return nil, err
	}

	remaining := make(map[string]string, len(session.Pending))
	for name, id := range session.Pending {
		if _, done := matched[name]; !done {
			remaining[name] = id
		}
	}

	sort.Strings(synchronized)
	result := &FulfillResult{SynchronizedFiles: synchronized}
	if result.SynchronizedFiles == nil {
		result.SynchronizedFiles = []string{}
	}

	if len(remaining) == 0 {
		if err := s.completeSession(ctx, ownerID, sessionID, now); err != nil {
			return nil, err
		}
		result.Completed = true
		s.logger.Info(ctx, "sync session completed", "session_id", sessionID, "owner_id", ownerID)
		return result, nil
	}

	if err := s.sessions.UpdatePending(ctx, ownerID, sessionID, remaining, now); err != nil {
		if !errors.Is(err, common.ErrConflict) {
			return nil, err
		}
		// a concurrent fulfillment finished the session under us
		latest, rerr := s.sessions.Get(ctx, ownerID, sessionID)
		if rerr != nil {
			return nil, rerr
		}
		if !latest.Completed {
			return nil, err
		}
		result.Completed = true
		return result, nil
	}

	result.PendingFiles = pendingRefs(remaining)
	s.logger.Info(ctx, "sync round applied",
		"session_id", sessionID, "synchronized", len(synchronized), "remaining", len(remaining))
	return result, nil
}

// applyUpload overwrites the blob for fileID with the staged file and
// builds the replacement record for the batch upsert. A record deleted
// between evaluation and fulfillment is recreated.
func (s *SyncService) applyUpload(ctx context.Context, ownerID, fileID, name, stagedPath string, now time.Time) (*models.FileRecord, error) {
	sum, err := checksum.SumFile(stagedPath)
	if err != nil {
		return nil, err
	}

	record, err := s.files.GetByID(ctx, ownerID, fileID)
	if err != nil {
		if !errors.Is(err, common.ErrNotFound) {
			return nil, err
		}
		record = &models.FileRecord{
			ID:          fileID,
			OwnerID:     ownerID,
			ContentType: models.InferContentType(name),
			UploadDate:  now,
		}
	}

	size, err := writeBlobFromFile(ctx, s.blobs, fileID, stagedPath, record.ContentType)
	if err != nil {
		return nil, err
	}

	record.FileName = name
	record.Size = size
	record.Checksum = sum
	record.LastUpdated = now
	return record, nil
}

// completeSession performs the terminal transition with one internal retry
// on a lost race. Losing to a fulfillment that already completed the
// session is a benign outcome.
func (s *SyncService) completeSession(ctx context.Context, ownerID, sessionID string, at time.Time) error {
	for attempt := 0; attempt < 2; attempt++ {
		err := s.sessions.Complete(ctx, ownerID, sessionID, at)
		if err == nil {
			return nil
		}
		if !errors.Is(err, common.ErrConflict) {
			return err
		}
		latest, rerr := s.sessions.Get(ctx, ownerID, sessionID)
		if rerr != nil {
			return rerr
		}
		if latest.Completed {
			return nil
		}
	}
	return common.ErrConflict
}

func pendingRefs(pending map[string]string) []FileRef {
	refs := make([]FileRef, 0, len(pending))
	for name, id := range pending {
		refs = append(refs, FileRef{FileID: id, FileName: name})
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].FileName < refs[j].FileName })
	return refs
}
