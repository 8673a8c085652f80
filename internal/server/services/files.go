package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/dbelovs/syncbox/internal/archive"
	"github.com/dbelovs/syncbox/internal/blobstore"
	"github.com/dbelovs/syncbox/internal/checksum"
	"github.com/dbelovs/syncbox/internal/common"
	"github.com/dbelovs/syncbox/internal/dirdiff"
	"github.com/dbelovs/syncbox/internal/filex"
	"github.com/dbelovs/syncbox/internal/logging"
	"github.com/dbelovs/syncbox/internal/server/models"
	"github.com/dbelovs/syncbox/internal/server/repositories/files"
)

// archivePathKey is the ExtraMetadata key recording where inside the
// ingested bundle a file came from.
const archivePathKey = "archive_path"

// IngestedFile describes one file created by an archive ingestion.
type IngestedFile struct {
	FileID   string `json:"fileId"`
	FileName string `json:"fileName"`
	Checksum string `json:"checksum"`
}

// UpdateResult reports an update-by-diff outcome. When Changed is false the
// stored record was left untouched and the diff sets are all empty.
type UpdateResult struct {
	Changed  bool     `json:"changed"`
	Added    []string `json:"added"`
	Deleted  []string `json:"deleted"`
	Modified []string `json:"modified"`

	File *models.FileRecord `json:"file,omitempty"`
}

// FileService implements the file lifecycle: single uploads, archive
// ingestion, archive replacement by diff, reads and deletes.
type FileService struct {
	files  files.Repository
	blobs  blobstore.Store
	logger logging.Logger
}

func NewFileService(fr files.Repository, blobs blobstore.Store, logger logging.Logger) *FileService {
	return &FileService{
		files:  fr,
		blobs:  blobs,
		logger: logger.With("module", "file_service"),
	}
}

// Upload stores a single file as a new record.
func (s *FileService) Upload(ctx context.Context, ownerID, fileName, contentType string, content io.Reader, extra map[string]string) (*models.FileRecord, error) {
	if ownerID == "" || fileName == "" {
		return nil, fmt.Errorf("%w: missing owner id or file name", common.ErrValidation)
	}
	if contentType == "" {
		contentType = models.InferContentType(fileName)
	}

	scratch, err := filex.NewScratchDir("syncbox-upload-")
	if err != nil {
		return nil, err
	}
	defer scratch.Close()

	staged, err := spool(content, scratch.Path())
	if err != nil {
		return nil, err
	}
	sum, err := checksum.SumFile(staged)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	record := &models.FileRecord{
		ID:            uuid.NewString(),
		OwnerID:       ownerID,
		FileName:      fileName,
		ContentType:   contentType,
		Checksum:      sum,
		UploadDate:    now,
		LastUpdated:   now,
		ExtraMetadata: extra,
	}

	record.Size, err = writeBlobFromFile(ctx, s.blobs, record.ID, staged, contentType)
	if err != nil {
		return nil, err
	}
	if err := s.files.Insert(ctx, record); err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "file uploaded", "file_id", record.ID, "owner_id", ownerID, "size", record.Size)
	return record, nil
}

// Get returns the metadata record for id.
func (s *FileService) Get(ctx context.Context, ownerID, id string) (*models.FileRecord, error) {
	return s.files.GetByID(ctx, ownerID, id)
}

// List returns every record belonging to ownerID.
func (s *FileService) List(ctx context.Context, ownerID string) ([]*models.FileRecord, error) {
	return s.files.List(ctx, ownerID)
}

// Download returns the record and a stream of its blob content. The caller
// must close the stream.
func (s *FileService) Download(ctx context.Context, ownerID, id string) (*models.FileRecord, io.ReadCloser, error) {
	record, err := s.files.GetByID(ctx, ownerID, id)
	if err != nil {
		return nil, nil, err
	}
	rc, err := s.blobs.Read(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return record, rc, nil
}

// Delete removes the record and releases the associated blob. A record
// without a blob (a batch insert that failed after some blobs were copied
// can leave either side orphaned) still deletes cleanly.
func (s *FileService) Delete(ctx context.Context, ownerID, id string) error {
	if err := s.files.Delete(ctx, ownerID, id); err != nil {
		return err
	}
	ok, err := s.blobs.Exists(ctx, id)
	if err != nil {
		return fmt.Errorf("check blob for %s: %w", id, err)
	}
	if !ok {
		s.logger.Warn(ctx, "record had no blob", "file_id", id)
		return nil
	}
	if err := s.blobs.Delete(ctx, id); err != nil {
		return fmt.Errorf("release blob for %s: %w", id, err)
	}
	s.logger.Info(ctx, "file deleted", "file_id", id, "owner_id", ownerID)
	return nil
}

// IngestArchive creates an independent record for every file inside the
// bundle. Extraction failures abort before any record exists; records are
// inserted in one batch after all blobs are written. Blobs already copied
// are not rolled back if the batch insert fails.
func (s *FileService) IngestArchive(ctx context.Context, ownerID string, archiveStream io.Reader) ([]IngestedFile, error) {
	if ownerID == "" {
		return nil, fmt.Errorf("%w: missing owner id", common.ErrValidation)
	}

	scratch, err := filex.NewScratchDir("syncbox-ingest-")
	if err != nil {
		return nil, err
	}
	defer scratch.Close()

	extracted, err := archive.Extract(archiveStream, scratch.Path())
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	records := make([]*models.FileRecord, 0, len(extracted.Files))
	ingested := make([]IngestedFile, 0, len(extracted.Files))

	for _, entry := range extracted.Files {
		staged := filepath.Join(scratch.Path(), filepath.FromSlash(entry.Path))
		sum, err := checksum.SumFile(staged)
		if err != nil {
			return nil, err
		}

		name := path.Base(entry.Path)
		record := &models.FileRecord{
			ID:          uuid.NewString(),
			OwnerID:     ownerID,
			FileName:    name,
			ContentType: models.InferContentType(name),
			Checksum:    sum,
			UploadDate:  now,
			LastUpdated: now,
		}
		if entry.Path != name {
			record.ExtraMetadata = map[string]string{archivePathKey: entry.Path}
		}

		record.Size, err = writeBlobFromFile(ctx, s.blobs, record.ID, staged, record.ContentType)
		if err != nil {
			return nil, err
		}

		records = append(records, record)
		ingested = append(ingested, IngestedFile{FileID: record.ID, FileName: name, Checksum: sum})
	}

	if err := s.files.InsertMany(ctx, records); err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "archive ingested", "owner_id", ownerID, "files", len(records))
	return ingested, nil
}

// UpdateByDiff replaces an archive-formatted blob only when the new bundle
// actually differs from the stored one. Both bundles are extracted into
// scratch trees and diffed by content; an all-empty diff is a no-op that
// leaves the record untouched. When no prior blob exists the whole bundle
// counts as added.
func (s *FileService) UpdateByDiff(ctx context.Context, ownerID, fileID string, archiveStream io.Reader) (*UpdateResult, error) {
	record, err := s.files.GetByID(ctx, ownerID, fileID)
	if err != nil {
		return nil, err
	}

	scratch, err := filex.NewScratchDir("syncbox-update-")
	if err != nil {
		return nil, err
	}
	defer scratch.Close()

	staged, err := spool(archiveStream, scratch.Path())
	if err != nil {
		return nil, err
	}

	newTree := filepath.Join(scratch.Path(), "new")
	oldTree := filepath.Join(scratch.Path(), "old")
	if err := os.MkdirAll(newTree, 0o750); err != nil {
		return nil, fmt.Errorf("mkdir new tree: %w", err)
	}
	if err := os.MkdirAll(oldTree, 0o750); err != nil {
		return nil, fmt.Errorf("mkdir old tree: %w", err)
	}

	newBundle, err := os.Open(staged)
	if err != nil {
		return nil, fmt.Errorf("open staged bundle: %w", err)
	}
	_, err = archive.Extract(newBundle, newTree)
	newBundle.Close()
	if err != nil {
		return nil, err
	}

	// missing blob means fresh add: the old tree stays empty and every
	// entry of the new bundle shows up as added
	existing, err := s.blobs.Read(ctx, fileID)
	if err != nil && !errors.Is(err, common.ErrNotFound) {
		return nil, err
	}
	if err == nil {
		_, xerr := archive.Extract(existing, oldTree)
		existing.Close()
		if xerr != nil {
			return nil, xerr
		}
	}

	diff, err := dirdiff.Diff(newTree, oldTree)
	if err != nil {
		return nil, err
	}

	result := &UpdateResult{
		Added:    diff.Added,
		Deleted:  diff.Deleted,
		Modified: diff.Modified,
	}
	normalizeDiffSets(result)

	if diff.Empty() {
		result.File = record
		return result, nil
	}

	sum, err := checksum.SumFile(staged)
	if err != nil {
		return nil, err
	}
	size, err := writeBlobFromFile(ctx, s.blobs, fileID, staged, "application/zip")
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	update := models.FileUpdate{Size: &size, Checksum: &sum, LastUpdated: &now}
	if err := s.files.UpdateFields(ctx, ownerID, fileID, update); err != nil {
		return nil, err
	}

	record.Size = size
	record.Checksum = sum
	record.LastUpdated = now

	result.Changed = true
	result.File = record
	s.logger.Info(ctx, "file replaced by diff",
		"file_id", fileID, "owner_id", ownerID,
		"added", len(diff.Added), "deleted", len(diff.Deleted), "modified", len(diff.Modified))
	return result, nil
}

// spool copies the stream into a file under dir and returns its path.
func spool(r io.Reader, dir string) (string, error) {
	f, err := os.CreateTemp(dir, "stream-")
	if err != nil {
		return "", fmt.Errorf("create spool file: %w", err)
	}
	_, err = io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return "", fmt.Errorf("spool stream: %w", err)
	}
	return f.Name(), nil
}

// writeBlobFromFile streams the file at path into the blob store under id
// and returns its byte length.
func writeBlobFromFile(ctx context.Context, blobs blobstore.Store, id, path, contentType string) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open staged file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return 0, fmt.Errorf("stat staged file: %w", err)
	}

	if err := blobs.Write(ctx, id, f, info.Size(), contentType); err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// normalizeDiffSets replaces nil slices with empty ones so JSON encodes
// them as arrays.
func normalizeDiffSets(r *UpdateResult) {
	if r.Added == nil {
		r.Added = []string{}
	}
	if r.Deleted == nil {
		r.Deleted = []string{}
	}
	if r.Modified == nil {
		r.Modified = []string{}
	}
}
