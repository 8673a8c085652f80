package services

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbelovs/syncbox/internal/blobstore"
	"github.com/dbelovs/syncbox/internal/checksum"
	"github.com/dbelovs/syncbox/internal/common"
	"github.com/dbelovs/syncbox/internal/server/models"
	"github.com/dbelovs/syncbox/internal/server/repositories/files"
)

type fileFixture struct {
	files *files.MemoryRepository
	blobs *blobstore.MemoryStore
	svc   *FileService
}

func newFileFixture(t *testing.T) *fileFixture {
	t.Helper()
	f := &fileFixture{
		files: files.NewMemoryRepository(),
		blobs: blobstore.NewMemoryStore(),
	}
	f.svc = NewFileService(f.files, f.blobs, testLogger())
	return f
}

func TestUpload_CreatesRecordAndBlob(t *testing.T) {
	f := newFileFixture(t)
	ctx := context.Background()

	record, err := f.svc.Upload(ctx, testOwner, "report.pdf", "", strings.NewReader("pdf bytes"), map[string]string{"source": "unit-test"})
	require.NoError(t, err)

	assert.NotEmpty(t, record.ID)
	assert.Equal(t, testOwner, record.OwnerID)
	assert.Equal(t, "report.pdf", record.FileName)
	assert.Equal(t, "application/pdf", record.ContentType)
	assert.Equal(t, int64(len("pdf bytes")), record.Size)
	assert.Equal(t, checksum.SumBytes([]byte("pdf bytes")), record.Checksum)
	assert.Equal(t, record.UploadDate, record.LastUpdated)
	assert.Equal(t, "unit-test", record.ExtraMetadata["source"])

	rc, err := f.blobs.Read(ctx, record.ID)
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "pdf bytes", string(data))
}

func TestUpload_Validation(t *testing.T) {
	f := newFileFixture(t)

	_, err := f.svc.Upload(context.Background(), "", "a.txt", "", strings.NewReader("x"), nil)
	assert.ErrorIs(t, err, common.ErrValidation)

	_, err = f.svc.Upload(context.Background(), testOwner, "", "", strings.NewReader("x"), nil)
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestDownload_ReturnsRecordAndContent(t *testing.T) {
	f := newFileFixture(t)
	ctx := context.Background()

	uploaded, err := f.svc.Upload(ctx, testOwner, "a.txt", "", strings.NewReader("hello"), nil)
	require.NoError(t, err)

	record, rc, err := f.svc.Download(ctx, testOwner, uploaded.ID)
	require.NoError(t, err)
	defer rc.Close()

	assert.Equal(t, uploaded.ID, record.ID)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
}

func TestDownload_MissingFile(t *testing.T) {
	f := newFileFixture(t)
	_, _, err := f.svc.Download(context.Background(), testOwner, "ghost")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestDelete_ReleasesBlob(t *testing.T) {
	f := newFileFixture(t)
	ctx := context.Background()

	record, err := f.svc.Upload(ctx, testOwner, "a.txt", "", strings.NewReader("bye"), nil)
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(ctx, testOwner, record.ID))

	_, err = f.files.GetByID(ctx, testOwner, record.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)

	exists, err := f.blobs.Exists(ctx, record.ID)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestDelete_RecordWithoutBlob(t *testing.T) {
	f := newFileFixture(t)
	ctx := context.Background()

	record := &models.FileRecord{
		ID:          "orphan",
		OwnerID:     testOwner,
		FileName:    "orphan.txt",
		ContentType: models.DefaultContentType,
	}
	require.NoError(t, f.files.Insert(ctx, record))

	require.NoError(t, f.svc.Delete(ctx, testOwner, "orphan"))

	_, err := f.files.GetByID(ctx, testOwner, "orphan")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestDelete_IsOwnerScoped(t *testing.T) {
	f := newFileFixture(t)
	ctx := context.Background()

	record, err := f.svc.Upload(ctx, testOwner, "a.txt", "", strings.NewReader("x"), nil)
	require.NoError(t, err)

	err = f.svc.Delete(ctx, "other-owner", record.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)

	_, err = f.files.GetByID(ctx, testOwner, record.ID)
	assert.NoError(t, err, "foreign delete must not touch the record")
}

func TestIngestArchive_CreatesRecordPerFile(t *testing.T) {
	f := newFileFixture(t)
	ctx := context.Background()

	ingested, err := f.svc.IngestArchive(ctx, testOwner, buildZip(t, map[string]string{
		"report.pdf":      "pdf bytes",
		"images/logo.png": "png bytes",
	}))
	require.NoError(t, err)
	require.Len(t, ingested, 2)

	byName := map[string]IngestedFile{}
	for _, in := range ingested {
		byName[in.FileName] = in
	}
	assert.Equal(t, checksum.SumBytes([]byte("pdf bytes")), byName["report.pdf"].Checksum)
	assert.Equal(t, checksum.SumBytes([]byte("png bytes")), byName["logo.png"].Checksum)

	// nested entries remember their bundle path
	logo, err := f.files.GetByID(ctx, testOwner, byName["logo.png"].FileID)
	require.NoError(t, err)
	assert.Equal(t, "images/logo.png", logo.ExtraMetadata[archivePathKey])
	assert.Equal(t, "image/png", logo.ContentType)

	rc, err := f.blobs.Read(ctx, byName["report.pdf"].FileID)
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "pdf bytes", string(data))
}

func TestIngestArchive_EmptyBundle(t *testing.T) {
	f := newFileFixture(t)

	ingested, err := f.svc.IngestArchive(context.Background(), testOwner, buildZip(t, nil))
	require.NoError(t, err)
	assert.Empty(t, ingested)

	n, err := f.files.Count(context.Background(), testOwner)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestIngestArchive_InvalidBundleCreatesNothing(t *testing.T) {
	f := newFileFixture(t)

	_, err := f.svc.IngestArchive(context.Background(), testOwner, strings.NewReader("not a zip"))
	assert.ErrorIs(t, err, common.ErrArchiveFormat)

	n, err := f.files.Count(context.Background(), testOwner)
	require.NoError(t, err)
	assert.Zero(t, n, "extraction failure must abort before any record is created")
	assert.Zero(t, f.blobs.Len())
}

func TestUpdateByDiff_NoChangeIsNoOp(t *testing.T) {
	f := newFileFixture(t)
	ctx := context.Background()

	bundle := map[string]string{"f1": "x", "f2": "y"}
	record := seedBundle(t, f, bundle)

	result, err := f.svc.UpdateByDiff(ctx, testOwner, record.ID, buildZip(t, bundle))
	require.NoError(t, err)

	assert.False(t, result.Changed)
	assert.Empty(t, result.Added)
	assert.Empty(t, result.Deleted)
	assert.Empty(t, result.Modified)

	after, err := f.files.GetByID(ctx, testOwner, record.ID)
	require.NoError(t, err)
	assert.Equal(t, record.Checksum, after.Checksum, "a no-op diff must not mutate the record")
	assert.Equal(t, record.LastUpdated, after.LastUpdated)
}

func TestUpdateByDiff_ReportsAndCommitsChanges(t *testing.T) {
	f := newFileFixture(t)
	ctx := context.Background()

	record := seedBundle(t, f, map[string]string{"f1": "x", "f2": "y"})

	newBundle := buildZip(t, map[string]string{"f1": "x", "f2": "z", "f3": "w"})
	result, err := f.svc.UpdateByDiff(ctx, testOwner, record.ID, newBundle)
	require.NoError(t, err)

	assert.True(t, result.Changed)
	assert.Equal(t, []string{"f3"}, result.Added)
	assert.Empty(t, result.Deleted)
	assert.Equal(t, []string{"f2"}, result.Modified)

	after, err := f.files.GetByID(ctx, testOwner, record.ID)
	require.NoError(t, err)
	assert.NotEqual(t, record.Checksum, after.Checksum)
	assert.True(t, after.LastUpdated.After(record.LastUpdated) || after.LastUpdated.Equal(record.LastUpdated))
	assert.Equal(t, after.Checksum, result.File.Checksum)
}

func TestUpdateByDiff_MissingBlobIsFreshAdd(t *testing.T) {
	f := newFileFixture(t)
	ctx := context.Background()
	now := time.Now().UTC()

	// record exists but no blob was ever stored
	record := &models.FileRecord{
		ID: "orphan", OwnerID: testOwner, FileName: "bundle.zip",
		ContentType: "application/zip", UploadDate: now, LastUpdated: now,
	}
	require.NoError(t, f.files.Insert(ctx, record))

	result, err := f.svc.UpdateByDiff(ctx, testOwner, "orphan", buildZip(t, map[string]string{
		"a.txt": "alpha",
		"b.txt": "beta",
	}))
	require.NoError(t, err)

	assert.True(t, result.Changed)
	assert.ElementsMatch(t, []string{"a.txt", "b.txt"}, result.Added)
	assert.Empty(t, result.Deleted)

	exists, err := f.blobs.Exists(ctx, "orphan")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestUpdateByDiff_UnknownFile(t *testing.T) {
	f := newFileFixture(t)
	_, err := f.svc.UpdateByDiff(context.Background(), testOwner, "ghost", buildZip(t, nil))
	assert.ErrorIs(t, err, common.ErrNotFound)
}

// seedBundle uploads an archive-formatted blob as one stored file.
func seedBundle(t *testing.T, f *fileFixture, files map[string]string) *models.FileRecord {
	t.Helper()
	bundle := buildZip(t, files)
	record, err := f.svc.Upload(context.Background(), testOwner, "bundle.zip", "application/zip", bundle, nil)
	require.NoError(t, err)
	return record
}
