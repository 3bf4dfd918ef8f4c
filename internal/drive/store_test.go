package drive

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"carf-backend/internal/model"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// memDriveRepo is an in-memory DriveRepository for store tests.
type memDriveRepo struct {
	folders map[string]*model.DriveFolder // key: parentID|name
	files   map[uuid.UUID]*model.DriveFile
}

func newMemDriveRepo() *memDriveRepo {
	return &memDriveRepo{
		folders: make(map[string]*model.DriveFolder),
		files:   make(map[uuid.UUID]*model.DriveFile),
	}
}

func folderKey(parentID *uuid.UUID, name string) string {
	if parentID == nil {
		return "root|" + name
	}
	return parentID.String() + "|" + name
}

func (r *memDriveRepo) FindOrCreateFolder(_ context.Context, parentID *uuid.UUID, name string) (*model.DriveFolder, error) {
	key := folderKey(parentID, name)
	if f, ok := r.folders[key]; ok {
		return f, nil
	}
	f := &model.DriveFolder{ID: uuid.New(), ParentID: parentID, Name: name}
	r.folders[key] = f
	return f, nil
}

func (r *memDriveRepo) FindFolder(_ context.Context, parentID *uuid.UUID, name string) (*model.DriveFolder, error) {
	if f, ok := r.folders[folderKey(parentID, name)]; ok {
		return f, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memDriveRepo) CreateFile(_ context.Context, file *model.DriveFile) error {
	r.files[file.ID] = file
	return nil
}

func (r *memDriveRepo) FindFileByID(_ context.Context, id uuid.UUID) (*model.DriveFile, error) {
	if f, ok := r.files[id]; ok {
		return f, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memDriveRepo) ListFilesByFolder(_ context.Context, folderID uuid.UUID) ([]model.DriveFile, error) {
	var out []model.DriveFile
	for _, f := range r.files {
		if f.FolderID == folderID {
			out = append(out, *f)
		}
	}
	return out, nil
}

func (r *memDriveRepo) ListFilesByGencode(_ context.Context, gencode string) ([]model.DriveFile, error) {
	var out []model.DriveFile
	for _, f := range r.files {
		if f.Gencode == gencode {
			out = append(out, *f)
		}
	}
	return out, nil
}

func (r *memDriveRepo) DeleteFile(_ context.Context, id uuid.UUID) error {
	delete(r.files, id)
	return nil
}

func newTestStore() (*Store, *memDriveRepo) {
	repo := newMemDriveRepo()
	return NewStore(afero.NewMemMapFs(), "blobs", repo), repo
}

const testGencode = "CARF-20250101-00001"

func TestEnsureTreeIsIdempotent(t *testing.T) {
	t.Parallel()
	store, repo := newTestStore()
	ctx := context.Background()

	first, err := store.EnsureTree(ctx, testGencode)
	require.NoError(t, err)
	second, err := store.EnsureTree(ctx, testGencode)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	// Root + gencode + six SP subfolders, and not a folder more.
	assert.Len(t, repo.folders, 8)
	for _, docType := range model.DocTypes {
		_, err := repo.FindFolder(ctx, &first.ID, model.DocTypeFolders[docType])
		assert.NoError(t, err, "missing subfolder for %s", docType)
	}
}

func TestSaveFileLandsInDocTypeSlot(t *testing.T) {
	t.Parallel()
	store, _ := newTestStore()
	ctx := context.Background()

	file, err := store.SaveFile(ctx, testGencode, model.DocTypeGovernmentID, "permit.pdf", "application/pdf",
		strings.NewReader("mayor's permit bytes"))
	require.NoError(t, err)
	assert.Equal(t, model.DocTypeGovernmentID, file.DocType)
	assert.EqualValues(t, len("mayor's permit bytes"), file.Size)

	grouped, err := store.ListByGencode(ctx, testGencode)
	require.NoError(t, err)
	require.Len(t, grouped, len(model.DocTypes), "all slots present")
	require.Len(t, grouped[model.DocTypeGovernmentID], 1)
	assert.Equal(t, "permit.pdf", grouped[model.DocTypeGovernmentID][0].Name)
	assert.Empty(t, grouped[model.DocTypeBusinessRegistration])

	// Bytes round-trip through Open.
	meta, rc, err := store.Open(ctx, file.ID)
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "mayor's permit bytes", string(data))
	assert.Equal(t, file.ID, meta.ID)
}

func TestSaveFileRejectsUnknownDocType(t *testing.T) {
	t.Parallel()
	store, _ := newTestStore()

	_, err := store.SaveFile(context.Background(), testGencode, "sp7Bogus", "x.txt", "text/plain",
		strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrUnknownDocType)
}

func TestDeleteFileRemovesMetadataAndBlob(t *testing.T) {
	t.Parallel()
	store, _ := newTestStore()
	ctx := context.Background()

	file, err := store.SaveFile(ctx, testGencode, model.DocTypeOthers, "note.txt", "text/plain",
		strings.NewReader("misc"))
	require.NoError(t, err)

	deleted, err := store.DeleteFile(ctx, file.ID)
	require.NoError(t, err)
	assert.Equal(t, file.ID, deleted.ID)

	_, _, err = store.Open(ctx, file.ID)
	assert.Error(t, err)
}

func TestWriteZipUnknownGencode(t *testing.T) {
	t.Parallel()
	store, _ := newTestStore()

	var buf bytes.Buffer
	err := store.WriteZip(context.Background(), "CARF-NOPE-00000", &buf)
	assert.ErrorIs(t, err, ErrFolderNotFound)
	assert.Zero(t, buf.Len(), "nothing may be written before the folder check")
}

func TestWriteZipLayout(t *testing.T) {
	t.Parallel()
	store, _ := newTestStore()
	ctx := context.Background()

	_, err := store.SaveFile(ctx, testGencode, model.DocTypeBusinessRegistration, "registration.pdf", "application/pdf",
		strings.NewReader("registration"))
	require.NoError(t, err)
	_, err = store.SaveFile(ctx, testGencode, model.DocTypeSECRegistration, "financials.xlsx", "application/vnd.ms-excel",
		strings.NewReader("financials"))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, store.WriteZip(ctx, testGencode, &buf))

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)

	entries := make(map[string]string, len(zr.File))
	for _, zf := range zr.File {
		rc, openErr := zf.Open()
		require.NoError(t, openErr)
		data, readErr := io.ReadAll(rc)
		rc.Close()
		require.NoError(t, readErr)
		entries[zf.Name] = string(data)
	}

	assert.Equal(t, map[string]string{
		"SP1/registration.pdf": "registration",
		"SP3/financials.xlsx":  "financials",
	}, entries)
}
