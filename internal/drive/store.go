// Package drive stores request documents as a fixed folder tree per gencode:
// six category subfolders (SP1..SP6) created lazily on first upload. Folder
// and file metadata live in Postgres, bytes on an afero filesystem keyed by
// file id, so tests can run against an in-memory FS.
package drive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	"carf-backend/internal/model"
	"carf-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/spf13/afero"
)

// RootFolderName anchors the tree; gencode folders are its children.
const RootFolderName = "carf-documents"

var (
	// ErrFolderNotFound is returned when a gencode has no folder tree yet.
	ErrFolderNotFound = errors.New("gencode folder not found")
	// ErrUnknownDocType is returned for a docType outside the six SP slots.
	ErrUnknownDocType = errors.New("unknown document type")
)

// Store is the document store.
type Store struct {
	fs       afero.Fs
	basePath string
	repo     repository.DriveRepository
}

// NewStore builds a Store writing blobs under basePath on fs.
func NewStore(fs afero.Fs, basePath string, repo repository.DriveRepository) *Store {
	return &Store{fs: fs, basePath: basePath, repo: repo}
}

// blobPath is where a file's bytes live. Sharded only by gencode; ids are
// unique so no further nesting is needed.
func (s *Store) blobPath(gencode string, id uuid.UUID) string {
	return path.Join(s.basePath, gencode, id.String())
}

func (s *Store) rootFolder(ctx context.Context) (*model.DriveFolder, error) {
	return s.repo.FindOrCreateFolder(ctx, nil, RootFolderName)
}

// GencodeFolder returns the existing folder for gencode, or ErrFolderNotFound.
func (s *Store) GencodeFolder(ctx context.Context, gencode string) (*model.DriveFolder, error) {
	root, err := s.repo.FindFolder(ctx, nil, RootFolderName)
	if err != nil {
		return nil, ErrFolderNotFound
	}
	folder, err := s.repo.FindFolder(ctx, &root.ID, gencode)
	if err != nil {
		return nil, ErrFolderNotFound
	}
	return folder, nil
}

// EnsureTree lazily provisions the gencode folder and its six SP subfolders.
// Safe to call repeatedly; every call resolves to the same folder ids.
func (s *Store) EnsureTree(ctx context.Context, gencode string) (*model.DriveFolder, error) {
	root, err := s.rootFolder(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root folder: %w", err)
	}

	gencodeFolder, err := s.repo.FindOrCreateFolder(ctx, &root.ID, gencode)
	if err != nil {
		return nil, fmt.Errorf("failed to provision gencode folder: %w", err)
	}

	for _, docType := range model.DocTypes {
		if _, err := s.repo.FindOrCreateFolder(ctx, &gencodeFolder.ID, model.DocTypeFolders[docType]); err != nil {
			return nil, fmt.Errorf("failed to provision subfolder %s: %w", model.DocTypeFolders[docType], err)
		}
	}

	return gencodeFolder, nil
}

// SaveFile stores one uploaded document under the docType slot of gencode,
// provisioning the tree if this is the first upload.
func (s *Store) SaveFile(ctx context.Context, gencode, docType, name, mimeType string, r io.Reader) (*model.DriveFile, error) {
	subName, ok := model.DocTypeFolders[docType]
	if !ok {
		return nil, ErrUnknownDocType
	}

	gencodeFolder, err := s.EnsureTree(ctx, gencode)
	if err != nil {
		return nil, err
	}

	subFolder, err := s.repo.FindOrCreateFolder(ctx, &gencodeFolder.ID, subName)
	if err != nil {
		return nil, err
	}

	file := &model.DriveFile{
		ID:       uuid.New(),
		FolderID: subFolder.ID,
		Gencode:  gencode,
		DocType:  docType,
		Name:     name,
		MimeType: mimeType,
	}

	blob := s.blobPath(gencode, file.ID)
	if err := s.fs.MkdirAll(path.Dir(blob), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create blob directory: %w", err)
	}

	out, err := s.fs.Create(blob)
	if err != nil {
		return nil, fmt.Errorf("failed to create blob: %w", err)
	}
	size, err := io.Copy(out, r)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = s.fs.Remove(blob)
		return nil, fmt.Errorf("failed to write blob: %w", err)
	}
	file.Size = size

	if err := s.repo.CreateFile(ctx, file); err != nil {
		_ = s.fs.Remove(blob)
		return nil, err
	}

	return file, nil
}

// Open returns the metadata and a reader over the stored bytes.
func (s *Store) Open(ctx context.Context, id uuid.UUID) (*model.DriveFile, io.ReadCloser, error) {
	file, err := s.repo.FindFileByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	r, err := s.fs.Open(s.blobPath(file.Gencode, file.ID))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open blob: %w", err)
	}
	return file, r, nil
}

// DeleteFile removes metadata and bytes. A missing blob is not an error;
// the metadata row is authoritative.
func (s *Store) DeleteFile(ctx context.Context, id uuid.UUID) (*model.DriveFile, error) {
	file, err := s.repo.FindFileByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.DeleteFile(ctx, id); err != nil {
		return nil, err
	}
	_ = s.fs.Remove(s.blobPath(file.Gencode, file.ID))
	return file, nil
}

// ListByGencode returns file metadata grouped under all six docType keys.
// Slots with no uploads come back as empty arrays, which is what the
// attachment screen expects.
func (s *Store) ListByGencode(ctx context.Context, gencode string) (map[string][]model.DriveFile, error) {
	files, err := s.repo.ListFilesByGencode(ctx, gencode)
	if err != nil {
		return nil, err
	}

	grouped := make(map[string][]model.DriveFile, len(model.DocTypes))
	for _, docType := range model.DocTypes {
		grouped[docType] = []model.DriveFile{}
	}
	for _, f := range files {
		grouped[f.DocType] = append(grouped[f.DocType], f)
	}
	return grouped, nil
}
