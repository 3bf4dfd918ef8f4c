package repository

import (
	"context"
	"errors"

	"carf-backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DriveRepository holds folder/file metadata for the document store. Bytes
// live on the blob filesystem in internal/drive; this is the tree index.
type DriveRepository interface {
	// FindOrCreateFolder returns the folder named name under parentID,
	// creating it if absent. Calling it twice with the same (parentID, name)
	// yields the same folder.
	FindOrCreateFolder(ctx context.Context, parentID *uuid.UUID, name string) (*model.DriveFolder, error)
	FindFolder(ctx context.Context, parentID *uuid.UUID, name string) (*model.DriveFolder, error)
	CreateFile(ctx context.Context, file *model.DriveFile) error
	FindFileByID(ctx context.Context, id uuid.UUID) (*model.DriveFile, error)
	ListFilesByFolder(ctx context.Context, folderID uuid.UUID) ([]model.DriveFile, error)
	ListFilesByGencode(ctx context.Context, gencode string) ([]model.DriveFile, error)
	DeleteFile(ctx context.Context, id uuid.UUID) error
}

type driveRepository struct {
	db *gorm.DB
}

func NewDriveRepository(db *gorm.DB) DriveRepository {
	return &driveRepository{db: db}
}

func (r *driveRepository) FindOrCreateFolder(ctx context.Context, parentID *uuid.UUID, name string) (*model.DriveFolder, error) {
	db := GetDB(ctx, r.db)

	folder, err := r.findFolder(db, parentID, name)
	if err == nil {
		return folder, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	created := &model.DriveFolder{ParentID: parentID, Name: name}
	if err := db.Create(created).Error; err != nil {
		// Lost a create race: the unique (parent, name) index rejected the
		// duplicate, so the winner's row is what we want.
		if existing, findErr := r.findFolder(db, parentID, name); findErr == nil {
			return existing, nil
		}
		return nil, err
	}
	return created, nil
}

func (r *driveRepository) FindFolder(ctx context.Context, parentID *uuid.UUID, name string) (*model.DriveFolder, error) {
	return r.findFolder(GetDB(ctx, r.db), parentID, name)
}

func (r *driveRepository) findFolder(db *gorm.DB, parentID *uuid.UUID, name string) (*model.DriveFolder, error) {
	var folder model.DriveFolder
	query := db.Where("name = ?", name)
	if parentID == nil {
		query = query.Where("parent_id IS NULL")
	} else {
		query = query.Where("parent_id = ?", *parentID)
	}
	if err := query.First(&folder).Error; err != nil {
		return nil, err
	}
	return &folder, nil
}

func (r *driveRepository) CreateFile(ctx context.Context, file *model.DriveFile) error {
	return GetDB(ctx, r.db).Create(file).Error
}

func (r *driveRepository) FindFileByID(ctx context.Context, id uuid.UUID) (*model.DriveFile, error) {
	var file model.DriveFile
	if err := GetDB(ctx, r.db).First(&file, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &file, nil
}

func (r *driveRepository) ListFilesByFolder(ctx context.Context, folderID uuid.UUID) ([]model.DriveFile, error) {
	var files []model.DriveFile
	if err := GetDB(ctx, r.db).Where("folder_id = ?", folderID).Order("created_at asc").Find(&files).Error; err != nil {
		return nil, err
	}
	return files, nil
}

func (r *driveRepository) ListFilesByGencode(ctx context.Context, gencode string) ([]model.DriveFile, error) {
	var files []model.DriveFile
	if err := GetDB(ctx, r.db).Where("gencode = ?", gencode).Order("doc_type, created_at asc").Find(&files).Error; err != nil {
		return nil, err
	}
	return files, nil
}

func (r *driveRepository) DeleteFile(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.DriveFile{}).Error
}
