package repository

import (
	"context"

	"carf-backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MatrixRepository defines data access for approval matrix rows.
type MatrixRepository interface {
	Create(ctx context.Context, m *model.ApprovalMatrix) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.ApprovalMatrix, error)
	Lookup(ctx context.Context, businessCenter, company string) (*model.ApprovalMatrix, error)
	List(ctx context.Context, page, limit int) ([]model.ApprovalMatrix, int64, error)
	Update(ctx context.Context, m *model.ApprovalMatrix) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type matrixRepository struct {
	db *gorm.DB
}

func NewMatrixRepository(db *gorm.DB) MatrixRepository {
	return &matrixRepository{db: db}
}

func (r *matrixRepository) Create(ctx context.Context, m *model.ApprovalMatrix) error {
	return GetDB(ctx, r.db).Create(m).Error
}

func (r *matrixRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.ApprovalMatrix, error) {
	var m model.ApprovalMatrix
	if err := GetDB(ctx, r.db).First(&m, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *matrixRepository) Lookup(ctx context.Context, businessCenter, company string) (*model.ApprovalMatrix, error) {
	var m model.ApprovalMatrix
	err := GetDB(ctx, r.db).
		First(&m, "business_center = ? AND company = ?", businessCenter, company).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *matrixRepository) List(ctx context.Context, page, limit int) ([]model.ApprovalMatrix, int64, error) {
	var rows []model.ApprovalMatrix
	var total int64

	db := GetDB(ctx, r.db)
	if err := db.Model(&model.ApprovalMatrix{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Order("business_center, company").Offset(offset).Limit(limit).Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	return rows, total, nil
}

func (r *matrixRepository) Update(ctx context.Context, m *model.ApprovalMatrix) error {
	return GetDB(ctx, r.db).Save(m).Error
}

func (r *matrixRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.ApprovalMatrix{}).Error
}
