package repository

import (
	"context"

	"carf-backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UDFRepository defines data access for user-defined field mappings.
type UDFRepository interface {
	Create(ctx context.Context, field *model.UDFField) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.UDFField, error)
	ListByView(ctx context.Context, listView string) ([]model.UDFField, error)
	ListAll(ctx context.Context) ([]model.UDFField, error)
	Update(ctx context.Context, field *model.UDFField) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type udfRepository struct {
	db *gorm.DB
}

func NewUDFRepository(db *gorm.DB) UDFRepository {
	return &udfRepository{db: db}
}

func (r *udfRepository) Create(ctx context.Context, field *model.UDFField) error {
	return GetDB(ctx, r.db).Create(field).Error
}

func (r *udfRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.UDFField, error) {
	var field model.UDFField
	if err := GetDB(ctx, r.db).First(&field, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &field, nil
}

func (r *udfRepository) ListByView(ctx context.Context, listView string) ([]model.UDFField, error) {
	var fields []model.UDFField
	err := GetDB(ctx, r.db).
		Where("list_view = ?", listView).
		Order("display_order asc").
		Find(&fields).Error
	if err != nil {
		return nil, err
	}
	return fields, nil
}

func (r *udfRepository) ListAll(ctx context.Context) ([]model.UDFField, error) {
	var fields []model.UDFField
	if err := GetDB(ctx, r.db).Order("list_view, display_order asc").Find(&fields).Error; err != nil {
		return nil, err
	}
	return fields, nil
}

func (r *udfRepository) Update(ctx context.Context, field *model.UDFField) error {
	return GetDB(ctx, r.db).Save(field).Error
}

func (r *udfRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.UDFField{}).Error
}
