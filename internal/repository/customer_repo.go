package repository

import (
	"context"

	"carf-backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CustomerFilter narrows List results. Status is a pointer so the draft
// status (empty string) can be filtered on explicitly.
type CustomerFilter struct {
	Status         *model.Status
	BusinessCenter string
	Page           int
	Limit          int
}

// CustomerRepository defines data access for CustomerRequest rows. It has a
// GORM/Postgres implementation here and a workbook-backed implementation in
// internal/sheet, selected by the CUSTOMER_SOURCE setting.
type CustomerRepository interface {
	Create(ctx context.Context, req *model.CustomerRequest) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.CustomerRequest, error)
	FindByGencode(ctx context.Context, gencode string) (*model.CustomerRequest, error)
	List(ctx context.Context, filter CustomerFilter) ([]model.CustomerRequest, int64, error)
	ListForApprover(ctx context.Context, approverID uuid.UUID, page, limit int) ([]model.CustomerRequest, int64, error)
	Update(ctx context.Context, req *model.CustomerRequest) error
	CountByStatus(ctx context.Context) (map[model.Status]int64, error)
	CountByBusinessCenter(ctx context.Context) (map[string]int64, error)
	// NextGencodeSeq returns the next sequence number for gencodes starting
	// with prefix. Implementations must make concurrent calls safe enough
	// that two submissions cannot mint the same gencode.
	NextGencodeSeq(ctx context.Context, prefix string) (int, error)
}

type customerRepository struct {
	db *gorm.DB
}

// NewCustomerRepository returns the GORM-backed CustomerRepository.
func NewCustomerRepository(db *gorm.DB) CustomerRepository {
	return &customerRepository{db: db}
}

func (r *customerRepository) Create(ctx context.Context, req *model.CustomerRequest) error {
	return GetDB(ctx, r.db).Create(req).Error
}

func (r *customerRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.CustomerRequest, error) {
	var req model.CustomerRequest
	if err := GetDB(ctx, r.db).First(&req, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *customerRepository) FindByGencode(ctx context.Context, gencode string) (*model.CustomerRequest, error) {
	var req model.CustomerRequest
	if err := GetDB(ctx, r.db).First(&req, "gencode = ?", gencode).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *customerRepository) List(ctx context.Context, filter CustomerFilter) ([]model.CustomerRequest, int64, error) {
	var rows []model.CustomerRequest
	var total int64

	db := GetDB(ctx, r.db)
	query := db.Model(&model.CustomerRequest{})
	if filter.Status != nil {
		query = query.Where("approve_status = ?", *filter.Status)
	}
	if filter.BusinessCenter != "" {
		query = query.Where("business_center = ?", filter.BusinessCenter)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	if err := query.Order("created_at DESC").Offset(offset).Limit(filter.Limit).Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	return rows, total, nil
}

// ListForApprover returns pending rows whose current next approver is approverID.
// The head of the jsonb chain is the approver whose action is required.
func (r *customerRepository) ListForApprover(ctx context.Context, approverID uuid.UUID, page, limit int) ([]model.CustomerRequest, int64, error) {
	var rows []model.CustomerRequest
	var total int64

	db := GetDB(ctx, r.db)
	query := db.Model(&model.CustomerRequest{}).
		Where("approve_status = ?", model.StatusPending).
		Where("next_approvers -> 0 ->> 'user_id' = ?", approverID.String())

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	return rows, total, nil
}

func (r *customerRepository) Update(ctx context.Context, req *model.CustomerRequest) error {
	return GetDB(ctx, r.db).Save(req).Error
}

func (r *customerRepository) CountByStatus(ctx context.Context) (map[model.Status]int64, error) {
	type row struct {
		ApproveStatus model.Status
		Total         int64
	}
	var rows []row
	err := GetDB(ctx, r.db).Model(&model.CustomerRequest{}).
		Select("approve_status, count(*) as total").
		Group("approve_status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[model.Status]int64, len(rows))
	for _, r := range rows {
		counts[r.ApproveStatus] = r.Total
	}
	return counts, nil
}

func (r *customerRepository) CountByBusinessCenter(ctx context.Context) (map[string]int64, error) {
	type row struct {
		BusinessCenter string
		Total          int64
	}
	var rows []row
	err := GetDB(ctx, r.db).Model(&model.CustomerRequest{}).
		Select("business_center, count(*) as total").
		Group("business_center").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.BusinessCenter] = r.Total
	}
	return counts, nil
}

func (r *customerRepository) NextGencodeSeq(ctx context.Context, prefix string) (int, error) {
	db := GetDB(ctx, r.db)

	// Advisory lock serializes concurrent generation for the same prefix.
	// Only effective inside a transaction, which Submit always provides.
	db.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", prefix)

	var count int64
	err := db.Model(&model.CustomerRequest{}).
		Where("gencode LIKE ?", prefix+"%").
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return int(count) + 1, nil
}
