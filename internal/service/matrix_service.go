package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"carf-backend/internal/model"
	"carf-backend/internal/repository"

	"github.com/google/uuid"
)

// ApproverEntryDTO is one level of an approval chain as submitted by admins.
type ApproverEntryDTO struct {
	UserID string `json:"user_id" binding:"required,uuid"`
	Name   string `json:"name"`
}

type SaveMatrixRequest struct {
	BusinessCenter string             `json:"business_center" binding:"required"`
	Company        string             `json:"company" binding:"required"`
	Approvers      []ApproverEntryDTO `json:"approvers" binding:"required,min=1,dive"`
}

var ErrTooManyLevels = fmt.Errorf("approval chain exceeds %d levels", model.MaxApprovalLevels)

// MatrixService maintains the approval matrix an admin configures per
// (business center, company) pair.
type MatrixService interface {
	Create(ctx context.Context, actorID string, req SaveMatrixRequest) (*model.ApprovalMatrix, error)
	Update(ctx context.Context, actorID, id string, req SaveMatrixRequest) (*model.ApprovalMatrix, error)
	Delete(ctx context.Context, actorID, id string) error
	Get(ctx context.Context, id string) (*model.ApprovalMatrix, error)
	List(ctx context.Context, page, limit int) ([]model.ApprovalMatrix, int64, error)
}

type matrixService struct {
	repo      repository.MatrixRepository
	userRepo  repository.UserRepository
	auditRepo repository.AuditRepository
	txm       repository.TransactionManager
}

func NewMatrixService(
	repo repository.MatrixRepository,
	userRepo repository.UserRepository,
	auditRepo repository.AuditRepository,
	txm repository.TransactionManager,
) MatrixService {
	return &matrixService{repo: repo, userRepo: userRepo, auditRepo: auditRepo, txm: txm}
}

// resolveChain validates each approver against the user table and fills
// display names from the user record so stale names cannot be submitted.
func (s *matrixService) resolveChain(ctx context.Context, entries []ApproverEntryDTO) (model.ApproverChain, error) {
	if len(entries) > model.MaxApprovalLevels {
		return nil, ErrTooManyLevels
	}

	chain := make(model.ApproverChain, 0, len(entries))
	seen := make(map[uuid.UUID]bool, len(entries))
	for _, e := range entries {
		uid, err := uuid.Parse(e.UserID)
		if err != nil {
			return nil, fmt.Errorf("invalid approver id %q", e.UserID)
		}
		if seen[uid] {
			return nil, fmt.Errorf("duplicate approver %s in chain", e.UserID)
		}
		seen[uid] = true

		user, err := s.userRepo.GetByID(ctx, uid.String())
		if err != nil {
			return nil, fmt.Errorf("approver %s not found", e.UserID)
		}
		if user.Role != model.RoleApprover && user.Role != model.RoleAdmin {
			return nil, fmt.Errorf("user %s is not an approver", user.Username)
		}
		chain = append(chain, model.ChainEntry{UserID: uid, Name: user.FullName})
	}
	return chain, nil
}

func (s *matrixService) auditMatrix(ctx context.Context, actorID string, action string, m *model.ApprovalMatrix) error {
	uid, err := uuid.Parse(actorID)
	if err != nil {
		return fmt.Errorf("invalid actor id: %w", err)
	}
	details, _ := json.Marshal(map[string]interface{}{
		"business_center": m.BusinessCenter,
		"company":         m.Company,
		"levels":          len(m.Approvers),
	})
	return s.auditRepo.Log(ctx, &model.AuditLog{
		UserID:     &uid,
		Action:     action,
		EntityID:   m.ID.String(),
		EntityName: m.BusinessCenter + " / " + m.Company,
		Details:    string(details),
	})
}

func (s *matrixService) Create(ctx context.Context, actorID string, req SaveMatrixRequest) (*model.ApprovalMatrix, error) {
	chain, err := s.resolveChain(ctx, req.Approvers)
	if err != nil {
		return nil, err
	}

	if _, err := s.repo.Lookup(ctx, req.BusinessCenter, req.Company); err == nil {
		return nil, fmt.Errorf("matrix already exists for %s / %s", req.BusinessCenter, req.Company)
	}

	m := &model.ApprovalMatrix{
		BusinessCenter: req.BusinessCenter,
		Company:        req.Company,
		Approvers:      chain,
	}
	err = s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		if createErr := s.repo.Create(txCtx, m); createErr != nil {
			return createErr
		}
		return s.auditMatrix(txCtx, actorID, model.ActionCreateMatrix, m)
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (s *matrixService) Update(ctx context.Context, actorID, id string, req SaveMatrixRequest) (*model.ApprovalMatrix, error) {
	mid, err := uuid.Parse(id)
	if err != nil {
		return nil, errors.New("invalid matrix id")
	}

	chain, err := s.resolveChain(ctx, req.Approvers)
	if err != nil {
		return nil, err
	}

	var m *model.ApprovalMatrix
	err = s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		var findErr error
		m, findErr = s.repo.FindByID(txCtx, mid)
		if findErr != nil {
			return errors.New("matrix not found")
		}

		m.BusinessCenter = req.BusinessCenter
		m.Company = req.Company
		m.Approvers = chain

		if updateErr := s.repo.Update(txCtx, m); updateErr != nil {
			return updateErr
		}
		return s.auditMatrix(txCtx, actorID, model.ActionUpdateMatrix, m)
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (s *matrixService) Delete(ctx context.Context, actorID, id string) error {
	mid, err := uuid.Parse(id)
	if err != nil {
		return errors.New("invalid matrix id")
	}

	return s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		m, findErr := s.repo.FindByID(txCtx, mid)
		if findErr != nil {
			return errors.New("matrix not found")
		}
		if deleteErr := s.repo.Delete(txCtx, mid); deleteErr != nil {
			return deleteErr
		}
		return s.auditMatrix(txCtx, actorID, model.ActionDeleteMatrix, m)
	})
}

func (s *matrixService) Get(ctx context.Context, id string) (*model.ApprovalMatrix, error) {
	mid, err := uuid.Parse(id)
	if err != nil {
		return nil, errors.New("invalid matrix id")
	}
	m, err := s.repo.FindByID(ctx, mid)
	if err != nil {
		return nil, errors.New("matrix not found")
	}
	return m, nil
}

func (s *matrixService) List(ctx context.Context, page, limit int) ([]model.ApprovalMatrix, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 10
	}
	return s.repo.List(ctx, page, limit)
}
