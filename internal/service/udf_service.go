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

// --- DTOs ---

type SaveUDFFieldRequest struct {
	FieldKey     string `json:"field_key" binding:"required"`
	Label        string `json:"label" binding:"required"`
	ListView     string `json:"list_view" binding:"required"`
	Visible      *bool  `json:"visible"`
	DisplayOrder int    `json:"display_order"`
}

// UDFService maintains the admin-configurable column layout of each list view.
type UDFService interface {
	Create(ctx context.Context, actorID string, req SaveUDFFieldRequest) (*model.UDFField, error)
	Update(ctx context.Context, actorID, id string, req SaveUDFFieldRequest) (*model.UDFField, error)
	Delete(ctx context.Context, actorID, id string) error
	ListByView(ctx context.Context, listView string) ([]model.UDFField, error)
	ListAll(ctx context.Context) ([]model.UDFField, error)
}

type udfService struct {
	repo      repository.UDFRepository
	auditRepo repository.AuditRepository
}

func NewUDFService(repo repository.UDFRepository, auditRepo repository.AuditRepository) UDFService {
	return &udfService{repo: repo, auditRepo: auditRepo}
}

func (s *udfService) auditUDF(ctx context.Context, actorID string, field *model.UDFField, op string) {
	uid, err := uuid.Parse(actorID)
	if err != nil {
		return
	}
	details, _ := json.Marshal(map[string]interface{}{
		"op":        op,
		"field_key": field.FieldKey,
		"list_view": field.ListView,
	})
	_ = s.auditRepo.Log(ctx, &model.AuditLog{
		UserID:     &uid,
		Action:     model.ActionUpdateUDF,
		EntityID:   field.ID.String(),
		EntityName: field.Label,
		Details:    string(details),
	})
}

func (s *udfService) Create(ctx context.Context, actorID string, req SaveUDFFieldRequest) (*model.UDFField, error) {
	if !model.ValidListView(req.ListView) {
		return nil, fmt.Errorf("unknown list view %q", req.ListView)
	}

	field := &model.UDFField{
		FieldKey:     req.FieldKey,
		Label:        req.Label,
		ListView:     req.ListView,
		Visible:      true,
		DisplayOrder: req.DisplayOrder,
	}
	if req.Visible != nil {
		field.Visible = *req.Visible
	}

	if err := s.repo.Create(ctx, field); err != nil {
		return nil, fmt.Errorf("failed to create field: %w", err)
	}
	s.auditUDF(ctx, actorID, field, "create")
	return field, nil
}

func (s *udfService) Update(ctx context.Context, actorID, id string, req SaveUDFFieldRequest) (*model.UDFField, error) {
	fieldID, err := uuid.Parse(id)
	if err != nil {
		return nil, errors.New("invalid field id")
	}
	if !model.ValidListView(req.ListView) {
		return nil, fmt.Errorf("unknown list view %q", req.ListView)
	}

	field, err := s.repo.FindByID(ctx, fieldID)
	if err != nil {
		return nil, errors.New("field not found")
	}

	field.FieldKey = req.FieldKey
	field.Label = req.Label
	field.ListView = req.ListView
	field.DisplayOrder = req.DisplayOrder
	if req.Visible != nil {
		field.Visible = *req.Visible
	}

	if err := s.repo.Update(ctx, field); err != nil {
		return nil, fmt.Errorf("failed to update field: %w", err)
	}
	s.auditUDF(ctx, actorID, field, "update")
	return field, nil
}

func (s *udfService) Delete(ctx context.Context, actorID, id string) error {
	fieldID, err := uuid.Parse(id)
	if err != nil {
		return errors.New("invalid field id")
	}

	field, err := s.repo.FindByID(ctx, fieldID)
	if err != nil {
		return errors.New("field not found")
	}

	if err := s.repo.Delete(ctx, fieldID); err != nil {
		return fmt.Errorf("failed to delete field: %w", err)
	}
	s.auditUDF(ctx, actorID, field, "delete")
	return nil
}

func (s *udfService) ListByView(ctx context.Context, listView string) ([]model.UDFField, error) {
	if !model.ValidListView(listView) {
		return nil, fmt.Errorf("unknown list view %q", listView)
	}
	return s.repo.ListByView(ctx, listView)
}

func (s *udfService) ListAll(ctx context.Context) ([]model.UDFField, error) {
	return s.repo.ListAll(ctx)
}
