package service

import (
	"context"
	"fmt"

	"carf-backend/internal/middleware"
	"carf-backend/internal/model"
	"carf-backend/internal/repository"

	"github.com/google/uuid"
)

// --- DTOs ---

type CreateGroupRequest struct {
	Name        string   `json:"name" binding:"required"`
	Description string   `json:"description"`
	Permissions []string `json:"permissions"` // Permission UUIDs
}

type UpdateGroupRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

type UpdateGroupPermissionsRequest struct {
	PermissionIDs []string `json:"permission_ids" binding:"required"`
}

type GroupResponse struct {
	ID          string               `json:"id"`
	Name        string               `json:"name"`
	Description string               `json:"description"`
	IsSystem    bool                 `json:"is_system"`
	Permissions []PermissionResponse `json:"permissions"`
	CreatedAt   string               `json:"created_at"`
}

type PermissionResponse struct {
	ID    string `json:"id"`
	Code  string `json:"code"`
	Name  string `json:"name"`
	Group string `json:"group"`
}

// --- Interface ---

type GroupService interface {
	ListGroups(ctx context.Context) ([]GroupResponse, error)
	GetGroup(ctx context.Context, id string) (*GroupResponse, error)
	CreateGroup(ctx context.Context, req CreateGroupRequest) (*GroupResponse, error)
	UpdateGroup(ctx context.Context, id string, req UpdateGroupRequest) (*GroupResponse, error)
	DeleteGroup(ctx context.Context, id string) error
	ListPermissions(ctx context.Context) ([]PermissionResponse, error)
	UpdateGroupPermissions(ctx context.Context, groupID string, req UpdateGroupPermissionsRequest) (*GroupResponse, error)
	SeedDefaultGroupsAndPermissions(ctx context.Context) error
}

type groupService struct {
	repo repository.GroupRepository
	txm  repository.TransactionManager
}

func NewGroupService(repo repository.GroupRepository, txm repository.TransactionManager) GroupService {
	return &groupService{repo: repo, txm: txm}
}

// --- Implementation ---

func toPermissionResponse(p model.Permission) PermissionResponse {
	return PermissionResponse{
		ID:    p.ID.String(),
		Code:  p.Code,
		Name:  p.Name,
		Group: p.Group,
	}
}

func toGroupResponse(g model.UserGroup) GroupResponse {
	perms := make([]PermissionResponse, 0, len(g.Permissions))
	for _, p := range g.Permissions {
		perms = append(perms, toPermissionResponse(p))
	}
	return GroupResponse{
		ID:          g.ID.String(),
		Name:        g.Name,
		Description: g.Description,
		IsSystem:    g.IsSystem,
		Permissions: perms,
		CreatedAt:   g.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

func parsePermissionIDs(ids []string) ([]uuid.UUID, error) {
	parsed := make([]uuid.UUID, 0, len(ids))
	for _, pid := range ids {
		id, err := uuid.Parse(pid)
		if err != nil {
			return nil, fmt.Errorf("invalid permission id '%s': %w", pid, err)
		}
		parsed = append(parsed, id)
	}
	return parsed, nil
}

func (s *groupService) ListGroups(ctx context.Context) ([]GroupResponse, error) {
	groups, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch groups: %w", err)
	}

	res := make([]GroupResponse, 0, len(groups))
	for _, g := range groups {
		res = append(res, toGroupResponse(g))
	}
	return res, nil
}

func (s *groupService) GetGroup(ctx context.Context, id string) (*GroupResponse, error) {
	groupID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid group id: %w", err)
	}

	group, err := s.repo.FindByIDWithPermissions(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("group not found: %w", err)
	}

	resp := toGroupResponse(*group)
	return &resp, nil
}

func (s *groupService) CreateGroup(ctx context.Context, req CreateGroupRequest) (*GroupResponse, error) {
	group := model.UserGroup{
		Name:        req.Name,
		Description: req.Description,
		IsSystem:    false,
	}

	err := s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.Create(txCtx, &group); err != nil {
			return fmt.Errorf("failed to create group: %w", err)
		}

		if len(req.Permissions) > 0 {
			permIDs, parseErr := parsePermissionIDs(req.Permissions)
			if parseErr != nil {
				return parseErr
			}
			if err := s.repo.UpdatePermissions(txCtx, group.ID, permIDs); err != nil {
				return fmt.Errorf("failed to assign permissions: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Reload with permissions
	return s.GetGroup(ctx, group.ID.String())
}

func (s *groupService) UpdateGroup(ctx context.Context, id string, req UpdateGroupRequest) (*GroupResponse, error) {
	groupID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid group id: %w", err)
	}

	group, err := s.repo.FindByID(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("group not found: %w", err)
	}

	oldName := group.Name
	group.Name = req.Name
	group.Description = req.Description

	if err := s.repo.Update(ctx, group); err != nil {
		return nil, fmt.Errorf("failed to update group: %w", err)
	}

	middleware.ClearPermissionCache(oldName)
	return s.GetGroup(ctx, id)
}

func (s *groupService) DeleteGroup(ctx context.Context, id string) error {
	groupID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid group id: %w", err)
	}

	group, err := s.repo.FindByID(ctx, groupID)
	if err != nil {
		return fmt.Errorf("group not found: %w", err)
	}
	if group.IsSystem {
		return fmt.Errorf("cannot delete system group '%s'", group.Name)
	}

	return s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		// Clear associations before deleting
		if err := s.repo.UpdatePermissions(txCtx, groupID, nil); err != nil {
			return fmt.Errorf("failed to clear permissions: %w", err)
		}
		if err := s.repo.Delete(txCtx, groupID); err != nil {
			return fmt.Errorf("failed to delete group: %w", err)
		}
		middleware.ClearPermissionCache(group.Name)
		return nil
	})
}

func (s *groupService) ListPermissions(ctx context.Context) ([]PermissionResponse, error) {
	perms, err := s.repo.ListPermissions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch permissions: %w", err)
	}

	res := make([]PermissionResponse, 0, len(perms))
	for _, p := range perms {
		res = append(res, toPermissionResponse(p))
	}
	return res, nil
}

func (s *groupService) UpdateGroupPermissions(ctx context.Context, groupID string, req UpdateGroupPermissionsRequest) (*GroupResponse, error) {
	id, err := uuid.Parse(groupID)
	if err != nil {
		return nil, fmt.Errorf("invalid group id: %w", err)
	}

	group, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("group not found: %w", err)
	}

	permIDs, err := parsePermissionIDs(req.PermissionIDs)
	if err != nil {
		return nil, err
	}

	if err := s.repo.UpdatePermissions(ctx, id, permIDs); err != nil {
		return nil, fmt.Errorf("failed to update permissions: %w", err)
	}

	middleware.ClearPermissionCache(group.Name)
	return s.GetGroup(ctx, groupID)
}

// SeedDefaultGroupsAndPermissions creates the default permissions and groups if not already present
func (s *groupService) SeedDefaultGroupsAndPermissions(ctx context.Context) error {
	defaultPermissions := []model.Permission{
		{Code: "dashboard.read", Name: "View dashboard and request statistics", Group: "dashboard"},
		{Code: "customers.read", Name: "View customer requests", Group: "customers"},
		{Code: "customers.write", Name: "Create and edit customer requests", Group: "customers"},
		{Code: "customers.submit", Name: "Submit requests for approval", Group: "customers"},
		{Code: "customers.approve", Name: "Approve, return or cancel requests", Group: "customers"},
		{Code: "documents.read", Name: "View and download documents", Group: "documents"},
		{Code: "documents.write", Name: "Upload and delete documents", Group: "documents"},
		{Code: "documents.export", Name: "Export forms as PDF", Group: "documents"},
		{Code: "matrices.read", Name: "View approval matrices", Group: "matrices"},
		{Code: "matrices.write", Name: "Manage approval matrices", Group: "matrices"},
		{Code: "udf.read", Name: "View list view columns", Group: "udf"},
		{Code: "udf.write", Name: "Manage list view columns", Group: "udf"},
		{Code: "users.read", Name: "View users", Group: "users"},
		{Code: "users.write", Name: "Manage users", Group: "users"},
		{Code: "users.delete", Name: "Delete users", Group: "users"},
		{Code: "groups.manage", Name: "Manage user groups", Group: "groups"},
		{Code: "audit.read", Name: "View audit trail", Group: "audit"},
	}

	for i := range defaultPermissions {
		if err := s.repo.UpsertPermission(ctx, &defaultPermissions[i]); err != nil {
			return fmt.Errorf("failed to seed permission '%s': %w", defaultPermissions[i].Code, err)
		}
	}

	permByCode := make(map[string]model.Permission, len(defaultPermissions))
	for _, p := range defaultPermissions {
		permByCode[p.Code] = p
	}

	groupDefinitions := []struct {
		Name        string
		Description string
		PermCodes   []string
	}{
		{
			Name:        "administrators",
			Description: "Full access to workflow, configuration and users",
			PermCodes: []string{
				"dashboard.read",
				"customers.read", "customers.write", "customers.submit", "customers.approve",
				"documents.read", "documents.write", "documents.export",
				"matrices.read", "matrices.write",
				"udf.read", "udf.write",
				"users.read", "users.write", "users.delete",
				"groups.manage", "audit.read",
			},
		},
		{
			Name:        "approvers",
			Description: "Act on requests routed for approval",
			PermCodes: []string{
				"dashboard.read",
				"customers.read", "customers.approve",
				"documents.read", "documents.export",
				"matrices.read", "audit.read",
			},
		},
		{
			Name:        "makers",
			Description: "Create, edit and submit customer requests",
			PermCodes: []string{
				"dashboard.read",
				"customers.read", "customers.write", "customers.submit",
				"documents.read", "documents.write", "documents.export",
			},
		},
	}

	for _, def := range groupDefinitions {
		group, err := s.repo.FindByName(ctx, def.Name)
		if err != nil {
			group = &model.UserGroup{
				Name:        def.Name,
				Description: def.Description,
				IsSystem:    true,
			}
			if createErr := s.repo.Create(ctx, group); createErr != nil {
				return fmt.Errorf("failed to seed group '%s': %w", def.Name, createErr)
			}
		}

		permIDs := make([]uuid.UUID, 0, len(def.PermCodes))
		for _, code := range def.PermCodes {
			if p, ok := permByCode[code]; ok {
				permIDs = append(permIDs, p.ID)
			}
		}
		if err := s.repo.UpdatePermissions(ctx, group.ID, permIDs); err != nil {
			return fmt.Errorf("failed to assign permissions to '%s': %w", def.Name, err)
		}
		middleware.ClearPermissionCache(def.Name)
	}

	return nil
}
