package repository

import (
	"context"

	"carf-backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type GroupRepository interface {
	Create(ctx context.Context, group *model.UserGroup) error
	Update(ctx context.Context, group *model.UserGroup) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.UserGroup, error)
	FindByIDWithPermissions(ctx context.Context, id uuid.UUID) (*model.UserGroup, error)
	FindByName(ctx context.Context, name string) (*model.UserGroup, error)
	ListAll(ctx context.Context) ([]model.UserGroup, error)
	ListPermissions(ctx context.Context) ([]model.Permission, error)
	UpdatePermissions(ctx context.Context, groupID uuid.UUID, permissionIDs []uuid.UUID) error
	GetPermissionsByGroupName(ctx context.Context, groupName string) ([]string, error)
	UpsertPermission(ctx context.Context, p *model.Permission) error
}

type groupRepository struct {
	db *gorm.DB
}

func NewGroupRepository(db *gorm.DB) GroupRepository {
	return &groupRepository{db: db}
}

func (r *groupRepository) Create(ctx context.Context, group *model.UserGroup) error {
	return GetDB(ctx, r.db).Create(group).Error
}

func (r *groupRepository) Update(ctx context.Context, group *model.UserGroup) error {
	return GetDB(ctx, r.db).Save(group).Error
}

func (r *groupRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.UserGroup{}).Error
}

func (r *groupRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.UserGroup, error) {
	var group model.UserGroup
	if err := GetDB(ctx, r.db).First(&group, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &group, nil
}

func (r *groupRepository) FindByIDWithPermissions(ctx context.Context, id uuid.UUID) (*model.UserGroup, error) {
	var group model.UserGroup
	if err := GetDB(ctx, r.db).Preload("Permissions").First(&group, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &group, nil
}

func (r *groupRepository) FindByName(ctx context.Context, name string) (*model.UserGroup, error) {
	var group model.UserGroup
	if err := GetDB(ctx, r.db).Where("name = ?", name).First(&group).Error; err != nil {
		return nil, err
	}
	return &group, nil
}

func (r *groupRepository) ListAll(ctx context.Context) ([]model.UserGroup, error) {
	var groups []model.UserGroup
	if err := GetDB(ctx, r.db).Preload("Permissions").Order("created_at asc").Find(&groups).Error; err != nil {
		return nil, err
	}
	return groups, nil
}

func (r *groupRepository) ListPermissions(ctx context.Context) ([]model.Permission, error) {
	var perms []model.Permission
	if err := GetDB(ctx, r.db).Order("\"group\", code").Find(&perms).Error; err != nil {
		return nil, err
	}
	return perms, nil
}

func (r *groupRepository) UpdatePermissions(ctx context.Context, groupID uuid.UUID, permissionIDs []uuid.UUID) error {
	var group model.UserGroup
	db := GetDB(ctx, r.db)
	if err := db.First(&group, "id = ?", groupID).Error; err != nil {
		return err
	}

	var perms []model.Permission
	if len(permissionIDs) > 0 {
		if err := db.Where("id IN ?", permissionIDs).Find(&perms).Error; err != nil {
			return err
		}
	}

	return db.Model(&group).Association("Permissions").Replace(perms)
}

func (r *groupRepository) GetPermissionsByGroupName(ctx context.Context, groupName string) ([]string, error) {
	var codes []string
	err := GetDB(ctx, r.db).Raw(`
		SELECT p.code FROM permissions p
		INNER JOIN group_permissions gp ON gp.permission_id = p.id
		INNER JOIN user_groups g ON g.id = gp.user_group_id
		WHERE g.name = ?
	`, groupName).Pluck("code", &codes).Error
	if err != nil {
		return nil, err
	}
	return codes, nil
}

func (r *groupRepository) UpsertPermission(ctx context.Context, p *model.Permission) error {
	db := GetDB(ctx, r.db)

	var existing model.Permission
	if err := db.Where("code = ?", p.Code).First(&existing).Error; err != nil {
		return db.Create(p).Error
	}

	p.ID = existing.ID
	return db.Exec(
		`UPDATE permissions SET name = ?, "group" = ? WHERE id = ?`,
		p.Name, p.Group, existing.ID,
	).Error
}
