package database

import (
	"carf-backend/internal/logger"
	"carf-backend/internal/model"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// NewConnection initializes a new connection pool using GORM
func NewConnection(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	// Auto-migrate core models
	err = db.AutoMigrate(
		&model.User{},
		&model.RefreshToken{},
		&model.UserGroup{},
		&model.Permission{},
		&model.CustomerRequest{},
		&model.ApprovalMatrix{},
		&model.UDFField{},
		&model.DriveFolder{},
		&model.DriveFile{},
		&model.AuditLog{},
	)
	if err != nil {
		logger.L().Warn("failed to auto-migrate models", zap.Error(err))
	}

	return db, nil
}
