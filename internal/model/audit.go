package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	ActionCreateDraft    = "CREATE_DRAFT"
	ActionUpdateDraft    = "UPDATE_DRAFT"
	ActionSubmitRequest  = "SUBMIT_REQUEST"
	ActionApproveRequest = "APPROVE_REQUEST"
	ActionCancelRequest  = "CANCEL_REQUEST"
	ActionReturnRequest  = "RETURN_REQUEST"

	ActionUploadDocument = "UPLOAD_DOCUMENT"
	ActionDeleteDocument = "DELETE_DOCUMENT"
	ActionGeneratePDF    = "GENERATE_PDF"

	ActionCreateMatrix = "CREATE_APPROVAL_MATRIX"
	ActionUpdateMatrix = "UPDATE_APPROVAL_MATRIX"
	ActionDeleteMatrix = "DELETE_APPROVAL_MATRIX"
	ActionUpdateUDF    = "UPDATE_UDF_FIELD"
)

// AuditLog tracks Who, What, and When for critical system changes
type AuditLog struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID     *uuid.UUID `gorm:"type:uuid;index" json:"user_id"` // Nullable gracefully if automated
	User       *User      `gorm:"foreignKey:UserID" json:"user"`
	Action     string     `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityID   string     `gorm:"type:varchar(50);index" json:"entity_id"`        // Reference string (uuid/gencode)
	EntityName string     `gorm:"type:varchar(255)" json:"entity_name,omitempty"` // Human readable name
	Details    string     `gorm:"type:jsonb" json:"details"`                      // Serialized JSON payload of the action
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
}
