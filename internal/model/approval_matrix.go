package model

import (
	"time"

	"github.com/google/uuid"
)

// ApprovalMatrix maps a (business center, company) pair to the ordered chain
// of approvers a submitted request must pass through. Submission copies the
// chain onto the request; later matrix edits do not reroute in-flight rows.
type ApprovalMatrix struct {
	ID             uuid.UUID     `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	BusinessCenter string        `gorm:"type:varchar(100);not null;uniqueIndex:idx_matrix_bc_company" json:"business_center"`
	Company        string        `gorm:"type:varchar(100);not null;uniqueIndex:idx_matrix_bc_company" json:"company"`
	Approvers      ApproverChain `gorm:"type:jsonb;serializer:json;not null" json:"approvers"` // Ordered, at most four levels
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// MaxApprovalLevels caps the chain length; the audit trail carries stamp
// columns for first, second, third and final approvers only.
const MaxApprovalLevels = 4
