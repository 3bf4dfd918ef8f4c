package model

import (
	"time"

	"github.com/google/uuid"
)

// UDFField is a user-defined field mapping: an admin-configurable column
// definition that drives which CustomerRequest fields each list view shows
// and under what label.
type UDFField struct {
	ID           uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	FieldKey     string    `gorm:"type:varchar(100);not null;uniqueIndex:idx_udf_list_key" json:"field_key"` // JSON key on CustomerRequest, e.g. "businesscenter"
	Label        string    `gorm:"type:varchar(255);not null" json:"label"`
	ListView     string    `gorm:"type:varchar(50);not null;uniqueIndex:idx_udf_list_key" json:"list_view"` // all, pending, forapproval, approved, cancelled, returned
	Visible      bool      `gorm:"default:true" json:"visible"`
	DisplayOrder int       `gorm:"not null;default:0" json:"display_order"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ListViewNames are the list screens a UDF column can be attached to.
var ListViewNames = []string{"all", "pending", "forapproval", "approved", "cancelled", "returned"}

// ValidListView reports whether v names a known list view.
func ValidListView(v string) bool {
	for _, name := range ListViewNames {
		if v == name {
			return true
		}
	}
	return false
}
