package model

import (
	"time"

	"github.com/google/uuid"
)

// Document category slots under a gencode folder. Each maps a frontend docType
// key to the fixed SP1..SP6 subfolder it lands in.
const (
	DocTypeBusinessRegistration = "sp1BusinessRegistration"
	DocTypeGovernmentID         = "sp2GovernmentId"
	DocTypeSECRegistration      = "sp3SecRegistration"
	DocTypeGeneralInfo          = "sp4GeneralInfo"
	DocTypeBoardResolution      = "sp5BoardResolution"
	DocTypeOthers               = "sp6Others"
)

// DocTypeFolders maps docType keys to subfolder names, in slot order.
var DocTypeFolders = map[string]string{
	DocTypeBusinessRegistration: "SP1",
	DocTypeGovernmentID:         "SP2",
	DocTypeSECRegistration:      "SP3",
	DocTypeGeneralInfo:          "SP4",
	DocTypeBoardResolution:      "SP5",
	DocTypeOthers:               "SP6",
}

// DocTypes lists the docType keys in slot order, for building the per-gencode
// listing response and the zip layout deterministically.
var DocTypes = []string{
	DocTypeBusinessRegistration,
	DocTypeGovernmentID,
	DocTypeSECRegistration,
	DocTypeGeneralInfo,
	DocTypeBoardResolution,
	DocTypeOthers,
}

// DriveFolder is one node of the document folder tree. The root folder has a
// nil parent; gencode folders hang off the root and SP1..SP6 hang off their
// gencode folder. (ParentID, Name) is unique, which is what makes lazy
// provisioning idempotent.
type DriveFolder struct {
	ID        uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ParentID  *uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_folder_parent_name" json:"parent_id"`
	Name      string     `gorm:"type:varchar(255);not null;uniqueIndex:idx_folder_parent_name" json:"name"`
	CreatedAt time.Time  `json:"created_at"`
}

// DriveFile is the metadata row for one stored document. Bytes live on the
// blob filesystem keyed by ID.
type DriveFile struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	FolderID  uuid.UUID `gorm:"type:uuid;not null;index" json:"folder_id"`
	Gencode   string    `gorm:"type:varchar(30);not null;index" json:"gencode"`
	DocType   string    `gorm:"type:varchar(50);not null" json:"doc_type"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	MimeType  string    `gorm:"type:varchar(100)" json:"mimeType"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`
}
