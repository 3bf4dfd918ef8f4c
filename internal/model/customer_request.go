package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RequestFor enum constants
const (
	RequestForActivation   = "ACTIVATION"
	RequestForDeactivation = "DEACTIVATION"
	RequestForEdit         = "EDIT"
)

// CustomerType enum constants
const (
	CustomerTypePersonal    = "PERSONAL"
	CustomerTypeCorporation = "CORPORATION"
)

// ChainEntry is one approver in an ordered approval chain.
type ChainEntry struct {
	UserID uuid.UUID `json:"user_id"`
	Name   string    `json:"name"`
}

// ApproverChain is the ordered list of approvers still ahead of a request.
// The head of the slice is the approver whose action is currently required.
type ApproverChain []ChainEntry

// Head returns the approver whose action is currently required.
func (c ApproverChain) Head() (ChainEntry, bool) {
	if len(c) == 0 {
		return ChainEntry{}, false
	}
	return c[0], true
}

// Contains reports whether userID appears anywhere in the chain.
func (c ApproverChain) Contains(userID uuid.UUID) bool {
	for _, e := range c {
		if e.UserID == userID {
			return true
		}
	}
	return false
}

// CustomerRequest is one customer activation request form (CARF). A row is
// created as a draft by a maker, routed through the approval chain resolved
// from the approval matrix, and ends APPROVED or CANCELLED. Rows are never
// deleted by the workflow; cancellation is a status, not a delete.
type CustomerRequest struct {
	ID      uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Gencode string    `gorm:"type:varchar(30);uniqueIndex;not null" json:"gencode"` // Business key, also the drive folder name. Assigned once.

	// Classification
	RequestFor   string `gorm:"type:varchar(20);not null;index" json:"requestfor"` // ACTIVATION, DEACTIVATION, EDIT
	CustomerKind string `gorm:"type:varchar(20);not null" json:"type"`             // PERSONAL, CORPORATION
	CustType     string `gorm:"type:varchar(100)" json:"custtype"`                 // Free-form customer segment

	// Approval state
	ApproveStatus Status        `gorm:"type:varchar(20);not null;default:'';index" json:"approvestatus"`
	NextApprovers ApproverChain `gorm:"type:jsonb;serializer:json" json:"nextapprover"`
	Remarks       string        `gorm:"type:text" json:"remarks"` // Return-to-maker reason

	// Audit trail
	MakerID     *uuid.UUID `gorm:"type:uuid;index" json:"maker_id"`
	Maker       *User      `gorm:"foreignKey:MakerID" json:"maker,omitempty"`
	MakerName   string     `gorm:"type:varchar(255)" json:"makername"`
	DateCreated *time.Time `json:"datecreated"` // Stamped on first submission

	FirstApproverID    *uuid.UUID `gorm:"type:uuid" json:"firstapprover"`
	FirstApproverName  string     `gorm:"type:varchar(255)" json:"firstapprovername"`
	InitialApproveDate *time.Time `json:"initialapprovedate"`
	SecondApproverID   *uuid.UUID `gorm:"type:uuid" json:"secondapprover"`
	SecondApproverName string     `gorm:"type:varchar(255)" json:"secondapprovername"`
	SecondApproveDate  *time.Time `json:"secondapprovedate"`
	ThirdApproverID    *uuid.UUID `gorm:"type:uuid" json:"thirdapprover"`
	ThirdApproverName  string     `gorm:"type:varchar(255)" json:"thirdapprovername"`
	ThirdApproveDate   *time.Time `json:"thirdapprovedate"`
	FinalApproverID    *uuid.UUID `gorm:"type:uuid" json:"finalapprover"`
	FinalApproverName  string     `gorm:"type:varchar(255)" json:"finalapprovername"`
	FinalApproveDate   *time.Time `json:"finalapprovedate"`

	// Business payload
	CustomerName      string `gorm:"type:varchar(255);not null" json:"customername"`
	TradeName         string `gorm:"type:varchar(255)" json:"tradename"`
	TIN               string `gorm:"type:varchar(30)" json:"tin"`
	BusinessCenter    string `gorm:"type:varchar(100);not null;index" json:"businesscenter"`
	Company           string `gorm:"type:varchar(100);not null" json:"company"`
	SalesmanID        string `gorm:"type:varchar(50)" json:"salesman"`
	SalesmanName      string `gorm:"type:varchar(255)" json:"salesmanname"`
	ContactPerson     string `gorm:"type:varchar(255)" json:"contactperson"`
	ContactNumber     string `gorm:"type:varchar(50)" json:"contactnumber"`
	EmailAddress      string `gorm:"type:varchar(255)" json:"emailaddress"`
	BillingAddress    string `gorm:"type:text" json:"billingaddress"`
	DeliveryAddress   string `gorm:"type:text" json:"deliveryaddress"`
	BusinessAddress   string `gorm:"type:text" json:"businessaddress"`
	SECRegistrationNo string `gorm:"type:varchar(50)" json:"secregistrationno"`
	DTIRegistrationNo string `gorm:"type:varchar(50)" json:"dtiregistrationno"`

	// Credit terms
	CreditTerm  string          `gorm:"type:varchar(50)" json:"creditterm"` // e.g. "COD", "15 DAYS", "30 DAYS"
	CreditLimit decimal.Decimal `gorm:"type:numeric(18,2)" json:"creditlimit"`
	WithVAT     bool            `json:"withvat"`
	PriceGroup  string          `gorm:"type:varchar(50)" json:"pricegroup"`

	// Truck capacity serviceability
	TruckCap4W  bool `json:"truckcap4w"`
	TruckCap6W  bool `json:"truckcap6w"`
	TruckCap10W bool `json:"truckcap10w"`

	// Monthly target volumes
	TargetVolumeLPG   decimal.Decimal `gorm:"type:numeric(18,2)" json:"targetvolumelpg"`
	TargetVolumeFuel  decimal.Decimal `gorm:"type:numeric(18,2)" json:"targetvolumefuel"`
	TargetVolumeLubes decimal.Decimal `gorm:"type:numeric(18,2)" json:"targetvolumelubes"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// ValidRequestFor reports whether v is a known request classification.
func ValidRequestFor(v string) bool {
	return v == RequestForActivation || v == RequestForDeactivation || v == RequestForEdit
}

// ValidCustomerKind reports whether v is a known customer kind.
func ValidCustomerKind(v string) bool {
	return v == CustomerTypePersonal || v == CustomerTypeCorporation
}
