package models

import (
	"time"

	"gorm.io/gorm"
)

// Invoice statuses
const (
	InvoiceStatusDraft  = "draft"
	InvoiceStatusIssued = "issued"
	InvoiceStatusPaid   = "paid"
)

// Case statuses (dispute/approval workflow for locked invoices)
const (
	CaseStatusOpen     = "open"
	CaseStatusApproved = "approved"
	CaseStatusRejected = "rejected"
)

// Invoice represents a repair invoice for a customer's vehicle
type Invoice struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	CustomerID uint           `gorm:"not null;index" json:"customer_id"`
	Customer   Customer       `gorm:"foreignKey:CustomerID" json:"customer"`
	VehicleID  uint           `gorm:"not null;index" json:"vehicle_id"`
	Vehicle    Vehicle        `gorm:"foreignKey:VehicleID" json:"vehicle"`
	Status     string         `gorm:"not null;default:'draft'" json:"status"` // draft, issued, paid
	Locked     bool           `gorm:"not null;default:false" json:"locked"`
	Total      float64        `gorm:"not null;default:0" json:"total"`
	Lines      []InvoiceLine  `gorm:"foreignKey:InvoiceID" json:"lines,omitempty"`
	WorkOrder  *WorkOrder     `gorm:"foreignKey:InvoiceID" json:"work_order,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Invoice model
func (Invoice) TableName() string {
	return "invoices"
}

// InvoiceLine represents a single billed line on an invoice
type InvoiceLine struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	InvoiceID   uint           `gorm:"not null;index" json:"invoice_id"`
	ItemID      *uint          `gorm:"index" json:"item_id,omitempty"` // nullable, set when the line bills a stocked item
	Description string         `gorm:"not null" json:"description"`
	Quantity    int            `gorm:"not null;check:quantity > 0" json:"quantity"`
	UnitPrice   float64        `gorm:"not null" json:"unit_price"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the InvoiceLine model
func (InvoiceLine) TableName() string {
	return "invoice_lines"
}

// Case represents a dispute/approval case opened against a locked invoice
type Case struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	Number          string         `gorm:"uniqueIndex;not null" json:"number"`
	InvoiceID       uint           `gorm:"not null;index" json:"invoice_id"`
	Invoice         Invoice        `gorm:"foreignKey:InvoiceID" json:"-"`
	Status          string         `gorm:"not null;default:'open'" json:"status"` // open, approved, rejected
	Reason          string         `gorm:"type:text;not null" json:"reason"`
	OpenedByID      uint           `gorm:"not null;index" json:"opened_by_id"`
	OpenedBy        User           `gorm:"foreignKey:OpenedByID" json:"opened_by"`
	ResolvedByID    *uint          `gorm:"index" json:"resolved_by_id,omitempty"`
	ResolvedBy      *User          `gorm:"foreignKey:ResolvedByID" json:"resolved_by,omitempty"`
	ResolutionNotes *string        `gorm:"type:text" json:"resolution_notes,omitempty"`
	ResolvedAt      *time.Time     `json:"resolved_at,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Case model
func (Case) TableName() string {
	return "cases"
}
