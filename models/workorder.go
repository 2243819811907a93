package models

import (
	"time"

	"gorm.io/gorm"
)

// Work order statuses
const (
	WorkOrderStatusOpen      = "open"
	WorkOrderStatusCompleted = "completed"
)

// WorkOrder represents a unit of repair work tied to one invoice.
// Its stages are instantiated in order from a Variation template and
// the order itself is only ever marked completed, never deleted.
type WorkOrder struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	InvoiceID   uint           `gorm:"uniqueIndex;not null" json:"invoice_id"`
	VariationID uint           `gorm:"not null;index" json:"variation_id"`
	Variation   Variation      `gorm:"foreignKey:VariationID" json:"-"`
	Status      string         `gorm:"not null;default:'open'" json:"status"` // open, completed
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
	Stages      []Stage        `gorm:"foreignKey:WorkOrderID" json:"stages,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the WorkOrder model
func (WorkOrder) TableName() string {
	return "work_orders"
}

// Variation is a named template defining an ordered set of stages
// for a given service offering
type Variation struct {
	ID        uint             `gorm:"primaryKey" json:"id"`
	Name      string           `gorm:"uniqueIndex;not null" json:"name"`
	Active    bool             `gorm:"not null;default:true" json:"active"`
	Stages    []VariationStage `gorm:"foreignKey:VariationID" json:"stages,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
	DeletedAt gorm.DeletedAt   `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Variation model
func (Variation) TableName() string {
	return "variations"
}

// VariationStage is one ordered stage definition inside a Variation template
type VariationStage struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	VariationID uint           `gorm:"not null;index" json:"variation_id"`
	Name        string         `gorm:"not null" json:"name"`
	Position    int            `gorm:"not null" json:"position"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the VariationStage model
func (VariationStage) TableName() string {
	return "variation_stages"
}
