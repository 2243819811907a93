package models

import (
	"time"

	"gorm.io/gorm"
)

// Purchase order statuses
const (
	PurchaseOrderStatusDraft    = "draft"
	PurchaseOrderStatusOrdered  = "ordered"
	PurchaseOrderStatusReceived = "received"
)

// Item represents a stocked inventory item
type Item struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	SKU            string         `gorm:"uniqueIndex;not null" json:"sku"`
	Name           string         `gorm:"not null" json:"name"`
	QuantityOnHand int            `gorm:"not null;default:0" json:"quantity_on_hand"`
	UnitPrice      float64        `gorm:"not null;default:0" json:"unit_price"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Item model
func (Item) TableName() string {
	return "items"
}

// Vendor represents a parts supplier
type Vendor struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Name      string         `gorm:"uniqueIndex;not null" json:"name"`
	Email     string         `json:"email"`
	Phone     string         `json:"phone"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Vendor model
func (Vendor) TableName() string {
	return "vendors"
}

// PurchaseOrder represents an order placed with a vendor for stock.
// Receiving it increments the stock of every line's item.
type PurchaseOrder struct {
	ID         uint                `gorm:"primaryKey" json:"id"`
	VendorID   uint                `gorm:"not null;index" json:"vendor_id"`
	Vendor     Vendor              `gorm:"foreignKey:VendorID" json:"vendor"`
	Status     string              `gorm:"not null;default:'draft'" json:"status"` // draft, ordered, received
	Lines      []PurchaseOrderLine `gorm:"foreignKey:PurchaseOrderID" json:"lines,omitempty"`
	OrderedAt  *time.Time          `json:"ordered_at,omitempty"`
	ReceivedAt *time.Time          `json:"received_at,omitempty"`
	CreatedAt  time.Time           `json:"created_at"`
	UpdatedAt  time.Time           `json:"updated_at"`
	DeletedAt  gorm.DeletedAt      `gorm:"index" json:"-"`
}

// TableName specifies the table name for the PurchaseOrder model
func (PurchaseOrder) TableName() string {
	return "purchase_orders"
}

// PurchaseOrderLine is a single item/quantity line on a purchase order
type PurchaseOrderLine struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	PurchaseOrderID uint           `gorm:"not null;index" json:"purchase_order_id"`
	ItemID          uint           `gorm:"not null;index" json:"item_id"`
	Item            Item           `gorm:"foreignKey:ItemID" json:"item"`
	Quantity        int            `gorm:"not null;check:quantity > 0" json:"quantity"`
	UnitCost        float64        `gorm:"not null" json:"unit_cost"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the PurchaseOrderLine model
func (PurchaseOrderLine) TableName() string {
	return "purchase_order_lines"
}
