package models

import (
	"time"

	"gorm.io/gorm"
)

// Message represents a staff message in a work order's conversation thread
type Message struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	WorkOrderID uint           `gorm:"not null;index" json:"work_order_id"` // foreign key to work_orders table
	WorkOrder   WorkOrder      `gorm:"foreignKey:WorkOrderID" json:"-"`     // don't include full work order in JSON
	SenderID    uint           `gorm:"not null;index" json:"sender_id"`     // foreign key to users table
	Sender      User           `gorm:"foreignKey:SenderID" json:"sender"`
	Text        string         `gorm:"type:text;not null" json:"text"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Message model
func (Message) TableName() string {
	return "messages"
}
