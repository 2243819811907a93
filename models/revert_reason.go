package models

import (
	"time"

	"gorm.io/gorm"
)

// RevertReason is a predefined catalog entry selectable when reverting a
// stage. The revert action stores the resolved label text, so entries are
// immutable once created; retiring one just flips Active.
type RevertReason struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Label     string         `gorm:"uniqueIndex;not null" json:"label"`
	Active    bool           `gorm:"not null;default:true" json:"active"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the RevertReason model
func (RevertReason) TableName() string {
	return "revert_reasons"
}
