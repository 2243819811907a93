package models

import (
	"time"

	"gorm.io/gorm"
)

// Customer represents a garage customer
type Customer struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Name      string         `gorm:"not null" json:"name"`
	Phone     string         `json:"phone"`
	Email     string         `gorm:"index" json:"email"`
	Vehicles  []Vehicle      `gorm:"foreignKey:CustomerID" json:"vehicles,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Customer model
func (Customer) TableName() string {
	return "customers"
}

// Vehicle represents a customer's vehicle
type Vehicle struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	CustomerID uint           `gorm:"not null;index" json:"customer_id"`
	Make       string         `gorm:"not null" json:"make"`
	Model      string         `gorm:"not null" json:"model"`
	Year       int            `json:"year"`
	Plate      string         `gorm:"uniqueIndex;not null" json:"plate"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Vehicle model
func (Vehicle) TableName() string {
	return "vehicles"
}
