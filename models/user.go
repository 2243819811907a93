package models

import (
	"time"

	"gorm.io/gorm"
)

// Staff roles
const (
	RoleAdvisor    = "advisor"
	RoleTechnician = "technician"
	RoleManager    = "manager"
)

// User represents a staff member in the system (advisor, technician or manager)
type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Auth0ID   string         `gorm:"uniqueIndex;not null" json:"auth0_id"` // Auth0 user ID (from 'sub' claim)
	Name      string         `gorm:"not null" json:"name"`
	Email     string         `gorm:"uniqueIndex;not null" json:"email"`
	Role      string         `gorm:"not null;default:'advisor'" json:"role"` // "advisor", "technician" or "manager"
	Active    bool           `gorm:"not null;default:true" json:"active"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the User model
func (User) TableName() string {
	return "users"
}

// IsTechnician returns true if the user can be assigned to stages
func (u *User) IsTechnician() bool {
	return u.Role == RoleTechnician
}
