package models

import "time"

// Admin represents an administrator account for the configuration API.
type Admin struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Username string `gorm:"type:varchar(100);not null;uniqueIndex"` // Login name.
	Password string `gorm:"type:text;not null"`                     // Bcrypt password hash.

	Active bool `gorm:"not null"` // Disabled admins cannot log in.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}

// TableName overrides the default table name.
func (Admin) TableName() string {
	return "admins"
}
