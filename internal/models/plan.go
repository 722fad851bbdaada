package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Plan describes a subscription tier and its monthly credit allowance.
type Plan struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Name        string `gorm:"type:varchar(50);not null;uniqueIndex"` // Machine name (free, premium, pro).
	DisplayName string `gorm:"type:varchar(100);not null"`            // Human-readable name.

	MonthlyCredits decimal.Decimal `gorm:"type:decimal(20,10);not null"` // Credits granted at each cycle rollover.

	Description string         `gorm:"type:text"`  // Marketing description.
	Features    datatypes.JSON `gorm:"type:jsonb"` // Feature list as a JSON array.

	IsActive bool `gorm:"not null"` // Whether the plan can be assigned.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}

// TableName overrides the default table name.
func (Plan) TableName() string {
	return "plans"
}
