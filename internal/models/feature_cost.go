package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// FeatureCost maps a feature name to its per-use credit cost.
type FeatureCost struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	Feature    string          `gorm:"type:varchar(100);not null;uniqueIndex"` // Feature identifier.
	CostPerUse decimal.Decimal `gorm:"type:decimal(20,10);not null"`           // Credits charged per use; may be fractional.

	IsActive bool `gorm:"not null"` // Inactive costs are treated as unconfigured.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}

// TableName overrides the default table name.
func (FeatureCost) TableName() string {
	return "feature_costs"
}
