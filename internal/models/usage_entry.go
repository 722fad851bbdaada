package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Usage entry kinds.
const (
	// UsageKindReservation marks a settled credit reservation.
	UsageKindReservation = "reservation"
	// UsageKindCycleReset marks a zero-charge cycle rollover record.
	UsageKindCycleReset = "cycle_reset"
)

// UsageEntry is an immutable audit record of a settled reservation or a
// cycle rollover. Entries are append-only and never mutated.
type UsageEntry struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	AccountID uint64 `gorm:"not null;index"` // Owning account.
	BalanceID uint64 `gorm:"not null;index"` // Balance row the charge was applied to.

	Feature string `gorm:"type:varchar(100);not null;index"`      // Feature that was used.
	Kind    string `gorm:"type:varchar(20);not null;default:reservation"` // Entry kind.

	CreditsCharged decimal.Decimal `gorm:"type:decimal(20,10);not null;default:0"` // Credits charged; 0 for cycle resets.

	Metadata datatypes.JSON `gorm:"type:jsonb"` // Caller-supplied context (model, parameters, ...).

	CreatedAt time.Time `gorm:"not null;autoCreateTime;index"` // Creation timestamp.
}

// TableName overrides the default table name.
func (UsageEntry) TableName() string {
	return "usage_entries"
}
