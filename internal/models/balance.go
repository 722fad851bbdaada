package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Balance holds an account's remaining credit for the current billing cycle.
//
// One active row exists per account; assigning a new plan deactivates the
// old row and creates a fresh one. Rows are never deleted.
type Balance struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	AccountID uint64 `gorm:"not null;index"` // Owning account.
	PlanID    uint64 `gorm:"not null;index"` // Plan this balance was created from.

	Remaining decimal.Decimal `gorm:"type:decimal(20,10);not null;default:0;check:remaining >= 0"` // Consumable credit left this cycle.
	Consumed  decimal.Decimal `gorm:"type:decimal(20,10);not null;default:0"`                      // Credit spent this cycle, reset at rollover.

	PlanAllowance decimal.Decimal `gorm:"type:decimal(20,10);not null"` // Credits granted at each rollover.
	CycleAnchor   time.Time       `gorm:"not null"`                     // Subscription start; immutable, the reset schedule derives from it.
	LastResetAt   time.Time       `gorm:"not null"`                     // Clamped start of the cycle the last rollover opened.

	Active bool `gorm:"not null;index"` // Inactive balances cannot be reserved against.

	AssignedByID *uint64 `gorm:"index"`     // Admin who assigned the plan, if any.
	Notes        string  `gorm:"type:text"` // Admin notes.

	Plan *Plan `gorm:"foreignKey:PlanID"` // Plan relation.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}

// TableName overrides the default table name.
func (Balance) TableName() string {
	return "balances"
}
