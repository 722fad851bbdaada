package models

import (
	"encoding/json"
	"time"
)

// Setting stores a runtime-tunable configuration entry in the database.
//
// Values are JSON-encoded so numeric and string settings share one table.
// The in-memory snapshot in internal/settings is refreshed whenever a row
// changes.
type Setting struct {
	Key       string          `gorm:"type:varchar(255);primaryKey"`                      // Configuration key.
	Value     json.RawMessage `gorm:"type:jsonb"`                                        // JSON-encoded value.
	UpdatedAt time.Time       `gorm:"not null;autoUpdateTime;default:CURRENT_TIMESTAMP"` // Last update timestamp.
}

// TableName overrides the default table name.
func (Setting) TableName() string {
	return "settings"
}
