// Package costs resolves per-use credit prices for features.
//
// The cost table lives in the database and is mirrored into an atomic
// in-memory snapshot so the reservation hot path never blocks on a query.
// Admin writes reload the snapshot and broadcast an invalidation so sibling
// processes reload too.
package costs

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/sketchmakerhq/creditd/internal/models"
)

// UnknownFeatureError reports a reservation against a feature with no
// configured cost. Unconfigured features are rejected rather than treated
// as free.
type UnknownFeatureError struct {
	Feature string
}

func (e *UnknownFeatureError) Error() string {
	return fmt.Sprintf("costs: no cost configured for feature %q", e.Feature)
}

// Table resolves feature costs from the database-backed cost table.
type Table struct {
	db       *gorm.DB
	snapshot atomic.Value // stores map[string]decimal.Decimal
}

// NewTable constructs a Table and loads the initial snapshot. A failed
// initial load is fatal: lookups are served from the snapshot only, so the
// process must not start without one.
func NewTable(ctx context.Context, db *gorm.DB) (*Table, error) {
	if db == nil {
		return nil, errors.New("costs: nil db")
	}
	t := &Table{db: db}
	if errReload := t.Reload(ctx); errReload != nil {
		return nil, errReload
	}
	return t, nil
}

// Reload replaces the in-memory snapshot from the database.
func (t *Table) Reload(ctx context.Context) error {
	var rows []models.FeatureCost
	if errFind := t.db.WithContext(ctx).
		Where("is_active = ?", true).
		Find(&rows).Error; errFind != nil {
		return fmt.Errorf("costs: reload: %w", errFind)
	}

	next := make(map[string]decimal.Decimal, len(rows))
	for _, row := range rows {
		feature := strings.TrimSpace(row.Feature)
		if feature == "" {
			continue
		}
		next[feature] = row.CostPerUse
	}
	t.snapshot.Store(next)
	return nil
}

// CostOf returns the per-use cost for a feature. Unknown or inactive
// features yield an UnknownFeatureError.
func (t *Table) CostOf(_ context.Context, feature string) (decimal.Decimal, error) {
	feature = strings.TrimSpace(feature)
	if feature == "" {
		return decimal.Zero, &UnknownFeatureError{Feature: feature}
	}

	snap, _ := t.snapshot.Load().(map[string]decimal.Decimal)
	cost, ok := snap[feature]
	if !ok {
		return decimal.Zero, &UnknownFeatureError{Feature: feature}
	}
	return cost, nil
}

// All returns a copy of the active cost table.
func (t *Table) All() map[string]decimal.Decimal {
	snap, _ := t.snapshot.Load().(map[string]decimal.Decimal)
	out := make(map[string]decimal.Decimal, len(snap))
	for k, v := range snap {
		out[k] = v
	}
	return out
}

// Upsert writes one cost entry and reloads the snapshot. Writes are
// last-writer-wins.
func (t *Table) Upsert(ctx context.Context, feature string, costPerUse decimal.Decimal, active bool) error {
	feature = strings.TrimSpace(feature)
	if feature == "" {
		return errors.New("costs: empty feature")
	}
	if costPerUse.IsNegative() {
		return errors.New("costs: negative cost")
	}

	var row models.FeatureCost
	errFind := t.db.WithContext(ctx).Where("feature = ?", feature).First(&row).Error
	switch {
	case errFind == nil:
		row.CostPerUse = costPerUse
		row.IsActive = active
		if errSave := t.db.WithContext(ctx).Save(&row).Error; errSave != nil {
			return fmt.Errorf("costs: update: %w", errSave)
		}
	case errors.Is(errFind, gorm.ErrRecordNotFound):
		row = models.FeatureCost{Feature: feature, CostPerUse: costPerUse, IsActive: active}
		if errCreate := t.db.WithContext(ctx).Create(&row).Error; errCreate != nil {
			return fmt.Errorf("costs: create: %w", errCreate)
		}
	default:
		return fmt.Errorf("costs: lookup: %w", errFind)
	}

	return t.Reload(ctx)
}
