// Package ledger maintains the append-only audit trail of settled
// reservations and cycle rollovers.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/sketchmakerhq/creditd/internal/models"
)

// Store appends and queries usage entries. The core exposes no update or
// delete path; entries are immutable once written.
type Store struct {
	db *gorm.DB
}

// NewStore constructs a Store backed by GORM.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Append inserts one usage entry.
func (s *Store) Append(ctx context.Context, entry *models.UsageEntry) error {
	if s == nil || s.db == nil {
		return errors.New("ledger: nil store")
	}
	if entry == nil {
		return errors.New("ledger: nil entry")
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	if errCreate := s.db.WithContext(ctx).Create(entry).Error; errCreate != nil {
		return fmt.Errorf("ledger: append: %w", errCreate)
	}
	return nil
}

// List returns entries for an account within [since, until), newest first.
// A zero since or until leaves that bound open. limit <= 0 applies a
// default page size.
func (s *Store) List(ctx context.Context, accountID uint64, since, until time.Time, limit, offset int) ([]models.UsageEntry, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("ledger: nil store")
	}
	if limit <= 0 {
		limit = 100
	}

	q := s.db.WithContext(ctx).
		Model(&models.UsageEntry{}).
		Where("account_id = ?", accountID)
	if !since.IsZero() {
		q = q.Where("created_at >= ?", since.UTC())
	}
	if !until.IsZero() {
		q = q.Where("created_at < ?", until.UTC())
	}

	var rows []models.UsageEntry
	if errFind := q.Order("created_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&rows).Error; errFind != nil {
		return nil, fmt.Errorf("ledger: list: %w", errFind)
	}
	return rows, nil
}

// TotalCharged sums credits charged for an account within [since, until).
func (s *Store) TotalCharged(ctx context.Context, accountID uint64, since, until time.Time) (decimal.Decimal, error) {
	if s == nil || s.db == nil {
		return decimal.Zero, errors.New("ledger: nil store")
	}

	q := s.db.WithContext(ctx).
		Model(&models.UsageEntry{}).
		Where("account_id = ?", accountID)
	if !since.IsZero() {
		q = q.Where("created_at >= ?", since.UTC())
	}
	if !until.IsZero() {
		q = q.Where("created_at < ?", until.UTC())
	}

	// row holds the aggregation result; COALESCE covers empty windows.
	var row struct {
		Total decimal.Decimal
	}
	if errScan := q.Select("COALESCE(SUM(credits_charged), 0) AS total").
		Scan(&row).Error; errScan != nil {
		return decimal.Zero, fmt.Errorf("ledger: total: %w", errScan)
	}
	return row.Total, nil
}
