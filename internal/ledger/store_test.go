package ledger

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/sketchmakerhq/creditd/internal/models"
)

func setupLedgerDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:ledger_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, errOpen := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if errOpen != nil {
		t.Fatalf("open db: %v", errOpen)
	}
	if errMigrate := db.AutoMigrate(&models.UsageEntry{}); errMigrate != nil {
		t.Fatalf("migrate db: %v", errMigrate)
	}
	return db
}

func appendEntry(t *testing.T, store *Store, accountID uint64, charged string, at time.Time) {
	t.Helper()
	entry := models.UsageEntry{
		AccountID:      accountID,
		BalanceID:      1,
		Feature:        "images",
		Kind:           models.UsageKindReservation,
		CreditsCharged: decimal.RequireFromString(charged),
		CreatedAt:      at,
	}
	if errAppend := store.Append(context.Background(), &entry); errAppend != nil {
		t.Fatalf("append: %v", errAppend)
	}
}

func TestListOrdersNewestFirstAndPaginates(t *testing.T) {
	db := setupLedgerDB(t)
	store := NewStore(db)

	base := time.Date(2026, time.August, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		appendEntry(t, store, 1, "1", base.Add(time.Duration(i)*time.Hour))
	}
	appendEntry(t, store, 2, "3", base)

	rows, errList := store.List(context.Background(), 1, time.Time{}, time.Time{}, 3, 0)
	if errList != nil {
		t.Fatalf("list: %v", errList)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	for i := 1; i < len(rows); i++ {
		if rows[i].CreatedAt.After(rows[i-1].CreatedAt) {
			t.Fatalf("rows not newest first: %s before %s", rows[i-1].CreatedAt, rows[i].CreatedAt)
		}
	}

	next, errNext := store.List(context.Background(), 1, time.Time{}, time.Time{}, 3, 3)
	if errNext != nil {
		t.Fatalf("list offset: %v", errNext)
	}
	if len(next) != 2 {
		t.Fatalf("expected 2 rows on second page, got %d", len(next))
	}
	for _, row := range next {
		if row.AccountID != 1 {
			t.Fatalf("foreign account leaked into listing: %d", row.AccountID)
		}
	}
}

func TestListWindowIsHalfOpen(t *testing.T) {
	db := setupLedgerDB(t)
	store := NewStore(db)

	base := time.Date(2026, time.August, 1, 0, 0, 0, 0, time.UTC)
	appendEntry(t, store, 1, "1", base)                    // at since: included
	appendEntry(t, store, 1, "1", base.Add(time.Hour))     // inside
	appendEntry(t, store, 1, "1", base.Add(2*time.Hour))   // at until: excluded
	appendEntry(t, store, 1, "1", base.Add(-1*time.Minute)) // before since: excluded

	rows, errList := store.List(context.Background(), 1, base, base.Add(2*time.Hour), 0, 0)
	if errList != nil {
		t.Fatalf("list: %v", errList)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows in [since, until), got %d", len(rows))
	}
}

func TestTotalChargedSumsExactly(t *testing.T) {
	db := setupLedgerDB(t)
	store := NewStore(db)

	base := time.Date(2026, time.August, 1, 0, 0, 0, 0, time.UTC)
	appendEntry(t, store, 1, "1", base)
	appendEntry(t, store, 1, "0.5", base.Add(time.Hour))
	appendEntry(t, store, 1, "0.5", base.Add(2*time.Hour))
	appendEntry(t, store, 2, "40", base)

	total, errTotal := store.TotalCharged(context.Background(), 1, time.Time{}, time.Time{})
	if errTotal != nil {
		t.Fatalf("total: %v", errTotal)
	}
	if !total.Equal(decimal.NewFromInt(2)) {
		t.Fatalf("expected total 2, got %s", total)
	}

	// Empty window yields zero, not an error.
	empty, errEmpty := store.TotalCharged(context.Background(), 3, time.Time{}, time.Time{})
	if errEmpty != nil {
		t.Fatalf("empty total: %v", errEmpty)
	}
	if !empty.Equal(decimal.Zero) {
		t.Fatalf("expected 0 for empty window, got %s", empty)
	}
}

func TestAppendRejectsNilEntry(t *testing.T) {
	db := setupLedgerDB(t)
	store := NewStore(db)
	if errAppend := store.Append(context.Background(), nil); errAppend == nil {
		t.Fatalf("expected error for nil entry")
	}
}
