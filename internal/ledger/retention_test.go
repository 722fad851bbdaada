package ledger

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/sketchmakerhq/creditd/internal/models"
	"github.com/sketchmakerhq/creditd/internal/settings"
)

func TestCleanupOnceRespectsRetentionSetting(t *testing.T) {
	db := setupLedgerDB(t)
	store := NewStore(db)
	cleaner := NewRetentionCleaner(db)

	now := time.Now().UTC()
	appendEntry(t, store, 1, "1", now.AddDate(0, 0, -60))
	appendEntry(t, store, 1, "1", now.AddDate(0, 0, -40))
	appendEntry(t, store, 1, "1", now.AddDate(0, 0, -5))

	countRows := func() int64 {
		var n int64
		if errCount := db.Model(&models.UsageEntry{}).Count(&n).Error; errCount != nil {
			t.Fatalf("count: %v", errCount)
		}
		return n
	}

	// Retention disabled by default: nothing is deleted.
	settings.StoreDBConfig(nil)
	cleaner.cleanupOnce(context.Background())
	if n := countRows(); n != 3 {
		t.Fatalf("expected 3 rows with retention disabled, got %d", n)
	}

	settings.StoreDBConfig(map[string]json.RawMessage{
		settings.LedgerRetentionDaysKey: json.RawMessage(`30`),
	})
	t.Cleanup(func() {
		settings.StoreDBConfig(nil)
	})

	cleaner.cleanupOnce(context.Background())
	if n := countRows(); n != 1 {
		t.Fatalf("expected 1 row after 30-day cleanup, got %d", n)
	}

	rows, errList := store.List(context.Background(), 1, time.Time{}, time.Time{}, 10, 0)
	if errList != nil {
		t.Fatalf("list: %v", errList)
	}
	if len(rows) != 1 || rows[0].CreatedAt.Before(now.AddDate(0, 0, -30)) {
		t.Fatalf("wrong survivor: %+v", rows)
	}
}
