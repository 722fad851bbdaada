package credits

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/sketchmakerhq/creditd/internal/models"
	"github.com/sketchmakerhq/creditd/internal/settings"
)

// addMonthsClamped advances t by whole calendar months, clamping the day to
// the target month's length (an anchor on the 31st rolls over on the last
// day of shorter months). Hour, minute and second are preserved.
func addMonthsClamped(t time.Time, months int) time.Time {
	year, month, day := t.Date()
	total := int(month) - 1 + months
	targetYear := year + total/12
	targetMonth := time.Month(total%12 + 1)

	if last := daysInMonth(targetYear, targetMonth); day > last {
		day = last
	}
	return time.Date(targetYear, targetMonth, day,
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// daysInMonth returns the number of days in the given month.
func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// periodsElapsed returns the number of whole billing periods between anchor
// and now: the largest k with addMonthsClamped(anchor, k) <= now.
func periodsElapsed(anchor, now time.Time) int {
	if !anchor.Before(now) {
		return 0
	}
	k := (now.Year()-anchor.Year())*12 + int(now.Month()) - int(anchor.Month())
	if k < 0 {
		return 0
	}
	for k > 0 && addMonthsClamped(anchor, k).After(now) {
		k--
	}
	for !addMonthsClamped(anchor, k+1).After(now) {
		k++
	}
	return k
}

// NextReset returns the first reset instant strictly after now, derived
// from the cycle anchor by whole-month steps.
func NextReset(anchor, now time.Time) time.Time {
	return addMonthsClamped(anchor, periodsElapsed(anchor, now)+1)
}

// ResetIfDue applies a cycle rollover to the account's active balance when
// one is due, under the same row lock reservations use. It reports whether
// a reset was performed. Calling it again immediately is a no-op.
func (s *Service) ResetIfDue(ctx context.Context, accountID uint64) (bool, error) {
	reset := false
	errRoll := s.withConflictRetry(ctx, func() error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			bal, errLock := lockActiveBalance(ctx, tx, accountID)
			if errLock != nil {
				return errLock
			}
			did, errReset := s.resetIfDueLocked(ctx, tx, bal, time.Now().UTC())
			if errReset != nil {
				return errReset
			}
			reset = did
			return nil
		})
	})
	return reset, errRoll
}

// resetIfDueLocked performs the rollover bookkeeping on an already-locked
// balance row. The anchor itself is never touched: every cycle boundary is
// recomputed from it, so a clamped month (Jan 31 resetting on Feb 28) does
// not drag later resets off the anchor's day. last_reset_at records which
// cycle the row is in. bal is updated in place so callers see the fresh
// values.
func (s *Service) resetIfDueLocked(ctx context.Context, tx *gorm.DB, bal *models.Balance, now time.Time) (bool, error) {
	k := periodsElapsed(bal.CycleAnchor, now)
	if k == 0 {
		return false, nil
	}
	cycleStart := addMonthsClamped(bal.CycleAnchor, k)
	if !bal.LastResetAt.Before(cycleStart) {
		return false, nil
	}

	if errUpdate := tx.Model(&models.Balance{}).
		Where("id = ?", bal.ID).
		Updates(map[string]any{
			"remaining":     bal.PlanAllowance,
			"consumed":      decimal.Zero,
			"last_reset_at": cycleStart,
			"updated_at":    now,
		}).Error; errUpdate != nil {
		return false, errUpdate
	}

	// Zero-charge audit record, atomic with the reset.
	entry := models.UsageEntry{
		AccountID: bal.AccountID,
		BalanceID: bal.ID,
		Feature:   "cycle_reset",
		Kind:      models.UsageKindCycleReset,
		CreatedAt: now,
	}
	if errCreate := tx.Create(&entry).Error; errCreate != nil {
		return false, errCreate
	}

	bal.Remaining = bal.PlanAllowance
	bal.Consumed = decimal.Zero
	bal.LastResetAt = cycleStart
	return true, nil
}

// RolloverRunner periodically sweeps active balances and applies due
// cycle rollovers.
type RolloverRunner struct {
	svc *Service
}

// NewRolloverRunner constructs a RolloverRunner.
func NewRolloverRunner(svc *Service) *RolloverRunner {
	if svc == nil {
		return nil
	}
	return &RolloverRunner{svc: svc}
}

// Start launches the sweep loop in a background goroutine.
func (r *RolloverRunner) Start(ctx context.Context) {
	if r == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	go r.run(ctx)
	log.Info("rollover runner started")
}

func (r *RolloverRunner) run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		r.sweepOnce(ctx)

		intervalSeconds := settings.IntValue(settings.RolloverSweepIntervalSecondsKey, settings.DefaultRolloverSweepIntervalSeconds)
		if intervalSeconds <= 0 {
			intervalSeconds = settings.DefaultRolloverSweepIntervalSeconds
		}
		timer := time.NewTimer(time.Duration(intervalSeconds) * time.Second)
		select {
		case <-ctx.Done():
			if !timer.Stop() {
				<-timer.C
			}
			return
		case <-timer.C:
		}
	}
}

func (r *RolloverRunner) sweepOnce(ctx context.Context) {
	// A row reset within the shortest possible month cannot be due again.
	cutoff := time.Now().UTC().AddDate(0, 0, -28)

	var accountIDs []uint64
	if errFind := r.svc.db.WithContext(ctx).
		Model(&models.Balance{}).
		Where("active = ? AND last_reset_at <= ?", true, cutoff).
		Pluck("account_id", &accountIDs).Error; errFind != nil {
		log.WithError(errFind).Warn("rollover runner: listing due balances failed")
		return
	}

	resets := 0
	for _, accountID := range accountIDs {
		if ctx.Err() != nil {
			return
		}
		did, errReset := r.svc.ResetIfDue(ctx, accountID)
		if errReset != nil {
			log.WithError(errReset).WithField("account_id", accountID).Warn("rollover runner: reset failed")
			continue
		}
		if did {
			resets++
		}
	}
	if resets > 0 {
		log.Infof("rollover runner: reset %d balances", resets)
	}
}
