// Package credits implements the credit reservation and settlement
// protocol: an account's balance is debited under an exclusive row lock
// before an expensive, fallible operation runs, and the debit is either
// kept (settle) or reversed (refund) depending on the outcome.
//
// The row lock is the only coordination primitive; no shared in-memory
// state is assumed, so concurrent processes serialize correctly. The lock
// is never held across the caller's operation.
package credits

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/sketchmakerhq/creditd/internal/costs"
	"github.com/sketchmakerhq/creditd/internal/ledger"
	"github.com/sketchmakerhq/creditd/internal/models"
	"github.com/sketchmakerhq/creditd/internal/settings"
)

// retryBaseDelay is the initial backoff between lock-conflict retries.
const retryBaseDelay = 25 * time.Millisecond

// Service coordinates reservations against account balances.
type Service struct {
	db     *gorm.DB
	costs  *costs.Table
	ledger *ledger.Store
}

// NewService constructs a Service with explicit dependencies.
func NewService(db *gorm.DB, costTable *costs.Table, ledgerStore *ledger.Store) *Service {
	return &Service{db: db, costs: costTable, ledger: ledgerStore}
}

// Reserve debits cost_of(feature) * quantity from the account's active
// balance and returns a single-use settlement handle.
//
// The balance is re-read under the row lock; a previously observed value
// is never trusted. Concurrent reservations for one account serialize on
// the lock, so two requests can never jointly overdraw the balance.
func (s *Service) Reserve(ctx context.Context, accountID uint64, feature string, quantity int64) (*Reservation, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	costPerUse, errCost := s.costs.CostOf(ctx, feature)
	if errCost != nil {
		return nil, errCost
	}
	total := costPerUse.Mul(decimal.NewFromInt(quantity))

	// Cheap unlocked existence check so accounts without a plan are
	// rejected before any lock is taken.
	var probe models.Balance
	if errProbe := s.db.WithContext(ctx).
		Select("id").
		Where("account_id = ? AND active = ?", accountID, true).
		First(&probe).Error; errProbe != nil {
		if errors.Is(errProbe, gorm.ErrRecordNotFound) {
			return nil, ErrNoActiveSubscription
		}
		return nil, errProbe
	}

	var balanceID uint64
	errReserve := s.withConflictRetry(ctx, func() error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			bal, errLock := lockActiveBalance(ctx, tx, accountID)
			if errLock != nil {
				return errLock
			}

			// A rollover due now is applied first, under the same lock,
			// so the debit sees the fresh allowance.
			if _, errRoll := s.resetIfDueLocked(ctx, tx, bal, time.Now().UTC()); errRoll != nil {
				return errRoll
			}

			if bal.Remaining.LessThan(total) {
				return &InsufficientCreditsError{
					Feature:   feature,
					Required:  total,
					Available: bal.Remaining,
				}
			}

			balanceID = bal.ID
			return tx.Model(&models.Balance{}).
				Where("id = ?", bal.ID).
				Updates(map[string]any{
					"remaining":  gorm.Expr("remaining - ?", total),
					"consumed":   gorm.Expr("consumed + ?", total),
					"updated_at": time.Now().UTC(),
				}).Error
		})
	})
	if errReserve != nil {
		return nil, errReserve
	}

	return &Reservation{
		svc:       s,
		AccountID: accountID,
		BalanceID: balanceID,
		Feature:   feature,
		Quantity:  quantity,
		Total:     total,
	}, nil
}

// Do runs fn inside a scoped reservation: reserve, execute, then settle on
// success or refund on error or panic. The refund completes before the
// operation's error is returned.
func (s *Service) Do(ctx context.Context, accountID uint64, feature string, quantity int64, metadata []byte, fn func(ctx context.Context) error) error {
	res, errReserve := s.Reserve(ctx, accountID, feature, quantity)
	if errReserve != nil {
		return errReserve
	}

	defer func() {
		if r := recover(); r != nil {
			if errRefund := res.Refund(ctx); errRefund != nil && !errors.Is(errRefund, ErrAlreadySettled) {
				log.WithError(errRefund).Error("credits: refund after panic failed")
			}
			panic(r)
		}
	}()

	if errOp := fn(ctx); errOp != nil {
		if errRefund := res.Refund(ctx); errRefund != nil {
			log.WithError(errRefund).Error("credits: refund failed; balance may be under-credited")
		}
		return errOp
	}
	return res.Settle(ctx, metadata)
}

// BalanceInfo is the read-only view of an account's balance.
type BalanceInfo struct {
	AccountID   uint64          `json:"account_id"`
	Remaining   decimal.Decimal `json:"remaining"`
	Consumed    decimal.Decimal `json:"consumed_this_cycle"`
	Allowance   decimal.Decimal `json:"plan_allowance"`
	NextResetAt time.Time       `json:"next_reset_at"`
}

// Balance returns the account's current balance without locking.
func (s *Service) Balance(ctx context.Context, accountID uint64) (*BalanceInfo, error) {
	var bal models.Balance
	if errFind := s.db.WithContext(ctx).
		Where("account_id = ? AND active = ?", accountID, true).
		First(&bal).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, ErrNoActiveSubscription
		}
		return nil, errFind
	}

	return &BalanceInfo{
		AccountID:   accountID,
		Remaining:   bal.Remaining,
		Consumed:    bal.Consumed,
		Allowance:   bal.PlanAllowance,
		NextResetAt: NextReset(bal.CycleAnchor, time.Now().UTC()),
	}, nil
}

// lockActiveBalance reads the account's active balance row FOR UPDATE.
func lockActiveBalance(ctx context.Context, tx *gorm.DB, accountID uint64) (*models.Balance, error) {
	var bal models.Balance
	if errLock := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("account_id = ? AND active = ?", accountID, true).
		First(&bal).Error; errLock != nil {
		if errors.Is(errLock, gorm.ErrRecordNotFound) {
			return nil, ErrNoActiveSubscription
		}
		return nil, errLock
	}
	return &bal, nil
}

// lockBalanceByID reads a specific balance row FOR UPDATE. Used by refunds,
// which must reach the original row even if a plan change deactivated it.
func lockBalanceByID(ctx context.Context, tx *gorm.DB, balanceID uint64) (*models.Balance, error) {
	var bal models.Balance
	if errLock := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", balanceID).
		First(&bal).Error; errLock != nil {
		return nil, errLock
	}
	return &bal, nil
}

// withConflictRetry runs op, retrying transient lock conflicts with a
// bounded linear backoff. Non-conflict errors pass through unchanged;
// exhausting the budget yields a ReservationFailedError.
func (s *Service) withConflictRetry(ctx context.Context, op func() error) error {
	maxRetries := settings.IntValue(settings.ReserveMaxRetriesKey, settings.DefaultReserveMaxRetries)
	if maxRetries < 0 {
		maxRetries = 0
	}

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * retryBaseDelay):
			}
		}
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isLockConflict(lastErr) {
			return lastErr
		}
	}
	return &ReservationFailedError{Attempts: maxRetries + 1, Err: lastErr}
}

// isLockConflict reports whether err is a retryable store-level conflict:
// a PostgreSQL deadlock/serialization failure or a busy SQLite database.
func isLockConflict(err error) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01", "55P03":
			return true
		}
		return false
	}

	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "database table is locked") ||
		strings.Contains(msg, "sqlite_busy")
}
