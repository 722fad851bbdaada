package credits

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/sketchmakerhq/creditd/internal/models"
)

// Reservation is a single-use settlement handle for a debited reservation.
//
// Exactly one of Settle or Refund may be called; the second call fails with
// ErrAlreadySettled. A handle that is never settled nor refunded leaves the
// debit in place with no ledger entry; an external reconciliation sweep is
// expected to detect such orphans.
type Reservation struct {
	svc *Service

	mu   sync.Mutex
	done bool

	AccountID uint64
	BalanceID uint64
	Feature   string
	Quantity  int64
	Total     decimal.Decimal
}

// Settle finalizes the reservation: the debit stands and a ledger entry is
// appended. A ledger write failure does not reverse the debit (the account
// was genuinely charged); it is logged for reconciliation instead.
func (r *Reservation) Settle(ctx context.Context, metadata []byte) error {
	if errGuard := r.consume(); errGuard != nil {
		return errGuard
	}

	entry := &models.UsageEntry{
		AccountID:      r.AccountID,
		BalanceID:      r.BalanceID,
		Feature:        r.Feature,
		Kind:           models.UsageKindReservation,
		CreditsCharged: r.Total,
		Metadata:       datatypes.JSON(metadata),
		CreatedAt:      time.Now().UTC(),
	}
	if errAppend := r.svc.ledger.Append(ctx, entry); errAppend != nil {
		log.WithError(errAppend).WithFields(log.Fields{
			"account_id": r.AccountID,
			"feature":    r.Feature,
			"charged":    r.Total.String(),
		}).Warn("credits: ledger write failed for settled reservation; charge stands, reconcile manually")
	}
	return nil
}

// Refund reverses the debit after a failed operation. It re-acquires the
// balance row lock; an interleaved rollover is tolerated (the credit is
// returned into whatever cycle the row is now in, and the consumed counter
// never goes negative). No ledger entry is written.
func (r *Reservation) Refund(ctx context.Context) error {
	if errGuard := r.consume(); errGuard != nil {
		return errGuard
	}

	errRefund := r.svc.withConflictRetry(ctx, func() error {
		return r.svc.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			bal, errLock := lockBalanceByID(ctx, tx, r.BalanceID)
			if errLock != nil {
				return errLock
			}

			consumed := bal.Consumed.Sub(r.Total)
			if consumed.IsNegative() {
				consumed = decimal.Zero
			}
			return tx.Model(&models.Balance{}).
				Where("id = ?", bal.ID).
				Updates(map[string]any{
					"remaining":  bal.Remaining.Add(r.Total),
					"consumed":   consumed,
					"updated_at": time.Now().UTC(),
				}).Error
		})
	})
	if errRefund != nil {
		// Leave the handle reusable so the caller can retry the refund.
		r.unconsume()
	}
	return errRefund
}

// consume flips the single-use flag, rejecting a second settlement.
func (r *Reservation) consume() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.done {
		return ErrAlreadySettled
	}
	r.done = true
	return nil
}

func (r *Reservation) unconsume() {
	r.mu.Lock()
	r.done = false
	r.mu.Unlock()
}
