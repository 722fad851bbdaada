// Package plans manages the subscription lifecycle that owns balance rows:
// assigning a plan creates a fresh balance and retires the previous one.
package plans

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/sketchmakerhq/creditd/internal/models"
)

// ErrPlanNotFound indicates the requested plan does not exist or is inactive.
var ErrPlanNotFound = errors.New("plans: plan not found")

// Service manages plans and plan assignment.
type Service struct {
	db *gorm.DB
}

// NewService constructs a Service.
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// List returns all plans, active first.
func (s *Service) List(ctx context.Context) ([]models.Plan, error) {
	var rows []models.Plan
	if errFind := s.db.WithContext(ctx).
		Order("is_active DESC, monthly_credits ASC").
		Find(&rows).Error; errFind != nil {
		return nil, fmt.Errorf("plans: list: %w", errFind)
	}
	return rows, nil
}

// Get returns one plan by ID.
func (s *Service) Get(ctx context.Context, planID uint64) (*models.Plan, error) {
	var plan models.Plan
	if errFind := s.db.WithContext(ctx).First(&plan, planID).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, fmt.Errorf("plans: get: %w", errFind)
	}
	return &plan, nil
}

// Assign gives an account a plan: any existing active balance is
// deactivated (never deleted, so refunds against it still land) and a new
// balance is created with the plan's allowance and a fresh cycle anchor.
func (s *Service) Assign(ctx context.Context, accountID, planID uint64, assignedByID *uint64, notes string) (*models.Balance, error) {
	var plan models.Plan
	if errFind := s.db.WithContext(ctx).
		Where("id = ? AND is_active = ?", planID, true).
		First(&plan).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, fmt.Errorf("plans: assign: %w", errFind)
	}

	now := time.Now().UTC()
	balance := models.Balance{
		AccountID:     accountID,
		PlanID:        plan.ID,
		Remaining:     plan.MonthlyCredits,
		Consumed:      decimal.Zero,
		PlanAllowance: plan.MonthlyCredits,
		CycleAnchor:   now,
		LastResetAt:   now,
		Active:        true,
		AssignedByID:  assignedByID,
		Notes:         notes,
	}

	errAssign := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if errRetire := tx.Model(&models.Balance{}).
			Where("account_id = ? AND active = ?", accountID, true).
			Updates(map[string]any{"active": false, "updated_at": now}).Error; errRetire != nil {
			return errRetire
		}
		return tx.Create(&balance).Error
	})
	if errAssign != nil {
		return nil, fmt.Errorf("plans: assign: %w", errAssign)
	}
	return &balance, nil
}
