package db

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/sketchmakerhq/creditd/internal/models"
)

// Migrate applies schema migrations and seeds default catalog rows.
func Migrate(conn *gorm.DB) error {
	if conn == nil {
		return errors.New("db: nil connection")
	}

	if errMigrate := conn.AutoMigrate(
		&models.Plan{},
		&models.Balance{},
		&models.FeatureCost{},
		&models.UsageEntry{},
		&models.Setting{},
		&models.Admin{},
	); errMigrate != nil {
		return fmt.Errorf("db: migrate: %w", errMigrate)
	}

	if errSeed := seedDefaultPlans(conn); errSeed != nil {
		return errSeed
	}
	return seedDefaultFeatureCosts(conn)
}

// seedDefaultPlans creates the default plan catalog when missing.
func seedDefaultPlans(conn *gorm.DB) error {
	plans := []models.Plan{
		{
			Name:           "free",
			DisplayName:    "Free Plan",
			MonthlyCredits: decimal.NewFromInt(10),
			Description:    "Perfect for trying out AI image generation",
			Features: datatypes.JSON([]byte(`["10 images per month","Access to basic models","Standard resolution","Community support"]`)),
		},
		{
			Name:           "premium",
			DisplayName:    "Premium Plan",
			MonthlyCredits: decimal.NewFromInt(100),
			Description:    "Great for regular users and small projects",
			Features: datatypes.JSON([]byte(`["100 images per month","Access to all models","High resolution","Priority support","Custom LoRA training","Batch processing"]`)),
		},
		{
			Name:           "pro",
			DisplayName:    "Pro Plan",
			MonthlyCredits: decimal.NewFromInt(1000),
			Description:    "For professionals and businesses",
			Features: datatypes.JSON([]byte(`["1000 images per month","Access to all models","Ultra-high resolution","Dedicated support","Unlimited LoRA training","API access","Advanced features"]`)),
		},
	}

	for i := range plans {
		plan := plans[i]
		var existing models.Plan
		errFind := conn.Where("name = ?", plan.Name).First(&existing).Error
		if errFind == nil {
			continue
		}
		if !errors.Is(errFind, gorm.ErrRecordNotFound) {
			return fmt.Errorf("db: seed plans: %w", errFind)
		}
		plan.IsActive = true
		if errCreate := conn.Create(&plan).Error; errCreate != nil {
			return fmt.Errorf("db: seed plans: %w", errCreate)
		}
	}
	return nil
}

// seedDefaultFeatureCosts creates the default feature cost table when missing.
func seedDefaultFeatureCosts(conn *gorm.DB) error {
	costs := map[string]decimal.Decimal{
		"images":        decimal.NewFromInt(1),
		"banners":       decimal.RequireFromString("0.5"),
		"magix":         decimal.NewFromInt(1),
		"lora_training": decimal.NewFromInt(40),
	}

	for feature, cost := range costs {
		var existing models.FeatureCost
		errFind := conn.Where("feature = ?", feature).First(&existing).Error
		if errFind == nil {
			continue
		}
		if !errors.Is(errFind, gorm.ErrRecordNotFound) {
			return fmt.Errorf("db: seed feature costs: %w", errFind)
		}
		row := models.FeatureCost{Feature: feature, CostPerUse: cost, IsActive: true}
		if errCreate := conn.Create(&row).Error; errCreate != nil {
			return fmt.Errorf("db: seed feature costs: %w", errCreate)
		}
	}
	return nil
}
