// Package http assembles the gin router for the creditd API surface.
package http

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/sketchmakerhq/creditd/internal/config"
	"github.com/sketchmakerhq/creditd/internal/costs"
	"github.com/sketchmakerhq/creditd/internal/credits"
	adminapi "github.com/sketchmakerhq/creditd/internal/http/api/admin"
	adminhandlers "github.com/sketchmakerhq/creditd/internal/http/api/admin/handlers"
	fronthandlers "github.com/sketchmakerhq/creditd/internal/http/api/front/handlers"
	"github.com/sketchmakerhq/creditd/internal/ledger"
	"github.com/sketchmakerhq/creditd/internal/plans"
	"github.com/sketchmakerhq/creditd/internal/settings"
)

// Deps carries the services the router exposes.
type Deps struct {
	DB       *gorm.DB
	Credits  *credits.Service
	Costs    *costs.Table
	Ledger   *ledger.Store
	Plans    *plans.Service
	Notifier *settings.Notifier
	JWT      config.JWTConf
}

// NewRouter builds the gin engine with front and admin routes registered.
func NewRouter(deps Deps) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery())

	health := adminhandlers.NewHealthHandler(deps.DB)
	engine.GET("/healthz", health.Check)

	front := engine.Group("/api")
	{
		balance := fronthandlers.NewBalanceHandler(deps.Credits)
		usage := fronthandlers.NewUsageHandler(deps.Ledger)
		costsRead := fronthandlers.NewCostsHandler(deps.Costs)

		front.GET("/balance/:account_id", balance.Get)
		front.GET("/usage", usage.List)
		front.GET("/costs", costsRead.List)
	}

	authHandler := adminhandlers.NewAuthHandler(deps.DB, deps.JWT)
	engine.POST("/admin/login", authHandler.Login)

	adminGroup := engine.Group("/admin", adminapi.AuthMiddleware(deps.JWT.Secret))
	{
		costsAdmin := adminhandlers.NewCostsHandler(deps.Costs, deps.Notifier)
		plansAdmin := adminhandlers.NewPlansHandler(deps.Plans)
		balancesAdmin := adminhandlers.NewBalancesHandler(deps.DB)

		adminGroup.GET("/costs", costsAdmin.List)
		adminGroup.PUT("/costs", costsAdmin.Upsert)
		adminGroup.GET("/plans", plansAdmin.List)
		adminGroup.POST("/plans/assign", plansAdmin.Assign)
		adminGroup.GET("/balances", balancesAdmin.List)
	}

	return engine
}
