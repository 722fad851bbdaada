package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/sketchmakerhq/creditd/internal/costs"
	"github.com/sketchmakerhq/creditd/internal/settings"
)

// CostsHandler manages the feature cost table.
type CostsHandler struct {
	table    *costs.Table
	notifier *settings.Notifier
}

// NewCostsHandler constructs a CostsHandler.
func NewCostsHandler(table *costs.Table, notifier *settings.Notifier) *CostsHandler {
	return &CostsHandler{table: table, notifier: notifier}
}

// List returns the active cost table.
func (h *CostsHandler) List(c *gin.Context) {
	all := h.table.All()
	out := make(map[string]string, len(all))
	for feature, cost := range all {
		out[feature] = cost.String()
	}
	c.JSON(http.StatusOK, gin.H{"costs": out})
}

// upsertCostRequest defines the request body for cost updates.
type upsertCostRequest struct {
	Feature    string `json:"feature"`
	CostPerUse string `json:"cost_per_use"`
	Active     *bool  `json:"active"`
}

// Upsert creates or updates one cost entry and broadcasts the change.
func (h *CostsHandler) Upsert(c *gin.Context) {
	var body upsertCostRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	feature := strings.TrimSpace(body.Feature)
	if feature == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "feature is required"})
		return
	}
	cost, errParse := decimal.NewFromString(strings.TrimSpace(body.CostPerUse))
	if errParse != nil || cost.IsNegative() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cost_per_use must be a non-negative number"})
		return
	}
	active := true
	if body.Active != nil {
		active = *body.Active
	}

	if errUpsert := h.table.Upsert(c.Request.Context(), feature, cost, active); errUpsert != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cost update failed"})
		return
	}
	h.notifier.Publish(c.Request.Context(), "costs")

	c.JSON(http.StatusOK, gin.H{"feature": feature, "cost_per_use": cost.String(), "active": active})
}
