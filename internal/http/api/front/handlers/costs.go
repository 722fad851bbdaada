package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sketchmakerhq/creditd/internal/costs"
)

// CostsHandler exposes the read-only cost table.
type CostsHandler struct {
	table *costs.Table
}

// NewCostsHandler constructs a CostsHandler.
func NewCostsHandler(table *costs.Table) *CostsHandler {
	return &CostsHandler{table: table}
}

// List returns the per-use cost of every active feature.
func (h *CostsHandler) List(c *gin.Context) {
	all := h.table.All()
	out := make(map[string]string, len(all))
	for feature, cost := range all {
		out[feature] = cost.String()
	}
	c.JSON(http.StatusOK, gin.H{"costs": out})
}
