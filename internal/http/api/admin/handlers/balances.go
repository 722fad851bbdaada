package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/sketchmakerhq/creditd/internal/models"
)

// BalancesHandler exposes balance rows for administrative inspection.
type BalancesHandler struct {
	db *gorm.DB
}

// NewBalancesHandler constructs a BalancesHandler.
func NewBalancesHandler(db *gorm.DB) *BalancesHandler {
	return &BalancesHandler{db: db}
}

// List returns balance rows, optionally filtered by account and active flag.
func (h *BalancesHandler) List(c *gin.Context) {
	q := h.db.WithContext(c.Request.Context()).Model(&models.Balance{})

	if accountStr := strings.TrimSpace(c.Query("account_id")); accountStr != "" {
		if id, errParse := strconv.ParseUint(accountStr, 10, 64); errParse == nil {
			q = q.Where("account_id = ?", id)
		}
	}
	if activeStr := strings.TrimSpace(c.Query("active")); activeStr != "" {
		if active, errParse := strconv.ParseBool(activeStr); errParse == nil {
			q = q.Where("active = ?", active)
		}
	}

	limit := 100
	if limitStr := strings.TrimSpace(c.Query("limit")); limitStr != "" {
		if n, errParse := strconv.Atoi(limitStr); errParse == nil && n > 0 && n <= 1000 {
			limit = n
		}
	}

	var rows []models.Balance
	if errFind := q.Order("id DESC").Limit(limit).Find(&rows).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"balances": rows})
}
