package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sketchmakerhq/creditd/internal/ledger"
)

// UsageHandler exposes ledger range queries for reporting.
type UsageHandler struct {
	ledger *ledger.Store
}

// NewUsageHandler constructs a UsageHandler.
func NewUsageHandler(ledgerStore *ledger.Store) *UsageHandler {
	return &UsageHandler{ledger: ledgerStore}
}

// List returns usage entries for an account within a time window.
func (h *UsageHandler) List(c *gin.Context) {
	accountID, errParse := strconv.ParseUint(strings.TrimSpace(c.Query("account_id")), 10, 64)
	if errParse != nil || accountID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "account_id is required"})
		return
	}

	var since, until time.Time
	if sinceStr := strings.TrimSpace(c.Query("since")); sinceStr != "" {
		if t, errTime := time.Parse(time.RFC3339, sinceStr); errTime == nil {
			since = t.UTC()
		}
	}
	if untilStr := strings.TrimSpace(c.Query("until")); untilStr != "" {
		if t, errTime := time.Parse(time.RFC3339, untilStr); errTime == nil {
			until = t.UTC()
		}
	}

	limit, offset := 100, 0
	if limitStr := strings.TrimSpace(c.Query("limit")); limitStr != "" {
		if n, errAtoi := strconv.Atoi(limitStr); errAtoi == nil && n > 0 && n <= 1000 {
			limit = n
		}
	}
	if offsetStr := strings.TrimSpace(c.Query("offset")); offsetStr != "" {
		if n, errAtoi := strconv.Atoi(offsetStr); errAtoi == nil && n >= 0 {
			offset = n
		}
	}

	rows, errList := h.ledger.List(c.Request.Context(), accountID, since, until, limit, offset)
	if errList != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}

	total, errTotal := h.ledger.TotalCharged(c.Request.Context(), accountID, since, until)
	if errTotal != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"entries":       rows,
		"total_charged": total.String(),
	})
}
