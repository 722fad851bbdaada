package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/sketchmakerhq/creditd/internal/credits"
)

// BalanceHandler exposes the read-only balance view.
type BalanceHandler struct {
	credits *credits.Service
}

// NewBalanceHandler constructs a BalanceHandler.
func NewBalanceHandler(creditsSvc *credits.Service) *BalanceHandler {
	return &BalanceHandler{credits: creditsSvc}
}

// Get returns remaining credits, cycle consumption and the next reset time.
func (h *BalanceHandler) Get(c *gin.Context) {
	accountID, errParse := strconv.ParseUint(strings.TrimSpace(c.Param("account_id")), 10, 64)
	if errParse != nil || accountID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid account id"})
		return
	}

	info, errBalance := h.credits.Balance(c.Request.Context(), accountID)
	if errBalance != nil {
		if errors.Is(errBalance, credits.ErrNoActiveSubscription) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no active subscription"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, info)
}
