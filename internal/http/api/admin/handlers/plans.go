package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/sketchmakerhq/creditd/internal/plans"
	"github.com/sketchmakerhq/creditd/internal/security"
)

// PlansHandler manages plans and plan assignment.
type PlansHandler struct {
	plans *plans.Service
}

// NewPlansHandler constructs a PlansHandler.
func NewPlansHandler(plansSvc *plans.Service) *PlansHandler {
	return &PlansHandler{plans: plansSvc}
}

// List returns the plan catalog.
func (h *PlansHandler) List(c *gin.Context) {
	rows, errList := h.plans.List(c.Request.Context())
	if errList != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"plans": rows})
}

// assignRequest defines the request body for plan assignment.
type assignRequest struct {
	AccountID uint64 `json:"account_id"`
	PlanID    uint64 `json:"plan_id"`
	Notes     string `json:"notes"`
}

// Assign gives an account a plan, superseding any existing balance.
func (h *PlansHandler) Assign(c *gin.Context) {
	var body assignRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if body.AccountID == 0 || body.PlanID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "account_id and plan_id are required"})
		return
	}

	var assignedBy *uint64
	if claims, ok := c.Get("adminClaims"); ok {
		if adminClaims, okCast := claims.(*security.AdminClaims); okCast {
			id := adminClaims.AdminID
			assignedBy = &id
		}
	}

	balance, errAssign := h.plans.Assign(c.Request.Context(), body.AccountID, body.PlanID, assignedBy, strings.TrimSpace(body.Notes))
	if errAssign != nil {
		if errors.Is(errAssign, plans.ErrPlanNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "plan not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "plan assignment failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"balance": balance})
}
