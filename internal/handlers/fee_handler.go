package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"taskhive/internal/services"
)

type FeeHandler struct {
	fees services.FeeService
}

func NewFeeHandler(fees services.FeeService) *FeeHandler {
	return &FeeHandler{fees: fees}
}

type updateFeePolicyRequest struct {
	PlatformFeePct     float64 `json:"platformFeePct"`
	CommissionPct      float64 `json:"commissionPct"`
	TrustAndSupportFee float64 `json:"trustAndSupportFee"`
}

// @Summary      Current fee policy
// @Description  Admin only
// @Tags         Fees
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  models.FeeSettings
// @Router       /admin/fees [get]
func (h *FeeHandler) Current(c *gin.Context) {
	policy, err := h.fees.CurrentPolicy(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, policy)
}

// @Summary      Update the fee policy
// @Description  Admin only; appends a new policy record, existing fee snapshots are untouched
// @Tags         Fees
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        policy  body      updateFeePolicyRequest  true  "New percentages"
// @Success      201     {object}  models.FeeSettings
// @Failure      400     {object}  map[string]string
// @Router       /admin/fees [put]
func (h *FeeHandler) Update(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	var req updateFeePolicyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	policy, err := h.fees.UpdatePolicy(c.Request.Context(), actor.ID,
		req.PlatformFeePct, req.CommissionPct, req.TrustAndSupportFee)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, policy)
}

// @Summary      Fee policy history
// @Description  Admin only, newest first
// @Tags         Fees
// @Produce      json
// @Security     BearerAuth
// @Param        limit  query     int  false  "Max records"
// @Success      200    {array}   models.FeeSettings
// @Router       /admin/fees/history [get]
func (h *FeeHandler) History(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	history, err := h.fees.History(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, history)
}

// @Summary      Fee quote
// @Description  Shows the fee breakdown a given budget would produce under the current policy
// @Tags         Fees
// @Produce      json
// @Param        budget  query     number  true  "Budget"
// @Success      200     {object}  models.FeeSnapshot
// @Failure      400     {object}  map[string]string
// @Router       /fees/quote [get]
func (h *FeeHandler) Quote(c *gin.Context) {
	budget, err := strconv.ParseFloat(c.Query("budget"), 64)
	if err != nil || budget <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "budget must be a positive number"})
		return
	}
	policy, err := h.fees.CurrentPolicy(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, services.ComputeFees(budget, policy))
}
