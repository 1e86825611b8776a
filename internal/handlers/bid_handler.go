package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"taskhive/internal/models"
	"taskhive/internal/services"
)

type BidHandler struct {
	bids services.BidService
}

func NewBidHandler(bids services.BidService) *BidHandler {
	return &BidHandler{bids: bids}
}

type placeBidRequest struct {
	Amount            float64 `json:"amount" binding:"gte=0"`
	Message           string  `json:"message"`
	EstimatedDuration string  `json:"estimatedDuration"`
}

type updateBidRequest struct {
	Amount            *float64 `json:"amount"`
	Message           *string  `json:"message"`
	EstimatedDuration *string  `json:"estimatedDuration"`
}

type rejectBidRequest struct {
	Reason string `json:"reason"`
}

// @Summary      Place a bid
// @Description  Taskers offer a price on an open task; one active bid per tasker per task
// @Tags         Bids
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string           true  "Task id"
// @Param        bid  body      placeBidRequest  true  "Bid details"
// @Success      201  {object}  models.Bid
// @Failure      400  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Router       /tasks/{id}/bids [post]
func (h *BidHandler) Place(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	taskID, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	var req placeBidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	bid, err := h.bids.Place(c.Request.Context(), actor, services.PlaceBidInput{
		TaskID:            taskID,
		Amount:            req.Amount,
		Message:           req.Message,
		EstimatedDuration: req.EstimatedDuration,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, bid)
}

// @Summary      Bids on a task
// @Description  Lists a task's bids with bidder summaries; contact details only for the owner and admins
// @Tags         Bids
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Task id"
// @Success      200  {array}   models.Bid
// @Failure      403  {object}  map[string]string
// @Router       /tasks/{id}/bids [get]
func (h *BidHandler) ListForTask(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	taskID, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	bids, err := h.bids.ListForTask(c.Request.Context(), actor, taskID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, bids)
}

// @Summary      My bids
// @Description  Lists the caller's bids, optionally filtered by bid status or the parent task's status
// @Tags         Bids
// @Produce      json
// @Security     BearerAuth
// @Param        status      query     string  false  "Comma-separated bid statuses"
// @Param        taskStatus  query     string  false  "Parent task status, prefix with ! to negate"
// @Success      200         {array}   models.Bid
// @Router       /bids/my [get]
func (h *BidHandler) MyBids(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}

	filter := models.BidFilter{TaskerID: actor.ID}
	if v := c.Query("status"); v != "" {
		for _, s := range strings.Split(v, ",") {
			filter.Statuses = append(filter.Statuses, models.BidStatus(strings.TrimSpace(s)))
		}
	}
	if v := c.Query("taskStatus"); v != "" {
		if strings.HasPrefix(v, "!") {
			filter.TaskStatusNegated = true
			v = v[1:]
		}
		status := models.TaskStatus(v)
		filter.TaskStatus = &status
	}

	bids, err := h.bids.ListForTasker(c.Request.Context(), actor, filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, bids)
}

// @Summary      Edit a bid
// @Description  Pending bids only
// @Tags         Bids
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string            true  "Bid id"
// @Param        bid  body      updateBidRequest  true  "Fields to change"
// @Success      200  {object}  models.Bid
// @Failure      400  {object}  map[string]string
// @Router       /bids/{id} [put]
func (h *BidHandler) Update(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	id, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	var req updateBidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	bid, err := h.bids.Update(c.Request.Context(), actor, id, services.UpdateBidInput{
		Amount:            req.Amount,
		Message:           req.Message,
		EstimatedDuration: req.EstimatedDuration,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, bid)
}

// @Summary      Withdraw a bid
// @Tags         Bids
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Bid id"
// @Success      200  {object}  models.Bid
// @Failure      400  {object}  map[string]string
// @Router       /bids/{id}/cancel [put]
func (h *BidHandler) Cancel(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	id, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	bid, err := h.bids.Cancel(c.Request.Context(), actor, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, bid)
}

// @Summary      Delete a bid
// @Tags         Bids
// @Produce      json
// @Security     BearerAuth
// @Param        id  path  string  true  "Bid id"
// @Success      204 "No Content"
// @Router       /bids/{id} [delete]
func (h *BidHandler) Delete(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	id, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.bids.Delete(c.Request.Context(), actor, id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// @Summary      Accept a bid
// @Description  Assigns the task to the bidder and rejects all other active bids
// @Tags         Bids
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Bid id"
// @Success      200  {object}  models.Bid
// @Failure      400  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Router       /bids/{id}/accept [put]
func (h *BidHandler) Accept(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	id, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	bid, err := h.bids.Accept(c.Request.Context(), actor, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, bid)
}

// @Summary      Reject a bid
// @Tags         Bids
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id      path      string            true   "Bid id"
// @Param        reason  body      rejectBidRequest  false  "Optional reason"
// @Success      200     {object}  models.Bid
// @Failure      400     {object}  map[string]string
// @Router       /bids/{id}/reject [put]
func (h *BidHandler) Reject(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	id, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	var req rejectBidRequest
	_ = c.ShouldBindJSON(&req)

	bid, err := h.bids.Reject(c.Request.Context(), actor, id, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, bid)
}
