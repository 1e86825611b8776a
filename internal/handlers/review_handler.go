package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"taskhive/internal/services"
)

type ReviewHandler struct {
	reviews services.ReviewService
}

func NewReviewHandler(reviews services.ReviewService) *ReviewHandler {
	return &ReviewHandler{reviews: reviews}
}

type submitReviewRequest struct {
	TaskID   string `json:"taskId" binding:"required"`
	TaskerID string `json:"taskerId" binding:"required"`
	Rating   int    `json:"rating" binding:"required"`
	Comment  string `json:"comment"`
}

// @Summary      Review a completed task
// @Description  One review per task, by the customer who posted it
// @Tags         Reviews
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        review  body      submitReviewRequest  true  "Review"
// @Success      201     {object}  models.Review
// @Failure      400     {object}  map[string]string
// @Failure      409     {object}  map[string]string
// @Router       /reviews [post]
func (h *ReviewHandler) Submit(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	var req submitReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	taskID, err := primitive.ObjectIDFromHex(req.TaskID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid taskId"})
		return
	}
	taskerID, err := primitive.ObjectIDFromHex(req.TaskerID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid taskerId"})
		return
	}

	review, err := h.reviews.Submit(c.Request.Context(), actor, services.SubmitReviewInput{
		TaskID:   taskID,
		TaskerID: taskerID,
		Rating:   req.Rating,
		Comment:  req.Comment,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, review)
}

// @Summary      A tasker's reviews
// @Tags         Reviews
// @Produce      json
// @Param        id   path      string  true  "Tasker id"
// @Success      200  {array}   models.Review
// @Router       /taskers/{id}/reviews [get]
func (h *ReviewHandler) ListForTasker(c *gin.Context) {
	taskerID, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	reviews, err := h.reviews.ListForTasker(c.Request.Context(), taskerID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, reviews)
}

// @Summary      A tasker's rating stats
// @Description  Average, total and the 1 to 5 star distribution
// @Tags         Reviews
// @Produce      json
// @Param        id   path      string  true  "Tasker id"
// @Success      200  {object}  models.RatingStats
// @Router       /taskers/{id}/rating [get]
func (h *ReviewHandler) Stats(c *gin.Context) {
	taskerID, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	stats, err := h.reviews.StatsForTasker(c.Request.Context(), taskerID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
