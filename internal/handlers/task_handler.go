package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"taskhive/internal/models"
	"taskhive/internal/services"
)

type TaskHandler struct {
	tasks services.TaskService
}

func NewTaskHandler(tasks services.TaskService) *TaskHandler {
	return &TaskHandler{tasks: tasks}
}

type createTaskRequest struct {
	Title         string     `json:"title" binding:"required"`
	Description   string     `json:"description"`
	CategoryID    string     `json:"categoryId" binding:"required"`
	SubcategoryID string     `json:"subcategoryId"`
	Address       string     `json:"address"`
	Latitude      *float64   `json:"latitude"`
	Longitude     *float64   `json:"longitude"`
	RequiredAt    *time.Time `json:"requiredAt"`
	Duration      string     `json:"duration"`
	IsUrgent      bool       `json:"isUrgent"`
	Images        []string   `json:"images"`
	Budget        float64    `json:"budget" binding:"required"`
}

type updateTaskRequest struct {
	Title         *string    `json:"title"`
	Description   *string    `json:"description"`
	CategoryID    *string    `json:"categoryId"`
	SubcategoryID *string    `json:"subcategoryId"`
	Address       *string    `json:"address"`
	Latitude      *float64   `json:"latitude"`
	Longitude     *float64   `json:"longitude"`
	RequiredAt    *time.Time `json:"requiredAt"`
	Duration      *string    `json:"duration"`
	IsUrgent      *bool      `json:"isUrgent"`
	Images        []string   `json:"images"`
	Budget        *float64   `json:"budget"`
}

// @Summary      Post a task
// @Description  Creates an open task with a fee snapshot from the current policy
// @Tags         Tasks
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        task  body      createTaskRequest  true  "Task details"
// @Success      201   {object}  models.Task
// @Failure      400   {object}  map[string]string
// @Router       /tasks [post]
func (h *TaskHandler) Create(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	var req createTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	categoryID, err := primitive.ObjectIDFromHex(req.CategoryID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid categoryId"})
		return
	}
	input := services.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		CategoryID:  categoryID,
		Address:     req.Address,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		RequiredAt:  req.RequiredAt,
		Duration:    req.Duration,
		IsUrgent:    req.IsUrgent,
		Images:      req.Images,
		Budget:      req.Budget,
	}
	if req.SubcategoryID != "" {
		subID, err := primitive.ObjectIDFromHex(req.SubcategoryID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid subcategoryId"})
			return
		}
		input.SubcategoryID = &subID
	}

	task, err := h.tasks.Create(c.Request.Context(), actor, input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, task)
}

// @Summary      Browse tasks
// @Description  Lists tasks filtered by keyword, category, status, budget and distance; taskers see their own bid on each task
// @Tags         Tasks
// @Produce      json
// @Security     BearerAuth
// @Param        keyword     query     string   false  "Search in title, description and address"
// @Param        categoryId  query     string   false  "Category"
// @Param        status      query     string   false  "Task status"
// @Param        urgent      query     bool     false  "Urgent only"
// @Param        minBudget   query     number   false  "Minimum budget"
// @Param        maxBudget   query     number   false  "Maximum budget"
// @Param        lat         query     number   false  "Latitude for distance filtering"
// @Param        lng         query     number   false  "Longitude for distance filtering"
// @Param        distanceKm  query     number   false  "Radius in kilometers"
// @Param        page        query     int      false  "Page, fixed page size of 10"
// @Success      200         {array}   models.TaskWithBid
// @Router       /tasks [get]
func (h *TaskHandler) List(c *gin.Context) {
	filter, ok := parseTaskFilter(c)
	if !ok {
		return
	}
	actor, authed := actorFrom(c)

	var items []models.TaskWithBid
	var err error
	if authed {
		items, err = h.tasks.List(c.Request.Context(), &actor, filter)
	} else {
		items, err = h.tasks.List(c.Request.Context(), nil, filter)
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// @Summary      Task details
// @Tags         Tasks
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Task id"
// @Success      200  {object}  models.Task
// @Failure      404  {object}  map[string]string
// @Router       /tasks/{id} [get]
func (h *TaskHandler) Get(c *gin.Context) {
	id, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	task, err := h.tasks.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// @Summary      Edit a task
// @Description  Edits an open task; a budget change recomputes the fee snapshot
// @Tags         Tasks
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string             true  "Task id"
// @Param        task  body      updateTaskRequest  true  "Fields to change"
// @Success      200   {object}  models.Task
// @Failure      400   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Router       /tasks/{id} [put]
func (h *TaskHandler) Update(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	id, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	var req updateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	input := services.UpdateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Address:     req.Address,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		RequiredAt:  req.RequiredAt,
		Duration:    req.Duration,
		IsUrgent:    req.IsUrgent,
		Images:      req.Images,
		Budget:      req.Budget,
	}
	if req.CategoryID != nil {
		categoryID, err := primitive.ObjectIDFromHex(*req.CategoryID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid categoryId"})
			return
		}
		input.CategoryID = &categoryID
	}
	if req.SubcategoryID != nil {
		subID, err := primitive.ObjectIDFromHex(*req.SubcategoryID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid subcategoryId"})
			return
		}
		input.SubcategoryID = &subID
	}

	task, err := h.tasks.Update(c.Request.Context(), actor, id, input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// @Summary      Delete a task
// @Tags         Tasks
// @Produce      json
// @Security     BearerAuth
// @Param        id  path  string  true  "Task id"
// @Success      204 "No Content"
// @Failure      403 {object} map[string]string
// @Router       /tasks/{id} [delete]
func (h *TaskHandler) Delete(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	id, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.tasks.Delete(c.Request.Context(), actor, id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type assignRequest struct {
	TaskerID string `json:"taskerId" binding:"required"`
}

// @Summary      Assign a tasker directly
// @Tags         Tasks
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id      path      string         true  "Task id"
// @Param        assign  body      assignRequest  true  "Tasker to assign"
// @Success      200     {object}  models.Task
// @Failure      400     {object}  map[string]string
// @Router       /tasks/{id}/assign [put]
func (h *TaskHandler) Assign(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	id, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	var req assignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	taskerID, err := primitive.ObjectIDFromHex(req.TaskerID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid taskerId"})
		return
	}

	task, err := h.tasks.Assign(c.Request.Context(), actor, id, taskerID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// @Summary      Start work
// @Description  Moves an assigned task to in progress; assigned tasker only
// @Tags         Tasks
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Task id"
// @Success      200  {object}  models.Task
// @Failure      400  {object}  map[string]string
// @Router       /tasks/{id}/start [put]
func (h *TaskHandler) Start(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	id, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	task, err := h.tasks.Start(c.Request.Context(), actor, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

type completionNoteRequest struct {
	Note string `json:"note"`
}

// @Summary      Request completion
// @Description  Assigned tasker marks the work done and waits for the customer's confirmation
// @Tags         Tasks
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string                 true   "Task id"
// @Param        note  body      completionNoteRequest  false  "Optional note"
// @Success      200   {object}  models.Task
// @Failure      400   {object}  map[string]string
// @Router       /tasks/{id}/request-completion [put]
func (h *TaskHandler) RequestCompletion(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	id, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	var req completionNoteRequest
	_ = c.ShouldBindJSON(&req)

	task, err := h.tasks.RequestCompletion(c.Request.Context(), actor, id, req.Note)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

type feedbackRequest struct {
	Feedback string `json:"feedback"`
}

// @Summary      Confirm completion
// @Description  Customer confirms the requested completion; the task becomes completed
// @Tags         Tasks
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id        path      string           true   "Task id"
// @Param        feedback  body      feedbackRequest  false  "Optional feedback"
// @Success      200       {object}  models.Task
// @Failure      400       {object}  map[string]string
// @Router       /tasks/{id}/confirm-completion [put]
func (h *TaskHandler) ConfirmCompletion(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	id, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	var req feedbackRequest
	_ = c.ShouldBindJSON(&req)

	task, err := h.tasks.ConfirmCompletion(c.Request.Context(), actor, id, req.Feedback)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

type rejectCompletionRequest struct {
	Reason string `json:"reason"`
}

// @Summary      Reject completion
// @Description  Customer sends the task back to in progress
// @Tags         Tasks
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id      path      string                   true   "Task id"
// @Param        reason  body      rejectCompletionRequest  false  "Optional reason"
// @Success      200     {object}  models.Task
// @Failure      400     {object}  map[string]string
// @Router       /tasks/{id}/reject-completion [put]
func (h *TaskHandler) RejectCompletion(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	id, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	var req rejectCompletionRequest
	_ = c.ShouldBindJSON(&req)

	task, err := h.tasks.RejectCompletion(c.Request.Context(), actor, id, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// @Summary      Cancel a task
// @Tags         Tasks
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Task id"
// @Success      200  {object}  models.Task
// @Failure      400  {object}  map[string]string
// @Router       /tasks/{id}/cancel [put]
func (h *TaskHandler) Cancel(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	id, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	task, err := h.tasks.Cancel(c.Request.Context(), actor, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

type changeStatusRequest struct {
	Status string `json:"status" binding:"required"`
	Note   string `json:"note"`
	Reason string `json:"reason"`
}

// @Summary      Change task status
// @Description  Generic transition endpoint; the target status selects the operation and its guards apply
// @Tags         Tasks
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id      path      string               true  "Task id"
// @Param        change  body      changeStatusRequest  true  "Target status"
// @Success      200     {object}  models.Task
// @Failure      400     {object}  map[string]string
// @Router       /tasks/{id}/status [put]
func (h *TaskHandler) ChangeStatus(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	id, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	var req changeStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var task *models.Task
	var err error
	switch models.TaskStatus(req.Status) {
	case models.StatusInProgress:
		// a customer moving a task back to inProgress is rejecting the
		// completion request, a tasker is starting work
		if actor.IsCustomer() {
			task, err = h.tasks.RejectCompletion(c.Request.Context(), actor, id, req.Reason)
		} else {
			task, err = h.tasks.Start(c.Request.Context(), actor, id)
		}
	case models.StatusCompletionRequested:
		task, err = h.tasks.RequestCompletion(c.Request.Context(), actor, id, req.Note)
	case models.StatusCompleted:
		task, err = h.tasks.ConfirmCompletion(c.Request.Context(), actor, id, req.Note)
	case models.StatusCancelled:
		task, err = h.tasks.Cancel(c.Request.Context(), actor, id)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported target status " + req.Status})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func parseTaskFilter(c *gin.Context) (models.TaskFilter, bool) {
	var filter models.TaskFilter

	if v := c.Query("keyword"); v != "" {
		filter.Keyword = &v
	}
	if v := c.Query("address"); v != "" {
		filter.Address = &v
	}
	if v := c.Query("categoryId"); v != "" {
		id, err := primitive.ObjectIDFromHex(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid categoryId"})
			return filter, false
		}
		filter.CategoryID = &id
	}
	if v := c.Query("subcategoryId"); v != "" {
		id, err := primitive.ObjectIDFromHex(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid subcategoryId"})
			return filter, false
		}
		filter.SubcategoryID = &id
	}
	if v := c.Query("status"); v != "" {
		status := models.TaskStatus(v)
		filter.Status = &status
	}
	if v := c.Query("urgent"); v != "" {
		urgent := v == "true" || v == "1"
		filter.IsUrgent = &urgent
	}
	if f, ok := floatQuery(c, "minBudget"); ok {
		filter.MinBudget = f
	} else {
		return filter, false
	}
	if f, ok := floatQuery(c, "maxBudget"); ok {
		filter.MaxBudget = f
	} else {
		return filter, false
	}
	if f, ok := floatQuery(c, "lat"); ok {
		filter.Latitude = f
	} else {
		return filter, false
	}
	if f, ok := floatQuery(c, "lng"); ok {
		filter.Longitude = f
	} else {
		return filter, false
	}
	if f, ok := floatQuery(c, "distanceKm"); ok {
		filter.DistanceKm = f
	} else {
		return filter, false
	}
	if v := c.Query("page"); v != "" {
		page, err := strconv.Atoi(v)
		if err != nil || page < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid page"})
			return filter, false
		}
		filter.Page = page
	}
	return filter, true
}

// floatQuery returns (nil, true) when the parameter is absent and
// (nil, false) after writing a 400 when it is present but malformed.
func floatQuery(c *gin.Context, name string) (*float64, bool) {
	v := c.Query(name)
	if v == "" {
		return nil, true
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return nil, false
	}
	return &f, true
}
