package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"taskhive/internal/apperrors"
	"taskhive/internal/models"
	"taskhive/internal/services"
)

type ReportHandler struct {
	reports services.ReportService
	tasks   services.TaskService
	users   services.UserService
}

func NewReportHandler(reports services.ReportService, tasks services.TaskService, users services.UserService) *ReportHandler {
	return &ReportHandler{reports: reports, tasks: tasks, users: users}
}

// @Summary      Platform summary
// @Description  Admin only; task counts by status and fee totals over completed tasks
// @Tags         Reports
// @Produce      json
// @Security     BearerAuth
// @Param        from  query     string  false  "RFC3339 window start"
// @Param        to    query     string  false  "RFC3339 window end"
// @Success      200   {object}  models.PlatformReport
// @Router       /admin/reports/summary [get]
func (h *ReportHandler) Summary(c *gin.Context) {
	var from, to time.Time
	if v := c.Query("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid from, expected RFC3339"})
			return
		}
		from = t
	}
	if v := c.Query("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid to, expected RFC3339"})
			return
		}
		to = t
	}

	report, err := h.reports.PlatformSummary(c.Request.Context(), from, to)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// @Summary      Task receipt PDF
// @Description  Payment breakdown of a completed task; owner, assigned tasker and admins only
// @Tags         Reports
// @Produce      application/pdf
// @Security     BearerAuth
// @Param        id  path  string  true  "Task id"
// @Success      200 {file} binary
// @Failure      400 {object} map[string]string
// @Failure      403 {object} map[string]string
// @Router       /tasks/{id}/receipt [get]
func (h *ReportHandler) TaskReceipt(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	id, ok := objectIDParam(c, "id")
	if !ok {
		return
	}

	task, err := h.tasks.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	isParty := task.CustomerID == actor.ID ||
		(task.AssignedTo != nil && *task.AssignedTo == actor.ID)
	if !isParty && !actor.IsAdmin() {
		respondError(c, apperrors.Forbidden("not allowed to view this receipt"))
		return
	}
	if task.Status != models.StatusCompleted {
		respondError(c, apperrors.InvalidState("receipts are only issued for completed tasks, task is %q", task.Status))
		return
	}

	customer, _ := h.users.GetProfile(c.Request.Context(), task.CustomerID)
	var tasker *models.User
	if task.AssignedTo != nil {
		tasker, _ = h.users.GetProfile(c.Request.Context(), *task.AssignedTo)
	}

	data, err := h.reports.TaskReceipt(c.Request.Context(), task, customer, tasker)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=receipt_%s.pdf", task.ID.Hex()))
	c.Data(http.StatusOK, "application/pdf", data)
}
