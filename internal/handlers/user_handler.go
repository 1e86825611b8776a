package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"taskhive/internal/models"
	"taskhive/internal/services"
)

type UserHandler struct {
	users services.UserService
}

func NewUserHandler(users services.UserService) *UserHandler {
	return &UserHandler{users: users}
}

type updateProfileRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

type linkTelegramRequest struct {
	ChatID int64 `json:"chatId" binding:"required"`
}

// @Summary      My profile
// @Tags         Users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  models.User
// @Router       /users/me [get]
func (h *UserHandler) Me(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	user, err := h.users.GetProfile(c.Request.Context(), actor.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// @Summary      Update my profile
// @Tags         Users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        profile  body      updateProfileRequest  true  "Fields to change"
// @Success      200      {object}  models.User
// @Router       /users/me [put]
func (h *UserHandler) UpdateMe(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	user, err := h.users.UpdateProfile(c.Request.Context(), actor.ID, req.Name, req.Phone)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// @Summary      Public tasker profile
// @Description  Profile with the cached rating aggregate
// @Tags         Users
// @Produce      json
// @Param        id   path      string  true  "User id"
// @Success      200  {object}  models.User
// @Failure      404  {object}  map[string]string
// @Router       /profiles/{id} [get]
func (h *UserHandler) Get(c *gin.Context) {
	id, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	user, err := h.users.GetProfile(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	// public view, strip contact details
	user.Phone = ""
	user.Email = ""
	c.JSON(http.StatusOK, user)
}

// @Summary      List users
// @Description  Admin only
// @Tags         Users
// @Produce      json
// @Security     BearerAuth
// @Param        role    query     string  false  "Filter by role"
// @Param        limit   query     int     false  "Page size, max 100"
// @Param        offset  query     int     false  "Offset"
// @Success      200     {array}   models.User
// @Router       /admin/users [get]
func (h *UserHandler) List(c *gin.Context) {
	var role *models.Role
	if v := c.Query("role"); v != "" {
		r := models.Role(v)
		role = &r
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	users, err := h.users.List(c.Request.Context(), role, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

// @Summary      Link telegram notifications
// @Tags         Users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        link  body  linkTelegramRequest  true  "Chat binding"
// @Success      204   "No Content"
// @Router       /users/me/telegram [post]
func (h *UserHandler) LinkTelegram(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	var req linkTelegramRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.users.LinkTelegram(c.Request.Context(), actor.ID, req.ChatID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// @Summary      Unlink telegram notifications
// @Tags         Users
// @Produce      json
// @Security     BearerAuth
// @Success      204  "No Content"
// @Router       /users/me/telegram [delete]
func (h *UserHandler) UnlinkTelegram(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	if err := h.users.UnlinkTelegram(c.Request.Context(), actor.ID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
