package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"taskhive/internal/logging"
	"taskhive/internal/models"
	"taskhive/internal/services"
)

type AuthHandler struct {
	users services.UserService
}

func NewAuthHandler(users services.UserService) *AuthHandler {
	return &AuthHandler{users: users}
}

type registerRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	Role     string `json:"role" binding:"required"`
	Phone    string `json:"phone"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// @Summary      Register a new account
// @Description  Creates a customer or tasker account and sends a welcome email
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        account  body      registerRequest  true  "Account details"
// @Success      201      {object}  models.User
// @Failure      400      {object}  map[string]string
// @Failure      409      {object}  map[string]string
// @Router       /register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.users.Register(c.Request.Context(), services.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     models.Role(req.Role),
		Phone:    req.Phone,
	})
	if err != nil {
		logging.Logger.Warnf("[auth][register][err] email=%q: %v", req.Email, err)
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

// @Summary      Log in
// @Description  Authenticates by email and password, returns an access and refresh token pair
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        login  body      models.LoginRequest  true  "Credentials"
// @Success      200    {object}  services.TokenPair
// @Failure      401    {object}  map[string]string
// @Router       /login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	pair, err := h.users.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		logging.Logger.Infof("[auth][login][err] email=%q: %v", req.Email, err)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid email or password"})
		return
	}
	logging.Logger.Infof("[auth][login][ok] user=%s", pair.User.ID.Hex())
	c.JSON(http.StatusOK, pair)
}

// @Summary      Refresh tokens
// @Description  Exchanges a refresh token for a new token pair; the old token is invalidated
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        refresh  body      refreshRequest  true  "Refresh token"
// @Success      200      {object}  services.TokenPair
// @Failure      403      {object}  map[string]string
// @Router       /refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	pair, err := h.users.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, pair)
}

// @Summary      Log out
// @Description  Revokes the caller's refresh token
// @Tags         Auth
// @Produce      json
// @Security     BearerAuth
// @Success      204  "No Content"
// @Router       /logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	if err := h.users.Logout(c.Request.Context(), actor.ID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
