package services

import (
	"context"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"taskhive/internal/apperrors"
	"taskhive/internal/logging"
	"taskhive/internal/middleware"
	"taskhive/internal/models"
	"taskhive/internal/repositories"
	"taskhive/internal/utils"
)

const (
	accessTokenTTL  = 15 * time.Minute
	refreshTokenTTL = 30 * 24 * time.Hour
)

// RegisterInput carries the signup fields.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Role     models.Role
	Phone    string
}

// TokenPair is what login and refresh hand back to the client.
type TokenPair struct {
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
	ExpiresAt    time.Time    `json:"expiresAt"`
	User         *models.User `json:"user"`
}

// UserService covers accounts: registration, login, refresh rotation,
// profiles and telegram push bindings.
type UserService interface {
	Register(ctx context.Context, input RegisterInput) (*models.User, error)
	Login(ctx context.Context, email, password string) (*TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, error)
	Logout(ctx context.Context, userID primitive.ObjectID) error
	GetProfile(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	UpdateProfile(ctx context.Context, id primitive.ObjectID, name, phone string) (*models.User, error)
	LinkTelegram(ctx context.Context, id primitive.ObjectID, chatID int64) error
	UnlinkTelegram(ctx context.Context, id primitive.ObjectID) error
	List(ctx context.Context, role *models.Role, limit, offset int) ([]models.User, error)
}

type userService struct {
	users     repositories.UserRepository
	email     EmailService
	jwtSecret []byte
}

func NewUserService(users repositories.UserRepository, email EmailService, jwtSecret string) UserService {
	return &userService{users: users, email: email, jwtSecret: []byte(jwtSecret)}
}

func (s *userService) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	if input.Email == "" || !strings.Contains(input.Email, "@") {
		return nil, apperrors.Validation("a valid email is required")
	}
	if len(input.Password) < 8 {
		return nil, apperrors.Validation("password must be at least 8 characters")
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, apperrors.Validation("name is required")
	}
	switch input.Role {
	case models.RoleCustomer, models.RoleTasker:
	default:
		return nil, apperrors.Validation("role must be %q or %q", models.RoleCustomer, models.RoleTasker)
	}

	existing, err := s.users.GetByEmail(ctx, input.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperrors.Conflict("email %s is already registered", input.Email)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Name:         input.Name,
		Email:        input.Email,
		PasswordHash: string(hash),
		Role:         input.Role,
		Phone:        input.Phone,
		CreatedAt:    time.Now(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	if s.email != nil {
		go func(to, name string) {
			if err := s.email.SendWelcomeEmail(to, name); err != nil {
				logging.Logger.Warnf("[user][register][warn] welcome email to=%s: %v", to, err)
			}
		}(user.Email, user.Name)
	}

	logging.Logger.Infof("[user][register][ok] id=%s role=%s", user.ID.Hex(), user.Role)
	return user, nil
}

func (s *userService) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperrors.Forbidden("invalid email or password")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, apperrors.Forbidden("invalid email or password")
	}
	return s.issueTokens(ctx, user)
}

// Refresh rotates the opaque refresh token: the presented token is consumed
// and a new pair is issued, so a stolen token is only good once.
func (s *userService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	if refreshToken == "" {
		return nil, apperrors.Validation("refresh token is required")
	}
	user, err := s.users.GetByRefreshToken(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	if user == nil || user.RefreshExpiresAt == nil || user.RefreshExpiresAt.Before(time.Now()) {
		return nil, apperrors.Forbidden("refresh token is invalid or expired")
	}
	return s.issueTokens(ctx, user)
}

func (s *userService) Logout(ctx context.Context, userID primitive.ObjectID) error {
	return s.users.UpdateRefresh(ctx, userID, "", time.Now())
}

func (s *userService) issueTokens(ctx context.Context, user *models.User) (*TokenPair, error) {
	now := time.Now()
	exp := now.Add(accessTokenTTL)
	claims := middleware.Claims{
		UserID: user.ID.Hex(),
		Role:   user.Role,
		Name:   user.Name,
		Email:  user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.Hex(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	access, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return nil, err
	}

	refresh, err := utils.NewRefreshToken(32)
	if err != nil {
		return nil, err
	}
	if err := s.users.UpdateRefresh(ctx, user.ID, refresh, now.Add(refreshTokenTTL)); err != nil {
		return nil, err
	}

	return &TokenPair{AccessToken: access, RefreshToken: refresh, ExpiresAt: exp, User: user}, nil
}

func (s *userService) GetProfile(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperrors.NotFound("user %s not found", id.Hex())
	}
	return user, nil
}

func (s *userService) UpdateProfile(ctx context.Context, id primitive.ObjectID, name, phone string) (*models.User, error) {
	user, err := s.GetProfile(ctx, id)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(name) != "" {
		user.Name = name
	}
	if phone != "" {
		user.Phone = phone
	}
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *userService) LinkTelegram(ctx context.Context, id primitive.ObjectID, chatID int64) error {
	if chatID == 0 {
		return apperrors.Validation("chat id is required")
	}
	return s.users.SetTelegramChat(ctx, id, chatID, true)
}

func (s *userService) UnlinkTelegram(ctx context.Context, id primitive.ObjectID) error {
	return s.users.ClearTelegramChat(ctx, id)
}

func (s *userService) List(ctx context.Context, role *models.Role, limit, offset int) ([]models.User, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.users.List(ctx, role, limit, offset)
}
