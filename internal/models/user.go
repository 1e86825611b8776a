package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role defines the actor roles known to the platform.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleTasker   Role = "tasker"
	RoleAdmin    Role = "admin"
)

// Address is a saved user address.
type Address struct {
	ID       primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Label    string             `json:"label" bson:"label"`
	Line     string             `json:"line" bson:"line"`
	City     string             `json:"city" bson:"city"`
	Location *GeoPoint          `json:"location,omitempty" bson:"location,omitempty"`
}

type User struct {
	ID           primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name         string             `json:"name" bson:"name"`
	Email        string             `json:"email" bson:"email"`
	PasswordHash string             `json:"-" bson:"passwordHash"`
	Role         Role               `json:"role" bson:"role"`
	Phone        string             `json:"phone,omitempty" bson:"phone,omitempty"`
	Addresses    []Address          `json:"addresses,omitempty" bson:"addresses,omitempty"`

	// Rating cache, recomputed from the review set (see review service).
	AverageRating  float64 `json:"averageRating" bson:"averageRating"`
	TotalReviews   int     `json:"totalReviews" bson:"totalReviews"`
	CompletedTasks int     `json:"completedTasks" bson:"completedTasks"`

	// Telegram push binding; cleared when delivery reports a dead chat.
	TelegramChatID int64 `json:"-" bson:"telegramChatId,omitempty"`
	AllowTelegram  bool  `json:"-" bson:"allowTelegram,omitempty"`

	RefreshToken     *string    `json:"-" bson:"refreshToken,omitempty"`
	RefreshExpiresAt *time.Time `json:"-" bson:"refreshExpiresAt,omitempty"`

	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
