package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TaskStatus defines the possible lifecycle states for a task.
type TaskStatus string

const (
	StatusOpen                TaskStatus = "open"
	StatusAssigned            TaskStatus = "assigned"
	StatusInProgress          TaskStatus = "inProgress"
	StatusCompletionRequested TaskStatus = "completionRequested"
	StatusCompleted           TaskStatus = "completed"
	StatusCancelled           TaskStatus = "cancelled"
)

// GeoPoint is a GeoJSON point, coordinates are [longitude, latitude].
type GeoPoint struct {
	Type        string    `json:"type" bson:"type"`
	Coordinates []float64 `json:"coordinates" bson:"coordinates"`
}

// FeeSnapshot holds the monetary fields derived from the budget and the fee
// policy that was current when the snapshot was taken. Persisted on the task,
// never recomputed retroactively.
type FeeSnapshot struct {
	PlatformFee               float64 `json:"platformFee" bson:"platformFee"`
	CommissionAmount          float64 `json:"commissionAmount" bson:"commissionAmount"`
	TrustAndSupportFee        float64 `json:"trustAndSupportFee" bson:"trustAndSupportFee"`
	FinalTaskerPayout         float64 `json:"finalTaskerPayout" bson:"finalTaskerPayout"`
	TotalAmountPaidByCustomer float64 `json:"totalAmountPaidByCustomer" bson:"totalAmountPaidByCustomer"`
}

// Task represents a unit of work posted by a customer.
type Task struct {
	ID         primitive.ObjectID  `json:"id" bson:"_id,omitempty"`
	CustomerID primitive.ObjectID  `json:"customerId" bson:"customerId"`
	AssignedTo *primitive.ObjectID `json:"assignedTo,omitempty" bson:"assignedTo,omitempty"`

	Title         string              `json:"title" bson:"title"`
	Description   string              `json:"description" bson:"description"`
	CategoryID    primitive.ObjectID  `json:"categoryId" bson:"categoryId"`
	SubcategoryID *primitive.ObjectID `json:"subcategoryId,omitempty" bson:"subcategoryId,omitempty"`
	Address       string              `json:"address" bson:"address"`
	Location      *GeoPoint           `json:"location,omitempty" bson:"location,omitempty"`
	RequiredAt    *time.Time          `json:"requiredAt,omitempty" bson:"requiredAt,omitempty"`
	Duration      string              `json:"duration,omitempty" bson:"duration,omitempty"`
	IsUrgent      bool                `json:"isUrgent" bson:"isUrgent"`
	Images        []string            `json:"images,omitempty" bson:"images,omitempty"`

	Budget float64     `json:"budget" bson:"budget"`
	Fees   FeeSnapshot `json:"fees" bson:"fees"`

	Status TaskStatus `json:"status" bson:"status"`

	StartedAt             *time.Time          `json:"startedAt,omitempty" bson:"startedAt,omitempty"`
	CompletionRequestedAt *time.Time          `json:"completionRequestedAt,omitempty" bson:"completionRequestedAt,omitempty"`
	CompletionRequestedBy *primitive.ObjectID `json:"completionRequestedBy,omitempty" bson:"completionRequestedBy,omitempty"`
	CompletionNote        string              `json:"completionNote,omitempty" bson:"completionNote,omitempty"`
	CompletedAt           *time.Time          `json:"completedAt,omitempty" bson:"completedAt,omitempty"`
	CustomerFeedback      string              `json:"customerFeedback,omitempty" bson:"customerFeedback,omitempty"`
	TaskerFeedback        string              `json:"taskerFeedback,omitempty" bson:"taskerFeedback,omitempty"`

	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// TaskWithBid decorates a task with the requesting tasker's own bid, if any.
type TaskWithBid struct {
	Task   `bson:",inline"`
	HasBid bool `json:"hasBid"`
	MyBid  *Bid `json:"myBid,omitempty"`
}

// TaskFilter defines the available parameters for listing tasks.
type TaskFilter struct {
	Keyword       *string
	CategoryID    *primitive.ObjectID
	SubcategoryID *primitive.ObjectID
	Status        *TaskStatus
	IsUrgent      *bool
	MinBudget     *float64
	MaxBudget     *float64
	Address       *string
	Latitude      *float64
	Longitude     *float64
	DistanceKm    *float64
	CustomerID    *primitive.ObjectID
	AssignedTo    *primitive.ObjectID
	Page          int
}
