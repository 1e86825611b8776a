package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// BidStatus defines the possible states for a bid.
type BidStatus string

const (
	BidPending    BidStatus = "pending"
	BidAccepted   BidStatus = "accepted"
	BidRejected   BidStatus = "rejected"
	BidInProgress BidStatus = "in-progress"
	BidCompleted  BidStatus = "completed"
	BidCancelled  BidStatus = "cancelled"
)

// IsTerminal reports whether a bid can no longer change state.
func (s BidStatus) IsTerminal() bool {
	switch s {
	case BidAccepted, BidRejected, BidCancelled, BidCompleted:
		return true
	}
	return false
}

// TaskerSummary is the populated tasker view attached to a bid. Email is
// redacted for readers that do not own the parent task.
type TaskerSummary struct {
	ID             primitive.ObjectID `json:"id"`
	Name           string             `json:"name"`
	Email          string             `json:"email,omitempty"`
	AverageRating  float64            `json:"averageRating"`
	TotalReviews   int                `json:"totalReviews"`
	CompletedTasks int                `json:"completedTasks"`
}

// Bid is a tasker's offer to perform an open task.
type Bid struct {
	ID       primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	TaskID   primitive.ObjectID `json:"taskId" bson:"taskId"`
	TaskerID primitive.ObjectID `json:"taskerId" bson:"taskerId"`

	Amount            float64   `json:"amount" bson:"amount"`
	Message           string    `json:"message" bson:"message"`
	EstimatedDuration string    `json:"estimatedDuration,omitempty" bson:"estimatedDuration,omitempty"`
	Status            BidStatus `json:"status" bson:"status"`
	RejectionReason   string    `json:"rejectionReason,omitempty" bson:"rejectionReason,omitempty"`

	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`

	Tasker *TaskerSummary `json:"tasker,omitempty" bson:"-"`
}

// BidFilter defines the available parameters for listing a tasker's bids.
type BidFilter struct {
	TaskerID primitive.ObjectID
	Statuses []BidStatus
	// TaskStatus filters on the parent task status; with TaskStatusNegated
	// the filter matches tasks NOT in that status.
	TaskStatus        *TaskStatus
	TaskStatusNegated bool
}
