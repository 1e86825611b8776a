package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NotificationType is a closed enum of lifecycle events that produce
// notifications.
type NotificationType string

const (
	NotifyNewBid              NotificationType = "new_bid"
	NotifyBidAccepted         NotificationType = "bid_accepted"
	NotifyBidRejected         NotificationType = "bid_rejected"
	NotifyTaskAssigned        NotificationType = "task_assigned"
	NotifyTaskStarted         NotificationType = "task_started"
	NotifyCompletionRequested NotificationType = "completion_requested"
	NotifyCompletionRejected  NotificationType = "completion_rejected"
	NotifyTaskCompleted       NotificationType = "task_completed"
	NotifyTaskCancelled       NotificationType = "task_cancelled"
	NotifyNewReview           NotificationType = "new_review"
)

// Notification is created as a side effect of a lifecycle transition and is
// never mutated except for the read flag.
type Notification struct {
	ID          primitive.ObjectID  `json:"id" bson:"_id,omitempty"`
	RecipientID primitive.ObjectID  `json:"recipientId" bson:"recipientId"`
	SenderID    *primitive.ObjectID `json:"senderId,omitempty" bson:"senderId,omitempty"`
	Type        NotificationType    `json:"type" bson:"type"`
	Title       string              `json:"title" bson:"title"`
	Message     string              `json:"message" bson:"message"`
	TaskID      *primitive.ObjectID `json:"taskId,omitempty" bson:"taskId,omitempty"`
	BidID       *primitive.ObjectID `json:"bidId,omitempty" bson:"bidId,omitempty"`
	Data        map[string]any      `json:"data,omitempty" bson:"data,omitempty"`
	IsRead      bool                `json:"isRead" bson:"isRead"`
	CreatedAt   time.Time           `json:"createdAt" bson:"createdAt"`
}
