package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Review is a customer's post-completion rating of a tasker. Immutable once
// created.
type Review struct {
	ID         primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	TaskID     primitive.ObjectID `json:"taskId" bson:"taskId"`
	ReviewerID primitive.ObjectID `json:"reviewerId" bson:"reviewerId"`
	TaskerID   primitive.ObjectID `json:"taskerId" bson:"taskerId"`
	Rating     int                `json:"rating" bson:"rating"`
	Comment    string             `json:"comment,omitempty" bson:"comment,omitempty"`
	TaskTitle  string             `json:"taskTitle" bson:"taskTitle"`
	CreatedAt  time.Time          `json:"createdAt" bson:"createdAt"`
}

// RatingStats is the aggregate recomputed from a tasker's full review set.
type RatingStats struct {
	AverageRating float64     `json:"averageRating"`
	TotalReviews  int         `json:"totalReviews"`
	Distribution  map[int]int `json:"distribution"`
}
