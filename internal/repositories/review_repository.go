package repositories

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"taskhive/internal/models"
)

type ReviewRepository interface {
	Store(ctx context.Context, review *models.Review) error
	FindByTaskAndReviewer(ctx context.Context, taskID, reviewerID primitive.ObjectID) (*models.Review, error)
	ListByTasker(ctx context.Context, taskerID primitive.ObjectID) ([]models.Review, error)
}

type reviewRepository struct {
	reviews *mongo.Collection
}

func NewReviewRepository(db *mongo.Database) ReviewRepository {
	return &reviewRepository{reviews: db.Collection("reviews")}
}

func (r *reviewRepository) Store(ctx context.Context, review *models.Review) error {
	if review.ID.IsZero() {
		review.ID = primitive.NewObjectID()
	}
	_, err := r.reviews.InsertOne(ctx, review)
	return err
}

func (r *reviewRepository) FindByTaskAndReviewer(ctx context.Context, taskID, reviewerID primitive.ObjectID) (*models.Review, error) {
	var review models.Review
	err := r.reviews.FindOne(ctx, bson.M{"taskId": taskID, "reviewerId": reviewerID}).Decode(&review)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &review, nil
}

func (r *reviewRepository) ListByTasker(ctx context.Context, taskerID primitive.ObjectID) ([]models.Review, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.reviews.Find(ctx, bson.M{"taskerId": taskerID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var reviews []models.Review
	if err := cursor.All(ctx, &reviews); err != nil {
		return nil, err
	}
	return reviews, nil
}
