package repositories

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"taskhive/internal/models"
)

// FeeSettingsRepository is append-only: policy updates insert a new record,
// the latest record is the current policy.
type FeeSettingsRepository interface {
	Store(ctx context.Context, settings *models.FeeSettings) error
	Latest(ctx context.Context) (*models.FeeSettings, error)
	History(ctx context.Context, limit int) ([]models.FeeSettings, error)
}

type feeSettingsRepository struct {
	settings *mongo.Collection
}

func NewFeeSettingsRepository(db *mongo.Database) FeeSettingsRepository {
	return &feeSettingsRepository{settings: db.Collection("fee_settings")}
}

func (r *feeSettingsRepository) Store(ctx context.Context, settings *models.FeeSettings) error {
	if settings.ID.IsZero() {
		settings.ID = primitive.NewObjectID()
	}
	settings.CreatedAt = time.Now()
	_, err := r.settings.InsertOne(ctx, settings)
	return err
}

func (r *feeSettingsRepository) Latest(ctx context.Context) (*models.FeeSettings, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	var settings models.FeeSettings
	err := r.settings.FindOne(ctx, bson.M{}, opts).Decode(&settings)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &settings, nil
}

func (r *feeSettingsRepository) History(ctx context.Context, limit int) ([]models.FeeSettings, error) {
	if limit <= 0 {
		limit = 50
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}).SetLimit(int64(limit))
	cursor, err := r.settings.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var history []models.FeeSettings
	if err := cursor.All(ctx, &history); err != nil {
		return nil, err
	}
	return history, nil
}
