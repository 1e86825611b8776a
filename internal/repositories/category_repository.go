package repositories

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"taskhive/internal/models"
)

type CategoryRepository interface {
	Store(ctx context.Context, category *models.Category) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Category, error)
	List(ctx context.Context) ([]models.Category, error)
	Exists(ctx context.Context, id primitive.ObjectID) (bool, error)
	IsChildOf(ctx context.Context, childID, parentID primitive.ObjectID) (bool, error)
}

type categoryRepository struct {
	categories *mongo.Collection
}

func NewCategoryRepository(db *mongo.Database) CategoryRepository {
	return &categoryRepository{categories: db.Collection("categories")}
}

func (r *categoryRepository) Store(ctx context.Context, category *models.Category) error {
	if category.ID.IsZero() {
		category.ID = primitive.NewObjectID()
	}
	_, err := r.categories.InsertOne(ctx, category)
	return err
}

func (r *categoryRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Category, error) {
	var category models.Category
	err := r.categories.FindOne(ctx, bson.M{"_id": id}).Decode(&category)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &category, nil
}

func (r *categoryRepository) List(ctx context.Context) ([]models.Category, error) {
	cursor, err := r.categories.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var categories []models.Category
	if err := cursor.All(ctx, &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

func (r *categoryRepository) Exists(ctx context.Context, id primitive.ObjectID) (bool, error) {
	count, err := r.categories.CountDocuments(ctx, bson.M{"_id": id})
	return count > 0, err
}

func (r *categoryRepository) IsChildOf(ctx context.Context, childID, parentID primitive.ObjectID) (bool, error) {
	count, err := r.categories.CountDocuments(ctx, bson.M{"_id": childID, "parentId": parentID})
	return count > 0, err
}
