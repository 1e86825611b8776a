package services

import (
	"context"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"taskhive/internal/apperrors"
	"taskhive/internal/models"
	"taskhive/internal/repositories"
)

// CategoryService manages the two-level category tree.
type CategoryService interface {
	Create(ctx context.Context, name string, parentID *primitive.ObjectID) (*models.Category, error)
	List(ctx context.Context) ([]models.Category, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Category, error)
}

type categoryService struct {
	categories repositories.CategoryRepository
}

func NewCategoryService(categories repositories.CategoryRepository) CategoryService {
	return &categoryService{categories: categories}
}

func (s *categoryService) Create(ctx context.Context, name string, parentID *primitive.ObjectID) (*models.Category, error) {
	if strings.TrimSpace(name) == "" {
		return nil, apperrors.Validation("category name is required")
	}
	if parentID != nil {
		parent, err := s.categories.FindByID(ctx, *parentID)
		if err != nil {
			return nil, err
		}
		if parent == nil {
			return nil, apperrors.Validation("parent category %s does not exist", parentID.Hex())
		}
		// the tree is two levels deep, a subcategory cannot be a parent
		if parent.ParentID != nil {
			return nil, apperrors.Validation("categories nest only one level deep")
		}
	}

	category := &models.Category{
		Name:     name,
		ParentID: parentID,
	}
	if err := s.categories.Store(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

func (s *categoryService) List(ctx context.Context) ([]models.Category, error) {
	return s.categories.List(ctx)
}

func (s *categoryService) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Category, error) {
	category, err := s.categories.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if category == nil {
		return nil, apperrors.NotFound("category %s not found", id.Hex())
	}
	return category, nil
}
