package services

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"taskhive/internal/apperrors"
	"taskhive/internal/authz"
	"taskhive/internal/logging"
	"taskhive/internal/models"
	"taskhive/internal/repositories"
)

// SubmitReviewInput carries the customer-supplied fields for a review.
type SubmitReviewInput struct {
	TaskID   primitive.ObjectID
	TaskerID primitive.ObjectID
	Rating   int
	Comment  string
}

// ReviewService accepts reviews on completed tasks and maintains the
// tasker's cached rating aggregate.
type ReviewService interface {
	Submit(ctx context.Context, actor authz.Actor, input SubmitReviewInput) (*models.Review, error)
	ListForTasker(ctx context.Context, taskerID primitive.ObjectID) ([]models.Review, error)
	StatsForTasker(ctx context.Context, taskerID primitive.ObjectID) (*models.RatingStats, error)
}

type reviewService struct {
	reviews  repositories.ReviewRepository
	tasks    repositories.TaskRepository
	users    repositories.UserRepository
	notifier NotificationService
}

func NewReviewService(
	reviews repositories.ReviewRepository,
	tasks repositories.TaskRepository,
	users repositories.UserRepository,
	notifier NotificationService,
) ReviewService {
	return &reviewService{reviews: reviews, tasks: tasks, users: users, notifier: notifier}
}

// ComputeRatingStats aggregates a set of reviews into the stats shape the
// profile endpoints serve. Average is 0 when there are no reviews.
func ComputeRatingStats(reviews []models.Review) models.RatingStats {
	stats := models.RatingStats{Distribution: map[int]int{1: 0, 2: 0, 3: 0, 4: 0, 5: 0}}
	if len(reviews) == 0 {
		return stats
	}
	sum := 0
	for _, r := range reviews {
		sum += r.Rating
		stats.Distribution[r.Rating]++
	}
	stats.TotalReviews = len(reviews)
	stats.AverageRating = float64(sum) / float64(len(reviews))
	return stats
}

func (s *reviewService) Submit(ctx context.Context, actor authz.Actor, input SubmitReviewInput) (*models.Review, error) {
	if input.Rating < 1 || input.Rating > 5 {
		return nil, apperrors.Validation("rating must be between 1 and 5, got %d", input.Rating)
	}

	task, err := s.tasks.FindByID(ctx, input.TaskID)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, apperrors.NotFound("task %s not found", input.TaskID.Hex())
	}
	if task.Status != models.StatusCompleted {
		return nil, apperrors.InvalidState("reviews are only accepted on completed tasks, task is %q", task.Status)
	}
	if task.CustomerID != actor.ID {
		return nil, apperrors.Forbidden("only the task owner can review this task")
	}
	if task.AssignedTo == nil || *task.AssignedTo != input.TaskerID {
		return nil, apperrors.Validation("tasker %s did not perform this task", input.TaskerID.Hex())
	}

	existing, err := s.reviews.FindByTaskAndReviewer(ctx, input.TaskID, actor.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperrors.Conflict("task %s has already been reviewed", input.TaskID.Hex())
	}

	review := &models.Review{
		TaskID:     input.TaskID,
		ReviewerID: actor.ID,
		TaskerID:   input.TaskerID,
		Rating:     input.Rating,
		Comment:    input.Comment,
		TaskTitle:  task.Title,
		CreatedAt:  time.Now(),
	}
	if err := s.reviews.Store(ctx, review); err != nil {
		return nil, err
	}

	if err := s.refreshRatingCache(ctx, input.TaskerID); err != nil {
		logging.Logger.Errorf("[review][submit][err] refresh rating cache tasker=%s: %v", input.TaskerID.Hex(), err)
	}

	s.notifier.Emit(&models.Notification{
		RecipientID: input.TaskerID,
		SenderID:    &actor.ID,
		Type:        models.NotifyNewReview,
		Title:       "You received a review",
		Message:     actor.Name + " rated your work on \"" + task.Title + "\".",
		TaskID:      &task.ID,
	})
	logging.Logger.Infof("[review][submit][ok] task=%s tasker=%s rating=%d",
		input.TaskID.Hex(), input.TaskerID.Hex(), input.Rating)
	return review, nil
}

func (s *reviewService) ListForTasker(ctx context.Context, taskerID primitive.ObjectID) ([]models.Review, error) {
	return s.reviews.ListByTasker(ctx, taskerID)
}

func (s *reviewService) StatsForTasker(ctx context.Context, taskerID primitive.ObjectID) (*models.RatingStats, error) {
	reviews, err := s.reviews.ListByTasker(ctx, taskerID)
	if err != nil {
		return nil, err
	}
	stats := ComputeRatingStats(reviews)
	return &stats, nil
}

// refreshRatingCache recomputes the aggregate from the review collection so
// the cached value stays consistent even after retries.
func (s *reviewService) refreshRatingCache(ctx context.Context, taskerID primitive.ObjectID) error {
	reviews, err := s.reviews.ListByTasker(ctx, taskerID)
	if err != nil {
		return err
	}
	stats := ComputeRatingStats(reviews)
	return s.users.UpdateRatingStats(ctx, taskerID, stats.AverageRating, stats.TotalReviews)
}
