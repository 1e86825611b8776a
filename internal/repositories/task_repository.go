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

// TasksPageSize is the fixed page size for task listings.
const TasksPageSize = 10

type TaskRepository interface {
	Store(ctx context.Context, task *models.Task) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Task, error)
	FindAll(ctx context.Context, filter models.TaskFilter) ([]models.Task, error)
	Update(ctx context.Context, task *models.Task) error
	Delete(ctx context.Context, id primitive.ObjectID) error

	// AssignIfOpen atomically moves an open task to assigned with the given
	// tasker. Returns false when the task was not open anymore (a concurrent
	// accept or cancel got there first).
	AssignIfOpen(ctx context.Context, id, taskerID primitive.ObjectID) (bool, error)

	CountByStatus(ctx context.Context) (map[models.TaskStatus]int64, error)
	FeeTotals(ctx context.Context, from, to time.Time) (*models.FeeTotals, error)
}

type taskRepository struct {
	tasks *mongo.Collection
}

func NewTaskRepository(db *mongo.Database) TaskRepository {
	return &taskRepository{tasks: db.Collection("tasks")}
}

func (r *taskRepository) Store(ctx context.Context, task *models.Task) error {
	if task.ID.IsZero() {
		task.ID = primitive.NewObjectID()
	}
	_, err := r.tasks.InsertOne(ctx, task)
	return err
}

func (r *taskRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Task, error) {
	var task models.Task
	err := r.tasks.FindOne(ctx, bson.M{"_id": id}).Decode(&task)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &task, nil
}

func (r *taskRepository) FindAll(ctx context.Context, filter models.TaskFilter) ([]models.Task, error) {
	query := bson.M{}

	if filter.Keyword != nil && *filter.Keyword != "" {
		query["title"] = bson.M{"$regex": *filter.Keyword, "$options": "i"}
	}
	if filter.CategoryID != nil {
		query["categoryId"] = *filter.CategoryID
	}
	if filter.SubcategoryID != nil {
		query["subcategoryId"] = *filter.SubcategoryID
	}
	if filter.Status != nil {
		query["status"] = *filter.Status
	}
	if filter.IsUrgent != nil {
		query["isUrgent"] = *filter.IsUrgent
	}
	if filter.MinBudget != nil || filter.MaxBudget != nil {
		budget := bson.M{}
		if filter.MinBudget != nil {
			budget["$gte"] = *filter.MinBudget
		}
		if filter.MaxBudget != nil {
			budget["$lte"] = *filter.MaxBudget
		}
		query["budget"] = budget
	}
	if filter.Address != nil && *filter.Address != "" {
		query["address"] = bson.M{"$regex": *filter.Address, "$options": "i"}
	}
	if filter.Latitude != nil && filter.Longitude != nil && filter.DistanceKm != nil {
		// $centerSphere radius is in radians: km / earth radius
		query["location"] = bson.M{"$geoWithin": bson.M{"$centerSphere": bson.A{
			bson.A{*filter.Longitude, *filter.Latitude},
			*filter.DistanceKm / 6378.1,
		}}}
	}
	if filter.CustomerID != nil {
		query["customerId"] = *filter.CustomerID
	}
	if filter.AssignedTo != nil {
		query["assignedTo"] = *filter.AssignedTo
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "isUrgent", Value: -1}, {Key: "createdAt", Value: -1}}).
		SetSkip(int64((page - 1) * TasksPageSize)).
		SetLimit(TasksPageSize)

	cursor, err := r.tasks.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var tasks []models.Task
	if err := cursor.All(ctx, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (r *taskRepository) Update(ctx context.Context, task *models.Task) error {
	task.UpdatedAt = time.Now()
	res, err := r.tasks.ReplaceOne(ctx, bson.M{"_id": task.ID}, task)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (r *taskRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.tasks.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

func (r *taskRepository) AssignIfOpen(ctx context.Context, id, taskerID primitive.ObjectID) (bool, error) {
	res, err := r.tasks.UpdateOne(ctx,
		bson.M{"_id": id, "status": models.StatusOpen},
		bson.M{"$set": bson.M{
			"status":     models.StatusAssigned,
			"assignedTo": taskerID,
			"updatedAt":  time.Now(),
		}},
	)
	if err != nil {
		return false, err
	}
	return res.MatchedCount == 1, nil
}

func (r *taskRepository) CountByStatus(ctx context.Context) (map[models.TaskStatus]int64, error) {
	cursor, err := r.tasks.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$group", Value: bson.M{"_id": "$status", "count": bson.M{"$sum": 1}}}},
	})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Status models.TaskStatus `bson:"_id"`
		Count  int64             `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}
	counts := make(map[models.TaskStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

// FeeTotals sums the fee snapshots of tasks completed in [from, to).
func (r *taskRepository) FeeTotals(ctx context.Context, from, to time.Time) (*models.FeeTotals, error) {
	match := bson.M{"status": models.StatusCompleted}
	if !from.IsZero() || !to.IsZero() {
		window := bson.M{}
		if !from.IsZero() {
			window["$gte"] = from
		}
		if !to.IsZero() {
			window["$lt"] = to
		}
		match["completedAt"] = window
	}
	cursor, err := r.tasks.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$group", Value: bson.M{
			"_id":            nil,
			"tasks":          bson.M{"$sum": 1},
			"budget":         bson.M{"$sum": "$budget"},
			"platformFees":   bson.M{"$sum": "$fees.platformFee"},
			"commissions":    bson.M{"$sum": "$fees.commissionAmount"},
			"trustFees":      bson.M{"$sum": "$fees.trustAndSupportFee"},
			"taskerPayouts":  bson.M{"$sum": "$fees.finalTaskerPayout"},
			"customerTotals": bson.M{"$sum": "$fees.totalAmountPaidByCustomer"},
		}}},
	})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rows []models.FeeTotals
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return &models.FeeTotals{}, nil
	}
	return &rows[0], nil
}
