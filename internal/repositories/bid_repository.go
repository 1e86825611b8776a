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

type BidRepository interface {
	Store(ctx context.Context, bid *models.Bid) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Bid, error)
	FindByTaskAndTasker(ctx context.Context, taskID, taskerID primitive.ObjectID) (*models.Bid, error)
	ListByTask(ctx context.Context, taskID primitive.ObjectID) ([]models.Bid, error)
	ListByTasker(ctx context.Context, filter models.BidFilter) ([]models.Bid, error)
	FindByTaskAndStatus(ctx context.Context, taskID primitive.ObjectID, status models.BidStatus) ([]models.Bid, error)
	Update(ctx context.Context, bid *models.Bid) error
	Delete(ctx context.Context, id primitive.ObjectID) error

	// RejectSiblings forces every non-terminal bid on the task except the
	// accepted one to rejected.
	RejectSiblings(ctx context.Context, taskID, acceptedBidID primitive.ObjectID) error
}

type bidRepository struct {
	bids  *mongo.Collection
	tasks *mongo.Collection
}

func NewBidRepository(db *mongo.Database) BidRepository {
	return &bidRepository{
		bids:  db.Collection("bids"),
		tasks: db.Collection("tasks"),
	}
}

func (r *bidRepository) Store(ctx context.Context, bid *models.Bid) error {
	if bid.ID.IsZero() {
		bid.ID = primitive.NewObjectID()
	}
	_, err := r.bids.InsertOne(ctx, bid)
	return err
}

func (r *bidRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Bid, error) {
	var bid models.Bid
	err := r.bids.FindOne(ctx, bson.M{"_id": id}).Decode(&bid)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &bid, nil
}

func (r *bidRepository) FindByTaskAndTasker(ctx context.Context, taskID, taskerID primitive.ObjectID) (*models.Bid, error) {
	var bid models.Bid
	err := r.bids.FindOne(ctx, bson.M{"taskId": taskID, "taskerId": taskerID}).Decode(&bid)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &bid, nil
}

func (r *bidRepository) ListByTask(ctx context.Context, taskID primitive.ObjectID) ([]models.Bid, error) {
	opts := options.Find().SetSort(bson.D{{Key: "amount", Value: 1}})
	cursor, err := r.bids.Find(ctx, bson.M{"taskId": taskID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var bids []models.Bid
	if err := cursor.All(ctx, &bids); err != nil {
		return nil, err
	}
	return bids, nil
}

func (r *bidRepository) ListByTasker(ctx context.Context, filter models.BidFilter) ([]models.Bid, error) {
	query := bson.M{"taskerId": filter.TaskerID}
	if len(filter.Statuses) > 0 {
		query["status"] = bson.M{"$in": filter.Statuses}
	}

	if filter.TaskStatus != nil {
		// resolve the parent-task-status filter to a task id set first; bids
		// do not embed the task document
		taskQuery := bson.M{"status": *filter.TaskStatus}
		if filter.TaskStatusNegated {
			taskQuery = bson.M{"status": bson.M{"$ne": *filter.TaskStatus}}
		}
		cursor, err := r.tasks.Find(ctx, taskQuery, options.Find().SetProjection(bson.M{"_id": 1}))
		if err != nil {
			return nil, err
		}
		var rows []struct {
			ID primitive.ObjectID `bson:"_id"`
		}
		if err := cursor.All(ctx, &rows); err != nil {
			return nil, err
		}
		ids := make([]primitive.ObjectID, 0, len(rows))
		for _, row := range rows {
			ids = append(ids, row.ID)
		}
		query["taskId"] = bson.M{"$in": ids}
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.bids.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var bids []models.Bid
	if err := cursor.All(ctx, &bids); err != nil {
		return nil, err
	}
	return bids, nil
}

func (r *bidRepository) FindByTaskAndStatus(ctx context.Context, taskID primitive.ObjectID, status models.BidStatus) ([]models.Bid, error) {
	cursor, err := r.bids.Find(ctx, bson.M{"taskId": taskID, "status": status})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var bids []models.Bid
	if err := cursor.All(ctx, &bids); err != nil {
		return nil, err
	}
	return bids, nil
}

func (r *bidRepository) Update(ctx context.Context, bid *models.Bid) error {
	bid.UpdatedAt = time.Now()
	res, err := r.bids.ReplaceOne(ctx, bson.M{"_id": bid.ID}, bid)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (r *bidRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.bids.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

func (r *bidRepository) RejectSiblings(ctx context.Context, taskID, acceptedBidID primitive.ObjectID) error {
	_, err := r.bids.UpdateMany(ctx,
		bson.M{
			"taskId": taskID,
			"_id":    bson.M{"$ne": acceptedBidID},
			"status": bson.M{"$in": bson.A{models.BidPending, models.BidInProgress}},
		},
		bson.M{"$set": bson.M{
			"status":    models.BidRejected,
			"updatedAt": time.Now(),
		}},
	)
	return err
}
