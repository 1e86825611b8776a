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

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	List(ctx context.Context, role *models.Role, limit, offset int) ([]models.User, error)

	UpdateRatingStats(ctx context.Context, taskerID primitive.ObjectID, average float64, total int) error
	IncCompletedTasks(ctx context.Context, taskerID primitive.ObjectID) error

	UpdateRefresh(ctx context.Context, id primitive.ObjectID, token string, expiresAt time.Time) error
	GetByRefreshToken(ctx context.Context, token string) (*models.User, error)

	GetTelegramSettings(ctx context.Context, id primitive.ObjectID) (chatID int64, allow bool, err error)
	SetTelegramChat(ctx context.Context, id primitive.ObjectID, chatID int64, allow bool) error
	ClearTelegramChat(ctx context.Context, id primitive.ObjectID) error
}

type userRepository struct {
	users *mongo.Collection
}

func NewUserRepository(db *mongo.Database) UserRepository {
	return &userRepository{users: db.Collection("users")}
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	user.CreatedAt = time.Now()
	_, err := r.users.InsertOne(ctx, user)
	return err
}

func (r *userRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var user models.User
	err := r.users.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.users.FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	res, err := r.users.ReplaceOne(ctx, bson.M{"_id": user.ID}, user)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (r *userRepository) List(ctx context.Context, role *models.Role, limit, offset int) ([]models.User, error) {
	query := bson.M{}
	if role != nil {
		query["role"] = *role
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cursor, err := r.users.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var users []models.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (r *userRepository) UpdateRatingStats(ctx context.Context, taskerID primitive.ObjectID, average float64, total int) error {
	_, err := r.users.UpdateOne(ctx, bson.M{"_id": taskerID}, bson.M{"$set": bson.M{
		"averageRating": average,
		"totalReviews":  total,
	}})
	return err
}

func (r *userRepository) IncCompletedTasks(ctx context.Context, taskerID primitive.ObjectID) error {
	_, err := r.users.UpdateOne(ctx, bson.M{"_id": taskerID}, bson.M{"$inc": bson.M{"completedTasks": 1}})
	return err
}

func (r *userRepository) UpdateRefresh(ctx context.Context, id primitive.ObjectID, token string, expiresAt time.Time) error {
	_, err := r.users.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"refreshToken":     token,
		"refreshExpiresAt": expiresAt,
	}})
	return err
}

func (r *userRepository) GetByRefreshToken(ctx context.Context, token string) (*models.User, error) {
	var user models.User
	err := r.users.FindOne(ctx, bson.M{"refreshToken": token}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetTelegramSettings(ctx context.Context, id primitive.ObjectID) (int64, bool, error) {
	user, err := r.GetByID(ctx, id)
	if err != nil {
		return 0, false, err
	}
	if user == nil {
		return 0, false, nil
	}
	return user.TelegramChatID, user.AllowTelegram, nil
}

func (r *userRepository) SetTelegramChat(ctx context.Context, id primitive.ObjectID, chatID int64, allow bool) error {
	_, err := r.users.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"telegramChatId": chatID,
		"allowTelegram":  allow,
	}})
	return err
}

func (r *userRepository) ClearTelegramChat(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.users.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$unset": bson.M{
		"telegramChatId": "",
		"allowTelegram":  "",
	}})
	return err
}
