package repository

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/campusconnect/student-network-api/internal/model"
)

// NotificationRepository defines the database operations over the
// notifications collection.
type NotificationRepository interface {
	CreateNotification(ctx context.Context, n *model.Notification) (*model.Notification, error)
	ListNotifications(ctx context.Context, userID bson.ObjectID, unreadOnly bool, page, limit int64) ([]*model.Notification, int64, error)
	CountUnread(ctx context.Context, userID bson.ObjectID) (int64, error)
	MarkRead(ctx context.Context, id string, userID bson.ObjectID) error
	MarkAllRead(ctx context.Context, userID bson.ObjectID) (int64, error)
}

const notificationCollection = "notifications"

type notificationMongoRepository struct {
	db *mongo.Database
}

// NewNotificationMongoRepository creates the notifications repository and
// its read-state index.
func NewNotificationMongoRepository(
	ctx context.Context,
	logger *zerolog.Logger,
	db *mongo.Database,
) NotificationRepository {
	collection := db.Collection(notificationCollection)

	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "user_id", Value: 1},
				{Key: "is_read", Value: 1},
				{Key: "created_at", Value: -1},
			},
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create notification indexes")
	}

	return &notificationMongoRepository{db: db}
}

func (r *notificationMongoRepository) CreateNotification(
	ctx context.Context,
	n *model.Notification,
) (*model.Notification, error) {
	n.CreatedAt = time.Now()
	n.IsRead = false

	result, err := r.db.Collection(notificationCollection).InsertOne(ctx, n)
	if err != nil {
		return nil, err
	}

	if objectID, ok := result.InsertedID.(bson.ObjectID); ok {
		n.ID = objectID
	} else {
		return nil, errors.New("failed to convert inserted ID to ObjectID")
	}

	return n, nil
}

func (r *notificationMongoRepository) ListNotifications(
	ctx context.Context,
	userID bson.ObjectID,
	unreadOnly bool,
	page, limit int64,
) ([]*model.Notification, int64, error) {
	filter := bson.M{"user_id": userID}
	if unreadOnly {
		filter["is_read"] = false
	}

	collection := r.db.Collection(notificationCollection)

	total, err := collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	findOptions := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip((page - 1) * limit).
		SetLimit(limit)

	cursor, err := collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	var notifications []*model.Notification
	for cursor.Next(ctx) {
		var n model.Notification
		if err := cursor.Decode(&n); err != nil {
			return nil, 0, err
		}
		notifications = append(notifications, &n)
	}

	if err := cursor.Err(); err != nil {
		return nil, 0, err
	}

	return notifications, total, nil
}

func (r *notificationMongoRepository) CountUnread(ctx context.Context, userID bson.ObjectID) (int64, error) {
	return r.db.Collection(notificationCollection).CountDocuments(ctx, bson.M{
		"user_id": userID,
		"is_read": false,
	})
}

// MarkRead flips the read flag. The owner id is part of the filter so a user
// can never mark someone else's notification.
func (r *notificationMongoRepository) MarkRead(ctx context.Context, id string, userID bson.ObjectID) error {
	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return err
	}

	result, err := r.db.Collection(notificationCollection).UpdateOne(
		ctx,
		bson.M{"_id": objectID, "user_id": userID},
		bson.M{"$set": bson.M{"is_read": true}},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}

	return nil
}

func (r *notificationMongoRepository) MarkAllRead(ctx context.Context, userID bson.ObjectID) (int64, error) {
	result, err := r.db.Collection(notificationCollection).UpdateMany(
		ctx,
		bson.M{"user_id": userID, "is_read": false},
		bson.M{"$set": bson.M{"is_read": true}},
	)
	if err != nil {
		return 0, err
	}

	return result.ModifiedCount, nil
}
