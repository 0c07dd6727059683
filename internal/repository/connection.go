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

// ErrNotModified is returned by guarded updates whose state precondition no
// longer held (e.g. accepting an edge that is not pending anymore).
var ErrNotModified = errors.New("document not in expected state")

// ConnectionRepository defines the database operations over the connections
// collection. The pair_key unique index is the authority on edge uniqueness;
// the duplicate-key error from CreateConnection is the only signal callers
// may rely on under concurrency.
type ConnectionRepository interface {
	CreateConnection(ctx context.Context, conn *model.Connection) (*model.Connection, error)
	GetConnection(ctx context.Context, id string) (*model.Connection, error)
	GetConnectionByPair(ctx context.Context, a, b bson.ObjectID) (*model.Connection, error)
	UpdateConnectionStatus(ctx context.Context, id string, from, to string) (*model.Connection, error)
	DeleteConnection(ctx context.Context, id string) error

	ListAccepted(ctx context.Context, userID bson.ObjectID, page, limit int64) ([]*model.Connection, int64, error)
	ListPending(ctx context.Context, userID bson.ObjectID, incoming bool, page, limit int64) ([]*model.Connection, int64, error)
	ListByUser(ctx context.Context, userID bson.ObjectID, statuses ...string) ([]*model.Connection, error)
}

const connectionCollection = "connections"

type connectionMongoRepository struct {
	db *mongo.Database
}

// NewConnectionMongoRepository creates the connections repository and the
// unique order-independent pair index.
func NewConnectionMongoRepository(
	ctx context.Context,
	logger *zerolog.Logger,
	db *mongo.Database,
) ConnectionRepository {
	collection := db.Collection(connectionCollection)

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "pair_key", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "receiver_id", Value: 1}, {Key: "status", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "sender_id", Value: 1}, {Key: "status", Value: 1}},
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create connection indexes")
	}

	return &connectionMongoRepository{db: db}
}

func (r *connectionMongoRepository) CreateConnection(
	ctx context.Context,
	conn *model.Connection,
) (*model.Connection, error) {
	conn.PairKey = model.PairKeyFor(conn.SenderID, conn.ReceiverID)
	conn.RequestedAt = time.Now()
	if conn.Status == "" {
		conn.Status = model.ConnectionPending
	}

	result, err := r.db.Collection(connectionCollection).InsertOne(ctx, conn)
	if err != nil {
		return nil, err
	}

	if objectID, ok := result.InsertedID.(bson.ObjectID); ok {
		conn.ID = objectID
	} else {
		return nil, errors.New("failed to convert inserted ID to ObjectID")
	}

	return conn, nil
}

func (r *connectionMongoRepository) GetConnection(ctx context.Context, id string) (*model.Connection, error) {
	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, err
	}

	result := r.db.Collection(connectionCollection).FindOne(ctx, bson.M{"_id": objectID})
	if result.Err() != nil {
		return nil, result.Err()
	}

	var conn model.Connection
	if err := result.Decode(&conn); err != nil {
		return nil, err
	}

	return &conn, nil
}

func (r *connectionMongoRepository) GetConnectionByPair(
	ctx context.Context,
	a, b bson.ObjectID,
) (*model.Connection, error) {
	result := r.db.Collection(connectionCollection).FindOne(ctx, bson.M{"pair_key": model.PairKeyFor(a, b)})
	if result.Err() != nil {
		return nil, result.Err()
	}

	var conn model.Connection
	if err := result.Decode(&conn); err != nil {
		return nil, err
	}

	return &conn, nil
}

// UpdateConnectionStatus moves an edge from one status to another. The
// current status is part of the filter, so a concurrent transition loses
// cleanly with ErrNotModified instead of overwriting.
func (r *connectionMongoRepository) UpdateConnectionStatus(
	ctx context.Context,
	id string,
	from, to string,
) (*model.Connection, error) {
	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, err
	}

	result := r.db.Collection(connectionCollection).FindOneAndUpdate(
		ctx,
		bson.M{"_id": objectID, "status": from},
		bson.M{"$set": bson.M{"status": to, "responded_at": time.Now()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)
	if result.Err() != nil {
		if errors.Is(result.Err(), mongo.ErrNoDocuments) {
			return nil, ErrNotModified
		}
		return nil, result.Err()
	}

	var conn model.Connection
	if err := result.Decode(&conn); err != nil {
		return nil, err
	}

	return &conn, nil
}

// DeleteConnection hard-deletes an edge. mongo.ErrNoDocuments is surfaced
// when the edge is already gone so repeated removal reports NotFound.
func (r *connectionMongoRepository) DeleteConnection(ctx context.Context, id string) error {
	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return err
	}

	result := r.db.Collection(connectionCollection).FindOneAndDelete(ctx, bson.M{"_id": objectID})
	return result.Err()
}

func (r *connectionMongoRepository) ListAccepted(
	ctx context.Context,
	userID bson.ObjectID,
	page, limit int64,
) ([]*model.Connection, int64, error) {
	filter := bson.M{
		"status": model.ConnectionAccepted,
		"$or": []bson.M{
			{"sender_id": userID},
			{"receiver_id": userID},
		},
	}

	return r.findPage(ctx, filter, page, limit, bson.D{{Key: "responded_at", Value: -1}})
}

func (r *connectionMongoRepository) ListPending(
	ctx context.Context,
	userID bson.ObjectID,
	incoming bool,
	page, limit int64,
) ([]*model.Connection, int64, error) {
	side := "sender_id"
	if incoming {
		side = "receiver_id"
	}

	filter := bson.M{side: userID, "status": model.ConnectionPending}

	return r.findPage(ctx, filter, page, limit, bson.D{{Key: "requested_at", Value: -1}})
}

// ListByUser returns every edge touching the user, optionally restricted to
// the given statuses. Used for suggestion exclusion and neighbor sets.
func (r *connectionMongoRepository) ListByUser(
	ctx context.Context,
	userID bson.ObjectID,
	statuses ...string,
) ([]*model.Connection, error) {
	filter := bson.M{
		"$or": []bson.M{
			{"sender_id": userID},
			{"receiver_id": userID},
		},
	}
	if len(statuses) > 0 {
		filter["status"] = bson.M{"$in": statuses}
	}

	cursor, err := r.db.Collection(connectionCollection).Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	return decodeConnections(ctx, cursor)
}

func (r *connectionMongoRepository) findPage(
	ctx context.Context,
	filter bson.M,
	page, limit int64,
	sort bson.D,
) ([]*model.Connection, int64, error) {
	collection := r.db.Collection(connectionCollection)

	total, err := collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	findOptions := options.Find().
		SetSort(sort).
		SetSkip((page - 1) * limit).
		SetLimit(limit)

	cursor, err := collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	conns, err := decodeConnections(ctx, cursor)
	if err != nil {
		return nil, 0, err
	}

	return conns, total, nil
}

func decodeConnections(ctx context.Context, cursor *mongo.Cursor) ([]*model.Connection, error) {
	var conns []*model.Connection
	for cursor.Next(ctx) {
		var conn model.Connection
		if err := cursor.Decode(&conn); err != nil {
			return nil, err
		}
		conns = append(conns, &conn)
	}

	if err := cursor.Err(); err != nil {
		return nil, err
	}

	return conns, nil
}
