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

// AchievementRepository defines the database operations over the
// achievements collection. Like toggling and view counting are expressed as
// atomic set/counter updates.
type AchievementRepository interface {
	CreateAchievement(ctx context.Context, a *model.Achievement) (*model.Achievement, error)
	GetAchievement(ctx context.Context, id string) (*model.Achievement, error)
	UpdateAchievement(ctx context.Context, id string, params UpdateAchievementParams) (*model.Achievement, error)
	DeleteAchievement(ctx context.Context, id string) error

	ListAchievements(ctx context.Context, params ListAchievementsParams) ([]*model.Achievement, int64, error)
	ListFeatured(ctx context.Context, limit int64) ([]*model.Achievement, error)
	ListCreatedSince(ctx context.Context, since time.Time) ([]*model.Achievement, error)

	AddLike(ctx context.Context, id string, userID bson.ObjectID) (bool, error)
	RemoveLike(ctx context.Context, id string, userID bson.ObjectID) error
	IncrementViews(ctx context.Context, id string) (int64, error)
	SetFeatured(ctx context.Context, id string, featured bool) (*model.Achievement, error)
}

// UpdateAchievementParams defines the optional achievement fields to update.
type UpdateAchievementParams struct {
	Title        *string
	Description  *string
	Category     *string
	Technologies *[]string
	GitHubLink   *string
	LiveLink     *string
	Images       *[]string
}

// AchievementSort orders for ListAchievements.
const (
	SortRecent   = "recent"
	SortPopular  = "popular"
	SortTrending = "trending"
)

// ListAchievementsParams defines filters and pagination for the feed.
type ListAchievementsParams struct {
	Branch       *string
	Year         *string
	Category     *string
	Technologies []string
	Search       *string
	SortBy       string
	Page         int64
	Limit        int64
}

const achievementCollection = "achievements"

type achievementMongoRepository struct {
	db *mongo.Database
}

// NewAchievementMongoRepository creates the achievements repository and its
// feed indexes.
func NewAchievementMongoRepository(
	ctx context.Context,
	logger *zerolog.Logger,
	db *mongo.Database,
) AchievementRepository {
	collection := db.Collection(achievementCollection)

	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "branch", Value: 1}, {Key: "year", Value: 1}, {Key: "category", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "featured", Value: 1}, {Key: "created_at", Value: -1}},
		},
		{
			Keys: bson.D{{Key: "student_id", Value: 1}},
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create achievement indexes")
	}

	return &achievementMongoRepository{db: db}
}

func (r *achievementMongoRepository) CreateAchievement(
	ctx context.Context,
	a *model.Achievement,
) (*model.Achievement, error) {
	now := time.Now()
	a.CreatedAt = now
	a.UpdatedAt = now
	if a.Status == "" {
		a.Status = model.AchievementApproved
	}
	if a.Category == "" {
		a.Category = model.CategoryProject
	}

	result, err := r.db.Collection(achievementCollection).InsertOne(ctx, a)
	if err != nil {
		return nil, err
	}

	if objectID, ok := result.InsertedID.(bson.ObjectID); ok {
		a.ID = objectID
	} else {
		return nil, errors.New("failed to convert inserted ID to ObjectID")
	}

	return a, nil
}

func (r *achievementMongoRepository) GetAchievement(ctx context.Context, id string) (*model.Achievement, error) {
	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, err
	}

	result := r.db.Collection(achievementCollection).FindOne(ctx, bson.M{"_id": objectID})
	if result.Err() != nil {
		return nil, result.Err()
	}

	var a model.Achievement
	if err := result.Decode(&a); err != nil {
		return nil, err
	}

	return &a, nil
}

func (r *achievementMongoRepository) UpdateAchievement(
	ctx context.Context,
	id string,
	params UpdateAchievementParams,
) (*model.Achievement, error) {
	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, err
	}

	updateMap := bson.M{}
	if params.Title != nil {
		updateMap["title"] = *params.Title
	}
	if params.Description != nil {
		updateMap["description"] = *params.Description
	}
	if params.Category != nil {
		updateMap["category"] = *params.Category
	}
	if params.Technologies != nil {
		updateMap["technologies"] = *params.Technologies
	}
	if params.GitHubLink != nil {
		updateMap["github_link"] = *params.GitHubLink
	}
	if params.LiveLink != nil {
		updateMap["live_link"] = *params.LiveLink
	}
	if params.Images != nil {
		updateMap["images"] = *params.Images
	}

	if len(updateMap) == 0 {
		return nil, errors.New("no achievement fields to update")
	}

	updateMap["updated_at"] = time.Now()

	result := r.db.Collection(achievementCollection).FindOneAndUpdate(
		ctx,
		bson.M{"_id": objectID},
		bson.M{"$set": updateMap},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)
	if result.Err() != nil {
		return nil, result.Err()
	}

	var a model.Achievement
	if err := result.Decode(&a); err != nil {
		return nil, err
	}

	return &a, nil
}

func (r *achievementMongoRepository) DeleteAchievement(ctx context.Context, id string) error {
	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return err
	}

	result := r.db.Collection(achievementCollection).FindOneAndDelete(ctx, bson.M{"_id": objectID})
	return result.Err()
}

func (r *achievementMongoRepository) ListAchievements(
	ctx context.Context,
	params ListAchievementsParams,
) ([]*model.Achievement, int64, error) {
	filter := bson.M{"status": model.AchievementApproved}
	if params.Branch != nil {
		filter["branch"] = *params.Branch
	}
	if params.Year != nil {
		filter["year"] = *params.Year
	}
	if params.Category != nil {
		filter["category"] = *params.Category
	}
	if len(params.Technologies) > 0 {
		filter["technologies"] = bson.M{"$in": params.Technologies}
	}
	if params.Search != nil {
		regex := bson.M{"$regex": *params.Search, "$options": "i"}
		filter["$or"] = []bson.M{
			{"title": regex},
			{"description": regex},
		}
	}

	var sort bson.D
	switch params.SortBy {
	case SortPopular:
		sort = bson.D{{Key: "likes", Value: -1}}
	case SortTrending:
		sort = bson.D{{Key: "views", Value: -1}}
	default:
		sort = bson.D{{Key: "created_at", Value: -1}}
	}

	collection := r.db.Collection(achievementCollection)

	total, err := collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	findOptions := options.Find().
		SetSort(sort).
		SetSkip((params.Page - 1) * params.Limit).
		SetLimit(params.Limit)

	cursor, err := collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	achievements, err := decodeAchievements(ctx, cursor)
	if err != nil {
		return nil, 0, err
	}

	return achievements, total, nil
}

func (r *achievementMongoRepository) ListFeatured(ctx context.Context, limit int64) ([]*model.Achievement, error) {
	filter := bson.M{"featured": true, "status": model.AchievementApproved}

	findOptions := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(limit)

	cursor, err := r.db.Collection(achievementCollection).Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	return decodeAchievements(ctx, cursor)
}

func (r *achievementMongoRepository) ListCreatedSince(
	ctx context.Context,
	since time.Time,
) ([]*model.Achievement, error) {
	filter := bson.M{
		"status":     model.AchievementApproved,
		"created_at": bson.M{"$gte": since},
	}

	cursor, err := r.db.Collection(achievementCollection).Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	return decodeAchievements(ctx, cursor)
}

// AddLike inserts userID into the like set. The filter excludes documents
// where the user already likes, so a concurrent double-tap from the same
// user changes the set at most once. Returns false when the like was
// already present.
func (r *achievementMongoRepository) AddLike(
	ctx context.Context,
	id string,
	userID bson.ObjectID,
) (bool, error) {
	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return false, err
	}

	result, err := r.db.Collection(achievementCollection).UpdateOne(
		ctx,
		bson.M{"_id": objectID, "likes": bson.M{"$ne": userID}},
		bson.M{"$addToSet": bson.M{"likes": userID}},
	)
	if err != nil {
		return false, err
	}

	return result.ModifiedCount > 0, nil
}

func (r *achievementMongoRepository) RemoveLike(ctx context.Context, id string, userID bson.ObjectID) error {
	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return err
	}

	_, err = r.db.Collection(achievementCollection).UpdateOne(
		ctx,
		bson.M{"_id": objectID},
		bson.M{"$pull": bson.M{"likes": userID}},
	)

	return err
}

func (r *achievementMongoRepository) IncrementViews(ctx context.Context, id string) (int64, error) {
	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return 0, err
	}

	result := r.db.Collection(achievementCollection).FindOneAndUpdate(
		ctx,
		bson.M{"_id": objectID},
		bson.M{"$inc": bson.M{"views": 1}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)
	if result.Err() != nil {
		return 0, result.Err()
	}

	var a model.Achievement
	if err := result.Decode(&a); err != nil {
		return 0, err
	}

	return a.Views, nil
}

func (r *achievementMongoRepository) SetFeatured(
	ctx context.Context,
	id string,
	featured bool,
) (*model.Achievement, error) {
	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, err
	}

	result := r.db.Collection(achievementCollection).FindOneAndUpdate(
		ctx,
		bson.M{"_id": objectID},
		bson.M{"$set": bson.M{"featured": featured, "updated_at": time.Now()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)
	if result.Err() != nil {
		return nil, result.Err()
	}

	var a model.Achievement
	if err := result.Decode(&a); err != nil {
		return nil, err
	}

	return &a, nil
}

func decodeAchievements(ctx context.Context, cursor *mongo.Cursor) ([]*model.Achievement, error) {
	var achievements []*model.Achievement
	for cursor.Next(ctx) {
		var a model.Achievement
		if err := cursor.Decode(&a); err != nil {
			return nil, err
		}
		achievements = append(achievements, &a)
	}

	if err := cursor.Err(); err != nil {
		return nil, err
	}

	return achievements, nil
}
