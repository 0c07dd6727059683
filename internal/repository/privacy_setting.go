package repository

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/campusconnect/student-network-api/internal/model"
)

// PrivacySettingRepository defines the database operations over the
// privacy_settings collection.
type PrivacySettingRepository interface {
	GetByUserID(ctx context.Context, userID bson.ObjectID) (*model.PrivacySetting, error)
	Upsert(ctx context.Context, userID bson.ObjectID, params UpdatePrivacyParams) (*model.PrivacySetting, error)
}

// UpdatePrivacyParams defines the optional privacy fields to update. Only
// non-nil fields are written; an upsert fills the rest with the default-open
// values.
type UpdatePrivacyParams struct {
	ProfileVisibility       *string
	ShowEmail               *bool
	ShowPhone               *bool
	ShowConnections         *bool
	ShowAchievements        *bool
	AllowConnectionRequests *bool
}

const privacySettingCollection = "privacy_settings"

type privacySettingMongoRepository struct {
	db *mongo.Database
}

// NewPrivacySettingMongoRepository creates the privacy settings repository
// with its one-per-account unique index.
func NewPrivacySettingMongoRepository(
	ctx context.Context,
	logger *zerolog.Logger,
	db *mongo.Database,
) PrivacySettingRepository {
	collection := db.Collection(privacySettingCollection)

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create privacy setting indexes")
	}

	return &privacySettingMongoRepository{db: db}
}

func (r *privacySettingMongoRepository) GetByUserID(
	ctx context.Context,
	userID bson.ObjectID,
) (*model.PrivacySetting, error) {
	result := r.db.Collection(privacySettingCollection).FindOne(ctx, bson.M{"user_id": userID})
	if result.Err() != nil {
		return nil, result.Err()
	}

	var setting model.PrivacySetting
	if err := result.Decode(&setting); err != nil {
		return nil, err
	}

	return &setting, nil
}

func (r *privacySettingMongoRepository) Upsert(
	ctx context.Context,
	userID bson.ObjectID,
	params UpdatePrivacyParams,
) (*model.PrivacySetting, error) {
	now := time.Now()

	set := bson.M{"updated_at": now}
	if params.ProfileVisibility != nil {
		set["profile_visibility"] = *params.ProfileVisibility
	}
	if params.ShowEmail != nil {
		set["show_email"] = *params.ShowEmail
	}
	if params.ShowPhone != nil {
		set["show_phone"] = *params.ShowPhone
	}
	if params.ShowConnections != nil {
		set["show_connections"] = *params.ShowConnections
	}
	if params.ShowAchievements != nil {
		set["show_achievements"] = *params.ShowAchievements
	}
	if params.AllowConnectionRequests != nil {
		set["allow_connection_requests"] = *params.AllowConnectionRequests
	}

	// Fields absent from the update keep their default-open value when the
	// document is first created by the upsert.
	defaults := model.DefaultPrivacySetting(userID)
	setOnInsert := bson.M{"created_at": now}
	if params.ProfileVisibility == nil {
		setOnInsert["profile_visibility"] = defaults.ProfileVisibility
	}
	if params.ShowEmail == nil {
		setOnInsert["show_email"] = defaults.ShowEmail
	}
	if params.ShowPhone == nil {
		setOnInsert["show_phone"] = defaults.ShowPhone
	}
	if params.ShowConnections == nil {
		setOnInsert["show_connections"] = defaults.ShowConnections
	}
	if params.ShowAchievements == nil {
		setOnInsert["show_achievements"] = defaults.ShowAchievements
	}
	if params.AllowConnectionRequests == nil {
		setOnInsert["allow_connection_requests"] = defaults.AllowConnectionRequests
	}

	result := r.db.Collection(privacySettingCollection).FindOneAndUpdate(
		ctx,
		bson.M{"user_id": userID},
		bson.M{"$set": set, "$setOnInsert": setOnInsert},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	)
	if result.Err() != nil {
		return nil, result.Err()
	}

	var setting model.PrivacySetting
	if err := result.Decode(&setting); err != nil {
		return nil, err
	}

	return &setting, nil
}
