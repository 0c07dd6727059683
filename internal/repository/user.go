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

// StatusFilter is the mandatory account-status predicate. Every lookup names
// its scope at the call site; there is no implicit hook hiding the filter.
type StatusFilter bool

const (
	// ActiveOnly restricts a query to accounts with status "active".
	ActiveOnly StatusFilter = true
	// AnyStatus disables the status predicate. Used where the caller must
	// see suspended or deleted accounts to report their state.
	AnyStatus StatusFilter = false
)

func (s StatusFilter) apply(filter bson.M) bson.M {
	if s == ActiveOnly {
		filter["account_status"] = model.StatusActive
	}
	return filter
}

// UserRepository defines the database operations over the users collection.
// Counter mutations (OTP attempts, failed logins) are expressed as atomic
// store updates, never as read-modify-write in the application.
type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) (*model.User, error)
	GetUser(ctx context.Context, id string, status StatusFilter) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string, status StatusFilter) (*model.User, error)
	GetUserByRollNumber(ctx context.Context, rollNumber string, status StatusFilter) (*model.User, error)
	UpdateUser(ctx context.Context, id string, params UpdateUserParams) (*model.User, error)
	DeleteUser(ctx context.Context, id string) error

	SearchUsers(ctx context.Context, query string, status StatusFilter, page, limit int64) ([]*model.User, int64, error)
	FilterUsers(ctx context.Context, params FilterUsersParams, status StatusFilter, page, limit int64) ([]*model.User, int64, error)
	ListUsersByIDs(ctx context.Context, ids []bson.ObjectID, status StatusFilter) ([]*model.User, error)
	ListCandidates(ctx context.Context, exclude []bson.ObjectID) ([]*model.User, error)

	SetOTP(ctx context.Context, id string, code string, expiry time.Time) error
	ClearOTP(ctx context.Context, id string, markVerified bool) error
	IncrementOTPAttempts(ctx context.Context, id string) (int, error)

	RegisterFailedLogin(ctx context.Context, id string, maxAttempts int, lockFor time.Duration) error
	ResetLoginAttempts(ctx context.Context, id string) error
}

// UpdateUserParams defines the optional parameters for updating a user.
// Only the fields that are not nil will be updated.
type UpdateUserParams struct {
	Name           *string
	Bio            *string
	Phone          *string
	LinkedIn       *string
	GitHub         *string
	Skills         *[]string
	Interests      *[]string
	Year           *string
	Branch         *string
	ProfilePicture *string
	PasswordHash   *string
	AccountStatus  *string
	LastActive     *time.Time
}

// FilterUsersParams defines the exact-match filters for user discovery.
type FilterUsersParams struct {
	Year      *string
	Branch    *string
	Skills    []string
	Interests []string
}

const userCollection = "users"

type userMongoRepository struct {
	db *mongo.Database
}

// NewUserMongoRepository creates the users repository and its unique
// identity indexes.
func NewUserMongoRepository(ctx context.Context, logger *zerolog.Logger, db *mongo.Database) UserRepository {
	collection := db.Collection(userCollection)

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "roll_number", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "branch", Value: 1}, {Key: "year", Value: 1}},
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create user indexes")
	}

	return &userMongoRepository{db: db}
}

func (r *userMongoRepository) CreateUser(ctx context.Context, user *model.User) (*model.User, error) {
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	user.LastActive = now
	if user.AccountStatus == "" {
		user.AccountStatus = model.StatusActive
	}

	result, err := r.db.Collection(userCollection).InsertOne(ctx, user)
	if err != nil {
		return nil, err
	}

	if objectID, ok := result.InsertedID.(bson.ObjectID); ok {
		user.ID = objectID
	} else {
		return nil, errors.New("failed to convert inserted ID to ObjectID")
	}

	return user, nil
}

func (r *userMongoRepository) GetUser(ctx context.Context, id string, status StatusFilter) (*model.User, error) {
	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, err
	}

	return r.findOne(ctx, status.apply(bson.M{"_id": objectID}))
}

func (r *userMongoRepository) GetUserByEmail(ctx context.Context, email string, status StatusFilter) (*model.User, error) {
	return r.findOne(ctx, status.apply(bson.M{"email": email}))
}

func (r *userMongoRepository) GetUserByRollNumber(
	ctx context.Context,
	rollNumber string,
	status StatusFilter,
) (*model.User, error) {
	return r.findOne(ctx, status.apply(bson.M{"roll_number": rollNumber}))
}

func (r *userMongoRepository) findOne(ctx context.Context, filter bson.M) (*model.User, error) {
	result := r.db.Collection(userCollection).FindOne(ctx, filter)
	if result.Err() != nil {
		return nil, result.Err()
	}

	var user model.User
	if err := result.Decode(&user); err != nil {
		return nil, err
	}

	return &user, nil
}

func (r *userMongoRepository) UpdateUser(
	ctx context.Context,
	id string,
	params UpdateUserParams,
) (*model.User, error) {
	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, err
	}

	updateMap := bson.M{}
	if params.Name != nil {
		updateMap["name"] = *params.Name
	}
	if params.Bio != nil {
		updateMap["bio"] = *params.Bio
	}
	if params.Phone != nil {
		updateMap["phone"] = *params.Phone
	}
	if params.LinkedIn != nil {
		updateMap["linked_in"] = *params.LinkedIn
	}
	if params.GitHub != nil {
		updateMap["github"] = *params.GitHub
	}
	if params.Skills != nil {
		updateMap["skills"] = *params.Skills
	}
	if params.Interests != nil {
		updateMap["interests"] = *params.Interests
	}
	if params.Year != nil {
		updateMap["year"] = *params.Year
	}
	if params.Branch != nil {
		updateMap["branch"] = *params.Branch
	}
	if params.ProfilePicture != nil {
		updateMap["profile_picture"] = *params.ProfilePicture
	}
	if params.PasswordHash != nil {
		updateMap["password_hash"] = *params.PasswordHash
	}
	if params.AccountStatus != nil {
		updateMap["account_status"] = *params.AccountStatus
	}
	if params.LastActive != nil {
		updateMap["last_active"] = *params.LastActive
	}

	if len(updateMap) == 0 {
		return nil, errors.New("no user fields to update")
	}

	updateMap["updated_at"] = time.Now()

	result := r.db.Collection(userCollection).FindOneAndUpdate(
		ctx,
		bson.M{"_id": objectID},
		bson.M{"$set": updateMap},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)
	if result.Err() != nil {
		return nil, result.Err()
	}

	var user model.User
	if err := result.Decode(&user); err != nil {
		return nil, err
	}

	return &user, nil
}

// DeleteUser physically removes an account document. Only the registration
// rollback path uses it; self-deletion is a status flip through UpdateUser.
func (r *userMongoRepository) DeleteUser(ctx context.Context, id string) error {
	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return err
	}

	result := r.db.Collection(userCollection).FindOneAndDelete(ctx, bson.M{"_id": objectID})
	return result.Err()
}

func (r *userMongoRepository) SearchUsers(
	ctx context.Context,
	query string,
	status StatusFilter,
	page, limit int64,
) ([]*model.User, int64, error) {
	regex := bson.M{"$regex": query, "$options": "i"}
	filter := status.apply(bson.M{
		"$or": []bson.M{
			{"name": regex},
			{"roll_number": regex},
			{"email": regex},
			{"branch": regex},
			{"skills": regex},
			{"interests": regex},
		},
	})

	return r.findPage(ctx, filter, page, limit, bson.D{{Key: "created_at", Value: -1}})
}

func (r *userMongoRepository) FilterUsers(
	ctx context.Context,
	params FilterUsersParams,
	status StatusFilter,
	page, limit int64,
) ([]*model.User, int64, error) {
	filter := status.apply(bson.M{})
	if params.Year != nil {
		filter["year"] = *params.Year
	}
	if params.Branch != nil {
		filter["branch"] = bson.M{"$regex": *params.Branch, "$options": "i"}
	}
	if len(params.Skills) > 0 {
		filter["skills"] = bson.M{"$in": params.Skills}
	}
	if len(params.Interests) > 0 {
		filter["interests"] = bson.M{"$in": params.Interests}
	}

	return r.findPage(ctx, filter, page, limit, bson.D{{Key: "created_at", Value: -1}})
}

func (r *userMongoRepository) ListUsersByIDs(
	ctx context.Context,
	ids []bson.ObjectID,
	status StatusFilter,
) ([]*model.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	cursor, err := r.db.Collection(userCollection).Find(ctx, status.apply(bson.M{"_id": bson.M{"$in": ids}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	return decodeUsers(ctx, cursor)
}

// ListCandidates returns the suggestion candidate pool: active, verified
// accounts outside the exclusion set, in store order.
func (r *userMongoRepository) ListCandidates(ctx context.Context, exclude []bson.ObjectID) ([]*model.User, error) {
	filter := ActiveOnly.apply(bson.M{
		"verified": true,
		"_id":      bson.M{"$nin": exclude},
	})

	cursor, err := r.db.Collection(userCollection).Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	return decodeUsers(ctx, cursor)
}

func (r *userMongoRepository) findPage(
	ctx context.Context,
	filter bson.M,
	page, limit int64,
	sort bson.D,
) ([]*model.User, int64, error) {
	collection := r.db.Collection(userCollection)

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

	users, err := decodeUsers(ctx, cursor)
	if err != nil {
		return nil, 0, err
	}

	return users, total, nil
}

func decodeUsers(ctx context.Context, cursor *mongo.Cursor) ([]*model.User, error) {
	var users []*model.User
	for cursor.Next(ctx) {
		var user model.User
		if err := cursor.Decode(&user); err != nil {
			return nil, err
		}
		users = append(users, &user)
	}

	if err := cursor.Err(); err != nil {
		return nil, err
	}

	return users, nil
}

// SetOTP installs a fresh challenge, overwriting any prior one and zeroing
// the attempt counter.
func (r *userMongoRepository) SetOTP(ctx context.Context, id string, code string, expiry time.Time) error {
	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return err
	}

	_, err = r.db.Collection(userCollection).UpdateOne(
		ctx,
		bson.M{"_id": objectID},
		bson.M{"$set": bson.M{
			"otp":          code,
			"otp_expiry":   expiry,
			"otp_attempts": 0,
			"updated_at":   time.Now(),
		}},
	)

	return err
}

// ClearOTP removes the challenge fields entirely so the code can never be
// replayed; markVerified additionally flips the verified flag.
func (r *userMongoRepository) ClearOTP(ctx context.Context, id string, markVerified bool) error {
	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return err
	}

	set := bson.M{"updated_at": time.Now()}
	if markVerified {
		set["verified"] = true
	}

	_, err = r.db.Collection(userCollection).UpdateOne(
		ctx,
		bson.M{"_id": objectID},
		bson.M{
			"$set":   set,
			"$unset": bson.M{"otp": 1, "otp_expiry": 1, "otp_attempts": 1},
		},
	)

	return err
}

// IncrementOTPAttempts bumps the challenge attempt counter atomically and
// returns the post-increment value.
func (r *userMongoRepository) IncrementOTPAttempts(ctx context.Context, id string) (int, error) {
	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return 0, err
	}

	result := r.db.Collection(userCollection).FindOneAndUpdate(
		ctx,
		bson.M{"_id": objectID},
		bson.M{"$inc": bson.M{"otp_attempts": 1}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)
	if result.Err() != nil {
		return 0, result.Err()
	}

	var user model.User
	if err := result.Decode(&user); err != nil {
		return 0, err
	}

	return user.OTPAttempts, nil
}

// RegisterFailedLogin advances the lockout state machine after a credential
// mismatch. All three steps are guarded store updates keyed on the state
// they expect, so concurrent failures cannot lose an increment or
// double-extend a lock.
func (r *userMongoRepository) RegisterFailedLogin(
	ctx context.Context,
	id string,
	maxAttempts int,
	lockFor time.Duration,
) error {
	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return err
	}

	collection := r.db.Collection(userCollection)
	now := time.Now()

	// A lapsed lock means this failure starts a fresh unlocked count of 1.
	lapsed, err := collection.UpdateOne(
		ctx,
		bson.M{"_id": objectID, "lock_until": bson.M{"$lt": now}},
		bson.M{
			"$set":   bson.M{"login_attempts": 1, "updated_at": now},
			"$unset": bson.M{"lock_until": 1},
		},
	)
	if err != nil {
		return err
	}
	if lapsed.ModifiedCount > 0 {
		return nil
	}

	result := collection.FindOneAndUpdate(
		ctx,
		bson.M{"_id": objectID},
		bson.M{
			"$inc": bson.M{"login_attempts": 1},
			"$set": bson.M{"updated_at": now},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)
	if result.Err() != nil {
		return result.Err()
	}

	var user model.User
	if err := result.Decode(&user); err != nil {
		return err
	}

	if user.LoginAttempts >= maxAttempts && user.LockUntil.IsZero() {
		_, err = collection.UpdateOne(
			ctx,
			bson.M{
				"_id":            objectID,
				"login_attempts": bson.M{"$gte": maxAttempts},
				"lock_until":     bson.M{"$exists": false},
			},
			bson.M{"$set": bson.M{"lock_until": now.Add(lockFor), "updated_at": now}},
		)
		if err != nil {
			return err
		}
	}

	return nil
}

// ResetLoginAttempts clears the lockout state after a successful login.
func (r *userMongoRepository) ResetLoginAttempts(ctx context.Context, id string) error {
	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return err
	}

	_, err = r.db.Collection(userCollection).UpdateOne(
		ctx,
		bson.M{"_id": objectID},
		bson.M{
			"$set":   bson.M{"login_attempts": 0, "last_active": time.Now(), "updated_at": time.Now()},
			"$unset": bson.M{"lock_until": 1},
		},
	)

	return err
}
