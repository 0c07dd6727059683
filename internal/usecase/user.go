package usecase

import (
	"context"
	"errors"
	"io"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/campusconnect/student-network-api/internal/model"
	"github.com/campusconnect/student-network-api/internal/repository"
	"github.com/campusconnect/student-network-api/shared/storage"
)

var (
	ErrProfilePrivate = errors.New("this profile is private")
)

// Profile is a user shaped for a specific viewer: privacy settings decide
// which contact fields survive.
type Profile struct {
	User        *model.User
	IsConnected bool
	IsSelf      bool
}

// ProfileUpload carries an uploaded profile picture.
type ProfileUpload struct {
	Body        io.Reader
	Filename    string
	ContentType string
}

// UserUsecase manages profiles: viewer-gated reads, self updates,
// search and filter, privacy settings, and soft account deletion.
type UserUsecase interface {
	GetProfile(ctx context.Context, targetID, viewerID string, viewerIsAdmin bool) (*Profile, error)
	UpdateProfile(ctx context.Context, userID string, params UpdateProfileParams) (*model.User, error)
	UpdateProfilePicture(ctx context.Context, userID string, upload ProfileUpload) (*model.User, error)
	DeleteAccount(ctx context.Context, userID string) error

	Search(ctx context.Context, query string, page, limit int64) ([]*model.User, int64, error)
	Filter(ctx context.Context, params repository.FilterUsersParams, page, limit int64) ([]*model.User, int64, error)

	GetPrivacy(ctx context.Context, userID string) (*model.PrivacySetting, error)
	UpdatePrivacy(ctx context.Context, userID string, params repository.UpdatePrivacyParams) (*model.PrivacySetting, error)
}

// UpdateProfileParams holds the self-editable profile fields. Nil fields
// are left untouched.
type UpdateProfileParams struct {
	Name      *string
	Bio       *string
	Phone     *string
	LinkedIn  *string
	GitHub    *string
	Year      *string
	Branch    *string
	Skills    []string
	Interests []string
}

type userUsecase struct {
	userRepo    repository.UserRepository
	connRepo    repository.ConnectionRepository
	privacyRepo repository.PrivacySettingRepository
	store       storage.ObjectStore
}

// NewUserUsecase creates a new UserUsecase.
func NewUserUsecase(
	userRepo repository.UserRepository,
	connRepo repository.ConnectionRepository,
	privacyRepo repository.PrivacySettingRepository,
	store storage.ObjectStore,
) UserUsecase {
	return &userUsecase{
		userRepo:    userRepo,
		connRepo:    connRepo,
		privacyRepo: privacyRepo,
		store:       store,
	}
}

// GetProfile fetches a profile through the viewer's lens. Owners and
// admins always pass; otherwise the target's visibility scope decides,
// and a target with no stored settings is treated as public.
func (u *userUsecase) GetProfile(
	ctx context.Context,
	targetID, viewerID string,
	viewerIsAdmin bool,
) (*Profile, error) {
	target, err := u.userRepo.GetUser(ctx, targetID, repository.ActiveOnly)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	isSelf := targetID == viewerID

	connected := false
	if !isSelf {
		connected, err = u.areConnected(ctx, targetID, viewerID)
		if err != nil {
			return nil, err
		}
	}

	settings, err := u.privacyRepo.GetByUserID(ctx, target.ID)
	if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}

	if !isSelf && !viewerIsAdmin && settings != nil {
		switch settings.ProfileVisibility {
		case model.VisibilityPrivate:
			return nil, ErrProfilePrivate
		case model.VisibilityConnections:
			if !connected {
				return nil, ErrProfilePrivate
			}
		}
	}

	if !isSelf && !viewerIsAdmin {
		redactContactFields(target, settings)
	}

	return &Profile{User: target, IsConnected: connected, IsSelf: isSelf}, nil
}

// redactContactFields blanks contact details the owner chose to hide.
// Absent settings hide the phone number but keep the email, matching the
// defaults a fresh settings document would carry.
func redactContactFields(user *model.User, settings *model.PrivacySetting) {
	showEmail := true
	showPhone := false
	if settings != nil {
		showEmail = settings.ShowEmail
		showPhone = settings.ShowPhone
	}

	if !showEmail {
		user.Email = ""
	}
	if !showPhone {
		user.Phone = ""
	}
}

func (u *userUsecase) areConnected(ctx context.Context, a, b string) (bool, error) {
	aOID, err := bson.ObjectIDFromHex(a)
	if err != nil {
		return false, err
	}
	bOID, err := bson.ObjectIDFromHex(b)
	if err != nil {
		return false, err
	}

	conn, err := u.connRepo.GetConnectionByPair(ctx, aOID, bOID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return false, nil
		}
		return false, err
	}

	return conn.Status == model.ConnectionAccepted, nil
}

// UpdateProfile applies the provided fields to the caller's own profile.
func (u *userUsecase) UpdateProfile(
	ctx context.Context,
	userID string,
	params UpdateProfileParams,
) (*model.User, error) {
	now := time.Now()

	update := repository.UpdateUserParams{
		Name:       params.Name,
		Bio:        params.Bio,
		Phone:      params.Phone,
		LinkedIn:   params.LinkedIn,
		GitHub:     params.GitHub,
		Year:       params.Year,
		Branch:     params.Branch,
		LastActive: &now,
	}
	if params.Skills != nil {
		update.Skills = &params.Skills
	}
	if params.Interests != nil {
		update.Interests = &params.Interests
	}

	updated, err := u.userRepo.UpdateUser(ctx, userID, update)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	return updated, nil
}

// UpdateProfilePicture stores the uploaded image and swaps it in,
// removing the previous image afterwards. A failed removal of the old
// object is ignored; the profile already points at the new one.
func (u *userUsecase) UpdateProfilePicture(
	ctx context.Context,
	userID string,
	upload ProfileUpload,
) (*model.User, error) {
	current, err := u.userRepo.GetUser(ctx, userID, repository.ActiveOnly)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	url, err := u.store.Store(ctx, "profiles", upload.Filename, upload.Body, upload.ContentType)
	if err != nil {
		return nil, err
	}

	updated, err := u.userRepo.UpdateUser(ctx, userID, repository.UpdateUserParams{
		ProfilePicture: &url,
	})
	if err != nil {
		_ = u.store.Delete(ctx, url)
		return nil, err
	}

	if current.ProfilePicture != "" {
		_ = u.store.Delete(ctx, current.ProfilePicture)
	}

	return updated, nil
}

// DeleteAccount soft-deletes the account: the document stays, flagged
// deleted, and drops out of every active-only read path. The stored
// profile picture is removed.
func (u *userUsecase) DeleteAccount(ctx context.Context, userID string) error {
	current, err := u.userRepo.GetUser(ctx, userID, repository.ActiveOnly)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrUserNotFound
		}
		return err
	}

	status := model.StatusDeleted
	if _, err := u.userRepo.UpdateUser(ctx, userID, repository.UpdateUserParams{
		AccountStatus: &status,
	}); err != nil {
		return err
	}

	if current.ProfilePicture != "" {
		_ = u.store.Delete(ctx, current.ProfilePicture)
	}

	return nil
}

// Search matches the query against names, roll numbers, emails, branches,
// skills, and interests of active accounts.
func (u *userUsecase) Search(ctx context.Context, query string, page, limit int64) ([]*model.User, int64, error) {
	return u.userRepo.SearchUsers(ctx, query, repository.ActiveOnly, page, limit)
}

// Filter narrows active accounts by structured profile fields.
func (u *userUsecase) Filter(
	ctx context.Context,
	params repository.FilterUsersParams,
	page, limit int64,
) ([]*model.User, int64, error) {
	return u.userRepo.FilterUsers(ctx, params, repository.ActiveOnly, page, limit)
}

// GetPrivacy returns the caller's privacy settings, synthesizing the
// defaults when nothing is stored yet.
func (u *userUsecase) GetPrivacy(ctx context.Context, userID string) (*model.PrivacySetting, error) {
	userOID, err := bson.ObjectIDFromHex(userID)
	if err != nil {
		return nil, err
	}

	settings, err := u.privacyRepo.GetByUserID(ctx, userOID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return model.DefaultPrivacySetting(userOID), nil
		}
		return nil, err
	}

	return settings, nil
}

// UpdatePrivacy upserts the caller's privacy settings; unset fields fall
// back to the defaults on first write and stay untouched afterwards.
func (u *userUsecase) UpdatePrivacy(
	ctx context.Context,
	userID string,
	params repository.UpdatePrivacyParams,
) (*model.PrivacySetting, error) {
	userOID, err := bson.ObjectIDFromHex(userID)
	if err != nil {
		return nil, err
	}

	return u.privacyRepo.Upsert(ctx, userOID, params)
}
