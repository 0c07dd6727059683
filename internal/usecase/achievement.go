package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/campusconnect/student-network-api/internal/model"
	"github.com/campusconnect/student-network-api/internal/repository"
	"github.com/campusconnect/student-network-api/shared/storage"
)

var (
	ErrAchievementNotFound = errors.New("achievement not found")
	ErrStudentNotFound     = errors.New("student not found")
	ErrTooManyImages       = errors.New("too many achievement images")
)

const (
	likeWeight          = 2
	defaultTrendingDays = 7
	defaultTrendingSize = 10
)

// AchievementView is an achievement shaped for its viewer: counts instead
// of raw like sets, plus whether the viewer already liked it.
type AchievementView struct {
	Achievement   *model.Achievement
	LikeCount     int
	LikedByViewer bool
}

// ImageUpload carries one uploaded achievement image.
type ImageUpload struct {
	Body        io.Reader
	Filename    string
	ContentType string
}

// AchievementUsecase manages the showcase: admin-curated entries, the
// public feed with its sort orders, like toggles, and view counting.
type AchievementUsecase interface {
	Create(ctx context.Context, params CreateAchievementParams) (*model.Achievement, error)
	Update(ctx context.Context, id string, params repository.UpdateAchievementParams) (*model.Achievement, error)
	Delete(ctx context.Context, id string) error
	SetFeatured(ctx context.Context, id string, featured bool) (*model.Achievement, error)

	List(ctx context.Context, params repository.ListAchievementsParams) ([]*model.Achievement, int64, error)
	Featured(ctx context.Context, limit int64) ([]*model.Achievement, error)
	Trending(ctx context.Context, days, limit int) ([]*model.Achievement, error)
	Get(ctx context.Context, id, viewerID string) (*AchievementView, error)

	ToggleLike(ctx context.Context, id, userID string) (liked bool, likeCount int, err error)
	RecordView(ctx context.Context, id string) (int64, error)
}

// CreateAchievementParams holds a new showcase entry. Student identity
// fields are resolved from StudentID, never taken from the caller.
type CreateAchievementParams struct {
	StudentID    string
	Title        string
	Description  string
	Category     string
	Technologies []string
	GitHubLink   string
	LiveLink     string
	Images       []ImageUpload
}

type achievementUsecase struct {
	achievementRepo repository.AchievementRepository
	userRepo        repository.UserRepository
	notifRepo       repository.NotificationRepository
	store           storage.ObjectStore
}

// NewAchievementUsecase creates a new AchievementUsecase.
func NewAchievementUsecase(
	achievementRepo repository.AchievementRepository,
	userRepo repository.UserRepository,
	notifRepo repository.NotificationRepository,
	store storage.ObjectStore,
) AchievementUsecase {
	return &achievementUsecase{
		achievementRepo: achievementRepo,
		userRepo:        userRepo,
		notifRepo:       notifRepo,
		store:           store,
	}
}

// Create adds a showcase entry for a student, hosting any uploaded images
// first. Hosted images are removed again if the insert fails. The student
// is notified.
func (u *achievementUsecase) Create(
	ctx context.Context,
	params CreateAchievementParams,
) (*model.Achievement, error) {
	if len(params.Images) > model.MaxAchievementImages {
		return nil, ErrTooManyImages
	}

	student, err := u.userRepo.GetUser(ctx, params.StudentID, repository.ActiveOnly)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrStudentNotFound
		}
		return nil, err
	}

	urls, err := u.storeImages(ctx, params.Images)
	if err != nil {
		return nil, err
	}

	created, err := u.achievementRepo.CreateAchievement(ctx, &model.Achievement{
		Title:             params.Title,
		Description:       params.Description,
		StudentID:         student.ID,
		StudentName:       student.Name,
		StudentRollNumber: student.RollNumber,
		Branch:            student.Branch,
		Year:              student.Year,
		Category:          params.Category,
		Technologies:      params.Technologies,
		GitHubLink:        params.GitHubLink,
		LiveLink:          params.LiveLink,
		Images:            urls,
	})
	if err != nil {
		u.deleteImages(ctx, urls)
		return nil, err
	}

	if _, err := u.notifRepo.CreateNotification(ctx, &model.Notification{
		UserID:       student.ID,
		Type:         model.NotificationAchievementAdded,
		Title:        "Achievement Added",
		Message:      fmt.Sprintf("Your achievement %q has been added to the showcase", created.Title),
		RelatedID:    created.ID,
		RelatedModel: model.RelatedAchievement,
	}); err != nil {
		return nil, err
	}

	return created, nil
}

func (u *achievementUsecase) storeImages(ctx context.Context, uploads []ImageUpload) ([]string, error) {
	urls := make([]string, 0, len(uploads))
	for _, upload := range uploads {
		url, err := u.store.Store(ctx, "achievements", upload.Filename, upload.Body, upload.ContentType)
		if err != nil {
			u.deleteImages(ctx, urls)
			return nil, err
		}
		urls = append(urls, url)
	}
	return urls, nil
}

func (u *achievementUsecase) deleteImages(ctx context.Context, urls []string) {
	for _, url := range urls {
		_ = u.store.Delete(ctx, url)
	}
}

// Update applies the provided fields to an entry.
func (u *achievementUsecase) Update(
	ctx context.Context,
	id string,
	params repository.UpdateAchievementParams,
) (*model.Achievement, error) {
	if params.Images != nil && len(*params.Images) > model.MaxAchievementImages {
		return nil, ErrTooManyImages
	}

	updated, err := u.achievementRepo.UpdateAchievement(ctx, id, params)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrAchievementNotFound
		}
		return nil, err
	}

	return updated, nil
}

// Delete removes an entry and its hosted images.
func (u *achievementUsecase) Delete(ctx context.Context, id string) error {
	existing, err := u.achievementRepo.GetAchievement(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrAchievementNotFound
		}
		return err
	}

	if err := u.achievementRepo.DeleteAchievement(ctx, id); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrAchievementNotFound
		}
		return err
	}

	u.deleteImages(ctx, existing.Images)

	return nil
}

// SetFeatured flips the featured flag and tells the owner when it goes on.
func (u *achievementUsecase) SetFeatured(
	ctx context.Context,
	id string,
	featured bool,
) (*model.Achievement, error) {
	updated, err := u.achievementRepo.SetFeatured(ctx, id, featured)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrAchievementNotFound
		}
		return nil, err
	}

	if featured {
		if _, err := u.notifRepo.CreateNotification(ctx, &model.Notification{
			UserID:       updated.StudentID,
			Type:         model.NotificationAchievementFeature,
			Title:        "Achievement Featured",
			Message:      fmt.Sprintf("Your achievement %q is now featured", updated.Title),
			RelatedID:    updated.ID,
			RelatedModel: model.RelatedAchievement,
		}); err != nil {
			return nil, err
		}
	}

	return updated, nil
}

// List returns the approved feed with filters and sort order applied.
func (u *achievementUsecase) List(
	ctx context.Context,
	params repository.ListAchievementsParams,
) ([]*model.Achievement, int64, error) {
	if params.Page < 1 {
		params.Page = 1
	}
	if params.Limit < 1 {
		params.Limit = defaultTrendingSize
	}
	return u.achievementRepo.ListAchievements(ctx, params)
}

// Featured returns the admin-curated highlight list, newest first.
func (u *achievementUsecase) Featured(ctx context.Context, limit int64) ([]*model.Achievement, error) {
	if limit < 1 {
		limit = defaultTrendingSize
	}
	return u.achievementRepo.ListFeatured(ctx, limit)
}

// Trending ranks entries created within the window by engagement, where
// a like counts double a view. Ties keep insertion order.
func (u *achievementUsecase) Trending(ctx context.Context, days, limit int) ([]*model.Achievement, error) {
	if days <= 0 {
		days = defaultTrendingDays
	}
	if limit <= 0 {
		limit = defaultTrendingSize
	}

	since := time.Now().AddDate(0, 0, -days)

	recent, err := u.achievementRepo.ListCreatedSince(ctx, since)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(recent, func(i, j int) bool {
		return engagementScore(recent[i]) > engagementScore(recent[j])
	})

	if len(recent) > limit {
		recent = recent[:limit]
	}

	return recent, nil
}

func engagementScore(a *model.Achievement) int64 {
	return int64(len(a.Likes))*likeWeight + a.Views
}

// Get fetches one entry shaped for the viewer.
func (u *achievementUsecase) Get(ctx context.Context, id, viewerID string) (*AchievementView, error) {
	achievement, err := u.achievementRepo.GetAchievement(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrAchievementNotFound
		}
		return nil, err
	}

	view := &AchievementView{
		Achievement: achievement,
		LikeCount:   len(achievement.Likes),
	}

	if viewerID != "" {
		viewerOID, err := bson.ObjectIDFromHex(viewerID)
		if err != nil {
			return nil, err
		}
		view.LikedByViewer = achievement.LikedBy(viewerOID)
	}

	return view, nil
}

// ToggleLike adds the user's like, or removes it when already present.
// The owner hears about new likes from others, never their own.
func (u *achievementUsecase) ToggleLike(ctx context.Context, id, userID string) (bool, int, error) {
	userOID, err := bson.ObjectIDFromHex(userID)
	if err != nil {
		return false, 0, err
	}

	// AddLike matches nothing on a missing document and reports (false, nil),
	// so the miss only surfaces on the re-read below.
	added, err := u.achievementRepo.AddLike(ctx, id, userOID)
	if err != nil {
		return false, 0, err
	}

	if !added {
		if err := u.achievementRepo.RemoveLike(ctx, id, userOID); err != nil {
			return false, 0, err
		}
	}

	achievement, err := u.achievementRepo.GetAchievement(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return false, 0, ErrAchievementNotFound
		}
		return false, 0, err
	}

	if added && achievement.StudentID != userOID {
		liker, err := u.userRepo.GetUser(ctx, userID, repository.ActiveOnly)
		if err != nil {
			return false, 0, err
		}

		if _, err := u.notifRepo.CreateNotification(ctx, &model.Notification{
			UserID:       achievement.StudentID,
			Type:         model.NotificationAchievementLiked,
			Title:        "Achievement Liked",
			Message:      fmt.Sprintf("%s liked your achievement %q", liker.Name, achievement.Title),
			RelatedID:    achievement.ID,
			RelatedModel: model.RelatedAchievement,
		}); err != nil {
			return false, 0, err
		}
	}

	return added, len(achievement.Likes), nil
}

// RecordView bumps the view counter and returns the new total.
func (u *achievementUsecase) RecordView(ctx context.Context, id string) (int64, error) {
	views, err := u.achievementRepo.IncrementViews(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return 0, ErrAchievementNotFound
		}
		return 0, err
	}
	return views, nil
}
