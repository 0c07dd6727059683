package usecase

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/campusconnect/student-network-api/internal/model"
)

type achievementFixture struct {
	achievementRepo *fakeAchievementRepo
	userRepo        *fakeUserRepo
	notifRepo       *fakeNotificationRepo
	store           *fakeObjectStore
	usecase         AchievementUsecase
}

func newAchievementFixture() *achievementFixture {
	achievementRepo := newFakeAchievementRepo()
	userRepo := newFakeUserRepo()
	notifRepo := newFakeNotificationRepo()
	store := &fakeObjectStore{}

	return &achievementFixture{
		achievementRepo: achievementRepo,
		userRepo:        userRepo,
		notifRepo:       notifRepo,
		store:           store,
		usecase:         NewAchievementUsecase(achievementRepo, userRepo, notifRepo, store),
	}
}

func (f *achievementFixture) addStudent(name, roll string) *model.User {
	return f.userRepo.add(&model.User{
		Name:       name,
		RollNumber: roll,
		Branch:     "CSE",
		Year:       "3",
		Verified:   true,
	})
}

func TestAchievementCreate_SnapshotsStudentIdentity(t *testing.T) {
	f := newAchievementFixture()
	student := f.addStudent("Asha", "CS21B001")

	created, err := f.usecase.Create(context.Background(), CreateAchievementParams{
		StudentID:   student.ID.Hex(),
		Title:       "Campus Hack Winner",
		Description: "Won the annual hackathon with a peer-tutoring app.",
		Category:    model.CategoryHackathon,
		Images: []ImageUpload{
			{Body: strings.NewReader("img"), Filename: "award.png", ContentType: "image/png"},
		},
	})
	require.NoError(t, err)
	require.Equal(t, student.ID, created.StudentID)
	require.Equal(t, "Asha", created.StudentName)
	require.Equal(t, "CS21B001", created.StudentRollNumber)
	require.Equal(t, "CSE", created.Branch)
	require.Len(t, created.Images, 1)

	notif := f.notifRepo.lastFor(student.ID)
	require.NotNil(t, notif)
	require.Equal(t, model.NotificationAchievementAdded, notif.Type)
}

func TestAchievementCreate_UnknownStudent(t *testing.T) {
	f := newAchievementFixture()

	_, err := f.usecase.Create(context.Background(), CreateAchievementParams{
		StudentID:   "64b000000000000000000000",
		Title:       "x",
		Description: "y",
	})
	require.ErrorIs(t, err, ErrStudentNotFound)
}

func TestAchievementCreate_ImageCap(t *testing.T) {
	f := newAchievementFixture()
	student := f.addStudent("Asha", "CS21B001")

	uploads := make([]ImageUpload, model.MaxAchievementImages+1)
	for i := range uploads {
		uploads[i] = ImageUpload{Body: strings.NewReader("img"), Filename: "a.png", ContentType: "image/png"}
	}

	_, err := f.usecase.Create(context.Background(), CreateAchievementParams{
		StudentID:   student.ID.Hex(),
		Title:       "x",
		Description: "y",
		Images:      uploads,
	})
	require.ErrorIs(t, err, ErrTooManyImages)
	require.Empty(t, f.store.stored)
}

func TestAchievementDelete_RemovesHostedImages(t *testing.T) {
	f := newAchievementFixture()
	a := f.achievementRepo.add(&model.Achievement{
		Title:  "Old Project",
		Images: []string{"https://cdn.test/achievements/a.png", "https://cdn.test/achievements/b.png"},
	})

	err := f.usecase.Delete(context.Background(), a.ID.Hex())
	require.NoError(t, err)
	require.Len(t, f.store.deleted, 2)

	err = f.usecase.Delete(context.Background(), a.ID.Hex())
	require.ErrorIs(t, err, ErrAchievementNotFound)
}

func TestToggleLike_AddsThenRemoves(t *testing.T) {
	f := newAchievementFixture()
	owner := f.addStudent("Asha", "CS21B001")
	liker := f.addStudent("Ravi", "CS21B002")
	a := f.achievementRepo.add(&model.Achievement{Title: "Project", StudentID: owner.ID})

	liked, count, err := f.usecase.ToggleLike(context.Background(), a.ID.Hex(), liker.ID.Hex())
	require.NoError(t, err)
	require.True(t, liked)
	require.Equal(t, 1, count)

	notif := f.notifRepo.lastFor(owner.ID)
	require.NotNil(t, notif)
	require.Equal(t, model.NotificationAchievementLiked, notif.Type)
	require.Contains(t, notif.Message, "Ravi")

	liked, count, err = f.usecase.ToggleLike(context.Background(), a.ID.Hex(), liker.ID.Hex())
	require.NoError(t, err)
	require.False(t, liked)
	require.Zero(t, count)
}

func TestToggleLike_UnknownAchievement(t *testing.T) {
	f := newAchievementFixture()
	liker := f.addStudent("Ravi", "CS21B002")

	_, _, err := f.usecase.ToggleLike(context.Background(), bson.NewObjectID().Hex(), liker.ID.Hex())
	require.ErrorIs(t, err, ErrAchievementNotFound)
}

func TestToggleLike_OwnLikeDoesNotNotify(t *testing.T) {
	f := newAchievementFixture()
	owner := f.addStudent("Asha", "CS21B001")
	a := f.achievementRepo.add(&model.Achievement{Title: "Project", StudentID: owner.ID})

	liked, _, err := f.usecase.ToggleLike(context.Background(), a.ID.Hex(), owner.ID.Hex())
	require.NoError(t, err)
	require.True(t, liked)
	require.Nil(t, f.notifRepo.lastFor(owner.ID))
}

func TestSetFeatured_NotifiesOnlyWhenFeaturing(t *testing.T) {
	f := newAchievementFixture()
	owner := f.addStudent("Asha", "CS21B001")
	a := f.achievementRepo.add(&model.Achievement{Title: "Project", StudentID: owner.ID})

	updated, err := f.usecase.SetFeatured(context.Background(), a.ID.Hex(), true)
	require.NoError(t, err)
	require.True(t, updated.Featured)

	notif := f.notifRepo.lastFor(owner.ID)
	require.NotNil(t, notif)
	require.Equal(t, model.NotificationAchievementFeature, notif.Type)

	before := len(f.notifRepo.notifications)
	_, err = f.usecase.SetFeatured(context.Background(), a.ID.Hex(), false)
	require.NoError(t, err)
	require.Len(t, f.notifRepo.notifications, before)
}

// Trending weighs a like as two views and only considers the window.
func TestTrending_EngagementOrderAndWindow(t *testing.T) {
	f := newAchievementFixture()
	now := time.Now()

	liked := f.achievementRepo.add(&model.Achievement{
		Title:     "Liked",
		Likes:     []bson.ObjectID{bson.NewObjectID(), bson.NewObjectID()},
		Views:     1,
		CreatedAt: now.Add(-24 * time.Hour),
	})
	viewed := f.achievementRepo.add(&model.Achievement{
		Title:     "Viewed",
		Views:     4,
		CreatedAt: now.Add(-48 * time.Hour),
	})
	stale := f.achievementRepo.add(&model.Achievement{
		Title:     "Stale",
		Views:     1000,
		CreatedAt: now.Add(-30 * 24 * time.Hour),
	})
	_ = stale

	trending, err := f.usecase.Trending(context.Background(), 7, 10)
	require.NoError(t, err)
	require.Len(t, trending, 2)
	require.Equal(t, liked.ID, trending[0].ID)
	require.Equal(t, viewed.ID, trending[1].ID)
}

func TestRecordView_Increments(t *testing.T) {
	f := newAchievementFixture()
	a := f.achievementRepo.add(&model.Achievement{Title: "Project"})

	views, err := f.usecase.RecordView(context.Background(), a.ID.Hex())
	require.NoError(t, err)
	require.EqualValues(t, 1, views)

	views, err = f.usecase.RecordView(context.Background(), a.ID.Hex())
	require.NoError(t, err)
	require.EqualValues(t, 2, views)
}
