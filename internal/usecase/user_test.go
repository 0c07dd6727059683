package usecase

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/campusconnect/student-network-api/internal/model"
	"github.com/campusconnect/student-network-api/internal/repository"
)

type userFixture struct {
	userRepo    *fakeUserRepo
	connRepo    *fakeConnectionRepo
	privacyRepo *fakePrivacyRepo
	store       *fakeObjectStore
	usecase     UserUsecase
}

func newUserFixture() *userFixture {
	userRepo := newFakeUserRepo()
	connRepo := newFakeConnectionRepo()
	privacyRepo := newFakePrivacyRepo()
	store := &fakeObjectStore{}

	return &userFixture{
		userRepo:    userRepo,
		connRepo:    connRepo,
		privacyRepo: privacyRepo,
		store:       store,
		usecase:     NewUserUsecase(userRepo, connRepo, privacyRepo, store),
	}
}

func (f *userFixture) addStudent(name, roll string) *model.User {
	return f.userRepo.add(&model.User{
		Name:       name,
		Email:      strings.ToLower(roll) + "@campus.edu",
		RollNumber: roll,
		Phone:      "9876543210",
		Verified:   true,
	})
}

func (f *userFixture) setVisibility(user *model.User, visibility string) *model.PrivacySetting {
	settings := model.DefaultPrivacySetting(user.ID)
	settings.ProfileVisibility = visibility
	f.privacyRepo.settings[user.ID] = settings
	return settings
}

func (f *userFixture) connect(a, b *model.User) {
	f.connRepo.add(&model.Connection{
		SenderID:   a.ID,
		ReceiverID: b.ID,
		Status:     model.ConnectionAccepted,
	})
}

func TestGetProfile_SelfAlwaysAllowed(t *testing.T) {
	f := newUserFixture()
	user := f.addStudent("Asha", "CS21B001")
	f.setVisibility(user, model.VisibilityPrivate)

	profile, err := f.usecase.GetProfile(context.Background(), user.ID.Hex(), user.ID.Hex(), false)
	require.NoError(t, err)
	require.True(t, profile.IsSelf)
	require.NotEmpty(t, profile.User.Email)
	require.NotEmpty(t, profile.User.Phone)
}

func TestGetProfile_AdminBypassesVisibility(t *testing.T) {
	f := newUserFixture()
	target := f.addStudent("Asha", "CS21B001")
	admin := f.addStudent("Admin", "CS00A000")
	f.setVisibility(target, model.VisibilityPrivate)

	profile, err := f.usecase.GetProfile(context.Background(), target.ID.Hex(), admin.ID.Hex(), true)
	require.NoError(t, err)
	require.NotEmpty(t, profile.User.Email)
}

func TestGetProfile_PrivateBlocksOthers(t *testing.T) {
	f := newUserFixture()
	target := f.addStudent("Asha", "CS21B001")
	viewer := f.addStudent("Ravi", "CS21B002")
	f.setVisibility(target, model.VisibilityPrivate)

	// A private profile blocks even accepted connections.
	f.connect(viewer, target)

	_, err := f.usecase.GetProfile(context.Background(), target.ID.Hex(), viewer.ID.Hex(), false)
	require.ErrorIs(t, err, ErrProfilePrivate)
}

func TestGetProfile_ConnectionsScope(t *testing.T) {
	f := newUserFixture()
	target := f.addStudent("Asha", "CS21B001")
	stranger := f.addStudent("Ravi", "CS21B002")
	friend := f.addStudent("Maya", "CS21B003")
	f.setVisibility(target, model.VisibilityConnections)
	f.connect(friend, target)

	_, err := f.usecase.GetProfile(context.Background(), target.ID.Hex(), stranger.ID.Hex(), false)
	require.ErrorIs(t, err, ErrProfilePrivate)

	profile, err := f.usecase.GetProfile(context.Background(), target.ID.Hex(), friend.ID.Hex(), false)
	require.NoError(t, err)
	require.True(t, profile.IsConnected)
}

// A pending edge is not a connection for visibility purposes.
func TestGetProfile_PendingEdgeDoesNotCount(t *testing.T) {
	f := newUserFixture()
	target := f.addStudent("Asha", "CS21B001")
	viewer := f.addStudent("Ravi", "CS21B002")
	f.setVisibility(target, model.VisibilityConnections)
	f.connRepo.add(&model.Connection{SenderID: viewer.ID, ReceiverID: target.ID, Status: model.ConnectionPending})

	_, err := f.usecase.GetProfile(context.Background(), target.ID.Hex(), viewer.ID.Hex(), false)
	require.ErrorIs(t, err, ErrProfilePrivate)
}

// An account that never touched its privacy settings is treated as public.
func TestGetProfile_NoSettingsFailsOpen(t *testing.T) {
	f := newUserFixture()
	target := f.addStudent("Asha", "CS21B001")
	viewer := f.addStudent("Ravi", "CS21B002")

	profile, err := f.usecase.GetProfile(context.Background(), target.ID.Hex(), viewer.ID.Hex(), false)
	require.NoError(t, err)
	require.NotEmpty(t, profile.User.Email)
	require.Empty(t, profile.User.Phone)
}

func TestGetProfile_ContactRedaction(t *testing.T) {
	f := newUserFixture()
	target := f.addStudent("Asha", "CS21B001")
	viewer := f.addStudent("Ravi", "CS21B002")

	settings := f.setVisibility(target, model.VisibilityPublic)
	settings.ShowEmail = false
	settings.ShowPhone = true

	profile, err := f.usecase.GetProfile(context.Background(), target.ID.Hex(), viewer.ID.Hex(), false)
	require.NoError(t, err)
	require.Empty(t, profile.User.Email)
	require.Equal(t, "9876543210", profile.User.Phone)
}

func TestGetProfile_DeletedAccountHidden(t *testing.T) {
	f := newUserFixture()
	target := f.addStudent("Asha", "CS21B001")
	viewer := f.addStudent("Ravi", "CS21B002")
	target.AccountStatus = model.StatusDeleted

	_, err := f.usecase.GetProfile(context.Background(), target.ID.Hex(), viewer.ID.Hex(), false)
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestUpdateProfilePicture_SwapsAndCleansUp(t *testing.T) {
	f := newUserFixture()
	user := f.addStudent("Asha", "CS21B001")
	user.ProfilePicture = "https://cdn.test/profiles/old.png"

	updated, err := f.usecase.UpdateProfilePicture(context.Background(), user.ID.Hex(), ProfileUpload{
		Body:        strings.NewReader("png bytes"),
		Filename:    "new.png",
		ContentType: "image/png",
	})
	require.NoError(t, err)
	require.Equal(t, "https://cdn.test/profiles/new.png", updated.ProfilePicture)
	require.Equal(t, []string{"https://cdn.test/profiles/old.png"}, f.store.deleted)
}

func TestDeleteAccount_SoftDeletes(t *testing.T) {
	f := newUserFixture()
	user := f.addStudent("Asha", "CS21B001")
	user.ProfilePicture = "https://cdn.test/profiles/asha.png"

	err := f.usecase.DeleteAccount(context.Background(), user.ID.Hex())
	require.NoError(t, err)

	// The document survives for audit; active-only reads no longer see it.
	require.Equal(t, model.StatusDeleted, user.AccountStatus)
	_, err = f.userRepo.GetUser(context.Background(), user.ID.Hex(), repository.ActiveOnly)
	require.Error(t, err)
	require.Contains(t, f.store.deleted, "https://cdn.test/profiles/asha.png")
}

func TestGetPrivacy_SynthesizesDefaults(t *testing.T) {
	f := newUserFixture()
	user := f.addStudent("Asha", "CS21B001")

	settings, err := f.usecase.GetPrivacy(context.Background(), user.ID.Hex())
	require.NoError(t, err)
	require.Equal(t, model.VisibilityPublic, settings.ProfileVisibility)
	require.True(t, settings.ShowEmail)
	require.False(t, settings.ShowPhone)
	require.True(t, settings.AllowConnectionRequests)
}

func TestUpdatePrivacy_PartialUpdateKeepsDefaults(t *testing.T) {
	f := newUserFixture()
	user := f.addStudent("Asha", "CS21B001")

	visibility := model.VisibilityConnections
	settings, err := f.usecase.UpdatePrivacy(context.Background(), user.ID.Hex(), repository.UpdatePrivacyParams{
		ProfileVisibility: &visibility,
	})
	require.NoError(t, err)
	require.Equal(t, model.VisibilityConnections, settings.ProfileVisibility)
	require.True(t, settings.ShowEmail)
	require.True(t, settings.AllowConnectionRequests)
}
