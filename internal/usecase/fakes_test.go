package usecase

import (
	"context"
	"errors"
	"io"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/campusconnect/student-network-api/internal/model"
	"github.com/campusconnect/student-network-api/internal/repository"
)

// In-memory repository fakes. They mirror the store's observable behavior:
// mongo.ErrNoDocuments on misses and a duplicate-key server error on
// pair_key collisions.

var errDuplicateKey = mongo.CommandError{Code: 11000, Message: "duplicate key error"}

type fakeUserRepo struct {
	users map[bson.ObjectID]*model.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[bson.ObjectID]*model.User)}
}

func (f *fakeUserRepo) add(user *model.User) *model.User {
	if user.ID.IsZero() {
		user.ID = bson.NewObjectID()
	}
	if user.AccountStatus == "" {
		user.AccountStatus = model.StatusActive
	}
	f.users[user.ID] = user
	return user
}

func (f *fakeUserRepo) matches(user *model.User, status repository.StatusFilter) bool {
	return status == repository.AnyStatus || user.AccountStatus == model.StatusActive
}

func (f *fakeUserRepo) CreateUser(_ context.Context, user *model.User) (*model.User, error) {
	for _, existing := range f.users {
		if existing.Email == user.Email || existing.RollNumber == user.RollNumber {
			return nil, errDuplicateKey
		}
	}
	user.CreatedAt = time.Now()
	return f.add(user), nil
}

func (f *fakeUserRepo) GetUser(_ context.Context, id string, status repository.StatusFilter) (*model.User, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, err
	}
	user, ok := f.users[oid]
	if !ok || !f.matches(user, status) {
		return nil, mongo.ErrNoDocuments
	}
	return user, nil
}

func (f *fakeUserRepo) GetUserByEmail(_ context.Context, email string, status repository.StatusFilter) (*model.User, error) {
	for _, user := range f.users {
		if user.Email == email && f.matches(user, status) {
			return user, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (f *fakeUserRepo) GetUserByRollNumber(_ context.Context, rollNumber string, status repository.StatusFilter) (*model.User, error) {
	for _, user := range f.users {
		if user.RollNumber == rollNumber && f.matches(user, status) {
			return user, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (f *fakeUserRepo) UpdateUser(ctx context.Context, id string, params repository.UpdateUserParams) (*model.User, error) {
	user, err := f.GetUser(ctx, id, repository.AnyStatus)
	if err != nil {
		return nil, err
	}
	if params.Name != nil {
		user.Name = *params.Name
	}
	if params.Bio != nil {
		user.Bio = *params.Bio
	}
	if params.Phone != nil {
		user.Phone = *params.Phone
	}
	if params.LinkedIn != nil {
		user.LinkedIn = *params.LinkedIn
	}
	if params.GitHub != nil {
		user.GitHub = *params.GitHub
	}
	if params.Skills != nil {
		user.Skills = *params.Skills
	}
	if params.Interests != nil {
		user.Interests = *params.Interests
	}
	if params.Year != nil {
		user.Year = *params.Year
	}
	if params.Branch != nil {
		user.Branch = *params.Branch
	}
	if params.ProfilePicture != nil {
		user.ProfilePicture = *params.ProfilePicture
	}
	if params.PasswordHash != nil {
		user.PasswordHash = *params.PasswordHash
	}
	if params.AccountStatus != nil {
		user.AccountStatus = *params.AccountStatus
	}
	if params.LastActive != nil {
		user.LastActive = *params.LastActive
	}
	return user, nil
}

func (f *fakeUserRepo) DeleteUser(_ context.Context, id string) error {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return err
	}
	if _, ok := f.users[oid]; !ok {
		return mongo.ErrNoDocuments
	}
	delete(f.users, oid)
	return nil
}

func (f *fakeUserRepo) SearchUsers(_ context.Context, _ string, _ repository.StatusFilter, _, _ int64) ([]*model.User, int64, error) {
	return nil, 0, nil
}

func (f *fakeUserRepo) FilterUsers(_ context.Context, _ repository.FilterUsersParams, _ repository.StatusFilter, _, _ int64) ([]*model.User, int64, error) {
	return nil, 0, nil
}

func (f *fakeUserRepo) ListUsersByIDs(_ context.Context, ids []bson.ObjectID, status repository.StatusFilter) ([]*model.User, error) {
	var users []*model.User
	for _, id := range ids {
		if user, ok := f.users[id]; ok && f.matches(user, status) {
			users = append(users, user)
		}
	}
	return users, nil
}

func (f *fakeUserRepo) ListCandidates(_ context.Context, exclude []bson.ObjectID) ([]*model.User, error) {
	excluded := make(map[bson.ObjectID]bool, len(exclude))
	for _, id := range exclude {
		excluded[id] = true
	}

	var users []*model.User
	for _, user := range f.users {
		if !excluded[user.ID] && user.Verified && user.AccountStatus == model.StatusActive {
			users = append(users, user)
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i].RollNumber < users[j].RollNumber })
	return users, nil
}

func (f *fakeUserRepo) SetOTP(ctx context.Context, id string, code string, expiry time.Time) error {
	user, err := f.GetUser(ctx, id, repository.AnyStatus)
	if err != nil {
		return err
	}
	user.OTP = code
	user.OTPExpiry = expiry
	user.OTPAttempts = 0
	return nil
}

func (f *fakeUserRepo) ClearOTP(ctx context.Context, id string, markVerified bool) error {
	user, err := f.GetUser(ctx, id, repository.AnyStatus)
	if err != nil {
		return err
	}
	user.OTP = ""
	user.OTPExpiry = time.Time{}
	user.OTPAttempts = 0
	if markVerified {
		user.Verified = true
	}
	return nil
}

func (f *fakeUserRepo) IncrementOTPAttempts(ctx context.Context, id string) (int, error) {
	user, err := f.GetUser(ctx, id, repository.AnyStatus)
	if err != nil {
		return 0, err
	}
	user.OTPAttempts++
	return user.OTPAttempts, nil
}

func (f *fakeUserRepo) RegisterFailedLogin(ctx context.Context, id string, maxAttempts int, lockFor time.Duration) error {
	user, err := f.GetUser(ctx, id, repository.AnyStatus)
	if err != nil {
		return err
	}

	now := time.Now()
	if !user.LockUntil.IsZero() && user.LockUntil.Before(now) {
		user.LoginAttempts = 1
		user.LockUntil = time.Time{}
	} else {
		user.LoginAttempts++
	}

	if user.LoginAttempts >= maxAttempts && user.LockUntil.IsZero() {
		user.LockUntil = now.Add(lockFor)
	}
	return nil
}

func (f *fakeUserRepo) ResetLoginAttempts(ctx context.Context, id string) error {
	user, err := f.GetUser(ctx, id, repository.AnyStatus)
	if err != nil {
		return err
	}
	user.LoginAttempts = 0
	user.LockUntil = time.Time{}
	user.LastActive = time.Now()
	return nil
}

type fakeConnectionRepo struct {
	connections map[bson.ObjectID]*model.Connection
}

func newFakeConnectionRepo() *fakeConnectionRepo {
	return &fakeConnectionRepo{connections: make(map[bson.ObjectID]*model.Connection)}
}

func (f *fakeConnectionRepo) add(conn *model.Connection) *model.Connection {
	if conn.ID.IsZero() {
		conn.ID = bson.NewObjectID()
	}
	conn.PairKey = model.PairKeyFor(conn.SenderID, conn.ReceiverID)
	if conn.Status == "" {
		conn.Status = model.ConnectionPending
	}
	if conn.RequestedAt.IsZero() {
		conn.RequestedAt = time.Now()
	}
	f.connections[conn.ID] = conn
	return conn
}

func (f *fakeConnectionRepo) CreateConnection(_ context.Context, conn *model.Connection) (*model.Connection, error) {
	pairKey := model.PairKeyFor(conn.SenderID, conn.ReceiverID)
	for _, existing := range f.connections {
		if existing.PairKey == pairKey {
			return nil, errDuplicateKey
		}
	}
	return f.add(conn), nil
}

func (f *fakeConnectionRepo) GetConnection(_ context.Context, id string) (*model.Connection, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, err
	}
	conn, ok := f.connections[oid]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	return conn, nil
}

func (f *fakeConnectionRepo) GetConnectionByPair(_ context.Context, a, b bson.ObjectID) (*model.Connection, error) {
	pairKey := model.PairKeyFor(a, b)
	for _, conn := range f.connections {
		if conn.PairKey == pairKey {
			return conn, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (f *fakeConnectionRepo) UpdateConnectionStatus(ctx context.Context, id string, from, to string) (*model.Connection, error) {
	conn, err := f.GetConnection(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotModified
		}
		return nil, err
	}
	if conn.Status != from {
		return nil, repository.ErrNotModified
	}
	conn.Status = to
	conn.RespondedAt = time.Now()
	return conn, nil
}

func (f *fakeConnectionRepo) DeleteConnection(ctx context.Context, id string) error {
	conn, err := f.GetConnection(ctx, id)
	if err != nil {
		return err
	}
	delete(f.connections, conn.ID)
	return nil
}

func (f *fakeConnectionRepo) ListAccepted(_ context.Context, userID bson.ObjectID, _, _ int64) ([]*model.Connection, int64, error) {
	var conns []*model.Connection
	for _, conn := range f.connections {
		if conn.Status == model.ConnectionAccepted && conn.Participant(userID) {
			conns = append(conns, conn)
		}
	}
	return conns, int64(len(conns)), nil
}

func (f *fakeConnectionRepo) ListPending(_ context.Context, userID bson.ObjectID, incoming bool, _, _ int64) ([]*model.Connection, int64, error) {
	var conns []*model.Connection
	for _, conn := range f.connections {
		if conn.Status != model.ConnectionPending {
			continue
		}
		if incoming && conn.ReceiverID == userID {
			conns = append(conns, conn)
		}
		if !incoming && conn.SenderID == userID {
			conns = append(conns, conn)
		}
	}
	return conns, int64(len(conns)), nil
}

func (f *fakeConnectionRepo) ListByUser(_ context.Context, userID bson.ObjectID, statuses ...string) ([]*model.Connection, error) {
	wanted := make(map[string]bool, len(statuses))
	for _, status := range statuses {
		wanted[status] = true
	}

	var conns []*model.Connection
	for _, conn := range f.connections {
		if !conn.Participant(userID) {
			continue
		}
		if len(statuses) > 0 && !wanted[conn.Status] {
			continue
		}
		conns = append(conns, conn)
	}
	return conns, nil
}

type fakePrivacyRepo struct {
	settings map[bson.ObjectID]*model.PrivacySetting
}

func newFakePrivacyRepo() *fakePrivacyRepo {
	return &fakePrivacyRepo{settings: make(map[bson.ObjectID]*model.PrivacySetting)}
}

func (f *fakePrivacyRepo) GetByUserID(_ context.Context, userID bson.ObjectID) (*model.PrivacySetting, error) {
	settings, ok := f.settings[userID]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	return settings, nil
}

func (f *fakePrivacyRepo) Upsert(_ context.Context, userID bson.ObjectID, params repository.UpdatePrivacyParams) (*model.PrivacySetting, error) {
	settings, ok := f.settings[userID]
	if !ok {
		settings = model.DefaultPrivacySetting(userID)
		f.settings[userID] = settings
	}
	if params.ProfileVisibility != nil {
		settings.ProfileVisibility = *params.ProfileVisibility
	}
	if params.ShowEmail != nil {
		settings.ShowEmail = *params.ShowEmail
	}
	if params.ShowPhone != nil {
		settings.ShowPhone = *params.ShowPhone
	}
	if params.ShowConnections != nil {
		settings.ShowConnections = *params.ShowConnections
	}
	if params.ShowAchievements != nil {
		settings.ShowAchievements = *params.ShowAchievements
	}
	if params.AllowConnectionRequests != nil {
		settings.AllowConnectionRequests = *params.AllowConnectionRequests
	}
	return settings, nil
}

type fakeNotificationRepo struct {
	notifications []*model.Notification
}

func newFakeNotificationRepo() *fakeNotificationRepo {
	return &fakeNotificationRepo{}
}

func (f *fakeNotificationRepo) CreateNotification(_ context.Context, n *model.Notification) (*model.Notification, error) {
	if n.ID.IsZero() {
		n.ID = bson.NewObjectID()
	}
	n.CreatedAt = time.Now()
	f.notifications = append(f.notifications, n)
	return n, nil
}

func (f *fakeNotificationRepo) ListNotifications(_ context.Context, userID bson.ObjectID, unreadOnly bool, _, _ int64) ([]*model.Notification, int64, error) {
	var out []*model.Notification
	for _, n := range f.notifications {
		if n.UserID != userID {
			continue
		}
		if unreadOnly && n.IsRead {
			continue
		}
		out = append(out, n)
	}
	return out, int64(len(out)), nil
}

func (f *fakeNotificationRepo) CountUnread(_ context.Context, userID bson.ObjectID) (int64, error) {
	var count int64
	for _, n := range f.notifications {
		if n.UserID == userID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (f *fakeNotificationRepo) MarkRead(_ context.Context, id string, userID bson.ObjectID) error {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return err
	}
	for _, n := range f.notifications {
		if n.ID == oid && n.UserID == userID {
			n.IsRead = true
			return nil
		}
	}
	return mongo.ErrNoDocuments
}

func (f *fakeNotificationRepo) MarkAllRead(_ context.Context, userID bson.ObjectID) (int64, error) {
	var updated int64
	for _, n := range f.notifications {
		if n.UserID == userID && !n.IsRead {
			n.IsRead = true
			updated++
		}
	}
	return updated, nil
}

func (f *fakeNotificationRepo) lastFor(userID bson.ObjectID) *model.Notification {
	for i := len(f.notifications) - 1; i >= 0; i-- {
		if f.notifications[i].UserID == userID {
			return f.notifications[i]
		}
	}
	return nil
}

type fakeAchievementRepo struct {
	achievements map[bson.ObjectID]*model.Achievement
}

func newFakeAchievementRepo() *fakeAchievementRepo {
	return &fakeAchievementRepo{achievements: make(map[bson.ObjectID]*model.Achievement)}
}

func (f *fakeAchievementRepo) add(a *model.Achievement) *model.Achievement {
	if a.ID.IsZero() {
		a.ID = bson.NewObjectID()
	}
	if a.Status == "" {
		a.Status = model.AchievementApproved
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	f.achievements[a.ID] = a
	return a
}

func (f *fakeAchievementRepo) CreateAchievement(_ context.Context, a *model.Achievement) (*model.Achievement, error) {
	return f.add(a), nil
}

func (f *fakeAchievementRepo) GetAchievement(_ context.Context, id string) (*model.Achievement, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, err
	}
	a, ok := f.achievements[oid]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	return a, nil
}

func (f *fakeAchievementRepo) UpdateAchievement(ctx context.Context, id string, params repository.UpdateAchievementParams) (*model.Achievement, error) {
	a, err := f.GetAchievement(ctx, id)
	if err != nil {
		return nil, err
	}
	if params.Title != nil {
		a.Title = *params.Title
	}
	if params.Description != nil {
		a.Description = *params.Description
	}
	if params.Category != nil {
		a.Category = *params.Category
	}
	if params.Technologies != nil {
		a.Technologies = *params.Technologies
	}
	if params.GitHubLink != nil {
		a.GitHubLink = *params.GitHubLink
	}
	if params.LiveLink != nil {
		a.LiveLink = *params.LiveLink
	}
	if params.Images != nil {
		a.Images = *params.Images
	}
	return a, nil
}

func (f *fakeAchievementRepo) DeleteAchievement(ctx context.Context, id string) error {
	a, err := f.GetAchievement(ctx, id)
	if err != nil {
		return err
	}
	delete(f.achievements, a.ID)
	return nil
}

func (f *fakeAchievementRepo) ListAchievements(_ context.Context, _ repository.ListAchievementsParams) ([]*model.Achievement, int64, error) {
	return nil, 0, nil
}

func (f *fakeAchievementRepo) ListFeatured(_ context.Context, _ int64) ([]*model.Achievement, error) {
	return nil, nil
}

func (f *fakeAchievementRepo) ListCreatedSince(_ context.Context, since time.Time) ([]*model.Achievement, error) {
	var out []*model.Achievement
	ids := make([]bson.ObjectID, 0, len(f.achievements))
	for id := range f.achievements {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].Hex() < ids[j].Hex() })
	for _, id := range ids {
		a := f.achievements[id]
		if a.Status == model.AchievementApproved && !a.CreatedAt.Before(since) {
			out = append(out, a)
		}
	}
	return out, nil
}

// AddLike mirrors the store's update: a missing document matches nothing
// and reports (false, nil), never an error.
func (f *fakeAchievementRepo) AddLike(ctx context.Context, id string, userID bson.ObjectID) (bool, error) {
	a, err := f.GetAchievement(ctx, id)
	if err != nil {
		return false, nil
	}
	if a.LikedBy(userID) {
		return false, nil
	}
	a.Likes = append(a.Likes, userID)
	return true, nil
}

func (f *fakeAchievementRepo) RemoveLike(ctx context.Context, id string, userID bson.ObjectID) error {
	a, err := f.GetAchievement(ctx, id)
	if err != nil {
		return nil
	}
	likes := a.Likes[:0]
	for _, like := range a.Likes {
		if like != userID {
			likes = append(likes, like)
		}
	}
	a.Likes = likes
	return nil
}

func (f *fakeAchievementRepo) IncrementViews(ctx context.Context, id string) (int64, error) {
	a, err := f.GetAchievement(ctx, id)
	if err != nil {
		return 0, err
	}
	a.Views++
	return a.Views, nil
}

func (f *fakeAchievementRepo) SetFeatured(ctx context.Context, id string, featured bool) (*model.Achievement, error) {
	a, err := f.GetAchievement(ctx, id)
	if err != nil {
		return nil, err
	}
	a.Featured = featured
	return a, nil
}

type fakeMailer struct {
	sent []sentEmail
	fail bool
}

type sentEmail struct {
	to      []string
	subject string
	body    string
}

func (f *fakeMailer) SendHTML(to []string, subject, htmlBody string) error {
	if f.fail {
		return errors.New("smtp unavailable")
	}
	f.sent = append(f.sent, sentEmail{to: to, subject: subject, body: htmlBody})
	return nil
}

type fakeObjectStore struct {
	stored  []string
	deleted []string
	fail    bool
}

func (f *fakeObjectStore) Store(_ context.Context, folder, filename string, _ io.Reader, _ string) (string, error) {
	if f.fail {
		return "", errors.New("storage unavailable")
	}
	url := "https://cdn.test/" + folder + "/" + filename
	f.stored = append(f.stored, url)
	return url, nil
}

func (f *fakeObjectStore) Delete(_ context.Context, url string) error {
	f.deleted = append(f.deleted, url)
	return nil
}
