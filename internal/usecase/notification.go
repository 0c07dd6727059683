package usecase

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/campusconnect/student-network-api/internal/model"
	"github.com/campusconnect/student-network-api/internal/repository"
)

var ErrNotificationNotFound = errors.New("notification not found")

// NotificationUsecase reads and acknowledges a user's notification feed.
type NotificationUsecase interface {
	List(ctx context.Context, userID string, unreadOnly bool, page, limit int64) ([]*model.Notification, int64, int64, error)
	MarkRead(ctx context.Context, id, userID string) error
	MarkAllRead(ctx context.Context, userID string) (int64, error)
}

type notificationUsecase struct {
	notifRepo repository.NotificationRepository
}

// NewNotificationUsecase creates a new NotificationUsecase.
func NewNotificationUsecase(notifRepo repository.NotificationRepository) NotificationUsecase {
	return &notificationUsecase{notifRepo: notifRepo}
}

// List returns a page of the user's notifications, newest first, along
// with the page total and the user's unread count.
func (u *notificationUsecase) List(
	ctx context.Context,
	userID string,
	unreadOnly bool,
	page, limit int64,
) ([]*model.Notification, int64, int64, error) {
	userOID, err := bson.ObjectIDFromHex(userID)
	if err != nil {
		return nil, 0, 0, err
	}

	notifications, total, err := u.notifRepo.ListNotifications(ctx, userOID, unreadOnly, page, limit)
	if err != nil {
		return nil, 0, 0, err
	}

	unread, err := u.notifRepo.CountUnread(ctx, userOID)
	if err != nil {
		return nil, 0, 0, err
	}

	return notifications, total, unread, nil
}

// MarkRead acknowledges one notification. A notification owned by someone
// else is indistinguishable from a missing one.
func (u *notificationUsecase) MarkRead(ctx context.Context, id, userID string) error {
	userOID, err := bson.ObjectIDFromHex(userID)
	if err != nil {
		return err
	}

	if err := u.notifRepo.MarkRead(ctx, id, userOID); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrNotificationNotFound
		}
		return err
	}

	return nil
}

// MarkAllRead acknowledges everything unread and reports how many changed.
func (u *notificationUsecase) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	userOID, err := bson.ObjectIDFromHex(userID)
	if err != nil {
		return 0, err
	}

	return u.notifRepo.MarkAllRead(ctx, userOID)
}
