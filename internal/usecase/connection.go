package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/campusconnect/student-network-api/internal/model"
	"github.com/campusconnect/student-network-api/internal/repository"
)

var (
	ErrSelfRequest        = errors.New("cannot send connection request to yourself")
	ErrReceiverNotFound   = errors.New("receiver not found")
	ErrRequestsDisabled   = errors.New("this user is not accepting connection requests")
	ErrAlreadyConnected   = errors.New("you are already connected")
	ErrRequestAlreadySent = errors.New("connection request already sent")
	ErrReversePending     = errors.New("this user has already sent you a connection request")
	ErrPairBlocked        = errors.New("cannot send connection request")
	ErrConnectionNotFound = errors.New("connection not found")
	ErrNotRecipient       = errors.New("not authorized to respond to this request")
	ErrNotPending         = errors.New("connection request is no longer pending")
	ErrNotParticipant     = errors.New("not authorized to remove this connection")
	ErrNotAccepted        = errors.New("can only remove accepted connections")
)

// ConnectionUsecase manages the bidirectional connection graph: edge
// requests and transitions, accepted/pending listings, mutual neighbors,
// and weighted suggestions.
type ConnectionUsecase interface {
	Request(ctx context.Context, senderID, receiverID, message string) (*model.Connection, error)
	Accept(ctx context.Context, requestID, actingUserID string) (*model.Connection, error)
	Reject(ctx context.Context, requestID, actingUserID string) error
	Remove(ctx context.Context, connectionID, actingUserID string) error

	ListAccepted(ctx context.Context, userID string, page, limit int64) ([]*ConnectionEntry, int64, error)
	ListPending(ctx context.Context, userID string, incoming bool, page, limit int64) ([]*PendingRequest, int64, error)
	Mutual(ctx context.Context, userID, targetUserID string) ([]*model.User, error)
	Suggest(ctx context.Context, userID string, limit int) ([]*Suggestion, error)
}

// ConnectionEntry is one accepted edge shaped for its viewer: the account
// on the other side and the time the edge was accepted.
type ConnectionEntry struct {
	ConnectionID bson.ObjectID
	User         *model.User
	ConnectedAt  time.Time
}

// PendingRequest is one unresolved edge shaped for its viewer.
type PendingRequest struct {
	ConnectionID bson.ObjectID
	User         *model.User
	Message      string
	RequestedAt  time.Time
}

type connectionUsecase struct {
	connRepo    repository.ConnectionRepository
	userRepo    repository.UserRepository
	privacyRepo repository.PrivacySettingRepository
	notifRepo   repository.NotificationRepository
}

// NewConnectionUsecase creates a new ConnectionUsecase.
func NewConnectionUsecase(
	connRepo repository.ConnectionRepository,
	userRepo repository.UserRepository,
	privacyRepo repository.PrivacySettingRepository,
	notifRepo repository.NotificationRepository,
) ConnectionUsecase {
	return &connectionUsecase{
		connRepo:    connRepo,
		userRepo:    userRepo,
		privacyRepo: privacyRepo,
		notifRepo:   notifRepo,
	}
}

// Request creates a pending edge from sender to receiver. The pre-insert
// pair lookup only picks the caller-facing conflict message; the unique
// pair_key index is what actually guarantees at most one edge per unordered
// pair when two requests race.
func (u *connectionUsecase) Request(
	ctx context.Context,
	senderID, receiverID, message string,
) (*model.Connection, error) {
	if senderID == receiverID {
		return nil, ErrSelfRequest
	}

	senderOID, err := bson.ObjectIDFromHex(senderID)
	if err != nil {
		return nil, err
	}
	receiverOID, err := bson.ObjectIDFromHex(receiverID)
	if err != nil {
		return nil, ErrReceiverNotFound
	}

	receiver, err := u.userRepo.GetUser(ctx, receiverID, repository.ActiveOnly)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrReceiverNotFound
		}
		return nil, err
	}

	settings, err := u.privacyRepo.GetByUserID(ctx, receiver.ID)
	if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}
	if settings != nil && !settings.AllowConnectionRequests {
		return nil, ErrRequestsDisabled
	}

	existing, err := u.connRepo.GetConnectionByPair(ctx, senderOID, receiverOID)
	if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}
	if existing != nil {
		return nil, pairConflict(existing, senderOID)
	}

	conn, err := u.connRepo.CreateConnection(ctx, &model.Connection{
		SenderID:   senderOID,
		ReceiverID: receiverOID,
		Message:    message,
		Status:     model.ConnectionPending,
	})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			// Lost the race; re-read the winner to classify the conflict.
			winner, lookupErr := u.connRepo.GetConnectionByPair(ctx, senderOID, receiverOID)
			if lookupErr != nil {
				return nil, lookupErr
			}
			return nil, pairConflict(winner, senderOID)
		}
		return nil, err
	}

	sender, err := u.userRepo.GetUser(ctx, senderID, repository.ActiveOnly)
	if err != nil {
		return nil, err
	}

	if _, err := u.notifRepo.CreateNotification(ctx, &model.Notification{
		UserID:       receiverOID,
		Type:         model.NotificationConnectionRequest,
		Title:        "New Connection Request",
		Message:      fmt.Sprintf("%s (%s) sent you a connection request", sender.Name, sender.RollNumber),
		RelatedID:    conn.ID,
		RelatedModel: model.RelatedConnection,
	}); err != nil {
		return nil, err
	}

	return conn, nil
}

// pairConflict maps an existing edge to the caller-facing conflict for a
// new request from sender.
func pairConflict(existing *model.Connection, senderID bson.ObjectID) error {
	switch existing.Status {
	case model.ConnectionAccepted:
		return ErrAlreadyConnected
	case model.ConnectionPending:
		if existing.SenderID == senderID {
			return ErrRequestAlreadySent
		}
		return ErrReversePending
	case model.ConnectionBlocked:
		return ErrPairBlocked
	default:
		return ErrPairBlocked
	}
}

// Accept moves a pending edge to accepted. Only the recipient may accept;
// a non-pending edge fails distinctly from a wrong actor.
func (u *connectionUsecase) Accept(ctx context.Context, requestID, actingUserID string) (*model.Connection, error) {
	conn, actorOID, err := u.loadForResponse(ctx, requestID, actingUserID)
	if err != nil {
		return nil, err
	}

	updated, err := u.connRepo.UpdateConnectionStatus(
		ctx,
		conn.ID.Hex(),
		model.ConnectionPending,
		model.ConnectionAccepted,
	)
	if err != nil {
		if errors.Is(err, repository.ErrNotModified) {
			return nil, ErrNotPending
		}
		return nil, err
	}

	accepter, err := u.userRepo.GetUser(ctx, actingUserID, repository.ActiveOnly)
	if err != nil {
		return nil, err
	}

	if _, err := u.notifRepo.CreateNotification(ctx, &model.Notification{
		UserID:       updated.Counterpart(actorOID),
		Type:         model.NotificationConnectionAccepted,
		Title:        "Connection Request Accepted",
		Message:      fmt.Sprintf("%s (%s) accepted your connection request", accepter.Name, accepter.RollNumber),
		RelatedID:    updated.ID,
		RelatedModel: model.RelatedConnection,
	}); err != nil {
		return nil, err
	}

	return updated, nil
}

// Reject moves a pending edge to rejected. Rejected edges are terminal;
// there is no re-request path.
func (u *connectionUsecase) Reject(ctx context.Context, requestID, actingUserID string) error {
	conn, actorOID, err := u.loadForResponse(ctx, requestID, actingUserID)
	if err != nil {
		return err
	}

	updated, err := u.connRepo.UpdateConnectionStatus(
		ctx,
		conn.ID.Hex(),
		model.ConnectionPending,
		model.ConnectionRejected,
	)
	if err != nil {
		if errors.Is(err, repository.ErrNotModified) {
			return ErrNotPending
		}
		return err
	}

	rejecter, err := u.userRepo.GetUser(ctx, actingUserID, repository.ActiveOnly)
	if err != nil {
		return err
	}

	if _, err := u.notifRepo.CreateNotification(ctx, &model.Notification{
		UserID:       updated.Counterpart(actorOID),
		Type:         model.NotificationConnectionRejected,
		Title:        "Connection Request Declined",
		Message:      fmt.Sprintf("%s declined your connection request", rejecter.Name),
		RelatedID:    updated.ID,
		RelatedModel: model.RelatedConnection,
	}); err != nil {
		return err
	}

	return nil
}

// loadForResponse fetches a request edge and verifies the actor is its
// recipient and the edge is still pending.
func (u *connectionUsecase) loadForResponse(
	ctx context.Context,
	requestID, actingUserID string,
) (*model.Connection, bson.ObjectID, error) {
	actorOID, err := bson.ObjectIDFromHex(actingUserID)
	if err != nil {
		return nil, bson.ObjectID{}, err
	}

	conn, err := u.connRepo.GetConnection(ctx, requestID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, bson.ObjectID{}, ErrConnectionNotFound
		}
		return nil, bson.ObjectID{}, err
	}

	if conn.ReceiverID != actorOID {
		return nil, bson.ObjectID{}, ErrNotRecipient
	}

	if conn.Status != model.ConnectionPending {
		return nil, bson.ObjectID{}, ErrNotPending
	}

	return conn, actorOID, nil
}

// Remove hard-deletes an accepted edge. Either participant may remove it;
// removing an already-removed edge reports NotFound.
func (u *connectionUsecase) Remove(ctx context.Context, connectionID, actingUserID string) error {
	actorOID, err := bson.ObjectIDFromHex(actingUserID)
	if err != nil {
		return err
	}

	conn, err := u.connRepo.GetConnection(ctx, connectionID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrConnectionNotFound
		}
		return err
	}

	if !conn.Participant(actorOID) {
		return ErrNotParticipant
	}

	if conn.Status != model.ConnectionAccepted {
		return ErrNotAccepted
	}

	if err := u.connRepo.DeleteConnection(ctx, connectionID); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrConnectionNotFound
		}
		return err
	}

	return nil
}

// ListAccepted returns the viewer's accepted edges ordered by response
// time, newest first, each shaped as the counterpart account.
func (u *connectionUsecase) ListAccepted(
	ctx context.Context,
	userID string,
	page, limit int64,
) ([]*ConnectionEntry, int64, error) {
	userOID, err := bson.ObjectIDFromHex(userID)
	if err != nil {
		return nil, 0, err
	}

	conns, total, err := u.connRepo.ListAccepted(ctx, userOID, page, limit)
	if err != nil {
		return nil, 0, err
	}

	users, err := u.counterpartIndex(ctx, conns, userOID)
	if err != nil {
		return nil, 0, err
	}

	entries := make([]*ConnectionEntry, 0, len(conns))
	for _, conn := range conns {
		counterpart := users[conn.Counterpart(userOID)]
		if counterpart == nil {
			continue
		}
		entries = append(entries, &ConnectionEntry{
			ConnectionID: conn.ID,
			User:         counterpart,
			ConnectedAt:  conn.RespondedAt,
		})
	}

	return entries, total, nil
}

// ListPending returns the viewer's unresolved requests, incoming or
// outgoing, newest first.
func (u *connectionUsecase) ListPending(
	ctx context.Context,
	userID string,
	incoming bool,
	page, limit int64,
) ([]*PendingRequest, int64, error) {
	userOID, err := bson.ObjectIDFromHex(userID)
	if err != nil {
		return nil, 0, err
	}

	conns, total, err := u.connRepo.ListPending(ctx, userOID, incoming, page, limit)
	if err != nil {
		return nil, 0, err
	}

	users, err := u.counterpartIndex(ctx, conns, userOID)
	if err != nil {
		return nil, 0, err
	}

	requests := make([]*PendingRequest, 0, len(conns))
	for _, conn := range conns {
		counterpart := users[conn.Counterpart(userOID)]
		if counterpart == nil {
			continue
		}
		requests = append(requests, &PendingRequest{
			ConnectionID: conn.ID,
			User:         counterpart,
			Message:      conn.Message,
			RequestedAt:  conn.RequestedAt,
		})
	}

	return requests, total, nil
}

// Mutual intersects the accepted-neighbor sets of two accounts.
func (u *connectionUsecase) Mutual(ctx context.Context, userID, targetUserID string) ([]*model.User, error) {
	mine, err := u.acceptedNeighbors(ctx, userID)
	if err != nil {
		return nil, err
	}

	theirs, err := u.acceptedNeighbors(ctx, targetUserID)
	if err != nil {
		return nil, err
	}

	var shared []bson.ObjectID
	for id := range mine {
		if theirs[id] {
			shared = append(shared, id)
		}
	}

	if len(shared) == 0 {
		return nil, nil
	}

	return u.userRepo.ListUsersByIDs(ctx, shared, repository.ActiveOnly)
}

// acceptedNeighbors computes an account's accepted-neighbor set: for every
// accepted edge touching it, the id on the other side.
func (u *connectionUsecase) acceptedNeighbors(ctx context.Context, userID string) (map[bson.ObjectID]bool, error) {
	userOID, err := bson.ObjectIDFromHex(userID)
	if err != nil {
		return nil, err
	}

	conns, err := u.connRepo.ListByUser(ctx, userOID, model.ConnectionAccepted)
	if err != nil {
		return nil, err
	}

	neighbors := make(map[bson.ObjectID]bool, len(conns))
	for _, conn := range conns {
		neighbors[conn.Counterpart(userOID)] = true
	}

	return neighbors, nil
}

func (u *connectionUsecase) counterpartIndex(
	ctx context.Context,
	conns []*model.Connection,
	userOID bson.ObjectID,
) (map[bson.ObjectID]*model.User, error) {
	ids := make([]bson.ObjectID, 0, len(conns))
	for _, conn := range conns {
		ids = append(ids, conn.Counterpart(userOID))
	}

	users, err := u.userRepo.ListUsersByIDs(ctx, ids, repository.ActiveOnly)
	if err != nil {
		return nil, err
	}

	index := make(map[bson.ObjectID]*model.User, len(users))
	for _, user := range users {
		index[user.ID] = user
	}

	return index, nil
}
