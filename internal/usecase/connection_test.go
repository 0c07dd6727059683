package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/campusconnect/student-network-api/internal/model"
)

type connectionFixture struct {
	userRepo    *fakeUserRepo
	connRepo    *fakeConnectionRepo
	privacyRepo *fakePrivacyRepo
	notifRepo   *fakeNotificationRepo
	usecase     ConnectionUsecase
}

func newConnectionFixture() *connectionFixture {
	userRepo := newFakeUserRepo()
	connRepo := newFakeConnectionRepo()
	privacyRepo := newFakePrivacyRepo()
	notifRepo := newFakeNotificationRepo()

	return &connectionFixture{
		userRepo:    userRepo,
		connRepo:    connRepo,
		privacyRepo: privacyRepo,
		notifRepo:   notifRepo,
		usecase:     NewConnectionUsecase(connRepo, userRepo, privacyRepo, notifRepo),
	}
}

func (f *connectionFixture) addStudent(name, roll string) *model.User {
	return f.userRepo.add(&model.User{
		Name:       name,
		Email:      roll + "@campus.edu",
		RollNumber: roll,
		Verified:   true,
	})
}

func TestConnectionRequest_CreatesPendingEdgeAndNotifies(t *testing.T) {
	f := newConnectionFixture()
	sender := f.addStudent("Asha", "CS21B001")
	receiver := f.addStudent("Ravi", "CS21B002")

	conn, err := f.usecase.Request(context.Background(), sender.ID.Hex(), receiver.ID.Hex(), "hi!")
	require.NoError(t, err)
	require.Equal(t, model.ConnectionPending, conn.Status)
	require.Equal(t, sender.ID, conn.SenderID)
	require.Equal(t, receiver.ID, conn.ReceiverID)

	notif := f.notifRepo.lastFor(receiver.ID)
	require.NotNil(t, notif)
	require.Equal(t, model.NotificationConnectionRequest, notif.Type)
	require.Contains(t, notif.Message, "Asha")
	require.Contains(t, notif.Message, "CS21B001")
}

func TestConnectionRequest_SelfRejected(t *testing.T) {
	f := newConnectionFixture()
	user := f.addStudent("Asha", "CS21B001")

	_, err := f.usecase.Request(context.Background(), user.ID.Hex(), user.ID.Hex(), "")
	require.ErrorIs(t, err, ErrSelfRequest)
}

func TestConnectionRequest_UnknownReceiver(t *testing.T) {
	f := newConnectionFixture()
	sender := f.addStudent("Asha", "CS21B001")

	_, err := f.usecase.Request(context.Background(), sender.ID.Hex(), "64b000000000000000000000", "")
	require.ErrorIs(t, err, ErrReceiverNotFound)
}

func TestConnectionRequest_ReceiverOptedOut(t *testing.T) {
	f := newConnectionFixture()
	sender := f.addStudent("Asha", "CS21B001")
	receiver := f.addStudent("Ravi", "CS21B002")

	settings := model.DefaultPrivacySetting(receiver.ID)
	settings.AllowConnectionRequests = false
	f.privacyRepo.settings[receiver.ID] = settings

	_, err := f.usecase.Request(context.Background(), sender.ID.Hex(), receiver.ID.Hex(), "")
	require.ErrorIs(t, err, ErrRequestsDisabled)
}

// Each existing edge state maps to its own conflict so the client can say
// exactly why the request is impossible.
func TestConnectionRequest_PairConflicts(t *testing.T) {
	f := newConnectionFixture()
	sender := f.addStudent("Asha", "CS21B001")
	receiver := f.addStudent("Ravi", "CS21B002")

	testCases := []struct {
		name     string
		status   string
		reversed bool
		want     error
	}{
		{name: "already accepted", status: model.ConnectionAccepted, want: ErrAlreadyConnected},
		{name: "own request pending", status: model.ConnectionPending, want: ErrRequestAlreadySent},
		{name: "reverse request pending", status: model.ConnectionPending, reversed: true, want: ErrReversePending},
		{name: "pair blocked", status: model.ConnectionBlocked, want: ErrPairBlocked},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f.connRepo.connections = map[bson.ObjectID]*model.Connection{}

			edge := &model.Connection{SenderID: sender.ID, ReceiverID: receiver.ID, Status: tc.status}
			if tc.reversed {
				edge.SenderID, edge.ReceiverID = receiver.ID, sender.ID
			}
			f.connRepo.add(edge)

			_, err := f.usecase.Request(context.Background(), sender.ID.Hex(), receiver.ID.Hex(), "")
			require.ErrorIs(t, err, tc.want)
		})
	}
}

func TestConnectionAccept_RecipientOnly(t *testing.T) {
	f := newConnectionFixture()
	sender := f.addStudent("Asha", "CS21B001")
	receiver := f.addStudent("Ravi", "CS21B002")

	conn, err := f.usecase.Request(context.Background(), sender.ID.Hex(), receiver.ID.Hex(), "")
	require.NoError(t, err)

	_, err = f.usecase.Accept(context.Background(), conn.ID.Hex(), sender.ID.Hex())
	require.ErrorIs(t, err, ErrNotRecipient)

	accepted, err := f.usecase.Accept(context.Background(), conn.ID.Hex(), receiver.ID.Hex())
	require.NoError(t, err)
	require.Equal(t, model.ConnectionAccepted, accepted.Status)
	require.False(t, accepted.RespondedAt.IsZero())

	notif := f.notifRepo.lastFor(sender.ID)
	require.NotNil(t, notif)
	require.Equal(t, model.NotificationConnectionAccepted, notif.Type)
}

func TestConnectionAccept_NotPending(t *testing.T) {
	f := newConnectionFixture()
	sender := f.addStudent("Asha", "CS21B001")
	receiver := f.addStudent("Ravi", "CS21B002")

	conn, err := f.usecase.Request(context.Background(), sender.ID.Hex(), receiver.ID.Hex(), "")
	require.NoError(t, err)

	_, err = f.usecase.Accept(context.Background(), conn.ID.Hex(), receiver.ID.Hex())
	require.NoError(t, err)

	_, err = f.usecase.Accept(context.Background(), conn.ID.Hex(), receiver.ID.Hex())
	require.ErrorIs(t, err, ErrNotPending)
}

// A rejected edge is terminal: the document stays, so the sender cannot
// simply ask again.
func TestConnectionReject_Terminal(t *testing.T) {
	f := newConnectionFixture()
	sender := f.addStudent("Asha", "CS21B001")
	receiver := f.addStudent("Ravi", "CS21B002")

	conn, err := f.usecase.Request(context.Background(), sender.ID.Hex(), receiver.ID.Hex(), "")
	require.NoError(t, err)

	err = f.usecase.Reject(context.Background(), conn.ID.Hex(), receiver.ID.Hex())
	require.NoError(t, err)

	notif := f.notifRepo.lastFor(sender.ID)
	require.NotNil(t, notif)
	require.Equal(t, model.NotificationConnectionRejected, notif.Type)

	_, err = f.usecase.Request(context.Background(), sender.ID.Hex(), receiver.ID.Hex(), "")
	require.ErrorIs(t, err, ErrPairBlocked)
}

func TestConnectionRemove_AcceptedOnlyAndIdempotenceReportsNotFound(t *testing.T) {
	f := newConnectionFixture()
	sender := f.addStudent("Asha", "CS21B001")
	receiver := f.addStudent("Ravi", "CS21B002")

	conn, err := f.usecase.Request(context.Background(), sender.ID.Hex(), receiver.ID.Hex(), "")
	require.NoError(t, err)

	err = f.usecase.Remove(context.Background(), conn.ID.Hex(), sender.ID.Hex())
	require.ErrorIs(t, err, ErrNotAccepted)

	_, err = f.usecase.Accept(context.Background(), conn.ID.Hex(), receiver.ID.Hex())
	require.NoError(t, err)

	stranger := f.addStudent("Maya", "CS21B003")
	err = f.usecase.Remove(context.Background(), conn.ID.Hex(), stranger.ID.Hex())
	require.ErrorIs(t, err, ErrNotParticipant)

	err = f.usecase.Remove(context.Background(), conn.ID.Hex(), receiver.ID.Hex())
	require.NoError(t, err)

	err = f.usecase.Remove(context.Background(), conn.ID.Hex(), receiver.ID.Hex())
	require.ErrorIs(t, err, ErrConnectionNotFound)
}

// After removal the pair can connect again from either direction.
func TestConnectionRemove_FreesThePair(t *testing.T) {
	f := newConnectionFixture()
	sender := f.addStudent("Asha", "CS21B001")
	receiver := f.addStudent("Ravi", "CS21B002")

	conn, err := f.usecase.Request(context.Background(), sender.ID.Hex(), receiver.ID.Hex(), "")
	require.NoError(t, err)
	_, err = f.usecase.Accept(context.Background(), conn.ID.Hex(), receiver.ID.Hex())
	require.NoError(t, err)

	err = f.usecase.Remove(context.Background(), conn.ID.Hex(), sender.ID.Hex())
	require.NoError(t, err)

	_, err = f.usecase.Request(context.Background(), receiver.ID.Hex(), sender.ID.Hex(), "")
	require.NoError(t, err)
}

func TestListAccepted_ShapesCounterpart(t *testing.T) {
	f := newConnectionFixture()
	asha := f.addStudent("Asha", "CS21B001")
	ravi := f.addStudent("Ravi", "CS21B002")

	conn, err := f.usecase.Request(context.Background(), asha.ID.Hex(), ravi.ID.Hex(), "")
	require.NoError(t, err)
	_, err = f.usecase.Accept(context.Background(), conn.ID.Hex(), ravi.ID.Hex())
	require.NoError(t, err)

	entries, total, err := f.usecase.ListAccepted(context.Background(), asha.ID.Hex(), 1, 20)
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Len(t, entries, 1)
	require.Equal(t, ravi.ID, entries[0].User.ID)

	entries, _, err = f.usecase.ListAccepted(context.Background(), ravi.ID.Hex(), 1, 20)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, asha.ID, entries[0].User.ID)
}

func TestListPending_Directions(t *testing.T) {
	f := newConnectionFixture()
	asha := f.addStudent("Asha", "CS21B001")
	ravi := f.addStudent("Ravi", "CS21B002")

	_, err := f.usecase.Request(context.Background(), asha.ID.Hex(), ravi.ID.Hex(), "hello")
	require.NoError(t, err)

	incoming, total, err := f.usecase.ListPending(context.Background(), ravi.ID.Hex(), true, 1, 20)
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Len(t, incoming, 1)
	require.Equal(t, asha.ID, incoming[0].User.ID)
	require.Equal(t, "hello", incoming[0].Message)

	outgoing, _, err := f.usecase.ListPending(context.Background(), asha.ID.Hex(), false, 1, 20)
	require.NoError(t, err)
	require.Len(t, outgoing, 1)
	require.Equal(t, ravi.ID, outgoing[0].User.ID)

	none, _, err := f.usecase.ListPending(context.Background(), asha.ID.Hex(), true, 1, 20)
	require.NoError(t, err)
	require.Empty(t, none)
}

func TestMutual_IntersectsNeighborSets(t *testing.T) {
	f := newConnectionFixture()
	asha := f.addStudent("Asha", "CS21B001")
	ravi := f.addStudent("Ravi", "CS21B002")
	maya := f.addStudent("Maya", "CS21B003")
	zoya := f.addStudent("Zoya", "CS21B004")

	connect := func(a, b *model.User) {
		conn, err := f.usecase.Request(context.Background(), a.ID.Hex(), b.ID.Hex(), "")
		require.NoError(t, err)
		_, err = f.usecase.Accept(context.Background(), conn.ID.Hex(), b.ID.Hex())
		require.NoError(t, err)
	}

	connect(asha, maya)
	connect(ravi, maya)
	connect(asha, zoya)

	mutual, err := f.usecase.Mutual(context.Background(), asha.ID.Hex(), ravi.ID.Hex())
	require.NoError(t, err)
	require.Len(t, mutual, 1)
	require.Equal(t, maya.ID, mutual[0].ID)

	mutual, err = f.usecase.Mutual(context.Background(), ravi.ID.Hex(), zoya.ID.Hex())
	require.NoError(t, err)
	require.Empty(t, mutual)
}
