package model

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Connection statuses. An edge moves pending -> accepted or pending ->
// rejected; accepted edges are hard-deleted on removal. Rejected and blocked
// edges are terminal.
const (
	ConnectionPending  = "pending"
	ConnectionAccepted = "accepted"
	ConnectionRejected = "rejected"
	ConnectionBlocked  = "blocked"
)

// Connection is a directed request edge between two accounts. PairKey is the
// order-independent form of (sender, receiver) and carries a unique index so
// at most one document can ever exist for an unordered pair, regardless of
// request direction or concurrent retries.
type Connection struct {
	ID          bson.ObjectID `bson:"_id,omitempty"`
	SenderID    bson.ObjectID `bson:"sender_id"`
	ReceiverID  bson.ObjectID `bson:"receiver_id"`
	PairKey     string        `bson:"pair_key"`
	Status      string        `bson:"status"`
	Message     string        `bson:"message,omitempty"`
	RequestedAt time.Time     `bson:"requested_at"`
	RespondedAt time.Time     `bson:"responded_at,omitempty"`
}

// PairKeyFor builds the canonical unordered key for two account ids.
func PairKeyFor(a, b bson.ObjectID) string {
	x, y := a.Hex(), b.Hex()
	if strings.Compare(x, y) > 0 {
		x, y = y, x
	}
	return x + ":" + y
}

// Counterpart returns the id on the other side of the edge from userID.
func (c *Connection) Counterpart(userID bson.ObjectID) bson.ObjectID {
	if c.SenderID == userID {
		return c.ReceiverID
	}
	return c.SenderID
}

// Participant reports whether userID is one of the edge's two endpoints.
func (c *Connection) Participant(userID bson.ObjectID) bool {
	return c.SenderID == userID || c.ReceiverID == userID
}
