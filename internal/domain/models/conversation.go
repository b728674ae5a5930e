package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Conversation is a direct-message thread between exactly two users.
// PairKey is unique, so a pair of users shares at most one conversation.
type Conversation struct {
	ID            primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Participants  []primitive.ObjectID `bson:"participants" json:"participants"`
	PairKey       string               `bson:"pair_key" json:"-"`
	LastMessage   string               `bson:"last_message,omitempty" json:"last_message,omitempty"`
	LastSenderID  *primitive.ObjectID  `bson:"last_sender_id,omitempty" json:"last_sender_id,omitempty"`
	LastMessageAt *time.Time           `bson:"last_message_at,omitempty" json:"last_message_at,omitempty"`
	CreatedAt     time.Time            `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time            `bson:"updated_at" json:"updated_at"`
}

// HasParticipant reports whether id takes part in the conversation.
func (c *Conversation) HasParticipant(id primitive.ObjectID) bool {
	return containsID(c.Participants, id)
}

// Other returns the participant that is not id.
func (c *Conversation) Other(id primitive.ObjectID) primitive.ObjectID {
	for _, p := range c.Participants {
		if p != id {
			return p
		}
	}
	return primitive.NilObjectID
}

// ConversationKey orders two user ids so either side builds the same key.
func ConversationKey(a, b primitive.ObjectID) (string, []primitive.ObjectID) {
	if a.Hex() > b.Hex() {
		a, b = b, a
	}
	return a.Hex() + ":" + b.Hex(), []primitive.ObjectID{a, b}
}

// Message is one direct message.
type Message struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ConversationID primitive.ObjectID `bson:"conversation_id" json:"conversation_id"`
	SenderID       primitive.ObjectID `bson:"sender_id" json:"sender_id"`
	Text           string             `bson:"text" json:"text"`
	CreatedAt      time.Time          `bson:"created_at" json:"created_at"`
}
