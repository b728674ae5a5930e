package conversationstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/mentorconnect/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// ErrNotFound is returned when no conversation matches.
	ErrNotFound = errors.New("conversation not found")
	// ErrSelf is returned when a user tries to open a conversation with themselves.
	ErrSelf = errors.New("cannot start a conversation with yourself")
)

// PreviewLen caps the stored last-message preview, in runes.
const PreviewLen = 140

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("conversations")}
}

// GetByID loads a conversation.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Conversation, error) {
	var c models.Conversation
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&c); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// GetOrCreate returns the conversation between a and b, creating it on first
// use. created reports whether this call inserted it.
func (s *Store) GetOrCreate(ctx context.Context, a, b primitive.ObjectID) (conv *models.Conversation, created bool, err error) {
	if a == b {
		return nil, false, ErrSelf
	}
	key, participants := models.ConversationKey(a, b)
	now := time.Now().UTC()
	newID := primitive.NewObjectID()

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)
	upd := bson.M{"$setOnInsert": bson.M{
		"_id":          newID,
		"participants": participants,
		"pair_key":     key,
		"created_at":   now,
		"updated_at":   now,
	}}

	var c models.Conversation
	err = s.c.FindOneAndUpdate(ctx, bson.M{"pair_key": key}, upd, opts).Decode(&c)
	if err != nil && wafflemongo.IsDup(err) {
		// Concurrent upsert won the unique pair_key; read its document.
		err = s.c.FindOne(ctx, bson.M{"pair_key": key}).Decode(&c)
	}
	if err != nil {
		return nil, false, err
	}
	return &c, c.ID == newID, nil
}

// ListForUser returns userID's conversations, most recent activity first.
func (s *Store) ListForUser(ctx context.Context, userID primitive.ObjectID, limit int64) ([]models.Conversation, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "last_message_at", Value: -1}, {Key: "updated_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(limit)
	cur, err := s.c.Find(ctx, bson.M{"participants": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Conversation{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Touch records m as the conversation's latest message and returns the
// updated conversation.
func (s *Store) Touch(ctx context.Context, m models.Message) (*models.Conversation, error) {
	preview := []rune(m.Text)
	if len(preview) > PreviewLen {
		preview = preview[:PreviewLen]
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var c models.Conversation
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": m.ConversationID},
		bson.M{"$set": bson.M{
			"last_message":    string(preview),
			"last_sender_id":  m.SenderID,
			"last_message_at": m.CreatedAt,
			"updated_at":      time.Now().UTC(),
		}},
		opts,
	).Decode(&c)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Count returns the number of stored conversations.
func (s *Store) Count(ctx context.Context) (int64, error) {
	return s.c.EstimatedDocumentCount(ctx)
}
