package messagestore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/mentorconnect/internal/app/system/limits"
	"github.com/dalemusser/mentorconnect/internal/app/system/paging"
	"github.com/dalemusser/mentorconnect/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MaxTextLen is the longest message accepted, in runes.
const MaxTextLen = limits.MaxMessageText

var (
	// ErrEmpty is returned for a message with no text.
	ErrEmpty = errors.New("message text is required")
	// ErrTooLong is returned for a message longer than MaxTextLen.
	ErrTooLong = errors.New("message text is too long")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("messages")}
}

// Insert stores m, assigning its id and timestamp.
func (s *Store) Insert(ctx context.Context, m models.Message) (models.Message, error) {
	n := len([]rune(m.Text))
	if n == 0 {
		return models.Message{}, ErrEmpty
	}
	if n > MaxTextLen {
		return models.Message{}, ErrTooLong
	}
	m.ID = primitive.NewObjectID()
	m.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	if _, err := s.c.InsertOne(ctx, m); err != nil {
		return models.Message{}, err
	}
	return m, nil
}

// List returns up to limit messages of a conversation, newest first. When
// before is set only messages older than it are returned.
func (s *Store) List(ctx context.Context, conversationID primitive.ObjectID, before *paging.TimeCursor, limit int64) ([]models.Message, error) {
	filter := bson.M{"conversation_id": conversationID}
	if before != nil {
		filter["$and"] = bson.A{paging.DescWindow("created_at", *before)}
	}
	opts := options.Find().SetSort(paging.DescSort("created_at")).SetLimit(limit)

	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Message{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Count returns the number of stored messages.
func (s *Store) Count(ctx context.Context) (int64, error) {
	return s.c.EstimatedDocumentCount(ctx)
}
