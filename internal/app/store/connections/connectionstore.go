package connectionstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/mentorconnect/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// ErrStateConflict is returned when a compare-and-swap finds the pair record
// at a different state or version than expected.
var ErrStateConflict = errors.New("connection state changed concurrently")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("connections")}
}

// Get returns the pair record. A pair that was never stored is returned as
// models.NewPair: state none at version 0.
func (s *Store) Get(ctx context.Context, studentID, alumnusID primitive.ObjectID) (models.ConnectionPair, error) {
	var p models.ConnectionPair
	err := s.c.FindOne(ctx, bson.M{"_id": models.PairKey(studentID, alumnusID)}).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.NewPair(studentID, alumnusID), nil
	}
	if err != nil {
		return models.ConnectionPair{}, err
	}
	return p, nil
}

// CompareAndSwap moves cur to next if the stored record still has cur's
// state and version, and returns the new record. Version 0 means no record
// is stored yet; the swap then inserts one, and a concurrent insert loses
// with ErrStateConflict.
func (s *Store) CompareAndSwap(ctx context.Context, cur models.ConnectionPair, next models.PairState) (models.ConnectionPair, error) {
	now := time.Now().UTC()
	out := cur
	out.State = next
	out.Version = cur.Version + 1
	out.UpdatedAt = now

	if cur.Version == 0 {
		if _, err := s.c.InsertOne(ctx, out); err != nil {
			if wafflemongo.IsDup(err) {
				return models.ConnectionPair{}, ErrStateConflict
			}
			return models.ConnectionPair{}, err
		}
		return out, nil
	}

	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": cur.Key, "state": cur.State, "version": cur.Version},
		bson.M{"$set": bson.M{"state": next, "updated_at": now}, "$inc": bson.M{"version": 1}},
	)
	if err != nil {
		return models.ConnectionPair{}, err
	}
	if res.MatchedCount == 0 {
		return models.ConnectionPair{}, ErrStateConflict
	}
	return out, nil
}

// CountByState counts stored pairs in state.
func (s *Store) CountByState(ctx context.Context, state models.PairState) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"state": state})
}
