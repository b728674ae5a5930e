// internal/app/policy/messagepolicy/messagepolicy.go
package messagepolicy

import (
	"context"
	"errors"
	"fmt"

	userstore "github.com/dalemusser/mentorconnect/internal/app/store/users"
	"github.com/dalemusser/mentorconnect/internal/app/system/authz"
	"github.com/dalemusser/mentorconnect/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrUserNotFound is returned when the other user does not exist.
var ErrUserNotFound = errors.New("user not found")

// UserGetter loads users by id.
type UserGetter interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
}

// CanMessage reports whether viewer and other may exchange direct messages.
// They must hold different roles and be connected on at least one side's
// mutual-reference set. The check reads both records fresh.
// Returns an error if a lookup fails, allowing callers to distinguish
// between "not allowed" (false, nil) and "database error" (false, err).
func CanMessage(ctx context.Context, users UserGetter, viewerID, otherID primitive.ObjectID) (bool, error) {
	if viewerID == otherID {
		return false, nil
	}
	viewer, err := get(ctx, users, viewerID)
	if err != nil {
		return false, err
	}
	other, err := get(ctx, users, otherID)
	if err != nil {
		return false, err
	}
	return authz.CanMessage(viewer, other), nil
}

// CanRead reports whether userID may read conv. Only participants can, even
// after the pair disconnects.
func CanRead(conv *models.Conversation, userID primitive.ObjectID) bool {
	return conv != nil && conv.HasParticipant(userID)
}

// CanPost reports whether userID may add a message to conv: they must take
// part in it and still be connected to the other participant.
func CanPost(ctx context.Context, users UserGetter, conv *models.Conversation, userID primitive.ObjectID) (bool, error) {
	if !CanRead(conv, userID) {
		return false, nil
	}
	ok, err := CanMessage(ctx, users, userID, conv.Other(userID))
	if errors.Is(err, ErrUserNotFound) {
		return false, nil
	}
	return ok, err
}

func get(ctx context.Context, users UserGetter, id primitive.ObjectID) (*models.User, error) {
	u, err := users.GetByID(ctx, id)
	if errors.Is(err, userstore.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load user %s: %w", id.Hex(), err)
	}
	return u, nil
}
