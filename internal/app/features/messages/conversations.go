// internal/app/features/messages/conversations.go
package messages

import (
	"context"
	"errors"
	"net/http"

	uierrors "github.com/dalemusser/mentorconnect/internal/app/features/errors"
	"github.com/dalemusser/mentorconnect/internal/app/policy/messagepolicy"
	"github.com/dalemusser/mentorconnect/internal/app/system/authz"
	"github.com/dalemusser/mentorconnect/internal/app/system/inputval"
	"github.com/dalemusser/mentorconnect/internal/app/system/jsonio"
	"github.com/dalemusser/mentorconnect/internal/app/system/paging"
	"github.com/dalemusser/mentorconnect/internal/app/system/realtime"
	"github.com/dalemusser/mentorconnect/internal/app/system/timeouts"
	"github.com/dalemusser/mentorconnect/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type openRequest struct {
	OtherID string `json:"other_id" validate:"required,len=24,hexadecimal"`
}

// conversationView is a conversation plus the other participant's card.
type conversationView struct {
	models.Conversation
	Other *models.PublicProfile `json:"other,omitempty"`
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /messages/conversations {other_id}                                     |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleOpen returns the viewer's conversation with other_id, creating it
// when the two are connected.
func (h *Handler) HandleOpen(w http.ResponseWriter, r *http.Request) {
	_, _, uid, _ := authz.UserCtx(r)

	var req openRequest
	if err := jsonio.Decode(w, r, &req); err != nil {
		h.ErrLog.LogBadRequest(w, r, "decode open conversation failed", err, "Invalid request body.")
		return
	}
	if err := inputval.Validate(req); err != nil {
		h.ErrLog.LogBadRequest(w, r, "open conversation validation failed", err, "other_id must be a user id.")
		return
	}
	otherID, _ := primitive.ObjectIDFromHex(req.OtherID)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	ok, err := messagepolicy.CanMessage(ctx, h.Users, uid, otherID)
	switch {
	case errors.Is(err, messagepolicy.ErrUserNotFound):
		uierrors.NotFound(w, "User not found.")
		return
	case err != nil:
		h.ErrLog.LogServerError(w, r, "message policy check failed", err, "A database error occurred.")
		return
	case !ok:
		h.ErrLog.LogForbidden(w, r, "open conversation with unconnected user", "You can only message your connections.")
		return
	}

	conv, created, err := h.Conversations.GetOrCreate(ctx, uid, otherID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "open conversation failed", err, "A database error occurred.")
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
		h.Log.Info("conversation created",
			zap.String("conversation_id", conv.ID.Hex()),
			zap.String("user_id", uid.Hex()))
		for _, p := range conv.Participants {
			h.publish(r.Context(), realtime.EventConversationUpdated, realtimeUserTopic(p), conv)
		}
	}
	jsonio.Write(w, status, map[string]any{"conversation": conv, "created": created})
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /messages/conversations?limit=                                          |
*─────────────────────────────────────────────────────────────────────────────*/

// ServeList returns the viewer's conversations, most recently active first.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	_, _, uid, _ := authz.UserCtx(r)
	limit := paging.ParseLimit(r, "limit", paging.MaxPageSize, paging.MaxPageSize)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	convs, err := h.Conversations.ListForUser(ctx, uid, int64(limit))
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list conversations failed", err, "A database error occurred.")
		return
	}

	others := make([]primitive.ObjectID, 0, len(convs))
	for i := range convs {
		others = append(others, convs[i].Other(uid))
	}
	users, err := h.Users.FindByIDs(ctx, others)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load conversation users failed", err, "A database error occurred.")
		return
	}
	cards := make(map[primitive.ObjectID]models.PublicProfile, len(users))
	for i := range users {
		cards[users[i].ID] = users[i].Public()
	}

	out := make([]conversationView, 0, len(convs))
	for _, c := range convs {
		v := conversationView{Conversation: c}
		if card, ok := cards[c.Other(uid)]; ok {
			v.Other = &card
		}
		out = append(out, v)
	}
	jsonio.Write(w, http.StatusOK, map[string]any{"conversations": out})
}

// loadConversation resolves the {id} path param to a conversation the viewer
// takes part in. It writes the error response and returns nil otherwise.
func (h *Handler) loadConversation(ctx context.Context, w http.ResponseWriter, r *http.Request, idHex string, uid primitive.ObjectID) *models.Conversation {
	id, err := primitive.ObjectIDFromHex(idHex)
	if err != nil {
		uierrors.NotFound(w, "Conversation not found.")
		return nil
	}
	conv, err := h.Conversations.GetByID(ctx, id)
	if err != nil && !errors.Is(err, errConversationNotFound) {
		h.ErrLog.LogServerError(w, r, "load conversation failed", err, "A database error occurred.")
		return nil
	}
	// Outsiders get the same answer as a missing conversation.
	if err != nil || !messagepolicy.CanRead(conv, uid) {
		uierrors.NotFound(w, "Conversation not found.")
		return nil
	}
	return conv
}
