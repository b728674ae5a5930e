// internal/app/features/messages/messages.go
package messages

import (
	"context"
	"errors"
	"net/http"

	"github.com/dalemusser/mentorconnect/internal/app/policy/messagepolicy"
	conversationstore "github.com/dalemusser/mentorconnect/internal/app/store/conversations"
	messagestore "github.com/dalemusser/mentorconnect/internal/app/store/messages"
	"github.com/dalemusser/mentorconnect/internal/app/system/authz"
	"github.com/dalemusser/mentorconnect/internal/app/system/htmlsanitize"
	"github.com/dalemusser/mentorconnect/internal/app/system/inputval"
	"github.com/dalemusser/mentorconnect/internal/app/system/jsonio"
	"github.com/dalemusser/mentorconnect/internal/app/system/metrics"
	"github.com/dalemusser/mentorconnect/internal/app/system/paging"
	"github.com/dalemusser/mentorconnect/internal/app/system/realtime"
	"github.com/dalemusser/mentorconnect/internal/app/system/timeouts"
	"github.com/dalemusser/mentorconnect/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

var errConversationNotFound = conversationstore.ErrNotFound

func realtimeUserTopic(id primitive.ObjectID) string { return realtime.UserTopic(id.Hex()) }

type postRequest struct {
	Text string `json:"text" validate:"notblank,max=2000"`
}

type messagePage struct {
	Messages   []models.Message `json:"messages"`
	NextCursor string           `json:"next_cursor,omitempty"`
	HasMore    bool             `json:"has_more"`
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /messages/conversations/{id}/messages?before=&limit=                    |
*─────────────────────────────────────────────────────────────────────────────*/

// ServeMessages returns a page of messages, newest first.
func (h *Handler) ServeMessages(w http.ResponseWriter, r *http.Request) {
	_, _, uid, _ := authz.UserCtx(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	conv := h.loadConversation(ctx, w, r, chi.URLParam(r, "id"), uid)
	if conv == nil {
		return
	}
	tag := conv.ID.Hex()

	var before *paging.TimeCursor
	if raw := query.Get(r, "before"); raw != "" {
		c, ok := paging.DecodeTimeCursor(raw)
		if !ok || c.Tag != tag {
			h.ErrLog.LogBadRequest(w, r, "bad message cursor", nil, "Invalid cursor.")
			return
		}
		before = &c
	}
	size := paging.ParseLimit(r, "limit", paging.MessagePageSize, paging.MaxPageSize)

	rows, err := h.Messages.List(ctx, conv.ID, before, paging.LimitPlusOne(size))
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list messages failed", err, "A database error occurred.")
		return
	}

	page := messagePage{Messages: rows}
	page.HasMore = paging.TrimPage(&page.Messages, size)
	if page.HasMore {
		last := page.Messages[len(page.Messages)-1]
		page.NextCursor = paging.EncodeTimeCursor(last.CreatedAt, last.ID, tag)
	}
	jsonio.Write(w, http.StatusOK, page)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /messages/conversations/{id}/messages {text}                           |
*─────────────────────────────────────────────────────────────────────────────*/

// HandlePost stores a message and pushes it to subscribers.
func (h *Handler) HandlePost(w http.ResponseWriter, r *http.Request) {
	_, _, uid, _ := authz.UserCtx(r)

	var req postRequest
	if err := jsonio.Decode(w, r, &req); err != nil {
		h.ErrLog.LogBadRequest(w, r, "decode message failed", err, "Invalid request body.")
		return
	}
	if err := inputval.Validate(req); err != nil {
		h.ErrLog.LogBadRequest(w, r, "message validation failed", err, "Message text is required.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	conv := h.loadConversation(ctx, w, r, chi.URLParam(r, "id"), uid)
	if conv == nil {
		return
	}
	ok, err := messagepolicy.CanPost(ctx, h.Users, conv, uid)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "message policy check failed", err, "A database error occurred.")
		return
	}
	if !ok {
		h.ErrLog.LogForbidden(w, r, "post to disconnected conversation", "You are no longer connected to this user.")
		return
	}

	msg, err := h.Messages.Insert(ctx, models.Message{
		ConversationID: conv.ID,
		SenderID:       uid,
		Text:           htmlsanitize.PlainText(req.Text),
	})
	switch {
	case errors.Is(err, messagestore.ErrEmpty), errors.Is(err, messagestore.ErrTooLong):
		h.ErrLog.LogBadRequest(w, r, "message rejected", err, err.Error())
		return
	case err != nil:
		h.ErrLog.LogServerError(w, r, "insert message failed", err, "A database error occurred.")
		return
	}
	metrics.MessagesSent.Inc()

	updated, err := h.Conversations.Touch(ctx, msg)
	if err != nil {
		// The message is stored; the inbox preview catches up on the next one.
		h.Log.Warn("touch conversation failed", zap.String("conversation_id", conv.ID.Hex()), zap.Error(err))
		updated = conv
	}

	h.publish(r.Context(), realtime.EventMessageCreated, realtime.ConversationTopic(conv.ID.Hex()), msg)
	for _, p := range updated.Participants {
		h.publish(r.Context(), realtime.EventConversationUpdated, realtimeUserTopic(p), updated)
	}

	jsonio.Write(w, http.StatusCreated, map[string]models.Message{"message": msg})
}
