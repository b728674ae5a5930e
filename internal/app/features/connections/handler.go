// internal/app/features/connections/handler.go
package connections

import (
	"context"
	"errors"
	"net/http"

	uierrors "github.com/dalemusser/mentorconnect/internal/app/features/errors"
	"github.com/dalemusser/mentorconnect/internal/app/system/authz"
	"github.com/dalemusser/mentorconnect/internal/app/system/jsonio"
	"github.com/dalemusser/mentorconnect/internal/app/system/mentorship"
	"github.com/dalemusser/mentorconnect/internal/app/system/timeouts"
	"github.com/dalemusser/mentorconnect/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Handler exposes the connection workflow.
type Handler struct {
	Service *mentorship.Service
	ErrLog  *uierrors.ErrorLogger
	Log     *zap.Logger
}

func NewHandler(svc *mentorship.Service, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{Service: svc, ErrLog: errLog, Log: logger}
}

// action is one workflow call with the viewer and the path user resolved.
type action func(ctx context.Context, viewerID, otherID primitive.ObjectID, viewerRole string) (mentorship.Outcome, error)

// run parses the {id} path param, runs act, and maps the result to a response.
func (h *Handler) run(w http.ResponseWriter, r *http.Request, name string, act action) {
	role, _, viewerID, _ := authz.UserCtx(r)
	otherID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		uierrors.NotFound(w, "User not found.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	out, err := act(ctx, viewerID, otherID, role)
	if err != nil {
		h.writeError(w, r, name, err)
		return
	}

	if out.Changed {
		h.Log.Info("connection "+name,
			zap.String("user_id", viewerID.Hex()),
			zap.String("other_id", otherID.Hex()),
			zap.String("state", string(out.State)))
	}
	jsonio.Write(w, http.StatusOK, out)
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, name string, err error) {
	switch {
	case errors.Is(err, mentorship.ErrStateConflict):
		uierrors.Conflict(w, "Connection state changed, retry.")
	case errors.Is(err, mentorship.ErrUserNotFound):
		uierrors.NotFound(w, "User not found.")
	case errors.Is(err, mentorship.ErrRoleMismatch):
		h.ErrLog.LogForbidden(w, r, "connection "+name+" role mismatch", "That user cannot take part in this action.")
	case errors.Is(err, mentorship.ErrProfileIncomplete):
		uierrors.Conflict(w, "Both users must complete their profiles first.")
	case errors.Is(err, mentorship.ErrPartialWrite):
		h.ErrLog.LogServerError(w, r, "connection "+name+" partial write", err,
			"The connection was only partly saved. Retry to finish it.")
	default:
		h.ErrLog.LogServerError(w, r, "connection "+name+" failed", err, "A database error occurred.")
	}
}

// POST /connections/requests/{id}, id is an alumnus.
func (h *Handler) HandleRequest(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, "request", func(ctx context.Context, viewer, other primitive.ObjectID, _ string) (mentorship.Outcome, error) {
		return h.Service.RequestConnection(ctx, viewer, other)
	})
}

// POST /connections/requests/{id}/accept, id is a student.
func (h *Handler) HandleAccept(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, "accept", func(ctx context.Context, viewer, other primitive.ObjectID, _ string) (mentorship.Outcome, error) {
		return h.Service.AcceptRequest(ctx, viewer, other)
	})
}

// POST /connections/requests/{id}/decline
func (h *Handler) HandleDecline(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, "decline", func(ctx context.Context, viewer, other primitive.ObjectID, _ string) (mentorship.Outcome, error) {
		return h.Service.DeclineRequest(ctx, viewer, other)
	})
}

// POST /connections/direct/{id}
func (h *Handler) HandleDirect(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, "direct", func(ctx context.Context, viewer, other primitive.ObjectID, _ string) (mentorship.Outcome, error) {
		return h.Service.ConnectDirect(ctx, viewer, other)
	})
}

// DELETE /connections/{id}
func (h *Handler) HandleRemove(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, "remove", func(ctx context.Context, viewer, other primitive.ObjectID, role string) (mentorship.Outcome, error) {
		return h.Service.RemoveConnection(ctx, viewer, role, other)
	})
}

// GET /connections/{id}/state
func (h *Handler) ServeState(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, "state", func(ctx context.Context, viewer, other primitive.ObjectID, role string) (mentorship.Outcome, error) {
		studentID, alumnusID := viewer, other
		if role == models.RoleAlumni {
			studentID, alumnusID = other, viewer
		}
		st, err := h.Service.PairState(ctx, studentID, alumnusID)
		return mentorship.Outcome{State: st}, err
	})
}

// GET /connections
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	_, _, viewerID, _ := authz.UserCtx(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	list, err := h.Service.ListConnections(ctx, viewerID)
	if err != nil {
		h.writeError(w, r, "list", err)
		return
	}
	jsonio.Write(w, http.StatusOK, list)
}
