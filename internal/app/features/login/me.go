package login

import (
	"context"
	"net/http"

	loginstore "github.com/dalemusser/mentorconnect/internal/app/store/logins"
	"github.com/dalemusser/mentorconnect/internal/app/system/auth"
	"github.com/dalemusser/mentorconnect/internal/app/system/authz"
	"github.com/dalemusser/mentorconnect/internal/app/system/jsonio"
	"github.com/dalemusser/mentorconnect/internal/app/system/timeouts"
)

// ServeMe returns the signed-in principal.
func (h *Handler) ServeMe(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)
	jsonio.Write(w, http.StatusOK, userResponse{User: u})
}

// ServeLogins returns the principal's recent sign-ins.
func (h *Handler) ServeLogins(w http.ResponseWriter, r *http.Request) {
	_, _, uid, _ := authz.UserCtx(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	recs, err := h.Logins.Recent(ctx, uid, 20)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list logins failed", err, "A database error occurred.")
		return
	}
	if recs == nil {
		recs = []loginstore.Record{}
	}
	jsonio.Write(w, http.StatusOK, map[string]any{"logins": recs})
}
