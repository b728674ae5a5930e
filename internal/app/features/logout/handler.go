// internal/app/features/logout/handler.go
package logout

import (
	"net/http"

	"github.com/dalemusser/mentorconnect/internal/app/system/auth"
	"go.uber.org/zap"
)

type Handler struct {
	Log        *zap.Logger
	SessionMgr *auth.SessionManager
}

func NewHandler(sessionMgr *auth.SessionManager, logger *zap.Logger) *Handler {
	return &Handler{
		Log:        logger,
		SessionMgr: sessionMgr,
	}
}

// ServeSignout handles POST /auth/signout. Signing out without a session is
// not an error.
func (h *Handler) ServeSignout(w http.ResponseWriter, r *http.Request) {
	if u, ok := auth.CurrentUser(r); ok {
		h.Log.Info("user signed out", zap.String("user_id", u.ID))
	}
	if err := h.SessionMgr.SignOut(w, r); err != nil {
		h.Log.Warn("signout: save session", zap.Error(err))
	}
	w.WriteHeader(http.StatusNoContent)
}
