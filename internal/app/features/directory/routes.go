// internal/app/features/directory/routes.go
package directory

import (
	"github.com/dalemusser/mentorconnect/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes serves /directory to signed-in users with complete profiles.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireProfileComplete)
	r.Get("/", h.ServeList)
	return r
}
