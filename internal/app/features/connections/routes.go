// internal/app/features/connections/routes.go
package connections

import (
	"github.com/dalemusser/mentorconnect/internal/app/system/auth"
	"github.com/dalemusser/mentorconnect/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes serves /connections to signed-in users with complete profiles.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireProfileComplete)

	r.Get("/", h.ServeList)
	r.Get("/{id}/state", h.ServeState)
	r.Delete("/{id}", h.HandleRemove)

	r.With(sm.RequireRole(models.RoleStudent)).Post("/requests/{id}", h.HandleRequest)

	r.Group(func(ar chi.Router) {
		ar.Use(sm.RequireRole(models.RoleAlumni))
		ar.Post("/requests/{id}/accept", h.HandleAccept)
		ar.Post("/requests/{id}/decline", h.HandleDecline)
		ar.Post("/direct/{id}", h.HandleDirect)
	})
	return r
}
