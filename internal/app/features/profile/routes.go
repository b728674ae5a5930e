// internal/app/features/profile/routes.go
package profile

import (
	"github.com/dalemusser/mentorconnect/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes serves /profile. The caller must be signed in.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)
	r.Get("/", h.ServeProfile)
	r.Post("/setup", h.HandleSetup)
	r.Patch("/", h.HandleUpdate)
	return r
}

// PublicRoutes serves /users/{id} to signed-in users with complete profiles.
func PublicRoutes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireProfileComplete)
	r.Get("/{id}", h.ServePublic)
	return r
}
