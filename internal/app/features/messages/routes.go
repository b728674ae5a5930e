// internal/app/features/messages/routes.go
package messages

import (
	"github.com/dalemusser/mentorconnect/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes serves /messages to signed-in users with complete profiles.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireProfileComplete)

	r.Get("/ws", h.ServeSocket)

	r.Route("/conversations", func(cr chi.Router) {
		cr.Get("/", h.ServeList)
		cr.Post("/", h.HandleOpen)
		cr.Get("/{id}/messages", h.ServeMessages)
		cr.Post("/{id}/messages", h.HandlePost)
	})
	return r
}
