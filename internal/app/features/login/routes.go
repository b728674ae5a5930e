// internal/app/features/login/routes.go
package login

import (
	"github.com/dalemusser/mentorconnect/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes serves sign-up, sign-in, and the principal endpoints. Mounted
// under /auth.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Post("/signup", h.HandleSignup)
	r.Post("/signin", h.HandleSignin)
	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Get("/me", h.ServeMe)
		pr.Get("/me/logins", h.ServeLogins)
	})
	return r
}
