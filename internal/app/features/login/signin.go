package login

import (
	"context"
	"errors"
	"net/http"

	uierrors "github.com/dalemusser/mentorconnect/internal/app/features/errors"
	userstore "github.com/dalemusser/mentorconnect/internal/app/store/users"
	"github.com/dalemusser/mentorconnect/internal/app/system/authutil"
	"github.com/dalemusser/mentorconnect/internal/app/system/inputval"
	"github.com/dalemusser/mentorconnect/internal/app/system/jsonio"
	"github.com/dalemusser/mentorconnect/internal/app/system/normalize"
	"github.com/dalemusser/mentorconnect/internal/app/system/timeouts"
	"github.com/dalemusser/mentorconnect/internal/domain/models"
	"go.uber.org/zap"
)

type signinRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

const badCredentials = "Invalid email or password."

/*─────────────────────────────────────────────────────────────────────────────*
| POST /auth/signin                                                           |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleSignin checks an email and password and starts a session.
func (h *Handler) HandleSignin(w http.ResponseWriter, r *http.Request) {
	var req signinRequest
	if err := jsonio.Decode(w, r, &req); err != nil {
		h.ErrLog.LogBadRequest(w, r, "decode signin failed", err, "Invalid request body.")
		return
	}
	if err := inputval.Validate(req); err != nil {
		h.ErrLog.LogBadRequest(w, r, "signin validation failed", err, "Email and password are required.")
		return
	}
	email := normalize.Email(req.Email)

	if h.Limiter != nil {
		if ok, reason := h.Limiter.Check(r, email); !ok {
			h.Log.Warn("sign-in rate limited", zap.String("email", email))
			uierrors.TooManyRequests(w, reason)
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, userstore.ErrNotFound):
		h.Log.Info("sign-in failed: no account", zap.String("email", email))
		h.unauthorized(w)
		return
	case err != nil:
		h.ErrLog.LogUnavailable(w, r, "find user failed", err, "A database error occurred.")
		return
	}

	/*── google accounts have no password ─────────────────────────────────*/

	if u.AuthMethod == models.AuthGoogle || u.PasswordHash == nil {
		jsonio.Write(w, http.StatusConflict, uierrors.Body{Error: "This account uses Google sign-in."})
		return
	}
	if !authutil.CheckPassword(req.Password, *u.PasswordHash) {
		h.Log.Info("sign-in failed: bad password", zap.String("user_id", u.ID.Hex()))
		h.unauthorized(w)
		return
	}

	su := sessionUser(u)
	if err := h.SessionMgr.SignIn(w, r, su); err != nil {
		h.ErrLog.LogServerError(w, r, "save session failed", err, "Unable to create session. Please try again.")
		return
	}
	if h.Limiter != nil {
		h.Limiter.ResetEmail(email)
	}
	if err := h.Logins.CreateFrom(ctx, r, u.ID, models.AuthPassword); err != nil {
		h.Log.Warn("record login failed", zap.Error(err), zap.String("user_id", u.ID.Hex()))
	}

	h.Log.Info("user signed in", zap.String("user_id", u.ID.Hex()))
	jsonio.Write(w, http.StatusOK, userResponse{User: su})
}

func (h *Handler) unauthorized(w http.ResponseWriter) {
	jsonio.Write(w, http.StatusUnauthorized, uierrors.Body{Error: badCredentials})
}
