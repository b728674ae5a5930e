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
	"github.com/dalemusser/mentorconnect/internal/app/system/timeouts"
	"github.com/dalemusser/mentorconnect/internal/domain/models"
	"go.uber.org/zap"
)

type signupRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required"`
	FullName string `json:"full_name" validate:"notblank,max=120"`
	Role     string `json:"role" validate:"role"`
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /auth/signup                                                           |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleSignup creates a password account with an incomplete profile and
// signs it in.
func (h *Handler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := jsonio.Decode(w, r, &req); err != nil {
		h.ErrLog.LogBadRequest(w, r, "decode signup failed", err, "Invalid request body.")
		return
	}
	if err := inputval.Validate(req); err != nil {
		h.ErrLog.LogBadRequest(w, r, "signup validation failed", err, "Invalid sign-up details.")
		return
	}

	creds, err := authutil.ValidateAndResolve(authutil.CredentialInput{
		Method:   models.AuthPassword,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		if isCredentialError(err) {
			h.ErrLog.LogBadRequest(w, r, "signup credentials rejected", err, err.Error())
			return
		}
		h.ErrLog.LogServerError(w, r, "resolve credentials failed", err, "A server error occurred.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Users.Create(ctx, models.User{
		FullName:     req.FullName,
		Email:        creds.Email,
		Role:         req.Role,
		AuthMethod:   creds.Method,
		PasswordHash: creds.PasswordHash,
	})
	if errors.Is(err, userstore.ErrDuplicateEmail) {
		uierrors.Conflict(w, "An account with this email already exists.")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "create user failed", err, "A database error occurred.")
		return
	}

	su := sessionUser(&u)
	if err := h.SessionMgr.SignIn(w, r, su); err != nil {
		h.ErrLog.LogServerError(w, r, "save session failed", err, "Unable to create session. Please try again.")
		return
	}
	if err := h.Logins.CreateFrom(ctx, r, u.ID, models.AuthPassword); err != nil {
		h.Log.Warn("record login failed", zap.Error(err), zap.String("user_id", u.ID.Hex()))
	}

	h.Log.Info("user signed up", zap.String("user_id", u.ID.Hex()), zap.String("role", u.Role))
	jsonio.Write(w, http.StatusCreated, userResponse{User: su})
}

func isCredentialError(err error) bool {
	for _, target := range []error{
		authutil.ErrEmailRequired,
		authutil.ErrEmailInvalid,
		authutil.ErrPasswordRequired,
		authutil.ErrPasswordTooShort,
		authutil.ErrPasswordTooLong,
		authutil.ErrPasswordWeak,
		authutil.ErrUnknownMethod,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
