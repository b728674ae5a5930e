// internal/app/features/profile/profile.go
package profile

import (
	"context"
	"errors"
	"net/http"

	uierrors "github.com/dalemusser/mentorconnect/internal/app/features/errors"
	userstore "github.com/dalemusser/mentorconnect/internal/app/store/users"
	"github.com/dalemusser/mentorconnect/internal/app/system/authz"
	"github.com/dalemusser/mentorconnect/internal/app/system/htmlsanitize"
	"github.com/dalemusser/mentorconnect/internal/app/system/inputval"
	"github.com/dalemusser/mentorconnect/internal/app/system/jsonio"
	"github.com/dalemusser/mentorconnect/internal/app/system/timeouts"
	"github.com/dalemusser/mentorconnect/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// setupRequest carries both roles' fields; only the viewer's role is used.
type setupRequest struct {
	University      string `json:"university"`
	FieldOfInterest string `json:"field_of_interest"`
	PursuingCourse  string `json:"pursuing_course"`

	PassOutUniversity string `json:"pass_out_university"`
	WorkingField      string `json:"working_field"`
	Bio               string `json:"bio"`
}

type studentSetup struct {
	University      string `json:"university" validate:"notblank,max=120"`
	FieldOfInterest string `json:"field_of_interest" validate:"notblank,max=120"`
	PursuingCourse  string `json:"pursuing_course" validate:"notblank,max=120"`
}

type alumniSetup struct {
	PassOutUniversity string `json:"pass_out_university" validate:"notblank,max=120"`
	WorkingField      string `json:"working_field" validate:"notblank,max=120"`
	Bio               string `json:"bio" validate:"notblank,max=4000"`
}

func (req setupRequest) validate(role string) error {
	if role == models.RoleStudent {
		return inputval.Validate(studentSetup{
			University:      req.University,
			FieldOfInterest: req.FieldOfInterest,
			PursuingCourse:  req.PursuingCourse,
		})
	}
	return inputval.Validate(alumniSetup{
		PassOutUniversity: req.PassOutUniversity,
		WorkingField:      req.WorkingField,
		Bio:               req.Bio,
	})
}

var errBlankBio = errors.New("bio has no text after sanitizing")

// blankBio reports whether a sanitized bio shows no text, such as one that
// held only a script or empty tags.
func blankBio(bio string) bool {
	return htmlsanitize.PlainText(bio) == ""
}

type updateRequest struct {
	FullName *string `json:"full_name" validate:"omitempty,max=120"`

	University      *string `json:"university" validate:"omitempty,max=120"`
	FieldOfInterest *string `json:"field_of_interest" validate:"omitempty,max=120"`
	PursuingCourse  *string `json:"pursuing_course" validate:"omitempty,max=120"`

	PassOutUniversity *string `json:"pass_out_university" validate:"omitempty,max=120"`
	WorkingField      *string `json:"working_field" validate:"omitempty,max=120"`
	Bio               *string `json:"bio" validate:"omitempty,max=4000"`
}

type profileResponse struct {
	User *models.User `json:"user"`
}

// ServeProfile handles GET /profile.
func (h *Handler) ServeProfile(w http.ResponseWriter, r *http.Request) {
	_, _, uid, _ := authz.UserCtx(r)
	h.writeOwn(w, r, uid, http.StatusOK)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /profile/setup                                                         |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleSetup writes the role-specific fields and completes the profile.
func (h *Handler) HandleSetup(w http.ResponseWriter, r *http.Request) {
	role, _, uid, _ := authz.UserCtx(r)

	var req setupRequest
	if err := jsonio.Decode(w, r, &req); err != nil {
		h.ErrLog.LogBadRequest(w, r, "decode profile setup failed", err, "Invalid request body.")
		return
	}
	if err := req.validate(role); err != nil {
		h.ErrLog.LogBadRequest(w, r, "profile setup validation failed", err, "Some profile fields are missing.")
		return
	}
	req.Bio = htmlsanitize.Sanitize(req.Bio)
	if role == models.RoleAlumni && blankBio(req.Bio) {
		h.ErrLog.LogBadRequest(w, r, "profile setup blank bio", errBlankBio, "Bio must contain some text.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	err := h.Users.CompleteProfile(ctx, uid, role, userstore.ProfileSetup{
		University:        req.University,
		FieldOfInterest:   req.FieldOfInterest,
		PursuingCourse:    req.PursuingCourse,
		PassOutUniversity: req.PassOutUniversity,
		WorkingField:      req.WorkingField,
		Bio:               req.Bio,
	})
	if errors.Is(err, userstore.ErrNotFound) {
		uierrors.NotFound(w, "User not found.")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "complete profile failed", err, "A database error occurred.")
		return
	}

	h.Log.Info("profile completed", zap.String("user_id", uid.Hex()), zap.String("role", role))
	h.writeOwn(w, r, uid, http.StatusOK)
}

/*─────────────────────────────────────────────────────────────────────────────*
| PATCH /profile                                                              |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleUpdate merges the supplied fields into the profile.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	role, _, uid, _ := authz.UserCtx(r)

	var req updateRequest
	if err := jsonio.Decode(w, r, &req); err != nil {
		h.ErrLog.LogBadRequest(w, r, "decode profile update failed", err, "Invalid request body.")
		return
	}
	if err := inputval.Validate(req); err != nil {
		h.ErrLog.LogBadRequest(w, r, "profile update validation failed", err, "Invalid profile fields.")
		return
	}
	if req.Bio != nil {
		bio := htmlsanitize.Sanitize(*req.Bio)
		if role == models.RoleAlumni && blankBio(bio) {
			h.ErrLog.LogBadRequest(w, r, "profile update blank bio", errBlankBio, "Bio must contain some text.")
			return
		}
		req.Bio = &bio
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	changed, err := h.Users.UpdateProfile(ctx, uid, role, userstore.ProfileUpdate{
		FullName:          req.FullName,
		University:        req.University,
		FieldOfInterest:   req.FieldOfInterest,
		PursuingCourse:    req.PursuingCourse,
		PassOutUniversity: req.PassOutUniversity,
		WorkingField:      req.WorkingField,
		Bio:               req.Bio,
	})
	switch {
	case errors.Is(err, userstore.ErrNameRequired):
		h.ErrLog.LogBadRequest(w, r, "profile update blank name", err, "Full name cannot be blank.")
		return
	case errors.Is(err, userstore.ErrNotFound):
		uierrors.NotFound(w, "User not found.")
		return
	case err != nil:
		h.ErrLog.LogServerError(w, r, "update profile failed", err, "A database error occurred.")
		return
	}

	if changed {
		h.Log.Info("profile updated", zap.String("user_id", uid.Hex()))
	}
	h.writeOwn(w, r, uid, http.StatusOK)
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /users/{id}                                                             |
*─────────────────────────────────────────────────────────────────────────────*/

// ServePublic shows another user's public profile. Users who have not
// finished setup are not visible.
func (h *Handler) ServePublic(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		uierrors.NotFound(w, "User not found.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Users.GetByID(ctx, id)
	if errors.Is(err, userstore.ErrNotFound) || (err == nil && !u.IsProfileComplete) {
		uierrors.NotFound(w, "User not found.")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load public profile failed", err, "A database error occurred.")
		return
	}
	jsonio.Write(w, http.StatusOK, map[string]models.PublicProfile{"user": u.Public()})
}

func (h *Handler) writeOwn(w http.ResponseWriter, r *http.Request, uid primitive.ObjectID, status int) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Users.GetByID(ctx, uid)
	if errors.Is(err, userstore.ErrNotFound) {
		uierrors.NotFound(w, "User not found.")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load profile failed", err, "A database error occurred.")
		return
	}
	jsonio.Write(w, status, profileResponse{User: u})
}
