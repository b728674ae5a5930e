// internal/app/features/login/handler.go
package login

import (
	uierrors "github.com/dalemusser/mentorconnect/internal/app/features/errors"
	loginstore "github.com/dalemusser/mentorconnect/internal/app/store/logins"
	userstore "github.com/dalemusser/mentorconnect/internal/app/store/users"
	"github.com/dalemusser/mentorconnect/internal/app/system/auth"
	"github.com/dalemusser/mentorconnect/internal/app/system/ratelimit"
	"github.com/dalemusser/mentorconnect/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	Users      *userstore.Store
	Logins     *loginstore.Store
	SessionMgr *auth.SessionManager
	Limiter    *ratelimit.LoginLimiter
	ErrLog     *uierrors.ErrorLogger
	Log        *zap.Logger
}

func NewHandler(
	db *mongo.Database,
	sessionMgr *auth.SessionManager,
	limiter *ratelimit.LoginLimiter,
	errLog *uierrors.ErrorLogger,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		Users:      userstore.New(db),
		Logins:     loginstore.New(db),
		SessionMgr: sessionMgr,
		Limiter:    limiter,
		ErrLog:     errLog,
		Log:        logger,
	}
}

// sessionUser builds the principal for a freshly loaded user.
func sessionUser(u *models.User) *auth.SessionUser {
	return &auth.SessionUser{
		ID:              u.ID.Hex(),
		Name:            u.FullName,
		Email:           u.Email,
		Role:            u.Role,
		ProfileComplete: u.IsProfileComplete,
	}
}

type userResponse struct {
	User *auth.SessionUser `json:"user"`
}
