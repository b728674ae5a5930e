// internal/app/features/authgoogle/handler.go
package authgoogle

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	uierrors "github.com/dalemusser/mentorconnect/internal/app/features/errors"
	loginstore "github.com/dalemusser/mentorconnect/internal/app/store/logins"
	"github.com/dalemusser/mentorconnect/internal/app/store/oauthstate"
	userstore "github.com/dalemusser/mentorconnect/internal/app/store/users"
	"github.com/dalemusser/mentorconnect/internal/app/system/auth"
	"github.com/dalemusser/mentorconnect/internal/app/system/normalize"
	"github.com/dalemusser/mentorconnect/internal/app/system/timeouts"
	"github.com/dalemusser/mentorconnect/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/urlutil"
	"github.com/gorilla/securecookie"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	stateCookie = "mc_oauth_state"
	stateTTL    = 10 * time.Minute

	defaultUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"
)

// Handler handles Google OAuth sign-in.
type Handler struct {
	Log        *zap.Logger
	SessionMgr *auth.SessionManager
	ErrLog     *uierrors.ErrorLogger
	Users      *userstore.Store
	Logins     *loginstore.Store
	StateStore *oauthstate.Store

	// cookie binds the OAuth state to the browser that started the flow.
	cookie *securecookie.SecureCookie
	secure bool

	// OAuth configuration
	ClientID     string
	ClientSecret string
	RedirectURL  string // e.g., "https://mentorconnect.example/auth/google/callback"
	Endpoint     oauth2.Endpoint
	UserInfoURL  string
}

// NewHandler creates a new Google OAuth handler. cookieKey signs the state
// cookie; the session key works.
func NewHandler(
	db *mongo.Database,
	sessionMgr *auth.SessionManager,
	errLog *uierrors.ErrorLogger,
	clientID, clientSecret, baseURL string,
	cookieKey []byte,
	secure bool,
	logger *zap.Logger,
) *Handler {
	sc := securecookie.New(cookieKey, nil)
	sc.MaxAge(int(stateTTL.Seconds()))

	return &Handler{
		Log:          logger,
		SessionMgr:   sessionMgr,
		ErrLog:       errLog,
		Users:        userstore.New(db),
		Logins:       loginstore.New(db),
		StateStore:   oauthstate.New(db),
		cookie:       sc,
		secure:       secure,
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  baseURL + "/auth/google/callback",
		Endpoint:     google.Endpoint,
		UserInfoURL:  defaultUserInfoURL,
	}
}

// oauth2Config returns the Google OAuth2 configuration.
func (h *Handler) oauth2Config() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     h.ClientID,
		ClientSecret: h.ClientSecret,
		RedirectURL:  h.RedirectURL,
		Scopes: []string{
			"openid",
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/userinfo.profile",
		},
		Endpoint: h.Endpoint,
	}
}

// IsConfigured returns true if Google OAuth is configured.
func (h *Handler) IsConfigured() bool {
	return h.ClientID != "" && h.ClientSecret != ""
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /auth/google?role=student|alumni&return=/path                            |
| Starts the flow. role is only consulted when the email has no account yet.   |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeLogin(w http.ResponseWriter, r *http.Request) {
	if !h.IsConfigured() {
		h.Log.Warn("Google OAuth not configured")
		uierrors.NotFound(w, "Google sign-in is not enabled.")
		return
	}

	role := normalize.Role(query.Get(r, "role"))
	if role != "" && !models.IsValidRole(role) {
		h.ErrLog.LogBadRequest(w, r, "bad oauth role", fmt.Errorf("role %q", role), "role must be student or alumni")
		return
	}
	returnURL := query.Get(r, "return")

	state, err := generateState()
	if err != nil {
		h.ErrLog.LogServerError(w, r, "generate OAuth state", err, "A server error occurred.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	expiresAt := time.Now().UTC().Add(stateTTL)
	if err := h.StateStore.Save(ctx, state, role, returnURL, expiresAt); err != nil {
		h.ErrLog.LogServerError(w, r, "save OAuth state", err, "A database error occurred.")
		return
	}
	if err := h.setStateCookie(w, state); err != nil {
		h.ErrLog.LogServerError(w, r, "encode OAuth state cookie", err, "A server error occurred.")
		return
	}

	dest := h.oauth2Config().AuthCodeURL(state)
	h.Log.Debug("initiating Google OAuth flow",
		zap.String("role", role),
		zap.String("return_url", returnURL))

	http.Redirect(w, r, dest, http.StatusTemporaryRedirect)
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /auth/google/callback                                                    |
| Verifies state, exchanges the code, loads or creates the account, and signs  |
| it in.                                                                       |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if errParam := query.Get(r, "error"); errParam != "" {
		h.Log.Warn("Google OAuth error",
			zap.String("error", errParam),
			zap.String("description", query.Get(r, "error_description")))
		h.fail(w, r, "google_denied")
		return
	}

	/*── state must match the cookie and a stored, unexpired record ───────*/

	state := query.Get(r, "state")
	if state == "" || !h.stateCookieMatches(r, state) {
		h.Log.Warn("OAuth state missing or not bound to this browser")
		h.fail(w, r, "invalid_state")
		return
	}
	h.clearStateCookie(w)

	shortCtx, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()

	st, valid, err := h.StateStore.Validate(shortCtx, state)
	if err != nil {
		h.Log.Error("failed to validate OAuth state", zap.Error(err))
		h.fail(w, r, "internal")
		return
	}
	if !valid {
		h.Log.Warn("invalid or expired OAuth state")
		h.fail(w, r, "invalid_state")
		return
	}

	/*── exchange code and fetch profile ──────────────────────────────────*/

	code := query.Get(r, "code")
	if code == "" {
		h.fail(w, r, "invalid_code")
		return
	}
	token, err := h.oauth2Config().Exchange(ctx, code)
	if err != nil {
		h.Log.Error("failed to exchange OAuth code", zap.Error(err))
		h.fail(w, r, "token_exchange")
		return
	}
	info, err := h.fetchUserInfo(ctx, token)
	if err != nil {
		h.Log.Error("failed to fetch Google user info", zap.Error(err))
		h.fail(w, r, "user_info")
		return
	}
	if info.Email == "" || !info.EmailVerified {
		h.Log.Info("Google account email not verified", zap.String("email", info.Email))
		h.fail(w, r, "unverified_email")
		return
	}

	/*── find or create the account ───────────────────────────────────────*/

	u, created, err := h.Users.UpsertGoogle(shortCtx, info.Email, info.Name, st.Role)
	if errors.Is(err, userstore.ErrRoleRequired) {
		h.Log.Info("first Google sign-in without role", zap.String("email", info.Email))
		h.fail(w, r, "role_required")
		return
	}
	if err != nil {
		h.Log.Error("google upsert user failed", zap.Error(err))
		h.fail(w, r, "internal")
		return
	}

	su := &auth.SessionUser{
		ID:              u.ID.Hex(),
		Name:            u.FullName,
		Email:           u.Email,
		Role:            u.Role,
		ProfileComplete: u.IsProfileComplete,
	}
	if err := h.SessionMgr.SignIn(w, r, su); err != nil {
		h.Log.Error("save session failed", zap.Error(err), zap.String("user_id", su.ID))
		h.fail(w, r, "session")
		return
	}
	if err := h.Logins.CreateFrom(shortCtx, r, u.ID, models.AuthGoogle); err != nil {
		h.Log.Warn("record login failed", zap.Error(err), zap.String("user_id", su.ID))
	}

	h.Log.Info("user signed in via Google",
		zap.String("user_id", su.ID),
		zap.Bool("created", created))

	fallback := "/"
	if !u.IsProfileComplete {
		fallback = "/profile/setup"
	}
	http.Redirect(w, r, urlutil.SafeReturn(st.ReturnURL, "", fallback), http.StatusSeeOther)
}

/*─────────────────────────────────────────────────────────────────────────────*
| Helpers                                                                      |
*─────────────────────────────────────────────────────────────────────────────*/

// googleUserInfo represents user info returned from Google.
type googleUserInfo struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"verified_email"`
	Name          string `json:"name"`
}

func (h *Handler) fetchUserInfo(ctx context.Context, token *oauth2.Token) (*googleUserInfo, error) {
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(token))

	resp, err := client.Get(h.UserInfoURL)
	if err != nil {
		return nil, fmt.Errorf("fetch user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var info googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("decode user info: %w", err)
	}
	return &info, nil
}

// fail redirects back to the app with an error code the client can show.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, code string) {
	http.Redirect(w, r, "/?auth_error="+url.QueryEscape(code), http.StatusSeeOther)
}

func (h *Handler) setStateCookie(w http.ResponseWriter, state string) error {
	enc, err := h.cookie.Encode(stateCookie, state)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    enc,
		Path:     "/auth/google",
		MaxAge:   int(stateTTL.Seconds()),
		Secure:   h.secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func (h *Handler) stateCookieMatches(r *http.Request, state string) bool {
	c, err := r.Cookie(stateCookie)
	if err != nil {
		return false
	}
	var want string
	if err := h.cookie.Decode(stateCookie, c.Value, &want); err != nil {
		return false
	}
	return want == state
}

func (h *Handler) clearStateCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    "",
		Path:     "/auth/google",
		MaxAge:   -1,
		Secure:   h.secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// generateState creates a cryptographically secure random state string.
func generateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
