// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	authgooglefeature "github.com/dalemusser/mentorconnect/internal/app/features/authgoogle"
	connectionsfeature "github.com/dalemusser/mentorconnect/internal/app/features/connections"
	directoryfeature "github.com/dalemusser/mentorconnect/internal/app/features/directory"
	errorsfeature "github.com/dalemusser/mentorconnect/internal/app/features/errors"
	healthfeature "github.com/dalemusser/mentorconnect/internal/app/features/health"
	loginfeature "github.com/dalemusser/mentorconnect/internal/app/features/login"
	logoutfeature "github.com/dalemusser/mentorconnect/internal/app/features/logout"
	messagesfeature "github.com/dalemusser/mentorconnect/internal/app/features/messages"
	profilefeature "github.com/dalemusser/mentorconnect/internal/app/features/profile"
	connectionstore "github.com/dalemusser/mentorconnect/internal/app/store/connections"
	dirquery "github.com/dalemusser/mentorconnect/internal/app/store/queries/directory"
	userstore "github.com/dalemusser/mentorconnect/internal/app/store/users"
	"github.com/dalemusser/mentorconnect/internal/app/system/auth"
	"github.com/dalemusser/mentorconnect/internal/app/system/mentorship"
	"github.com/dalemusser/mentorconnect/internal/app/system/metrics"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed. MentorConnect applies session
// middleware and mounts the JSON feature routers: auth, profile, directory,
// connections and messages, plus health and metrics.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, appCfg.SessionMaxAge, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	// LoadSessionUser re-reads the user on each request so role and
	// profile changes take effect immediately.
	sessionMgr.SetUserFetcher(userstore.NewFetcher(deps.MongoDatabase))

	mode, err := mentorship.ParseMode(appCfg.ConnectionMode)
	if err != nil {
		return nil, err
	}

	return newRouter(routerDeps{
		db:         deps,
		appCfg:     appCfg,
		secure:     secure,
		sessionMgr: sessionMgr,
		mode:       mode,
		logger:     logger,
	}), nil
}

type routerDeps struct {
	db         DBDeps
	appCfg     AppConfig
	secure     bool
	sessionMgr *auth.SessionManager
	mode       mentorship.Mode
	logger     *zap.Logger
}

func newRouter(d routerDeps) chi.Router {
	db := d.db.MongoDatabase
	logger := d.logger
	sessionMgr := d.sessionMgr
	errLog := errorsfeature.NewErrorLogger(logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	// Global auth middleware: loads SessionUser into context if signed in.
	r.Use(sessionMgr.LoadSessionUser)

	errorsHandler := errorsfeature.NewHandler()
	r.NotFound(errorsHandler.NotFound)
	r.MethodNotAllowed(errorsHandler.MethodNotAllowed)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(d.db.MongoClient, d.db.Redis, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	r.Handle("/metrics", metrics.Handler(d.appCfg.MetricsToken))

	// Authentication
	loginHandler := loginfeature.NewHandler(db, sessionMgr, d.db.LoginLimiter, errLog, logger)
	logoutHandler := logoutfeature.NewHandler(sessionMgr, logger)
	googleHandler := authgooglefeature.NewHandler(db, sessionMgr, errLog,
		d.appCfg.GoogleClientID, d.appCfg.GoogleClientSecret, d.appCfg.BaseURL,
		[]byte(d.appCfg.SessionKey), d.secure, logger)
	r.Route("/auth", func(ar chi.Router) {
		ar.Mount("/google", authgooglefeature.Routes(googleHandler))
		ar.Mount("/signout", logoutfeature.Routes(logoutHandler))
		ar.Mount("/", loginfeature.Routes(loginHandler, sessionMgr))
	})

	// Profiles
	profileHandler := profilefeature.NewHandler(db, errLog, logger)
	r.Mount("/profile", profilefeature.Routes(profileHandler, sessionMgr))
	r.Mount("/users", profilefeature.PublicRoutes(profileHandler, sessionMgr))

	// Directory
	dirHandler := directoryfeature.NewHandler(dirquery.NewEngine(dirquery.NewMongoFinder(db)), errLog, logger)
	dirHandler.PageSize = d.appCfg.DirectoryPageSize
	r.Mount("/directory", directoryfeature.Routes(dirHandler, sessionMgr))

	// Connections
	svcCfg := mentorship.Config{
		Mode:  d.mode,
		Users: userstore.New(db),
		Pairs: connectionstore.New(db),
		Log:   logger,
	}
	if d.mode == mentorship.ModeSymmetric {
		svcCfg.Tx = mentorship.MongoTx(db, logger)
	}
	connHandler := connectionsfeature.NewHandler(mentorship.New(svcCfg), errLog, logger)
	r.Mount("/connections", connectionsfeature.Routes(connHandler, sessionMgr))

	// Messaging and realtime
	msgHandler := messagesfeature.NewHandler(db, d.db.Broker, messagesfeature.SocketConfig{
		AllowedOrigins:   d.appCfg.WSAllowedOrigins,
		InboundPerSecond: d.appCfg.WSInboundPerSecond,
		InboundBurst:     d.appCfg.WSInboundBurst,
	}, errLog, logger)
	r.Mount("/messages", messagesfeature.Routes(msgHandler, sessionMgr))

	return r
}
