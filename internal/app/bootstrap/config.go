// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/mentorconnect/internal/app/system/mentorship"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// Realtime backends.
const (
	RealtimeMemory = "memory"
	RealtimeRedis  = "redis"
)

// appConfigKeys defines the configuration keys for MentorConnect.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, session_name, etc.
//   - Environment variables: MENTORCONNECT_MONGO_URI, MENTORCONNECT_SESSION_NAME, etc.
//   - Command-line flags: --mongo_uri, --session_name, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "mentorconnect", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},
	{Name: "mongo_connect_timeout", Default: "10s", Desc: "MongoDB connect and ping timeout"},
	{Name: "session_key", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "Session signing key (must be strong in production)"},
	{Name: "session_name", Default: "mentorconnect-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},
	{Name: "session_max_age", Default: "720h", Desc: "Session cookie lifetime (e.g., 24h, 720h)"},

	// Base URL for the Google callback
	{Name: "base_url", Default: "http://localhost:8080", Desc: "Public base URL of the service"},

	// Google OAuth configuration
	{Name: "google_client_id", Default: "", Desc: "Google OAuth2 client ID (blank disables Google sign-in)"},
	{Name: "google_client_secret", Default: "", Desc: "Google OAuth2 client secret"},

	// Connection workflow
	{Name: "connection_mode", Default: "symmetric", Desc: "Connection write mode: 'symmetric' or 'legacy'"},

	// Realtime fan-out
	{Name: "realtime_backend", Default: RealtimeMemory, Desc: "Realtime backend: 'memory' or 'redis'"},
	{Name: "redis_addr", Default: "", Desc: "Redis address (host:port)"},
	{Name: "redis_password", Default: "", Desc: "Redis password"},
	{Name: "redis_db", Default: 0, Desc: "Redis database number"},

	// Abuse limits
	{Name: "login_rate_per_minute", Default: 10, Desc: "Sign-in attempts allowed per minute per IP and per email"},
	{Name: "ws_inbound_per_second", Default: 5, Desc: "Websocket frames per second per socket"},
	{Name: "ws_inbound_burst", Default: 10, Desc: "Websocket frame burst per socket"},
	{Name: "ws_allowed_origins", Default: "", Desc: "Comma-separated websocket origins (blank means same origin)"},

	// Directory
	{Name: "directory_page_size", Default: 9, Desc: "Default directory page size"},

	// Store timeouts
	{Name: "timeout_ping", Default: "", Desc: "Health ping timeout (e.g., 2s)"},
	{Name: "timeout_short", Default: "", Desc: "Single-document timeout (e.g., 5s)"},
	{Name: "timeout_medium", Default: "", Desc: "Query timeout (e.g., 10s)"},
	{Name: "timeout_long", Default: "", Desc: "Multi-document transition timeout (e.g., 30s)"},

	// Workers
	{Name: "oauth_cleanup_interval", Default: "5m", Desc: "How often expired OAuth states are removed"},

	// Metrics
	{Name: "metrics_token", Default: "", Desc: "Bearer token for /metrics (required in prod)"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles:
//   - Loading from .env files
//   - Loading from config.yaml/json/toml files
//   - Reading environment variables (WAFFLE_* for core, MENTORCONNECT_* for app)
//   - Parsing command-line flags
//   - Merging with precedence: flags > env > files > defaults
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "MENTORCONNECT", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:            appValues.String("mongo_uri"),
		MongoDatabase:       appValues.String("mongo_database"),
		MongoMaxPoolSize:    uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize:    uint64(appValues.Int("mongo_min_pool_size")),
		MongoConnectTimeout: appValues.Duration("mongo_connect_timeout", 10*time.Second),
		SessionKey:          appValues.String("session_key"),
		SessionName:         appValues.String("session_name"),
		SessionDomain:       appValues.String("session_domain"),
		SessionMaxAge:       appValues.Duration("session_max_age", 30*24*time.Hour),

		BaseURL: appValues.String("base_url"),

		// Google OAuth
		GoogleClientID:     appValues.String("google_client_id"),
		GoogleClientSecret: appValues.String("google_client_secret"),

		ConnectionMode: strings.ToLower(strings.TrimSpace(appValues.String("connection_mode"))),

		// Realtime
		RealtimeBackend: strings.ToLower(strings.TrimSpace(appValues.String("realtime_backend"))),
		RedisAddr:       appValues.String("redis_addr"),
		RedisPassword:   appValues.String("redis_password"),
		RedisDB:         appValues.Int("redis_db"),

		// Abuse limits
		LoginRatePerMinute: appValues.Int("login_rate_per_minute"),
		WSInboundPerSecond: float64(appValues.Int("ws_inbound_per_second")),
		WSInboundBurst:     appValues.Int("ws_inbound_burst"),
		WSAllowedOrigins:   splitList(appValues.String("ws_allowed_origins")),

		DirectoryPageSize: appValues.Int("directory_page_size"),

		// Timeouts
		TimeoutPing:   appValues.Duration("timeout_ping", 0),
		TimeoutShort:  appValues.Duration("timeout_short", 0),
		TimeoutMedium: appValues.Duration("timeout_medium", 0),
		TimeoutLong:   appValues.Duration("timeout_long", 0),

		OAuthCleanupInterval: appValues.Duration("oauth_cleanup_interval", 5*time.Minute),

		MetricsToken: appValues.String("metrics_token"),
	}

	return coreCfg, appCfg, nil
}

// splitList parses a comma-separated list, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
// MentorConnect validates the MongoDB URI format, the connection mode and
// the realtime backend before anything connects.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}

	if _, err := mentorship.ParseMode(appCfg.ConnectionMode); err != nil {
		return err
	}

	switch appCfg.RealtimeBackend {
	case "", RealtimeMemory:
	case RealtimeRedis:
		if appCfg.RedisAddr == "" {
			return fmt.Errorf("realtime_backend %q requires redis_addr to be set", RealtimeRedis)
		}
	default:
		return fmt.Errorf("realtime_backend must be %q or %q, got %q", RealtimeMemory, RealtimeRedis, appCfg.RealtimeBackend)
	}

	if appCfg.GoogleClientID != "" && appCfg.GoogleClientSecret == "" {
		return fmt.Errorf("google_client_secret is required when google_client_id is set")
	}

	if appCfg.LoginRatePerMinute <= 0 {
		return fmt.Errorf("login_rate_per_minute must be positive, got %d", appCfg.LoginRatePerMinute)
	}

	if coreCfg != nil && coreCfg.Env == "prod" && strings.HasPrefix(appCfg.SessionKey, "dev-only") {
		return fmt.Errorf("session_key must be changed from the development default in prod")
	}

	if coreCfg != nil && coreCfg.Env == "prod" && appCfg.MetricsToken == "" {
		return fmt.Errorf("metrics_token is required in prod")
	}

	return nil
}
