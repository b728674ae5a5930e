// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). They represent *app-level*
// configuration, not WAFFLE core configuration.
//
// WAFFLE's CoreConfig handles framework-level settings like HTTP ports,
// TLS, logging level and request body limits. AppConfig carries what is
// specific to MentorConnect: the document store, sessions, Google sign-in,
// the connection write mode and the realtime backend.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI            string        // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase       string        // Database name within MongoDB
	MongoMaxPoolSize    uint64        // Max connections in the driver pool
	MongoMinPoolSize    uint64        // Min connections kept open
	MongoConnectTimeout time.Duration // Connect + initial ping budget

	// Session management configuration
	SessionKey    string        // Secret key for signing session cookies (must be strong in production)
	SessionName   string        // Cookie name for sessions (default: mentorconnect-session)
	SessionDomain string        // Cookie domain (blank means current host)
	SessionMaxAge time.Duration // Session cookie lifetime

	// Base URL used to build the Google callback URL
	BaseURL string // e.g., "https://mentorconnect.example" or "http://localhost:8080"

	// Google OAuth (sign-in is disabled when the client id is blank)
	GoogleClientID     string
	GoogleClientSecret string

	// Connection workflow write mode: "symmetric" or "legacy"
	ConnectionMode string

	// Realtime fan-out: "memory" (single node) or "redis"
	RealtimeBackend string
	RedisAddr       string
	RedisPassword   string
	RedisDB         int

	// Abuse limits
	LoginRatePerMinute int     // sign-in attempts per IP and per email
	WSInboundPerSecond float64 // websocket frames per second per socket
	WSInboundBurst     int     // websocket frame burst per socket
	WSAllowedOrigins   []string

	// Directory default page size
	DirectoryPageSize int

	// Store timeouts (zero keeps the defaults)
	TimeoutPing   time.Duration
	TimeoutShort  time.Duration
	TimeoutMedium time.Duration
	TimeoutLong   time.Duration

	// How often expired Google sign-in states are swept
	OAuthCleanupInterval time.Duration

	// Bearer token required to scrape /metrics (blank leaves it open; required in prod)
	MetricsToken string
}
