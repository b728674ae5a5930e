// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"github.com/dalemusser/mentorconnect/internal/app/system/ratelimit"
	"github.com/dalemusser/mentorconnect/internal/app/system/realtime"
	"github.com/dalemusser/mentorconnect/internal/app/system/workers"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds database/back-end dependencies for the app.
//
// ConnectDB builds the clients and the long-lived services on top of them.
// Startup starts the background worker and Shutdown tears everything down in
// reverse order.
type DBDeps struct {
	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database

	// Redis is nil unless the realtime backend is redis.
	Redis *redis.Client

	Broker       realtime.Broker
	LoginLimiter *ratelimit.LoginLimiter
	OAuthCleanup *workers.Cleanup
}
