// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/dalemusser/mentorconnect/internal/app/store/oauthstate"
	"github.com/dalemusser/mentorconnect/internal/app/system/indexes"
	"github.com/dalemusser/mentorconnect/internal/app/system/ratelimit"
	"github.com/dalemusser/mentorconnect/internal/app/system/realtime"
	"github.com/dalemusser/mentorconnect/internal/app/system/validators"
	"github.com/dalemusser/mentorconnect/internal/app/system/workers"
	"github.com/dalemusser/waffle/config"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// ConnectDB connects MongoDB (and Redis when the realtime backend needs it)
// and builds the services that share those connections.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	client, err := connectMongo(ctx, appCfg, logger)
	if err != nil {
		return DBDeps{}, err
	}
	deps := DBDeps{
		MongoClient:   client,
		MongoDatabase: client.Database(appCfg.MongoDatabase),
	}

	if appCfg.RealtimeBackend == RealtimeRedis {
		rdb, err := connectRedis(ctx, appCfg, logger)
		if err != nil {
			_ = client.Disconnect(context.Background())
			return DBDeps{}, err
		}
		deps.Redis = rdb

		broker, err := realtime.NewRedisBroker(ctx, rdb, logger)
		if err != nil {
			_ = rdb.Close()
			_ = client.Disconnect(context.Background())
			return DBDeps{}, fmt.Errorf("redis broker: %w", err)
		}
		deps.Broker = broker
	} else {
		deps.Broker = realtime.NewMemoryBroker()
	}
	logger.Info("realtime broker ready", zap.String("backend", backendName(appCfg)))

	deps.LoginLimiter = ratelimit.NewLoginLimiter(appCfg.LoginRatePerMinute)
	deps.OAuthCleanup = workers.NewCleanup("oauth_states", oauthstate.New(deps.MongoDatabase), logger, appCfg.OAuthCleanupInterval)

	return deps, nil
}

func backendName(appCfg AppConfig) string {
	if appCfg.RealtimeBackend == "" {
		return RealtimeMemory
	}
	return appCfg.RealtimeBackend
}

func connectMongo(ctx context.Context, appCfg AppConfig, logger *zap.Logger) (*mongo.Client, error) {
	connectCtx, cancel := context.WithTimeout(ctx, connectTimeout(appCfg))
	defer cancel()

	opts := options.Client().
		ApplyURI(appCfg.MongoURI).
		SetMaxPoolSize(appCfg.MongoMaxPoolSize).
		SetMinPoolSize(appCfg.MongoMinPoolSize)

	client, err := mongo.Connect(connectCtx, opts)
	if err != nil {
		logger.Error("MongoDB connect failed", zap.Error(err))
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		logger.Error("MongoDB ping failed", zap.Error(err))
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	logger.Info("connected to MongoDB",
		zap.String("database", appCfg.MongoDatabase),
		zap.Uint64("max_pool", appCfg.MongoMaxPoolSize),
	)
	return client, nil
}

func connectRedis(ctx context.Context, appCfg AppConfig, logger *zap.Logger) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     appCfg.RedisAddr,
		Password: appCfg.RedisPassword,
		DB:       appCfg.RedisDB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout(appCfg))
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		logger.Error("Redis ping failed", zap.String("addr", appCfg.RedisAddr), zap.Error(err))
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	logger.Info("connected to Redis", zap.String("addr", appCfg.RedisAddr), zap.Int("db", appCfg.RedisDB))
	return rdb, nil
}

func connectTimeout(appCfg AppConfig) time.Duration {
	if appCfg.MongoConnectTimeout <= 0 {
		return 10 * time.Second
	}
	return appCfg.MongoConnectTimeout
}

// EnsureSchema applies collection validators and reconciles indexes. Both are
// idempotent and safe to run on every start.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if err := validators.EnsureAll(ctx, deps.MongoDatabase); err != nil {
		logger.Error("schema validators failed", zap.Error(err))
		return err
	}
	if err := indexes.EnsureAll(ctx, deps.MongoDatabase); err != nil {
		logger.Error("index ensure failed", zap.Error(err))
		return err
	}
	logger.Info("schema ready", zap.String("database", appCfg.MongoDatabase))
	return nil
}
