// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"errors"

	metricsstore "github.com/dalemusser/mentorconnect/internal/app/store/metrics"
	"github.com/dalemusser/mentorconnect/internal/app/system/metrics"
	"github.com/dalemusser/mentorconnect/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/config"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	timeouts.Configure(timeouts.Config{
		Ping:   appCfg.TimeoutPing,
		Short:  appCfg.TimeoutShort,
		Medium: appCfg.TimeoutMedium,
		Long:   appCfg.TimeoutLong,
	})

	collector := metrics.NewPlatformCollector(metricsstore.CountsFunc(deps.MongoDatabase), timeouts.Medium())
	if err := prometheus.Register(collector); err != nil {
		var are prometheus.AlreadyRegisteredError
		if !errors.As(err, &are) {
			logger.Error("platform metrics registration failed", zap.Error(err))
			return err
		}
	}

	if deps.OAuthCleanup != nil {
		deps.OAuthCleanup.Start()
	}

	cur := timeouts.Current()
	logger.Info("startup complete",
		zap.String("connection_mode", appCfg.ConnectionMode),
		zap.Duration("timeout_short", cur.Short),
		zap.Duration("timeout_medium", cur.Medium),
		zap.Duration("timeout_long", cur.Long),
	)
	return nil
}
