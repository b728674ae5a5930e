// internal/app/system/workers/cleanup.go
package workers

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Sweeper deletes expired records and reports how many it removed.
type Sweeper interface {
	CleanupExpired(ctx context.Context) (int64, error)
}

// Cleanup is a background worker that periodically sweeps expired records.
// TTL indexes do the same eventually; the worker bounds how long an expired
// record can linger.
type Cleanup struct {
	name     string
	sweeper  Sweeper
	log      *zap.Logger
	interval time.Duration
	timeout  time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewCleanup creates a cleanup worker.
//
// Parameters:
//   - name: what is swept, for logs (e.g., "oauth_states")
//   - sweeper: the store to sweep
//   - logger: zap logger for logging
//   - interval: how often to run cleanup (e.g., 5 minutes)
func NewCleanup(name string, sweeper Sweeper, logger *zap.Logger, interval time.Duration) *Cleanup {
	return &Cleanup{
		name:     name,
		sweeper:  sweeper,
		log:      logger.With(zap.String("worker", name+"_cleanup")),
		interval: interval,
		timeout:  30 * time.Second,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the background cleanup loop.
func (w *Cleanup) Start() {
	w.wg.Add(1)
	go w.run()
	w.log.Info("cleanup worker started", zap.Duration("interval", w.interval))
}

// Stop signals the worker to stop and waits for it to finish. It is safe to
// call more than once.
func (w *Cleanup) Stop() {
	w.stopOnce.Do(func() { close(w.stopCh) })
	w.wg.Wait()
	w.log.Info("cleanup worker stopped")
}

func (w *Cleanup) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.sweep()
		}
	}
}

func (w *Cleanup) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()

	count, err := w.sweeper.CleanupExpired(ctx)
	if err != nil {
		w.log.Error("cleanup failed", zap.Error(err))
		return
	}

	if count > 0 {
		w.log.Info("removed expired records", zap.String("what", w.name), zap.Int64("count", count))
	}
}
