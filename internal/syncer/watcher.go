package syncer

import (
	"context"
	"sync"
	"time"

	"github.com/controlsuite/auditfiles/internal/logging"
)

// Pinger checks backend reachability with a single cheap request.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Watcher tracks the online/offline mode by pinging the backend on an
// interval. It implements Connectivity for the service and consumer.
type Watcher struct {
	mu     sync.RWMutex
	online bool
	pinger Pinger
	log    logging.Logger
}

func NewWatcher(pinger Pinger, log logging.Logger) *Watcher {
	return &Watcher{pinger: pinger, log: log}
}

// Online reports the last observed mode. It never blocks on the network.
func (w *Watcher) Online(ctx context.Context) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.online
}

// Check pings once and updates the mode. Mode flips are logged.
func (w *Watcher) Check(ctx context.Context) bool {
	err := w.pinger.Ping(ctx)

	w.mu.Lock()
	defer w.mu.Unlock()
	was := w.online
	w.online = err == nil

	if w.online && !was {
		w.log.Info(ctx, "backend reachable, switching to online mode")
	}
	if !w.online && was {
		w.log.Warn(ctx, "backend unreachable, switching to offline mode", "error", err)
	}
	return w.online
}

// Run keeps the mode current until ctx is cancelled. The first check
// happens immediately so callers do not start in a stale mode.
func (w *Watcher) Run(ctx context.Context, interval time.Duration) {
	w.Check(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.Check(ctx)
		case <-ctx.Done():
			return
		}
	}
}
