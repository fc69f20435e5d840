package service

import (
	"context"
	"sync"
	"time"

	"github.com/MKhiriev/go-vault-sync/internal/logger"
)

type syncJob struct {
	engine SyncEngine
	log    *logger.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewSyncJob creates a syncJob that runs engine.Sync on a ticker. The job
// is idle until Start is called.
func NewSyncJob(engine SyncEngine, log *logger.Logger) SyncJob {
	return &syncJob{engine: engine, log: log}
}

// Start implements SyncJob. It stops any previously running job, then
// launches a background goroutine that syncs every interval. If interval is
// zero or negative it defaults to 5 minutes. The goroutine exits when ctx
// is cancelled or Stop is called. Start and Stop are serialised under one
// mutex, so concurrent callers can never leave two tickers running.
func (j *syncJob) Start(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	j.stopLocked()

	jobCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	j.cancel = cancel
	j.done = done

	go func() {
		defer close(done)
		t := time.NewTicker(interval)
		defer t.Stop()

		for {
			select {
			case <-jobCtx.Done():
				return
			case <-t.C:
				if _, err := j.engine.Sync(jobCtx); err != nil {
					j.log.Warn().Err(err).Msg("background sync pass failed")
				}
			}
		}
	}()
}

// Stop implements SyncJob. It cancels the background goroutine's context
// and blocks until the goroutine has fully exited. Safe to call when the
// job is not running (no-op in that case).
func (j *syncJob) Stop() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.stopLocked()
}

// stopLocked cancels the running goroutine and waits for it to exit. The
// goroutine never takes j.mu, so waiting under the lock cannot deadlock.
func (j *syncJob) stopLocked() {
	if j.cancel == nil {
		return
	}
	j.cancel()
	j.cancel = nil
	<-j.done
	j.done = nil
}
