package workers

import (
	"context"
	"time"

	"github.com/MKhiriev/go-vault-sync/internal/service"
)

type Workers struct {
	workers []Worker
}

// NewWorkers aggregates the given workers; Run starts them in order.
func NewWorkers(ws ...Worker) *Workers {
	return &Workers{workers: ws}
}

func (w *Workers) Run() {
	for _, worker := range w.workers {
		worker.Run()
	}
}

// syncWorker launches the periodic background sync job.
type syncWorker struct {
	ctx      context.Context
	job      service.SyncJob
	interval time.Duration
}

// NewSyncWorker wraps a sync job as a Worker. The job stops when ctx is
// cancelled.
func NewSyncWorker(ctx context.Context, job service.SyncJob, interval time.Duration) Worker {
	return &syncWorker{ctx: ctx, job: job, interval: interval}
}

func (w *syncWorker) Run() {
	w.job.Start(w.ctx, w.interval)
}
