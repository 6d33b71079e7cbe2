package main

import (
	"context"
	"time"
)

type pruner interface {
	PruneData(ctx context.Context, olderThan time.Duration) (int64, error)
}

type retentionLogger interface {
	Info(msg string, args ...any)
	Error(msg string, args ...any)
}

// retentionWorker deletes records older than retention every interval.
type retentionWorker struct {
	pruner    pruner
	retention time.Duration
	interval  time.Duration
	logger    retentionLogger
	observe   func(n int64)
}

// run prunes once immediately, then on every tick until ctx is done.
func (w *retentionWorker) run(ctx context.Context) {
	w.prune(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.prune(ctx)
		}
	}
}

func (w *retentionWorker) prune(ctx context.Context) {
	n, err := w.pruner.PruneData(ctx, w.retention)
	if err != nil {
		if ctx.Err() == nil {
			w.logger.Error("retention prune failed", "error", err)
		}
		return
	}
	if w.observe != nil {
		w.observe(n)
	}
	if n > 0 {
		w.logger.Info("retention pruned records", "deleted", n, "older_than", w.retention.String())
	}
}
