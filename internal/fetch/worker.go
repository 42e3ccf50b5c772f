package fetch

import (
	"context"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"

	"claimscan/internal/events"
	"claimscan/internal/obslog"
)

// Worker periodically downloads every configured source into its local
// file. A zero interval runs a single pass. Failures are reported per
// source and never stop the loop.
type Worker struct {
	downloads map[string]string // url -> local file
	interval  time.Duration
	client    *Client
	notifier  *events.Notifier

	wg sync.WaitGroup
}

func NewWorker(client *Client, notifier *events.Notifier, downloads map[string]string, interval time.Duration) *Worker {
	return &Worker{
		downloads: downloads,
		interval:  interval,
		client:    client,
		notifier:  notifier,
	}
}

// Start launches the download loop. Wait blocks until it has exited.
func (w *Worker) Start(ctx context.Context) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.run(ctx)
	}()
}

func (w *Worker) Wait() { w.wg.Wait() }

func (w *Worker) run(ctx context.Context) {
	if w.interval <= 0 {
		w.downloadAll(ctx)
		return
	}
	for {
		if ctx.Err() != nil {
			return
		}
		w.downloadAll(ctx)
		select {
		case <-ctx.Done():
			return
		case <-time.After(w.interval):
		}
	}
}

func (w *Worker) downloadAll(ctx context.Context) {
	for url, filename := range w.downloads {
		if ctx.Err() != nil {
			return
		}
		data, err := w.client.Fetch(ctx, url)
		if err != nil {
			w.notifier.EmitStatus(url, events.StatusError)
			obslog.L().Warn("download_error", zap.String("url", url), zap.Error(err))
			continue
		}
		if err := os.WriteFile(filename, data, 0o644); err != nil {
			w.notifier.EmitStatus(url, events.StatusError)
			obslog.L().Warn("download_write_error", zap.String("file", filename), zap.Error(err))
			continue
		}
		w.notifier.EmitStatus(url, events.StatusOK)
	}
}
