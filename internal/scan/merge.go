package scan

import (
	"bytes"
	"context"
	"os"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"go.uber.org/zap"

	"claimscan/internal/obslog"
)

// MergeWorker maintains the legacy combined file: on every pass it
// concatenates the current contents of all sources, blank-line separated,
// into outPath. The write happens under the same advisory lock the
// combined scan worker holds across its pass, so the two never interleave.
// A zero interval runs a single pass.
type MergeWorker struct {
	filepaths []string
	outPath   string
	interval  time.Duration
	lock      *flock.Flock

	wg sync.WaitGroup
}

func NewMergeWorker(filepaths []string, outPath string, interval time.Duration, lock *flock.Flock) *MergeWorker {
	return &MergeWorker{
		filepaths: filepaths,
		outPath:   outPath,
		interval:  interval,
		lock:      lock,
	}
}

// Start launches the merge loop. Wait blocks until it has exited.
func (m *MergeWorker) Start(ctx context.Context) {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.run(ctx)
	}()
}

func (m *MergeWorker) Wait() { m.wg.Wait() }

func (m *MergeWorker) run(ctx context.Context) {
	if m.interval <= 0 {
		m.mergeOnce()
		return
	}
	for {
		if ctx.Err() != nil {
			return
		}
		m.mergeOnce()
		select {
		case <-ctx.Done():
			return
		case <-time.After(m.interval):
		}
	}
}

// mergeOnce holds the lock for the entire read-then-write pass, so the
// combined scanner never observes output built from a half-read state.
func (m *MergeWorker) mergeOnce() {
	if m.lock != nil {
		if err := m.lock.Lock(); err != nil {
			obslog.L().Warn("merge_lock_error", zap.Error(err))
			return
		}
		defer func() {
			if err := m.lock.Unlock(); err != nil {
				obslog.L().Warn("merge_unlock_error", zap.Error(err))
			}
		}()
	}

	var buf bytes.Buffer
	for _, path := range m.filepaths {
		data, err := os.ReadFile(path)
		if err != nil {
			// source not downloaded yet; skip it this pass
			continue
		}
		if buf.Len() > 0 {
			buf.WriteString("\n\n")
		}
		buf.Write(data)
	}

	if err := os.WriteFile(m.outPath, buf.Bytes(), 0o644); err != nil {
		obslog.L().Warn("merge_write_error", zap.String("file", m.outPath), zap.Error(err))
		return
	}
	obslog.L().Debug("merge_pass", zap.String("file", m.outPath), zap.Int("bytes", buf.Len()))
}
