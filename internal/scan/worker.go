// Package scan implements the polling workers that keep the game tracker
// current: one scan worker per source file, the legacy combined-file pair
// (merge + scan under a shared file lock) and the stop orchestrator.
package scan

import (
	"context"
	"os"
	"sync"
	"time"

	chess "github.com/corentings/chess/v2"
	"github.com/gofrs/flock"
	"go.uber.org/zap"

	"claimscan/internal/claims"
	"claimscan/internal/events"
	"claimscan/internal/obslog"
	"claimscan/internal/pgn"
	"claimscan/internal/tracker"
)

// Evaluator is the rule engine consulted for every cleanly decoded game.
// It is never asked about erroring or excluded games.
type Evaluator interface {
	Excluded(players string) bool
	CheckGame(g *chess.Game) []claims.Finding
}

// Worker polls one source file for growth and re-derives every game in it
// on each detected change. The whole file is re-read on every pass; state
// stays re-derivable from scratch even if the source is truncated or
// rewritten between polls.
type Worker struct {
	source   string
	path     string
	interval time.Duration

	tracker  *tracker.GameTracker
	eval     Evaluator
	notifier *events.Notifier
	livePGN  func() bool

	// lock is held across a full pass on the legacy combined path, where
	// the merge worker rewrites the same file. Nil for per-source workers.
	lock *flock.Flock

	replay func(*chess.Game) pgn.Replay

	lastSize int64
	wg       sync.WaitGroup
}

func NewWorker(source, path string, interval time.Duration, t *tracker.GameTracker, eval Evaluator, notifier *events.Notifier, livePGN func() bool) *Worker {
	return &Worker{
		source:   source,
		path:     path,
		interval: interval,
		tracker:  t,
		eval:     eval,
		notifier: notifier,
		livePGN:  livePGN,
		replay:   pgn.ReplayMainline,
	}
}

// NewCombinedWorker builds the legacy worker scanning the merged file,
// excluded from running concurrently with the merge pass by lock. New
// deployments should prefer one Worker per source: the per-source design
// needs no cross-source lock and isolates one source's failure.
func NewCombinedWorker(path string, interval time.Duration, t *tracker.GameTracker, eval Evaluator, notifier *events.Notifier, livePGN func() bool, lock *flock.Flock) *Worker {
	w := NewWorker("combined", path, interval, t, eval, notifier, livePGN)
	w.lock = lock
	return w
}

// Start launches the poll loop. Wait blocks until it has exited.
func (w *Worker) Start(ctx context.Context) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.run(ctx)
	}()
}

func (w *Worker) Wait() { w.wg.Wait() }

func (w *Worker) run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		w.tick(ctx)
		select {
		case <-ctx.Done():
			return
		case <-time.After(w.interval):
		}
	}
}

// tick performs one poll iteration: size check, optional rescan, status.
func (w *Worker) tick(ctx context.Context) {
	size := fileSize(w.path)

	if size != 0 && size != w.lastSize {
		w.notifier.EmitStatus(w.source, events.StatusActive)
		w.scanPass(ctx)
	}

	w.notifier.EmitStatus(w.source, events.StatusWaiting)
	w.lastSize = size
}

// scanPass re-decodes every record in the file and reconciles the tracker.
// All failures are contained: a record the parser rejects is tracked as
// invalid under its raw-header identity, and the pass moves on to the
// next record.
func (w *Worker) scanPass(ctx context.Context) {
	games := 0
	defer func() {
		w.notifier.EmitPassComplete(w.source, games)
	}()

	if w.lock != nil {
		if err := w.lock.Lock(); err != nil {
			obslog.L().Warn("scan_lock_error", zap.String("source", w.source), zap.Error(err))
			return
		}
		defer func() {
			if err := w.lock.Unlock(); err != nil {
				obslog.L().Warn("scan_unlock_error", zap.String("source", w.source), zap.Error(err))
			}
		}()
	}

	f, err := os.Open(w.path)
	if err != nil {
		// file vanished between size check and open; retry next interval
		return
	}
	defer f.Close()

	rd := pgn.NewReader(f)
	for ctx.Err() == nil {
		rec, err := rd.Next()
		if err != nil {
			// io.EOF: end of available input
			break
		}
		games++

		players := rec.Players()
		board := rec.Board()
		result := rec.Result()

		var rep pgn.Replay
		if rec.Game != nil {
			rep = w.replay(rec.Game)
		} else {
			rep = rec.Replay()
		}

		w.tracker.UpdateGame(players, board, rep.MoveCount, rep.LastMove, rep.HasError, rep.ErrorAtMove, result)
		w.notifier.EmitGameUpdated(players)

		// Finished games on a live source were evaluated while still
		// active; their final snapshot brings nothing new.
		if w.livePGN != nil && w.livePGN() && result != "*" {
			continue
		}
		if w.eval == nil || w.eval.Excluded(players) {
			continue
		}
		if rep.HasError {
			continue
		}

		for _, finding := range w.eval.CheckGame(rec.Game) {
			w.notifier.EmitClaim(finding)
			w.tracker.AddClaim(players, string(finding.Kind))
			w.notifier.EmitGameUpdated(players)
			obslog.L().Info("claim_found",
				zap.String("source", w.source),
				zap.String("players", players),
				zap.String("kind", string(finding.Kind)),
				zap.String("move", finding.Move))
		}
	}

	obslog.L().Debug("scan_pass", zap.String("source", w.source), zap.Int("games", games))
}

// fileSize treats an absent file as empty; the source may not exist yet.
func fileSize(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.Size()
}
