// Package tracker holds the derived state of every game seen across scan
// passes. It is the single source of truth read by the presentation layer.
package tracker

import (
	"fmt"
	"sync"
	"time"
)

// GameStatus is the lifecycle state of a tracked game.
type GameStatus string

const (
	StatusActive   GameStatus = "Active"
	StatusFinished GameStatus = "Finished"
	StatusInvalid  GameStatus = "Invalid"
)

// TrackedGame is the derived state for one pairing. Players is the
// tracker's unique key; Board is a display label only.
type TrackedGame struct {
	Players    string
	Board      string
	MoveCount  int
	LastUpdate time.Time
	Status     GameStatus
	Result     string
	LastMove   string
	Claims     []string
	HasError   bool
	// ErrorAtMove is the 1-based index of the first failing move, 0 when
	// the failure was not tied to a specific move (or there was none).
	ErrorAtMove int
}

// TimeSinceUpdate renders the idle time as "42s", "3m" or "1h 4m".
func (g *TrackedGame) TimeSinceUpdate() string {
	return formatSince(time.Since(g.LastUpdate))
}

func formatSince(d time.Duration) string {
	total := int(d.Seconds())
	switch {
	case total < 60:
		return fmt.Sprintf("%ds", total)
	case total < 3600:
		return fmt.Sprintf("%dm", total/60)
	default:
		return fmt.Sprintf("%dh %dm", total/3600, (total%3600)/60)
	}
}

// GameTracker is a thread-safe store of players -> TrackedGame. All access
// to the underlying map goes through its four operations; no caller ever
// receives a live reference into the map.
type GameTracker struct {
	mu    sync.Mutex
	games map[string]*TrackedGame
	order []string

	now func() time.Time
}

func New() *GameTracker {
	return &GameTracker{
		games: make(map[string]*TrackedGame),
		now:   time.Now,
	}
}

// UpdateGame upserts the entry for players. Status is derived from result
// ("*" means unfinished) and forced to Invalid when hasError is set.
// LastUpdate is touched only when moveCount differs from the stored value,
// which is what makes idle detection downstream meaningful.
func (t *GameTracker) UpdateGame(players, board string, moveCount int, lastMove string, hasError bool, errorAtMove int, result string) TrackedGame {
	status := StatusActive
	if result != "*" {
		status = StatusFinished
	}
	if hasError {
		status = StatusInvalid
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if existing, ok := t.games[players]; ok {
		if moveCount != existing.MoveCount {
			existing.LastUpdate = t.now()
		}
		existing.MoveCount = moveCount
		existing.Status = status
		existing.Result = result
		existing.LastMove = lastMove
		existing.HasError = hasError
		existing.ErrorAtMove = errorAtMove
		return copyGame(existing)
	}

	tracked := &TrackedGame{
		Players:     players,
		Board:       board,
		MoveCount:   moveCount,
		LastUpdate:  t.now(),
		Status:      status,
		Result:      result,
		LastMove:    lastMove,
		HasError:    hasError,
		ErrorAtMove: errorAtMove,
	}
	t.games[players] = tracked
	t.order = append(t.order, players)
	return copyGame(tracked)
}

// AddClaim appends a claim kind to the game's claim list. Unknown players
// and already-recorded kinds are ignored, so a kind appears at most once,
// in first-seen order.
func (t *GameTracker) AddClaim(players, kind string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	g, ok := t.games[players]
	if !ok {
		return
	}
	for _, c := range g.Claims {
		if c == kind {
			return
		}
	}
	g.Claims = append(g.Claims, kind)
}

// Snapshot returns an independent copy of every tracked game, in the order
// identities were first observed.
func (t *GameTracker) Snapshot() []TrackedGame {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]TrackedGame, 0, len(t.order))
	for _, players := range t.order {
		out = append(out, copyGame(t.games[players]))
	}
	return out
}

// Clear empties the store for a fresh session.
func (t *GameTracker) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.games = make(map[string]*TrackedGame)
	t.order = nil
}

func copyGame(g *TrackedGame) TrackedGame {
	cp := *g
	cp.Claims = append([]string(nil), g.Claims...)
	return cp
}
