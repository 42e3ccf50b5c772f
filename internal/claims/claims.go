// Package claims evaluates fully decoded games for claim-worthy draw
// conditions: position repetitions and the 50/75 move rules.
package claims

import (
	"strconv"
	"strings"
	"sync"

	chess "github.com/corentings/chess/v2"
	"github.com/google/uuid"

	"claimscan/internal/pgn"
)

// Kind identifies a claim-worthy condition.
type Kind string

const (
	ThreeFold        Kind = "3 Fold Repetition"
	FiveFold         Kind = "5 Fold Repetition"
	FiftyMoves       Kind = "50 Moves Rule"
	SeventyFiveMoves Kind = "75 Moves Rule"
)

// Finding is one actionable claim discovered in a game, with the
// supporting data the operator needs to act on it.
type Finding struct {
	ID      string
	Kind    Kind
	Players string
	Board   string
	Move    string
}

// Checker evaluates games and maintains the operator's exclusion set of
// identities whose claims were already handled this session.
type Checker struct {
	mu        sync.RWMutex
	dontCheck map[string]struct{}
}

func NewChecker(excluded []string) *Checker {
	c := &Checker{dontCheck: make(map[string]struct{})}
	for _, p := range excluded {
		if p = strings.TrimSpace(p); p != "" {
			c.dontCheck[p] = struct{}{}
		}
	}
	return c
}

// Exclude marks an identity as handled; subsequent passes skip it.
func (c *Checker) Exclude(players string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dontCheck[players] = struct{}{}
}

// Excluded reports whether claim evaluation should be skipped for players.
func (c *Checker) Excluded(players string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.dontCheck[players]
	return ok
}

// CheckGame replays the game's mainline and returns every claim-worthy
// condition found, each at its first occurrence and at most once per kind.
// Repetitions are counted by Zobrist hash of each reached position; the
// move rules read the halfmove clock off the position's FEN.
func (c *Checker) CheckGame(g *chess.Game) []Finding {
	players := pgn.Players(g)
	board := pgn.BoardLabel(g)

	replay, err := replayStart(g)
	if err != nil {
		return nil
	}

	hasher := chess.NewZobristHasher()
	// positionKey hashes a FEN for repetition counting. When hashing
	// fails the FEN's first four fields stand in, which still identifies
	// the position.
	positionKey := func(fen string) string {
		if h, err := hasher.HashPosition(fen); err == nil {
			return h
		}
		fields := strings.Fields(fen)
		if len(fields) > 4 {
			fields = fields[:4]
		}
		return strings.Join(fields, " ")
	}

	seen := make(map[string]int)
	seen[positionKey(replay.FEN())]++

	var findings []Finding
	reported := make(map[Kind]bool)
	report := func(kind Kind, move string) {
		if reported[kind] {
			return
		}
		reported[kind] = true
		findings = append(findings, Finding{
			ID:      uuid.NewString(),
			Kind:    kind,
			Players: players,
			Board:   board,
			Move:    move,
		})
	}

	san := chess.AlgebraicNotation{}
	ply := 0
	for _, mv := range g.Moves() {
		ply++
		pos := replay.Position()
		if err := replay.PushNotationMove(mv.String(), chess.UCINotation{}, nil); err != nil {
			break
		}
		move := pgn.PrintableMove(ply, san.Encode(pos, mv))

		fen := replay.FEN()
		key := positionKey(fen)
		seen[key]++
		switch seen[key] {
		case 3:
			report(ThreeFold, move)
		case 5:
			report(FiveFold, move)
		}

		clock := halfmoveClock(fen)
		if clock >= 100 {
			report(FiftyMoves, move)
		}
		if clock >= 150 {
			report(SeventyFiveMoves, move)
		}
	}

	// A fivefold or 75-move finding is terminal for the game: no stronger
	// claim can follow, so later passes skip it outright.
	if reported[FiveFold] || reported[SeventyFiveMoves] {
		c.Exclude(players)
	}
	return findings
}

func replayStart(g *chess.Game) (*chess.Game, error) {
	fen := strings.TrimSpace(g.GetTagPair("FEN"))
	if fen == "" {
		return chess.NewGame(), nil
	}
	opt, err := chess.FEN(fen)
	if err != nil {
		return nil, err
	}
	return chess.NewGame(opt), nil
}

// halfmoveClock reads field five of a FEN, 0 when absent or malformed.
func halfmoveClock(fen string) int {
	fields := strings.Fields(fen)
	if len(fields) < 5 {
		return 0
	}
	n, err := strconv.Atoi(fields[4])
	if err != nil {
		return 0
	}
	return n
}
