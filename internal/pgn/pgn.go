// Package pgn adapts the chess library's PGN machinery to the scanning
// pipeline: sequential record decoding, identity/board derivation, move
// display formatting and mainline replay.
package pgn

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strings"

	chess "github.com/corentings/chess/v2"
)

// Record is one raw game record split out of the stream, parsed
// independently of its neighbors. Game is nil when the parser rejected
// the record; Tags are always derived from the raw header lines, so an
// unparseable record still has an identity.
type Record struct {
	Raw  string
	Tags map[string]string
	Game *chess.Game
}

// Reader splits one open PGN stream into sequential records on
// header-block boundaries and parses each independently, so a malformed
// record never hides the records after it. Next returns io.EOF once the
// stream is exhausted; a record's own parse failure is carried on the
// Record (nil Game), not returned.
type Reader struct {
	br      *bufio.Reader
	pending string
	done    bool
}

func NewReader(r io.Reader) *Reader {
	return &Reader{br: bufio.NewReader(r)}
}

func (r *Reader) Next() (*Record, error) {
	raw := r.nextRaw()
	if raw == "" {
		return nil, io.EOF
	}
	return &Record{Raw: raw, Tags: parseTags(raw), Game: parseRaw(raw)}, nil
}

// nextRaw accumulates lines until a header line follows movetext, which
// starts the next record. The boundary line is held for the next call.
func (r *Reader) nextRaw() string {
	var b strings.Builder
	sawMoves := false
	if r.pending != "" {
		b.WriteString(r.pending)
		b.WriteByte('\n')
		r.pending = ""
	}
	for !r.done {
		line, err := r.br.ReadString('\n')
		if err != nil {
			r.done = true
		}
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "":
			b.WriteByte('\n')
		case strings.HasPrefix(trimmed, "[") && sawMoves:
			r.pending = trimmed
			return strings.TrimSpace(b.String())
		default:
			if !strings.HasPrefix(trimmed, "[") {
				sawMoves = true
			}
			b.WriteString(trimmed)
			b.WriteByte('\n')
		}
	}
	return strings.TrimSpace(b.String())
}

var tagPattern = regexp.MustCompile(`\[(\w+)\s+"([^"]*)"\]`)

func parseTags(raw string) map[string]string {
	tags := make(map[string]string)
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "[") {
			continue
		}
		if m := tagPattern.FindStringSubmatch(line); m != nil {
			tags[m[1]] = m[2]
		}
	}
	return tags
}

func parseRaw(raw string) *chess.Game {
	sc := chess.NewScanner(strings.NewReader(raw))
	if !sc.HasNext() {
		return nil
	}
	g, err := sc.ParseNext()
	if err != nil {
		return nil
	}
	return g
}

func (rec *Record) tagOr(key, def string) string {
	if v := strings.TrimSpace(rec.Tags[key]); v != "" {
		return v
	}
	return def
}

// Players derives the tracker identity from the White/Black header pair.
func (rec *Record) Players() string {
	return rec.tagOr("White", "Unknown") + " - " + rec.tagOr("Black", "Unknown")
}

// Board derives the display board number. Broadcast PGNs carry a Board
// tag; Round is the usual fallback.
func (rec *Record) Board() string {
	if v := strings.TrimSpace(rec.Tags["Board"]); v != "" {
		return v
	}
	if v := strings.TrimSpace(rec.Tags["Round"]); v != "" {
		return v
	}
	return "?"
}

// Result returns the header result, "*" when the game is unfinished.
func (rec *Record) Result() string {
	if v := strings.TrimSpace(rec.Tags["Result"]); v != "" {
		return v
	}
	if rec.Game != nil {
		return string(rec.Game.Outcome())
	}
	return "*"
}

// Players derives the tracker identity from a parsed game's headers.
func Players(g *chess.Game) string {
	return gameTagOr(g, "White", "Unknown") + " - " + gameTagOr(g, "Black", "Unknown")
}

// BoardLabel derives the display board number from a parsed game.
func BoardLabel(g *chess.Game) string {
	if v := strings.TrimSpace(g.GetTagPair("Board")); v != "" {
		return v
	}
	if v := strings.TrimSpace(g.GetTagPair("Round")); v != "" {
		return v
	}
	return "?"
}

// PrintableMove renders a half-move for display: ply 7 with san "Qxf7#"
// becomes "4. Qxf7#", ply 8 would be "4... Qxf7#".
func PrintableMove(ply int, san string) string {
	n := (ply + 1) / 2
	if ply%2 == 1 {
		return fmt.Sprintf("%d. %s", n, san)
	}
	return fmt.Sprintf("%d... %s", n, san)
}

// Replay is the outcome of re-deriving one game's mainline.
type Replay struct {
	MoveCount   int
	LastMove    string
	HasError    bool
	ErrorAtMove int
}

// Replay re-derives the record's mainline. Parsed records replay through
// the library game; records the parser rejected fall back to pushing the
// raw SAN tokens one by one, so the failing move index is still known
// and the bad record stays contained to itself.
func (rec *Record) Replay() Replay {
	if rec.Game != nil {
		return ReplayMainline(rec.Game)
	}
	return rec.replayTokens()
}

// ReplayMainline re-applies a parsed record's mainline onto a fresh game,
// validating every move and producing the display form of the last one.
// The first failing move stops the replay; the record's remaining moves
// are not trusted.
func ReplayMainline(g *chess.Game) Replay {
	var res Replay

	replay, err := gameFromFEN(strings.TrimSpace(g.GetTagPair("FEN")))
	if err != nil {
		res.HasError = true
		res.LastMove = "Parse error"
		return res
	}

	san := chess.AlgebraicNotation{}
	for _, mv := range g.Moves() {
		res.MoveCount++
		pos := replay.Position()
		if err := replay.PushNotationMove(mv.String(), chess.UCINotation{}, nil); err != nil {
			res.HasError = true
			res.ErrorAtMove = res.MoveCount
			res.LastMove = fmt.Sprintf("Error at move %d", res.MoveCount)
			return res
		}
		res.LastMove = PrintableMove(res.MoveCount, san.Encode(pos, mv))
	}
	return res
}

// replayTokens replays an unparseable record from its raw SAN tokens.
// The record is invalid either way; ErrorAtMove marks the first token
// the position rejects, 0 when the failure is not tied to one move.
func (rec *Record) replayTokens() Replay {
	res := Replay{HasError: true}

	replay, err := gameFromFEN(strings.TrimSpace(rec.Tags["FEN"]))
	if err != nil {
		res.LastMove = "Parse error"
		return res
	}

	for _, tok := range sanTokens(rec.movetext()) {
		res.MoveCount++
		if err := replay.PushNotationMove(tok, chess.AlgebraicNotation{}, nil); err != nil {
			res.ErrorAtMove = res.MoveCount
			res.LastMove = fmt.Sprintf("Error at move %d", res.MoveCount)
			return res
		}
		res.LastMove = PrintableMove(res.MoveCount, tok)
	}
	if res.LastMove == "" {
		res.LastMove = "Parse error"
	}
	return res
}

// movetext joins the record's non-header lines, dropping rest-of-line
// comments.
func (rec *Record) movetext() string {
	var lines []string
	for _, line := range strings.Split(rec.Raw, "\n") {
		t := strings.TrimSpace(line)
		if t == "" || strings.HasPrefix(t, "[") {
			continue
		}
		if idx := strings.IndexByte(t, ';'); idx >= 0 {
			t = strings.TrimSpace(t[:idx])
			if t == "" {
				continue
			}
		}
		lines = append(lines, t)
	}
	return strings.Join(lines, " ")
}

// sanTokens strips brace comments, variations, move numbers, NAGs and
// result markers, leaving the bare SAN tokens of the mainline.
func sanTokens(movetext string) []string {
	var clean strings.Builder
	depth := 0
	comment := false
	for i := 0; i < len(movetext); i++ {
		c := movetext[i]
		switch {
		case comment:
			if c == '}' {
				comment = false
			}
		case c == '{':
			comment = true
		case c == '(':
			depth++
		case c == ')':
			if depth > 0 {
				depth--
			}
		case depth == 0:
			clean.WriteByte(c)
		}
	}

	var toks []string
	for _, f := range strings.Fields(clean.String()) {
		switch f {
		case "1-0", "0-1", "1/2-1/2", "*":
			continue
		}
		if strings.HasPrefix(f, "$") {
			continue
		}
		f = strings.TrimLeft(f, "0123456789.")
		if f == "" {
			continue
		}
		toks = append(toks, f)
	}
	return toks
}

// gameFromFEN builds the replay game, honoring a FEN setup header.
func gameFromFEN(fen string) (*chess.Game, error) {
	if fen == "" {
		return chess.NewGame(), nil
	}
	opt, err := chess.FEN(fen)
	if err != nil {
		return nil, fmt.Errorf("setup position: %w", err)
	}
	return chess.NewGame(opt), nil
}

func gameTagOr(g *chess.Game, key, def string) string {
	if v := strings.TrimSpace(g.GetTagPair(key)); v != "" {
		return v
	}
	return def
}
