package events

import (
	"testing"

	"claimscan/internal/claims"
)

func TestEmitStatusReachesAllSubscribers(t *testing.T) {
	n := NewNotifier()

	var got []string
	n.OnStatus(func(source string, s Status) { got = append(got, "a:"+source+":"+string(s)) })
	n.OnStatus(func(source string, s Status) { got = append(got, "b:"+source+":"+string(s)) })

	n.EmitStatus("round1.pgn", StatusActive)
	if len(got) != 2 || got[0] != "a:round1.pgn:ACTIVE" || got[1] != "b:round1.pgn:ACTIVE" {
		t.Fatalf("unexpected deliveries: %v", got)
	}
}

func TestEmitWithoutSubscribersIsSafe(t *testing.T) {
	n := NewNotifier()
	n.EmitStatus("x", StatusWaiting)
	n.EmitGameUpdated("A - B")
	n.EmitClaim(claims.Finding{Kind: claims.ThreeFold})
	n.EmitPassComplete("x", 3)
	n.EmitInputEnabled(true)
}

func TestEmitClaimCarriesFinding(t *testing.T) {
	n := NewNotifier()

	var got claims.Finding
	n.OnClaim(func(f claims.Finding) { got = f })

	n.EmitClaim(claims.Finding{ID: "id1", Kind: claims.FiftyMoves, Players: "A - B", Board: "3", Move: "61. Kd2"})
	if got.Kind != claims.FiftyMoves || got.Players != "A - B" || got.Move != "61. Kd2" {
		t.Fatalf("finding not delivered intact: %+v", got)
	}
}

func TestPassCompleteAndInput(t *testing.T) {
	n := NewNotifier()

	var source string
	var games int
	n.OnPassComplete(func(s string, g int) { source, games = s, g })

	var inputs []bool
	n.OnInputEnabled(func(enabled bool) { inputs = append(inputs, enabled) })

	n.EmitPassComplete("combined", 12)
	n.EmitInputEnabled(false)
	n.EmitInputEnabled(true)

	if source != "combined" || games != 12 {
		t.Fatalf("pass complete not delivered: %q %d", source, games)
	}
	if len(inputs) != 2 || inputs[0] || !inputs[1] {
		t.Fatalf("input events wrong: %v", inputs)
	}
}
