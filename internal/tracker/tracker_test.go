package tracker

import (
	"testing"
	"time"
)

// fakeClock steps a deterministic timestamp forward on demand.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestTracker() (*GameTracker, *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	tr := New()
	tr.now = clock.now
	return tr, clock
}

func TestUpdateGameTimestampOnlyOnMoveChange(t *testing.T) {
	tr, clock := newTestTracker()

	g1 := tr.UpdateGame("Alice - Bob", "1", 10, "5... Nf6", false, 0, "*")
	first := g1.LastUpdate

	// same move count: timestamp untouched, other fields refreshed
	clock.advance(time.Minute)
	g2 := tr.UpdateGame("Alice - Bob", "1", 10, "5... Nf6", false, 0, "*")
	if !g2.LastUpdate.Equal(first) {
		t.Fatalf("LastUpdate changed without move change: %v vs %v", g2.LastUpdate, first)
	}

	// move count changed: timestamp moves
	clock.advance(time.Minute)
	g3 := tr.UpdateGame("Alice - Bob", "1", 11, "6. d4", false, 0, "*")
	if g3.LastUpdate.Equal(first) {
		t.Fatalf("LastUpdate not refreshed on move change")
	}
	if g3.MoveCount != 11 || g3.LastMove != "6. d4" {
		t.Fatalf("unexpected state: %+v", g3)
	}
}

func TestStatusDerivation(t *testing.T) {
	tr, _ := newTestTracker()

	if g := tr.UpdateGame("A - B", "1", 4, "2... e6", false, 0, "*"); g.Status != StatusActive {
		t.Fatalf("expected Active, got %s", g.Status)
	}
	if g := tr.UpdateGame("A - B", "1", 60, "30. Rd1", false, 0, "1-0"); g.Status != StatusFinished {
		t.Fatalf("expected Finished, got %s", g.Status)
	}
	// decode error overrides even a finished result
	g := tr.UpdateGame("A - B", "1", 5, "Error at move 5", true, 5, "1-0")
	if g.Status != StatusInvalid {
		t.Fatalf("expected Invalid, got %s", g.Status)
	}
	if !g.HasError || g.ErrorAtMove != 5 {
		t.Fatalf("error fields not recorded: %+v", g)
	}
}

func TestAddClaimIdempotent(t *testing.T) {
	tr, _ := newTestTracker()
	tr.UpdateGame("A - B", "1", 4, "", false, 0, "*")

	tr.AddClaim("A - B", "3 Fold Repetition")
	tr.AddClaim("A - B", "3 Fold Repetition")
	tr.AddClaim("A - B", "50 Moves Rule")
	tr.AddClaim("unknown", "50 Moves Rule") // no-op

	games := tr.Snapshot()
	if len(games) != 1 {
		t.Fatalf("expected 1 game, got %d", len(games))
	}
	claims := games[0].Claims
	if len(claims) != 2 || claims[0] != "3 Fold Repetition" || claims[1] != "50 Moves Rule" {
		t.Fatalf("unexpected claims: %v", claims)
	}
}

func TestClaimsSurviveUpdates(t *testing.T) {
	tr, _ := newTestTracker()
	tr.UpdateGame("A - B", "1", 4, "", false, 0, "*")
	tr.AddClaim("A - B", "3 Fold Repetition")

	// upsert mutates in place: claims accumulate, never reset
	tr.UpdateGame("A - B", "1", 8, "", false, 0, "*")
	if claims := tr.Snapshot()[0].Claims; len(claims) != 1 {
		t.Fatalf("claims lost on update: %v", claims)
	}
}

func TestSnapshotIsIndependent(t *testing.T) {
	tr, _ := newTestTracker()
	tr.UpdateGame("A - B", "1", 4, "", false, 0, "*")
	tr.AddClaim("A - B", "50 Moves Rule")

	snap := tr.Snapshot()
	snap[0].Claims[0] = "mutated"
	snap[0].MoveCount = 999

	again := tr.Snapshot()
	if again[0].Claims[0] != "50 Moves Rule" || again[0].MoveCount != 4 {
		t.Fatalf("snapshot mutation leaked into the tracker: %+v", again[0])
	}
}

func TestSnapshotOrderAndClear(t *testing.T) {
	tr, _ := newTestTracker()
	tr.UpdateGame("C - D", "2", 1, "", false, 0, "*")
	tr.UpdateGame("A - B", "1", 1, "", false, 0, "*")
	tr.UpdateGame("C - D", "2", 2, "", false, 0, "*")

	games := tr.Snapshot()
	if len(games) != 2 {
		t.Fatalf("expected 2 games, got %d", len(games))
	}
	if games[0].Players != "C - D" || games[1].Players != "A - B" {
		t.Fatalf("first-seen order not preserved: %v, %v", games[0].Players, games[1].Players)
	}

	tr.Clear()
	if games := tr.Snapshot(); len(games) != 0 {
		t.Fatalf("expected empty tracker after Clear, got %d", len(games))
	}
}

func TestTimeSinceUpdateFormat(t *testing.T) {
	cases := []struct {
		d    time.Duration
		want string
	}{
		{42 * time.Second, "42s"},
		{3 * time.Minute, "3m"},
		{time.Hour + 4*time.Minute, "1h 4m"},
	}
	for _, c := range cases {
		if got := formatSince(c.d); got != c.want {
			t.Fatalf("formatSince(%v) = %q, want %q", c.d, got, c.want)
		}
	}
}
