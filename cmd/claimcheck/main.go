// claimcheck runs a one-shot claim scan over a PGN file and prints the
// tracked state of every game plus any findings.
package main

import (
	"fmt"
	"log"
	"os"
	"strings"

	"claimscan/internal/claims"
	"claimscan/internal/pgn"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: claimcheck <file.pgn>")
	}

	f, err := os.Open(os.Args[1])
	if err != nil {
		log.Fatalf("open: %v", err)
	}
	defer f.Close()

	checker := claims.NewChecker(nil)
	rd := pgn.NewReader(f)
	games := 0

	for {
		rec, err := rd.Next()
		if err != nil {
			break
		}
		games++

		players := rec.Players()
		rep := rec.Replay()

		status := "active"
		if result := rec.Result(); result != "*" {
			status = result
		}
		if rep.HasError {
			status = "invalid"
			if rep.ErrorAtMove > 0 {
				status = fmt.Sprintf("invalid (move %d)", rep.ErrorAtMove)
			}
		}
		fmt.Printf("[%s] %s: %d moves, last %s (%s)\n",
			rec.Board(), players, rep.MoveCount, rep.LastMove, status)

		if rep.HasError {
			continue
		}
		for _, finding := range checker.CheckGame(rec.Game) {
			fmt.Printf("  claim: %s at %s\n", finding.Kind, finding.Move)
		}
	}

	fmt.Println(strings.Repeat("-", 40))
	fmt.Printf("%d game(s) scanned\n", games)
}
