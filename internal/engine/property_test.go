package engine

import (
	"fmt"
	"math/rand"
	"testing"

	appErr "chuchuang-service/pkg/errors"

	"pgregory.net/rapid"
)

func TestPropertyShuffleIsPermutation(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		items := rapid.SliceOf(rapid.IntRange(0, 50)).Draw(t, "items")
		seed := rapid.Int64().Draw(t, "seed")
		before := append([]int(nil), items...)

		out := Shuffle(items, rand.New(rand.NewSource(seed)))

		if len(out) != len(items) {
			t.Fatalf("length changed: %d -> %d", len(items), len(out))
		}
		counts := map[int]int{}
		for _, v := range items {
			counts[v]++
		}
		for _, v := range out {
			counts[v]--
		}
		for v, n := range counts {
			if n != 0 {
				t.Fatalf("value %d count off by %d", v, n)
			}
		}
		for i := range items {
			if items[i] != before[i] {
				t.Fatalf("input mutated at %d", i)
			}
		}
	})
}

func TestPropertyMajorityUniqueness(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(3, 7).Draw(t, "players")
		players := make([]Player, n)
		for i := range players {
			players[i] = Player{ID: fmt.Sprintf("p%d", i), Investments: emptyInvestments()}
			for _, c := range Companies {
				invest(&players[i], c, rapid.IntRange(0, 4).Draw(t, fmt.Sprintf("p%d-%s", i, c)))
			}
		}

		holders := ComputeMajorityHolders(players)
		seen := map[Company]bool{}
		for _, h := range holders {
			if seen[h.Company] {
				t.Fatalf("company %s has two holders", h.Company)
			}
			seen[h.Company] = true
		}
		for _, c := range Companies {
			top, atTop, holderIdx := 0, 0, -1
			for i := range players {
				k := players[i].InvestedCount(c)
				switch {
				case k > top:
					top, atTop, holderIdx = k, 1, i
				case k == top && k > 0:
					atTop++
				}
			}
			id, ok := holders.Of(c)
			if top == 0 || atTop > 1 {
				if ok {
					t.Fatalf("company %s: expected no holder, got %s", c, id)
				}
				continue
			}
			if !ok || id != players[holderIdx].ID {
				t.Fatalf("company %s: expected holder %s, got %q", c, players[holderIdx].ID, id)
			}
		}
	})
}

// TestPropertyFullGame plays whole games with random legal moves and checks
// the invariants after every accepted action.
func TestPropertyFullGame(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(3, 7).Draw(t, "players")
		seed := rapid.Int64().Draw(t, "seed")
		moves := rand.New(rand.NewSource(seed))

		e, err := New(DefaultRules(), WithSeed(seed))
		if err != nil {
			t.Fatalf("new engine: %v", err)
		}
		seats := make([]Seat, n)
		for i := range seats {
			seats[i] = Seat{ID: fmt.Sprintf("p%d", i)}
		}
		s, err := e.Initialize("prop", seats)
		if err != nil {
			t.Fatalf("initialize: %v", err)
		}
		total := e.Rules().DeckSize()

		for steps := 0; s.Phase != PhaseFinished; steps++ {
			if steps > 100000 {
				t.Fatalf("game did not finish")
			}
			if ShouldEndGame(s) {
				t.Fatalf("game should have ended after %d rounds", s.RoundsCompleted)
			}

			actor := s.CurrentPlayer().ID
			if s.Phase == PhaseSettlement {
				actor = s.Players[moves.Intn(n)].ID
			}
			legal := e.LegalActions(s, actor)
			if len(legal) == 0 {
				t.Fatalf("no legal action for %s in %s/%s", actor, s.Phase, s.Step)
			}
			checkAntiMonopoly(t, e, s, actor)

			a := pickMove(moves, legal)
			next, out, err := e.Apply(s, a)
			if err != nil {
				t.Fatalf("legal action %#v rejected: %v", a, err)
			}

			if next.Phase != PhaseFinished && next.CardCount() != total {
				t.Fatalf("card count %d, want %d", next.CardCount(), total)
			}
			checkTurnRotation(t, s, next, a, out)
			if a.Kind() != KindStartNextRound {
				for i := range s.Players {
					if next.Players[i].Debt < s.Players[i].Debt {
						t.Fatalf("debt of %s decreased within a round", s.Players[i].ID)
					}
				}
			}
			for i := range next.Players {
				if next.Players[i].Debt < 0 {
					t.Fatalf("negative debt for %s", next.Players[i].ID)
				}
			}
			s = next
		}

		if s.RoundsCompleted != n {
			t.Fatalf("finished after %d rounds, want %d", s.RoundsCompleted, n)
		}
	})
}

// pickMove prefers deck draws so random games make progress.
func pickMove(rng *rand.Rand, legal []Action) Action {
	for _, a := range legal {
		if a.Kind() == KindDrawFromDeck && rng.Intn(4) != 0 {
			return a
		}
	}
	return legal[rng.Intn(len(legal))]
}

func checkAntiMonopoly(t *rapid.T, e *Engine, s *State, actor string) {
	if s.Phase != PhasePlaying {
		return
	}
	p := &s.Players[s.PlayerIndex(actor)]
	for _, slot := range s.Market {
		if !s.MajorityHolders.Holds(actor, slot.Card.Company) {
			continue
		}
		err := e.Validate(s, DrawFromMarket{PlayerID: actor, CardID: slot.Card.ID})
		if appErr.CodeOf(err) != appErr.CodeMajorityHolderRestricted && appErr.CodeOf(err) != appErr.CodeActionOutOfPhase {
			t.Fatalf("holder %s could draw %s from market: %v", actor, slot.Card.Company, err)
		}
	}
	for _, c := range p.Hand {
		if !s.MajorityHolders.Holds(actor, c.Company) {
			continue
		}
		err := e.Validate(s, PlayToMarket{PlayerID: actor, CardID: c.ID})
		if appErr.CodeOf(err) != appErr.CodeMajorityHolderRestricted && appErr.CodeOf(err) != appErr.CodeActionOutOfPhase {
			t.Fatalf("holder %s could play %s to market: %v", actor, c.Company, err)
		}
	}
}

func checkTurnRotation(t *rapid.T, before, after *State, a Action, out Outcome) {
	n := len(before.Players)
	switch a.Kind() {
	case KindDrawFromDeck, KindDrawFromMarket:
		if after.CurrentPlayerIndex != before.CurrentPlayerIndex || out.TurnAdvanced {
			t.Fatalf("take advanced the turn")
		}
	case KindPlayToInvestment, KindPlayToMarket:
		if after.CurrentPlayerIndex != (before.CurrentPlayerIndex+1)%n || !out.TurnAdvanced {
			t.Fatalf("play moved turn from %d to %d", before.CurrentPlayerIndex, after.CurrentPlayerIndex)
		}
	}
}
