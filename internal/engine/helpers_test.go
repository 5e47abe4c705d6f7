package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var fixedClock = func() time.Time { return time.Unix(1700000000, 0) }

func threeSeats() []Seat {
	return []Seat{{ID: "p1", Name: "Ann"}, {ID: "p2", Name: "Bo"}, {ID: "p3", Name: "Cy"}}
}

func newTestGame(t *testing.T, seed int64) (*Engine, *State) {
	t.Helper()
	e, err := New(DefaultRules(), WithSeed(seed), WithClock(fixedClock))
	require.NoError(t, err)
	s, err := e.Initialize("room-1", threeSeats())
	require.NoError(t, err)
	return e, s
}

func mustApply(t *testing.T, e *Engine, s *State, a Action) (*State, Outcome) {
	t.Helper()
	next, out, err := e.Apply(s, a)
	require.NoError(t, err, "action %T", a)
	return next, out
}

// card builds a hand card with a unique id outside the regular deck ids.
func card(company Company, n int) Card {
	return Card{ID: string(company) + "-x" + string(rune('a'+n)), Company: company}
}

func invest(p *Player, company Company, n int) {
	for i := 0; i < n; i++ {
		p.Investments[company] = append(p.Investments[company], card(company, i))
	}
}
