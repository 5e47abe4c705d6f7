package sim

import (
	"context"
	"math/rand"
	"testing"

	"chuchuang-service/internal/engine"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlayGameFinishesCleanly(t *testing.T) {
	for _, players := range []int{3, 5, 7} {
		res, err := PlayGame(engine.DefaultRules(), players, 42, 100000, Random)
		require.NoError(t, err)
		assert.True(t, res.Finished, "players=%d", players)
		assert.Empty(t, res.Violations, "players=%d", players)
		assert.Equal(t, players, res.Rounds)
		assert.Len(t, res.Scores, players)
	}
}

func TestPlayGameIsDeterministic(t *testing.T) {
	a, err := PlayGame(engine.DefaultRules(), 4, 9, 100000, Greedy)
	require.NoError(t, err)
	b, err := PlayGame(engine.DefaultRules(), 4, 9, 100000, Greedy)
	require.NoError(t, err)
	assert.Equal(t, a.Scores, b.Scores)
	assert.Equal(t, a.Steps, b.Steps)
}

func TestPlayGameRejectsBadSetup(t *testing.T) {
	_, err := PlayGame(engine.DefaultRules(), 2, 1, 100, Random)
	assert.Error(t, err)
}

func TestRunAggregates(t *testing.T) {
	report, err := Run(context.Background(), Config{
		Games:   12,
		Players: 3,
		Workers: 4,
		Seed:    100,
		Rules:   engine.DefaultRules(),
	})
	require.NoError(t, err)
	assert.Equal(t, 12, report.Games)
	assert.Equal(t, 12, report.Finished)
	assert.Empty(t, report.Violations)

	wins := 0
	for _, n := range report.WinsBySeat {
		wins += n
	}
	assert.Equal(t, 12, wins)

	seats := 0
	for _, n := range report.ScoreHistogram {
		seats += n
	}
	assert.Equal(t, 12*3, seats)
}

func TestGreedyPrefersRichMarketSlot(t *testing.T) {
	s := &engine.State{
		Market: []engine.MarketSlot{
			{Card: engine.Card{ID: "A-1", Company: engine.CompanyA}, Coins: []engine.Coin{{}}},
			{Card: engine.Card{ID: "B-1", Company: engine.CompanyB}, Coins: []engine.Coin{{}, {}}},
		},
	}
	legal := []engine.Action{
		engine.DrawFromDeck{PlayerID: "p"},
		engine.DrawFromMarket{PlayerID: "p", CardID: "A-1"},
		engine.DrawFromMarket{PlayerID: "p", CardID: "B-1"},
	}
	got := Greedy(rand.New(rand.NewSource(1)), s, legal)
	assert.Equal(t, engine.DrawFromMarket{PlayerID: "p", CardID: "B-1"}, got)
}
