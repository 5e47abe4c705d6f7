// Package sim plays whole games against the engine with automated players and
// reports invariant violations and score distributions.
package sim

import (
	"context"
	"fmt"
	"math/rand"

	"chuchuang-service/internal/engine"
	"chuchuang-service/pkg/logger"

	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
)

// Strategy picks one of the legal actions for the acting player.
type Strategy func(rng *rand.Rand, s *engine.State, legal []engine.Action) engine.Action

// Random picks uniformly among legal actions.
func Random(rng *rand.Rand, _ *engine.State, legal []engine.Action) engine.Action {
	return legal[rng.Intn(len(legal))]
}

// Greedy collects the richest market slot, otherwise invests, otherwise falls
// back to a random move.
func Greedy(rng *rand.Rand, s *engine.State, legal []engine.Action) engine.Action {
	var best engine.Action
	bestCoins := -1
	for _, a := range legal {
		take, ok := a.(engine.DrawFromMarket)
		if !ok {
			continue
		}
		for _, slot := range s.Market {
			if slot.Card.ID == take.CardID && len(slot.Coins) > bestCoins {
				best, bestCoins = a, len(slot.Coins)
			}
		}
	}
	if best != nil && bestCoins > 0 {
		return best
	}
	for _, a := range legal {
		if _, ok := a.(engine.PlayToInvestment); ok {
			return a
		}
	}
	return Random(rng, s, legal)
}

type Config struct {
	Games    int
	Players  int
	Workers  int
	Seed     int64
	MaxSteps int
	Rules    engine.Rules
	Strategy Strategy
}

// GameResult is the outcome of one simulated game.
type GameResult struct {
	Seed       int64
	Steps      int
	Rounds     int
	Finished   bool
	Scores     []int
	Winner     int
	Violations []string
}

type Report struct {
	Games      int
	Finished   int
	Steps      int
	Violations []string
	WinsBySeat []int
	// ScoreHistogram counts final scores across every seat of every game.
	ScoreHistogram map[int]int
}

// Run plays cfg.Games games on a bounded worker pool. Game i uses seed
// cfg.Seed+i so any reported violation can be replayed alone.
func Run(ctx context.Context, cfg Config) (*Report, error) {
	if cfg.Strategy == nil {
		cfg.Strategy = Random
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.MaxSteps <= 0 {
		cfg.MaxSteps = 100000
	}

	p := pool.NewWithResults[GameResult]().
		WithContext(ctx).
		WithCancelOnError().
		WithMaxGoroutines(cfg.Workers)
	for i := 0; i < cfg.Games; i++ {
		seed := cfg.Seed + int64(i)
		p.Go(func(ctx context.Context) (GameResult, error) {
			if err := ctx.Err(); err != nil {
				return GameResult{}, err
			}
			return PlayGame(cfg.Rules, cfg.Players, seed, cfg.MaxSteps, cfg.Strategy)
		})
	}
	results, err := p.Wait()
	if err != nil {
		return nil, err
	}

	report := &Report{
		Games:          len(results),
		WinsBySeat:     make([]int, cfg.Players),
		ScoreHistogram: map[int]int{},
	}
	for _, res := range results {
		report.Steps += res.Steps
		if res.Finished {
			report.Finished++
			report.WinsBySeat[res.Winner]++
		}
		for _, score := range res.Scores {
			report.ScoreHistogram[score]++
		}
		for _, v := range res.Violations {
			report.Violations = append(report.Violations, fmt.Sprintf("seed %d: %s", res.Seed, v))
		}
	}
	return report, nil
}

// PlayGame runs one game to completion. Errors are reserved for setup failures;
// rule breaches found along the way are returned as violations.
func PlayGame(rules engine.Rules, players int, seed int64, maxSteps int, strategy Strategy) (GameResult, error) {
	eng, err := engine.New(rules, engine.WithSeed(seed))
	if err != nil {
		return GameResult{}, err
	}
	seats := make([]engine.Seat, players)
	for i := range seats {
		seats[i] = engine.Seat{ID: fmt.Sprintf("bot-%d", i), Name: fmt.Sprintf("Bot %d", i)}
	}
	s, err := eng.Initialize(fmt.Sprintf("sim-%d", seed), seats)
	if err != nil {
		return GameResult{}, err
	}

	rng := rand.New(rand.NewSource(seed))
	res := GameResult{Seed: seed}
	checker := newChecker(rules, players)

	for ; s.Phase != engine.PhaseFinished && res.Steps < maxSteps; res.Steps++ {
		actor := s.CurrentPlayer().ID
		if s.Phase == engine.PhaseSettlement {
			actor = s.Players[rng.Intn(players)].ID
		}
		legal := eng.LegalActions(s, actor)
		if len(legal) == 0 {
			res.Violations = append(res.Violations, fmt.Sprintf("step %d: no legal action for %s in %s/%s", res.Steps, actor, s.Phase, s.Step))
			break
		}

		a := strategy(rng, s, legal)
		next, _, err := eng.Apply(s, a)
		if err != nil {
			res.Violations = append(res.Violations, fmt.Sprintf("step %d: legal %s rejected: %v", res.Steps, a.Kind(), err))
			break
		}
		res.Violations = append(res.Violations, checker.check(res.Steps, s, next, a)...)
		s = next
	}

	res.Rounds = s.RoundsCompleted
	res.Finished = s.Phase == engine.PhaseFinished
	if !res.Finished {
		res.Violations = append(res.Violations, fmt.Sprintf("not finished after %d steps", res.Steps))
	}
	res.Scores = make([]int, players)
	for i := range s.Players {
		res.Scores[i] = s.Players[i].Score
		if s.Players[i].Score > s.Players[res.Winner].Score {
			res.Winner = i
		}
	}
	if len(res.Violations) > 0 {
		logger.Log.Warn("simulated game broke an invariant",
			zap.Int64("seed", seed),
			zap.Strings("violations", res.Violations),
		)
	}
	return res, nil
}

type checker struct {
	cards    int
	coins    int
	handSize int
}

func newChecker(rules engine.Rules, players int) *checker {
	return &checker{
		cards:    rules.DeckSize(),
		coins:    players * rules.StartingCoins,
		handSize: rules.HandSize,
	}
}

func (c *checker) check(step int, prev, next *engine.State, a engine.Action) []string {
	var out []string
	if next.Phase == engine.PhaseFinished {
		return nil
	}
	if n := next.CardCount(); n != c.cards {
		out = append(out, fmt.Sprintf("step %d: %d cards in play, want %d", step, n, c.cards))
	}

	coins := engine.MarketCoins(next.Market)
	for i := range next.Players {
		coins += len(next.Players[i].Coins)
	}
	if coins != c.coins {
		out = append(out, fmt.Sprintf("step %d: %d coins in play, want %d", step, coins, c.coins))
	}

	seen := map[engine.Company]bool{}
	for _, h := range next.MajorityHolders {
		if seen[h.Company] {
			out = append(out, fmt.Sprintf("step %d: company %s has two holders", step, h.Company))
		}
		seen[h.Company] = true
	}

	if a.Kind() != engine.KindStartNextRound {
		for i := range next.Players {
			if next.Players[i].Debt < prev.Players[i].Debt {
				out = append(out, fmt.Sprintf("step %d: debt of %s went down", step, next.Players[i].ID))
			}
		}
	}
	// Takes are mandatory while the deck lasts, so every turn opens on a full hand.
	if next.Phase == engine.PhasePlaying && next.Step == engine.StepAwaitingTake && len(next.Deck) > 0 {
		if p := next.CurrentPlayer(); len(p.Hand) != c.handSize {
			out = append(out, fmt.Sprintf("step %d: %s starts a turn holding %d cards", step, p.ID, len(p.Hand)))
		}
	}
	return out
}
