package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"sort"
	"time"

	"chuchuang-service/internal/config"
	"chuchuang-service/internal/sim"
	"chuchuang-service/pkg/logger"

	"go.uber.org/zap"
)

func main() {
	var (
		configPath string
		games      int
		players    int
		workers    int
		seed       int64
		strategy   string
	)
	flag.StringVar(&configPath, "config", "", "optional config file for game rules")
	flag.IntVar(&games, "games", 1000, "number of games to play")
	flag.IntVar(&players, "players", 4, "players per game")
	flag.IntVar(&workers, "workers", 8, "games played in parallel")
	flag.Int64Var(&seed, "seed", time.Now().UnixNano(), "seed of the first game")
	flag.StringVar(&strategy, "strategy", "random", "random or greedy")
	flag.Parse()

	logger.InitLogger("debug")
	defer logger.Log.Sync()

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Log.Fatal("load config", zap.Error(err))
	}

	pick := sim.Random
	if strategy == "greedy" {
		pick = sim.Greedy
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	start := time.Now()
	report, err := sim.Run(ctx, sim.Config{
		Games:    games,
		Players:  players,
		Workers:  workers,
		Seed:     seed,
		Rules:    cfg.Game,
		Strategy: pick,
	})
	if err != nil {
		logger.Log.Fatal("simulation failed", zap.Error(err))
	}

	scores := make([]int, 0, len(report.ScoreHistogram))
	for score := range report.ScoreHistogram {
		scores = append(scores, score)
	}
	sort.Ints(scores)
	for _, score := range scores {
		logger.Log.Info("score", zap.Int("score", score), zap.Int("seats", report.ScoreHistogram[score]))
	}
	for seat, wins := range report.WinsBySeat {
		logger.Log.Info("wins", zap.Int("seat", seat), zap.Int("games", wins))
	}
	logger.Log.Info("simulation done",
		zap.Int("games", report.Games),
		zap.Int("finished", report.Finished),
		zap.Int("steps", report.Steps),
		zap.Int("violations", len(report.Violations)),
		zap.Int64("seed", seed),
		zap.Duration("took", time.Since(start)),
	)
	for _, v := range report.Violations {
		logger.Log.Error("violation", zap.String("detail", v))
	}
	if len(report.Violations) > 0 {
		os.Exit(1)
	}
}
