package service

import (
	"context"

	"chuchuang-service/internal/config"
	"chuchuang-service/internal/service/game"
	"chuchuang-service/internal/service/room"
	pkgAuth "chuchuang-service/pkg/auth"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	Game   *game.Service
	Room   *room.Service
	Issuer *pkgAuth.Issuer
}

// NewContainer wires the services. rdb may be nil, in which case spectator
// snapshots are served from live runtimes only.
func NewContainer(cfg *config.Config, db *gorm.DB, rdb *redis.Client) *Container {
	var snapshots game.SnapshotStore
	if rdb != nil {
		snapshots = game.NewRedisSnapshotStore(rdb, cfg.Redis.SnapshotTTL)
	}

	issuer := pkgAuth.NewIssuer(cfg.JWT.Secret, cfg.JWT.Expire)
	games := game.NewService(db, snapshots, cfg.Game)
	rooms := room.NewService(room.Config{
		MinPlayers:      cfg.Game.MinPlayers,
		MaxPlayers:      cfg.Game.MaxPlayers,
		MaxRooms:        cfg.Room.MaxRooms,
		IdleTimeout:     cfg.Room.IdleTimeout,
		CleanupInterval: cfg.Room.CleanupInterval,
	}, games, issuer)

	return &Container{
		Game:   games,
		Room:   rooms,
		Issuer: issuer,
	}
}

func (c *Container) Start(ctx context.Context) error {
	c.Room.Start(ctx)
	return nil
}
