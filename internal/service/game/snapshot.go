//go:generate mockgen -source=snapshot.go -destination=mock_snapshot.go -package=game

package game

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	appErr "chuchuang-service/pkg/errors"

	"github.com/redis/go-redis/v9"
)

// SnapshotStore keeps the latest spectator view of each room.
type SnapshotStore interface {
	Save(ctx context.Context, roomID string, view StateView) error
	Load(ctx context.Context, roomID string) (*StateView, error)
	Delete(ctx context.Context, roomID string) error
}

type RedisSnapshotStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisSnapshotStore(rdb *redis.Client, ttl time.Duration) *RedisSnapshotStore {
	return &RedisSnapshotStore{rdb: rdb, ttl: ttl}
}

func (s *RedisSnapshotStore) Save(ctx context.Context, roomID string, view StateView) error {
	data, err := json.Marshal(view)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, buildSnapshotKey(roomID), data, s.ttl).Err()
}

func (s *RedisSnapshotStore) Load(ctx context.Context, roomID string) (*StateView, error) {
	data, err := s.rdb.Get(ctx, buildSnapshotKey(roomID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, appErr.ErrRoomOrPlayerNotFound
		}
		return nil, err
	}
	var view StateView
	if err := json.Unmarshal(data, &view); err != nil {
		return nil, err
	}
	return &view, nil
}

func (s *RedisSnapshotStore) Delete(ctx context.Context, roomID string) error {
	return s.rdb.Del(ctx, buildSnapshotKey(roomID)).Err()
}

func buildSnapshotKey(roomID string) string {
	return "chuchuang:snapshot:" + roomID
}
