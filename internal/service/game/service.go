package game

import (
	"context"
	"fmt"
	"sync"

	"chuchuang-service/internal/engine"
	appErr "chuchuang-service/pkg/errors"
	"chuchuang-service/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Service runs one RoomRuntime per started room and persists round results.
type Service struct {
	db        *gorm.DB
	snapshots SnapshotStore
	rules     engine.Rules
	opts      []engine.Option

	runtimes sync.Map // roomID -> *RoomRuntime
}

func NewService(db *gorm.DB, snapshots SnapshotStore, rules engine.Rules, opts ...engine.Option) *Service {
	return &Service{
		db:        db,
		snapshots: snapshots,
		rules:     rules,
		opts:      opts,
	}
}

// StartGame deals the first round for seats and registers the room runtime.
func (s *Service) StartGame(ctx context.Context, roomID string, seats []engine.Seat) (*RoomRuntime, error) {
	if _, ok := s.runtimes.Load(roomID); ok {
		return nil, appErr.ErrRoomAlreadyStarted
	}

	eng, err := engine.New(s.rules, s.opts...)
	if err != nil {
		return nil, err
	}
	state, err := eng.Initialize(roomID, seats)
	if err != nil {
		return nil, err
	}

	var matchID int64
	if s.db != nil {
		if matchID, err = s.CreateMatch(ctx, roomID, seats); err != nil {
			return nil, fmt.Errorf("create match: %w", err)
		}
	}

	rt := newRoomRuntime(eng, state, matchID, s, s.snapshots)
	if _, loaded := s.runtimes.LoadOrStore(roomID, rt); loaded {
		return nil, appErr.ErrRoomAlreadyStarted
	}

	if s.snapshots != nil {
		if err := s.snapshots.Save(ctx, roomID, rt.View("")); err != nil {
			logger.Log.Warn("save snapshot failed", zap.String("roomID", roomID), zap.Error(err))
		}
	}
	logger.Log.Info("game started",
		zap.String("roomID", roomID),
		zap.Int("players", len(seats)),
		zap.Int64("matchID", matchID),
	)
	return rt, nil
}

func (s *Service) GetRuntime(roomID string) (*RoomRuntime, error) {
	if v, ok := s.runtimes.Load(roomID); ok {
		return v.(*RoomRuntime), nil
	}
	return nil, appErr.ErrRoomOrPlayerNotFound
}

// RemoveRuntime drops a room's live game and its spectator snapshot.
func (s *Service) RemoveRuntime(ctx context.Context, roomID string) {
	v, ok := s.runtimes.LoadAndDelete(roomID)
	if !ok {
		return
	}
	v.(*RoomRuntime).close()
	if s.snapshots != nil {
		if err := s.snapshots.Delete(ctx, roomID); err != nil {
			logger.Log.Warn("delete snapshot failed", zap.String("roomID", roomID), zap.Error(err))
		}
	}
}

// Spectate returns the last spectator view, from the live runtime when this
// instance hosts the room, otherwise from the snapshot store.
func (s *Service) Spectate(ctx context.Context, roomID string) (*StateView, error) {
	if rt, err := s.GetRuntime(roomID); err == nil {
		view := rt.View("")
		return &view, nil
	}
	if s.snapshots == nil {
		return nil, appErr.ErrRoomOrPlayerNotFound
	}
	return s.snapshots.Load(ctx, roomID)
}
