package room

import (
	"context"
	"testing"
	"time"

	"chuchuang-service/internal/engine"
	"chuchuang-service/internal/service/game"
	pkgAuth "chuchuang-service/pkg/auth"
)

func TestCleanupRemovesIdleRooms(t *testing.T) {
	ctx := context.Background()
	games := game.NewService(nil, nil, engine.DefaultRules())
	svc := NewService(Config{MinPlayers: 3, MaxPlayers: 7, IdleTimeout: time.Minute}, games, pkgAuth.NewIssuer("s", 1))

	clock := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return clock }

	stale, err := svc.CreateRoom(ctx, CreateRoomRequest{PlayerName: "Ann"})
	if err != nil {
		t.Fatalf("create room failed: %v", err)
	}
	clock = clock.Add(50 * time.Second)
	fresh, err := svc.CreateRoom(ctx, CreateRoomRequest{PlayerName: "Bo"})
	if err != nil {
		t.Fatalf("create room failed: %v", err)
	}

	clock = clock.Add(30 * time.Second)
	svc.Touch(fresh.Room.ID)
	if n := svc.Cleanup(ctx); n != 1 {
		t.Fatalf("expected one idle room closed, got %d", n)
	}
	if _, err := svc.Get(stale.Room.ID); err == nil {
		t.Fatalf("stale room should be gone")
	}
	if _, err := svc.Get(fresh.Room.ID); err != nil {
		t.Fatalf("fresh room should survive: %v", err)
	}
}
