package ws_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"chuchuang-service/internal/config"
	"chuchuang-service/internal/engine"
	"chuchuang-service/internal/service"
	"chuchuang-service/internal/service/room"
	"chuchuang-service/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

type frame struct {
	Type string          `json:"type"`
	Seq  int64           `json:"seq"`
	Data json.RawMessage `json:"data"`
}

func startTable(t *testing.T) (*httptest.Server, string, []room.JoinResult) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		JWT:  config.JWTConfig{Secret: "ws-secret", Expire: 1},
		Game: engine.DefaultRules(),
		Room: config.RoomConfig{IdleTimeout: time.Hour, CleanupInterval: time.Minute, MaxRooms: 4},
	}
	services := service.NewContainer(cfg, nil, nil)
	ctx := context.Background()

	host, err := services.Room.CreateRoom(ctx, room.CreateRoomRequest{PlayerName: "Ann", MaxPlayers: 3})
	if err != nil {
		t.Fatalf("create room: %v", err)
	}
	seated := []room.JoinResult{*host}
	for _, name := range []string{"Bo", "Cy"} {
		res, err := services.Room.JoinRoom(ctx, host.Room.ID, room.JoinRoomRequest{PlayerName: name})
		if err != nil {
			t.Fatalf("join room: %v", err)
		}
		seated = append(seated, *res)
	}
	for _, s := range seated {
		if _, err := services.Room.SetReady(ctx, host.Room.ID, s.PlayerID, true); err != nil {
			t.Fatalf("ready: %v", err)
		}
	}

	r := gin.New()
	h := ws.NewHandler(services.Game, services.Room, services.Issuer)
	r.GET("/ws/room/:roomId", h.HandleRoomWS)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, host.Room.ID, seated
}

func dial(t *testing.T, srv *httptest.Server, roomID, token string) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/room/" + roomID + "?token=" + token
	return websocket.DefaultDialer.Dial(url, nil)
}

func readFrame(t *testing.T, conn *websocket.Conn) frame {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var f frame
	if err := conn.ReadJSON(&f); err != nil {
		t.Fatalf("read frame: %v", err)
	}
	return f
}

func TestWSRejectsBadToken(t *testing.T) {
	srv, roomID, _ := startTable(t)

	_, resp, err := dial(t, srv, roomID, "garbage")
	if err == nil {
		t.Fatalf("expected handshake failure")
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", resp)
	}
}

func TestWSStateAndRejections(t *testing.T) {
	srv, roomID, seated := startTable(t)

	conn, _, err := dial(t, srv, roomID, seated[0].Token)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	first := readFrame(t, conn)
	if first.Type != "state" {
		t.Fatalf("expected initial state, got %s", first.Type)
	}
	var view struct {
		Viewer          string `json:"viewer"`
		CurrentPlayerID string `json:"currentPlayerId"`
	}
	if err := json.Unmarshal(first.Data, &view); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	if view.Viewer != seated[0].PlayerID {
		t.Fatalf("expected viewer %s, got %s", seated[0].PlayerID, view.Viewer)
	}

	if err := conn.WriteJSON(map[string]string{"type": "ping"}); err != nil {
		t.Fatalf("write ping: %v", err)
	}
	if f := readFrame(t, conn); f.Type != "pong" {
		t.Fatalf("expected pong, got %s", f.Type)
	}

	if err := conn.WriteJSON(map[string]string{"type": "DRAW_FROM_MARKET"}); err != nil {
		t.Fatalf("write action: %v", err)
	}
	f := readFrame(t, conn)
	if f.Type != "error" {
		t.Fatalf("expected error frame, got %s", f.Type)
	}
	var payload struct {
		Code string `json:"code"`
	}
	if err := json.Unmarshal(f.Data, &payload); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if payload.Code != "INVALID_PAYLOAD" {
		t.Fatalf("expected INVALID_PAYLOAD, got %s", payload.Code)
	}

	if view.CurrentPlayerID == seated[0].PlayerID {
		if err := conn.WriteJSON(map[string]string{"type": "DRAW_FROM_DECK"}); err != nil {
			t.Fatalf("write draw: %v", err)
		}
		if f := readFrame(t, conn); f.Type != "state" {
			t.Fatalf("expected state after draw, got %s", f.Type)
		}
		return
	}
	if err := conn.WriteJSON(map[string]string{"type": "DRAW_FROM_DECK"}); err != nil {
		t.Fatalf("write draw: %v", err)
	}
	f = readFrame(t, conn)
	if err := json.Unmarshal(f.Data, &payload); err != nil || payload.Code != "NOT_YOUR_TURN" {
		t.Fatalf("expected NOT_YOUR_TURN, got %s %s", f.Type, f.Data)
	}
}
