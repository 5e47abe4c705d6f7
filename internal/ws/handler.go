package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"chuchuang-service/internal/service/game"
	"chuchuang-service/internal/service/room"
	pkgAuth "chuchuang-service/pkg/auth"
	appErr "chuchuang-service/pkg/errors"
	"chuchuang-service/pkg/logger"
	"chuchuang-service/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	readLimit  = 1 << 16
	pongWait   = 60 * time.Second
	pingPeriod = 25 * time.Second
	writeWait  = 5 * time.Second
)

type Handler struct {
	gameSvc *game.Service
	roomSvc *room.Service
	issuer  *pkgAuth.Issuer
}

func NewHandler(gameSvc *game.Service, roomSvc *room.Service, issuer *pkgAuth.Issuer) *Handler {
	return &Handler{gameSvc: gameSvc, roomSvc: roomSvc, issuer: issuer}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for dev
	},
}

// HandleRoomWS upgrades a seated player to the live game stream of a room.
func (h *Handler) HandleRoomWS(c *gin.Context) {
	roomID := strings.ToUpper(strings.TrimSpace(c.Param("roomId")))

	token, err := getTokenFromRequest(c)
	if err != nil {
		response.Error(c, http.StatusUnauthorized, err.Error())
		return
	}
	claims, err := h.issuer.ParsePlayerToken(token)
	if err != nil {
		response.Error(c, http.StatusUnauthorized, "invalid token")
		return
	}
	if !strings.EqualFold(claims.RoomID, roomID) {
		response.Error(c, http.StatusForbidden, "token not issued for this room")
		return
	}

	rt, err := h.gameSvc.GetRuntime(roomID)
	if err != nil {
		response.Fail(c, err)
		return
	}
	outbound, err := rt.Subscribe(claims.PlayerID)
	if err != nil {
		response.Fail(c, err)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		rt.Unsubscribe(claims.PlayerID, outbound)
		logger.Log.Error("Failed to upgrade websocket", zap.Error(err))
		return
	}

	logger.Log.Info("New WebSocket connection",
		zap.String("roomID", roomID),
		zap.String("playerID", claims.PlayerID),
	)

	cl := newClient(conn, claims.PlayerID, rt, outbound, h.roomSvc)
	cl.run()
}

func getTokenFromRequest(c *gin.Context) (string, error) {
	token := strings.TrimSpace(c.Query("token"))
	if token != "" {
		return token, nil
	}
	authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			token = strings.TrimSpace(parts[1])
			if token != "" {
				return token, nil
			}
		}
	}
	return "", errors.New("missing token")
}

// incoming is the client envelope: {"type": "...", "data": {...}}.
type incoming struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type client struct {
	conn     *websocket.Conn
	playerID string
	rt       *game.RoomRuntime
	rooms    *room.Service
	outbound chan game.OutgoingMessage
	done     chan struct{}
}

func newClient(conn *websocket.Conn, playerID string, rt *game.RoomRuntime, outbound chan game.OutgoingMessage, rooms *room.Service) *client {
	conn.SetReadLimit(readLimit)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	return &client{
		conn:     conn,
		playerID: playerID,
		rt:       rt,
		rooms:    rooms,
		outbound: outbound,
		done:     make(chan struct{}),
	}
}

func (c *client) run() {
	go c.writePump()
	c.readPump()
}

// readPump feeds client messages to the runtime. Rejections go back through the
// subscriber channel so writePump stays the only writer on the connection.
func (c *client) readPump() {
	defer func() {
		close(c.done)
		c.rt.Unsubscribe(c.playerID, c.outbound)
		c.conn.Close()
	}()

	for {
		mt, message, err := c.conn.ReadMessage()
		if err != nil {
			logger.Log.Info("WS read error", zap.Error(err), zap.String("playerID", c.playerID), zap.String("roomID", c.rt.RoomID()))
			return
		}
		if mt != websocket.TextMessage && mt != websocket.BinaryMessage {
			continue
		}

		var msg incoming
		if err := json.Unmarshal(message, &msg); err != nil {
			c.rt.NotifyError(c.playerID, appErr.ErrInvalidPayload)
			continue
		}
		if msg.Type == "" {
			continue
		}

		if _, err := c.rt.HandleAction(context.Background(), c.playerID, msg.Type, msg.Data); err != nil {
			c.rt.NotifyError(c.playerID, err)
			continue
		}
		if c.rooms != nil {
			c.rooms.Touch(c.rt.RoomID())
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.outbound:
			if !ok {
				c.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
				return
			}
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(msg); err != nil {
				logger.Log.Info("WS write error", zap.Error(err), zap.String("playerID", c.playerID), zap.String("roomID", c.rt.RoomID()))
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(writeWait)); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}
