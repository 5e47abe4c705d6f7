package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"chuchuang-service/internal/middleware"
	"chuchuang-service/internal/service"
	"chuchuang-service/internal/service/room"
	"chuchuang-service/internal/ws"
	"chuchuang-service/pkg/response"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	services *service.Container
}

func RegisterRoutes(r *gin.Engine, services *service.Container) {
	handler := &Handler{services: services}
	wsHandler := ws.NewHandler(services.Game, services.Room, services.Issuer)

	r.GET("/ping", func(c *gin.Context) {
		response.Success(c, gin.H{"message": "pong"})
	})

	v1 := r.Group("/api/v1")
	{
		v1.GET("/rooms", handler.ListRooms)
		v1.POST("/rooms", handler.CreateRoom)
		v1.POST("/rooms/:roomId/join", handler.JoinRoom)
		v1.GET("/games/:roomId/spectate", handler.Spectate)

		player := v1.Group("/")
		player.Use(middleware.PlayerAuthRequired(services.Issuer))
		{
			player.GET("/rooms/:roomId", handler.GetRoom)
			player.POST("/rooms/:roomId/ready", handler.SetReady)
			player.POST("/rooms/:roomId/leave", handler.LeaveRoom)

			player.GET("/games/:roomId/state", handler.GameState)
			player.POST("/games/:roomId/actions", handler.GameAction)
			player.GET("/games/:roomId/rounds", handler.ListRounds)

			player.GET("/players/me/record", handler.MyRecord)
		}
	}

	r.GET("/ws/room/:roomId", wsHandler.HandleRoomWS)
}

type createRoomBody struct {
	PlayerName string `json:"playerName" binding:"required"`
	MaxPlayers int    `json:"maxPlayers"`
	Password   string `json:"password"`
}

type joinRoomBody struct {
	PlayerName string `json:"playerName" binding:"required"`
	Password   string `json:"password"`
}

type readyBody struct {
	Ready *bool `json:"ready"`
}

type actionBody struct {
	Type string          `json:"type" binding:"required"`
	Data json.RawMessage `json:"data"`
}

func (h *Handler) ListRooms(c *gin.Context) {
	response.Success(c, gin.H{"rooms": h.services.Room.List()})
}

func (h *Handler) CreateRoom(c *gin.Context) {
	var body createRoomBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.services.Room.CreateRoom(c.Request.Context(), room.CreateRoomRequest{
		PlayerName: body.PlayerName,
		MaxPlayers: body.MaxPlayers,
		Password:   body.Password,
	})
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, res)
}

func (h *Handler) JoinRoom(c *gin.Context) {
	var body joinRoomBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.services.Room.JoinRoom(c.Request.Context(), roomParam(c), room.JoinRoomRequest{
		PlayerName: body.PlayerName,
		Password:   body.Password,
	})
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, res)
}

func (h *Handler) GetRoom(c *gin.Context) {
	info, err := h.services.Room.Get(roomParam(c))
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, info)
}

func (h *Handler) SetReady(c *gin.Context) {
	var body readyBody
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			response.Error(c, http.StatusBadRequest, err.Error())
			return
		}
	}
	ready := true
	if body.Ready != nil {
		ready = *body.Ready
	}

	info, err := h.services.Room.SetReady(c.Request.Context(), roomParam(c), middleware.PlayerID(c), ready)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, info)
}

func (h *Handler) LeaveRoom(c *gin.Context) {
	if err := h.services.Room.Leave(c.Request.Context(), roomParam(c), middleware.PlayerID(c)); err != nil {
		response.Fail(c, err)
		return
	}
	response.SuccessWithMsg(c, gin.H{"status": "left"}, "")
}

func (h *Handler) GameState(c *gin.Context) {
	rt, err := h.services.Game.GetRuntime(roomParam(c))
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, rt.View(middleware.PlayerID(c)))
}

func (h *Handler) GameAction(c *gin.Context) {
	var body actionBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, http.StatusBadRequest, err.Error())
		return
	}

	roomID := roomParam(c)
	rt, err := h.services.Game.GetRuntime(roomID)
	if err != nil {
		response.Fail(c, err)
		return
	}
	playerID := middleware.PlayerID(c)
	outcome, err := rt.HandleAction(c.Request.Context(), playerID, body.Type, body.Data)
	if err != nil {
		response.Fail(c, err)
		return
	}
	h.services.Room.Touch(roomID)

	response.Success(c, gin.H{
		"outcome": outcome,
		"state":   rt.View(playerID),
	})
}

func (h *Handler) ListRounds(c *gin.Context) {
	rounds, err := h.services.Game.ListRounds(c.Request.Context(), roomParam(c))
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, gin.H{"rounds": rounds})
}

func (h *Handler) Spectate(c *gin.Context) {
	view, err := h.services.Game.Spectate(c.Request.Context(), roomParam(c))
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, view)
}

func (h *Handler) MyRecord(c *gin.Context) {
	rec, err := h.services.Game.PlayerRecord(c.Request.Context(), middleware.PlayerID(c))
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, rec)
}

func roomParam(c *gin.Context) string {
	return strings.ToUpper(strings.TrimSpace(c.Param("roomId")))
}
