package room

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"chuchuang-service/internal/engine"
	"chuchuang-service/internal/service/game"
	pkgAuth "chuchuang-service/pkg/auth"
	appErr "chuchuang-service/pkg/errors"
	"chuchuang-service/pkg/logger"
	"chuchuang-service/pkg/utils/random"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const maxNameLength = 32

// Games is the part of the game service the room manager drives.
type Games interface {
	StartGame(ctx context.Context, roomID string, seats []engine.Seat) (*game.RoomRuntime, error)
	RemoveRuntime(ctx context.Context, roomID string)
}

// Service is the in-memory lobby: rooms, seats and readiness. A game starts as
// soon as every seated player is ready and the minimum is reached.
type Service struct {
	cfg    Config
	games  Games
	issuer *pkgAuth.Issuer
	now    func() time.Time

	mu    sync.Mutex
	rooms map[string]*room

	startOnce sync.Once
}

func NewService(cfg Config, games Games, issuer *pkgAuth.Issuer) *Service {
	if cfg.MinPlayers <= 0 {
		cfg.MinPlayers = 3
	}
	if cfg.MaxPlayers < cfg.MinPlayers {
		cfg.MaxPlayers = cfg.MinPlayers
	}
	return &Service{
		cfg:    cfg,
		games:  games,
		issuer: issuer,
		now:    time.Now,
		rooms:  make(map[string]*room),
	}
}

// CreateRoom opens a room and seats its creator.
func (s *Service) CreateRoom(ctx context.Context, req CreateRoomRequest) (*JoinResult, error) {
	name, err := normalizeName(req.PlayerName)
	if err != nil {
		return nil, err
	}

	var hash []byte
	if req.Password != "" {
		if hash, err = bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost); err != nil {
			return nil, err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cfg.MaxRooms > 0 && len(s.rooms) >= s.cfg.MaxRooms {
		return nil, fmt.Errorf("%w: room limit reached", appErr.ErrRoomFull)
	}

	now := s.now()
	r := &room{
		id:           s.newRoomCodeLocked(),
		maxPlayers:   s.clampPlayers(req.MaxPlayers),
		passwordHash: hash,
		createdAt:    now,
		touchedAt:    now,
	}
	s.rooms[r.id] = r

	res, err := s.seatLocked(r, name)
	if err != nil {
		delete(s.rooms, r.id)
		return nil, err
	}
	logger.Log.Info("room created", zap.String("roomID", r.id), zap.Int("maxPlayers", r.maxPlayers))
	return res, nil
}

func (s *Service) JoinRoom(ctx context.Context, roomID string, req JoinRoomRequest) (*JoinResult, error) {
	name, err := normalizeName(req.PlayerName)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	r, err := s.roomLocked(roomID)
	if err != nil {
		return nil, err
	}
	if r.closedToSeats() {
		return nil, appErr.ErrRoomAlreadyStarted
	}
	if len(r.members) >= r.maxPlayers {
		return nil, appErr.ErrRoomFull
	}
	if len(r.passwordHash) > 0 {
		if err := bcrypt.CompareHashAndPassword(r.passwordHash, []byte(req.Password)); err != nil {
			return nil, appErr.ErrInvalidPassword
		}
	}
	return s.seatLocked(r, name)
}

// Leave frees a seat before the game starts. The room disappears with its
// last member.
func (s *Service) Leave(ctx context.Context, roomID, playerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, err := s.roomLocked(roomID)
	if err != nil {
		return err
	}
	idx := r.memberIndex(playerID)
	if idx < 0 {
		return appErr.ErrRoomOrPlayerNotFound
	}
	if r.closedToSeats() {
		return appErr.ErrRoomAlreadyStarted
	}
	r.members = append(r.members[:idx], r.members[idx+1:]...)
	r.touchedAt = s.now()
	if len(r.members) == 0 {
		delete(s.rooms, r.id)
		logger.Log.Info("room closed", zap.String("roomID", r.id))
	}
	return nil
}

// SetReady flips a member's readiness and starts the game when everyone is ready.
// The game is started outside the lobby lock; the room is marked starting so
// no seat changes slip in meanwhile.
func (s *Service) SetReady(ctx context.Context, roomID, playerID string, ready bool) (*RoomInfo, error) {
	s.mu.Lock()
	r, err := s.roomLocked(roomID)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	if r.memberIndex(playerID) < 0 {
		s.mu.Unlock()
		return nil, appErr.ErrRoomOrPlayerNotFound
	}
	if r.closedToSeats() {
		s.mu.Unlock()
		return nil, appErr.ErrRoomAlreadyStarted
	}
	r.members[r.memberIndex(playerID)].ready = ready
	r.touchedAt = s.now()

	if !s.allReadyLocked(r) {
		info := r.info()
		s.mu.Unlock()
		return &info, nil
	}
	r.starting = true
	seats := make([]engine.Seat, 0, len(r.members))
	for _, m := range r.members {
		seats = append(seats, engine.Seat{ID: m.id, Name: m.name})
	}
	s.mu.Unlock()

	_, startErr := s.games.StartGame(ctx, r.id, seats)

	s.mu.Lock()
	defer s.mu.Unlock()
	r.starting = false
	if startErr != nil {
		if idx := r.memberIndex(playerID); idx >= 0 {
			r.members[idx].ready = false
		}
		return nil, startErr
	}
	r.started = true
	info := r.info()
	return &info, nil
}

func (s *Service) Get(roomID string) (*RoomInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, err := s.roomLocked(roomID)
	if err != nil {
		return nil, err
	}
	info := r.info()
	return &info, nil
}

func (s *Service) List() []RoomInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]RoomInfo, 0, len(s.rooms))
	for _, r := range s.rooms {
		out = append(out, r.info())
	}
	return out
}

// Touch records activity so the janitor keeps the room.
func (s *Service) Touch(roomID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.rooms[normalizeCode(roomID)]; ok {
		r.touchedAt = s.now()
	}
}

func (s *Service) seatLocked(r *room, name string) (*JoinResult, error) {
	playerID := uuid.NewString()
	token, err := s.issuer.GeneratePlayerToken(playerID, r.id)
	if err != nil {
		return nil, err
	}
	now := s.now()
	r.members = append(r.members, member{id: playerID, name: name, joinedAt: now})
	r.touchedAt = now
	return &JoinResult{Room: r.info(), PlayerID: playerID, Token: token}, nil
}

func (s *Service) allReadyLocked(r *room) bool {
	if len(r.members) < s.cfg.MinPlayers {
		return false
	}
	for _, m := range r.members {
		if !m.ready {
			return false
		}
	}
	return true
}

func (s *Service) roomLocked(roomID string) (*room, error) {
	r, ok := s.rooms[normalizeCode(roomID)]
	if !ok {
		return nil, appErr.ErrRoomOrPlayerNotFound
	}
	return r, nil
}

func (s *Service) newRoomCodeLocked() string {
	for {
		code := random.RoomCode()
		if _, taken := s.rooms[code]; !taken {
			return code
		}
	}
}

func (s *Service) clampPlayers(n int) int {
	if n <= 0 || n > s.cfg.MaxPlayers {
		return s.cfg.MaxPlayers
	}
	if n < s.cfg.MinPlayers {
		return s.cfg.MinPlayers
	}
	return n
}

func normalizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: player name required", appErr.ErrInvalidPayload)
	}
	if r := []rune(name); len(r) > maxNameLength {
		name = string(r[:maxNameLength])
	}
	return name, nil
}

func normalizeCode(roomID string) string {
	return strings.ToUpper(strings.TrimSpace(roomID))
}
