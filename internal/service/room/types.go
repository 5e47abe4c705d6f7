package room

import "time"

type Config struct {
	MinPlayers      int
	MaxPlayers      int
	MaxRooms        int
	IdleTimeout     time.Duration
	CleanupInterval time.Duration
}

type CreateRoomRequest struct {
	PlayerName string
	MaxPlayers int
	Password   string
}

type JoinRoomRequest struct {
	PlayerName string
	Password   string
}

type MemberInfo struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Ready bool   `json:"ready"`
}

type RoomInfo struct {
	ID          string       `json:"id"`
	MaxPlayers  int          `json:"maxPlayers"`
	HasPassword bool         `json:"hasPassword"`
	Started     bool         `json:"started"`
	Members     []MemberInfo `json:"members"`
	CreatedAt   time.Time    `json:"createdAt"`
}

// JoinResult carries the seat a caller obtained and the token bound to it.
type JoinResult struct {
	Room     RoomInfo `json:"room"`
	PlayerID string   `json:"playerId"`
	Token    string   `json:"token"`
}

type member struct {
	id       string
	name     string
	ready    bool
	joinedAt time.Time
}

type room struct {
	id           string
	maxPlayers   int
	passwordHash []byte
	members      []member
	started      bool
	starting     bool
	createdAt    time.Time
	touchedAt    time.Time
}

// closedToSeats is true once the game is running or being started.
func (r *room) closedToSeats() bool {
	return r.started || r.starting
}

func (r *room) memberIndex(playerID string) int {
	for i := range r.members {
		if r.members[i].id == playerID {
			return i
		}
	}
	return -1
}

func (r *room) info() RoomInfo {
	members := make([]MemberInfo, 0, len(r.members))
	for _, m := range r.members {
		members = append(members, MemberInfo{ID: m.id, Name: m.name, Ready: m.ready})
	}
	return RoomInfo{
		ID:          r.id,
		MaxPlayers:  r.maxPlayers,
		HasPassword: len(r.passwordHash) > 0,
		Started:     r.started,
		Members:     members,
		CreatedAt:   r.createdAt,
	}
}
