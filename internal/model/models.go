package model

import (
	"time"

	"gorm.io/datatypes"
)

// Match is one game played in a room, from the first deal to FINISHED.
type Match struct {
	ID            int64  `gorm:"primaryKey;autoIncrement"`
	RoomID        string `gorm:"index;size:64;not null"`
	SeatCount     int
	RoundsPlayed  int            `gorm:"default:0"`
	PlayersJSON   datatypes.JSON // seat -> player id / name
	StandingsJSON datatypes.JSON // final standings, set when the match ends
	CreatedAt     time.Time
	UpdatedAt     time.Time
	EndedAt       *time.Time
}

// RoundLog is the settlement record of a single round.
type RoundLog struct {
	ID            int64  `gorm:"primaryKey;autoIncrement"`
	MatchID       int64  `gorm:"index"`
	RoomID        string `gorm:"index;size:64"`
	RoundNo       int
	HoldersJSON   datatypes.JSON
	TransfersJSON datatypes.JSON
	StandingsJSON datatypes.JSON
	CreatedAt     time.Time
}

// PlayerRecord accumulates a player's results across rounds.
type PlayerRecord struct {
	PlayerID        string `gorm:"primaryKey;size:64"`
	Name            string `gorm:"size:64"`
	RoundsPlayed    int    `gorm:"default:0"`
	RoundsWon       int    `gorm:"default:0"`
	TotalScore      int64  `gorm:"default:0"`
	TotalDebt       int64  `gorm:"default:0"`
	MatchesFinished int    `gorm:"default:0"`
	UpdatedAt       time.Time
}

// All lists every model for AutoMigrate.
func All() []interface{} {
	return []interface{}{
		&Match{},
		&RoundLog{},
		&PlayerRecord{},
	}
}
