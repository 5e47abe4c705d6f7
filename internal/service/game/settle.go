package game

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"chuchuang-service/internal/engine"
	"chuchuang-service/internal/model"
	appErr "chuchuang-service/pkg/errors"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RoundRecord is a persisted round settlement read back for clients.
type RoundRecord struct {
	Round     int               `json:"round"`
	Holders   engine.Holders    `json:"holders"`
	Transfers []engine.Transfer `json:"transfers"`
	Standings []engine.Standing `json:"standings"`
	CreatedAt time.Time         `json:"createdAt"`
}

type seatRecord struct {
	Seat     int    `json:"seat"`
	PlayerID string `json:"playerId"`
	Name     string `json:"name"`
}

// CreateMatch opens the result row for a game that is about to start.
func (s *Service) CreateMatch(ctx context.Context, roomID string, seats []engine.Seat) (int64, error) {
	players := make([]seatRecord, 0, len(seats))
	for i, seat := range seats {
		players = append(players, seatRecord{Seat: i, PlayerID: seat.ID, Name: seat.Name})
	}
	match := model.Match{
		RoomID:      roomID,
		SeatCount:   len(seats),
		PlayersJSON: mustJSON(players),
	}
	if err := s.db.WithContext(ctx).Create(&match).Error; err != nil {
		return 0, err
	}
	return match.ID, nil
}

// RecordRound stores one settlement and bumps the per-player totals in a single
// transaction.
func (s *Service) RecordRound(ctx context.Context, matchID int64, report *engine.SettlementReport) error {
	if matchID == 0 || report == nil {
		return fmt.Errorf("%w: missing match or report", appErr.ErrInvalidPayload)
	}
	now := time.Now()

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		match, err := lockMatch(tx, matchID)
		if err != nil {
			return err
		}
		if match.EndedAt != nil {
			return fmt.Errorf("%w: match %d already finished", appErr.ErrPhaseMismatch, matchID)
		}

		roundLog := model.RoundLog{
			MatchID:       match.ID,
			RoomID:        match.RoomID,
			RoundNo:       report.Round,
			HoldersJSON:   mustJSON(report.Holders),
			TransfersJSON: mustJSON(report.Transfers),
			StandingsJSON: mustJSON(report.Standings),
			CreatedAt:     now,
		}
		if err := tx.Create(&roundLog).Error; err != nil {
			return err
		}

		match.RoundsPlayed = report.Round
		if err := tx.Save(match).Error; err != nil {
			return err
		}

		records := newRecordBook(tx)
		for _, st := range report.Standings {
			rec, err := records.Ensure(st.PlayerID, st.Name)
			if err != nil {
				return err
			}
			rec.RoundsPlayed++
			rec.TotalScore += int64(st.RoundScore)
			rec.TotalDebt += int64(st.Debt)
			if st.Rank == 0 {
				rec.RoundsWon++
			}
		}
		return records.SaveAll(now)
	})
}

// FinishMatch stamps the end of the match with the final standings.
func (s *Service) FinishMatch(ctx context.Context, matchID int64, standings []engine.Standing) error {
	now := time.Now()

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		match, err := lockMatch(tx, matchID)
		if err != nil {
			return err
		}
		if match.EndedAt != nil {
			return nil
		}
		match.EndedAt = &now
		match.StandingsJSON = mustJSON(standings)
		if err := tx.Save(match).Error; err != nil {
			return err
		}

		records := newRecordBook(tx)
		for _, st := range standings {
			rec, err := records.Ensure(st.PlayerID, st.Name)
			if err != nil {
				return err
			}
			rec.MatchesFinished++
		}
		return records.SaveAll(now)
	})
}

// ListRounds returns the settled rounds of the most recent match in roomID.
func (s *Service) ListRounds(ctx context.Context, roomID string) ([]RoundRecord, error) {
	if s.db == nil {
		return nil, appErr.ErrRoomOrPlayerNotFound
	}
	var match model.Match
	err := s.db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Order("id DESC").
		First(&match).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, appErr.ErrRoomOrPlayerNotFound
		}
		return nil, err
	}

	var logs []model.RoundLog
	if err := s.db.WithContext(ctx).
		Where("match_id = ?", match.ID).
		Order("round_no ASC").
		Find(&logs).Error; err != nil {
		return nil, err
	}

	out := make([]RoundRecord, 0, len(logs))
	for _, l := range logs {
		rec := RoundRecord{Round: l.RoundNo, CreatedAt: l.CreatedAt}
		if err := decodeJSON(l.HoldersJSON, &rec.Holders); err != nil {
			return nil, err
		}
		if err := decodeJSON(l.TransfersJSON, &rec.Transfers); err != nil {
			return nil, err
		}
		if err := decodeJSON(l.StandingsJSON, &rec.Standings); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// PlayerRecord returns the accumulated totals for playerID.
func (s *Service) PlayerRecord(ctx context.Context, playerID string) (*model.PlayerRecord, error) {
	if s.db == nil {
		return nil, appErr.ErrRoomOrPlayerNotFound
	}
	var rec model.PlayerRecord
	if err := s.db.WithContext(ctx).Where("player_id = ?", playerID).First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, appErr.ErrRoomOrPlayerNotFound
		}
		return nil, err
	}
	return &rec, nil
}

func lockMatch(tx *gorm.DB, matchID int64) (*model.Match, error) {
	var match model.Match
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&match, matchID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: match %d", appErr.ErrRoomOrPlayerNotFound, matchID)
		}
		return nil, err
	}
	return &match, nil
}

func mustJSON(v interface{}) datatypes.JSON {
	if v == nil {
		return datatypes.JSON("{}")
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return datatypes.JSON("{}")
	}
	return datatypes.JSON(raw)
}

func decodeJSON(raw datatypes.JSON, v interface{}) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, v)
}

// recordBook loads each player record once per transaction, locked, and writes
// back every touched row at the end.
type recordBook struct {
	tx      *gorm.DB
	entries map[string]*recordEntry
}

type recordEntry struct {
	record *model.PlayerRecord
	exists bool
}

func newRecordBook(tx *gorm.DB) *recordBook {
	return &recordBook{
		tx:      tx,
		entries: make(map[string]*recordEntry),
	}
}

func (rb *recordBook) Ensure(playerID, name string) (*model.PlayerRecord, error) {
	if entry, ok := rb.entries[playerID]; ok {
		return entry.record, nil
	}

	rec := &model.PlayerRecord{}
	err := rb.tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("player_id = ?", playerID).
		First(rec).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		rec = &model.PlayerRecord{PlayerID: playerID}
	}
	if name != "" {
		rec.Name = name
	}

	rb.entries[playerID] = &recordEntry{record: rec, exists: err == nil}
	return rec, nil
}

func (rb *recordBook) SaveAll(now time.Time) error {
	for _, entry := range rb.entries {
		entry.record.UpdatedAt = now
		var err error
		if entry.exists {
			err = rb.tx.Save(entry.record).Error
		} else {
			err = rb.tx.Create(entry.record).Error
			if err == nil {
				entry.exists = true
			}
		}
		if err != nil {
			return err
		}
	}
	return nil
}
