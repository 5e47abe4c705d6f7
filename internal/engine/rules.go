// Package engine is the rules engine of the investment card game: deck and coin
// factory, ownership arbitration, the fee-bearing market, the two-phase turn
// executor, end-of-round settlement and the round lifecycle.
//
// All operations are synchronous functions over an explicit *State. Apply never
// mutates its input; callers own persistence and broadcast of the returned state.
package engine

import (
	"fmt"

	appErr "chuchuang-service/pkg/errors"
)

// Company is one of the six fixed investment categories.
type Company string

const (
	CompanyA Company = "A"
	CompanyB Company = "B"
	CompanyC Company = "C"
	CompanyD Company = "D"
	CompanyE Company = "E"
	CompanyF Company = "F"
)

// Companies lists every company in table order. Iteration over companies always
// follows this order so settlement is reproducible.
var Companies = []Company{CompanyA, CompanyB, CompanyC, CompanyD, CompanyE, CompanyF}

// Valid reports whether c is one of the six companies.
func (c Company) Valid() bool {
	for _, known := range Companies {
		if c == known {
			return true
		}
	}
	return false
}

// Rules are the table constants of a game, loaded from the game config section.
type Rules struct {
	CompanyCounts  map[Company]int `mapstructure:"companyCounts"`
	HandSize       int             `mapstructure:"handSize"`
	StartingCoins  int             `mapstructure:"startingCoins"`
	RemovedCards   int             `mapstructure:"removedCards"`
	MinPlayers     int             `mapstructure:"minPlayers"`
	MaxPlayers     int             `mapstructure:"maxPlayers"`
	ActionLogLimit int             `mapstructure:"actionLogLimit"` // 0 keeps every entry
}

// DefaultRules is the standard 45-card table for 3 to 7 players.
func DefaultRules() Rules {
	return Rules{
		CompanyCounts: map[Company]int{
			CompanyA: 5,
			CompanyB: 6,
			CompanyC: 7,
			CompanyD: 8,
			CompanyE: 9,
			CompanyF: 10,
		},
		HandSize:       3,
		StartingCoins:  10,
		RemovedCards:   5,
		MinPlayers:     3,
		MaxPlayers:     7,
		ActionLogLimit: 50,
	}
}

// DeckSize is the number of cards in play at the start of every round.
func (r Rules) DeckSize() int {
	total := 0
	for _, c := range Companies {
		total += r.CompanyCounts[c]
	}
	return total
}

func (r Rules) Validate() error {
	for _, c := range Companies {
		if r.CompanyCounts[c] <= 0 {
			return fmt.Errorf("%w: company %s needs at least one card", appErr.ErrInvalidRules, c)
		}
	}
	if r.HandSize <= 0 || r.StartingCoins < 0 || r.RemovedCards < 0 {
		return fmt.Errorf("%w: hand size, coins and removed cards must be positive", appErr.ErrInvalidRules)
	}
	if r.MinPlayers < 2 || r.MaxPlayers < r.MinPlayers {
		return fmt.Errorf("%w: player bounds %d..%d", appErr.ErrInvalidRules, r.MinPlayers, r.MaxPlayers)
	}
	if need := r.RemovedCards + r.MaxPlayers*r.HandSize; need > r.DeckSize() {
		return fmt.Errorf("%w: deck of %d cannot cover %d removed+dealt cards", appErr.ErrInvalidRules, r.DeckSize(), need)
	}
	if r.ActionLogLimit < 0 {
		return fmt.Errorf("%w: negative action log limit", appErr.ErrInvalidRules)
	}
	return nil
}
