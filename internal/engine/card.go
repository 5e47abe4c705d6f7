package engine

import "fmt"

// Card is an immutable company tag with a per-round unique id.
type Card struct {
	ID      string  `json:"id"`
	Company Company `json:"company"`
}

// Denomination is a coin face value. Coins never merge or split, only flip.
type Denomination int

const (
	LowValue  Denomination = 1
	HighValue Denomination = 3
)

type Coin struct {
	ID    string       `json:"id"`
	Value Denomination `json:"value"`
}

// NewDeck builds the full ordered card sequence, company by company.
func NewDeck(rules Rules) []Card {
	deck := make([]Card, 0, rules.DeckSize())
	for _, company := range Companies {
		for i := 0; i < rules.CompanyCounts[company]; i++ {
			deck = append(deck, Card{
				ID:      fmt.Sprintf("%s-%d", company, i),
				Company: company,
			})
		}
	}
	return deck
}

// MintCoins issues n low-value coins for the player seated at seat.
func MintCoins(seat, n int) []Coin {
	coins := make([]Coin, 0, n)
	for i := 0; i < n; i++ {
		coins = append(coins, Coin{
			ID:    fmt.Sprintf("c%d-%d", seat, i),
			Value: LowValue,
		})
	}
	return coins
}

// CoinValue sums face values.
func CoinValue(coins []Coin) int {
	total := 0
	for _, c := range coins {
		total += int(c.Value)
	}
	return total
}

func highCoinCount(coins []Coin) int {
	n := 0
	for _, c := range coins {
		if c.Value == HighValue {
			n++
		}
	}
	return n
}

// takeCoins removes n coins from *coins, low denominations first and otherwise in
// holding order, and returns them. n must not exceed len(*coins).
func takeCoins(coins *[]Coin, n int) []Coin {
	if n <= 0 {
		return nil
	}
	taken := make([]Coin, 0, n)
	kept := make([]Coin, 0, len(*coins)-n)
	for _, want := range []Denomination{LowValue, HighValue} {
		for _, c := range *coins {
			if c.Value == want && len(taken) < n {
				taken = append(taken, c)
			}
		}
	}
	picked := make(map[string]struct{}, len(taken))
	for _, c := range taken {
		picked[c.ID] = struct{}{}
	}
	for _, c := range *coins {
		if _, ok := picked[c.ID]; !ok {
			kept = append(kept, c)
		}
	}
	*coins = kept
	return taken
}
