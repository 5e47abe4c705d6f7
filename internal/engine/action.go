package engine

// ActionKind tags every action and log entry.
type ActionKind string

const (
	KindDrawFromDeck     ActionKind = "DRAW_FROM_DECK"
	KindDrawFromMarket   ActionKind = "DRAW_FROM_MARKET"
	KindPlayToInvestment ActionKind = "PLAY_TO_INVESTMENT"
	KindPlayToMarket     ActionKind = "PLAY_TO_MARKET"
	KindStartNextRound   ActionKind = "START_NEXT_ROUND"
	KindSettlement       ActionKind = "SETTLEMENT"
)

// Action is the closed set of player intents. Only the types in this file
// implement it.
type Action interface {
	Kind() ActionKind
	isAction()
}

// DrawFromDeck takes the top deck card, paying the market fee.
type DrawFromDeck struct {
	PlayerID string
}

// DrawFromMarket takes a market card and the coins parked on it.
type DrawFromMarket struct {
	PlayerID string
	CardID   string
}

type PlayToInvestment struct {
	PlayerID string
	CardID   string
}

type PlayToMarket struct {
	PlayerID string
	CardID   string
}

// StartNextRound closes a settled round; any seated player may send it.
type StartNextRound struct {
	PlayerID string
}

func (DrawFromDeck) Kind() ActionKind     { return KindDrawFromDeck }
func (DrawFromMarket) Kind() ActionKind   { return KindDrawFromMarket }
func (PlayToInvestment) Kind() ActionKind { return KindPlayToInvestment }
func (PlayToMarket) Kind() ActionKind     { return KindPlayToMarket }
func (StartNextRound) Kind() ActionKind   { return KindStartNextRound }

func (DrawFromDeck) isAction()     {}
func (DrawFromMarket) isAction()   {}
func (PlayToInvestment) isAction() {}
func (PlayToMarket) isAction()     {}
func (StartNextRound) isAction()   {}

// Outcome describes what an accepted action did.
type Outcome struct {
	Kind           ActionKind        `json:"kind"`
	PlayerID       string            `json:"playerId,omitempty"`
	Card           *Card             `json:"card,omitempty"`
	FeePaid        int               `json:"feePaid,omitempty"`
	CoinsCollected int               `json:"coinsCollected,omitempty"`
	TurnAdvanced   bool              `json:"turnAdvanced"`
	Settled        bool              `json:"settled"`
	Finished       bool              `json:"finished"`
	Settlement     *SettlementReport `json:"settlement,omitempty"`
}
