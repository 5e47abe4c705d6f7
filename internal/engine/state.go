package engine

type Phase string

const (
	PhasePlaying    Phase = "PLAYING"
	PhaseSettlement Phase = "SETTLEMENT"
	PhaseFinished   Phase = "FINISHED"
)

// TurnStep is the sub-state of the active player's turn.
type TurnStep string

const (
	StepAwaitingTake TurnStep = "AWAITING_TAKE"
	StepAwaitingPlay TurnStep = "AWAITING_PLAY"
)

// Seat is a player entering the game.
type Seat struct {
	ID   string
	Name string
}

type Player struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Hand        []Card             `json:"hand"`
	Investments map[Company][]Card `json:"investments"`
	Coins       []Coin             `json:"coins"`
	Score       int                `json:"score"`
	RoundScore  int                `json:"roundScore"`
	Debt        int                `json:"debt"`

	// Two-phase turn bookkeeping, cleared when the turn ends.
	HasActed     bool    `json:"hasActed"`
	LastAcquired Company `json:"lastAcquired,omitempty"`
	TookMarket   bool    `json:"tookMarket"`
}

// InvestedCount returns how many cards of company the player has invested.
func (p *Player) InvestedCount(company Company) int {
	return len(p.Investments[company])
}

func (p *Player) handIndex(cardID string) int {
	for i, c := range p.Hand {
		if c.ID == cardID {
			return i
		}
	}
	return -1
}

// MarketSlot is a visible market card and the coins paid onto it.
type MarketSlot struct {
	Card  Card   `json:"card"`
	Coins []Coin `json:"coins"`
}

type LogEntry struct {
	Seq        int        `json:"seq"`
	PlayerID   string     `json:"playerId,omitempty"`
	PlayerName string     `json:"playerName,omitempty"`
	Kind       ActionKind `json:"kind"`
	CardID     string     `json:"cardId,omitempty"`
	Company    Company    `json:"company,omitempty"`
	Coins      int        `json:"coins,omitempty"`
	Timestamp  int64      `json:"timestamp"`
}

type State struct {
	RoomID              string            `json:"roomId"`
	Players             []Player          `json:"players"`
	CurrentPlayerIndex  int               `json:"currentPlayerIndex"`
	Phase               Phase             `json:"phase"`
	Step                TurnStep          `json:"step"`
	Deck                []Card            `json:"deck"`
	Market              []MarketSlot      `json:"market"`
	Removed             []Card            `json:"removed"`
	MajorityHolders     Holders           `json:"majorityHolders"`
	Round               int               `json:"round"`
	StartingPlayerIndex int               `json:"startingPlayerIndex"`
	RoundsCompleted     int               `json:"roundsCompleted"`
	Log                 []LogEntry        `json:"log"`
	LogSeq              int               `json:"logSeq"`
	LastSettlement      *SettlementReport `json:"lastSettlement,omitempty"`
}

// PlayerIndex returns the seat of playerID or -1.
func (s *State) PlayerIndex(playerID string) int {
	for i := range s.Players {
		if s.Players[i].ID == playerID {
			return i
		}
	}
	return -1
}

// CurrentPlayer returns the player whose turn it is.
func (s *State) CurrentPlayer() *Player {
	if s.CurrentPlayerIndex < 0 || s.CurrentPlayerIndex >= len(s.Players) {
		return nil
	}
	return &s.Players[s.CurrentPlayerIndex]
}

func (s *State) marketIndex(cardID string) int {
	for i, slot := range s.Market {
		if slot.Card.ID == cardID {
			return i
		}
	}
	return -1
}

// CardCount counts every card the round owns, wherever it sits.
func (s *State) CardCount() int {
	n := len(s.Deck) + len(s.Market) + len(s.Removed)
	for i := range s.Players {
		n += len(s.Players[i].Hand)
		for _, cards := range s.Players[i].Investments {
			n += len(cards)
		}
	}
	return n
}

// Clone deep-copies the state so no container is shared between the copy and s.
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}
	out := *s
	out.Players = make([]Player, len(s.Players))
	for i, p := range s.Players {
		cp := p
		cp.Hand = cloneSlice(p.Hand)
		cp.Coins = cloneSlice(p.Coins)
		if p.Investments != nil {
			cp.Investments = make(map[Company][]Card, len(p.Investments))
			for c, cards := range p.Investments {
				cp.Investments[c] = cloneSlice(cards)
			}
		}
		out.Players[i] = cp
	}
	out.Deck = cloneSlice(s.Deck)
	out.Removed = cloneSlice(s.Removed)
	if s.Market != nil {
		out.Market = make([]MarketSlot, len(s.Market))
		for i, slot := range s.Market {
			out.Market[i] = MarketSlot{Card: slot.Card, Coins: cloneSlice(slot.Coins)}
		}
	}
	out.MajorityHolders = cloneSlice(s.MajorityHolders)
	out.Log = cloneSlice(s.Log)
	out.LastSettlement = s.LastSettlement.clone()
	return &out
}

// cloneSlice copies in, keeping the nil/empty distinction.
func cloneSlice[S ~[]E, E any](in S) S {
	if in == nil {
		return nil
	}
	return append(make(S, 0, len(in)), in...)
}

func emptyInvestments() map[Company][]Card {
	inv := make(map[Company][]Card, len(Companies))
	for _, c := range Companies {
		inv[c] = []Card{}
	}
	return inv
}
