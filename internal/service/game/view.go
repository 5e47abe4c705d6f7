package game

import (
	"chuchuang-service/internal/engine"
)

// CardView is a card as one viewer may see it. Hidden cards carry no id or company.
type CardView struct {
	ID      string         `json:"id,omitempty"`
	Company engine.Company `json:"company,omitempty"`
	Hidden  bool           `json:"hidden,omitempty"`
}

type MarketSlotView struct {
	Card      CardView `json:"card"`
	Coins     int      `json:"coins"`
	CoinValue int      `json:"coinValue"`
}

type PlayerView struct {
	ID          string                 `json:"id"`
	Name        string                 `json:"name"`
	Seat        int                    `json:"seat"`
	Hand        []CardView             `json:"hand"`
	HandCount   int                    `json:"handCount"`
	Investments map[engine.Company]int `json:"investments"`
	Coins       int                    `json:"coins"`
	CoinValue   int                    `json:"coinValue"`
	HighCoins   int                    `json:"highCoins"`
	Debt        int                    `json:"debt"`
	Score       int                    `json:"score"`
	RoundScore  int                    `json:"roundScore"`
	Holds       []engine.Company       `json:"holds"`
	Connected   bool                   `json:"connected"`
}

// StateView is the client payload. Hands of other players and the deck are
// replaced by placeholders; removed cards are reported only as a count.
type StateView struct {
	RoomID              string                   `json:"roomId"`
	Viewer              string                   `json:"viewer,omitempty"`
	Phase               engine.Phase             `json:"phase"`
	Step                engine.TurnStep          `json:"step"`
	Round               int                      `json:"round"`
	RoundsCompleted     int                      `json:"roundsCompleted"`
	TotalRounds         int                      `json:"totalRounds"`
	CurrentPlayerIndex  int                      `json:"currentPlayerIndex"`
	CurrentPlayerID     string                   `json:"currentPlayerId"`
	StartingPlayerIndex int                      `json:"startingPlayerIndex"`
	Deck                []CardView               `json:"deck"`
	RemovedCount        int                      `json:"removedCount"`
	Market              []MarketSlotView         `json:"market"`
	Players             []PlayerView             `json:"players"`
	MajorityHolders     engine.Holders           `json:"majorityHolders"`
	ProjectedHolders    engine.Holders           `json:"projectedHolders,omitempty"`
	DeckDrawFee         int                      `json:"deckDrawFee"`
	AllowedActions      []engine.ActionKind      `json:"allowedActions"`
	Log                 []engine.LogEntry        `json:"log"`
	LastSettlement      *engine.SettlementReport `json:"lastSettlement,omitempty"`
}

// buildView redacts s for viewer. An empty viewer is a spectator and sees no hand.
func buildView(eng *engine.Engine, s *engine.State, viewer string, connected map[string]bool) StateView {
	view := StateView{
		RoomID:              s.RoomID,
		Viewer:              viewer,
		Phase:               s.Phase,
		Step:                s.Step,
		Round:               s.Round,
		RoundsCompleted:     s.RoundsCompleted,
		TotalRounds:         len(s.Players),
		CurrentPlayerIndex:  s.CurrentPlayerIndex,
		StartingPlayerIndex: s.StartingPlayerIndex,
		Deck:                hiddenCards(len(s.Deck)),
		RemovedCount:        len(s.Removed),
		Market:              make([]MarketSlotView, 0, len(s.Market)),
		Players:             make([]PlayerView, 0, len(s.Players)),
		MajorityHolders:     append(engine.Holders{}, s.MajorityHolders...),
		AllowedActions:      []engine.ActionKind{},
		Log:                 redactLog(s.Log, viewer),
		LastSettlement:      s.LastSettlement,
	}
	if p := s.CurrentPlayer(); p != nil {
		view.CurrentPlayerID = p.ID
	}

	for _, slot := range s.Market {
		view.Market = append(view.Market, MarketSlotView{
			Card:      CardView{ID: slot.Card.ID, Company: slot.Card.Company},
			Coins:     len(slot.Coins),
			CoinValue: engine.CoinValue(slot.Coins),
		})
	}

	for i := range s.Players {
		p := &s.Players[i]
		pv := PlayerView{
			ID:          p.ID,
			Name:        p.Name,
			Seat:        i,
			HandCount:   len(p.Hand),
			Investments: make(map[engine.Company]int, len(engine.Companies)),
			Coins:       len(p.Coins),
			CoinValue:   engine.CoinValue(p.Coins),
			Debt:        p.Debt,
			Score:       p.Score,
			RoundScore:  p.RoundScore,
			Holds:       s.MajorityHolders.HeldBy(p.ID),
			Connected:   connected[p.ID],
		}
		for _, c := range p.Coins {
			if c.Value == engine.HighValue {
				pv.HighCoins++
			}
		}
		for _, company := range engine.Companies {
			pv.Investments[company] = p.InvestedCount(company)
		}
		if p.ID == viewer {
			pv.Hand = make([]CardView, 0, len(p.Hand))
			for _, card := range p.Hand {
				pv.Hand = append(pv.Hand, CardView{ID: card.ID, Company: card.Company})
			}
		} else {
			pv.Hand = hiddenCards(len(p.Hand))
		}
		view.Players = append(view.Players, pv)
	}

	if idx := s.PlayerIndex(viewer); idx >= 0 {
		view.ProjectedHolders = projectFor(s, idx)
		view.DeckDrawFee = engine.DeckDrawFee(s.Market, s.MajorityHolders, viewer)
		view.AllowedActions = allowedKinds(eng.LegalActions(s, viewer))
	}
	return view
}

// projectFor folds only the viewer's own hand into the projection, since the
// other hands are not visible to them.
func projectFor(s *engine.State, idx int) engine.Holders {
	players := make([]engine.Player, len(s.Players))
	for i := range s.Players {
		players[i] = engine.Player{ID: s.Players[i].ID, Investments: s.Players[i].Investments}
	}
	players[idx].Hand = s.Players[idx].Hand
	return engine.ProjectedMajorityHolders(players)
}

// redactLog hides the card of every deck draw except the viewer's own.
func redactLog(log []engine.LogEntry, viewer string) []engine.LogEntry {
	out := make([]engine.LogEntry, len(log))
	for i, entry := range log {
		if entry.Kind == engine.KindDrawFromDeck && (viewer == "" || entry.PlayerID != viewer) {
			entry.CardID = ""
			entry.Company = ""
		}
		out[i] = entry
	}
	return out
}

func hiddenCards(n int) []CardView {
	out := make([]CardView, n)
	for i := range out {
		out[i].Hidden = true
	}
	return out
}

func allowedKinds(actions []engine.Action) []engine.ActionKind {
	kinds := make([]engine.ActionKind, 0, 4)
	seen := make(map[engine.ActionKind]struct{}, 4)
	for _, a := range actions {
		if _, ok := seen[a.Kind()]; ok {
			continue
		}
		seen[a.Kind()] = struct{}{}
		kinds = append(kinds, a.Kind())
	}
	return kinds
}
