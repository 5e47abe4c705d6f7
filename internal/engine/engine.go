package engine

import (
	"fmt"
	"math/rand"
	"time"

	appErr "chuchuang-service/pkg/errors"
	"chuchuang-service/pkg/utils/random"
)

// Engine applies the rules to game states. It carries the random source used
// for shuffling, so one Engine serves one room and is not safe for concurrent use.
type Engine struct {
	rules Rules
	rng   *rand.Rand
	now   func() time.Time
}

type Option func(*Engine)

// WithSeed makes every shuffle reproducible.
func WithSeed(seed int64) Option {
	return func(e *Engine) {
		e.rng = rand.New(rand.NewSource(seed))
	}
}

func WithRand(rng *rand.Rand) Option {
	return func(e *Engine) {
		e.rng = rng
	}
}

// WithClock sets the time source used for action log timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

func New(rules Rules, opts ...Option) (*Engine, error) {
	if err := rules.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{rules: rules, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	if e.rng == nil {
		e.rng = rand.New(rand.NewSource(random.Seed()))
	}
	return e, nil
}

func (e *Engine) Rules() Rules {
	return e.rules
}

// Initialize seats the players and deals the first round.
func (e *Engine) Initialize(roomID string, seats []Seat) (*State, error) {
	if len(seats) < e.rules.MinPlayers || len(seats) > e.rules.MaxPlayers {
		return nil, fmt.Errorf("%w: need %d..%d players, got %d",
			appErr.ErrInvalidPlayerCount, e.rules.MinPlayers, e.rules.MaxPlayers, len(seats))
	}
	seen := make(map[string]struct{}, len(seats))
	players := make([]Player, 0, len(seats))
	for _, seat := range seats {
		if seat.ID == "" {
			return nil, fmt.Errorf("%w: empty player id", appErr.ErrInvalidPlayerCount)
		}
		if _, dup := seen[seat.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate player %s", appErr.ErrInvalidPlayerCount, seat.ID)
		}
		seen[seat.ID] = struct{}{}
		players = append(players, Player{ID: seat.ID, Name: seat.Name})
	}

	s := &State{
		RoomID:              roomID,
		Players:             players,
		Round:               1,
		StartingPlayerIndex: 0,
		RoundsCompleted:     0,
	}
	e.deal(s)
	return s, nil
}

// Validate reports whether a would be accepted against s. It never mutates s.
func (e *Engine) Validate(s *State, a Action) error {
	if s == nil {
		return appErr.ErrRoomOrPlayerNotFound
	}

	if act, ok := a.(StartNextRound); ok {
		if act.PlayerID != "" && s.PlayerIndex(act.PlayerID) < 0 {
			return fmt.Errorf("%w: player %s", appErr.ErrRoomOrPlayerNotFound, act.PlayerID)
		}
		if s.Phase != PhaseSettlement {
			return fmt.Errorf("%w: next round requested in %s", appErr.ErrPhaseMismatch, s.Phase)
		}
		return nil
	}

	switch a.(type) {
	case DrawFromDeck, DrawFromMarket, PlayToInvestment, PlayToMarket:
	default:
		return appErr.ErrUnknownAction
	}

	p, err := e.actor(s, actorOf(a))
	if err != nil {
		return err
	}

	switch act := a.(type) {
	case DrawFromDeck:
		if s.Step != StepAwaitingTake {
			return fmt.Errorf("%w: already took a card this turn", appErr.ErrActionOutOfPhase)
		}
		if len(s.Deck) == 0 {
			return appErr.ErrEmptyDeck
		}
		if fee := DeckDrawFee(s.Market, s.MajorityHolders, p.ID); fee > len(p.Coins) {
			return fmt.Errorf("%w: fee %d, holding %d", appErr.ErrInsufficientFunds, fee, len(p.Coins))
		}
	case DrawFromMarket:
		if s.Step != StepAwaitingTake {
			return fmt.Errorf("%w: already took a card this turn", appErr.ErrActionOutOfPhase)
		}
		idx := s.marketIndex(act.CardID)
		if idx < 0 {
			return fmt.Errorf("%w: card %s not in market", appErr.ErrInvalidCardReference, act.CardID)
		}
		if s.MajorityHolders.Holds(p.ID, s.Market[idx].Card.Company) {
			return fmt.Errorf("%w: company %s", appErr.ErrMajorityHolderRestricted, s.Market[idx].Card.Company)
		}
	case PlayToInvestment:
		if !e.mayPlay(s) {
			return fmt.Errorf("%w: take a card first", appErr.ErrActionOutOfPhase)
		}
		if p.handIndex(act.CardID) < 0 {
			return fmt.Errorf("%w: card %s not in hand", appErr.ErrInvalidCardReference, act.CardID)
		}
	case PlayToMarket:
		if !e.mayPlay(s) {
			return fmt.Errorf("%w: take a card first", appErr.ErrActionOutOfPhase)
		}
		idx := p.handIndex(act.CardID)
		if idx < 0 {
			return fmt.Errorf("%w: card %s not in hand", appErr.ErrInvalidCardReference, act.CardID)
		}
		company := p.Hand[idx].Company
		if s.MajorityHolders.Holds(p.ID, company) {
			return fmt.Errorf("%w: company %s", appErr.ErrMajorityHolderRestricted, company)
		}
		if p.HasActed && p.TookMarket && p.LastAcquired == company {
			return fmt.Errorf("%w: company %s", appErr.ErrMarketRoundTrip, company)
		}
	}
	return nil
}

// Apply validates a against s and returns the resulting state. On rejection the
// input state is returned unchanged together with the error.
func (e *Engine) Apply(s *State, a Action) (*State, Outcome, error) {
	if err := e.Validate(s, a); err != nil {
		return s, Outcome{}, err
	}

	next := s.Clone()
	var out Outcome
	switch act := a.(type) {
	case DrawFromDeck:
		out = e.drawFromDeck(next, act)
	case DrawFromMarket:
		out = e.drawFromMarket(next, act)
	case PlayToInvestment:
		out = e.playToInvestment(next, act)
	case PlayToMarket:
		out = e.playToMarket(next, act)
	case StartNextRound:
		out = e.startNextRound(next, act)
	}
	return next, out, nil
}

// LegalActions lists every action playerID could send right now.
func (e *Engine) LegalActions(s *State, playerID string) []Action {
	if s == nil || s.PlayerIndex(playerID) < 0 {
		return nil
	}
	switch s.Phase {
	case PhaseSettlement:
		return []Action{StartNextRound{PlayerID: playerID}}
	case PhasePlaying:
	default:
		return nil
	}

	p := &s.Players[s.PlayerIndex(playerID)]
	candidates := []Action{DrawFromDeck{PlayerID: playerID}}
	for _, slot := range s.Market {
		candidates = append(candidates, DrawFromMarket{PlayerID: playerID, CardID: slot.Card.ID})
	}
	for _, card := range p.Hand {
		candidates = append(candidates,
			PlayToInvestment{PlayerID: playerID, CardID: card.ID},
			PlayToMarket{PlayerID: playerID, CardID: card.ID},
		)
	}

	legal := make([]Action, 0, len(candidates))
	for _, a := range candidates {
		if e.Validate(s, a) == nil {
			legal = append(legal, a)
		}
	}
	return legal
}

func (e *Engine) actor(s *State, playerID string) (*Player, error) {
	if s.Phase != PhasePlaying {
		return nil, fmt.Errorf("%w: game is %s", appErr.ErrPhaseMismatch, s.Phase)
	}
	idx := s.PlayerIndex(playerID)
	if idx < 0 {
		return nil, fmt.Errorf("%w: player %s", appErr.ErrRoomOrPlayerNotFound, playerID)
	}
	if idx != s.CurrentPlayerIndex {
		return nil, appErr.ErrNotYourTurn
	}
	return &s.Players[idx], nil
}

// mayPlay: the play step follows a take, except once the deck is exhausted when
// the take becomes optional.
func (e *Engine) mayPlay(s *State) bool {
	return s.Step == StepAwaitingPlay || len(s.Deck) == 0
}

func actorOf(a Action) string {
	switch act := a.(type) {
	case DrawFromDeck:
		return act.PlayerID
	case DrawFromMarket:
		return act.PlayerID
	case PlayToInvestment:
		return act.PlayerID
	case PlayToMarket:
		return act.PlayerID
	case StartNextRound:
		return act.PlayerID
	}
	return ""
}

func (e *Engine) drawFromDeck(s *State, act DrawFromDeck) Outcome {
	p := s.CurrentPlayer()
	fee := payDeckFee(s, p)
	card := popDeck(s)
	p.Hand = append(p.Hand, card)
	e.markTaken(s, p, card, false)

	e.appendLog(s, LogEntry{
		PlayerID:   p.ID,
		PlayerName: p.Name,
		Kind:       KindDrawFromDeck,
		CardID:     card.ID,
		Company:    card.Company,
		Coins:      fee,
	})
	return Outcome{Kind: KindDrawFromDeck, PlayerID: p.ID, Card: &card, FeePaid: fee}
}

func (e *Engine) drawFromMarket(s *State, act DrawFromMarket) Outcome {
	p := s.CurrentPlayer()
	slot := removeMarketSlot(s, s.marketIndex(act.CardID))
	p.Hand = append(p.Hand, slot.Card)
	p.Coins = append(p.Coins, slot.Coins...)
	e.markTaken(s, p, slot.Card, true)

	e.appendLog(s, LogEntry{
		PlayerID:   p.ID,
		PlayerName: p.Name,
		Kind:       KindDrawFromMarket,
		CardID:     slot.Card.ID,
		Company:    slot.Card.Company,
		Coins:      len(slot.Coins),
	})
	card := slot.Card
	return Outcome{Kind: KindDrawFromMarket, PlayerID: p.ID, Card: &card, CoinsCollected: len(slot.Coins)}
}

func (e *Engine) playToInvestment(s *State, act PlayToInvestment) Outcome {
	p := s.CurrentPlayer()
	card := removeHandCard(p, act.CardID)
	p.Investments[card.Company] = append(p.Investments[card.Company], card)
	s.MajorityHolders = ComputeMajorityHolders(s.Players)

	e.appendLog(s, LogEntry{
		PlayerID:   p.ID,
		PlayerName: p.Name,
		Kind:       KindPlayToInvestment,
		CardID:     card.ID,
		Company:    card.Company,
	})
	out := Outcome{Kind: KindPlayToInvestment, PlayerID: p.ID, Card: &card}
	e.endTurn(s, &out)
	return out
}

func (e *Engine) playToMarket(s *State, act PlayToMarket) Outcome {
	p := s.CurrentPlayer()
	card := removeHandCard(p, act.CardID)
	pushMarket(s, card)

	e.appendLog(s, LogEntry{
		PlayerID:   p.ID,
		PlayerName: p.Name,
		Kind:       KindPlayToMarket,
		CardID:     card.ID,
		Company:    card.Company,
	})
	out := Outcome{Kind: KindPlayToMarket, PlayerID: p.ID, Card: &card}
	e.endTurn(s, &out)
	return out
}

func (e *Engine) markTaken(s *State, p *Player, card Card, fromMarket bool) {
	p.HasActed = true
	p.LastAcquired = card.Company
	p.TookMarket = fromMarket
	s.Step = StepAwaitingPlay
}

// endTurn passes the turn on, or settles the round when the deck is exhausted
// and the rotation is back at the round's starting player.
func (e *Engine) endTurn(s *State, out *Outcome) {
	p := s.CurrentPlayer()
	p.HasActed = false
	p.LastAcquired = ""
	p.TookMarket = false

	next := (s.CurrentPlayerIndex + 1) % len(s.Players)
	s.CurrentPlayerIndex = next
	s.Step = StepAwaitingTake
	out.TurnAdvanced = true

	if len(s.Deck) == 0 && next == s.StartingPlayerIndex {
		out.Settlement = e.settle(s)
		out.Settled = true
	}
}

func (e *Engine) appendLog(s *State, entry LogEntry) {
	s.LogSeq++
	entry.Seq = s.LogSeq
	entry.Timestamp = e.now().UnixMilli()
	s.Log = append(s.Log, entry)
	if limit := e.rules.ActionLogLimit; limit > 0 && len(s.Log) > limit {
		s.Log = append([]LogEntry(nil), s.Log[len(s.Log)-limit:]...)
	}
}

func removeHandCard(p *Player, cardID string) Card {
	idx := p.handIndex(cardID)
	card := p.Hand[idx]
	p.Hand = append(p.Hand[:idx:idx], p.Hand[idx+1:]...)
	return card
}
