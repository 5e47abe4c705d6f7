package engine

import (
	"testing"

	appErr "chuchuang-service/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRejectsInvalidRules(t *testing.T) {
	rules := DefaultRules()
	rules.MaxPlayers = 20
	_, err := New(rules)
	require.ErrorIs(t, err, appErr.ErrInvalidRules)
}

func TestInitializeDealsThreePlayers(t *testing.T) {
	_, s := newTestGame(t, 1)

	assert.Equal(t, PhasePlaying, s.Phase)
	assert.Equal(t, StepAwaitingTake, s.Step)
	assert.Equal(t, 1, s.Round)
	assert.Equal(t, 0, s.CurrentPlayerIndex)
	assert.Len(t, s.Removed, 5)
	assert.Len(t, s.Deck, 31)
	assert.Empty(t, s.Market)
	assert.Empty(t, s.MajorityHolders)
	for _, p := range s.Players {
		assert.Len(t, p.Hand, 3)
		assert.Len(t, p.Coins, 10)
		assert.Equal(t, 10, CoinValue(p.Coins))
		assert.Len(t, p.Investments, len(Companies))
	}
	assert.Equal(t, 45, s.CardCount())
}

func TestInitializePlayerCount(t *testing.T) {
	e, err := New(DefaultRules())
	require.NoError(t, err)

	_, err = e.Initialize("r", threeSeats()[:2])
	assert.ErrorIs(t, err, appErr.ErrInvalidPlayerCount)

	seats := make([]Seat, 8)
	for i := range seats {
		seats[i] = Seat{ID: string(rune('a' + i))}
	}
	_, err = e.Initialize("r", seats)
	assert.ErrorIs(t, err, appErr.ErrInvalidPlayerCount)

	_, err = e.Initialize("r", []Seat{{ID: "a"}, {ID: "a"}, {ID: "b"}})
	assert.ErrorIs(t, err, appErr.ErrInvalidPlayerCount)
}

func TestSeedIsReproducible(t *testing.T) {
	_, a := newTestGame(t, 42)
	_, b := newTestGame(t, 42)
	assert.Equal(t, a.Deck, b.Deck)
	assert.Equal(t, a.Players[2].Hand, b.Players[2].Hand)
}

func TestTwoPhaseTurn(t *testing.T) {
	e, s := newTestGame(t, 3)

	_, _, err := e.Apply(s, PlayToInvestment{PlayerID: "p1", CardID: s.Players[0].Hand[0].ID})
	assert.ErrorIs(t, err, appErr.ErrActionOutOfPhase)

	_, _, err = e.Apply(s, DrawFromDeck{PlayerID: "p2"})
	assert.ErrorIs(t, err, appErr.ErrNotYourTurn)

	_, _, err = e.Apply(s, DrawFromDeck{PlayerID: "ghost"})
	assert.ErrorIs(t, err, appErr.ErrRoomOrPlayerNotFound)

	top := s.Deck[0]
	s1, out := mustApply(t, e, s, DrawFromDeck{PlayerID: "p1"})
	assert.Equal(t, 0, out.FeePaid)
	assert.False(t, out.TurnAdvanced)
	assert.Equal(t, 0, s1.CurrentPlayerIndex)
	assert.Equal(t, StepAwaitingPlay, s1.Step)
	assert.Len(t, s1.Players[0].Hand, 4)
	assert.Equal(t, top, s1.Players[0].Hand[3])

	_, _, err = e.Apply(s1, DrawFromDeck{PlayerID: "p1"})
	assert.ErrorIs(t, err, appErr.ErrActionOutOfPhase)

	s2, out := mustApply(t, e, s1, PlayToMarket{PlayerID: "p1", CardID: s1.Players[0].Hand[0].ID})
	assert.True(t, out.TurnAdvanced)
	assert.Equal(t, 1, s2.CurrentPlayerIndex)
	assert.Equal(t, StepAwaitingTake, s2.Step)
	require.Len(t, s2.Market, 1)
	assert.Empty(t, s2.Market[0].Coins)
	assert.False(t, s2.Players[0].HasActed)
	assert.Len(t, s2.Log, 2)
	assert.Equal(t, 2, s2.LogSeq)
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	e, s := newTestGame(t, 5)
	before := s.Clone()

	next, _ := mustApply(t, e, s, DrawFromDeck{PlayerID: "p1"})
	next, _ = mustApply(t, e, next, PlayToInvestment{PlayerID: "p1", CardID: next.Players[0].Hand[0].ID})

	assert.Equal(t, before, s)
	assert.NotEqual(t, before.Deck, next.Deck)
}

func TestRejectedActionReturnsInput(t *testing.T) {
	e, s := newTestGame(t, 5)
	next, out, err := e.Apply(s, DrawFromMarket{PlayerID: "p1", CardID: "nope"})
	assert.ErrorIs(t, err, appErr.ErrInvalidCardReference)
	assert.Same(t, s, next)
	assert.Equal(t, Outcome{}, out)
}

func TestDeckFeeAndMarketCollection(t *testing.T) {
	e, s := newTestGame(t, 7)
	s.Market = []MarketSlot{
		{Card: card(CompanyA, 0), Coins: []Coin{}},
		{Card: card(CompanyB, 0), Coins: []Coin{}},
	}
	s.Players[0].Coins = []Coin{{ID: "h", Value: HighValue}, {ID: "l1", Value: LowValue}, {ID: "l2", Value: LowValue}}

	next, out := mustApply(t, e, s, DrawFromDeck{PlayerID: "p1"})
	assert.Equal(t, 2, out.FeePaid)
	require.Len(t, next.Players[0].Coins, 1)
	assert.Equal(t, HighValue, next.Players[0].Coins[0].Value, "low coins are paid first")
	assert.Len(t, next.Market[0].Coins, 1)
	assert.Len(t, next.Market[1].Coins, 1)

	next, _ = mustApply(t, e, next, PlayToInvestment{PlayerID: "p1", CardID: next.Players[0].Hand[0].ID})

	before := len(next.Players[1].Coins)
	next, out = mustApply(t, e, next, DrawFromMarket{PlayerID: "p2", CardID: card(CompanyB, 0).ID})
	assert.Equal(t, 1, out.CoinsCollected)
	assert.Len(t, next.Players[1].Coins, before+1)
	require.Len(t, next.Market, 1)
	assert.Equal(t, CompanyA, next.Market[0].Card.Company)
}

func TestDeckFeeSkipsOwnMajority(t *testing.T) {
	holders := Holders{{Company: CompanyA, PlayerID: "p1"}}
	market := []MarketSlot{{Card: card(CompanyA, 0)}, {Card: card(CompanyC, 0)}, {Card: card(CompanyA, 1)}}
	assert.Equal(t, 1, DeckDrawFee(market, holders, "p1"))
	assert.Equal(t, 3, DeckDrawFee(market, holders, "p2"))
	assert.Equal(t, 0, DeckDrawFee(nil, holders, "p2"))
}

func TestInsufficientFunds(t *testing.T) {
	e, s := newTestGame(t, 7)
	s.Market = []MarketSlot{{Card: card(CompanyA, 0)}, {Card: card(CompanyB, 0)}}
	s.Players[0].Coins = []Coin{{ID: "l", Value: LowValue}}

	_, _, err := e.Apply(s, DrawFromDeck{PlayerID: "p1"})
	assert.ErrorIs(t, err, appErr.ErrInsufficientFunds)

	legal := e.LegalActions(s, "p1")
	for _, a := range legal {
		assert.NotEqual(t, KindDrawFromDeck, a.Kind())
	}
	assert.Contains(t, legal, Action(DrawFromMarket{PlayerID: "p1", CardID: card(CompanyA, 0).ID}))
}

func TestMajorityHolderRestrictions(t *testing.T) {
	e, s := newTestGame(t, 9)
	p := &s.Players[0]
	invest(p, CompanyD, 2)
	s.MajorityHolders = ComputeMajorityHolders(s.Players)
	s.Market = []MarketSlot{{Card: card(CompanyD, 5), Coins: []Coin{}}}
	p.Hand = append(p.Hand, card(CompanyD, 6))

	_, _, err := e.Apply(s, DrawFromMarket{PlayerID: "p1", CardID: card(CompanyD, 5).ID})
	assert.ErrorIs(t, err, appErr.ErrMajorityHolderRestricted)

	next, _ := mustApply(t, e, s, DrawFromDeck{PlayerID: "p1"})
	_, _, err = e.Apply(next, PlayToMarket{PlayerID: "p1", CardID: card(CompanyD, 6).ID})
	assert.ErrorIs(t, err, appErr.ErrMajorityHolderRestricted)

	_, _, err = e.Apply(next, PlayToInvestment{PlayerID: "p1", CardID: card(CompanyD, 6).ID})
	assert.NoError(t, err)
}

func TestMarketRoundTrip(t *testing.T) {
	e, s := newTestGame(t, 11)
	s.Market = []MarketSlot{{Card: card(CompanyE, 0), Coins: []Coin{}}}
	s.Players[0].Hand = []Card{card(CompanyE, 1), card(CompanyF, 0)}

	next, _ := mustApply(t, e, s, DrawFromMarket{PlayerID: "p1", CardID: card(CompanyE, 0).ID})
	_, _, err := e.Apply(next, PlayToMarket{PlayerID: "p1", CardID: card(CompanyE, 1).ID})
	assert.ErrorIs(t, err, appErr.ErrMarketRoundTrip)

	_, _, err = e.Apply(next, PlayToMarket{PlayerID: "p1", CardID: card(CompanyF, 0).ID})
	assert.NoError(t, err)
}

func TestInvestmentRecomputesHolders(t *testing.T) {
	e, s := newTestGame(t, 13)
	s.Players[0].Hand = []Card{card(CompanyB, 0), card(CompanyB, 1)}

	next, _ := mustApply(t, e, s, DrawFromDeck{PlayerID: "p1"})
	next, _ = mustApply(t, e, next, PlayToInvestment{PlayerID: "p1", CardID: card(CompanyB, 0).ID})

	holder, ok := next.MajorityHolders.Of(CompanyB)
	require.True(t, ok)
	assert.Equal(t, "p1", holder)
}

func TestStartNextRoundOnlyInSettlement(t *testing.T) {
	e, s := newTestGame(t, 1)
	_, _, err := e.Apply(s, StartNextRound{PlayerID: "p2"})
	assert.ErrorIs(t, err, appErr.ErrPhaseMismatch)
}

func TestPlayWithoutTakeOnceDeckEmpty(t *testing.T) {
	e, s := newTestGame(t, 1)
	s.Deck = nil
	s.StartingPlayerIndex = 2

	_, _, err := e.Apply(s, DrawFromDeck{PlayerID: "p1"})
	assert.ErrorIs(t, err, appErr.ErrEmptyDeck)

	next, out := mustApply(t, e, s, PlayToInvestment{PlayerID: "p1", CardID: s.Players[0].Hand[0].ID})
	assert.True(t, out.TurnAdvanced)
	assert.False(t, out.Settled)
	assert.Equal(t, 1, next.CurrentPlayerIndex)

	next, out = mustApply(t, e, next, PlayToInvestment{PlayerID: "p2", CardID: next.Players[1].Hand[0].ID})
	assert.True(t, out.Settled)
	assert.Equal(t, PhaseSettlement, next.Phase)
	require.NotNil(t, out.Settlement)
	assert.Equal(t, next.LastSettlement, out.Settlement)
}

func TestActionLogBounded(t *testing.T) {
	rules := DefaultRules()
	rules.ActionLogLimit = 4
	e, err := New(rules, WithSeed(2), WithClock(fixedClock))
	require.NoError(t, err)
	s, err := e.Initialize("r", threeSeats())
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		pid := s.CurrentPlayer().ID
		s, _ = mustApply(t, e, s, DrawFromDeck{PlayerID: pid})
		s, _ = mustApply(t, e, s, PlayToInvestment{PlayerID: pid, CardID: s.CurrentPlayer().Hand[0].ID})
	}
	require.Len(t, s.Log, 4)
	assert.Equal(t, 10, s.LogSeq)
	assert.Equal(t, 7, s.Log[0].Seq)
	assert.Equal(t, fixedClock().UnixMilli(), s.Log[3].Timestamp)
}

func TestLegalActionsOutsideTurn(t *testing.T) {
	e, s := newTestGame(t, 1)
	assert.Empty(t, e.LegalActions(s, "p2"))
	assert.Nil(t, e.LegalActions(s, "ghost"))

	legal := e.LegalActions(s, "p1")
	require.Len(t, legal, 1)
	assert.Equal(t, KindDrawFromDeck, legal[0].Kind())
}
