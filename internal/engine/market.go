package engine

// DeckDrawFee is the number of coins playerID pays to draw from the deck: one per
// market slot whose company they do not majority-hold.
func DeckDrawFee(market []MarketSlot, holders Holders, playerID string) int {
	fee := 0
	for _, slot := range market {
		if !holders.Holds(playerID, slot.Card.Company) {
			fee++
		}
	}
	return fee
}

// payDeckFee moves the fee from the player onto the fee-bearing slots in market
// order. The caller has already checked the player can afford it.
func payDeckFee(s *State, p *Player) int {
	paid := 0
	for i := range s.Market {
		if s.MajorityHolders.Holds(p.ID, s.Market[i].Card.Company) {
			continue
		}
		s.Market[i].Coins = append(s.Market[i].Coins, takeCoins(&p.Coins, 1)...)
		paid++
	}
	return paid
}

// popDeck removes the top card of the draw pile.
func popDeck(s *State) Card {
	card := s.Deck[0]
	s.Deck = s.Deck[1:]
	return card
}

// removeMarketSlot takes a slot out of the market without reordering the rest.
func removeMarketSlot(s *State, idx int) MarketSlot {
	slot := s.Market[idx]
	s.Market = append(s.Market[:idx:idx], s.Market[idx+1:]...)
	return slot
}

func pushMarket(s *State, card Card) {
	s.Market = append(s.Market, MarketSlot{Card: card, Coins: []Coin{}})
}

// MarketCoins counts coins currently parked on market slots.
func MarketCoins(market []MarketSlot) int {
	n := 0
	for _, slot := range market {
		n += len(slot.Coins)
	}
	return n
}
