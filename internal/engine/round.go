package engine

// deal starts a round on s: shuffle, set cards aside, deal hands, mint coins.
// Investments, holders, market, log and the per-round counters are cleared;
// cumulative scores survive.
func (e *Engine) deal(s *State) {
	deck := Shuffle(NewDeck(e.rules), e.rng)

	s.Removed = append([]Card{}, deck[:e.rules.RemovedCards]...)
	deck = deck[e.rules.RemovedCards:]

	for i := range s.Players {
		p := &s.Players[i]
		p.Hand = append([]Card{}, deck[:e.rules.HandSize]...)
		deck = deck[e.rules.HandSize:]
		p.Investments = emptyInvestments()
		p.Coins = MintCoins(i, e.rules.StartingCoins)
		p.Debt = 0
		p.RoundScore = 0
		p.HasActed = false
		p.LastAcquired = ""
		p.TookMarket = false
	}

	s.Deck = append([]Card{}, deck...)
	s.Market = []MarketSlot{}
	s.MajorityHolders = Holders{}
	s.Log = []LogEntry{}
	s.Phase = PhasePlaying
	s.Step = StepAwaitingTake
	s.CurrentPlayerIndex = s.StartingPlayerIndex
}

func (e *Engine) startNextRound(s *State, act StartNextRound) Outcome {
	s.RoundsCompleted++
	out := Outcome{Kind: KindStartNextRound, PlayerID: act.PlayerID}

	if ShouldEndGame(s) {
		s.Phase = PhaseFinished
		out.Finished = true
		e.appendLog(s, LogEntry{Kind: KindStartNextRound, PlayerID: act.PlayerID})
		return out
	}

	s.StartingPlayerIndex = (s.StartingPlayerIndex + 1) % len(s.Players)
	s.Round++
	e.deal(s)
	e.appendLog(s, LogEntry{Kind: KindStartNextRound, PlayerID: act.PlayerID})
	return out
}

// ShouldEndGame is true once every seat has started exactly one round.
func ShouldEndGame(s *State) bool {
	return s.RoundsCompleted >= len(s.Players)
}
