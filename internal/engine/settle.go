package engine

import "sort"

// Transfer is one settlement payment from an invested player to a majority holder.
type Transfer struct {
	Company   Company `json:"company"`
	From      string  `json:"from"`
	To        string  `json:"to"`
	Owed      int     `json:"owed"`
	Paid      int     `json:"paid"`
	Shortfall int     `json:"shortfall"`
}

// Standing is a player's place after settlement. Rank is 0-based from the top.
type Standing struct {
	PlayerID   string `json:"playerId"`
	Name       string `json:"name"`
	Seat       int    `json:"seat"`
	Rank       int    `json:"rank"`
	Wealth     int    `json:"wealth"`
	Debt       int    `json:"debt"`
	Net        int    `json:"net"`
	HighCoins  int    `json:"highCoins"`
	RoundScore int    `json:"roundScore"`
	Score      int    `json:"score"`
}

type SettlementReport struct {
	Round     int        `json:"round"`
	Holders   Holders    `json:"holders"`
	Transfers []Transfer `json:"transfers"`
	Standings []Standing `json:"standings"`
}

func (r *SettlementReport) clone() *SettlementReport {
	if r == nil {
		return nil
	}
	return &SettlementReport{
		Round:     r.Round,
		Holders:   cloneSlice(r.Holders),
		Transfers: cloneSlice(r.Transfers),
		Standings: cloneSlice(r.Standings),
	}
}

// settle closes the round: majority holders are fixed from investments, every
// other investor pays one coin per invested card of that company, scores are
// handed out by rank and the phase moves to SETTLEMENT. It never fails; unpaid
// coins become debt.
func (e *Engine) settle(s *State) *SettlementReport {
	s.MajorityHolders = ComputeMajorityHolders(s.Players)
	report := &SettlementReport{
		Round:     s.Round,
		Holders:   append(Holders{}, s.MajorityHolders...),
		Transfers: []Transfer{},
	}

	for _, h := range s.MajorityHolders {
		holder := &s.Players[s.PlayerIndex(h.PlayerID)]
		for i := range s.Players {
			payer := &s.Players[i]
			if payer.ID == holder.ID {
				continue
			}
			owed := payer.InvestedCount(h.Company)
			if owed == 0 {
				continue
			}
			paid := takeCoins(&payer.Coins, min(owed, len(payer.Coins)))
			for _, c := range paid {
				c.Value = HighValue
				holder.Coins = append(holder.Coins, c)
			}
			shortfall := owed - len(paid)
			payer.Debt += shortfall
			report.Transfers = append(report.Transfers, Transfer{
				Company:   h.Company,
				From:      payer.ID,
				To:        holder.ID,
				Owed:      owed,
				Paid:      len(paid),
				Shortfall: shortfall,
			})
		}
	}

	standings := RankPlayers(s.Players)
	for i := range standings {
		st := &standings[i]
		p := &s.Players[st.Seat]
		delta := ScoreForRank(st.Rank, len(standings))
		p.RoundScore = delta
		p.Score += delta
		st.RoundScore = delta
		st.Score = p.Score
	}
	report.Standings = standings

	s.Phase = PhaseSettlement
	s.LastSettlement = report
	e.appendLog(s, LogEntry{Kind: KindSettlement})
	return report.clone()
}

// RankPlayers orders players by net wealth (coin value minus debt), then by
// number of high coins, then by seat. Both descending comparisons come first, so
// the result is the same for the same state.
func RankPlayers(players []Player) []Standing {
	standings := make([]Standing, len(players))
	for i := range players {
		p := &players[i]
		wealth := CoinValue(p.Coins)
		standings[i] = Standing{
			PlayerID:  p.ID,
			Name:      p.Name,
			Seat:      i,
			Wealth:    wealth,
			Debt:      p.Debt,
			Net:       wealth - p.Debt,
			HighCoins: highCoinCount(p.Coins),
			Score:     p.Score,
		}
	}
	sort.SliceStable(standings, func(i, j int) bool {
		a, b := standings[i], standings[j]
		if a.Net != b.Net {
			return a.Net > b.Net
		}
		if a.HighCoins != b.HighCoins {
			return a.HighCoins > b.HighCoins
		}
		return a.Seat < b.Seat
	})
	for i := range standings {
		standings[i].Rank = i
	}
	return standings
}

// ScoreForRank: first +2, last -1, second +1, everyone else 0.
func ScoreForRank(rank, n int) int {
	switch {
	case rank == 0:
		return 2
	case rank == n-1:
		return -1
	case rank == 1:
		return 1
	}
	return 0
}
