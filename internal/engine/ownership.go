package engine

// MajorityHolder names the single player holding strict majority of a company.
type MajorityHolder struct {
	Company  Company `json:"company"`
	PlayerID string  `json:"playerId"`
}

// Holders is the set of majority holders, at most one entry per company, kept
// in company order.
type Holders []MajorityHolder

// Of returns the holder of company, if any.
func (h Holders) Of(company Company) (string, bool) {
	for _, m := range h {
		if m.Company == company {
			return m.PlayerID, true
		}
	}
	return "", false
}

// Holds reports whether playerID is the majority holder of company.
func (h Holders) Holds(playerID string, company Company) bool {
	id, ok := h.Of(company)
	return ok && id == playerID
}

// HeldBy lists the companies playerID majority-holds.
func (h Holders) HeldBy(playerID string) []Company {
	var out []Company
	for _, m := range h {
		if m.PlayerID == playerID {
			out = append(out, m.Company)
		}
	}
	return out
}

// ComputeMajorityHolders derives majority holders from invested cards. A tie at
// the top count leaves the company without a holder.
func ComputeMajorityHolders(players []Player) Holders {
	return computeHolders(players, func(p *Player, c Company) int {
		return len(p.Investments[c])
	})
}

// ProjectedMajorityHolders folds every hand card into its company as if it were
// invested. It is a display hint only; settlement never uses it.
func ProjectedMajorityHolders(players []Player) Holders {
	return computeHolders(players, func(p *Player, c Company) int {
		n := len(p.Investments[c])
		for _, card := range p.Hand {
			if card.Company == c {
				n++
			}
		}
		return n
	})
}

func computeHolders(players []Player, count func(*Player, Company) int) Holders {
	holders := Holders{}
	for _, company := range Companies {
		best, top, tied := -1, 0, false
		for i := range players {
			n := count(&players[i], company)
			switch {
			case n > top:
				best, top, tied = i, n, false
			case n == top && n > 0:
				tied = true
			}
		}
		if best >= 0 && !tied {
			holders = append(holders, MajorityHolder{Company: company, PlayerID: players[best].ID})
		}
	}
	return holders
}
