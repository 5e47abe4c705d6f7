package game

import (
	"testing"

	"chuchuang-service/internal/engine"
)

func TestViewHidesOthersDeckDraws(t *testing.T) {
	eng, err := engine.New(engine.DefaultRules(), engine.WithSeed(7))
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	s, err := eng.Initialize("ROOM01", []engine.Seat{{ID: "p1"}, {ID: "p2"}, {ID: "p3"}})
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}
	drawer := s.CurrentPlayer().ID
	next, out, err := eng.Apply(s, engine.DrawFromDeck{PlayerID: drawer})
	if err != nil {
		t.Fatalf("draw: %v", err)
	}

	drawEntry := func(view StateView) engine.LogEntry {
		t.Helper()
		for _, entry := range view.Log {
			if entry.Kind == engine.KindDrawFromDeck {
				return entry
			}
		}
		t.Fatalf("no deck draw in log of viewer %q", view.Viewer)
		return engine.LogEntry{}
	}

	own := drawEntry(buildView(eng, next, drawer, nil))
	if own.CardID != out.Card.ID || own.Company != out.Card.Company {
		t.Fatalf("drawer should see own card %s, got %q/%q", out.Card.ID, own.CardID, own.Company)
	}

	for _, viewer := range []string{"p1", "p2", "p3", ""} {
		if viewer == drawer {
			continue
		}
		entry := drawEntry(buildView(eng, next, viewer, nil))
		if entry.CardID != "" || entry.Company != "" {
			t.Fatalf("viewer %q sees hidden draw %q/%q", viewer, entry.CardID, entry.Company)
		}
		if entry.PlayerID != drawer || entry.Coins != out.FeePaid {
			t.Fatalf("viewer %q lost public draw fields: %+v", viewer, entry)
		}
	}

	if next.Log[len(next.Log)-1].CardID != out.Card.ID {
		t.Fatalf("redaction must not touch engine state")
	}
}
