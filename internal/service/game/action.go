package game

import (
	"encoding/json"
	"fmt"
	"strings"

	"chuchuang-service/internal/engine"
	appErr "chuchuang-service/pkg/errors"
)

// Message types handled by the runtime itself rather than the engine.
const (
	MessagePing   = "ping"
	MessageRejoin = "rejoin"
)

type cardPayload struct {
	CardID string `json:"cardId"`
}

// DecodeAction turns a wire {type, data} pair into an engine action for playerID.
func DecodeAction(playerID, actionType string, data json.RawMessage) (engine.Action, error) {
	kind := engine.ActionKind(strings.ToUpper(strings.TrimSpace(actionType)))

	var payload cardPayload
	switch kind {
	case engine.KindDrawFromMarket, engine.KindPlayToInvestment, engine.KindPlayToMarket:
		if len(data) == 0 {
			return nil, fmt.Errorf("%w: %s needs a cardId", appErr.ErrInvalidPayload, kind)
		}
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, fmt.Errorf("%w: %v", appErr.ErrInvalidPayload, err)
		}
	}

	switch kind {
	case engine.KindDrawFromDeck:
		return engine.DrawFromDeck{PlayerID: playerID}, nil
	case engine.KindDrawFromMarket:
		return engine.DrawFromMarket{PlayerID: playerID, CardID: payload.CardID}, nil
	case engine.KindPlayToInvestment:
		return engine.PlayToInvestment{PlayerID: playerID, CardID: payload.CardID}, nil
	case engine.KindPlayToMarket:
		return engine.PlayToMarket{PlayerID: playerID, CardID: payload.CardID}, nil
	case engine.KindStartNextRound:
		return engine.StartNextRound{PlayerID: playerID}, nil
	default:
		return nil, fmt.Errorf("%w: %q", appErr.ErrUnknownAction, actionType)
	}
}
