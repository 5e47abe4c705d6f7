package game

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"chuchuang-service/internal/engine"
	appErr "chuchuang-service/pkg/errors"
	"chuchuang-service/pkg/logger"

	"go.uber.org/zap"
)

const (
	MessageState      = "state"
	MessageSettlement = "settlement"
	MessageError      = "error"
	MessagePong       = "pong"

	subscriberBuffer = 16
	persistTimeout   = 5 * time.Second
)

type OutgoingMessage struct {
	Type string      `json:"type"`
	Seq  int64       `json:"seq"`
	Data interface{} `json:"data"`
}

// ErrorPayload is sent to a single player whose action was rejected.
type ErrorPayload struct {
	Code    appErr.Code `json:"code"`
	Message string      `json:"message"`
}

// resultSink receives settled rounds and finished matches.
type resultSink interface {
	RecordRound(ctx context.Context, matchID int64, report *engine.SettlementReport) error
	FinishMatch(ctx context.Context, matchID int64, standings []engine.Standing) error
}

// RoomRuntime owns the live game of one room. Every action takes mu, so a
// room processes actions strictly one at a time; rooms share nothing.
type RoomRuntime struct {
	roomID  string
	matchID int64

	engine *engine.Engine
	state  *engine.State
	seq    int64

	subscribers map[string]chan OutgoingMessage

	sink      resultSink
	snapshots SnapshotStore
	log       *zap.Logger

	mu sync.Mutex
	// persistMu orders post-action I/O. It is taken while mu is still held,
	// so at most one goroutine ever waits on it and writes land in action order.
	persistMu sync.Mutex
}

func newRoomRuntime(eng *engine.Engine, state *engine.State, matchID int64, sink resultSink, snapshots SnapshotStore) *RoomRuntime {
	return &RoomRuntime{
		roomID:      state.RoomID,
		matchID:     matchID,
		engine:      eng,
		state:       state,
		subscribers: make(map[string]chan OutgoingMessage),
		sink:        sink,
		snapshots:   snapshots,
		log:         logger.Room(state.RoomID),
	}
}

func (rt *RoomRuntime) RoomID() string {
	return rt.roomID
}

func (rt *RoomRuntime) MatchID() int64 {
	return rt.matchID
}

// Subscribe registers playerID for pushes and immediately sends the current view.
// A second subscription for the same player replaces the first.
func (rt *RoomRuntime) Subscribe(playerID string) (chan OutgoingMessage, error) {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	if rt.state.PlayerIndex(playerID) < 0 {
		return nil, appErr.ErrRoomOrPlayerNotFound
	}
	if old, ok := rt.subscribers[playerID]; ok {
		close(old)
	}
	ch := make(chan OutgoingMessage, subscriberBuffer)
	rt.subscribers[playerID] = ch
	rt.pushStateLocked(playerID)
	return ch, nil
}

// Unsubscribe removes ch if it is still playerID's current channel.
func (rt *RoomRuntime) Unsubscribe(playerID string, ch chan OutgoingMessage) {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	if cur, ok := rt.subscribers[playerID]; ok && cur == ch {
		delete(rt.subscribers, playerID)
		close(cur)
	}
}

// HandleAction decodes and applies one player intent. Rejections leave the game
// untouched and are returned to the caller.
func (rt *RoomRuntime) HandleAction(ctx context.Context, playerID, actionType string, data json.RawMessage) (engine.Outcome, error) {
	rt.mu.Lock()

	if rt.state.PlayerIndex(playerID) < 0 {
		rt.mu.Unlock()
		return engine.Outcome{}, appErr.ErrRoomOrPlayerNotFound
	}

	switch actionType {
	case MessagePing:
		rt.pushMessageLocked(playerID, OutgoingMessage{Type: MessagePong, Seq: rt.nextSeqLocked(), Data: map[string]string{"message": "pong"}})
		rt.mu.Unlock()
		return engine.Outcome{}, nil
	case MessageRejoin:
		rt.pushStateLocked(playerID)
		rt.mu.Unlock()
		return engine.Outcome{}, nil
	}

	action, err := DecodeAction(playerID, actionType, data)
	if err != nil {
		rt.mu.Unlock()
		return engine.Outcome{}, err
	}

	next, out, err := rt.engine.Apply(rt.state, action)
	if err != nil {
		rt.mu.Unlock()
		rt.log.Debug("action rejected",
			zap.String("playerID", playerID),
			zap.String("action", string(action.Kind())),
			zap.String("code", string(appErr.CodeOf(err))),
		)
		return engine.Outcome{}, err
	}
	rt.state = next

	if out.Settled {
		rt.broadcastLocked(MessageSettlement, out.Settlement)
	}
	rt.broadcastStateLocked()
	spectator := buildView(rt.engine, rt.state, "", nil)
	var standings []engine.Standing
	if out.Finished && rt.state.LastSettlement != nil {
		standings = rt.state.LastSettlement.Standings
	}
	rt.persistMu.Lock()
	rt.mu.Unlock()
	defer rt.persistMu.Unlock()

	rt.log.Info("action applied",
		zap.String("playerID", playerID),
		zap.String("action", string(out.Kind)),
		zap.Bool("settled", out.Settled),
		zap.Bool("finished", out.Finished),
	)
	rt.afterAction(ctx, out, spectator, standings)
	return out, nil
}

// afterAction runs the I/O that follows an accepted action outside the room lock.
// Failures are logged; the game itself has already moved on.
func (rt *RoomRuntime) afterAction(ctx context.Context, out engine.Outcome, spectator StateView, standings []engine.Standing) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()

	if rt.snapshots != nil {
		if err := rt.snapshots.Save(ctx, rt.roomID, spectator); err != nil {
			rt.log.Warn("save snapshot failed", zap.Error(err))
		}
	}
	if rt.sink == nil || rt.matchID == 0 {
		return
	}
	if out.Settled && out.Settlement != nil {
		if err := rt.sink.RecordRound(ctx, rt.matchID, out.Settlement); err != nil {
			rt.log.Error("record round failed", zap.Int("round", out.Settlement.Round), zap.Error(err))
		}
	}
	if out.Finished {
		if err := rt.sink.FinishMatch(ctx, rt.matchID, standings); err != nil {
			rt.log.Error("finish match failed", zap.Int64("matchID", rt.matchID), zap.Error(err))
		}
	}
}

// View returns the redacted state for playerID; an empty id yields the spectator view.
func (rt *RoomRuntime) View(playerID string) StateView {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.exportStateLocked(playerID)
}

// Finished reports whether the match is over.
func (rt *RoomRuntime) Finished() bool {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.state.Phase == engine.PhaseFinished
}

// NotifyError sends a rejection to one subscriber.
func (rt *RoomRuntime) NotifyError(playerID string, err error) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.pushMessageLocked(playerID, OutgoingMessage{
		Type: MessageError,
		Seq:  rt.nextSeqLocked(),
		Data: ErrorPayload{Code: appErr.CodeOf(err), Message: err.Error()},
	})
}

// close drops every subscriber; used when the room goes away.
func (rt *RoomRuntime) close() {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	for id, ch := range rt.subscribers {
		delete(rt.subscribers, id)
		close(ch)
	}
}

func (rt *RoomRuntime) exportStateLocked(playerID string) StateView {
	connected := make(map[string]bool, len(rt.subscribers))
	for id := range rt.subscribers {
		connected[id] = true
	}
	return buildView(rt.engine, rt.state, playerID, connected)
}

func (rt *RoomRuntime) pushStateLocked(playerID string) {
	rt.pushMessageLocked(playerID, OutgoingMessage{
		Type: MessageState,
		Seq:  rt.nextSeqLocked(),
		Data: rt.exportStateLocked(playerID),
	})
}

func (rt *RoomRuntime) broadcastStateLocked() {
	seq := rt.nextSeqLocked()
	for id := range rt.subscribers {
		rt.pushMessageLocked(id, OutgoingMessage{
			Type: MessageState,
			Seq:  seq,
			Data: rt.exportStateLocked(id),
		})
	}
}

func (rt *RoomRuntime) broadcastLocked(msgType string, data interface{}) {
	seq := rt.nextSeqLocked()
	for id := range rt.subscribers {
		rt.pushMessageLocked(id, OutgoingMessage{Type: msgType, Seq: seq, Data: data})
	}
}

func (rt *RoomRuntime) pushMessageLocked(playerID string, msg OutgoingMessage) {
	if ch, ok := rt.subscribers[playerID]; ok {
		select {
		case ch <- msg:
		default:
			rt.log.Warn("ws subscriber channel full", zap.String("playerID", playerID), zap.String("type", msg.Type))
		}
	}
}

func (rt *RoomRuntime) nextSeqLocked() int64 {
	rt.seq++
	return rt.seq
}
