// internal/game/game.go
package game

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/uno/internal/cache"
	"github.com/jason-s-yu/uno/internal/models"
	"github.com/sirupsen/logrus"
)

// DefaultMaxCascadeSteps bounds the bot turns settled after a single intent.
const DefaultMaxCascadeSteps = 10000

// OnGameEndFunc is invoked once, under the game lock, with the final table.
type OnGameEndFunc func(gameID uuid.UUID, roomID string, final SessionState)

// OnGameStartFunc is invoked once, under the game lock, with the freshly dealt table.
type OnGameStartFunc func(gameID uuid.UUID, initial SessionState)

// PersistFunc stores next, which was derived from the state at prevVersion. An
// error aborts the commit and the in-memory game keeps its previous state.
type PersistFunc func(ctx context.Context, prevVersion int64, next SessionState) error

// Result is what a caller learns about a submitted intent.
type Result struct {
	Accepted        bool   `json:"accepted"`
	RejectionReason string `json:"rejectionReason,omitempty"`
	GameOver        bool   `json:"gameOver"`
	WinnerID        string `json:"winnerId,omitempty"`
	Version         int64  `json:"version"`
}

// Options configures a new game.
type Options struct {
	Rules           HouseRules
	Seed            int64
	Logger          *logrus.Logger
	MaxCascadeSteps int
}

// step is one accepted intent and the state it produced.
type step struct {
	out   Outcome
	state SessionState
	bot   bool
}

// Game owns one session: it serializes intents, settles bot turns and fans out events.
type Game struct {
	ID     uuid.UUID
	RoomID string

	// Mu makes the game single-writer. It is never held while events are paced out.
	Mu    sync.Mutex
	state SessionState
	seats []models.SeatSpec
	opts  Options

	view atomic.Pointer[SessionState]

	hookMu              sync.RWMutex
	broadcastFn         func(ev GameEvent)
	broadcastToPlayerFn func(seatID string, ev GameEvent)

	// Set before Start.
	OnGameStart   OnGameStartFunc
	OnGameEnd     OnGameEndFunc
	Persist       PersistFunc
	PublishAction func(ctx context.Context, rec cache.GameActionRecord) error

	actionIndex int
	pacer       *pacer
	cancel      context.CancelFunc
	log         *logrus.Entry
}

// NewGame builds an unstarted game for the given roster.
func NewGame(roomID string, seats []models.SeatSpec, opts Options) *Game {
	g := newGame(uuid.New(), roomID, opts)
	g.seats = append([]models.SeatSpec(nil), seats...)

	pre := SessionState{GameID: g.ID, RoomID: roomID, Rules: g.opts.Rules, Direction: 1}
	for _, spec := range seats {
		pre.Seats = append(pre.Seats, models.Seat{ID: spec.ID, Name: spec.Name, IsBot: spec.IsBot})
	}
	g.state = pre
	g.view.Store(&pre)
	return g
}

// RestoreGame rebuilds a game around a previously persisted state.
func RestoreGame(s SessionState, opts Options) *Game {
	opts.Rules = s.Rules
	opts.Seed = s.Seed
	g := newGame(s.GameID, s.RoomID, opts)
	for _, seat := range s.Seats {
		g.seats = append(g.seats, models.SeatSpec{ID: seat.ID, Name: seat.Name, IsBot: seat.IsBot})
	}
	g.state = s
	// one history record per version so far
	g.actionIndex = int(s.Version)
	snap := s
	g.view.Store(&snap)
	return g
}

func newGame(id uuid.UUID, roomID string, opts Options) *Game {
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	if opts.Rules == (HouseRules{}) {
		opts.Rules = DefaultHouseRules()
	}
	if opts.MaxCascadeSteps <= 0 {
		opts.MaxCascadeSteps = DefaultMaxCascadeSteps
	}
	g := &Game{
		ID:     id,
		RoomID: roomID,
		opts:   opts,
		log:    opts.Logger.WithFields(logrus.Fields{"game_id": id, "room_id": roomID}),
	}
	ctx, cancel := context.WithCancel(context.Background())
	g.cancel = cancel
	g.pacer = newPacer(g.deliver)
	go g.pacer.run(ctx)
	return g
}

// SetBroadcasters installs the functions events are delivered through. Either may be nil.
func (g *Game) SetBroadcasters(all func(ev GameEvent), toSeat func(seatID string, ev GameEvent)) {
	g.hookMu.Lock()
	defer g.hookMu.Unlock()
	g.broadcastFn = all
	g.broadcastToPlayerFn = toSeat
}

func (g *Game) deliver(d dispatch) {
	g.hookMu.RLock()
	all, toSeat := g.broadcastFn, g.broadcastToPlayerFn
	g.hookMu.RUnlock()

	if d.SeatID == "" {
		if all != nil {
			all(d.Event)
		}
		return
	}
	if toSeat != nil {
		toSeat(d.SeatID, d.Event)
	}
}

// Close stops event delivery. Pending events are dropped.
func (g *Game) Close() {
	g.cancel()
	<-g.pacer.done
}

func (g *Game) current() SessionState {
	return *g.view.Load()
}

// HasSeat reports whether seatID is part of the roster.
func (g *Game) HasSeat(seatID string) bool {
	for _, spec := range g.seats {
		if spec.ID == seatID {
			return true
		}
	}
	return false
}

// Start deals the table and settles any bot turns that come first.
func (g *Game) Start(ctx context.Context) (Result, error) {
	g.Mu.Lock()
	defer g.Mu.Unlock()

	prev := g.state
	if prev.Started {
		return rejected(prev, ErrAlreadyStarted), ErrAlreadyStarted
	}
	s, err := Start(g.ID, g.RoomID, g.seats, g.opts.Rules, g.opts.Seed)
	if err != nil {
		g.log.WithError(err).Warn("could not start game")
		return rejected(prev, err), err
	}
	dealt := s

	s, steps, err := g.cascade(s)
	if err != nil {
		g.log.WithError(err).Error("bot cascade failed at start")
		return rejected(prev, err), err
	}
	if err := g.persist(ctx, prev.Version, s); err != nil {
		g.log.WithError(err).Error("could not commit game start")
		return rejected(prev, err), err
	}

	g.log.WithFields(logrus.Fields{"seats": len(dealt.Seats), "seed": dealt.Seed}).Info("game started")
	g.logAction("", string(EventGameStart), map[string]interface{}{
		"seed":    dealt.Seed,
		"seats":   g.seats,
		"opening": dealt.DiscardPile[0],
	})
	if g.OnGameStart != nil {
		g.OnGameStart(g.ID, dealt)
	}
	g.commit(s, steps, startEvents(dealt))
	return accepted(s), nil
}

// Play submits a play-card intent.
func (g *Game) Play(ctx context.Context, seatID string, handIndex int, color models.Color) (Result, error) {
	return g.Submit(ctx, PlayIntent(seatID, handIndex, color))
}

// Draw submits a draw-card intent.
func (g *Game) Draw(ctx context.Context, seatID string) (Result, error) {
	return g.Submit(ctx, DrawIntent(seatID))
}

// DeclareLowHand submits a low-hand declaration.
func (g *Game) DeclareLowHand(ctx context.Context, seatID string) (Result, error) {
	return g.Submit(ctx, DeclareIntent(seatID))
}

// HandleAction converts a wire action and submits it.
func (g *Game) HandleAction(ctx context.Context, seatID string, action models.GameAction) (Result, error) {
	in, err := IntentFromAction(seatID, action)
	if err != nil {
		rej := &Rejection{SeatID: seatID, Intent: IntentType(action.ActionType), Reason: err}
		g.notifyRejected(seatID, rej)
		return rejected(g.current(), rej), rej
	}
	return g.Submit(ctx, in)
}

// Submit applies in and then every bot turn it hands over to. Either all of it is
// committed or, on rejection, none of it.
func (g *Game) Submit(ctx context.Context, in Intent) (Result, error) {
	g.Mu.Lock()
	defer g.Mu.Unlock()

	prev := g.state
	next, out, err := Apply(prev, in)
	if err != nil {
		g.log.WithFields(logrus.Fields{"seat": in.SeatID, "intent": in.Type}).WithError(err).Debug("intent rejected")
		g.notifyRejected(in.SeatID, err)
		return rejected(prev, err), err
	}

	steps := []step{{out: out, state: next}}
	next, botSteps, err := g.cascade(next)
	if err != nil {
		g.log.WithError(err).Error("bot cascade failed")
		return rejected(prev, err), err
	}
	steps = append(steps, botSteps...)

	if err := g.persist(ctx, prev.Version, next); err != nil {
		g.log.WithError(err).Warn("could not commit intent")
		return rejected(prev, err), err
	}
	g.commit(next, steps, nil)
	return accepted(next), nil
}

// cascade plays bot turns until a human seat is up or the game is over.
func (g *Game) cascade(s SessionState) (SessionState, []step, error) {
	var steps []step
	for turns := 0; !s.Over && s.CurrentSeat().IsBot; turns++ {
		if turns >= g.opts.MaxCascadeSteps {
			return s, nil, fmt.Errorf("%w after %d bot turns", ErrCascadeLimit, turns)
		}
		for _, in := range BotTurn(s) {
			next, out, err := Apply(s, in)
			if err != nil {
				return s, nil, fmt.Errorf("bot move %s: %w", in.Type, err)
			}
			steps = append(steps, step{out: out, state: next, bot: true})
			s = next
			if s.Over {
				break
			}
		}
	}
	return s, steps, nil
}

func (g *Game) persist(ctx context.Context, prevVersion int64, s SessionState) error {
	if g.Persist == nil {
		return nil
	}
	if err := g.Persist(ctx, prevVersion, s); err != nil {
		return fmt.Errorf("persist game %s: %w", g.ID, err)
	}
	return nil
}

// commit publishes s to readers and schedules the events of steps, pacing bot
// steps with the configured delay. Caller holds Mu.
func (g *Game) commit(s SessionState, steps []step, lead []dispatch) {
	wasOver := g.state.Over
	g.state = s
	snap := s
	g.view.Store(&snap)

	var batches []batch
	if len(lead) > 0 {
		batches = append(batches, batch{events: lead})
	}
	for _, st := range steps {
		b := batch{events: stepEvents(st.out, st.state)}
		if st.bot && st.out.Intent.Type != IntentDeclareLowHand {
			b.delay = s.Rules.BotDelay()
		}
		batches = append(batches, b)

		g.logAction(st.out.Intent.SeatID, string(st.out.Intent.Type), actionPayload(st.out))
		if st.out.Shortfall > 0 {
			g.log.WithError(ErrDegenerateReshuffle).WithFields(logrus.Fields{
				"seat":      st.out.Intent.SeatID,
				"shortfall": st.out.Shortfall,
			}).Error("deck and discard pile exhausted, draw fell short")
		}
	}
	g.pacer.enqueue(batches...)

	if s.Over && !wasOver {
		g.log.WithField("winner", s.WinnerID).Info("game over")
		g.logAction(s.WinnerID, string(EventGameEnd), map[string]interface{}{"winner": s.WinnerID})
		if g.OnGameEnd != nil {
			g.OnGameEnd(g.ID, g.RoomID, s)
		}
	}
}

// SyncSeat queues a private view of the current table for seatID.
func (g *Game) SyncSeat(seatID string) {
	view := g.Snapshot(seatID)
	g.pacer.enqueue(batch{events: []dispatch{{SeatID: seatID, Event: GameEvent{Type: EventPrivateSyncState, State: &view}}}})
}

func (g *Game) notifyRejected(seatID string, err error) {
	g.pacer.enqueue(batch{events: []dispatch{{SeatID: seatID, Event: GameEvent{
		Type:    EventPrivateRejected,
		Payload: map[string]interface{}{"message": RejectionReason(err)},
	}}}})
}

// RejectionReason is the user-facing text for err: the underlying reason of a Rejection.
func RejectionReason(err error) string {
	var rej *Rejection
	if errors.As(err, &rej) && rej.Reason != nil {
		return rej.Reason.Error()
	}
	return err.Error()
}

func accepted(s SessionState) Result {
	return Result{Accepted: true, GameOver: s.Over, WinnerID: s.WinnerID, Version: s.Version}
}

func rejected(s SessionState, err error) Result {
	return Result{RejectionReason: RejectionReason(err), GameOver: s.Over, WinnerID: s.WinnerID, Version: s.Version}
}

func actionPayload(out Outcome) map[string]interface{} {
	payload := map[string]interface{}{}
	switch out.Intent.Type {
	case IntentPlay:
		payload["handIndex"] = out.Intent.HandIndex
		payload["card"] = out.Card
		if out.Color != "" {
			payload["color"] = out.Color
		}
	case IntentDraw:
		payload["count"] = len(out.Drawn)
		if out.Shortfall > 0 {
			payload["shortfall"] = out.Shortfall
		}
	}
	return payload
}

// logAction publishes a history record for the historian. It never blocks the game.
func (g *Game) logAction(actorSeatID, actionType string, payload map[string]interface{}) {
	g.actionIndex++
	if payload == nil {
		payload = make(map[string]interface{})
	}
	record := cache.GameActionRecord{
		GameID:        g.ID,
		ActionIndex:   g.actionIndex,
		ActorSeatID:   actorSeatID,
		ActionType:    actionType,
		ActionPayload: payload,
		Timestamp:     time.Now().UnixMilli(),
	}

	publish := g.PublishAction
	if publish == nil {
		if cache.Rdb == nil {
			return
		}
		publish = cache.PublishGameAction
	}
	go func(rec cache.GameActionRecord) {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := publish(ctx, rec); err != nil {
			g.log.WithError(err).Warnf("could not publish action %d", rec.ActionIndex)
		}
	}(record)
}
