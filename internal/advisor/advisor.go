// Package advisor turns casino game states into recommended actions and keeps
// the hand history up to date.
package advisor

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/lox/blackjack-advisor/internal/evaluator"
	"github.com/lox/blackjack-advisor/internal/store"
	"github.com/lox/blackjack-advisor/internal/strategy"
)

const (
	statusPlaying = "PLAYING"
	actionDeal    = "DEAL"
	actionInsure  = "BUY_INSURANCE"
	defaultForm   = "default"
)

// Recorder persists hands and the actions recommended for them
type Recorder interface {
	StoreHand(ctx context.Context, h store.HandRecord) (int64, error)
	StoreAction(ctx context.Context, a store.ActionRecord) error
	UpdateHandOutcome(ctx context.Context, handID int64, o store.Outcome) error
}

// NopRecorder discards everything. StoreHand returns id 0.
type NopRecorder struct{}

func (NopRecorder) StoreHand(context.Context, store.HandRecord) (int64, error) { return 0, nil }
func (NopRecorder) StoreAction(context.Context, store.ActionRecord) error      { return nil }
func (NopRecorder) UpdateHandOutcome(context.Context, int64, store.Outcome) error {
	return nil
}

// Advisor answers game state submissions. One submission per form key is
// handled at a time; different form keys proceed in parallel.
type Advisor struct {
	registry    *strategy.Registry
	recorder    Recorder
	logger      *log.Logger
	legacyNames bool
	sessions    *sessionLocks
}

// Option configures an Advisor
type Option func(*Advisor)

// WithLegacyActionNames makes responses say "stay" and "stay_split" instead
// of "stand" and "stand_split"
func WithLegacyActionNames(enabled bool) Option {
	return func(a *Advisor) { a.legacyNames = enabled }
}

// New creates an advisor. A nil recorder discards records.
func New(registry *strategy.Registry, recorder Recorder, logger *log.Logger, opts ...Option) *Advisor {
	if registry == nil {
		registry = strategy.NewRegistry()
	}
	if recorder == nil {
		recorder = NopRecorder{}
	}
	a := &Advisor{
		registry: registry,
		recorder: recorder,
		logger:   logger.WithPrefix("advisor"),
		sessions: newSessionLocks(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// HandleState records the submitted state and, while the hand is in play,
// returns the recommended action. Once DEAL is offered the hand is settled and
// its outcome is recorded instead. Recording failures are reported as warnings
// and never block advice. The only error is ctx ending while waiting for the
// session.
func (a *Advisor) HandleState(ctx context.Context, req Request) (Response, error) {
	formKey := req.FormKey
	if formKey == "" {
		formKey = defaultForm
	}

	release, err := a.sessions.acquire(ctx, formKey)
	if err != nil {
		return Response{}, fmt.Errorf("wait for session %s: %w", formKey, err)
	}
	defer release()

	state := req.State
	a.logger.Info("Received game state", "status", state.Status, "formkey", formKey)

	resp := Response{Action: strategy.None.String()}

	handID, err := a.recorder.StoreHand(ctx, handRecord(req, formKey))
	if err != nil {
		a.logger.Error("Failed to store hand", "error", err)
		resp.Warnings = append(resp.Warnings, fmt.Sprintf("hand not recorded: %v", err))
	} else {
		resp.HandID = &handID
	}

	switch {
	case state.Status == statusPlaying:
		a.advise(ctx, req, &resp)
	case state.Offers(actionDeal):
		if resp.HandID == nil {
			break
		}
		if err := a.recorder.UpdateHandOutcome(ctx, handID, outcome(state)); err != nil {
			a.logger.Error("Failed to update hand outcome", "hand", handID, "error", err)
			resp.Warnings = append(resp.Warnings, fmt.Sprintf("outcome not recorded: %v", err))
		} else {
			a.logger.Debug("Recorded outcome", "hand", handID, "status", state.Status, "split", state.StatusSplit)
		}
	}

	return resp, nil
}

func (a *Advisor) advise(ctx context.Context, req Request, resp *Response) {
	state := req.State

	engine, ok := a.registry.Get(req.Strategy)
	if !ok {
		a.logger.Warn("Unknown strategy, using default", "strategy", req.Strategy, "default", engine.Name())
		resp.Warnings = append(resp.Warnings, fmt.Sprintf("unknown strategy %q, used %s", req.Strategy, engine.Name()))
	}

	legal, other := strategy.ParseActionSet(state.Actions)
	if len(other) > 0 {
		a.logger.Debug("Ignoring non-play actions", "actions", other)
	}

	if state.Offers(actionInsure) {
		take := engine.ShouldTakeInsurance(state.Player)
		resp.Insurance = &take
	}

	hand, split := state.Player, false
	if state.HasPlayerSplit && (legal.Has(strategy.HitSplit) || legal.Has(strategy.StandSplit)) {
		hand, split = state.PlayerSplit, true
	}

	d := strategy.NewDecision(hand, state.Dealer, legal, split)
	rec := engine.Explain(d)

	resp.Action = a.actionName(rec.Action)
	resp.Rule = rec.Rule

	if rec.Action == strategy.None {
		a.logger.Debug("No action", "rule", rec.Rule, "player", d.PlayerTotal, "dealer", d.DealerUpcard)
		return
	}

	a.logger.Info("Recommended action",
		"action", resp.Action,
		"rule", rec.Rule,
		"hand", evaluator.Evaluate(hand),
		"player", d.PlayerTotal,
		"dealer", d.DealerUpcard,
		"split", split,
	)

	if resp.HandID == nil {
		return
	}
	err := a.recorder.StoreAction(ctx, store.ActionRecord{
		HandID:      *resp.HandID,
		Action:      rec.Action.String(),
		PlayerValue: d.PlayerTotal,
		DealerValue: d.DealerUpcard,
	})
	if err != nil {
		a.logger.Error("Failed to store action", "hand", *resp.HandID, "error", err)
		resp.Warnings = append(resp.Warnings, fmt.Sprintf("action not recorded: %v", err))
	}
}

func (a *Advisor) actionName(action strategy.Action) string {
	if a.legacyNames {
		return action.LegacyName()
	}
	return action.String()
}

func handRecord(req Request, formKey string) store.HandRecord {
	s := req.State
	return store.HandRecord{
		ClientTimestamp:  req.Timestamp,
		FormKey:          formKey,
		WagerAmount:      s.Wager.Amount,
		WagerCurrency:    s.Wager.Currency,
		PlayerCards:      s.Player,
		DealerCards:      s.Dealer,
		PlayerValue:      s.PlayerValue,
		DealerValue:      s.DealerValue,
		PlayerSplitCards: s.PlayerSplit,
		PlayerSplitValue: s.PlayerSplitValue,
		HasSplit:         s.HasPlayerSplit,
		DoubledDown:      s.PlayerDoubledDown,
		BoughtInsurance:  s.PlayerBoughtInsurance,
		Status:           s.Status,
		StatusSplit:      s.StatusSplit,
		Payout:           s.Payout,
		CoinsBefore:      req.Gambler.Coins,
		MarseybuxBefore:  req.Gambler.Marseybux,
		RawState:         req.RawState,
	}
}

func outcome(s GameState) store.Outcome {
	return store.Outcome{
		Status:           s.Status,
		StatusSplit:      s.StatusSplit,
		Payout:           s.Payout,
		DealerCards:      s.Dealer,
		DealerValue:      s.DealerValue,
		PlayerValue:      s.PlayerValue,
		PlayerSplitValue: s.PlayerSplitValue,
	}
}
