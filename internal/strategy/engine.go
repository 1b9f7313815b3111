package strategy

import (
	"fmt"

	"github.com/lox/blackjack-advisor/internal/cards"
	"github.com/lox/blackjack-advisor/internal/evaluator"
)

// Basic is the name of the built-in basic strategy
const Basic = "basic_strategy"

// Tables holds the three charts an engine decides from
type Tables struct {
	Hard  Chart
	Soft  Chart
	Pairs Chart
}

// Validate checks that every chart covers its full domain
func (t Tables) Validate() error {
	checks := []struct {
		chart    Chart
		min, max int
	}{
		{t.Hard, HardMin, HardMax},
		{t.Soft, SoftMin, SoftMax},
		{t.Pairs, PairMin, PairMax},
	}
	for _, c := range checks {
		for row := c.min; row <= c.max; row++ {
			for up := MinUpcard; up <= MaxUpcard; up++ {
				if _, ok := c.chart.Lookup(row, up); !ok {
					return fmt.Errorf("chart %q missing row %d upcard %d", c.chart.Name(), row, up)
				}
			}
		}
	}
	return nil
}

// Decision is everything the engine needs to pick an action
type Decision struct {
	PlayerTotal  int
	DealerUpcard int // pip value, Ace is 11, 0 when unknown
	Legal        ActionSet
	SplitContext bool     // the hand being decided came from a split
	Cards        []string // the player's cards, used for pair and soft tests
}

// NewDecision evaluates the player's and dealer's cards into a Decision
func NewDecision(player, dealer []string, legal ActionSet, splitContext bool) Decision {
	return Decision{
		PlayerTotal:  evaluator.Evaluate(player).Total,
		DealerUpcard: evaluator.UpcardValue(dealer),
		Legal:        legal,
		SplitContext: splitContext,
		Cards:        player,
	}
}

// Recommendation is an action plus the rule and chart cell that produced it
type Recommendation struct {
	Action Action
	Rule   string
	Cell   Cell
}

type rule struct {
	name  string
	apply func(e *Engine, d Decision) (Action, Cell, bool)
}

// rules run in order and the first match wins
var rules = []rule{
	{"unknown_upcard", (*Engine).unknownUpcard},
	{"pair", (*Engine).pair},
	{"soft", (*Engine).soft},
	{"hard", (*Engine).hard},
	{"fallback", (*Engine).fallback},
}

// Engine recommends actions from a fixed set of charts. It holds no mutable
// state and is safe for concurrent use.
type Engine struct {
	name   string
	tables Tables
}

// NewEngine returns an engine deciding from the given charts
func NewEngine(name string, tables Tables) (*Engine, error) {
	if err := tables.Validate(); err != nil {
		return nil, fmt.Errorf("strategy %s: %w", name, err)
	}
	return &Engine{name: name, tables: tables}, nil
}

// NewBasic returns an engine playing basic strategy
func NewBasic() *Engine {
	e, err := NewEngine(Basic, BasicTables())
	if err != nil {
		panic(err)
	}
	return e
}

// Name returns the strategy name
func (e *Engine) Name() string {
	return e.name
}

// Tables returns the engine's charts
func (e *Engine) Tables() Tables {
	return e.tables
}

// Recommend returns the action to take. The result is None or a member of
// d.Legal.
func (e *Engine) Recommend(d Decision) Action {
	return e.Explain(d).Action
}

// Explain is Recommend plus the name of the rule that decided
func (e *Engine) Explain(d Decision) Recommendation {
	for _, r := range rules {
		action, cell, ok := r.apply(e, d)
		if !ok {
			continue
		}
		if d.SplitContext {
			action = forSplitHand(action, d.Legal)
		}
		return Recommendation{
			Action: legalize(action, d.Legal),
			Rule:   r.name,
			Cell:   cell,
		}
	}
	// fallback always matches
	return Recommendation{Action: None}
}

// ShouldTakeInsurance reports whether to buy insurance. Basic strategy never
// does.
func (e *Engine) ShouldTakeInsurance(hand []string) bool {
	return false
}

func (e *Engine) unknownUpcard(d Decision) (Action, Cell, bool) {
	return None, CellEmpty, d.DealerUpcard == 0
}

func (e *Engine) pair(d Decision) (Action, Cell, bool) {
	if d.SplitContext || !d.Legal.Has(Split) {
		return None, CellEmpty, false
	}
	pip := evaluator.PairValue(d.Cards)
	if pip == 0 {
		return None, CellEmpty, false
	}
	cell, ok := e.tables.Pairs.Lookup(pip, d.DealerUpcard)
	if !ok || cell != CellSplit {
		return None, CellEmpty, false
	}
	return Split, cell, true
}

func (e *Engine) soft(d Decision) (Action, Cell, bool) {
	if !evaluator.Evaluate(d.Cards).Soft {
		return None, CellEmpty, false
	}
	if d.PlayerTotal >= cards.Blackjack {
		return Stand, CellEmpty, true
	}
	cell, ok := e.tables.Soft.Lookup(d.PlayerTotal, d.DealerUpcard)
	if !ok {
		return None, CellEmpty, false
	}
	return downgradeDouble(cell, d), cell, true
}

func (e *Engine) hard(d Decision) (Action, Cell, bool) {
	if evaluator.Evaluate(d.Cards).Soft {
		return None, CellEmpty, false
	}
	switch {
	case d.PlayerTotal >= cards.Blackjack:
		return Stand, CellEmpty, true
	case d.PlayerTotal < HardMin:
		return Hit, CellEmpty, true
	}
	cell, ok := e.tables.Hard.Lookup(d.PlayerTotal, d.DealerUpcard)
	if !ok {
		return None, CellEmpty, false
	}
	return downgradeDouble(cell, d), cell, true
}

func (e *Engine) fallback(d Decision) (Action, Cell, bool) {
	if d.PlayerTotal >= 17 {
		return Stand, CellEmpty, true
	}
	return Hit, CellEmpty, true
}

// downgradeDouble turns a double cell into a hit when doubling is not
// available. Split cells outside the pair rule mean hit as well.
func downgradeDouble(cell Cell, d Decision) Action {
	switch cell {
	case CellDouble:
		if d.Legal.Has(Double) && !d.SplitContext {
			return Double
		}
		return Hit
	case CellSplit:
		return Hit
	default:
		return cell.Action()
	}
}
