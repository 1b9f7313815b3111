package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/lox/blackjack-advisor/internal/cards"
	"github.com/lox/blackjack-advisor/internal/evaluator"
	"github.com/lox/blackjack-advisor/internal/strategy"
)

// AdviseCmd answers a single decision from the command line
type AdviseCmd struct {
	Player    string `required:"" help:"Player cards, e.g. AS,7D"`
	Dealer    string `required:"" help:"Dealer cards, the first is the upcard"`
	Legal     string `default:"hit,stand,double" help:"Legal actions, comma separated"`
	SplitHand bool   `help:"The hand came from a split"`
	Strategy  string `help:"Strategy name (default from config)"`
	Legacy    bool   `help:"Print stay/stay_split instead of stand/stand_split"`
}

func (c *AdviseCmd) Run(g *Globals) error {
	cfg, err := g.load(nil)
	if err != nil {
		return err
	}
	logger := newLogger(cfg.Server.LogLevel)

	player, dealer := cards.Split(c.Player), cards.Split(c.Dealer)
	if _, err := cards.ParseAll(player); err != nil {
		return fmt.Errorf("player cards: %w", err)
	}
	if len(dealer) == 0 {
		return fmt.Errorf("dealer cards: no upcard given")
	}
	if _, err := cards.Parse(dealer[0]); err != nil {
		logger.Warn("Dealer upcard is not a known rank", "upcard", dealer[0], "error", err)
	}

	legal, other := strategy.ParseActionSet(cards.Split(c.Legal))
	if len(other) > 0 {
		return fmt.Errorf("unknown actions: %s", strings.Join(other, ", "))
	}

	registry, err := newRegistry(cfg)
	if err != nil {
		return err
	}
	engine, ok := registry.Get(c.Strategy)
	if !ok {
		logger.Warn("Unknown strategy, using default", "strategy", c.Strategy, "default", engine.Name())
	}

	d := strategy.NewDecision(player, dealer, legal, c.SplitHand)
	rec := engine.Explain(d)

	name := rec.Action.String()
	if c.Legacy {
		name = rec.Action.LegacyName()
	}

	fmt.Fprintf(os.Stdout, "%s\n", name)
	logger.Info("Recommendation",
		"hand", evaluator.Evaluate(player),
		"shape", evaluator.Classify(player),
		"upcard", d.DealerUpcard,
		"legal", legal,
		"rule", rec.Rule,
		"cell", rec.Cell,
		"strategy", engine.Name(),
	)
	return nil
}
