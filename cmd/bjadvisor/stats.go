package main

import (
	"encoding/json"
	"os"

	"github.com/lox/blackjack-advisor/internal/report"
	"github.com/lox/blackjack-advisor/internal/store"
)

// StatsCmd prints the summary statistics
type StatsCmd struct {
	FormKey string `help:"Only hands from this form key"`
	Dealer  bool   `help:"Print dealer bust patterns instead"`
}

func (c *StatsCmd) Run(g *Globals) error {
	cfg, err := g.load(nil)
	if err != nil {
		return err
	}
	logger := newLogger(cfg.Server.LogLevel)

	ctx, cancel := signalContext()
	defer cancel()

	st, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	if c.Dealer {
		patterns, err := st.DealerPatterns(ctx)
		if err != nil {
			return err
		}
		if patterns == nil {
			patterns = []store.DealerPattern{}
		}
		return enc.Encode(patterns)
	}

	snap, err := report.Summarize(ctx, st, store.Filter{FormKey: c.FormKey})
	if err != nil {
		return err
	}
	return enc.Encode(snap)
}
