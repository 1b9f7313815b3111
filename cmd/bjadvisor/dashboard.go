package main

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/lox/blackjack-advisor/internal/dashboard"
	"github.com/lox/blackjack-advisor/internal/report"
	"github.com/lox/blackjack-advisor/internal/statistics"
	"github.com/lox/blackjack-advisor/internal/store"
)

// DashboardCmd shows live statistics from the database or a running server
type DashboardCmd struct {
	URL      string        `help:"Poll a running advisor at this base URL instead of opening the database"`
	FormKey  string        `help:"Only hands from this form key"`
	Interval time.Duration `default:"5s" help:"Refresh interval"`
}

func (c *DashboardCmd) Run(g *Globals) error {
	cfg, err := g.load(nil)
	if err != nil {
		return err
	}

	// Log lines would corrupt the alternate screen
	logger := log.NewWithOptions(io.Discard, log.Options{})

	ctx, cancel := signalContext()
	defer cancel()

	var load dashboard.Loader
	if c.URL != "" {
		load = dashboard.HTTPLoader(nil, c.URL, c.FormKey)
	} else {
		st, err := openStore(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer st.Close()

		filter := store.Filter{FormKey: c.FormKey}
		load = func(ctx context.Context) (statistics.Report, error) {
			return report.Load(ctx, st, filter, time.Local)
		}
	}

	return dashboard.Run(ctx, load, c.Interval, logger)
}
