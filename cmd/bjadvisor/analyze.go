package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/lox/blackjack-advisor/internal/report"
	"github.com/lox/blackjack-advisor/internal/store"
)

// AnalyzeCmd prints the full analysis of recorded hands
type AnalyzeCmd struct {
	FormKey string        `help:"Only hands from this form key"`
	Since   time.Duration `help:"Only hands received within this duration, e.g. 168h"`
	Export  string        `help:"Also write all settled hands to this CSV file"`
	JSON    bool          `help:"Print the report as JSON"`
	NoColor bool          `help:"Disable colored output"`
}

func (c *AnalyzeCmd) Run(g *Globals) error {
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

	filter := store.Filter{FormKey: c.FormKey}
	if c.Since > 0 {
		filter.Since = time.Now().Add(-c.Since)
	}

	rep, err := report.Load(ctx, st, filter, time.Local)
	if err != nil {
		return err
	}

	if c.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(rep); err != nil {
			return err
		}
	} else if err := report.Render(os.Stdout, rep, report.Options{NoColor: c.NoColor}); err != nil {
		return err
	}

	if c.Export != "" {
		hands, err := st.Hands(ctx, filter)
		if err != nil {
			return err
		}
		if err := report.ExportFile(c.Export, hands); err != nil {
			return fmt.Errorf("exporting hands: %w", err)
		}
		logger.Info("Exported hands", "file", c.Export, "hands", len(hands))
	}

	return nil
}
