package main

import (
	"fmt"
	"os"
	"time"

	"github.com/lox/blackjack-advisor/internal/report"
	"github.com/lox/blackjack-advisor/internal/simulator"
)

// SimulateCmd plays simulated hands with a strategy
type SimulateCmd struct {
	Hands    int    `default:"100000" help:"Number of hands to simulate"`
	Decks    int    `default:"6" help:"Decks in the shoe"`
	Wager    int64  `default:"100" help:"Stake per hand"`
	Seed     int64  `default:"0" help:"RNG seed (0 for random)"`
	Workers  int    `default:"0" help:"Parallel workers (0 for one per CPU)"`
	Strategy string `help:"Strategy name (default from config)"`
	NoColor  bool   `help:"Disable colored output"`
}

func (c *SimulateCmd) Run(g *Globals) error {
	cfg, err := g.load(nil)
	if err != nil {
		return err
	}
	logger := newLogger(cfg.Server.LogLevel)

	registry, err := newRegistry(cfg)
	if err != nil {
		return err
	}
	engine, ok := registry.Get(c.Strategy)
	if !ok {
		return fmt.Errorf("unknown strategy %q", c.Strategy)
	}

	seed := c.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	ctx, cancel := signalContext()
	defer cancel()

	logger.Info("Simulating", "hands", c.Hands, "decks", c.Decks, "strategy", engine.Name(), "seed", seed)

	start := time.Now()
	res, err := simulator.New(simulator.Config{
		Hands:   c.Hands,
		Decks:   c.Decks,
		Wager:   c.Wager,
		Seed:    seed,
		Workers: c.Workers,
		Engine:  engine,
		Logger:  logger,
	}).Run(ctx)
	if err != nil {
		return err
	}

	if err := report.Render(os.Stdout, res.Report(), report.Options{NoColor: c.NoColor}); err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "\n%d hands in %v (seed %d)\n", len(res.Hands), time.Since(start).Truncate(time.Millisecond), seed)
	return nil
}
