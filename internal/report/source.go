// Package report loads recorded hands into an analysis report and renders it
// for terminals, CSV exports and the HTTP surface.
package report

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/lox/blackjack-advisor/internal/statistics"
	"github.com/lox/blackjack-advisor/internal/store"
)

// Source is the read side of the recording store
type Source interface {
	Hands(ctx context.Context, f store.Filter) ([]store.HandRecord, error)
	ActionCounts(ctx context.Context, f store.Filter) (map[string]int, error)
}

// Load fetches settled hands and action counts concurrently and builds the
// report. Days are bucketed in loc; nil means UTC.
func Load(ctx context.Context, src Source, f store.Filter, loc *time.Location) (statistics.Report, error) {
	var (
		hands   []store.HandRecord
		actions map[string]int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		hands, err = src.Hands(gctx, f)
		if err != nil {
			return fmt.Errorf("load hands: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		actions, err = src.ActionCounts(gctx, f)
		if err != nil {
			return fmt.Errorf("load actions: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return statistics.Report{}, err
	}

	return statistics.BuildReport(Results(hands), actions, loc), nil
}

// Summarize returns the summary snapshot of settled hands
func Summarize(ctx context.Context, src Source, f store.Filter) (statistics.Snapshot, error) {
	hands, err := src.Hands(ctx, f)
	if err != nil {
		return statistics.Snapshot{}, fmt.Errorf("load hands: %w", err)
	}
	var s statistics.Summary
	for _, r := range Results(hands) {
		s.Add(r)
	}
	return s.Snapshot(), nil
}

// Results converts hand records into statistics samples
func Results(hands []store.HandRecord) []statistics.HandResult {
	out := make([]statistics.HandResult, len(hands))
	for i, h := range hands {
		out[i] = h.Result()
	}
	return out
}
