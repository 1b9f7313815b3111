// Package simulator plays blackjack hands against a strategy engine to
// measure how the strategy performs over many hands.
package simulator

import (
	"context"
	"fmt"
	rand "math/rand/v2"
	"runtime"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/lox/blackjack-advisor/internal/cards"
	"github.com/lox/blackjack-advisor/internal/evaluator"
	"github.com/lox/blackjack-advisor/internal/randutil"
	"github.com/lox/blackjack-advisor/internal/statistics"
	"github.com/lox/blackjack-advisor/internal/strategy"
)

const (
	DefaultDecks = 6
	DefaultWager = 100

	// reshuffle once this fraction of the shoe has been dealt
	penetration = 0.75

	// dealer stands on every 17, soft or hard
	dealerStand = 17

	checkEvery = 1024
)

// Config holds configuration for running simulations
type Config struct {
	Hands   int
	Decks   int
	Wager   int64
	Seed    int64
	Workers int
	Engine  *strategy.Engine
	Logger  *log.Logger
}

// Result is the outcome of a simulation run
type Result struct {
	Hands   []statistics.HandResult
	Actions map[string]int
}

// Summary totals the simulated hands
func (r *Result) Summary() statistics.Summary {
	var s statistics.Summary
	for _, h := range r.Hands {
		s.Add(h)
	}
	return s
}

// Report builds the analysis report of the simulated hands
func (r *Result) Report() statistics.Report {
	return statistics.BuildReport(r.Hands, r.Actions, time.UTC)
}

// Simulator plays hands with a fixed set of table rules: blackjack pays 3:2,
// the dealer peeks for blackjack and stands on all 17s, doubling is allowed on
// any first two cards, one split per hand and no doubling after a split.
type Simulator struct {
	config Config
}

// New creates a new simulator with the given configuration
func New(config Config) *Simulator {
	if config.Decks <= 0 {
		config.Decks = DefaultDecks
	}
	if config.Wager <= 0 {
		config.Wager = DefaultWager
	}
	if config.Workers <= 0 {
		config.Workers = runtime.NumCPU()
	}
	if config.Workers > config.Hands && config.Hands > 0 {
		config.Workers = config.Hands
	}
	if config.Engine == nil {
		config.Engine = strategy.NewBasic()
	}
	if config.Logger == nil {
		config.Logger = log.Default()
	}
	return &Simulator{config: config}
}

// Run plays the configured number of hands across the workers. Each worker
// owns a shoe seeded from Seed, so a run is reproducible for a fixed Seed and
// worker count.
func (s *Simulator) Run(ctx context.Context) (*Result, error) {
	cfg := s.config
	if cfg.Hands <= 0 {
		return &Result{Actions: map[string]int{}}, nil
	}

	type workerResult struct {
		hands   []statistics.HandResult
		actions map[string]int
	}
	results := make([]workerResult, cfg.Workers)

	perWorker := cfg.Hands / cfg.Workers
	remainder := cfg.Hands % cfg.Workers

	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < cfg.Workers; w++ {
		n := perWorker
		if w < remainder {
			n++
		}

		g.Go(func() error {
			t := newTable(cfg, randutil.Stream(cfg.Seed, w))
			hands := make([]statistics.HandResult, 0, n)
			for i := 0; i < n; i++ {
				if i%checkEvery == 0 {
					if err := gctx.Err(); err != nil {
						return err
					}
				}
				hands = append(hands, t.play())
			}
			results[w] = workerResult{hands: hands, actions: t.actions}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := &Result{
		Hands:   make([]statistics.HandResult, 0, cfg.Hands),
		Actions: make(map[string]int),
	}
	for _, r := range results {
		out.Hands = append(out.Hands, r.hands...)
		for action, n := range r.actions {
			out.Actions[action] += n
		}
	}

	summary := out.Summary()
	if err := summary.Validate(); err != nil {
		return nil, fmt.Errorf("statistics validation failed: %w", err)
	}

	cfg.Logger.Debug("Simulation complete",
		"hands", summary.Hands,
		"workers", cfg.Workers,
		"win_rate", summary.WinRate(),
		"house_edge", summary.HouseEdge(),
	)
	return out, nil
}

var (
	deckRanks = []string{"2", "3", "4", "5", "6", "7", "8", "9", "X", "J", "Q", "K", "A"}
	deckSuits = []string{"S", "H", "D", "C"}
)

// shoe deals from several shuffled decks
type shoe struct {
	cards []string
	next  int
	cut   int
	rng   *rand.Rand
}

func newShoe(decks int, rng *rand.Rand) *shoe {
	s := &shoe{rng: rng}
	for d := 0; d < decks; d++ {
		for _, suit := range deckSuits {
			for _, rank := range deckRanks {
				s.cards = append(s.cards, rank+suit)
			}
		}
	}
	s.cut = int(float64(len(s.cards)) * penetration)
	s.shuffle()
	return s
}

func (s *shoe) shuffle() {
	s.rng.Shuffle(len(s.cards), func(i, j int) {
		s.cards[i], s.cards[j] = s.cards[j], s.cards[i]
	})
	s.next = 0
}

func (s *shoe) draw() string {
	if s.next >= len(s.cards) {
		s.shuffle()
	}
	c := s.cards[s.next]
	s.next++
	return c
}

// table plays one seat against the dealer
type table struct {
	shoe    *shoe
	engine  *strategy.Engine
	wager   int64
	actions map[string]int
}

func newTable(cfg Config, rng *rand.Rand) *table {
	return &table{
		shoe:    newShoe(cfg.Decks, rng),
		engine:  cfg.Engine,
		wager:   cfg.Wager,
		actions: make(map[string]int),
	}
}

func (t *table) play() statistics.HandResult {
	if t.shoe.next >= t.shoe.cut {
		t.shoe.shuffle()
	}

	player := []string{t.shoe.draw()}
	dealer := []string{t.shoe.draw()}
	player = append(player, t.shoe.draw())
	dealer = append(dealer, t.shoe.draw())

	res := statistics.HandResult{
		Wager:  t.wager,
		Upcard: upcardLabel(dealer[0]),
	}

	if playerBJ, dealerBJ := isNatural(player), isNatural(dealer); playerBJ || dealerBJ {
		res.PlayerValue = evaluator.Evaluate(player).Total
		res.DealerValue = evaluator.Evaluate(dealer).Total
		switch {
		case playerBJ && dealerBJ:
			res.Status, res.Payout = statistics.Pushed, t.wager
		case playerBJ:
			res.Status, res.Payout = statistics.Blackjack, t.wager+t.wager*3/2
		default:
			res.Status = statistics.Lost
		}
		return res
	}

	opening := strategy.NewActionSet(strategy.Hit, strategy.Stand, strategy.Double)
	if evaluator.IsPair(player) {
		d := strategy.NewDecision(player, dealer[:1], opening.With(strategy.Split), false)
		if t.engine.Recommend(d) == strategy.Split {
			t.actions[strategy.Split.String()]++
			return t.playSplit(player, dealer, res)
		}
	}

	hand, doubled := t.playHand(player, dealer[:1], opening, false)
	dealer = t.dealerPlay(dealer, hand)

	stake := t.wager
	if doubled {
		stake *= 2
	}
	res.Wager = stake
	res.DoubledDown = doubled
	res.PlayerValue = evaluator.Evaluate(hand).Total
	res.DealerValue = evaluator.Evaluate(dealer).Total
	res.Status = settle(res.PlayerValue, res.DealerValue)
	res.Payout = payout(res.Status, stake)
	return res
}

func (t *table) playSplit(pair, dealer []string, res statistics.HandResult) statistics.HandResult {
	main := []string{pair[0], t.shoe.draw()}
	second := []string{pair[1], t.shoe.draw()}

	main, _ = t.playHand(main, dealer[:1], strategy.NewActionSet(strategy.Hit, strategy.Stand), false)
	second, _ = t.playHand(second, dealer[:1], strategy.NewActionSet(strategy.HitSplit, strategy.StandSplit), true)

	dealer = t.dealerPlay(dealer, main, second)

	mainValue := evaluator.Evaluate(main).Total
	splitValue := evaluator.Evaluate(second).Total
	res.HasSplit = true
	res.PlayerValue = mainValue
	res.DealerValue = evaluator.Evaluate(dealer).Total
	res.Status = settle(mainValue, res.DealerValue)
	res.StatusSplit = settle(splitValue, res.DealerValue)
	res.Wager = 2 * t.wager
	res.Payout = payout(res.Status, t.wager) + payout(res.StatusSplit, t.wager)
	return res
}

// playHand draws until the engine stands, doubles or the hand reaches 21
func (t *table) playHand(hand, upcard []string, legal strategy.ActionSet, split bool) ([]string, bool) {
	for evaluator.Evaluate(hand).Total < cards.Blackjack {
		action := t.engine.Recommend(strategy.NewDecision(hand, upcard, legal, split))
		t.actions[action.String()]++

		switch action {
		case strategy.Double:
			return append(hand, t.shoe.draw()), true
		case strategy.Hit, strategy.HitSplit:
			hand = append(hand, t.shoe.draw())
			if action.IsSplitVariant() {
				legal = strategy.NewActionSet(strategy.HitSplit, strategy.StandSplit)
			} else {
				legal = strategy.NewActionSet(strategy.Hit, strategy.Stand)
			}
		default:
			return hand, false
		}
	}
	return hand, false
}

// dealerPlay completes the dealer's hand unless every player hand is bust
func (t *table) dealerPlay(dealer []string, hands ...[]string) []string {
	live := false
	for _, h := range hands {
		if !evaluator.Evaluate(h).IsBust() {
			live = true
		}
	}
	if !live {
		return dealer
	}
	for evaluator.Evaluate(dealer).Total < dealerStand {
		dealer = append(dealer, t.shoe.draw())
	}
	return dealer
}

func isNatural(hand []string) bool {
	return len(hand) == 2 && evaluator.Evaluate(hand).Total == cards.Blackjack
}

func settle(player, dealer int) string {
	switch {
	case player > cards.Blackjack:
		return statistics.Lost
	case dealer > cards.Blackjack, player > dealer:
		return statistics.Won
	case player < dealer:
		return statistics.Lost
	default:
		return statistics.Pushed
	}
}

// payout is the total returned for a settled stake, stake included
func payout(status string, stake int64) int64 {
	switch status {
	case statistics.Won:
		return 2 * stake
	case statistics.Pushed:
		return stake
	default:
		return 0
	}
}

func upcardLabel(token string) string {
	c, err := cards.Parse(token)
	if err != nil {
		return token
	}
	return c.Rank.String()
}
