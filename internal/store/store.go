// Package store records hands, recommended actions and dealer outcomes in a
// SQL database. SQLite is the default; Postgres is selected by DSN scheme.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/lox/blackjack-advisor/internal/cards"
	"github.com/lox/blackjack-advisor/internal/statistics"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrUnsupportedDSN = errors.New("unsupported database dsn")
)

const opTimeout = 5 * time.Second

// Hand statuses the casino reports once a hand is settled
const (
	StatusPlaying   = "PLAYING"
	StatusWon       = "WON"
	StatusLost      = "LOST"
	StatusPushed    = "PUSHED"
	StatusBlackjack = "BLACKJACK"
)

// HandRecord is one game state as received from the casino
type HandRecord struct {
	ID               int64
	ReceivedAt       time.Time
	ClientTimestamp  string
	FormKey          string
	WagerAmount      int64
	WagerCurrency    string
	PlayerCards      []string
	DealerCards      []string
	PlayerValue      int
	DealerValue      int
	PlayerSplitCards []string
	PlayerSplitValue int
	HasSplit         bool
	DoubledDown      bool
	BoughtInsurance  bool
	Status           string
	StatusSplit      string
	Payout           int64
	CoinsBefore      int64
	MarseybuxBefore  int64
	RawState         json.RawMessage
}

// Result converts a settled hand into a statistics sample
func (h HandRecord) Result() statistics.HandResult {
	return statistics.HandResult{
		At:          h.ReceivedAt,
		Status:      h.Status,
		StatusSplit: h.StatusSplit,
		Wager:       h.WagerAmount,
		Payout:      h.Payout,
		PlayerValue: h.PlayerValue,
		DealerValue: h.DealerValue,
		Upcard:      upcardLabel(h.DealerCards),
		DoubledDown: h.DoubledDown,
		HasSplit:    h.HasSplit,
	}
}

// ActionRecord is one recommendation made during a hand
type ActionRecord struct {
	HandID      int64
	Action      string
	PlayerValue int
	DealerValue int
	At          time.Time
}

// Outcome is the final state of a settled hand
type Outcome struct {
	Status           string
	StatusSplit      string
	Payout           int64
	DealerCards      []string
	DealerValue      int
	PlayerValue      int
	PlayerSplitValue int
}

// Filter narrows hand and action queries
type Filter struct {
	FormKey string
	Since   time.Time
	Limit   int
}

// DealerPattern aggregates dealer outcomes for one upcard
type DealerPattern struct {
	Upcard   string  `json:"upcard"`
	Total    int     `json:"total"`
	Busts    int     `json:"busts"`
	BustRate float64 `json:"bust_rate"`
}

// Store is a recording sink backed by database/sql. It is safe for concurrent
// use.
type Store struct {
	db      *sql.DB
	dialect dialect
	clock   quartz.Clock
	logger  *log.Logger
	closers []func()
}

// Option configures a Store
type Option func(*Store)

// WithClock sets the clock used for record timestamps
func WithClock(clock quartz.Clock) Option {
	return func(s *Store) { s.clock = clock }
}

// WithLogger sets the store logger
func WithLogger(logger *log.Logger) Option {
	return func(s *Store) { s.logger = logger.WithPrefix("store") }
}

// Open connects to the database named by dsn and creates the schema if needed.
// Accepted forms are sqlite://path, file:path, a bare path, :memory:, and
// postgres:// or postgresql:// URLs.
func Open(ctx context.Context, dsn string, opts ...Option) (*Store, error) {
	s := &Store{
		clock:  quartz.NewReal(),
		logger: log.NewWithOptions(io.Discard, log.Options{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	d, target, err := parseDSN(dsn)
	if err != nil {
		return nil, err
	}
	s.dialect = d

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	db, closer, err := d.open(ctx, target)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", d.name, err)
	}
	s.db = db
	if closer != nil {
		s.closers = append(s.closers, closer)
	}

	if err := s.ensureSchema(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}

	s.logger.Info("Store opened", "dialect", d.name)
	return s, nil
}

// Dialect returns the database dialect name, "sqlite" or "postgres"
func (s *Store) Dialect() string {
	return s.dialect.name
}

// Close releases the database connection
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	err := s.db.Close()
	for _, c := range s.closers {
		c()
	}
	return err
}

func (s *Store) ensureSchema(ctx context.Context) error {
	for _, stmt := range s.dialect.schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	return nil
}

func (s *Store) now() time.Time {
	return s.clock.Now().UTC()
}

// StoreHand inserts a game state and returns its id
func (s *Store) StoreHand(ctx context.Context, h HandRecord) (int64, error) {
	if h.ReceivedAt.IsZero() {
		h.ReceivedAt = s.now()
	}
	if h.FormKey == "" {
		h.FormKey = "default"
	}
	if h.WagerCurrency == "" {
		h.WagerCurrency = "coins"
	}
	raw := h.RawState
	if len(raw) == 0 {
		raw = json.RawMessage("{}")
	}

	var id int64
	err := s.db.QueryRowContext(ctx, s.dialect.rebind(`
INSERT INTO hands (
    received_at_ms, client_timestamp, formkey, wager_amount, wager_currency,
    player_cards, dealer_cards, player_value, dealer_value,
    player_split_cards, player_split_value,
    has_split, doubled_down, bought_insurance,
    status, status_split, payout,
    coins_before, marseybux_before, raw_state
)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
RETURNING id
`),
		h.ReceivedAt.UnixMilli(), h.ClientTimestamp, h.FormKey, h.WagerAmount, h.WagerCurrency,
		encodeCards(h.PlayerCards), encodeCards(h.DealerCards), h.PlayerValue, h.DealerValue,
		encodeCards(h.PlayerSplitCards), h.PlayerSplitValue,
		boolInt(h.HasSplit), boolInt(h.DoubledDown), boolInt(h.BoughtInsurance),
		h.Status, h.StatusSplit, h.Payout,
		h.CoinsBefore, h.MarseybuxBefore, string(raw),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("store hand: %w", err)
	}
	return id, nil
}

// StoreAction records a recommendation made for a hand
func (s *Store) StoreAction(ctx context.Context, a ActionRecord) error {
	if a.At.IsZero() {
		a.At = s.now()
	}
	_, err := s.db.ExecContext(ctx, s.dialect.rebind(`
INSERT INTO actions (hand_id, action, player_value, dealer_value, created_at_ms)
VALUES (?, ?, ?, ?, ?)
`), a.HandID, a.Action, a.PlayerValue, a.DealerValue, a.At.UnixMilli())
	if err != nil {
		return fmt.Errorf("store action for hand %d: %w", a.HandID, err)
	}
	return nil
}

// UpdateHandOutcome writes the final state of a hand and, when the dealer's
// final value and upcard are known, a dealer pattern row.
func (s *Store) UpdateHandOutcome(ctx context.Context, handID int64, o Outcome) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin outcome tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, s.dialect.rebind(`
UPDATE hands
SET status = ?, status_split = ?, payout = ?,
    dealer_cards = ?, dealer_value = ?,
    player_value = ?, player_split_value = ?
WHERE id = ?
`), o.Status, o.StatusSplit, o.Payout,
		encodeCards(o.DealerCards), o.DealerValue,
		o.PlayerValue, o.PlayerSplitValue, handID)
	if err != nil {
		return fmt.Errorf("update hand %d: %w", handID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update hand %d: %w", handID, err)
	}
	if n == 0 {
		return fmt.Errorf("hand %d: %w", handID, ErrNotFound)
	}

	if o.DealerValue != 0 && len(o.DealerCards) > 0 {
		busted := o.DealerValue < 0 || o.DealerValue > cards.Blackjack
		if _, err := tx.ExecContext(ctx, s.dialect.rebind(`
INSERT INTO dealer_patterns (hand_id, upcard, final_value, busted, created_at_ms)
VALUES (?, ?, ?, ?, ?)
`), handID, upcardLabel(o.DealerCards), o.DealerValue, boolInt(busted), s.now().UnixMilli()); err != nil {
			return fmt.Errorf("store dealer pattern for hand %d: %w", handID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit outcome for hand %d: %w", handID, err)
	}
	return nil
}

const handColumns = `id, received_at_ms, client_timestamp, formkey, wager_amount, wager_currency,
    player_cards, dealer_cards, player_value, dealer_value,
    player_split_cards, player_split_value,
    has_split, doubled_down, bought_insurance,
    status, status_split, payout, coins_before, marseybux_before, raw_state`

// Hand returns a single hand by id
func (s *Store) Hand(ctx context.Context, id int64) (HandRecord, error) {
	row := s.db.QueryRowContext(ctx, s.dialect.rebind(`SELECT `+handColumns+` FROM hands WHERE id = ?`), id)
	h, err := scanHand(row)
	if errors.Is(err, sql.ErrNoRows) {
		return HandRecord{}, fmt.Errorf("hand %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return HandRecord{}, fmt.Errorf("load hand %d: %w", id, err)
	}
	return h, nil
}

// Hands returns settled hands (won, lost, pushed or blackjack) in insertion
// order.
func (s *Store) Hands(ctx context.Context, f Filter) ([]HandRecord, error) {
	where, args := settledWhere(f)
	query := `SELECT ` + handColumns + ` FROM hands WHERE ` + where + ` ORDER BY id`
	if f.Limit > 0 {
		query += ` LIMIT ` + strconv.Itoa(f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, s.dialect.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("query hands: %w", err)
	}
	defer rows.Close()

	var out []HandRecord
	for rows.Next() {
		h, err := scanHand(rows)
		if err != nil {
			return nil, fmt.Errorf("scan hand: %w", err)
		}
		out = append(out, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query hands: %w", err)
	}
	return out, nil
}

// ActionCounts returns how often each action was recommended. FormKey and
// Since filter on the owning hand.
func (s *Store) ActionCounts(ctx context.Context, f Filter) (map[string]int, error) {
	var (
		conds []string
		args  []any
	)
	if f.FormKey != "" {
		conds = append(conds, "h.formkey = ?")
		args = append(args, f.FormKey)
	}
	if !f.Since.IsZero() {
		conds = append(conds, "a.created_at_ms >= ?")
		args = append(args, f.Since.UTC().UnixMilli())
	}
	query := `SELECT a.action, COUNT(*) FROM actions a JOIN hands h ON h.id = a.hand_id`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` GROUP BY a.action`

	rows, err := s.db.QueryContext(ctx, s.dialect.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("query action counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			action string
			n      int
		)
		if err := rows.Scan(&action, &n); err != nil {
			return nil, fmt.Errorf("scan action count: %w", err)
		}
		counts[action] = n
	}
	return counts, rows.Err()
}

// DealerPatterns returns bust counts grouped by dealer upcard
func (s *Store) DealerPatterns(ctx context.Context) ([]DealerPattern, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT upcard, SUM(busted), COUNT(*)
FROM dealer_patterns
GROUP BY upcard
ORDER BY upcard
`)
	if err != nil {
		return nil, fmt.Errorf("query dealer patterns: %w", err)
	}
	defer rows.Close()

	var out []DealerPattern
	for rows.Next() {
		var p DealerPattern
		if err := rows.Scan(&p.Upcard, &p.Busts, &p.Total); err != nil {
			return nil, fmt.Errorf("scan dealer pattern: %w", err)
		}
		p.BustRate = statistics.Percent(p.Busts, p.Total)
		out = append(out, p)
	}
	return out, rows.Err()
}

func settledWhere(f Filter) (string, []any) {
	conds := []string{`status IN ('WON', 'LOST', 'PUSHED', 'BLACKJACK')`}
	var args []any
	if f.FormKey != "" {
		conds = append(conds, "formkey = ?")
		args = append(args, f.FormKey)
	}
	if !f.Since.IsZero() {
		conds = append(conds, "received_at_ms >= ?")
		args = append(args, f.Since.UTC().UnixMilli())
	}
	return strings.Join(conds, " AND "), args
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanHand(row rowScanner) (HandRecord, error) {
	var (
		h                          HandRecord
		receivedMs                 int64
		player, dealer, split, raw string
		hasSplit, doubled, insured int
	)
	err := row.Scan(
		&h.ID, &receivedMs, &h.ClientTimestamp, &h.FormKey, &h.WagerAmount, &h.WagerCurrency,
		&player, &dealer, &h.PlayerValue, &h.DealerValue,
		&split, &h.PlayerSplitValue,
		&hasSplit, &doubled, &insured,
		&h.Status, &h.StatusSplit, &h.Payout, &h.CoinsBefore, &h.MarseybuxBefore, &raw,
	)
	if err != nil {
		return HandRecord{}, err
	}
	h.ReceivedAt = time.UnixMilli(receivedMs).UTC()
	h.PlayerCards = decodeCards(player)
	h.DealerCards = decodeCards(dealer)
	h.PlayerSplitCards = decodeCards(split)
	h.HasSplit = hasSplit != 0
	h.DoubledDown = doubled != 0
	h.BoughtInsurance = insured != 0
	h.RawState = json.RawMessage(raw)
	return h, nil
}

// Cards are stored as JSON arrays, matching the casino's own encoding
func encodeCards(c []string) string {
	if c == nil {
		c = []string{}
	}
	data, err := json.Marshal(c)
	if err != nil {
		return "[]"
	}
	return string(data)
}

func decodeCards(s string) []string {
	var c []string
	if err := json.Unmarshal([]byte(s), &c); err != nil {
		return nil
	}
	return c
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// upcardLabel returns the rank of the dealer's first card, e.g. "K" or "X"
func upcardLabel(dealer []string) string {
	if len(dealer) == 0 {
		return ""
	}
	card, err := cards.Parse(dealer[0])
	if err != nil {
		return strings.TrimSpace(dealer[0])
	}
	return card.Rank.String()
}
