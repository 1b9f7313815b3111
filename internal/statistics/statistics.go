package statistics

import (
	"fmt"
	"math"
	"time"
)

// Settled hand statuses
const (
	Won       = "WON"
	Lost      = "LOST"
	Pushed    = "PUSHED"
	Blackjack = "BLACKJACK"
)

// HandResult represents the outcome of a single settled blackjack hand
type HandResult struct {
	At          time.Time
	Status      string // WON, LOST, PUSHED or BLACKJACK
	StatusSplit string // outcome of the split hand, empty without a split
	Wager       int64
	Payout      int64 // total returned to the player, stake included
	PlayerValue int
	DealerValue int
	Upcard      string // dealer upcard rank, e.g. "K"
	DoubledDown bool
	HasSplit    bool
}

// IsWin reports whether the hand counts as a win
func (r HandResult) IsWin() bool {
	return r.Status == Won || r.Status == Blackjack
}

// IsBust reports whether the player lost by going over 21
func (r HandResult) IsBust() bool {
	return r.Status == Lost && (r.PlayerValue < 0 || r.PlayerValue > 21)
}

// Summary tracks win/loss accounting across hands
type Summary struct {
	Hands        int   `json:"total_hands"`
	Wins         int   `json:"wins"`
	Losses       int   `json:"losses"`
	Pushes       int   `json:"pushes"`
	Blackjacks   int   `json:"blackjacks"`
	Busts        int   `json:"busts"`
	TotalWagered int64 `json:"total_wagered"`
	TotalWon     int64 `json:"total_won"`  // profit on winning hands
	TotalLost    int64 `json:"total_lost"` // stakes lost on losing hands
	TotalPayout  int64 `json:"total_payout"`
}

// Add incorporates a settled hand. Unsettled statuses are ignored.
func (s *Summary) Add(r HandResult) {
	switch r.Status {
	case Won, Blackjack:
		s.Wins++
		if r.Status == Blackjack {
			s.Blackjacks++
		}
		s.TotalWon += r.Payout - r.Wager
	case Lost:
		s.Losses++
		if r.IsBust() {
			s.Busts++
		}
		s.TotalLost += r.Wager
	case Pushed:
		s.Pushes++
	default:
		return
	}
	s.Hands++
	s.TotalWagered += r.Wager
	s.TotalPayout += r.Payout
}

// WinRate returns wins as a percentage of hands
func (s *Summary) WinRate() float64 { return Percent(s.Wins, s.Hands) }

// LossRate returns losses as a percentage of hands
func (s *Summary) LossRate() float64 { return Percent(s.Losses, s.Hands) }

// PushRate returns pushes as a percentage of hands
func (s *Summary) PushRate() float64 { return Percent(s.Pushes, s.Hands) }

// BlackjackRate returns blackjacks as a percentage of hands
func (s *Summary) BlackjackRate() float64 { return Percent(s.Blackjacks, s.Hands) }

// BustRate returns player busts as a percentage of hands
func (s *Summary) BustRate() float64 { return Percent(s.Busts, s.Hands) }

// NetProfit returns winnings minus lost stakes
func (s *Summary) NetProfit() int64 {
	return s.TotalWon - s.TotalLost
}

// ROI returns net profit as a percentage of the amount wagered
func (s *Summary) ROI() float64 {
	if s.TotalWagered == 0 {
		return 0
	}
	return round2(float64(s.NetProfit()) / float64(s.TotalWagered) * 100)
}

// HouseEdge returns the share of wagers the house kept, in percent
func (s *Summary) HouseEdge() float64 {
	if s.TotalWagered == 0 {
		return 0
	}
	return round2(float64(s.TotalWagered-s.TotalPayout) / float64(s.TotalWagered) * 100)
}

// Snapshot is the JSON shape served on the stats endpoint
type Snapshot struct {
	Summary
	WinRate       float64 `json:"win_rate"`
	LossRate      float64 `json:"loss_rate"`
	PushRate      float64 `json:"push_rate"`
	BlackjackRate float64 `json:"blackjack_rate"`
	BustRate      float64 `json:"bust_rate"`
	NetProfit     int64   `json:"net_profit"`
	ROI           float64 `json:"roi"`
}

// Snapshot returns the summary with its derived rates filled in
func (s *Summary) Snapshot() Snapshot {
	return Snapshot{
		Summary:       *s,
		WinRate:       s.WinRate(),
		LossRate:      s.LossRate(),
		PushRate:      s.PushRate(),
		BlackjackRate: s.BlackjackRate(),
		BustRate:      s.BustRate(),
		NetProfit:     s.NetProfit(),
		ROI:           s.ROI(),
	}
}

// Validate checks the accounting is consistent
func (s *Summary) Validate() error {
	if s.Hands < 0 {
		return fmt.Errorf("invalid hands count: %d", s.Hands)
	}
	if s.Wins+s.Losses+s.Pushes != s.Hands {
		return fmt.Errorf("ledger mismatch: wins=%d losses=%d pushes=%d hands=%d",
			s.Wins, s.Losses, s.Pushes, s.Hands)
	}
	if s.Blackjacks > s.Wins {
		return fmt.Errorf("blackjacks (%d) exceed wins (%d)", s.Blackjacks, s.Wins)
	}
	if s.Busts > s.Losses {
		return fmt.Errorf("busts (%d) exceed losses (%d)", s.Busts, s.Losses)
	}
	return nil
}

// Percent returns part/total as a percentage rounded to two decimals, 0 when
// total is 0
func Percent(part, total int) float64 {
	if total <= 0 {
		return 0
	}
	return round2(float64(part) / float64(total) * 100)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
