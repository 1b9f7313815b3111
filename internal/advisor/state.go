package advisor

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Wager is the stake on the current hand
type Wager struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// GameState is the blackjack table as the casino page reports it
type GameState struct {
	Status                string   `json:"status"`
	Player                []string `json:"player"`
	Dealer                []string `json:"dealer"`
	PlayerSplit           []string `json:"player_split"`
	Actions               []string `json:"actions"`
	HasPlayerSplit        bool     `json:"has_player_split"`
	PlayerValue           int      `json:"player_value"`
	DealerValue           int      `json:"dealer_value"`
	PlayerSplitValue      int      `json:"player_split_value"`
	PlayerDoubledDown     bool     `json:"player_doubled_down"`
	PlayerBoughtInsurance bool     `json:"player_bought_insurance"`
	StatusSplit           string   `json:"status_split"`
	Payout                int64    `json:"payout"`
	Wager                 Wager    `json:"wager"`
}

// Offers reports whether the page lists the named action, ignoring case
func (s GameState) Offers(name string) bool {
	for _, a := range s.Actions {
		if strings.EqualFold(strings.TrimSpace(a), name) {
			return true
		}
	}
	return false
}

// Gambler is the player's balance before the hand
type Gambler struct {
	Coins     int64 `json:"coins"`
	Marseybux int64 `json:"marseybux"`
}

// Request is one game state submission
type Request struct {
	State     GameState `json:"state"`
	Gambler   Gambler   `json:"gambler"`
	Timestamp string    `json:"timestamp"`
	Strategy  string    `json:"strategy"`
	FormKey   string    `json:"formkey"`

	// RawState keeps the state exactly as received, unknown fields included
	RawState json.RawMessage `json:"-"`
}

// UnmarshalJSON decodes a request and keeps the raw state
func (r *Request) UnmarshalJSON(data []byte) error {
	type plain Request
	var wire struct {
		plain
		State json.RawMessage `json:"state"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	*r = Request(wire.plain)
	if len(wire.State) > 0 && string(wire.State) != "null" {
		if err := json.Unmarshal(wire.State, &r.State); err != nil {
			return fmt.Errorf("decode state: %w", err)
		}
		r.RawState = append(json.RawMessage(nil), wire.State...)
	}
	return nil
}

// Response is the advice returned for a submission
type Response struct {
	Action    string   `json:"action"`
	HandID    *int64   `json:"hand_id"`
	Rule      string   `json:"rule,omitempty"`
	Insurance *bool    `json:"insurance,omitempty"`
	Warnings  []string `json:"warnings,omitempty"`
}
