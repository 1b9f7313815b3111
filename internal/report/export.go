package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/lox/blackjack-advisor/internal/fileutil"
	"github.com/lox/blackjack-advisor/internal/store"
)

var csvHeader = []string{
	"id", "received_at", "client_timestamp", "formkey",
	"wager_amount", "wager_currency",
	"player_cards", "dealer_cards", "player_value", "dealer_value",
	"player_split_cards", "player_split_value",
	"has_split", "doubled_down", "bought_insurance",
	"status", "status_split", "payout",
	"coins_before", "marseybux_before",
}

// ExportCSV writes one row per hand. Cards are space separated.
func ExportCSV(w io.Writer, hands []store.HandRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, h := range hands {
		received := ""
		if !h.ReceivedAt.IsZero() {
			received = h.ReceivedAt.UTC().Format(time.RFC3339Nano)
		}
		row := []string{
			strconv.FormatInt(h.ID, 10),
			received,
			h.ClientTimestamp,
			h.FormKey,
			strconv.FormatInt(h.WagerAmount, 10),
			h.WagerCurrency,
			strings.Join(h.PlayerCards, " "),
			strings.Join(h.DealerCards, " "),
			strconv.Itoa(h.PlayerValue),
			strconv.Itoa(h.DealerValue),
			strings.Join(h.PlayerSplitCards, " "),
			strconv.Itoa(h.PlayerSplitValue),
			strconv.FormatBool(h.HasSplit),
			strconv.FormatBool(h.DoubledDown),
			strconv.FormatBool(h.BoughtInsurance),
			h.Status,
			h.StatusSplit,
			strconv.FormatInt(h.Payout, 10),
			strconv.FormatInt(h.CoinsBefore, 10),
			strconv.FormatInt(h.MarseybuxBefore, 10),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write hand %d: %w", h.ID, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// ExportFile writes the CSV export to path, replacing any previous export
// atomically
func ExportFile(path string, hands []store.HandRecord) error {
	return fileutil.WriteAtomic(path, 0o644, func(w io.Writer) error {
		return ExportCSV(w, hands)
	})
}
