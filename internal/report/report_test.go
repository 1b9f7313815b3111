package report

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/blackjack-advisor/internal/statistics"
	"github.com/lox/blackjack-advisor/internal/store"
)

type fakeSource struct {
	hands      []store.HandRecord
	actions    map[string]int
	handsErr   error
	actionsErr error
}

func (f *fakeSource) Hands(context.Context, store.Filter) ([]store.HandRecord, error) {
	return f.hands, f.handsErr
}

func (f *fakeSource) ActionCounts(context.Context, store.Filter) (map[string]int, error) {
	return f.actions, f.actionsErr
}

var day = time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)

func sampleHands() []store.HandRecord {
	return []store.HandRecord{
		{
			ID: 1, ReceivedAt: day, FormKey: "abc", WagerAmount: 100, WagerCurrency: "coins",
			PlayerCards: []string{"K", "Q"}, DealerCards: []string{"6", "K", "9"},
			PlayerValue: 20, DealerValue: 25, Status: statistics.Won, Payout: 200,
		},
		{
			ID: 2, ReceivedAt: day.Add(time.Hour), FormKey: "abc", WagerAmount: 100, WagerCurrency: "coins",
			PlayerCards: []string{"T", "6", "9"}, DealerCards: []string{"7", "J"},
			PlayerValue: 25, DealerValue: 17, Status: statistics.Lost, DoubledDown: true,
		},
		{
			ID: 3, ReceivedAt: day.Add(2 * time.Hour), FormKey: "abc", WagerAmount: 50, WagerCurrency: "coins",
			PlayerCards: []string{"8", "3"}, DealerCards: []string{"K", "8"},
			PlayerSplitCards: []string{"8", "K"}, PlayerSplitValue: 18, HasSplit: true,
			PlayerValue: 19, DealerValue: 18, Status: statistics.Won, StatusSplit: statistics.Pushed, Payout: 150,
		},
	}
}

func TestLoad(t *testing.T) {
	src := &fakeSource{
		hands:   sampleHands(),
		actions: map[string]int{"hit": 3, "stand": 1},
	}

	rep, err := Load(context.Background(), src, store.Filter{FormKey: "abc"}, time.UTC)
	require.NoError(t, err)

	assert.Equal(t, 3, rep.Summary.Hands)
	assert.Equal(t, 2, rep.Summary.Wins)
	assert.Equal(t, 1, rep.Summary.Losses)
	assert.Equal(t, 1, rep.Summary.Busts)
	require.Len(t, rep.Actions, 2)
	assert.Equal(t, "hit", rep.Actions[0].Action)
	assert.Equal(t, 75.0, rep.Actions[0].Percent)
	assert.Equal(t, 0.5, rep.Splits.Success)
	assert.Equal(t, 1, rep.Doubles.Total)
	require.Len(t, rep.Days, 1)
	assert.Equal(t, "2025-03-14", rep.Days[0].Date)
}

func TestLoadPropagatesErrors(t *testing.T) {
	boom := errors.New("db down")

	_, err := Load(context.Background(), &fakeSource{handsErr: boom}, store.Filter{}, nil)
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "load hands")

	_, err = Load(context.Background(), &fakeSource{actionsErr: boom}, store.Filter{}, nil)
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "load actions")
}

func TestSummarize(t *testing.T) {
	snap, err := Summarize(context.Background(), &fakeSource{hands: sampleHands()}, store.Filter{})
	require.NoError(t, err)

	assert.Equal(t, 3, snap.Hands)
	assert.Equal(t, int64(250), snap.TotalWagered)
	assert.Equal(t, 66.67, snap.WinRate)
}

func TestRender(t *testing.T) {
	src := &fakeSource{hands: sampleHands(), actions: map[string]int{"hit": 2}}
	rep, err := Load(context.Background(), src, store.Filter{}, time.UTC)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, rep, Options{NoColor: true}))
	out := buf.String()

	for _, want := range []string{
		"Blackjack analysis",
		"Overall statistics",
		"Win rate by player value",
		"Dealer bust rate by upcard",
		"Doubles and splits",
		"Action distribution",
		"Recent days",
		"2025-03-14",
	} {
		assert.Contains(t, out, want)
	}
	assert.NotContains(t, out, "\x1b[", "no escape codes without color")
	// fewer than the minimum sample per upcard
	assert.NotContains(t, out, "Average dealer final value")
}

func TestRenderEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, statistics.BuildReport(nil, nil, nil), Options{NoColor: true}))

	assert.Contains(t, buf.String(), "No settled hands recorded.")
	assert.NotContains(t, buf.String(), "Overall statistics")
}

func TestExportCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, ExportCSV(&buf, sampleHands()))

	records, err := csv.NewReader(strings.NewReader(buf.String())).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)

	assert.Equal(t, csvHeader, records[0])
	assert.Equal(t, "1", records[1][0])
	assert.Equal(t, "2025-03-14T12:00:00Z", records[1][1])
	assert.Equal(t, "K Q", records[1][6])
	assert.Equal(t, "6 K 9", records[1][7])
	assert.Equal(t, "true", records[2][13], "doubled_down")
	assert.Equal(t, "8 K", records[3][10])
	assert.Equal(t, "PUSHED", records[3][16])
}

func TestExportFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "hands.csv")
	require.NoError(t, ExportFile(path, sampleHands()[:1]))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "id,received_at,"))
}
