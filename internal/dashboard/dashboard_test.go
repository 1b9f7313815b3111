package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/blackjack-advisor/internal/statistics"
)

func sampleReport() statistics.Report {
	results := []statistics.HandResult{
		{Status: statistics.Won, Wager: 100, Payout: 200, PlayerValue: 20, DealerValue: 24, Upcard: "6"},
		{Status: statistics.Blackjack, Wager: 100, Payout: 250, PlayerValue: 21, DealerValue: 19, Upcard: "K"},
		{Status: statistics.Lost, Wager: 100, PlayerValue: 23, DealerValue: 17, Upcard: "K"},
	}
	return statistics.BuildReport(results, map[string]int{"hit": 2}, time.UTC)
}

func newModel(load Loader) *Model {
	return New(load, time.Minute, log.NewWithOptions(io.Discard, log.Options{}))
}

func TestModelLoadsReport(t *testing.T) {
	m := newModel(func(context.Context) (statistics.Report, error) {
		return sampleReport(), nil
	})

	require.NotNil(t, m.Init())
	assert.Contains(t, m.View(), "Loading statistics...")

	msg := m.fetch()()
	require.IsType(t, reportMsg{}, msg)

	_, cmd := m.Update(msg)
	assert.NotNil(t, cmd, "next refresh is scheduled")

	view := m.View()
	assert.Contains(t, view, "Blackjack advisor")
	assert.Contains(t, view, "66.67%")
	assert.Contains(t, view, "Dealer by upcard")
	assert.Contains(t, view, "K")
	assert.NotContains(t, view, "Loading statistics...")
	assert.Len(t, m.upcards.Rows(), 2)
}

func TestModelShowsErrors(t *testing.T) {
	calls := 0
	m := newModel(func(context.Context) (statistics.Report, error) {
		calls++
		if calls == 1 {
			return statistics.Report{}, errors.New("connection refused")
		}
		return sampleReport(), nil
	})
	m.Init()

	m.Update(m.fetch()())
	assert.Contains(t, m.View(), "error: connection refused")

	m.Update(tickMsg(time.Now()))
	assert.True(t, m.loading)
	m.Update(m.fetch()())
	assert.False(t, m.loading)
	assert.NotContains(t, m.View(), "connection refused")
	assert.Contains(t, m.View(), "66.67%")
}

func TestModelTickWhileLoadingIsIgnored(t *testing.T) {
	m := newModel(func(context.Context) (statistics.Report, error) {
		return sampleReport(), nil
	})
	m.Init()

	_, cmd := m.Update(tickMsg(time.Now()))
	assert.Nil(t, cmd)
}

func TestModelKeys(t *testing.T) {
	m := newModel(func(context.Context) (statistics.Report, error) {
		return sampleReport(), nil
	})
	m.Update(m.fetch()())

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	assert.NotNil(t, cmd)
	assert.True(t, m.loading)

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Empty(t, m.View())
}

func TestHTTPLoader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/report" {
			http.NotFound(w, r)
			return
		}
		if r.URL.Query().Get("formkey") == "missing" {
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "recording is disabled"})
			return
		}
		_ = json.NewEncoder(w).Encode(sampleReport())
	}))
	defer srv.Close()

	rep, err := HTTPLoader(srv.Client(), srv.URL+"/", "table-1")(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, rep.Summary.Hands)
	assert.Equal(t, 1, rep.Summary.Blackjacks)

	_, err = HTTPLoader(srv.Client(), srv.URL, "missing")(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "recording is disabled")
}
