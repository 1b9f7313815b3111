package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/blackjack-advisor/internal/advisor"
	"github.com/lox/blackjack-advisor/internal/statistics"
	"github.com/lox/blackjack-advisor/internal/store"
	"github.com/lox/blackjack-advisor/internal/strategy"
)

var epoch = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

type fixture struct {
	server *Server
	http   *httptest.Server
	store  *store.Store
	clock  *quartz.Mock
}

func newFixture(t *testing.T, record bool) *fixture {
	t.Helper()

	logger := log.NewWithOptions(io.Discard, log.Options{})
	clock := quartz.NewMock(t)
	clock.Set(epoch)

	f := &fixture{clock: clock}

	var (
		recorder advisor.Recorder
		stats    StatsSource
	)
	if record {
		st, err := store.Open(context.Background(), filepath.Join(t.TempDir(), "bj.db"),
			store.WithClock(clock), store.WithLogger(logger))
		require.NoError(t, err)
		t.Cleanup(func() { _ = st.Close() })
		f.store = st
		recorder, stats = st, st
	}

	adv := advisor.New(strategy.NewRegistry(), recorder, logger)
	f.server = NewServer("127.0.0.1:0", adv, stats, logger, WithClock(clock))
	f.http = httptest.NewServer(f.server.Handler())
	t.Cleanup(f.http.Close)
	return f
}

func (f *fixture) post(t *testing.T, path, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(f.http.URL+path, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (f *fixture) get(t *testing.T, path string) *http.Response {
	t.Helper()
	resp, err := http.Get(f.http.URL + path)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, r io.Reader) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(r).Decode(&v))
	return v
}

func playing(player, dealer string, actions ...string) string {
	quote := func(csv string) string {
		if csv == "" {
			return "[]"
		}
		return `["` + strings.Join(strings.Split(csv, ","), `","`) + `"]`
	}
	return `{
		"state": {
			"status": "PLAYING",
			"player": ` + quote(player) + `,
			"dealer": ` + quote(dealer) + `,
			"actions": ` + quote(strings.Join(actions, ",")) + `,
			"wager": {"amount": 100, "currency": "coins"}
		},
		"gambler": {"coins": 5000, "marseybux": 10},
		"timestamp": "2025-03-14T09:30:00Z",
		"formkey": "table-1"
	}`
}

const settled = `{
	"state": {
		"status": "WON",
		"player": ["K", "8"],
		"dealer": ["K", "7", "9"],
		"actions": ["DEAL"],
		"player_value": 18,
		"dealer_value": 26,
		"payout": 200,
		"wager": {"amount": 100, "currency": "coins"}
	},
	"formkey": "table-1"
}`

func TestGameStateRecommends(t *testing.T) {
	f := newFixture(t, false)

	tests := []struct {
		name   string
		body   string
		action string
	}{
		{"hard 11 doubles", playing("6,5", "6", "HIT", "STAY", "DOUBLE_DOWN"), "double"},
		{"hard 16 hits against ten", playing("T,6", "K", "HIT", "STAY"), "hit"},
		{"hard 12 stands against four", playing("T,2", "4", "HIT", "STAY"), "stand"},
		{"double not offered", playing("6,5", "6", "HIT", "STAY"), "hit"},
		{"hidden upcard", playing("T,6", "?", "HIT", "STAY"), "none"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := f.post(t, "/game_state", tt.body)
			require.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

			got := decode[advisor.Response](t, resp.Body)
			assert.Equal(t, tt.action, got.Action)
		})
	}
}

func TestGameStateBadJSON(t *testing.T) {
	f := newFixture(t, false)

	resp := f.post(t, "/game_state", `{"state": `)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	body := decode[map[string]string](t, resp.Body)
	assert.Contains(t, body["error"], "invalid game state")
}

func TestGameStateRecordsAndReports(t *testing.T) {
	f := newFixture(t, true)

	resp := f.post(t, "/game_state", playing("K,8", "K", "HIT", "STAY"))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	advice := decode[advisor.Response](t, resp.Body)
	assert.Equal(t, "stand", advice.Action)
	require.NotNil(t, advice.HandID)

	resp = f.post(t, "/game_state", settled)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	final := decode[advisor.Response](t, resp.Body)
	assert.Equal(t, "none", final.Action)
	assert.Empty(t, final.Warnings)

	resp = f.get(t, "/stats?formkey=table-1")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	snap := decode[statistics.Snapshot](t, resp.Body)
	assert.Equal(t, 1, snap.Hands)
	assert.Equal(t, 1, snap.Wins)
	assert.Equal(t, 100.0, snap.WinRate)

	resp = f.get(t, "/stats?formkey=other")
	snap = decode[statistics.Snapshot](t, resp.Body)
	assert.Equal(t, 0, snap.Hands)

	resp = f.get(t, "/dealer_patterns")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	patterns := decode[[]store.DealerPattern](t, resp.Body)
	require.Len(t, patterns, 1)
	assert.Equal(t, store.DealerPattern{Upcard: "K", Total: 1, Busts: 1, BustRate: 100}, patterns[0])

	resp = f.get(t, "/report")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	rep := decode[statistics.Report](t, resp.Body)
	assert.Equal(t, 1, rep.Summary.Hands)
	require.Len(t, rep.Actions, 1)
	assert.Equal(t, "stand", rep.Actions[0].Action)
}

func TestStatsWithoutRecording(t *testing.T) {
	f := newFixture(t, false)

	for _, path := range []string{"/stats", "/report", "/dealer_patterns"} {
		resp := f.get(t, path)
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode, path)
	}
}

func TestHealth(t *testing.T) {
	f := newFixture(t, false)

	resp := f.get(t, "/health")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	health := decode[HealthData](t, resp.Body)
	assert.Equal(t, "healthy", health.Status)
	assert.True(t, epoch.Equal(health.Timestamp))
	assert.NotEmpty(t, health.Message)
}

func TestCORSPreflight(t *testing.T) {
	f := newFixture(t, false)

	req, err := http.NewRequest(http.MethodOptions, f.http.URL+"/game_state", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://casino.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Content-Type")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, http.MethodPost, resp.Header.Get("Access-Control-Allow-Methods"))
	assert.Contains(t, strings.ToLower(resp.Header.Get("Access-Control-Allow-Headers")), "content-type")

	req, err = http.NewRequest(http.MethodGet, f.http.URL+"/health", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://casino.example")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestCORSRejectsUnlistedMethod(t *testing.T) {
	f := newFixture(t, false)

	req, err := http.NewRequest(http.MethodOptions, f.http.URL+"/game_state", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://casino.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodDelete)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Empty(t, resp.Header.Get("Access-Control-Allow-Methods"))
}

func dialWS(t *testing.T, f *fixture) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(f.http.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func sendWS(t *testing.T, conn *websocket.Conn, typ MessageType, id, data string) {
	t.Helper()
	msg := Message{Type: typ, RequestID: id, Timestamp: epoch}
	if data != "" {
		msg.Data = json.RawMessage(data)
	}
	require.NoError(t, conn.WriteJSON(msg))
}

func readWS(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestWebSocketAdviceInOrder(t *testing.T) {
	f := newFixture(t, true)
	conn := dialWS(t, f)

	frames := []struct {
		id     string
		body   string
		action string
	}{
		{"r1", playing("6,5", "6", "HIT", "STAY", "DOUBLE_DOWN"), "double"},
		{"r2", playing("T,6", "K", "HIT", "STAY"), "hit"},
		{"r3", playing("T,7", "K", "HIT", "STAY"), "stand"},
	}
	for _, fr := range frames {
		sendWS(t, conn, MessageTypeGameState, fr.id, fr.body)
	}

	for _, fr := range frames {
		msg := readWS(t, conn)
		require.Equal(t, MessageTypeAdvice, msg.Type)
		assert.Equal(t, fr.id, msg.RequestID)
		assert.True(t, epoch.Equal(msg.Timestamp))

		var resp advisor.Response
		require.NoError(t, json.Unmarshal(msg.Data, &resp))
		assert.Equal(t, fr.action, resp.Action)
		assert.NotNil(t, resp.HandID)
	}

	assert.Eventually(t, func() bool { return f.server.ConnectionCount() == 1 }, time.Second, 10*time.Millisecond)
}

func TestWebSocketStatsPingAndErrors(t *testing.T) {
	f := newFixture(t, true)
	conn := dialWS(t, f)

	sendWS(t, conn, MessageTypeStats, "s1", `{"formkey":"table-1"}`)
	msg := readWS(t, conn)
	require.Equal(t, MessageTypeStats, msg.Type)
	assert.Equal(t, "s1", msg.RequestID)
	var snap statistics.Snapshot
	require.NoError(t, json.Unmarshal(msg.Data, &snap))
	assert.Equal(t, 0, snap.Hands)

	sendWS(t, conn, MessageTypePing, "p1", "")
	msg = readWS(t, conn)
	assert.Equal(t, MessageTypePong, msg.Type)
	assert.Equal(t, "p1", msg.RequestID)

	sendWS(t, conn, MessageTypeGameState, "bad", `{"state": []}`)
	msg = readWS(t, conn)
	require.Equal(t, MessageTypeError, msg.Type)
	var errData ErrorData
	require.NoError(t, json.Unmarshal(msg.Data, &errData))
	assert.Equal(t, "invalid_message", errData.Code)

	sendWS(t, conn, MessageType("shuffle"), "x", "")
	msg = readWS(t, conn)
	require.Equal(t, MessageTypeError, msg.Type)
	require.NoError(t, json.Unmarshal(msg.Data, &errData))
	assert.Equal(t, "unknown_message_type", errData.Code)
}

func TestWebSocketDisconnectUnregisters(t *testing.T) {
	f := newFixture(t, false)
	conn := dialWS(t, f)

	assert.Eventually(t, func() bool { return f.server.ConnectionCount() == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))
	conn.Close()

	assert.Eventually(t, func() bool { return f.server.ConnectionCount() == 0 }, time.Second, 10*time.Millisecond)
}

func TestRunShutsDownOnCancel(t *testing.T) {
	logger := log.NewWithOptions(io.Discard, log.Options{})
	s := NewServer("127.0.0.1:0", advisor.New(nil, nil, logger), nil, logger)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestMessageRoundTrip(t *testing.T) {
	msg, err := NewMessage(MessageTypeError, ErrorData{Code: "c", Message: "m"}, epoch)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(msg))
	assert.Contains(t, buf.String(), `"type":"error"`)
	assert.Contains(t, buf.String(), `"data":{"code":"c","message":"m"}`)
}
