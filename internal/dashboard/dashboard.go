// Package dashboard is a live terminal view of recorded blackjack statistics.
package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/lox/blackjack-advisor/internal/statistics"
)

const (
	DefaultInterval = 5 * time.Second
	fetchTimeout    = 10 * time.Second
)

var (
	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Bold(true).
			Padding(0, 1)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262"))

	goodStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#96CEB4")).
			Bold(true)

	badStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	footerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262"))
)

// Loader fetches the current report
type Loader func(ctx context.Context) (statistics.Report, error)

// HTTPLoader polls the report endpoint of a running advisor
func HTTPLoader(client *http.Client, baseURL, formKey string) Loader {
	if client == nil {
		client = http.DefaultClient
	}
	endpoint := strings.TrimRight(baseURL, "/") + "/report"
	if formKey != "" {
		endpoint += "?formkey=" + url.QueryEscape(formKey)
	}

	return func(ctx context.Context) (statistics.Report, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return statistics.Report{}, err
		}
		resp, err := client.Do(req)
		if err != nil {
			return statistics.Report{}, fmt.Errorf("fetch report: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			var body struct {
				Error string `json:"error"`
			}
			_ = json.NewDecoder(resp.Body).Decode(&body)
			return statistics.Report{}, fmt.Errorf("fetch report: %s: %s", resp.Status, body.Error)
		}

		var rep statistics.Report
		if err := json.NewDecoder(resp.Body).Decode(&rep); err != nil {
			return statistics.Report{}, fmt.Errorf("decode report: %w", err)
		}
		return rep, nil
	}
}

type reportMsg struct {
	report statistics.Report
	at     time.Time
}

type errMsg struct{ err error }

type tickMsg time.Time

// Model is the bubbletea model for the dashboard
type Model struct {
	load     Loader
	interval time.Duration
	logger   *log.Logger

	spinner spinner.Model
	upcards table.Model

	report   statistics.Report
	updated  time.Time
	err      error
	loading  bool
	loaded   bool
	quitting bool
}

// New creates a dashboard that refreshes every interval
func New(load Loader, interval time.Duration, logger *log.Logger) *Model {
	if interval <= 0 {
		interval = DefaultInterval
	}

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#7D56F4"))

	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "Upcard", Width: 8},
			{Title: "Hands", Width: 8},
			{Title: "Busts", Width: 8},
			{Title: "Bust %", Width: 8},
			{Title: "Avg", Width: 8},
		}),
		table.WithHeight(11),
	)

	return &Model{
		load:     load,
		interval: interval,
		logger:   logger.WithPrefix("dashboard"),
		spinner:  sp,
		upcards:  t,
	}
}

// Init starts the spinner and the first fetch
func (m *Model) Init() tea.Cmd {
	m.loading = true
	return tea.Batch(m.spinner.Tick, m.fetch())
}

func (m *Model) fetch() tea.Cmd {
	load := m.load
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()
		rep, err := load(ctx)
		if err != nil {
			return errMsg{err}
		}
		return reportMsg{report: rep, at: time.Now()}
	}
}

func (m *Model) schedule() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// Update handles messages
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		case "r":
			if m.loading {
				return m, nil
			}
			m.loading = true
			return m, m.fetch()
		}
		var cmd tea.Cmd
		m.upcards, cmd = m.upcards.Update(msg)
		return m, cmd

	case reportMsg:
		m.loading = false
		m.loaded = true
		m.err = nil
		m.report = msg.report
		m.updated = msg.at
		m.upcards.SetRows(upcardRows(msg.report))
		return m, m.schedule()

	case errMsg:
		m.loading = false
		m.err = msg.err
		m.logger.Debug("Failed to refresh", "error", msg.err)
		return m, m.schedule()

	case tickMsg:
		if m.loading {
			return m, nil
		}
		m.loading = true
		return m, m.fetch()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the dashboard
func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render("Blackjack advisor"))
	if m.loading {
		b.WriteString(" " + m.spinner.View())
	}
	b.WriteString("\n\n")

	if !m.loaded {
		if m.err != nil {
			b.WriteString(errorStyle.Render("error: "+m.err.Error()) + "\n")
		} else {
			b.WriteString(labelStyle.Render("Loading statistics...") + "\n")
		}
		b.WriteString("\n" + footerStyle.Render("q quit"))
		return b.String()
	}

	s := m.report.Summary
	b.WriteString(m.metric("hands", strconv.Itoa(s.Hands)))
	b.WriteString(m.metric("win rate", fmt.Sprintf("%.2f%%", s.WinRate)))
	b.WriteString(m.metric("blackjacks", fmt.Sprintf("%d (%.2f%%)", s.Blackjacks, s.BlackjackRate)))
	b.WriteString(m.metric("busts", fmt.Sprintf("%d (%.2f%%)", s.Busts, s.BustRate)))

	net := fmt.Sprintf("%d", s.NetProfit)
	if s.NetProfit >= 0 {
		net = goodStyle.Render(net)
	} else {
		net = badStyle.Render(net)
	}
	b.WriteString(m.metric("net", net))
	b.WriteString(m.metric("roi", fmt.Sprintf("%.2f%%", s.ROI)))
	b.WriteString(m.metric("doubles", fmt.Sprintf("%g/%d (%.2f%%)", m.report.Doubles.Success, m.report.Doubles.Total, m.report.Doubles.Percent)))
	b.WriteString(m.metric("splits", fmt.Sprintf("%g/%d (%.2f%%)", m.report.Splits.Success, m.report.Splits.Total, m.report.Splits.Percent)))

	b.WriteString("\n" + labelStyle.Render("Dealer by upcard") + "\n")
	b.WriteString(m.upcards.View() + "\n")

	if m.err != nil {
		b.WriteString(errorStyle.Render("last refresh failed: "+m.err.Error()) + "\n")
	}

	footer := fmt.Sprintf("updated %s  r refresh  q quit", m.updated.Format(time.TimeOnly))
	b.WriteString("\n" + footerStyle.Render(footer))
	return b.String()
}

func (m *Model) metric(label, value string) string {
	return fmt.Sprintf("%s %s\n", labelStyle.Render(fmt.Sprintf("%-11s", label)), value)
}

func upcardRows(rep statistics.Report) []table.Row {
	rows := make([]table.Row, 0, len(rep.ByUpcard))
	for _, u := range rep.ByUpcard {
		avg := "-"
		if u.ValueHands > 0 {
			avg = fmt.Sprintf("%.2f", u.AvgValue)
		}
		rows = append(rows, table.Row{
			u.Upcard,
			strconv.Itoa(u.Hands),
			strconv.Itoa(u.Busts),
			fmt.Sprintf("%.2f", u.BustRate),
			avg,
		})
	}
	return rows
}

// Run starts the dashboard program
func Run(ctx context.Context, load Loader, interval time.Duration, logger *log.Logger) error {
	p := tea.NewProgram(New(load, interval, logger), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}
