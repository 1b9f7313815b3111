package main

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/lox/blackjack-advisor/internal/strategy"
)

var (
	chartTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#7D56F4")).
			Bold(true)

	legendStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262"))
)

// ChartCmd prints the charts a strategy decides from
type ChartCmd struct {
	Strategy string `help:"Strategy name (default from config)"`
	NoColor  bool   `help:"Disable colored output"`
}

func (c *ChartCmd) Run(g *Globals) error {
	cfg, err := g.load(nil)
	if err != nil {
		return err
	}

	if c.NoColor {
		lipgloss.SetColorProfile(termenv.Ascii)
	}

	registry, err := newRegistry(cfg)
	if err != nil {
		return err
	}
	engine, ok := registry.Get(c.Strategy)
	if !ok {
		return fmt.Errorf("unknown strategy %q", c.Strategy)
	}

	return writeCharts(os.Stdout, engine)
}

func writeCharts(w io.Writer, engine *strategy.Engine) error {
	tables := engine.Tables()
	fmt.Fprintln(w, chartTitleStyle.Render(engine.Name()))
	fmt.Fprintln(w, legendStyle.Render("S stand  H hit  D double  P split"))

	for _, section := range []struct {
		title string
		chart strategy.Chart
	}{
		{"Hard totals", tables.Hard},
		{"Soft totals", tables.Soft},
		{"Pairs by card value", tables.Pairs},
	} {
		heading := fmt.Sprintf("%s %d-%d", section.title, section.chart.MinRow(), section.chart.MaxRow())
		if _, err := fmt.Fprintf(w, "\n%s\n%s", chartTitleStyle.Render(heading), section.chart); err != nil {
			return err
		}
	}
	return nil
}
