package report

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/lox/blackjack-advisor/internal/statistics"
)

// Options controls terminal rendering
type Options struct {
	NoColor bool
}

type renderer struct {
	w       io.Writer
	heading lipgloss.Style
	good    lipgloss.Style
	bad     lipgloss.Style
	muted   lipgloss.Style
	err     error
}

func newRenderer(w io.Writer, opts Options) *renderer {
	r := lipgloss.NewRenderer(w)
	if opts.NoColor {
		r.SetColorProfile(termenv.Ascii)
	}
	return &renderer{
		w: w,
		heading: r.NewStyle().
			Foreground(lipgloss.Color("#7D56F4")).
			Bold(true),
		good: r.NewStyle().
			Foreground(lipgloss.Color("#96CEB4")).
			Bold(true),
		bad: r.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B")).
			Bold(true),
		muted: r.NewStyle().
			Foreground(lipgloss.Color("#626262")),
	}
}

func (r *renderer) printf(format string, args ...any) {
	if r.err != nil {
		return
	}
	_, r.err = fmt.Fprintf(r.w, format, args...)
}

func (r *renderer) section(title string) {
	r.printf("\n%s\n", r.heading.Render(title))
}

// table writes rows aligned in columns. Cells are left unstyled so widths line
// up.
func (r *renderer) table(header string, rows func(w io.Writer)) {
	if r.err != nil {
		return
	}
	tw := tabwriter.NewWriter(r.w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, header)
	rows(tw)
	r.err = tw.Flush()
}

// Render prints every report section
func Render(w io.Writer, rep statistics.Report, opts Options) error {
	r := newRenderer(w, opts)
	s := rep.Summary

	r.printf("%s\n", r.heading.Render("Blackjack analysis"))
	if s.Hands == 0 {
		r.printf("%s\n", r.muted.Render("No settled hands recorded."))
		return r.err
	}

	r.section("Overall statistics")
	r.table("metric\tvalue", func(w io.Writer) {
		fmt.Fprintf(w, "hands\t%d\n", s.Hands)
		fmt.Fprintf(w, "wins\t%d (%.2f%%)\n", s.Wins, s.WinRate)
		fmt.Fprintf(w, "losses\t%d (%.2f%%)\n", s.Losses, s.LossRate)
		fmt.Fprintf(w, "pushes\t%d (%.2f%%)\n", s.Pushes, s.PushRate)
		fmt.Fprintf(w, "blackjacks\t%d (%.2f%%)\n", s.Blackjacks, s.BlackjackRate)
		fmt.Fprintf(w, "busts\t%d (%.2f%%)\n", s.Busts, s.BustRate)
		fmt.Fprintf(w, "wagered\t%d\n", s.TotalWagered)
		fmt.Fprintf(w, "payout\t%d\n", s.TotalPayout)
		fmt.Fprintf(w, "roi\t%.2f%%\n", s.ROI)
	})

	profit := fmt.Sprintf("net profit %d", s.NetProfit)
	if s.NetProfit >= 0 {
		r.printf("%s\n", r.good.Render(profit))
	} else {
		r.printf("%s\n", r.bad.Render(profit))
	}
	r.printf("house edge %.2f%%\n", rep.HouseEdge)

	if len(rep.ByPlayerValue) > 0 {
		r.section("Win rate by player value")
		r.table("value\thands\twins\twin rate", func(w io.Writer) {
			for _, row := range rep.ByPlayerValue {
				fmt.Fprintf(w, "%d\t%d\t%d\t%.2f%%\n", row.Value, row.Hands, row.Wins, row.WinRate)
			}
		})
	}

	if len(rep.ByUpcard) > 0 {
		r.section("Dealer bust rate by upcard")
		r.table("upcard\thands\tbusts\tbust rate", func(w io.Writer) {
			for _, row := range rep.ByUpcard {
				fmt.Fprintf(w, "%s\t%d\t%d\t%.2f%%\n", row.Upcard, row.Hands, row.Busts, row.BustRate)
			}
		})
	}

	if rows := rep.AverageDealerRows(); len(rows) > 0 {
		r.section("Average dealer final value by upcard")
		r.table("upcard\taverage\tsample", func(w io.Writer) {
			for _, row := range rows {
				fmt.Fprintf(w, "%s\t%.2f\t%d\n", row.Upcard, row.AvgValue, row.ValueHands)
			}
		})
	}

	r.section("Doubles and splits")
	r.table("play\tsuccess\ttotal\trate", func(w io.Writer) {
		fmt.Fprintf(w, "double down\t%g\t%d\t%.2f%%\n", rep.Doubles.Success, rep.Doubles.Total, rep.Doubles.Percent)
		fmt.Fprintf(w, "split\t%g\t%d\t%.2f%%\n", rep.Splits.Success, rep.Splits.Total, rep.Splits.Percent)
	})

	if len(rep.Actions) > 0 {
		r.section("Action distribution")
		r.table("action\tcount\tshare", func(w io.Writer) {
			for _, row := range rep.Actions {
				fmt.Fprintf(w, "%s\t%d\t%.2f%%\n", row.Action, row.Count, row.Percent)
			}
		})
	}

	if len(rep.Days) > 0 {
		r.section("Recent days")
		r.table("date\thands\twin rate\twagered\tnet", func(w io.Writer) {
			for _, row := range rep.Days {
				fmt.Fprintf(w, "%s\t%d\t%.2f%%\t%d\t%d\n", row.Date, row.Hands, row.WinRate, row.Wagered, row.Net)
			}
		})
	}

	return r.err
}
