package statistics

import (
	"sort"
	"strconv"
	"time"
)

// minDealerSample is the smallest per-upcard sample shown in the average
// dealer value section
const minDealerSample = 10

// recentDays is how many days the daily section covers
const recentDays = 10

// ValueRow is the win rate for one player final value
type ValueRow struct {
	Value   int     `json:"value"`
	Hands   int     `json:"hands"`
	Wins    int     `json:"wins"`
	WinRate float64 `json:"win_rate"`
}

// UpcardRow aggregates dealer results for one upcard
type UpcardRow struct {
	Upcard     string  `json:"upcard"`
	Hands      int     `json:"hands"`
	Busts      int     `json:"busts"`
	BustRate   float64 `json:"bust_rate"`
	AvgValue   float64 `json:"avg_value"`   // mean final value of non-bust dealer hands
	ValueHands int     `json:"value_hands"` // non-bust hands behind AvgValue
}

// ActionRow is one entry of the action distribution
type ActionRow struct {
	Action  string  `json:"action"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}

// DayRow summarises one calendar day
type DayRow struct {
	Date    string  `json:"date"`
	Hands   int     `json:"hands"`
	Wins    int     `json:"wins"`
	WinRate float64 `json:"win_rate"`
	Wagered int64   `json:"wagered"`
	Net     int64   `json:"net"`
}

// Rate is a success count over a sample
type Rate struct {
	Success float64 `json:"success"`
	Total   int     `json:"total"`
	Percent float64 `json:"percent"`
}

// Report is the full analysis of recorded hands
type Report struct {
	Summary       Snapshot    `json:"summary"`
	HouseEdge     float64     `json:"house_edge"`
	ByPlayerValue []ValueRow  `json:"by_player_value"`
	ByUpcard      []UpcardRow `json:"by_upcard"`
	Doubles       Rate        `json:"doubles"`
	Splits        Rate        `json:"splits"`
	Actions       []ActionRow `json:"actions"`
	Days          []DayRow    `json:"days"`
}

// AverageDealerRows returns the upcards with enough non-bust samples to show
// an average final value
func (r Report) AverageDealerRows() []UpcardRow {
	var out []UpcardRow
	for _, row := range r.ByUpcard {
		if row.ValueHands > minDealerSample {
			out = append(out, row)
		}
	}
	return out
}

// BuildReport analyses settled hands and the recorded action counts. Days are
// bucketed in loc.
func BuildReport(results []HandResult, actions map[string]int, loc *time.Location) Report {
	if loc == nil {
		loc = time.UTC
	}

	var (
		summary  Summary
		byValue  = map[int]*ValueRow{}
		byUpcard = map[string]*UpcardRow{}
		valueSum = map[string]int{}
		byDay    = map[string]*DayRow{}
		doubles  Rate
		splits   Rate
	)

	for _, r := range results {
		summary.Add(r)
		win := r.IsWin()

		if r.PlayerValue > 0 {
			row := byValue[r.PlayerValue]
			if row == nil {
				row = &ValueRow{Value: r.PlayerValue}
				byValue[r.PlayerValue] = row
			}
			row.Hands++
			if win {
				row.Wins++
			}
		}

		if r.Upcard != "" && r.Upcard != "?" {
			row := byUpcard[r.Upcard]
			if row == nil {
				row = &UpcardRow{Upcard: r.Upcard}
				byUpcard[r.Upcard] = row
			}
			row.Hands++
			if r.DealerValue < 0 || r.DealerValue > 21 {
				row.Busts++
			} else if r.DealerValue > 0 {
				row.ValueHands++
				valueSum[r.Upcard] += r.DealerValue
			}
		}

		if r.DoubledDown {
			doubles.Total++
			if win {
				doubles.Success++
			}
		}

		if r.HasSplit {
			splits.Total++
			mainWon, splitWon := r.Status == Won, r.StatusSplit == Won
			switch {
			case mainWon && splitWon:
				splits.Success++
			case mainWon || splitWon:
				splits.Success += 0.5
			}
		}

		if !r.At.IsZero() {
			day := r.At.In(loc).Format(time.DateOnly)
			row := byDay[day]
			if row == nil {
				row = &DayRow{Date: day}
				byDay[day] = row
			}
			row.Hands++
			if win {
				row.Wins++
			}
			row.Wagered += r.Wager
			row.Net += r.Payout - r.Wager
		}
	}

	rep := Report{
		Summary:   summary.Snapshot(),
		HouseEdge: summary.HouseEdge(),
		Doubles:   finishRate(doubles),
		Splits:    finishRate(splits),
	}

	for _, row := range byValue {
		row.WinRate = Percent(row.Wins, row.Hands)
		rep.ByPlayerValue = append(rep.ByPlayerValue, *row)
	}
	sort.Slice(rep.ByPlayerValue, func(i, j int) bool {
		return rep.ByPlayerValue[i].Value < rep.ByPlayerValue[j].Value
	})

	for upcard, row := range byUpcard {
		row.BustRate = Percent(row.Busts, row.Hands)
		if row.ValueHands > 0 {
			row.AvgValue = round2(float64(valueSum[upcard]) / float64(row.ValueHands))
		}
		rep.ByUpcard = append(rep.ByUpcard, *row)
	}
	sort.Slice(rep.ByUpcard, func(i, j int) bool {
		return upcardOrder(rep.ByUpcard[i].Upcard) < upcardOrder(rep.ByUpcard[j].Upcard)
	})

	rep.Actions = actionRows(actions)

	for _, row := range byDay {
		row.WinRate = Percent(row.Wins, row.Hands)
		rep.Days = append(rep.Days, *row)
	}
	sort.Slice(rep.Days, func(i, j int) bool {
		return rep.Days[i].Date > rep.Days[j].Date
	})
	if len(rep.Days) > recentDays {
		rep.Days = rep.Days[:recentDays]
	}

	return rep
}

func finishRate(r Rate) Rate {
	if r.Total > 0 {
		r.Percent = round2(r.Success / float64(r.Total) * 100)
	}
	return r
}

func actionRows(actions map[string]int) []ActionRow {
	total := 0
	for _, n := range actions {
		total += n
	}
	rows := make([]ActionRow, 0, len(actions))
	for action, n := range actions {
		rows = append(rows, ActionRow{Action: action, Count: n, Percent: Percent(n, total)})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Count != rows[j].Count {
			return rows[i].Count > rows[j].Count
		}
		return rows[i].Action < rows[j].Action
	})
	return rows
}

// upcardOrder sorts upcards 2-9, ten-valued ranks, then Ace
func upcardOrder(upcard string) int {
	switch upcard {
	case "X", "T", "10":
		return 10
	case "J":
		return 11
	case "Q":
		return 12
	case "K":
		return 13
	case "A":
		return 14
	}
	if n, err := strconv.Atoi(upcard); err == nil {
		return n
	}
	return 99
}
