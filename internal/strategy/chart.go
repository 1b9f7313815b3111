package strategy

import (
	"fmt"
	"strings"
)

// Cell is one entry of a strategy chart
type Cell uint8

const (
	// CellEmpty marks a position the chart does not cover
	CellEmpty Cell = iota
	CellStand
	CellHit
	CellDouble
	CellSplit
)

// String returns the chart letter for the cell
func (c Cell) String() string {
	switch c {
	case CellStand:
		return "S"
	case CellHit:
		return "H"
	case CellDouble:
		return "D"
	case CellSplit:
		return "P"
	default:
		return "."
	}
}

// Action returns the action a cell asks for before any legality rules apply
func (c Cell) Action() Action {
	switch c {
	case CellStand:
		return Stand
	case CellHit:
		return Hit
	case CellDouble:
		return Double
	case CellSplit:
		return Split
	default:
		return None
	}
}

func parseCell(r rune) (Cell, error) {
	switch r {
	case 'S', 's':
		return CellStand, nil
	case 'H', 'h':
		return CellHit, nil
	case 'D', 'd':
		return CellDouble, nil
	case 'P', 'p':
		return CellSplit, nil
	default:
		return CellEmpty, fmt.Errorf("invalid chart cell %q", r)
	}
}

// Dealer upcard axis. The Ace is 11 on this axis only.
const (
	MinUpcard = 2
	MaxUpcard = 11
	upcards   = MaxUpcard - MinUpcard + 1
)

// Chart maps (row, dealer upcard) to a cell. Rows are player totals for the
// hard and soft charts and pip values for the pair chart. A Chart is
// immutable once built.
type Chart struct {
	name   string
	minRow int
	rows   [][upcards]Cell
}

// NewChart builds a chart whose first row is minRow. Each row string holds one
// letter per dealer upcard from 2 to Ace: S(tand), H(it), D(ouble), P (split).
func NewChart(name string, minRow int, rows ...string) (Chart, error) {
	c := Chart{
		name:   name,
		minRow: minRow,
		rows:   make([][upcards]Cell, len(rows)),
	}
	for i, row := range rows {
		row = strings.ReplaceAll(row, " ", "")
		if n := len([]rune(row)); n != upcards {
			return Chart{}, fmt.Errorf("%s chart row %d: want %d cells, got %d", name, minRow+i, upcards, n)
		}
		for j, r := range row {
			cell, err := parseCell(r)
			if err != nil {
				return Chart{}, fmt.Errorf("%s chart row %d: %w", name, minRow+i, err)
			}
			c.rows[i][j] = cell
		}
	}
	return c, nil
}

// MustChart is like NewChart but panics on malformed rows. It is meant for
// charts compiled into the binary.
func MustChart(name string, minRow int, rows ...string) Chart {
	c, err := NewChart(name, minRow, rows...)
	if err != nil {
		panic(err)
	}
	return c
}

// Name returns the chart name
func (c Chart) Name() string {
	return c.name
}

// MinRow returns the first covered row
func (c Chart) MinRow() int {
	return c.minRow
}

// MaxRow returns the last covered row
func (c Chart) MaxRow() int {
	return c.minRow + len(c.rows) - 1
}

// Covers reports whether the row is inside the chart
func (c Chart) Covers(row int) bool {
	return row >= c.minRow && row <= c.MaxRow()
}

// Lookup returns the cell for a row and dealer upcard. ok is false when either
// is outside the chart.
func (c Chart) Lookup(row, upcard int) (Cell, bool) {
	if !c.Covers(row) || upcard < MinUpcard || upcard > MaxUpcard {
		return CellEmpty, false
	}
	cell := c.rows[row-c.minRow][upcard-MinUpcard]
	return cell, cell != CellEmpty
}

// String renders the chart as a grid with a header row of upcards
func (c Chart) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%-6s", c.name)
	for up := MinUpcard; up <= MaxUpcard; up++ {
		label := fmt.Sprint(up)
		if up == MaxUpcard {
			label = "A"
		}
		fmt.Fprintf(&b, "%3s", label)
	}
	b.WriteByte('\n')
	for row := c.MaxRow(); row >= c.minRow; row-- {
		fmt.Fprintf(&b, "%-6d", row)
		for _, cell := range c.rows[row-c.minRow] {
			fmt.Fprintf(&b, "%3s", cell)
		}
		b.WriteByte('\n')
	}
	return b.String()
}
