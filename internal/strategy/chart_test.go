package strategy

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewChart(t *testing.T) {
	c, err := NewChart("test", 10, "HHHHHDDDDD", "SS SS SPPP PP")
	require.NoError(t, err)
	assert.Equal(t, 10, c.MinRow())
	assert.Equal(t, 11, c.MaxRow())

	cell, ok := c.Lookup(10, 2)
	assert.True(t, ok)
	assert.Equal(t, CellHit, cell)

	cell, ok = c.Lookup(10, 11)
	assert.True(t, ok)
	assert.Equal(t, CellDouble, cell)

	cell, ok = c.Lookup(11, 7)
	assert.True(t, ok)
	assert.Equal(t, CellSplit, cell)

	_, ok = c.Lookup(12, 5)
	assert.False(t, ok)
	_, ok = c.Lookup(10, 1)
	assert.False(t, ok)
	_, ok = c.Lookup(10, 12)
	assert.False(t, ok)
}

func TestNewChartErrors(t *testing.T) {
	_, err := NewChart("short", 5, "HHH")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "short chart row 5")

	_, err = NewChart("wide", 5, "SSSSSSSSSSé")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "want 10 cells, got 11")

	_, err = NewChart("bad", 5, "HHHHHHHHHZ")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid chart cell")

	assert.Panics(t, func() { MustChart("bad", 5, "Z") })
}

func TestBasicTablesComplete(t *testing.T) {
	tables := BasicTables()
	require.NoError(t, tables.Validate())

	assert.Equal(t, HardMin, tables.Hard.MinRow())
	assert.Equal(t, HardMax, tables.Hard.MaxRow())
	assert.Equal(t, SoftMin, tables.Soft.MinRow())
	assert.Equal(t, SoftMax, tables.Soft.MaxRow())
	assert.Equal(t, PairMin, tables.Pairs.MinRow())
	assert.Equal(t, PairMax, tables.Pairs.MaxRow())
}

func TestBasicTableSpotChecks(t *testing.T) {
	tables := BasicTables()
	tests := []struct {
		name   string
		chart  Chart
		row    int
		upcard int
		want   Cell
	}{
		{"hard 11 vs 6", tables.Hard, 11, 6, CellDouble},
		{"hard 11 vs ace", tables.Hard, 11, 11, CellHit},
		{"hard 12 vs 4", tables.Hard, 12, 4, CellStand},
		{"hard 12 vs 2", tables.Hard, 12, 2, CellHit},
		{"hard 16 vs 10", tables.Hard, 16, 10, CellHit},
		{"hard 9 vs 2", tables.Hard, 9, 2, CellHit},
		{"soft 18 vs 2", tables.Soft, 18, 2, CellStand},
		{"soft 18 vs 6", tables.Soft, 18, 6, CellDouble},
		{"soft 18 vs 9", tables.Soft, 18, 9, CellHit},
		{"soft 13 vs 5", tables.Soft, 13, 5, CellDouble},
		{"eights vs ace", tables.Pairs, 8, 11, CellSplit},
		{"nines vs 7", tables.Pairs, 9, 7, CellStand},
		{"tens vs 6", tables.Pairs, 10, 6, CellStand},
		{"fours vs 5", tables.Pairs, 4, 5, CellSplit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cell, ok := tt.chart.Lookup(tt.row, tt.upcard)
			require.True(t, ok)
			assert.Equal(t, tt.want, cell)
		})
	}
}

func TestChartString(t *testing.T) {
	out := BasicTables().Soft.String()
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 1+SoftMax-SoftMin+1)
	assert.Contains(t, lines[0], "A")
	assert.True(t, strings.HasPrefix(lines[1], "20"))
}

func TestCellAction(t *testing.T) {
	assert.Equal(t, Stand, CellStand.Action())
	assert.Equal(t, Hit, CellHit.Action())
	assert.Equal(t, Double, CellDouble.Action())
	assert.Equal(t, Split, CellSplit.Action())
	assert.Equal(t, None, CellEmpty.Action())
	assert.Equal(t, ".", CellEmpty.String())
}
