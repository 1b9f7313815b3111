package sessionid

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"testing/iotest"
	"time"

	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextShape(t *testing.T) {
	g := NewGenerator(nil, nil)

	id, err := g.Next()
	require.NoError(t, err)
	assert.Len(t, id, Length)
	assert.NoError(t, Validate(id))
	assert.LessOrEqual(t, id[0], byte('7'), "top character only carries three bits")
}

func TestNextUnique(t *testing.T) {
	g := NewGenerator(nil, nil)
	seen := make(map[string]bool)
	for i := 0; i < 500; i++ {
		id, err := g.Next()
		require.NoError(t, err)
		require.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}

func TestNextSortsByTime(t *testing.T) {
	clock := quartz.NewMock(t)
	clock.Set(time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC))

	// Entropy that would sort backwards if time did not dominate
	entropy := bytes.NewReader(append(bytes.Repeat([]byte{0xff}, 10), bytes.Repeat([]byte{0x00}, 10)...))
	g := NewGenerator(clock, entropy)

	first, err := g.Next()
	require.NoError(t, err)
	clock.Advance(time.Millisecond)
	second, err := g.Next()
	require.NoError(t, err)

	assert.Less(t, first, second)
}

func TestNextDeterministic(t *testing.T) {
	clock := quartz.NewMock(t)
	clock.Set(time.UnixMilli(0))

	g := NewGenerator(clock, bytes.NewReader(make([]byte, 10)))
	id, err := g.Next()
	require.NoError(t, err)

	// Zero time and entropy leave only the version and variant bits set
	assert.Equal(t, "0000000001r010000000000000", id)
	assert.NoError(t, Validate(id))
}

func TestNextEntropyError(t *testing.T) {
	g := NewGenerator(nil, iotest.ErrReader(errors.New("drained")))
	_, err := g.Next()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read entropy")
}

func TestValidate(t *testing.T) {
	assert.Error(t, Validate("short"))
	assert.Error(t, Validate(strings.Repeat("0", Length-1)+"u"), "u is not in the alphabet")
	assert.Error(t, Validate(strings.Repeat("0", Length-1)+"I"))
	assert.NoError(t, Validate(strings.Repeat("z", Length)))
}
