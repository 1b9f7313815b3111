// Package sessionid generates time-ordered identifiers for client sessions.
// An ID is a UUIDv7 rendered as 26 characters of Crockford base32, so IDs
// sort by creation time.
package sessionid

import (
	"crypto/rand"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/coder/quartz"
)

// Length is the number of characters in an ID
const Length = 26

const alphabet = "0123456789abcdefghjkmnpqrstvwxyz"

// Generator mints IDs from a clock and an entropy source. It is safe for
// concurrent use.
type Generator struct {
	clock   quartz.Clock
	mu      sync.Mutex
	entropy io.Reader
}

// NewGenerator returns a generator. A nil clock uses the real clock and a nil
// entropy source uses crypto/rand.
func NewGenerator(clock quartz.Clock, entropy io.Reader) *Generator {
	if clock == nil {
		clock = quartz.NewReal()
	}
	if entropy == nil {
		entropy = rand.Reader
	}
	return &Generator{clock: clock, entropy: entropy}
}

// Next returns a new ID
func (g *Generator) Next() (string, error) {
	var id [16]byte

	ms := uint64(g.clock.Now("sessionid").UnixMilli())
	for i := 0; i < 6; i++ {
		id[i] = byte(ms >> (40 - 8*i))
	}

	g.mu.Lock()
	_, err := io.ReadFull(g.entropy, id[6:])
	g.mu.Unlock()
	if err != nil {
		return "", fmt.Errorf("read entropy: %w", err)
	}

	id[6] = (id[6] & 0x0f) | 0x70 // version 7
	id[8] = (id[8] & 0x3f) | 0x80 // RFC 4122 variant

	return encode(id), nil
}

// encode writes the 128 bits as 26 five-bit groups, most significant first,
// padding the final group with two zero bits
func encode(id [16]byte) string {
	var b strings.Builder
	b.Grow(Length)
	for i := 0; i < Length; i++ {
		var v byte
		for bit := i * 5; bit < i*5+5; bit++ {
			v <<= 1
			if bit < 128 && id[bit/8]&(0x80>>(bit%8)) != 0 {
				v |= 1
			}
		}
		b.WriteByte(alphabet[v])
	}
	return b.String()
}

// Validate checks that id has the shape Next produces
func Validate(id string) error {
	if len(id) != Length {
		return fmt.Errorf("session id must be %d characters, got %d", Length, len(id))
	}
	for i, c := range id {
		if !strings.ContainsRune(alphabet, c) {
			return fmt.Errorf("invalid character %q at position %d", c, i)
		}
	}
	return nil
}
