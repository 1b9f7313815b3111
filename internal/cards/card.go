package cards

import (
	"errors"
	"fmt"
	"strings"
)

// Rank is the face rank of a blackjack card. Suits never affect value so they
// are kept only for display.
type Rank uint8

const (
	// NoRank is the zero value, used for the hidden hole card and garbage tokens
	NoRank Rank = iota
	Two
	Three
	Four
	Five
	Six
	Seven
	Eight
	Nine
	Ten
	Jack
	Queen
	King
	Ace
)

// Unknown is the token the casino sends for the dealer's face-down card
const Unknown = "?"

// Pip values
const (
	TenValue  = 10
	SoftAce   = 11
	HardAce   = 1
	AceFlex   = SoftAce - HardAce
	Blackjack = 21
)

var (
	ErrUnknownRank = errors.New("unknown card rank")
	ErrHiddenCard  = errors.New("hidden card")
	ErrEmptyToken  = errors.New("empty card token")
)

// Card is a parsed card token
type Card struct {
	Rank Rank
	Suit byte // 0 when the token carried no suit
}

// String returns the rank character and suit, e.g. "KD" or "X"
func (c Card) String() string {
	if c.Rank == NoRank {
		return Unknown
	}
	s := c.Rank.String()
	if c.Suit != 0 {
		s += string(c.Suit)
	}
	return s
}

// Pip returns the card's value with an Ace counted soft
func (c Card) Pip() int {
	return c.Rank.Pip()
}

// String returns the single character the casino uses for the rank
func (r Rank) String() string {
	switch r {
	case Two, Three, Four, Five, Six, Seven, Eight, Nine:
		return string(rune('0' + int(r) + 1))
	case Ten:
		return "X"
	case Jack:
		return "J"
	case Queen:
		return "Q"
	case King:
		return "K"
	case Ace:
		return "A"
	default:
		return Unknown
	}
}

// Pip maps a rank to its blackjack value. Aces are 11 here; downgrading to 1
// is the evaluator's job.
func (r Rank) Pip() int {
	switch {
	case r >= Two && r <= Nine:
		return int(r) + 1
	case r >= Ten && r <= King:
		return TenValue
	case r == Ace:
		return SoftAce
	default:
		return 0
	}
}

// Parse parses a token like "KD", "5H", "AS", "XC" or "10S". The hidden card
// token "?" returns ErrHiddenCard.
func Parse(token string) (Card, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Card{}, ErrEmptyToken
	}
	if token == Unknown {
		return Card{}, ErrHiddenCard
	}

	// "10" is the only two-character rank
	rankPart, suitPart := token[:1], token[1:]
	if strings.HasPrefix(token, "10") {
		rankPart, suitPart = "10", token[2:]
	}

	var rank Rank
	switch strings.ToUpper(rankPart) {
	case "2":
		rank = Two
	case "3":
		rank = Three
	case "4":
		rank = Four
	case "5":
		rank = Five
	case "6":
		rank = Six
	case "7":
		rank = Seven
	case "8":
		rank = Eight
	case "9":
		rank = Nine
	case "X", "T", "10":
		rank = Ten
	case "J":
		rank = Jack
	case "Q":
		rank = Queen
	case "K":
		rank = King
	case "A":
		rank = Ace
	default:
		return Card{}, fmt.Errorf("%w: %q", ErrUnknownRank, token)
	}

	card := Card{Rank: rank}
	if len(suitPart) > 0 {
		card.Suit = strings.ToUpper(suitPart)[0]
	}
	return card, nil
}

// Pip returns the soft pip value of a token, or 0 for the hidden card and
// anything unparseable.
func Pip(token string) int {
	card, err := Parse(token)
	if err != nil {
		return 0
	}
	return card.Pip()
}

// IsAce reports whether the token is an Ace
func IsAce(token string) bool {
	card, err := Parse(token)
	return err == nil && card.Rank == Ace
}

// ParseAll parses a sequence of tokens, skipping hidden cards. The first
// unrecognised token aborts with an error naming its position.
func ParseAll(tokens []string) ([]Card, error) {
	out := make([]Card, 0, len(tokens))
	for i, token := range tokens {
		card, err := Parse(token)
		if errors.Is(err, ErrHiddenCard) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("card %d: %w", i+1, err)
		}
		out = append(out, card)
	}
	return out, nil
}

// Split splits a comma or space separated list like "AS,7D" or "AS 7D" into
// tokens.
func Split(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' '
	})
}
