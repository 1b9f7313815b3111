package evaluator

import (
	"fmt"

	"github.com/lox/blackjack-advisor/internal/cards"
)

// Shape classifies a hand for strategy lookup
type Shape int

const (
	Hard Shape = iota
	Soft
	Pair
)

// String returns the string representation of a hand shape
func (s Shape) String() string {
	switch s {
	case Hard:
		return "hard"
	case Soft:
		return "soft"
	case Pair:
		return "pair"
	default:
		return "unknown"
	}
}

// HandValue is the best total of a hand under the ace-flex rule
type HandValue struct {
	Total int
	Soft  bool // at least one Ace still counted as 11
}

// IsBust reports whether the hand is over 21 with every Ace counted as 1
func (v HandValue) IsBust() bool {
	return v.Total > cards.Blackjack
}

// String returns a string like "soft 18" or "hard 22"
func (v HandValue) String() string {
	if v.Soft {
		return fmt.Sprintf("soft %d", v.Total)
	}
	return fmt.Sprintf("hard %d", v.Total)
}

// Evaluate computes the highest total not over 21, downgrading Aces from 11 to
// 1 one at a time. When every Ace is already 1 the total is returned as is,
// so a bust hand reports its minimum total. Hidden and unrecognised tokens
// contribute nothing.
func Evaluate(hand []string) HandValue {
	total := 0
	softAces := 0

	for _, token := range hand {
		if cards.IsAce(token) {
			softAces++
		}
		total += cards.Pip(token)
	}

	for total > cards.Blackjack && softAces > 0 {
		total -= cards.AceFlex
		softAces--
	}

	return HandValue{Total: total, Soft: softAces > 0}
}

// IsPair reports whether the hand is exactly two cards of equal pip value.
// All ten-valued ranks pair with each other.
func IsPair(hand []string) bool {
	return PairValue(hand) > 0
}

// PairValue returns the pip value shared by a two-card pair (Aces are 11), or
// 0 when the hand is not a pair.
func PairValue(hand []string) int {
	if len(hand) != 2 {
		return 0
	}
	first, second := cards.Pip(hand[0]), cards.Pip(hand[1])
	if first == 0 || first != second {
		return 0
	}
	return first
}

// Classify returns Pair for a splittable two-card hand, otherwise Soft or Hard
// based on the evaluated total.
func Classify(hand []string) Shape {
	if IsPair(hand) {
		return Pair
	}
	if Evaluate(hand).Soft {
		return Soft
	}
	return Hard
}

// UpcardValue returns the pip value of the dealer's first card, 0 when there
// is no card or it is hidden.
func UpcardValue(dealer []string) int {
	if len(dealer) == 0 {
		return 0
	}
	return cards.Pip(dealer[0])
}
