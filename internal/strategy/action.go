package strategy

import (
	"strings"
)

// Action is a move the engine can recommend
type Action int

const (
	// None means no recommendation; the caller must not act
	None Action = iota
	// Hit takes another card
	Hit
	// Stand ends the hand
	Stand
	// Double doubles the wager and takes exactly one card
	Double
	// Split splits a pair into two hands
	Split
	// HitSplit hits the split hand
	HitSplit
	// StandSplit stands on the split hand
	StandSplit
)

var actionNames = [...]string{
	None:       "none",
	Hit:        "hit",
	Stand:      "stand",
	Double:     "double",
	Split:      "split",
	HitSplit:   "hit_split",
	StandSplit: "stand_split",
}

// String returns the wire name of an action
func (a Action) String() string {
	if a < None || a > StandSplit {
		return "unknown"
	}
	return actionNames[a]
}

// LegacyName returns the name the casino userscript clicks on, which calls
// standing "stay".
func (a Action) LegacyName() string {
	switch a {
	case Stand:
		return "stay"
	case StandSplit:
		return "stay_split"
	default:
		return a.String()
	}
}

// MarshalText encodes the action by name
func (a Action) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText decodes an action name; unknown names decode to None
func (a *Action) UnmarshalText(text []byte) error {
	parsed, _ := ParseAction(string(text))
	*a = parsed
	return nil
}

// IsSplitVariant reports whether the action applies to a split hand
func (a Action) IsSplitVariant() bool {
	return a == HitSplit || a == StandSplit
}

// ParseAction converts an action name to an Action. It accepts the engine's
// own names and the casino's button names (HIT, STAY, DOUBLE_DOWN, ...).
func ParseAction(s string) (Action, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none", "":
		return None, true
	case "hit":
		return Hit, true
	case "stand", "stay":
		return Stand, true
	case "double", "double_down", "doubledown":
		return Double, true
	case "split":
		return Split, true
	case "hit_split":
		return HitSplit, true
	case "stand_split", "stay_split":
		return StandSplit, true
	default:
		return None, false
	}
}

// ActionSet is an immutable set of legal actions
type ActionSet uint8

// NewActionSet builds a set from actions. None is never a member.
func NewActionSet(actions ...Action) ActionSet {
	var s ActionSet
	for _, a := range actions {
		s = s.With(a)
	}
	return s
}

// ParseActionSet builds a set from action names. Names that are not
// recommendable actions (DEAL, BUY_INSURANCE) are returned separately.
func ParseActionSet(names []string) (ActionSet, []string) {
	var (
		s     ActionSet
		other []string
	)
	for _, name := range names {
		a, ok := ParseAction(name)
		if !ok || a == None {
			other = append(other, name)
			continue
		}
		s = s.With(a)
	}
	return s, other
}

// With returns a copy of the set including a
func (s ActionSet) With(a Action) ActionSet {
	if a <= None || a > StandSplit {
		return s
	}
	return s | 1<<uint(a)
}

// Has reports whether a is in the set
func (s ActionSet) Has(a Action) bool {
	if a <= None || a > StandSplit {
		return false
	}
	return s&(1<<uint(a)) != 0
}

// Empty reports whether the set has no members
func (s ActionSet) Empty() bool {
	return s == 0
}

// Actions returns the members in declaration order
func (s ActionSet) Actions() []Action {
	var out []Action
	for a := Hit; a <= StandSplit; a++ {
		if s.Has(a) {
			out = append(out, a)
		}
	}
	return out
}

// String returns the members as a comma separated list
func (s ActionSet) String() string {
	names := make([]string, 0, 6)
	for _, a := range s.Actions() {
		names = append(names, a.String())
	}
	return "{" + strings.Join(names, ",") + "}"
}

// forSplitHand swaps hit and stand for their split-hand variants when the
// caller offers them.
func forSplitHand(a Action, legal ActionSet) Action {
	switch a {
	case Hit:
		if legal.Has(HitSplit) {
			return HitSplit
		}
	case Stand:
		if legal.Has(StandSplit) {
			return StandSplit
		}
	}
	return a
}

// fallbackOrder lists the substitutes tried, in order, when an intended
// action is not legal.
var fallbackOrder = map[Action][]Action{
	Hit:        {HitSplit, Hit, StandSplit, Stand},
	HitSplit:   {HitSplit, Hit, StandSplit, Stand},
	Stand:      {StandSplit, Stand, HitSplit, Hit},
	StandSplit: {StandSplit, Stand, HitSplit, Hit},
	Double:     {HitSplit, Hit, StandSplit, Stand},
	Split:      {HitSplit, Hit, StandSplit, Stand},
}

// legalize returns a if it is legal, otherwise the closest legal substitute,
// or None when nothing usable is legal.
func legalize(a Action, legal ActionSet) Action {
	if a == None || legal.Has(a) {
		return a
	}
	for _, alt := range fallbackOrder[a] {
		if legal.Has(alt) {
			return alt
		}
	}
	return None
}
