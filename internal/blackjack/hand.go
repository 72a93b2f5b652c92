package blackjack

import (
	"strings"

	"github.com/tabletalk/tabletalk/internal/deck"
)

// Hand is an ordered blackjack hand.
type Hand []deck.Card

// Value computes the hand total with ace flexibility: every ace counts as
// 11 unless that would bust the hand, in which case it demotes to 1. The
// demotion is re-evaluated on every added card, so value is independent
// of draw order. soft reports whether an ace is still counted as 11.
func (h Hand) Value() (total int, soft bool) {
	aces := 0
	for _, c := range h {
		switch {
		case c.IsAce():
			aces++
			total += 11
		case c.IsFaceCard():
			total += 10
		case c.Rank == deck.Ten:
			total += 10
		default:
			total += int(c.Rank)
		}
	}
	for total > 21 && aces > 0 {
		total -= 10
		aces--
	}
	return total, aces > 0
}

// Total returns just the numeric value.
func (h Hand) Total() int {
	total, _ := h.Value()
	return total
}

// IsBust reports whether the hand exceeds 21.
func (h Hand) IsBust() bool {
	return h.Total() > 21
}

// IsNatural reports a two-card 21.
func (h Hand) IsNatural() bool {
	return len(h) == 2 && h.Total() == 21
}

// String renders the hand for logs (e.g. "A♠ T♦").
func (h Hand) String() string {
	parts := make([]string, len(h))
	for i, c := range h {
		parts[i] = c.String()
	}
	return strings.Join(parts, " ")
}
