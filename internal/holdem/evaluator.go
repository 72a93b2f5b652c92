package holdem

import (
	"sort"

	"github.com/tabletalk/tabletalk/internal/deck"
)

// Category is the hand-ranking class, ordered weakest to strongest.
type Category int

const (
	HighCard Category = iota + 1
	OnePair
	TwoPair
	ThreeOfAKind
	Straight
	Flush
	FullHouse
	FourOfAKind
	StraightFlush
	RoyalFlush
)

// String returns the readable name of the category.
func (c Category) String() string {
	switch c {
	case HighCard:
		return "High Card"
	case OnePair:
		return "One Pair"
	case TwoPair:
		return "Two Pair"
	case ThreeOfAKind:
		return "Three of a Kind"
	case Straight:
		return "Straight"
	case Flush:
		return "Flush"
	case FullHouse:
		return "Full House"
	case FourOfAKind:
		return "Four of a Kind"
	case StraightFlush:
		return "Straight Flush"
	case RoyalFlush:
		return "Royal Flush"
	default:
		return "Unknown"
	}
}

// HandRank is an evaluated hand: category plus tie-break values in
// descending significance (e.g. for two pair: high pair, low pair,
// kicker).
type HandRank struct {
	Category Category
	Tiebreak []int
}

// Compare returns -1, 0 or 1 as h ranks below, equal to or above other.
func (h HandRank) Compare(other HandRank) int {
	switch {
	case h.Category < other.Category:
		return -1
	case h.Category > other.Category:
		return 1
	}
	for i := 0; i < len(h.Tiebreak) && i < len(other.Tiebreak); i++ {
		switch {
		case h.Tiebreak[i] < other.Tiebreak[i]:
			return -1
		case h.Tiebreak[i] > other.Tiebreak[i]:
			return 1
		}
	}
	return 0
}

// Evaluate returns the best 5-card ranking from 5 to 7 cards (2 hole + up
// to 5 community). The 21 combinations of 7 choose 5 are small enough
// that brute force beats table lookups for a single table.
func Evaluate(cards []deck.Card) HandRank {
	if len(cards) <= 5 {
		return evaluateFive(cards)
	}

	best := HandRank{}
	pick := make([]deck.Card, 0, 5)
	var recurse func(start, need int)
	recurse = func(start, need int) {
		if need == 0 {
			rank := evaluateFive(pick)
			if rank.Compare(best) > 0 {
				best = rank
			}
			return
		}
		for i := start; i <= len(cards)-need; i++ {
			pick = append(pick, cards[i])
			recurse(i+1, need-1)
			pick = pick[:len(pick)-1]
		}
	}
	recurse(0, 5)
	return best
}

func evaluateFive(cards []deck.Card) HandRank {
	values := make([]int, len(cards))
	for i, c := range cards {
		values[i] = c.Value()
	}
	sort.Sort(sort.Reverse(sort.IntSlice(values)))

	flush := len(cards) == 5
	for i := 1; i < len(cards); i++ {
		if cards[i].Suit != cards[0].Suit {
			flush = false
			break
		}
	}

	straight, straightHigh := isStraight(values)

	counts := map[int]int{}
	for _, v := range values {
		counts[v]++
	}
	// Group values by multiplicity, higher counts first, then higher
	// values; this ordering is exactly the tie-break significance.
	type group struct{ value, count int }
	groups := make([]group, 0, len(counts))
	for v, c := range counts {
		groups = append(groups, group{v, c})
	}
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].count != groups[j].count {
			return groups[i].count > groups[j].count
		}
		return groups[i].value > groups[j].value
	})

	tiebreak := make([]int, 0, len(groups))
	for _, g := range groups {
		tiebreak = append(tiebreak, g.value)
	}

	switch {
	case flush && straight && straightHigh == int(deck.Ace):
		return HandRank{RoyalFlush, []int{straightHigh}}
	case flush && straight:
		return HandRank{StraightFlush, []int{straightHigh}}
	case groups[0].count == 4:
		return HandRank{FourOfAKind, tiebreak}
	case groups[0].count == 3 && len(groups) > 1 && groups[1].count == 2:
		return HandRank{FullHouse, tiebreak}
	case flush:
		return HandRank{Flush, values}
	case straight:
		return HandRank{Straight, []int{straightHigh}}
	case groups[0].count == 3:
		return HandRank{ThreeOfAKind, tiebreak}
	case groups[0].count == 2 && len(groups) > 1 && groups[1].count == 2:
		return HandRank{TwoPair, tiebreak}
	case groups[0].count == 2:
		return HandRank{OnePair, tiebreak}
	default:
		return HandRank{HighCard, values}
	}
}

// isStraight reports whether the descending values form a five-card run,
// returning the high card of the run. The wheel (A-5-4-3-2) counts with
// a high card of 5.
func isStraight(values []int) (bool, int) {
	if len(values) != 5 {
		return false, 0
	}
	run := true
	for i := 0; i < 4; i++ {
		if values[i]-values[i+1] != 1 {
			run = false
			break
		}
	}
	if run {
		return true, values[0]
	}
	if values[0] == int(deck.Ace) && values[1] == 5 && values[2] == 4 && values[3] == 3 && values[4] == 2 {
		return true, 5
	}
	return false, 0
}
