package holdem

import "sort"

// Pot is a main or side pot. Eligible holds the seat indexes that can
// win it, in seating order.
type Pot struct {
	Amount   int
	Eligible []int
	Cap      int // maximum contribution per seat, 0 for uncapped
}

// PotManager layers side pots as all-ins happen. When a seat goes all-in
// for less than the current bet, the excess contributed by others above
// that amount forms a separate pot settled only among them.
type PotManager struct {
	pots []Pot
}

// NewPotManager creates a manager with a single empty main pot.
func NewPotManager(seats []*Seat) *PotManager {
	return &PotManager{
		pots: []Pot{{Eligible: eligibleSeats(seats)}},
	}
}

func eligibleSeats(seats []*Seat) []int {
	eligible := make([]int, 0, len(seats))
	for _, s := range seats {
		if s.InHand() {
			eligible = append(eligible, s.Index)
		}
	}
	return eligible
}

// Total returns the chips across all pots.
func (pm *PotManager) Total() int {
	total := 0
	for _, pot := range pm.pots {
		total += pot.Amount
	}
	return total
}

// CollectBets sweeps per-street bets into the pot at street end.
func (pm *PotManager) CollectBets(seats []*Seat) {
	for _, s := range seats {
		if s.Bet > 0 {
			pm.pots[0].Amount += s.Bet
			s.Bet = 0
		}
	}
}

// Rebuild recomputes the pot layering from each seat's total
// contribution. Called after collecting bets so side pots reflect every
// all-in level reached so far.
func (pm *PotManager) Rebuild(seats []*Seat) {
	levels := map[int]bool{}
	for _, s := range seats {
		if s.AllIn && s.TotalBet > 0 {
			levels[s.TotalBet] = true
		}
	}
	if len(levels) == 0 {
		return
	}

	caps := make([]int, 0, len(levels))
	for level := range levels {
		caps = append(caps, level)
	}
	sort.Ints(caps)

	pm.pots = pm.pots[:0]
	previous := 0
	for _, level := range caps {
		pot := Pot{Cap: level}
		for _, s := range seats {
			if s.InHand() && s.TotalBet > previous {
				pot.Eligible = append(pot.Eligible, s.Index)
			}
		}
		for _, s := range seats {
			contribution := min(s.TotalBet, level) - previous
			if contribution > 0 {
				pot.Amount += contribution
			}
		}
		if pot.Amount > 0 && len(pot.Eligible) > 0 {
			pm.pots = append(pm.pots, pot)
		}
		previous = level
	}

	// Anything above the highest all-in level stays contested by the
	// remaining live seats.
	top := Pot{}
	for _, s := range seats {
		if s.TotalBet > previous {
			if s.InHand() {
				top.Eligible = append(top.Eligible, s.Index)
			}
			top.Amount += s.TotalBet - previous
		}
	}
	if top.Amount > 0 && len(top.Eligible) > 0 {
		pm.pots = append(pm.pots, top)
	}
}

// Pots returns the current pot layering, main pot first.
func (pm *PotManager) Pots() []Pot {
	return pm.pots
}

// Distribute splits each pot among its winning seats. Equal shares, with
// the remainder chips going to the earliest winning seat in seating
// order so splits are deterministic and reproducible. winnersOf maps a
// pot to the subset of its eligible seats that won it.
func (pm *PotManager) Distribute(seats []*Seat, winnersOf func(pot Pot) []int) map[int]int {
	won := make(map[int]int)
	for _, pot := range pm.pots {
		winners := winnersOf(pot)
		if len(winners) == 0 {
			continue
		}
		sort.Ints(winners)

		share := pot.Amount / len(winners)
		remainder := pot.Amount % len(winners)
		for i, seat := range winners {
			amount := share
			if i == 0 {
				amount += remainder
			}
			won[seat] += amount
			seats[seat].Chips += amount
		}
	}
	pm.pots = nil
	return won
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
