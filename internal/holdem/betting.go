package holdem

import "github.com/tabletalk/tabletalk/internal/agent"

// Street represents the betting round.
type Street int

const (
	Preflop Street = iota
	Flop
	Turn
	River
	Showdown
)

func (s Street) String() string {
	return [...]string{"preflop", "flop", "turn", "river", "showdown"}[s]
}

// BettingRound encapsulates the state of one street's betting.
type BettingRound struct {
	CurrentBet int
	MinRaise   int
	LastRaiser int
	BBActed    bool
	Acted      []bool
	BigBlind   int
}

// NewBettingRound creates betting state for a street.
func NewBettingRound(numSeats, bigBlind int) *BettingRound {
	return &BettingRound{
		MinRaise: bigBlind,
		LastRaiser: -1,
		Acted:    make([]bool, numSeats),
		BigBlind: bigBlind,
	}
}

// ResetForStreet clears per-street state. BBActed persists because the
// big blind option only exists preflop.
func (br *BettingRound) ResetForStreet(numSeats int) {
	br.CurrentBet = 0
	br.MinRaise = br.BigBlind
	br.LastRaiser = -1
	br.Acted = make([]bool, numSeats)
}

// MarkActed records that a seat has acted this street.
func (br *BettingRound) MarkActed(seat int) {
	if seat >= 0 && seat < len(br.Acted) {
		br.Acted[seat] = true
	}
}

// ResetActedExcept clears acted flags after a raise; everyone but the
// raiser must act again.
func (br *BettingRound) ResetActedExcept(seat int) {
	for i := range br.Acted {
		br.Acted[i] = false
	}
	br.MarkActed(seat)
}

// LegalActions computes the legal-action set for a seat. Check only when
// there is nothing to call; Call only when the stack covers it (a short
// stack is forced to AllIn instead); Raise carries the minimum total and
// the all-in maximum; AllIn is always available while chips remain.
func (br *BettingRound) LegalActions(seat *Seat) []agent.LegalAction {
	if !seat.CanAct() {
		return nil
	}

	actions := []agent.LegalAction{{Action: agent.Fold}}
	toCall := br.CurrentBet - seat.Bet
	allInTotal := seat.Chips + seat.Bet

	if toCall <= 0 {
		actions = append(actions, agent.LegalAction{Action: agent.Check})
	} else if toCall < seat.Chips {
		actions = append(actions, agent.LegalAction{Action: agent.Call, MinAmount: toCall, MaxAmount: toCall})
	}

	minRaiseTo := br.CurrentBet + br.MinRaise
	if allInTotal > minRaiseTo {
		actions = append(actions, agent.LegalAction{
			Action:    agent.Raise,
			MinAmount: minRaiseTo,
			MaxAmount: allInTotal,
		})
	}

	actions = append(actions, agent.LegalAction{Action: agent.AllIn, MinAmount: allInTotal, MaxAmount: allInTotal})
	return actions
}

// Fallback returns the deterministic safe action for a seat: Check when
// legal, otherwise Fold. Never Call or Raise, to avoid committing chips
// on behalf of a non-responsive provider.
func (br *BettingRound) Fallback(seat *Seat) agent.Action {
	if br.CurrentBet-seat.Bet <= 0 {
		return agent.Check
	}
	return agent.Fold
}

// Complete reports whether betting is closed for the street: all seats
// that can still act have acted and matched the current bet, with the
// preflop big-blind option honored.
func (br *BettingRound) Complete(seats []*Seat, street Street, button int) bool {
	canAct := 0
	for _, s := range seats {
		if s.CanAct() {
			canAct++
		}
	}
	if canAct == 0 {
		return true
	}

	for i, s := range seats {
		if !s.CanAct() {
			continue
		}
		if s.Bet != br.CurrentBet || !br.Acted[i] {
			return false
		}
	}

	if street == Preflop && br.LastRaiser == -1 {
		bb := seats[bigBlindPos(len(seats), button)]
		if bb.CanAct() && !br.BBActed {
			return false
		}
	}

	return true
}

// smallBlindPos returns the seat index posting the small blind. Heads-up
// the button posts it.
func smallBlindPos(numSeats, button int) int {
	if numSeats == 2 {
		return button
	}
	return (button + 1) % numSeats
}

// bigBlindPos returns the seat index posting the big blind.
func bigBlindPos(numSeats, button int) int {
	if numSeats == 2 {
		return (button + 1) % numSeats
	}
	return (button + 2) % numSeats
}
