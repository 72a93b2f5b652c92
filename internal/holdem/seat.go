package holdem

import (
	"github.com/tabletalk/tabletalk/internal/agent"
	"github.com/tabletalk/tabletalk/internal/deck"
)

// Role tags who controls a seat.
type Role string

const (
	Human Role = "human"
	AI    Role = "ai"
)

// Seat is one participant in a hand.
type Seat struct {
	Index      int
	Name       string
	Role       Role
	Chips      int
	Hole       []deck.Card
	Folded     bool
	AllIn      bool
	Bet        int // chips committed this street
	TotalBet   int // chips committed this hand
	LastAction agent.Action
}

// CanAct reports whether the seat can still take betting actions.
func (s *Seat) CanAct() bool {
	return !s.Folded && !s.AllIn && s.Chips > 0
}

// InHand reports whether the seat is still contesting the pot.
func (s *Seat) InHand() bool {
	return !s.Folded
}
