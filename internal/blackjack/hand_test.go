package blackjack

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tabletalk/tabletalk/internal/deck"
)

func card(s deck.Suit, r deck.Rank) deck.Card {
	return deck.NewCard(s, r)
}

func TestHandValue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		hand     Hand
		total    int
		soft     bool
		bust     bool
		natural  bool
	}{
		{
			name:  "simple total",
			hand:  Hand{card(deck.Spades, deck.Seven), card(deck.Hearts, deck.Five)},
			total: 12,
		},
		{
			name:  "face cards count ten",
			hand:  Hand{card(deck.Spades, deck.King), card(deck.Hearts, deck.Queen)},
			total: 20,
		},
		{
			name:    "ace high natural",
			hand:    Hand{card(deck.Spades, deck.Ace), card(deck.Hearts, deck.Ten)},
			total:   21,
			soft:    true,
			natural: true,
		},
		{
			name:  "ace demotes exactly when 11 would bust",
			hand:  Hand{card(deck.Spades, deck.Ace), card(deck.Hearts, deck.Nine), card(deck.Clubs, deck.Five)},
			total: 15,
		},
		{
			name:  "two aces one stays high",
			hand:  Hand{card(deck.Spades, deck.Ace), card(deck.Hearts, deck.Ace)},
			total: 12,
			soft:  true,
		},
		{
			name:  "aces all demote under pressure",
			hand:  Hand{card(deck.Spades, deck.Ace), card(deck.Hearts, deck.Ace), card(deck.Clubs, deck.Nine), card(deck.Diamonds, deck.King)},
			total: 21,
		},
		{
			name:  "bust",
			hand:  Hand{card(deck.Spades, deck.King), card(deck.Hearts, deck.Queen), card(deck.Clubs, deck.Five)},
			total: 25,
			bust:  true,
		},
		{
			name:    "three card 21 is not a natural",
			hand:    Hand{card(deck.Spades, deck.Seven), card(deck.Hearts, deck.Seven), card(deck.Clubs, deck.Seven)},
			total:   21,
			natural: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			total, soft := tt.hand.Value()
			assert.Equal(t, tt.total, total)
			assert.Equal(t, tt.soft, soft)
			assert.Equal(t, tt.bust, tt.hand.IsBust())
			assert.Equal(t, tt.natural, tt.hand.IsNatural())
		})
	}
}

func TestHandValueOrderIndependent(t *testing.T) {
	t.Parallel()

	// Ace drawn first vs last must not change the total.
	a := Hand{card(deck.Spades, deck.Ace), card(deck.Hearts, deck.Nine), card(deck.Clubs, deck.Five)}
	b := Hand{card(deck.Clubs, deck.Five), card(deck.Hearts, deck.Nine), card(deck.Spades, deck.Ace)}
	assert.Equal(t, a.Total(), b.Total())

	aTotal, aSoft := a.Value()
	bTotal, bSoft := b.Value()
	assert.Equal(t, aTotal, bTotal)
	assert.Equal(t, aSoft, bSoft)
}
