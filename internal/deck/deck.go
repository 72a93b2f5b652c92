package deck

import (
	"errors"
	rand "math/rand/v2"
)

// ErrEmptyDeck is returned by Draw when the deck is exhausted. It is the
// only error this package produces; callers either check Remaining first
// or handle the error at the draw site.
var ErrEmptyDeck = errors.New("deck: no cards remaining")

// Deck is an ordered, mutable sequence of up to 52 unique cards. A deck is
// owned by exactly one game instance and is not safe for concurrent use.
type Deck struct {
	cards []Card
	rng   *rand.Rand
}

// NewDeck creates an unshuffled standard 52-card deck using the provided
// RNG for any subsequent shuffles. The RNG must not be nil; pass
// randutil.New(seed) for deterministic replay in tests.
func NewDeck(rng *rand.Rand) *Deck {
	d := &Deck{
		cards: make([]Card, 0, 52),
		rng:   rng,
	}
	for suit := Spades; suit <= Clubs; suit++ {
		for rank := Two; rank <= Ace; rank++ {
			d.cards = append(d.cards, NewCard(suit, rank))
		}
	}
	return d
}

// NewStacked creates a deck containing exactly the given cards in order,
// top first. Used for deterministic scenario tests; Shuffle must not be
// called on a stacked deck.
func NewStacked(cards ...Card) *Deck {
	return &Deck{cards: append([]Card(nil), cards...)}
}

// NewShuffledDeck creates a standard deck in uniformly random order.
func NewShuffledDeck(rng *rand.Rand) *Deck {
	d := NewDeck(rng)
	d.Shuffle()
	return d
}

// Shuffle randomizes the order of the remaining cards.
func (d *Deck) Shuffle() {
	d.rng.Shuffle(len(d.cards), func(i, j int) {
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	})
}

// Draw removes and returns the top card of the deck.
func (d *Deck) Draw() (Card, error) {
	if len(d.cards) == 0 {
		return Card{}, ErrEmptyDeck
	}
	card := d.cards[0]
	d.cards = d.cards[1:]
	return card, nil
}

// DrawN draws up to n cards, stopping early if the deck runs out.
func (d *Deck) DrawN(n int) []Card {
	if n > len(d.cards) {
		n = len(d.cards)
	}
	cards := make([]Card, n)
	for i := range cards {
		cards[i], _ = d.Draw()
	}
	return cards
}

// Remaining returns the number of cards left in the deck.
func (d *Deck) Remaining() int {
	return len(d.cards)
}

// IsEmpty returns true if the deck has no cards left.
func (d *Deck) IsEmpty() bool {
	return len(d.cards) == 0
}
