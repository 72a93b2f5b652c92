package war

import (
	"context"
	"io"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tabletalk/tabletalk/internal/agent"
	"github.com/tabletalk/tabletalk/internal/deck"
	"github.com/tabletalk/tabletalk/internal/event"
	"github.com/tabletalk/tabletalk/internal/randutil"
)

type outcomeRecorder struct {
	outcomes []event.OutcomeEvent
}

func (r *outcomeRecorder) OnEvent(e event.Event) {
	if ev, ok := e.(event.OutcomeEvent); ok {
		r.outcomes = append(r.outcomes, ev)
	}
}

func card(s deck.Suit, r deck.Rank) deck.Card {
	return deck.NewCard(s, r)
}

func newTestEngine(t *testing.T, opts ...Option) (*Engine, *outcomeRecorder) {
	t.Helper()
	bus := event.NewBus()
	rec := &outcomeRecorder{}
	bus.Subscribe(rec)
	return NewEngine(bus, log.New(io.Discard), randutil.New(1), opts...), rec
}

func TestStartDealsEvenPiles(t *testing.T) {
	t.Parallel()

	e, _ := newTestEngine(t)
	require.NoError(t, e.Start(context.Background()))

	player, ai := e.Counts()
	assert.Equal(t, 26, player)
	assert.Equal(t, 26, ai)
}

func TestSimpleBattleHigherRankWins(t *testing.T) {
	t.Parallel()

	e, _ := newTestEngine(t, WithPiles(
		[]deck.Card{card(deck.Spades, deck.King), card(deck.Clubs, deck.Two)},
		[]deck.Card{card(deck.Hearts, deck.Four), card(deck.Diamonds, deck.Ace)},
	))
	require.NoError(t, e.Start(context.Background()))

	result, err := e.Battle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Player, result.Winner)
	assert.Equal(t, 0, result.WarDepth)
	assert.Equal(t, 2, result.CardsWon)

	player, ai := e.Counts()
	assert.Equal(t, 3, player)
	assert.Equal(t, 1, ai)
}

func TestWarEscalationScenario(t *testing.T) {
	t.Parallel()

	// Both flip 7s; each commits 3 face-down plus a face-up. K♣ beats 4♥,
	// so the player collects all 10 committed cards.
	playerPile := []deck.Card{
		card(deck.Spades, deck.Seven), // tie flip
		card(deck.Clubs, deck.Two),    // face-down x3
		card(deck.Clubs, deck.Three),
		card(deck.Clubs, deck.Five),
		card(deck.Clubs, deck.King), // face-up, wins the war
		card(deck.Spades, deck.Nine),
	}
	aiPile := []deck.Card{
		card(deck.Diamonds, deck.Seven), // tie flip
		card(deck.Hearts, deck.Two),     // face-down x3
		card(deck.Hearts, deck.Three),
		card(deck.Hearts, deck.Five),
		card(deck.Hearts, deck.Four), // face-up, loses
		card(deck.Diamonds, deck.Nine),
	}

	e, _ := newTestEngine(t, WithPiles(playerPile, aiPile))
	require.NoError(t, e.Start(context.Background()))

	before := 12
	result, err := e.Battle(context.Background())
	require.NoError(t, err)

	assert.Equal(t, Player, result.Winner)
	assert.Equal(t, 1, result.WarDepth)
	assert.Equal(t, 10, result.CardsWon)

	player, ai := e.Counts()
	assert.Equal(t, before, player+ai, "war must conserve cards")
	assert.Equal(t, 11, player)
	assert.Equal(t, 1, ai)
}

func TestNestedWarConservesCards(t *testing.T) {
	t.Parallel()

	// Two consecutive ties before resolution.
	playerPile := []deck.Card{
		card(deck.Spades, deck.Seven),
		card(deck.Clubs, deck.Two), card(deck.Clubs, deck.Three), card(deck.Clubs, deck.Five),
		card(deck.Spades, deck.Nine), // second tie
		card(deck.Clubs, deck.Four), card(deck.Clubs, deck.Six), card(deck.Clubs, deck.Eight),
		card(deck.Clubs, deck.Ace), // final face-up, wins
	}
	aiPile := []deck.Card{
		card(deck.Diamonds, deck.Seven),
		card(deck.Hearts, deck.Two), card(deck.Hearts, deck.Three), card(deck.Hearts, deck.Five),
		card(deck.Diamonds, deck.Nine), // second tie
		card(deck.Hearts, deck.Four), card(deck.Hearts, deck.Six), card(deck.Hearts, deck.Eight),
		card(deck.Hearts, deck.King), // final face-up, loses
	}

	e, rec := newTestEngine(t, WithPiles(playerPile, aiPile))
	require.NoError(t, e.Start(context.Background()))

	result, err := e.Battle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Player, result.Winner)
	assert.Equal(t, 2, result.WarDepth)
	assert.Equal(t, 18, result.CardsWon)

	// AI is out of cards: game over.
	_, ai := e.Counts()
	assert.Equal(t, 0, ai)
	res, done := e.Result()
	require.True(t, done)
	assert.Equal(t, event.Win, res)
	require.Len(t, rec.outcomes, 1)
	assert.Equal(t, event.Win, rec.outcomes[0].Result)
}

func TestExhaustionDuringWarSettlesImmediately(t *testing.T) {
	t.Parallel()

	// AI runs dry mid-war: has only the tie card and two face-down cards,
	// never reaches a tie-breaking flip.
	playerPile := []deck.Card{
		card(deck.Spades, deck.Seven),
		card(deck.Clubs, deck.Two), card(deck.Clubs, deck.Three), card(deck.Clubs, deck.Five),
		card(deck.Clubs, deck.King),
	}
	aiPile := []deck.Card{
		card(deck.Diamonds, deck.Seven),
		card(deck.Hearts, deck.Two), card(deck.Hearts, deck.Three),
	}

	e, rec := newTestEngine(t, WithPiles(playerPile, aiPile))
	require.NoError(t, e.Start(context.Background()))

	result, err := e.Battle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Player, result.Winner)

	res, done := e.Result()
	require.True(t, done)
	assert.Equal(t, event.Win, res)
	require.Len(t, rec.outcomes, 1)

	// All 8 cards ended up somewhere.
	player, ai := e.Counts()
	assert.Equal(t, 8, player+ai)
}

func TestBattleRejectedWhenTerminal(t *testing.T) {
	t.Parallel()

	e, _ := newTestEngine(t, WithPiles(
		[]deck.Card{card(deck.Spades, deck.King)},
		[]deck.Card{card(deck.Hearts, deck.Four)},
	))
	require.NoError(t, e.Start(context.Background()))

	_, err := e.Battle(context.Background())
	require.NoError(t, err)
	_, done := e.Result()
	require.True(t, done)

	_, err = e.Battle(context.Background())
	assert.ErrorIs(t, err, agent.ErrIllegalAction)
}

func TestFullGameTerminates(t *testing.T) {
	t.Parallel()

	e, rec := newTestEngine(t)
	require.NoError(t, e.Start(context.Background()))

	// A war game with spoil shuffling terminates in practice well under
	// this bound; the cap just keeps a regression from hanging the suite.
	for i := 0; i < 100000; i++ {
		if _, done := e.Result(); done {
			break
		}
		_, err := e.Battle(context.Background())
		require.NoError(t, err)

		player, ai := e.Counts()
		require.Equal(t, 52, player+ai, "cards must be conserved between battles")
	}

	_, done := e.Result()
	require.True(t, done, "game did not terminate")
	require.Len(t, rec.outcomes, 1)
}
