package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tabletalk/tabletalk/internal/agent"
	"github.com/tabletalk/tabletalk/internal/blackjack"
	"github.com/tabletalk/tabletalk/internal/deck"
	"github.com/tabletalk/tabletalk/internal/event"
)

func TestParseHoldemInput(t *testing.T) {
	t.Parallel()

	tests := []struct {
		line string
		want agent.Decision
		ok   bool
	}{
		{"fold", agent.Decision{Action: agent.Fold}, true},
		{"f", agent.Decision{Action: agent.Fold}, true},
		{"check", agent.Decision{Action: agent.Check}, true},
		{"call", agent.Decision{Action: agent.Call}, true},
		{"raise 120", agent.Decision{Action: agent.Raise, Amount: 120}, true},
		{"r 40", agent.Decision{Action: agent.Raise, Amount: 40}, true},
		{"allin", agent.Decision{Action: agent.AllIn}, true},
		{"all-in", agent.Decision{Action: agent.AllIn}, true},
		{"raise", agent.Decision{}, false},
		{"raise lots", agent.Decision{}, false},
		{"bet 50", agent.Decision{}, false},
		{"", agent.Decision{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			t.Parallel()
			got, ok := parseHoldemInput(strings.Fields(tt.line))
			require.Equal(t, tt.ok, ok)
			if ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestPromptForShowsBounds(t *testing.T) {
	t.Parallel()

	prompt := promptFor([]agent.LegalAction{
		{Action: agent.Fold},
		{Action: agent.Call, MinAmount: 60, MaxAmount: 60},
		{Action: agent.Raise, MinAmount: 120, MaxAmount: 1020},
		{Action: agent.AllIn, MinAmount: 1020, MaxAmount: 1020},
	})
	assert.Equal(t, "(fold / call 60 / raise 120-1020 / allin)", prompt)

	assert.Equal(t, "(waiting)", promptFor(nil))
}

func TestPresenterHidesHoleCard(t *testing.T) {
	t.Parallel()

	var buf strings.Builder
	p := NewPresenter(&buf, "LLAMA3")

	snap := blackjack.Snapshot{
		Player:      blackjack.Hand{deck.NewCard(deck.Diamonds, deck.Ten), deck.NewCard(deck.Clubs, deck.Nine)},
		PlayerTotal: 19,
		Dealer:      blackjack.Hand{deck.NewCard(deck.Hearts, deck.Eight)},
		DealerTotal: 8,
		HoleHidden:  true,
		Phase:       blackjack.PhasePlayerTurn,
	}
	p.OnEvent(event.NewSnapshot("blackjack", "r1", "player_turn", snap))

	out := buf.String()
	assert.Contains(t, out, "??")
	assert.Contains(t, out, "19")
}

func TestPresenterRendersOutcomeAndCommentary(t *testing.T) {
	t.Parallel()

	var buf strings.Builder
	p := NewPresenter(&buf, "LLAMA3")

	p.OnEvent(event.NewCommentary("war", "r1", "battle", "Too easy!"))
	p.OnEvent(event.NewOutcome("war", "r1", event.Win, 40, 52, 0, "opponent ran out of cards"))

	out := buf.String()
	assert.Contains(t, out, `LLAMA3: "Too easy!"`)
	assert.Contains(t, out, "You win!")
	assert.Contains(t, out, "opponent ran out of cards")
}
