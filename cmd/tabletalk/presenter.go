package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/tabletalk/tabletalk/internal/blackjack"
	"github.com/tabletalk/tabletalk/internal/event"
	"github.com/tabletalk/tabletalk/internal/holdem"
	"github.com/tabletalk/tabletalk/internal/war"
)

// Presenter renders bus events as terminal lines. It is a pure consumer:
// it never feeds anything back into the engines.
type Presenter struct {
	out       io.Writer
	dealer    string
	lastPhase string
}

// NewPresenter creates a presenter writing to out. dealerName labels the
// AI in commentary lines.
func NewPresenter(out io.Writer, dealerName string) *Presenter {
	return &Presenter{out: out, dealer: dealerName}
}

func (p *Presenter) OnEvent(e event.Event) {
	switch ev := e.(type) {
	case event.SnapshotEvent:
		p.renderSnapshot(ev)
	case event.CommentaryEvent:
		fmt.Fprintf(p.out, "%s: %q\n", p.dealer, ev.Text)
	case event.OutcomeEvent:
		p.renderOutcome(ev)
	}
}

func (p *Presenter) renderSnapshot(ev event.SnapshotEvent) {
	switch snap := ev.State.(type) {
	case blackjack.Snapshot:
		p.renderBlackjack(snap)
	case war.Snapshot:
		p.renderWar(snap)
	case holdem.Snapshot:
		p.renderHoldem(ev.Phase, snap)
	}
}

func (p *Presenter) renderBlackjack(snap blackjack.Snapshot) {
	dealer := snap.Dealer.String()
	if snap.HoleHidden {
		dealer += " ??"
		fmt.Fprintf(p.out, "Dealer shows: %s\n", dealer)
	} else {
		fmt.Fprintf(p.out, "Dealer: %s (%d)\n", dealer, snap.DealerTotal)
	}
	fmt.Fprintf(p.out, "You:    %s (%d)\n", snap.Player, snap.PlayerTotal)
}

func (p *Presenter) renderWar(snap war.Snapshot) {
	if b := snap.LastBattle; b != nil {
		if b.WarDepth > 0 {
			fmt.Fprintf(p.out, "WAR x%d! ", b.WarDepth)
		}
		fmt.Fprintf(p.out, "You flip %s, %s flips %s", b.PlayerCard, p.dealer, b.AICard)
		switch b.Winner {
		case war.Player:
			fmt.Fprintf(p.out, " -- you take %d cards\n", b.CardsWon)
		case war.AI:
			fmt.Fprintf(p.out, " -- %s takes %d cards\n", p.dealer, b.CardsWon)
		default:
			fmt.Fprintln(p.out, " -- spoils split")
		}
	}
	fmt.Fprintf(p.out, "Piles: you %d, %s %d\n", snap.PlayerCards, p.dealer, snap.AICards)
}

func (p *Presenter) renderHoldem(phase string, snap holdem.Snapshot) {
	// Announce each street once, when it first appears.
	if phase != p.lastPhase {
		p.lastPhase = phase
		if len(snap.Board) > 0 {
			board := make([]string, len(snap.Board))
			for i, c := range snap.Board {
				board[i] = c.String()
			}
			fmt.Fprintf(p.out, "-- %s: %s  (pot %d)\n", strings.ToUpper(phase), strings.Join(board, " "), snap.Pot)
		}
	}

	for _, seat := range snap.Seats {
		status := ""
		switch {
		case seat.Folded:
			status = " [folded]"
		case seat.AllIn:
			status = " [all-in]"
		}
		hole := ""
		if len(seat.HoleCards) > 0 {
			hole = "  " + strings.Join(seat.HoleCards, " ")
		}
		fmt.Fprintf(p.out, "%-8s chips %-5d bet %-4d%s%s\n", seat.Name, seat.Chips, seat.Bet, hole, status)
	}
	if snap.ToAct != "" {
		fmt.Fprintf(p.out, "Action on %s.\n", snap.ToAct)
	}
}

func (p *Presenter) renderOutcome(ev event.OutcomeEvent) {
	verdict := map[event.Result]string{
		event.Win:  "You win!",
		event.Loss: "You lose.",
		event.Push: "Push.",
	}[ev.Result]
	if ev.Detail != "" {
		fmt.Fprintf(p.out, "=== %s %s ===\n", verdict, ev.Detail)
	} else {
		fmt.Fprintf(p.out, "=== %s ===\n", verdict)
	}
}
