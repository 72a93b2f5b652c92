package blackjack

import (
	"context"
	"fmt"
	rand "math/rand/v2"

	"github.com/charmbracelet/log"

	"github.com/tabletalk/tabletalk/internal/agent"
	"github.com/tabletalk/tabletalk/internal/deck"
	"github.com/tabletalk/tabletalk/internal/event"
	"github.com/tabletalk/tabletalk/internal/gameid"
)

// Phase is the engine's state-machine marker.
type Phase string

const (
	PhaseDealing    Phase = "dealing"
	PhasePlayerTurn Phase = "player_turn"
	PhaseAIPending  Phase = "ai_decision_pending"
	PhaseSettlement Phase = "settlement"
	PhaseTerminal   Phase = "terminal"
)

// LogEntry is one line of the round's monotonically increasing action
// log, used for audit and for building provider context.
type LogEntry struct {
	Seq    int    `json:"seq"`
	Actor  string `json:"actor"`
	Action string `json:"action"`
	Detail string `json:"detail,omitempty"`
}

// View is the read-only projection handed to the decision provider. The
// dealer only sees its own hand and the player's up-to-date total; the
// player's individual cards stay hidden until settlement.
type View struct {
	DealerCards []string   `json:"dealer_cards"`
	DealerTotal int        `json:"dealer_total"`
	PlayerTotal int        `json:"player_total"`
	PlayerStood bool       `json:"player_stood"`
	ActionLog   []LogEntry `json:"action_log"`
}

// Engine is the blackjack state machine. One engine owns one round; it is
// not safe for concurrent use.
type Engine struct {
	logger   *log.Logger
	dispatch *agent.Dispatcher
	bus      *event.Bus
	rng      *rand.Rand

	deck    *deck.Deck
	player  Hand
	dealer  Hand
	phase   Phase
	roundID string
	result  event.Result
	entries []LogEntry
	stacked *deck.Deck
}

// Option configures an engine.
type Option func(*Engine)

// WithDeck supplies a prepared deck instead of a fresh shuffle, for
// deterministic scenario tests.
func WithDeck(d *deck.Deck) Option {
	return func(e *Engine) { e.stacked = d }
}

// NewEngine creates an engine ready for Start.
func NewEngine(dispatch *agent.Dispatcher, bus *event.Bus, logger *log.Logger, rng *rand.Rand, opts ...Option) *Engine {
	e := &Engine{
		logger:   logger.WithPrefix("blackjack"),
		dispatch: dispatch,
		bus:      bus,
		rng:      rng,
		phase:    PhaseDealing,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// RoundID returns the identifier of the current round.
func (e *Engine) RoundID() string { return e.roundID }

// Phase returns the current state-machine phase.
func (e *Engine) Phase() Phase { return e.phase }

// PlayerHand returns a copy of the player's hand.
func (e *Engine) PlayerHand() Hand { return append(Hand(nil), e.player...) }

// DealerHand returns a copy of the dealer's hand.
func (e *Engine) DealerHand() Hand { return append(Hand(nil), e.dealer...) }

// Result returns the outcome once the round is terminal.
func (e *Engine) Result() (event.Result, bool) {
	if e.phase != PhaseTerminal {
		return "", false
	}
	return e.result, true
}

// Start deals two cards each from a fresh shuffled deck and checks both
// hands for naturals. A natural on either side skips straight to
// settlement.
func (e *Engine) Start(ctx context.Context) error {
	if e.phase != PhaseDealing {
		return fmt.Errorf("cannot start round in phase %q", e.phase)
	}

	e.roundID = gameid.New()
	if e.stacked != nil {
		e.deck = e.stacked
	} else {
		e.deck = deck.NewShuffledDeck(e.rng)
	}
	e.player = nil
	e.dealer = nil
	e.entries = nil

	for i := 0; i < 2; i++ {
		if err := e.dealTo(&e.player, "player"); err != nil {
			return err
		}
		if err := e.dealTo(&e.dealer, "dealer"); err != nil {
			return err
		}
	}

	e.logger.Debug("Round dealt",
		"round", e.roundID, "player", e.player.String(), "playerTotal", e.player.Total())

	playerNatural := e.player.IsNatural()
	dealerNatural := e.dealer.IsNatural()
	if playerNatural || dealerNatural {
		// Player natural beats a non-natural dealer hand; two naturals
		// push.
		switch {
		case playerNatural && dealerNatural:
			e.settle(event.Push, "both naturals")
		case playerNatural:
			e.settle(event.Win, "player natural")
		default:
			e.settle(event.Loss, "dealer natural")
		}
		return nil
	}

	e.phase = PhasePlayerTurn
	e.publishSnapshot()
	return nil
}

// LegalPlayerActions returns the intents the UI may submit right now.
func (e *Engine) LegalPlayerActions() []agent.LegalAction {
	if e.phase != PhasePlayerTurn {
		return nil
	}
	return []agent.LegalAction{{Action: agent.Hit}, {Action: agent.Stand}}
}

// PlayerHit draws one card for the player and re-evaluates bust. Illegal
// outside the player's turn.
func (e *Engine) PlayerHit(ctx context.Context) error {
	if e.phase != PhasePlayerTurn {
		return fmt.Errorf("%w: hit in phase %q", agent.ErrIllegalAction, e.phase)
	}
	if err := e.dealTo(&e.player, "player"); err != nil {
		return err
	}
	if e.player.IsBust() {
		e.settle(event.Loss, "player bust")
		return nil
	}
	e.publishSnapshot()
	return nil
}

// PlayerStand ends the player's turn and runs the dealer's decision loop
// against the provider. Each iteration issues exactly one request with
// legal actions {hit, stand}; the deterministic fallback is Stand.
func (e *Engine) PlayerStand(ctx context.Context) error {
	if e.phase != PhasePlayerTurn {
		return fmt.Errorf("%w: stand in phase %q", agent.ErrIllegalAction, e.phase)
	}
	e.append("player", "stand", "")
	e.phase = PhaseAIPending
	e.publishSnapshot()

	for e.phase == PhaseAIPending {
		req := agent.Request{
			GameType: agent.Blackjack,
			RoundID:  e.roundID,
			State:    e.providerView(),
			LegalActions: []agent.LegalAction{
				{Action: agent.Hit},
				{Action: agent.Stand},
			},
		}
		decision, err := e.dispatch.Decide(ctx, req, agent.Stand)
		if err != nil {
			// Canceled or context gone: the round is abandoned, state
			// stays where it is and any late response is a no-op.
			return err
		}
		if decision.Commentary != "" {
			e.bus.Publish(event.NewCommentary(string(agent.Blackjack), e.roundID, "decision", decision.Commentary))
		}

		switch decision.Action {
		case agent.Hit:
			if err := e.dealTo(&e.dealer, "dealer"); err != nil {
				return err
			}
			e.logger.Debug("Dealer hits",
				"round", e.roundID, "dealer", e.dealer.String(), "total", e.dealer.Total())
			if e.dealer.IsBust() {
				e.settle(event.Win, "dealer bust")
				return nil
			}
			e.publishSnapshot()
		case agent.Stand:
			e.append("dealer", "stand", "")
			e.resolveTotals()
			return nil
		}
	}
	return nil
}

// resolveTotals compares final hand values: higher wins, equal pushes.
func (e *Engine) resolveTotals() {
	p, d := e.player.Total(), e.dealer.Total()
	switch {
	case p > d:
		e.settle(event.Win, fmt.Sprintf("player %d beats dealer %d", p, d))
	case d > p:
		e.settle(event.Loss, fmt.Sprintf("dealer %d beats player %d", d, p))
	default:
		e.settle(event.Push, fmt.Sprintf("push at %d", p))
	}
}

func (e *Engine) settle(result event.Result, detail string) {
	e.phase = PhaseSettlement
	e.publishSnapshot()

	e.result = result
	e.phase = PhaseTerminal
	e.logger.Info("Round settled", "round", e.roundID, "result", result, "detail", detail)
	e.bus.Publish(event.NewOutcome(string(agent.Blackjack), e.roundID, result,
		1, e.player.Total(), e.dealer.Total(), detail))
	e.publishSnapshot()
}

func (e *Engine) dealTo(hand *Hand, actor string) error {
	card, err := e.deck.Draw()
	if err != nil {
		// A blackjack round can never exhaust a 52-card deck; surfacing
		// the error keeps the invariant checkable.
		return fmt.Errorf("dealing to %s: %w", actor, err)
	}
	*hand = append(*hand, card)
	e.append(actor, "draw", card.String())
	return nil
}

func (e *Engine) append(actor, action, detail string) {
	e.entries = append(e.entries, LogEntry{
		Seq:    len(e.entries) + 1,
		Actor:  actor,
		Action: action,
		Detail: detail,
	})
}

func (e *Engine) providerView() View {
	cards := make([]string, len(e.dealer))
	for i, c := range e.dealer {
		cards[i] = c.Describe()
	}
	return View{
		DealerCards: cards,
		DealerTotal: e.dealer.Total(),
		PlayerTotal: e.player.Total(),
		PlayerStood: e.phase == PhaseAIPending,
		ActionLog:   append([]LogEntry(nil), e.entries...),
	}
}

// Snapshot is the read-only state published to UI subscribers. The
// dealer's hole card is hidden until the player's turn is over.
type Snapshot struct {
	Player      Hand
	PlayerTotal int
	Dealer      Hand
	DealerTotal int
	HoleHidden  bool
	Phase       Phase
	Result      event.Result
}

func (e *Engine) publishSnapshot() {
	holeHidden := e.phase == PhasePlayerTurn || e.phase == PhaseDealing
	dealer := e.DealerHand()
	if holeHidden && len(dealer) > 1 {
		dealer = dealer[:1]
	}
	snap := Snapshot{
		Player:      e.PlayerHand(),
		PlayerTotal: e.player.Total(),
		Dealer:      dealer,
		DealerTotal: dealer.Total(),
		HoleHidden:  holeHidden,
		Phase:       e.phase,
		Result:      e.result,
	}
	e.bus.Publish(event.NewSnapshot(string(agent.Blackjack), e.roundID, string(e.phase), snap))
}
