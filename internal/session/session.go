// Package session owns the active game on behalf of the caller. It
// creates engines, routes validated user intents to them, drives AI
// decision points, and requests best-effort commentary without ever
// blocking game progression.
package session

import (
	"context"
	"errors"
	"fmt"
	rand "math/rand/v2"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/tabletalk/tabletalk/internal/agent"
	"github.com/tabletalk/tabletalk/internal/blackjack"
	"github.com/tabletalk/tabletalk/internal/config"
	"github.com/tabletalk/tabletalk/internal/event"
	"github.com/tabletalk/tabletalk/internal/holdem"
	"github.com/tabletalk/tabletalk/internal/war"
)

// ErrNoActiveGame is returned for intents routed while no game runs.
var ErrNoActiveGame = errors.New("session: no active game")

// commentaryTimeout bounds a single table-talk request. Commentary runs
// on worker goroutines so a slow model only delays the chatter, not the
// game.
const commentaryTimeout = 15 * time.Second

// Session holds exactly one active game at a time. Switching games or
// starting a new round invalidates any decision still pending with the
// provider. Not safe for concurrent use by multiple goroutines; the
// commentary workers it spawns synchronize through the event bus.
type Session struct {
	cfg      *config.Config
	dispatch *agent.Dispatcher
	bus      *event.Bus
	logger   *log.Logger
	rng      *rand.Rand

	game      agent.GameType
	blackjack *blackjack.Engine
	war       *war.Engine
	hand      *holdem.Hand

	// Hold'em table state carried across hands.
	button      int
	playerChips int
	aiChips     int

	comments errgroup.Group
}

// New creates a session. The dispatcher's provider serves both decisions
// and commentary.
func New(cfg *config.Config, dispatch *agent.Dispatcher, bus *event.Bus, logger *log.Logger, rng *rand.Rand) *Session {
	s := &Session{
		cfg:      cfg,
		dispatch: dispatch,
		bus:      bus,
		logger:   logger.WithPrefix("session"),
		rng:      rng,
	}
	s.comments.SetLimit(4)
	return s
}

// Game returns the active game type, or "" when none is running.
func (s *Session) Game() agent.GameType { return s.game }

// StartGame abandons any running game and starts a fresh one. Hold'em
// stacks reset to the configured buy-in.
func (s *Session) StartGame(ctx context.Context, game agent.GameType) error {
	s.dispatch.Cancel()
	s.blackjack = nil
	s.war = nil
	s.hand = nil

	s.game = game
	switch game {
	case agent.Blackjack:
		return s.startBlackjack(ctx)
	case agent.War:
		return s.startWar(ctx)
	case agent.Holdem:
		s.button = 0
		s.playerChips = s.cfg.Poker.StartingChips
		s.aiChips = s.cfg.Poker.StartingChips
		return s.startHoldemHand(ctx)
	default:
		s.game = ""
		return fmt.Errorf("session: unknown game %q", game)
	}
}

// NewRound starts the next round of the current game, invalidating any
// pending decision. Hold'em rotates the button and carries stacks; a
// busted stack resets the table first.
func (s *Session) NewRound(ctx context.Context) error {
	switch s.game {
	case agent.Blackjack:
		s.dispatch.Cancel()
		return s.startBlackjack(ctx)
	case agent.War:
		s.dispatch.Cancel()
		return s.startWar(ctx)
	case agent.Holdem:
		s.dispatch.Cancel()
		s.collectHoldemStacks()
		s.button = 1 - s.button
		if s.playerChips < s.cfg.Poker.BigBlind || s.aiChips < s.cfg.Poker.BigBlind {
			s.playerChips = s.cfg.Poker.StartingChips
			s.aiChips = s.cfg.Poker.StartingChips
			s.logger.Info("Table reset, stacks restored", "chips", s.cfg.Poker.StartingChips)
		}
		return s.startHoldemHand(ctx)
	default:
		return ErrNoActiveGame
	}
}

func (s *Session) startBlackjack(ctx context.Context) error {
	s.blackjack = blackjack.NewEngine(s.dispatch, s.bus, s.logger, s.rng)
	return s.blackjack.Start(ctx)
}

func (s *Session) startWar(ctx context.Context) error {
	s.war = war.NewEngine(s.bus, s.logger, s.rng)
	if err := s.war.Start(ctx); err != nil {
		return err
	}
	s.requestCommentary(agent.War, s.war.RoundID(), s.warContext(), "game_start")
	return nil
}

func (s *Session) startHoldemHand(ctx context.Context) error {
	configs := []holdem.SeatConfig{
		{Name: "You", Role: holdem.Human, Chips: s.playerChips},
		{Name: "Dealer", Role: holdem.AI, Chips: s.aiChips},
	}
	s.hand = holdem.NewHand(s.dispatch, s.bus, s.logger, s.rng, configs,
		s.button, s.cfg.Poker.SmallBlind, s.cfg.Poker.BigBlind)
	if err := s.hand.Start(ctx); err != nil {
		return err
	}
	return s.driveHoldem(ctx)
}

// collectHoldemStacks copies settled seat chips back to the table state.
func (s *Session) collectHoldemStacks() {
	if s.hand == nil {
		return
	}
	for _, seat := range s.hand.Seats() {
		if seat.Role == holdem.Human {
			s.playerChips = seat.Chips
		} else {
			s.aiChips = seat.Chips
		}
	}
}

// Hit routes a blackjack hit intent.
func (s *Session) Hit(ctx context.Context) error {
	if s.blackjack == nil {
		return ErrNoActiveGame
	}
	return s.blackjack.PlayerHit(ctx)
}

// Stand routes a blackjack stand intent; the dealer then plays out its
// hand through the provider.
func (s *Session) Stand(ctx context.Context) error {
	if s.blackjack == nil {
		return ErrNoActiveGame
	}
	return s.blackjack.PlayerStand(ctx)
}

// Battle plays one war round and requests commentary on its outcome.
func (s *Session) Battle(ctx context.Context) (*war.BattleResult, error) {
	if s.war == nil {
		return nil, ErrNoActiveGame
	}
	result, err := s.war.Battle(ctx)
	if err != nil {
		return nil, err
	}

	trigger := "battle"
	switch {
	case result.WarDepth > 0:
		trigger = "war"
	case result.Winner == war.Player:
		trigger = "player_wins"
	case result.Winner == war.AI:
		trigger = "ai_wins"
	}
	if _, done := s.war.Result(); done {
		trigger = "game_over"
	}
	s.requestCommentary(agent.War, s.war.RoundID(), s.warContext(), trigger)
	return result, nil
}

// Apply routes a validated hold'em intent for the human seat, then plays
// all following AI decision points.
func (s *Session) Apply(ctx context.Context, decision agent.Decision) error {
	if s.hand == nil {
		return ErrNoActiveGame
	}
	if err := s.hand.ApplyIntent(ctx, decision); err != nil {
		return err
	}
	return s.driveHoldem(ctx)
}

// driveHoldem steps AI seats until the hand finishes or action lands on
// the human.
func (s *Session) driveHoldem(ctx context.Context) error {
	for {
		seat := s.hand.CurrentSeat()
		if seat == nil || seat.Role != holdem.AI {
			return nil
		}
		if err := s.hand.StepAI(ctx); err != nil {
			if errors.Is(err, agent.ErrCanceled) {
				// The round was abandoned mid-decision; the replacement
				// round owns the table now.
				return nil
			}
			return err
		}
	}
}

// LegalActions returns the user's legal actions for the current decision
// point of the active game, or nil when no input is expected.
func (s *Session) LegalActions() []agent.LegalAction {
	switch s.game {
	case agent.Blackjack:
		if s.blackjack != nil {
			return s.blackjack.LegalPlayerActions()
		}
	case agent.War:
		if s.war != nil {
			return s.war.LegalPlayerActions()
		}
	case agent.Holdem:
		if s.hand != nil {
			if seat := s.hand.CurrentSeat(); seat != nil && seat.Role == holdem.Human {
				return s.hand.LegalActions()
			}
		}
	}
	return nil
}

// RoundOver reports whether the current round reached its terminal
// state, along with its result when it did.
func (s *Session) RoundOver() (event.Result, bool) {
	switch s.game {
	case agent.Blackjack:
		if s.blackjack != nil {
			return s.blackjack.Result()
		}
	case agent.War:
		if s.war != nil {
			return s.war.Result()
		}
	case agent.Holdem:
		if s.hand != nil {
			return s.hand.Result()
		}
	}
	return "", false
}

// Holdem exposes the active hand for presenters; nil outside hold'em.
func (s *Session) Holdem() *holdem.Hand { return s.hand }

// Blackjack exposes the active engine for presenters; nil outside
// blackjack.
func (s *Session) Blackjack() *blackjack.Engine { return s.blackjack }

// War exposes the active engine for presenters; nil outside war.
func (s *Session) War() *war.Engine { return s.war }

func (s *Session) warContext() map[string]any {
	player, ai := s.war.Counts()
	return map[string]any{
		"your_cards":   ai,
		"player_cards": player,
		"rounds":       s.war.Rounds(),
	}
}

// requestCommentary asks the provider for table talk on a worker
// goroutine. When all workers are busy the request is dropped; chatter
// never queues up behind a slow model.
func (s *Session) requestCommentary(game agent.GameType, roundID string, state any, trigger string) {
	req := agent.Request{GameType: game, RoundID: roundID, State: state}
	started := s.comments.TryGo(func() error {
		ctx, cancel := context.WithTimeout(context.Background(), commentaryTimeout)
		defer cancel()

		text := s.dispatch.Comment(ctx, req, trigger)
		if text == "" {
			return nil
		}
		s.bus.Publish(event.NewCommentary(string(game), roundID, trigger, text))
		return nil
	})
	if !started {
		s.logger.Debug("Commentary dropped, workers busy", "trigger", trigger)
	}
}

// Close abandons the active game and waits for in-flight commentary.
func (s *Session) Close() error {
	s.dispatch.Cancel()
	s.game = ""
	s.blackjack = nil
	s.war = nil
	s.hand = nil
	return s.comments.Wait()
}
