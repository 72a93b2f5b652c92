package war

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
	PhaseFlip       Phase = "flip"
	PhaseSettlement Phase = "settlement"
	PhaseTerminal   Phase = "terminal"
)

// Side identifies a pile owner.
type Side string

const (
	Player Side = "player"
	AI     Side = "ai"
	Nobody Side = "nobody"
)

// BattleResult describes one resolved round, including any war
// escalation it contained.
type BattleResult struct {
	PlayerCard deck.Card
	AICard     deck.Card
	WarDepth   int // number of ties escalated through this round
	Winner     Side
	CardsWon   int
}

// Snapshot is the read-only state published after each round. Committed
// face-down cards are counted, never shown.
type Snapshot struct {
	PlayerCards int
	AICards     int
	LastBattle  *BattleResult
	Phase       Phase
	Result      event.Result
}

// Engine is the war state machine. War needs no decision provider for
// its mechanics; the round identifier still tags commentary requests so
// stale table talk can be dropped.
type Engine struct {
	logger *log.Logger
	bus    *event.Bus
	rng    *rand.Rand

	playerPile []deck.Card
	aiPile     []deck.Card
	phase      Phase
	roundID    string
	rounds     int
	result     event.Result
	last       *BattleResult
}

// Option configures an engine.
type Option func(*Engine)

// WithPiles supplies prepared piles instead of dealing a fresh deck, for
// deterministic scenario tests.
func WithPiles(player, ai []deck.Card) Option {
	return func(e *Engine) {
		e.playerPile = append([]deck.Card(nil), player...)
		e.aiPile = append([]deck.Card(nil), ai...)
	}
}

// NewEngine creates an engine ready for Start.
func NewEngine(bus *event.Bus, logger *log.Logger, rng *rand.Rand, opts ...Option) *Engine {
	e := &Engine{
		logger: logger.WithPrefix("war"),
		bus:    bus,
		rng:    rng,
		phase:  PhaseFlip,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// RoundID returns the identifier of the most recent battle round.
func (e *Engine) RoundID() string { return e.roundID }

// Phase returns the current state-machine phase.
func (e *Engine) Phase() Phase { return e.phase }

// Rounds returns how many battles have been fought.
func (e *Engine) Rounds() int { return e.rounds }

// Counts returns the pile sizes.
func (e *Engine) Counts() (player, ai int) {
	return len(e.playerPile), len(e.aiPile)
}

// Result returns the outcome once the game is terminal.
func (e *Engine) Result() (event.Result, bool) {
	if e.phase != PhaseTerminal {
		return "", false
	}
	return e.result, true
}

// Start deals a shuffled deck evenly into the two piles.
func (e *Engine) Start(ctx context.Context) error {
	if e.phase != PhaseFlip {
		return fmt.Errorf("cannot start game in phase %q", e.phase)
	}
	if len(e.playerPile) == 0 && len(e.aiPile) == 0 {
		d := deck.NewShuffledDeck(e.rng)
		e.playerPile = d.DrawN(26)
		e.aiPile = d.DrawN(26)
	}
	e.roundID = gameid.New()
	e.publishSnapshot()
	return nil
}

// LegalPlayerActions returns the intents the UI may submit right now.
func (e *Engine) LegalPlayerActions() []agent.LegalAction {
	if e.phase != PhaseFlip {
		return nil
	}
	return []agent.LegalAction{{Action: agent.Battle}}
}

// Battle plays one round: both sides flip their top card, higher rank
// takes the spoils, equal ranks escalate to war (three cards committed
// face-down plus one face-up, recursing on further ties). Pile
// exhaustion mid-war settles immediately with the cards that exist; the
// engine never blocks on an empty pile.
func (e *Engine) Battle(ctx context.Context) (*BattleResult, error) {
	if e.phase != PhaseFlip {
		return nil, fmt.Errorf("%w: battle in phase %q", agent.ErrIllegalAction, e.phase)
	}

	e.roundID = gameid.New()
	e.rounds++

	var spoils []deck.Card
	result := &BattleResult{Winner: Nobody}

	for {
		if len(e.playerPile) == 0 || len(e.aiPile) == 0 {
			// Exhausted before a flip could break the tie: settle with
			// whatever cards remain on each side.
			e.settleExhaustion(spoils, result)
			return result, nil
		}

		pc := e.pop(&e.playerPile)
		ac := e.pop(&e.aiPile)
		spoils = append(spoils, pc, ac)

		if result.WarDepth == 0 {
			result.PlayerCard = pc
			result.AICard = ac
		}

		switch pc.Compare(ac) {
		case 1:
			e.award(Player, spoils, result)
			return result, nil
		case -1:
			e.award(AI, spoils, result)
			return result, nil
		}

		// War: both sides forfeit up to three cards face-down, then the
		// loop flips the tie-breaking card.
		result.WarDepth++
		e.logger.Debug("War declared", "round", e.roundID, "depth", result.WarDepth,
			"card", pc.String())
		for i := 0; i < 3; i++ {
			if len(e.playerPile) > 0 {
				spoils = append(spoils, e.pop(&e.playerPile))
			}
			if len(e.aiPile) > 0 {
				spoils = append(spoils, e.pop(&e.aiPile))
			}
		}
	}
}

func (e *Engine) pop(pile *[]deck.Card) deck.Card {
	card := (*pile)[0]
	*pile = (*pile)[1:]
	return card
}

func (e *Engine) award(winner Side, spoils []deck.Card, result *BattleResult) {
	result.Winner = winner
	result.CardsWon = len(spoils)

	// Shuffling the spoils before returning them avoids the degenerate
	// infinite cycles a fixed pickup order can produce.
	e.rng.Shuffle(len(spoils), func(i, j int) {
		spoils[i], spoils[j] = spoils[j], spoils[i]
	})
	if winner == Player {
		e.playerPile = append(e.playerPile, spoils...)
	} else {
		e.aiPile = append(e.aiPile, spoils...)
	}

	e.last = result
	e.logger.Debug("Battle resolved", "round", e.roundID, "winner", winner,
		"cards", result.CardsWon, "warDepth", result.WarDepth)

	e.checkGameOver()
	e.publishSnapshot()
}

// settleExhaustion ends the game when a pile runs dry mid-war. The side
// still holding cards takes the spoils; equal exhaustion is a push.
func (e *Engine) settleExhaustion(spoils []deck.Card, result *BattleResult) {
	switch {
	case len(e.playerPile) > len(e.aiPile):
		result.Winner = Player
		result.CardsWon = len(spoils)
		e.playerPile = append(e.playerPile, spoils...)
		e.finish(event.Win, "ai exhausted during war")
	case len(e.aiPile) > len(e.playerPile):
		result.Winner = AI
		result.CardsWon = len(spoils)
		e.aiPile = append(e.aiPile, spoils...)
		e.finish(event.Loss, "player exhausted during war")
	default:
		// Both sides empty: split the spoils evenly so no cards vanish;
		// the first remainder card goes to the player.
		result.Winner = Nobody
		for i, c := range spoils {
			if i%2 == 0 {
				e.playerPile = append(e.playerPile, c)
			} else {
				e.aiPile = append(e.aiPile, c)
			}
		}
		e.finish(event.Push, "mutual exhaustion during war")
	}
	e.last = result
	e.publishSnapshot()
}

func (e *Engine) checkGameOver() {
	switch {
	case len(e.aiPile) == 0:
		e.finish(event.Win, "ai out of cards")
	case len(e.playerPile) == 0:
		e.finish(event.Loss, "player out of cards")
	}
}

func (e *Engine) finish(result event.Result, detail string) {
	e.phase = PhaseSettlement
	e.result = result
	e.phase = PhaseTerminal
	e.logger.Info("Game settled", "result", result, "detail", detail,
		"rounds", e.rounds, "playerCards", len(e.playerPile), "aiCards", len(e.aiPile))
	e.bus.Publish(event.NewOutcome(string(agent.War), e.roundID, result,
		e.rounds, len(e.playerPile), len(e.aiPile), detail))
}

func (e *Engine) publishSnapshot() {
	var last *BattleResult
	if e.last != nil {
		copied := *e.last
		last = &copied
	}
	snap := Snapshot{
		PlayerCards: len(e.playerPile),
		AICards:     len(e.aiPile),
		LastBattle:  last,
		Phase:       e.phase,
		Result:      e.result,
	}
	e.bus.Publish(event.NewSnapshot(string(agent.War), e.roundID, string(e.phase), snap))
}
