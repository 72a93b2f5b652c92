package stats

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/tabletalk/tabletalk/internal/event"
)

// Subscriber records outcome events as they are published. Recording
// failures are logged and never block or fail the game.
type Subscriber struct {
	recorder Recorder
	model    string
	logger   *log.Logger
}

// NewSubscriber creates a bus subscriber that persists outcomes through
// the recorder, tagging each with the configured model name.
func NewSubscriber(recorder Recorder, model string, logger *log.Logger) *Subscriber {
	return &Subscriber{
		recorder: recorder,
		model:    model,
		logger:   logger.WithPrefix("stats"),
	}
}

func (s *Subscriber) OnEvent(e event.Event) {
	outcome, ok := e.(event.OutcomeEvent)
	if !ok {
		return
	}

	rec := Record{
		Game:        outcome.Game,
		Result:      string(outcome.Result),
		Rounds:      outcome.Rounds,
		PlayerScore: outcome.PlayerScore,
		AIScore:     outcome.AIScore,
		Model:       s.model,
		CreatedAt:   outcome.Timestamp(),
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.recorder.Record(ctx, rec); err != nil {
		s.logger.Error("Failed to record game outcome", "game", outcome.Game, "error", err)
	}
}
