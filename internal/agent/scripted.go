package agent

import (
	"context"
	"sync"
)

// Scripted is a Provider that replays a fixed sequence of decisions.
// Used in tests and as an offline stand-in when no model is reachable.
type Scripted struct {
	mu        sync.Mutex
	decisions []Decision
	comments  []string

	// EchoRoundID overrides the echoed round ID when non-empty, to
	// exercise staleness handling.
	EchoRoundID string
}

// NewScripted creates a scripted provider that returns the given
// decisions in order.
func NewScripted(decisions ...Decision) *Scripted {
	return &Scripted{decisions: decisions}
}

// Decide pops the next scripted decision. When the script runs out it
// returns the first legal action, which keeps long test games moving.
func (s *Scripted) Decide(_ context.Context, req Request) (Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	roundID := req.RoundID
	if s.EchoRoundID != "" {
		roundID = s.EchoRoundID
	}

	if len(s.decisions) == 0 {
		dec := Decision{}
		if len(req.LegalActions) > 0 {
			dec.Action = req.LegalActions[0].Action
			dec.Amount = req.LegalActions[0].MinAmount
		}
		return Response{RoundID: roundID, Decision: dec}, nil
	}

	dec := s.decisions[0]
	s.decisions = s.decisions[1:]
	return Response{RoundID: roundID, Decision: dec}, nil
}

// Comment pops the next scripted comment, or returns "".
func (s *Scripted) Comment(_ context.Context, _ Request, _ string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.comments) == 0 {
		return "", nil
	}
	c := s.comments[0]
	s.comments = s.comments[1:]
	return c, nil
}

// AddComments appends scripted commentary lines.
func (s *Scripted) AddComments(comments ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.comments = append(s.comments, comments...)
}

// Remaining returns how many scripted decisions are left unconsumed.
func (s *Scripted) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.decisions)
}
