// Package agent defines the decision-provider contract shared by all three
// game engines: the engine suspends at a decision point, sends a request
// describing what the provider may legally do, and resumes when a response
// arrives or the decision times out. Providers are stateless and safe to
// share across game instances, but an engine never has more than one
// request outstanding.
package agent

import (
	"context"
	"errors"
)

// GameType identifies which engine issued a request.
type GameType string

const (
	Blackjack GameType = "blackjack"
	War       GameType = "war"
	Holdem    GameType = "holdem"
)

// Action is a game action tag. The engines only ever accept an Action that
// was present in the legal set they advertised; free-form provider output
// is never authoritative.
type Action string

const (
	// Blackjack
	Hit   Action = "hit"
	Stand Action = "stand"

	// War
	Battle Action = "battle"

	// Hold'em
	Fold  Action = "fold"
	Check Action = "check"
	Call  Action = "call"
	Raise Action = "raise"
	AllIn Action = "allin"
)

// LegalAction is one entry of the legal-action set advertised at a
// decision point. Min/MaxAmount bound the total bet for Raise.
type LegalAction struct {
	Action    Action `json:"action"`
	MinAmount int    `json:"min_amount,omitempty"`
	MaxAmount int    `json:"max_amount,omitempty"`
}

// Decision is a provider's answer: a tagged action plus optional table
// talk. Amount is the total bet for Raise and ignored otherwise.
type Decision struct {
	Action     Action `json:"action"`
	Amount     int    `json:"amount,omitempty"`
	Commentary string `json:"commentary,omitempty"`
}

// Request is the decision-dispatch payload. State is a read-only
// projection of the round scoped to what the provider is allowed to see;
// it must be JSON-marshallable.
type Request struct {
	GameType     GameType      `json:"game_type"`
	RoundID      string        `json:"round_id"`
	State        any           `json:"state"`
	LegalActions []LegalAction `json:"legal_actions"`
}

// Response echoes the RoundID of the request it answers. A mismatched
// RoundID marks the response as stale and it has no effect on game state.
type Response struct {
	RoundID  string   `json:"round_id"`
	Decision Decision `json:"decision"`
}

// Provider is the consumed capability backing the AI opponent. Decide
// must return an action from the request's legal set; Comment produces
// table talk for an event and has no game effect.
type Provider interface {
	Decide(ctx context.Context, req Request) (Response, error)
	Comment(ctx context.Context, req Request, event string) (string, error)
}

var (
	// ErrInvalidDecision reports a provider action outside the legal set
	// (or an unparseable one). Recovered via the engine's safe fallback,
	// never surfaced as fatal.
	ErrInvalidDecision = errors.New("agent: decision outside legal actions")

	// ErrStaleResponse reports a response whose RoundID no longer matches
	// the engine's current round. Discarded silently.
	ErrStaleResponse = errors.New("agent: stale decision response")

	// ErrCanceled reports that the pending decision was invalidated, e.g.
	// by switching games or starting a new round.
	ErrCanceled = errors.New("agent: decision request canceled")

	// ErrIllegalAction reports a user intent outside the legal set. It is
	// surfaced to the caller with the state unchanged.
	ErrIllegalAction = errors.New("agent: action not legal in current state")
)

// Legal reports whether d is an element of the advertised legal set,
// including the amount bounds for Raise.
func Legal(d Decision, legal []LegalAction) bool {
	for _, la := range legal {
		if la.Action != d.Action {
			continue
		}
		if d.Action != Raise {
			return true
		}
		return d.Amount >= la.MinAmount && d.Amount <= la.MaxAmount
	}
	return false
}

// Actions returns just the action tags of a legal set, for logs and
// prompts.
func Actions(legal []LegalAction) []Action {
	out := make([]Action, len(legal))
	for i, la := range legal {
		out[i] = la.Action
	}
	return out
}
