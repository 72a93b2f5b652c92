// Package event carries immutable state snapshots and terminal outcomes
// from the engines to their consumers. Engines publish after every
// mutating transition; subscribers (presenter, statistics) only ever read.
package event

import (
	"sync"
	"time"
)

// Type identifies an event kind.
type Type string

const (
	TypeSnapshot   Type = "snapshot"
	TypeCommentary Type = "commentary"
	TypeOutcome    Type = "outcome"
)

// Event is anything published on the bus.
type Event interface {
	EventType() Type
	Timestamp() time.Time
}

// Result is a terminal outcome from the human player's perspective.
type Result string

const (
	Win  Result = "win"
	Loss Result = "loss"
	Push Result = "push"
)

// SnapshotEvent is a read-only projection of a round after a mutating
// transition. State is whatever view struct the publishing engine uses.
type SnapshotEvent struct {
	Game      string
	RoundID   string
	Phase     string
	State     any
	timestamp time.Time
}

func (e SnapshotEvent) EventType() Type      { return TypeSnapshot }
func (e SnapshotEvent) Timestamp() time.Time { return e.timestamp }

// NewSnapshot creates a snapshot event.
func NewSnapshot(game, roundID, phase string, state any) SnapshotEvent {
	return SnapshotEvent{Game: game, RoundID: roundID, Phase: phase, State: state, timestamp: time.Now()}
}

// CommentaryEvent carries AI table talk. It is presentation-only and
// never affects game state.
type CommentaryEvent struct {
	Game      string
	RoundID   string
	Trigger   string
	Text      string
	timestamp time.Time
}

func (e CommentaryEvent) EventType() Type      { return TypeCommentary }
func (e CommentaryEvent) Timestamp() time.Time { return e.timestamp }

// NewCommentary creates a commentary event.
func NewCommentary(game, roundID, trigger, text string) CommentaryEvent {
	return CommentaryEvent{Game: game, RoundID: roundID, Trigger: trigger, Text: text, timestamp: time.Now()}
}

// OutcomeEvent reports a terminal game result. The statistics recorder is
// its main consumer; the core never reads statistics back.
type OutcomeEvent struct {
	Game        string
	RoundID     string
	Result      Result
	Rounds      int
	PlayerScore int
	AIScore     int
	Detail      string
	timestamp   time.Time
}

func (e OutcomeEvent) EventType() Type      { return TypeOutcome }
func (e OutcomeEvent) Timestamp() time.Time { return e.timestamp }

// NewOutcome creates an outcome event.
func NewOutcome(game, roundID string, result Result, rounds, playerScore, aiScore int, detail string) OutcomeEvent {
	return OutcomeEvent{
		Game:        game,
		RoundID:     roundID,
		Result:      result,
		Rounds:      rounds,
		PlayerScore: playerScore,
		AIScore:     aiScore,
		Detail:      detail,
		timestamp:   time.Now(),
	}
}

// Subscriber receives published events.
type Subscriber interface {
	OnEvent(event Event)
}

// SubscriberFunc adapts a function to the Subscriber interface.
type SubscriberFunc func(event Event)

// OnEvent implements Subscriber.
func (f SubscriberFunc) OnEvent(event Event) { f(event) }

// Bus is a basic in-memory event bus. Publishing is synchronous: each
// subscriber runs on the publishing goroutine, so subscribers must not
// mutate engine state from OnEvent. Commentary is published from worker
// goroutines, so the bus serializes delivery with a mutex.
type Bus struct {
	mu          sync.Mutex
	subscribers []Subscriber
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe adds a subscriber to receive events.
func (b *Bus) Subscribe(subscriber Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers = append(b.subscribers, subscriber)
}

// Publish sends an event to all subscribers in subscription order.
func (b *Bus) Publish(event Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, subscriber := range b.subscribers {
		subscriber.OnEvent(event)
	}
}
