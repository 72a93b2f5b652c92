package agent

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/tabletalk/tabletalk/internal/gameid"
)

// Dispatcher owns the decision-dispatch protocol for a single game
// instance: exactly one outstanding request at a time, responses matched
// to rounds by RoundID, and a deterministic safe fallback applied on
// timeout, error or illegal reply so the state machine never stalls.
//
// The fallback action is chosen by the engine (Stand in blackjack,
// Check-else-Fold in hold'em), not inferred here from game logic.
type Dispatcher struct {
	provider Provider
	logger   *log.Logger
	clock    quartz.Clock
	timeout  time.Duration

	mu       sync.Mutex
	pending  bool
	cancelCh chan struct{}
}

// NewDispatcher creates a dispatcher. The timeout is configuration-driven;
// pass quartz.NewReal() outside of tests.
func NewDispatcher(provider Provider, logger *log.Logger, clock quartz.Clock, timeout time.Duration) *Dispatcher {
	return &Dispatcher{
		provider: provider,
		logger:   logger.WithPrefix("dispatch"),
		clock:    clock,
		timeout:  timeout,
		cancelCh: make(chan struct{}),
	}
}

// Decide suspends at a decision point: it issues one request and resumes
// with the provider's decision, or with the fallback action if the reply
// is late, illegal, stale or errored. The only non-nil errors are
// ErrCanceled (the round was invalidated) and the context's error.
func (d *Dispatcher) Decide(ctx context.Context, req Request, fallback Action) (Decision, error) {
	d.mu.Lock()
	if d.pending {
		d.mu.Unlock()
		// One outstanding request per instance is a protocol invariant;
		// a second concurrent decision point is an engine bug.
		return Decision{}, fmt.Errorf("decision already outstanding for round %s", req.RoundID)
	}
	d.pending = true
	cancelCh := d.cancelCh
	d.mu.Unlock()

	defer func() {
		d.mu.Lock()
		d.pending = false
		d.mu.Unlock()
	}()

	respCh := make(chan Response, 1)
	errCh := make(chan error, 1)
	go func() {
		resp, err := d.provider.Decide(ctx, req)
		if err != nil {
			errCh <- err
			return
		}
		respCh <- resp
	}()

	timedOut := make(chan struct{})
	timer := d.clock.AfterFunc(d.timeout, func() {
		close(timedOut)
	})
	defer timer.Stop()

	for {
		select {
		case resp := <-respCh:
			if err := gameid.Validate(resp.RoundID); err != nil {
				// A malformed echo cannot match any round; drop it
				// before the staleness comparison.
				d.logger.Debug("Discarding response with malformed round ID",
					"round", resp.RoundID, "err", err)
				continue
			}
			if resp.RoundID != req.RoundID {
				// Echo mismatch: a late answer for an earlier round. The
				// response is a no-op; keep waiting for the timeout to
				// resolve this decision point.
				d.logger.Debug("Discarding stale decision response",
					"want", req.RoundID, "got", resp.RoundID, "err", ErrStaleResponse)
				continue
			}
			if !Legal(resp.Decision, req.LegalActions) {
				d.logger.Warn("Provider returned illegal decision, applying fallback",
					"action", resp.Decision.Action, "amount", resp.Decision.Amount,
					"legal", Actions(req.LegalActions), "fallback", fallback,
					"err", ErrInvalidDecision)
				return d.fallbackDecision(req, fallback), nil
			}
			d.logger.Debug("Decision received",
				"round", req.RoundID, "action", resp.Decision.Action, "amount", resp.Decision.Amount)
			return resp.Decision, nil

		case err := <-errCh:
			d.logger.Warn("Provider error, applying fallback",
				"error", err, "round", req.RoundID, "fallback", fallback)
			return d.fallbackDecision(req, fallback), nil

		case <-timedOut:
			d.logger.Warn("Decision timeout, applying fallback",
				"round", req.RoundID, "timeout", d.timeout, "fallback", fallback)
			return d.fallbackDecision(req, fallback), nil

		case <-cancelCh:
			return Decision{}, ErrCanceled

		case <-ctx.Done():
			return Decision{}, ctx.Err()
		}
	}
}

// fallbackDecision builds the deterministic safe decision. For Raise
// fallbacks (never chosen by engines, but kept total) the minimum legal
// amount applies.
func (d *Dispatcher) fallbackDecision(req Request, fallback Action) Decision {
	dec := Decision{Action: fallback}
	for _, la := range req.LegalActions {
		if la.Action == fallback {
			dec.Amount = la.MinAmount
			break
		}
	}
	return dec
}

// Cancel invalidates the pending request, if any. The suspended Decide
// call returns ErrCanceled and any late response is discarded. Used when
// switching games or starting a new round mid-decision.
func (d *Dispatcher) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	close(d.cancelCh)
	d.cancelCh = make(chan struct{})
}

// Comment requests table talk for an event. It is fire-and-forget from
// the engines' perspective; callers run it on their own goroutine and a
// failure just means silence.
func (d *Dispatcher) Comment(ctx context.Context, req Request, event string) string {
	text, err := d.provider.Comment(ctx, req, event)
	if err != nil {
		d.logger.Debug("Commentary unavailable", "event", event, "error", err)
		return ""
	}
	return text
}
