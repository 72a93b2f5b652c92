package agent

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tabletalk/tabletalk/internal/gameid"
)

func testLogger() *log.Logger {
	return log.New(io.Discard)
}

// blockingProvider never answers, to exercise the timeout path.
type blockingProvider struct {
	block chan struct{}
}

func (p *blockingProvider) Decide(ctx context.Context, req Request) (Response, error) {
	select {
	case <-p.block:
	case <-ctx.Done():
	}
	return Response{RoundID: req.RoundID}, ctx.Err()
}

func (p *blockingProvider) Comment(context.Context, Request, string) (string, error) {
	return "", nil
}

func legalHitStand() []LegalAction {
	return []LegalAction{{Action: Hit}, {Action: Stand}}
}

func TestDispatcherReturnsLegalDecision(t *testing.T) {
	t.Parallel()

	provider := NewScripted(Decision{Action: Hit, Commentary: "let's go"})
	d := NewDispatcher(provider, testLogger(), quartz.NewReal(), time.Second)

	dec, err := d.Decide(context.Background(), Request{
		GameType:     Blackjack,
		RoundID:      gameid.New(),
		LegalActions: legalHitStand(),
	}, Stand)
	require.NoError(t, err)
	assert.Equal(t, Hit, dec.Action)
	assert.Equal(t, "let's go", dec.Commentary)
}

func TestDispatcherFallsBackOnIllegalAction(t *testing.T) {
	t.Parallel()

	// Raise is never legal in blackjack; the dispatcher must substitute
	// the engine-chosen safe action, not guess a "better" one.
	provider := NewScripted(Decision{Action: Raise, Amount: 100})
	d := NewDispatcher(provider, testLogger(), quartz.NewReal(), time.Second)

	dec, err := d.Decide(context.Background(), Request{
		GameType:     Blackjack,
		RoundID:      gameid.New(),
		LegalActions: legalHitStand(),
	}, Stand)
	require.NoError(t, err)
	assert.Equal(t, Stand, dec.Action)
	assert.Empty(t, dec.Commentary)
}

func TestDispatcherFallsBackOnRaiseOutOfBounds(t *testing.T) {
	t.Parallel()

	provider := NewScripted(Decision{Action: Raise, Amount: 5000})
	d := NewDispatcher(provider, testLogger(), quartz.NewReal(), time.Second)

	dec, err := d.Decide(context.Background(), Request{
		GameType: Holdem,
		RoundID:  gameid.New(),
		LegalActions: []LegalAction{
			{Action: Fold},
			{Action: Check},
			{Action: Raise, MinAmount: 40, MaxAmount: 1000},
		},
	}, Check)
	require.NoError(t, err)
	assert.Equal(t, Check, dec.Action)
}

// decideAsync runs Decide on its own goroutine so the test can drive the
// mock clock while the decision point is suspended.
func decideAsync(d *Dispatcher, req Request, fallback Action) chan decideResult {
	done := make(chan decideResult, 1)
	go func() {
		dec, err := d.Decide(context.Background(), req, fallback)
		done <- decideResult{dec, err}
	}()
	return done
}

type decideResult struct {
	dec Decision
	err error
}

func TestDispatcherFallsBackOnTimeout(t *testing.T) {
	t.Parallel()

	mClock := quartz.NewMock(t)
	trap := mClock.Trap().AfterFunc()
	defer trap.Close()

	provider := &blockingProvider{block: make(chan struct{})}
	d := NewDispatcher(provider, testLogger(), mClock, 30*time.Second)

	done := decideAsync(d, Request{
		GameType:     Blackjack,
		RoundID:      gameid.New(),
		LegalActions: legalHitStand(),
	}, Stand)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	trap.MustWait(ctx).Release(ctx)
	mClock.Advance(30 * time.Second).MustWait(ctx)

	res := <-done
	require.NoError(t, res.err)
	assert.Equal(t, Stand, res.dec.Action)
}

func TestDispatcherDiscardsStaleResponse(t *testing.T) {
	t.Parallel()

	mClock := quartz.NewMock(t)
	trap := mClock.Trap().AfterFunc()
	defer trap.Close()

	// Provider echoes a round ID from a previous round: the response must
	// have no effect, and the timeout resolves the decision point.
	provider := NewScripted(Decision{Action: Hit})
	provider.EchoRoundID = gameid.New()
	d := NewDispatcher(provider, testLogger(), mClock, 30*time.Second)

	done := decideAsync(d, Request{
		GameType:     Blackjack,
		RoundID:      gameid.New(),
		LegalActions: legalHitStand(),
	}, Stand)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	trap.MustWait(ctx).Release(ctx)
	mClock.Advance(30 * time.Second).MustWait(ctx)

	res := <-done
	require.NoError(t, res.err)
	assert.Equal(t, Stand, res.dec.Action)
}

func TestDispatcherDiscardsMalformedRoundID(t *testing.T) {
	t.Parallel()

	mClock := quartz.NewMock(t)
	trap := mClock.Trap().AfterFunc()
	defer trap.Close()

	// A malformed echo can never match a round; it is dropped before the
	// staleness comparison and the timeout resolves the decision point.
	provider := NewScripted(Decision{Action: Hit})
	provider.EchoRoundID = "not-a-round-id"
	d := NewDispatcher(provider, testLogger(), mClock, 30*time.Second)

	done := decideAsync(d, Request{
		GameType:     Blackjack,
		RoundID:      gameid.New(),
		LegalActions: legalHitStand(),
	}, Stand)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	trap.MustWait(ctx).Release(ctx)
	mClock.Advance(30 * time.Second).MustWait(ctx)

	res := <-done
	require.NoError(t, res.err)
	assert.Equal(t, Stand, res.dec.Action)
}

func TestDispatcherCancel(t *testing.T) {
	t.Parallel()

	provider := &blockingProvider{block: make(chan struct{})}
	d := NewDispatcher(provider, testLogger(), quartz.NewReal(), time.Minute)

	type result struct {
		dec Decision
		err error
	}
	done := make(chan result, 1)
	go func() {
		dec, err := d.Decide(context.Background(), Request{
			GameType:     Blackjack,
			RoundID:      gameid.New(),
			LegalActions: legalHitStand(),
		}, Stand)
		done <- result{dec, err}
	}()

	// Let the request become pending before invalidating it.
	require.Eventually(t, func() bool {
		d.mu.Lock()
		defer d.mu.Unlock()
		return d.pending
	}, time.Second, time.Millisecond)

	d.Cancel()

	select {
	case res := <-done:
		assert.ErrorIs(t, res.err, ErrCanceled)
	case <-time.After(time.Second):
		t.Fatal("Decide did not return after Cancel")
	}
}

func TestDispatcherProviderError(t *testing.T) {
	t.Parallel()

	provider := &erroringProvider{}
	d := NewDispatcher(provider, testLogger(), quartz.NewReal(), time.Second)

	dec, err := d.Decide(context.Background(), Request{
		GameType:     Blackjack,
		RoundID:      gameid.New(),
		LegalActions: legalHitStand(),
	}, Stand)
	require.NoError(t, err)
	assert.Equal(t, Stand, dec.Action)
}

type erroringProvider struct{}

func (p *erroringProvider) Decide(context.Context, Request) (Response, error) {
	return Response{}, context.DeadlineExceeded
}

func (p *erroringProvider) Comment(context.Context, Request, string) (string, error) {
	return "", context.DeadlineExceeded
}

func TestLegal(t *testing.T) {
	t.Parallel()

	legal := []LegalAction{
		{Action: Fold},
		{Action: Call},
		{Action: Raise, MinAmount: 40, MaxAmount: 200},
	}

	tests := []struct {
		name string
		dec  Decision
		want bool
	}{
		{"fold is legal", Decision{Action: Fold}, true},
		{"call is legal", Decision{Action: Call}, true},
		{"check not advertised", Decision{Action: Check}, false},
		{"raise at min", Decision{Action: Raise, Amount: 40}, true},
		{"raise at max", Decision{Action: Raise, Amount: 200}, true},
		{"raise below min", Decision{Action: Raise, Amount: 39}, false},
		{"raise above max", Decision{Action: Raise, Amount: 201}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Legal(tt.dec, legal))
		})
	}
}
