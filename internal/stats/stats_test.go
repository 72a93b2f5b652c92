package stats

import (
	"context"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tabletalk/tabletalk/internal/event"
)

func TestSQLiteRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "stats", "tabletalk.db")
	rec, err := OpenSQLite(path)
	require.NoError(t, err)
	defer rec.Close()

	ctx := context.Background()
	records := []Record{
		{Game: "blackjack", Result: "win", Rounds: 1, PlayerScore: 20, AIScore: 18, Model: "llama3"},
		{Game: "blackjack", Result: "loss", Rounds: 1, PlayerScore: 17, AIScore: 19, Model: "llama3"},
		{Game: "blackjack", Result: "win", Rounds: 1, PlayerScore: 21, AIScore: 22, Model: "llama3"},
		{Game: "war", Result: "push", Rounds: 40, PlayerScore: 26, AIScore: 26, Model: "llama3"},
	}
	for _, r := range records {
		require.NoError(t, rec.Record(ctx, r))
	}

	summaries, err := rec.Summaries(ctx)
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	assert.Equal(t, Summary{Game: "blackjack", Wins: 2, Losses: 1, Total: 3}, summaries[0])
	assert.Equal(t, Summary{Game: "war", Pushes: 1, Total: 1}, summaries[1])
}

func TestSQLiteReopenKeepsData(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "tabletalk.db")
	rec, err := OpenSQLite(path)
	require.NoError(t, err)
	require.NoError(t, rec.Record(context.Background(), Record{Game: "holdem", Result: "win"}))
	require.NoError(t, rec.Close())

	rec, err = OpenSQLite(path)
	require.NoError(t, err)
	defer rec.Close()

	summaries, err := rec.Summaries(context.Background())
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, 1, summaries[0].Wins)
}

func TestMemorySummaries(t *testing.T) {
	t.Parallel()

	m := NewMemory()
	ctx := context.Background()
	require.NoError(t, m.Record(ctx, Record{Game: "war", Result: "win"}))
	require.NoError(t, m.Record(ctx, Record{Game: "war", Result: "win"}))
	require.NoError(t, m.Record(ctx, Record{Game: "war", Result: "loss"}))

	summaries, err := m.Summaries(ctx)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, Summary{Game: "war", Wins: 2, Losses: 1, Total: 3}, summaries[0])
}

func TestSubscriberRecordsOutcomes(t *testing.T) {
	t.Parallel()

	m := NewMemory()
	bus := event.NewBus()
	bus.Subscribe(NewSubscriber(m, "llama3", log.New(io.Discard)))

	bus.Publish(event.NewOutcome("blackjack", "round-1", event.Win, 1, 20, 17, "dealer busts"))
	bus.Publish(event.NewSnapshot("blackjack", "round-2", "dealing", nil))

	records := m.Records()
	require.Len(t, records, 1)
	assert.Equal(t, "blackjack", records[0].Game)
	assert.Equal(t, "win", records[0].Result)
	assert.Equal(t, "llama3", records[0].Model)
	assert.WithinDuration(t, time.Now(), records[0].CreatedAt, time.Minute)
}
