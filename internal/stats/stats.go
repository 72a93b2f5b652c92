// Package stats records finished games and aggregates lifetime results.
package stats

import (
	"context"
	"sync"
	"time"
)

// Record is one finished game from the human player's perspective.
type Record struct {
	Game        string
	Result      string
	Rounds      int
	PlayerScore int
	AIScore     int
	Model       string
	CreatedAt   time.Time
}

// Summary aggregates results for one game type.
type Summary struct {
	Game   string
	Wins   int
	Losses int
	Pushes int
	Total  int
}

// Recorder persists game records.
type Recorder interface {
	Record(ctx context.Context, rec Record) error
	Summaries(ctx context.Context) ([]Summary, error)
	Close() error
}

// Memory is an in-process Recorder for tests and for running without a
// database file.
type Memory struct {
	mu      sync.Mutex
	records []Record
}

// NewMemory creates an empty in-memory recorder.
func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Record(_ context.Context, rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, rec)
	return nil
}

func (m *Memory) Summaries(_ context.Context) ([]Summary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	byGame := map[string]*Summary{}
	order := []string{}
	for _, rec := range m.records {
		s, ok := byGame[rec.Game]
		if !ok {
			s = &Summary{Game: rec.Game}
			byGame[rec.Game] = s
			order = append(order, rec.Game)
		}
		tally(s, rec.Result)
	}

	out := make([]Summary, 0, len(order))
	for _, game := range order {
		out = append(out, *byGame[game])
	}
	return out, nil
}

func (m *Memory) Close() error { return nil }

// Records returns a copy of everything recorded so far.
func (m *Memory) Records() []Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Record(nil), m.records...)
}

func tally(s *Summary, result string) {
	s.Total++
	switch result {
	case "win":
		s.Wins++
	case "loss":
		s.Losses++
	case "push":
		s.Pushes++
	}
}
