package stats

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const createGameStatsTableSQL = `
CREATE TABLE IF NOT EXISTS game_stats (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	created_at TEXT NOT NULL,
	game_type TEXT NOT NULL,
	ai_model TEXT,
	result TEXT NOT NULL,
	rounds_played INTEGER,
	player_final_score INTEGER,
	ai_final_score INTEGER
);
CREATE INDEX IF NOT EXISTS idx_game_stats_game ON game_stats(game_type)`

// SQLite is a Recorder backed by a local SQLite database file.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the stats database at path.
func OpenSQLite(path string) (*SQLite, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating stats directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening stats database: %w", err)
	}
	if _, err := db.Exec(createGameStatsTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing stats schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Record(ctx context.Context, rec Record) error {
	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO game_stats
			(created_at, game_type, ai_model, result, rounds_played, player_final_score, ai_final_score)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		createdAt.UTC().Format(time.RFC3339), rec.Game, rec.Model, rec.Result,
		rec.Rounds, rec.PlayerScore, rec.AIScore)
	if err != nil {
		return fmt.Errorf("inserting game record: %w", err)
	}
	return nil
}

func (s *SQLite) Summaries(ctx context.Context) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT game_type, result, COUNT(*)
		FROM game_stats
		GROUP BY game_type, result
		ORDER BY game_type`)
	if err != nil {
		return nil, fmt.Errorf("querying game stats: %w", err)
	}
	defer rows.Close()

	byGame := map[string]*Summary{}
	order := []string{}
	for rows.Next() {
		var game, result string
		var count int
		if err := rows.Scan(&game, &result, &count); err != nil {
			return nil, fmt.Errorf("scanning game stats: %w", err)
		}
		sum, ok := byGame[game]
		if !ok {
			sum = &Summary{Game: game}
			byGame[game] = sum
			order = append(order, game)
		}
		sum.Total += count
		switch result {
		case "win":
			sum.Wins += count
		case "loss":
			sum.Losses += count
		case "push":
			sum.Pushes += count
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading game stats: %w", err)
	}

	out := make([]Summary, 0, len(order))
	for _, game := range order {
		out = append(out, *byGame[game])
	}
	return out, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
