package usage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// Insert records an event. Replayed tasks with the same request ID are ignored.
func (s *Store) Insert(ctx context.Context, ev Event) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO speech_usage (request_id, provider, model, voice, characters, bytes, latency_ms, outcome, cause, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 ON CONFLICT (request_id) DO NOTHING`,
		ev.RequestID, ev.Provider, ev.Model, ev.Voice, ev.Characters, ev.Bytes, ev.LatencyMs, ev.Outcome, ev.Cause, ev.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert speech usage: %w", err)
	}
	return nil
}

type Summary struct {
	Model      string `json:"model"`
	Voice      string `json:"voice"`
	Outcome    string `json:"outcome"`
	Calls      int    `json:"calls"`
	Characters int    `json:"characters"`
	Bytes      int64  `json:"bytes"`
}

// Summarize aggregates events created at or after since.
func (s *Store) Summarize(ctx context.Context, since time.Time) ([]Summary, error) {
	rows, err := s.db.Query(ctx,
		`SELECT model, voice, outcome, COUNT(*), COALESCE(SUM(characters), 0), COALESCE(SUM(bytes), 0)
		 FROM speech_usage WHERE created_at >= $1
		 GROUP BY model, voice, outcome ORDER BY COUNT(*) DESC`,
		since,
	)
	if err != nil {
		return nil, fmt.Errorf("query usage summary: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var sm Summary
		if err := rows.Scan(&sm.Model, &sm.Voice, &sm.Outcome, &sm.Calls, &sm.Characters, &sm.Bytes); err != nil {
			return nil, fmt.Errorf("scan usage summary: %w", err)
		}
		out = append(out, sm)
	}
	return out, rows.Err()
}
