// Package store handles SQLite persistence.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/verte-zerg/archtype/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

const highScoreKey = "high_score"

// Store wraps SQLite access for high score and session history.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
// The path ":memory:" opens a private in-memory database.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if path == ":memory:" {
		// Each pooled connection would otherwise get its own empty database.
		db.SetMaxOpenConns(1)
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			started_at TEXT NOT NULL,
			ended_at TEXT NOT NULL,
			outcome TEXT NOT NULL,
			policy TEXT NOT NULL,
			score INTEGER NOT NULL,
			high_score INTEGER NOT NULL,
			level INTEGER NOT NULL,
			completed INTEGER NOT NULL,
			total INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS challenges (
			session_id TEXT NOT NULL,
			seq INTEGER NOT NULL,
			command TEXT NOT NULL,
			time_limit REAL NOT NULL,
			time_used REAL NOT NULL,
			multiplier REAL NOT NULL,
			attempt INTEGER NOT NULL,
			timed_out INTEGER NOT NULL,
			tier TEXT NOT NULL,
			points INTEGER NOT NULL,
			PRIMARY KEY (session_id, seq)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_ended_at ON sessions(ended_at);`,
		`CREATE INDEX IF NOT EXISTS idx_challenges_command ON challenges(command);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// LoadHighScore returns the stored high score, or 0 when none was saved.
func (s *Store) LoadHighScore(ctx context.Context) (int, error) {
	var score int
	err := s.db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = ?`, highScoreKey).Scan(&score)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if score < 0 {
		return 0, nil
	}
	return score, nil
}

// SaveHighScore stores score unless a higher score is already stored.
func (s *Store) SaveHighScore(ctx context.Context, score int) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO meta (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = MAX(value, excluded.value)`,
		highScoreKey, score)
	return err
}

// Reset removes the high score and all session history.
func (s *Store) Reset(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	for _, stmt := range []string{`DELETE FROM challenges`, `DELETE FROM sessions`, `DELETE FROM meta`} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
			return err
		}
	}
	return tx.Commit()
}

// InsertSession stores a finished session and its challenge attempts.
func (s *Store) InsertSession(ctx context.Context, rec model.SessionRecord, challenges []model.ChallengeRecord) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	if _, err = tx.ExecContext(ctx,
		`INSERT INTO sessions (id, started_at, ended_at, outcome, policy, score, high_score, level, completed, total)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID,
		rec.StartedAt.Format(time.RFC3339Nano),
		rec.EndedAt.Format(time.RFC3339Nano),
		rec.Outcome,
		rec.Policy,
		rec.Score,
		rec.HighScore,
		rec.Level,
		rec.Completed,
		rec.Total,
	); err != nil {
		return err
	}

	if len(challenges) > 0 {
		stmt, perr := tx.PrepareContext(ctx,
			`INSERT INTO challenges (session_id, seq, command, time_limit, time_used, multiplier, attempt, timed_out, tier, points)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if perr != nil {
			err = perr
			return err
		}
		defer func() {
			if cerr := stmt.Close(); cerr != nil {
				// Best-effort statement close.
				_ = cerr
			}
		}()
		for _, ch := range challenges {
			if _, err = stmt.ExecContext(ctx, rec.ID, ch.Seq, ch.Command, ch.TimeLimit, ch.TimeUsed, ch.Multiplier, ch.Attempt, ch.TimedOut, ch.Tier, ch.Points); err != nil {
				return err
			}
		}
	}

	err = tx.Commit()
	return err
}

// ListSessions returns sessions oldest first, filtered by filter.
func (s *Store) ListSessions(ctx context.Context, filter model.HistoryFilter) ([]model.SessionRecord, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if filter.Outcome != "" {
		clauses = append(clauses, "outcome = ?")
		args = append(args, filter.Outcome)
	}
	if filter.Since != nil {
		clauses = append(clauses, "ended_at >= ?")
		args = append(args, filter.Since.Format(time.RFC3339Nano))
	}
	query := fmt.Sprintf(`SELECT id, started_at, ended_at, outcome, policy, score, high_score, level, completed, total
		FROM sessions
		WHERE %s
		ORDER BY ended_at ASC`, strings.Join(clauses, " AND "))
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var sessions []model.SessionRecord
	for rows.Next() {
		var rec model.SessionRecord
		var startedAt, endedAt string
		if err := rows.Scan(&rec.ID, &startedAt, &endedAt, &rec.Outcome, &rec.Policy, &rec.Score, &rec.HighScore, &rec.Level, &rec.Completed, &rec.Total); err != nil {
			return nil, err
		}
		if rec.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt); err != nil {
			return nil, err
		}
		if rec.EndedAt, err = time.Parse(time.RFC3339Nano, endedAt); err != nil {
			return nil, err
		}
		sessions = append(sessions, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if filter.Last > 0 && len(sessions) > filter.Last {
		sessions = sessions[len(sessions)-filter.Last:]
	}
	return sessions, nil
}

// ListChallenges returns the attempts of one session in play order.
func (s *Store) ListChallenges(ctx context.Context, sessionID string) ([]model.ChallengeRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT seq, command, time_limit, time_used, multiplier, attempt, timed_out, tier, points
		 FROM challenges WHERE session_id = ? ORDER BY seq ASC`, sessionID)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var result []model.ChallengeRecord
	for rows.Next() {
		var ch model.ChallengeRecord
		if err := rows.Scan(&ch.Seq, &ch.Command, &ch.TimeLimit, &ch.TimeUsed, &ch.Multiplier, &ch.Attempt, &ch.TimedOut, &ch.Tier, &ch.Points); err != nil {
			return nil, err
		}
		result = append(result, ch)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// TierCounts counts completed challenges per tier across sessions.
func (s *Store) TierCounts(ctx context.Context, sessionIDs []string) ([]model.TierCount, error) {
	if len(sessionIDs) == 0 {
		return nil, nil
	}
	placeholders, args := inClause(sessionIDs)
	query := fmt.Sprintf(`SELECT tier, COUNT(*) FROM challenges
		WHERE timed_out = 0 AND session_id IN (%s)
		GROUP BY tier
		ORDER BY tier ASC`, placeholders)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var result []model.TierCount
	for rows.Next() {
		var tc model.TierCount
		if err := rows.Scan(&tc.Tier, &tc.Count); err != nil {
			return nil, err
		}
		result = append(result, tc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// CommandAggregates summarizes attempts per command across sessions.
// AvgPct is the mean share of the time limit used by completed attempts.
func (s *Store) CommandAggregates(ctx context.Context, sessionIDs []string) ([]model.CommandAggregate, error) {
	if len(sessionIDs) == 0 {
		return nil, nil
	}
	placeholders, args := inClause(sessionIDs)
	query := fmt.Sprintf(`SELECT command,
			COUNT(*) AS attempts,
			SUM(CASE WHEN timed_out = 0 THEN 1 ELSE 0 END) AS completions,
			SUM(CASE WHEN timed_out = 1 THEN 1 ELSE 0 END) AS timeouts,
			COALESCE(AVG(CASE WHEN timed_out = 0 THEN time_used / time_limit * 100 END), 0) AS avg_pct
		FROM challenges
		WHERE session_id IN (%s)
		GROUP BY command`, placeholders)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var result []model.CommandAggregate
	for rows.Next() {
		var agg model.CommandAggregate
		if err := rows.Scan(&agg.Command, &agg.Attempts, &agg.Completions, &agg.Timeouts, &agg.AvgPct); err != nil {
			return nil, err
		}
		result = append(result, agg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func inClause(ids []string) (string, []any) {
	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}
	return strings.Join(placeholders, ","), args
}
