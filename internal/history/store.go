// internal/history/store.go
//
// Durable record of finished matches, backed by SQLite.
// Live session state never touches the database; only the final outcome of a
// game (both names, both scores, winner, timestamps) is written here, which
// feeds the leaderboard and per-user match listings.

package history

import (
	"context"
	"database/sql"
	"time"
)

// Match is one finished game as persisted to the matches table.
type Match struct {
	GameID       string    `json:"gameId"`
	HostName     string    `json:"hostName"`
	HostUserID   string    `json:"-"`
	HostScore    int       `json:"hostScore"`
	PlayerName   string    `json:"playerName"`
	PlayerUserID string    `json:"-"`
	PlayerScore  int       `json:"playerScore"`
	Winner       string    `json:"winner"` // empty on a draw
	StartedAt    time.Time `json:"startedAt"`
	FinishedAt   time.Time `json:"finishedAt"`
}

// Store wraps the matches table.
type Store struct{ db *sql.DB }

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

// RecordMatch inserts one finished game. User id columns are NULL for guests.
func (s *Store) RecordMatch(ctx context.Context, m Match) error {
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO matches
            (game_id, host_name, host_user_id, host_score,
             player_name, player_user_id, player_score,
             winner, started_at, finished_at)
        VALUES (?,?,?,?,?,?,?,?,?,?)`,
		m.GameID, m.HostName, nullable(m.HostUserID), m.HostScore,
		m.PlayerName, nullable(m.PlayerUserID), m.PlayerScore,
		m.Winner, m.StartedAt.UTC().Format(time.RFC3339), m.FinishedAt.UTC().Format(time.RFC3339),
	)
	return err
}

// LBRow is one leaderboard entry, aggregated over all recorded matches.
type LBRow struct {
	Name       string `json:"name"`
	Wins       int    `json:"wins"`
	TotalScore int    `json:"totalScore"`
	Matches    int    `json:"matches"`
}

// Leaderboard aggregates wins and total score per display name across both
// seats, ordered by wins then total score. Default limit is 20.
func (s *Store) Leaderboard(ctx context.Context, limit int) ([]LBRow, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
        SELECT name,
               SUM(CASE WHEN winner = name THEN 1 ELSE 0 END) AS wins,
               SUM(score)                                     AS total_score,
               COUNT(1)                                       AS matches
        FROM (
            SELECT host_name AS name, host_score AS score, winner FROM matches
            UNION ALL
            SELECT player_name, player_score, winner FROM matches
        )
        GROUP BY name
        ORDER BY wins DESC, total_score DESC, name ASC
        LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]LBRow, 0, limit)
	for rows.Next() {
		var r LBRow
		if err := rows.Scan(&r.Name, &r.Wins, &r.TotalScore, &r.Matches); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// MatchesForUser lists an account's recent matches, newest first.
func (s *Store) MatchesForUser(ctx context.Context, userID string, limit int) ([]Match, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
        SELECT game_id, host_name, host_score, player_name, player_score,
               winner, started_at, finished_at
        FROM matches
        WHERE host_user_id = ? OR player_user_id = ?
        ORDER BY finished_at DESC
        LIMIT ?`, userID, userID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Match
	for rows.Next() {
		var m Match
		var started, finished string
		if err := rows.Scan(&m.GameID, &m.HostName, &m.HostScore,
			&m.PlayerName, &m.PlayerScore, &m.Winner, &started, &finished); err != nil {
			return nil, err
		}
		m.StartedAt, _ = time.Parse(time.RFC3339, started)
		m.FinishedAt, _ = time.Parse(time.RFC3339, finished)
		out = append(out, m)
	}
	return out, rows.Err()
}

// Stats is the aggregate view of one account's recorded matches.
type Stats struct {
	Matches    int `json:"matches"`
	Wins       int `json:"wins"`
	TotalScore int `json:"totalScore"`
}

// StatsForUser aggregates an account's matches across both seats.
func (s *Store) StatsForUser(ctx context.Context, userID string) (Stats, error) {
	var st Stats
	err := s.db.QueryRowContext(ctx, `
        SELECT COUNT(1),
               COALESCE(SUM(CASE WHEN winner = name THEN 1 ELSE 0 END), 0),
               COALESCE(SUM(score), 0)
        FROM (
            SELECT host_name AS name, host_score AS score, winner
            FROM matches WHERE host_user_id = ?
            UNION ALL
            SELECT player_name, player_score, winner
            FROM matches WHERE player_user_id = ?
        )`, userID, userID,
	).Scan(&st.Matches, &st.Wins, &st.TotalScore)
	return st, err
}

// nullable maps "" to NULL so guest matches carry no user id.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
