package daily

import (
	"context"
	"database/sql"
)

// Result is one device's finished game for a date.
type Result struct {
	DeviceID string `json:"deviceId"`
	Date     string `json:"date"`
	SetID    int    `json:"setId"`
	Score    int    `json:"score"`
	Won      bool   `json:"won"`
}

// Store persists daily results in the daily_results table.
type Store struct{ db *sql.DB }

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

// AlreadyPlayed reports whether the device has a result for date.
func (s *Store) AlreadyPlayed(ctx context.Context, deviceID, date string) (bool, error) {
	var cnt int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM daily_results WHERE device_id=? AND date=?",
		deviceID, date,
	).Scan(&cnt)
	return cnt > 0, err
}

// InsertResult records the first result of the day; later games are ignored.
func (s *Store) InsertResult(ctx context.Context, r Result) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO daily_results(device_id, date, set_id, score, won)
		 VALUES(?,?,?,?,?)`, r.DeviceID, r.Date, r.SetID, r.Score, r.Won,
	)
	return err
}

// LBRow is one leaderboard line.
type LBRow struct {
	DeviceID string `json:"deviceId"`
	Score    int    `json:"score"`
	Won      bool   `json:"won"`
}

// Leaderboard returns the best results for date: highest score first, ties
// broken by who finished first.
func (s *Store) Leaderboard(ctx context.Context, date string, limit int) ([]LBRow, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT device_id, score, won
		 FROM daily_results
		 WHERE date=?
		 ORDER BY score DESC, created_at ASC, rowid ASC
		 LIMIT ?`, date, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]LBRow, 0, limit)
	for rows.Next() {
		var r LBRow
		if err := rows.Scan(&r.DeviceID, &r.Score, &r.Won); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
