package profile

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/robalobadob/triads/internal/game"
)

// SQLStore keeps profiles in the profiles table as JSON documents.
type SQLStore struct{ db *sql.DB }

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

// Get returns (nil, nil) when the device has no profile yet.
func (s *SQLStore) Get(ctx context.Context, deviceID string) (*game.User, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM profiles WHERE device_id = ?`, deviceID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	u := game.NewUser("")
	if err := json.Unmarshal([]byte(data), u); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}
	return u, nil
}

func (s *SQLStore) Set(ctx context.Context, deviceID string, u *game.User) error {
	data, err := json.Marshal(u)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO profiles(device_id, data, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(device_id) DO UPDATE SET data = excluded.data, updated_at = CURRENT_TIMESTAMP`,
		deviceID, string(data))
	if err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	return nil
}

func (s *SQLStore) Clear(ctx context.Context, deviceID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM profiles WHERE device_id = ?`, deviceID)
	return err
}
