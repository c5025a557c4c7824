package puzzle

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/triads/internal/words"
)

// Seed inserts the sets that are not in the database yet and returns how
// many were added. Existing sets are left untouched.
func (s *Store) Seed(ctx context.Context, sets []words.Set) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	added := 0
	for _, set := range sets {
		res, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO puzzle_sets(id, difficulty) VALUES (?, ?)`, set.ID, set.Difficulty)
		if err != nil {
			return 0, fmt.Errorf("insert set %d: %w", set.ID, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			continue
		}
		triads := append(set.Triads[:], set.Bonus)
		for pos, t := range triads {
			res, err := tx.ExecContext(ctx,
				`INSERT INTO triads(set_id, position, keyword) VALUES (?, ?, ?)`, set.ID, pos, t.Keyword)
			if err != nil {
				return 0, fmt.Errorf("insert triad %q: %w", t.Keyword, err)
			}
			tid, err := res.LastInsertId()
			if err != nil {
				return 0, err
			}
			for cpos, c := range t.Cues {
				if _, err := tx.ExecContext(ctx,
					`INSERT INTO cues(triad_id, position, word, full_phrase) VALUES (?, ?, ?, ?)`,
					tid, cpos, c.Word, c.FullPhrase); err != nil {
					return 0, fmt.Errorf("insert cue %q: %w", c.Word, err)
				}
			}
		}
		added++
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	log.Info().Int("added", added).Int("sets", len(sets)).Msg("puzzle sets seeded")
	return added, nil
}
