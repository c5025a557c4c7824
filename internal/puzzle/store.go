// internal/puzzle/store.go
//
// SQLite implementation of game.Puzzle.
// Responsibilities:
//   - Pick the set of the day per difficulty (HMAC over the date, see package daily).
//   - Answer triad and answer checks against the stored keywords.
//   - Serve the bonus round, full solutions and hint facts.
//
// Keywords never leave this package except inside a SolvedTriad for a
// correct answer or a solution reveal.

package puzzle

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog/log"
	"github.com/zyedidia/generic/mapset"

	"github.com/robalobadob/triads/internal/daily"
	"github.com/robalobadob/triads/internal/game"
)

// BonusPosition is the triads.position of a set's bonus triad.
const BonusPosition = 3

var (
	ErrUnknownSet = errors.New("unknown puzzle set")
	ErrNotATriad  = errors.New("cues do not form a triad")
	ErrBadSolved  = errors.New("solved triads do not complete one set")
)

// Store serves puzzle content from the database.
type Store struct {
	db   *sql.DB
	salt string
	now  func() time.Time
}

// NewStore returns a Store. salt keys the daily set choice.
func NewStore(db *sql.DB, salt string) *Store {
	return &Store{db: db, salt: salt, now: time.Now}
}

type cueRow struct {
	id     int
	word   string
	phrase string
}

type triadRow struct {
	id       int
	setID    int
	position int
	keyword  string
	cues     [3]cueRow
}

func (t triadRow) group() game.CueGroup {
	g := game.CueGroup{ID: t.id, SetID: t.setID, CommonWord: t.keyword}
	for i, c := range t.cues {
		g.Cues[i] = game.Cue{ID: c.id, Word: c.word}
	}
	return g
}

func (t triadRow) solved() game.SolvedTriad {
	s := game.SolvedTriad{ID: t.id, Keyword: t.keyword}
	for i, c := range t.cues {
		s.Cues[i] = c.word
		s.FullPhrases[i] = c.phrase
	}
	return s
}

// FetchCueGroups returns the three initial triads of today's set.
func (s *Store) FetchCueGroups(ctx context.Context, difficulty string) ([]game.CueGroup, error) {
	setID, err := s.todaySetID(ctx, difficulty)
	if errors.Is(err, ErrUnknownSet) {
		return nil, &game.NoPuzzleError{Message: fmt.Sprintf("No %s puzzle available today.", difficulty)}
	}
	if err != nil {
		return nil, err
	}
	triads, err := s.loadTriads(ctx, "t.set_id = ? AND t.position < ?", setID, BonusPosition)
	if err != nil {
		return nil, err
	}
	out := make([]game.CueGroup, 0, len(triads))
	for _, t := range triads {
		out = append(out, t.group())
	}
	log.Debug().Str("difficulty", difficulty).Int("set", setID).Msg("puzzle served")
	return out, nil
}

// todaySetID picks the set of the day for difficulty.
func (s *Store) todaySetID(ctx context.Context, difficulty string) (int, error) {
	ids, err := s.setIDs(ctx, difficulty)
	if err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, ErrUnknownSet
	}
	return ids[daily.SetIndex(s.now(), s.salt, difficulty, len(ids))], nil
}

func (s *Store) setIDs(ctx context.Context, difficulty string) ([]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM puzzle_sets WHERE difficulty = ? ORDER BY id`, strings.ToLower(difficulty))
	if err != nil {
		return nil, fmt.Errorf("list sets: %w", err)
	}
	defer rows.Close()
	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// CheckTriad reports whether the three cues belong to one triad.
func (s *Store) CheckTriad(ctx context.Context, cues []game.Cue) (bool, error) {
	_, ok, err := s.triadOf(ctx, cues)
	return ok, err
}

// CheckAnswer returns the solved triad when answer matches its keyword.
func (s *Store) CheckAnswer(ctx context.Context, cues []game.Cue, answer string) (*game.SolvedTriad, error) {
	id, ok, err := s.triadOf(ctx, cues)
	if err != nil || !ok {
		return nil, err
	}
	triads, err := s.loadTriads(ctx, "t.id = ?", id)
	if err != nil {
		return nil, err
	}
	if len(triads) != 1 || normalize(answer) != triads[0].keyword {
		return nil, nil
	}
	solved := triads[0].solved()
	return &solved, nil
}

// FetchBonusCues returns the bonus cues of the set the three solved triads complete.
func (s *Store) FetchBonusCues(ctx context.Context, solvedIDs []int) ([]game.Cue, error) {
	ids := mapset.New[int]()
	for _, id := range solvedIDs {
		ids.Put(id)
	}
	if ids.Size() != BonusPosition {
		return nil, ErrBadSolved
	}
	args := make([]any, 0, BonusPosition)
	ids.Each(func(id int) { args = append(args, id) })
	rows, err := s.db.QueryContext(ctx,
		`SELECT set_id, position FROM triads WHERE id IN (?,?,?)`, args...)
	if err != nil {
		return nil, fmt.Errorf("lookup solved: %w", err)
	}
	defer rows.Close()
	setID, n := 0, 0
	for rows.Next() {
		var sid, pos int
		if err := rows.Scan(&sid, &pos); err != nil {
			return nil, err
		}
		if pos >= BonusPosition || (setID != 0 && sid != setID) {
			return nil, ErrBadSolved
		}
		setID = sid
		n++
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if n != BonusPosition {
		return nil, ErrBadSolved
	}

	triads, err := s.loadTriads(ctx, "t.set_id = ? AND t.position = ?", setID, BonusPosition)
	if err != nil {
		return nil, err
	}
	if len(triads) != 1 {
		return nil, fmt.Errorf("set %d: %w", setID, ErrUnknownSet)
	}
	g := triads[0].group()
	return g.Cues[:], nil
}

// FetchGroupSolutions returns all four triads of a set, bonus last.
func (s *Store) FetchGroupSolutions(ctx context.Context, setID int) ([]game.SolvedTriad, error) {
	triads, err := s.loadTriads(ctx, "t.set_id = ?", setID)
	if err != nil {
		return nil, err
	}
	if len(triads) == 0 {
		return nil, ErrUnknownSet
	}
	out := make([]game.SolvedTriad, 0, len(triads))
	for _, t := range triads {
		out = append(out, t.solved())
	}
	return out, nil
}

// FetchHint returns keyword facts for the triad formed by cues.
func (s *Store) FetchHint(ctx context.Context, cues []game.Cue) (game.HintContent, error) {
	id, ok, err := s.triadOf(ctx, cues)
	if err != nil {
		return game.HintContent{}, err
	}
	if !ok {
		return game.HintContent{}, ErrNotATriad
	}
	var keyword string
	if err := s.db.QueryRowContext(ctx, `SELECT keyword FROM triads WHERE id = ?`, id).Scan(&keyword); err != nil {
		return game.HintContent{}, fmt.Errorf("hint keyword: %w", err)
	}
	first, _ := utf8.DecodeRuneInString(keyword)
	return game.HintContent{
		KeywordLength: utf8.RuneCountInString(keyword),
		FirstLetter:   string(first),
	}, nil
}

// triadOf returns the triad id when the cues are three distinct cues of one triad.
func (s *Store) triadOf(ctx context.Context, cues []game.Cue) (int, bool, error) {
	if len(cues) != game.MaxSelected {
		return 0, false, nil
	}
	distinct := mapset.New[int]()
	args := make([]any, 0, len(cues))
	for _, c := range cues {
		distinct.Put(c.ID)
		args = append(args, c.ID)
	}
	if distinct.Size() != len(cues) {
		return 0, false, nil
	}
	rows, err := s.db.QueryContext(ctx, `SELECT triad_id FROM cues WHERE id IN (?,?,?)`, args...)
	if err != nil {
		return 0, false, fmt.Errorf("lookup cues: %w", err)
	}
	defer rows.Close()
	triad, n := 0, 0
	for rows.Next() {
		var tid int
		if err := rows.Scan(&tid); err != nil {
			return 0, false, err
		}
		if n > 0 && tid != triad {
			return 0, false, nil
		}
		triad = tid
		n++
	}
	if err := rows.Err(); err != nil {
		return 0, false, err
	}
	return triad, n == len(cues), nil
}

// loadTriads loads complete triads matching where, ordered by position.
func (s *Store) loadTriads(ctx context.Context, where string, args ...any) ([]triadRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT t.id, t.set_id, t.position, t.keyword, c.id, c.position, c.word, c.full_phrase
		FROM triads t JOIN cues c ON c.triad_id = t.id
		WHERE `+where+`
		ORDER BY t.position, c.position`, args...)
	if err != nil {
		return nil, fmt.Errorf("load triads: %w", err)
	}
	defer rows.Close()

	var out []triadRow
	for rows.Next() {
		var t triadRow
		var c cueRow
		var cpos int
		if err := rows.Scan(&t.id, &t.setID, &t.position, &t.keyword, &c.id, &cpos, &c.word, &c.phrase); err != nil {
			return nil, err
		}
		if len(out) == 0 || out[len(out)-1].id != t.id {
			out = append(out, t)
		}
		if cpos >= 0 && cpos < 3 {
			out[len(out)-1].cues[cpos] = c
		}
	}
	return out, rows.Err()
}

func normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
