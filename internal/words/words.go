// internal/words/words.go
//
// Puzzle set content.
//
// Responsibilities:
//   - Parse puzzle set files (sets of three triads plus a bonus triad).
//   - Load sets from an environment-provided file or fall back to the embedded default.
//   - Validate every set: lowercase alphabetic cues, full phrases present,
//     bonus cues equal to the three triad keywords.
//
// File format:
//   set <id> <difficulty>
//   triad <keyword>: <cue>=<full phrase>, <cue>=<full phrase>, <cue>=<full phrase>
//   bonus <keyword>: <cue>=<full phrase>, ...
//
// Environment variables:
//   PUZZLES_FILE=/path/to/puzzles.txt
//
// Initialization is run once (sync.Once).

package words

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/zyedidia/generic/mapset"

	"github.com/robalobadob/triads/assets"
)

// Difficulties lists the supported difficulty levels.
var Difficulties = []string{"easy", "medium", "hard"}

// Entry is one cue and the phrase it forms with the keyword.
type Entry struct {
	Word       string
	FullPhrase string
}

// Triad is a keyword and its three cues.
type Triad struct {
	Keyword string
	Cues    [3]Entry
}

// Set is one playable puzzle.
type Set struct {
	ID         int
	Difficulty string
	Triads     [3]Triad
	Bonus      Triad
}

var (
	initOnce   sync.Once
	sets       []Set
	initialErr error
)

// Init loads puzzle sets exactly once.
func Init() error {
	initOnce.Do(func() {
		var lines []string
		var err error
		if path := os.Getenv("PUZZLES_FILE"); path != "" {
			lines, err = readFile(path)
		} else {
			lines, err = assets.PuzzleLines()
		}
		if err != nil {
			initialErr = err
			return
		}
		sets, initialErr = Parse(lines)
		if initialErr == nil && len(sets) == 0 {
			initialErr = errors.New("words: no puzzle sets")
		}
	})
	return initialErr
}

// Sets returns the loaded puzzle sets.
func Sets() []Set {
	_ = Init()
	return sets
}

// Stats returns the number of sets per difficulty.
func Stats() map[string]int {
	out := make(map[string]int)
	for _, s := range Sets() {
		out[s.Difficulty]++
	}
	return out
}

func readFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		s := strings.TrimSpace(sc.Text())
		if s == "" || strings.HasPrefix(s, "#") {
			continue
		}
		out = append(out, s)
	}
	return out, sc.Err()
}

// Parse reads puzzle sets from non-empty, non-comment lines.
func Parse(lines []string) ([]Set, error) {
	var out []Set
	var cur *Set
	triads := 0
	hasBonus := false

	flush := func() error {
		if cur == nil {
			return nil
		}
		if triads != 3 || !hasBonus {
			return fmt.Errorf("set %d: need 3 triads and a bonus", cur.ID)
		}
		if err := validate(*cur); err != nil {
			return err
		}
		out = append(out, *cur)
		return nil
	}

	seen := mapset.New[int]()
	for n, line := range lines {
		kind, rest, _ := strings.Cut(strings.TrimSpace(line), " ")
		switch kind {
		case "set":
			if err := flush(); err != nil {
				return nil, err
			}
			fields := strings.Fields(rest)
			if len(fields) != 2 {
				return nil, fmt.Errorf("line %d: want \"set <id> <difficulty>\"", n+1)
			}
			id, err := strconv.Atoi(fields[0])
			if err != nil || id <= 0 {
				return nil, fmt.Errorf("line %d: bad set id %q", n+1, fields[0])
			}
			if seen.Has(id) {
				return nil, fmt.Errorf("line %d: duplicate set %d", n+1, id)
			}
			seen.Put(id)
			cur = &Set{ID: id, Difficulty: strings.ToLower(fields[1])}
			triads, hasBonus = 0, false
		case "triad", "bonus":
			if cur == nil {
				return nil, fmt.Errorf("line %d: %s before set", n+1, kind)
			}
			t, err := parseTriad(rest)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", n+1, err)
			}
			if kind == "bonus" {
				if hasBonus {
					return nil, fmt.Errorf("line %d: second bonus", n+1)
				}
				cur.Bonus, hasBonus = t, true
				continue
			}
			if triads == 3 {
				return nil, fmt.Errorf("line %d: more than 3 triads", n+1)
			}
			cur.Triads[triads] = t
			triads++
		default:
			return nil, fmt.Errorf("line %d: unknown directive %q", n+1, kind)
		}
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return out, nil
}

func parseTriad(s string) (Triad, error) {
	keyword, list, ok := strings.Cut(s, ":")
	if !ok {
		return Triad{}, errors.New("missing ':'")
	}
	t := Triad{Keyword: strings.ToLower(strings.TrimSpace(keyword))}
	parts := strings.Split(list, ",")
	if len(parts) != 3 {
		return Triad{}, fmt.Errorf("triad %q: want 3 cues, got %d", t.Keyword, len(parts))
	}
	for i, p := range parts {
		word, phrase, ok := strings.Cut(p, "=")
		if !ok {
			return Triad{}, fmt.Errorf("triad %q: cue %q has no full phrase", t.Keyword, p)
		}
		t.Cues[i] = Entry{
			Word:       strings.ToLower(strings.TrimSpace(word)),
			FullPhrase: strings.ToLower(strings.TrimSpace(phrase)),
		}
	}
	return t, nil
}

func validate(s Set) error {
	if !isDifficulty(s.Difficulty) {
		return fmt.Errorf("set %d: unknown difficulty %q", s.ID, s.Difficulty)
	}
	words := mapset.New[string]()
	keywords := mapset.New[string]()
	for _, t := range append(s.Triads[:], s.Bonus) {
		if !isAlpha(t.Keyword) {
			return fmt.Errorf("set %d: bad keyword %q", s.ID, t.Keyword)
		}
		for _, c := range t.Cues {
			if !isAlpha(c.Word) || c.FullPhrase == "" {
				return fmt.Errorf("set %d: bad cue %q", s.ID, c.Word)
			}
		}
	}
	for _, t := range s.Triads {
		keywords.Put(t.Keyword)
		for _, c := range t.Cues {
			if words.Has(c.Word) {
				return fmt.Errorf("set %d: cue %q appears twice", s.ID, c.Word)
			}
			words.Put(c.Word)
		}
	}
	for _, c := range s.Bonus.Cues {
		if !keywords.Has(c.Word) {
			return fmt.Errorf("set %d: bonus cue %q is not a triad keyword", s.ID, c.Word)
		}
	}
	return nil
}

func isDifficulty(d string) bool {
	for _, x := range Difficulties {
		if x == d {
			return true
		}
	}
	return false
}

// isAlpha reports whether s is a non-empty run of lowercase ASCII letters.
func isAlpha(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < 'a' || r > 'z' {
			return false
		}
	}
	return true
}
