package game

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
)

// fakePuzzle serves one fixed set: groups 1..3 (cue ids 11..33) and bonus triad 4.
type fakePuzzle struct {
	mu sync.Mutex

	groups   []CueGroup
	bonus    CueGroup
	keywords map[int]string

	bonusCalls    int
	solutionCalls int

	failCheckTriad  bool
	failCheckAnswer bool
	failSolutions   bool
	failBonus       bool
	onCheckTriad    func()
}

func newFakePuzzle() *fakePuzzle {
	mk := func(id int, words ...string) CueGroup {
		g := CueGroup{ID: id, SetID: 7}
		for i, w := range words {
			g.Cues[i] = Cue{ID: id*10 + i + 1, Word: w}
		}
		return g
	}
	return &fakePuzzle{
		groups: []CueGroup{
			mk(1, "place", "work", "fly"),
			mk(2, "fall", "melon", "mark"),
			mk(3, "track", "check", "bite"),
		},
		bonus:    mk(4, "fire", "water", "sound"),
		keywords: map[int]string{1: "fire", 2: "water", 3: "sound", 4: "proof"},
	}
}

func (f *fakePuzzle) FetchCueGroups(ctx context.Context, difficulty string) ([]CueGroup, error) {
	return append([]CueGroup(nil), f.groups...), nil
}

func (f *fakePuzzle) CheckTriad(ctx context.Context, cues []Cue) (bool, error) {
	if f.onCheckTriad != nil {
		hook := f.onCheckTriad
		f.onCheckTriad = nil
		hook()
	}
	if f.failCheckTriad {
		return false, errors.New("connection refused")
	}
	_, ok := groupOf(cues)
	return ok, nil
}

func (f *fakePuzzle) CheckAnswer(ctx context.Context, cues []Cue, answer string) (*SolvedTriad, error) {
	if f.failCheckAnswer {
		return nil, errors.New("timeout")
	}
	id, ok := groupOf(cues)
	if !ok || !strings.EqualFold(f.keywords[id], answer) {
		return nil, nil
	}
	return f.solved(id), nil
}

func (f *fakePuzzle) FetchBonusCues(ctx context.Context, solvedIDs []int) ([]Cue, error) {
	f.mu.Lock()
	f.bonusCalls++
	fail := f.failBonus
	f.mu.Unlock()
	if fail {
		return nil, errors.New("service unavailable")
	}
	return f.bonus.Cues[:], nil
}

func (f *fakePuzzle) FetchGroupSolutions(ctx context.Context, setID int) ([]SolvedTriad, error) {
	f.mu.Lock()
	f.solutionCalls++
	f.mu.Unlock()
	if f.failSolutions {
		return nil, errors.New("offline")
	}
	return []SolvedTriad{*f.solved(1), *f.solved(2), *f.solved(3), *f.solved(4)}, nil
}

func (f *fakePuzzle) FetchHint(ctx context.Context, cues []Cue) (HintContent, error) {
	id, ok := groupOf(cues)
	if !ok {
		return HintContent{}, errors.New("not a triad")
	}
	kw := f.keywords[id]
	return HintContent{KeywordLength: len(kw), FirstLetter: kw[:1]}, nil
}

func (f *fakePuzzle) solved(id int) *SolvedTriad {
	return &SolvedTriad{ID: id, Keyword: f.keywords[id]}
}

// groupOf reports the group id when all cue ids share the same tens digit.
func groupOf(cues []Cue) (int, bool) {
	if len(cues) != 3 {
		return 0, false
	}
	id := cues[0].ID / 10
	for _, c := range cues[1:] {
		if c.ID/10 != id {
			return 0, false
		}
	}
	return id, true
}

// manualScheduler queues callbacks until Fire is called.
type manualScheduler struct {
	mu      sync.Mutex
	pending []*manualTimer
}

type manualTimer struct {
	f       func()
	stopped bool
}

func (t *manualTimer) Stop() bool {
	was := !t.stopped
	t.stopped = true
	return was
}

func (m *manualScheduler) AfterFunc(d time.Duration, f func()) Timer {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := &manualTimer{f: f}
	m.pending = append(m.pending, t)
	return t
}

// Fire runs every pending, non-stopped callback.
func (m *manualScheduler) Fire() {
	m.mu.Lock()
	due := m.pending
	m.pending = nil
	m.mu.Unlock()
	for _, t := range due {
		if !t.stopped {
			t.f()
		}
	}
}

type memProfiles struct {
	mu    sync.Mutex
	users map[string]*User
}

func newMemProfiles() *memProfiles { return &memProfiles{users: map[string]*User{}} }

func (m *memProfiles) Get(ctx context.Context, id string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (m *memProfiles) Set(ctx context.Context, id string, u *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[id] = u
	return nil
}

func (m *memProfiles) Clear(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.users, id)
	return nil
}

type noticeLog struct {
	mu      sync.Mutex
	notices []Notice
}

func (n *noticeLog) Notify(x Notice) {
	n.mu.Lock()
	n.notices = append(n.notices, x)
	n.mu.Unlock()
}

func (n *noticeLog) errors() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	c := 0
	for _, x := range n.notices {
		if x.Level == NoticeError {
			c++
		}
	}
	return c
}
