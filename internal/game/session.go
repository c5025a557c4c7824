// internal/game/session.go
//
// Game session state machine for a single Triads game.
// Responsibilities:
//   - Load the initial triads and reset turns/hints.
//   - Track the selection (at most three cues) and run the triad check when full.
//   - Check answers, advance rounds, fetch the bonus round after the third solve.
//   - Apply the turn economy and end the game (score, profile, solution reveal).
//
// Notes:
//   - Collaborator calls are made with the lock released. Each result is applied
//     only if the session generation and the expected state still hold, so a
//     slow response arriving after a restart or a terminal state is dropped.
//   - Delayed reverts (wrong triad, wrong answer, correct answer) re-check the
//     state when they fire; nothing is cancelled preemptively on game end.

package game

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/zyedidia/generic/mapset"
)

const (
	// MaxSelected is the number of cues forming a triad.
	MaxSelected = 3

	// DefaultFeedbackDelay is how long WRONG_*/CORRECT_ANSWER stay on screen.
	DefaultFeedbackDelay = 3000 * time.Millisecond

	// BonusGroupID identifies the bonus group, whose id the content API does not expose.
	BonusGroupID = 0

	defaultCallTimeout = 10 * time.Second
)

// Options configure a Session.
type Options struct {
	ID            string
	DeviceID      string
	Difficulty    string
	FeedbackDelay time.Duration
	CallTimeout   time.Duration // bounds collaborator calls made from timers

	Puzzle    Puzzle
	Profiles  Profiles  // optional
	Notifier  Notifier  // optional, defaults to LogNotifier
	Scheduler Scheduler // optional, defaults to RealScheduler
	Now       func() time.Time

	// OnFinish is called once per game after it reaches WON or LOST.
	OnFinish func(Result)
}

// Result summarizes a finished game.
type Result struct {
	SessionID  string    `json:"sessionId"`
	DeviceID   string    `json:"deviceId"`
	SetID      int       `json:"setId"`
	Won        bool      `json:"won"`
	Score      int       `json:"score"`
	TurnsLeft  int       `json:"turnsLeft"`
	HintsLeft  int       `json:"hintsLeft"`
	Solved     int       `json:"solved"`
	FinishedAt time.Time `json:"finishedAt"`
}

// Session is one player's game. All methods are safe for concurrent use.
type Session struct {
	mu   sync.Mutex
	opts Options
	log  zerolog.Logger

	gen     int // bumped on every (re)start
	version uint64
	started bool

	state          State
	phase          Phase
	setID          int
	groups         []CueGroup // groups still in play
	selected       []Cue
	turns          []Slot
	hints          []Slot
	hintUsed       bool // one free wrong answer this round
	hintChoice     bool // UI must ask for a hint flavor
	reveal         *HintReveal
	solved         []SolvedTriad
	bonusRequested bool
	score          *int
	solutions      []SolvedTriad
	timer          Timer

	subs    map[int]func(Snapshot)
	nextSub int
}

// NewSession builds a session; call Start to load a puzzle.
func NewSession(opts Options) *Session {
	if opts.FeedbackDelay <= 0 {
		opts.FeedbackDelay = DefaultFeedbackDelay
	}
	if opts.CallTimeout <= 0 {
		opts.CallTimeout = defaultCallTimeout
	}
	if opts.Notifier == nil {
		opts.Notifier = LogNotifier{}
	}
	if opts.Scheduler == nil {
		opts.Scheduler = RealScheduler{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Session{
		opts:  opts,
		log:   log.With().Str("session", opts.ID).Logger(),
		state: StatePlaying,
		phase: PhaseInitial,
		turns: NewTurns(),
		hints: NewHints(),
		subs:  make(map[int]func(Snapshot)),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.opts.ID }

// Start fetches a fresh puzzle and resets the game. It is also the restart path:
// every call opens a new generation, so pending timers and in-flight calls of
// the previous game become no-ops.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	s.gen++
	gen := s.gen
	s.stopTimerLocked()
	difficulty := s.opts.Difficulty
	s.mu.Unlock()

	groups, err := s.opts.Puzzle.FetchCueGroups(ctx, difficulty)
	if err == nil && len(groups) == 0 {
		err = &NoPuzzleError{}
	}
	if err != nil {
		var np *NoPuzzleError
		if errors.As(err, &np) {
			s.notify(NoticeInfo, np.Error())
			return err
		}
		s.notify(NoticeError, "Could not load today's puzzle.")
		return netErr("fetch cue groups", err)
	}

	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		return nil
	}
	s.resetLocked(groups)
	s.mu.Unlock()

	s.log.Info().Int("set", groups[0].SetID).Int("groups", len(groups)).Msg("game started")
	s.publish()
	return nil
}

// Restart abandons the current game and starts a new one.
func (s *Session) Restart(ctx context.Context) error { return s.Start(ctx) }

// Close stops any pending delayed transition and drops subscribers.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	s.stopTimerLocked()
	s.subs = make(map[int]func(Snapshot))
}

func (s *Session) resetLocked(groups []CueGroup) {
	s.started = true
	s.state = StatePlaying
	s.phase = PhaseInitial
	s.setID = groups[0].SetID
	s.groups = append([]CueGroup(nil), groups...)
	s.selected = nil
	s.turns = NewTurns()
	s.hints = NewHints()
	s.hintUsed = false
	s.hintChoice = false
	s.reveal = nil
	s.solved = nil
	s.bonusRequested = false
	s.score = nil
	s.solutions = nil
}

// SelectCue adds a cue to the selection. Selecting a cue that is already
// selected, or a fourth cue, is a no-op. The third selection runs the triad check.
func (s *Session) SelectCue(ctx context.Context, cueID int) error {
	s.mu.Lock()
	if err := s.playableLocked(); err != nil {
		s.mu.Unlock()
		return err
	}
	if s.state != StatePlaying {
		s.mu.Unlock()
		return ErrNotAccepting
	}
	cue, ok := s.findCueLocked(cueID)
	if !ok {
		s.mu.Unlock()
		return ErrUnknownCue
	}
	if s.isSelectedLocked(cueID) || len(s.selected) >= MaxSelected {
		s.mu.Unlock()
		return nil
	}
	s.selected = append(s.selected, cue)
	var check []Cue
	if len(s.selected) == MaxSelected {
		check = append([]Cue(nil), s.selected...)
	}
	gen := s.gen
	s.mu.Unlock()

	s.publish()
	if check != nil {
		return s.checkTriad(ctx, gen, check)
	}
	return nil
}

// DeselectCue removes a cue from the selection. Deselecting while an answer
// is being accepted returns the session to PLAYING.
func (s *Session) DeselectCue(cueID int) error {
	s.mu.Lock()
	if err := s.playableLocked(); err != nil {
		s.mu.Unlock()
		return err
	}
	if s.state != StatePlaying && s.state != StateAcceptAnswer {
		s.mu.Unlock()
		return ErrNotAccepting
	}
	idx := -1
	for i, c := range s.selected {
		if c.ID == cueID {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return nil
	}
	s.selected = append(s.selected[:idx:idx], s.selected[idx+1:]...)
	if s.state == StateAcceptAnswer {
		s.state = StatePlaying
		s.reveal = nil
		s.hintUsed = false
	}
	s.mu.Unlock()

	s.publish()
	return nil
}

// checkTriad asks the content API whether the selection is a triad.
func (s *Session) checkTriad(ctx context.Context, gen int, cues []Cue) error {
	ok, err := s.opts.Puzzle.CheckTriad(ctx, cues)

	s.mu.Lock()
	if !s.currentLocked(gen, StatePlaying) || !sameCues(s.selected, cues) {
		s.mu.Unlock()
		return nil
	}
	if err != nil {
		s.mu.Unlock()
		s.notify(NoticeError, "Could not check your selection. Try again.")
		return netErr("check triad", err)
	}
	if ok {
		s.state = StateAcceptAnswer
		group := s.groupOfLocked(cues)
		if s.reveal == nil || s.reveal.GroupID != group {
			s.reveal = &HintReveal{GroupID: group}
			s.hintUsed = false
		}
		s.reveal.FocusAnswer = true
		s.mu.Unlock()
		s.log.Debug().Msg("triad accepted")
		s.publish()
		return nil
	}

	s.state = StateWrongTriad
	lost, err := s.consumeTurnLocked()
	if err != nil {
		s.mu.Unlock()
		s.notify(NoticeError, "Something went wrong.")
		return err
	}
	if lost {
		end := s.endLocked(false)
		s.mu.Unlock()
		s.finish(ctx, end)
		return nil
	}
	s.scheduleLocked(gen, func() bool {
		if s.state != StateWrongTriad {
			return false
		}
		s.state = StatePlaying
		s.clearSelectionLocked()
		return true
	})
	s.mu.Unlock()
	s.log.Debug().Int("turns", CountAvailable(s.Turns())).Msg("wrong triad")
	s.publish()
	return nil
}

// SubmitAnswer checks the free-text answer for the selected triad.
func (s *Session) SubmitAnswer(ctx context.Context, text string) error {
	s.mu.Lock()
	if err := s.playableLocked(); err != nil {
		s.mu.Unlock()
		return err
	}
	if s.state != StateAcceptAnswer {
		s.mu.Unlock()
		return ErrNotAccepting
	}
	answer := strings.TrimSpace(text)
	if answer == "" {
		s.mu.Unlock()
		return ErrEmptyAnswer
	}
	cues := append([]Cue(nil), s.selected...)
	gen := s.gen
	s.mu.Unlock()

	solved, err := s.opts.Puzzle.CheckAnswer(ctx, cues, answer)

	s.mu.Lock()
	if !s.currentLocked(gen, StateAcceptAnswer) || !sameCues(s.selected, cues) {
		s.mu.Unlock()
		return nil
	}
	if err != nil {
		s.mu.Unlock()
		s.notify(NoticeError, "Could not check your answer. Try again.")
		return netErr("check answer", err)
	}
	if solved != nil {
		return s.correctAnswerLocked(ctx, gen, cues, *solved)
	}
	return s.wrongAnswerLocked(ctx, gen)
}

// correctAnswerLocked is entered with the lock held and releases it.
func (s *Session) correctAnswerLocked(ctx context.Context, gen int, cues []Cue, solved SolvedTriad) error {
	s.state = StateCorrectAnswer
	s.solved = append(s.solved, solved)
	s.removeGroupLocked(cues)
	s.clearSelectionLocked()
	s.hintUsed = false

	if s.phase == PhaseFinal {
		end := s.endLocked(true)
		s.mu.Unlock()
		s.finish(ctx, end)
		return nil
	}

	var bonusFor []int
	if len(s.groups) == 0 && !s.bonusRequested {
		s.bonusRequested = true
		for _, t := range s.solved {
			bonusFor = append(bonusFor, t.ID)
		}
	}
	s.scheduleLocked(gen, func() bool {
		if s.state != StateCorrectAnswer {
			return false
		}
		s.state = StatePlaying
		return true
	})
	s.mu.Unlock()

	s.log.Info().Str("keyword", solved.Keyword).Int("solved", len(s.Solved())).Msg("triad solved")
	s.publish()
	if bonusFor != nil {
		return s.fetchBonus(ctx, gen, bonusFor)
	}
	return nil
}

// wrongAnswerLocked is entered with the lock held and releases it.
func (s *Session) wrongAnswerLocked(ctx context.Context, gen int) error {
	s.state = StateWrongAnswer
	if s.hintUsed {
		s.hintUsed = false
	} else {
		lost, err := s.consumeTurnLocked()
		if err != nil {
			s.mu.Unlock()
			s.notify(NoticeError, "Something went wrong.")
			return err
		}
		if lost {
			end := s.endLocked(false)
			s.mu.Unlock()
			s.finish(ctx, end)
			return nil
		}
	}
	s.scheduleLocked(gen, func() bool {
		if s.state != StateWrongAnswer {
			return false
		}
		if CountAvailable(s.hints) > 0 {
			s.state = StateAcceptAnswer
			return true
		}
		s.state = StatePlaying
		s.clearSelectionLocked()
		return true
	})
	s.mu.Unlock()
	s.publish()
	return nil
}

// LoadBonus retries the bonus round fetch after an earlier attempt failed.
// It is a no-op once the bonus round is loaded or a fetch is in flight.
func (s *Session) LoadBonus(ctx context.Context) error {
	s.mu.Lock()
	if err := s.playableLocked(); err != nil {
		s.mu.Unlock()
		return err
	}
	if s.phase == PhaseFinal || s.bonusRequested {
		s.mu.Unlock()
		return nil
	}
	if len(s.groups) > 0 || len(s.solved) == 0 {
		s.mu.Unlock()
		return ErrNotAccepting
	}
	s.bonusRequested = true
	ids := make([]int, 0, len(s.solved))
	for _, t := range s.solved {
		ids = append(ids, t.ID)
	}
	gen := s.gen
	s.mu.Unlock()

	return s.fetchBonus(ctx, gen, ids)
}

// fetchBonus loads the bonus round and moves the phase marker to FINAL.
func (s *Session) fetchBonus(ctx context.Context, gen int, solvedIDs []int) error {
	cues, err := s.opts.Puzzle.FetchBonusCues(ctx, solvedIDs)
	if err == nil && len(cues) != MaxSelected {
		err = errors.New("bonus round must have three cues")
	}

	s.mu.Lock()
	if gen != s.gen || s.state.Terminal() {
		s.mu.Unlock()
		return nil
	}
	if err != nil {
		s.bonusRequested = false
		s.mu.Unlock()
		s.notify(NoticeError, "Could not load the bonus round.")
		return netErr("fetch bonus cues", err)
	}
	bonus := CueGroup{ID: BonusGroupID, SetID: s.setID}
	copy(bonus.Cues[:], cues)
	s.groups = []CueGroup{bonus}
	s.phase = PhaseFinal
	s.mu.Unlock()

	s.log.Info().Msg("bonus round loaded")
	s.publish()
	return nil
}

// ending carries what finish needs once the lock is released.
type ending struct {
	gen    int
	won    bool
	phase  Phase
	solved mapset.Set[int]
	result Result
}

// endLocked moves the session to WON or LOST and computes the score.
func (s *Session) endLocked(won bool) *ending {
	if won {
		s.state = StateWon
	} else {
		s.state = StateLost
	}
	remaining, final := 0, 0
	for _, g := range s.groups {
		if s.phase == PhaseFinal {
			final += len(g.Cues)
		} else {
			remaining += len(g.Cues)
		}
	}
	turns, hints := CountAvailable(s.turns), CountAvailable(s.hints)
	tier := ComputeScore(turns, hints, remaining, final)
	s.score = &tier

	solved := mapset.New[int]()
	for _, t := range s.solved {
		solved.Put(t.ID)
	}
	return &ending{
		gen:    s.gen,
		won:    won,
		phase:  s.phase,
		solved: solved,
		result: Result{
			SessionID:  s.opts.ID,
			DeviceID:   s.opts.DeviceID,
			SetID:      s.setID,
			Won:        won,
			Score:      tier,
			TurnsLeft:  turns,
			HintsLeft:  hints,
			Solved:     len(s.solved),
			FinishedAt: s.opts.Now().UTC(),
		},
	}
}

// finish runs end-of-game bookkeeping: publish, profile, result hook, reveal.
func (s *Session) finish(ctx context.Context, e *ending) {
	s.log.Info().Bool("won", e.won).Int("score", e.result.Score).Msg("game over")
	s.publish()
	s.recordProfile(ctx, e.result.Score)
	if s.opts.OnFinish != nil {
		s.opts.OnFinish(e.result)
	}
	if !e.won {
		s.revealSolutions(ctx, e)
	}
}

func (s *Session) recordProfile(ctx context.Context, tier int) {
	if s.opts.Profiles == nil {
		return
	}
	u, err := s.opts.Profiles.Get(ctx, s.opts.DeviceID)
	if err != nil {
		s.log.Warn().Err(err).Msg("load profile")
		s.notify(NoticeError, "Could not save your score.")
		return
	}
	if u == nil {
		u = NewUser("")
	}
	u.Record(tier, s.opts.Now())
	if err := s.opts.Profiles.Set(ctx, s.opts.DeviceID, u); err != nil {
		s.log.Warn().Err(err).Msg("save profile")
		s.notify(NoticeError, "Could not save your score.")
	}
}

// revealSolutions fetches the unsolved triads of the failed phase.
// Failures are swallowed: the reveal simply shows nothing.
func (s *Session) revealSolutions(ctx context.Context, e *ending) {
	all, err := s.opts.Puzzle.FetchGroupSolutions(ctx, e.result.SetID)
	if err != nil {
		s.log.Debug().Err(err).Msg("solution reveal unavailable")
		return
	}
	scope := all
	if e.phase == PhaseInitial {
		if len(scope) > 3 {
			scope = scope[:3]
		}
	} else if len(scope) > 3 {
		scope = scope[3:4]
	} else {
		scope = nil
	}
	var unsolved []SolvedTriad
	for _, t := range scope {
		if !e.solved.Has(t.ID) {
			unsolved = append(unsolved, t)
		}
	}

	s.mu.Lock()
	if e.gen != s.gen || s.state != StateLost {
		s.mu.Unlock()
		return
	}
	s.solutions = unsolved
	s.mu.Unlock()
	s.publish()
}

// ---------------------------------------------------------------- helpers

func (s *Session) playableLocked() error {
	if !s.started {
		return ErrNotStarted
	}
	if s.state.Terminal() {
		return ErrGameOver
	}
	return nil
}

func (s *Session) currentLocked(gen int, want State) bool {
	return gen == s.gen && s.state == want
}

func (s *Session) consumeTurnLocked() (lost bool, err error) {
	turns, err := consume(s.turns, "turn")
	if err != nil {
		return false, err
	}
	s.turns = turns
	return CountAvailable(turns) == 0, nil
}

func (s *Session) scheduleLocked(gen int, apply func() bool) {
	s.stopTimerLocked()
	s.timer = s.opts.Scheduler.AfterFunc(s.opts.FeedbackDelay, func() {
		s.mu.Lock()
		if gen != s.gen || s.state.Terminal() {
			s.mu.Unlock()
			return
		}
		changed := apply()
		s.mu.Unlock()
		if changed {
			s.publish()
		}
	})
}

func (s *Session) stopTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *Session) clearSelectionLocked() {
	s.selected = nil
	s.reveal = nil
}

func (s *Session) findCueLocked(id int) (Cue, bool) {
	for _, g := range s.groups {
		for _, c := range g.Cues {
			if c.ID == id {
				return c, true
			}
		}
	}
	return Cue{}, false
}

func (s *Session) isSelectedLocked(id int) bool {
	for _, c := range s.selected {
		if c.ID == id {
			return true
		}
	}
	return false
}

// groupOfLocked returns the id of the group holding all of cues, or -1.
func (s *Session) groupOfLocked(cues []Cue) int {
	for _, g := range s.groups {
		if sameCues(g.Cues[:], cues) {
			return g.ID
		}
	}
	return -1
}

func (s *Session) removeGroupLocked(cues []Cue) {
	out := s.groups[:0]
	for _, g := range s.groups {
		if !sameCues(g.Cues[:], cues) {
			out = append(out, g)
		}
	}
	s.groups = out
}

func (s *Session) notify(level NoticeLevel, msg string) {
	s.opts.Notifier.Notify(Notice{Level: level, Message: msg})
}

// sameCues compares two cue lists as sets of ids.
func sameCues(a, b []Cue) bool {
	if len(a) != len(b) {
		return false
	}
	ids := mapset.New[int]()
	for _, c := range a {
		ids.Put(c.ID)
	}
	for _, c := range b {
		if !ids.Has(c.ID) {
			return false
		}
	}
	return true
}

func netErr(op string, err error) error {
	var ne *NetworkError
	if errors.As(err, &ne) {
		return err
	}
	return &NetworkError{Op: op, Err: err}
}
