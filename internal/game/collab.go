// internal/game/collab.go
//
// Collaborators the session depends on:
//   - Puzzle:    the content API (cue groups, triad/answer checks, solutions).
//   - Notifier:  user-visible notices (toasts).
//   - Scheduler: delayed callbacks for the feedback display delay.

package game

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// Puzzle is the content API. Implementations may be local (SQLite) or remote (HTTP).
type Puzzle interface {
	// FetchCueGroups returns the initial triads for a difficulty.
	// A *NoPuzzleError signals that nothing is available.
	FetchCueGroups(ctx context.Context, difficulty string) ([]CueGroup, error)

	// CheckTriad reports whether the cues form one triad.
	CheckTriad(ctx context.Context, cues []Cue) (bool, error)

	// CheckAnswer returns the solved triad, or nil when the answer is wrong.
	CheckAnswer(ctx context.Context, cues []Cue, answer string) (*SolvedTriad, error)

	// FetchBonusCues returns the bonus round cues derived from the solved triads.
	FetchBonusCues(ctx context.Context, solvedIDs []int) ([]Cue, error)

	// FetchGroupSolutions returns every triad of a set: three initial, then the bonus.
	FetchGroupSolutions(ctx context.Context, setID int) ([]SolvedTriad, error)

	// FetchHint returns keyword facts for the triad formed by cues without
	// revealing the keyword itself.
	FetchHint(ctx context.Context, cues []Cue) (HintContent, error)
}

// NoticeLevel classifies a notice.
type NoticeLevel string

const (
	NoticeInfo  NoticeLevel = "info"
	NoticeError NoticeLevel = "error"
)

// Notice is a user-visible notification.
type Notice struct {
	Level   NoticeLevel `json:"level"`
	Message string      `json:"message"`
}

// Notifier delivers notices to the player.
type Notifier interface {
	Notify(n Notice)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Notice)

func (f NotifierFunc) Notify(n Notice) { f(n) }

// LogNotifier writes notices to the global logger.
type LogNotifier struct{}

func (LogNotifier) Notify(n Notice) {
	ev := log.Info()
	if n.Level == NoticeError {
		ev = log.Warn()
	}
	ev.Str("notice", string(n.Level)).Msg(n.Message)
}

// Timer is a cancellable pending callback.
type Timer interface {
	Stop() bool
}

// Scheduler runs f once after d.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// RealScheduler schedules on the runtime timer heap.
type RealScheduler struct{}

func (RealScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
