// internal/play/table.go
//
// A Table is one open game board: a game.Session plus the bubble field the
// player clicks on, driven by its own frame loop.
//
// Responsibilities:
//   - Forward player commands to the session.
//   - Keep the bubble field in step with the session: cues that leave play
//     burst, new rounds re-lay the board, selection marks follow the session.
//   - Fan out state snapshots, frames and notices to table subscribers
//     (the websocket stream).
//
// Notes:
//   - Session snapshots may arrive from several goroutines (commands and
//     delayed transitions); older versions than the last applied are skipped.

package play

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/zyedidia/generic/mapset"

	"github.com/robalobadob/triads/internal/bubbles"
	"github.com/robalobadob/triads/internal/game"
)

// EventType tags a table event.
type EventType string

const (
	EventState  EventType = "state"
	EventFrame  EventType = "frame"
	EventNotice EventType = "notice"
)

// Event is what subscribers receive. Exactly one payload is set.
type Event struct {
	Type   EventType      `json:"type"`
	State  *game.Snapshot `json:"state,omitempty"`
	Frame  *bubbles.World `json:"frame,omitempty"`
	Notice *game.Notice   `json:"notice,omitempty"`
}

// View is the combined table state returned by the play API.
type View struct {
	ID    string        `json:"id"`
	Game  game.Snapshot `json:"game"`
	Board bubbles.World `json:"board"`
}

// Options configure a Table. Session.ID is filled from ID when empty.
type Options struct {
	ID             string
	Session        game.Options
	Bounds         bubbles.Bounds
	Seed           int64
	FrameInterval  time.Duration
	ResizeDebounce time.Duration
}

// Table joins a session and its bubble field.
type Table struct {
	id      string
	session *game.Session
	field   *bubbles.Field
	loop    *bubbles.Loop
	unsub   func()
	log     zerolog.Logger

	mu          sync.Mutex
	lastVersion uint64
	lastGen     int
	onBoard     mapset.Set[int] // cue ids laid out on the field
	closed      bool

	subMu   sync.RWMutex
	subs    map[int]func(Event)
	nextSub int
}

// New builds a table; call Start to load the first puzzle.
func New(opts Options) *Table {
	if opts.Session.ID == "" {
		opts.Session.ID = opts.ID
	}
	t := &Table{
		id:      opts.ID,
		field:   bubbles.NewField(opts.Bounds, opts.Seed),
		log:     log.With().Str("table", opts.ID).Logger(),
		onBoard: mapset.New[int](),
		subs:    make(map[int]func(Event)),
	}

	inner := opts.Session.Notifier
	if inner == nil {
		inner = game.LogNotifier{}
	}
	opts.Session.Notifier = game.NotifierFunc(func(n game.Notice) {
		inner.Notify(n)
		t.emit(Event{Type: EventNotice, Notice: &n})
	})

	t.session = game.NewSession(opts.Session)
	t.loop = bubbles.NewLoop(t.field, opts.FrameInterval, opts.ResizeDebounce, func(w bubbles.World) {
		t.emit(Event{Type: EventFrame, Frame: &w})
	})
	t.unsub = t.session.Subscribe(t.sync)
	return t
}

// ID returns the table identifier.
func (t *Table) ID() string { return t.id }

// Session exposes the underlying session.
func (t *Table) Session() *game.Session { return t.session }

// Start begins the frame loop and loads a puzzle. The loop outlives ctx;
// it is stopped by Close.
func (t *Table) Start(ctx context.Context) error {
	t.loop.Start(context.WithoutCancel(ctx))
	return t.session.Start(ctx)
}

// Click toggles the selection of cueID.
func (t *Table) Click(ctx context.Context, cueID int) error {
	for _, c := range t.session.Selected() {
		if c.ID == cueID {
			return t.session.DeselectCue(cueID)
		}
	}
	return t.session.SelectCue(ctx, cueID)
}

// Select adds cueID to the selection.
func (t *Table) Select(ctx context.Context, cueID int) error {
	return t.session.SelectCue(ctx, cueID)
}

// Deselect removes cueID from the selection.
func (t *Table) Deselect(cueID int) error {
	return t.session.DeselectCue(cueID)
}

// SubmitAnswer checks the answer for the selected triad.
func (t *Table) SubmitAnswer(ctx context.Context, answer string) error {
	return t.session.SubmitAnswer(ctx, answer)
}

// RequestHint applies a hint of the given flavor.
func (t *Table) RequestHint(ctx context.Context, flavor game.HintFlavor) error {
	return t.session.RequestHint(ctx, flavor)
}

// LoadBonus retries loading the bonus round.
func (t *Table) LoadBonus(ctx context.Context) error {
	return t.session.LoadBonus(ctx)
}

// Restart abandons the game and loads a new puzzle.
func (t *Table) Restart(ctx context.Context) error {
	return t.session.Restart(ctx)
}

// Resize re-lays the board once resizing settles.
func (t *Table) Resize(b bubbles.Bounds) {
	t.loop.Resize(b)
}

// Share returns the share-sheet text for the current game.
func (t *Table) Share() string {
	return game.ShareText(t.session.Snapshot())
}

// View returns the session and board state.
func (t *Table) View() View {
	return View{ID: t.id, Game: t.session.Snapshot(), Board: t.field.Snapshot()}
}

// Subscribe registers fn for table events. fn must not block; the frame
// loop calls it at frame rate.
func (t *Table) Subscribe(fn func(Event)) func() {
	t.subMu.Lock()
	id := t.nextSub
	t.nextSub++
	t.subs[id] = fn
	t.subMu.Unlock()
	return func() {
		t.subMu.Lock()
		delete(t.subs, id)
		t.subMu.Unlock()
	}
}

// Close stops the frame loop and any pending session transition.
func (t *Table) Close() {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	t.closed = true
	t.mu.Unlock()

	t.unsub()
	t.loop.Stop()
	t.session.Close()
	t.subMu.Lock()
	t.subs = make(map[int]func(Event))
	t.subMu.Unlock()
	t.log.Debug().Msg("table closed")
}

// Closed reports whether Close has been called.
func (t *Table) Closed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}

// sync applies a session snapshot to the field.
func (t *Table) sync(snap game.Snapshot) {
	t.mu.Lock()
	if t.closed || snap.Version <= t.lastVersion {
		t.mu.Unlock()
		return
	}
	t.lastVersion = snap.Version

	active := snap.ActiveCues()
	present := mapset.New[int]()
	for _, c := range active {
		present.Put(c.ID)
	}

	newGame := snap.Generation != t.lastGen
	t.lastGen = snap.Generation

	var gone []int
	t.onBoard.Each(func(id int) {
		if !present.Has(id) {
			gone = append(gone, id)
		}
	})
	changed := newGame || len(gone) > 0 || present.Size() != t.onBoard.Size()

	if len(gone) > 0 && !newGame {
		t.field.Burst(gone)
	}
	if changed {
		t.field.SetCues(active)
		t.onBoard = present
	}
	ids := make([]int, len(snap.Selected))
	for i, c := range snap.Selected {
		ids[i] = c.ID
	}
	t.field.SyncSelection(ids)
	t.mu.Unlock()

	t.emit(Event{Type: EventState, State: &snap})
}

func (t *Table) emit(e Event) {
	t.subMu.RLock()
	fns := make([]func(Event), 0, len(t.subs))
	for _, fn := range t.subs {
		fns = append(fns, fn)
	}
	t.subMu.RUnlock()
	for _, fn := range fns {
		fn(e)
	}
}
