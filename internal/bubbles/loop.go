package bubbles

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	// DefaultFrameInterval approximates a 60 Hz display refresh.
	DefaultFrameInterval = 16 * time.Millisecond

	// DefaultResizeDebounce delays re-layout until resizing settles.
	DefaultResizeDebounce = 250 * time.Millisecond
)

// Loop drives a Field frame by frame until stopped, and debounces resizes.
type Loop struct {
	field    *Field
	interval time.Duration
	debounce time.Duration
	onFrame  func(World) // optional

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	pending *time.Timer
}

// NewLoop wires a loop to field. Zero durations fall back to the defaults.
func NewLoop(field *Field, interval, debounce time.Duration, onFrame func(World)) *Loop {
	if interval <= 0 {
		interval = DefaultFrameInterval
	}
	if debounce <= 0 {
		debounce = DefaultResizeDebounce
	}
	return &Loop{field: field, interval: interval, debounce: debounce, onFrame: onFrame}
}

// Start begins ticking. Calling Start on a running loop is a no-op.
func (l *Loop) Start(ctx context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	l.cancel = cancel
	l.done = make(chan struct{})
	go l.run(ctx, l.done)
}

func (l *Loop) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Debug().Msg("bubble loop stopped")
			return
		case <-ticker.C:
			w := l.field.Tick()
			if l.onFrame != nil {
				l.onFrame(w)
			}
		}
	}
}

// Stop cancels the frame task and any pending re-layout, and waits for the
// frame goroutine to exit.
func (l *Loop) Stop() {
	l.mu.Lock()
	cancel, done := l.cancel, l.done
	l.cancel, l.done = nil, nil
	if l.pending != nil {
		l.pending.Stop()
		l.pending = nil
	}
	l.mu.Unlock()
	if cancel != nil {
		cancel()
		<-done
	}
}

// Resize schedules a full re-layout after the debounce window. A newer
// resize replaces the pending one.
func (l *Loop) Resize(b Bounds) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.pending != nil {
		l.pending.Stop()
	}
	l.pending = time.AfterFunc(l.debounce, func() {
		l.field.Resize(b)
	})
}
