package bubbles

import (
	"math/rand"
	"sync"

	"github.com/zyedidia/generic/mapset"

	"github.com/robalobadob/triads/internal/game"
)

// Field owns the simulation state for one board. The frame loop, selection
// clicks and re-layouts all go through it; every change swaps in a new World.
type Field struct {
	mu       sync.Mutex
	world    World
	cues     []game.Cue
	selected mapset.Set[int] // cue ids
	rng      *rand.Rand
	nextID   int
}

// NewField creates an empty field for bounds. seed drives the slot shuffle
// and initial drift.
func NewField(b Bounds, seed int64) *Field {
	return &Field{
		world:    World{Bounds: b, MaxRadius: MaxRadius(b)},
		selected: mapset.New[int](),
		rng:      rand.New(rand.NewSource(seed)),
	}
}

// Snapshot returns the current frame.
func (f *Field) Snapshot() World {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.world.clone()
}

// Tick advances one frame and returns it.
func (f *Field) Tick() World {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.world = Step(f.world)
	return f.world.clone()
}

// SetCues re-lays the board for a new set of cues. Selection marks survive
// for cues still present; bubbles already bursting keep fading.
func (f *Field) SetCues(cues []game.Cue) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cues = append([]game.Cue(nil), cues...)
	present := mapset.New[int]()
	for _, c := range cues {
		present.Put(c.ID)
	}
	var drop []int
	f.selected.Each(func(id int) {
		if !present.Has(id) {
			drop = append(drop, id)
		}
	})
	for _, id := range drop {
		f.selected.Remove(id)
	}
	f.initializeLocked(f.world.Bounds)
}

// Resize re-runs the full layout for new container bounds.
func (f *Field) Resize(b Bounds) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.initializeLocked(b)
}

func (f *Field) initializeLocked(b Bounds) {
	var bursting []Bubble
	for _, bb := range f.world.Bubbles {
		if bb.Bursting {
			bursting = append(bursting, bb)
		}
	}
	w := Layout(f.cues, b, f.rng)
	for i := range w.Bubbles {
		f.nextID++
		w.Bubbles[i].ID = f.nextID
		if f.selected.Has(w.Bubbles[i].CueID) {
			w.Bubbles[i] = applySelect(w.Bubbles[i], b)
		}
	}
	w.Bubbles = append(w.Bubbles, bursting...)
	w.Frame = f.world.Frame
	f.world = w
}

// SyncSelection makes the field's selection match ids exactly.
func (f *Field) SyncSelection(ids []int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	want := mapset.New[int]()
	for _, id := range ids {
		want.Put(id)
	}
	var drop []int
	f.selected.Each(func(id int) {
		if !want.Has(id) {
			drop = append(drop, id)
		}
	})
	for _, id := range drop {
		if w, ok := DeselectBubble(f.world, id); ok {
			f.world = w
		}
		f.selected.Remove(id)
	}
	for _, id := range ids {
		if f.selected.Has(id) {
			continue
		}
		if w, ok := SelectBubble(f.world, id); ok {
			f.world = w
			f.selected.Put(id)
		}
	}
}

// Burst starts the burst animation for cueIDs; the bubbles fade out over
// the next frames and are then removed.
func (f *Field) Burst(cueIDs []int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := mapset.New[int]()
	for _, id := range cueIDs {
		ids.Put(id)
		f.selected.Remove(id)
	}
	w := f.world.clone()
	for i := range w.Bubbles {
		if ids.Has(w.Bubbles[i].CueID) {
			b := restore(w.Bubbles[i])
			b.Bursting = true
			w.Bubbles[i] = b
		}
	}
	f.world = w
}
