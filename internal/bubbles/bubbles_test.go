package bubbles

import (
	"context"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/robalobadob/triads/internal/game"
)

var testBounds = Bounds{Width: 800, Height: 600}

func nineCues() []game.Cue {
	words := []string{"place", "work", "fly", "fall", "melon", "mark", "track", "check", "bite"}
	out := make([]game.Cue, len(words))
	for i, w := range words {
		out[i] = game.Cue{ID: 100 + i, Word: w}
	}
	return out
}

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func selectedIDs(f *Field) []int {
	var ids []int
	for _, b := range f.Snapshot().Bubbles {
		if b.Selected {
			ids = append(ids, b.CueID)
		}
	}
	return ids
}

func TestSelectionCapsAtThree(t *testing.T) {
	f := NewField(testBounds, 1)
	f.SetCues(nineCues())
	f.SyncSelection([]int{100, 101, 102, 103})
	if ids := selectedIDs(f); len(ids) != 3 || f.selected.Has(103) {
		t.Fatalf("expected a fourth selection to be rejected, got %v", ids)
	}
	if n := f.selected.Size(); n != 3 {
		t.Fatalf("expected 3 selected, got %d", n)
	}
	f.SyncSelection([]int{100, 102, 103})
	if ids := selectedIDs(f); len(ids) != 3 || f.selected.Has(101) || !f.selected.Has(103) {
		t.Fatalf("expected deselect to free a selection slot, got %v", ids)
	}
}

func TestDeselectRestoresOriginals(t *testing.T) {
	f := NewField(Bounds{Width: 400, Height: 700}, 2)
	f.SetCues(nineCues())
	before := f.Snapshot().Bubbles[0]
	f.SyncSelection([]int{before.CueID})

	var sel Bubble
	for _, b := range f.Snapshot().Bubbles {
		if b.CueID == before.CueID {
			sel = b
		}
	}
	if sel.Color != HighlightColor || !sel.Paused || sel.Radius < 1.5*sel.OriginalRadius-1e-9 {
		t.Fatalf("unexpected selected bubble %+v", sel)
	}

	f.SyncSelection(nil)
	for _, b := range f.Snapshot().Bubbles {
		if b.CueID != before.CueID {
			continue
		}
		if b.Radius != b.OriginalRadius || b.Color != b.OriginalColor || b.Paused || b.Selected {
			t.Fatalf("expected originals restored, got %+v", b)
		}
	}
}

func TestCollisionExchangesNormalsSymmetrically(t *testing.T) {
	a := Bubble{CueID: 1, Pos: Vec{100, 100}, Vel: Vec{2, 1}, Radius: 20, OriginalRadius: 20, Opacity: 1}
	b := Bubble{CueID: 2, Pos: Vec{140, 100}, Vel: Vec{-1, 3}, Radius: 20, OriginalRadius: 20, Opacity: 1}
	collide(&a, &b)

	// Normal is +X: normals swap with damping, tangents stay.
	if !approx(a.Vel.X, -1*damping) || !approx(b.Vel.X, 2*damping) {
		t.Fatalf("unexpected normal velocities a=%v b=%v", a.Vel, b.Vel)
	}
	if !approx(a.Vel.Y, 1) || !approx(b.Vel.Y, 3) {
		t.Fatalf("expected tangents kept, got a=%v b=%v", a.Vel, b.Vel)
	}
	overlap := 20 + 20 + collisionPadding - 40
	if !approx(a.Pos.X, 100-overlap*separation) || !approx(b.Pos.X, 140+overlap*separation) {
		t.Fatalf("expected symmetric separation, got a=%v b=%v", a.Pos, b.Pos)
	}
}

func TestCollisionWithSelectedLeavesItInPlace(t *testing.T) {
	a := Bubble{CueID: 1, Pos: Vec{100, 100}, Vel: Vec{0, 0}, Radius: 20, Selected: true}
	b := Bubble{CueID: 2, Pos: Vec{130, 100}, Vel: Vec{-2, 1}, Radius: 20}
	collide(&a, &b)
	if a.Pos != (Vec{100, 100}) || a.Vel != (Vec{0, 0}) {
		t.Fatalf("expected selected bubble untouched, got %+v", a)
	}
	if b.Vel.X <= 0 || !approx(b.Vel.Y, 1) {
		t.Fatalf("expected free bubble to bounce away, got vel %v", b.Vel)
	}
	if b.Pos.X <= 130 {
		t.Fatalf("expected free bubble pushed out, got %v", b.Pos)
	}
}

func TestStepBouncesOffWalls(t *testing.T) {
	w := World{
		Bounds: Bounds{Width: 200, Height: 200},
		Bubbles: []Bubble{{
			CueID: 1, Pos: Vec{195, 100}, Slot: Vec{195, 100}, Vel: Vec{10, 0},
			Radius: 10, OriginalRadius: 10, Opacity: 1,
		}},
	}
	next := Step(w)
	b := next.Bubbles[0]
	if b.Vel.X >= 0 {
		t.Fatalf("expected reflected velocity, got %v", b.Vel)
	}
	if b.Pos.X > 190 {
		t.Fatalf("expected clamp inside bounds, got %v", b.Pos)
	}
	if w.Bubbles[0].Pos.X != 195 {
		t.Fatalf("expected input world untouched")
	}
	if next.Frame != 1 {
		t.Fatalf("expected frame 1, got %d", next.Frame)
	}
}

func TestStepTugsTowardSlot(t *testing.T) {
	w := World{
		Bounds: Bounds{Width: 1000, Height: 1000},
		Bubbles: []Bubble{{
			CueID: 1, Pos: Vec{300, 500}, Slot: Vec{500, 500},
			Radius: 20, OriginalRadius: 20, Opacity: 1,
		}},
	}
	next := Step(w)
	if got := next.Bubbles[0].Pos.X; !approx(got, 300+200*restoreStrength) {
		t.Fatalf("expected 2%% tug to %v, got %v", 300+200*restoreStrength, got)
	}

	near := w.clone()
	near.Bubbles[0].Pos = Vec{495, 500}
	if got := Step(near).Bubbles[0].Pos.X; got != 495 {
		t.Fatalf("expected no tug within half a radius, got %v", got)
	}
}

func TestSelectedBubbleIsFrozen(t *testing.T) {
	f := NewField(testBounds, 3)
	f.SetCues(nineCues())
	f.SyncSelection([]int{104})
	var before Bubble
	for _, b := range f.Snapshot().Bubbles {
		if b.CueID == 104 {
			before = b
		}
	}
	for i := 0; i < 30; i++ {
		f.Tick()
	}
	for _, b := range f.Snapshot().Bubbles {
		if b.CueID == 104 && b.Pos != before.Pos {
			t.Fatalf("expected selected bubble frozen at %v, got %v", before.Pos, b.Pos)
		}
	}
}

func TestBurstFadesAndDrops(t *testing.T) {
	f := NewField(testBounds, 4)
	f.SetCues(nineCues())
	f.SyncSelection([]int{100})
	f.Burst([]int{100, 101, 102})
	f.SetCues(nineCues()[3:])

	w := f.Snapshot()
	if len(w.Bubbles) != 9 {
		t.Fatalf("expected 6 live + 3 bursting bubbles, got %d", len(w.Bubbles))
	}
	if f.selected.Has(100) {
		t.Fatalf("expected burst cue to leave the selection")
	}
	for i := 0; i < 20; i++ {
		w = f.Tick()
	}
	if len(w.Bubbles) != 6 {
		t.Fatalf("expected bursting bubbles removed, got %d", len(w.Bubbles))
	}
}

func TestUniformRadiusBreakpoints(t *testing.T) {
	words := []string{"watermelon"}
	wide := UniformRadius(words, Bounds{Width: 1200, Height: 1200})
	narrow := UniformRadius(words, Bounds{Width: 400, Height: 1200})
	if wide <= 0 || narrow <= 0 || narrow >= wide {
		t.Fatalf("expected smaller radius on narrow screens, got wide=%v narrow=%v", wide, narrow)
	}
	if fit := textFit(words, tierWide); !approx(fit, 100*0.5) {
		t.Fatalf("expected text fit 50, got %v", fit)
	}
	if fit := textFit([]string{"a"}, tierNarrow); !approx(fit, 60*0.35) {
		t.Fatalf("expected text fit floor 21, got %v", fit)
	}
}

func TestSelectedRadiusClamps(t *testing.T) {
	b := Bounds{Width: 1000, Height: 1000}
	if got := SelectedRadius(40, b); !approx(got, 60) {
		t.Fatalf("expected floor of 1.5x on wide screens, got %v", got)
	}
	if got := SelectedRadius(150, b); !approx(got, MaxRadius(b)) {
		t.Fatalf("expected clamp to max radius %v, got %v", MaxRadius(b), got)
	}
	small := Bounds{Width: 400, Height: 1000}
	if got := SelectedRadius(20, small); !approx(got, 35) {
		t.Fatalf("expected 1.75x on narrow screens, got %v", got)
	}
}

func TestLayoutUsesDiamondSlots(t *testing.T) {
	w := Layout(nineCues(), testBounds, rand.New(rand.NewSource(5)))
	if len(w.Bubbles) != MaxBubbles {
		t.Fatalf("expected %d bubbles, got %d", MaxBubbles, len(w.Bubbles))
	}
	seen := map[Vec]bool{}
	for _, b := range w.Bubbles {
		if b.Pos != b.Slot || seen[b.Slot] {
			t.Fatalf("expected each bubble on its own slot, got %+v", b)
		}
		seen[b.Slot] = true
		if b.Radius != w.Radius || b.Opacity != 1 {
			t.Fatalf("unexpected bubble %+v", b)
		}
	}
	three := Layout(nineCues()[:3], testBounds, rand.New(rand.NewSource(5)))
	for _, b := range three.Bubbles {
		if b.Slot.Y != testBounds.Center().Y {
			t.Fatalf("expected a three-cue round on the centre row, got %v", b.Slot)
		}
	}
}

func TestLoopTicksAndDebouncesResize(t *testing.T) {
	f := NewField(testBounds, 6)
	f.SetCues(nineCues())
	frames := make(chan World, 64)
	l := NewLoop(f, time.Millisecond, 20*time.Millisecond, func(w World) {
		select {
		case frames <- w:
		default:
		}
	})
	l.Start(context.Background())
	defer l.Stop()

	select {
	case <-frames:
	case <-time.After(time.Second):
		t.Fatalf("expected a frame within a second")
	}

	l.Resize(Bounds{Width: 500, Height: 500})
	l.Resize(Bounds{Width: 300, Height: 600})
	time.Sleep(100 * time.Millisecond)
	if got := f.Snapshot().Bounds; got != (Bounds{Width: 300, Height: 600}) {
		t.Fatalf("expected the last resize to win, got %+v", got)
	}

	l.Stop()
	for len(frames) > 0 {
		<-frames
	}
	time.Sleep(20 * time.Millisecond)
	if n := len(frames); n != 0 {
		t.Fatalf("expected no frames after stop, got %d", n)
	}
}
