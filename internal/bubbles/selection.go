package bubbles

import "github.com/robalobadob/triads/internal/game"

// SelectBubble returns a world with the bubble for cueID selected: grown,
// highlighted and with its decorative animation paused. It refuses when the
// cue is absent, bursting, already selected, or game.MaxSelected bubbles are
// already selected.
func SelectBubble(w World, cueID int) (World, bool) {
	idx, count := -1, 0
	for i, b := range w.Bubbles {
		if b.Selected {
			count++
		}
		if b.CueID == cueID && !b.Bursting {
			idx = i
		}
	}
	if idx < 0 || w.Bubbles[idx].Selected || count >= game.MaxSelected {
		return w, false
	}
	next := w.clone()
	next.Bubbles[idx] = applySelect(next.Bubbles[idx], w.Bounds)
	return next, true
}

// DeselectBubble returns a world with the bubble for cueID back at its
// original radius and colour, animation resumed.
func DeselectBubble(w World, cueID int) (World, bool) {
	for i, b := range w.Bubbles {
		if b.CueID == cueID && b.Selected && !b.Bursting {
			next := w.clone()
			next.Bubbles[i] = restore(b)
			return next, true
		}
	}
	return w, false
}

func applySelect(b Bubble, bounds Bounds) Bubble {
	b.Selected = true
	b.Radius = SelectedRadius(b.OriginalRadius, bounds)
	b.Color = HighlightColor
	b.Paused = true
	return b
}

func restore(b Bubble) Bubble {
	b.Selected = false
	b.Radius = b.OriginalRadius
	b.Color = b.OriginalColor
	b.Paused = false
	return b
}
