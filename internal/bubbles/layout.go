package bubbles

import (
	"math"
	"math/rand"

	"github.com/robalobadob/triads/internal/game"
)

// MaxBubbles is the number of diamond slots.
const MaxBubbles = 9

// diamondSpacing is the slot pitch in radii.
const diamondSpacing = 1.55

// diamond holds the nine slot offsets (rows of 1-2-3-2-1) in pitch units.
var diamond = [MaxBubbles]Vec{
	{0, -2},
	{-1, -1}, {1, -1},
	{-2, 0}, {0, 0}, {2, 0},
	{-1, 1}, {1, 1},
	{0, 2},
}

// fillOrder picks slots centre-out so smaller rounds stay compact.
var fillOrder = [MaxBubbles]int{4, 3, 5, 1, 2, 6, 7, 0, 8}

// Palette is the resting colour cycle.
var Palette = []string{"#F4A261", "#2A9D8F", "#E9C46A", "#8AB17D", "#E76F51", "#6D597A", "#B5838D", "#457B9D", "#F28482"}

// HighlightColor marks selected bubbles.
const HighlightColor = "#FFD166"

const (
	minSpeed = 0.3
	maxSpeed = 0.8
)

// SlotPosition returns the ideal position of diamond slot i.
func SlotPosition(i int, b Bounds, radius float64) Vec {
	return b.Center().Add(diamond[i].Scale(diamondSpacing * radius))
}

// Layout builds a fresh world for cues: uniform radius, cues shuffled into
// the diamond, small random drift. Cues beyond MaxBubbles are ignored.
func Layout(cues []game.Cue, b Bounds, rng *rand.Rand) World {
	if len(cues) > MaxBubbles {
		cues = cues[:MaxBubbles]
	}
	words := make([]string, len(cues))
	for i, c := range cues {
		words[i] = c.Word
	}
	r := UniformRadius(words, b)
	w := World{Bounds: b, Radius: r, MaxRadius: MaxRadius(b)}

	perm := rng.Perm(len(cues))
	for i, c := range cues {
		slot := SlotPosition(fillOrder[perm[i]], b, r)
		angle := rng.Float64() * 2 * math.Pi
		speed := minSpeed + rng.Float64()*(maxSpeed-minSpeed)
		color := Palette[i%len(Palette)]
		w.Bubbles = append(w.Bubbles, Bubble{
			ID:             i + 1,
			CueID:          c.ID,
			Word:           c.Word,
			Pos:            slot,
			Vel:            Vec{math.Cos(angle) * speed, math.Sin(angle) * speed},
			Slot:           slot,
			Radius:         r,
			OriginalRadius: r,
			Color:          color,
			OriginalColor:  color,
			Opacity:        1,
		})
	}
	return w
}
