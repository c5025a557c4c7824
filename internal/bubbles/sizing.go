package bubbles

import "math"

// Responsive breakpoints (container width in px).
const (
	breakpointWide   = 768
	breakpointNarrow = 480
)

// tier holds the per-breakpoint sizing knobs.
type tier struct {
	maxFraction float64 // MaxRadius as a fraction of the shorter side
	textScale   float64 // scales the text-fit heuristic down on small screens
	selectScale float64 // radius growth on selection
}

var (
	tierWide   = tier{maxFraction: 0.16, textScale: 0.5, selectScale: 1.3}
	tierMedium = tier{maxFraction: 0.18, textScale: 0.42, selectScale: 1.5}
	tierNarrow = tier{maxFraction: 0.2, textScale: 0.35, selectScale: 1.75}
)

func tierFor(b Bounds) tier {
	switch {
	case b.Width >= breakpointWide:
		return tierWide
	case b.Width >= breakpointNarrow:
		return tierMedium
	default:
		return tierNarrow
	}
}

// textFit is the radius needed to show the longest word.
func textFit(words []string, t tier) float64 {
	longest := 0
	for _, w := range words {
		if n := len([]rune(w)); n > longest {
			longest = n
		}
	}
	return math.Max(60, float64(longest)*10) * t.textScale
}

// UniformRadius is the shared radius for every bubble: the smallest of the
// text-fit radius, the area-derived radius and the radius at which the
// diamond still fits inside the container.
func UniformRadius(words []string, b Bounds) float64 {
	if b.Width <= 0 || b.Height <= 0 {
		return 0
	}
	t := tierFor(b)
	fit := textFit(words, t)
	area := math.Sqrt(b.Width*b.Height/(float64(len(diamond))*math.Pi)) * 0.5
	bound := math.Min(b.Width, b.Height) / (4*diamondSpacing + 2)
	return math.Min(fit, math.Min(area, bound))
}

// MaxRadius caps selection growth for the container.
func MaxRadius(b Bounds) float64 {
	return math.Min(b.Width, b.Height) * tierFor(b).maxFraction
}

// SelectedRadius grows original by the breakpoint's scale, clamped to
// [1.5×original, MaxRadius].
func SelectedRadius(original float64, b Bounds) float64 {
	r := math.Max(original*tierFor(b).selectScale, original*1.5)
	return math.Min(r, MaxRadius(b))
}
