// internal/bubbles/bubble.go
//
// Bubble physics simulator types.
// Defines:
//   - Vec:    2D vector with the few operations the simulator needs.
//   - Bounds: the rectangular container.
//   - Bubble: one interactive word bubble.
//   - World:  an immutable per-frame snapshot of every bubble.

package bubbles

import "math"

// Vec is a 2D vector in container pixels.
type Vec struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (v Vec) Add(o Vec) Vec             { return Vec{v.X + o.X, v.Y + o.Y} }
func (v Vec) Sub(o Vec) Vec             { return Vec{v.X - o.X, v.Y - o.Y} }
func (v Vec) Scale(k float64) Vec       { return Vec{v.X * k, v.Y * k} }
func (v Vec) Dot(o Vec) float64         { return v.X*o.X + v.Y*o.Y }
func (v Vec) Len() float64              { return math.Hypot(v.X, v.Y) }
func (v Vec) Dist(o Vec) float64        { return v.Sub(o).Len() }
func (v Vec) Lerp(o Vec, t float64) Vec { return v.Add(o.Sub(v).Scale(t)) }

// Bounds is the container size.
type Bounds struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Center returns the container midpoint.
func (b Bounds) Center() Vec { return Vec{b.Width / 2, b.Height / 2} }

// Bubble is one word bubble.
type Bubble struct {
	ID             int     `json:"id"`
	CueID          int     `json:"cueId"`
	Word           string  `json:"word"`
	Pos            Vec     `json:"pos"`
	Vel            Vec     `json:"vel"`
	Slot           Vec     `json:"slot"` // ideal diamond position
	Radius         float64 `json:"radius"`
	OriginalRadius float64 `json:"originalRadius"`
	Color          string  `json:"color"`
	OriginalColor  string  `json:"originalColor"`
	Opacity        float64 `json:"opacity"`
	Bursting       bool    `json:"bursting"`
	Selected       bool    `json:"selected"`
	Paused         bool    `json:"paused"` // decorative animation paused
}

// free reports whether the bubble takes part in motion this frame.
func (b Bubble) free() bool { return !b.Bursting && !b.Selected }

// World is one frame of the simulation.
type World struct {
	Bounds    Bounds   `json:"bounds"`
	Radius    float64  `json:"radius"`    // uniform bubble radius
	MaxRadius float64  `json:"maxRadius"` // selection growth cap
	Frame     uint64   `json:"frame"`
	Bubbles   []Bubble `json:"bubbles"`
}

// clone returns a World whose bubble slice can be modified freely.
func (w World) clone() World {
	w.Bubbles = append([]Bubble(nil), w.Bubbles...)
	return w
}
