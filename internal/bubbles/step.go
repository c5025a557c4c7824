// internal/bubbles/step.go
//
// Per-frame update. Step is pure: it returns a new World and never touches
// the slice it was given.
//
// Order per frame:
//   1. Bursting bubbles fade; selected bubbles stay frozen.
//   2. Free bubbles move by their velocity and bounce off the container walls.
//   3. Pairwise collisions: normal velocity components are exchanged (damped)
//      and overlapping bubbles are pushed apart along the collision normal.
//      A selected partner never moves.
//   4. Free bubbles drifting from their diamond slot are tugged back toward it.

package bubbles

import "math"

const (
	collisionPadding = 10.0
	damping          = 0.6
	separation       = 0.6
	restoreStrength  = 0.02
	restoreThreshold = 0.5 // in radii
	burstFade        = 0.08
	burstGrowth      = 1.04
)

// Step advances w by one frame.
func Step(w World) World {
	next := w.clone()
	next.Frame++
	bs := next.Bubbles

	for i := range bs {
		b := &bs[i]
		if b.Bursting {
			b.Opacity -= burstFade
			b.Radius *= burstGrowth
			continue
		}
		if b.Selected {
			continue
		}
		b.Pos = b.Pos.Add(b.Vel)
		bounce(b, w.Bounds)
	}

	for i := 0; i < len(bs); i++ {
		for j := i + 1; j < len(bs); j++ {
			collide(&bs[i], &bs[j])
		}
	}

	for i := range bs {
		b := &bs[i]
		if !b.free() {
			continue
		}
		if b.Pos.Dist(b.Slot) > restoreThreshold*b.Radius {
			b.Pos = b.Pos.Lerp(b.Slot, restoreStrength)
		}
	}

	kept := bs[:0]
	for _, b := range bs {
		if b.Bursting && b.Opacity <= 0 {
			continue
		}
		kept = append(kept, b)
	}
	next.Bubbles = kept
	return next
}

// bounce reflects the velocity component pointing out of the container and
// clamps the bubble inside it.
func bounce(b *Bubble, bounds Bounds) {
	if b.Pos.X-b.Radius < 0 {
		b.Pos.X = b.Radius
		b.Vel.X = math.Abs(b.Vel.X)
	} else if b.Pos.X+b.Radius > bounds.Width {
		b.Pos.X = bounds.Width - b.Radius
		b.Vel.X = -math.Abs(b.Vel.X)
	}
	if b.Pos.Y-b.Radius < 0 {
		b.Pos.Y = b.Radius
		b.Vel.Y = math.Abs(b.Vel.Y)
	} else if b.Pos.Y+b.Radius > bounds.Height {
		b.Pos.Y = bounds.Height - b.Radius
		b.Vel.Y = -math.Abs(b.Vel.Y)
	}
}

// collide resolves one pair. Velocities are rotated into the collision frame
// (normal n, tangent t); tangents are kept and normals exchanged with damping.
// Against a selected partner only the free bubble reacts: its normal
// component is reflected with damping and it alone is pushed out.
func collide(a, b *Bubble) {
	if a.Bursting || b.Bursting || (a.Selected && b.Selected) {
		return
	}
	delta := b.Pos.Sub(a.Pos)
	dist := delta.Len()
	minDist := a.Radius + b.Radius + collisionPadding
	if dist >= minDist {
		return
	}
	n := Vec{1, 0}
	if dist > 0 {
		n = delta.Scale(1 / dist)
	}
	t := Vec{-n.Y, n.X}
	overlap := minDist - dist
	push := n.Scale(overlap * separation)

	switch {
	case a.Selected:
		b.Vel = reflectNormal(b.Vel, n, t)
		b.Pos = b.Pos.Add(push)
	case b.Selected:
		a.Vel = reflectNormal(a.Vel, n, t)
		a.Pos = a.Pos.Sub(push)
	default:
		an, at := a.Vel.Dot(n), a.Vel.Dot(t)
		bn, bt := b.Vel.Dot(n), b.Vel.Dot(t)
		a.Vel = n.Scale(bn * damping).Add(t.Scale(at))
		b.Vel = n.Scale(an * damping).Add(t.Scale(bt))
		a.Pos = a.Pos.Sub(push)
		b.Pos = b.Pos.Add(push)
	}
}

func reflectNormal(v, n, t Vec) Vec {
	return n.Scale(-v.Dot(n) * damping).Add(t.Scale(v.Dot(t)))
}
