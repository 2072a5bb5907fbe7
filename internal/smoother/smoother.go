// Package smoother implements the two-pass path smoother of spec §4.8:
// direction-merge followed by line-of-sight collapse, both idempotent.
// Smoothing never introduces a node absent from the original path and
// never changes the first or last node.
package smoother

import (
	"voxelnav/internal/util"
)

// WalkableFunc reports whether pos has a walkable floor (for line-of-sight
// waypoint validation).
type WalkableFunc func(pos util.Pos) bool

// PassableFunc reports whether an agent body may occupy pos.
type PassableFunc func(pos util.Pos) bool

// maxLookaheadBlocks is a straight-line distance in blocks, not a count of
// path nodes — a path with many fine-grained steps inside that radius must
// collapse exactly as far as one with few coarse steps covering the same
// ground, or a second smoothing pass would keep finding new collapses.
const maxLookaheadBlocks = 5

// Smooth runs both passes over path and returns the result. path must have
// at least one element; a 0- or 1-element path is returned unchanged.
func Smooth(path []util.Pos, walkable WalkableFunc, passable PassableFunc) []util.Pos {
	if len(path) <= 2 {
		return path
	}
	merged := directionMerge(path)
	return lineOfSightCollapse(merged, walkable, passable)
}

// directionMerge drops interior nodes whose incoming direction equals
// their outgoing direction (each step reduced to lowest terms, so only
// collinear segments pointing the same way merge), leaving only nodes
// where the path actually changes heading.
func directionMerge(path []util.Pos) []util.Pos {
	if len(path) <= 2 {
		return path
	}
	out := make([]util.Pos, 0, len(path))
	out = append(out, path[0])
	for i := 1; i < len(path)-1; i++ {
		in := sign(path[i], path[i-1])
		out1 := sign(path[i+1], path[i])
		if in != out1 {
			out = append(out, path[i])
		}
	}
	out = append(out, path[len(path)-1])
	return out
}

type dir struct{ dx, dy, dz int }

func sign(a, b util.Pos) dir {
	dx, dy, dz := a.X-b.X, a.Y-b.Y, a.Z-b.Z
	g := gcd(gcd(abs(dx), abs(dy)), abs(dz))
	if g == 0 {
		return dir{}
	}
	return dir{dx / g, dy / g, dz / g}
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

// lineOfSightCollapse advances a window reaching up to maxLookaheadBlocks
// of straight-line distance ahead of each kept node and skips intermediates
// when the jump is safe: |Δy| ≤ 1, every integer waypoint along the
// straight line has a walkable floor and passable body, and diagonal
// segments don't clip both corners.
func lineOfSightCollapse(path []util.Pos, walkable WalkableFunc, passable PassableFunc) []util.Pos {
	if len(path) <= 2 {
		return path
	}
	maxDistSq := maxLookaheadBlocks * maxLookaheadBlocks
	out := make([]util.Pos, 0, len(path))
	out = append(out, path[0])
	i := 0
	for i < len(path)-1 {
		next := i + 1
		for look := i + 2; look < len(path); look++ {
			if distSquared(path[i], path[look]) > maxDistSq {
				break
			}
			if canCollapse(path[i], path[look], walkable, passable) {
				next = look
			}
		}
		out = append(out, path[next])
		i = next
	}
	return out
}

// distSquared is the straight-line distance between a and b in blocks,
// squared to avoid a sqrt on every lookahead candidate.
func distSquared(a, b util.Pos) int {
	dx, dy, dz := a.X-b.X, a.Y-b.Y, a.Z-b.Z
	return dx*dx + dy*dy + dz*dz
}

func canCollapse(a, b util.Pos, walkable WalkableFunc, passable PassableFunc) bool {
	if abs(b.Y-a.Y) > 1 {
		return false
	}
	steps := maxAbs(b.X-a.X, b.Z-a.Z)
	if steps == 0 {
		return true
	}
	for s := 1; s <= steps; s++ {
		x := lerp(a.X, b.X, s, steps)
		z := lerp(a.Z, b.Z, s, steps)
		y := lerp(a.Y, b.Y, s, steps)
		p := util.Pos{X: x, Y: y, Z: z}
		floor := util.Pos{X: x, Y: y - 1, Z: z}
		if !walkable(floor) || !passable(p) {
			return false
		}
		// Corner-clip check: if this step moved diagonally, both
		// axis-aligned corners must also be passable.
		px := lerp(a.X, b.X, s-1, steps)
		pz := lerp(a.Z, b.Z, s-1, steps)
		if x != px && z != pz {
			corner1 := util.Pos{X: x, Y: y, Z: pz}
			corner2 := util.Pos{X: px, Y: y, Z: z}
			if !passable(corner1) || !passable(corner2) {
				return false
			}
		}
	}
	return true
}

func lerp(a, b, step, total int) int {
	if total == 0 {
		return a
	}
	return a + (b-a)*step/total
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func maxAbs(a, b int) int {
	if abs(a) > abs(b) {
		return abs(a)
	}
	return abs(b)
}
