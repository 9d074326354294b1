package agent

import (
	"math/bits"

	"pioneer.ai/internal/sim/model"
)

// leastExplored narrows the known map down to its least revealed quadrant a
// random number of times and returns the center of the final region.
func leastExplored(g model.Grid, rng interface{ IntN(int) int }) model.Coord {
	dim := min(g.Rows(), g.Cols())
	if dim < 2 {
		return model.Coord{Row: dim / 2, Col: dim / 2}
	}
	precision := 1
	if levels := bits.Len(uint(dim)) - 1; levels > 1 {
		precision += rng.IntN(levels)
	}

	top, left, size := 0, 0, dim
	for it := 0; it < precision && size >= 2; it++ {
		half := size / 2
		quads := [4]struct{ r0, c0, r1, c1 int }{
			{top, left, top + half, left + half},
			{top, left + half, top + half, left + size},
			{top + half, left, top + size, left + half},
			{top + half, left + half, top + size, left + size},
		}
		best, bestN := 0, -1
		for q, b := range quads {
			if n := revealedIn(g, b.r0, b.c0, b.r1, b.c1); bestN < 0 || n < bestN {
				best, bestN = q, n
			}
		}
		top, left = quads[best].r0, quads[best].c0
		size = half
	}
	return model.Coord{Row: top + size/2, Col: left + size/2}
}

func revealedIn(g model.Grid, r0, c0, r1, c1 int) int {
	n := 0
	for r := r0; r < r1; r++ {
		for c := c0; c < c1; c++ {
			if g[r][c] != nil {
				n++
			}
		}
	}
	return n
}
