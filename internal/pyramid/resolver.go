// Package pyramid implements the Pyramid Resolver (spec §4.G): given a
// coverage's base resolution and a requested resolution, selects the
// precomputed pyramid level and in-level integer scale that come closest
// to the request without exceeding it.
package pyramid

import "github.com/rasterlite/rl2go/internal/raster"

// scaleBits is the number of scale steps folded into the level/scale
// decomposition below (scales 1,2,4,8 = 2^0..2^3).
const scaleBits = 3

// Resolve picks (level, scale) for a coverage with base resolution r0
// (level 0, "native" resolution) and maxLevel precomputed overview levels
// beyond the base (levels 1..maxLevel exist at r0*2, r0*4, ... r0*2^maxLevel).
//
// It picks the largest level k (capped at maxLevel) whose resolution
// r_k = r0*2^k does not exceed requested, then within that level picks the
// scale ∈ {1,2,4,8} closest without exceeding the remainder. This reads the
// precomputed pyramid as coarse as the request allows before falling back
// to in-level scale, so an exact level boundary (requested == r_k) always
// collapses to that level at scale 1 — spec §8's named boundary property.
// (spec.md's literal wording, "picks the smallest k such that r_k ≤
// requested", is degenerate as written: since r_k is monotonically
// increasing in k, the smallest such k is always 0, which would make every
// level above 0 unreachable — see DESIGN.md's Open Questions section.)
func Resolve(r0 float64, maxLevel int, requested float64) (level, scale int, err error) {
	const op = "Resolve"
	if r0 <= 0 {
		return 0, 0, raster.NewError(op, raster.KindInvalidArgument, "base resolution must be positive, got %g", r0)
	}
	if maxLevel < 0 {
		return 0, 0, raster.NewError(op, raster.KindInvalidArgument, "maxLevel must be >= 0, got %d", maxLevel)
	}
	if requested < r0 {
		return 0, 0, raster.NewError(op, raster.KindNoMatch, "requested resolution %g is finer than base resolution %g", requested, r0)
	}

	total := requested / r0
	maxExp := maxLevel + scaleBits

	m := 0
	for m < maxExp {
		next := 1 << uint(m+1)
		if float64(next) > total {
			break
		}
		m++
	}

	level = m
	if level > maxLevel {
		level = maxLevel
	}
	scale = 1 << uint(m-level)
	return level, scale, nil
}
