package game

import (
	"math"
	"math/rand/v2"
)

// jitterInDisc returns a point uniformly distributed in the disc of the
// given radius around (x, y), clamped to [0, w] x [0, h].
func jitterInDisc(rng *rand.Rand, x, y, radius, w, h float32) (float32, float32) {
	if radius > 0 {
		r := radius * float32(math.Sqrt(rng.Float64()))
		theta := rng.Float64() * 2 * math.Pi
		x += r * float32(math.Cos(theta))
		y += r * float32(math.Sin(theta))
	}
	return clampf(x, 0, w), clampf(y, 0, h)
}

// clampf clamps v to [lo, hi]. NaN maps to lo.
func clampf(v, lo, hi float32) float32 {
	if !(v >= lo) {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
