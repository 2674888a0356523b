package beatvis

import (
	"math"

	"libdb.so/tileglow/internal/panel"
)

// renderPanel blends the base color with every live source's color,
// weighted by the source's distance to the panel centroid. Sources are
// folded in pool insertion order; the blend is not associative, so the
// order matters for reproducible output.
func renderPanel(p panel.Panel, sources []Source, base panel.RGBColor, multiplier, adjacentDistance float64) (uint8, uint8, uint8) {
	r := float64(base[0])
	g := float64(base[1])
	b := float64(base[2])

	for i := range sources {
		d := distance(p.X, p.Y, sources[i].X, sources[i].Y) / adjacentDistance

		// How much of the source's color we mix in. Not based on
		// physics; fudged until it looked good. Always in (0, 1],
		// exactly 1 when the source sits on the centroid.
		factor := 1 / (d*d*multiplier + 1)

		r = r*(1-factor) + float64(sources[i].Color[0])*factor
		g = g*(1-factor) + float64(sources[i].Color[1])*factor
		b = b*(1-factor) + float64(sources[i].Color[2])*factor
	}

	return clampChannel(r), clampChannel(g), clampChannel(b)
}

// falloffMultiplier widens or narrows every source's halo. With tempo
// diffusion on, faster music spreads the light further.
func falloffMultiplier(tempoDiffusion bool, tempo, minimum float64) float64 {
	if tempoDiffusion {
		return math.Log(tempo+1) + minimum
	}
	return minimum
}

func distance(x1, y1, x2, y2 float64) float64 {
	dx := x2 - x1
	dy := y2 - y1
	return math.Sqrt(dx*dx + dy*dy)
}

// clampChannel truncates to an integer channel value. The blend is a
// convex combination of values ≤255 so the clamp never fires on valid
// input; it is there so a bad palette cannot produce garbage on the wire.
func clampChannel(v float64) uint8 {
	if v > 255 {
		return 255
	}
	if v < 0 {
		return 0
	}
	return uint8(v)
}
