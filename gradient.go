package wisp

import (
	colorful "github.com/lucasb-eyer/go-colorful"
)

// magmaStops are evenly spaced samples of the magma perceptual color map,
// dark purple-black at 0 through pale yellow at 1.
var magmaStops = mustHexStops(
	"#000004", "#1c1044", "#4f127b", "#812581",
	"#b5367a", "#e55064", "#fb8761", "#fec287", "#fcfdbf",
)

func mustHexStops(hex ...string) []colorful.Color {
	out := make([]colorful.Color, len(hex))
	for i, h := range hex {
		c, err := colorful.Hex(h)
		if err != nil {
			panic("wisp: bad gradient stop " + h)
		}
		out[i] = c
	}
	return out
}

// Magma samples the magma color map at t in [0, 1]. Values outside the range
// are clamped. Neighboring stops are blended in CIE L*a*b*.
func Magma(t float64) Color {
	t = clamp01(t)
	n := len(magmaStops) - 1
	pos := t * float64(n)
	i := int(pos)
	if i >= n {
		i = n - 1
	}
	c := magmaStops[i].BlendLab(magmaStops[i+1], pos-float64(i)).Clamped()
	return Color{R: c.R, G: c.G, B: c.B, A: 1}
}

// DistanceFeedback maps a distance onto the magma ramp so that far reads as
// 0 and commit reads as 1.
func DistanceFeedback(distance, far, commit float64) Color {
	return Magma(MapRange(distance, far, commit, 0, 1))
}
