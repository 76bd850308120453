package desktop

import (
	"image/color"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/phanxgames/wisp"
)

// Segment is a world-space line to draw.
type Segment struct {
	From, To wisp.Vec3
	Color    wisp.Color
}

// sphereSegments is the number of segments per great circle.
const sphereSegments = 24

// boxEdges indexes the corner pairs of a box, corners numbered by their
// x, y, z sign bits.
var boxEdges = [12][2]int{
	{0, 1}, {2, 3}, {4, 5}, {6, 7}, // along x
	{0, 2}, {1, 3}, {4, 6}, {5, 7}, // along y
	{0, 4}, {1, 5}, {2, 6}, {3, 7}, // along z
}

// shade returns the draw color of a field: its material color brightened by
// its emission.
func shade(v wisp.FieldView) wisp.Color {
	c := v.Color
	c.R = math.Min(1, c.R*0.6+v.Emission.R)
	c.G = math.Min(1, c.G*0.6+v.Emission.G)
	c.B = math.Min(1, c.B*0.6+v.Emission.B)
	return c
}

// FieldSegments returns the wireframe of a field in world space. Boxes give
// their twelve edges; spheres give three great circles.
func FieldSegments(v wisp.FieldView) []Segment {
	c := shade(v)
	at := func(p wisp.Vec3) wisp.Vec3 { return mgl64.TransformCoordinate(p, v.World) }

	switch v.Shape.Kind {
	case wisp.ShapeBox:
		h := v.Shape.Size.Mul(0.5)
		var corners [8]wisp.Vec3
		for i := range corners {
			p := h
			if i&1 == 0 {
				p[0] = -p[0]
			}
			if i&2 == 0 {
				p[1] = -p[1]
			}
			if i&4 == 0 {
				p[2] = -p[2]
			}
			corners[i] = at(p)
		}
		out := make([]Segment, 0, len(boxEdges))
		for _, e := range boxEdges {
			out = append(out, Segment{From: corners[e[0]], To: corners[e[1]], Color: c})
		}
		return out
	case wisp.ShapeSphere:
		r := v.Shape.Radius
		circle := func(i int, axis int) wisp.Vec3 {
			a := 2 * math.Pi * float64(i) / sphereSegments
			u, w := r*math.Cos(a), r*math.Sin(a)
			switch axis {
			case 0:
				return wisp.Vec3{0, u, w}
			case 1:
				return wisp.Vec3{u, 0, w}
			default:
				return wisp.Vec3{u, w, 0}
			}
		}
		out := make([]Segment, 0, 3*sphereSegments)
		for axis := 0; axis < 3; axis++ {
			for i := 0; i < sphereSegments; i++ {
				out = append(out, Segment{From: at(circle(i, axis)), To: at(circle(i+1, axis)), Color: c})
			}
		}
		return out
	}
	return nil
}

// LineSegments transforms lines given in a field's space into world space.
func LineSegments(v wisp.FieldView, lines []wisp.Line) []Segment {
	out := make([]Segment, 0, len(lines))
	for _, l := range lines {
		out = append(out, Segment{
			From:  mgl64.TransformCoordinate(l.From, v.World),
			To:    mgl64.TransformCoordinate(l.To, v.World),
			Color: l.Color,
		})
	}
	return out
}

// toRGBA converts a linear wisp color to an 8-bit sRGB color.
func toRGBA(c wisp.Color) color.RGBA {
	clamp := func(v float64) float64 { return mgl64.Clamp(v, 0, 1) }
	r, g, b := colorful.LinearRgb(clamp(c.R), clamp(c.G), clamp(c.B)).RGB255()
	return color.RGBA{R: r, G: g, B: b, A: uint8(math.Round(clamp(c.A) * 255))}
}

// premultiplied returns c with its color channels scaled by alpha, as
// Ebitengine expects.
func premultiplied(c color.RGBA) color.RGBA {
	a := uint16(c.A)
	return color.RGBA{
		R: uint8(uint16(c.R) * a / 255),
		G: uint8(uint16(c.G) * a / 255),
		B: uint8(uint16(c.B) * a / 255),
		A: c.A,
	}
}

// DrawSegments projects segments through cam and strokes them onto dst.
// Segments with an end behind the camera are skipped.
func DrawSegments(dst *ebiten.Image, cam *Camera, segs []Segment, width float32) {
	for _, s := range segs {
		x0, y0, ok0 := cam.WorldToScreen(s.From)
		x1, y1, ok1 := cam.WorldToScreen(s.To)
		if !ok0 || !ok1 {
			continue
		}
		vector.StrokeLine(dst, float32(x0), float32(y0), float32(x1), float32(y1), width, premultiplied(toRGBA(s.Color)), true)
	}
}
