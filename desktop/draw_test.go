package desktop

import (
	"image/color"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/phanxgames/wisp"
)

func TestFieldSegments_Box(t *testing.T) {
	v := wisp.FieldView{
		Shape: wisp.Box(wisp.Vec3{2, 2, 2}),
		World: mgl64.Translate3D(0, 1, 0),
		Color: wisp.ColorWhite,
	}
	segs := FieldSegments(v)
	if len(segs) != 12 {
		t.Fatalf("box edges = %d, want 12", len(segs))
	}
	for _, s := range segs {
		if !approxEqual(s.From.Sub(s.To).Len(), 2, epsilon) {
			t.Errorf("edge %v-%v has length %f, want 2", s.From, s.To, s.From.Sub(s.To).Len())
		}
		for _, p := range []wisp.Vec3{s.From, s.To} {
			if !approxEqual(abs(p.X()), 1, epsilon) || !approxEqual(abs(p.Y()-1), 1, epsilon) || !approxEqual(abs(p.Z()), 1, epsilon) {
				t.Errorf("corner %v is not on the translated box", p)
			}
		}
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func TestFieldSegments_Sphere(t *testing.T) {
	center := wisp.Vec3{0.5, 1, -1}
	v := wisp.FieldView{
		Shape: wisp.Sphere(0.1),
		World: mgl64.Translate3D(center.X(), center.Y(), center.Z()),
	}
	segs := FieldSegments(v)
	if len(segs) != 3*sphereSegments {
		t.Fatalf("sphere segments = %d, want %d", len(segs), 3*sphereSegments)
	}
	for _, s := range segs {
		if !approxEqual(s.From.Sub(center).Len(), 0.1, epsilon) {
			t.Errorf("point %v is not on the sphere", s.From)
		}
	}
}

func TestShadeAddsEmission(t *testing.T) {
	c := shade(wisp.FieldView{Color: wisp.ColorWhite, Emission: wisp.Color{R: 1}})
	if c.R != 1 || !approxEqual(c.G, 0.6, epsilon) || c.A != 1 {
		t.Errorf("shade = %+v", c)
	}
}

func TestLineSegmentsUseFieldSpace(t *testing.T) {
	v := wisp.FieldView{World: mgl64.Translate3D(0, 0, -1)}
	segs := LineSegments(v, []wisp.Line{{From: wisp.Vec3{0, 0, 0}, To: wisp.Vec3{1, 0, 0}, Color: wisp.ColorWhite}})
	if len(segs) != 1 || segs[0].From != (wisp.Vec3{0, 0, -1}) || segs[0].To != (wisp.Vec3{1, 0, -1}) {
		t.Errorf("segments = %+v", segs)
	}
}

func TestToRGBA(t *testing.T) {
	tests := []struct {
		in   wisp.Color
		want color.RGBA
	}{
		{wisp.ColorWhite, color.RGBA{255, 255, 255, 255}},
		{wisp.ColorBlack, color.RGBA{0, 0, 0, 255}},
		{wisp.Color{R: 2, G: -1, B: 0, A: 0.5}, color.RGBA{255, 0, 0, 128}},
	}
	for _, tt := range tests {
		if got := toRGBA(tt.in); got != tt.want {
			t.Errorf("toRGBA(%+v) = %v, want %v", tt.in, got, tt.want)
		}
	}
	if got := premultiplied(color.RGBA{255, 0, 0, 128}); got != (color.RGBA{128, 0, 0, 128}) {
		t.Errorf("premultiplied = %v", got)
	}
}
