package wisp

import (
	"fmt"
	"math"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Ray marching limits for ray samples.
const (
	rayMaxLength = 64.0  // meters
	rayMinStep   = 0.001 // meters
	rayMaxSteps  = 256
	rayHitEps    = 1e-6 // closer than this counts as touching the surface
)

// fieldState is the signed distance function backing a field node.
type fieldState struct {
	shape Shape
	sdf   sdf.SDF3
}

// buildSDF converts a Shape into an sdfx signed distance function centered
// on the origin.
func buildSDF(shape Shape) (sdf.SDF3, error) {
	switch shape.Kind {
	case ShapeBox:
		s := shape.Size
		if s.X() < 0 || s.Y() < 0 || s.Z() < 0 {
			return nil, fmt.Errorf("box size %v: negative extent", s)
		}
		// sdfx rejects fully degenerate boxes; keep a hair of thickness.
		size := v3.Vec{X: math.Max(s.X(), 1e-6), Y: math.Max(s.Y(), 1e-6), Z: math.Max(s.Z(), 1e-6)}
		return sdf.Box3D(size, 0)
	case ShapeSphere:
		if shape.Radius <= 0 {
			return nil, fmt.Errorf("sphere radius %v: must be positive", shape.Radius)
		}
		return sdf.Sphere3D(shape.Radius)
	default:
		return nil, fmt.Errorf("unknown shape kind %d", shape.Kind)
	}
}

func newFieldState(shape Shape) (*fieldState, error) {
	s, err := buildSDF(shape)
	if err != nil {
		return nil, err
	}
	return &fieldState{shape: shape, sdf: s}, nil
}

// distance evaluates the field at a point in field-local space.
func (f *fieldState) distance(p Vec3) float64 {
	return f.sdf.Evaluate(v3.Vec{X: p.X(), Y: p.Y(), Z: p.Z()})
}

// rayDistance marches a ray given in field-local space and returns the
// smallest signed distance met along it together with the point where it
// occurred.
func (f *fieldState) rayDistance(origin, direction Vec3) (float64, Vec3) {
	dir := direction
	if dir.Len() == 0 {
		return f.distance(origin), origin
	}
	dir = dir.Normalize()

	best := math.Inf(1)
	deepest := origin
	t := 0.0
	for i := 0; i < rayMaxSteps && t < rayMaxLength; i++ {
		p := origin.Add(dir.Mul(t))
		d := f.distance(p)
		if d < rayHitEps {
			d = math.Min(d, 0)
		}
		if d < best {
			best = d
			deepest = p
		}
		t += math.Max(math.Abs(d), rayMinStep)
	}
	return best, deepest
}
