package wisp

import "math"

// --- Hover geometry ---

// InRect reports whether point, expressed in the rectangle's local space,
// lies within the rectangle's half extents on x and y and on the requested
// side of its z=0 plane. A point exactly on the plane counts as front.
func InRect(size Vec2, point Vec3, front bool) bool {
	return InBounds(size, point) && (point.Z() >= 0) == front
}

// InBounds reports whether point lies within the rectangle's half extents on
// x and y, on either side of the plane.
func InBounds(size Vec2, point Vec3) bool {
	return math.Abs(point.X())*2 < size.X() && math.Abs(point.Y())*2 < size.Y()
}

// InSphere reports whether point lies within radius of center.
func InSphere(center Vec3, radius float64, point Vec3) bool {
	return point.Sub(center).Len() < radius
}

// DepthWindow is an asymmetric band of distances from a surface. Hands and
// tips use it for hover so that contacts do not flicker right at the surface.
type DepthWindow struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

// DefaultHoverDepth is the hover band used by surfaces for hands and tips.
var DefaultHoverDepth = DepthWindow{Min: 0.05, Max: 0.2}

// Contains reports whether |depth| lies in [Min, Max).
func (w DepthWindow) Contains(depth float64) bool {
	d := math.Abs(depth)
	return d >= w.Min && d < w.Max
}

// RayPlaneIntersect intersects a ray with the local z=0 plane. It reports
// false when the ray is parallel to the plane or the hit lies behind the
// origin.
func RayPlaneIntersect(origin, direction Vec3) (Vec3, bool) {
	denom := direction.Z()
	if math.Abs(denom) < 1e-9 {
		return Vec3{}, false
	}
	t := -origin.Z() / denom
	if t < 0 {
		return Vec3{}, false
	}
	return origin.Add(direction.Mul(t)), true
}

// RayPlanePoint intersects a ray with the z=0 plane like RayPlaneIntersect
// but falls back to the ray origin projected onto the plane when there is no
// forward hit.
func RayPlanePoint(r *RayPose) Vec3 {
	if p, ok := RayPlaneIntersect(r.Origin, r.Dir()); ok {
		return p
	}
	return Vec3{r.Origin.X(), r.Origin.Y(), 0}
}

// --- Pixel mapping ---

// PhysicalToPixel maps a point on a surface of physical size (meters) to
// pixel coordinates in a surface of the given resolution. X is centered and
// Y is centered and flipped so that pixel (0, 0) is the top-left corner.
func PhysicalToPixel(point Vec3, physical, resolution Vec2) Vec2 {
	x := MapRange(point.X(), -physical.X()/2, physical.X()/2, 0, resolution.X())
	y := MapRange(point.Y(), physical.Y()/2, -physical.Y()/2, 0, resolution.Y())
	return Vec2{x, y}
}

// PixelToPhysical is the inverse of PhysicalToPixel. The returned point lies
// on the z=0 plane.
func PixelToPhysical(pixel, physical, resolution Vec2) Vec3 {
	x := MapRange(pixel.X(), 0, resolution.X(), -physical.X()/2, physical.X()/2)
	y := MapRange(pixel.Y(), 0, resolution.Y(), physical.Y()/2, -physical.Y()/2)
	return Vec3{x, y, 0}
}
