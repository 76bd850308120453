package desktop

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/phanxgames/wisp"
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// Rect is a screen-space rectangle in pixels.
type Rect struct {
	X, Y, Width, Height float64
}

// maxPitch keeps the camera just short of looking straight up or down.
const maxPitch = math.Pi/2 - 0.01

// turnAnim holds active turn-to tweens for yaw and pitch.
type turnAnim struct {
	tweenYaw   *gween.Tween
	tweenPitch *gween.Tween
	doneYaw    bool
	donePitch  bool
}

// Camera is a perspective eye for the simulator window. Yaw turns about +Y
// and pitch about +X, the same convention as wisp.LookRotation, so the
// camera's orientation can be handed to the scene's viewer node unchanged.
type Camera struct {
	Position wisp.Vec3
	// Yaw and Pitch are in radians. Zero looks along -Z.
	Yaw, Pitch float64
	// FOV is the vertical field of view in radians.
	FOV float64
	// Viewport is the screen-space rectangle this camera renders into.
	Viewport  Rect
	Near, Far float64

	viewProj mgl64.Mat4
	dirty    bool

	turn *turnAnim
}

// NewCamera creates a camera at standing eye height with the given viewport.
func NewCamera(viewport Rect) *Camera {
	return &Camera{
		Position: wisp.Vec3{0, 1.6, 0},
		FOV:      math.Pi / 3,
		Viewport: viewport,
		Near:     0.01,
		Far:      100,
		dirty:    true,
	}
}

// Orientation returns the camera rotation.
func (c *Camera) Orientation() wisp.Quat {
	return mgl64.QuatRotate(c.Yaw, wisp.AxisY).Mul(mgl64.QuatRotate(c.Pitch, wisp.AxisX))
}

// Forward returns the unit view direction.
func (c *Camera) Forward() wisp.Vec3 {
	return c.Orientation().Rotate(wisp.Vec3{0, 0, -1})
}

// Turn adds to yaw and pitch, cancelling any running turn animation.
func (c *Camera) Turn(dYaw, dPitch float64) {
	if dYaw == 0 && dPitch == 0 {
		return
	}
	c.turn = nil
	c.Yaw += dYaw
	c.Pitch = mgl64.Clamp(c.Pitch+dPitch, -maxPitch, maxPitch)
	c.dirty = true
}

// TurnTo animates the camera to the given yaw and pitch over duration
// seconds.
func (c *Camera) TurnTo(yaw, pitch float64, duration float32, easeFn ease.TweenFunc) {
	c.turn = &turnAnim{
		tweenYaw:   gween.New(float32(c.Yaw), float32(yaw), duration, easeFn),
		tweenPitch: gween.New(float32(c.Pitch), float32(mgl64.Clamp(pitch, -maxPitch, maxPitch)), duration, easeFn),
	}
}

// LookAt animates the camera to face target.
func (c *Camera) LookAt(target wisp.Vec3, duration float32, easeFn ease.TweenFunc) {
	d := target.Sub(c.Position)
	if d.Len() == 0 {
		return
	}
	d = d.Normalize()
	c.TurnTo(math.Atan2(-d.X(), -d.Z()), math.Asin(mgl64.Clamp(d.Y(), -1, 1)), duration, easeFn)
}

// Turning reports whether a turn animation is running.
func (c *Camera) Turning() bool { return c.turn != nil }

// Update advances the turn animation.
func (c *Camera) Update(dt float32) {
	if c.turn == nil {
		return
	}
	if !c.turn.doneYaw {
		val, done := c.turn.tweenYaw.Update(dt)
		c.Yaw = float64(val)
		c.turn.doneYaw = done
	}
	if !c.turn.donePitch {
		val, done := c.turn.tweenPitch.Update(dt)
		c.Pitch = float64(val)
		c.turn.donePitch = done
	}
	if c.turn.doneYaw && c.turn.donePitch {
		c.turn = nil
	}
	c.dirty = true
}

// SetViewport changes the screen rectangle.
func (c *Camera) SetViewport(v Rect) {
	if v != c.Viewport {
		c.Viewport = v
		c.dirty = true
	}
}

// MarkDirty forces a recomputation of the view-projection matrix. Call it
// after modifying exported fields directly.
func (c *Camera) MarkDirty() {
	c.dirty = true
}

func (c *Camera) aspect() float64 {
	if c.Viewport.Height == 0 {
		return 1
	}
	return c.Viewport.Width / c.Viewport.Height
}

// computeViewProj recomputes the cached view-projection matrix if dirty.
func (c *Camera) computeViewProj() mgl64.Mat4 {
	if !c.dirty {
		return c.viewProj
	}
	c.dirty = false
	world := mgl64.Translate3D(c.Position.X(), c.Position.Y(), c.Position.Z()).Mul4(c.Orientation().Mat4())
	proj := mgl64.Perspective(c.FOV, c.aspect(), c.Near, c.Far)
	c.viewProj = proj.Mul4(world.Inv())
	return c.viewProj
}

// WorldToScreen projects a world point to screen pixels. ok is false for
// points behind the near plane.
func (c *Camera) WorldToScreen(p wisp.Vec3) (sx, sy float64, ok bool) {
	clip := c.computeViewProj().Mul4x1(p.Vec4(1))
	if clip.W() < c.Near {
		return 0, 0, false
	}
	nx, ny := clip.X()/clip.W(), clip.Y()/clip.W()
	sx = c.Viewport.X + (nx+1)/2*c.Viewport.Width
	sy = c.Viewport.Y + (1-ny)/2*c.Viewport.Height
	return sx, sy, true
}

// ScreenRay returns the world-space ray through a screen pixel.
func (c *Camera) ScreenRay(sx, sy float64) (origin, direction wisp.Vec3) {
	nx, ny := 0.0, 0.0
	if c.Viewport.Width > 0 && c.Viewport.Height > 0 {
		nx = 2*(sx-c.Viewport.X)/c.Viewport.Width - 1
		ny = 1 - 2*(sy-c.Viewport.Y)/c.Viewport.Height
	}
	t := math.Tan(c.FOV / 2)
	local := wisp.Vec3{nx * t * c.aspect(), ny * t, -1}
	return c.Position, c.Orientation().Rotate(local).Normalize()
}
