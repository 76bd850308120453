package wisp

import (
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl64"
)

// Vec2 is a 2D vector used for panel sizes, pixel positions and scroll deltas.
type Vec2 = mgl64.Vec2

// Vec3 is a 3D vector in meters. All spatial positions use it.
type Vec3 = mgl64.Vec3

// Quat is a unit quaternion describing an orientation.
type Quat = mgl64.Quat

// Axis unit vectors.
var (
	AxisX = Vec3{1, 0, 0}
	AxisY = Vec3{0, 1, 0}
	AxisZ = Vec3{0, 0, 1}
)

// Color represents an RGBA color with components in [0, 1], linear space.
type Color struct {
	R, G, B, A float64
}

// ColorWhite is the neutral material color.
var ColorWhite = Color{1, 1, 1, 1}

// ColorBlack is an all-zero emission with full alpha.
var ColorBlack = Color{0, 0, 0, 1}

// Lerp blends c toward other by t in [0, 1].
func (c Color) Lerp(other Color, t float64) Color {
	return Color{
		R: c.R + (other.R-c.R)*t,
		G: c.G + (other.G-c.G)*t,
		B: c.B + (other.B-c.B)*t,
		A: c.A + (other.A-c.A)*t,
	}
}

// Range is a general-purpose min/max range.
type Range struct {
	Min, Max float64
}

// Contains reports whether v lies in [Min, Max).
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v < r.Max
}

// InputKind selects which pose payload an InputSample carries.
type InputKind uint8

const (
	KindRay  InputKind = iota // pointer ray from a head or controller
	KindHand                  // tracked hand joints
	KindTip                   // single point, e.g. a controller tip
)

// String returns the lowercase kind name.
func (k InputKind) String() string {
	switch k {
	case KindRay:
		return "ray"
	case KindHand:
		return "hand"
	case KindTip:
		return "tip"
	default:
		return "unknown"
	}
}

// MouseButton identifies one of the three panel buttons.
type MouseButton uint8

const (
	MouseButtonLeft   MouseButton = iota // index finger / select
	MouseButtonMiddle                    // middle finger / middle
	MouseButtonRight                     // ring finger / context
)

// Linux input-event-codes for the panel buttons.
const (
	BtnLeft   uint32 = 0x110
	BtnRight  uint32 = 0x111
	BtnMiddle uint32 = 0x112
)

// Code returns the Linux input-event-code for the button.
func (b MouseButton) Code() uint32 {
	switch b {
	case MouseButtonMiddle:
		return BtnMiddle
	case MouseButtonRight:
		return BtnRight
	default:
		return BtnLeft
	}
}

// EventType identifies the kind of surface event.
type EventType uint8

const (
	EventPointerMotion EventType = iota // absolute pointer position in pixels
	EventButton                         // button press or release
	EventScroll                         // continuous and/or discrete scroll
	EventTouchDown                      // new touch contact
	EventTouchMove                      // existing touch contact moved
	EventTouchUp                        // touch contact lifted
	EventPointerLeave                   // no sample hovers the surface anymore
)

// String returns the event name.
func (e EventType) String() string {
	switch e {
	case EventPointerMotion:
		return "pointer_motion"
	case EventButton:
		return "button"
	case EventScroll:
		return "scroll"
	case EventTouchDown:
		return "touch_down"
	case EventTouchMove:
		return "touch_move"
	case EventTouchUp:
		return "touch_up"
	case EventPointerLeave:
		return "pointer_leave"
	default:
		return "unknown"
	}
}

// FrameInfo carries per-frame timing delivered by the frame tick.
type FrameInfo struct {
	Delta   float64       // seconds since the previous frame
	Elapsed time.Duration // time since the scene started
}

// MapRange linearly maps v from [inMin, inMax] to [outMin, outMax].
// The result is not clamped.
func MapRange(v, inMin, inMax, outMin, outMax float64) float64 {
	if inMax == inMin {
		return outMin
	}
	return outMin + (v-inMin)*(outMax-outMin)/(inMax-inMin)
}

// clamp01 clamps v to [0, 1].
func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
