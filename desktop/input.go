package desktop

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/phanxgames/wisp"
)

// Sample IDs. Touch IDs are offset so they never collide with the mouse.
const (
	MouseSampleID  wisp.SampleID = 1
	touchSampleIDs wisp.SampleID = 100
)

// Touch is one screen contact.
type Touch struct {
	ID   int
	X, Y float64
}

// InputState is one frame of desktop input.
type InputState struct {
	CursorX, CursorY float64
	// Cursor is false when the window has no mouse.
	Cursor bool

	Select, Middle, Context bool // left, middle and right buttons
	Grab                    bool

	WheelX, WheelY float64
	Touches        []Touch

	// Turn is the requested camera turn in radians per second.
	Turn wisp.Vec2
	// Recenter asks the camera to face forward again.
	Recenter bool
}

// Keys controls keyboard bindings.
type Keys struct {
	Grab     ebiten.Key
	Recenter ebiten.Key
}

// DefaultKeys grabs with space and recenters with home.
var DefaultKeys = Keys{Grab: ebiten.KeySpace, Recenter: ebiten.KeyHome}

// turnSpeed is the arrow-key turn rate in radians per second.
const turnSpeed = 1.5

// PollInput reads the current Ebitengine input state.
func PollInput(keys Keys) InputState {
	var st InputState
	x, y := ebiten.CursorPosition()
	st.CursorX, st.CursorY = float64(x), float64(y)
	st.Cursor = ebiten.CursorMode() != ebiten.CursorModeCaptured
	st.Select = ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft)
	st.Middle = ebiten.IsMouseButtonPressed(ebiten.MouseButtonMiddle)
	st.Context = ebiten.IsMouseButtonPressed(ebiten.MouseButtonRight)
	st.Grab = ebiten.IsKeyPressed(keys.Grab)
	st.WheelX, st.WheelY = ebiten.Wheel()

	for _, id := range ebiten.AppendTouchIDs(nil) {
		tx, ty := ebiten.TouchPosition(id)
		st.Touches = append(st.Touches, Touch{ID: int(id), X: float64(tx), Y: float64(ty)})
	}

	if ebiten.IsKeyPressed(ebiten.KeyArrowLeft) {
		st.Turn[0] += turnSpeed
	}
	if ebiten.IsKeyPressed(ebiten.KeyArrowRight) {
		st.Turn[0] -= turnSpeed
	}
	if ebiten.IsKeyPressed(ebiten.KeyArrowUp) {
		st.Turn[1] += turnSpeed
	}
	if ebiten.IsKeyPressed(ebiten.KeyArrowDown) {
		st.Turn[1] -= turnSpeed
	}
	st.Recenter = ebiten.IsKeyPressed(keys.Recenter)
	return st
}

func flag(held bool) float64 {
	if held {
		return 1
	}
	return 0
}

// Samples converts st into world-space samples as seen through c. The mouse
// is a ray; each touch is a tip tipDepth meters along its screen ray.
func (c *Camera) Samples(st InputState, tipDepth float64) []*wisp.InputSample {
	var out []*wisp.InputSample
	if st.Cursor {
		origin, dir := c.ScreenRay(st.CursorX, st.CursorY)
		floats := map[string]float64{
			wisp.KeySelect:  flag(st.Select),
			wisp.KeyMiddle:  flag(st.Middle),
			wisp.KeyContext: flag(st.Context),
			wisp.KeyGrab:    flag(st.Grab),
		}
		var vectors map[string]wisp.Vec2
		if st.WheelX != 0 || st.WheelY != 0 {
			vectors = map[string]wisp.Vec2{wisp.KeyScrollDiscrete: {st.WheelX, st.WheelY}}
		}
		out = append(out, wisp.NewRaySample(MouseSampleID, origin, dir, wisp.NewDatamap(floats, vectors)))
	}
	for _, t := range st.Touches {
		origin, dir := c.ScreenRay(t.X, t.Y)
		out = append(out, wisp.NewTipSample(touchSampleIDs+wisp.SampleID(t.ID), origin.Add(dir.Mul(tipDepth)), wisp.Datamap{}))
	}
	return out
}
