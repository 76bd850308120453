package desktop

import (
	"testing"

	"github.com/phanxgames/wisp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const frame = 1.0 / 60

func newTestApp(t *testing.T) (*App, *wisp.Scene, *wisp.Resources) {
	t.Helper()
	scene := wisp.NewScene()
	res, err := wisp.NewResources(scene, nil, wisp.DefaultConfig())
	require.NoError(t, err)
	app := NewApp(scene, Options{Width: 800, Height: 600})
	return app, scene, res
}

func TestApp_MouseGrabDragsHandle(t *testing.T) {
	app, scene, res := newTestApp(t)
	grab, err := wisp.NewGrabManipulator(res, wisp.GrabOptions{Position: wisp.Vec3{0, 1.6, -0.5}})
	require.NoError(t, err)
	t.Cleanup(func() { _ = grab.Close() })
	app.Add(grab)

	center := InputState{CursorX: 400, CursorY: 300, Cursor: true}
	app.Step(center, frame)
	center.Grab = true
	app.Step(center, frame)
	require.True(t, grab.Action().Acting(), "grab key over the handle starts the drag")

	moved := center
	moved.CursorX = 500
	app.Step(moved, frame)
	app.Step(moved, frame)

	p, err := scene.WorldPosition(grab.Head())
	require.NoError(t, err)
	assert.Greater(t, p.X(), 0.05, "handle follows the cursor to the right")
	assert.InDelta(t, 0.5, p.Sub(app.Camera().Position).Len(), 0.01, "ray length is kept")

	moved.Grab = false
	app.Step(moved, frame)
	assert.False(t, grab.Action().Acting())
}

func TestApp_ViewerFollowsCamera(t *testing.T) {
	app, scene, _ := newTestApp(t)
	app.Step(InputState{Turn: wisp.Vec2{1, 0}}, 0.5)
	assert.InDelta(t, 0.5, app.Camera().Yaw, 1e-9)

	tr, err := scene.Transform(t.Context(), scene.Viewer(), scene.Root())
	require.NoError(t, err)
	want := app.Camera().Forward()
	got := tr.Orientation().Rotate(wisp.Vec3{0, 0, -1})
	assert.InDelta(t, 0, got.Sub(want).Len(), 1e-6)
}

func TestApp_Recenter(t *testing.T) {
	app, _, _ := newTestApp(t)
	app.Camera().Turn(1, 0.3)
	app.Step(InputState{Recenter: true}, frame)
	for i := 0; i < 60; i++ {
		app.Step(InputState{}, frame)
	}
	assert.InDelta(t, 0, app.Camera().Yaw, 1e-4)
	assert.InDelta(t, 0, app.Camera().Pitch, 1e-4)
}

func TestApp_PostRunsOnNextStep(t *testing.T) {
	app, _, _ := newTestApp(t)
	ran := make(chan struct{})
	go app.Post(func() { close(ran) })

	for i := 0; i < 1000; i++ {
		app.Step(InputState{}, frame)
		select {
		case <-ran:
			return
		default:
		}
	}
	t.Fatal("posted function never ran")
}

func TestApp_UpdatersRunInOrder(t *testing.T) {
	app, _, _ := newTestApp(t)
	var order []int
	app.Add(
		UpdaterFunc(func(wisp.FrameInfo) { order = append(order, 1) }),
		UpdaterFunc(func(f wisp.FrameInfo) { order = append(order, 2) }),
	)
	app.Step(InputState{}, frame)
	assert.Equal(t, []int{1, 2}, order)
}

func TestApp_SegmentsSkipDisabledFields(t *testing.T) {
	app, scene, _ := newTestApp(t)
	_, err := scene.CreateField(scene.Root(), wisp.FromTranslation(wisp.Vec3{0, 1.6, -1}), wisp.Box(wisp.Vec3{0.4, 0.3, 0.01}))
	require.NoError(t, err)
	hidden, err := scene.CreateNode(scene.Root(), wisp.Identity())
	require.NoError(t, err)
	_, err = scene.CreateField(hidden, wisp.Identity(), wisp.Sphere(0.1))
	require.NoError(t, err)
	require.NoError(t, scene.SetEnabled(hidden, false))

	assert.Len(t, app.Segments(), 12)
}

func TestApp_Layout(t *testing.T) {
	app, _, _ := newTestApp(t)
	w, h := app.Layout(1024, 512)
	assert.Equal(t, 1024, w)
	assert.Equal(t, 512, h)
	assert.Equal(t, Rect{Width: 1024, Height: 512}, app.Camera().Viewport)
}
