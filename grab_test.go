package wisp

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// step is 200ms so 150ms color feedback settles within one frame.
var step = FrameInfo{Delta: 0.2}

func newTestResources(t *testing.T) (*Scene, *Resources) {
	t.Helper()
	s := NewScene()
	res, err := NewResources(s, nil, DefaultConfig())
	require.NoError(t, err)
	return s, res
}

// frame feeds samples, builds batches and runs every updater.
func frame(s *Scene, samples []*InputSample, updaters ...interface{ Update(FrameInfo) }) {
	s.Feed(samples)
	s.Update(step)
	for _, u := range updaters {
		u.Update(step)
	}
}

func worldPos(t *testing.T, s *Scene, id NodeID) Vec3 {
	t.Helper()
	p, err := s.WorldPosition(id)
	require.NoError(t, err)
	return p
}

func held(key string) Datamap { return NewDatamap(map[string]float64{key: 1}, nil) }

func TestGrab_TipMovesHeadAndReturnsToRest(t *testing.T) {
	s, res := newTestResources(t)
	rest := Vec3{0, 1, -0.5}
	g, err := NewGrabManipulator(res, GrabOptions{Position: rest, Rest: &rest})
	require.NoError(t, err)
	defer g.Close()

	frame(s, []*InputSample{NewTipSample(1, rest, Datamap{})}, g)
	assert.False(t, g.Action().Acting(), "hover alone must not grab")
	c, _ := s.MaterialColor(g.Head(), ParamColor)
	assert.Equal(t, HandleHoverColor, c)

	frame(s, []*InputSample{NewTipSample(1, rest, held(KeyGrab))}, g)
	require.True(t, g.Action().Started())

	target := Vec3{0.3, 1.2, -0.4}
	frame(s, []*InputSample{NewTipSample(1, target, held(KeyGrab))}, g)
	owner, captured := s.CapturedBy(1)
	require.True(t, captured, "grab should capture its actor")
	assert.Equal(t, g.source.Handler, owner)
	require.True(t, g.Action().Acting(), "captured actor stays eligible after a jump")
	assertVec(t, "head follows tip", worldPos(t, s, g.Head()), target)
	c, _ = s.MaterialColor(g.Head(), ParamColor)
	assert.Equal(t, HandleGrabColor, c)
	p, ok := g.GrabPoint()
	require.True(t, ok)
	assertVec(t, "grab point", p, target)

	frame(s, []*InputSample{NewTipSample(1, target, Datamap{})}, g)
	require.True(t, g.Action().Stopped())
	assertVec(t, "head at rest", worldPos(t, s, g.Head()), rest)
	_, captured = s.CapturedBy(1)
	assert.False(t, captured, "capture released after stop")
}

func TestGrab_NoRestStaysAtGrabPoint(t *testing.T) {
	s, res := newTestResources(t)
	start := Vec3{0, 1, -0.5}
	g, err := NewGrabManipulator(res, GrabOptions{Position: start})
	require.NoError(t, err)
	defer g.Close()

	target := Vec3{0, 1.1, -0.5}
	frame(s, []*InputSample{NewTipSample(1, start, Datamap{})}, g)
	frame(s, []*InputSample{NewTipSample(1, start, held(KeyGrab))}, g)
	frame(s, []*InputSample{NewTipSample(1, target, held(KeyGrab))}, g)
	frame(s, []*InputSample{NewTipSample(1, target, Datamap{})}, g)
	assertVec(t, "head", worldPos(t, s, g.Head()), target)
}

func TestGrab_RayLengthAndScroll(t *testing.T) {
	s, res := newTestResources(t)
	head := Vec3{0, 1, -0.5}
	g, err := NewGrabManipulator(res, GrabOptions{Position: head})
	require.NoError(t, err)
	defer g.Close()

	origin, dir := Vec3{0, 1, 0}, Vec3{0, 0, -1}
	frame(s, []*InputSample{NewRaySample(1, origin, dir, Datamap{})}, g)
	frame(s, []*InputSample{NewRaySample(1, origin, dir, held(KeyGrab))}, g)
	require.True(t, g.Action().Acting())
	assert.InDelta(t, 0.5, g.RayLength(), 0.005, "length starts near the sphere center")

	scroll := NewDatamap(map[string]float64{KeyGrab: 1}, map[string]Vec2{KeyScrollContinuous: {0, 10}})
	frame(s, []*InputSample{NewRaySample(1, origin, dir, scroll)}, g)
	assert.InDelta(t, 0.6, g.RayLength(), 0.005)
	assert.InDelta(t, -0.6, worldPos(t, s, g.Head()).Z(), 0.005)

	notches := NewDatamap(map[string]float64{KeyGrab: 1}, map[string]Vec2{KeyScrollDiscrete: {0, -100}})
	frame(s, []*InputSample{NewRaySample(1, origin, dir, notches)}, g)
	assert.Equal(t, res.Config.Grab.MinRayLength, g.RayLength(), "clamped to the minimum")
}

func TestGrab_HandPinch(t *testing.T) {
	s, res := newTestResources(t)
	start := Vec3{0, 1, -0.4}
	g, err := NewGrabManipulator(res, GrabOptions{Position: start})
	require.NoError(t, err)
	defer g.Close()

	frame(s, []*InputSample{NewHandSample(1, pinchedHand(start, true), Datamap{})}, g)
	assert.False(t, g.Action().Acting(), "open hand must not grab")
	frame(s, []*InputSample{NewHandSample(1, pinchedHand(start, false), Datamap{})}, g)
	require.True(t, g.Action().Started())

	target := start.Add(Vec3{0, 0.05, 0})
	frame(s, []*InputSample{NewHandSample(1, pinchedHand(target, false), Datamap{})}, g)
	assertVec(t, "head", worldPos(t, s, g.Head()), target)
}

func TestGrab_AnchorFrame(t *testing.T) {
	s, res := newTestResources(t)
	anchor, err := s.CreateNode(s.Root(), FromTranslation(Vec3{2, 0, 0}))
	require.NoError(t, err)
	g, err := NewGrabManipulator(res, GrabOptions{Anchor: anchor, Position: Vec3{0, 1, 0}})
	require.NoError(t, err)
	defer g.Close()

	world := Vec3{2, 1, 0}
	frame(s, []*InputSample{NewTipSample(1, world, Datamap{})}, g)
	frame(s, []*InputSample{NewTipSample(1, world, held(KeyGrab))}, g)
	p, ok := g.GrabPoint()
	require.True(t, ok)
	assertVec(t, "grab point in anchor space", p, Vec3{0, 1, 0})
}

func TestGrab_SetEnabledAndClose(t *testing.T) {
	s, res := newTestResources(t)
	start := Vec3{0, 1, -0.5}
	g, err := NewGrabManipulator(res, GrabOptions{Position: start})
	require.NoError(t, err)

	frame(s, []*InputSample{NewTipSample(1, start, Datamap{})}, g)
	frame(s, []*InputSample{NewTipSample(1, start, held(KeyGrab))}, g)
	require.True(t, g.Action().Acting())

	require.NoError(t, g.SetEnabled(false))
	assert.False(t, g.Enabled())
	assert.False(t, g.Action().Acting(), "disable drops the actor")
	assert.False(t, s.Enabled(g.Head()))

	require.NoError(t, g.SetEnabled(true))
	require.NoError(t, g.Close())
	require.NoError(t, g.Close(), "second close is a no-op")
	assert.ErrorIs(t, g.SetEnabled(true), ErrClosed)
	_, err = s.Transform(context.Background(), g.Head(), 0)
	assert.ErrorIs(t, err, ErrUnknownNode)
}

func TestGrab_CreateFailsOnUnknownAnchor(t *testing.T) {
	_, res := newTestResources(t)
	_, err := NewGrabManipulator(res, GrabOptions{Anchor: NodeID(999)})
	assert.ErrorIs(t, err, ErrUnknownNode)
}
