package wisp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExposure(t *testing.T) {
	e := Exposure{Cooling: 2, Max: 1}
	e.Expose(3, 0.5)
	assert.InDelta(t, 1.5, e.Value, 1e-12)
	assert.True(t, e.Saturated())

	e.Cool(0.5)
	assert.InDelta(t, 0.5, e.Value, 1e-12)
	assert.False(t, e.Saturated())

	e.Cool(10)
	assert.Zero(t, e.Value, "cooling stops at zero")

	e.Flash(1)
	assert.False(t, e.Saturated(), "exactly Max is not saturated")
	e.Flash(0.01)
	assert.True(t, e.Saturated())
}

const buttonFrame = 1.0 / 60

func newTestButton(t *testing.T) (*Scene, *ExposureButton) {
	t.Helper()
	s, res := newTestResources(t)
	b, err := NewExposureButton(res, s.Root(), FromTranslation(Vec3{0, 1.5, -1}), 0.01)
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })
	return s, b
}

// pressFrames feeds sample for up to n frames and returns the frame on which
// the button fired, or -1.
func pressFrames(s *Scene, b *ExposureButton, n int, sample func() *InputSample) int {
	for i := 0; i < n; i++ {
		var batch []*InputSample
		if sample != nil {
			batch = []*InputSample{sample()}
		}
		s.Feed(batch)
		s.Update(FrameInfo{Delta: buttonFrame})
		if b.Update(FrameInfo{Delta: buttonFrame}) {
			return i
		}
	}
	return -1
}

func TestExposureButton_PushThroughFires(t *testing.T) {
	s, b := newTestButton(t)
	inside := func() *InputSample { return NewTipSample(1, Vec3{0, 1.5, -1.004}, Datamap{}) }

	require.Equal(t, -1, pressFrames(s, b, 2, inside), "a brief touch must not fire")
	assert.Greater(t, b.Exposure(), 0.0)
	c, ok := s.MaterialColor(b.Root(), ParamEmission)
	require.True(t, ok, "warming up shows on the emission")
	assert.NotEqual(t, Magma(0), c)

	fired := pressFrames(s, b, 60, inside)
	assert.GreaterOrEqual(t, fired, 0, "held press fires")
}

func TestExposureButton_HoverDoesNotHeat(t *testing.T) {
	s, b := newTestButton(t)
	outside := func() *InputSample { return NewTipSample(1, Vec3{0, 1.5, -0.98}, Datamap{}) }
	assert.Equal(t, -1, pressFrames(s, b, 60, outside))
	assert.Zero(t, b.Exposure())
}

func TestExposureButton_RayNeedsSelect(t *testing.T) {
	s, b := newTestButton(t)
	ray := func(data Datamap) func() *InputSample {
		return func() *InputSample { return NewRaySample(1, Vec3{0, 1.5, 0}, Vec3{0, 0, -1}, data) }
	}
	assert.Equal(t, -1, pressFrames(s, b, 30, ray(Datamap{})))
	assert.Zero(t, b.Exposure())
	assert.GreaterOrEqual(t, pressFrames(s, b, 60, ray(held(KeySelect))), 0)
}

func TestExposureButton_CoolsDown(t *testing.T) {
	s, b := newTestButton(t)
	inside := func() *InputSample { return NewTipSample(1, Vec3{0, 1.5, -1.004}, Datamap{}) }
	pressFrames(s, b, 2, inside)
	require.Greater(t, b.Exposure(), 0.0)
	pressFrames(s, b, 60, nil)
	assert.Zero(t, b.Exposure())
}

func TestExposureButton_SetEnabledAndClose(t *testing.T) {
	s, b := newTestButton(t)
	inside := func() *InputSample { return NewTipSample(1, Vec3{0, 1.5, -1.004}, Datamap{}) }
	pressFrames(s, b, 2, inside)

	require.NoError(t, b.SetEnabled(false))
	assert.Zero(t, b.Exposure())
	assert.False(t, s.Enabled(b.Root()))
	assert.Equal(t, -1, pressFrames(s, b, 60, inside), "disabled button never fires")

	require.NoError(t, b.Close())
	require.NoError(t, b.Close())
	assert.ErrorIs(t, b.SetEnabled(true), ErrClosed)
	assert.False(t, b.Update(FrameInfo{Delta: buttonFrame}))
}
