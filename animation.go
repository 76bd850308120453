package wisp

import (
	"time"

	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
	"go.uber.org/zap"
)

// ColorTween animates all four components of a Color simultaneously.
// Call Update(dt) each frame; Done is set once every component has arrived.
type ColorTween struct {
	tweens [4]*gween.Tween
	color  Color
	target Color
	Done   bool
}

// NewColorTween creates a tween from one color to another over duration
// seconds using the easing function.
func NewColorTween(from, to Color, duration float32, fn ease.TweenFunc) *ColorTween {
	t := &ColorTween{color: from, target: to}
	t.tweens[0] = gween.New(float32(from.R), float32(to.R), duration, fn)
	t.tweens[1] = gween.New(float32(from.G), float32(to.G), duration, fn)
	t.tweens[2] = gween.New(float32(from.B), float32(to.B), duration, fn)
	t.tweens[3] = gween.New(float32(from.A), float32(to.A), duration, fn)
	return t
}

// Update advances the tween by dt seconds and returns the current color.
func (t *ColorTween) Update(dt float32) Color {
	if t.Done {
		return t.color
	}
	fields := [4]*float64{&t.color.R, &t.color.G, &t.color.B, &t.color.A}
	allDone := true
	for i, tw := range t.tweens {
		val, finished := tw.Update(dt)
		*fields[i] = float64(val)
		if !finished {
			allDone = false
		}
	}
	t.Done = allDone
	if t.Done {
		t.color = t.target
	}
	return t.color
}

// Color returns the current color.
func (t *ColorTween) Color() Color { return t.color }

// Target returns the color the tween is heading to.
func (t *ColorTween) Target() Color { return t.target }

// --- Material feedback ---

// Feedback drives one color parameter of a node's material toward a target,
// easing between targets. Writes to the service are best effort.
type Feedback struct {
	svc      Nodes
	node     NodeID
	param    string
	duration float32
	logger   *zap.Logger

	tween *ColorTween
	dirty bool
}

// NewFeedback creates feedback for param on node starting at initial. The
// initial color is written on the next Update.
func NewFeedback(svc Nodes, node NodeID, param string, initial Color, duration time.Duration, logger *zap.Logger) *Feedback {
	if logger == nil {
		logger = zap.NewNop()
	}
	f := &Feedback{
		svc:      svc,
		node:     node,
		param:    param,
		duration: float32(duration.Seconds()),
		logger:   logger,
		dirty:    true,
	}
	f.tween = NewColorTween(initial, initial, 0, ease.Linear)
	f.tween.Done = true
	return f
}

// Set eases toward c. Setting the current target again is a no-op.
func (f *Feedback) Set(c Color) {
	if f.tween.Target() == c {
		return
	}
	if f.duration <= 0 {
		f.Snap(c)
		return
	}
	f.tween = NewColorTween(f.tween.Color(), c, f.duration, ease.OutQuad)
	f.dirty = true
}

// Snap jumps to c without easing.
func (f *Feedback) Snap(c Color) {
	f.tween = NewColorTween(c, c, 0, ease.Linear)
	f.tween.Done = true
	f.dirty = true
}

// Update advances the easing by dt seconds and writes the color when it
// changed.
func (f *Feedback) Update(dt float64) {
	if !f.dirty {
		return
	}
	c := f.tween.Update(float32(dt))
	if err := f.svc.SetMaterialColor(f.node, f.param, c); err != nil {
		f.logger.Warn("set material color failed",
			zap.Uint32("node", uint32(f.node)),
			zap.String("param", f.param),
			zap.Error(err))
		return
	}
	if f.tween.Done {
		f.dirty = false
	}
}

// Color returns the current eased color.
func (f *Feedback) Color() Color { return f.tween.Color() }

// Target returns the color being eased toward.
func (f *Feedback) Target() Color { return f.tween.Target() }
