package wisp

import (
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"
)

// Exposure accumulates "heat" from contacts and cools over time.
type Exposure struct {
	Value   float64
	Cooling float64 // lost per second
	Max     float64
}

// Cool removes Cooling*dt, never going below zero.
func (e *Exposure) Cool(dt float64) {
	e.Value = math.Max(0, e.Value-e.Cooling*dt)
}

// Expose adds amount per second for dt seconds.
func (e *Exposure) Expose(amount, dt float64) {
	e.Value += amount * dt
}

// Flash adds amount at once.
func (e *Exposure) Flash(amount float64) {
	e.Value += amount
}

// Saturated reports whether the exposure exceeded Max.
func (e *Exposure) Saturated() bool {
	return e.Value > e.Max
}

// ExposureButton is a push-through button, such as a panel's close button.
// Pressing into it heats it up and it fires once the heat saturates, so a
// brush past does not trigger it. Rays must also hold select.
type ExposureButton struct {
	svc    Service
	cfg    ButtonConfig
	logger *zap.Logger

	root    NodeID
	field   FieldID
	handler HandlerID
	source  HandlerSource

	pressing HoverAction
	exposure Exposure

	enabled bool
	closed  bool
}

// Close button geometry.
const (
	buttonSize       = 0.025
	buttonWidthScale = 1.5
)

// NewExposureButton creates a button of the given thickness under parent.
func NewExposureButton(res *Resources, parent NodeID, t Transform, thickness float64) (*ExposureButton, error) {
	svc := res.Service
	root, err := svc.CreateNode(parent, t)
	if err != nil {
		return nil, fmt.Errorf("create button root: %w", err)
	}
	field, err := svc.CreateField(root, Identity(), Box(Vec3{buttonWidthScale * buttonSize, buttonSize, thickness}))
	if err != nil {
		_ = svc.DestroyNode(root)
		return nil, fmt.Errorf("create button field: %w", err)
	}
	handler, err := svc.CreateInputHandler(root, Identity(), field)
	if err != nil {
		_ = svc.DestroyNode(root)
		return nil, fmt.Errorf("create button input handler: %w", err)
	}
	cfg := res.Config.Button
	b := &ExposureButton{
		svc:      svc,
		cfg:      cfg,
		logger:   res.Named("button"),
		root:     root,
		field:    field,
		handler:  handler,
		source:   HandlerSource{Inputs: svc, Handler: handler},
		exposure: Exposure{Cooling: cfg.Cooling, Max: cfg.Max},
		enabled:  true,
	}
	debugTrackClose(b, "ExposureButton", func(b *ExposureButton) bool { return b.closed })
	return b, nil
}

// pressed reports whether a sample is pushing into the button.
func (b *ExposureButton) pressed(s *InputSample) bool {
	if s.Distance >= 0 {
		return false
	}
	if s.Kind == KindRay {
		return s.Data.Select() > 0.5
	}
	return true
}

// Update accumulates this frame's exposure and reports whether the button
// fired.
func (b *ExposureButton) Update(frame FrameInfo) bool {
	if !b.enabled || b.closed {
		return false
	}
	d := b.pressing.Update(b.source.Batch(), b.pressed)
	active := d.Active()

	heat := 0.0
	for _, s := range active {
		heat += math.Pow(math.Abs(s.Distance), 1/2.2)
	}
	b.exposure.Cool(frame.Delta)
	b.exposure.Expose(heat*b.cfg.Gain, frame.Delta)
	b.exposure.Flash(float64(len(active)) * b.cfg.Flash)

	if b.exposure.Saturated() {
		return true
	}
	if b.exposure.Value > 0 {
		c := Magma(b.exposure.Value / b.exposure.Max)
		if err := b.svc.SetMaterialColor(b.root, ParamEmission, c); err != nil {
			b.logger.Warn("set button emission failed", zap.Error(err))
		}
	}
	return false
}

// Exposure returns the current exposure level.
func (b *ExposureButton) Exposure() float64 { return b.exposure.Value }

// Root returns the button's node.
func (b *ExposureButton) Root() NodeID { return b.root }

// SetEnabled shows or hides the button and clears accumulated exposure.
func (b *ExposureButton) SetEnabled(enabled bool) error {
	if b.closed {
		return ErrClosed
	}
	b.enabled = enabled
	b.exposure.Value = 0
	b.pressing.Reset()
	return errors.Join(
		b.svc.SetEnabled(b.root, enabled),
		b.svc.SetHandlerEnabled(b.handler, enabled),
	)
}

// Close destroys the button.
func (b *ExposureButton) Close() error {
	if b.closed {
		return nil
	}
	b.closed = true
	return b.svc.DestroyNode(b.root)
}
