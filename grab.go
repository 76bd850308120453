package wisp

import (
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"
)

// Material parameters written by manipulators.
const (
	ParamColor    = "color"
	ParamEmission = "emission_factor"
)

// Default handle colors.
var (
	HandleIdleColor  = Color{0.5, 0.5, 0.5, 1}
	HandleHoverColor = Color{1, 1, 1, 1}
	HandleGrabColor  = Color{0, 0.75, 1, 1}
)

// GrabOptions configures a GrabManipulator.
type GrabOptions struct {
	// Anchor is the frame grab points are expressed in and the parent of the
	// input handler. Zero means the service root.
	Anchor NodeID
	// Parent is where the head node is created. Zero means Anchor.
	Parent NodeID
	// Position is the head's initial position relative to Parent.
	Position Vec3
	// Rest is where the head returns, relative to Anchor, when released.
	// Nil leaves the head at the last grab point.
	Rest *Vec3

	Config GrabConfig

	IdleColor, HoverColor, GrabColor Color
}

// GrabManipulator is a free-floating spherical handle. Any ray, hand or tip
// close enough to it can grab it; while grabbed the head node follows the
// grab point, and on release it returns to its rest position.
type GrabManipulator struct {
	svc    Service
	cfg    GrabConfig
	logger *zap.Logger

	anchor      NodeID
	head        NodeID
	field       FieldID
	handler     HandlerID
	handlerNode NodeID
	source      HandlerSource

	action    *SingleActorAction
	rest      *Vec3
	rayLength float64
	point     Vec3
	hasPoint  bool

	feedback                         *Feedback
	idleColor, hoverColor, grabColor Color

	enabled bool
	closed  bool
}

// NewGrabManipulator creates the head node, its sphere field and an input
// handler under the anchor. Anything already created is destroyed again when
// a later step fails.
func NewGrabManipulator(res *Resources, opts GrabOptions) (*GrabManipulator, error) {
	svc := res.Service
	if opts.Anchor == 0 {
		opts.Anchor = svc.Root()
	}
	if opts.Parent == 0 {
		opts.Parent = opts.Anchor
	}
	if opts.Config == (GrabConfig{}) {
		opts.Config = res.Config.Grab
	}
	if opts.IdleColor == (Color{}) {
		opts.IdleColor = HandleIdleColor
	}
	if opts.HoverColor == (Color{}) {
		opts.HoverColor = HandleHoverColor
	}
	if opts.GrabColor == (Color{}) {
		opts.GrabColor = HandleGrabColor
	}

	g := &GrabManipulator{
		svc:        svc,
		cfg:        opts.Config,
		logger:     res.Named("grab"),
		anchor:     opts.Anchor,
		action:     NewSingleActorAction(true, false),
		rest:       opts.Rest,
		idleColor:  opts.IdleColor,
		hoverColor: opts.HoverColor,
		grabColor:  opts.GrabColor,
		enabled:    true,
	}

	var err error
	g.head, err = svc.CreateNode(opts.Parent, FromTranslation(opts.Position))
	if err != nil {
		return nil, fmt.Errorf("create grab head: %w", err)
	}
	g.field, err = svc.CreateField(g.head, Identity(), Sphere(g.cfg.Radius))
	if err != nil {
		_ = svc.DestroyNode(g.head)
		return nil, fmt.Errorf("create grab field: %w", err)
	}
	g.handler, err = svc.CreateInputHandler(g.anchor, Identity(), g.field)
	if err != nil {
		_ = svc.DestroyNode(g.head)
		return nil, fmt.Errorf("create grab input handler: %w", err)
	}
	g.handlerNode, err = svc.HandlerNode(g.handler)
	if err != nil {
		_ = svc.DestroyInputHandler(g.handler)
		_ = svc.DestroyNode(g.head)
		return nil, fmt.Errorf("resolve grab input handler: %w", err)
	}
	g.source = HandlerSource{Inputs: svc, Handler: g.handler}
	g.feedback = NewFeedback(svc, g.head, ParamColor, g.idleColor, g.cfg.FeedbackDuration, g.logger)

	debugTrackClose(g, "GrabManipulator", func(g *GrabManipulator) bool { return g.closed })
	return g, nil
}

// --- Predicates ---

// hovers reports whether a sample is close enough to grab the handle.
func (g *GrabManipulator) hovers(s *InputSample) bool {
	return s.Distance < g.cfg.Radius+g.cfg.Padding
}

// commits reports whether a sample is squeezing.
func (g *GrabManipulator) commits(s *InputSample) bool {
	switch s.Kind {
	case KindHand:
		if s.Hand != nil && s.Hand.PinchDistance(s.Hand.Index) < g.cfg.PinchDistance {
			return true
		}
		return s.Data.PinchStrength() > g.cfg.GrabThreshold
	default:
		return s.Data.Grab() > g.cfg.GrabThreshold
	}
}

// --- Frame ---

// Update processes this frame's batch and moves the head.
func (g *GrabManipulator) Update(frame FrameInfo) {
	if !g.enabled || g.closed {
		return
	}
	g.action.Update(g.source, g.hovers, g.commits)

	if p, ok := g.grabPoint(); ok {
		g.point, g.hasPoint = p, true
		if err := g.svc.SetTransform(g.head, g.handlerNode, FromTranslation(p)); err != nil {
			g.logger.Warn("move grab head failed", zap.Error(err))
		}
	}
	if g.action.Stopped() && g.rest != nil {
		if err := g.svc.SetTransform(g.head, g.anchor, FromTranslation(*g.rest)); err != nil {
			g.logger.Warn("return grab head to rest failed", zap.Error(err))
		}
	}

	switch {
	case g.action.Acting():
		g.feedback.Set(g.grabColor)
	case g.action.Hovering().Len() > 0:
		g.feedback.Set(g.hoverColor)
	default:
		g.feedback.Set(g.idleColor)
	}
	g.feedback.Update(frame.Delta)
}

// grabPoint computes the point the actor is holding, in anchor space.
func (g *GrabManipulator) grabPoint() (Vec3, bool) {
	actor := g.action.Actor()
	if actor == nil {
		return Vec3{}, false
	}
	switch actor.Kind {
	case KindRay:
		if actor.Ray == nil {
			return Vec3{}, false
		}
		if g.action.Started() || g.action.Changed() {
			g.rayLength = actor.Ray.Origin.Sub(actor.Ray.DeepestPoint).Len()
		}
		g.rayLength += actor.Data.ScrollContinuous().Y() * g.cfg.ScrollScale
		g.rayLength += actor.Data.ScrollDiscrete().Y() * g.cfg.DiscreteScrollScale
		g.rayLength = math.Max(g.rayLength, g.cfg.MinRayLength)
		return actor.Ray.At(g.rayLength), true
	case KindHand:
		if actor.Hand == nil {
			return Vec3{}, false
		}
		return actor.Hand.PinchMidpoint(), true
	case KindTip:
		if actor.Tip == nil {
			return Vec3{}, false
		}
		return actor.Tip.Origin, true
	}
	return Vec3{}, false
}

// --- Accessors ---

// Action returns the underlying single actor action.
func (g *GrabManipulator) Action() *SingleActorAction { return g.action }

// Head returns the node moved by the manipulator.
func (g *GrabManipulator) Head() NodeID { return g.head }

// Field returns the handle's sphere field.
func (g *GrabManipulator) Field() FieldID { return g.field }

// Anchor returns the frame grab points are expressed in.
func (g *GrabManipulator) Anchor() NodeID { return g.anchor }

// GrabPoint returns the last computed grab point in anchor space.
func (g *GrabManipulator) GrabPoint() (Vec3, bool) { return g.point, g.hasPoint }

// RayLength returns the current ray length used for ray grabs.
func (g *GrabManipulator) RayLength() float64 { return g.rayLength }

// SetRest changes the rest position. Nil disables returning to rest.
func (g *GrabManipulator) SetRest(rest *Vec3) { g.rest = rest }

// SetPosition places the head relative to relativeTo. Ignored while grabbed.
func (g *GrabManipulator) SetPosition(relativeTo NodeID, p Vec3) {
	if g.action.Acting() {
		return
	}
	if err := g.svc.SetTransform(g.head, relativeTo, FromTranslation(p)); err != nil {
		g.logger.Warn("place grab head failed", zap.Error(err))
	}
}

// Enabled reports whether the manipulator processes input.
func (g *GrabManipulator) Enabled() bool { return g.enabled && !g.closed }

// SetEnabled shows or hides the handle. Disabling drops the current actor
// without reporting a stop.
func (g *GrabManipulator) SetEnabled(enabled bool) error {
	if g.closed {
		return ErrClosed
	}
	if g.enabled == enabled {
		return nil
	}
	g.enabled = enabled
	if !enabled {
		g.action.Reset(g.source)
	}
	return errors.Join(
		g.svc.SetEnabled(g.head, enabled),
		g.svc.SetHandlerEnabled(g.handler, enabled),
	)
}

// Close releases any capture and destroys the handler and the head subtree.
// Calling Close more than once is a no-op.
func (g *GrabManipulator) Close() error {
	if g.closed {
		return nil
	}
	g.action.Reset(g.source)
	g.closed = true
	return errors.Join(
		g.svc.DestroyInputHandler(g.handler),
		g.svc.DestroyNode(g.head),
	)
}
