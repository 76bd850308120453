package wisp

import (
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"
)

// SurfaceOptions configures a SurfaceRouter.
type SurfaceOptions struct {
	// Parent is where the surface's field is created. Zero means the root.
	Parent    NodeID
	Transform Transform
	// PhysicalSize is the surface's extent in meters.
	PhysicalSize Vec2
	// Resolution is the surface's extent in pixels.
	Resolution Vec2
	// Thickness is the depth of the surface's field, centered on its plane.
	Thickness float64
	// Config overrides Resources.Config.Surface when non-nil.
	Config *SurfaceConfig
	// Store receives every event when set.
	Store    EntityStore
	EntityID uint32
}

// button describes how one of the three pointer buttons is held.
type button struct {
	which  MouseButton
	key    string
	finger func(*HandPose) Vec3
	action *SingleActorAction

	// Last position reported for the actor, used when it releases off the surface.
	pos   Vec2
	depth float64
}

// Line is a debug segment in surface space.
type Line struct {
	From, To Vec3
	Color    Color
}

// Debug overlay colors.
var (
	SurfaceOutlineColor = Color{1, 1, 1, 1}
	SurfaceContactColor = Color{0, 0.75, 1, 1}
)

// SurfaceRouter projects 3D contacts onto a flat panel and turns them into
// pointer and touch events in pixel space.
//
// Rays, and hands and tips hovering a little in front of the panel, drive a
// single pointer: the closest hovering sample moves it, scrolls it and holds
// its buttons. Hands and tips pushing through the front plane are touches,
// tracked individually by sample ID.
type SurfaceRouter struct {
	svc    Service
	cfg    SurfaceConfig
	logger *zap.Logger

	field   FieldID
	handler HandlerID
	source  HandlerSource

	physical   Vec2
	resolution Vec2
	thickness  float64

	hover      HoverAction
	buttons    []button
	touch      MultiActorAction
	armed      map[SampleID]bool
	closest    *InputSample
	pointerIn  bool
	clickStart time.Duration
	clicked    bool

	handlers handlerRegistry
	store    EntityStore
	entityID uint32
	events   []SurfaceEvent

	enabled bool
	closed  bool
}

// NewSurfaceRouter creates the surface's box field and an input handler on it.
func NewSurfaceRouter(res *Resources, opts SurfaceOptions) (*SurfaceRouter, error) {
	svc := res.Service
	cfg := res.Config.Surface
	if opts.Config != nil {
		cfg = *opts.Config
	}
	if opts.Parent == 0 {
		opts.Parent = svc.Root()
	}
	if opts.Transform == (Transform{}) {
		opts.Transform = Identity()
	}
	if opts.PhysicalSize.X() <= 0 || opts.PhysicalSize.Y() <= 0 {
		return nil, fmt.Errorf("create surface: physical size %v must be positive", opts.PhysicalSize)
	}

	field, err := svc.CreateField(opts.Parent, opts.Transform, surfaceShape(opts.PhysicalSize, opts.Thickness))
	if err != nil {
		return nil, fmt.Errorf("create surface field: %w", err)
	}
	fieldNode, err := svc.FieldNode(field)
	if err != nil {
		_ = svc.DestroyField(field)
		return nil, fmt.Errorf("resolve surface field: %w", err)
	}
	handler, err := svc.CreateInputHandler(fieldNode, Identity(), field)
	if err != nil {
		_ = svc.DestroyField(field)
		return nil, fmt.Errorf("create surface input handler: %w", err)
	}

	r := &SurfaceRouter{
		svc:        svc,
		cfg:        cfg,
		logger:     res.Named("surface"),
		field:      field,
		handler:    handler,
		source:     HandlerSource{Inputs: svc, Handler: handler},
		physical:   opts.PhysicalSize,
		resolution: opts.Resolution,
		thickness:  opts.Thickness,
		armed:      make(map[SampleID]bool),
		store:      opts.Store,
		entityID:   opts.EntityID,
		enabled:    true,
	}
	r.buttons = []button{
		{MouseButtonLeft, KeySelect, func(h *HandPose) Vec3 { return h.Index }, NewSingleActorAction(false, false)},
		{MouseButtonMiddle, KeyMiddle, func(h *HandPose) Vec3 { return h.Middle }, NewSingleActorAction(false, false)},
		{MouseButtonRight, KeyContext, func(h *HandPose) Vec3 { return h.Ring }, NewSingleActorAction(false, false)},
	}
	debugTrackClose(r, "SurfaceRouter", func(r *SurfaceRouter) bool { return r.closed })
	return r, nil
}

// surfaceShape returns the field box for a surface. The box is centered on
// the front plane, so thickness extends half in front and half behind.
func surfaceShape(physical Vec2, thickness float64) Shape {
	return Box(Vec3{physical.X(), physical.Y(), thickness})
}

// --- Geometry ---

// hoverPoint returns the point a sample aims at, in surface space. Rays hit
// the front plane; hands use their stable or predicted pinch position.
func (r *SurfaceRouter) hoverPoint(s *InputSample, stable bool) (Vec3, bool) {
	switch s.Kind {
	case KindRay:
		if s.Ray == nil {
			return Vec3{}, false
		}
		return RayPlanePoint(s.Ray), true
	case KindHand:
		if s.Hand == nil {
			return Vec3{}, false
		}
		return s.Hand.PinchPoint(stable), true
	case KindTip:
		if s.Tip == nil {
			return Vec3{}, false
		}
		return s.Tip.Origin, true
	}
	return Vec3{}, false
}

// touchPoint returns the contact point of a touch-capable sample. Rays never
// touch.
func (r *SurfaceRouter) touchPoint(s *InputSample) (Vec3, bool) {
	switch s.Kind {
	case KindHand:
		if s.Hand == nil {
			return Vec3{}, false
		}
		return s.Hand.Index, true
	case KindTip:
		if s.Tip == nil {
			return Vec3{}, false
		}
		return s.Tip.Origin, true
	}
	return Vec3{}, false
}

// Pixel maps a surface-space point to pixel coordinates.
func (r *SurfaceRouter) Pixel(p Vec3) Vec2 {
	return PhysicalToPixel(p, r.physical, r.resolution)
}

// --- Predicates ---

func (r *SurfaceRouter) hovers(s *InputSample) bool {
	if s.Kind == KindRay {
		return s.Distance <= 0
	}
	p, ok := r.hoverPoint(s, r.cfg.StablePinch)
	return ok && r.cfg.HoverDepth.Contains(p.Z()) && InRect(r.physical, p, true)
}

func (r *SurfaceRouter) isClosest(s *InputSample) bool {
	return r.closest != nil && s.ID == r.closest.ID
}

func (r *SurfaceRouter) pressing(b *button) Predicate {
	return func(s *InputSample) bool {
		if s.Kind == KindHand && s.Hand != nil {
			return s.Hand.PinchDistance(b.finger(s.Hand)) < r.cfg.PinchDistance
		}
		return s.Data.Float(b.key, 0) > r.cfg.ButtonValue
	}
}

// touchEnters reports whether a contact pushed through the front plane
// inside the surface, having been in front of it last frame.
func (r *SurfaceRouter) touchEnters(s *InputSample) bool {
	p, ok := r.touchPoint(s)
	return ok && r.armed[s.ID] && InRect(r.physical, p, false)
}

// touchExits reports whether a contact slid off the surface or pulled back
// out in front of it.
func (r *SurfaceRouter) touchExits(s *InputSample) bool {
	p, ok := r.touchPoint(s)
	return !ok || !InBounds(r.physical, p) || p.Z() > r.cfg.TouchRelease
}

// --- Frame ---

// Update processes this frame's batch and emits the resulting events.
func (r *SurfaceRouter) Update(frame FrameInfo) {
	if !r.enabled || r.closed {
		return
	}
	r.events = r.events[:0]
	batch := r.source.Batch()

	r.hover.Update(batch, r.hovers)
	r.closest = r.closestHover(batch)

	var pos Vec2
	var depth float64
	if r.closest != nil {
		p, _ := r.hoverPoint(r.closest, r.cfg.StablePinch)
		pos, depth = r.Pixel(p), p.Z()
	}

	for i := range r.buttons {
		b := &r.buttons[i]
		b.action.Update(r.source, r.isClosest, r.pressing(b))
		if b.action.Acting() && r.isClosest(b.action.Actor()) {
			b.pos, b.depth = pos, depth
		}
		if b.action.Started() {
			r.clickStart, r.clicked = frame.Elapsed, true
			r.emit(SurfaceEvent{Type: EventButton, Sample: b.action.Actor().ID, Position: pos, Depth: depth, Button: b.which.Code(), Pressed: true})
		}
		if b.action.Stopped() {
			last := b.action.LastActor()
			if r.isClosest(last) {
				b.pos, b.depth = pos, depth
			}
			r.emit(SurfaceEvent{Type: EventButton, Sample: last.ID, Position: b.pos, Depth: b.depth, Button: b.which.Code()})
		}
	}

	if r.closest != nil {
		r.pointerIn = true
		id := r.closest.ID
		if !r.frozen(frame) {
			r.emit(SurfaceEvent{Type: EventPointerMotion, Sample: id, Position: pos, Depth: depth})
		}
		data := r.closest.Data
		if c, d := data.ScrollContinuous(), data.ScrollDiscrete(); c != (Vec2{}) || d != (Vec2{}) {
			r.emit(SurfaceEvent{Type: EventScroll, Sample: id, Position: pos, ScrollContinuous: c, ScrollDiscrete: d})
		}
		if s := data.Scroll(); s != (Vec2{}) {
			r.emit(SurfaceEvent{Type: EventScroll, Sample: id, Position: pos, ScrollDiscrete: s.Mul(frame.Delta)})
		}
	} else if r.pointerIn {
		r.pointerIn = false
		r.emit(SurfaceEvent{Type: EventPointerLeave})
	}

	r.updateTouches(batch)
}

// closestHover returns the nearest sample among those hovering and those
// this handler has captured.
func (r *SurfaceRouter) closestHover(batch []*InputSample) *InputSample {
	var best *InputSample
	consider := func(s *InputSample) {
		if best == nil || s.Distance < best.Distance {
			best = s
		}
	}
	for _, s := range r.hover.Active() {
		consider(s)
	}
	for _, s := range batch {
		if s.Captured {
			consider(s)
		}
	}
	return best
}

// frozen reports whether pointer motion is held back after a recent press,
// so a pinch does not drag the pointer off its target.
func (r *SurfaceRouter) frozen(frame FrameInfo) bool {
	return r.clicked && frame.Elapsed-r.clickStart <= r.cfg.ClickFreeze
}

func (r *SurfaceRouter) updateTouches(batch []*InputSample) {
	d := r.touch.Update(batch, r.touchEnters, r.touchExits)
	for _, s := range d.Added {
		p, _ := r.touchPoint(s)
		r.emit(SurfaceEvent{Type: EventTouchDown, Sample: s.ID, Position: r.Pixel(p), Depth: p.Z()})
	}
	for _, s := range d.Current {
		p, _ := r.touchPoint(s)
		r.emit(SurfaceEvent{Type: EventTouchMove, Sample: s.ID, Position: r.Pixel(p), Depth: p.Z()})
	}
	for _, s := range d.Removed {
		r.emit(SurfaceEvent{Type: EventTouchUp, Sample: s.ID})
	}

	clear(r.armed)
	for _, s := range batch {
		if p, ok := r.touchPoint(s); ok && InRect(r.physical, p, true) {
			r.armed[s.ID] = true
		}
	}
}

// --- Accessors ---

// Events returns the events emitted by the last Update.
func (r *SurfaceRouter) Events() []SurfaceEvent {
	out := make([]SurfaceEvent, len(r.events))
	copy(out, r.events)
	return out
}

// Closest returns the sample driving the pointer, or nil.
func (r *SurfaceRouter) Closest() *InputSample { return r.closest }

// Touches returns the currently tracked touch samples.
func (r *SurfaceRouter) Touches() []*InputSample { return r.touch.Active() }

// Field returns the surface's field.
func (r *SurfaceRouter) Field() FieldID { return r.field }

// PhysicalSize returns the surface's size in meters.
func (r *SurfaceRouter) PhysicalSize() Vec2 { return r.physical }

// Resolution returns the surface's size in pixels.
func (r *SurfaceRouter) Resolution() Vec2 { return r.resolution }

// Resize changes the surface's physical size and pixel resolution. A failure
// to reshape the field is logged and the old field stays in place.
func (r *SurfaceRouter) Resize(physical, resolution Vec2) {
	r.resolution = resolution
	if physical == r.physical {
		return
	}
	if err := r.svc.SetFieldShape(r.field, surfaceShape(physical, r.thickness)); err != nil {
		r.logger.Warn("resize surface field failed", zap.Error(err))
		return
	}
	r.physical = physical
}

// SetEnabled starts or stops input processing. Disabling lifts every touch,
// releases held buttons and reports the pointer leaving.
func (r *SurfaceRouter) SetEnabled(enabled bool) error {
	if r.closed {
		return ErrClosed
	}
	if r.enabled == enabled {
		return nil
	}
	r.enabled = enabled
	if !enabled {
		r.cancel()
	}
	return r.svc.SetHandlerEnabled(r.handler, enabled)
}

// cancel ends every active interaction, emitting the matching events.
func (r *SurfaceRouter) cancel() {
	r.events = r.events[:0]
	for i := range r.buttons {
		b := &r.buttons[i]
		if b.action.Acting() {
			r.emit(SurfaceEvent{Type: EventButton, Button: b.which.Code()})
		}
		b.action.Reset(r.source)
	}
	for _, s := range r.touch.Active() {
		r.emit(SurfaceEvent{Type: EventTouchUp, Sample: s.ID})
	}
	r.touch.Reset()
	if r.pointerIn {
		r.emit(SurfaceEvent{Type: EventPointerLeave})
	}
	r.pointerIn = false
	r.closest = nil
	r.hover.Reset()
	clear(r.armed)
}

// Close ends active interactions and destroys the field and handler.
func (r *SurfaceRouter) Close() error {
	if r.closed {
		return nil
	}
	if r.enabled {
		r.cancel()
	}
	r.closed = true
	return errors.Join(
		r.svc.DestroyInputHandler(r.handler),
		r.svc.DestroyField(r.field),
	)
}

// --- Debug overlay ---

// DebugLines returns the surface outline, front and back, and one line from
// each contact to its projection on the surface.
func (r *SurfaceRouter) DebugLines() []Line {
	w, h := r.physical.X()/2, r.physical.Y()/2
	corners := [4]Vec2{{-w, -h}, {w, -h}, {w, h}, {-w, h}}
	back := SurfaceOutlineColor
	back.A *= 0.5

	var lines []Line
	for i := range corners {
		a, b := corners[i], corners[(i+1)%len(corners)]
		lines = append(lines,
			Line{From: Vec3{a.X(), a.Y(), 0}, To: Vec3{b.X(), b.Y(), 0}, Color: SurfaceOutlineColor},
			Line{From: Vec3{a.X(), a.Y(), -r.thickness}, To: Vec3{b.X(), b.Y(), -r.thickness}, Color: back},
		)
	}
	contact := func(p Vec3) Line {
		on := Vec3{
			math.Max(-w, math.Min(w, p.X())),
			math.Max(-h, math.Min(h, p.Y())),
			0,
		}
		return Line{From: on, To: p, Color: SurfaceContactColor}
	}
	if r.closest != nil && r.closest.Kind != KindRay {
		if p, ok := r.hoverPoint(r.closest, true); ok {
			lines = append(lines, contact(p))
		}
	}
	for _, s := range r.touch.Active() {
		if p, ok := r.touchPoint(s); ok {
			lines = append(lines, contact(p))
		}
	}
	return lines
}
