package wisp

import (
	"context"
	"fmt"
	"math"
	"slices"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"
)

// handlerState is the input handler record attached to a handler node.
type handlerState struct {
	id      HandlerID
	field   FieldID
	enabled bool
	batch   []*InputSample
}

// Scene is an in-process spatial node service. It owns a node tree rooted at
// Root, a Viewer node standing in for the user's head, fields backed by signed
// distance functions and input handlers that receive world-space samples
// transformed into their own space each frame.
//
// Scene is safe for concurrent use: manipulators read transforms and query
// distances from background goroutines while the frame loop writes.
type Scene struct {
	mu sync.Mutex

	logger *zap.Logger
	nextID uint32

	root   *node
	viewer *node
	nodes  map[NodeID]*node

	fields   map[FieldID]*node
	handlers map[HandlerID]*node
	order    []HandlerID // creation order, for deterministic batches

	raw      []*InputSample // world-space samples for the next Update
	captured map[SampleID]HandlerID
	requests map[SampleID]HandlerID

	injectQueue [][]*InputSample
	testRunner  *TestRunner

	queryLatency time.Duration
	frame        FrameInfo

	acceptors map[string]*SceneAcceptor
	captures  []CaptureRecord
}

// NewScene creates a scene with a root node and a viewer one meter and sixty
// centimeters above it.
func NewScene() *Scene {
	s := &Scene{
		logger:    zap.NewNop(),
		nodes:     make(map[NodeID]*node),
		fields:    make(map[FieldID]*node),
		handlers:  make(map[HandlerID]*node),
		captured:  make(map[SampleID]HandlerID),
		requests:  make(map[SampleID]HandlerID),
		acceptors: make(map[string]*SceneAcceptor),
	}
	s.root = s.newNodeLocked("root", nil, Identity())
	s.viewer = s.newNodeLocked("viewer", s.root, FromTranslation(Vec3{0, 1.6, 0}))
	return s
}

// SetLogger sets the logger used for per-frame diagnostics.
func (s *Scene) SetLogger(logger *zap.Logger) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if logger == nil {
		logger = zap.NewNop()
	}
	s.logger = logger.Named("scene")
}

// SetQueryLatency delays every Transform and FieldDistance call by d,
// emulating a round trip to a remote compositor.
func (s *Scene) SetQueryLatency(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queryLatency = d
}

// Frame returns the timing of the last Update.
func (s *Scene) Frame() FrameInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frame
}

// --- Nodes ---

func (s *Scene) newNodeLocked(name string, parent *node, t Transform) *node {
	s.nextID++
	n := newNode(NodeID(s.nextID), name, t)
	s.nodes[n.id] = n
	if parent != nil {
		parent.addChild(n)
	}
	return n
}

func (s *Scene) lookup(id NodeID) (*node, error) {
	n, ok := s.nodes[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownNode, id)
	}
	return n, nil
}

// relativeTo resolves the reference node for a transform call. Zero means
// the node's own parent.
func (s *Scene) relativeTo(n *node, id NodeID) (*node, error) {
	if id == 0 {
		return n.parent, nil
	}
	return s.lookup(id)
}

// Root returns the world root node.
func (s *Scene) Root() NodeID { return s.root.id }

// Viewer returns the head node.
func (s *Scene) Viewer() NodeID { return s.viewer.id }

// SetViewerPose moves the head node relative to the root.
func (s *Scene) SetViewerPose(position Vec3, rotation Quat) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.viewer.setRelative(s.root, FromTranslationRotation(position, rotation))
}

// CreateNode creates an unnamed node under parent.
func (s *Scene) CreateNode(parent NodeID, t Transform) (NodeID, error) {
	return s.CreateNamedNode("node", parent, t)
}

// CreateNamedNode creates a node under parent with a name used in debug output.
func (s *Scene) CreateNamedNode(name string, parent NodeID, t Transform) (NodeID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, err := s.lookup(parent)
	if err != nil {
		return 0, fmt.Errorf("create node %q: %w", name, err)
	}
	return s.newNodeLocked(name, p, t).id, nil
}

// DestroyNode removes id and its whole subtree, including fields and
// handlers attached below it.
func (s *Scene) DestroyNode(id NodeID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.lookup(id)
	if err != nil {
		return err
	}
	if n == s.root || n == s.viewer {
		return fmt.Errorf("destroy node %d: cannot destroy %s", id, n.name)
	}
	s.destroyLocked(n)
	return nil
}

func (s *Scene) destroyLocked(n *node) {
	for _, d := range n.dispose(nil) {
		dn := s.nodes[d]
		delete(s.nodes, d)
		for fid, fn := range s.fields {
			if fn == dn {
				delete(s.fields, fid)
			}
		}
		for hid, hn := range s.handlers {
			if hn == dn {
				s.dropHandlerLocked(hid)
			}
		}
	}
}

// SetTransform sets id's pose relative to relativeTo (zero for its parent).
func (s *Scene) SetTransform(id, relativeTo NodeID, t Transform) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.lookup(id)
	if err != nil {
		return err
	}
	other, err := s.relativeTo(n, relativeTo)
	if err != nil {
		return err
	}
	n.setRelative(other, t)
	return nil
}

// Transform reads id's pose relative to relativeTo (zero for its parent).
func (s *Scene) Transform(ctx context.Context, id, relativeTo NodeID) (Transform, error) {
	if err := s.wait(ctx); err != nil {
		return Transform{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.lookup(id)
	if err != nil {
		return Transform{}, err
	}
	other, err := s.relativeTo(n, relativeTo)
	if err != nil {
		return Transform{}, err
	}
	return decompose(n.relativeMatrix(other)), nil
}

// wait sleeps for the configured query latency or until ctx is done.
func (s *Scene) wait(ctx context.Context) error {
	s.mu.Lock()
	d := s.queryLatency
	s.mu.Unlock()
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// SetParent reparents id under parent.
func (s *Scene) SetParent(id, parent NodeID, inPlace bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.lookup(id)
	if err != nil {
		return err
	}
	p, err := s.lookup(parent)
	if err != nil {
		return err
	}
	if isAncestor(n, p) {
		return fmt.Errorf("reparent %s under %s: would create a cycle", n, p)
	}
	n.reparent(p, inPlace)
	return nil
}

// Parent returns id's parent node, or zero for the root.
func (s *Scene) Parent(id NodeID) (NodeID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.lookup(id)
	if err != nil {
		return 0, err
	}
	if n.parent == nil {
		return 0, nil
	}
	return n.parent.id, nil
}

// SetEnabled shows or hides id. Disabled handlers and handlers under disabled
// nodes receive no samples.
func (s *Scene) SetEnabled(id NodeID, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.lookup(id)
	if err != nil {
		return err
	}
	n.enabled = enabled
	return nil
}

// Enabled reports whether id and all its ancestors are enabled.
func (s *Scene) Enabled(id NodeID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.nodes[id]
	return ok && n.effectivelyEnabled()
}

// SetZoneable marks whether zones may capture id.
func (s *Scene) SetZoneable(id NodeID, zoneable bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.lookup(id)
	if err != nil {
		return err
	}
	n.zoneable = zoneable
	return nil
}

// Zoneable reports the zoneable flag of id.
func (s *Scene) Zoneable(id NodeID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.nodes[id]
	return ok && n.zoneable
}

// SetMaterialColor stores a color parameter on id.
func (s *Scene) SetMaterialColor(id NodeID, param string, c Color) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.lookup(id)
	if err != nil {
		return err
	}
	if n.colors == nil {
		n.colors = make(map[string]Color)
	}
	n.colors[param] = c
	return nil
}

// MaterialColor returns a color parameter previously set on id.
func (s *Scene) MaterialColor(id NodeID, param string) (Color, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.nodes[id]
	if !ok {
		return Color{}, false
	}
	c, ok := n.colors[param]
	return c, ok
}

// WorldPosition returns id's position relative to the root without latency.
func (s *Scene) WorldPosition(id NodeID) (Vec3, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.lookup(id)
	if err != nil {
		return Vec3{}, err
	}
	return n.relativeMatrix(s.root).Col(3).Vec3(), nil
}

// --- Fields ---

// CreateField attaches a new field node under parent.
func (s *Scene) CreateField(parent NodeID, t Transform, shape Shape) (FieldID, error) {
	st, err := newFieldState(shape)
	if err != nil {
		return 0, fmt.Errorf("create field: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, err := s.lookup(parent)
	if err != nil {
		return 0, fmt.Errorf("create field: %w", err)
	}
	n := s.newNodeLocked("field", p, t)
	n.field = st
	id := FieldID(n.id)
	s.fields[id] = n
	return id, nil
}

func (s *Scene) lookupField(id FieldID) (*node, error) {
	n, ok := s.fields[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownField, id)
	}
	return n, nil
}

// DestroyField removes a field and its node.
func (s *Scene) DestroyField(id FieldID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.lookupField(id)
	if err != nil {
		return err
	}
	s.destroyLocked(n)
	return nil
}

// SetFieldShape replaces a field's geometry.
func (s *Scene) SetFieldShape(id FieldID, shape Shape) error {
	st, err := newFieldState(shape)
	if err != nil {
		return fmt.Errorf("set field shape: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.lookupField(id)
	if err != nil {
		return err
	}
	n.field = st
	return nil
}

// FieldNode returns the node backing a field.
func (s *Scene) FieldNode(id FieldID) (NodeID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.lookupField(id)
	if err != nil {
		return 0, err
	}
	return n.id, nil
}

// FieldDistance returns the signed distance from point in from's space to the
// field surface.
func (s *Scene) FieldDistance(ctx context.Context, id FieldID, from NodeID, point Vec3) (float64, error) {
	if err := s.wait(ctx); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	fn, err := s.lookupField(id)
	if err != nil {
		return 0, err
	}
	src, err := s.lookup(from)
	if err != nil {
		return 0, err
	}
	local := transformPoint(src.relativeMatrix(fn), point)
	return fn.field.distance(local), nil
}

// --- Input handlers ---

// CreateInputHandler creates a handler node under parent bound to field.
func (s *Scene) CreateInputHandler(parent NodeID, t Transform, field FieldID) (HandlerID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, err := s.lookup(parent)
	if err != nil {
		return 0, fmt.Errorf("create input handler: %w", err)
	}
	if _, err := s.lookupField(field); err != nil {
		return 0, fmt.Errorf("create input handler: %w", err)
	}
	n := s.newNodeLocked("input", p, t)
	id := HandlerID(n.id)
	n.handler = &handlerState{id: id, field: field, enabled: true}
	s.handlers[id] = n
	s.order = append(s.order, id)
	return id, nil
}

func (s *Scene) lookupHandler(id HandlerID) (*node, error) {
	n, ok := s.handlers[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownHandler, id)
	}
	return n, nil
}

// DestroyInputHandler removes a handler and releases its captures.
func (s *Scene) DestroyInputHandler(id HandlerID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.lookupHandler(id)
	if err != nil {
		return err
	}
	s.destroyLocked(n)
	return nil
}

func (s *Scene) dropHandlerLocked(id HandlerID) {
	delete(s.handlers, id)
	for i, h := range s.order {
		if h == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	for sid, h := range s.captured {
		if h == id {
			delete(s.captured, sid)
		}
	}
	for sid, h := range s.requests {
		if h == id {
			delete(s.requests, sid)
		}
	}
}

// HandlerNode returns the node whose space the handler's samples use.
func (s *Scene) HandlerNode(id HandlerID) (NodeID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.lookupHandler(id)
	if err != nil {
		return 0, err
	}
	return n.id, nil
}

// SetHandlerEnabled stops or resumes sample delivery to a handler.
func (s *Scene) SetHandlerEnabled(id HandlerID, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.lookupHandler(id)
	if err != nil {
		return err
	}
	n.handler.enabled = enabled
	if !enabled {
		n.handler.batch = nil
	}
	return nil
}

// Batch returns the handler's samples for the current frame.
func (s *Scene) Batch(id HandlerID) []*InputSample {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.handlers[id]
	if !ok {
		return nil
	}
	return n.handler.batch
}

// RequestCapture asks for exclusive use of sample. The request is granted on
// the next Update if no other handler holds the sample.
func (s *Scene) RequestCapture(id HandlerID, sample SampleID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.handlers[id]; !ok {
		return
	}
	if _, taken := s.requests[sample]; !taken {
		s.requests[sample] = id
	}
}

// ReleaseCapture gives up exclusive use of sample.
func (s *Scene) ReleaseCapture(id HandlerID, sample SampleID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.captured[sample] == id {
		delete(s.captured, sample)
	}
	if s.requests[sample] == id {
		delete(s.requests, sample)
	}
}

// CapturedBy returns the handler holding sample, if any.
func (s *Scene) CapturedBy(sample SampleID) (HandlerID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.captured[sample]
	return h, ok
}

// --- Snapshot ---

// FieldView is a read-only copy of one field, for drawing.
type FieldView struct {
	Field    FieldID
	Shape    Shape
	World    mgl64.Mat4
	Color    Color // nearest color up the tree, white when unset
	Emission Color // nearest emission up the tree, black when unset
	Enabled  bool
}

// Snapshot returns every field in creation order.
func (s *Scene) Snapshot() []FieldView {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]FieldID, 0, len(s.fields))
	for id := range s.fields {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	out := make([]FieldView, 0, len(ids))
	for _, id := range ids {
		n := s.fields[id]
		out = append(out, FieldView{
			Field:    id,
			Shape:    n.field.shape,
			World:    n.worldMatrix(),
			Color:    inheritedColor(n, ParamColor, ColorWhite),
			Emission: inheritedColor(n, ParamEmission, ColorBlack),
			Enabled:  n.effectivelyEnabled(),
		})
	}
	return out
}

func inheritedColor(n *node, param string, def Color) Color {
	for ; n != nil; n = n.parent {
		if c, ok := n.colors[param]; ok {
			return c
		}
	}
	return def
}

// --- Frame ---

// Feed sets the world-space samples delivered on the next Update.
func (s *Scene) Feed(samples []*InputSample) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.raw = samples
}

// Update advances the scene by one frame: it steps the attached test runner,
// consumes one injected batch if any, resolves capture requests and builds
// every handler's batch.
func (s *Scene) Update(frame FrameInfo) {
	if r := s.runner(); r != nil {
		r.step(s)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.frame = frame
	if len(s.injectQueue) > 0 {
		s.raw = s.injectQueue[0]
		copy(s.injectQueue, s.injectQueue[1:])
		s.injectQueue[len(s.injectQueue)-1] = nil
		s.injectQueue = s.injectQueue[:len(s.injectQueue)-1]
	}

	present := make(map[SampleID]bool, len(s.raw))
	for _, r := range s.raw {
		present[r.ID] = true
	}
	for sid := range s.captured {
		if !present[sid] {
			delete(s.captured, sid)
		}
	}
	for sid, h := range s.requests {
		if _, held := s.captured[sid]; !held && present[sid] {
			s.captured[sid] = h
		}
	}
	clear(s.requests)

	for _, hid := range s.order {
		n := s.handlers[hid]
		hs := n.handler
		hs.batch = hs.batch[:0:0]
		if !hs.enabled || !n.effectivelyEnabled() {
			continue
		}
		fn, ok := s.fields[hs.field]
		if !ok {
			continue
		}
		toLocal := n.worldMatrix().Inv()
		toField := fn.worldMatrix().Inv()
		for _, r := range s.raw {
			owner, held := s.captured[r.ID]
			if held && owner != hid {
				continue
			}
			sample := localizeSample(r, toLocal, toField, fn.field)
			sample.Captured = held
			hs.batch = append(hs.batch, sample)
		}
	}
}

// localizeSample returns a copy of a world-space sample expressed in handler
// space, with its distance measured against field.
func localizeSample(r *InputSample, toLocal, toField mgl64.Mat4, field *fieldState) *InputSample {
	out := &InputSample{ID: r.ID, Kind: r.Kind, Data: r.Data}
	switch r.Kind {
	case KindRay:
		if r.Ray == nil {
			out.Distance = math.Inf(1)
			return out
		}
		d, deepest := field.rayDistance(transformPoint(toField, r.Ray.Origin), transformDir(toField, r.Ray.Dir()))
		deepestWorld := transformPoint(toField.Inv(), deepest)
		out.Distance = d
		out.Ray = &RayPose{
			Origin:       transformPoint(toLocal, r.Ray.Origin),
			Direction:    transformDir(toLocal, r.Ray.Dir()),
			DeepestPoint: transformPoint(toLocal, deepestWorld),
		}
	case KindHand:
		if r.Hand == nil {
			out.Distance = math.Inf(1)
			return out
		}
		h := *r.Hand
		tips := []*Vec3{&h.Thumb, &h.Index, &h.Middle, &h.Ring, &h.Little}
		out.Distance = math.Inf(1)
		for _, p := range tips {
			out.Distance = math.Min(out.Distance, field.distance(transformPoint(toField, *p)))
			*p = transformPoint(toLocal, *p)
		}
		if h.StablePinch != (Vec3{}) {
			h.StablePinch = transformPoint(toLocal, h.StablePinch)
		}
		if h.PredictedPinch != (Vec3{}) {
			h.PredictedPinch = transformPoint(toLocal, h.PredictedPinch)
		}
		out.Hand = &h
	case KindTip:
		if r.Tip == nil {
			out.Distance = math.Inf(1)
			return out
		}
		out.Distance = field.distance(transformPoint(toField, r.Tip.Origin))
		out.Tip = &TipPose{Origin: transformPoint(toLocal, r.Tip.Origin)}
	}
	return out
}
