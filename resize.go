package wisp

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"
)

// ResizeSolution is the pose and size of a rectangle reconstructed from its
// two corner handles.
type ResizeSolution struct {
	Center   Vec3
	Rotation Quat
	Size     Vec2
}

// SolveResize reconstructs a rectangle from two diagonally opposite corner
// positions so that it faces the viewer. All positions share one frame.
//
// The rectangle is first turned about +Y toward the viewer, then pitched
// about its local X so the corners lie in its plane. Width is the corners'
// horizontal separation in that frame and height their separation in the
// vertical plane, each less twice the handle margin, clamped per component
// to [minSize, maxSize].
func SolveResize(corner1, corner2, viewer Vec3, margin float64, minSize, maxSize Vec2) ResizeSolution {
	center := corner1.Add(corner2).Mul(0.5)

	rel := center.Sub(viewer)
	yAngle := math.Atan2(rel.Z(), rel.X()) + math.Pi/2
	yaw := mgl64.QuatRotate(yAngle, AxisY)

	d := yaw.Rotate(corner1.Sub(corner2))
	xAngle := math.Atan2(d.Y(), d.Z()) + math.Pi/2
	pitch := mgl64.QuatRotate(xAngle, AxisX)

	size := Vec2{
		math.Abs(d.X()) - 2*margin,
		math.Hypot(d.Z(), d.Y()) - 2*margin,
	}
	for i := range size {
		size[i] = math.Min(math.Max(size[i], minSize[i]), maxSize[i])
	}

	return ResizeSolution{
		Center:   center,
		Rotation: yaw.Inverse().Mul(pitch.Inverse()).Normalize(),
		Size:     size,
	}
}

// HandleOffset returns the top handle's position relative to the rectangle
// center for a given size. The bottom handle sits at the negation.
func HandleOffset(size Vec2, margin float64) Vec3 {
	return Vec3{size.X()/2 + margin, size.Y()/2 + margin, 0}
}

// --- Pair ---

// ResizeOptions configures a ResizePair.
type ResizeOptions struct {
	// Parent is where the content frame is created. Zero means the root.
	Parent NodeID
	// Transform is the content frame's initial pose relative to Parent.
	Transform Transform
	Size      Vec2
	Zoneable  bool
	// AccentColor tints a handle while grabbed.
	AccentColor Color
	// OnSizeChanged runs inside Update whenever the solved size changes.
	OnSizeChanged func(Vec2)
	// Config overrides Resources.Config.Resize when non-zero.
	Config *ResizeConfig
}

// ResizePair lets the user reshape a rectangle by dragging two opposite
// corner handles. Both handles live under a content frame. Once a corner is
// grabbed the pair enters free-drag mode: the handles move to the root, the
// content frame stops being zoneable, and every frame the frame is re-posed
// and the size recomputed from the corners. Free drag ends when a corner is
// released with the other idle.
type ResizePair struct {
	svc    Service
	cfg    ResizeConfig
	logger *zap.Logger

	content NodeID
	top     *GrabManipulator
	bottom  *GrabManipulator

	zoneable      bool
	freeDrag      bool
	size          *Watch[Vec2]
	sizeSeen      *WatchReceiver[Vec2]
	onSizeChanged func(Vec2)

	limitMu sync.Mutex
	minSize Vec2
	maxSize Vec2

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	genMu   sync.Mutex
	gen     uint64
	applied uint64

	closed bool
}

// NewResizePair creates the content frame and both corner handles and places
// the handles for opts.Size.
func NewResizePair(res *Resources, opts ResizeOptions) (*ResizePair, error) {
	svc := res.Service
	cfg := res.Config.Resize
	if opts.Config != nil {
		cfg = *opts.Config
	}
	if opts.Parent == 0 {
		opts.Parent = svc.Root()
	}
	if opts.AccentColor == (Color{}) {
		opts.AccentColor = HandleGrabColor
	}
	if opts.Transform == (Transform{}) {
		opts.Transform = Identity()
	}

	content, err := svc.CreateNode(opts.Parent, opts.Transform)
	if err != nil {
		return nil, fmt.Errorf("create resize content frame: %w", err)
	}
	if err := svc.SetZoneable(content, opts.Zoneable); err != nil {
		_ = svc.DestroyNode(content)
		return nil, fmt.Errorf("set content frame zoneable: %w", err)
	}

	handle := func() (*GrabManipulator, error) {
		return NewGrabManipulator(res, GrabOptions{
			Anchor:    res.HandleAnchor,
			Parent:    content,
			Config:    cfg.Handle,
			GrabColor: opts.AccentColor,
		})
	}
	bottom, err := handle()
	if err != nil {
		_ = svc.DestroyNode(content)
		return nil, fmt.Errorf("create bottom resize handle: %w", err)
	}
	top, err := handle()
	if err != nil {
		_ = bottom.Close()
		_ = svc.DestroyNode(content)
		return nil, fmt.Errorf("create top resize handle: %w", err)
	}

	size := NewWatch(opts.Size)
	ctx, cancel := context.WithCancel(context.Background())
	r := &ResizePair{
		svc:           svc,
		cfg:           cfg,
		logger:        res.Named("resize"),
		content:       content,
		top:           top,
		bottom:        bottom,
		zoneable:      opts.Zoneable,
		size:          size,
		sizeSeen:      size.Subscribe(),
		onSizeChanged: opts.OnSizeChanged,
		minSize:       cfg.MinSize,
		maxSize:       cfg.MaxSize,
		ctx:           ctx,
		cancel:        cancel,
	}
	r.SetHandlePositions(opts.Size)

	debugTrackClose(r, "ResizePair", func(r *ResizePair) bool { return r.closed })
	return r, nil
}

// Update processes both handles for this frame, switches free-drag mode and
// starts a solve while a corner is held.
func (r *ResizePair) Update(frame FrameInfo) {
	if r.closed {
		return
	}
	r.bottom.Update(frame)
	r.top.Update(frame)
	ta, ba := r.top.Action(), r.bottom.Action()

	if !r.freeDrag && (ta.Started() || ba.Started()) {
		r.setFreeDrag(true)
	}
	if ta.Acting() || ba.Acting() {
		r.solve()
	}
	if r.freeDrag && (ta.Stopped() || ba.Stopped()) && !ta.Acting() && !ba.Acting() {
		r.setFreeDrag(false)
	}

	if size, changed := r.sizeSeen.Changed(); changed {
		if r.onSizeChanged != nil {
			r.onSizeChanged(size)
		}
		if !r.freeDrag {
			r.SetHandlePositions(size)
		}
	}
}

// setFreeDrag moves both handles between the root and the content frame,
// keeping their world poses, and toggles the content frame's zoneable flag.
func (r *ResizePair) setFreeDrag(on bool) {
	parent := r.content
	if on {
		parent = r.svc.Root()
	}
	for _, h := range []*GrabManipulator{r.top, r.bottom} {
		if err := r.svc.SetParent(h.Head(), parent, true); err != nil {
			r.logger.Warn("reparent resize handle failed", zap.Bool("free_drag", on), zap.Error(err))
		}
	}
	zoneable := r.zoneable && !on
	if err := r.svc.SetZoneable(r.content, zoneable); err != nil {
		r.logger.Warn("set content zoneable failed", zap.Error(err))
	}
	r.freeDrag = on
	if !on {
		r.SetHandlePositions(r.size.Get())
	}
}

// solve reads the corner and viewer positions in the background and applies
// the solution unless a newer solve already applied.
func (r *ResizePair) solve() {
	r.genMu.Lock()
	r.gen++
	gen := r.gen
	r.genMu.Unlock()

	r.limitMu.Lock()
	minSize, maxSize := r.minSize, r.maxSize
	r.limitMu.Unlock()

	root := r.svc.Root()
	corner1, corner2, viewer := r.bottom.Head(), r.top.Head(), r.svc.Viewer()

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		pos := func(id NodeID) (Vec3, error) {
			t, err := r.svc.Transform(r.ctx, id, root)
			return t.Position(), err
		}
		v, err1 := pos(viewer)
		c1, err2 := pos(corner1)
		c2, err3 := pos(corner2)
		if err := errors.Join(err1, err2, err3); err != nil {
			if r.ctx.Err() == nil {
				r.logger.Warn("read resize corners failed", zap.Error(err))
			}
			return
		}
		sol := SolveResize(c1, c2, v, r.cfg.Margin, minSize, maxSize)

		r.genMu.Lock()
		defer r.genMu.Unlock()
		if gen <= r.applied || r.ctx.Err() != nil {
			return
		}
		r.applied = gen
		if err := r.svc.SetTransform(r.content, root, FromTranslationRotation(sol.Center, sol.Rotation)); err != nil {
			r.logger.Warn("pose content frame failed", zap.Error(err))
		}
		r.size.Send(sol.Size)
	}()
}

// SetHandlePositions places both handles at ±(size/2 + margin) from the
// content frame's center. Ignored while either handle is grabbed.
func (r *ResizePair) SetHandlePositions(size Vec2) {
	if r.top.Action().Acting() || r.bottom.Action().Acting() {
		return
	}
	offset := HandleOffset(size, r.cfg.Margin)
	r.top.SetPosition(r.content, offset)
	r.bottom.SetPosition(r.content, offset.Mul(-1))
}

// SetSize reacts to a size change from outside, such as the window resizing
// itself, by moving the handles. The published size is left untouched.
func (r *ResizePair) SetSize(size Vec2) {
	r.SetHandlePositions(size)
}

// SetSizeLimits changes the clamp applied to solved sizes.
func (r *ResizePair) SetSizeLimits(minSize, maxSize Vec2) {
	r.limitMu.Lock()
	defer r.limitMu.Unlock()
	r.minSize, r.maxSize = minSize, maxSize
}

// Size returns the watch the solved size is published on. Consumers call
// Subscribe on it to follow changes.
func (r *ResizePair) Size() *Watch[Vec2] { return r.size }

// Content returns the content frame node.
func (r *ResizePair) Content() NodeID { return r.content }

// Top returns the top corner handle.
func (r *ResizePair) Top() *GrabManipulator { return r.top }

// Bottom returns the bottom corner handle.
func (r *ResizePair) Bottom() *GrabManipulator { return r.bottom }

// FreeDrag reports whether the handles are currently detached from the
// content frame.
func (r *ResizePair) FreeDrag() bool { return r.freeDrag }

// Wait blocks until every in-flight solve has finished.
func (r *ResizePair) Wait() { r.wg.Wait() }

// SetEnabled shows or hides both handles. Disabling during free drag
// returns the handles to the content frame.
func (r *ResizePair) SetEnabled(enabled bool) error {
	if r.closed {
		return ErrClosed
	}
	err := errors.Join(r.top.SetEnabled(enabled), r.bottom.SetEnabled(enabled))
	if !enabled && r.freeDrag {
		r.setFreeDrag(false)
	}
	return err
}

// Close stops pending solves and destroys the handles and the content frame.
func (r *ResizePair) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	r.cancel()
	r.wg.Wait()
	return errors.Join(
		r.top.Close(),
		r.bottom.Close(),
		r.svc.DestroyNode(r.content),
	)
}
