package wisp

import (
	"context"
	"errors"
)

// Sentinel errors returned by Service implementations.
var (
	ErrUnknownNode    = errors.New("wisp: unknown node")
	ErrUnknownField   = errors.New("wisp: unknown field")
	ErrUnknownHandler = errors.New("wisp: unknown input handler")
	ErrClosed         = errors.New("wisp: closed")
)

// NodeID identifies a spatial node owned by the service. The zero value is
// never a valid node.
type NodeID uint32

// FieldID identifies a geometric field owned by the service.
type FieldID uint32

// HandlerID identifies an input handler owned by the service.
type HandlerID uint32

// ItemID identifies a capturable item, such as a panel, handed to acceptors.
type ItemID string

// ShapeKind selects the geometry of a field.
type ShapeKind uint8

const (
	ShapeBox    ShapeKind = iota // axis-aligned box centered on the field origin
	ShapeSphere                  // sphere centered on the field origin
)

// Shape describes a field's geometry in its local space.
type Shape struct {
	Kind   ShapeKind
	Size   Vec3    // full box extents (ShapeBox)
	Radius float64 // sphere radius (ShapeSphere)
}

// Box returns a box shape with the given full extents.
func Box(size Vec3) Shape { return Shape{Kind: ShapeBox, Size: size} }

// Sphere returns a sphere shape with the given radius.
func Sphere(radius float64) Shape { return Shape{Kind: ShapeSphere, Radius: radius} }

// Nodes manages the spatial node tree.
type Nodes interface {
	// Root returns the world root node.
	Root() NodeID
	// Viewer returns the node tracking the user's head.
	Viewer() NodeID
	CreateNode(parent NodeID, t Transform) (NodeID, error)
	DestroyNode(id NodeID) error
	// SetTransform sets id's pose relative to relativeTo. Only the fields
	// set in t are applied.
	SetTransform(id, relativeTo NodeID, t Transform) error
	// Transform reads id's pose relative to relativeTo. Implementations may
	// block on a round trip; callers keep it off the frame path.
	Transform(ctx context.Context, id, relativeTo NodeID) (Transform, error)
	// SetParent reparents id. With inPlace set the world pose is preserved.
	SetParent(id, parent NodeID, inPlace bool) error
	SetEnabled(id NodeID, enabled bool) error
	// SetZoneable marks whether zones may snap or capture the node.
	SetZoneable(id NodeID, zoneable bool) error
	// SetMaterialColor sets a named color parameter on the node's material.
	SetMaterialColor(id NodeID, param string, c Color) error
}

// Fields manages signed distance fields attached to nodes.
type Fields interface {
	CreateField(parent NodeID, t Transform, shape Shape) (FieldID, error)
	DestroyField(id FieldID) error
	SetFieldShape(id FieldID, shape Shape) error
	// FieldNode returns the node the field is attached to.
	FieldNode(id FieldID) (NodeID, error)
	// FieldDistance returns the signed distance from point, in from's space,
	// to the field surface. Negative values are inside.
	FieldDistance(ctx context.Context, id FieldID, from NodeID, point Vec3) (float64, error)
}

// Inputs manages input handlers and their per-frame batches.
type Inputs interface {
	// CreateInputHandler creates a handler whose samples are expressed in
	// the space of a new node under parent and whose distances are measured
	// to field.
	CreateInputHandler(parent NodeID, t Transform, field FieldID) (HandlerID, error)
	DestroyInputHandler(id HandlerID) error
	// HandlerNode returns the node whose space the handler's samples use.
	HandlerNode(id HandlerID) (NodeID, error)
	// Batch returns the handler's samples for the current frame.
	Batch(id HandlerID) []*InputSample
	RequestCapture(id HandlerID, sample SampleID)
	ReleaseCapture(id HandlerID, sample SampleID)
	SetHandlerEnabled(id HandlerID, enabled bool) error
}

// Service is the spatial node service the manipulators run against.
type Service interface {
	Nodes
	Fields
	Inputs
}

// HandlerSource adapts one input handler of a service to InputSource.
type HandlerSource struct {
	Inputs  Inputs
	Handler HandlerID
}

// Batch returns the handler's current batch.
func (h HandlerSource) Batch() []*InputSample { return h.Inputs.Batch(h.Handler) }

// RequestCapture asks the service for exclusive use of a sample.
func (h HandlerSource) RequestCapture(id SampleID) { h.Inputs.RequestCapture(h.Handler, id) }

// ReleaseCapture gives up exclusive use of a sample.
func (h HandlerSource) ReleaseCapture(id SampleID) { h.Inputs.ReleaseCapture(h.Handler, id) }

// staticSource is an InputSource over a fixed batch with no capture.
type staticSource []*InputSample

func (s staticSource) Batch() []*InputSample { return s }
func (staticSource) RequestCapture(SampleID) {}
func (staticSource) ReleaseCapture(SampleID) {}
