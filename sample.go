package wisp

import "sort"

// SampleID identifies an input source across frames. The same physical hand,
// ray or tip keeps its ID for as long as the service tracks it.
type SampleID uint64

// Datamap keys published by the service.
const (
	KeySelect           = "select"
	KeyMiddle           = "middle"
	KeyContext          = "context"
	KeyGrab             = "grab"
	KeyPinchStrength    = "pinch_strength"
	KeyScrollContinuous = "scroll_continuous"
	KeyScrollDiscrete   = "scroll_discrete"
	KeyScroll           = "scroll"
)

// --- Pose payloads ---

// RayPose is the payload of a KindRay sample.
type RayPose struct {
	Origin    Vec3
	Direction Vec3
	// DeepestPoint is where the ray penetrates the target field the most.
	DeepestPoint Vec3
}

// Dir returns the normalized ray direction, or -Z when the direction is zero.
func (r *RayPose) Dir() Vec3 {
	if r.Direction.Len() == 0 {
		return Vec3{0, 0, -1}
	}
	return r.Direction.Normalize()
}

// At returns the point at distance d along the ray.
func (r *RayPose) At(d float64) Vec3 {
	return r.Origin.Add(r.Dir().Mul(d))
}

// HandPose is the payload of a KindHand sample. Only fingertip positions and
// the service's pinch estimates are carried.
type HandPose struct {
	Right  bool
	Thumb  Vec3
	Index  Vec3
	Middle Vec3
	Ring   Vec3
	Little Vec3

	// Stable and predicted pinch points. When both are zero the midpoint
	// of thumb and index is used instead.
	StablePinch    Vec3
	PredictedPinch Vec3
}

// PinchMidpoint returns the midpoint of the thumb and index tips.
func (h *HandPose) PinchMidpoint() Vec3 {
	return h.Thumb.Add(h.Index).Mul(0.5)
}

// PinchPoint returns the stable or predicted pinch position.
func (h *HandPose) PinchPoint(stable bool) Vec3 {
	p := h.PredictedPinch
	if stable {
		p = h.StablePinch
	}
	if p == (Vec3{}) {
		return h.PinchMidpoint()
	}
	return p
}

// PinchDistance returns the distance between the thumb tip and fingertip.
func (h *HandPose) PinchDistance(finger Vec3) float64 {
	return h.Thumb.Sub(finger).Len()
}

// TipPose is the payload of a KindTip sample.
type TipPose struct {
	Origin Vec3
}

// --- Datamap ---

// Datamap is the read-only auxiliary value map carried by a sample. Scalar
// and 2D vector values are stored separately; a missing key reads as the
// caller's default.
type Datamap struct {
	floats  map[string]float64
	vectors map[string]Vec2
}

// NewDatamap copies floats and vectors into a new Datamap. Either may be nil.
func NewDatamap(floats map[string]float64, vectors map[string]Vec2) Datamap {
	d := Datamap{}
	if len(floats) > 0 {
		d.floats = make(map[string]float64, len(floats))
		for k, v := range floats {
			d.floats[k] = v
		}
	}
	if len(vectors) > 0 {
		d.vectors = make(map[string]Vec2, len(vectors))
		for k, v := range vectors {
			d.vectors[k] = v
		}
	}
	return d
}

// Float returns the scalar stored under key, or def.
func (d Datamap) Float(key string, def float64) float64 {
	if v, ok := d.floats[key]; ok {
		return v
	}
	return def
}

// Vec2 returns the vector stored under key, or the zero vector.
func (d Datamap) Vec2(key string) Vec2 {
	return d.vectors[key]
}

// HasVec2 reports whether a vector is stored under key.
func (d Datamap) HasVec2(key string) bool {
	_, ok := d.vectors[key]
	return ok
}

// Above reports whether the scalar under key exceeds threshold. Missing keys
// read as zero.
func (d Datamap) Above(key string, threshold float64) bool {
	return d.Float(key, 0) > threshold
}

// Keys returns all keys in sorted order.
func (d Datamap) Keys() []string {
	keys := make([]string, 0, len(d.floats)+len(d.vectors))
	for k := range d.floats {
		keys = append(keys, k)
	}
	for k := range d.vectors {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Select returns the primary trigger value.
func (d Datamap) Select() float64 { return d.Float(KeySelect, 0) }

// Middle returns the middle button value.
func (d Datamap) Middle() float64 { return d.Float(KeyMiddle, 0) }

// Context returns the context (secondary) button value.
func (d Datamap) Context() float64 { return d.Float(KeyContext, 0) }

// Grab returns the grip strength.
func (d Datamap) Grab() float64 { return d.Float(KeyGrab, 0) }

// PinchStrength returns the hand's pinch strength estimate.
func (d Datamap) PinchStrength() float64 { return d.Float(KeyPinchStrength, 0) }

// ScrollContinuous returns the smooth scroll delta for this frame.
func (d Datamap) ScrollContinuous() Vec2 { return d.Vec2(KeyScrollContinuous) }

// ScrollDiscrete returns the notched scroll delta for this frame.
func (d Datamap) ScrollDiscrete() Vec2 { return d.Vec2(KeyScrollDiscrete) }

// Scroll returns the thumbstick-style scroll rate in units per second.
func (d Datamap) Scroll() Vec2 { return d.Vec2(KeyScroll) }

// --- InputSample ---

// InputSample is one tracked input candidate for the current frame. Samples
// are produced fresh every frame and never mutated afterwards. Exactly one of
// Ray, Hand or Tip is set, matching Kind.
type InputSample struct {
	ID       SampleID
	Kind     InputKind
	Distance float64 // signed distance to the handler's field; negative is inside
	Ray      *RayPose
	Hand     *HandPose
	Tip      *TipPose
	Data     Datamap
	Captured bool // the service granted this handler exclusive use of the sample
}

// Point returns the representative position of the sample: the ray origin,
// the pinch midpoint or the tip origin.
func (s *InputSample) Point() Vec3 {
	switch s.Kind {
	case KindRay:
		if s.Ray != nil {
			return s.Ray.Origin
		}
	case KindHand:
		if s.Hand != nil {
			return s.Hand.PinchMidpoint()
		}
	case KindTip:
		if s.Tip != nil {
			return s.Tip.Origin
		}
	}
	return Vec3{}
}

// NewRaySample builds a KindRay sample.
func NewRaySample(id SampleID, origin, direction Vec3, data Datamap) *InputSample {
	return &InputSample{
		ID:   id,
		Kind: KindRay,
		Ray:  &RayPose{Origin: origin, Direction: direction, DeepestPoint: origin},
		Data: data,
	}
}

// NewHandSample builds a KindHand sample.
func NewHandSample(id SampleID, hand HandPose, data Datamap) *InputSample {
	return &InputSample{ID: id, Kind: KindHand, Hand: &hand, Data: data}
}

// NewTipSample builds a KindTip sample.
func NewTipSample(id SampleID, origin Vec3, data Datamap) *InputSample {
	return &InputSample{ID: id, Kind: KindTip, Tip: &TipPose{Origin: origin}, Data: data}
}

// findSample returns the sample with id in batch, or nil.
func findSample(batch []*InputSample, id SampleID) *InputSample {
	for _, s := range batch {
		if s.ID == id {
			return s
		}
	}
	return nil
}
