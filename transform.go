package wisp

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Transform is a partial pose. Nil components are left untouched when the
// transform is applied to a node and read as identity when composed.
type Transform struct {
	Translation *Vec3
	Rotation    *Quat
	Scale       *Vec3
}

// Identity returns a transform with every component set to identity.
func Identity() Transform {
	p, q, s := Vec3{}, mgl64.QuatIdent(), Vec3{1, 1, 1}
	return Transform{Translation: &p, Rotation: &q, Scale: &s}
}

// FromTranslation returns a transform that only sets the translation.
func FromTranslation(p Vec3) Transform {
	return Transform{Translation: &p}
}

// FromRotation returns a transform that only sets the rotation.
func FromRotation(q Quat) Transform {
	return Transform{Rotation: &q}
}

// FromTranslationRotation returns a transform that sets translation and rotation.
func FromTranslationRotation(p Vec3, q Quat) Transform {
	return Transform{Translation: &p, Rotation: &q}
}

// Position returns the translation, or the origin when unset.
func (t Transform) Position() Vec3 {
	if t.Translation == nil {
		return Vec3{}
	}
	return *t.Translation
}

// Orientation returns the rotation, or identity when unset.
func (t Transform) Orientation() Quat {
	if t.Rotation == nil {
		return mgl64.QuatIdent()
	}
	return *t.Rotation
}

// Scaling returns the scale, or (1, 1, 1) when unset.
func (t Transform) Scaling() Vec3 {
	if t.Scale == nil {
		return Vec3{1, 1, 1}
	}
	return *t.Scale
}

// Mat4 composes the transform as Translate * Rotate * Scale.
func (t Transform) Mat4() mgl64.Mat4 {
	p, s := t.Position(), t.Scaling()
	return mgl64.Translate3D(p.X(), p.Y(), p.Z()).
		Mul4(t.Orientation().Normalize().Mat4()).
		Mul4(mgl64.Scale3D(s.X(), s.Y(), s.Z()))
}

// merge returns base with every component set in t overriding it.
func (t Transform) merge(base Transform) Transform {
	out := Transform{Translation: base.Translation, Rotation: base.Rotation, Scale: base.Scale}
	if t.Translation != nil {
		out.Translation = t.Translation
	}
	if t.Rotation != nil {
		out.Rotation = t.Rotation
	}
	if t.Scale != nil {
		out.Scale = t.Scale
	}
	return out
}

// decompose splits an affine matrix without shear into translation, rotation
// and scale. The result has every component set.
func decompose(m mgl64.Mat4) Transform {
	p := m.Col(3).Vec3()
	c0, c1, c2 := m.Col(0).Vec3(), m.Col(1).Vec3(), m.Col(2).Vec3()
	s := Vec3{c0.Len(), c1.Len(), c2.Len()}
	if m.Mat3().Det() < 0 {
		s[0] = -s[0]
	}
	var r mgl64.Mat4
	if s.X() != 0 && s.Y() != 0 && s.Z() != 0 {
		r = mgl64.Mat4FromCols(
			c0.Mul(1/s.X()).Vec4(0),
			c1.Mul(1/s.Y()).Vec4(0),
			c2.Mul(1/s.Z()).Vec4(0),
			mgl64.Vec4{0, 0, 0, 1},
		)
	} else {
		r = mgl64.Ident4()
	}
	q := mgl64.Mat4ToQuat(r).Normalize()
	return Transform{Translation: &p, Rotation: &q, Scale: &s}
}

// transformPoint applies an affine matrix to a point.
func transformPoint(m mgl64.Mat4, p Vec3) Vec3 {
	return m.Mul4x1(p.Vec4(1)).Vec3()
}

// transformDir applies the linear part of an affine matrix to a direction.
func transformDir(m mgl64.Mat4, d Vec3) Vec3 {
	return m.Mul4x1(d.Vec4(0)).Vec3()
}

// --- Node world transforms ---

// localMatrix returns the node's local matrix.
func (n *node) localMatrix() mgl64.Mat4 {
	return n.local.Mat4()
}

// worldMatrix returns the node's cached world matrix, recomputing it and its
// ancestors when dirty.
func (n *node) worldMatrix() mgl64.Mat4 {
	if !n.transformDirty {
		return n.world
	}
	if n.parent == nil {
		n.world = n.localMatrix()
	} else {
		n.world = n.parent.worldMatrix().Mul4(n.localMatrix())
	}
	n.transformDirty = false
	return n.world
}

// relativeMatrix returns the matrix mapping n's local space into other's.
func (n *node) relativeMatrix(other *node) mgl64.Mat4 {
	if other == nil {
		return n.worldMatrix()
	}
	return other.worldMatrix().Inv().Mul4(n.worldMatrix())
}

// setRelative sets n's local transform so its pose relative to other matches
// t. Components not set in t keep their current relative value.
func (n *node) setRelative(other *node, t Transform) {
	current := decompose(n.relativeMatrix(other))
	target := t.merge(current).Mat4()
	world := target
	if other != nil {
		world = other.worldMatrix().Mul4(target)
	}
	local := world
	if n.parent != nil {
		local = n.parent.worldMatrix().Inv().Mul4(world)
	}
	n.local = decompose(local)
	markSubtreeDirty(n)
}

// LookRotation returns the rotation that turns -Z toward direction with +Y as
// up, expressed as yaw about Y followed by pitch about X.
func LookRotation(direction Vec3) Quat {
	if direction.LenSqr() < 1e-12 {
		return mgl64.QuatIdent()
	}
	d := direction.Normalize()
	yaw := math.Atan2(-d.X(), -d.Z())
	pitch := math.Asin(mgl64.Clamp(d.Y(), -1, 1))
	return mgl64.QuatRotate(yaw, AxisY).Mul(mgl64.QuatRotate(pitch, AxisX))
}
