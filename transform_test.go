package wisp

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func assertVec(t *testing.T, name string, got, want Vec3) {
	t.Helper()
	if !vecApprox(got, want, 1e-6) {
		t.Errorf("%s = %v, want %v", name, got, want)
	}
}

func assertQuat(t *testing.T, name string, got, want Quat) {
	t.Helper()
	// q and -q are the same rotation.
	if !got.ApproxEqualThreshold(want, 1e-6) && !got.ApproxEqualThreshold(want.Scale(-1), 1e-6) {
		t.Errorf("%s = %v, want %v", name, got, want)
	}
}

// --- Transform ---

func TestTransformDefaults(t *testing.T) {
	var tr Transform
	assertVec(t, "Position", tr.Position(), Vec3{})
	assertVec(t, "Scaling", tr.Scaling(), Vec3{1, 1, 1})
	assertQuat(t, "Orientation", tr.Orientation(), mgl64.QuatIdent())
}

func TestTransformMerge(t *testing.T) {
	base := FromTranslationRotation(Vec3{1, 2, 3}, mgl64.QuatRotate(1, AxisY))
	got := FromTranslation(Vec3{4, 5, 6}).merge(base)
	assertVec(t, "translation", got.Position(), Vec3{4, 5, 6})
	assertQuat(t, "rotation kept", got.Orientation(), mgl64.QuatRotate(1, AxisY))
}

func TestDecomposeRoundTrip(t *testing.T) {
	p := Vec3{0.5, -1, 2}
	q := mgl64.QuatRotate(0.7, Vec3{1, 1, 0}.Normalize())
	s := Vec3{2, 0.5, 1}
	m := Transform{Translation: &p, Rotation: &q, Scale: &s}.Mat4()
	got := decompose(m)
	assertVec(t, "translation", got.Position(), p)
	assertVec(t, "scale", got.Scaling(), s)
	assertQuat(t, "rotation", got.Orientation(), q)
}

func TestDecomposeZeroScaleFallsBackToIdentity(t *testing.T) {
	s := Vec3{0, 1, 1}
	got := decompose(Transform{Scale: &s}.Mat4())
	assertQuat(t, "rotation", got.Orientation(), mgl64.QuatIdent())
}

// --- World transforms ---

func TestWorldMatrixChain(t *testing.T) {
	root := newNode(1, "root", FromTranslation(Vec3{0, 1, 0}))
	child := newNode(2, "child", FromTranslationRotation(Vec3{1, 0, 0}, mgl64.QuatRotate(math.Pi/2, AxisY)))
	leaf := newNode(3, "leaf", FromTranslation(Vec3{0, 0, -1}))
	root.addChild(child)
	child.addChild(leaf)

	// Rotating +90 about Y maps -Z onto -X.
	got := transformPoint(leaf.worldMatrix(), Vec3{})
	assertVec(t, "leaf world", got, Vec3{0, 1, 0})
}

func TestWorldMatrixRecomputesAfterDirty(t *testing.T) {
	root := newNode(1, "root", Identity())
	child := newNode(2, "child", FromTranslation(Vec3{1, 0, 0}))
	root.addChild(child)
	_ = child.worldMatrix()

	root.local = FromTranslation(Vec3{0, 0, 5}).merge(root.local)
	markSubtreeDirty(root)
	assertVec(t, "child world", transformPoint(child.worldMatrix(), Vec3{}), Vec3{1, 0, 5})
}

func TestSetRelativeKeepsUnsetComponents(t *testing.T) {
	root := newNode(1, "root", Identity())
	parent := newNode(2, "parent", FromTranslation(Vec3{0, 2, 0}))
	n := newNode(3, "n", FromTranslationRotation(Vec3{1, 0, 0}, mgl64.QuatRotate(0.3, AxisY)))
	root.addChild(parent)
	parent.addChild(n)

	n.setRelative(root, FromTranslation(Vec3{5, 5, 5}))
	assertVec(t, "world position", transformPoint(n.worldMatrix(), Vec3{}), Vec3{5, 5, 5})
	assertVec(t, "local position", n.local.Position(), Vec3{5, 3, 5})
	assertQuat(t, "rotation", n.local.Orientation(), mgl64.QuatRotate(0.3, AxisY))
}

func TestRelativeMatrix(t *testing.T) {
	root := newNode(1, "root", Identity())
	a := newNode(2, "a", FromTranslation(Vec3{1, 0, 0}))
	b := newNode(3, "b", FromTranslationRotation(Vec3{0, 0, 2}, mgl64.QuatRotate(math.Pi, AxisY)))
	root.addChild(a)
	root.addChild(b)

	// a sits one meter along +X; b is turned around so that is -X for b.
	got := transformPoint(a.relativeMatrix(b), Vec3{})
	assertVec(t, "a in b", got, Vec3{-1, 0, 2})
}

// --- LookRotation ---

func TestLookRotation(t *testing.T) {
	tests := []struct {
		name string
		dir  Vec3
	}{
		{"forward", Vec3{0, 0, -1}},
		{"right", Vec3{1, 0, 0}},
		{"behind", Vec3{0, 0, 1}},
		{"up and left", Vec3{-1, 1, 0}},
		{"down and forward", Vec3{0, -0.5, -1}},
	}
	for _, tt := range tests {
		q := LookRotation(tt.dir)
		assertVec(t, tt.name+" forward", q.Rotate(Vec3{0, 0, -1}), tt.dir.Normalize())
		if up := q.Rotate(AxisY); up.Y() < -1e-9 {
			t.Errorf("%s: rotated up %v points down", tt.name, up)
		}
		if side := q.Rotate(AxisX); math.Abs(side.Y()) > 1e-9 {
			t.Errorf("%s: rotated right %v is not level", tt.name, side)
		}
	}
}

func TestLookRotationZeroIsIdentity(t *testing.T) {
	assertQuat(t, "zero", LookRotation(Vec3{}), mgl64.QuatIdent())
}
