package wisp

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
)

// node is one entry of a Scene's spatial tree. Fields and input handlers are
// nodes too; they carry a shape or a handler record respectively.
type node struct {
	id   NodeID
	name string

	parent   *node
	children []*node

	local          Transform
	world          mgl64.Mat4
	transformDirty bool

	enabled  bool
	zoneable bool
	colors   map[string]Color

	field   *fieldState
	handler *handlerState

	disposed bool
}

func newNode(id NodeID, name string, t Transform) *node {
	n := &node{
		id:             id,
		name:           name,
		local:          t.merge(Identity()),
		transformDirty: true,
		enabled:        true,
	}
	return n
}

// --- Tree manipulation ---

// addChild appends child to n's children, detaching it from any previous
// parent. Panics if child is an ancestor of n.
func (n *node) addChild(child *node) {
	if child == nil {
		panic("wisp: cannot add nil child")
	}
	if globalDebug {
		debugCheckDisposed(n, "addChild (parent)")
		debugCheckDisposed(child, "addChild (child)")
	}
	if isAncestor(child, n) {
		panic("wisp: adding child would create a cycle")
	}
	if child.parent != nil {
		child.parent.removeChildByPtr(child)
	}
	child.parent = n
	n.children = append(n.children, child)
	markSubtreeDirty(child)
	if globalDebug {
		debugCheckTreeDepth(child)
	}
}

// reparent moves n under parent. With inPlace set the world pose is kept by
// rewriting the local transform.
func (n *node) reparent(parent *node, inPlace bool) {
	world := n.worldMatrix()
	parent.addChild(n)
	if inPlace {
		n.local = decompose(parent.worldMatrix().Inv().Mul4(world))
		markSubtreeDirty(n)
	}
}

// dispose detaches n and marks it and its descendants disposed. The caller
// collects the returned IDs to drop them from lookup tables.
func (n *node) dispose(out []NodeID) []NodeID {
	if n.parent != nil {
		n.parent.removeChildByPtr(n)
		n.parent = nil
	}
	return n.disposeTree(out)
}

func (n *node) disposeTree(out []NodeID) []NodeID {
	n.disposed = true
	out = append(out, n.id)
	for _, child := range n.children {
		child.parent = nil
		out = child.disposeTree(out)
	}
	n.children = nil
	n.field = nil
	n.handler = nil
	n.colors = nil
	return out
}

// effectivelyEnabled reports whether n and all its ancestors are enabled.
func (n *node) effectivelyEnabled() bool {
	for p := n; p != nil; p = p.parent {
		if !p.enabled {
			return false
		}
	}
	return true
}

func (n *node) String() string {
	return fmt.Sprintf("%s#%d", n.name, n.id)
}

// --- Helpers ---

// isAncestor reports whether candidate is an ancestor of (or equal to) n.
func isAncestor(candidate, n *node) bool {
	for p := n; p != nil; p = p.parent {
		if p == candidate {
			return true
		}
	}
	return false
}

// removeChildByPtr removes child from n.children without clearing child.parent.
func (n *node) removeChildByPtr(child *node) {
	for i, c := range n.children {
		if c == child {
			copy(n.children[i:], n.children[i+1:])
			n.children[len(n.children)-1] = nil
			n.children = n.children[:len(n.children)-1]
			return
		}
	}
}

// markSubtreeDirty sets transformDirty on n and all its descendants.
func markSubtreeDirty(n *node) {
	n.transformDirty = true
	for _, child := range n.children {
		markSubtreeDirty(child)
	}
}
