package scene

import (
	"github.com/Faultbox/forekaster/pkg/math"
)

// Node is a transform in the scene graph. Its world transform is derived
// from its ancestors on every query, so a rotation written to a parent is
// visible through all descendants immediately.
type Node struct {
	Name string

	// Position is the translation relative to the parent.
	Position math.Vec3

	// Rotation holds Euler angles in radians, applied in XYZ order.
	Rotation math.Vec3

	parent   *Node
	children []*Node
}

// NewNode creates a detached node.
func NewNode(name string) *Node {
	return &Node{Name: name}
}

// Add attaches child to n, detaching it from any previous parent first.
func (n *Node) Add(child *Node) {
	if child == nil || child == n {
		return
	}
	child.Detach()
	child.parent = n
	n.children = append(n.children, child)
}

// Remove detaches child from n. It reports whether child was attached.
func (n *Node) Remove(child *Node) bool {
	for i, c := range n.children {
		if c == child {
			n.children = append(n.children[:i], n.children[i+1:]...)
			child.parent = nil
			return true
		}
	}
	return false
}

// Detach removes n from its parent, if any.
func (n *Node) Detach() {
	if n.parent != nil {
		n.parent.Remove(n)
	}
}

// Parent returns the parent node or nil.
func (n *Node) Parent() *Node {
	return n.parent
}

// Children returns a copy of the child list.
func (n *Node) Children() []*Node {
	out := make([]*Node, len(n.children))
	copy(out, n.children)
	return out
}

// LocalMatrix returns translate * rotate.
func (n *Node) LocalMatrix() math.Mat4 {
	return math.Translate(n.Position.X, n.Position.Y, n.Position.Z).
		Mul(math.EulerXYZ(n.Rotation.X, n.Rotation.Y, n.Rotation.Z))
}

// WorldMatrix composes the local matrices from the root down to n.
func (n *Node) WorldMatrix() math.Mat4 {
	m := n.LocalMatrix()
	for p := n.parent; p != nil; p = p.parent {
		m = p.LocalMatrix().Mul(m)
	}
	return m
}

// WorldPosition returns the node origin in world space.
func (n *Node) WorldPosition() math.Vec3 {
	return n.WorldMatrix().Translation()
}
