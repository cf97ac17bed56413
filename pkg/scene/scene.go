package scene

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// ErrNotFound is returned for names that do not exist in the scene.
var ErrNotFound = errors.New("object not found")

// Scene is a DAG of named nodes plus the current selection.
// It is not safe for concurrent use.
type Scene struct {
	Nodes     map[NodeID]*Node
	Roots     []NodeID
	NameIndex map[string]NodeID

	selection []NodeID
}

// New creates an empty scene.
func New() *Scene {
	return &Scene{
		Nodes:     make(map[NodeID]*Node),
		NameIndex: make(map[string]NodeID),
	}
}

// AddNode adds a node to the scene. It does not check for duplicates;
// Validate reports duplicate names.
func (s *Scene) AddNode(n *Node) {
	s.Nodes[n.ID] = n
	if n.Name != "" {
		s.NameIndex[n.Name] = n.ID
	}
}

// AddRoot registers a node ID as a top-level object.
func (s *Scene) AddRoot(id NodeID) {
	if !slices.Contains(s.Roots, id) {
		s.Roots = append(s.Roots, id)
	}
}

// Attach parents child under parent. A child that was a root stops being one.
func (s *Scene) Attach(parent, child NodeID) error {
	p := s.Nodes[parent]
	c := s.Nodes[child]
	if p == nil || c == nil {
		return fmt.Errorf("scene: attach %s under %s: %w", child.Short(), parent.Short(), ErrNotFound)
	}
	if p.Kind != KindTransform {
		return fmt.Errorf("scene: cannot parent %q under %s %q", c.Name, p.Kind, p.Name)
	}
	if !c.Parent.IsZero() && c.Parent != parent {
		if old := s.Nodes[c.Parent]; old != nil {
			old.Children = slices.DeleteFunc(old.Children, func(id NodeID) bool { return id == child })
		}
	}
	c.Parent = parent
	if !slices.Contains(p.Children, child) {
		p.Children = append(p.Children, child)
	}
	s.Roots = slices.DeleteFunc(s.Roots, func(id NodeID) bool { return id == child })
	return nil
}

// Lookup returns the node with the given name, or nil.
func (s *Scene) Lookup(name string) *Node {
	id, ok := s.NameIndex[name]
	if !ok {
		return nil
	}
	return s.Nodes[id]
}

// Exists reports whether name refers to a node.
func (s *Scene) Exists(name string) bool {
	return s.Lookup(name) != nil
}

// Get returns the node with the given ID, or nil.
func (s *Scene) Get(id NodeID) *Node {
	return s.Nodes[id]
}

// Children returns the child nodes of n.
func (s *Scene) Children(n *Node) []*Node {
	children := make([]*Node, 0, len(n.Children))
	for _, cid := range n.Children {
		if c := s.Nodes[cid]; c != nil {
			children = append(children, c)
		}
	}
	return children
}

// NodeCount returns the total number of nodes.
func (s *Scene) NodeCount() int {
	return len(s.Nodes)
}

// Delete removes name and everything below it. The deleted nodes also
// leave the selection.
func (s *Scene) Delete(name string) error {
	n := s.Lookup(name)
	if n == nil {
		return fmt.Errorf("scene: delete %q: %w", name, ErrNotFound)
	}
	if p := s.Nodes[n.Parent]; p != nil {
		p.Children = slices.DeleteFunc(p.Children, func(id NodeID) bool { return id == n.ID })
	}

	removed := make(map[NodeID]bool)
	var drop func(id NodeID)
	drop = func(id NodeID) {
		node := s.Nodes[id]
		if node == nil || removed[id] {
			return
		}
		removed[id] = true
		for _, cid := range node.Children {
			drop(cid)
		}
		delete(s.Nodes, id)
		if node.Name != "" && s.NameIndex[node.Name] == id {
			delete(s.NameIndex, node.Name)
		}
	}
	drop(n.ID)

	s.Roots = slices.DeleteFunc(s.Roots, func(id NodeID) bool { return removed[id] })
	s.selection = slices.DeleteFunc(s.selection, func(id NodeID) bool { return removed[id] })
	return nil
}

// ---------------------------------------------------------------------------
// Selection
// ---------------------------------------------------------------------------

// Select replaces the selection with names, in order. Unknown names fail
// the whole call and leave the selection unchanged.
func (s *Scene) Select(names ...string) error {
	sel := make([]NodeID, 0, len(names))
	for _, name := range names {
		n := s.Lookup(name)
		if n == nil {
			return fmt.Errorf("scene: select %q: %w", name, ErrNotFound)
		}
		if !slices.Contains(sel, n.ID) {
			sel = append(sel, n.ID)
		}
	}
	s.selection = sel
	return nil
}

// ClearSelection empties the selection.
func (s *Scene) ClearSelection() {
	s.selection = nil
}

// ListSelected returns the names of selected nodes of the given kind, in
// selection order.
func (s *Scene) ListSelected(kind Kind) []string {
	var names []string
	for _, id := range s.selection {
		if n := s.Nodes[id]; n != nil && n.Kind == kind {
			names = append(names, n.Name)
		}
	}
	return names
}

// ---------------------------------------------------------------------------
// Spatial queries
// ---------------------------------------------------------------------------

// localMatrix builds translate * rotate(Z*Y*X) * scale for a transform node.
// A zero Scale is unset and means One; Validate rejects partial zeros.
func localMatrix(td TransformData) sdf.M44 {
	scale := td.Scale
	if scale.IsZero() {
		scale = One
	}
	rot := sdf.RotateZ(radians(td.Rotate.Z)).
		Mul(sdf.RotateY(radians(td.Rotate.Y))).
		Mul(sdf.RotateX(radians(td.Rotate.X)))
	return sdf.Translate3d(v3.Vec{X: td.Translate.X, Y: td.Translate.Y, Z: td.Translate.Z}).
		Mul(rot).
		Mul(sdf.Scale3d(v3.Vec{X: scale.X, Y: scale.Y, Z: scale.Z}))
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180.0
}

// WorldMatrix composes the transforms from the root down to name. For a
// shape node this is the matrix of its owning transform.
func (s *Scene) WorldMatrix(name string) (sdf.M44, error) {
	n := s.Lookup(name)
	if n == nil {
		return sdf.Identity3d(), fmt.Errorf("scene: %q: %w", name, ErrNotFound)
	}
	return s.worldMatrix(n, make(map[NodeID]bool))
}

func (s *Scene) worldMatrix(n *Node, seen map[NodeID]bool) (sdf.M44, error) {
	if seen[n.ID] {
		return sdf.Identity3d(), fmt.Errorf("scene: cycle through %q", n.Name)
	}
	seen[n.ID] = true

	m := sdf.Identity3d()
	if td, ok := n.Data.(TransformData); ok {
		m = localMatrix(td)
	}
	if n.Parent.IsZero() {
		return m, nil
	}
	p := s.Nodes[n.Parent]
	if p == nil {
		return m, nil
	}
	pm, err := s.worldMatrix(p, seen)
	if err != nil {
		return sdf.Identity3d(), err
	}
	return pm.Mul(m), nil
}

// WorldPosition returns the world-space origin of name.
func (s *Scene) WorldPosition(name string) (Vec3, error) {
	m, err := s.WorldMatrix(name)
	if err != nil {
		return Vec3{}, err
	}
	p := m.MulPosition(v3.Vec{})
	return Vec3{X: p.X, Y: p.Y, Z: p.Z}, nil
}

// MeshChild returns the first mesh shape directly under the transform name.
func (s *Scene) MeshChild(name string) (*Node, bool) {
	n := s.Lookup(name)
	if n == nil || n.Kind != KindTransform {
		return nil, false
	}
	for _, c := range s.Children(n) {
		if c.Kind == KindMesh {
			return c, true
		}
	}
	return nil, false
}

// MeshChildExists reports whether the transform name owns a mesh shape.
func (s *Scene) MeshChildExists(name string) bool {
	_, ok := s.MeshChild(name)
	return ok
}
