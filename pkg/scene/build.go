package scene

import "fmt"

// AddTransform creates a top-level transform node named name.
func (s *Scene) AddTransform(name string, td TransformData) *Node {
	n := &Node{
		ID:   NewNodeID("transform/" + name),
		Kind: KindTransform,
		Name: name,
		Data: td,
	}
	s.AddNode(n)
	s.AddRoot(n.ID)
	return n
}

// AddShape creates a shape node under the transform named parent.
func (s *Scene) AddShape(parent, name string, kind Kind, data NodeData) (*Node, error) {
	if !kind.IsShape() {
		return nil, fmt.Errorf("scene: %s is not a shape kind", kind)
	}
	p := s.Lookup(parent)
	if p == nil {
		return nil, fmt.Errorf("scene: shape %q: parent %q: %w", name, parent, ErrNotFound)
	}
	n := &Node{
		ID:   NewNodeID(kind.String() + "/" + name),
		Kind: kind,
		Name: name,
		Data: data,
	}
	s.AddNode(n)
	if err := s.Attach(p.ID, n.ID); err != nil {
		return nil, err
	}
	return n, nil
}

// AddMeshTransform is shorthand for a transform at pos owning a mesh
// shape named name+"Shape".
func (s *Scene) AddMeshTransform(name string, pos Vec3, md MeshData) *Node {
	t := s.AddTransform(name, TransformData{Translate: pos})
	// The parent was just created as a transform, so AddShape cannot fail.
	_, _ = s.AddShape(name, name+"Shape", KindMesh, md)
	return t
}

// AddLocator is shorthand for a transform at pos owning a locator shape.
func (s *Scene) AddLocator(name string, pos Vec3) *Node {
	t := s.AddTransform(name, TransformData{Translate: pos})
	_, _ = s.AddShape(name, name+"Shape", KindLocator, LocatorData{})
	return t
}
