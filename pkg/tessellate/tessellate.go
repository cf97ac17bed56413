// Package tessellate turns scene mesh shapes into world-space triangle
// meshes using a geometry kernel. The engine host hands these triangles to
// the fracture engine.
package tessellate

import (
	"errors"
	"fmt"

	"github.com/chazu/hadan/pkg/kernel"
	"github.com/chazu/hadan/pkg/scene"
)

// ErrNoMesh is returned when the named transform owns no mesh shape.
var ErrNoMesh = errors.New("object has no mesh shape")

// Mesh tessellates the mesh shape owned by the transform named name,
// placed by every transform from name up to its root. The scene is only
// read.
func Mesh(s *scene.Scene, k kernel.Kernel, name string) (*kernel.Mesh, error) {
	t := s.Lookup(name)
	if t == nil {
		return nil, fmt.Errorf("tessellate: %q: %w", name, scene.ErrNotFound)
	}
	shape, ok := s.MeshChild(name)
	if !ok {
		return nil, fmt.Errorf("tessellate: %q: %w", name, ErrNoMesh)
	}
	md, ok := shape.Data.(scene.MeshData)
	if !ok {
		return nil, fmt.Errorf("tessellate: mesh %s has unexpected data type %T", shape.ID.Short(), shape.Data)
	}

	solid, err := primitive(k, md)
	if err != nil {
		return nil, fmt.Errorf("tessellate: %q: %w", shape.Name, err)
	}

	chain, err := ancestry(s, t)
	if err != nil {
		return nil, err
	}
	// Innermost transform first, so the root is applied last.
	for _, n := range chain {
		td, _ := n.Data.(scene.TransformData)
		solid = place(k, solid, td)
	}

	mesh, err := k.ToMesh(solid)
	if err != nil {
		return nil, fmt.Errorf("tessellate: ToMesh failed for %q: %w", shape.Name, err)
	}
	mesh.Name = shape.Name
	return mesh, nil
}

func primitive(k kernel.Kernel, md scene.MeshData) (kernel.Solid, error) {
	switch md.Primitive {
	case scene.PrimBox:
		return k.Box(md.Size.X, md.Size.Y, md.Size.Z)
	case scene.PrimSphere:
		return k.Sphere(md.Radius)
	case scene.PrimCylinder:
		return k.Cylinder(md.Height, md.Radius)
	default:
		return nil, fmt.Errorf("unsupported primitive %v", md.Primitive)
	}
}

// place applies one transform: scale, then rotate, then translate.
func place(k kernel.Kernel, solid kernel.Solid, td scene.TransformData) kernel.Solid {
	if sc := td.Scale; !sc.IsZero() && sc != scene.One {
		solid = k.Scale(solid, sc.X, sc.Y, sc.Z)
	}
	if rot := td.Rotate; !rot.IsZero() {
		solid = k.Rotate(solid, rot.X, rot.Y, rot.Z)
	}
	if tr := td.Translate; !tr.IsZero() {
		solid = k.Translate(solid, tr.X, tr.Y, tr.Z)
	}
	return solid
}

// ancestry returns n and its transform ancestors, nearest first.
func ancestry(s *scene.Scene, n *scene.Node) ([]*scene.Node, error) {
	var chain []*scene.Node
	seen := make(map[scene.NodeID]bool)
	for cur := n; cur != nil; cur = s.Get(cur.Parent) {
		if seen[cur.ID] {
			return nil, fmt.Errorf("tessellate: cycle through %q", cur.Name)
		}
		seen[cur.ID] = true
		if cur.Kind == scene.KindTransform {
			chain = append(chain, cur)
		}
		if cur.Parent.IsZero() {
			break
		}
	}
	return chain, nil
}
