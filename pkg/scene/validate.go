package scene

import "fmt"

// ValidationSeverity indicates whether a finding makes the scene unusable
// or is merely informational.
type ValidationSeverity int

const (
	SeverityError   ValidationSeverity = iota // scene cannot be queried reliably
	SeverityWarning                           // informational
)

func (s ValidationSeverity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("ValidationSeverity(%d)", int(s))
	}
}

// ValidationError describes a single validation finding.
type ValidationError struct {
	NodeID   NodeID
	Message  string
	Severity ValidationSeverity
}

func (e ValidationError) Error() string {
	if e.NodeID.IsZero() {
		return fmt.Sprintf("[%s] %s", e.Severity, e.Message)
	}
	return fmt.Sprintf("[%s] node %s: %s", e.Severity, e.NodeID.Short(), e.Message)
}

// Validate runs the structural checks on s and returns every finding.
// An empty slice means the scene is well formed. It never mutates s.
func Validate(s *Scene) []ValidationError {
	var errs []ValidationError
	errs = append(errs, validateDAG(s)...)
	errs = append(errs, validateReferences(s)...)
	errs = append(errs, validateNames(s)...)
	errs = append(errs, validateShapes(s)...)
	errs = append(errs, validateTransforms(s)...)
	errs = append(errs, validateRoots(s)...)
	return errs
}

// HasErrors reports whether any finding is error severity.
func HasErrors(findings []ValidationError) bool {
	for _, f := range findings {
		if f.Severity == SeverityError {
			return true
		}
	}
	return false
}

// validateDAG checks for cycles using DFS with 3-color marking.
func validateDAG(s *Scene) []ValidationError {
	const (
		white = iota
		gray
		black
	)

	color := make(map[NodeID]int)
	var errs []ValidationError

	var visit func(id NodeID) bool
	visit = func(id NodeID) bool {
		switch color[id] {
		case black:
			return false
		case gray:
			errs = append(errs, ValidationError{
				NodeID:   id,
				Message:  fmt.Sprintf("cycle detected: node %s is part of a cycle", id.Short()),
				Severity: SeverityError,
			})
			return true
		}

		color[id] = gray
		node, ok := s.Nodes[id]
		if !ok {
			// Dangling reference; handled by validateReferences.
			color[id] = black
			return false
		}
		for _, childID := range node.Children {
			if visit(childID) {
				return true
			}
		}
		color[id] = black
		return false
	}

	for id := range s.Nodes {
		if color[id] == white {
			if visit(id) {
				break
			}
		}
	}
	return errs
}

// validateReferences checks child and parent links point at existing
// nodes, agree with each other, and that no node has two parents.
func validateReferences(s *Scene) []ValidationError {
	var errs []ValidationError
	parents := make(map[NodeID][]NodeID)

	for _, node := range s.Nodes {
		for _, childID := range node.Children {
			child, ok := s.Nodes[childID]
			if !ok {
				errs = append(errs, ValidationError{
					NodeID:   node.ID,
					Message:  fmt.Sprintf("child reference %s does not exist", childID.Short()),
					Severity: SeverityError,
				})
				continue
			}
			parents[childID] = append(parents[childID], node.ID)
			if child.Parent != node.ID {
				errs = append(errs, ValidationError{
					NodeID:   childID,
					Message:  fmt.Sprintf("node %q is listed under %q but its parent link disagrees", child.Name, node.Name),
					Severity: SeverityError,
				})
			}
		}
		if !node.Parent.IsZero() {
			if _, ok := s.Nodes[node.Parent]; !ok {
				errs = append(errs, ValidationError{
					NodeID:   node.ID,
					Message:  fmt.Sprintf("parent reference %s does not exist", node.Parent.Short()),
					Severity: SeverityError,
				})
			}
		}
	}

	for id, ps := range parents {
		if len(ps) > 1 {
			errs = append(errs, ValidationError{
				NodeID:   id,
				Message:  fmt.Sprintf("node has %d parents", len(ps)),
				Severity: SeverityError,
			})
		}
	}
	return errs
}

// validateNames checks that no two nodes share a name and that every node
// is named; the command string addresses objects by name only.
func validateNames(s *Scene) []ValidationError {
	var errs []ValidationError

	for name, id := range s.NameIndex {
		if _, ok := s.Nodes[id]; !ok {
			errs = append(errs, ValidationError{
				Message:  fmt.Sprintf("name index entry %q references non-existent node %s", name, id.Short()),
				Severity: SeverityError,
			})
		}
	}

	nameToNodes := make(map[string][]NodeID)
	for id, node := range s.Nodes {
		if node.Name == "" {
			errs = append(errs, ValidationError{
				NodeID:   id,
				Message:  "node has no name",
				Severity: SeverityError,
			})
			continue
		}
		nameToNodes[node.Name] = append(nameToNodes[node.Name], id)
	}
	for name, ids := range nameToNodes {
		if len(ids) > 1 {
			errs = append(errs, ValidationError{
				Message:  fmt.Sprintf("duplicate name %q assigned to %d nodes", name, len(ids)),
				Severity: SeverityError,
			})
		}
	}
	return errs
}

// validateShapes checks that shapes sit under a transform and own nothing.
func validateShapes(s *Scene) []ValidationError {
	var errs []ValidationError
	for id, node := range s.Nodes {
		if !node.Kind.IsShape() {
			continue
		}
		p := s.Nodes[node.Parent]
		if p == nil || p.Kind != KindTransform {
			errs = append(errs, ValidationError{
				NodeID:   id,
				Message:  fmt.Sprintf("%s shape %q has no transform parent", node.Kind, node.Name),
				Severity: SeverityError,
			})
		}
		if len(node.Children) > 0 {
			errs = append(errs, ValidationError{
				NodeID:   id,
				Message:  fmt.Sprintf("%s shape %q has children", node.Kind, node.Name),
				Severity: SeverityError,
			})
		}
		if md, ok := node.Data.(MeshData); ok && node.Kind == KindMesh {
			errs = append(errs, validateMeshData(id, node.Name, md)...)
		}
	}
	return errs
}

// validateTransforms rejects scales that collapse some but not all axes.
// The all-zero scale is the unset value and means One.
func validateTransforms(s *Scene) []ValidationError {
	var errs []ValidationError
	for id, node := range s.Nodes {
		td, ok := node.Data.(TransformData)
		if !ok || td.Scale.IsZero() {
			continue
		}
		if td.Scale.X == 0 || td.Scale.Y == 0 || td.Scale.Z == 0 {
			errs = append(errs, ValidationError{
				NodeID:   id,
				Message:  fmt.Sprintf("transform %q has a zero scale component", node.Name),
				Severity: SeverityError,
			})
		}
	}
	return errs
}

func validateMeshData(id NodeID, name string, md MeshData) []ValidationError {
	bad := false
	switch md.Primitive {
	case PrimBox:
		bad = md.Size.X <= 0 || md.Size.Y <= 0 || md.Size.Z <= 0
	case PrimSphere:
		bad = md.Radius <= 0
	case PrimCylinder:
		bad = md.Radius <= 0 || md.Height <= 0
	}
	if !bad {
		return nil
	}
	return []ValidationError{{
		NodeID:   id,
		Message:  fmt.Sprintf("mesh %q has non-positive %s dimensions", name, md.Primitive),
		Severity: SeverityError,
	}}
}

// validateRoots checks root references and warns about parentless nodes
// that are not registered as roots.
func validateRoots(s *Scene) []ValidationError {
	var errs []ValidationError
	isRoot := make(map[NodeID]bool, len(s.Roots))
	for _, rid := range s.Roots {
		isRoot[rid] = true
		n, ok := s.Nodes[rid]
		if !ok {
			errs = append(errs, ValidationError{
				Message:  fmt.Sprintf("root reference %s does not exist", rid.Short()),
				Severity: SeverityError,
			})
			continue
		}
		if !n.Parent.IsZero() {
			errs = append(errs, ValidationError{
				NodeID:   rid,
				Message:  fmt.Sprintf("root %q has a parent", n.Name),
				Severity: SeverityError,
			})
		}
	}
	for id, n := range s.Nodes {
		if n.Kind == KindTransform && n.Parent.IsZero() && !isRoot[id] {
			errs = append(errs, ValidationError{
				NodeID:   id,
				Message:  fmt.Sprintf("transform %q is parentless but not a root (orphan)", n.Name),
				Severity: SeverityWarning,
			})
		}
	}
	return errs
}
