package scene

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// NodeID is a content-addressed identifier derived from a node path.
type NodeID string

// ZeroID is the empty identifier.
const ZeroID NodeID = ""

// NewNodeID hashes path into a stable identifier.
func NewNodeID(path string) NodeID {
	sum := sha256.Sum256([]byte(path))
	return NodeID(hex.EncodeToString(sum[:]))
}

// Short returns the first 8 characters, for messages.
func (id NodeID) Short() string {
	if len(id) > 8 {
		return string(id[:8])
	}
	return string(id)
}

// IsZero reports whether id is unset.
func (id NodeID) IsZero() bool {
	return id == ZeroID
}

// Kind enumerates the node types of a scene.
type Kind int

const (
	KindTransform Kind = iota // positioned object; owns shapes and other transforms
	KindMesh                  // polygonal mesh shape
	KindLocator               // point marker shape
)

func (k Kind) String() string {
	switch k {
	case KindTransform:
		return "transform"
	case KindMesh:
		return "mesh"
	case KindLocator:
		return "locator"
	default:
		return "unknown"
	}
}

// IsShape reports whether nodes of this kind hang under a transform.
func (k Kind) IsShape() bool {
	return k == KindMesh || k == KindLocator
}

// ParseKind maps "transform", "mesh" and "locator" to a Kind.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "transform":
		return KindTransform, nil
	case "mesh":
		return KindMesh, nil
	case "locator":
		return KindLocator, nil
	}
	return 0, fmt.Errorf("scene: unknown node kind %q", s)
}

// Node is one object in the scene.
type Node struct {
	ID       NodeID
	Kind     Kind
	Name     string
	Parent   NodeID
	Children []NodeID
	Data     NodeData
}

// NodeData is the interface for kind-specific node payloads.
type NodeData interface {
	nodeData() // marker method restricting implementations to this package
}
