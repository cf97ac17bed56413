package scene

// Vec3 is a point or direction in scene units.
type Vec3 struct {
	X, Y, Z float64
}

// Add returns v + o.
func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z}
}

// IsZero reports whether all components are zero.
func (v Vec3) IsZero() bool {
	return v.X == 0 && v.Y == 0 && v.Z == 0
}

// One is the identity scale.
var One = Vec3{1, 1, 1}

// ---------------------------------------------------------------------------
// Transform
// ---------------------------------------------------------------------------

// TransformData is the local transform of a transform node. Rotation is
// in Euler degrees applied X, then Y, then Z. A zero Scale means unit
// scale.
type TransformData struct {
	Translate Vec3
	Rotate    Vec3
	Scale     Vec3
}

func (TransformData) nodeData() {}

// ---------------------------------------------------------------------------
// Shapes
// ---------------------------------------------------------------------------

// Primitive selects the generator of a mesh shape.
type Primitive int

const (
	PrimBox Primitive = iota
	PrimSphere
	PrimCylinder
)

func (p Primitive) String() string {
	switch p {
	case PrimBox:
		return "box"
	case PrimSphere:
		return "sphere"
	case PrimCylinder:
		return "cylinder"
	default:
		return "unknown"
	}
}

// MeshData describes a mesh shape by its generating primitive. Box uses
// Size; sphere uses Radius; cylinder uses Radius and Height.
type MeshData struct {
	Primitive Primitive
	Size      Vec3
	Radius    float64
	Height    float64
}

func (MeshData) nodeData() {}

// LocatorData marks a point in space; it has no geometry.
type LocatorData struct{}

func (LocatorData) nodeData() {}
