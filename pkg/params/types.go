package params

import (
	"fmt"
	"strings"
)

// Kind selects the fracture algorithm the engine uses to scatter cut points.
type Kind int

const (
	KindUniform Kind = iota
	KindCluster
	KindBezier
)

func (k Kind) String() string {
	switch k {
	case KindUniform:
		return "uniform"
	case KindCluster:
		return "cluster"
	case KindBezier:
		return "bezier"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ParseKind accepts the command-line spelling of a fracture kind
// ("uniform", "cluster", "bezier"), case-insensitively.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "uniform":
		return KindUniform, nil
	case "cluster":
		return KindCluster, nil
	case "bezier":
		return KindBezier, nil
	}
	return 0, fmt.Errorf("params: unknown fracture type %q", s)
}

// FractureType is implemented by Uniform, Cluster and Bezier only.
type FractureType interface {
	Kind() Kind
	// GapDistance is the post-fracture stand-off distance; zero means unset.
	GapDistance() float64
	fractureType()
}

// Uniform scatters Count points uniformly inside the mesh bounds.
type Uniform struct {
	Count int
	Gap   float64
}

func (Uniform) Kind() Kind {
	return KindUniform
}

func (u Uniform) GapDistance() float64 {
	return u.Gap
}

func (Uniform) fractureType() {}

// Cluster scatters Count uniform points, then Primary clusters each
// seeding Secondary points, perturbed by Flux percent.
type Cluster struct {
	Count     int
	Primary   int
	Secondary int
	Flux      float64
	Gap       float64
}

func (Cluster) Kind() Kind {
	return KindCluster
}

func (c Cluster) GapDistance() float64 {
	return c.Gap
}

func (Cluster) fractureType() {}

// Bezier samples Samples points along bezier paths through the source
// positions, plus Count uniform points, perturbed by Flux percent.
type Bezier struct {
	Count   int
	Samples int
	Flux    float64
	Gap     float64
}

func (Bezier) Kind() Kind {
	return KindBezier
}

func (b Bezier) GapDistance() float64 {
	return b.Gap
}

func (Bezier) fractureType() {}

// SlicerType is the engine's geometric cutting backend.
type SlicerType int

const (
	SlicerGTE SlicerType = iota
	SlicerCSGJS
)

func (s SlicerType) String() string {
	switch s {
	case SlicerGTE:
		return "GTE"
	case SlicerCSGJS:
		return "CSGJS"
	default:
		return fmt.Sprintf("SlicerType(%d)", int(s))
	}
}

// ParseSlicerType accepts "GTE" or "CSGJS" in any case.
func ParseSlicerType(s string) (SlicerType, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "GTE":
		return SlicerGTE, nil
	case "CSGJS":
		return SlicerCSGJS, nil
	}
	return 0, fmt.Errorf("params: unknown slicer type %q", s)
}

// EngineOptions are independent of the fracture type.
type EngineOptions struct {
	Seed              int
	SmoothingAngle    float64 // degrees
	MinBezierDistance float64 // percent
	Multithreaded     bool
}
