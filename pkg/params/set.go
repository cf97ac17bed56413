package params

import (
	"errors"
	"fmt"
	"math"
)

// Ranges enforced by the setters.
const (
	MinPercent   = 0.0
	MaxPercent   = 100.0
	MinSmoothing = -360.0
	MaxSmoothing = 360.0
)

// ErrOutOfRange is matched by every *OutOfRangeError via errors.Is.
var ErrOutOfRange = errors.New("value out of range")

// OutOfRangeError reports a rejected assignment. The field keeps its
// previous value.
type OutOfRangeError struct {
	Field string
	Value float64
	Min   float64
	Max   float64
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("params: %s = %g is outside [%g, %g]", e.Field, e.Value, e.Min, e.Max)
}

// Is makes errors.Is(err, ErrOutOfRange) hold.
func (e *OutOfRangeError) Is(target error) bool {
	return target == ErrOutOfRange
}

func checkRange(field string, v, min, max float64) error {
	if math.IsNaN(v) || v < min || v > max {
		return &OutOfRangeError{Field: field, Value: v, Min: min, Max: max}
	}
	return nil
}

func checkCount(field string, n int) error {
	return checkRange(field, float64(n), 0, math.Inf(1))
}

func checkPercent(field string, v float64) error {
	return checkRange(field, v, MinPercent, MaxPercent)
}

// Defaults applied by New.
const (
	DefaultCount   = 5
	DefaultSamples = 5
)

// Set is the complete fracture configuration. The zero value is not
// useful; call New.
//
// Parameters of inactive fracture variants are kept so that switching
// back and forth does not lose what the user typed, but only the active
// variant is compiled.
type Set struct {
	kind    Kind
	uniform Uniform
	cluster Cluster
	bezier  Bezier
	slicer  SlicerType
	opts    EngineOptions
}

// New returns a Set with the defaults: uniform fracture, GTE slicer.
func New() *Set {
	return &Set{
		kind:    KindUniform,
		uniform: Uniform{Count: DefaultCount},
		cluster: Cluster{Count: DefaultCount},
		bezier:  Bezier{Count: DefaultCount, Samples: DefaultSamples},
		slicer:  SlicerGTE,
	}
}

// Kind returns the active fracture kind.
func (s *Set) Kind() Kind { return s.kind }

// Uniform returns the stored uniform parameters, active or not.
func (s *Set) Uniform() Uniform { return s.uniform }

// Cluster returns the stored cluster parameters, active or not.
func (s *Set) Cluster() Cluster { return s.cluster }

// Bezier returns the stored bezier parameters, active or not.
func (s *Set) Bezier() Bezier { return s.bezier }

// Slicer returns the slicer backend.
func (s *Set) Slicer() SlicerType { return s.slicer }

// Options returns the engine options.
func (s *Set) Options() EngineOptions { return s.opts }

// Active returns the parameters of the active fracture variant.
func (s *Set) Active() FractureType {
	switch s.kind {
	case KindCluster:
		return s.cluster
	case KindBezier:
		return s.bezier
	default:
		return s.uniform
	}
}

// SetKind switches the active fracture variant.
func (s *Set) SetKind(k Kind) error {
	switch k {
	case KindUniform, KindCluster, KindBezier:
		s.kind = k
		return nil
	}
	return fmt.Errorf("params: unknown fracture kind %d", int(k))
}

// SetUniform replaces the uniform parameters. All fields are checked
// before anything is assigned.
func (s *Set) SetUniform(u Uniform) error {
	if err := errors.Join(
		checkCount("uniform.count", u.Count),
		checkPercent("uniform.gap", u.Gap),
	); err != nil {
		return err
	}
	s.uniform = u
	return nil
}

// SetCluster replaces the cluster parameters.
func (s *Set) SetCluster(c Cluster) error {
	if err := errors.Join(
		checkCount("cluster.count", c.Count),
		checkCount("cluster.primary", c.Primary),
		checkCount("cluster.secondary", c.Secondary),
		checkPercent("cluster.flux", c.Flux),
		checkPercent("cluster.gap", c.Gap),
	); err != nil {
		return err
	}
	s.cluster = c
	return nil
}

// SetBezier replaces the bezier parameters.
func (s *Set) SetBezier(b Bezier) error {
	if err := errors.Join(
		checkCount("bezier.count", b.Count),
		checkCount("bezier.samples", b.Samples),
		checkPercent("bezier.flux", b.Flux),
		checkPercent("bezier.gap", b.Gap),
	); err != nil {
		return err
	}
	s.bezier = b
	return nil
}

// SetGap sets the stand-off distance of the active variant.
func (s *Set) SetGap(gap float64) error {
	if err := checkPercent(s.kind.String()+".gap", gap); err != nil {
		return err
	}
	switch s.kind {
	case KindCluster:
		s.cluster.Gap = gap
	case KindBezier:
		s.bezier.Gap = gap
	default:
		s.uniform.Gap = gap
	}
	return nil
}

// SetSlicer selects the slicer backend.
func (s *Set) SetSlicer(t SlicerType) error {
	switch t {
	case SlicerGTE, SlicerCSGJS:
		s.slicer = t
		return nil
	}
	return fmt.Errorf("params: unknown slicer type %d", int(t))
}

// SetSeed sets the random seed; it must be non-negative.
func (s *Set) SetSeed(seed int) error {
	if err := checkCount("seed", seed); err != nil {
		return err
	}
	s.opts.Seed = seed
	return nil
}

// SetSmoothingAngle sets the smoothing angle in degrees.
func (s *Set) SetSmoothingAngle(deg float64) error {
	if err := checkRange("smoothing_angle", deg, MinSmoothing, MaxSmoothing); err != nil {
		return err
	}
	s.opts.SmoothingAngle = deg
	return nil
}

// SetMinBezierDistance sets the minimum bezier distance in percent.
func (s *Set) SetMinBezierDistance(pct float64) error {
	if err := checkPercent("min_bezier_distance", pct); err != nil {
		return err
	}
	s.opts.MinBezierDistance = pct
	return nil
}

// SetMultithreaded toggles threaded evaluation in the engine.
func (s *Set) SetMultithreaded(on bool) {
	s.opts.Multithreaded = on
}

// SetOptions replaces all engine options at once.
func (s *Set) SetOptions(o EngineOptions) error {
	if err := errors.Join(
		checkCount("seed", o.Seed),
		checkRange("smoothing_angle", o.SmoothingAngle, MinSmoothing, MaxSmoothing),
		checkPercent("min_bezier_distance", o.MinBezierDistance),
	); err != nil {
		return err
	}
	s.opts = o
	return nil
}

// Clone returns an independent copy.
func (s *Set) Clone() *Set {
	c := *s
	return &c
}
