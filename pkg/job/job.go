// Package job reads fracture job files. A job file carries what the
// interactive tool collected from its widgets: the mesh to select, the
// fracture parameters and the ordered seed positions.
//
//	select = ["cube1"]
//	fracture "cluster" {
//	  count     = 10
//	  primary   = 3
//	  secondary = 4
//	  flux      = 12.5
//	}
//	seed      = 42
//	positions = ["locA", "locB"]
package job

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/chazu/hadan/pkg/params"
)

// Job is a decoded job file. Unset attributes are nil and leave the
// corresponding parameter alone when applied.
type Job struct {
	Select            []string  `hcl:"select,optional"`
	Fracture          *Fracture `hcl:"fracture,block"`
	Slicer            *string   `hcl:"slicer,optional"`
	Seed              *int      `hcl:"seed,optional"`
	SmoothingAngle    *float64  `hcl:"smoothing_angle,optional"`
	MinBezierDistance *float64  `hcl:"min_bezier_distance,optional"`
	Multithreaded     *bool     `hcl:"multithreaded,optional"`
	Positions         []string  `hcl:"positions,optional"`

	// Filename is where the job was read from.
	Filename string
}

// Fracture is the fracture block. Kind is the block label.
type Fracture struct {
	Kind      string   `hcl:"kind,label"`
	Count     *int     `hcl:"count,optional"`
	Primary   *int     `hcl:"primary,optional"`
	Secondary *int     `hcl:"secondary,optional"`
	Samples   *int     `hcl:"samples,optional"`
	Flux      *float64 `hcl:"flux,optional"`
	Gap       *float64 `hcl:"gap,optional"`
}

// Parse decodes a job from src. filename is used in diagnostics.
func Parse(src []byte, filename string) (*Job, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse job file %s: %w", filename, diags)
	}

	var j Job
	diags = gohcl.DecodeBody(file.Body, nil, &j)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode job file %s: %w", filename, diags)
	}
	j.Filename = filename

	if j.Fracture != nil {
		if _, err := params.ParseKind(j.Fracture.Kind); err != nil {
			return nil, fmt.Errorf("job %s: fracture %q: %w", filename, j.Fracture.Kind, err)
		}
	}
	if j.Slicer != nil {
		if _, err := params.ParseSlicerType(*j.Slicer); err != nil {
			return nil, fmt.Errorf("job %s: slicer: %w", filename, err)
		}
	}
	return &j, nil
}

// Load reads and decodes the job file at path.
func Load(path string) (*Job, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("job: %w", err)
	}
	return Parse(src, path)
}

// Apply pushes the job's values into p through its validating setters.
// On error p may hold the values applied before the failing one.
func (j *Job) Apply(p *params.Set) error {
	if f := j.Fracture; f != nil {
		if err := f.apply(p); err != nil {
			return j.wrap(err)
		}
	}
	if j.Slicer != nil {
		st, err := params.ParseSlicerType(*j.Slicer)
		if err != nil {
			return j.wrap(err)
		}
		if err := p.SetSlicer(st); err != nil {
			return j.wrap(err)
		}
	}
	if j.Seed != nil {
		if err := p.SetSeed(*j.Seed); err != nil {
			return j.wrap(err)
		}
	}
	if j.SmoothingAngle != nil {
		if err := p.SetSmoothingAngle(*j.SmoothingAngle); err != nil {
			return j.wrap(err)
		}
	}
	if j.MinBezierDistance != nil {
		if err := p.SetMinBezierDistance(*j.MinBezierDistance); err != nil {
			return j.wrap(err)
		}
	}
	if j.Multithreaded != nil {
		p.SetMultithreaded(*j.Multithreaded)
	}
	return nil
}

func (f *Fracture) apply(p *params.Set) error {
	kind, err := params.ParseKind(f.Kind)
	if err != nil {
		return err
	}
	if name, ok := f.foreignAttribute(kind); ok {
		return fmt.Errorf("attribute %q is not valid in a %s fracture block", name, kind)
	}

	switch kind {
	case params.KindCluster:
		c := p.Cluster()
		setInt(&c.Count, f.Count)
		setInt(&c.Primary, f.Primary)
		setInt(&c.Secondary, f.Secondary)
		setFloat(&c.Flux, f.Flux)
		setFloat(&c.Gap, f.Gap)
		err = p.SetCluster(c)
	case params.KindBezier:
		b := p.Bezier()
		setInt(&b.Count, f.Count)
		setInt(&b.Samples, f.Samples)
		setFloat(&b.Flux, f.Flux)
		setFloat(&b.Gap, f.Gap)
		err = p.SetBezier(b)
	default:
		u := p.Uniform()
		setInt(&u.Count, f.Count)
		setFloat(&u.Gap, f.Gap)
		err = p.SetUniform(u)
	}
	if err != nil {
		return err
	}
	return p.SetKind(kind)
}

// foreignAttribute returns the first attribute set in the block that the
// kind does not take.
func (f *Fracture) foreignAttribute(kind params.Kind) (string, bool) {
	switch kind {
	case params.KindUniform:
		switch {
		case f.Primary != nil:
			return "primary", true
		case f.Secondary != nil:
			return "secondary", true
		case f.Samples != nil:
			return "samples", true
		case f.Flux != nil:
			return "flux", true
		}
	case params.KindCluster:
		if f.Samples != nil {
			return "samples", true
		}
	case params.KindBezier:
		switch {
		case f.Primary != nil:
			return "primary", true
		case f.Secondary != nil:
			return "secondary", true
		}
	}
	return "", false
}

// wrap names the job attribute behind a range error.
func (j *Job) wrap(err error) error {
	var oor *params.OutOfRangeError
	if errors.As(err, &oor) {
		attr := oor.Field
		if i := strings.LastIndexByte(attr, '.'); i >= 0 {
			attr = attr[i+1:]
		}
		return fmt.Errorf("job %s: %s: %w", j.Filename, attr, err)
	}
	return fmt.Errorf("job %s: %w", j.Filename, err)
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func setFloat(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}
