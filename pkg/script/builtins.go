package script

import (
	"fmt"
	"strings"

	"github.com/chazu/hadan/pkg/scene"
	zygo "github.com/glycerine/zygomys/zygo"
)

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

// sexpNodeRef wraps a scene object so it can be passed between builtins.
type sexpNodeRef struct {
	id   scene.NodeID
	name string
}

func (n *sexpNodeRef) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(ref %q)", n.name)
}
func (n *sexpNodeRef) Type() *zygo.RegisteredType { return nil }

// sexpVec3 wraps a scene.Vec3.
type sexpVec3 struct {
	vec scene.Vec3
}

func (v *sexpVec3) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec3 %g %g %g)", v.vec.X, v.vec.Y, v.vec.Z)
}
func (v *sexpVec3) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// isKW checks if a Sexp is a preprocessed keyword string.
// Returns the keyword name (without prefix) and true if it is.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], true
	}
	return "", false
}

// kwArgs holds the result of parsing a mixed positional+keyword argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments.
// Keywords are identified by the __kw_ prefix added during preprocessing.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	for i := 0; i < len(args); i++ {
		name, ok := isKW(args[i])
		if !ok {
			result.positional = append(result.positional, args[i])
			continue
		}
		if i+1 < len(args) {
			result.kw[name] = args[i+1]
			i++
		} else {
			result.kw[name] = zygo.SexpNull
		}
	}
	return result
}

// unknownKW reports the first keyword not in allowed.
func (a kwArgs) unknownKW(allowed ...string) error {
	for k := range a.kw {
		found := false
		for _, ok := range allowed {
			if k == ok {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("unknown keyword :%s", k)
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

// toName extracts an object name from a string or a node reference.
func toName(s zygo.Sexp) (string, error) {
	switch v := s.(type) {
	case *zygo.SexpStr:
		if strings.HasPrefix(v.S, kwPrefix) {
			return "", fmt.Errorf("expected object name, got keyword :%s", v.S[len(kwPrefix):])
		}
		if strings.TrimSpace(v.S) == "" || strings.ContainsAny(v.S, " \t\n") {
			return "", fmt.Errorf("invalid object name %q", v.S)
		}
		return v.S, nil
	case *sexpNodeRef:
		return v.name, nil
	}
	return "", fmt.Errorf("expected object name, got %T (%s)", s, s.SexpString(nil))
}

// toVec3 extracts a Vec3 from a sexpVec3.
func toVec3(s zygo.Sexp) (scene.Vec3, error) {
	if v, ok := s.(*sexpVec3); ok {
		return v.vec, nil
	}
	return scene.Vec3{}, fmt.Errorf("expected vec3, got %T (%s)", s, s.SexpString(nil))
}

// transformKWs reads :at, :rotate and :scale into a TransformData.
func transformKWs(pa kwArgs) (scene.TransformData, error) {
	var td scene.TransformData
	for kw, dst := range map[string]*scene.Vec3{"at": &td.Translate, "rotate": &td.Rotate, "scale": &td.Scale} {
		v, ok := pa.kw[kw]
		if !ok {
			continue
		}
		vec, err := toVec3(v)
		if err != nil {
			return td, fmt.Errorf("%s: %w", kw, err)
		}
		*dst = vec
	}
	// An unset scale is the zero vector, so an explicit one must not
	// collapse any axis.
	if _, ok := pa.kw["scale"]; ok && (td.Scale.X == 0 || td.Scale.Y == 0 || td.Scale.Z == 0) {
		return td, fmt.Errorf("scale: components must be non-zero, got (%g %g %g)", td.Scale.X, td.Scale.Y, td.Scale.Z)
	}
	return td, nil
}

// floatKW reads a required positive number keyword.
func floatKW(pa kwArgs, kw string) (float64, error) {
	v, ok := pa.kw[kw]
	if !ok {
		return 0, fmt.Errorf("missing :%s", kw)
	}
	f, err := toFloat64(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", kw, err)
	}
	return f, nil
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

var transformKeywords = []string{"at", "rotate", "scale"}

// registerBuiltins installs the scene builtins into a zygomys environment.
// The builtins operate on s, populating it during evaluation.
//
// Source code must be preprocessed with preprocessSource() before evaluation so
// that :keyword tokens are converted to recognizable string literals.
func registerBuiltins(env *zygo.Zlisp, s *scene.Scene) {

	// newObject creates a root transform named by the first positional
	// argument and returns the parsed arguments for the caller.
	newObject := func(fn string, args []zygo.Sexp, extra ...string) (*scene.Node, kwArgs, error) {
		pa := parseArgs(args)
		if len(pa.positional) < 1 {
			return nil, pa, fmt.Errorf("%s requires a name as first argument", fn)
		}
		name, err := toName(pa.positional[0])
		if err != nil {
			return nil, pa, fmt.Errorf("%s: name: %w", fn, err)
		}
		if s.Exists(name) || s.Exists(name+"Shape") {
			return nil, pa, fmt.Errorf("%s: name %q already in use", fn, name)
		}
		if err := pa.unknownKW(append(extra, transformKeywords...)...); err != nil {
			return nil, pa, fmt.Errorf("%s %q: %w", fn, name, err)
		}
		td, err := transformKWs(pa)
		if err != nil {
			return nil, pa, fmt.Errorf("%s %q: %w", fn, name, err)
		}
		return s.AddTransform(name, td), pa, nil
	}

	// addMesh hangs a mesh shape under t, removing t again on failure.
	addMesh := func(fn string, t *scene.Node, md scene.MeshData) (zygo.Sexp, error) {
		if _, err := s.AddShape(t.Name, t.Name+"Shape", scene.KindMesh, md); err != nil {
			_ = s.Delete(t.Name)
			return zygo.SexpNull, fmt.Errorf("%s %q: %w", fn, t.Name, err)
		}
		return &sexpNodeRef{id: t.ID, name: t.Name}, nil
	}

	// -----------------------------------------------------------------------
	// (vec3 1 2 3)
	// -----------------------------------------------------------------------
	env.AddFunction("vec3", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 {
			return zygo.SexpNull, fmt.Errorf("vec3 requires exactly 3 arguments, got %d", len(args))
		}
		var xyz [3]float64
		for i, axis := range []string{"x", "y", "z"} {
			f, err := toFloat64(args[i])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("vec3: %s: %w", axis, err)
			}
			xyz[i] = f
		}
		return &sexpVec3{vec: scene.Vec3{X: xyz[0], Y: xyz[1], Z: xyz[2]}}, nil
	})

	// -----------------------------------------------------------------------
	// (transform "rig" :at (vec3 0 0 5) :rotate (vec3 0 90 0) :scale (vec3 2 2 2)
	//            (locator "locC") ...)
	// -----------------------------------------------------------------------
	env.AddFunction("transform", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		t, pa, err := newObject("transform", args)
		if err != nil {
			return zygo.SexpNull, err
		}
		for i, child := range pa.positional[1:] {
			ref, ok := child.(*sexpNodeRef)
			if !ok {
				_ = s.Delete(t.Name)
				return zygo.SexpNull, fmt.Errorf("transform %q: child %d: expected object, got %T (%s)",
					t.Name, i+1, child, child.SexpString(nil))
			}
			if err := s.Attach(t.ID, ref.id); err != nil {
				_ = s.Delete(t.Name)
				return zygo.SexpNull, fmt.Errorf("transform %q: %w", t.Name, err)
			}
		}
		return &sexpNodeRef{id: t.ID, name: t.Name}, nil
	})

	// -----------------------------------------------------------------------
	// (box "cube1" :size (vec3 2 2 2) :at (vec3 0 0 0))
	// -----------------------------------------------------------------------
	env.AddFunction("box", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		t, pa, err := newObject("box", args, "size")
		if err != nil {
			return zygo.SexpNull, err
		}
		size := scene.One
		if v, ok := pa.kw["size"]; ok {
			if size, err = toVec3(v); err != nil {
				_ = s.Delete(t.Name)
				return zygo.SexpNull, fmt.Errorf("box %q: size: %w", t.Name, err)
			}
		}
		return addMesh("box", t, scene.MeshData{Primitive: scene.PrimBox, Size: size})
	})

	// -----------------------------------------------------------------------
	// (sphere "rock" :radius 1.5)
	// -----------------------------------------------------------------------
	env.AddFunction("sphere", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		t, pa, err := newObject("sphere", args, "radius")
		if err != nil {
			return zygo.SexpNull, err
		}
		r, err := floatKW(pa, "radius")
		if err != nil {
			_ = s.Delete(t.Name)
			return zygo.SexpNull, fmt.Errorf("sphere %q: %w", t.Name, err)
		}
		return addMesh("sphere", t, scene.MeshData{Primitive: scene.PrimSphere, Radius: r})
	})

	// -----------------------------------------------------------------------
	// (cylinder "post" :radius 0.5 :height 4)
	// -----------------------------------------------------------------------
	env.AddFunction("cylinder", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		t, pa, err := newObject("cylinder", args, "radius", "height")
		if err != nil {
			return zygo.SexpNull, err
		}
		r, err := floatKW(pa, "radius")
		if err == nil {
			var h float64
			if h, err = floatKW(pa, "height"); err == nil {
				return addMesh("cylinder", t, scene.MeshData{Primitive: scene.PrimCylinder, Radius: r, Height: h})
			}
		}
		_ = s.Delete(t.Name)
		return zygo.SexpNull, fmt.Errorf("cylinder %q: %w", t.Name, err)
	})

	// -----------------------------------------------------------------------
	// (locator "locA" :at (vec3 1 2 3))
	// -----------------------------------------------------------------------
	env.AddFunction("locator", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		t, _, err := newObject("locator", args)
		if err != nil {
			return zygo.SexpNull, err
		}
		if _, err := s.AddShape(t.Name, t.Name+"Shape", scene.KindLocator, scene.LocatorData{}); err != nil {
			_ = s.Delete(t.Name)
			return zygo.SexpNull, fmt.Errorf("locator %q: %w", t.Name, err)
		}
		return &sexpNodeRef{id: t.ID, name: t.Name}, nil
	})

	// -----------------------------------------------------------------------
	// (ref "cube1")
	// -----------------------------------------------------------------------
	env.AddFunction("ref", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("ref requires exactly one name")
		}
		objName, err := toName(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("ref: %w", err)
		}
		n := s.Lookup(objName)
		if n == nil {
			return zygo.SexpNull, fmt.Errorf("ref: no object named %q", objName)
		}
		return &sexpNodeRef{id: n.ID, name: n.Name}, nil
	})

	// -----------------------------------------------------------------------
	// (select "cube1" ...) replaces the selection; (select) clears it.
	// -----------------------------------------------------------------------
	env.AddFunction("select", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		names := make([]string, 0, len(args))
		for i, a := range args {
			n, err := toName(a)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("select: argument %d: %w", i+1, err)
			}
			names = append(names, n)
		}
		if err := s.Select(names...); err != nil {
			return zygo.SexpNull, fmt.Errorf("select: %w", err)
		}
		return zygo.SexpNull, nil
	})

	// -----------------------------------------------------------------------
	// (delete "locB") removes the object and everything under it.
	// -----------------------------------------------------------------------
	env.AddFunction("delete", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		for i, a := range args {
			n, err := toName(a)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("delete: argument %d: %w", i+1, err)
			}
			if err := s.Delete(n); err != nil {
				return zygo.SexpNull, fmt.Errorf("delete: %w", err)
			}
		}
		return zygo.SexpNull, nil
	})
}
