package command

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/chazu/hadan/pkg/params"
	"github.com/chazu/hadan/pkg/scene"
)

// ErrSyntax is matched by every *SyntaxError via errors.Is.
var ErrSyntax = errors.New("command syntax error")

// SyntaxError reports a malformed command. Pos is the zero-based index of
// the offending whitespace-separated word, or -1 when the problem is not
// tied to one word (a missing required flag, for example).
type SyntaxError struct {
	Pos     int
	Word    string
	Message string
	Err     error
}

func (e *SyntaxError) Error() string {
	msg := e.Message
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if e.Pos < 0 {
		return "command: " + msg
	}
	return fmt.Sprintf("command: word %d (%q): %s", e.Pos, e.Word, msg)
}

func (e *SyntaxError) Unwrap() error { return e.Err }

func (e *SyntaxError) Is(target error) bool { return target == ErrSyntax }

// Invocation is a parsed engine command.
type Invocation struct {
	MeshName string
	Params   *params.Set
	Points   []scene.Vec3
}

// longFlags maps long spellings accepted by the engine to their short form.
var longFlags = map[string]string{
	"-meshname":           FlagMesh,
	"-separationdistance": FlagGap,
}

// arity is the number of arguments each flag takes.
var arity = map[string]int{
	FlagMesh:          1,
	FlagFractureType:  1,
	FlagCount:         1,
	FlagPrimary:       1,
	FlagSecondary:     1,
	FlagFlux:          1,
	FlagSamples:       1,
	FlagGap:           1,
	FlagSlicer:        1,
	FlagSeed:          1,
	FlagSmoothing:     1,
	FlagMinBezier:     1,
	FlagMultithreaded: 1,
	FlagPoint:         3,
}

// variantFlags lists, per fracture kind, the flags that kind accepts.
var variantFlags = map[params.Kind][]string{
	params.KindUniform: {FlagCount, FlagGap},
	params.KindCluster: {FlagCount, FlagPrimary, FlagSecondary, FlagFlux, FlagGap},
	params.KindBezier:  {FlagCount, FlagSamples, FlagFlux, FlagGap},
}

type arg struct {
	pos  int
	word string
}

// Parse reads a command in the compiled grammar. Flags may come in any
// order; -pnt may repeat and keeps its order. -mn is required and -ft
// defaults to uniform. Fields not given keep the params.New defaults.
// Values go through the same range checks as interactive edits.
func Parse(text string) (*Invocation, error) {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil, &SyntaxError{Pos: -1, Message: "empty command"}
	}
	if words[0] != CommandName {
		return nil, &SyntaxError{Pos: 0, Word: words[0], Message: "not a " + CommandName + " command"}
	}

	single := make(map[string]arg)
	var points []scene.Vec3

	for i := 1; i < len(words); {
		flag := words[i]
		if short, ok := longFlags[flag]; ok {
			flag = short
		}
		n, ok := arity[flag]
		if !ok {
			return nil, &SyntaxError{Pos: i, Word: words[i], Message: "unknown flag"}
		}
		if i+n >= len(words) {
			return nil, &SyntaxError{Pos: i, Word: words[i], Message: fmt.Sprintf("expects %d argument(s)", n)}
		}
		args := words[i+1 : i+1+n]

		if flag == FlagPoint {
			var xyz [3]float64
			for j, w := range args {
				v, err := parseFloat(w)
				if err != nil {
					return nil, &SyntaxError{Pos: i + 1 + j, Word: w, Message: "bad point coordinate", Err: err}
				}
				xyz[j] = v
			}
			points = append(points, scene.Vec3{X: xyz[0], Y: xyz[1], Z: xyz[2]})
		} else {
			if _, dup := single[flag]; dup {
				return nil, &SyntaxError{Pos: i, Word: words[i], Message: "flag given more than once"}
			}
			single[flag] = arg{pos: i + 1, word: args[0]}
		}
		i += 1 + n
	}

	mesh, ok := single[FlagMesh]
	if !ok {
		return nil, &SyntaxError{Pos: -1, Message: "missing required flag " + FlagMesh}
	}

	p := params.New()
	kind := params.KindUniform
	if a, ok := single[FlagFractureType]; ok {
		k, err := params.ParseKind(a.word)
		if err != nil {
			return nil, &SyntaxError{Pos: a.pos, Word: a.word, Message: "bad fracture type", Err: err}
		}
		kind = k
	}
	for flag, a := range single {
		if isVariantFlag(flag) && !slices.Contains(variantFlags[kind], flag) {
			return nil, &SyntaxError{Pos: a.pos - 1, Word: flag, Message: "not valid for fracture type " + kind.String()}
		}
	}
	if err := p.SetKind(kind); err != nil {
		return nil, &SyntaxError{Pos: -1, Message: "bad fracture type", Err: err}
	}
	if err := parseFracture(p, kind, single); err != nil {
		return nil, err
	}
	if err := parseOptions(p, single); err != nil {
		return nil, err
	}

	return &Invocation{MeshName: mesh.word, Params: p, Points: points}, nil
}

func isVariantFlag(flag string) bool {
	switch flag {
	case FlagCount, FlagPrimary, FlagSecondary, FlagFlux, FlagSamples, FlagGap:
		return true
	}
	return false
}

// fields reads typed values out of the flag table, remembering the first
// conversion failure.
type fields struct {
	single map[string]arg
	err    error
}

func (f *fields) intFlag(flag string, dst *int) {
	a, ok := f.single[flag]
	if !ok || f.err != nil {
		return
	}
	v, err := strconv.Atoi(a.word)
	if err != nil {
		f.err = &SyntaxError{Pos: a.pos, Word: a.word, Message: "expected an integer for " + flag, Err: err}
		return
	}
	*dst = v
}

func (f *fields) floatFlag(flag string, dst *float64) {
	a, ok := f.single[flag]
	if !ok || f.err != nil {
		return
	}
	v, err := parseFloat(a.word)
	if err != nil {
		f.err = &SyntaxError{Pos: a.pos, Word: a.word, Message: "expected a number for " + flag, Err: err}
		return
	}
	*dst = v
}

func (f *fields) boolFlag(flag string, dst *bool) {
	a, ok := f.single[flag]
	if !ok || f.err != nil {
		return
	}
	switch a.word {
	case "true":
		*dst = true
	case "false":
		*dst = false
	default:
		f.err = &SyntaxError{Pos: a.pos, Word: a.word, Message: "expected true or false for " + flag}
	}
}

// fieldFlags maps params field names (without the variant prefix) to
// the flag that sets them.
var fieldFlags = map[string]string{
	"count":               FlagCount,
	"primary":             FlagPrimary,
	"secondary":           FlagSecondary,
	"flux":                FlagFlux,
	"samples":             FlagSamples,
	"gap":                 FlagGap,
	"seed":                FlagSeed,
	"smoothing_angle":     FlagSmoothing,
	"min_bezier_distance": FlagMinBezier,
}

// rangeError attributes a setter rejection to the flag that carried it.
func rangeError(single map[string]arg, err error) error {
	var oor *params.OutOfRangeError
	if errors.As(err, &oor) {
		field := oor.Field
		if i := strings.LastIndexByte(field, '.'); i >= 0 {
			field = field[i+1:]
		}
		flag := fieldFlags[field]
		if a, ok := single[flag]; ok {
			return &SyntaxError{Pos: a.pos, Word: a.word, Message: "value out of range for " + flag, Err: err}
		}
	}
	return &SyntaxError{Pos: -1, Message: "value out of range", Err: err}
}

func parseFracture(p *params.Set, kind params.Kind, single map[string]arg) error {
	f := &fields{single: single}
	switch kind {
	case params.KindCluster:
		c := p.Cluster()
		f.intFlag(FlagCount, &c.Count)
		f.intFlag(FlagPrimary, &c.Primary)
		f.intFlag(FlagSecondary, &c.Secondary)
		f.floatFlag(FlagFlux, &c.Flux)
		f.floatFlag(FlagGap, &c.Gap)
		if f.err != nil {
			return f.err
		}
		if err := p.SetCluster(c); err != nil {
			return rangeError(single, err)
		}
	case params.KindBezier:
		bz := p.Bezier()
		f.intFlag(FlagCount, &bz.Count)
		f.intFlag(FlagSamples, &bz.Samples)
		f.floatFlag(FlagFlux, &bz.Flux)
		f.floatFlag(FlagGap, &bz.Gap)
		if f.err != nil {
			return f.err
		}
		if err := p.SetBezier(bz); err != nil {
			return rangeError(single, err)
		}
	default:
		u := p.Uniform()
		f.intFlag(FlagCount, &u.Count)
		f.floatFlag(FlagGap, &u.Gap)
		if f.err != nil {
			return f.err
		}
		if err := p.SetUniform(u); err != nil {
			return rangeError(single, err)
		}
	}
	return nil
}

func parseOptions(p *params.Set, single map[string]arg) error {
	if a, ok := single[FlagSlicer]; ok {
		st, err := params.ParseSlicerType(a.word)
		if err != nil {
			return &SyntaxError{Pos: a.pos, Word: a.word, Message: "bad slicer type", Err: err}
		}
		if err := p.SetSlicer(st); err != nil {
			return &SyntaxError{Pos: a.pos, Word: a.word, Message: "bad slicer type", Err: err}
		}
	}

	opts := p.Options()
	f := &fields{single: single}
	f.intFlag(FlagSeed, &opts.Seed)
	f.floatFlag(FlagSmoothing, &opts.SmoothingAngle)
	f.floatFlag(FlagMinBezier, &opts.MinBezierDistance)
	f.boolFlag(FlagMultithreaded, &opts.Multithreaded)
	if f.err != nil {
		return f.err
	}
	if err := p.SetOptions(opts); err != nil {
		return rangeError(single, err)
	}
	return nil
}

// parseFloat rejects NaN and infinities, which the compiled grammar never
// produces.
func parseFloat(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%q is not finite", s)
	}
	return v, nil
}
