package command

import (
	"strconv"
	"strings"

	"github.com/chazu/hadan/pkg/scene"
)

// CommandName is the engine command every compiled string starts with.
const CommandName = "hadan"

// Flags understood by the engine command.
const (
	FlagMesh          = "-mn"
	FlagFractureType  = "-ft"
	FlagCount         = "-uc"
	FlagPrimary       = "-pc"
	FlagSecondary     = "-sc"
	FlagFlux          = "-flp"
	FlagSamples       = "-sam"
	FlagGap           = "-sd"
	FlagSlicer        = "-st"
	FlagSeed          = "-rs"
	FlagSmoothing     = "-sa"
	FlagMinBezier     = "-mbd"
	FlagMultithreaded = "-mt"
	FlagPoint         = "-pnt"
)

// Token is one flag and its arguments.
type Token struct {
	Flag string
	Args []string
}

// Command is a compiled engine command.
type Command struct {
	Name   string
	Mesh   string
	Tokens []Token

	// Dropped lists registry entries that no longer resolve in the scene
	// and were left out of the command. It is informational only.
	Dropped []string
}

// String serializes the command: single spaces between tokens, no
// trailing whitespace.
func (c *Command) String() string {
	if c == nil {
		return ""
	}
	parts := []string{c.Name}
	for _, t := range c.Tokens {
		parts = append(parts, t.Flag)
		parts = append(parts, t.Args...)
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}

// Points returns the number of -pnt tokens.
func (c *Command) Points() int {
	n := 0
	for _, t := range c.Tokens {
		if t.Flag == FlagPoint {
			n++
		}
	}
	return n
}

// FormatFloat renders v in fixed point with six decimals. Negative zero
// prints as zero.
func FormatFloat(v float64) string {
	if v == 0 {
		v = 0
	}
	return strconv.FormatFloat(v, 'f', 6, 64)
}

// ---------------------------------------------------------------------------
// Builder
// ---------------------------------------------------------------------------

// Builder accumulates tokens in emission order.
type Builder struct {
	name   string
	tokens []Token
}

// NewBuilder starts a command named name.
func NewBuilder(name string) *Builder {
	return &Builder{name: name}
}

func (b *Builder) add(flag string, args ...string) *Builder {
	b.tokens = append(b.tokens, Token{Flag: flag, Args: args})
	return b
}

// Str appends flag with a verbatim argument.
func (b *Builder) Str(flag, v string) *Builder {
	return b.add(flag, v)
}

// Int appends flag with an integer argument.
func (b *Builder) Int(flag string, v int) *Builder {
	return b.add(flag, strconv.Itoa(v))
}

// Float appends flag with a fixed-point argument.
func (b *Builder) Float(flag string, v float64) *Builder {
	return b.add(flag, FormatFloat(v))
}

// OptFloat appends flag only when v is non-zero.
func (b *Builder) OptFloat(flag string, v float64) *Builder {
	if v == 0 {
		return b
	}
	return b.Float(flag, v)
}

// Bool appends flag with true or false.
func (b *Builder) Bool(flag string, v bool) *Builder {
	return b.add(flag, strconv.FormatBool(v))
}

// Point appends a -pnt token with three coordinates.
func (b *Builder) Point(p scene.Vec3) *Builder {
	return b.add(FlagPoint, FormatFloat(p.X), FormatFloat(p.Y), FormatFloat(p.Z))
}

// Build returns the command built so far. The builder may keep being used;
// the returned command does not share its token slice.
func (b *Builder) Build() *Command {
	c := &Command{Name: b.name, Tokens: make([]Token, len(b.tokens))}
	copy(c.Tokens, b.tokens)
	for _, t := range c.Tokens {
		if t.Flag == FlagMesh && len(t.Args) == 1 {
			c.Mesh = t.Args[0]
			break
		}
	}
	return c
}
