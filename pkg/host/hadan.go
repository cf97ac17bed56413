package host

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/chazu/hadan/pkg/command"
	"github.com/chazu/hadan/pkg/ctxlog"
	"github.com/chazu/hadan/pkg/kernel"
	"github.com/chazu/hadan/pkg/params"
	"github.com/chazu/hadan/pkg/scene"
	"github.com/chazu/hadan/pkg/tessellate"
)

// CommandName is the command an engine module registers.
const CommandName = command.CommandName

var (
	ErrObjectNotFound = scene.ErrNotFound
	ErrNotAMesh       = errors.New("object is not a mesh")
	ErrNoFractures    = errors.New("must have at least one fracture")
)

// Job is an accepted fracture request. The fracture itself runs in the
// engine; the host only records what it was asked to do.
type Job struct {
	ID         uuid.UUID
	Command    string
	Invocation *command.Invocation
	Mesh       *kernel.Mesh
	Triangles  int
	Accepted   time.Time
}

// Jobs returns the accepted jobs in order.
func (h *Local) Jobs() []Job {
	return append([]Job(nil), h.jobs...)
}

// runHadan validates a hadan invocation against the scene, tessellates the
// target mesh and records the job.
func (h *Local) runHadan(ctx context.Context, line string) error {
	logger := ctxlog.FromContext(ctx)

	inv, err := command.Parse(line)
	if err != nil {
		logger.Error("Rejected command", "error", err)
		return fmt.Errorf("hadan: %w", err)
	}

	target, err := h.meshTransform(inv.MeshName)
	if err != nil {
		logger.Error("Rejected command", "mesh", inv.MeshName, "error", err)
		return fmt.Errorf("hadan: %w", err)
	}
	if count := fractureCount(inv); count == 0 {
		logger.Error("Rejected command", "mesh", inv.MeshName, "error", ErrNoFractures)
		return fmt.Errorf("hadan: %w", ErrNoFractures)
	}
	if h.kernel == nil {
		return errors.New("hadan: host has no geometry kernel")
	}

	mesh, err := tessellate.Mesh(h.scene, h.kernel, target)
	if err != nil {
		logger.Error("Tessellation failed", "mesh", inv.MeshName, "error", err)
		return fmt.Errorf("hadan: %w", err)
	}

	job := Job{
		ID:         uuid.New(),
		Command:    line,
		Invocation: inv,
		Mesh:       mesh,
		Triangles:  mesh.TriangleCount(),
		Accepted:   time.Now(),
	}
	h.jobs = append(h.jobs, job)
	logger.Info("Fracture job accepted",
		"job", job.ID.String(),
		"mesh", inv.MeshName,
		"fracture", inv.Params.Kind().String(),
		"points", len(inv.Points),
		"triangles", job.Triangles,
	)
	return nil
}

// meshTransform resolves name to the transform owning a mesh. A mesh
// shape name resolves to its transform.
func (h *Local) meshTransform(name string) (string, error) {
	n := h.scene.Lookup(name)
	if n == nil {
		return "", fmt.Errorf("%q: %w", name, ErrObjectNotFound)
	}
	switch n.Kind {
	case scene.KindTransform:
		if h.scene.MeshChildExists(name) {
			return name, nil
		}
	case scene.KindMesh:
		if p := h.scene.Get(n.Parent); p != nil {
			return p.Name, nil
		}
	}
	return "", fmt.Errorf("%q: %w", name, ErrNotAMesh)
}

func fractureCount(inv *command.Invocation) int {
	switch v := inv.Params.Active().(type) {
	case params.Cluster:
		return v.Count
	case params.Bezier:
		return v.Count
	case params.Uniform:
		return v.Count
	}
	return 0
}
