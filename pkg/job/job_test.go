package job

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/hadan/pkg/params"
)

const clusterJob = `
select = ["cube1"]

fracture "cluster" {
  count     = 10
  primary   = 3
  secondary = 4
  flux      = 12.5
  gap       = 0
}

slicer              = "GTE"
seed                = 42
smoothing_angle     = 30
min_bezier_distance = 50
multithreaded       = true
positions           = ["locA", "locB"]
`

func TestParseAndApply(t *testing.T) {
	j, err := Parse([]byte(clusterJob), "shatter.hcl")
	require.NoError(t, err)
	assert.Equal(t, []string{"cube1"}, j.Select)
	assert.Equal(t, []string{"locA", "locB"}, j.Positions)
	assert.Equal(t, "shatter.hcl", j.Filename)

	p := params.New()
	require.NoError(t, j.Apply(p))

	assert.Equal(t, params.KindCluster, p.Kind())
	want := params.Cluster{Count: 10, Primary: 3, Secondary: 4, Flux: 12.5}
	if diff := cmp.Diff(want, p.Cluster()); diff != "" {
		t.Errorf("cluster mismatch (-want +got):\n%s", diff)
	}
	wantOpts := params.EngineOptions{Seed: 42, SmoothingAngle: 30, MinBezierDistance: 50, Multithreaded: true}
	if diff := cmp.Diff(wantOpts, p.Options()); diff != "" {
		t.Errorf("options mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, params.SlicerGTE, p.Slicer())
}

func TestEmptyJobLeavesDefaults(t *testing.T) {
	j, err := Parse([]byte(""), "empty.hcl")
	require.NoError(t, err)
	assert.Nil(t, j.Fracture)

	p := params.New()
	require.NoError(t, j.Apply(p))
	assert.Equal(t, params.New(), p)
}

func TestPartialFractureBlockKeepsStoredValues(t *testing.T) {
	j, err := Parse([]byte(`fracture "bezier" { flux = 20 }`), "b.hcl")
	require.NoError(t, err)

	p := params.New()
	require.NoError(t, j.Apply(p))
	assert.Equal(t, params.Bezier{Count: params.DefaultCount, Samples: params.DefaultSamples, Flux: 20}, p.Bezier())
	assert.Equal(t, params.KindBezier, p.Kind())
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"syntax", `select = [`, "failed to parse"},
		{"unknown attribute", `colour = "red"`, "failed to decode"},
		{"wrong type", `seed = "many"`, "failed to decode"},
		{"two fracture blocks", "fracture \"uniform\" {}\nfracture \"cluster\" {}", "failed to decode"},
		{"unknown fracture", `fracture "voronoi" {}`, "voronoi"},
		{"unknown slicer", `slicer = "CGAL"`, "CGAL"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.src), "bad.hcl")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestApplyErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"flux out of range", `fracture "cluster" { flux = 120 }`, "flux:"},
		{"negative count", `fracture "uniform" { count = -1 }`, "count:"},
		{"seed", `seed = -3`, "seed:"},
		{"smoothing", `smoothing_angle = 720`, "smoothing_angle:"},
		{"min bezier", `min_bezier_distance = 101`, "min_bezier_distance:"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			j, err := Parse([]byte(tt.src), "range.hcl")
			require.NoError(t, err)
			err = j.Apply(params.New())
			require.ErrorIs(t, err, params.ErrOutOfRange)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestForeignAttributeRejected(t *testing.T) {
	j, err := Parse([]byte(`fracture "uniform" { primary = 2 }`), "u.hcl")
	require.NoError(t, err)
	p := params.New()
	err = j.Apply(p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"primary"`)
	assert.Equal(t, params.New(), p)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "job.hcl")
	require.NoError(t, os.WriteFile(path, []byte(clusterJob), 0o644))

	j, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, path, j.Filename)

	_, err = Load(filepath.Join(t.TempDir(), "missing.hcl"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
