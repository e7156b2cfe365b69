package assets

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"forward-engine/core"
)

const quadOBJ = `# quad
mtllib quad.mtl
v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
vt 0 0
vt 1 0
vt 1 1
vt 0 1
vn 0 0 1
o front
usemtl red
f 1/1/1 2/2/1 3/3/1 4/4/1
o back
usemtl blue
f -1/4/-1 -2/3/-1 -3/2/-1
`

const quadMTL = `newmtl red
Kd 1 0 0
Ks 0.5 0.5 0.5
Ns 32
newmtl blue
Kd 0 0 1
Tr 0.25
`

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
	return dir
}

func TestLoadOBJ(t *testing.T) {
	dir := writeFiles(t, map[string]string{"quad.obj": quadOBJ, "quad.mtl": quadMTL})

	o, err := LoadOBJ(filepath.Join(dir, "quad.obj"))
	require.NoError(t, err)
	require.Len(t, o.Groups, 2)

	front := o.Groups[0]
	assert.Equal(t, "front", front.Name)
	assert.Equal(t, "red", front.Material)
	assert.Len(t, front.Data.Positions, 4)
	assert.Equal(t, []uint32{0, 1, 2, 0, 2, 3}, front.Data.Indices)
	assert.Equal(t, mgl32.Vec2{1, 1}, front.Data.UVs[2])
	assert.Equal(t, mgl32.Vec3{0, 0, 1}, front.Data.Normals[0])

	back := o.Groups[1]
	assert.Equal(t, "blue", back.Material)
	assert.Equal(t, []mgl32.Vec3{{0, 1, 0}, {1, 1, 0}, {1, 0, 0}}, back.Data.Positions)

	require.Contains(t, o.Materials, "red")
	red := o.Materials["red"]
	assert.Equal(t, core.Color{R: 1, A: 1}, red.Diffuse)
	assert.Equal(t, float32(32), red.Shininess)
	assert.Equal(t, float32(1), red.Opacity)
	assert.InDelta(t, 0.75, o.Materials["blue"].Opacity, 1e-6)
}

func TestLoadOBJSharesVertices(t *testing.T) {
	o, _, err := parseOBJ(strings.NewReader("v 0 0 0\nv 1 0 0\nv 0 1 0\nv 1 1 0\nf 1 2 3\nf 3 2 4\n"))
	require.NoError(t, err)
	require.Len(t, o.Groups, 1)

	g := o.Groups[0]
	assert.Equal(t, "default", g.Name)
	assert.Len(t, g.Data.Positions, 4)
	assert.Equal(t, []uint32{0, 1, 2, 2, 1, 3}, g.Data.Indices)
	assert.Nil(t, g.Data.Normals)
	assert.Nil(t, g.Data.UVs)
}

func TestLoadOBJRelativeIndices(t *testing.T) {
	src := "v 0 0 0\nv 1 0 0\nv 0 1 0\nf -3 -2 -1\n" +
		"v 0 0 1\nv 1 0 1\nv 0 1 1\nf -3 -2 -1\n" +
		"f 1 -2 3\n"
	o, _, err := parseOBJ(strings.NewReader(src))
	require.NoError(t, err)

	g := o.Groups[0]
	assert.Equal(t, []mgl32.Vec3{
		{0, 0, 0}, {1, 0, 0}, {0, 1, 0},
		{0, 0, 1}, {1, 0, 1}, {0, 1, 1},
	}, g.Data.Positions)
	assert.Equal(t, []uint32{0, 1, 2, 3, 4, 5, 0, 4, 2}, g.Data.Indices)
}

func TestLoadOBJErrors(t *testing.T) {
	for name, src := range map[string]string{
		"empty":        "v 0 0 0\n",
		"out of range": "v 0 0 0\nf 1 2 3\n",
		"bad float":    "v 0 x 0\n",
		"short face":   "v 0 0 0\nv 1 0 0\nf 1 2\n",
	} {
		t.Run(name, func(t *testing.T) {
			_, _, err := parseOBJ(strings.NewReader(src))
			assert.Error(t, err)
		})
	}
}

func TestLoadOBJMissingLibrary(t *testing.T) {
	dir := writeFiles(t, map[string]string{"quad.obj": quadOBJ})

	o, err := LoadOBJ(filepath.Join(dir, "quad.obj"))
	require.NoError(t, err)
	assert.Empty(t, o.Materials)
}

func TestLoadMeshMergesOBJGroups(t *testing.T) {
	dir := writeFiles(t, map[string]string{"quad.obj": quadOBJ, "quad.mtl": quadMTL})

	d, err := LoadMesh(filepath.Join(dir, "quad.obj"))
	require.NoError(t, err)
	require.NoError(t, d.Validate())
	assert.Len(t, d.Positions, 7)
	assert.Len(t, d.Normals, 7)
	assert.Equal(t, []uint32{4, 5, 6}, d.Indices[6:])
}
