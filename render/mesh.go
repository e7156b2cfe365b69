package render

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"forward-engine/gpu"
)

// ErrMeshUploaded is returned by operations that would modify a mesh whose
// buffers already live on the GPU.
var ErrMeshUploaded = errors.New("mesh already uploaded")

// MeshData is CPU-side triangle data. Normals, UVs and Tangents are either
// empty or hold one entry per position.
type MeshData struct {
	Positions []mgl32.Vec3
	Normals   []mgl32.Vec3
	UVs       []mgl32.Vec2
	Tangents  []mgl32.Vec4
	Indices   []uint32
}

// Validate checks attribute lengths and index bounds.
func (d MeshData) Validate() error {
	n := len(d.Positions)
	if n == 0 {
		return errors.New("mesh has no positions")
	}
	if len(d.Normals) != 0 && len(d.Normals) != n {
		return fmt.Errorf("mesh has %d normals for %d positions", len(d.Normals), n)
	}
	if len(d.UVs) != 0 && len(d.UVs) != n {
		return fmt.Errorf("mesh has %d uvs for %d positions", len(d.UVs), n)
	}
	if len(d.Tangents) != 0 && len(d.Tangents) != n {
		return fmt.Errorf("mesh has %d tangents for %d positions", len(d.Tangents), n)
	}
	if len(d.Indices)%3 != 0 {
		return fmt.Errorf("mesh index count %d is not a multiple of 3", len(d.Indices))
	}
	for i, idx := range d.Indices {
		if int(idx) >= n {
			return fmt.Errorf("mesh index %d at %d out of range", idx, i)
		}
	}
	return nil
}

// triangles calls fn for every triangle, with or without an index list.
func (d MeshData) triangles(fn func(i0, i1, i2 uint32)) {
	if len(d.Indices) > 0 {
		for i := 0; i+2 < len(d.Indices); i += 3 {
			fn(d.Indices[i], d.Indices[i+1], d.Indices[i+2])
		}
		return
	}
	for i := 0; i+2 < len(d.Positions); i += 3 {
		fn(uint32(i), uint32(i+1), uint32(i+2))
	}
}

// Mesh owns GPU buffers built lazily from its data on first draw. After the
// upload the data is frozen.
type Mesh struct {
	Name   string
	data   MeshData
	handle gpu.MeshHandle
}

func NewMesh(name string, data MeshData) *Mesh {
	return &Mesh{Name: name, data: data}
}

func (m *Mesh) Data() MeshData { return m.data }

func (m *Mesh) Uploaded() bool { return m.handle.Valid() }

// ComputeNormals replaces the normals with area-weighted smooth normals.
func (m *Mesh) ComputeNormals() error {
	if m.Uploaded() {
		return ErrMeshUploaded
	}
	d := &m.data
	if err := d.Validate(); err != nil {
		return fmt.Errorf("mesh %s: %w", m.Name, err)
	}
	normals := make([]mgl32.Vec3, len(d.Positions))
	d.triangles(func(i0, i1, i2 uint32) {
		p0, p1, p2 := d.Positions[i0], d.Positions[i1], d.Positions[i2]
		n := p1.Sub(p0).Cross(p2.Sub(p0))
		normals[i0] = normals[i0].Add(n)
		normals[i1] = normals[i1].Add(n)
		normals[i2] = normals[i2].Add(n)
	})
	for i, n := range normals {
		if n.Len() > 1e-8 {
			normals[i] = n.Normalize()
		} else {
			normals[i] = mgl32.Vec3{0, 1, 0}
		}
	}
	d.Normals = normals
	return nil
}

// ComputeTangents derives per-vertex tangents from positions, normals, UVs
// and indices. xyz is the tangent, w the bitangent handedness (±1).
// Triangles with a degenerate UV area are skipped.
func (m *Mesh) ComputeTangents() error {
	if m.Uploaded() {
		return ErrMeshUploaded
	}
	d := &m.data
	if err := d.Validate(); err != nil {
		return fmt.Errorf("mesh %s: %w", m.Name, err)
	}
	if len(d.UVs) != len(d.Positions) {
		return errors.New("tangents need one uv per vertex")
	}
	if len(d.Normals) != len(d.Positions) {
		if err := m.ComputeNormals(); err != nil {
			return err
		}
	}

	tan := make([]mgl32.Vec3, len(d.Positions))
	bit := make([]mgl32.Vec3, len(d.Positions))
	d.triangles(func(i0, i1, i2 uint32) {
		e1 := d.Positions[i1].Sub(d.Positions[i0])
		e2 := d.Positions[i2].Sub(d.Positions[i0])
		uv1 := d.UVs[i1].Sub(d.UVs[i0])
		uv2 := d.UVs[i2].Sub(d.UVs[i0])

		denom := uv1[0]*uv2[1] - uv2[0]*uv1[1]
		if denom == 0 {
			return
		}
		r := 1 / denom
		t := e1.Mul(uv2[1] * r).Sub(e2.Mul(uv1[1] * r))
		b := e2.Mul(uv1[0] * r).Sub(e1.Mul(uv2[0] * r))
		for _, i := range [3]uint32{i0, i1, i2} {
			tan[i] = tan[i].Add(t)
			bit[i] = bit[i].Add(b)
		}
	})

	out := make([]mgl32.Vec4, len(d.Positions))
	for i := range out {
		n := d.Normals[i]
		// Gram-Schmidt: T = normalize(T - N*(N·T))
		t := tan[i].Sub(n.Mul(n.Dot(tan[i])))
		if t.Len() < 1e-6 {
			if abs32(n[0]) < 0.9 {
				t = mgl32.Vec3{1, 0, 0}.Sub(n.Mul(n[0]))
			} else {
				t = mgl32.Vec3{0, 1, 0}.Sub(n.Mul(n[1]))
			}
		}
		t = t.Normalize()
		w := float32(1)
		if n.Cross(t).Dot(bit[i]) < 0 {
			w = -1
		}
		out[i] = t.Vec4(w)
	}
	d.Tangents = out
	return nil
}

func abs32(f float32) float32 {
	if f < 0 {
		return -f
	}
	return f
}

// Draw uploads the mesh on first use and issues one draw call.
func (m *Mesh) Draw(ctx *Context) error {
	if !m.handle.Valid() {
		if err := m.data.Validate(); err != nil {
			return fmt.Errorf("mesh %s: %w", m.Name, err)
		}
		m.handle = ctx.Device().CreateMesh(gpu.MeshBuffers{
			Positions: m.data.Positions,
			Normals:   m.data.Normals,
			UVs:       m.data.UVs,
			Tangents:  m.data.Tangents,
			Indices:   m.data.Indices,
		})
	}
	ctx.Device().DrawMesh(m.handle)
	return nil
}

// Release frees the GPU buffers. The mesh can be drawn again afterwards,
// which uploads it anew.
func (m *Mesh) Release(ctx *Context) {
	if m.handle.Valid() {
		ctx.Device().DeleteMesh(m.handle)
	}
	m.handle = gpu.MeshHandle{}
}
