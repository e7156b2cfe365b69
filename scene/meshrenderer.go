package scene

import (
	"fmt"

	"forward-engine/render"
)

// Renderable is a component that can submit draws.
type Renderable interface {
	Component
	// Render draws with override when non-nil, else with the component's own
	// material. cam is nil for light passes. It reports whether a draw was
	// issued.
	Render(ctx *render.Context, cam *Camera, override *render.Material) (bool, error)
}

// MeshFilter holds the mesh drawn by a sibling MeshRenderer.
type MeshFilter struct {
	BaseComponent
	Mesh *render.Mesh
}

func NewMeshFilter(mesh *render.Mesh) *MeshFilter {
	return &MeshFilter{Mesh: mesh}
}

// MeshRenderer draws the sibling MeshFilter's mesh with Material.
type MeshRenderer struct {
	BaseComponent
	Material *render.Material

	draws int
}

func NewMeshRenderer(mat *render.Material) *MeshRenderer {
	return &MeshRenderer{Material: mat}
}

var _ Renderable = (*MeshRenderer)(nil)

// Render sets World from the transform, binds the material and draws.
// Objects without a mesh, and materials without a shader, are skipped.
func (r *MeshRenderer) Render(ctx *render.Context, _ *Camera, override *render.Material) (bool, error) {
	g := r.GameObject()
	if g == nil {
		return false, nil
	}
	filter, ok := GetComponent[*MeshFilter](g)
	if !ok || filter.Mesh == nil {
		return false, nil
	}
	mat := r.Material
	if override != nil {
		mat = override
	}
	if mat == nil || !mat.Shader().Built() {
		return false, nil
	}

	ctx.Matrices().Set(render.MatrixWorld, g.Transform().LocalToWorld())
	mat.Shader().Bind(ctx, mat)
	if err := filter.Mesh.Draw(ctx); err != nil {
		return false, fmt.Errorf("render %s: %w", g.Name, err)
	}
	r.draws++
	return true, nil
}

// Draws counts the draws this renderer has issued.
func (r *MeshRenderer) Draws() int { return r.draws }
