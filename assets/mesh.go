// Package assets imports meshes and images from disk into render data.
package assets

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"forward-engine/render"
)

// LoadMesh reads a mesh from a .obj, .gltf or .glb file. Every group of an
// OBJ file is merged into one mesh.
func LoadMesh(path string) (render.MeshData, error) {
	if strings.EqualFold(filepath.Ext(path), ".obj") {
		o, err := LoadOBJ(path)
		if err != nil {
			return render.MeshData{}, err
		}
		return o.Merged(), nil
	}
	return loadGLTF(path)
}

// loadGLTF reads primitive 0 of mesh 0. POSITION is required; NORMAL and
// TEXCOORD_0 are optional. A missing index list is replaced by a sequential
// one. V coordinates are flipped to match images loaded bottom row first.
func loadGLTF(path string) (render.MeshData, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return render.MeshData{}, fmt.Errorf("gltf open %q: %w", path, err)
	}
	if len(doc.Meshes) == 0 || len(doc.Meshes[0].Primitives) == 0 {
		return render.MeshData{}, fmt.Errorf("gltf %q: no mesh primitive", path)
	}
	d, err := readPrimitive(doc, doc.Meshes[0].Primitives[0])
	if err != nil {
		return render.MeshData{}, fmt.Errorf("gltf %q: %w", path, err)
	}
	return d, nil
}

func readPrimitive(doc *gltf.Document, prim *gltf.Primitive) (render.MeshData, error) {
	var d render.MeshData

	posIdx, ok := prim.Attributes["POSITION"]
	if !ok {
		return d, fmt.Errorf("no POSITION attribute")
	}
	positions, err := modeler.ReadPosition(doc, doc.Accessors[posIdx], nil)
	if err != nil {
		return d, fmt.Errorf("positions: %w", err)
	}
	d.Positions = make([]mgl32.Vec3, len(positions))
	for i, p := range positions {
		d.Positions[i] = p
	}

	if idx, ok := prim.Attributes["NORMAL"]; ok {
		normals, err := modeler.ReadNormal(doc, doc.Accessors[idx], nil)
		if err != nil {
			return d, fmt.Errorf("normals: %w", err)
		}
		if len(normals) == len(positions) {
			d.Normals = make([]mgl32.Vec3, len(normals))
			for i, n := range normals {
				d.Normals[i] = n
			}
		}
	}

	if idx, ok := prim.Attributes["TEXCOORD_0"]; ok {
		uvs, err := modeler.ReadTextureCoord(doc, doc.Accessors[idx], nil)
		if err != nil {
			return d, fmt.Errorf("texcoords: %w", err)
		}
		if len(uvs) == len(positions) {
			d.UVs = make([]mgl32.Vec2, len(uvs))
			for i, uv := range uvs {
				d.UVs[i] = mgl32.Vec2{uv[0], 1 - uv[1]}
			}
		}
	}

	if prim.Indices != nil {
		d.Indices, err = modeler.ReadIndices(doc, doc.Accessors[*prim.Indices], nil)
		if err != nil {
			return d, fmt.Errorf("indices: %w", err)
		}
	} else {
		d.Indices = make([]uint32, len(positions))
		for i := range d.Indices {
			d.Indices[i] = uint32(i)
		}
	}
	return d, d.Validate()
}
