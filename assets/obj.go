package assets

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"forward-engine/core"
	"forward-engine/logger"
	"forward-engine/render"
)

// OBJGroup is one "o" or "g" block of a Wavefront file.
type OBJGroup struct {
	Name     string
	Material string
	Data     render.MeshData
}

// OBJMaterial holds the subset of .mtl fields the forward shaders use.
type OBJMaterial struct {
	Diffuse   core.Color
	Specular  core.Color
	Shininess float32
	Opacity   float32
}

// OBJ is a parsed .obj file with the materials of its mtllib statements.
type OBJ struct {
	Groups    []OBJGroup
	Materials map[string]OBJMaterial
}

// Merged concatenates every group into one mesh. Normals and UVs survive
// only when every group carries them.
func (o *OBJ) Merged() render.MeshData {
	var out render.MeshData
	keepNormals, keepUVs := true, true
	for _, g := range o.Groups {
		keepNormals = keepNormals && len(g.Data.Normals) > 0
		keepUVs = keepUVs && len(g.Data.UVs) > 0
	}
	for _, g := range o.Groups {
		base := uint32(len(out.Positions))
		out.Positions = append(out.Positions, g.Data.Positions...)
		if keepNormals {
			out.Normals = append(out.Normals, g.Data.Normals...)
		}
		if keepUVs {
			out.UVs = append(out.UVs, g.Data.UVs...)
		}
		for _, i := range g.Data.Indices {
			out.Indices = append(out.Indices, base+i)
		}
	}
	return out
}

// LoadOBJ parses a Wavefront file. Polygons are fan triangulated and
// identical v/vt/vn triples share a vertex within a group. Material
// libraries that fail to load are logged and skipped.
func LoadOBJ(path string) (*OBJ, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open obj %q: %w", path, err)
	}
	defer f.Close()

	o, libs, err := parseOBJ(f)
	if err != nil {
		return nil, fmt.Errorf("obj %q: %w", path, err)
	}
	for _, lib := range libs {
		mtlPath := filepath.Join(filepath.Dir(path), lib)
		mats, err := LoadMTL(mtlPath)
		if err != nil {
			logger.Log.Warn("material library not loaded", zap.String("path", mtlPath), zap.Error(err))
			continue
		}
		for k, v := range mats {
			o.Materials[k] = v
		}
	}
	return o, nil
}

type objBuilder struct {
	group    OBJGroup
	vertices map[[3]int]uint32
	normals  bool
	uvs      bool
}

func newGroup(name, material string) *objBuilder {
	return &objBuilder{
		group:    OBJGroup{Name: name, Material: material},
		vertices: map[[3]int]uint32{},
	}
}

func (b *objBuilder) finish() (OBJGroup, bool) {
	g := b.group
	if len(g.Data.Positions) == 0 {
		return g, false
	}
	if !b.normals {
		g.Data.Normals = nil
	}
	if !b.uvs {
		g.Data.UVs = nil
	}
	return g, true
}

func parseOBJ(r io.Reader) (*OBJ, []string, error) {
	o := &OBJ{Materials: map[string]OBJMaterial{}}
	var libs []string
	var positions, normals []mgl32.Vec3
	var uvs []mgl32.Vec2

	material := ""
	cur := newGroup("default", "")
	flush := func() error {
		g, ok := cur.finish()
		if !ok {
			return nil
		}
		if err := g.Data.Validate(); err != nil {
			return fmt.Errorf("group %q: %w", g.Name, err)
		}
		o.Groups = append(o.Groups, g)
		return nil
	}

	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		parts := strings.Fields(text)

		switch parts[0] {
		case "v", "vn":
			v, err := parseFloats(parts[1:], 3)
			if err != nil {
				return nil, nil, fmt.Errorf("line %d: %w", line, err)
			}
			vec := mgl32.Vec3{v[0], v[1], v[2]}
			if parts[0] == "v" {
				positions = append(positions, vec)
			} else {
				normals = append(normals, vec)
			}
		case "vt":
			v, err := parseFloats(parts[1:], 2)
			if err != nil {
				return nil, nil, fmt.Errorf("line %d: %w", line, err)
			}
			uvs = append(uvs, mgl32.Vec2{v[0], v[1]})
		case "f":
			if len(parts) < 4 {
				return nil, nil, fmt.Errorf("line %d: face needs 3 vertices", line)
			}
			face := make([]uint32, 0, len(parts)-1)
			for _, spec := range parts[1:] {
				idx, err := cur.vertex(spec, positions, normals, uvs)
				if err != nil {
					return nil, nil, fmt.Errorf("line %d: %w", line, err)
				}
				face = append(face, idx)
			}
			for i := 2; i < len(face); i++ {
				cur.group.Data.Indices = append(cur.group.Data.Indices, face[0], face[i-1], face[i])
			}
		case "o", "g":
			if err := flush(); err != nil {
				return nil, nil, err
			}
			name := "unnamed"
			if len(parts) > 1 {
				name = parts[1]
			}
			cur = newGroup(name, material)
		case "usemtl":
			if len(parts) > 1 {
				material = parts[1]
				cur.group.Material = material
			}
		case "mtllib":
			libs = append(libs, parts[1:]...)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, nil, err
	}
	if err := flush(); err != nil {
		return nil, nil, err
	}
	if len(o.Groups) == 0 {
		return nil, nil, fmt.Errorf("no faces")
	}
	return o, libs, nil
}

// vertex resolves a "v/vt/vn" triple to an index in the current group.
// Vertices are shared by resolved indices, so relative indices naming
// different attributes never collide.
func (b *objBuilder) vertex(spec string, positions, normals []mgl32.Vec3, uvs []mgl32.Vec2) (uint32, error) {
	fields := strings.Split(spec, "/")
	key := [3]int{-1, -1, -1}
	counts := [3]int{len(positions), len(uvs), len(normals)}
	names := [3]string{"position", "uv", "normal"}
	for i := 0; i < len(fields) && i < 3; i++ {
		if fields[i] == "" && i > 0 {
			continue
		}
		idx, err := objIndex(fields[i], counts[i])
		if err != nil || idx < 0 {
			return 0, fmt.Errorf("vertex %q: bad %s index", spec, names[i])
		}
		key[i] = idx
	}
	if idx, ok := b.vertices[key]; ok {
		return idx, nil
	}

	d := &b.group.Data
	d.Positions = append(d.Positions, positions[key[0]])
	uv := mgl32.Vec2{}
	if key[1] >= 0 {
		uv = uvs[key[1]]
		b.uvs = true
	}
	d.UVs = append(d.UVs, uv)
	n := mgl32.Vec3{}
	if key[2] >= 0 {
		n = normals[key[2]]
		b.normals = true
	}
	d.Normals = append(d.Normals, n)

	idx := uint32(len(d.Positions) - 1)
	b.vertices[key] = idx
	return idx, nil
}

// objIndex converts a 1-based or negative relative index to a 0-based one,
// returning -1 when it is out of range.
func objIndex(s string, n int) (int, error) {
	i, err := strconv.Atoi(s)
	if err != nil {
		return -1, err
	}
	if i < 0 {
		i = n + i + 1
	}
	if i < 1 || i > n {
		return -1, nil
	}
	return i - 1, nil
}

func parseFloats(fields []string, n int) ([]float32, error) {
	if len(fields) < n {
		return nil, fmt.Errorf("want %d values, got %d", n, len(fields))
	}
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		f, err := strconv.ParseFloat(fields[i], 32)
		if err != nil {
			return nil, err
		}
		out[i] = float32(f)
	}
	return out, nil
}

// LoadMTL parses a Wavefront material library.
func LoadMTL(path string) (map[string]OBJMaterial, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return parseMTL(f)
}

func parseMTL(r io.Reader) (map[string]OBJMaterial, error) {
	out := map[string]OBJMaterial{}
	name := ""
	var cur OBJMaterial

	color := func(parts []string) (core.Color, bool) {
		v, err := parseFloats(parts[1:], 3)
		if err != nil {
			return core.Color{}, false
		}
		return core.Color{R: v[0], G: v[1], B: v[2], A: 1}, true
	}
	scalar := func(parts []string) (float32, bool) {
		v, err := parseFloats(parts[1:], 1)
		if err != nil {
			return 0, false
		}
		return v[0], true
	}

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		parts := strings.Fields(text)
		if parts[0] != "newmtl" && name == "" {
			continue
		}
		switch parts[0] {
		case "newmtl":
			if name != "" {
				out[name] = cur
			}
			name = ""
			if len(parts) > 1 {
				name = parts[1]
				cur = OBJMaterial{
					Diffuse:  core.Color{R: 0.8, G: 0.8, B: 0.8, A: 1},
					Specular: core.Color{A: 1},
					Opacity:  1,
				}
			}
		case "Kd":
			if c, ok := color(parts); ok {
				cur.Diffuse = c
			}
		case "Ks":
			if c, ok := color(parts); ok {
				cur.Specular = c
			}
		case "Ns":
			if v, ok := scalar(parts); ok {
				cur.Shininess = v
			}
		case "d":
			if v, ok := scalar(parts); ok {
				cur.Opacity = v
			}
		case "Tr":
			if v, ok := scalar(parts); ok {
				cur.Opacity = 1 - v
			}
		}
	}
	if name != "" {
		out[name] = cur
	}
	return out, sc.Err()
}
