// Package primitives builds procedural meshes. Every builder returns
// counter-clockwise outward-facing triangles with normals and UVs.
package primitives

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"forward-engine/render"
)

// Plane generates an XZ plane facing +Y, centred on the origin.
func Plane(width, depth float32, subdivisions int) render.MeshData {
	if subdivisions < 1 {
		subdivisions = 1
	}
	var d render.MeshData
	halfW, halfD := width/2, depth/2

	for z := 0; z <= subdivisions; z++ {
		for x := 0; x <= subdivisions; x++ {
			u := float32(x) / float32(subdivisions)
			v := float32(z) / float32(subdivisions)
			d.Positions = append(d.Positions, mgl32.Vec3{-halfW + u*width, 0, -halfD + v*depth})
			d.Normals = append(d.Normals, mgl32.Vec3{0, 1, 0})
			d.UVs = append(d.UVs, mgl32.Vec2{u, v})
		}
	}

	row := uint32(subdivisions + 1)
	for z := 0; z < subdivisions; z++ {
		for x := 0; x < subdivisions; x++ {
			topLeft := uint32(z)*row + uint32(x)
			topRight := topLeft + 1
			bottomLeft := topLeft + row
			bottomRight := bottomLeft + 1
			d.Indices = append(d.Indices, topLeft, bottomLeft, topRight, topRight, bottomLeft, bottomRight)
		}
	}
	return d
}

// cubeFaces lists normal, u and v axes with u × v = normal.
var cubeFaces = [6][3]mgl32.Vec3{
	{{0, 0, 1}, {1, 0, 0}, {0, 1, 0}},
	{{0, 0, -1}, {-1, 0, 0}, {0, 1, 0}},
	{{1, 0, 0}, {0, 0, -1}, {0, 1, 0}},
	{{-1, 0, 0}, {0, 0, 1}, {0, 1, 0}},
	{{0, 1, 0}, {1, 0, 0}, {0, 0, -1}},
	{{0, -1, 0}, {1, 0, 0}, {0, 0, 1}},
}

// Cube generates an axis-aligned cube with four vertices per face.
func Cube(size float32) render.MeshData {
	s := size / 2
	var d render.MeshData
	corners := [4][2]float32{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}}
	for _, f := range cubeFaces {
		n, u, v := f[0], f[1], f[2]
		base := uint32(len(d.Positions))
		for _, c := range corners {
			p := n.Add(u.Mul(c[0])).Add(v.Mul(c[1])).Mul(s)
			d.Positions = append(d.Positions, p)
			d.Normals = append(d.Normals, n)
			d.UVs = append(d.UVs, mgl32.Vec2{(c[0] + 1) / 2, (c[1] + 1) / 2})
		}
		d.Indices = append(d.Indices, base, base+1, base+2, base+2, base+3, base)
	}
	return d
}

// Sphere generates a UV sphere.
func Sphere(radius float32, segments, rings int) render.MeshData {
	if segments < 3 {
		segments = 3
	}
	if rings < 2 {
		rings = 2
	}
	var d render.MeshData

	for ring := 0; ring <= rings; ring++ {
		phi := float64(ring) * math.Pi / float64(rings)
		sinPhi, cosPhi := float32(math.Sin(phi)), float32(math.Cos(phi))
		for seg := 0; seg <= segments; seg++ {
			theta := float64(seg) * 2 * math.Pi / float64(segments)
			sinT, cosT := float32(math.Sin(theta)), float32(math.Cos(theta))

			n := mgl32.Vec3{sinPhi * cosT, cosPhi, sinPhi * sinT}
			d.Positions = append(d.Positions, n.Mul(radius))
			d.Normals = append(d.Normals, n)
			d.UVs = append(d.UVs, mgl32.Vec2{float32(seg) / float32(segments), 1 - float32(ring)/float32(rings)})
		}
	}

	for ring := 0; ring < rings; ring++ {
		for seg := 0; seg < segments; seg++ {
			cur := uint32(ring*(segments+1) + seg)
			next := cur + uint32(segments+1)
			d.Indices = append(d.Indices, cur, cur+1, next, cur+1, next+1, next)
		}
	}
	return d
}

// Cylinder generates a capped cylinder along Y, centred on the origin.
func Cylinder(radius, height float32, segments int) render.MeshData {
	if segments < 3 {
		segments = 3
	}
	var d render.MeshData
	half := height / 2

	angle := func(i int) (float32, float32) {
		theta := float64(i) * 2 * math.Pi / float64(segments)
		return float32(math.Cos(theta)), float32(math.Sin(theta))
	}

	for i := 0; i <= segments; i++ {
		c, s := angle(i)
		n := mgl32.Vec3{c, 0, s}
		u := float32(i) / float32(segments)
		d.Positions = append(d.Positions, mgl32.Vec3{c * radius, -half, s * radius}, mgl32.Vec3{c * radius, half, s * radius})
		d.Normals = append(d.Normals, n, n)
		d.UVs = append(d.UVs, mgl32.Vec2{u, 0}, mgl32.Vec2{u, 1})
	}
	for i := 0; i < segments; i++ {
		base := uint32(i * 2)
		d.Indices = append(d.Indices, base, base+1, base+2, base+2, base+1, base+3)
	}

	addCap := func(y float32, n mgl32.Vec3) {
		center := uint32(len(d.Positions))
		d.Positions = append(d.Positions, mgl32.Vec3{0, y, 0})
		d.Normals = append(d.Normals, n)
		d.UVs = append(d.UVs, mgl32.Vec2{0.5, 0.5})
		for i := 0; i <= segments; i++ {
			c, s := angle(i)
			d.Positions = append(d.Positions, mgl32.Vec3{c * radius, y, s * radius})
			d.Normals = append(d.Normals, n)
			d.UVs = append(d.UVs, mgl32.Vec2{c*0.5 + 0.5, s*0.5 + 0.5})
		}
		for i := uint32(1); i <= uint32(segments); i++ {
			if n[1] > 0 {
				d.Indices = append(d.Indices, center, center+i+1, center+i)
			} else {
				d.Indices = append(d.Indices, center, center+i, center+i+1)
			}
		}
	}
	addCap(half, mgl32.Vec3{0, 1, 0})
	addCap(-half, mgl32.Vec3{0, -1, 0})
	return d
}

// Invert flips triangle winding and normals so the mesh is seen from the
// inside, as needed for sky spheres.
func Invert(d render.MeshData) render.MeshData {
	out := render.MeshData{
		Positions: append([]mgl32.Vec3(nil), d.Positions...),
		UVs:       append([]mgl32.Vec2(nil), d.UVs...),
		Indices:   append([]uint32(nil), d.Indices...),
	}
	for _, n := range d.Normals {
		out.Normals = append(out.Normals, n.Mul(-1))
	}
	for i := 0; i+2 < len(out.Indices); i += 3 {
		out.Indices[i+1], out.Indices[i+2] = out.Indices[i+2], out.Indices[i+1]
	}
	return out
}
