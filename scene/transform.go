package scene

import (
	"errors"

	"github.com/go-gl/mathgl/mgl32"
)

// ErrTransformCycle is returned when a reparent would make a transform its
// own ancestor.
var ErrTransformCycle = errors.New("transform cycle")

// ErrForeignTransform is returned when linking transforms of two different
// hierarchies.
var ErrForeignTransform = errors.New("transform belongs to another hierarchy")

// TransformID indexes a record in a Hierarchy.
type TransformID int32

// NoTransform marks the absence of a parent.
const NoTransform TransformID = -1

type transformRecord struct {
	position mgl32.Vec3
	rotation mgl32.Quat
	scale    mgl32.Vec3

	parent   TransformID
	children []TransformID

	gen  uint32
	live bool
}

// Hierarchy is an arena of transform records. Parent and child links are
// indices into the arena, and freed slots are recycled.
type Hierarchy struct {
	nodes []transformRecord
	free  []TransformID
}

func NewHierarchy() *Hierarchy {
	return &Hierarchy{}
}

// New allocates an identity root transform.
func (h *Hierarchy) New() Transform {
	var id TransformID
	if n := len(h.free); n > 0 {
		id = h.free[n-1]
		h.free = h.free[:n-1]
	} else {
		id = TransformID(len(h.nodes))
		h.nodes = append(h.nodes, transformRecord{})
	}
	r := &h.nodes[id]
	gen := r.gen + 1
	*r = transformRecord{
		rotation: mgl32.QuatIdent(),
		scale:    mgl32.Vec3{1, 1, 1},
		parent:   NoTransform,
		gen:      gen,
		live:     true,
	}
	return Transform{h: h, id: id, gen: gen}
}

// Free detaches t, turns its children into roots keeping their world pose,
// and recycles its slot. Handles to t become invalid.
func (h *Hierarchy) Free(t Transform) {
	if t.h != h || t.rec() == nil {
		return
	}
	for _, c := range append([]TransformID(nil), h.nodes[t.id].children...) {
		child := Transform{h: h, id: c, gen: h.nodes[c].gen}
		_ = child.SetParent(Transform{}, true)
	}
	_ = t.SetParent(Transform{}, false)
	h.nodes[t.id].live = false
	h.nodes[t.id].children = nil
	h.free = append(h.free, t.id)
}

// Len is the number of live transforms.
func (h *Hierarchy) Len() int { return len(h.nodes) - len(h.free) }

func (h *Hierarchy) handle(id TransformID) Transform {
	if id == NoTransform {
		return Transform{}
	}
	return Transform{h: h, id: id, gen: h.nodes[id].gen}
}

// Transform is a handle to a record in a Hierarchy. The zero Transform is
// invalid: getters return identity values and setters do nothing.
type Transform struct {
	h   *Hierarchy
	id  TransformID
	gen uint32
}

func (t Transform) rec() *transformRecord {
	if t.h == nil || t.id < 0 || int(t.id) >= len(t.h.nodes) {
		return nil
	}
	r := &t.h.nodes[t.id]
	if !r.live || r.gen != t.gen {
		return nil
	}
	return r
}

// Valid reports whether the handle still refers to a live record.
func (t Transform) Valid() bool { return t.rec() != nil }

func (t Transform) ID() TransformID { return t.id }

func (t Transform) LocalPosition() mgl32.Vec3 {
	if r := t.rec(); r != nil {
		return r.position
	}
	return mgl32.Vec3{}
}

func (t Transform) SetLocalPosition(p mgl32.Vec3) {
	if r := t.rec(); r != nil {
		r.position = p
	}
}

func (t Transform) LocalRotation() mgl32.Quat {
	if r := t.rec(); r != nil {
		return r.rotation
	}
	return mgl32.QuatIdent()
}

func (t Transform) SetLocalRotation(q mgl32.Quat) {
	if r := t.rec(); r != nil {
		r.rotation = q.Normalize()
	}
}

func (t Transform) LocalScale() mgl32.Vec3 {
	if r := t.rec(); r != nil {
		return r.scale
	}
	return mgl32.Vec3{1, 1, 1}
}

func (t Transform) SetLocalScale(s mgl32.Vec3) {
	if r := t.rec(); r != nil {
		r.scale = s
	}
}

// LocalMatrix is T·R·S.
func (t Transform) LocalMatrix() mgl32.Mat4 {
	r := t.rec()
	if r == nil {
		return mgl32.Ident4()
	}
	return mgl32.Translate3D(r.position[0], r.position[1], r.position[2]).
		Mul4(r.rotation.Mat4()).
		Mul4(mgl32.Scale3D(r.scale[0], r.scale[1], r.scale[2]))
}

// LocalToWorld composes the local matrices from the root down.
func (t Transform) LocalToWorld() mgl32.Mat4 {
	m := t.LocalMatrix()
	for p := t.Parent(); p.Valid(); p = p.Parent() {
		m = p.LocalMatrix().Mul4(m)
	}
	return m
}

func (t Transform) WorldToLocal() mgl32.Mat4 {
	return t.LocalToWorld().Inv()
}

// Position is the world-space position.
func (t Transform) Position() mgl32.Vec3 {
	return t.LocalToWorld().Col(3).Vec3()
}

func (t Transform) SetPosition(p mgl32.Vec3) {
	if parent := t.Parent(); parent.Valid() {
		p = mgl32.TransformCoordinate(p, parent.WorldToLocal())
	}
	t.SetLocalPosition(p)
}

// Rotation is the world-space rotation. Non-uniform parent scale is ignored.
func (t Transform) Rotation() mgl32.Quat {
	q := t.LocalRotation()
	for p := t.Parent(); p.Valid(); p = p.Parent() {
		q = p.LocalRotation().Mul(q)
	}
	return q
}

func (t Transform) SetRotation(q mgl32.Quat) {
	if parent := t.Parent(); parent.Valid() {
		q = parent.Rotation().Inverse().Mul(q)
	}
	t.SetLocalRotation(q)
}

// Forward is the world-space -Z axis.
func (t Transform) Forward() mgl32.Vec3 { return t.Rotation().Rotate(mgl32.Vec3{0, 0, -1}) }
func (t Transform) Right() mgl32.Vec3   { return t.Rotation().Rotate(mgl32.Vec3{1, 0, 0}) }
func (t Transform) Up() mgl32.Vec3      { return t.Rotation().Rotate(mgl32.Vec3{0, 1, 0}) }

// LookAt rotates the transform so Forward points at target and Up leans
// towards up. An up parallel to the aim is replaced by world Z, or X.
func (t Transform) LookAt(target, up mgl32.Vec3) {
	dir := target.Sub(t.Position())
	if dir.Len() < 1e-6 {
		return
	}
	back := dir.Normalize().Mul(-1)
	right := up.Cross(back)
	for _, alt := range []mgl32.Vec3{{0, 0, 1}, {1, 0, 0}} {
		if right.Len() > 1e-6 {
			break
		}
		right = alt.Cross(back)
	}
	right = right.Normalize()
	basis := mgl32.Mat3FromCols(right, back.Cross(right), back)
	t.SetRotation(mgl32.Mat4ToQuat(basis.Mat4()).Normalize())
}

func (t Transform) Parent() Transform {
	r := t.rec()
	if r == nil {
		return Transform{}
	}
	return t.h.handle(r.parent)
}

// Children returns the direct children in attach order.
func (t Transform) Children() []Transform {
	r := t.rec()
	if r == nil {
		return nil
	}
	out := make([]Transform, len(r.children))
	for i, c := range r.children {
		out[i] = t.h.handle(c)
	}
	return out
}

// SetParent attaches t under parent, or detaches it when parent is the zero
// Transform. With keepWorld the world pose is preserved, otherwise the local
// values are kept as they are.
func (t Transform) SetParent(parent Transform, keepWorld bool) error {
	r := t.rec()
	if r == nil {
		return nil
	}
	if parent.h != nil && parent.h != t.h {
		return ErrForeignTransform
	}
	if parent.Valid() {
		for p := parent; p.Valid(); p = p.Parent() {
			if p.id == t.id {
				return ErrTransformCycle
			}
		}
	}

	world := t.LocalToWorld()

	if r.parent != NoTransform {
		old := &t.h.nodes[r.parent]
		for i, c := range old.children {
			if c == t.id {
				old.children = append(old.children[:i], old.children[i+1:]...)
				break
			}
		}
		r.parent = NoTransform
	}
	if parent.Valid() {
		r.parent = parent.id
		pr := parent.rec()
		pr.children = append(pr.children, t.id)
	}

	if keepWorld {
		local := world
		if parent.Valid() {
			local = parent.WorldToLocal().Mul4(world)
		}
		r.position, r.rotation, r.scale = decompose(local)
	}
	return nil
}

// decompose splits an affine T·R·S matrix without shear.
func decompose(m mgl32.Mat4) (mgl32.Vec3, mgl32.Quat, mgl32.Vec3) {
	pos := m.Col(3).Vec3()
	sx := m.Col(0).Vec3().Len()
	sy := m.Col(1).Vec3().Len()
	sz := m.Col(2).Vec3().Len()
	if m.Mat3().Det() < 0 {
		sx = -sx
	}
	rot := mgl32.Ident3()
	if sx != 0 && sy != 0 && sz != 0 {
		rot = mgl32.Mat3FromCols(
			m.Col(0).Vec3().Mul(1/sx),
			m.Col(1).Vec3().Mul(1/sy),
			m.Col(2).Vec3().Mul(1/sz),
		)
	}
	return pos, mgl32.Mat4ToQuat(rot.Mat4()).Normalize(), mgl32.Vec3{sx, sy, sz}
}
