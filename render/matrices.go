package render

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// MatrixKind names a slot of the matrix registry.
type MatrixKind int

const (
	MatrixIdentity MatrixKind = iota
	// MatrixClip is derived: Projection · Camera · World.
	MatrixClip
	MatrixProjection
	// MatrixCamera maps world space to view space.
	MatrixCamera
	// MatrixInvCamera maps view space back to world space.
	MatrixInvCamera
	MatrixWorld
	matrixKindCount
)

var matrixKindNames = [matrixKindCount]string{
	"Identity", "Clip", "Projection", "Camera", "InvCamera", "World",
}

func (k MatrixKind) String() string {
	if k >= 0 && k < matrixKindCount {
		return matrixKindNames[k]
	}
	return fmt.Sprintf("MatrixKind(%d)", int(k))
}

// StringToMatrixKind maps the suffix of a Matrix<Kind> uniform to its slot.
// Unknown names map to MatrixIdentity.
func StringToMatrixKind(s string) MatrixKind {
	for k := MatrixClip; k < matrixKindCount; k++ {
		if matrixKindNames[k] == s {
			return k
		}
	}
	return MatrixIdentity
}

// Matrices holds the current value of every matrix kind. Clip is memoized
// and recomputed on the first read after Projection, Camera or World change.
type Matrices struct {
	slots      [matrixKindCount]mgl32.Mat4
	clipDirty  bool
	recomputes int
}

// NewMatrices returns a registry with every slot set to the identity.
func NewMatrices() *Matrices {
	m := &Matrices{}
	for i := range m.slots {
		m.slots[i] = mgl32.Ident4()
	}
	return m
}

// Set stores v in the kind slot. Setting Identity is ignored; setting Clip
// directly overrides the derived value until a contributing slot changes.
func (m *Matrices) Set(kind MatrixKind, v mgl32.Mat4) {
	switch kind {
	case MatrixIdentity:
		return
	case MatrixClip:
		m.clipDirty = false
	case MatrixProjection, MatrixCamera, MatrixWorld:
		m.clipDirty = true
	case MatrixInvCamera:
	default:
		return
	}
	m.slots[kind] = v
}

// Get returns the current value of kind.
func (m *Matrices) Get(kind MatrixKind) mgl32.Mat4 {
	switch {
	case kind == MatrixClip:
		if m.clipDirty {
			m.slots[MatrixClip] = m.slots[MatrixProjection].Mul4(m.slots[MatrixCamera]).Mul4(m.slots[MatrixWorld])
			m.clipDirty = false
			m.recomputes++
		}
		return m.slots[MatrixClip]
	case kind > MatrixIdentity && kind < matrixKindCount:
		return m.slots[kind]
	}
	return mgl32.Ident4()
}

// SetView sets Camera and InvCamera from a view-to-world transform.
func (m *Matrices) SetView(localToWorld mgl32.Mat4) {
	m.Set(MatrixInvCamera, localToWorld)
	m.Set(MatrixCamera, localToWorld.Inv())
}

// Recomputes counts how many times Clip has been derived.
func (m *Matrices) Recomputes() int { return m.recomputes }
