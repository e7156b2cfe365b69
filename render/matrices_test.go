package render

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestStringToMatrixKind(t *testing.T) {
	assert.Equal(t, MatrixClip, StringToMatrixKind("Clip"))
	assert.Equal(t, MatrixProjection, StringToMatrixKind("Projection"))
	assert.Equal(t, MatrixCamera, StringToMatrixKind("Camera"))
	assert.Equal(t, MatrixInvCamera, StringToMatrixKind("InvCamera"))
	assert.Equal(t, MatrixWorld, StringToMatrixKind("World"))
	assert.Equal(t, MatrixIdentity, StringToMatrixKind("ModelView"))
	assert.Equal(t, MatrixIdentity, StringToMatrixKind("Identity"))
}

func TestClipIsMemoized(t *testing.T) {
	m := NewMatrices()
	proj := mgl32.Perspective(mgl32.DegToRad(60), 1.5, 0.1, 100)
	view := mgl32.LookAtV(mgl32.Vec3{0, 2, 5}, mgl32.Vec3{}, mgl32.Vec3{0, 1, 0})
	world := mgl32.Translate3D(1, 2, 3).Mul4(mgl32.HomogRotate3DY(0.4))

	assert.Equal(t, mgl32.Ident4(), m.Get(MatrixClip))
	assert.Equal(t, 0, m.Recomputes())

	m.Set(MatrixProjection, proj)
	m.Set(MatrixCamera, view)
	m.Set(MatrixWorld, world)

	want := proj.Mul4(view).Mul4(world)
	assert.True(t, want.ApproxEqual(m.Get(MatrixClip)))
	assert.Equal(t, 1, m.Recomputes())

	m.Get(MatrixClip)
	m.Get(MatrixClip)
	assert.Equal(t, 1, m.Recomputes())

	// Non-contributing slots do not invalidate Clip.
	m.Set(MatrixInvCamera, view.Inv())
	m.Set(MatrixIdentity, world)
	m.Get(MatrixClip)
	assert.Equal(t, 1, m.Recomputes())

	world2 := mgl32.Scale3D(2, 2, 2)
	m.Set(MatrixWorld, world2)
	m.Set(MatrixWorld, world)
	m.Set(MatrixWorld, world2)
	assert.True(t, proj.Mul4(view).Mul4(world2).ApproxEqual(m.Get(MatrixClip)))
	assert.Equal(t, 2, m.Recomputes())
}

func TestIdentityAlwaysIdentity(t *testing.T) {
	m := NewMatrices()
	m.Set(MatrixIdentity, mgl32.Scale3D(3, 3, 3))
	assert.Equal(t, mgl32.Ident4(), m.Get(MatrixIdentity))
	assert.Equal(t, mgl32.Ident4(), m.Get(MatrixKind(42)))
}

func TestSetView(t *testing.T) {
	m := NewMatrices()
	camToWorld := mgl32.Translate3D(0, 1, 4)
	m.SetView(camToWorld)
	assert.Equal(t, camToWorld, m.Get(MatrixInvCamera))
	assert.True(t, mgl32.Translate3D(0, -1, -4).ApproxEqual(m.Get(MatrixCamera)))
}
