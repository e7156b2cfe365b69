// Package scene holds the object model: a transform arena, game objects with
// ordered components, cameras, lights and mesh renderers, and the Scene that
// owns them together with the environment material.
package scene

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"forward-engine/core"
	"forward-engine/render"
)

// MaxLights is the size of the light array in the environment material.
const MaxLights = 8

// LightKey names a field of light slot i in the environment material, e.g.
// LightKey(2, "color") is "Lights[2].color".
func LightKey(i int, field string) string {
	return fmt.Sprintf("Lights[%d].%s", i, field)
}

// Scene owns its objects, their transforms and the environment material.
type Scene struct {
	hierarchy   *Hierarchy
	objects     []*GameObject
	environment *render.Material
	nextID      uint64
}

// New returns an empty scene whose environment has every light slot filled
// with defaults.
func New() *Scene {
	s := &Scene{
		hierarchy:   NewHierarchy(),
		environment: render.NewMaterial(nil),
	}
	env := s.environment
	env.SetValue("LightCount", render.IntValue(0))
	for i := 0; i < MaxLights; i++ {
		env.SetValue(LightKey(i, "type"), render.IntValue(int32(Directional)))
		env.SetValue(LightKey(i, "position"), render.Vec3Value(mgl32.Vec3{}))
		env.SetValue(LightKey(i, "direction"), render.Vec3Value(mgl32.Vec3{0, 0, 1}))
		env.SetValue(LightKey(i, "color"), render.ColorValue(core.ColorWhite))
		env.SetValue(LightKey(i, "intensity"), render.FloatValue(1))
		env.SetValue(LightKey(i, "spot"), render.Vec4Value(mgl32.Vec4{}))
		env.SetValue(LightKey(i, "range"), render.FloatValue(0))
		env.SetValue(LightKey(i, "shadowmapEnable"), render.BoolValue(false))
		env.SetValue(LightKey(i, "shadowMatrix"), render.Mat4Value(mgl32.Ident4()))
	}
	return s
}

func (s *Scene) Environment() *render.Material { return s.environment }

func (s *Scene) Hierarchy() *Hierarchy { return s.hierarchy }

// NewGameObject creates an empty object with a root transform and
// registers it.
func (s *Scene) NewGameObject(name string) *GameObject {
	s.nextID++
	g := &GameObject{
		ID:        s.nextID,
		Name:      name,
		scene:     s,
		transform: s.hierarchy.New(),
	}
	s.objects = append(s.objects, g)
	return g
}

// Remove unregisters g and frees its transform. Its children become roots.
func (s *Scene) Remove(g *GameObject) bool {
	for i, o := range s.objects {
		if o == g {
			s.objects = append(s.objects[:i], s.objects[i+1:]...)
			s.hierarchy.Free(g.transform)
			g.transform = Transform{}
			g.scene = nil
			return true
		}
	}
	return false
}

// Objects returns the registered objects in creation order.
func (s *Scene) Objects() []*GameObject {
	return append([]*GameObject(nil), s.objects...)
}

// Find returns the first object called name.
func (s *Scene) Find(name string) *GameObject {
	for _, o := range s.objects {
		if o.Name == name {
			return o
		}
	}
	return nil
}

// FindObjectsOfType collects every component assignable to T, in object
// order and then component order.
func FindObjectsOfType[T any](s *Scene) []T {
	var out []T
	for _, o := range s.objects {
		out = append(out, GetComponents[T](o)...)
	}
	return out
}

// Update runs every Behavior once.
func (s *Scene) Update(dt float32) {
	for _, b := range FindObjectsOfType[Behavior](s) {
		b.Update(dt)
	}
}

// MainCamera returns the first camera flagged Main, else the first camera,
// else nil.
func (s *Scene) MainCamera() *Camera {
	cams := FindObjectsOfType[*Camera](s)
	for _, c := range cams {
		if c.Main {
			return c
		}
	}
	if len(cams) > 0 {
		return cams[0]
	}
	return nil
}
