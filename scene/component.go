package scene

// Component is attached to exactly one GameObject at a time.
type Component interface {
	GameObject() *GameObject
	SetGameObject(g *GameObject)
}

// BaseComponent implements Component; embed it in concrete components.
type BaseComponent struct {
	gameObject *GameObject
}

func (b *BaseComponent) GameObject() *GameObject     { return b.gameObject }
func (b *BaseComponent) SetGameObject(g *GameObject) { b.gameObject = g }

// Transform is the owning object's transform, or the zero Transform when
// detached.
func (b *BaseComponent) Transform() Transform {
	if b.gameObject == nil {
		return Transform{}
	}
	return b.gameObject.Transform()
}

// Behavior is a component updated once per frame by Scene.Update.
type Behavior interface {
	Component
	Update(dt float32)
}
