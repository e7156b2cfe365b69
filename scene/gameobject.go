package scene

// GameObject is an identity with one transform and an ordered list of
// components.
type GameObject struct {
	ID   uint64
	Name string

	scene      *Scene
	transform  Transform
	components []Component
}

func (g *GameObject) Transform() Transform { return g.transform }

// Scene is the scene the object is registered in, nil once removed.
func (g *GameObject) Scene() *Scene { return g.scene }

// AddComponent attaches c and returns it. Adding a component that is already
// attached to g does nothing; a component attached elsewhere is moved.
func (g *GameObject) AddComponent(c Component) Component {
	if owner := c.GameObject(); owner != nil {
		if owner == g {
			for _, existing := range g.components {
				if existing == c {
					return c
				}
			}
		} else {
			owner.RemoveComponent(c)
		}
	}
	c.SetGameObject(g)
	g.components = append(g.components, c)
	return c
}

// RemoveComponent detaches c and reports whether it was attached.
func (g *GameObject) RemoveComponent(c Component) bool {
	for i, existing := range g.components {
		if existing == c {
			g.components = append(g.components[:i], g.components[i+1:]...)
			c.SetGameObject(nil)
			return true
		}
	}
	return false
}

// Components returns the attached components in insertion order.
func (g *GameObject) Components() []Component {
	return append([]Component(nil), g.components...)
}

// GetComponent returns the first component of g assignable to T.
func GetComponent[T any](g *GameObject) (T, bool) {
	for _, c := range g.components {
		if t, ok := c.(T); ok {
			return t, true
		}
	}
	var zero T
	return zero, false
}

// GetComponents returns every component of g assignable to T, in order.
func GetComponents[T any](g *GameObject) []T {
	var out []T
	for _, c := range g.components {
		if t, ok := c.(T); ok {
			out = append(out, t)
		}
	}
	return out
}
