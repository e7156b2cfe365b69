package render

import (
	"fmt"
	"sort"
)

// Material is a named bag of values bound to a shader. The shader may be nil
// for materials that only feed Env uniforms or override passes.
type Material struct {
	shader *Shader
	values map[string]Value
}

func NewMaterial(shader *Shader) *Material {
	return &Material{shader: shader, values: make(map[string]Value)}
}

func (m *Material) Shader() *Shader     { return m.shader }
func (m *Material) SetShader(s *Shader) { m.shader = s }

// Set stores v under name. See ValueOf for the accepted types.
func (m *Material) Set(name string, v any) error {
	val, err := ValueOf(v)
	if err != nil {
		return fmt.Errorf("material property %q: %w", name, err)
	}
	m.values[name] = val
	return nil
}

// SetValue stores an already-typed value.
func (m *Material) SetValue(name string, v Value) { m.values[name] = v }

func (m *Material) Get(name string) (Value, bool) {
	v, ok := m.values[name]
	return v, ok
}

// Delete removes a property.
func (m *Material) Delete(name string) { delete(m.values, name) }

// Keys returns the property names in sorted order.
func (m *Material) Keys() []string {
	keys := make([]string, 0, len(m.values))
	for k := range m.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
