// Package render holds the GPU-facing resources of the engine: shaders with
// convention-driven uniform binding, materials, textures, meshes and depth
// render targets. All of them work through a Context, which owns the shader
// cache, the current matrices and the active environment material.
package render

import (
	"io/fs"
	"os"

	"go.uber.org/zap"

	"forward-engine/gpu"
	"forward-engine/logger"
)

// Context is the per-device render state. It is not safe for concurrent use;
// all calls must come from the thread owning the GPU context.
type Context struct {
	dev  gpu.Device
	fsys fs.FS
	// root is the directory fsys was opened on, reported when a shader is
	// missing.
	root string
	log  *zap.Logger

	shaders  map[string]*Shader
	matrices *Matrices
	env      *Material
}

// Option configures a Context.
type Option func(*Context)

// WithFS loads shader sources from fsys instead of the working directory.
// root only labels the search path in diagnostics.
func WithFS(fsys fs.FS, root string) Option {
	return func(c *Context) {
		c.fsys = fsys
		c.root = root
	}
}

// WithLogger overrides the process logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Context) {
		if l != nil {
			c.log = l
		}
	}
}

// NewContext returns a Context issuing GPU calls to dev.
func NewContext(dev gpu.Device, opts ...Option) *Context {
	c := &Context{
		dev:     dev,
		log:     logger.Log,
		shaders: make(map[string]*Shader),
	}
	for _, o := range opts {
		o(c)
	}
	if c.fsys == nil {
		wd, err := os.Getwd()
		if err != nil {
			wd = "."
		}
		c.fsys = os.DirFS(wd)
		c.root = wd
	}
	return c
}

func (c *Context) Device() gpu.Device  { return c.dev }
func (c *Context) Logger() *zap.Logger { return c.log }

// Matrices returns the current matrix registry, allocating it on first use.
func (c *Context) Matrices() *Matrices {
	if c.matrices == nil {
		c.matrices = NewMatrices()
	}
	return c.matrices
}

// SetEnvironment selects the material that Env uniforms read from. A nil
// environment makes Bind skip them.
func (c *Context) SetEnvironment(env *Material) { c.env = env }

func (c *Context) Environment() *Material { return c.env }

// FindShader returns the cached shader called name, loading it on first use.
// Failed loads are not cached, so a later call retries.
func (c *Context) FindShader(name string) (*Shader, error) {
	if s, ok := c.shaders[name]; ok {
		return s, nil
	}
	s, err := c.LoadShader(name)
	if err != nil {
		return nil, err
	}
	c.shaders[name] = s
	return s, nil
}

// LoadShader builds a new, uncached shader from <name>.vert and <name>.frag.
func (c *Context) LoadShader(name string) (*Shader, error) {
	s := &Shader{}
	if err := s.Load(c, name); err != nil {
		return nil, err
	}
	return s, nil
}

// ReleaseShaders deletes every cached program and empties the cache.
func (c *Context) ReleaseShaders() {
	for name, s := range c.shaders {
		s.Release(c)
		delete(c.shaders, name)
	}
}
