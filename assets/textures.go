package assets

import (
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"forward-engine/core"
	"forward-engine/render"
)

// TextureCache loads each image file once and owns the resulting textures.
type TextureCache struct {
	ctx      *render.Context
	root     string
	textures map[string]*render.Texture
	solid    map[core.Color]*render.Texture
}

// NewTextureCache resolves relative names against root.
func NewTextureCache(ctx *render.Context, root string) *TextureCache {
	return &TextureCache{
		ctx:      ctx,
		root:     root,
		textures: map[string]*render.Texture{},
		solid:    map[core.Color]*render.Texture{},
	}
}

func (c *TextureCache) path(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.root, filepath.FromSlash(name))
}

// Load returns the cached texture for name, uploading it on first use.
func (c *TextureCache) Load(name string) (*render.Texture, error) {
	if t, ok := c.textures[name]; ok {
		return t, nil
	}
	data, err := LoadImage(c.path(name), true)
	if err != nil {
		return nil, err
	}
	t, err := render.NewTexture2D(c.ctx, data, render.DefaultSampling)
	if err != nil {
		return nil, fmt.Errorf("texture %q: %w", name, err)
	}
	c.textures[name] = t
	return t, nil
}

// LoadCube uploads the cube map matched by pattern, see LoadCubeImages.
func (c *TextureCache) LoadCube(pattern string) (*render.Texture, error) {
	if t, ok := c.textures[pattern]; ok {
		return t, nil
	}
	faces, err := LoadCubeImages(c.path(pattern))
	if err != nil {
		return nil, err
	}
	t, err := render.NewCubeMap(c.ctx, faces)
	if err != nil {
		return nil, fmt.Errorf("cube map %q: %w", pattern, err)
	}
	c.textures[pattern] = t
	return t, nil
}

// GetOrDefault loads name, falling back to a 1x1 texture of the given colour
// when the file is unusable. It returns nil only if the fallback fails too.
func (c *TextureCache) GetOrDefault(name string, fallback core.Color) *render.Texture {
	if name != "" {
		t, err := c.Load(name)
		if err == nil {
			return t
		}
		c.ctx.Logger().Warn("texture unavailable, using fallback", zap.String("path", name), zap.Error(err))
	}
	t, err := c.Solid(fallback)
	if err != nil {
		c.ctx.Logger().Error("fallback texture rejected", zap.Error(err))
		return nil
	}
	return t
}

// Solid returns a shared 1x1 texture of col.
func (c *TextureCache) Solid(col core.Color) (*render.Texture, error) {
	if t, ok := c.solid[col]; ok {
		return t, nil
	}
	px := col.RGBA8()
	t, err := render.NewTexture2D(c.ctx, render.TextureData{Width: 1, Height: 1, Pixels: px[:]}, render.DefaultSampling)
	if err != nil {
		return nil, fmt.Errorf("solid texture %v: %w", col, err)
	}
	c.solid[col] = t
	return t, nil
}

// Add stores a generated texture under name so Release frees it.
func (c *TextureCache) Add(name string, data render.TextureData) (*render.Texture, error) {
	if old, ok := c.textures[name]; ok {
		old.Release(c.ctx)
	}
	t, err := render.NewTexture2D(c.ctx, data, render.DefaultSampling)
	if err != nil {
		return nil, fmt.Errorf("texture %q: %w", name, err)
	}
	c.textures[name] = t
	return t, nil
}

// Len is the number of textures owned by the cache.
func (c *TextureCache) Len() int { return len(c.textures) + len(c.solid) }

// Release frees every texture and empties the cache.
func (c *TextureCache) Release() {
	for k, t := range c.textures {
		t.Release(c.ctx)
		delete(c.textures, k)
	}
	for k, t := range c.solid {
		t.Release(c.ctx)
		delete(c.solid, k)
	}
}

// Checker generates a size×size board of cells×cells squares.
func Checker(size, cells int, a, b core.Color) render.TextureData {
	if cells < 1 {
		cells = 1
	}
	block := size / cells
	if block < 1 {
		block = 1
	}
	pa, pb := a.RGBA8(), b.RGBA8()
	px := make([]byte, size*size*4)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			c := pb
			if (x/block+y/block)%2 == 0 {
				c = pa
			}
			copy(px[(y*size+x)*4:], c[:])
		}
	}
	return render.TextureData{Width: size, Height: size, Pixels: px}
}
