package render

import (
	"fmt"

	"forward-engine/gpu"
)

// TextureData is tightly packed RGBA8 pixels, first row at the bottom.
type TextureData struct {
	Width  int
	Height int
	Pixels []byte
}

func (d TextureData) validate() error {
	if d.Width <= 0 || d.Height <= 0 {
		return fmt.Errorf("invalid texture size %dx%d", d.Width, d.Height)
	}
	if want := d.Width * d.Height * 4; len(d.Pixels) != want {
		return fmt.Errorf("texture %dx%d needs %d bytes, got %d", d.Width, d.Height, want, len(d.Pixels))
	}
	return nil
}

// Sampling selects wrap and filtering for colour textures.
type Sampling struct {
	Repeat  bool
	Mipmaps bool
}

// DefaultSampling repeats and mipmaps, the usual setup for surface textures.
var DefaultSampling = Sampling{Repeat: true, Mipmaps: true}

// Texture is a GPU texture handle. Materials reference textures without
// owning them.
type Texture struct {
	Target gpu.TextureTarget
	Handle uint32
	Width  int
	Height int
	Depth  bool
}

func NewTexture2D(ctx *Context, data TextureData, s Sampling) (*Texture, error) {
	if err := data.validate(); err != nil {
		return nil, err
	}
	h := ctx.Device().CreateTexture(gpu.TextureDesc{
		Target:  gpu.Texture2D,
		Width:   data.Width,
		Height:  data.Height,
		Repeat:  s.Repeat,
		Mipmaps: s.Mipmaps,
	}, [][]byte{data.Pixels})
	return &Texture{Target: gpu.Texture2D, Handle: h, Width: data.Width, Height: data.Height}, nil
}

// NewCubeMap uploads six square faces ordered +X, -X, +Y, -Y, +Z, -Z.
func NewCubeMap(ctx *Context, faces [6]TextureData) (*Texture, error) {
	layers := make([][]byte, 0, 6)
	for i, f := range faces {
		if err := f.validate(); err != nil {
			return nil, fmt.Errorf("cube face %d: %w", i, err)
		}
		if f.Width != faces[0].Width || f.Height != faces[0].Height {
			return nil, fmt.Errorf("cube face %d is %dx%d, face 0 is %dx%d",
				i, f.Width, f.Height, faces[0].Width, faces[0].Height)
		}
		layers = append(layers, f.Pixels)
	}
	w, h := faces[0].Width, faces[0].Height
	handle := ctx.Device().CreateTexture(gpu.TextureDesc{
		Target:  gpu.TextureCube,
		Width:   w,
		Height:  h,
		Mipmaps: true,
	}, layers)
	return &Texture{Target: gpu.TextureCube, Handle: handle, Width: w, Height: h}, nil
}

func NewDepthTexture(ctx *Context, width, height int) *Texture {
	h := ctx.Device().CreateDepthTexture(width, height)
	return &Texture{Target: gpu.Texture2D, Handle: h, Width: width, Height: height, Depth: true}
}

func (t *Texture) Release(ctx *Context) {
	if t == nil || t.Handle == 0 {
		return
	}
	ctx.Device().DeleteTexture(t.Handle)
	t.Handle = 0
}
