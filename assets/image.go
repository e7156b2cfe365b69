package assets

import (
	"fmt"
	"image"
	"path/filepath"
	"sort"
	"strings"

	"github.com/anthonynsimon/bild/clone"
	"github.com/anthonynsimon/bild/imgio"
	"github.com/anthonynsimon/bild/transform"

	"forward-engine/render"
)

// LoadImage decodes a PNG or JPEG into RGBA8. With flip the rows are stored
// bottom first, matching the GL texture origin.
func LoadImage(path string, flip bool) (render.TextureData, error) {
	img, err := imgio.Open(path)
	if err != nil {
		return render.TextureData{}, fmt.Errorf("load image %q: %w", path, err)
	}
	return toTextureData(img, flip), nil
}

func toTextureData(img image.Image, flip bool) render.TextureData {
	var rgba *image.RGBA
	if flip {
		rgba = transform.FlipV(img)
	} else {
		rgba = clone.AsRGBA(img)
	}
	b := rgba.Bounds()
	return render.TextureData{Width: b.Dx(), Height: b.Dy(), Pixels: rgba.Pix}
}

// cubeSuffixes lists the file name endings recognised for each face, in
// +X, -X, +Y, -Y, +Z, -Z order.
var cubeSuffixes = [6][]string{
	{"posx", "right", "px"},
	{"negx", "left", "nx"},
	{"posy", "top", "up", "py"},
	{"negy", "bottom", "down", "ny"},
	{"posz", "front", "pz"},
	{"negz", "back", "nz"},
}

// CubeFaceOrder sorts six face file names into +X, -X, +Y, -Y, +Z, -Z order
// by their suffix. Names that do not map one to one onto the faces are
// returned in lexical order.
func CubeFaceOrder(files []string) ([6]string, error) {
	var out [6]string
	if len(files) != 6 {
		return out, fmt.Errorf("cube map needs 6 faces, got %d", len(files))
	}
	sorted := append([]string(nil), files...)
	sort.Strings(sorted)

	used := map[string]bool{}
	matched := 0
	for face, suffixes := range cubeSuffixes {
	files:
		for _, f := range sorted {
			base := strings.ToLower(strings.TrimSuffix(filepath.Base(f), filepath.Ext(f)))
			for _, s := range suffixes {
				if strings.HasSuffix(base, s) && !used[f] {
					out[face] = f
					used[f] = true
					matched++
					break files
				}
			}
		}
	}
	if matched != 6 {
		copy(out[:], sorted)
	}
	return out, nil
}

// LoadCubeImages loads the six faces matched by a glob pattern such as
// "textures/cube_*.jpg". Faces are not flipped: cube map lookups use a top
// left origin. Faces are resized to the size of the first one.
func LoadCubeImages(pattern string) ([6]render.TextureData, error) {
	var faces [6]render.TextureData

	files, err := filepath.Glob(pattern)
	if err != nil {
		return faces, fmt.Errorf("cube map pattern %q: %w", pattern, err)
	}
	ordered, err := CubeFaceOrder(files)
	if err != nil {
		return faces, fmt.Errorf("cube map pattern %q: %w", pattern, err)
	}

	var w, h int
	for i, f := range ordered {
		img, err := imgio.Open(f)
		if err != nil {
			return faces, fmt.Errorf("cube face %q: %w", f, err)
		}
		b := img.Bounds()
		if i == 0 {
			w, h = b.Dx(), b.Dy()
		} else if b.Dx() != w || b.Dy() != h {
			img = transform.Resize(img, w, h, transform.Linear)
		}
		faces[i] = toTextureData(img, false)
	}
	return faces, nil
}
