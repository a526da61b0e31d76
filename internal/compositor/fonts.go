package compositor

import (
	"fmt"
	"sync"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/goregular"
)

// fontKind selects which typeface a caption style draws with.
type fontKind int

const (
	fontHeavy    fontKind = iota // display weight for classic/modern/neon/comic
	fontRegular                  // minimal
	fontMono                     // glitch
	fontMonoBold                 // box
)

var parsedFonts struct {
	once sync.Once
	err  error
	ttfs map[fontKind]*truetype.Font
}

func loadFonts() (map[fontKind]*truetype.Font, error) {
	parsedFonts.once.Do(func() {
		sources := map[fontKind][]byte{
			fontHeavy:    gobold.TTF,
			fontRegular:  goregular.TTF,
			fontMono:     gomono.TTF,
			fontMonoBold: gomonobold.TTF,
		}
		ttfs := make(map[fontKind]*truetype.Font, len(sources))
		for kind, data := range sources {
			f, err := truetype.Parse(data)
			if err != nil {
				parsedFonts.err = fmt.Errorf("parse embedded font: %w", err)
				return
			}
			ttfs[kind] = f
		}
		parsedFonts.ttfs = ttfs
	})
	return parsedFonts.ttfs, parsedFonts.err
}

// faceCache hands out font.Face values per (kind, size). Faces are not safe
// for concurrent use, so the cache is owned by a single Renderer.
type faceCache struct {
	ttfs  map[fontKind]*truetype.Font
	faces map[faceKey]font.Face
}

type faceKey struct {
	kind fontKind
	size int
}

func newFaceCache() (*faceCache, error) {
	ttfs, err := loadFonts()
	if err != nil {
		return nil, err
	}
	return &faceCache{ttfs: ttfs, faces: make(map[faceKey]font.Face)}, nil
}

func (c *faceCache) face(kind fontKind, size int) font.Face {
	key := faceKey{kind: kind, size: size}
	if f, ok := c.faces[key]; ok {
		return f
	}
	f := truetype.NewFace(c.ttfs[kind], &truetype.Options{
		Size: float64(size),
		DPI:  72,
	})
	c.faces[key] = f
	return f
}
