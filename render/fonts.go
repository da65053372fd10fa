package render

import (
	"math"
	"sync"

	"github.com/cockroachdb/errors"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

var (
	regularOnce sync.Once
	regular     *opentype.Font
	regularErr  error
)

func loadRegular() (*opentype.Font, error) {
	regularOnce.Do(func() {
		regular, regularErr = opentype.Parse(goregular.TTF)
		if regularErr != nil {
			regularErr = errors.Wrap(regularErr, "parsing label font")
		}
	})
	return regular, regularErr
}

// faceCache keeps one face per label size, rounded to a quarter pixel
type faceCache struct {
	font  *opentype.Font
	faces map[float64]font.Face
}

func newFaceCache() (*faceCache, error) {
	f, err := loadRegular()
	if err != nil {
		return nil, err
	}
	return &faceCache{font: f, faces: make(map[float64]font.Face)}, nil
}

func (c *faceCache) face(size float64) font.Face {
	key := math.Round(size*4) / 4
	if face, ok := c.faces[key]; ok {
		return face
	}
	face, err := opentype.NewFace(c.font, &opentype.FaceOptions{
		Size:    key,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		// Only fails for a non-positive size, which LabelFontSize never returns
		panic(err)
	}
	c.faces[key] = face
	return face
}

// measure returns the advance width of text in pixels
func (c *faceCache) measure(size float64, text string) float64 {
	return fromFixed(font.MeasureString(c.face(size), text))
}

func fromFixed(v fixed.Int26_6) float64 {
	return float64(v) / 64
}

func toFixed(v float64) fixed.Int26_6 {
	return fixed.Int26_6(math.Round(v * 64))
}
