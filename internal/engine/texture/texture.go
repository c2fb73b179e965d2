// Package texture loads and prepares the equirectangular globe texture.
package texture

import (
	"fmt"
	"image"
	"image/color"
	stddraw "image/draw"
	_ "image/jpeg" // JPEG decoder registration
	_ "image/png"  // PNG decoder registration
	"os"

	_ "golang.org/x/image/bmp" // BMP decoder registration
	"golang.org/x/image/draw"
)

// MaxSize is the default upper bound for the texture width.
const MaxSize = 4096

// Load decodes an image file and converts it for upload.
func Load(path string, maxWidth int) (*image.RGBA, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	if b := img.Bounds(); b.Dx() != 2*b.Dy() {
		return nil, fmt.Errorf("%s (%s) is %dx%d, want a 2:1 equirectangular image", path, format, b.Dx(), b.Dy())
	}
	return ToRGBA(img, maxWidth), nil
}

// ToRGBA returns img as RGBA with its origin at (0, 0), scaled down so the
// width does not exceed maxWidth. maxWidth <= 0 keeps the original size.
func ToRGBA(img image.Image, maxWidth int) *image.RGBA {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if maxWidth > 0 && w > maxWidth {
		h = h * maxWidth / w
		w = maxWidth
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	if w == b.Dx() && h == b.Dy() {
		stddraw.Draw(dst, dst.Bounds(), img, b.Min, stddraw.Src)
		return dst
	}
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

// Palette colors the placeholder texture.
var (
	Ocean     = color.RGBA{R: 18, G: 42, B: 74, A: 255}
	Graticule = color.RGBA{R: 70, G: 110, B: 150, A: 255}
	Equator   = color.RGBA{R: 140, G: 180, B: 210, A: 255}
)

// Placeholder draws an equirectangular ocean with a graticule every step
// degrees, used when no texture file is configured.
func Placeholder(width int, step float64) *image.RGBA {
	height := width / 2
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	stddraw.Draw(img, img.Bounds(), &image.Uniform{C: Ocean}, image.Point{}, stddraw.Src)
	if step <= 0 {
		return img
	}

	perDeg := float64(width) / 360
	for lon := 0.0; lon < 360; lon += step {
		x := int(lon * perDeg)
		for y := 0; y < height; y++ {
			img.SetRGBA(x, y, Graticule)
		}
	}
	for lat := -90 + step; lat < 90; lat += step {
		y := int((90 - lat) * perDeg)
		c := Graticule
		if lat == 0 {
			c = Equator
		}
		for x := 0; x < width; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}
