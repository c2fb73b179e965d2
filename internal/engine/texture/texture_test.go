package texture

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/bmp"
)

func TestToRGBAScalesDown(t *testing.T) {
	src := image.NewNRGBA(image.Rect(10, 10, 810, 410))
	got := ToRGBA(src, 400)
	if b := got.Bounds(); b.Dx() != 400 || b.Dy() != 200 || b.Min != (image.Point{}) {
		t.Errorf("bounds = %v, want 400x200 at origin", b)
	}
}

func TestToRGBAKeepsSmallImages(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 64, 32))
	src.SetRGBA(3, 4, color.RGBA{R: 200, A: 255})
	got := ToRGBA(src, 0)
	if got.Bounds().Dx() != 64 {
		t.Fatalf("width = %d", got.Bounds().Dx())
	}
	if c := got.RGBAAt(3, 4); c.R != 200 {
		t.Errorf("pixel = %v", c)
	}
}

func TestPlaceholder(t *testing.T) {
	img := Placeholder(360, 30)
	if b := img.Bounds(); b.Dx() != 360 || b.Dy() != 180 {
		t.Fatalf("bounds = %v", b)
	}
	if c := img.RGBAAt(15, 45); c != Ocean {
		t.Errorf("cell center = %v, want ocean", c)
	}
	if c := img.RGBAAt(30, 45); c != Graticule {
		t.Errorf("meridian = %v, want graticule", c)
	}
	if c := img.RGBAAt(15, 90); c != Equator {
		t.Errorf("equator = %v, want equator color", c)
	}
}

func TestLoadBMP(t *testing.T) {
	path := filepath.Join(t.TempDir(), "earth.bmp")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := bmp.Encode(f, Placeholder(128, 45)); err != nil {
		t.Fatal(err)
	}
	f.Close()

	img, err := Load(path, 64)
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 64 || b.Dy() != 32 {
		t.Errorf("bounds = %v, want 64x32", b)
	}
}

func TestLoadRejectsNonEquirectangular(t *testing.T) {
	path := filepath.Join(t.TempDir(), "square.bmp")
	f, _ := os.Create(path)
	bmp.Encode(f, image.NewRGBA(image.Rect(0, 0, 16, 16)))
	f.Close()

	if _, err := Load(path, 0); err == nil {
		t.Error("expected error for square image")
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.png"), 0); err == nil {
		t.Error("expected error for missing file")
	}
}
