package preview

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/local/pagebinder/internal/assemble"
	"github.com/local/pagebinder/internal/pagefit"
)

func writePNG(t *testing.T, name string, w, h int) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: 30, G: 120, B: 200, A: 255})
		}
	}
	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestThumbnailDownscalesLongEdge(t *testing.T) {
	path := writePNG(t, "wide.png", 600, 300)
	img, err := Thumbnail(path, 150)
	if err != nil {
		t.Fatalf("Thumbnail: %v", err)
	}
	b := img.Bounds()
	if b.Dx() != 150 || b.Dy() != 75 {
		t.Errorf("thumbnail = %dx%d; want 150x75", b.Dx(), b.Dy())
	}
}

func TestThumbnailPortrait(t *testing.T) {
	path := writePNG(t, "tall.png", 200, 800)
	img, err := Thumbnail(path, 150)
	if err != nil {
		t.Fatalf("Thumbnail: %v", err)
	}
	b := img.Bounds()
	if b.Dy() != 150 {
		t.Errorf("long edge = %d; want 150", b.Dy())
	}
	if b.Dx() != 37 {
		t.Errorf("short edge = %d; want 37", b.Dx())
	}
}

func TestThumbnailNeverUpscales(t *testing.T) {
	path := writePNG(t, "small.png", 40, 20)
	img, err := Thumbnail(path, 150)
	if err != nil {
		t.Fatalf("Thumbnail: %v", err)
	}
	b := img.Bounds()
	if b.Dx() != 40 || b.Dy() != 20 {
		t.Errorf("small image resized to %dx%d; want untouched 40x20", b.Dx(), b.Dy())
	}
}

func TestThumbnailDefaultEdge(t *testing.T) {
	path := writePNG(t, "big.png", 500, 500)
	img, err := Thumbnail(path, 0)
	if err != nil {
		t.Fatalf("Thumbnail: %v", err)
	}
	if img.Bounds().Dx() != 150 {
		t.Errorf("default max edge = %d; want 150", img.Bounds().Dx())
	}
}

func TestThumbnailMissingFile(t *testing.T) {
	if _, err := Thumbnail(filepath.Join(t.TempDir(), "nope.png"), 150); err == nil {
		t.Error("expected error for missing file")
	}
}

// assemblePDF builds a real two-page document on a 4x6 in page.
func assemblePDF(t *testing.T) string {
	t.Helper()
	g, err := pagefit.NewGeometry(4, 6, 0.25, 72)
	if err != nil {
		t.Fatal(err)
	}
	asm, err := assemble.New(assemble.Config{
		Geometry:    g,
		Mode:        pagefit.ModeFit,
		Options:     pagefit.Options{PreserveAspect: true},
		JPEGQuality: 85,
		WorkDir:     t.TempDir(),
	})
	if err != nil {
		t.Fatal(err)
	}
	dest := filepath.Join(t.TempDir(), "doc.pdf")
	_, err = asm.Run(context.Background(), []string{
		writePNG(t, "one.png", 120, 90),
		writePNG(t, "two.png", 90, 120),
	}, dest, nil)
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	return dest
}

func TestRenderPageToJPEG(t *testing.T) {
	pdf := assemblePDF(t)

	data, w, h, err := RenderPageToJPEG(pdf, 1, 96, 80)
	if err != nil {
		t.Fatalf("RenderPageToJPEG: %v", err)
	}
	// 4x6 in at 96 DPI
	if w < 382 || w > 386 || h < 574 || h > 578 {
		t.Errorf("rendered page = %dx%d; want ~384x576", w, h)
	}

	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("output is not a decodable JPEG: %v", err)
	}
	if img.Bounds().Dx() != w || img.Bounds().Dy() != h {
		t.Errorf("reported %dx%d but decoded %v", w, h, img.Bounds())
	}
}

func TestRenderPageToJPEGSecondPage(t *testing.T) {
	pdf := assemblePDF(t)
	if _, _, _, err := RenderPageToJPEG(pdf, 2, 72, 80); err != nil {
		t.Errorf("page 2 must render: %v", err)
	}
}

func TestRenderPageToJPEGBadInputs(t *testing.T) {
	pdf := assemblePDF(t)
	if _, _, _, err := RenderPageToJPEG(pdf, 99, 96, 80); err == nil {
		t.Error("expected error for page beyond document")
	}
	if _, _, _, err := RenderPageToJPEG(filepath.Join(t.TempDir(), "absent.pdf"), 1, 96, 80); err == nil {
		t.Error("expected error for missing document")
	}
}
