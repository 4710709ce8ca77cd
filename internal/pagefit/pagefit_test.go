package pagefit

import (
	"image"
	"image/color"
	"math"
	"testing"
)

// geometry with a 1000x1400 content area at 100 DPI, no margin
func contentGeometry(t *testing.T) Geometry {
	t.Helper()
	g, err := NewGeometry(10, 14, 0, 100)
	if err != nil {
		t.Fatalf("NewGeometry: %v", err)
	}
	return g
}

func TestGeometryPixels(t *testing.T) {
	g, err := NewGeometry(8.5, 11, 0.5, 200)
	if err != nil {
		t.Fatalf("NewGeometry: %v", err)
	}
	if got := g.PageWidth(); got != 1700 {
		t.Errorf("PageWidth = %d; want 1700", got)
	}
	if got := g.PageHeight(); got != 2200 {
		t.Errorf("PageHeight = %d; want 2200", got)
	}
	if got := g.ContentWidth(); got != 1500 {
		t.Errorf("ContentWidth = %d; want 1500", got)
	}
	if got := g.ContentHeight(); got != 2000 {
		t.Errorf("ContentHeight = %d; want 2000", got)
	}
}

// Re-applying the same DPI must be a no-op.
func TestGeometryDPIIdempotent(t *testing.T) {
	g, _ := NewGeometry(8.27, 11.69, 0.25, 72)
	once := g.WithDPI(300)
	twice := g.WithDPI(300).WithDPI(300)
	if once != twice {
		t.Errorf("WithDPI not idempotent: %+v vs %+v", once, twice)
	}
	if once.ContentWidth() != twice.ContentWidth() || once.ContentHeight() != twice.ContentHeight() {
		t.Error("content dimensions differ after repeated WithDPI")
	}
}

func TestNewGeometryRejectsBadInput(t *testing.T) {
	tests := []struct {
		name         string
		w, h, margin float64
		dpi          int
	}{
		{"zero dpi", 8, 10, 0, 0},
		{"negative margin", 8, 10, -1, 72},
		{"zero width", 0, 10, 0, 72},
		{"margin swallows page", 8, 10, 4, 72},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewGeometry(tc.w, tc.h, tc.margin, tc.dpi); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

// 2000x1000 source into 1000x1400 content: scale = min(0.5, 1.4) = 0.5.
func TestPlanFitScenario(t *testing.T) {
	g := contentGeometry(t)
	res, err := Plan(2000, 1000, g, ModeFit, Options{PreserveAspect: true, AllowUpscale: true})
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if res.Width != 1000 || res.Height != 500 {
		t.Errorf("fit output = %dx%d; want 1000x500", res.Width, res.Height)
	}
	if res.HasCrop {
		t.Error("fit mode must not crop")
	}
}

// Same inputs, fill: scale = max(0.5, 1.4) = 1.4 -> 2800x1400, crop to 1000x1400.
func TestPlanFillScenario(t *testing.T) {
	g := contentGeometry(t)
	res, err := Plan(2000, 1000, g, ModeFill, Options{PreserveAspect: true})
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if res.Width != 2800 || res.Height != 1400 {
		t.Errorf("fill resize = %dx%d; want 2800x1400", res.Width, res.Height)
	}
	if !res.HasCrop {
		t.Fatal("fill mode must crop")
	}
	if res.Crop.Min.X != 900 || res.Crop.Min.Y != 0 {
		t.Errorf("crop origin = %v; want (900,0)", res.Crop.Min)
	}
	if res.OutputWidth() != 1000 || res.OutputHeight() != 1400 {
		t.Errorf("fill output = %dx%d; want exactly content 1000x1400", res.OutputWidth(), res.OutputHeight())
	}
}

func TestPlanFitNeverExceedsContentAndKeepsAspect(t *testing.T) {
	g := contentGeometry(t)
	dims := []struct{ w, h int }{
		{2000, 1000}, {333, 777}, {10000, 9999}, {1, 1}, {1400, 1000}, {997, 1399},
	}
	for _, d := range dims {
		res, err := Plan(d.w, d.h, g, ModeFit, Options{PreserveAspect: true, AllowUpscale: true})
		if err != nil {
			t.Fatalf("Plan(%dx%d): %v", d.w, d.h, err)
		}
		if res.Width > g.ContentWidth() || res.Height > g.ContentHeight() {
			t.Errorf("fit %dx%d output %dx%d exceeds content area", d.w, d.h, res.Width, res.Height)
		}
		wantRatio := float64(d.w) / float64(d.h)
		gotRatio := float64(res.Width) / float64(res.Height)
		if res.Width > 2 && res.Height > 2 && math.Abs(gotRatio-wantRatio)/wantRatio > 0.02 {
			t.Errorf("fit %dx%d aspect %v; want ~%v", d.w, d.h, gotRatio, wantRatio)
		}
	}
}

func TestPlanFillAlwaysExactContent(t *testing.T) {
	g := contentGeometry(t)
	dims := []struct{ w, h int }{{2000, 1000}, {100, 100}, {3, 5000}, {1399, 999}}
	for _, d := range dims {
		res, err := Plan(d.w, d.h, g, ModeFill, Options{PreserveAspect: true})
		if err != nil {
			t.Fatalf("Plan(%dx%d): %v", d.w, d.h, err)
		}
		if res.OutputWidth() != g.ContentWidth() || res.OutputHeight() != g.ContentHeight() {
			t.Errorf("fill %dx%d output %dx%d; want %dx%d",
				d.w, d.h, res.OutputWidth(), res.OutputHeight(), g.ContentWidth(), g.ContentHeight())
		}
	}
}

func TestPlanNoUpscaleKeepsNativeSize(t *testing.T) {
	g := contentGeometry(t)
	res, err := Plan(400, 300, g, ModeFit, Options{PreserveAspect: true, AllowUpscale: false})
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if res.Width != 400 || res.Height != 300 {
		t.Errorf("no-upscale fit = %dx%d; want native 400x300", res.Width, res.Height)
	}

	up, err := Plan(400, 300, g, ModeFit, Options{PreserveAspect: true, AllowUpscale: true})
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if up.Width != 1000 || up.Height != 750 {
		t.Errorf("upscale fit = %dx%d; want 1000x750", up.Width, up.Height)
	}
}

func TestPlanOriginalAndStretch(t *testing.T) {
	g := contentGeometry(t)

	orig, err := Plan(5000, 4000, g, ModeOriginal, Options{PreserveAspect: true})
	if err != nil {
		t.Fatalf("Plan original: %v", err)
	}
	if orig.Width != 5000 || orig.Height != 4000 {
		t.Errorf("original = %dx%d; want input size unchanged", orig.Width, orig.Height)
	}

	st, err := Plan(5000, 4000, g, ModeStretch, Options{})
	if err != nil {
		t.Fatalf("Plan stretch: %v", err)
	}
	if st.Width != 1000 || st.Height != 1400 {
		t.Errorf("stretch = %dx%d; want content 1000x1400", st.Width, st.Height)
	}

	// preserveAspect=false degrades fit to stretch
	flat, err := Plan(2000, 1000, g, ModeFit, Options{PreserveAspect: false})
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if flat.Width != 1000 || flat.Height != 1400 {
		t.Errorf("aspect-off fit = %dx%d; want 1000x1400", flat.Width, flat.Height)
	}
}

func TestPlanRejectsBadSource(t *testing.T) {
	g := contentGeometry(t)
	if _, err := Plan(0, 100, g, ModeFit, Options{PreserveAspect: true}); err == nil {
		t.Error("expected error for zero-width source")
	}
}

func TestParseMode(t *testing.T) {
	for _, s := range []string{"fit", "fill", "original", "stretch"} {
		if _, err := ParseMode(s); err != nil {
			t.Errorf("ParseMode(%q) unexpected error: %v", s, err)
		}
	}
	if _, err := ParseMode("tile"); err == nil {
		t.Error("ParseMode(tile) should fail")
	}
}

func TestApplyResizeAndCrop(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 200, 100))
	for y := 0; y < 100; y++ {
		for x := 0; x < 200; x++ {
			src.Set(x, y, color.RGBA{R: 200, G: 10, B: 10, A: 255})
		}
	}

	g := contentGeometry(t)
	res, err := Plan(200, 100, g, ModeFill, Options{PreserveAspect: true})
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	out := Apply(src, res)
	if out.Bounds().Dx() != g.ContentWidth() || out.Bounds().Dy() != g.ContentHeight() {
		t.Errorf("Apply output = %v; want %dx%d", out.Bounds(), g.ContentWidth(), g.ContentHeight())
	}
	r, _, _, a := out.At(500, 700).RGBA()
	if a != 0xffff || r>>8 < 150 {
		t.Errorf("unexpected center pixel after resize: r=%d a=%d", r>>8, a>>8)
	}
}

func TestApplyIdentity(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 40, 30))
	out := Apply(src, FitResult{Width: 40, Height: 30})
	if out.Bounds().Dx() != 40 || out.Bounds().Dy() != 30 {
		t.Errorf("identity Apply changed size: %v", out.Bounds())
	}
}
