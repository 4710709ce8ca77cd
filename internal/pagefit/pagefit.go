// Package pagefit computes output raster geometry for placing one source
// image onto one document page, and applies the resulting resize/crop.
package pagefit

import (
	"fmt"
	"image"
	"math"

	xdraw "golang.org/x/image/draw"
)

// Mode is the page-placement policy.
type Mode string

const (
	// ModeFit scales the image to fit inside the content area, preserving aspect.
	ModeFit Mode = "fit"
	// ModeFill scales to cover the content area, then center-crops to it.
	ModeFill Mode = "fill"
	// ModeOriginal keeps the input size; it may exceed the content area.
	ModeOriginal Mode = "original"
	// ModeStretch forces the content area size, ignoring aspect ratio.
	ModeStretch Mode = "stretch"
)

// ParseMode validates a mode string.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeFit, ModeFill, ModeOriginal, ModeStretch:
		return Mode(s), nil
	}
	return "", fmt.Errorf("unknown fit mode %q", s)
}

// Geometry describes the physical page. Pixel dimensions are a pure function
// of the inch dimensions and DPI, so re-applying the same DPI is idempotent.
type Geometry struct {
	PageWidthInches  float64
	PageHeightInches float64
	MarginInches     float64
	DPI              int
}

// NewGeometry validates and builds a page geometry.
func NewGeometry(widthIn, heightIn, marginIn float64, dpi int) (Geometry, error) {
	g := Geometry{PageWidthInches: widthIn, PageHeightInches: heightIn, MarginInches: marginIn, DPI: dpi}
	if dpi <= 0 {
		return g, fmt.Errorf("dpi must be > 0, got %d", dpi)
	}
	if widthIn <= 0 || heightIn <= 0 {
		return g, fmt.Errorf("page dimensions must be > 0, got %.3fx%.3f in", widthIn, heightIn)
	}
	if marginIn < 0 {
		return g, fmt.Errorf("margin must be >= 0, got %.3f", marginIn)
	}
	if g.ContentWidth() <= 0 || g.ContentHeight() <= 0 {
		return g, fmt.Errorf("margin %.3f in leaves no content area", marginIn)
	}
	return g, nil
}

// WithDPI returns the same physical geometry at a different resolution.
func (g Geometry) WithDPI(dpi int) Geometry {
	g.DPI = dpi
	return g
}

func (g Geometry) px(inches float64) int {
	return int(math.Round(inches * float64(g.DPI)))
}

// PageWidth returns the page width in pixels at the geometry's DPI.
func (g Geometry) PageWidth() int { return g.px(g.PageWidthInches) }

// PageHeight returns the page height in pixels.
func (g Geometry) PageHeight() int { return g.px(g.PageHeightInches) }

// MarginPx returns the margin in pixels.
func (g Geometry) MarginPx() int { return g.px(g.MarginInches) }

// ContentWidth returns the page width minus both margins, never negative.
func (g Geometry) ContentWidth() int {
	return max(0, g.PageWidth()-2*g.MarginPx())
}

// ContentHeight returns the page height minus both margins, never negative.
func (g Geometry) ContentHeight() int {
	return max(0, g.PageHeight()-2*g.MarginPx())
}

// Options tune planning behavior.
type Options struct {
	// PreserveAspect false degrades fit and fill to stretch.
	PreserveAspect bool
	// AllowUpscale lets fit mode scale small images up to the content area.
	// When false (the default configuration) small images keep native size.
	AllowUpscale bool
}

// FitResult is the output raster geometry for one image on one page:
// the size to resize to, and for fill mode the crop applied afterwards.
// Produced fresh per export, never cached across geometries.
type FitResult struct {
	Width   int
	Height  int
	Crop    image.Rectangle
	HasCrop bool
}

// OutputWidth returns the final raster width after any crop.
func (r FitResult) OutputWidth() int {
	if r.HasCrop {
		return r.Crop.Dx()
	}
	return r.Width
}

// OutputHeight returns the final raster height after any crop.
func (r FitResult) OutputHeight() int {
	if r.HasCrop {
		return r.Crop.Dy()
	}
	return r.Height
}

// Plan computes the output raster size for an imgW x imgH source against g.
func Plan(imgW, imgH int, g Geometry, mode Mode, opts Options) (FitResult, error) {
	if imgW <= 0 || imgH <= 0 {
		return FitResult{}, fmt.Errorf("invalid source dimensions %dx%d", imgW, imgH)
	}
	cw, ch := g.ContentWidth(), g.ContentHeight()
	if cw <= 0 || ch <= 0 {
		return FitResult{}, fmt.Errorf("content area is empty (%dx%d)", cw, ch)
	}

	if mode == ModeOriginal {
		return FitResult{Width: imgW, Height: imgH}, nil
	}
	if mode == ModeStretch || !opts.PreserveAspect {
		return FitResult{Width: cw, Height: ch}, nil
	}

	sx := float64(cw) / float64(imgW)
	sy := float64(ch) / float64(imgH)

	switch mode {
	case ModeFit:
		scale := math.Min(sx, sy)
		if !opts.AllowUpscale && scale > 1 {
			scale = 1
		}
		w := min(cw, int(math.Round(float64(imgW)*scale)))
		h := min(ch, int(math.Round(float64(imgH)*scale)))
		return FitResult{Width: max(1, w), Height: max(1, h)}, nil

	case ModeFill:
		scale := math.Max(sx, sy)
		w := max(cw, int(math.Round(float64(imgW)*scale)))
		h := max(ch, int(math.Round(float64(imgH)*scale)))
		x0 := (w - cw) / 2
		y0 := (h - ch) / 2
		return FitResult{
			Width:   w,
			Height:  h,
			Crop:    image.Rect(x0, y0, x0+cw, y0+ch),
			HasCrop: true,
		}, nil
	}
	return FitResult{}, fmt.Errorf("unknown fit mode %q", mode)
}

// Apply resizes src per res and applies the crop when present. One resampling
// kernel is used for every resize in the pipeline so pages stay visually
// uniform.
func Apply(src image.Image, res FitResult) *image.RGBA {
	b := src.Bounds()
	var scaled *image.RGBA
	if res.Width == b.Dx() && res.Height == b.Dy() {
		scaled = image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		xdraw.Draw(scaled, scaled.Bounds(), src, b.Min, xdraw.Src)
	} else {
		scaled = image.NewRGBA(image.Rect(0, 0, res.Width, res.Height))
		xdraw.CatmullRom.Scale(scaled, scaled.Bounds(), src, b, xdraw.Src, nil)
	}
	if !res.HasCrop {
		return scaled
	}
	out := image.NewRGBA(image.Rect(0, 0, res.Crop.Dx(), res.Crop.Dy()))
	xdraw.Draw(out, out.Bounds(), scaled, res.Crop.Min, xdraw.Src)
	return out
}
