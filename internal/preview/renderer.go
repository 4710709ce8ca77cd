// Package preview produces shell-facing previews: thumbnails of source
// images and rendered pages of an exported document.
package preview

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"

	"github.com/gen2brain/go-fitz"
	"github.com/rs/zerolog/log"
	xdraw "golang.org/x/image/draw"

	"github.com/local/pagebinder/internal/assemble"
)

// RenderPageToJPEG renders one page of an exported PDF as an in-memory JPEG.
// pageNum is 1-based. Returns JPEG bytes, width, height.
func RenderPageToJPEG(pdfPath string, pageNum, dpi, quality int) ([]byte, int, int, error) {
	doc, err := fitz.New(pdfPath)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	// go-fitz uses 0-based indexing
	img, err := doc.ImageDPI(pageNum-1, float64(dpi))
	if err != nil {
		return nil, 0, 0, fmt.Errorf("failed to render page %d: %w", pageNum, err)
	}

	bounds := img.Bounds()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, 0, 0, fmt.Errorf("failed to encode JPEG: %w", err)
	}

	log.Debug().
		Int("page", pageNum).
		Int("width", bounds.Dx()).
		Int("height", bounds.Dy()).
		Int("dpi", dpi).
		Msg("rendered document page preview")
	return buf.Bytes(), bounds.Dx(), bounds.Dy(), nil
}

// Thumbnail loads the image at path and scales it to fit inside a
// maxEdge x maxEdge box, preserving aspect ratio. Images already inside the
// box keep their size. Uses the pipeline's normalization so thumbnails show
// the orientation and background the export will have.
func Thumbnail(path string, maxEdge int) (image.Image, error) {
	if maxEdge <= 0 {
		maxEdge = 150
	}
	src, err := assemble.DecodeNormalized(path)
	if err != nil {
		return nil, err
	}
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= maxEdge && h <= maxEdge {
		return src, nil
	}

	scale := float64(maxEdge) / float64(w)
	if h > w {
		scale = float64(maxEdge) / float64(h)
	}
	tw := max(1, int(float64(w)*scale))
	th := max(1, int(float64(h)*scale))

	dst := image.NewRGBA(image.Rect(0, 0, tw, th))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, b, xdraw.Src, nil)
	return dst, nil
}
