// Package doccheck inspects an assembled PDF: page count and per-page
// physical dimensions. Used to verify that an exported document carries
// exactly the pages and geometry the job was configured for.
package doccheck

import (
	"errors"
	"fmt"
)

// PageInfo describes one page of an inspected document.
type PageInfo struct {
	Index    int     `json:"index"` // 0-based
	WidthPt  float64 `json:"width_pt"`
	HeightPt float64 `json:"height_pt"`
}

// Summary is the result of inspecting a whole document.
type Summary struct {
	FilePath   string     `json:"file_path"`
	TotalPages int        `json:"total_pages"`
	Pages      []PageInfo `json:"pages"`
}

// Doc abstracts an openable paged document.
type Doc interface {
	NumPage() int
	PageSize(i int) (wPt, hPt float64, err error)
	Close() error
}

// Opener opens a document path into a Doc.
type Opener interface {
	Open(path string) (Doc, error)
}

// defaultOpener is provided in open_fitz.go.
var defaultOpener Opener

func setDefaultOpener(o Opener) { defaultOpener = o }

// Inspect opens the document at path and reports its page geometry.
func Inspect(path string) (*Summary, error) {
	if defaultOpener == nil {
		return nil, errors.New("no document opener configured")
	}
	doc, err := defaultOpener.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open document: %w", err)
	}
	defer doc.Close()

	sum := &Summary{FilePath: path, TotalPages: doc.NumPage()}
	for i := 0; i < sum.TotalPages; i++ {
		w, h, err := doc.PageSize(i)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i, err)
		}
		sum.Pages = append(sum.Pages, PageInfo{Index: i, WidthPt: w, HeightPt: h})
	}
	return sum, nil
}

// UniformPageSize reports whether every page has the same dimensions, within
// tolerance points, and returns those dimensions. Rotated or mixed-size
// documents return false.
func (s *Summary) UniformPageSize(tolerancePt float64) (wPt, hPt float64, uniform bool) {
	if len(s.Pages) == 0 {
		return 0, 0, false
	}
	wPt, hPt = s.Pages[0].WidthPt, s.Pages[0].HeightPt
	for _, p := range s.Pages[1:] {
		if abs(p.WidthPt-wPt) > tolerancePt || abs(p.HeightPt-hPt) > tolerancePt {
			return wPt, hPt, false
		}
	}
	return wPt, hPt, true
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
