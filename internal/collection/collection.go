// Package collection holds the ordered set of source images for one session
// and the selection state over it. Order in the collection is the page order
// of the exported document.
package collection

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"sort"
	"sync"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/local/pagebinder/internal/metrics"
)

// ImageRef identifies one source image by location. Intrinsic pixel
// dimensions and format are resolved lazily on first use and cached;
// the ref itself is immutable.
type ImageRef struct {
	Location string

	once   sync.Once
	width  int
	height int
	format string
	err    error
}

// NewImageRef creates a ref for a local path or URI.
func NewImageRef(location string) *ImageRef {
	return &ImageRef{Location: location}
}

// Probe resolves intrinsic width, height and format without decoding pixel
// data. Only meaningful for local paths; remote refs are probed after the
// export pipeline has fetched them.
func (r *ImageRef) Probe() (width, height int, format string, err error) {
	r.once.Do(func() {
		f, openErr := os.Open(r.Location)
		if openErr != nil {
			r.err = openErr
			return
		}
		defer f.Close()
		cfg, fmtName, decErr := image.DecodeConfig(f)
		if decErr != nil {
			r.err = fmt.Errorf("probe %s: %w", r.Location, decErr)
			return
		}
		r.width, r.height, r.format = cfg.Width, cfg.Height, fmtName
	})
	return r.width, r.height, r.format, r.err
}

// Collection is an ordered sequence of image refs. Indices are always
// contiguous 0..N-1. It is not synchronized; the owning session serializes
// access (single-writer discipline).
type Collection struct {
	refs []*ImageRef
}

// New returns an empty collection.
func New() *Collection {
	return &Collection{}
}

// Set replaces the entire sequence. Any order is accepted, duplicates
// included; a bulk selection is taken as-is.
func (c *Collection) Set(locations []string) {
	c.refs = make([]*ImageRef, 0, len(locations))
	for _, loc := range locations {
		c.refs = append(c.refs, NewImageRef(loc))
	}
	metrics.ObserveCollectionOp("set", true)
}

// Add appends a single location unless it is already present. Returns true
// when the collection changed. The duplicate policy intentionally differs
// from Set: one-at-a-time additions dedup, bulk selections do not.
func (c *Collection) Add(location string) bool {
	for _, ref := range c.refs {
		if ref.Location == location {
			metrics.ObserveCollectionOp("add", false)
			return false
		}
	}
	c.refs = append(c.refs, NewImageRef(location))
	metrics.ObserveCollectionOp("add", true)
	return true
}

// RemoveAt removes the entries at the given indices and returns the original
// indices that were actually removed. Indices outside [0,N) are ignored;
// duplicates in the request count once. Removal happens in descending order
// so earlier removals never shift later targets.
func (c *Collection) RemoveAt(indices []int) []int {
	sorted := append([]int(nil), indices...)
	sort.Sort(sort.Reverse(sort.IntSlice(sorted)))

	var removed []int
	prev := -1
	for _, idx := range sorted {
		if idx == prev {
			continue
		}
		prev = idx
		if idx < 0 || idx >= len(c.refs) {
			continue
		}
		c.refs = append(c.refs[:idx], c.refs[idx+1:]...)
		removed = append(removed, idx)
	}
	metrics.ObserveCollectionOp("remove", len(removed) > 0)
	return removed
}

// MoveTo pops the entry at from and reinserts it at to. Returns true when a
// move happened; equal or out-of-range indices are silent no-ops.
func (c *Collection) MoveTo(from, to int) bool {
	if from == to || from < 0 || to < 0 || from >= len(c.refs) || to >= len(c.refs) {
		metrics.ObserveCollectionOp("move", false)
		return false
	}
	ref := c.refs[from]
	c.refs = append(c.refs[:from], c.refs[from+1:]...)
	c.refs = append(c.refs[:to], append([]*ImageRef{ref}, c.refs[to:]...)...)
	metrics.ObserveCollectionOp("move", true)
	return true
}

// Clear removes all entries.
func (c *Collection) Clear() {
	c.refs = nil
}

// Len returns the number of entries.
func (c *Collection) Len() int { return len(c.refs) }

// HasImages reports whether the collection is non-empty.
func (c *Collection) HasImages() bool { return len(c.refs) > 0 }

// Ref returns the entry at i, or nil when out of range.
func (c *Collection) Ref(i int) *ImageRef {
	if i < 0 || i >= len(c.refs) {
		return nil
	}
	return c.refs[i]
}

// Locations returns a snapshot of the ordered locations. The export job
// captures this once at start; later mutations do not affect it.
func (c *Collection) Locations() []string {
	out := make([]string, len(c.refs))
	for i, ref := range c.refs {
		out[i] = ref.Location
	}
	return out
}
