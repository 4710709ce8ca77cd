// Package assemble runs one export job: validate sources, normalize and fit
// each image, and serialize the pages into a single PDF. A job either
// produces the complete document or nothing.
package assemble

import (
	"bytes"
	"context"
	"fmt"
	"image/jpeg"
	"io"
	"os"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"github.com/rs/zerolog/log"

	"github.com/local/pagebinder/internal/filetype"
	"github.com/local/pagebinder/internal/metrics"
	"github.com/local/pagebinder/internal/pagefit"
	"github.com/local/pagebinder/internal/source"
)

// State names one stage of an export job.
type State string

const (
	StateIdle        State = "idle"
	StateValidating  State = "validating"
	StateNormalizing State = "normalizing"
	StateFitting     State = "fitting"
	StateEncoding    State = "encoding"
	StateDone        State = "done"
	StateFailed      State = "failed"
)

// Progress is reported to the notifier as the job advances.
type Progress struct {
	State   State
	Page    int // 1-based page being worked on, 0 when not per-page
	Total   int
	Percent int
	Message string
}

// Notifier receives progress updates. May be nil.
type Notifier func(Progress)

// Config is the full export configuration surface.
type Config struct {
	Geometry    pagefit.Geometry
	Mode        pagefit.Mode
	Options     pagefit.Options
	JPEGQuality int    // 1..100
	WorkDir     string // temp dir for the in-flight document; "" = os default
}

// Result reports a completed job.
type Result struct {
	Destination string
	Pages       int
	Duration    time.Duration
}

// Assembler turns an ordered list of image locations into one multi-page PDF.
type Assembler struct {
	cfg      Config
	detector *filetype.Detector
}

// New creates an assembler for the given configuration.
func New(cfg Config) (*Assembler, error) {
	if cfg.JPEGQuality < 1 || cfg.JPEGQuality > 100 {
		return nil, fmt.Errorf("jpeg quality must be in 1..100, got %d", cfg.JPEGQuality)
	}
	if _, err := pagefit.ParseMode(string(cfg.Mode)); err != nil {
		return nil, err
	}
	return &Assembler{cfg: cfg, detector: filetype.New()}, nil
}

// Run executes one export job over a snapshot of ordered image locations.
// Any per-image failure aborts the whole job; no partial document is written.
func (a *Assembler) Run(ctx context.Context, locations []string, dest string, notify Notifier) (Result, error) {
	start := time.Now()
	res, err := a.run(ctx, locations, dest, notify)
	res.Duration = time.Since(start)

	metrics.ObserveExport(resultLabel(err), string(a.cfg.Mode), res.Pages, res.Duration)
	if err != nil {
		if notify != nil {
			notify(Progress{State: StateFailed, Percent: 100, Message: err.Error()})
		}
		log.Error().Err(err).Str("dest", dest).Int("images", len(locations)).Msg("export failed")
		return res, err
	}
	if notify != nil {
		notify(Progress{State: StateDone, Percent: 100, Message: fmt.Sprintf("wrote %d pages", res.Pages)})
	}
	log.Info().Str("dest", res.Destination).Int("pages", res.Pages).
		Dur("duration", res.Duration).Msg("export complete")
	return res, nil
}

func (a *Assembler) run(ctx context.Context, locations []string, dest string, notify Notifier) (Result, error) {
	total := len(locations)
	if total == 0 {
		return Result{}, &ValidationError{Message: "no images to export"}
	}
	if dest == "" {
		return Result{}, &ValidationError{Message: "no export destination"}
	}

	report := func(p Progress) {
		if notify != nil {
			p.Total = total
			notify(p)
		}
	}

	// Validating: every source must exist, be fetchable, and be a supported
	// raster format before any pixel work starts.
	report(Progress{State: StateValidating, Percent: 0, Message: "validating sources"})
	localPaths := make([]string, total)
	for i, loc := range locations {
		path, cleanup, err := source.Resolve(ctx, loc)
		if err != nil {
			return Result{}, &MissingSourceError{Path: loc}
		}
		defer cleanup()
		if _, err := os.Stat(path); err != nil {
			return Result{}, &MissingSourceError{Path: loc}
		}
		info, err := a.detector.Detect(path)
		if err != nil {
			return Result{}, &UnreadableImageError{Path: loc, Cause: err}
		}
		if !info.Supported {
			return Result{}, &UnreadableImageError{Path: loc, Cause: fmt.Errorf("unsupported format %s", info.MIMEType)}
		}
		localPaths[i] = path
	}

	// Normalizing + Fitting + per-page JPEG encode, in collection order.
	pageReaders := make([]io.Reader, 0, total)
	for i, path := range localPaths {
		report(Progress{State: StateNormalizing, Page: i + 1,
			Percent: 10 + 80*i/total, Message: fmt.Sprintf("processing image %d/%d", i+1, total)})

		img, err := DecodeNormalized(path)
		if err != nil {
			return Result{}, &UnreadableImageError{Path: locations[i], Cause: err}
		}

		report(Progress{State: StateFitting, Page: i + 1,
			Percent: 10 + 80*i/total + 80/(2*total), Message: fmt.Sprintf("fitting image %d/%d", i+1, total)})

		b := img.Bounds()
		plan, err := pagefit.Plan(b.Dx(), b.Dy(), a.cfg.Geometry, a.cfg.Mode, a.cfg.Options)
		if err != nil {
			return Result{}, &UnreadableImageError{Path: locations[i], Cause: err}
		}
		page := pagefit.Apply(img, plan)

		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, page, &jpeg.Options{Quality: a.cfg.JPEGQuality}); err != nil {
			return Result{}, &EncodingError{Destination: dest, Cause: err}
		}
		pageReaders = append(pageReaders, bytes.NewReader(buf.Bytes()))
	}

	// Encoding: all pages into one PDF, verified, then delivered atomically.
	report(Progress{State: StateEncoding, Percent: 90, Message: "assembling document"})
	tmp, err := os.CreateTemp(a.cfg.WorkDir, "pagebinder-*.pdf")
	if err != nil {
		return Result{}, &EncodingError{Destination: dest, Cause: err}
	}
	tmpPath := tmp.Name()
	discard := func() { _ = os.Remove(tmpPath) }

	if err := a.writePDF(tmp, pageReaders); err != nil {
		tmp.Close()
		discard()
		return Result{}, &EncodingError{Destination: dest, Cause: err}
	}
	if err := tmp.Close(); err != nil {
		discard()
		return Result{}, &EncodingError{Destination: dest, Cause: err}
	}

	n, err := api.PageCountFile(tmpPath)
	if err != nil || n != total {
		discard()
		if err == nil {
			err = fmt.Errorf("expected %d pages, produced %d", total, n)
		}
		return Result{}, &EncodingError{Destination: dest, Cause: err}
	}

	if err := source.Deliver(ctx, tmpPath, dest); err != nil {
		discard()
		return Result{}, &EncodingError{Destination: dest, Cause: err}
	}
	return Result{Destination: dest, Pages: total}, nil
}

// writePDF serializes the fitted page rasters into w, one page per image.
// Page rasters carry DPI-many pixels per inch, so they are placed at
// 72/DPI points per pixel to land at physical size; uniform margins make the
// page center coincide with the content-area center.
func (a *Assembler) writePDF(w io.Writer, pages []io.Reader) error {
	g := a.cfg.Geometry
	desc := fmt.Sprintf("dimensions:%.2f %.2f, position:c, scalefactor:%.4f abs",
		g.PageWidthInches*72, g.PageHeightInches*72, 72/float64(g.DPI))
	imp, err := api.Import(desc, types.POINTS)
	if err != nil {
		return fmt.Errorf("import config: %w", err)
	}
	conf := model.NewDefaultConfiguration()
	if err := api.ImportImages(nil, w, pages, imp, conf); err != nil {
		return fmt.Errorf("import images: %w", err)
	}
	return nil
}

func resultLabel(err error) string {
	switch err.(type) {
	case nil:
		return "success"
	case *MissingSourceError:
		return "missing_source"
	case *UnreadableImageError:
		return "unreadable_image"
	case *EncodingError:
		return "encoding_failure"
	default:
		return "failed"
	}
}
