package filetype

import (
	"fmt"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog/log"
)

// Info contains detected file type information.
type Info struct {
	MIMEType    string
	Extension   string
	Supported   bool
	Description string
}

// supportedRasters maps MIME types the assembly pipeline can decode to a
// human description. Matches the formats offered in the file picker.
var supportedRasters = map[string]string{
	"image/png":  "PNG image",
	"image/jpeg": "JPEG image",
	"image/gif":  "GIF image",
	"image/bmp":  "Bitmap image",
	"image/tiff": "TIFF image",
	"image/webp": "WebP image",
}

// Detector identifies raster image files using magic bytes.
type Detector struct{}

// New creates a new file type detector.
func New() *Detector {
	return &Detector{}
}

// Detect reads magic bytes from filePath and reports whether the file is a
// raster format the pipeline supports. The filename extension is never
// trusted.
func (d *Detector) Detect(filePath string) (*Info, error) {
	mtype, err := mimetype.DetectFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to detect file type: %w", err)
	}

	mimeType := mtype.String()
	desc, ok := supportedRasters[mimeType]
	if !ok {
		desc = "unsupported format"
	}

	log.Debug().Str("mime", mimeType).Str("ext", mtype.Extension()).Str("file", filePath).Msg("detected file type")

	return &Info{
		MIMEType:    mimeType,
		Extension:   mtype.Extension(),
		Supported:   ok,
		Description: desc,
	}, nil
}
