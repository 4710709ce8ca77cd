package assemble

import "fmt"

// MissingSourceError: a referenced file no longer exists at job start.
type MissingSourceError struct {
	Path string
}

func (e *MissingSourceError) Error() string {
	return fmt.Sprintf("missing source: %s", e.Path)
}

// UnreadableImageError: the file exists but cannot be decoded as a
// supported raster image.
type UnreadableImageError struct {
	Path  string
	Cause error
}

func (e *UnreadableImageError) Error() string {
	return fmt.Sprintf("unreadable image %s: %v", e.Path, e.Cause)
}

func (e *UnreadableImageError) Unwrap() error { return e.Cause }

// EncodingError: the final assembly or write step failed. No partial
// document is left behind.
type EncodingError struct {
	Destination string
	Cause       error
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("encoding to %s failed: %v", e.Destination, e.Cause)
}

func (e *EncodingError) Unwrap() error { return e.Cause }

// ValidationError: the job was rejected before any processing started.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s", e.Message)
}
