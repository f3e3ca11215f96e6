package upload

import (
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// File is an uploaded file held in memory.
type File struct {
	Filename string
	Size     int64
	Data     []byte
}

// Extension returns the lower-cased extension of the client file name
// without the dot, falling back to the sniffed content type.
func (f *File) Extension() string {
	if ext := strings.TrimPrefix(filepath.Ext(f.Filename), "."); ext != "" {
		return strings.ToLower(ext)
	}
	return strings.TrimPrefix(mimetype.Detect(f.Data).Extension(), ".")
}

// ContentType sniffs the MIME type from the file content.
func (f *File) ContentType() string {
	return mimetype.Detect(f.Data).String()
}

// Constraints describes the accepted logo uploads.
type Constraints struct {
	MaxSizeMB    int      `json:"max_size_mb"`
	MinWidth     int      `json:"min_width"`
	MinHeight    int      `json:"min_height"`
	AllowedTypes []string `json:"allowed_types"`
	MaxWidth     int      `json:"max_width"`
	MaxHeight    int      `json:"max_height"`
}

// MaxBytes is MaxSizeMB in bytes.
func (c Constraints) MaxBytes() int64 {
	return int64(c.MaxSizeMB) << 20
}

// AllowedMIMETypes lists the content types accepted for logos.
var AllowedMIMETypes = []string{"image/jpeg", "image/png", "image/gif"}

func DefaultConstraints() Constraints {
	return Constraints{
		MaxSizeMB:    2,
		MinWidth:     100,
		MinHeight:    100,
		AllowedTypes: []string{"jpeg", "png", "jpg", "gif"},
		MaxWidth:     2000,
		MaxHeight:    2000,
	}
}
