// Package upload stores company logos on a storage backend and keeps them
// within display size.
package upload

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"math"
	"path"
	"strings"
	"time"

	"github.com/gartstein/minicrm/internal/crm/storage"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/image/draw"
)

const (
	LogoDirectory = "logos"
	// MaxDisplaySize bounds both sides of an optimised logo.
	MaxDisplaySize = 800
	JPEGQuality    = 85
)

type Service struct {
	backend     storage.Backend
	logger      *zap.Logger
	optimize    bool
	constraints Constraints
	now         func() time.Time
}

func NewService(backend storage.Backend, logger *zap.Logger, optimize bool) *Service {
	return &Service{
		backend:     backend,
		logger:      logger.Named("upload"),
		optimize:    optimize,
		constraints: DefaultConstraints(),
		now:         time.Now,
	}
}

func (s *Service) Constraints() Constraints {
	return s.constraints
}

// SetMaxBytes sets the logo size limit, rounded down to whole megabytes.
// Limits under one megabyte are ignored.
func (s *Service) SetMaxBytes(limit int64) {
	if mb := int(limit >> 20); mb > 0 {
		s.constraints.MaxSizeMB = mb
	}
}

// UploadLogo stores file under the logos directory and returns its relative
// path. previousPath, when set, is deleted first; failing to delete it only
// logs. Optimisation failures leave the original upload in place.
func (s *Service) UploadLogo(ctx context.Context, file *File, previousPath string) (string, error) {
	if previousPath != "" {
		if _, err := s.DeleteFile(ctx, previousPath); err != nil {
			s.logger.Warn("failed to delete previous logo", zap.String("path", previousPath), zap.Error(err))
		}
	}

	stored := path.Join(LogoDirectory, s.uniqueFilename(file))
	if err := s.backend.Put(ctx, stored, file.Data, file.ContentType()); err != nil {
		return "", fmt.Errorf("store logo: %w", err)
	}

	if s.optimize {
		if err := s.optimizeImage(ctx, stored); err != nil {
			s.logger.Warn("image optimization failed", zap.String("path", stored), zap.Error(err))
		}
	}

	s.logger.Debug("logo stored", zap.String("path", stored), zap.Int64("size", file.Size))
	return stored, nil
}

// DeleteFile reports whether the file existed and was removed.
func (s *Service) DeleteFile(ctx context.Context, p string) (bool, error) {
	exists, err := s.backend.Exists(ctx, p)
	if err != nil {
		return false, err
	}
	if !exists {
		return false, nil
	}
	if err := s.backend.Delete(ctx, p); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Service) FileExists(ctx context.Context, p string) bool {
	exists, err := s.backend.Exists(ctx, p)
	if err != nil {
		s.logger.Warn("failed to check file", zap.String("path", p), zap.Error(err))
		return false
	}
	return exists
}

// GetFileSize returns the size in bytes, 0 when the file is missing.
func (s *Service) GetFileSize(ctx context.Context, p string) int64 {
	size, err := s.backend.Size(ctx, p)
	if err != nil {
		return 0
	}
	return size
}

// GetFileURL returns the public URL of an existing file.
func (s *Service) GetFileURL(ctx context.Context, p string) (string, bool) {
	if !s.FileExists(ctx, p) {
		return "", false
	}
	return s.backend.URL(p), true
}

// PublicURL derives the URL of p without touching the backend.
func (s *Service) PublicURL(p string) string {
	return s.backend.URL(p)
}

// ValidateImageDimensions returns the dimension violations of file.
func (s *Service) ValidateImageDimensions(file *File) []string {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(file.Data))
	if err != nil {
		return []string{"Invalid image file."}
	}

	c := s.constraints
	var errs []string
	if cfg.Width < c.MinWidth || cfg.Height < c.MinHeight {
		errs = append(errs, fmt.Sprintf("Image must be at least %dx%d pixels.", c.MinWidth, c.MinHeight))
	}
	if cfg.Width > c.MaxWidth || cfg.Height > c.MaxHeight {
		errs = append(errs, fmt.Sprintf("Image must not exceed %dx%d pixels.", c.MaxWidth, c.MaxHeight))
	}
	return errs
}

func (s *Service) uniqueFilename(file *File) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	name := fmt.Sprintf("company_logo_%d_%s", s.now().Unix(), suffix)
	if ext := file.Extension(); ext != "" {
		name += "." + ext
	}
	return name
}

// optimizeImage scales the stored image to fit MaxDisplaySize and re-encodes
// it in its own format.
func (s *Service) optimizeImage(ctx context.Context, p string) error {
	data, err := s.backend.Get(ctx, p)
	if err != nil {
		return err
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	img = fitWithin(img, MaxDisplaySize, MaxDisplaySize)

	var buf bytes.Buffer
	var contentType string
	switch format {
	case "jpeg":
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: JPEGQuality})
		contentType = "image/jpeg"
	case "png":
		err = png.Encode(&buf, img)
		contentType = "image/png"
	case "gif":
		err = gif.Encode(&buf, img, nil)
		contentType = "image/gif"
	default:
		return fmt.Errorf("unsupported image format %q", format)
	}
	if err != nil {
		return fmt.Errorf("encode %s: %w", format, err)
	}

	return s.backend.Put(ctx, p, buf.Bytes(), contentType)
}

// fitWithin scales img down, keeping its aspect ratio, so that neither side
// exceeds the bounds. Smaller images are returned as is.
func fitWithin(img image.Image, maxWidth, maxHeight int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= maxWidth && h <= maxHeight {
		return img
	}

	ratio := math.Min(float64(maxWidth)/float64(w), float64(maxHeight)/float64(h))
	nw := max(1, int(math.Round(float64(w)*ratio)))
	nh := max(1, int(math.Round(float64(h)*ratio)))

	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}
