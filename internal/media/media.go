// Package media uploads product images to Cloudinary.
package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// ErrDisabled is returned when no image host is configured.
var ErrDisabled = errors.New("image uploads are not configured")

type Uploader interface {
	Upload(ctx context.Context, folder, filename string, data []byte) (string, error)
}

type Cloudinary struct {
	cld *cloudinary.Cloudinary
}

func NewCloudinary(cloudinaryURL string) (*Cloudinary, error) {
	if cloudinaryURL == "" {
		return nil, fmt.Errorf("cloudinary URL is required")
	}
	cld, err := cloudinary.NewFromURL(cloudinaryURL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Cloudinary: %w", err)
	}
	return &Cloudinary{cld: cld}, nil
}

// Upload stores data under folder and returns its https URL.
func (c *Cloudinary) Upload(ctx context.Context, folder, filename string, data []byte) (string, error) {
	publicID := PublicID(filename, time.Now())
	yes, no := true, false
	result, err := c.cld.Upload.Upload(ctx, bytes.NewReader(data), uploader.UploadParams{
		PublicID:       publicID,
		Folder:         folder,
		UseFilename:    &yes,
		UniqueFilename: &yes,
		Overwrite:      &no,
		ResourceType:   "image",
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload image: %w", err)
	}
	if result.Error.Message != "" {
		return "", fmt.Errorf("failed to upload image: %s", result.Error.Message)
	}
	if result.SecureURL != "" {
		return forceHTTPS(result.SecureURL), nil
	}
	return forceHTTPS(result.URL), nil
}

// PublicID derives a unique, extension-free id from a file name.
func PublicID(filename string, at time.Time) string {
	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '_'
	}, base)
	if base == "" || base == "." {
		base = "image"
	}
	return fmt.Sprintf("%s_%d", base, at.UnixNano())
}

func forceHTTPS(u string) string {
	if strings.HasPrefix(u, "http://") {
		return "https://" + strings.TrimPrefix(u, "http://")
	}
	return u
}
