package filevalidator

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
)

// ImageValidator checks image dimensions by decoding only the header.
// Formats without a registered decoder (webp) pass unchecked.
type ImageValidator struct {
	MaxWidth  int
	MaxHeight int
	MaxPixels int
}

// DefaultImageValidator creates an image validator with sensible defaults
func DefaultImageValidator() *ImageValidator {
	return &ImageValidator{
		MaxWidth:  10000,
		MaxHeight: 10000,
		MaxPixels: 50000000, // 50 megapixels
	}
}

// ValidateContent decodes the image config from reader and checks its
// dimensions. It does not load the pixel data.
func (v *ImageValidator) ValidateContent(reader io.Reader) error {
	img, _, err := image.DecodeConfig(reader)
	if errors.Is(err, image.ErrFormat) {
		return nil
	}
	if err != nil {
		return NewValidationError(ErrorTypeContent, fmt.Sprintf("cannot decode image: %v", err))
	}

	if v.MaxWidth > 0 && img.Width > v.MaxWidth {
		return NewValidationError(ErrorTypeContent,
			fmt.Sprintf("image width %d exceeds maximum %d", img.Width, v.MaxWidth))
	}

	if v.MaxHeight > 0 && img.Height > v.MaxHeight {
		return NewValidationError(ErrorTypeContent,
			fmt.Sprintf("image height %d exceeds maximum %d", img.Height, v.MaxHeight))
	}

	if img.Width < 1 || img.Height < 1 {
		return NewValidationError(ErrorTypeContent, "image has no pixels")
	}

	// Decompression bomb protection
	if v.MaxPixels > 0 && img.Width*img.Height > v.MaxPixels {
		return NewValidationError(ErrorTypeContent,
			fmt.Sprintf("total pixels %d exceeds maximum %d", img.Width*img.Height, v.MaxPixels))
	}

	return nil
}
