package filevalidator

import "strings"

// MediaTypeGroup defines a categorization of MIME types
type MediaTypeGroup string

const (
	AllowAllImages MediaTypeGroup = "image/*"
	AllowAll       MediaTypeGroup = "*/*"
)

var mediaTypeGroups = map[MediaTypeGroup][]string{
	AllowAllImages: {
		"image/jpeg",
		"image/png",
		"image/gif",
		"image/webp",
		"image/bmp",
		"image/tiff",
		"image/avif",
		"image/heic",
	},
}

var extensionToMimeType = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".bmp":  "image/bmp",
	".tiff": "image/tiff",
	".tif":  "image/tiff",
	".avif": "image/avif",
	".heic": "image/heic",
	".svg":  "image/svg+xml",
}

// MIMETypeForExtension returns the MIME type for a given file extension
// Returns empty string if the extension is not recognized
func MIMETypeForExtension(ext string) string {
	return extensionToMimeType[strings.ToLower(ext)]
}

// NormalizeMIME lowercases a MIME type and drops parameters such as charset.
func NormalizeMIME(mimeType string) string {
	if idx := strings.Index(mimeType, ";"); idx >= 0 {
		mimeType = mimeType[:idx]
	}
	return strings.ToLower(strings.TrimSpace(mimeType))
}

// ExpandAcceptedTypes takes a slice of accepted types (which can include MediaTypeGroups)
// and returns a slice with all specific MIME types
func ExpandAcceptedTypes(acceptedTypes []string) []string {
	expanded := make([]string, 0, len(acceptedTypes))

	for _, acceptType := range acceptedTypes {
		if groupTypes, exists := mediaTypeGroups[MediaTypeGroup(acceptType)]; exists {
			expanded = append(expanded, groupTypes...)
		} else {
			expanded = append(expanded, NormalizeMIME(acceptType))
		}
	}

	return expanded
}
