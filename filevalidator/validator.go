package filevalidator

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// Validator checks uploads against a fixed set of constraints.
type Validator interface {
	// CheckDeclaredType checks the client-supplied extension and MIME type.
	// It trusts client metadata and is never sufficient on its own.
	CheckDeclaredType(originalName, declaredMIME string) error

	// CheckSize rejects sizes above the per-file ceiling.
	CheckSize(size int64) error

	// CheckCount rejects requests carrying more files than allowed.
	CheckCount(n int) error

	// VerifyContent detects the real type from the leading bytes of r and
	// returns it when it is accepted.
	VerifyContent(r io.Reader) (string, error)

	// GetConstraints returns the current validation constraints
	GetConstraints() Constraints
}

// FileValidator implements the Validator interface
type FileValidator struct {
	constraints Constraints
	types       []string
	exts        []string
}

// New creates a new file validator with the given constraints
func New(constraints Constraints) *FileValidator {
	exts := make([]string, 0, len(constraints.AllowedExts))
	for _, ext := range constraints.AllowedExts {
		exts = append(exts, strings.ToLower(ext))
	}

	return &FileValidator{
		constraints: constraints,
		types:       ExpandAcceptedTypes(constraints.AcceptedTypes),
		exts:        exts,
	}
}

// NewDefault creates a new file validator with the image upload defaults
func NewDefault() *FileValidator {
	return New(DefaultConstraints())
}

// Extension returns the lowercase extension of name, including the dot.
func Extension(name string) string {
	return strings.ToLower(filepath.Ext(name))
}

// CheckDeclaredType implements Validator. The extension is checked before
// the MIME type.
func (v *FileValidator) CheckDeclaredType(originalName, declaredMIME string) error {
	if v.constraints.MaxNameLength > 0 && len(originalName) > v.constraints.MaxNameLength {
		return NewValidationError(
			ErrorTypeFileName,
			fmt.Sprintf("filename exceeds maximum length of %d characters", v.constraints.MaxNameLength),
		)
	}

	if !v.IsAcceptedExtension(Extension(originalName)) {
		return NewValidationError(
			ErrorTypeExtension,
			fmt.Sprintf("Invalid file extension. Allowed: %s", strings.Join(v.exts, ", ")),
		)
	}

	if !v.IsAcceptedMIMEType(declaredMIME) {
		return NewValidationError(
			ErrorTypeMIME,
			fmt.Sprintf("Invalid MIME type. Allowed: %s", strings.Join(v.types, ", ")),
		)
	}

	return nil
}

// CheckSize implements Validator
func (v *FileValidator) CheckSize(size int64) error {
	if v.constraints.MaxFileSize > 0 && size > v.constraints.MaxFileSize {
		return NewValidationError(
			ErrorTypeSize,
			fmt.Sprintf("file size too big: %s (max: %s)", FormatSizeReadable(size), FormatSizeReadable(v.constraints.MaxFileSize)),
		)
	}
	return nil
}

// CheckCount implements Validator
func (v *FileValidator) CheckCount(n int) error {
	if v.constraints.MaxFiles > 0 && n > v.constraints.MaxFiles {
		return NewValidationError(
			ErrorTypeCount,
			fmt.Sprintf("too many files: %d (max: %d)", n, v.constraints.MaxFiles),
		)
	}
	return nil
}

// VerifyContent implements Validator. Read failures come back as io errors;
// an unrecognised or disallowed signature is a content error.
func (v *FileValidator) VerifyContent(r io.Reader) (string, error) {
	mimeType, err := DetectMIME(r)
	if err != nil {
		return "", err
	}

	if !v.IsAcceptedMIMEType(mimeType) {
		return mimeType, NewValidationError(
			ErrorTypeContent,
			fmt.Sprintf("file content is %s, not an allowed image type", mimeType),
		)
	}
	return mimeType, nil
}

// InspectImage runs the optional dimension check on a verified image.
func (v *FileValidator) InspectImage(r io.Reader) error {
	if v.constraints.Image == nil {
		return nil
	}
	return v.constraints.Image.ValidateContent(r)
}

// GetConstraints returns the current validation constraints
func (v *FileValidator) GetConstraints() Constraints {
	return v.constraints
}

// IsAcceptedMIMEType reports whether mimeType is in the allow-list.
func (v *FileValidator) IsAcceptedMIMEType(mimeType string) bool {
	mimeType = NormalizeMIME(mimeType)
	if mimeType == "" {
		return false
	}

	for _, acceptedType := range v.types {
		if acceptedType == mimeType || acceptedType == string(AllowAll) {
			return true
		}
	}
	return false
}

// IsAcceptedExtension reports whether ext is in the allow-list. A missing
// extension is never accepted.
func (v *FileValidator) IsAcceptedExtension(ext string) bool {
	if ext == "" {
		return false
	}

	for _, allowedExt := range v.exts {
		if strings.EqualFold(ext, allowedExt) {
			return true
		}
	}
	return false
}

var _ Validator = (*FileValidator)(nil)
