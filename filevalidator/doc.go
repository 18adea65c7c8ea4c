// Package filevalidator decides whether an upload is an allowed image.
//
// Validation happens in two independent steps. The declared check looks only
// at client-supplied metadata and is cheap enough to run before any bytes are
// stored:
//
//	v := filevalidator.NewDefault()
//	err := v.CheckDeclaredType("photo.png", "image/png")
//
// The content check inspects the leading bytes of the stored file and is the
// authoritative gate:
//
//	mime, err := v.VerifyContent(f)
//
// Both steps share one allow-list. Failures are *ValidationError values whose
// Type is one of extension, mime, content, size, count, filename or io.
//
// Constraints can also be assembled with the builder:
//
//	v := filevalidator.NewBuilder().
//	    MaxSize(2 * filevalidator.MB).
//	    Extensions(".png", ".jpg").
//	    Accept("image/png", "image/jpeg").
//	    WithImageValidator(filevalidator.DefaultImageValidator()).
//	    Build()
package filevalidator
