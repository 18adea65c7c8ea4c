package filevalidator

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestCheckDeclaredType(t *testing.T) {
	v := NewDefault()

	tests := []struct {
		name     string
		filename string
		mime     string
		wantType ValidationErrorType
	}{
		{"png", "photo.png", "image/png", ""},
		{"jpg", "photo.jpg", "image/jpeg", ""},
		{"jpeg uppercase ext", "PHOTO.JPEG", "image/jpeg", ""},
		{"webp", "photo.webp", "image/webp", ""},
		{"gif", "anim.gif", "image/gif", ""},
		{"mime with params", "photo.png", "image/png; charset=binary", ""},
		{"mime uppercase", "photo.png", "IMAGE/PNG", ""},
		{"text extension", "notes.txt", "image/png", ErrorTypeExtension},
		{"svg extension", "icon.svg", "image/svg+xml", ErrorTypeExtension},
		{"no extension", "photo", "image/png", ErrorTypeExtension},
		{"double extension", "photo.png.exe", "image/png", ErrorTypeExtension},
		{"extension checked first", "shell.php", "text/plain", ErrorTypeExtension},
		{"wrong mime", "photo.png", "text/plain", ErrorTypeMIME},
		{"empty mime", "photo.png", "", ErrorTypeMIME},
		{"jpg alias not listed", "photo.jpg", "image/jpg", ErrorTypeMIME},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.CheckDeclaredType(tt.filename, tt.mime)
			if tt.wantType == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if !IsErrorOfType(err, tt.wantType) {
				t.Errorf("expected %s error, got %v", tt.wantType, err)
			}
		})
	}
}

func TestCheckDeclaredTypeMessages(t *testing.T) {
	v := NewDefault()

	err := v.CheckDeclaredType("a.txt", "image/png")
	if GetErrorMessage(err) != "Invalid file extension. Allowed: .jpg, .jpeg, .png, .webp, .gif" {
		t.Errorf("unexpected message: %q", GetErrorMessage(err))
	}

	err = v.CheckDeclaredType("a.png", "text/plain")
	if GetErrorMessage(err) != "Invalid MIME type. Allowed: image/jpeg, image/png, image/webp, image/gif" {
		t.Errorf("unexpected message: %q", GetErrorMessage(err))
	}
}

func TestCheckDeclaredTypeNameLength(t *testing.T) {
	v := NewDefault()
	err := v.CheckDeclaredType(strings.Repeat("a", 300)+".png", "image/png")
	if !IsErrorOfType(err, ErrorTypeFileName) {
		t.Errorf("expected filename error, got %v", err)
	}
}

func TestCheckSizeAndCount(t *testing.T) {
	v := NewDefault()

	if err := v.CheckSize(5 * MB); err != nil {
		t.Errorf("5 MB should be accepted: %v", err)
	}
	err := v.CheckSize(5*MB + 1)
	if !IsErrorOfType(err, ErrorTypeSize) {
		t.Errorf("expected size error, got %v", err)
	}

	if err := v.CheckCount(10); err != nil {
		t.Errorf("10 files should be accepted: %v", err)
	}
	if err := v.CheckCount(11); !IsErrorOfType(err, ErrorTypeCount) {
		t.Errorf("expected count error, got %v", err)
	}

	unlimited := Empty().Build()
	if err := unlimited.CheckSize(10 * GB); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := unlimited.CheckCount(1000); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestVerifyContent(t *testing.T) {
	v := NewDefault()

	tests := []struct {
		name     string
		data     []byte
		wantMIME string
		wantErr  bool
	}{
		{"png", pngBytes(t, 2, 2), "image/png", false},
		{"jpeg", []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F'}, "image/jpeg", false},
		{"gif", []byte("GIF89a\x01\x00\x01\x00"), "image/gif", false},
		{"webp", []byte("RIFF\x24\x00\x00\x00WEBPVP8 "), "image/webp", false},
		{"plain text", []byte("not a png!"), "text/plain", true},
		{"empty", nil, "application/octet-stream", true},
		{"bmp not allowed", []byte("BM\x00\x00\x00\x00"), "image/bmp", true},
		{"pdf", []byte("%PDF-1.7"), "application/pdf", true},
		{"elf", []byte{0x7F, 'E', 'L', 'F', 2, 1, 1}, "application/x-executable", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mime, err := v.VerifyContent(bytes.NewReader(tt.data))
			if mime != tt.wantMIME {
				t.Errorf("mime = %s, want %s", mime, tt.wantMIME)
			}
			if tt.wantErr != (err != nil) {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !IsErrorOfType(err, ErrorTypeContent) {
				t.Errorf("expected content error, got %v", err)
			}
		})
	}
}

type errReader struct{}

func (errReader) Read([]byte) (int, error) { return 0, errors.New("disk gone") }

func TestVerifyContentReadFailure(t *testing.T) {
	_, err := NewDefault().VerifyContent(errReader{})
	if !IsErrorOfType(err, ErrorTypeIO) {
		t.Fatalf("expected io error, got %v", err)
	}

	var ve *ValidationError
	if !errors.As(err, &ve) || ve.Unwrap() == nil || ve.Unwrap().Error() != "disk gone" {
		t.Errorf("expected wrapped cause, got %#v", err)
	}
}

func TestBuilder(t *testing.T) {
	v := NewBuilder().
		MaxSize(1 * MB).
		MaxFiles(2).
		Extensions(".PNG").
		Accept("image/png").
		MaxNameLength(20).
		WithImageValidator(DefaultImageValidator()).
		Build()

	c := v.GetConstraints()
	if c.MaxFileSize != MB || c.MaxFiles != 2 || c.MaxNameLength != 20 || c.Image == nil {
		t.Errorf("unexpected constraints: %+v", c)
	}

	if err := v.CheckDeclaredType("a.png", "image/png"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := v.CheckDeclaredType("a.jpg", "image/jpeg"); !IsErrorOfType(err, ErrorTypeExtension) {
		t.Errorf("expected extension error, got %v", err)
	}
}

func TestAcceptGroup(t *testing.T) {
	v := NewBuilder().Accept("image/*").Build()

	if !v.IsAcceptedMIMEType("image/bmp") {
		t.Error("image/* should expand to include image/bmp")
	}
	if v.IsAcceptedMIMEType("text/plain") {
		t.Error("text/plain should not be accepted")
	}

	all := Empty().Accept("*/*").Build()
	if !all.IsAcceptedMIMEType("application/zip") {
		t.Error("*/* should accept anything")
	}
	if all.IsAcceptedMIMEType("") {
		t.Error("empty type should never be accepted")
	}
}

func TestValidationErrorHelpers(t *testing.T) {
	err := NewValidationError(ErrorTypeContent, "bad bytes")

	if err.Error() != "content validation error: bad bytes" {
		t.Errorf("unexpected Error(): %s", err.Error())
	}
	if !IsValidationError(err) || GetErrorType(err) != ErrorTypeContent {
		t.Error("helpers did not recognise the error")
	}

	plain := errors.New("x")
	if IsValidationError(plain) || GetErrorType(plain) != "" || GetErrorMessage(plain) != "" {
		t.Error("helpers misclassified a plain error")
	}
}
