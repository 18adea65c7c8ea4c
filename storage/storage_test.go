package storage

import (
	"errors"
	"strings"
	"testing"
)

func TestCalculateChecksum(t *testing.T) {
	tests := []struct {
		algo ChecksumAlgorithm
		want string
	}{
		{ChecksumMD5, "5eb63bbbe01eeed093cb22bb8f5acdc3"},
		{ChecksumSHA256, "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9"},
		{ChecksumCRC32, "0d4a1185"},
	}

	for _, tt := range tests {
		t.Run(string(tt.algo), func(t *testing.T) {
			got, err := CalculateChecksum(strings.NewReader("hello world"), tt.algo)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("CalculateChecksum() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestCalculateChecksumUnsupported(t *testing.T) {
	_, err := CalculateChecksum(strings.NewReader("x"), "blake3")
	if !errors.Is(err, ErrNotSupported) {
		t.Errorf("expected ErrNotSupported, got %v", err)
	}
}

func TestHashingReader(t *testing.T) {
	hr, err := NewHashingReader(strings.NewReader("hello world"), ChecksumXXHash)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	buf := make([]byte, 4)
	for {
		if _, err := hr.Read(buf); err != nil {
			break
		}
	}

	want, _ := CalculateChecksum(strings.NewReader("hello world"), ChecksumXXHash)
	if hr.Sum() != want {
		t.Errorf("Sum() = %s, want %s", hr.Sum(), want)
	}
	if hr.Algorithm() != ChecksumXXHash {
		t.Errorf("Algorithm() = %s", hr.Algorithm())
	}
}

func TestPathError(t *testing.T) {
	err := WrapPathErr("read", "a.png", ErrNotExist)

	if err.Error() != "read a.png: file does not exist" {
		t.Errorf("unexpected message: %s", err.Error())
	}
	if !IsNotExist(err) {
		t.Error("expected IsNotExist to be true")
	}
	if IsExist(err) || IsPermission(err) {
		t.Error("unexpected error classification")
	}

	var pe *PathError
	if !errors.As(err, &pe) || pe.Op != "read" || pe.Path != "a.png" {
		t.Errorf("expected *PathError, got %#v", err)
	}

	if WrapPathErr("read", "a.png", nil) != nil {
		t.Error("expected nil passthrough")
	}
}

func TestApplyOptions(t *testing.T) {
	opts := ApplyOptions(
		WithContentType("image/png"),
		WithMetadata(map[string]string{"k": "v"}),
		WithVisibility(Public),
		WithCacheControl("max-age=60"),
		WithOverwrite(true),
		WithChecksum(ChecksumSHA256),
	)

	if opts.ContentType != "image/png" || opts.Metadata["k"] != "v" || opts.Visibility != Public {
		t.Errorf("unexpected options: %+v", opts)
	}
	if opts.CacheControl != "max-age=60" || !opts.Overwrite || opts.Checksum != ChecksumSHA256 {
		t.Errorf("unexpected options: %+v", opts)
	}
}

func TestCreateDriver(t *testing.T) {
	RegisterDriver("test-null", func(cfg DriverConfig) (FileSystem, error) {
		return nil, errors.New("null driver")
	})

	if _, err := CreateDriver(DriverConfig{Driver: "missing"}); err == nil {
		t.Error("expected error for unregistered driver")
	}

	_, err := CreateDriver(DriverConfig{Driver: "test-null"})
	if err == nil || err.Error() != "null driver" {
		t.Errorf("expected factory error, got %v", err)
	}

	found := false
	for _, name := range Drivers() {
		if name == "test-null" {
			found = true
		}
	}
	if !found {
		t.Errorf("Drivers() = %v, missing test-null", Drivers())
	}
}
