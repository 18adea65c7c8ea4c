package filevalidator

import (
	"bytes"
	"io"
	"net/http"
)

// sniffLen is how many leading bytes DetectMIME inspects.
const sniffLen = 512

// MagicSignature defines a file type signature
type MagicSignature struct {
	MIME   string
	Offset int    // Offset from start of file
	Magic  []byte // Magic bytes to match
}

// magicSignatures is checked in order; the first match wins. Non-image
// formats are listed so that disguised uploads get a precise type in logs.
var magicSignatures = []MagicSignature{
	{MIME: "image/jpeg", Offset: 0, Magic: []byte{0xFF, 0xD8, 0xFF}},
	{MIME: "image/png", Offset: 0, Magic: []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}},
	{MIME: "image/gif", Offset: 0, Magic: []byte("GIF87a")},
	{MIME: "image/gif", Offset: 0, Magic: []byte("GIF89a")},
	{MIME: "image/bmp", Offset: 0, Magic: []byte("BM")},
	{MIME: "image/tiff", Offset: 0, Magic: []byte{0x49, 0x49, 0x2A, 0x00}},
	{MIME: "image/tiff", Offset: 0, Magic: []byte{0x4D, 0x4D, 0x00, 0x2A}},
	{MIME: "image/heic", Offset: 4, Magic: []byte("ftypheic")},
	{MIME: "image/avif", Offset: 4, Magic: []byte("ftypavif")},

	{MIME: "application/pdf", Offset: 0, Magic: []byte("%PDF-")},
	{MIME: "application/zip", Offset: 0, Magic: []byte{0x50, 0x4B, 0x03, 0x04}},
	{MIME: "application/gzip", Offset: 0, Magic: []byte{0x1F, 0x8B}},
	{MIME: "application/x-msdownload", Offset: 0, Magic: []byte("MZ")},
	{MIME: "application/x-executable", Offset: 0, Magic: []byte{0x7F, 'E', 'L', 'F'}},
	{MIME: "application/xml", Offset: 0, Magic: []byte("<?xml")},
}

// riffFormats maps the form type at offset 8 of a RIFF container.
var riffFormats = map[string]string{
	"WEBP": "image/webp",
	"WAVE": "audio/wav",
	"AVI ": "video/x-msvideo",
}

// DetectMIME detects the MIME type from the leading bytes of reader.
// Falls back to http.DetectContentType if no magic match found.
func DetectMIME(reader io.Reader) (string, error) {
	buf := make([]byte, sniffLen)
	n, err := io.ReadFull(reader, buf)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return "", NewIOError("failed to read file for MIME detection", err)
	}

	return DetectMIMEFromBytes(buf[:n]), nil
}

// DetectMIMEFromBytes detects MIME type from a byte slice
func DetectMIMEFromBytes(data []byte) string {
	if len(data) == 0 {
		return "application/octet-stream"
	}

	if len(data) >= 12 && bytes.Equal(data[:4], []byte("RIFF")) {
		if mime, ok := riffFormats[string(data[8:12])]; ok {
			return mime
		}
	}

	for _, sig := range magicSignatures {
		if sig.Offset+len(sig.Magic) > len(data) {
			continue
		}
		if bytes.Equal(data[sig.Offset:sig.Offset+len(sig.Magic)], sig.Magic) {
			return sig.MIME
		}
	}

	return NormalizeMIME(http.DetectContentType(data))
}
