package upload

import (
	"errors"
	"io"
)

// ErrTooLarge is returned by a SizeLimitReader once its limit is exceeded.
var ErrTooLarge = errors.New("upload: file too large")

// SizeLimitReader passes through at most Limit bytes and fails with
// ErrTooLarge as soon as the source offers one more.
type SizeLimitReader struct {
	R     io.Reader
	Limit int64
	N     int64
}

func (l *SizeLimitReader) Read(p []byte) (int, error) {
	remaining := l.Limit - l.N
	if remaining <= 0 {
		var probe [1]byte
		n, err := l.R.Read(probe[:])
		if n > 0 {
			return 0, ErrTooLarge
		}
		return 0, err
	}

	if int64(len(p)) > remaining {
		p = p[:remaining]
	}
	n, err := l.R.Read(p)
	l.N += int64(n)
	return n, err
}
