package upload

import (
	"io"
	"mime/multipart"
)

// FromMultipart opens each form file as a Candidate. The returned func
// closes every opened part and must be called once processing is done.
func FromMultipart(headers []*multipart.FileHeader) ([]Candidate, func(), error) {
	candidates := make([]Candidate, 0, len(headers))
	closers := make([]io.Closer, 0, len(headers))
	closeAll := func() {
		for _, c := range closers {
			c.Close()
		}
	}

	for _, h := range headers {
		f, err := h.Open()
		if err != nil {
			closeAll()
			return nil, func() {}, err
		}
		closers = append(closers, f)
		candidates = append(candidates, Candidate{
			OriginalName: h.Filename,
			DeclaredMIME: h.Header.Get("Content-Type"),
			Size:         h.Size,
			Content:      f,
		})
	}

	return candidates, closeAll, nil
}
