package upload

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gobeaver/folio/filevalidator"
)

type formPart struct {
	name string
	mime string
	data []byte
}

func multipartHeaders(t *testing.T, parts ...formPart) []*multipart.FileHeader {
	t.Helper()
	body := new(bytes.Buffer)
	w := multipart.NewWriter(body)
	for _, p := range parts {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="images"; filename="`+p.name+`"`)
		h.Set("Content-Type", p.mime)
		pw, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = pw.Write(p.data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req, err := http.NewRequest(http.MethodPost, "/", body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", w.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(1<<20))
	t.Cleanup(func() { req.MultipartForm.RemoveAll() })

	return req.MultipartForm.File["images"]
}

func TestFromMultipart(t *testing.T) {
	img := pngData(t, 2, 2)
	headers := multipartHeaders(t,
		formPart{"a.png", "image/png", img},
		formPart{"evil.png", "image/png", []byte("plain text")},
	)

	candidates, done, err := FromMultipart(headers)
	require.NoError(t, err)
	defer done()

	require.Len(t, candidates, 2)
	assert.Equal(t, "a.png", candidates[0].OriginalName)
	assert.Equal(t, "image/png", candidates[0].DeclaredMIME)
	assert.Equal(t, int64(len(img)), candidates[0].Size)

	p, fs := newMemoryPipeline(t)
	_, err = p.Process(context.Background(), candidates[1])
	assert.True(t, filevalidator.IsErrorOfType(err, filevalidator.ErrorTypeContent), "got %v", err)

	f, err := p.Process(context.Background(), candidates[0])
	require.NoError(t, err)
	assert.Equal(t, "image/png", f.MIME)
	assert.Equal(t, 1, fs.FileCount())
}

func TestFromMultipartEmpty(t *testing.T) {
	candidates, done, err := FromMultipart(nil)
	require.NoError(t, err)
	done()
	assert.Empty(t, candidates)
}
