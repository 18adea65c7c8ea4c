package memory

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/gobeaver/folio/storage"
)

func TestNew(t *testing.T) {
	t.Run("creates adapter with default config", func(t *testing.T) {
		a := New()
		if a.maxSize != 0 {
			t.Errorf("expected maxSize=0, got %d", a.maxSize)
		}
	})

	t.Run("creates adapter with max size", func(t *testing.T) {
		a := New(Config{MaxSize: 1024})
		if a.maxSize != 1024 {
			t.Errorf("expected maxSize=1024, got %d", a.maxSize)
		}
	})
}

func TestWrite(t *testing.T) {
	ctx := context.Background()

	t.Run("writes file successfully", func(t *testing.T) {
		a := New()
		content := "hello world"

		res, err := a.Write(ctx, "test.png", strings.NewReader(content), storage.WithChecksum(storage.ChecksumMD5))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.BytesWritten != int64(len(content)) {
			t.Errorf("BytesWritten = %d", res.BytesWritten)
		}
		if res.Checksum != "5eb63bbbe01eeed093cb22bb8f5acdc3" {
			t.Errorf("Checksum = %s", res.Checksum)
		}

		exists, err := a.FileExists(ctx, "test.png")
		if err != nil || !exists {
			t.Errorf("FileExists() = %v, %v", exists, err)
		}
		if a.Size() != int64(len(content)) {
			t.Errorf("expected size=%d, got %d", len(content), a.Size())
		}
	})

	t.Run("fails on path traversal", func(t *testing.T) {
		a := New()
		_, err := a.Write(ctx, "../etc/passwd", strings.NewReader("malicious"))
		if !errors.Is(err, storage.ErrNotAllowed) {
			t.Errorf("expected ErrNotAllowed, got: %v", err)
		}
	})

	t.Run("respects max size limit", func(t *testing.T) {
		a := New(Config{MaxSize: 10})
		_, err := a.Write(ctx, "large.png", strings.NewReader("this is too large"))
		if !errors.Is(err, storage.ErrInvalidSize) {
			t.Errorf("expected ErrInvalidSize, got %v", err)
		}
		if a.FileCount() != 0 {
			t.Errorf("expected no files, got %d", a.FileCount())
		}
	})

	t.Run("refuses existing without overwrite", func(t *testing.T) {
		a := New()
		a.Write(ctx, "a.png", strings.NewReader("one"))
		if _, err := a.Write(ctx, "a.png", strings.NewReader("two")); !storage.IsExist(err) {
			t.Errorf("expected ErrExist, got %v", err)
		}
		if _, err := a.Write(ctx, "a.png", strings.NewReader("three!"), storage.WithOverwrite(true)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if a.Size() != 6 {
			t.Errorf("expected size=6, got %d", a.Size())
		}
	})
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	a := New()
	a.Write(ctx, "x.png", strings.NewReader("abc"))

	if err := a.Delete(ctx, "x.png"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Size() != 0 || a.FileCount() != 0 {
		t.Errorf("expected empty adapter, size=%d count=%d", a.Size(), a.FileCount())
	}
	if err := a.Delete(ctx, "x.png"); !storage.IsNotExist(err) {
		t.Errorf("expected ErrNotExist, got %v", err)
	}
}

func TestStatAndList(t *testing.T) {
	ctx := context.Background()
	a := New()
	a.Write(ctx, "b.jpg", strings.NewReader("bb"), storage.WithMetadata(map[string]string{"owner": "admin"}))
	a.Write(ctx, "/a.png", strings.NewReader("a"))

	info, err := a.Stat(ctx, "b.jpg")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info.Size != 2 || info.ContentType != "image/jpeg" || info.Metadata["owner"] != "admin" {
		t.Errorf("unexpected info: %+v", info)
	}

	files, err := a.ListContents(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(files) != 2 || files[0].Path != "a.png" || files[1].Path != "b.jpg" {
		t.Errorf("unexpected listing: %+v", files)
	}

	a.Clear()
	if a.FileCount() != 0 {
		t.Error("expected Clear to remove all files")
	}
}

func TestConcurrentWrites(t *testing.T) {
	ctx := context.Background()
	a := New()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := string(rune('a'+i%26)) + strings.Repeat("x", i) + ".png"
			a.Write(ctx, name, strings.NewReader("data"))
		}(i)
	}
	wg.Wait()

	if a.FileCount() != 50 {
		t.Errorf("expected 50 files, got %d", a.FileCount())
	}
	if a.Size() != 200 {
		t.Errorf("expected size 200, got %d", a.Size())
	}
}
