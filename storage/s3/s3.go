// Package s3 stores uploads in an S3-compatible bucket.
package s3

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/gobeaver/folio/storage"
)

// API is the subset of *s3.Client the adapter calls.
type API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// Adapter provides an S3 implementation of storage.FileSystem
type Adapter struct {
	client API
	bucket string
	prefix string
}

// AdapterOption is a function that configures Adapter
type AdapterOption func(*Adapter)

// WithPrefix sets the prefix for S3 objects
func WithPrefix(prefix string) AdapterOption {
	return func(a *Adapter) {
		if prefix != "" && !strings.HasSuffix(prefix, "/") {
			prefix += "/"
		}
		a.prefix = prefix
	}
}

// New creates a new S3 filesystem adapter
func New(client API, bucket string, options ...AdapterOption) *Adapter {
	adapter := &Adapter{
		client: client,
		bucket: bucket,
	}

	for _, option := range options {
		option(adapter)
	}

	return adapter
}

// Write implements storage.FileWriter. PutObject is atomic, so a failed
// upload leaves nothing behind.
func (a *Adapter) Write(ctx context.Context, filePath string, content io.Reader, options ...storage.Option) (*storage.WriteResult, error) {
	opts := storage.ApplyOptions(options...)
	key := a.key(filePath)

	if !opts.Overwrite {
		exists, err := a.FileExists(ctx, filePath)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, storage.WrapPathErr("write", filePath, storage.ErrExist)
		}
	}

	var hr *storage.HashingReader
	if opts.Checksum != "" {
		var err error
		hr, err = storage.NewHashingReader(content, opts.Checksum)
		if err != nil {
			return nil, storage.WrapPathErr("write", filePath, err)
		}
		content = hr
	}

	body, contentLength, err := sizedBody(content)
	if err != nil {
		return nil, storage.WrapPathErr("write", filePath, err)
	}

	input := &s3.PutObjectInput{
		Bucket:        aws.String(a.bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentLength: aws.Int64(contentLength),
	}

	if opts.ContentType != "" {
		input.ContentType = aws.String(opts.ContentType)
	}
	if opts.CacheControl != "" {
		input.CacheControl = aws.String(opts.CacheControl)
	}
	if len(opts.Metadata) > 0 {
		metadata := make(map[string]string, len(opts.Metadata))
		for k, v := range opts.Metadata {
			metadata[k] = v
		}
		input.Metadata = metadata
	}

	switch opts.Visibility {
	case storage.Public:
		input.ACL = types.ObjectCannedACLPublicRead
	case storage.Private:
		input.ACL = types.ObjectCannedACLPrivate
	}

	if _, err := a.client.PutObject(ctx, input); err != nil {
		return nil, mapS3Error("write", filePath, err)
	}

	result := &storage.WriteResult{BytesWritten: contentLength}
	if hr != nil {
		result.Checksum = hr.Sum()
		result.ChecksumAlgorithm = hr.Algorithm()
	}
	return result, nil
}

// Read implements storage.FileReader
func (a *Adapter) Read(ctx context.Context, filePath string) (io.ReadCloser, error) {
	resp, err := a.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(a.key(filePath)),
	})
	if err != nil {
		return nil, mapS3Error("read", filePath, err)
	}

	return resp.Body, nil
}

// ReadAll implements storage.FileReader
func (a *Adapter) ReadAll(ctx context.Context, filePath string) ([]byte, error) {
	rc, err := a.Read(ctx, filePath)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	return io.ReadAll(rc)
}

// Delete implements storage.FileWriter. DeleteObject succeeds for missing
// keys, so existence is checked first.
func (a *Adapter) Delete(ctx context.Context, filePath string) error {
	exists, err := a.FileExists(ctx, filePath)
	if err != nil {
		return err
	}
	if !exists {
		return storage.WrapPathErr("delete", filePath, storage.ErrNotExist)
	}

	_, err = a.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(a.key(filePath)),
	})
	if err != nil {
		return mapS3Error("delete", filePath, err)
	}
	return nil
}

// FileExists implements storage.FileReader
func (a *Adapter) FileExists(ctx context.Context, filePath string) (bool, error) {
	_, err := a.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(a.key(filePath)),
	})
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, mapS3Error("fileexists", filePath, err)
	}
	return true, nil
}

// Stat implements storage.FileReader
func (a *Adapter) Stat(ctx context.Context, filePath string) (*storage.FileInfo, error) {
	resp, err := a.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(a.key(filePath)),
	})
	if err != nil {
		return nil, mapS3Error("stat", filePath, err)
	}

	metadata := make(map[string]string, len(resp.Metadata))
	for k, v := range resp.Metadata {
		metadata[k] = v
	}

	return &storage.FileInfo{
		Name:        path.Base(filePath),
		Path:        filePath,
		Size:        aws.ToInt64(resp.ContentLength),
		ModTime:     aws.ToTime(resp.LastModified),
		ContentType: aws.ToString(resp.ContentType),
		Metadata:    metadata,
	}, nil
}

// ListContents implements storage.FileReader. Keys nested below the prefix
// are skipped.
func (a *Adapter) ListContents(ctx context.Context) ([]storage.FileInfo, error) {
	var files []storage.FileInfo

	paginator := s3.NewListObjectsV2Paginator(a.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(a.bucket),
		Prefix: aws.String(a.prefix),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, mapS3Error("list", a.prefix, err)
		}

		for _, obj := range page.Contents {
			name := strings.TrimPrefix(aws.ToString(obj.Key), a.prefix)
			if name == "" || strings.Contains(name, "/") {
				continue
			}

			files = append(files, storage.FileInfo{
				Name:    name,
				Path:    name,
				Size:    aws.ToInt64(obj.Size),
				ModTime: aws.ToTime(obj.LastModified),
			})
		}
	}

	return files, nil
}

// Checksum implements storage.CanChecksum by reading and hashing the file.
func (a *Adapter) Checksum(ctx context.Context, filePath string, algorithm storage.ChecksumAlgorithm) (string, error) {
	reader, err := a.Read(ctx, filePath)
	if err != nil {
		return "", err
	}
	defer reader.Close()

	checksum, err := storage.CalculateChecksum(reader, algorithm)
	if err != nil {
		return "", storage.WrapPathErr("checksum", filePath, err)
	}

	return checksum, nil
}

func (a *Adapter) key(filePath string) string {
	return a.prefix + strings.TrimPrefix(path.Clean("/"+filePath), "/")
}

// sizedBody returns a seekable body and its length. PutObject needs a known
// content length, so unknown readers are buffered.
func sizedBody(content io.Reader) (io.Reader, int64, error) {
	switch r := content.(type) {
	case *bytes.Reader:
		return r, int64(r.Len()), nil
	case *strings.Reader:
		return r, int64(r.Len()), nil
	case *os.File:
		info, err := r.Stat()
		if err != nil {
			return nil, 0, err
		}
		pos, err := r.Seek(0, io.SeekCurrent)
		if err != nil {
			return nil, 0, err
		}
		return r, info.Size() - pos, nil
	default:
		data, err := io.ReadAll(content)
		if err != nil {
			return nil, 0, err
		}
		return bytes.NewReader(data), int64(len(data)), nil
	}
}

func isNotFound(err error) bool {
	var nsk *types.NoSuchKey
	var notFound *types.NotFound
	return errors.As(err, &nsk) || errors.As(err, &notFound)
}

// mapS3Error maps S3 errors to storage errors
func mapS3Error(op, filePath string, err error) error {
	if isNotFound(err) {
		return storage.WrapPathErr(op, filePath, storage.ErrNotExist)
	}
	return storage.WrapPathErr(op, filePath, err)
}

// Ensure Adapter implements interfaces
var (
	_ storage.FileSystem  = (*Adapter)(nil)
	_ storage.CanChecksum = (*Adapter)(nil)
	_ API                 = (*s3.Client)(nil)
)
