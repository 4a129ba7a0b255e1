// Package storage uploads user files (profile pictures, certificates,
// issue photos) to blob storage and returns their public URLs.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"path/filepath"
	"strings"
)

const (
	BucketProfilePics  = "profile-pics"
	BucketCertificates = "certificates"
	BucketIssueImages  = "issue-images"

	DefaultMaxBytes int64 = 5 << 20
)

var (
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrTooLarge        = errors.New("file too large")
)

type Object struct {
	Bucket      string
	Path        string
	ContentType string
	Size        int64
	Body        io.Reader
}

// Uploader is the narrow blob-storage capability the services need.
type Uploader interface {
	Upload(ctx context.Context, obj Object) (publicURL string, err error)
	Remove(ctx context.Context, bucket string, paths ...string) error
}

// File is an uploaded file that has not been stored yet.
type File struct {
	Filename    string
	ContentType string
	Size        int64
	Open        func() (io.ReadCloser, error)
}

func FromMultipart(fh *multipart.FileHeader) File {
	return File{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}
}

// Ext returns the lowercased extension, normalizing .jpeg to .jpg.
func (f File) Ext() string {
	ext := strings.ToLower(filepath.Ext(f.Filename))
	if ext == ".jpeg" {
		return ".jpg"
	}
	return ext
}

type Kind int

const (
	KindImage Kind = iota
	KindDocument
)

var contentTypes = map[string]string{
	".jpg":  "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
	".pdf":  "application/pdf",
}

// Validate checks extension and size. Documents also accept pdf.
func Validate(f File, kind Kind, maxBytes int64) error {
	ext := f.Ext()
	switch ext {
	case ".jpg", ".png", ".webp":
	case ".pdf":
		if kind != KindDocument {
			return fmt.Errorf("%w: %s", ErrUnsupportedType, f.Filename)
		}
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedType, f.Filename)
	}
	if maxBytes > 0 && f.Size > maxBytes {
		return fmt.Errorf("%w: %s", ErrTooLarge, f.Filename)
	}
	return nil
}

// Upload pairs a file with its destination.
type Upload struct {
	File   File
	Bucket string
	Path   string
}

type Stored struct {
	Bucket string
	Path   string
	URL    string
}

// PutAll uploads items one by one. When item k fails, items 1..k-1 are
// removed before the error is returned.
func PutAll(ctx context.Context, u Uploader, log *slog.Logger, items []Upload) ([]Stored, error) {
	stored := make([]Stored, 0, len(items))
	for _, it := range items {
		url, err := put(ctx, u, it)
		if err != nil {
			Discard(ctx, u, log, stored)
			return nil, fmt.Errorf("upload %s/%s: %w", it.Bucket, it.Path, err)
		}
		stored = append(stored, Stored{Bucket: it.Bucket, Path: it.Path, URL: url})
	}
	return stored, nil
}

// Discard removes stored objects, logging failures.
func Discard(ctx context.Context, u Uploader, log *slog.Logger, stored []Stored) {
	byBucket := map[string][]string{}
	for _, s := range stored {
		byBucket[s.Bucket] = append(byBucket[s.Bucket], s.Path)
	}
	for bucket, paths := range byBucket {
		if err := u.Remove(context.WithoutCancel(ctx), bucket, paths...); err != nil && log != nil {
			log.Warn("storage cleanup failed", "bucket", bucket, "paths", paths, "error", err)
		}
	}
}

func URLs(stored []Stored) []string {
	out := make([]string, len(stored))
	for i, s := range stored {
		out[i] = s.URL
	}
	return out
}

func put(ctx context.Context, u Uploader, it Upload) (string, error) {
	rc, err := it.File.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()

	ct := it.File.ContentType
	if ct == "" || ct == "application/octet-stream" {
		ct = contentTypes[it.File.Ext()]
	}
	return u.Upload(ctx, Object{
		Bucket:      it.Bucket,
		Path:        it.Path,
		ContentType: ct,
		Size:        it.File.Size,
		Body:        rc,
	})
}
