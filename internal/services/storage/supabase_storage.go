package storage

import (
	"context"
	"fmt"
	"strings"

	storage_go "github.com/supabase-community/storage-go"
)

// SupabaseStorage stores objects in Supabase Storage buckets.
type SupabaseStorage struct {
	BaseURL string
	Key     string
}

func NewSupabaseStorage(baseURL, key string) *SupabaseStorage {
	return &SupabaseStorage{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Key:     key,
	}
}

// client is built per call: upload options are written into the client's
// shared default headers.
func (s *SupabaseStorage) client() *storage_go.Client {
	return storage_go.NewClient(s.BaseURL+"/storage/v1", s.Key, map[string]string{"apikey": s.Key})
}

func (s *SupabaseStorage) PublicURL(bucket, path string) string {
	return s.client().GetPublicUrl(bucket, path).SignedURL
}

func (s *SupabaseStorage) Upload(ctx context.Context, obj Object) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	contentType := obj.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	cacheControl := "3600"
	upsert := false

	c := s.client()
	_, err := c.UploadFile(obj.Bucket, obj.Path, obj.Body, storage_go.FileOptions{
		CacheControl: &cacheControl,
		ContentType:  &contentType,
		Upsert:       &upsert,
	})
	if err != nil {
		return "", fmt.Errorf("supabase storage: upload %s/%s: %w", obj.Bucket, obj.Path, err)
	}
	return c.GetPublicUrl(obj.Bucket, obj.Path).SignedURL, nil
}

func (s *SupabaseStorage) Remove(ctx context.Context, bucket string, paths ...string) error {
	if len(paths) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := s.client().RemoveFile(bucket, paths); err != nil {
		return fmt.Errorf("supabase storage: remove from %s: %w", bucket, err)
	}
	return nil
}
