// Package gcs provides a store backed by Google Cloud Storage.
package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
)

// Config captures the parameters required to connect to GCS.
type Config struct {
	Bucket string
	// Prefix is prepended to every locator, e.g. "anp".
	Prefix string
}

// BlobStore keeps raw files and charts in a GCS bucket.
// An object only becomes visible once its writer is closed, so partial uploads never count as present.
type BlobStore struct {
	client *storage.Client
	bucket string
	prefix string
}

// New creates a GCS-backed store.
func New(client *storage.Client, cfg Config) (*BlobStore, error) {
	if client == nil {
		return nil, fmt.Errorf("storage client is required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("bucket name is required")
	}
	return &BlobStore{
		client: client,
		bucket: cfg.Bucket,
		prefix: strings.Trim(cfg.Prefix, "/"),
	}, nil
}

// Exists reports whether the object for locator is present.
func (s *BlobStore) Exists(ctx context.Context, locator string) (bool, error) {
	name, err := s.objectName(locator)
	if err != nil {
		return false, err
	}
	_, err = s.client.Bucket(s.bucket).Object(name).Attrs(ctx)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, storage.ErrObjectNotExist):
		return false, nil
	default:
		return false, fmt.Errorf("stat gs://%s/%s: %w", s.bucket, name, err)
	}
}

// Write uploads data to the object for locator.
func (s *BlobStore) Write(ctx context.Context, locator string, data []byte) error {
	name, err := s.objectName(locator)
	if err != nil {
		return err
	}
	writer := s.client.Bucket(s.bucket).Object(name).NewWriter(ctx)
	writer.ContentType = contentType(name)
	if _, err := writer.Write(data); err != nil {
		closeErr := writer.Close()
		if closeErr != nil {
			return fmt.Errorf("write object %s: %w (close writer: %v)", name, err, closeErr)
		}
		return fmt.Errorf("write object %s: %w", name, err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("close writer for %s: %w", name, err)
	}
	return nil
}

// List returns the locators of objects directly under dir ending in ext.
func (s *BlobStore) List(ctx context.Context, dir string, ext string) ([]string, error) {
	dirName, err := s.objectName(dir)
	if err != nil {
		return nil, err
	}
	it := s.client.Bucket(s.bucket).Objects(ctx, &storage.Query{
		Prefix:    dirName + "/",
		Delimiter: "/",
	})
	var locators []string
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list gs://%s/%s: %w", s.bucket, dirName, err)
		}
		// Synthetic "directory" entries carry only a prefix.
		if attrs.Name == "" {
			continue
		}
		if ext != "" && path.Ext(attrs.Name) != ext {
			continue
		}
		locators = append(locators, s.locator(attrs.Name))
	}
	sort.Strings(locators)
	return locators, nil
}

// Open streams the object for locator.
func (s *BlobStore) Open(ctx context.Context, locator string) (io.ReadCloser, error) {
	name, err := s.objectName(locator)
	if err != nil {
		return nil, err
	}
	reader, err := s.client.Bucket(s.bucket).Object(name).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("open gs://%s/%s: %w", s.bucket, name, err)
	}
	return reader, nil
}

// URI returns the gs:// URI for locator, for logging.
func (s *BlobStore) URI(locator string) string {
	name, err := s.objectName(locator)
	if err != nil {
		return ""
	}
	return fmt.Sprintf("gs://%s/%s", s.bucket, name)
}

func (s *BlobStore) objectName(locator string) (string, error) {
	clean := strings.Trim(path.Clean("/"+strings.TrimSpace(locator)), "/")
	if clean == "" || clean == "." {
		return "", fmt.Errorf("path is required")
	}
	if s.prefix == "" {
		return clean, nil
	}
	return s.prefix + "/" + clean, nil
}

func (s *BlobStore) locator(name string) string {
	if s.prefix == "" {
		return name
	}
	return strings.TrimPrefix(name, s.prefix+"/")
}

func contentType(name string) string {
	switch strings.ToLower(path.Ext(name)) {
	case ".csv":
		return "text/csv"
	case ".png":
		return "image/png"
	case ".txt":
		return "text/plain; charset=utf-8"
	default:
		return "application/octet-stream"
	}
}
