// Package source loads extraction-batch records for ingestion. A batch is
// a JSON array of raw extraction records; the payload shape inside each
// record belongs to the extraction service and is interpreted downstream.
package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"cloud.google.com/go/storage"
)

// RecordSource provides one batch of raw extraction records.
type RecordSource interface {
	Load(ctx context.Context) ([]map[string]any, error)
}

// FileSource reads a batch from a local JSON file.
type FileSource struct {
	Path string
}

func (s *FileSource) Load(ctx context.Context) ([]map[string]any, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("Load: reading %q: %w", s.Path, err)
	}
	return decodeBatch(data)
}

// GCSSource reads a batch from a gs:// URI. It assumes Application Default
// Credentials are configured (gcloud auth application-default login).
type GCSSource struct {
	URI string
}

func (s *GCSSource) Load(ctx context.Context) ([]map[string]any, error) {
	bucketName, objectPath, err := splitGCSURI(s.URI)
	if err != nil {
		return nil, fmt.Errorf("Load: %w", err)
	}

	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("Load: creating storage client: %w", err)
	}
	defer client.Close()

	rc, err := client.Bucket(bucketName).Object(objectPath).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("Load: reading object %s/%s: %w", bucketName, objectPath, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("Load: reading bytes: %w", err)
	}
	return decodeBatch(data)
}

// UploadFile uploads a local batch file to a GCS bucket under the given
// object name.
func UploadFile(ctx context.Context, bucketName, objectName, filePath string) error {
	f, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("UploadFile: opening %q: %w", filePath, err)
	}
	defer f.Close()

	client, err := storage.NewClient(ctx)
	if err != nil {
		return fmt.Errorf("UploadFile: creating storage client: %w", err)
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := client.Bucket(bucketName).Object(objectName).NewWriter(ctx)
	if _, err := io.Copy(w, f); err != nil {
		_ = w.Close()
		return fmt.Errorf("UploadFile: copying to GCS writer: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("UploadFile: finalizing upload: %w", err)
	}
	return nil
}

func decodeBatch(data []byte) ([]map[string]any, error) {
	var records []map[string]any
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decodeBatch: %w", err)
	}
	return records, nil
}

// splitGCSURI splits a gs://bucket/object URI into its bucket and object
// path.
func splitGCSURI(uri string) (bucket, object string, err error) {
	if !strings.HasPrefix(uri, "gs://") {
		return "", "", fmt.Errorf("invalid GCS URI: %s", uri)
	}
	trimmed := strings.TrimPrefix(uri, "gs://")
	parts := strings.SplitN(trimmed, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid GCS URI (no object path): %s", uri)
	}
	return parts[0], parts[1], nil
}
