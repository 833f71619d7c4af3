package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"
)

// ArtifactWriter persists training artifacts to a local directory and,
// when an uploader is configured, mirrors them to S3 under a dated prefix.
type ArtifactWriter struct {
	dir      string
	uploader *S3Uploader
	version  string
}

func NewArtifactWriter(dir string, uploader *S3Uploader) *ArtifactWriter {
	return &ArtifactWriter{
		dir:      dir,
		uploader: uploader,
		version:  time.Now().Format("2006-01-02"),
	}
}

// WriteJSON writes one artifact as indented JSON.
func (w *ArtifactWriter) WriteJSON(ctx context.Context, name string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", name, err)
	}
	return w.write(ctx, name, data, "application/json")
}

// WriteFile copies an already-rendered artifact file (e.g. the dataset CSV)
// into the artifact set.
func (w *ArtifactWriter) WriteFile(ctx context.Context, name, srcPath, contentType string) error {
	data, err := os.ReadFile(srcPath)
	if err != nil {
		return fmt.Errorf("read %s: %w", srcPath, err)
	}
	return w.write(ctx, name, data, contentType)
}

func (w *ArtifactWriter) write(ctx context.Context, name string, data []byte, contentType string) error {
	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return err
	}

	path := filepath.Join(w.dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	if w.uploader != nil {
		key := ArtifactKey(w.version, name)
		if err := w.uploader.Upload(ctx, key, bytes.NewReader(data), contentType); err != nil {
			// Local copy exists; an upload failure should not fail training.
			log.Printf("Train: warning: upload %s: %v", key, err)
		}
	}

	return nil
}
