package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
)

// ObjectStore defines minimal methods for manifest, detail-document and
// artifact I/O.
type ObjectStore interface {
	// Get returns a reader for the given URI (s3://bucket/key or file://path).
	Get(ctx context.Context, uri string) (io.ReadCloser, int64, error)
	// Put writes content to the given URI (s3://bucket/key); returns final URI.
	Put(ctx context.Context, uri string, body io.Reader) (string, error)
}

// ReadJSON fetches the object at uri and decodes it into v.
func ReadJSON(ctx context.Context, store ObjectStore, uri string, v any) error {
	rc, _, err := store.Get(ctx, uri)
	if err != nil {
		return fmt.Errorf("get %s: %w", uri, err)
	}
	defer rc.Close()
	if err := json.NewDecoder(rc).Decode(v); err != nil {
		return fmt.Errorf("decode %s: %w", uri, err)
	}
	return nil
}

// ReadAll fetches the object at uri into memory.
func ReadAll(ctx context.Context, store ObjectStore, uri string) ([]byte, error) {
	rc, _, err := store.Get(ctx, uri)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
