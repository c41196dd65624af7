package storage

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestParseS3(t *testing.T) {
	tests := []struct {
		uri     string
		bucket  string
		key     string
		wantErr bool
	}{
		{"s3://bucket/key.json", "bucket", "key.json", false},
		{"s3://bucket/nested/path/key.json", "bucket", "nested/path/key.json", false},
		{"s3://bucket", "", "", true},
		{"http://bucket/key", "", "", true},
		{"s3:///key", "", "", true},
	}
	for _, tt := range tests {
		b, k, err := parseS3(tt.uri)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseS3(%q) err=%v; wantErr=%v", tt.uri, err, tt.wantErr)
			continue
		}
		if b != tt.bucket || k != tt.key {
			t.Errorf("parseS3(%q)=(%q,%q); want (%q,%q)", tt.uri, b, k, tt.bucket, tt.key)
		}
	}
}

func TestFileURIRoundTrip(t *testing.T) {
	dir := t.TempDir()
	uri := "file://" + filepath.Join(dir, "sub", "artifact.bin")

	s := &S3Client{}
	if _, err := s.Put(context.Background(), uri, bytes.NewReader([]byte("payload"))); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "sub", "artifact.bin")); err != nil {
		t.Fatalf("artifact missing on disk: %v", err)
	}

	got, err := ReadAll(context.Background(), s, uri)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(got) != "payload" {
		t.Fatalf("ReadAll=%q", got)
	}
}

func TestReadJSON(t *testing.T) {
	ms := NewMemStore()
	ms.Objects["s3://b/doc.json"] = []byte(`{"name": "x", "count": 2}`)

	var v struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}
	if err := ReadJSON(context.Background(), ms, "s3://b/doc.json", &v); err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	if v.Name != "x" || v.Count != 2 {
		t.Fatalf("decoded %+v", v)
	}

	if err := ReadJSON(context.Background(), ms, "s3://b/missing.json", &v); err == nil {
		t.Fatal("expected error for missing object")
	}
}
