package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestNewLocalStorageMissingDir(t *testing.T) {
	_, err := NewLocalStorage(filepath.Join(t.TempDir(), "absent"))
	if !errors.Is(err, ErrDirectoryNotFound) {
		t.Fatalf("expected ErrDirectoryNotFound, got %v", err)
	}
}

func TestRequireDirRejectsFile(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(f, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := RequireDir(f); !errors.Is(err, ErrDirectoryNotFound) {
		t.Fatalf("expected ErrDirectoryNotFound, got %v", err)
	}
}

func TestLocalStorageRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStorage(context.Background(), dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.IsS3() {
		t.Fatal("local path reported as S3")
	}

	if err := s.WriteFile("562.json", []byte(`{"a":1}`)); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := s.WriteFile("sub/562.msgpack", []byte{1}); err != nil {
		t.Fatalf("write nested: %v", err)
	}

	ok, err := s.Exists("562.json")
	if err != nil || !ok {
		t.Fatalf("exists = %v, %v", ok, err)
	}
	ok, _ = s.Exists("nope")
	if ok {
		t.Fatal("missing file reported as existing")
	}

	data, err := s.ReadFile("562.json")
	if err != nil || string(data) != `{"a":1}` {
		t.Fatalf("read = %q, %v", data, err)
	}

	files, err := s.List("sub/")
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 1 || filepath.ToSlash(files[0]) != "sub/562.msgpack" {
		t.Fatalf("unexpected listing: %v", files)
	}
}

func TestWriteFileAfterDirRemoved(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	if err := os.Mkdir(dir, 0755); err != nil {
		t.Fatal(err)
	}
	s, err := NewLocalStorage(dir)
	if err != nil {
		t.Fatal(err)
	}
	os.Remove(dir)
	if err := s.WriteFile("x", nil); !errors.Is(err, ErrDirectoryNotFound) {
		t.Fatalf("expected ErrDirectoryNotFound, got %v", err)
	}
}

func TestParseS3URI(t *testing.T) {
	tests := []struct {
		in             string
		bucket, prefix string
		wantErr        bool
	}{
		{"s3://bucket/a/b/", "bucket", "a/b", false},
		{"s3://bucket", "bucket", "", false},
		{"s3:///x", "", "", true},
		{"/tmp/x", "", "", true},
	}
	for _, tt := range tests {
		u, err := ParseS3URI(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("%s: expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("%s: unexpected error: %v", tt.in, err)
			continue
		}
		if u.Bucket != tt.bucket || u.Prefix != tt.prefix {
			t.Errorf("%s: got %+v", tt.in, u)
		}
	}
}

func TestOpenCachedFallsBackToCompressed(t *testing.T) {
	dir := t.TempDir()
	c, err := NewCompressor()
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	payload := []byte(">C1\nACGTACGT\n")
	if err := os.WriteFile(filepath.Join(dir, "1.fna"+CompressedExt), c.Compress(payload), 0644); err != nil {
		t.Fatal(err)
	}

	f, err := OpenCached(dir, "1.fna")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	got, err := io.ReadAll(f)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != string(payload) {
		t.Fatalf("got %q", got)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		t.Fatalf("seek: %v", err)
	}
}

func TestOpenCachedMissing(t *testing.T) {
	_, err := OpenCached(t.TempDir(), "none.fna")
	if !os.IsNotExist(err) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}

func TestOpenCachedReadAt(t *testing.T) {
	dir := t.TempDir()
	c, err := NewCompressor()
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	payload := []byte(">C1\nACGTACGT\n")
	if err := os.WriteFile(filepath.Join(dir, "plain.fna"), payload, 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "packed.fna"+CompressedExt), c.Compress(payload), 0644); err != nil {
		t.Fatal(err)
	}

	for _, name := range []string{"plain.fna", "packed.fna"} {
		f, err := OpenCached(dir, name)
		if err != nil {
			t.Fatalf("open %s: %v", name, err)
		}
		buf := make([]byte, 4)
		if _, err := f.ReadAt(buf, 6); err != nil {
			t.Fatalf("%s: ReadAt: %v", name, err)
		}
		if string(buf) != "GTAC" {
			t.Fatalf("%s: got %q, want GTAC", name, buf)
		}
		f.Close()
	}
}
