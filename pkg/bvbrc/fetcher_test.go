package bvbrc

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/scttfrdmn/smartamr-go/pkg/logging"
	"github.com/scttfrdmn/smartamr-go/pkg/storage"
)

// fakeRepo serves files from memory and records every request.
type fakeRepo struct {
	mu       sync.Mutex
	files    map[string][]byte
	requests []fakeRequest
}

type fakeRequest struct {
	path string
	rng  string
	at   time.Time
}

// issueRecorder notes when each request leaves the client.
type issueRecorder struct {
	mu    sync.Mutex
	times []time.Time
	paths []string
}

func (r *issueRecorder) RoundTrip(req *http.Request) (*http.Response, error) {
	r.mu.Lock()
	r.times = append(r.times, time.Now())
	r.paths = append(r.paths, req.URL.Path)
	r.mu.Unlock()
	return http.DefaultTransport.RoundTrip(req)
}

func (r *issueRecorder) client() *http.Client {
	return &http.Client{Transport: r}
}

func (r *issueRecorder) snapshot() ([]time.Time, []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]time.Time(nil), r.times...), append([]string(nil), r.paths...)
}

func newFakeRepo(files map[string][]byte) (*fakeRepo, *httptest.Server) {
	repo := &fakeRepo{files: files}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		repo.mu.Lock()
		repo.requests = append(repo.requests, fakeRequest{path: r.URL.Path, rng: r.Header.Get("Range"), at: time.Now()})
		data, ok := repo.files[r.URL.Path]
		repo.mu.Unlock()
		if !ok {
			http.NotFound(w, r)
			return
		}
		http.ServeContent(w, r, filepath.Base(r.URL.Path), time.Time{}, bytes.NewReader(data))
	}))
	return repo, srv
}

func (r *fakeRepo) snapshot() []fakeRequest {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]fakeRequest(nil), r.requests...)
}

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	logging.SetOutput(&buf)
	t.Cleanup(func() { logging.SetOutput(os.Stderr) })
	return &buf
}

func TestNewFetcherMissingDir(t *testing.T) {
	repo, srv := newFakeRepo(nil)
	defer srv.Close()

	_, err := NewFetcher(filepath.Join(t.TempDir(), "missing"))
	if !errors.Is(err, storage.ErrDirectoryNotFound) {
		t.Fatalf("expected ErrDirectoryNotFound, got %v", err)
	}
	if n := len(repo.snapshot()); n != 0 {
		t.Fatalf("expected no requests, got %d", n)
	}
}

func TestFetchWholeFile(t *testing.T) {
	captureLog(t)
	_, srv := newFakeRepo(map[string][]byte{"/genomes/1.1/1.1.fna": []byte(">C1\nACGT\n")})
	defer srv.Close()

	dir := t.TempDir()
	f, err := NewFetcher(dir, WithMinDelay(0))
	if err != nil {
		t.Fatal(err)
	}
	n, err := f.Fetch(context.Background(), srv.URL+"/genomes/1.1/", "1.1.fna")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 9 {
		t.Fatalf("expected 9 bytes, got %d", n)
	}
	got, _ := os.ReadFile(filepath.Join(dir, "1.1.fna"))
	if string(got) != ">C1\nACGT\n" {
		t.Fatalf("unexpected content %q", got)
	}
}

func TestFetchResumesPartialFile(t *testing.T) {
	captureLog(t)
	full := []byte("0123456789abcdef")
	repo, srv := newFakeRepo(map[string][]byte{"/g/x.tab": full})
	defer srv.Close()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "x.tab"), full[:6], 0644); err != nil {
		t.Fatal(err)
	}

	f, err := NewFetcher(dir, WithMinDelay(0))
	if err != nil {
		t.Fatal(err)
	}
	n, err := f.Fetch(context.Background(), srv.URL+"/g", "x.tab")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != int64(len(full)-6) {
		t.Fatalf("expected %d new bytes, got %d", len(full)-6, n)
	}
	got, _ := os.ReadFile(filepath.Join(dir, "x.tab"))
	if !bytes.Equal(got, full) {
		t.Fatalf("unexpected content %q", got)
	}
	reqs := repo.snapshot()
	if len(reqs) != 1 || reqs[0].rng != "bytes=6-" {
		t.Fatalf("unexpected requests %+v", reqs)
	}

	// already complete: nothing more is written
	n, err = f.Fetch(context.Background(), srv.URL+"/g", "x.tab")
	if err != nil || n != 0 {
		t.Fatalf("second fetch = %d, %v", n, err)
	}
	got, _ = os.ReadFile(filepath.Join(dir, "x.tab"))
	if !bytes.Equal(got, full) {
		t.Fatalf("content changed on refetch: %q", got)
	}
}

func TestFetchFailureIsLoggedAndReturned(t *testing.T) {
	logs := captureLog(t)
	_, srv := newFakeRepo(nil)
	defer srv.Close()

	dir := t.TempDir()
	f, err := NewFetcher(dir, WithMinDelay(0))
	if err != nil {
		t.Fatal(err)
	}
	_, err = f.Fetch(context.Background(), srv.URL+"/genomes/9.9/", "9.9.fna")
	if !errors.Is(err, ErrTransport) {
		t.Fatalf("expected ErrTransport, got %v", err)
	}
	target := filepath.Join(dir, "9.9.fna")
	if !strings.Contains(err.Error(), target) {
		t.Fatalf("error does not name target: %v", err)
	}
	if !strings.Contains(logs.String(), target) {
		t.Fatalf("log does not name target: %q", logs.String())
	}
}

func TestFetchUnsupportedScheme(t *testing.T) {
	captureLog(t)
	f, err := NewFetcher(t.TempDir(), WithMinDelay(0))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.Fetch(context.Background(), "gopher://example.org/", "a"); !errors.Is(err, ErrTransport) {
		t.Fatalf("expected ErrTransport, got %v", err)
	}
}

func TestFetchTimeout(t *testing.T) {
	captureLog(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	f, err := NewFetcher(t.TempDir(), WithMinDelay(0), WithTimeout(50*time.Millisecond))
	if err != nil {
		t.Fatal(err)
	}
	start := time.Now()
	if _, err := f.Fetch(context.Background(), srv.URL+"/", "slow"); !errors.Is(err, ErrTransport) {
		t.Fatalf("expected ErrTransport, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("timeout not enforced, took %s", elapsed)
	}
}

func TestFetchSpacing(t *testing.T) {
	captureLog(t)
	_, srv := newFakeRepo(map[string][]byte{"/a": []byte("a"), "/b": []byte("b"), "/c": []byte("c")})
	defer srv.Close()

	const delay = 40 * time.Millisecond
	rec := &issueRecorder{}
	f, err := NewFetcher(t.TempDir(), WithMinDelay(delay), WithHTTPClient(rec.client()))
	if err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	for _, name := range []string{"a", "b", "c"} {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			f.Fetch(context.Background(), srv.URL+"/", name)
		}(name)
	}
	wg.Wait()

	times, _ := rec.snapshot()
	if len(times) != 3 {
		t.Fatalf("expected 3 requests, got %d", len(times))
	}
	for i := 1; i < len(times); i++ {
		if gap := times[i].Sub(times[i-1]); gap < delay {
			t.Fatalf("requests %d and %d issued %s apart, want >= %s", i-1, i, gap, delay)
		}
	}
}
