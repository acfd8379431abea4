package bvbrc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func genomeFiles(genomeID string) map[string][]byte {
	files := make(map[string][]byte)
	for i, kind := range Kinds {
		files["/genomes/"+genomeID+"/"+Filename(genomeID, kind)] = []byte(fmt.Sprintf("%s payload %d\n", kind, i))
	}
	return files
}

func newTestDownloader(t *testing.T, baseURL string, delay time.Duration, rec *issueRecorder) (*Downloader, string) {
	t.Helper()
	dir := t.TempDir()
	opts := []FetcherOption{WithMinDelay(delay)}
	if rec != nil {
		opts = append(opts, WithHTTPClient(rec.client()))
	}
	f, err := NewFetcher(dir, opts...)
	if err != nil {
		t.Fatal(err)
	}
	d := NewDownloader(NewCatalog(baseURL+"/genomes"), f)
	d.RepositoryURL = baseURL + "/"
	return d, dir
}

func TestDownloadAllOrderAndSpacing(t *testing.T) {
	captureLog(t)
	_, srv := newFakeRepo(genomeFiles("1280.10"))
	defer srv.Close()

	const delay = 15 * time.Millisecond
	rec := &issueRecorder{}
	d, dir := newTestDownloader(t, srv.URL, delay, rec)

	report, err := d.DownloadAll(context.Background(), "1280.10")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Succeeded() != len(Kinds) || len(report.Failed()) != 0 {
		t.Fatalf("unexpected report: %d ok, %d failed", report.Succeeded(), len(report.Failed()))
	}
	if report.RunID == "" {
		t.Fatal("missing run id")
	}

	times, paths := rec.snapshot()
	if len(paths) != len(Kinds) {
		t.Fatalf("expected %d requests, got %d", len(Kinds), len(paths))
	}
	for i, kind := range Kinds {
		want := "/genomes/1280.10/" + Filename("1280.10", kind)
		if paths[i] != want {
			t.Fatalf("request %d: got %s, want %s", i, paths[i], want)
		}
		if i > 0 {
			if gap := times[i].Sub(times[i-1]); gap < delay {
				t.Fatalf("requests %d and %d issued %s apart", i-1, i, gap)
			}
		}
		if _, err := os.Stat(filepath.Join(dir, Filename("1280.10", kind))); err != nil {
			t.Fatalf("%s not written: %v", kind, err)
		}
	}
}

func TestDownloadAllPartialFailure(t *testing.T) {
	logs := captureLog(t)
	files := genomeFiles("562.7")
	delete(files, "/genomes/562.7/562.7.PATRIC.features.tab")
	repo, srv := newFakeRepo(files)
	defer srv.Close()

	d, _ := newTestDownloader(t, srv.URL, 0, nil)
	report, err := d.DownloadAll(context.Background(), "562.7")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(repo.snapshot()) != len(Kinds) {
		t.Fatalf("batch stopped early: %d requests", len(repo.snapshot()))
	}
	failed := report.Failed()
	if len(failed) != 1 || failed[0].Job.Kind != FeatureTable {
		t.Fatalf("unexpected failures: %+v", failed)
	}
	if !errors.Is(failed[0].Err, ErrTransport) {
		t.Fatalf("expected ErrTransport, got %v", failed[0].Err)
	}
	if !bytes.Contains(logs.Bytes(), []byte("562.7.PATRIC.features.tab")) {
		t.Fatalf("failure not logged: %q", logs.String())
	}
}

func TestDownloadAllInvalidID(t *testing.T) {
	captureLog(t)
	repo, srv := newFakeRepo(nil)
	defer srv.Close()

	d, _ := newTestDownloader(t, srv.URL, 0, nil)
	if _, err := d.DownloadAll(context.Background(), ""); !errors.Is(err, ErrInvalidIdentifier) {
		t.Fatalf("expected ErrInvalidIdentifier, got %v", err)
	}
	if _, err := d.Download(context.Background(), "", Assembly); !errors.Is(err, ErrInvalidIdentifier) {
		t.Fatalf("expected ErrInvalidIdentifier, got %v", err)
	}
	if n := len(repo.snapshot()); n != 0 {
		t.Fatalf("expected no requests, got %d", n)
	}
}

func TestDownloadAllIsIdempotent(t *testing.T) {
	captureLog(t)
	files := genomeFiles("83332.12")
	_, srv := newFakeRepo(files)
	defer srv.Close()

	d, dir := newTestDownloader(t, srv.URL, 0, nil)
	// leave a truncated assembly behind, as an interrupted run would
	name := Filename("83332.12", Assembly)
	full := files["/genomes/83332.12/"+name]
	if err := os.WriteFile(filepath.Join(dir, name), full[:3], 0644); err != nil {
		t.Fatal(err)
	}

	for run := 0; run < 3; run++ {
		if _, err := d.DownloadAll(context.Background(), "83332.12"); err != nil {
			t.Fatal(err)
		}
		for _, kind := range Kinds {
			name := Filename("83332.12", kind)
			got, err := os.ReadFile(filepath.Join(dir, name))
			if err != nil {
				t.Fatal(err)
			}
			if !bytes.Equal(got, files["/genomes/83332.12/"+name]) {
				t.Fatalf("run %d: %s differs: %q", run, name, got)
			}
		}
	}
}

func TestDownloadSingleKind(t *testing.T) {
	captureLog(t)
	repo, srv := newFakeRepo(genomeFiles("1.1"))
	defer srv.Close()

	d, dir := newTestDownloader(t, srv.URL, 0, nil)
	res, err := d.Download(context.Background(), "1.1", SpecialtyGene)
	if err != nil || !res.OK() {
		t.Fatalf("download = %+v, %v", res, err)
	}
	if res.Job.Target() != filepath.Join(dir, "1.1.PATRIC.spgene.tab") {
		t.Fatalf("unexpected target %s", res.Job.Target())
	}
	if reqs := repo.snapshot(); len(reqs) != 1 {
		t.Fatalf("expected one request, got %d", len(reqs))
	}
}

func TestUpdateMetadata(t *testing.T) {
	captureLog(t)
	_, srv := newFakeRepo(map[string][]byte{
		"/" + AMRMetadataFile: []byte("genome_id\tresistant_phenotype\n1.1\tResistant\n"),
	})
	defer srv.Close()

	d, dir := newTestDownloader(t, srv.URL, 0, nil)
	report := d.UpdateMetadata(context.Background())
	if len(report.Results) != 1 || !report.Results[0].OK() {
		t.Fatalf("unexpected report %+v", report.Results)
	}
	if _, err := os.Stat(filepath.Join(dir, "PATRIC_genomes_AMR.txt")); err != nil {
		t.Fatalf("metadata not written: %v", err)
	}
}

func TestDownloaderJournal(t *testing.T) {
	captureLog(t)
	files := genomeFiles("470.1")
	delete(files, "/genomes/470.1/470.1.PATRIC.gff")
	_, srv := newFakeRepo(files)
	defer srv.Close()

	d, _ := newTestDownloader(t, srv.URL, 0, nil)
	j, err := OpenJournal(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer j.Close()
	d.Journal = j

	report, err := d.DownloadAll(context.Background(), "470.1")
	if err != nil {
		t.Fatal(err)
	}

	entries, err := j.Entries("470.1")
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != len(Kinds) {
		t.Fatalf("expected %d entries, got %d", len(Kinds), len(entries))
	}
	for _, e := range entries {
		if e.RunID != report.RunID {
			t.Fatalf("entry %s has run id %s, want %s", e.Filename, e.RunID, report.RunID)
		}
	}

	failures, err := j.Failures("470.1")
	if err != nil {
		t.Fatal(err)
	}
	if len(failures) != 1 || failures[0].Filename != "470.1.PATRIC.gff" || failures[0].Kind != string(Annotation) {
		t.Fatalf("unexpected failures %+v", failures)
	}
	if failures[0].Error == "" || failures[0].Finished().IsZero() {
		t.Fatalf("failure missing details: %+v", failures[0])
	}

	// another genome's entries do not leak into the prefix scan
	other, err := j.Entries("470")
	if err != nil {
		t.Fatal(err)
	}
	if len(other) != 0 {
		t.Fatalf("expected no entries for 470, got %d", len(other))
	}
}
