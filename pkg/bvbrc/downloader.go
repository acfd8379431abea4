package bvbrc

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/scttfrdmn/smartamr-go/pkg/logging"
)

// Report collects the outcome of a batch of fetches.
type Report struct {
	RunID    string
	GenomeID string
	Results  []FetchResult
}

// Failed returns the results that did not succeed.
func (r *Report) Failed() []FetchResult {
	var failed []FetchResult
	for _, res := range r.Results {
		if !res.OK() {
			failed = append(failed, res)
		}
	}
	return failed
}

// Succeeded counts successful fetches.
func (r *Report) Succeeded() int {
	return len(r.Results) - len(r.Failed())
}

// Downloader fetches genome files and repository metadata through one
// shared Fetcher, so the rate limit holds across file kinds and genomes.
type Downloader struct {
	Catalog       Catalog
	Fetcher       *Fetcher
	RepositoryURL string

	// Journal, when set, records every fetch outcome.
	Journal *Journal
}

// NewDownloader creates a downloader using the default repository root.
func NewDownloader(catalog Catalog, fetcher *Fetcher) *Downloader {
	return &Downloader{
		Catalog:       catalog,
		Fetcher:       fetcher,
		RepositoryURL: DefaultRepositoryURL,
	}
}

// Download fetches one file of genomeID. The returned error is only set for
// an invalid id or kind; a transport failure is reported in the result.
func (d *Downloader) Download(ctx context.Context, genomeID string, kind FileKind) (FetchResult, error) {
	base, name, err := d.Catalog.Resolve(genomeID, kind)
	if err != nil {
		return FetchResult{}, err
	}
	job := FetchJob{
		GenomeID:   genomeID,
		Kind:       kind,
		RemoteBase: base,
		OutputDir:  d.Fetcher.OutputDir(),
		Filename:   name,
	}
	res := d.Fetcher.Run(ctx, job)
	d.record(uuid.NewString(), res)
	return res, nil
}

// DownloadAll fetches every FileKind for genomeID, sequentially and in Kinds
// order. A failing file never stops the batch; the error is only set when the
// id is invalid, in which case nothing is fetched.
func (d *Downloader) DownloadAll(ctx context.Context, genomeID string) (*Report, error) {
	jobs, err := d.Catalog.Jobs(genomeID, d.Fetcher.OutputDir())
	if err != nil {
		return nil, err
	}

	report := &Report{RunID: uuid.NewString(), GenomeID: genomeID}
	for _, job := range jobs {
		res := d.Fetcher.Run(ctx, job)
		d.record(report.RunID, res)
		report.Results = append(report.Results, res)
	}

	if failed := report.Failed(); len(failed) > 0 {
		logging.Warn.Printf("%s: %d of %d files failed", genomeID, len(failed), len(report.Results))
		for _, res := range failed {
			logging.Warn.Printf("  %s: %v", res.Job.Target(), res.Err)
		}
	}
	return report, nil
}

// UpdateMetadata fetches repository-level metadata files, AMRMetadataFile
// when none are named.
func (d *Downloader) UpdateMetadata(ctx context.Context, files ...string) *Report {
	if len(files) == 0 {
		files = []string{AMRMetadataFile}
	}

	logging.Info.Printf("Updating metadata ...")
	report := &Report{RunID: uuid.NewString()}
	for _, name := range files {
		job := FetchJob{
			RemoteBase: d.RepositoryURL,
			OutputDir:  d.Fetcher.OutputDir(),
			Filename:   name,
		}
		res := d.Fetcher.Run(ctx, job)
		d.record(report.RunID, res)
		report.Results = append(report.Results, res)
	}
	return report
}

func (d *Downloader) record(runID string, res FetchResult) {
	if d.Journal == nil {
		return
	}
	if err := d.Journal.Record(runID, res); err != nil {
		logging.Warn.Printf("journal: %v", fmt.Errorf("recording %s: %w", res.Job.Filename, err))
	}
}
