package bvbrc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/jlaffaye/ftp"
	"github.com/scttfrdmn/smartamr-go/pkg/logging"
	"github.com/scttfrdmn/smartamr-go/pkg/storage"
)

const (
	// DefaultMinDelay is the minimum spacing between two requests.
	DefaultMinDelay = 1 * time.Second
	// DefaultTimeout bounds a single transfer.
	DefaultTimeout = 15 * time.Second
)

// ErrTransport wraps every network or transfer failure.
var ErrTransport = errors.New("transport failure")

// FetchJob describes one file to fetch. Jobs are immutable values.
type FetchJob struct {
	GenomeID   string
	Kind       FileKind
	RemoteBase string
	OutputDir  string
	Filename   string
}

// Target returns the local path the job writes to.
func (j FetchJob) Target() string {
	return filepath.Join(j.OutputDir, path.Base(j.Filename))
}

// FetchResult is the outcome of running one job.
type FetchResult struct {
	Job      FetchJob
	Bytes    int64 // bytes written by this attempt
	Err      error
	Finished time.Time
}

// OK reports whether the job succeeded.
func (r FetchResult) OK() bool {
	return r.Err == nil
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithMinDelay sets the minimum delay slept before every request.
func WithMinDelay(d time.Duration) FetcherOption {
	return func(f *Fetcher) { f.minDelay = d }
}

// WithTimeout bounds each individual transfer.
func WithTimeout(d time.Duration) FetcherOption {
	return func(f *Fetcher) { f.timeout = d }
}

// WithHTTPClient replaces the client used for http(s) transfers.
func WithHTTPClient(c *http.Client) FetcherOption {
	return func(f *Fetcher) { f.client = c }
}

// Fetcher performs resumable single-file downloads into one output directory.
// A Fetcher may be shared between goroutines; requests issued through it are
// always at least minDelay apart.
type Fetcher struct {
	outDir   string
	minDelay time.Duration
	timeout  time.Duration
	client   *http.Client

	mu sync.Mutex
}

// NewFetcher returns a fetcher writing into outDir, which must exist.
func NewFetcher(outDir string, opts ...FetcherOption) (*Fetcher, error) {
	if err := storage.RequireDir(outDir); err != nil {
		return nil, err
	}
	f := &Fetcher{
		outDir:   outDir,
		minDelay: DefaultMinDelay,
		timeout:  DefaultTimeout,
		client:   http.DefaultClient,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// OutputDir returns the directory files are written to.
func (f *Fetcher) OutputDir() string {
	return f.outDir
}

// MinDelay returns the enforced request spacing.
func (f *Fetcher) MinDelay() time.Duration {
	return f.minDelay
}

// Fetch downloads remoteBase+filename into the output directory, continuing
// a partial file when one is present. Failures are logged and returned; they
// never panic or exit. It returns the number of bytes written by this call.
func (f *Fetcher) Fetch(ctx context.Context, remoteBase, filename string) (int64, error) {
	target := filepath.Join(f.outDir, path.Base(filename))
	remote := joinURL(remoteBase, filename)

	// The lock is held from the delay until the request has been issued,
	// so issue times through one Fetcher are always minDelay apart.
	f.mu.Lock()
	var once sync.Once
	release := func() { once.Do(f.mu.Unlock) }
	defer release()

	if err := f.sleep(ctx); err != nil {
		logging.Warn.Printf("Error of download: %s -> %s: %v", remote, target, err)
		return 0, fmt.Errorf("%w: %s: %w", ErrTransport, target, err)
	}

	logging.Info.Printf("Downloading %s", remote)

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	n, err := f.transfer(ctx, remote, target, release)
	if err != nil {
		logging.Warn.Printf("Error of download: %s -> %s: %v", remote, target, err)
		return n, fmt.Errorf("%w: %s: %w", ErrTransport, target, err)
	}
	return n, nil
}

// Run executes a job. The job's OutputDir is ignored in favour of the
// fetcher's own directory.
func (f *Fetcher) Run(ctx context.Context, job FetchJob) FetchResult {
	n, err := f.Fetch(ctx, job.RemoteBase, job.Filename)
	job.OutputDir = f.outDir
	return FetchResult{Job: job, Bytes: n, Err: err, Finished: time.Now()}
}

func (f *Fetcher) sleep(ctx context.Context) error {
	if f.minDelay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(f.minDelay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// transfer calls issued once the remote side has accepted the request.
func (f *Fetcher) transfer(ctx context.Context, remote, target string, issued func()) (int64, error) {
	u, err := url.Parse(remote)
	if err != nil {
		return 0, err
	}

	switch u.Scheme {
	case "http", "https":
		return f.fetchHTTP(ctx, u, target, issued)
	case "ftp":
		return f.fetchFTP(ctx, u, target, issued)
	default:
		return 0, fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
}

func (f *Fetcher) fetchHTTP(ctx context.Context, u *url.URL, target string, issued func()) (int64, error) {
	offset := localSize(target)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return 0, err
	}
	if offset > 0 {
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-", offset))
	}

	resp, err := f.client.Do(req)
	issued()
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	flags := os.O_CREATE | os.O_WRONLY
	switch resp.StatusCode {
	case http.StatusOK:
		// full body, either a fresh download or the server ignored Range
		flags |= os.O_TRUNC
	case http.StatusPartialContent:
		if !strings.HasPrefix(resp.Header.Get("Content-Range"), fmt.Sprintf("bytes %d-", offset)) {
			return 0, fmt.Errorf("unexpected Content-Range %q for offset %d", resp.Header.Get("Content-Range"), offset)
		}
		flags |= os.O_APPEND
	case http.StatusRequestedRangeNotSatisfiable:
		if offset > 0 {
			return 0, nil
		}
		fallthrough
	default:
		return 0, fmt.Errorf("unexpected status %s", resp.Status)
	}

	return writeBody(target, flags, resp.Body)
}

func (f *Fetcher) fetchFTP(ctx context.Context, u *url.URL, target string, issued func()) (int64, error) {
	host := u.Host
	if u.Port() == "" {
		host += ":21"
	}

	c, err := ftp.Dial(host, ftp.DialWithContext(ctx), ftp.DialWithTimeout(f.timeout))
	if err != nil {
		return 0, err
	}
	defer c.Quit()

	user, pass := "anonymous", "anonymous"
	if u.User != nil {
		user = u.User.Username()
		if p, ok := u.User.Password(); ok {
			pass = p
		}
	}
	if err := c.Login(user, pass); err != nil {
		return 0, err
	}

	offset := localSize(target)
	if offset > 0 {
		size, err := c.FileSize(u.Path)
		switch {
		case err != nil: // size unknown, try to resume
		case size == offset:
			return 0, nil
		case size < offset:
			// local copy is longer than the remote file; start over
			logging.Warn.Printf("%s: local size %d exceeds remote size %d, refetching", target, offset, size)
			offset = 0
		}
	}

	resp, err := c.RetrFrom(u.Path, uint64(offset))
	issued()
	if err != nil {
		return 0, err
	}
	if deadline, ok := ctx.Deadline(); ok {
		resp.SetDeadline(deadline)
	}

	flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if offset > 0 {
		flags = os.O_CREATE | os.O_WRONLY | os.O_APPEND
	}
	n, err := writeBody(target, flags, resp)
	// Close reads the final transfer reply; an aborted transfer surfaces here.
	if cerr := resp.Close(); err == nil {
		err = cerr
	}
	return n, err
}

func writeBody(target string, flags int, body io.Reader) (int64, error) {
	out, err := os.OpenFile(target, flags, 0644)
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(out, body)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	return n, err
}

func localSize(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.Size()
}

func joinURL(base, name string) string {
	if base == "" {
		return name
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base + strings.TrimPrefix(name, "/")
}
