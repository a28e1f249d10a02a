// Package gnps downloads result files of GNPS analysis tasks.
package gnps

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode"

	"github.com/gnps/groupselector/pkg/table"
)

// ResultKind names a result file of a task. Its value is the file selector
// understood by the download endpoint.
type ResultKind string

const (
	ClusterSummary ResultKind = "clusterinfo_summary/"
	MetadataMerged ResultKind = "metadata_merged/"
	FileSummary    ResultKind = "filestatsresults/"
)

// Name is a short label, used in logs and metrics.
func (k ResultKind) Name() string {
	switch k {
	case ClusterSummary:
		return "cluster_summary"
	case MetadataMerged:
		return "metadata_merged"
	case FileSummary:
		return "file_summary"
	default:
		return "unknown"
	}
}

// DefaultApiRoot is the public GNPS server.
const DefaultApiRoot = "https://gnps.ucsd.edu"

// Fetcher retrieves a result table of a task.
type Fetcher interface {
	// Fetch downloads and parses a result file.
	//
	// # Args
	//
	// - ctx: context.Context
	//
	// - task: task identifier
	//
	// - kind: which result file
	//
	// # Returns
	//
	// - *table.Table: parsed result
	//
	// - error: *RemoteFetchError, when the download fails, the task is missing
	// or the response is not tab separated text.
	Fetch(ctx context.Context, task string, kind ResultKind) (*table.Table, error)
}

// Observer receives the outcome of each download.
type Observer interface {
	ObserveFetch(kind string, err error, elapsed time.Duration)
}

type nopObserver struct{}

func (nopObserver) ObserveFetch(string, error, time.Duration) {}

type client struct {
	httpclient *http.Client
	api        string
	observer   Observer
}

type Option func(*client)

// WithHTTPClient replaces the http client used for downloads.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *client) {
		c.httpclient = hc
	}
}

// WithTimeout limits each download. Zero means no limit.
func WithTimeout(d time.Duration) Option {
	return func(c *client) {
		hc := *c.httpclient
		hc.Timeout = d
		c.httpclient = &hc
	}
}

func WithObserver(o Observer) Option {
	return func(c *client) {
		if o != nil {
			c.observer = o
		}
	}
}

// NewClient creates a Fetcher talking to the GNPS server at apiRoot.
func NewClient(apiRoot string, opts ...Option) (Fetcher, error) {
	u, err := url.Parse(apiRoot)
	if err != nil {
		return nil, err
	}
	if !u.IsAbs() || u.Host == "" {
		return nil, fmt.Errorf("gnps: api root should be an absolute URL: %s", apiRoot)
	}

	c := &client{
		httpclient: new(http.Client),
		api:        strings.TrimSuffix(apiRoot, "/"),
		observer:   nopObserver{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// DownloadURL is the address of a result file.
func DownloadURL(apiRoot string, task string, kind ResultKind) string {
	q := url.Values{}
	q.Set("task", task)
	q.Set("file", string(kind))
	return strings.TrimSuffix(apiRoot, "/") + "/ProteoSAFe/DownloadResultFile?" + q.Encode()
}

func (c *client) Fetch(ctx context.Context, task string, kind ResultKind) (*table.Table, error) {
	begin := time.Now()
	t, err := c.fetch(ctx, task, kind)
	c.observer.ObserveFetch(kind.Name(), err, time.Since(begin))
	return t, err
}

func (c *client) fetch(ctx context.Context, task string, kind ResultKind) (*table.Table, error) {
	fail := func(status int, cause error) error {
		return &RemoteFetchError{Task: task, Kind: kind, StatusCode: status, Cause: cause}
	}

	switch kind {
	case ClusterSummary, MetadataMerged, FileSummary:
	default:
		return nil, fail(0, fmt.Errorf("%w: %q", errUnknownKind, string(kind)))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, DownloadURL(c.api, task, kind), nil)
	if err != nil {
		return nil, fail(0, err)
	}

	resp, err := c.httpclient.Do(req)
	if err != nil {
		return nil, fail(0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || 300 <= resp.StatusCode {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fail(resp.StatusCode, fmt.Errorf("%w: %s", errStatus, resp.Status))
	}

	body := bufio.NewReader(resp.Body)
	if looksLikeMarkup(body) {
		return nil, fail(resp.StatusCode, errNotTabular)
	}

	t, err := table.ParseTSV(body)
	if err != nil {
		return nil, fail(resp.StatusCode, err)
	}
	return t, nil
}

// looksLikeMarkup peeks the head of body. The server answers unknown tasks
// with an HTML page in some cases.
func looksLikeMarkup(body *bufio.Reader) bool {
	head, _ := body.Peek(512)
	trimmed := strings.TrimLeftFunc(string(head), unicode.IsSpace)
	return strings.HasPrefix(trimmed, "<")
}
