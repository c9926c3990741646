package catalog

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ErrEmptyBody is returned when the data file yields no content at all.
var ErrEmptyBody = errors.New("catalog source returned an empty body")

const (
	defaultUserAgent = "dram/0.1"
	fetchTimeout     = 30 * time.Second
)

// Store holds the ordered catalog. It is built once by Load and never mutated;
// a reload produces a new Store.
type Store struct {
	source  string
	records []Record
}

// NewStore wraps already-parsed records, keeping their order.
func NewStore(source string, records []Record) *Store {
	dup := make([]Record, len(records))
	copy(dup, records)
	return &Store{source: source, records: dup}
}

// Len reports the number of records. A nil Store is empty.
func (s *Store) Len() int {
	if s == nil {
		return 0
	}
	return len(s.records)
}

// At returns the record at the canonical position i.
func (s *Store) At(i int) (Record, bool) {
	if s == nil || i < 0 || i >= len(s.records) {
		return Record{}, false
	}
	return s.records[i], true
}

// Records returns a copy of the ordered catalog.
func (s *Store) Records() []Record {
	if s == nil || len(s.records) == 0 {
		return nil
	}
	dup := make([]Record, len(s.records))
	copy(dup, s.records)
	return dup
}

// Source is the path or URL the catalog was loaded from.
func (s *Store) Source() string {
	if s == nil {
		return ""
	}
	return s.source
}

type loadOptions struct {
	client   *http.Client
	progress func(total int64) io.Writer
}

// Option customises Load.
type Option func(*loadOptions)

// WithHTTPClient overrides the client used for http(s) sources.
func WithHTTPClient(c *http.Client) Option {
	return func(o *loadOptions) { o.client = c }
}

// WithProgress attaches a writer that receives every byte read from the source.
// total is -1 when the size is unknown.
func WithProgress(fn func(total int64) io.Writer) Option {
	return func(o *loadOptions) { o.progress = fn }
}

// Load retrieves and parses the catalog from a local path, a file:// URL or an
// http(s):// URL. Any failure returns a nil Store; there is no partial catalog.
func Load(ctx context.Context, source string, opts ...Option) (*Store, error) {
	o := loadOptions{client: &http.Client{Timeout: fetchTimeout}}
	for _, opt := range opts {
		opt(&o)
	}

	source = strings.TrimSpace(source)
	if source == "" {
		return nil, fmt.Errorf("catalog source is empty")
	}

	body, err := fetch(ctx, source, o)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, ErrEmptyBody
	}

	records, err := Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	return &Store{source: source, records: records}, nil
}

func fetch(ctx context.Context, source string, o loadOptions) ([]byte, error) {
	u, err := url.Parse(source)
	if err == nil && (u.Scheme == "http" || u.Scheme == "https") {
		return fetchHTTP(ctx, u, o)
	}
	path := source
	if err == nil && u.Scheme == "file" {
		path = u.Path
	}
	return readFile(path, o)
}

func fetchHTTP(ctx context.Context, u *url.URL, o loadOptions) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "text/csv, text/plain;q=0.9, */*;q=0.5")
	req.Header.Set("User-Agent", defaultUserAgent)

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch catalog: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetch catalog: %s returned status %d", u.Redacted(), resp.StatusCode)
	}
	if resp.Body == nil || resp.Body == http.NoBody {
		return nil, ErrEmptyBody
	}
	return readAll(resp.Body, resp.ContentLength, o)
}

func readFile(path string, o loadOptions) ([]byte, error) {
	expanded, err := expandPath(path)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(expanded)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer func() { _ = file.Close() }()

	size := int64(-1)
	if info, err := file.Stat(); err == nil {
		size = info.Size()
	}
	return readAll(file, size, o)
}

func readAll(r io.Reader, size int64, o loadOptions) ([]byte, error) {
	if o.progress != nil {
		if w := o.progress(size); w != nil {
			r = io.TeeReader(r, w)
		}
	}
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return body, nil
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
