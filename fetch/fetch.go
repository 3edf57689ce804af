// Package fetch supplies raw texture bytes for a URL.
//
// The cache consumes fetchers through the Fetcher interface: content is
// delivered exactly once and in full, or an error is reported. This package
// provides HTTP, local-file, in-memory and MinIO/S3-backed implementations.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"

	"golang.org/x/time/rate"
)

// ErrNotFound is returned when the URL names no content.
var ErrNotFound = errors.New("content not found")

// Fetcher retrieves the raw bytes behind a URL.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) ([]byte, error)
}

// HTTPOption configures an HTTP fetcher.
type HTTPOption func(*HTTP)

// WithClient overrides the HTTP client, e.g. to set timeouts.
func WithClient(client *http.Client) HTTPOption {
	return func(h *HTTP) { h.client = client }
}

// WithRateLimit bounds outgoing requests per second with a burst budget.
func WithRateLimit(rps float64, burst int) HTTPOption {
	return func(h *HTTP) { h.limiter = rate.NewLimiter(rate.Limit(rps), burst) }
}

// WithMaxBytes caps the accepted response size. Defaults to 256 MiB.
func WithMaxBytes(n int64) HTTPOption {
	return func(h *HTTP) { h.maxBytes = n }
}

// HTTP fetches content over http(s).
type HTTP struct {
	client   *http.Client
	limiter  *rate.Limiter
	maxBytes int64
}

// NewHTTP creates an HTTP fetcher.
func NewHTTP(opts ...HTTPOption) *HTTP {
	h := &HTTP{
		client:   http.DefaultClient,
		maxBytes: 256 << 20,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Fetch performs a GET and returns the full body.
func (h *HTTP) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	if h.limiter != nil {
		if err := h.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := h.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, rawURL)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("fetch %s: unexpected status %s", rawURL, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, h.maxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(body)) > h.maxBytes {
		return nil, fmt.Errorf("fetch %s: response exceeds %d bytes", rawURL, h.maxBytes)
	}
	return body, nil
}

// File fetches content from the local filesystem. It accepts file:// URLs
// and bare paths.
type File struct{}

// NewFile creates a local-file fetcher.
func NewFile() *File { return &File{} }

// Fetch reads the named file.
func (*File) Fetch(_ context.Context, rawURL string) ([]byte, error) {
	path := rawURL
	if u, err := url.Parse(rawURL); err == nil && u.Scheme == "file" {
		path = u.Path
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, rawURL)
	}
	return data, err
}

// Memory is a map-backed fetcher for tests.
type Memory struct {
	mu      sync.RWMutex
	content map[string][]byte
}

// NewMemory creates an empty in-memory fetcher.
func NewMemory() *Memory {
	return &Memory{content: make(map[string][]byte)}
}

// Put registers content under a URL.
func (m *Memory) Put(rawURL string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.content[rawURL] = data
}

// Fetch returns the registered content.
func (m *Memory) Fetch(_ context.Context, rawURL string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.content[rawURL]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, rawURL)
	}
	return data, nil
}

// Mux routes fetches by URL scheme. Unregistered schemes go to the
// fallback fetcher, if any.
type Mux struct {
	byScheme map[string]Fetcher
	fallback Fetcher
}

// NewMux creates a scheme router with an optional fallback.
func NewMux(fallback Fetcher) *Mux {
	return &Mux{byScheme: make(map[string]Fetcher), fallback: fallback}
}

// Handle registers a fetcher for a scheme ("https", "s3", ...).
func (m *Mux) Handle(scheme string, f Fetcher) {
	m.byScheme[strings.ToLower(scheme)] = f
}

// Fetch dispatches on the URL scheme.
func (m *Mux) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err == nil {
		if f, ok := m.byScheme[strings.ToLower(u.Scheme)]; ok {
			return f.Fetch(ctx, rawURL)
		}
	}
	if m.fallback == nil {
		return nil, fmt.Errorf("no fetcher for %s", rawURL)
	}
	return m.fallback.Fetch(ctx, rawURL)
}
