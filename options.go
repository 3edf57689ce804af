package texgo

import (
	"github.com/hupe1980/texgo/fetch"
	"github.com/hupe1980/texgo/internal/fs"
	"github.com/hupe1980/texgo/texture"
)

// DefaultMaxPixels is the per-texture pixel budget applied when a request
// does not set its own. Images above the budget are downscaled before the
// usage transform runs.
const DefaultMaxPixels = 8192 * 8192

type options struct {
	logger    *Logger
	fetcher   fetch.Fetcher
	workers   int
	codec     texture.Codec
	maxPixels int
	maxWrites int64
	onReady   func(*TextureResource)
	fsys      fs.FileSystem
}

// Option configures cache construction.
type Option func(*options)

// WithLogger sets the structured logger. Defaults to a text logger at info
// level.
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithFetcher sets the collaborator that supplies raw bytes for URLs.
// Without a fetcher, only requests with inline content resolve; everything
// else fails with ErrNoFetcher.
func WithFetcher(f fetch.Fetcher) Option {
	return func(o *options) { o.fetcher = f }
}

// WithWorkers sets the decode worker pool size. Defaults to GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

// WithCodec sets the compression codec for new disk-cache containers.
// Existing entries keep whatever codec they were written with.
func WithCodec(c texture.Codec) Option {
	return func(o *options) { o.codec = c }
}

// WithMaxPixels sets the default pixel budget for requests that do not
// carry their own.
func WithMaxPixels(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxPixels = n
		}
	}
}

// WithMaxConcurrentWrites bounds parallel disk-cache writes.
func WithMaxConcurrentWrites(n int64) Option {
	return func(o *options) { o.maxWrites = n }
}

// WithReadyCallback registers a hook invoked whenever a resource reaches
// StateReady, carrying the resolved resource. The callback runs on the
// delivering goroutine and must not block.
func WithReadyCallback(fn func(*TextureResource)) Option {
	return func(o *options) { o.onReady = fn }
}

// withFileSystem overrides disk-cache filesystem access. Test hook.
func withFileSystem(fsys fs.FileSystem) Option {
	return func(o *options) { o.fsys = fsys }
}

func defaultOptions() options {
	return options{
		logger:    NewLogger(nil),
		codec:     texture.DefaultCodec,
		maxPixels: DefaultMaxPixels,
	}
}
