// Package diskcache implements the persistent content-addressable store of
// serialized texture containers.
//
// Each entry is one file named after the hex content hash with a fixed
// extension, under a single cache directory. Entries are created once and
// never mutated; eviction is left to an external policy. The startup scan
// rebuilds the in-memory index from the files already present.
package diskcache

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"

	"github.com/hupe1980/texgo/internal/fs"
	"github.com/hupe1980/texgo/model"
)

// Ext is the filename extension of cache entries, without the dot.
const Ext = "texc"

// Config holds construction parameters for the cache.
type Config struct {
	// Dir is the directory entries are stored in. Created if missing.
	Dir string
	// MaxConcurrentWrites bounds parallel entry writes. Defaults to 16.
	MaxConcurrentWrites int64
	// FS overrides filesystem access, for tests. Defaults to fs.Default.
	FS fs.FileSystem
}

// Cache is safe for concurrent use. Concurrent writes of different hashes
// proceed in parallel; concurrent writes of the same hash may race, which
// is harmless because content addressing makes them byte-identical.
type Cache struct {
	dir      string
	fsys     fs.FileSystem
	writeSem *semaphore.Weighted

	mu    sync.Mutex
	index map[model.ContentHash]Entry

	hits   atomic.Int64
	misses atomic.Int64
}

// Entry is the handle to one stored container.
type Entry struct {
	meta Metadata
	path string
	fsys fs.FileSystem
}

// Metadata is an alias of the shared cache record type.
type Metadata = model.Metadata

// Metadata returns the entry's cache record.
func (e Entry) Metadata() Metadata { return e.meta }

// Path returns the location of the stored bytes.
func (e Entry) Path() string { return e.path }

// Bytes reads the stored container. The caller must validate that the
// bytes still deserialize; a corrupt entry is the caller's miss, not an
// error of this layer.
func (e Entry) Bytes() ([]byte, error) {
	return fs.ReadFile(e.fsys, e.path)
}

// New opens (or creates) the cache rooted at config.Dir and scans existing
// entries into the index.
func New(config Config) (*Cache, error) {
	fsys := config.FS
	if fsys == nil {
		fsys = fs.Default
	}
	if err := fsys.MkdirAll(config.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	maxWrites := config.MaxConcurrentWrites
	if maxWrites <= 0 {
		maxWrites = 16
	}

	c := &Cache{
		dir:      config.Dir,
		fsys:     fsys,
		writeSem: semaphore.NewWeighted(maxWrites),
		index:    make(map[model.ContentHash]Entry),
	}
	if err := c.scan(); err != nil {
		return nil, err
	}
	return c, nil
}

// scan rebuilds the index from files already in the cache directory.
// Files that do not parse as <hex-hash>.texc are ignored.
func (c *Cache) scan() error {
	entries, err := c.fsys.ReadDir(c.dir)
	if err != nil {
		return fmt.Errorf("scan cache dir: %w", err)
	}
	for _, de := range entries {
		if de.IsDir() {
			continue
		}
		name := de.Name()
		stem, ok := strings.CutSuffix(name, "."+Ext)
		if !ok {
			continue
		}
		hash, err := model.ParseContentHash(stem)
		if err != nil {
			continue
		}
		info, err := de.Info()
		if err != nil {
			continue
		}
		c.index[hash] = Entry{
			meta: Metadata{Hash: hash, Length: uint64(info.Size())},
			path: filepath.Join(c.dir, name),
			fsys: c.fsys,
		}
	}
	return nil
}

func (c *Cache) entryPath(hash model.ContentHash) string {
	return filepath.Join(c.dir, hash.String()+"."+Ext)
}

// Get locates an existing entry for hash.
func (c *Cache) Get(hash model.ContentHash) (Entry, bool) {
	c.mu.Lock()
	e, ok := c.index[hash]
	c.mu.Unlock()

	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	return e, ok
}

// Write stores data under hash and returns the new entry. The write goes
// through a temp file and a rename, so readers only ever observe complete
// entries. A failure leaves no visible entry behind.
func (c *Cache) Write(ctx context.Context, hash model.ContentHash, data []byte) (Entry, error) {
	if err := c.writeSem.Acquire(ctx, 1); err != nil {
		return Entry{}, err
	}
	defer c.writeSem.Release(1)

	path := c.entryPath(hash)
	if err := fs.WriteFileAtomic(c.fsys, path, data, 0o644); err != nil {
		return Entry{}, fmt.Errorf("write cache entry %s: %w", hash, err)
	}

	e := Entry{
		meta: Metadata{Hash: hash, Length: uint64(len(data))},
		path: path,
		fsys: c.fsys,
	}
	c.mu.Lock()
	c.index[hash] = e
	c.mu.Unlock()
	return e, nil
}

// Metadata returns the cache record for hash without touching the
// hit/miss counters.
func (c *Cache) Metadata(hash model.ContentHash) (Metadata, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.index[hash]
	return e.meta, ok
}

// Len returns the number of indexed entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.index)
}

// Hits returns the number of Get calls that found an entry.
func (c *Cache) Hits() int64 { return c.hits.Load() }

// Misses returns the number of Get calls that found nothing.
func (c *Cache) Misses() int64 { return c.misses.Load() }

// Remove deletes the entry for hash, if present. Exposed for external
// eviction policies; the cache itself never evicts.
func (c *Cache) Remove(hash model.ContentHash) error {
	c.mu.Lock()
	e, ok := c.index[hash]
	delete(c.index, hash)
	c.mu.Unlock()

	if !ok {
		return nil
	}
	if err := c.fsys.Remove(e.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
