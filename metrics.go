package texgo

import "sync/atomic"

// counters collects cache activity. All fields are updated atomically.
type counters struct {
	liveHits      atomic.Int64
	diskHits      atomic.Int64
	decodes       atomic.Int64
	decodeErrors  atomic.Int64
	adoptions     atomic.Int64
	writeErrors   atomic.Int64
	corruptMisses atomic.Int64
	abandoned     atomic.Int64
}

// Stats is a point-in-time snapshot of cache activity.
type Stats struct {
	// LiveHits counts requests resolved from the live registry.
	LiveHits int64
	// DiskHits counts requests resolved by deserializing a disk entry.
	DiskHits int64
	// Decodes counts decode tasks that ran to completion.
	Decodes int64
	// DecodeErrors counts decode tasks that failed.
	DecodeErrors int64
	// Adoptions counts decode results discarded in favor of a registry
	// winner for the same hash.
	Adoptions int64
	// WriteErrors counts non-fatal disk-cache write failures.
	WriteErrors int64
	// CorruptMisses counts disk entries that failed to deserialize and
	// were treated as misses.
	CorruptMisses int64
	// Abandoned counts deliveries dropped because the requesting resource
	// was released mid-decode.
	Abandoned int64
	// LiveTextures is the current number of live registry entries.
	LiveTextures int
	// DiskEntries is the current number of disk-cache entries.
	DiskEntries int
}

func (c *counters) snapshot() Stats {
	return Stats{
		LiveHits:      c.liveHits.Load(),
		DiskHits:      c.diskHits.Load(),
		Decodes:       c.decodes.Load(),
		DecodeErrors:  c.decodeErrors.Load(),
		Adoptions:     c.adoptions.Load(),
		WriteErrors:   c.writeErrors.Load(),
		CorruptMisses: c.corruptMisses.Load(),
		Abandoned:     c.abandoned.Load(),
	}
}
