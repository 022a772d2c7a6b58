// Package cache implements the time-bounded store that absorbs repeated,
// expensive external enrichment calls.
//
// Entries expire by TTL, not by recency: enrichment results are rate-limited
// to fetch but cheap to hold, and how long a result stays valid is a property
// of the enrichment kind, not of access patterns. An entry past its expiry is
// logically absent even while physically present; reads evict it lazily and a
// background [Sweeper] removes whatever reads never touch.
//
// Backend failures are deliberately soft. A store that cannot be read is
// treated as a cache miss so callers degrade to re-computation; a store that
// cannot be written is logged and the freshly computed value is still
// returned. The cache must never be the reason a request fails.
package cache
