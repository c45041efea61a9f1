package redisx

import "time"

const (
	// Per-tab list version: orders:list:ver:{tab} -> int, bumped on invalidation
	KeyListVersion = "orders:list:ver:%s"

	// Cached list page: orders:list:{tab}:v{ver}:{query hash} -> JSON page
	KeyListPage = "orders:list:%s:v%d:%s"

	// Cached per-tab counts, dropped on any invalidation
	KeyStatusCounts = "orders:counts"

	// Dedup event processing: dedup:{service}:{id}
	KeyDedup = "dedup:%s:%s"
)

// TabAll is the list tab that shows every status.
const TabAll = "all"

var (
	TTLListCache = time.Minute
	TTLDedup     = 48 * time.Hour
)
