package types

// Generation identifies the cache state a read-through fill started from.
// It is taken before the storage read and handed back with the put; a put
// whose Generation is outdated is dropped.
type Generation struct {
	// Local counts in-process invalidations.
	Local uint64
	// Shared is the counter of a shared cache layer, -1 when it could not be read.
	Shared int64
}
