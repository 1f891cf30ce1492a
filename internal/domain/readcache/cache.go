// Package readcache defines the process-wide read cache of product and user
// snapshots. Entries are filled lazily and invalidated after commits.
package readcache

import (
	"revengepos/internal/domain/auth"
	"revengepos/internal/domain/catalogs/product"
	"revengepos/internal/domain/ledger"
)

// Cache is the full read cache surface.
type Cache interface {
	product.Cache
	auth.UserCache
	ledger.StockCache

	Stats() Stats
}

// Stats reports cache effectiveness.
type Stats struct {
	Hits     int64 `json:"hits"`
	Misses   int64 `json:"misses"`
	Products int   `json:"products"`
	Codes    int   `json:"codes"`
	Users    int   `json:"users"`

	// L2 counters stay zero without redis.
	RemoteHits          int64 `json:"remoteHits"`
	RemoteErrors        int64 `json:"remoteErrors"`
	RemoteInvalidations int64 `json:"remoteInvalidations"`
}

// HitRate returns hits / (hits + misses), 0 when nothing was looked up.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}
