// Package cache provides the stores for calculated order differences: an in-process
// cache, a Redis cache and a two-tier combination of both with Pub/Sub invalidation.
package cache

import (
	"github.com/erp/ordercalc/internal/domain/ordercalc"
)

// Store names reported in cache metrics
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
	StoreTiered = "tiered"
)

// Store is a DifferenceCache owning resources that must be released
type Store interface {
	ordercalc.DifferenceCache
	Name() string
	Close() error
}
