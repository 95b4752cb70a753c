package redisx

import (
	"fmt"
	"time"
)

const (
	// Cached category listing: catalog:category:{category_id} -> JSON array
	KeyCategory = "catalog:category:%d"

	// Cached product: catalog:product:{product_id} -> JSON object
	KeyProduct = "catalog:product:%d"

	// Dedup event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"

	// Sorted set of product ids scored by units ordered.
	KeyPopular = "popular:products"
)

var (
	TTLCatalog = 5 * time.Minute
	TTLDedup   = 24 * time.Hour
)

func DedupKey(service, eventID string) string { return fmt.Sprintf(KeyDedup, service, eventID) }
