package redisx

import (
	"fmt"
	"time"
)

const (
	// Settlement lock per booking: lock:settle:{booking_id} -> owner token
	KeySettleLock = "lock:settle:%s"

	// Cached advertised listing: cache:products:advertised -> JSON array
	KeyAdvertisedProducts = "cache:products:advertised"

	// Listing invalidation counter: cache:products:advertised:gen -> int, no TTL
	KeyAdvertisedGeneration = "cache:products:advertised:gen"
)

var (
	TTLSettleLock = 30 * time.Second
	TTLAdvertised = 5 * time.Minute
)

func SettleLockKey(bookingID string) string {
	return fmt.Sprintf(KeySettleLock, bookingID)
}
