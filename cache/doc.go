// Package cache provides time-expiring storage of API responses.
//
// It provides a Store interface with an in-memory implementation and
// deterministic cache-key derivation from an endpoint plus its query
// parameters. Expiry is lazy: entries are evicted by the read that finds
// them stale, never by a background sweep.
package cache
