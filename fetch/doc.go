// Package fetch coordinates reads and writes against the case-management
// API: cache-hit versus network fetch, write-through on success, and
// coalescing of concurrent identical reads into a single network call.
//
// Only GET requests participate in caching. Mutations (POST/PUT/DELETE)
// always go to the network and never touch the cache; callers invalidate
// the GET keys a mutation affects via Invalidate or InvalidateAll - the
// coordinator keeps no dependency graph between keys.
//
// The package also carries the wire envelopes the backend wraps responses
// in, with generic decode helpers.
package fetch
