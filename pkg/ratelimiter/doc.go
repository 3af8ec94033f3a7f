// Package ratelimiter throttles requests per key with in-memory token buckets
// from golang.org/x/time/rate. Buckets idle longer than Config.IdleTTL are
// evicted by a ttlcache janitor.
package ratelimiter
