// Package redis opens go-redis clients with retry and exposes a health check.
// The client backs the shared OAuth state store.
package redis
