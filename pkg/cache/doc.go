// Package cache is the persistent cache layer consumed by processors.
//
// Every backend implements Store: a grouped key/value store where entries
// expire after a TTL. Processors always pass TTL, so a cached field
// collection is recomputed at most once per hour.
//
// Backends:
//
//   - MemoryStore: process-local, with an injectable clock.
//   - RedisStore: shared across processes, expiry delegated to Redis.
//   - FileStore: a JSON file, for CLI runs that should survive restarts.
//   - NopStore: never hits.
package cache
