// Package cache provee la abstracción de caching byte-oriented que usan los
// decoradores del registry. Backends: memoria (dev/tests) y Redis (prod).
package cache

import "time"

// Cache define las operaciones de cache que el core necesita.
// Los valores son bytes opacos (JSON serializado por el caller).
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration)
	Delete(key string)
}
