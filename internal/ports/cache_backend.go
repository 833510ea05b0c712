package ports

import "github.com/phishnet/phish-detector/internal/core"

// CacheBackend is a result cache that owns background resources
type CacheBackend interface {
	core.ResultCache

	// Stop releases the backend's sweeper and connections
	Stop()
}

