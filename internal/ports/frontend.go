package ports

// Frontend exposes the detection service to callers
type Frontend interface {
	// Start starts serving requests
	Start() error

	// Stop stops serving requests
	Stop() error
}
