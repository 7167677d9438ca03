package health

import "context"

// DBPinger checks storage availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// ModelChecker reports whether a cluster model is loaded.
type ModelChecker interface {
	Healthy(ctx context.Context) error
}
