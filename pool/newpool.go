package pool

import (
	"github.com/pgvanniekerk/ezpool/cfg"
	"github.com/pgvanniekerk/ezpool/internal/pool"
)

// DefaultPoolSize is the number of workers used when none is configured.
const DefaultPoolSize = cfg.DefaultWorkers

// NewPool creates a pool with size running workers. A negative size returns ErrInvalidCount.
func NewPool(size int, opts ...Option) (Pool, error) {
	var o pool.Options
	for _, opt := range opts {
		opt(&o)
	}

	p, err := pool.New(size, o)
	if err != nil {
		return nil, err
	}
	return p, nil
}
