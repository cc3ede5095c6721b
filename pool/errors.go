package pool

import (
	"github.com/pgvanniekerk/ezpool/internal/pool"
)

var (
	ErrPoolClosed     = pool.ErrPoolClosed
	ErrNilTask        = pool.ErrNilTask
	ErrInvalidCount   = pool.ErrInvalidCount
	ErrWorkerNotFound = pool.ErrWorkerNotFound
)
