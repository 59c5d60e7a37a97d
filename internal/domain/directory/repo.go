package directory

import (
	"context"

	"github.com/google/uuid"
)

// Repository is the read-side contract the transport services use for
// assignee enrichment. A missing employee is not an error: GetByID returns
// (nil, nil) and GetByIDs simply omits the id from the result map.
type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Employee, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*Employee, error)
}
