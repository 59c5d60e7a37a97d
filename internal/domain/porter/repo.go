package porter

import (
	"context"

	"github.com/google/uuid"
)

// Filter is a conjunction over optional list constraints. Zero values mean
// "no constraint".
type Filter struct {
	Status              string
	Urgency             string
	RequesterDepartment string
	AssigneeID          *uuid.UUID
}

// Repository is the durable-store contract for porter requests.
type Repository interface {
	Create(ctx context.Context, req *Request) error
	GetByID(ctx context.Context, id uuid.UUID) (*Request, error)
	List(ctx context.Context, f Filter, limit, offset int) ([]*Request, int, error)
	Update(ctx context.Context, req *Request) error
	Delete(ctx context.Context, id uuid.UUID) error
	Ping(ctx context.Context) error
}
