package directory

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

const empCols = `id, first_name, last_name, department, phone, active, created_at`

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Employee, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+empCols+` FROM employee WHERE id = $1`, id)
	emp, err := scanEmployee(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return emp, err
}

func (r *repoPG) GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*Employee, error) {
	if len(ids) == 0 {
		return map[uuid.UUID]*Employee{}, nil
	}

	rows, err := r.pool.Query(ctx, `SELECT `+empCols+` FROM employee WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[uuid.UUID]*Employee, len(ids))
	for rows.Next() {
		var e Employee
		if err := rows.Scan(&e.ID, &e.FirstName, &e.LastName, &e.Department, &e.Phone, &e.Active, &e.CreatedAt); err != nil {
			return nil, err
		}
		out[e.ID] = &e
	}
	return out, rows.Err()
}

func scanEmployee(row pgx.Row) (*Employee, error) {
	var e Employee
	err := row.Scan(&e.ID, &e.FirstName, &e.LastName, &e.Department, &e.Phone, &e.Active, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}
