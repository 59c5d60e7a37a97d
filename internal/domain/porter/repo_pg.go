package porter

import (
	"context"
	"errors"
	"fmt"
	"strings"

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

const reqCols = `id, requester_department, requester_name, requester_phone, requester_user_id,
	patient_name, patient_hn, load_description, transport_mode, urgency, notes,
	requested_at, from_building, from_department, from_room,
	to_building, to_department, to_room,
	status, assignee_id,
	accepted_at, completed_at, cancelled_at, cancel_reason, cancelled_by,
	created_at, updated_at`

func (r *repoPG) Create(ctx context.Context, req *Request) error {
	req.ID = uuid.New()
	return r.pool.QueryRow(ctx, `
		INSERT INTO porter_request (
			id, requester_department, requester_name, requester_phone, requester_user_id,
			patient_name, patient_hn, load_description, transport_mode, urgency, notes,
			requested_at, from_building, from_department, from_room,
			to_building, to_department, to_room,
			status, assignee_id
		) VALUES (
			$1,$2,$3,$4,$5,$6,$7,$8,$9,$10,
			$11,$12,$13,$14,$15,$16,$17,$18,$19,$20
		) RETURNING created_at, updated_at`,
		req.ID, req.RequesterDepartment, req.RequesterName, req.RequesterPhone, req.RequesterUserID,
		req.PatientName, req.PatientHN, req.LoadDescription, req.TransportMode, req.Urgency, req.Notes,
		req.RequestedAt, req.FromBuilding, req.FromDepartment, req.FromRoom,
		req.ToBuilding, req.ToDepartment, req.ToRoom,
		req.Status, req.AssigneeID,
	).Scan(&req.CreatedAt, &req.UpdatedAt)
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Request, error) {
	req, err := scanRequest(r.pool.QueryRow(ctx, `SELECT `+reqCols+` FROM porter_request WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return req, err
}

func (r *repoPG) List(ctx context.Context, f Filter, limit, offset int) ([]*Request, int, error) {
	where, args := buildFilter(f)

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM porter_request`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT %s FROM porter_request%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		reqCols, where, len(args)+1, len(args)+2)
	rows, err := r.pool.Query(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var reqs []*Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, 0, err
		}
		reqs = append(reqs, req)
	}
	return reqs, total, rows.Err()
}

func buildFilter(f Filter) (string, []any) {
	var conds []string
	var args []any

	add := func(cond string, val any) {
		args = append(args, val)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if f.Status != "" {
		add("status = $%d", f.Status)
	}
	if f.Urgency != "" {
		add("urgency = $%d", f.Urgency)
	}
	if f.RequesterDepartment != "" {
		add("requester_department = $%d", f.RequesterDepartment)
	}
	if f.AssigneeID != nil {
		add("assignee_id = $%d", *f.AssigneeID)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (r *repoPG) Update(ctx context.Context, req *Request) error {
	err := r.pool.QueryRow(ctx, `
		UPDATE porter_request SET
			requester_department=$2, requester_name=$3, requester_phone=$4, requester_user_id=$5,
			patient_name=$6, patient_hn=$7, load_description=$8, transport_mode=$9, urgency=$10, notes=$11,
			requested_at=$12, from_building=$13, from_department=$14, from_room=$15,
			to_building=$16, to_department=$17, to_room=$18,
			status=$19, assignee_id=$20,
			accepted_at=$21, completed_at=$22, cancelled_at=$23, cancel_reason=$24, cancelled_by=$25,
			updated_at=NOW()
		WHERE id = $1
		RETURNING updated_at`,
		req.ID, req.RequesterDepartment, req.RequesterName, req.RequesterPhone, req.RequesterUserID,
		req.PatientName, req.PatientHN, req.LoadDescription, req.TransportMode, req.Urgency, req.Notes,
		req.RequestedAt, req.FromBuilding, req.FromDepartment, req.FromRoom,
		req.ToBuilding, req.ToDepartment, req.ToRoom,
		req.Status, req.AssigneeID,
		req.AcceptedAt, req.CompletedAt, req.CancelledAt, req.CancelReason, req.CancelledBy,
	).Scan(&req.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM porter_request WHERE id = $1`, id)
	return err
}

func (r *repoPG) Ping(ctx context.Context) error {
	var one int
	return r.pool.QueryRow(ctx, `SELECT 1`).Scan(&one)
}

func scanRequest(row pgx.Row) (*Request, error) {
	var req Request
	err := row.Scan(
		&req.ID, &req.RequesterDepartment, &req.RequesterName, &req.RequesterPhone, &req.RequesterUserID,
		&req.PatientName, &req.PatientHN, &req.LoadDescription, &req.TransportMode, &req.Urgency, &req.Notes,
		&req.RequestedAt, &req.FromBuilding, &req.FromDepartment, &req.FromRoom,
		&req.ToBuilding, &req.ToDepartment, &req.ToRoom,
		&req.Status, &req.AssigneeID,
		&req.AcceptedAt, &req.CompletedAt, &req.CancelledAt, &req.CancelReason, &req.CancelledBy,
		&req.CreatedAt, &req.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &req, nil
}
