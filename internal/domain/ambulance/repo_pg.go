package ambulance

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/careops/transport-portal/pkg/enumcodec"
)

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

const reqCols = `id, requester_department, requester_name, requester_phone, requester_user_id,
	patient_name, patient_hn, patient_phone, patient_condition, required_equipment, infection_status,
	requested_at, pickup_building, pickup_department, pickup_room,
	delivery_building, delivery_department, delivery_room,
	booking_purpose, status, assignee_id,
	accepted_at, completed_at, cancelled_at, cancel_reason, cancelled_by,
	pickup_at, delivery_at, return_at, created_at, updated_at`

func (r *repoPG) Create(ctx context.Context, req *Request) error {
	req.ID = uuid.New()
	return r.pool.QueryRow(ctx, `
		INSERT INTO ambulance_request (
			id, requester_department, requester_name, requester_phone, requester_user_id,
			patient_name, patient_hn, patient_phone, patient_condition, required_equipment, infection_status,
			requested_at, pickup_building, pickup_department, pickup_room,
			delivery_building, delivery_department, delivery_room,
			booking_purpose, status, assignee_id
		) VALUES (
			$1,$2,$3,$4,$5,$6,$7,$8,$9,$10,
			$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21
		) RETURNING created_at, updated_at`,
		req.ID, req.RequesterDepartment, req.RequesterName, req.RequesterPhone, req.RequesterUserID,
		req.PatientName, req.PatientHN, req.PatientPhone, req.PatientCondition,
		enumcodec.EncodeSet(req.RequiredEquipment), req.InfectionStatus,
		req.RequestedAt, req.PickupBuilding, req.PickupDepartment, req.PickupRoom,
		req.DeliveryBuilding, req.DeliveryDepartment, req.DeliveryRoom,
		req.BookingPurpose, req.Status, req.AssigneeID,
	).Scan(&req.CreatedAt, &req.UpdatedAt)
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Request, error) {
	req, err := scanRequest(r.pool.QueryRow(ctx, `SELECT `+reqCols+` FROM ambulance_request WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return req, err
}

func (r *repoPG) List(ctx context.Context, f Filter, limit, offset int) ([]*Request, int, error) {
	where, args := buildFilter(f)

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM ambulance_request`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT %s FROM ambulance_request%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
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
	if f.BookingPurpose != "" {
		add("booking_purpose = $%d", f.BookingPurpose)
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
		UPDATE ambulance_request SET
			requester_department=$2, requester_name=$3, requester_phone=$4, requester_user_id=$5,
			patient_name=$6, patient_hn=$7, patient_phone=$8, patient_condition=$9,
			required_equipment=$10, infection_status=$11,
			requested_at=$12, pickup_building=$13, pickup_department=$14, pickup_room=$15,
			delivery_building=$16, delivery_department=$17, delivery_room=$18,
			booking_purpose=$19, status=$20, assignee_id=$21,
			accepted_at=$22, completed_at=$23, cancelled_at=$24, cancel_reason=$25, cancelled_by=$26,
			pickup_at=$27, delivery_at=$28, return_at=$29, updated_at=NOW()
		WHERE id = $1
		RETURNING updated_at`,
		req.ID, req.RequesterDepartment, req.RequesterName, req.RequesterPhone, req.RequesterUserID,
		req.PatientName, req.PatientHN, req.PatientPhone, req.PatientCondition,
		enumcodec.EncodeSet(req.RequiredEquipment), req.InfectionStatus,
		req.RequestedAt, req.PickupBuilding, req.PickupDepartment, req.PickupRoom,
		req.DeliveryBuilding, req.DeliveryDepartment, req.DeliveryRoom,
		req.BookingPurpose, req.Status, req.AssigneeID,
		req.AcceptedAt, req.CompletedAt, req.CancelledAt, req.CancelReason, req.CancelledBy,
		req.PickupAt, req.DeliveryAt, req.ReturnAt,
	).Scan(&req.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM ambulance_request WHERE id = $1`, id)
	return err
}

func (r *repoPG) Ping(ctx context.Context) error {
	var one int
	return r.pool.QueryRow(ctx, `SELECT 1`).Scan(&one)
}

func scanRequest(row pgx.Row) (*Request, error) {
	var req Request
	var equipment string
	err := row.Scan(
		&req.ID, &req.RequesterDepartment, &req.RequesterName, &req.RequesterPhone, &req.RequesterUserID,
		&req.PatientName, &req.PatientHN, &req.PatientPhone, &req.PatientCondition, &equipment, &req.InfectionStatus,
		&req.RequestedAt, &req.PickupBuilding, &req.PickupDepartment, &req.PickupRoom,
		&req.DeliveryBuilding, &req.DeliveryDepartment, &req.DeliveryRoom,
		&req.BookingPurpose, &req.Status, &req.AssigneeID,
		&req.AcceptedAt, &req.CompletedAt, &req.CancelledAt, &req.CancelReason, &req.CancelledBy,
		&req.PickupAt, &req.DeliveryAt, &req.ReturnAt, &req.CreatedAt, &req.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	// Stored as a JSON array string; unknown tags that predate an enum
	// change are dropped on read.
	req.RequiredEquipment = enumcodec.DecodeSet(equipment, EquipmentTags)
	return &req, nil
}
