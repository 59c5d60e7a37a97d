package porter

import (
	"time"

	"github.com/google/uuid"
)

// Request is a porter transport job: moving a patient, specimen, or item
// between two points inside the hospital.
type Request struct {
	ID uuid.UUID `db:"id" json:"id"`

	RequesterDepartment string     `db:"requester_department" json:"requester_department"`
	RequesterName       string     `db:"requester_name" json:"requester_name"`
	RequesterPhone      string     `db:"requester_phone" json:"requester_phone"`
	RequesterUserID     *uuid.UUID `db:"requester_user_id" json:"requester_user_id,omitempty"`

	// Either a patient or a load description; both may be present when a
	// patient travels with equipment.
	PatientName     *string `db:"patient_name" json:"patient_name,omitempty"`
	PatientHN       *string `db:"patient_hn" json:"patient_hn,omitempty"`
	LoadDescription *string `db:"load_description" json:"load_description,omitempty"`

	TransportMode string  `db:"transport_mode" json:"transport_mode"`
	Urgency       string  `db:"urgency" json:"urgency"`
	Notes         *string `db:"notes" json:"notes,omitempty"`

	RequestedAt time.Time `db:"requested_at" json:"requested_at"`

	FromBuilding   *string `db:"from_building" json:"from_building,omitempty"`
	FromDepartment *string `db:"from_department" json:"from_department,omitempty"`
	FromRoom       *string `db:"from_room" json:"from_room,omitempty"`
	ToBuilding     *string `db:"to_building" json:"to_building,omitempty"`
	ToDepartment   *string `db:"to_department" json:"to_department,omitempty"`
	ToRoom         *string `db:"to_room" json:"to_room,omitempty"`

	Status string `db:"status" json:"status"`

	AssigneeID   *uuid.UUID `db:"assignee_id" json:"assignee_id,omitempty"`
	AssigneeName string     `db:"-" json:"assignee_name,omitempty"`

	AcceptedAt   *time.Time `db:"accepted_at" json:"accepted_at,omitempty"`
	CompletedAt  *time.Time `db:"completed_at" json:"completed_at,omitempty"`
	CancelledAt  *time.Time `db:"cancelled_at" json:"cancelled_at,omitempty"`
	CancelReason *string    `db:"cancel_reason" json:"cancel_reason,omitempty"`
	CancelledBy  *string    `db:"cancelled_by" json:"cancelled_by,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

func (r *Request) HasFrom() bool {
	return r.FromBuilding != nil || r.FromDepartment != nil || r.FromRoom != nil
}

func (r *Request) HasTo() bool {
	return r.ToBuilding != nil || r.ToDepartment != nil || r.ToRoom != nil
}

// HasSubject reports whether the job carries anything at all.
func (r *Request) HasSubject() bool {
	return r.PatientName != nil || r.LoadDescription != nil
}
