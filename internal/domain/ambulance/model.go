// Package ambulance implements the EMRC ambulance transport request
// service: a finite-state record mutated through a small set of operations,
// with every successful mutation fanned out to live dispatch-board clients
// through the event bus.
package ambulance

import (
	"time"

	"github.com/google/uuid"
)

// Request maps to the ambulance_request table.
type Request struct {
	ID uuid.UUID `db:"id" json:"id"`

	// Requester
	RequesterDepartment string     `db:"requester_department" json:"requester_department"`
	RequesterName       string     `db:"requester_name" json:"requester_name"`
	RequesterPhone      string     `db:"requester_phone" json:"requester_phone"`
	RequesterUserID     *uuid.UUID `db:"requester_user_id" json:"requester_user_id,omitempty"`

	// Patient
	PatientName       string   `db:"patient_name" json:"patient_name"`
	PatientHN         *string  `db:"patient_hn" json:"patient_hn,omitempty"`
	PatientPhone      *string  `db:"patient_phone" json:"patient_phone,omitempty"`
	PatientCondition  *string  `db:"patient_condition" json:"patient_condition,omitempty"`
	RequiredEquipment []string `db:"required_equipment" json:"required_equipment"`
	InfectionStatus   string   `db:"infection_status" json:"infection_status"`

	// Routing
	RequestedAt        time.Time `db:"requested_at" json:"requested_at"`
	PickupBuilding     *string   `db:"pickup_building" json:"pickup_building,omitempty"`
	PickupDepartment   *string   `db:"pickup_department" json:"pickup_department,omitempty"`
	PickupRoom         *string   `db:"pickup_room" json:"pickup_room,omitempty"`
	DeliveryBuilding   *string   `db:"delivery_building" json:"delivery_building,omitempty"`
	DeliveryDepartment *string   `db:"delivery_department" json:"delivery_department,omitempty"`
	DeliveryRoom       *string   `db:"delivery_room" json:"delivery_room,omitempty"`

	BookingPurpose string `db:"booking_purpose" json:"booking_purpose"`
	Status         string `db:"status" json:"status"`

	// Assignment. AssigneeName is derived from the employee directory at
	// read/enrich time and is never stored; empty means the directory has
	// no matching employee, which is not an error.
	AssigneeID   *uuid.UUID `db:"assignee_id" json:"assignee_id,omitempty"`
	AssigneeName string     `db:"-" json:"assignee_name"`

	// Lifecycle milestones
	AcceptedAt   *time.Time `db:"accepted_at" json:"accepted_at,omitempty"`
	CompletedAt  *time.Time `db:"completed_at" json:"completed_at,omitempty"`
	CancelledAt  *time.Time `db:"cancelled_at" json:"cancelled_at,omitempty"`
	CancelReason *string    `db:"cancel_reason" json:"cancel_reason,omitempty"`
	CancelledBy  *string    `db:"cancelled_by" json:"cancelled_by,omitempty"`

	// Trip milestones
	PickupAt   *time.Time `db:"pickup_at" json:"pickup_at,omitempty"`
	DeliveryAt *time.Time `db:"delivery_at" json:"delivery_at,omitempty"`
	ReturnAt   *time.Time `db:"return_at" json:"return_at,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// HasPickup reports whether any pickup descriptor field is populated.
func (r *Request) HasPickup() bool {
	return r.PickupBuilding != nil || r.PickupDepartment != nil || r.PickupRoom != nil
}

// HasDelivery reports whether any delivery descriptor field is populated.
func (r *Request) HasDelivery() bool {
	return r.DeliveryBuilding != nil || r.DeliveryDepartment != nil || r.DeliveryRoom != nil
}
