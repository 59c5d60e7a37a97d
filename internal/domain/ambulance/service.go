package ambulance

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/careops/transport-portal/internal/domain/directory"
	"github.com/careops/transport-portal/internal/platform/eventbus"
	"github.com/careops/transport-portal/pkg/enumcodec"
	"github.com/careops/transport-portal/pkg/optional"
)

// Location is a building/department/room descriptor.
type Location struct {
	Building   *string `json:"building,omitempty"`
	Department *string `json:"department,omitempty"`
	Room       *string `json:"room,omitempty"`
}

// CreateParams is the inbound payload for Create. Enum-valued fields are
// typed `any` because legacy clients send either labels or ordinal codes;
// the codec normalizes them and never fails.
type CreateParams struct {
	RequesterDepartment string     `json:"requester_department"`
	RequesterName       string     `json:"requester_name"`
	RequesterPhone      string     `json:"requester_phone"`
	RequesterUserID     *uuid.UUID `json:"requester_user_id"`

	PatientName      string  `json:"patient_name"`
	PatientHN        *string `json:"patient_hn"`
	PatientPhone     *string `json:"patient_phone"`
	PatientCondition *string `json:"patient_condition"`

	RequiredEquipment any `json:"required_equipment"`
	InfectionStatus   any `json:"infection_status"`
	BookingPurpose    any `json:"booking_purpose"`

	RequestedAt time.Time `json:"requested_at"`

	Pickup   Location `json:"pickup"`
	Delivery Location `json:"delivery"`
}

// UpdateParams is the inbound payload for UpdateFields. Absent fields are
// left unchanged; explicit nulls clear nullable fields.
type UpdateParams struct {
	RequesterDepartment optional.Value[string] `json:"requester_department"`
	RequesterName       optional.Value[string] `json:"requester_name"`
	RequesterPhone      optional.Value[string] `json:"requester_phone"`

	PatientName      optional.Value[string] `json:"patient_name"`
	PatientHN        optional.Value[string] `json:"patient_hn"`
	PatientPhone     optional.Value[string] `json:"patient_phone"`
	PatientCondition optional.Value[string] `json:"patient_condition"`

	RequiredEquipment optional.Value[any] `json:"required_equipment"`
	InfectionStatus   optional.Value[any] `json:"infection_status"`
	BookingPurpose    optional.Value[any] `json:"booking_purpose"`

	RequestedAt optional.Value[time.Time] `json:"requested_at"`

	Pickup   optional.Value[Location] `json:"pickup"`
	Delivery optional.Value[Location] `json:"delivery"`
}

// StatusParams is the inbound payload for UpdateStatus.
type StatusParams struct {
	Status       any        `json:"status"`
	AssigneeID   *uuid.UUID `json:"assignee_id"`
	CancelReason *string    `json:"cancel_reason"`
	CancelledBy  *string    `json:"cancelled_by"`
}

// TimestampParams carries the independently optional trip milestones.
type TimestampParams struct {
	PickupAt   *time.Time `json:"pickup_at"`
	DeliveryAt *time.Time `json:"delivery_at"`
	ReturnAt   *time.Time `json:"return_at"`
}

// Service owns the ambulance request lifecycle. Every successful mutation
// publishes a lifecycle event to the bus, strictly after the store write
// commits and enrichment completes, so subscribers never observe
// uncommitted or stale data.
type Service struct {
	repo   Repository
	dir    directory.Repository
	bus    *eventbus.Bus
	logger zerolog.Logger
}

func NewService(repo Repository, dir directory.Repository, bus *eventbus.Bus, logger zerolog.Logger) *Service {
	return &Service{repo: repo, dir: dir, bus: bus, logger: logger}
}

// Bus exposes the service's event bus for streaming sessions.
func (s *Service) Bus() *eventbus.Bus { return s.bus }

func (s *Service) Create(ctx context.Context, p CreateParams) (*Request, error) {
	if p.RequesterName == "" {
		return nil, &ValidationError{Field: "requester_name", Reason: "required"}
	}
	if p.RequesterDepartment == "" {
		return nil, &ValidationError{Field: "requester_department", Reason: "required"}
	}
	if p.PatientName == "" {
		return nil, &ValidationError{Field: "patient_name", Reason: "required"}
	}
	if p.RequestedAt.IsZero() {
		return nil, &ValidationError{Field: "requested_at", Reason: "required"}
	}
	if p.BookingPurpose == nil {
		return nil, &ValidationError{Field: "booking_purpose", Reason: "required"}
	}

	req := &Request{
		RequesterDepartment: p.RequesterDepartment,
		RequesterName:       p.RequesterName,
		RequesterPhone:      p.RequesterPhone,
		RequesterUserID:     p.RequesterUserID,
		PatientName:         p.PatientName,
		PatientHN:           p.PatientHN,
		PatientPhone:        p.PatientPhone,
		PatientCondition:    p.PatientCondition,
		RequiredEquipment:   enumcodec.DecodeSet(p.RequiredEquipment, EquipmentTags),
		InfectionStatus:     decodeEnum(p.InfectionStatus, InfectionStatuses, DefaultInfectionStatus),
		BookingPurpose:      decodeEnum(p.BookingPurpose, BookingPurposes, DefaultBookingPurpose),
		RequestedAt:         p.RequestedAt,
		PickupBuilding:      p.Pickup.Building,
		PickupDepartment:    p.Pickup.Department,
		PickupRoom:          p.Pickup.Room,
		DeliveryBuilding:    p.Delivery.Building,
		DeliveryDepartment:  p.Delivery.Department,
		DeliveryRoom:        p.Delivery.Room,
		Status:              StatusWaiting,
	}

	if !req.HasPickup() && !req.HasDelivery() {
		return nil, &ValidationError{Field: "pickup/delivery", Reason: "at least one location is required"}
	}

	if err := s.repo.Create(ctx, req); err != nil {
		return nil, storeErr("create", err)
	}

	s.enrich(ctx, req)
	s.bus.Publish(eventbus.Created, req)
	return req, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Request, error) {
	req, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr("get", err)
	}
	s.enrich(ctx, req)
	return req, nil
}

// List returns one page of matching requests plus the total match count.
// The count is a separate query over the same filter, since the page may be
// partial. Enrichment resolves all distinct assignee ids in one batch.
func (s *Service) List(ctx context.Context, f Filter, page, pageSize int) ([]*Request, int, error) {
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * pageSize

	reqs, total, err := s.repo.List(ctx, f, pageSize, offset)
	if err != nil {
		return nil, 0, storeErr("list", err)
	}
	s.enrichBatch(ctx, reqs)
	return reqs, total, nil
}

func (s *Service) UpdateFields(ctx context.Context, id uuid.UUID, p UpdateParams) (*Request, error) {
	req, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr("get", err)
	}

	if err := applyFields(req, p); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, req); err != nil {
		return nil, storeErr("update", err)
	}

	s.enrich(ctx, req)
	s.bus.Publish(eventbus.Updated, req)
	return req, nil
}

func applyFields(req *Request, p UpdateParams) error {
	// Required fields may be replaced but never cleared.
	if v, ok := p.RequesterName.Get(); ok {
		req.RequesterName = v
	} else if p.RequesterName.IsNull() {
		return &ValidationError{Field: "requester_name", Reason: "cannot be cleared"}
	}
	if v, ok := p.RequesterDepartment.Get(); ok {
		req.RequesterDepartment = v
	} else if p.RequesterDepartment.IsNull() {
		return &ValidationError{Field: "requester_department", Reason: "cannot be cleared"}
	}
	if v, ok := p.PatientName.Get(); ok {
		req.PatientName = v
	} else if p.PatientName.IsNull() {
		return &ValidationError{Field: "patient_name", Reason: "cannot be cleared"}
	}
	if v, ok := p.RequestedAt.Get(); ok {
		req.RequestedAt = v
	} else if p.RequestedAt.IsNull() {
		return &ValidationError{Field: "requested_at", Reason: "cannot be cleared"}
	}

	if v, ok := p.RequesterPhone.Get(); ok {
		req.RequesterPhone = v
	}

	// Nullable fields: explicit null clears.
	applyNullable(&req.PatientHN, p.PatientHN)
	applyNullable(&req.PatientPhone, p.PatientPhone)
	applyNullable(&req.PatientCondition, p.PatientCondition)

	if p.RequiredEquipment.IsSet() {
		v, _ := p.RequiredEquipment.Get()
		req.RequiredEquipment = enumcodec.DecodeSet(v, EquipmentTags)
	}
	if v, ok := p.InfectionStatus.Get(); ok {
		req.InfectionStatus = decodeEnum(v, InfectionStatuses, DefaultInfectionStatus)
	}
	if v, ok := p.BookingPurpose.Get(); ok {
		req.BookingPurpose = decodeEnum(v, BookingPurposes, DefaultBookingPurpose)
	}

	if v, ok := p.Pickup.Get(); ok {
		req.PickupBuilding = v.Building
		req.PickupDepartment = v.Department
		req.PickupRoom = v.Room
	}
	if v, ok := p.Delivery.Get(); ok {
		req.DeliveryBuilding = v.Building
		req.DeliveryDepartment = v.Department
		req.DeliveryRoom = v.Room
	}

	if !req.HasPickup() && !req.HasDelivery() {
		return &ValidationError{Field: "pickup/delivery", Reason: "at least one location is required"}
	}
	return nil
}

func applyNullable(dst **string, v optional.Value[string]) {
	if !v.IsSet() {
		return
	}
	if val, ok := v.Get(); ok {
		*dst = &val
	} else {
		*dst = nil
	}
}

// UpdateStatus applies a lifecycle transition. The target status is
// normalized through the codec; an unrecognized wire value decodes to the
// record's current status, which degrades to a plain update. Illegal
// transitions (leaving a terminal state, or skipping backwards) are
// rejected. Re-applying the current status publishes Updated rather than
// StatusChanged, so boards do not see spurious transition notifications.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, p StatusParams) (*Request, error) {
	req, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr("get", err)
	}

	oldStatus := req.Status
	newStatus := decodeEnum(p.Status, Statuses, oldStatus)

	if !transitionAllowed(oldStatus, newStatus) {
		return nil, &ValidationError{Field: "status", Reason: "illegal transition " + oldStatus + " -> " + newStatus}
	}

	now := time.Now().UTC()
	if newStatus != oldStatus {
		switch newStatus {
		case StatusInProgress:
			req.AcceptedAt = &now
		case StatusCompleted:
			req.CompletedAt = &now
		case StatusCancelled:
			req.CancelledAt = &now
			req.CancelReason = p.CancelReason
			req.CancelledBy = p.CancelledBy
		}
	}
	req.Status = newStatus

	if p.AssigneeID != nil {
		req.AssigneeID = p.AssigneeID
	}

	if err := s.repo.Update(ctx, req); err != nil {
		return nil, storeErr("update", err)
	}

	s.enrich(ctx, req)
	if newStatus != oldStatus {
		s.bus.Publish(eventbus.StatusChanged, req)
	} else {
		s.bus.Publish(eventbus.Updated, req)
	}
	return req, nil
}

// UpdateTimestamps sets only the trip milestones explicitly provided.
func (s *Service) UpdateTimestamps(ctx context.Context, id uuid.UUID, p TimestampParams) (*Request, error) {
	req, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr("get", err)
	}

	if p.PickupAt != nil {
		req.PickupAt = p.PickupAt
	}
	if p.DeliveryAt != nil {
		req.DeliveryAt = p.DeliveryAt
	}
	if p.ReturnAt != nil {
		req.ReturnAt = p.ReturnAt
	}

	if err := s.repo.Update(ctx, req); err != nil {
		return nil, storeErr("update", err)
	}

	s.enrich(ctx, req)
	s.bus.Publish(eventbus.Updated, req)
	return req, nil
}

// Delete removes a request. Deleting an id that does not exist succeeds
// without publishing an event. The record is read before deletion so the
// Deleted event carries the enriched final state.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	req, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if err == ErrNotFound {
			return nil
		}
		return storeErr("get", err)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return storeErr("delete", err)
	}

	s.enrich(ctx, req)
	s.bus.Publish(eventbus.Deleted, req)
	return nil
}

// HealthCheck performs a trivial store round-trip.
func (s *Service) HealthCheck(ctx context.Context) error {
	if err := s.repo.Ping(ctx); err != nil {
		return &PersistenceError{Op: "ping", Err: err}
	}
	return nil
}

func (s *Service) enrich(ctx context.Context, req *Request) {
	if req.AssigneeID == nil {
		return
	}
	emp, err := s.dir.GetByID(ctx, *req.AssigneeID)
	if err != nil {
		s.logger.Warn().Err(err).Str("assignee_id", req.AssigneeID.String()).Msg("assignee lookup failed")
		return
	}
	if emp != nil {
		req.AssigneeName = emp.DisplayName()
	}
}

func (s *Service) enrichBatch(ctx context.Context, reqs []*Request) {
	seen := make(map[uuid.UUID]struct{})
	var ids []uuid.UUID
	for _, req := range reqs {
		if req.AssigneeID == nil {
			continue
		}
		if _, ok := seen[*req.AssigneeID]; ok {
			continue
		}
		seen[*req.AssigneeID] = struct{}{}
		ids = append(ids, *req.AssigneeID)
	}
	if len(ids) == 0 {
		return
	}

	emps, err := s.dir.GetByIDs(ctx, ids)
	if err != nil {
		s.logger.Warn().Err(err).Int("count", len(ids)).Msg("batch assignee lookup failed")
		return
	}
	for _, req := range reqs {
		if req.AssigneeID == nil {
			continue
		}
		if emp, ok := emps[*req.AssigneeID]; ok {
			req.AssigneeName = emp.DisplayName()
		}
	}
}

// decodeEnum routes numeric wire values through the ordinal table and
// everything else through label matching. Total: malformed input yields
// fallback.
func decodeEnum(v any, known []string, fallback string) string {
	switch v.(type) {
	case float64, int, int32, int64, json.Number:
		return enumcodec.DecodeIndexed(v, known, fallback)
	default:
		return enumcodec.Decode(v, known, fallback)
	}
}
