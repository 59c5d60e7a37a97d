package porter

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

// CreateParams is the inbound payload for Create. The intake screens send
// urgency as an ordinal index and transport mode as either form; both are
// typed `any` and normalized through the codec.
type CreateParams struct {
	RequesterDepartment string     `json:"requester_department"`
	RequesterName       string     `json:"requester_name"`
	RequesterPhone      string     `json:"requester_phone"`
	RequesterUserID     *uuid.UUID `json:"requester_user_id"`

	PatientName     *string `json:"patient_name"`
	PatientHN       *string `json:"patient_hn"`
	LoadDescription *string `json:"load_description"`

	TransportMode any     `json:"transport_mode"`
	Urgency       any     `json:"urgency"`
	Notes         *string `json:"notes"`

	RequestedAt time.Time `json:"requested_at"`

	From Location `json:"from"`
	To   Location `json:"to"`
}

// UpdateParams is the inbound payload for UpdateFields. Absent fields are
// left unchanged; explicit nulls clear nullable fields.
type UpdateParams struct {
	RequesterDepartment optional.Value[string] `json:"requester_department"`
	RequesterName       optional.Value[string] `json:"requester_name"`
	RequesterPhone      optional.Value[string] `json:"requester_phone"`

	PatientName     optional.Value[string] `json:"patient_name"`
	PatientHN       optional.Value[string] `json:"patient_hn"`
	LoadDescription optional.Value[string] `json:"load_description"`

	TransportMode optional.Value[any]    `json:"transport_mode"`
	Urgency       optional.Value[any]    `json:"urgency"`
	Notes         optional.Value[string] `json:"notes"`

	RequestedAt optional.Value[time.Time] `json:"requested_at"`

	From optional.Value[Location] `json:"from"`
	To   optional.Value[Location] `json:"to"`
}

// StatusParams is the inbound payload for UpdateStatus.
type StatusParams struct {
	Status       any        `json:"status"`
	AssigneeID   *uuid.UUID `json:"assignee_id"`
	CancelReason *string    `json:"cancel_reason"`
	CancelledBy  *string    `json:"cancelled_by"`
}

// Service owns the porter request lifecycle. Events are published strictly
// after the store write commits and enrichment completes.
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
	if p.RequestedAt.IsZero() {
		return nil, &ValidationError{Field: "requested_at", Reason: "required"}
	}
	if p.Urgency == nil {
		return nil, &ValidationError{Field: "urgency", Reason: "required"}
	}

	req := &Request{
		RequesterDepartment: p.RequesterDepartment,
		RequesterName:       p.RequesterName,
		RequesterPhone:      p.RequesterPhone,
		RequesterUserID:     p.RequesterUserID,
		PatientName:         p.PatientName,
		PatientHN:           p.PatientHN,
		LoadDescription:     p.LoadDescription,
		TransportMode:       decodeEnum(p.TransportMode, TransportModes, DefaultTransportMode),
		Urgency:             decodeEnum(p.Urgency, Urgencies, DefaultUrgency),
		Notes:               p.Notes,
		RequestedAt:         p.RequestedAt,
		FromBuilding:        p.From.Building,
		FromDepartment:      p.From.Department,
		FromRoom:            p.From.Room,
		ToBuilding:          p.To.Building,
		ToDepartment:        p.To.Department,
		ToRoom:              p.To.Room,
		Status:              StatusWaiting,
	}

	if !req.HasSubject() {
		return nil, &ValidationError{Field: "patient_name/load_description", Reason: "a patient or a load is required"}
	}
	if !req.HasFrom() || !req.HasTo() {
		return nil, &ValidationError{Field: "from/to", Reason: "both endpoints are required"}
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
	if v, ok := p.RequestedAt.Get(); ok {
		req.RequestedAt = v
	} else if p.RequestedAt.IsNull() {
		return &ValidationError{Field: "requested_at", Reason: "cannot be cleared"}
	}
	if v, ok := p.RequesterPhone.Get(); ok {
		req.RequesterPhone = v
	}

	applyNullable(&req.PatientName, p.PatientName)
	applyNullable(&req.PatientHN, p.PatientHN)
	applyNullable(&req.LoadDescription, p.LoadDescription)
	applyNullable(&req.Notes, p.Notes)

	if v, ok := p.TransportMode.Get(); ok {
		req.TransportMode = decodeEnum(v, TransportModes, DefaultTransportMode)
	}
	if v, ok := p.Urgency.Get(); ok {
		req.Urgency = decodeEnum(v, Urgencies, DefaultUrgency)
	}

	if v, ok := p.From.Get(); ok {
		req.FromBuilding = v.Building
		req.FromDepartment = v.Department
		req.FromRoom = v.Room
	}
	if v, ok := p.To.Get(); ok {
		req.ToBuilding = v.Building
		req.ToDepartment = v.Department
		req.ToRoom = v.Room
	}

	if !req.HasSubject() {
		return &ValidationError{Field: "patient_name/load_description", Reason: "a patient or a load is required"}
	}
	if !req.HasFrom() || !req.HasTo() {
		return &ValidationError{Field: "from/to", Reason: "both endpoints are required"}
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

// UpdateStatus applies a lifecycle transition, mirroring the ambulance
// service: codec-normalized target, enforced transition graph, Updated
// instead of StatusChanged when the status does not actually change.
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

// Delete removes a request. Unknown ids succeed without publishing.
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

func decodeEnum(v any, known []string, fallback string) string {
	switch v.(type) {
	case float64, int, int32, int64, json.Number:
		return enumcodec.DecodeIndexed(v, known, fallback)
	default:
		return enumcodec.Decode(v, known, fallback)
	}
}
