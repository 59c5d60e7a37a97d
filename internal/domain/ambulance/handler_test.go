package ambulance

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/careops/transport-portal/internal/platform/auth"
	"github.com/careops/transport-portal/internal/platform/eventbus"
)

func newTestServer(t *testing.T) (*echo.Echo, *Service) {
	t.Helper()
	repo := newMockRepo()
	dir := newMockDirectory()
	bus := eventbus.New(zerolog.Nop())
	svc := NewService(repo, dir, bus, zerolog.Nop())

	e := e2eEcho()
	h := NewHandler(svc, zerolog.Nop())
	h.RegisterRoutes(e.Group("/api/ambulance", auth.DevAuthMiddleware()))
	return e, svc
}

func e2eEcho() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	return e
}

func doJSON(e *echo.Echo, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func createPayload() map[string]any {
	return map[string]any{
		"requester_department": "ICU",
		"requester_name":       "Nurse Anong",
		"requester_phone":      "1234",
		"patient_name":         "Somchai P.",
		"booking_purpose":      "TRANSFER",
		"requested_at":         "2025-06-02T14:00:00Z",
		"pickup":               map[string]any{"building": "A", "department": "ICU"},
		"delivery":             map[string]any{"building": "B", "department": "Radiology"},
	}
}

func TestHandlerCreateAndGet(t *testing.T) {
	e, _ := newTestServer(t)

	rec := doJSON(e, http.MethodPost, "/api/ambulance/requests", createPayload())
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var created Request
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if created.Status != StatusWaiting {
		t.Fatalf("expected WAITING, got %s", created.Status)
	}

	rec = doJSON(e, http.MethodGet, "/api/ambulance/requests/"+created.ID.String(), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestHandlerCreateValidationError(t *testing.T) {
	e, _ := newTestServer(t)

	payload := createPayload()
	delete(payload, "requester_name")

	rec := doJSON(e, http.MethodPost, "/api/ambulance/requests", payload)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestHandlerCreateOrdinalPurpose(t *testing.T) {
	e, _ := newTestServer(t)

	payload := createPayload()
	payload["booking_purpose"] = 4

	rec := doJSON(e, http.MethodPost, "/api/ambulance/requests", payload)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var created Request
	json.Unmarshal(rec.Body.Bytes(), &created)
	if created.BookingPurpose != "EMERGENCY" {
		t.Fatalf("expected ordinal decode to EMERGENCY, got %s", created.BookingPurpose)
	}
}

func TestHandlerGetUnknownID(t *testing.T) {
	e, _ := newTestServer(t)

	rec := doJSON(e, http.MethodGet, "/api/ambulance/requests/1b671a64-40d5-491e-99b0-da01ff1f3341", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}

	rec = doJSON(e, http.MethodGet, "/api/ambulance/requests/not-a-uuid", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestHandlerStatusEndpoint(t *testing.T) {
	e, svc := newTestServer(t)

	created, err := svc.Create(context.Background(), validCreateParams())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	rec := doJSON(e, http.MethodPatch, "/api/ambulance/requests/"+created.ID.String()+"/status",
		map[string]any{"status": "IN_PROGRESS"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var updated Request
	json.Unmarshal(rec.Body.Bytes(), &updated)
	if updated.Status != StatusInProgress || updated.AcceptedAt == nil {
		t.Fatalf("expected IN_PROGRESS with AcceptedAt, got %+v", updated)
	}

	// Terminal state: going back to WAITING must be rejected.
	rec = doJSON(e, http.MethodPatch, "/api/ambulance/requests/"+created.ID.String()+"/status",
		map[string]any{"status": "COMPLETED"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	rec = doJSON(e, http.MethodPatch, "/api/ambulance/requests/"+created.ID.String()+"/status",
		map[string]any{"status": "WAITING"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for illegal transition, got %d", rec.Code)
	}
}

func TestHandlerTimestampsEndpoint(t *testing.T) {
	e, svc := newTestServer(t)

	created, err := svc.Create(context.Background(), validCreateParams())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	rec := doJSON(e, http.MethodPatch, "/api/ambulance/requests/"+created.ID.String()+"/timestamps",
		map[string]any{"pickup_at": "2025-06-02T14:30:00Z"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var updated Request
	json.Unmarshal(rec.Body.Bytes(), &updated)
	want := time.Date(2025, 6, 2, 14, 30, 0, 0, time.UTC)
	if updated.PickupAt == nil || !updated.PickupAt.Equal(want) {
		t.Fatalf("expected pickup at %v, got %v", want, updated.PickupAt)
	}
}

func TestHandlerPartialUpdate(t *testing.T) {
	e, svc := newTestServer(t)

	created, err := svc.Create(context.Background(), validCreateParams())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	rec := doJSON(e, http.MethodPatch, "/api/ambulance/requests/"+created.ID.String(),
		map[string]any{"patient_hn": "HN-7", "patient_phone": nil})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var updated Request
	json.Unmarshal(rec.Body.Bytes(), &updated)
	if updated.PatientHN == nil || *updated.PatientHN != "HN-7" {
		t.Fatalf("expected HN set, got %+v", updated.PatientHN)
	}
	if updated.PatientName != created.PatientName {
		t.Fatal("absent field must survive the patch")
	}
}

func TestHandlerListPaginated(t *testing.T) {
	e, svc := newTestServer(t)

	for i := 0; i < 12; i++ {
		p := validCreateParams()
		p.PatientName = fmt.Sprintf("Patient %02d", i)
		if _, err := svc.Create(context.Background(), p); err != nil {
			t.Fatalf("Create %d: %v", i, err)
		}
	}

	rec := doJSON(e, http.MethodGet, "/api/ambulance/requests?page=2&page_size=5", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp struct {
		Data     []*Request `json:"data"`
		Total    int        `json:"total"`
		Page     int        `json:"page"`
		PageSize int        `json:"page_size"`
		HasMore  bool       `json:"has_more"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Total != 12 || len(resp.Data) != 5 || resp.Page != 2 || !resp.HasMore {
		t.Fatalf("unexpected page shape: total=%d len=%d page=%d more=%v",
			resp.Total, len(resp.Data), resp.Page, resp.HasMore)
	}
}

func TestHandlerListFilterValidation(t *testing.T) {
	e, _ := newTestServer(t)

	rec := doJSON(e, http.MethodGet, "/api/ambulance/requests?assignee_id=nope", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestHandlerDelete(t *testing.T) {
	e, svc := newTestServer(t)

	created, err := svc.Create(context.Background(), validCreateParams())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	rec := doJSON(e, http.MethodDelete, "/api/ambulance/requests/"+created.ID.String(), nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}

	// Second delete is a no-op, not an error.
	rec = doJSON(e, http.MethodDelete, "/api/ambulance/requests/"+created.ID.String(), nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 on repeat delete, got %d", rec.Code)
	}
}

func TestHandlerRequiresRole(t *testing.T) {
	repo := newMockRepo()
	dir := newMockDirectory()
	bus := eventbus.New(zerolog.Nop())
	svc := NewService(repo, dir, bus, zerolog.Nop())

	e := e2eEcho()
	h := NewHandler(svc, zerolog.Nop())
	// No auth middleware: the context carries no roles at all.
	h.RegisterRoutes(e.Group("/api/ambulance"))

	rec := doJSON(e, http.MethodGet, "/api/ambulance/requests", nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 without roles, got %d", rec.Code)
	}
}
