package billing

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/clinic/clinic/internal/platform/auth"
)

type errEnvelope struct {
	Error struct {
		Kind    string `json:"kind"`
		Message string `json:"message"`
	} `json:"error"`
}

func respKind(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var env errEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode error envelope: %v", err)
	}
	return env.Error.Kind
}

func principalContext(e *echo.Echo, req *http.Request, rec *httptest.ResponseRecorder, p *auth.Principal) echo.Context {
	c := e.NewContext(req, rec)
	c.SetRequest(req.WithContext(auth.ContextWithPrincipal(req.Context(), p)))
	return c
}

func patientPrincipal(patientID uuid.UUID) *auth.Principal {
	return &auth.Principal{UserID: uuid.New(), Role: auth.RolePatient, PatientID: &patientID}
}

func (f *fixture) createBill(t *testing.T) *Bill {
	t.Helper()
	items := []LineItem{{Description: "Consultation", Quantity: 1, Price: 500}}
	b, err := f.svc.CreateBill(context.Background(), f.patientID, items, nil)
	if err != nil {
		t.Fatalf("create bill: %v", err)
	}
	return b
}

// -- Handler Tests --

func TestHandler_GetBill_OwnPatient(t *testing.T) {
	f := newFixture()
	h := NewHandler(f.svc)
	e := echo.New()
	b := f.createBill(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := principalContext(e, req, rec, patientPrincipal(f.patientID))
	c.SetParamNames("id")
	c.SetParamValues(b.ID.String())

	if err := h.Get(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestHandler_GetBill_OtherPatientForbidden(t *testing.T) {
	f := newFixture()
	h := NewHandler(f.svc)
	e := echo.New()
	b := f.createBill(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := principalContext(e, req, rec, patientPrincipal(uuid.New()))
	c.SetParamNames("id")
	c.SetParamValues(b.ID.String())

	if err := h.Get(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", rec.Code)
	}
	if kind := respKind(t, rec); kind != "forbidden" {
		t.Errorf("kind = %s, want forbidden", kind)
	}
}

func TestHandler_GetBill_MissingLooksForbiddenToPatient(t *testing.T) {
	f := newFixture()
	h := NewHandler(f.svc)
	e := echo.New()

	// A bill the caller cannot see and a bill that does not exist must be
	// indistinguishable to a patient principal.
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := principalContext(e, req, rec, patientPrincipal(f.patientID))
	c.SetParamNames("id")
	c.SetParamValues(uuid.New().String())

	if err := h.Get(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", rec.Code)
	}
	if kind := respKind(t, rec); kind != "forbidden" {
		t.Errorf("kind = %s, want forbidden", kind)
	}
}

func TestHandler_GetBill_MissingIsNotFoundForStaffRoles(t *testing.T) {
	f := newFixture()
	h := NewHandler(f.svc)
	e := echo.New()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := principalContext(e, req, rec, &auth.Principal{UserID: uuid.New(), Role: auth.RoleAccountant})
	c.SetParamNames("id")
	c.SetParamValues(uuid.New().String())

	if err := h.Get(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestHandler_ListBills_OtherPatientForbidden(t *testing.T) {
	f := newFixture()
	h := NewHandler(f.svc)
	e := echo.New()
	f.createBill(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := principalContext(e, req, rec, patientPrincipal(uuid.New()))
	c.SetParamNames("id")
	c.SetParamValues(f.patientID.String())

	if err := h.ListByPatient(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", rec.Code)
	}
}

func TestHandler_ListBills_OwnPatient(t *testing.T) {
	f := newFixture()
	h := NewHandler(f.svc)
	e := echo.New()
	f.createBill(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := principalContext(e, req, rec, patientPrincipal(f.patientID))
	c.SetParamNames("id")
	c.SetParamValues(f.patientID.String())

	if err := h.ListByPatient(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}
