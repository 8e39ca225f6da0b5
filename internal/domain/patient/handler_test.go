package patient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/neodose/neodose/internal/domain/guideline"
)

func newTestHandler(t *testing.T) (*Handler, *echo.Echo, *[]ManualAlert) {
	t.Helper()
	svc, _, _ := newTestService()

	cache := guideline.NewCache(func(ctx context.Context) ([][]string, error) {
		return [][]string{
			{"1", "Ampicillin", "FALSE", "28", "34", "0", "7", "25", "50", "12", "12"},
		}, nil
	}, time.Minute, zerolog.Nop())

	var alerts []ManualAlert
	h := NewHandler(svc, guideline.NewResolver(cache), cache,
		func(patientID uuid.UUID, drugName, dose, frequency string, criticallyIll bool) {
			alerts = append(alerts, ManualAlert{patientID, drugName, dose, frequency, criticallyIll})
		})
	return h, echo.New(), &alerts
}

// ManualAlert records one onAlert hand-off during tests.
type ManualAlert struct {
	PatientID     uuid.UUID
	DrugName      string
	Dose          string
	Frequency     string
	CriticallyIll bool
}

func TestHandler_CreatePatient(t *testing.T) {
	h, e, _ := newTestHandler(t)

	body := `{"code":"BN001","full_name":"Baby A","gestational_age_weeks":30,"department":"NICU A"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/patients", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.CreatePatient(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}

	var p Patient
	json.Unmarshal(rec.Body.Bytes(), &p)
	if p.Code != "BN001" || p.AlertStatus != AlertNormal {
		t.Errorf("unexpected patient %+v", p)
	}
}

func TestHandler_CreatePatient_BadRequest(t *testing.T) {
	h, e, _ := newTestHandler(t)

	body := `{"full_name":"Baby A"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/patients", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.CreatePatient(c); err == nil {
		t.Error("expected error for missing code")
	}
}

func TestHandler_CreateOrderTriggersAlertHandoff(t *testing.T) {
	h, e, alerts := newTestHandler(t)

	p := &Patient{Code: "BN001", FullName: "Baby A"}
	if err := h.svc.CreatePatient(context.Background(), p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	body := `{"drug_name":"Ampicillin","dose":"40 mg","frequency":"12"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(p.ID.String())

	if err := h.CreateOrder(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}
	if len(*alerts) != 1 {
		t.Fatalf("expected 1 alert hand-off, got %d", len(*alerts))
	}
	got := (*alerts)[0]
	if got.PatientID != p.ID || got.DrugName != "Ampicillin" {
		t.Errorf("unexpected hand-off %+v", got)
	}
}

func TestHandler_ValidateDosage(t *testing.T) {
	h, e, _ := newTestHandler(t)

	p := &Patient{Code: "BN001", FullName: "Baby A", GestationalAgeWeeks: 30}
	if err := h.svc.CreatePatient(context.Background(), p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := h.svc.CreateLog(context.Background(), &DailyLog{
		PatientID:        p.ID,
		Date:             time.Now(),
		WeightKg:         1.2,
		PostnatalAgeDays: 5,
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	body := `{"patient_id":"` + p.ID.String() + `","drug_name":"Ampicillin","dose":"20 mg","frequency":"12"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/validate-dosage", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.ValidateDosage(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}

	var resp struct {
		IsCompliant     bool   `json:"is_compliant"`
		Reason          string `json:"reason"`
		RecommendedDose string `json:"recommended_dose"`
	}
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.IsCompliant {
		t.Error("expected non-compliant dose")
	}
	if resp.RecommendedDose != "25-50 mg/kg/dose" {
		t.Errorf("unexpected recommendation %q", resp.RecommendedDose)
	}
}

func TestHandler_ValidateDosage_UnknownPatient(t *testing.T) {
	h, e, _ := newTestHandler(t)

	body := `{"patient_id":"` + uuid.NewString() + `","drug_name":"Ampicillin"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/validate-dosage", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.ValidateDosage(c)
	if err == nil {
		t.Fatal("expected not-found error")
	}
	if he, ok := err.(*echo.HTTPError); !ok || he.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %v", err)
	}
}

func TestHandler_AntibioticOptions(t *testing.T) {
	h, e, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/antibiotics/options", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.AntibioticOptions(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var names []string
	json.Unmarshal(rec.Body.Bytes(), &names)
	if len(names) != 1 || names[0] != "Ampicillin" {
		t.Errorf("unexpected options %v", names)
	}
}
