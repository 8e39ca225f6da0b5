package patient

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/neodose/neodose/internal/domain/guideline"
)

// AlertFunc hands a just-written order off for asynchronous dosing
// evaluation. Implementations must never block or fail the write path.
type AlertFunc func(patientID uuid.UUID, drugName, dose, frequency string, criticallyIll bool)

type Handler struct {
	svc      *Service
	resolver *guideline.Resolver
	cache    *guideline.Cache
	onAlert  AlertFunc
}

func NewHandler(svc *Service, resolver *guideline.Resolver, cache *guideline.Cache, onAlert AlertFunc) *Handler {
	if onAlert == nil {
		onAlert = func(uuid.UUID, string, string, string, bool) {}
	}
	return &Handler{svc: svc, resolver: resolver, cache: cache, onAlert: onAlert}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/patients", h.ListPatients)
	api.POST("/patients", h.CreatePatient)
	api.GET("/patients/:id", h.GetPatient)
	api.PUT("/patients/:id", h.UpdatePatient)
	api.DELETE("/patients/:id", h.DeletePatient)

	api.GET("/patients/:id/logs", h.ListLogs)
	api.POST("/patients/:id/logs", h.CreateLog)

	api.GET("/patients/:id/antibiotics", h.ListOrders)
	api.POST("/patients/:id/antibiotics", h.CreateOrder)
	api.PUT("/antibiotics/:id", h.UpdateOrder)

	api.GET("/antibiotics/options", h.AntibioticOptions)
	api.POST("/validate-dosage", h.ValidateDosage)
}

// -- Patient --

func (h *Handler) ListPatients(c echo.Context) error {
	patients, err := h.svc.ListPatients(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, patients)
}

func (h *Handler) GetPatient(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	p, err := h.svc.GetPatient(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "patient not found")
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) CreatePatient(c echo.Context) error {
	var p Patient
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreatePatient(c.Request().Context(), &p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) UpdatePatient(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var p Patient
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	p.ID = id
	if err := h.svc.UpdatePatient(c.Request().Context(), &p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) DeletePatient(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.DeletePatient(c.Request().Context(), id); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

// -- DailyLog --

func (h *Handler) ListLogs(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	logs, err := h.svc.ListLogs(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, logs)
}

func (h *Handler) CreateLog(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var l DailyLog
	if err := c.Bind(&l); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	l.PatientID = id
	if err := h.svc.CreateLog(c.Request().Context(), &l); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, l)
}

// -- AntibioticOrder --

func (h *Handler) ListOrders(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	orders, err := h.svc.ListOrders(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, orders)
}

func (h *Handler) CreateOrder(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var o AntibioticOrder
	if err := c.Bind(&o); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	o.PatientID = id
	if err := h.svc.CreateOrder(c.Request().Context(), &o); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	// The write has committed; dosing evaluation runs detached and can
	// never fail the request.
	h.onAlert(o.PatientID, o.DrugName, o.Dose, o.Frequency, o.CriticallyIll)
	return c.JSON(http.StatusCreated, o)
}

func (h *Handler) UpdateOrder(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var o AntibioticOrder
	if err := c.Bind(&o); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	o.ID = id
	if err := h.svc.UpdateOrder(c.Request().Context(), &o); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	h.onAlert(o.PatientID, o.DrugName, o.Dose, o.Frequency, o.CriticallyIll)
	return c.JSON(http.StatusOK, o)
}

// -- Dosing --

func (h *Handler) AntibioticOptions(c echo.Context) error {
	names := h.cache.DistinctAntibiotics(c.Request().Context())
	if names == nil {
		names = []string{}
	}
	return c.JSON(http.StatusOK, names)
}

type validateDosageRequest struct {
	PatientID     uuid.UUID `json:"patient_id"`
	DrugName      string    `json:"drug_name"`
	Dose          string    `json:"dose"`
	Frequency     string    `json:"frequency"`
	CriticallyIll bool      `json:"is_critically_ill"`
}

type validateDosageResponse struct {
	guideline.ComplianceResult
	RecommendedDose      string `json:"recommended_dose,omitempty"`
	RecommendedFrequency string `json:"recommended_frequency,omitempty"`
}

// ValidateDosage runs the recommendation and compliance check
// synchronously for the entry form, without touching any stored state.
func (h *Handler) ValidateDosage(c echo.Context) error {
	var req validateDosageRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.PatientID == uuid.Nil || req.DrugName == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "patient_id and drug_name are required")
	}
	ctx := c.Request().Context()

	p, err := h.svc.GetPatient(ctx, req.PatientID)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "patient not found")
	}
	logs, err := h.svc.ListLogs(ctx, p.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	severity := guideline.SeverityRoutine
	if req.CriticallyIll {
		severity = guideline.SeverityCritical
	}
	var pnaDays int
	var weight float64
	if current := CurrentLog(logs); current != nil {
		pnaDays = current.PostnatalAgeDays
		weight = current.WeightKg
	}

	rec := h.resolver.Recommend(ctx, req.DrugName, p.GestationalAgeWeeks, p.DateOfBirth, pnaDays, severity)
	resp := validateDosageResponse{
		ComplianceResult: guideline.CheckCompliance(req.Dose, req.Frequency, rec, weight),
	}
	if rec != nil {
		resp.RecommendedDose = rec.DoseText
		resp.RecommendedFrequency = rec.FreqText
	}
	return c.JSON(http.StatusOK, resp)
}
