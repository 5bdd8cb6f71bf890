package medrecord

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/carechart/carechart/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes wires the chart endpoints. There is intentionally no PUT or
// DELETE on records.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/patients/:id/records", h.ListRecords)
	api.POST("/patients/:id/records", h.CreateRecord)
}

type createRecordRequest struct {
	RecordType  string  `json:"record_type"`
	Title       string  `json:"title"`
	Description *string `json:"description,omitempty"`
}

func (h *Handler) CreateRecord(c echo.Context) error {
	p := auth.PrincipalFromContext(c.Request().Context())
	if p == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	var req createRecordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	rec := &Record{
		PatientID:   patientID,
		RecordType:  RecordType(req.RecordType),
		Title:       req.Title,
		Description: req.Description,
	}
	if err := h.svc.Append(c.Request().Context(), p, rec); err != nil {
		var forbidden *auth.ForbiddenError
		switch {
		case errors.As(err, &forbidden):
			return echo.NewHTTPError(http.StatusForbidden, forbidden.Error())
		case errors.Is(err, ErrPatientNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "patient not found")
		default:
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
	}
	return c.JSON(http.StatusCreated, rec)
}

func (h *Handler) ListRecords(c echo.Context) error {
	p := auth.PrincipalFromContext(c.Request().Context())
	if p == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	records, err := h.svc.ListForPatient(c.Request().Context(), p, patientID)
	if err != nil {
		var forbidden *auth.ForbiddenError
		switch {
		case errors.As(err, &forbidden):
			return echo.NewHTTPError(http.StatusForbidden, forbidden.Error())
		case errors.Is(err, ErrPatientNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "patient not found")
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, "failed to list records")
		}
	}
	if records == nil {
		records = []*Record{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"data":  records,
		"total": len(records),
	})
}
