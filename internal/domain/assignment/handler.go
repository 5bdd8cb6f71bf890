package assignment

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

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/patients/:id/assignments", h.ListAssignments)
	api.POST("/patients/:id/assignments", h.CreateAssignment)
	api.GET("/patients/:id/assignments/candidates", h.ListCandidates)
	api.DELETE("/assignments/:id", h.DeleteAssignment)
}

type createAssignmentRequest struct {
	StaffID uuid.UUID `json:"staff_id"`
	Notes   *string   `json:"notes,omitempty"`
}

func (h *Handler) CreateAssignment(c echo.Context) error {
	p := auth.PrincipalFromContext(c.Request().Context())
	if p == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	var req createAssignmentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.StaffID == uuid.Nil {
		return echo.NewHTTPError(http.StatusBadRequest, "staff_id is required")
	}

	a := &Assignment{PatientID: patientID, StaffID: req.StaffID, Notes: req.Notes}
	if err := h.svc.Assign(c.Request().Context(), p, a); err != nil {
		return mapError(err, "failed to create assignment")
	}
	return c.JSON(http.StatusCreated, a)
}

func (h *Handler) DeleteAssignment(c echo.Context) error {
	p := auth.PrincipalFromContext(c.Request().Context())
	if p == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid assignment id")
	}
	if err := h.svc.Unassign(c.Request().Context(), p, id); err != nil {
		return mapError(err, "failed to remove assignment")
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ListAssignments(c echo.Context) error {
	p := auth.PrincipalFromContext(c.Request().Context())
	if p == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	items, err := h.svc.ListForPatient(c.Request().Context(), p, patientID)
	if err != nil {
		return mapError(err, "failed to list assignments")
	}
	if items == nil {
		items = []*Assignment{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"data":  items,
		"total": len(items),
	})
}

func (h *Handler) ListCandidates(c echo.Context) error {
	p := auth.PrincipalFromContext(c.Request().Context())
	if p == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	items, err := h.svc.ListCandidates(c.Request().Context(), p, patientID)
	if err != nil {
		return mapError(err, "failed to list candidates")
	}
	if items == nil {
		items = []*Candidate{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"data":  items,
		"total": len(items),
	})
}

func mapError(err error, fallback string) error {
	var forbidden *auth.ForbiddenError
	switch {
	case errors.As(err, &forbidden):
		return echo.NewHTTPError(http.StatusForbidden, forbidden.Error())
	case errors.Is(err, ErrDuplicateAssignment):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, ErrNotStaff):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "assignment not found")
	case errors.Is(err, ErrPatientNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "patient not found")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, fallback)
	}
}
