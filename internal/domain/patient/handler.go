package patient

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/carechart/carechart/internal/platform/auth"
	"github.com/carechart/carechart/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/patients", h.ListPatients)
	api.POST("/patients", h.CreatePatient)
	api.GET("/patients/:id", h.GetPatient)
	api.DELETE("/patients/:id", h.DeletePatient, auth.RequireRole(auth.RoleAdmin))
}

func (h *Handler) CreatePatient(c echo.Context) error {
	p := auth.PrincipalFromContext(c.Request().Context())
	if p == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	var pat Patient
	if err := c.Bind(&pat); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := h.svc.Register(c.Request().Context(), p, &pat); err != nil {
		var forbidden *auth.ForbiddenError
		if errors.As(err, &forbidden) {
			return echo.NewHTTPError(http.StatusForbidden, forbidden.Error())
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, &pat)
}

func (h *Handler) GetPatient(c echo.Context) error {
	p := auth.PrincipalFromContext(c.Request().Context())
	if p == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	pat, err := h.svc.Get(c.Request().Context(), p, id)
	if err != nil {
		return mapError(err, "failed to load patient")
	}
	return c.JSON(http.StatusOK, pat)
}

func (h *Handler) ListPatients(c echo.Context) error {
	p := auth.PrincipalFromContext(c.Request().Context())
	if p == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.List(c.Request().Context(), p, c.QueryParam("q"), pg.Limit, pg.Offset)
	if err != nil {
		return mapError(err, "failed to list patients")
	}
	if items == nil {
		items = []*Patient{}
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) DeletePatient(c echo.Context) error {
	p := auth.PrincipalFromContext(c.Request().Context())
	if p == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	if err := h.svc.Remove(c.Request().Context(), p, id); err != nil {
		return mapError(err, "failed to delete patient")
	}
	return c.NoContent(http.StatusNoContent)
}

func mapError(err error, fallback string) error {
	var forbidden *auth.ForbiddenError
	switch {
	case errors.As(err, &forbidden):
		return echo.NewHTTPError(http.StatusForbidden, forbidden.Error())
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "patient not found")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, fallback)
	}
}
