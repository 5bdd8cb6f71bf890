package audit

import (
	"errors"
	"net/http"
	"strconv"

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
	api.GET("/audit-logs", h.ListAuditLogs, auth.RequireRole(auth.RoleAdmin))
}

func (h *Handler) ListAuditLogs(c echo.Context) error {
	p := auth.PrincipalFromContext(c.Request().Context())
	if p == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}

	f := QueryFilter{
		Action:       c.QueryParam("action"),
		ResourceType: c.QueryParam("resource_type"),
		Text:         c.QueryParam("q"),
	}
	if v := c.QueryParam("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid limit")
		}
		f.Limit = n
	}

	entries, err := h.svc.Query(c.Request().Context(), p, f)
	if err != nil {
		var forbidden *auth.ForbiddenError
		if errors.As(err, &forbidden) {
			return echo.NewHTTPError(http.StatusForbidden, forbidden.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list audit logs")
	}
	if entries == nil {
		entries = []*Entry{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"data":  entries,
		"total": len(entries),
	})
}
