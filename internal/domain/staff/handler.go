package staff

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

// RegisterRoutes wires the staff endpoints. The /me pair is registered on the
// identity group, which only requires authentication, so accounts pending
// approval can still see and edit their own profile.
func (h *Handler) RegisterRoutes(identity *echo.Group, api *echo.Group) {
	identity.GET("/me", h.Me)
	identity.PUT("/me", h.UpdateMe)

	admin := api.Group("", auth.RequireRole(auth.RoleAdmin))
	admin.GET("/staff", h.ListStaff)
	admin.PUT("/staff/:id/role", h.ReplaceRole)
}

type meResponse struct {
	*Member
	PendingApproval bool `json:"pending_approval"`
}

func (h *Handler) Me(c echo.Context) error {
	p := auth.PrincipalFromContext(c.Request().Context())
	if p == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	m, err := h.svc.Me(c.Request().Context(), p)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "staff identity not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load profile")
	}
	return c.JSON(http.StatusOK, meResponse{Member: m, PendingApproval: !m.IsStaff()})
}

func (h *Handler) UpdateMe(c echo.Context) error {
	p := auth.PrincipalFromContext(c.Request().Context())
	if p == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	var upd ProfileUpdate
	if err := c.Bind(&upd); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := h.svc.UpdateProfile(c.Request().Context(), p, upd); err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "staff identity not found")
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return h.Me(c)
}

func (h *Handler) ListStaff(c echo.Context) error {
	p := auth.PrincipalFromContext(c.Request().Context())
	if p == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	members, err := h.svc.Directory(c.Request().Context(), p)
	if err != nil {
		var forbidden *auth.ForbiddenError
		if errors.As(err, &forbidden) {
			return echo.NewHTTPError(http.StatusForbidden, forbidden.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list staff")
	}
	if members == nil {
		members = []*Member{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"data":  members,
		"total": len(members),
	})
}

type replaceRoleRequest struct {
	// Role is admin, doctor, nurse, or "none" to revoke all grants.
	Role string `json:"role"`
}

func (h *Handler) ReplaceRole(c echo.Context) error {
	p := auth.PrincipalFromContext(c.Request().Context())
	if p == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	targetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid staff id")
	}
	var req replaceRoleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	role, err := auth.ParseRoleAssignment(req.Role)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.svc.ReplaceRole(c.Request().Context(), p, targetID, role); err != nil {
		var forbidden *auth.ForbiddenError
		switch {
		case errors.As(err, &forbidden):
			return echo.NewHTTPError(http.StatusForbidden, forbidden.Error())
		case errors.Is(err, ErrNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "staff identity not found")
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, "failed to update role")
		}
	}
	return c.NoContent(http.StatusNoContent)
}
