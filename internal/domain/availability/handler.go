package availability

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/bms/bms/internal/domain/bed"
	"github.com/bms/bms/internal/platform/apperr"
	"github.com/bms/bms/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/beds/available", h.ListAvailable)
	api.GET("/beds/:id/availability", h.IsAvailable)
}

func (h *Handler) IsAvailable(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	res, err := h.svc.IsAvailable(c.Request().Context(), id)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *Handler) ListAvailable(c echo.Context) error {
	pg := pagination.FromContext(c)
	filter := Filter{}

	if dep := c.QueryParam("department_id"); dep != "" {
		id, err := uuid.Parse(dep)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid department_id")
		}
		filter.DepartmentID = &id
	}
	if bt := c.QueryParam("bed_type"); bt != "" {
		t := bed.Type(bt)
		filter.BedType = &t
	}

	beds, total, err := h.svc.ListAvailable(c.Request().Context(), filter, pg.Limit, pg.Offset)
	if err != nil {
		return apperr.ToHTTP(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(beds, total, pg.Limit, pg.Offset))
}
