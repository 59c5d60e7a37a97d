package porter

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/careops/transport-portal/internal/platform/auth"
	"github.com/careops/transport-portal/internal/platform/stream"
	"github.com/careops/transport-portal/pkg/pagination"
)

type Handler struct {
	svc    *Service
	logger zerolog.Logger
}

func NewHandler(svc *Service, logger zerolog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	readGroup := api.Group("", auth.RequireRole("admin", "dispatcher", "porter", "requester"))
	readGroup.GET("/requests", h.ListRequests)
	readGroup.GET("/requests/:id", h.GetRequest)
	readGroup.GET("/requests/ws", h.StreamRequests)

	writeGroup := api.Group("", auth.RequireRole("admin", "dispatcher", "porter", "requester"))
	writeGroup.POST("/requests", h.CreateRequest)
	writeGroup.PATCH("/requests/:id", h.UpdateRequest)
	writeGroup.PATCH("/requests/:id/status", h.UpdateRequestStatus)
	writeGroup.DELETE("/requests/:id", h.DeleteRequest)
}

func (h *Handler) CreateRequest(c echo.Context) error {
	var p CreateParams
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	req, err := h.svc.Create(c.Request().Context(), p)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, req)
}

func (h *Handler) GetRequest(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	req, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, req)
}

func (h *Handler) ListRequests(c echo.Context) error {
	pg := pagination.FromContext(c)

	f := Filter{
		Status:              c.QueryParam("status"),
		Urgency:             c.QueryParam("urgency"),
		RequesterDepartment: c.QueryParam("requester_department"),
	}
	if raw := c.QueryParam("assignee_id"); raw != "" {
		aid, err := uuid.Parse(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid assignee_id")
		}
		f.AssigneeID = &aid
	}

	reqs, total, err := h.svc.List(c.Request().Context(), f, pg.Page, pg.PageSize)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(reqs, total, pg))
}

func (h *Handler) UpdateRequest(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var p UpdateParams
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	req, err := h.svc.UpdateFields(c.Request().Context(), id, p)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, req)
}

func (h *Handler) UpdateRequestStatus(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var p StatusParams
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	req, err := h.svc.UpdateStatus(c.Request().Context(), id, p)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, req)
}

func (h *Handler) DeleteRequest(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// StreamRequests upgrades to a websocket and forwards lifecycle events.
// Optional status/urgency query params narrow Created and Updated events;
// transitions and deletions are always forwarded.
func (h *Handler) StreamRequests(c echo.Context) error {
	status := c.QueryParam("status")
	urgency := c.QueryParam("urgency")

	var filter stream.Filter
	if status != "" || urgency != "" {
		filter = func(record any) bool {
			req, ok := record.(*Request)
			if !ok {
				return false
			}
			if status != "" && req.Status != status {
				return false
			}
			if urgency != "" && req.Urgency != urgency {
				return false
			}
			return true
		}
	}

	return stream.ServeWS(c, h.svc.Bus(), filter, h.logger)
}

func httpError(err error) error {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return echo.NewHTTPError(http.StatusBadRequest, ve.Error())
	}
	if errors.Is(err, ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "porter request not found")
	}
	return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
}
