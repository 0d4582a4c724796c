package patient

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/clinic/clinic/internal/platform/apperr"
	"github.com/clinic/clinic/internal/platform/auth"
	"github.com/clinic/clinic/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/patients", h.Register, auth.Require(auth.ActionPatientCreate))
	api.GET("/patients", h.List, auth.Require(auth.ActionPatientRead))
	api.GET("/patients/:id", h.Get, auth.Require(auth.ActionPatientRead))
	api.PUT("/patients/:id/metadata", h.UpdateMetadata, auth.Require(auth.ActionPatientUpdate))
}

type registerRequest struct {
	Name     string          `json:"name"`
	Phone    *string         `json:"phone"`
	Metadata json.RawMessage `json:"metadata"`
}

func (h *Handler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Respond(c, apperr.New(apperr.KindInvalidArgument, "malformed request body"))
	}
	p, err := h.svc.Register(c.Request().Context(), req.Name, req.Phone, req.Metadata)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.Respond(c, apperr.New(apperr.KindInvalidArgument, "invalid id"))
	}
	p, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)
	f := Filter{Name: c.QueryParam("name"), Phone: c.QueryParam("phone")}
	items, total, err := h.svc.List(c.Request().Context(), f, pg.Limit, pg.Offset)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

type updateMetadataRequest struct {
	Metadata json.RawMessage `json:"metadata"`
}

func (h *Handler) UpdateMetadata(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.Respond(c, apperr.New(apperr.KindInvalidArgument, "invalid id"))
	}
	var req updateMetadataRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Respond(c, apperr.New(apperr.KindInvalidArgument, "malformed request body"))
	}
	if err := h.svc.UpdateMetadata(c.Request().Context(), id, req.Metadata); err != nil {
		return apperr.Respond(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
