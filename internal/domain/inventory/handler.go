package inventory

import (
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
	api.POST("/medicines", h.Add, auth.Require(auth.ActionMedicineManage))
	api.GET("/medicines", h.List, auth.Require(auth.ActionMedicineRead))
	api.GET("/medicines/:id", h.Get, auth.Require(auth.ActionMedicineRead))
	api.PUT("/medicines/:id/stock", h.AdjustStock, auth.Require(auth.ActionMedicineAdjust))
	api.PUT("/medicines/:id/price", h.UpdatePrice, auth.Require(auth.ActionMedicineManage))
}

type addRequest struct {
	Name  string `json:"name"`
	Stock int    `json:"stock"`
	Price int64  `json:"price"`
}

func (h *Handler) Add(c echo.Context) error {
	var req addRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Respond(c, apperr.New(apperr.KindInvalidArgument, "malformed request body"))
	}
	m, created, err := h.svc.AddMedicine(c.Request().Context(), req.Name, req.Stock, req.Price)
	if err != nil {
		return apperr.Respond(c, err)
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	return c.JSON(status, m)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.Respond(c, apperr.New(apperr.KindInvalidArgument, "invalid id"))
	}
	m, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(http.StatusOK, m)
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.List(c.Request().Context(), c.QueryParam("name"), pg.Limit, pg.Offset)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

type adjustStockRequest struct {
	Delta int `json:"delta"`
}

func (h *Handler) AdjustStock(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.Respond(c, apperr.New(apperr.KindInvalidArgument, "invalid id"))
	}
	var req adjustStockRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Respond(c, apperr.New(apperr.KindInvalidArgument, "malformed request body"))
	}
	m, err := h.svc.AdjustStock(c.Request().Context(), id, req.Delta)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(http.StatusOK, m)
}

type updatePriceRequest struct {
	Price int64 `json:"price"`
}

func (h *Handler) UpdatePrice(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.Respond(c, apperr.New(apperr.KindInvalidArgument, "invalid id"))
	}
	var req updatePriceRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Respond(c, apperr.New(apperr.KindInvalidArgument, "malformed request body"))
	}
	if err := h.svc.UpdatePrice(c.Request().Context(), id, req.Price); err != nil {
		return apperr.Respond(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
