package billing

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
	api.POST("/bills", h.Create, auth.Require(auth.ActionBillCreate))
	api.GET("/bills/:id", h.Get, auth.Require(auth.ActionBillRead))
	api.GET("/patients/:id/bills", h.ListByPatient, auth.Require(auth.ActionBillRead))
}

type createRequest struct {
	PatientID uuid.UUID  `json:"patient_id"`
	Items     []LineItem `json:"items"`
	Amount    *int64     `json:"amount"`
}

func (h *Handler) Create(c echo.Context) error {
	var req createRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Respond(c, apperr.New(apperr.KindInvalidArgument, "malformed request body"))
	}
	b, err := h.svc.CreateBill(c.Request().Context(), req.PatientID, req.Items, req.Amount)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(http.StatusCreated, b)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.Respond(c, apperr.New(apperr.KindInvalidArgument, "invalid id"))
	}
	p := auth.PrincipalFromContext(c.Request().Context())
	b, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		// A patient principal learns nothing about other patients' bills,
		// not even that one exists.
		if p != nil && p.Role == auth.RolePatient && apperr.IsKind(err, apperr.KindNotFound) {
			return apperr.Respond(c, apperr.New(apperr.KindForbidden, "access denied"))
		}
		return apperr.Respond(c, err)
	}
	if !p.OwnsPatient(b.PatientID) {
		return apperr.Respond(c, apperr.New(apperr.KindForbidden, "access denied"))
	}
	return c.JSON(http.StatusOK, b)
}

func (h *Handler) ListByPatient(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.Respond(c, apperr.New(apperr.KindInvalidArgument, "invalid id"))
	}
	p := auth.PrincipalFromContext(c.Request().Context())
	if !p.OwnsPatient(patientID) {
		return apperr.Respond(c, apperr.New(apperr.KindForbidden, "access denied"))
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListByPatient(c.Request().Context(), patientID, pg.Limit, pg.Offset)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}
