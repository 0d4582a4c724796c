package identity

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

// RegisterRoutes wires the identity endpoints. Login is registered on the
// public group; everything else sits behind the auth middleware and the
// user-management policy.
func (h *Handler) RegisterRoutes(public, api *echo.Group) {
	public.POST("/auth/login", h.Login)

	admin := api.Group("", auth.Require(auth.ActionUserManage))
	admin.POST("/users", h.Register)
	admin.GET("/users", h.List)
	admin.GET("/users/:id", h.Get)
	admin.POST("/users/:id/deactivate", h.Deactivate)
	admin.POST("/users/:id/link-patient", h.LinkPatient)

	api.PUT("/users/:id/credential", h.UpdateCredential)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

func (h *Handler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Respond(c, apperr.New(apperr.KindInvalidArgument, "malformed request body"))
	}
	token, user, err := h.svc.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(http.StatusOK, loginResponse{Token: token, User: user})
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
	Name     string `json:"name"`
}

func (h *Handler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Respond(c, apperr.New(apperr.KindInvalidArgument, "malformed request body"))
	}
	role, err := auth.ParseRole(req.Role)
	if err != nil {
		return apperr.Respond(c, err)
	}
	user, err := h.svc.Register(c.Request().Context(), req.Email, req.Password, role, req.Name)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(http.StatusCreated, user)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.Respond(c, apperr.New(apperr.KindInvalidArgument, "invalid id"))
	}
	user, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(http.StatusOK, user)
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)
	users, total, err := h.svc.List(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(users, total, pg.Limit, pg.Offset))
}

func (h *Handler) Deactivate(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.Respond(c, apperr.New(apperr.KindInvalidArgument, "invalid id"))
	}
	if err := h.svc.Deactivate(c.Request().Context(), id); err != nil {
		return apperr.Respond(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

type linkPatientRequest struct {
	PatientID string `json:"patient_id"`
}

func (h *Handler) LinkPatient(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.Respond(c, apperr.New(apperr.KindInvalidArgument, "invalid id"))
	}
	var req linkPatientRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Respond(c, apperr.New(apperr.KindInvalidArgument, "malformed request body"))
	}
	patientID, err := uuid.Parse(req.PatientID)
	if err != nil {
		return apperr.Respond(c, apperr.New(apperr.KindInvalidArgument, "invalid patient_id"))
	}
	if err := h.svc.LinkPatient(c.Request().Context(), id, patientID); err != nil {
		return apperr.Respond(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

type updateCredentialRequest struct {
	Password string `json:"password"`
}

// UpdateCredential lets a user rotate their own password; superadmin may
// rotate anyone's.
func (h *Handler) UpdateCredential(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.Respond(c, apperr.New(apperr.KindInvalidArgument, "invalid id"))
	}
	p := auth.PrincipalFromContext(c.Request().Context())
	if p == nil {
		return apperr.Respond(c, apperr.New(apperr.KindUnauthenticated, "no authenticated principal"))
	}
	if p.UserID != id && p.Role != auth.RoleSuperadmin {
		return apperr.Respond(c, apperr.New(apperr.KindForbidden, "may only change own credential"))
	}
	var req updateCredentialRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Respond(c, apperr.New(apperr.KindInvalidArgument, "malformed request body"))
	}
	if err := h.svc.UpdateCredential(c.Request().Context(), id, req.Password); err != nil {
		return apperr.Respond(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
