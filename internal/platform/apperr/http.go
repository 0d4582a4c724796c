package apperr

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

var statusByKind = map[Kind]int{
	KindNotFound:          http.StatusNotFound,
	KindDuplicateEmail:    http.StatusConflict,
	KindUnknownPatient:    http.StatusUnprocessableEntity,
	KindUnknownDoctor:     http.StatusUnprocessableEntity,
	KindUnknownStaff:      http.StatusUnprocessableEntity,
	KindInvalidRole:       http.StatusUnprocessableEntity,
	KindIllegalTransition: http.StatusConflict,
	KindEmptyMedicineList: http.StatusBadRequest,
	KindEmptyBill:         http.StatusBadRequest,
	KindAmountMismatch:    http.StatusUnprocessableEntity,
	KindInsufficientStock: http.StatusConflict,
	KindUnauthenticated:   http.StatusUnauthorized,
	KindForbidden:         http.StatusForbidden,
	KindInvalidArgument:   http.StatusBadRequest,
}

// HTTPStatus maps an error to its HTTP status. Errors without a kind map to 500.
func HTTPStatus(err error) int {
	if status, ok := statusByKind[KindOf(err)]; ok {
		return status
	}
	return http.StatusInternalServerError
}

type errorBody struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
}

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

// Respond writes err as a JSON error envelope. Kindless errors are reported
// as a generic 500 so internal detail does not leak to clients.
func Respond(c echo.Context, err error) error {
	kind := KindOf(err)
	if kind == "" {
		return c.JSON(http.StatusInternalServerError, errorEnvelope{
			Error: errorBody{Kind: "internal", Message: "internal server error"},
		})
	}
	msg := err.Error()
	var e *Error
	if errors.As(err, &e) {
		msg = e.Message
	}
	return c.JSON(HTTPStatus(err), errorEnvelope{Error: errorBody{Kind: kind, Message: msg}})
}
