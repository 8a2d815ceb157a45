package http

import (
	"errors"
	"net/http"

	"github.com/ridenrent/vehicle_rental_service/internal/core/domain"

	"github.com/go-playground/validator/v10"
)

// dateLayout is the wire format for reservation dates. Ranges are half-open:
// the end date is the handover day and is not itself occupied.
const dateLayout = "2006-01-02"

// statusFromError maps the core's sentinel errors onto HTTP status codes.
// Struct validation failures from the services count as bad input too.
func statusFromError(err error) int {
	var validationErrs validator.ValidationErrors
	switch {
	case errors.Is(err, domain.ErrInvalidRange),
		errors.As(err, &validationErrs):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrPaymentDeclined):
		return http.StatusPaymentRequired
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrConflict),
		errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrEmailTaken),
		errors.Is(err, domain.ErrPhoneTaken):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInvalidCredentials),
		errors.Is(err, domain.ErrInvalidOTP):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
