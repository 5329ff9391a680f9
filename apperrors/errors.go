package apperrors

import (
	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
)

// Business outcomes and request faults surfaced by the engine. Services wrap
// these with context via errors.Wrap; controllers match with errors.Is and
// map them to HTTP statuses.
var (
	ErrValidation             = errors.New("validation error")
	ErrNotFound               = errors.New("not found")
	ErrCapacityExceeded       = errors.New("departure capacity exceeded")
	ErrInsufficientPoints     = errors.New("insufficient loyalty points")
	ErrInvalidStateTransition = errors.New("invalid state transition")
	ErrSignatureInvalid       = errors.New("payment signature invalid")
	ErrConflict               = errors.New("concurrent update conflict")

	// ErrDuplicateBookingCode is handled internally by code regeneration and
	// never reaches a controller.
	ErrDuplicateBookingCode = errors.New("duplicate booking code")
)

// HTTPStatus maps an engine error to the HTTP status controllers respond
// with. Unknown errors are internal server errors.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrValidation):
		return fiber.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, ErrCapacityExceeded), errors.Is(err, ErrConflict):
		return fiber.StatusConflict
	case errors.Is(err, ErrInsufficientPoints), errors.Is(err, ErrInvalidStateTransition):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, ErrSignatureInvalid):
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}

