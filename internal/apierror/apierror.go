// Package apierror maps ledger and fiber errors onto the JSON error body
// {"error": "...", "kind": "..."}.
package apierror

import (
	"errors"

	"plastics-backend/internal/config"
	"plastics-backend/internal/ledger"

	"github.com/gofiber/fiber/v2"
)

const (
	KindUnauthorized = "unauthorized"
	KindForbidden    = "forbidden"
)

type Error struct {
	Status  int    `json:"-"`
	Kind    string `json:"kind"`
	Message string `json:"error"`
}

func (e *Error) Error() string {
	return e.Message
}

var statusByKind = map[string]int{
	ledger.KindValidation:        fiber.StatusBadRequest,
	ledger.KindNotFound:          fiber.StatusNotFound,
	ledger.KindInsufficientStock: fiber.StatusUnprocessableEntity,
	ledger.KindDuplicate:         fiber.StatusConflict,
	ledger.KindConflict:          fiber.StatusConflict,
}

func kindByStatus(status int) string {
	switch status {
	case fiber.StatusBadRequest:
		return ledger.KindValidation
	case fiber.StatusUnauthorized:
		return KindUnauthorized
	case fiber.StatusForbidden:
		return KindForbidden
	case fiber.StatusNotFound:
		return ledger.KindNotFound
	case fiber.StatusConflict:
		return ledger.KindConflict
	case fiber.StatusUnprocessableEntity:
		return ledger.KindInsufficientStock
	}
	if status >= 500 {
		return ledger.KindInternal
	}
	return ledger.KindValidation
}

// From converts any error into the response shape. Internal errors get an opaque message.
func From(err error) *Error {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr
	}

	var fe *fiber.Error
	if errors.As(err, &fe) {
		return &Error{Status: fe.Code, Kind: kindByStatus(fe.Code), Message: fe.Message}
	}

	kind := ledger.KindOf(err)
	if status, ok := statusByKind[kind]; ok {
		return &Error{Status: status, Kind: kind, Message: err.Error()}
	}
	return &Error{
		Status:  fiber.StatusInternalServerError,
		Kind:    ledger.KindInternal,
		Message: "unexpected server error",
	}
}

// Handler is the fiber ErrorHandler. It logs what it hides from the client.
func Handler(c *fiber.Ctx, err error) error {
	apiErr := From(err)
	if apiErr.Status >= fiber.StatusInternalServerError {
		config.LogError(config.GetLogger(), "apierror", "Handler", c.Method()+" "+c.Path(), c.Locals("request_id"), err)
	}
	return c.Status(apiErr.Status).JSON(apiErr)
}

// Conflict is returned when a bill is being edited by another request.
func Conflict(message string) *Error {
	return &Error{Status: fiber.StatusConflict, Kind: ledger.KindConflict, Message: message}
}
