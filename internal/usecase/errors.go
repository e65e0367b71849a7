package usecase

import (
	"hotel-booking/pkg/apperror"
	"hotel-booking/pkg/utils"
)

// validationError carries the per-field messages to the client under "errors".
func validationError(errs map[string]string) error {
	return &apperror.Error{
		Kind:    apperror.KindInvalidInput,
		Message: "Validation failed: " + utils.FormatValidationErrors(errs),
		Detail:  errs,
	}
}

var (
	errInvalidDateFormat = apperror.InvalidInput("Invalid date format. Please use YYYY-MM-DD format")
	errDateOrder         = apperror.InvalidInput("Check-in date must be before check-out date")
)
