package services

import (
	"errors"
	"time"

	"unicarpool/internal/repositories/interfaces"
	"unicarpool/internal/validators"
	apperrors "unicarpool/pkg/errors"
)

// Clock returns the current time. Services take one so tests can pin "now".
type Clock func() time.Time

func systemClock() time.Time {
	return time.Now().UTC()
}

// storeError converts a repository error into the AppError kind clients see.
// Errors that already carry a kind pass through unchanged.
func storeError(resource, operation string, err error) error {
	if err == nil {
		return nil
	}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	if errors.Is(err, interfaces.ErrNotFound) {
		return apperrors.NotFound(resource, err)
	}
	return apperrors.Transport(operation, err)
}

func validationError(errs validators.ValidationErrors) error {
	if len(errs) == 0 {
		return nil
	}
	return apperrors.Validation(errs.Fields())
}
