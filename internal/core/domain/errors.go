package domain

import (
	"errors"
	"fmt"
)

var (
	ErrDocumentNotFound = errors.New("document not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrReportNotReady   = errors.New("report not ready")
	ErrTemporary        = errors.New("temporary failure")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}

// KindName labels an error by its semantic kind for metrics and logs.
func KindName(err error) string {
	switch {
	case err == nil:
		return "ok"
	case IsKind(err, ErrDocumentNotFound):
		return "not_found"
	case IsKind(err, ErrInvalidInput):
		return "invalid_input"
	case IsKind(err, ErrReportNotReady):
		return "report_not_ready"
	case IsKind(err, ErrTemporary):
		return "temporary"
	default:
		return "internal"
	}
}
