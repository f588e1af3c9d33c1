package sanctions

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation covers malformed requests: bad duration, missing subject.
	ErrValidation = errors.New("invalid request")
	// ErrPermissionDenied covers missing rights and hierarchy violations.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrEscalationLimit is returned when a subject already holds the maximum
	// number of outstanding warnings.
	ErrEscalationLimit = errors.New("warning limit reached")
	// ErrSubjectGone means Discord no longer knows the member. The reconciler
	// consumes it; it never reaches a moderator.
	ErrSubjectGone = errors.New("subject no longer exists")
	// ErrTransientPlatform is any other Discord or storage failure. Sweeps retry it.
	ErrTransientPlatform = errors.New("platform error")
	// ErrNotification and ErrAudit are logged by the log sink and never returned.
	ErrNotification = errors.New("notification failed")
	ErrAudit        = errors.New("audit log failed")
	// ErrNotFound is returned by stores for unknown sanction ids.
	ErrNotFound = errors.New("sanction not found")
)

// Public reports whether err is meant to be shown to the moderator who
// triggered it.
func Public(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrPermissionDenied) ||
		errors.Is(err, ErrEscalationLimit)
}

func validationf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func deniedf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrPermissionDenied, fmt.Sprintf(format, args...))
}

// transient wraps err as retryable unless it already carries a classification
func transient(op string, err error) error {
	if errors.Is(err, ErrSubjectGone) || errors.Is(err, ErrPermissionDenied) || errors.Is(err, ErrTransientPlatform) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %v", op, ErrTransientPlatform, err)
}
