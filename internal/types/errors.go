package types

import (
	"github.com/juju/errors"
)

// Domain rule failures that have no juju/errors kind of their own. The
// remaining rules use errors.NotFound, errors.AlreadyExists, errors.NotValid,
// errors.Unauthorized and errors.Forbidden.
const (
	ErrInUse               = errors.ConstError("resource is in use")
	ErrInvalidTransition   = errors.ConstError("invalid status transition")
	ErrConstraintViolation = errors.ConstError("storage constraint violation")
)

// InUse reports that a row cannot be removed while other rows reference it.
func InUse(format string, args ...any) error {
	return errors.WithType(errors.Errorf(format, args...), ErrInUse)
}

// InvalidTransition reports a status change the workflow does not allow.
func InvalidTransition(format string, args ...any) error {
	return errors.WithType(errors.Errorf(format, args...), ErrInvalidTransition)
}
