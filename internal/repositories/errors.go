package repositories

import (
	"vmtracker/internal/types"

	"github.com/juju/errors"
	"gorm.io/gorm"
)

// translateWriteError maps constraint violations raised by an insert or
// update onto domain errors. Anything else is returned unchanged.
func translateWriteError(err error, entity string) error {
	switch {
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return errors.AlreadyExistsf("%s", entity)
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return errors.NotFoundf("record referenced by %s", entity)
	case errors.Is(err, gorm.ErrCheckConstraintViolated):
		return errors.WithType(errors.Errorf("%s violates a storage constraint", entity), types.ErrConstraintViolation)
	default:
		return err
	}
}

// translateDeleteError maps a foreign key violation raised by a delete onto
// ErrInUse.
func translateDeleteError(err error, entity string) error {
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return types.InUse("%s is referenced by other records", entity)
	}
	return err
}

func isRecordNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
