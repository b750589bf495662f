package persistence

import (
	"errors"

	"github.com/anchala/pos/internal/domain/shared"
	"gorm.io/gorm"
)

// translateError maps store errors onto the domain taxonomy. A missing
// row becomes NOT_FOUND; everything else is a PERSISTENCE_ERROR that keeps
// the driver error as its cause.
func translateError(err error, notFoundMsg, failMsg string) error {
	if err == nil {
		return nil
	}
	var de *shared.DomainError
	if errors.As(err, &de) {
		return err
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return shared.NewNotFoundError(notFoundMsg)
	}
	return shared.NewPersistenceError(failMsg, err)
}
