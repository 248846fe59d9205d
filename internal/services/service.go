package services

import (
	"vmtracker/config"
	"vmtracker/internal/database"

	"github.com/juju/clock"
)

type Service struct {
	Auth        *AuthService
	Transaction Transactor
	Clock       clock.Clock
}

// New builds the shared services. Transaction is left nil when no SQL store
// is open; the caller supplies the memory store's transactor in that case.
func New(db database.DB, config config.Config, clk clock.Clock) (Service, error) {
	if clk == nil {
		clk = clock.WallClock
	}

	authService, err := NewAuthService(config, clk)
	if err != nil {
		return Service{}, err
	}

	service := Service{Auth: authService, Clock: clk}
	if db.SQL != nil {
		service.Transaction = NewTransactionService(db)
	}

	return service, nil
}
