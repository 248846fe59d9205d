package repositories

import (
	"vmtracker/internal/database"
)

type Repository struct {
	User               UserRepository
	Vehicle            VehicleRepository
	Odometer           OdometerRepository
	MaintenanceService MaintenanceServiceRepository
	MaintenanceRequest MaintenanceRequestRepository
}

func New(db database.DB) Repository {
	return Repository{
		User:               NewUserRepository(db.Cache.User),
		Vehicle:            NewVehicleRepository(),
		Odometer:           NewOdometerRepository(),
		MaintenanceService: NewMaintenanceServiceRepository(db.Cache.Catalog),
		MaintenanceRequest: NewMaintenanceRequestRepository(),
	}
}
